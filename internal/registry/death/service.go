package death

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/dedupe"
	"github.com/taibuivan/civilregistry/pkg/civil"
	"github.com/taibuivan/civilregistry/pkg/pagination"
)

// DuplicateMessage is returned when a registration collides with an active record.
const DuplicateMessage = "Duplicate record found. A record with the same name and dates already exists."

type Service struct {
	repo     Repository
	encoders registry.Encoders
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, encoders registry.Encoders, collectors *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		encoders: encoders,
		metrics:  collectors,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the registration clock. Its location decides "today" and
// the registry-number year.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

func (service *Service) List(ctx context.Context, filter registry.Filter, params pagination.Params) ([]Record, pagination.Meta, error) {
	records, total, err := service.repo.List(ctx, filter, params.PerPage, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	service.decorate(ctx, records)
	return records, pagination.NewMeta(params, total), nil
}

func (service *Service) Get(ctx context.Context, id int64) (*Record, error) {
	record, err := service.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	record.Decorate(service.encoders.Lookup(ctx, record.EncodedBy))
	return record, nil
}

// CheckDuplicate runs the exact and similar lookups without writing anything.
func (service *Service) CheckDuplicate(ctx context.Context, input CheckInput) (dedupe.Result[Record, Match], error) {
	key, err := input.Key()
	if err != nil {
		return dedupe.Result[Record, Match]{}, err
	}

	result, err := dedupe.Check(ctx,
		func(ctx context.Context) (*Record, error) { return service.repo.FindExact(ctx, key, input.ExcludeID) },
		func(ctx context.Context) ([]Match, error) { return service.repo.FindSimilar(ctx, key, dedupe.SimilarLimit) },
	)
	if err != nil {
		return result, err
	}

	if result.Duplicate != nil {
		result.Duplicate.Decorate(service.encoders.Lookup(ctx, result.Duplicate.EncodedBy))
	}
	result.CheckedFields = key.CheckedFields()
	return result, nil
}

// Register validates the form and stores the record under a new registry number.
func (service *Service) Register(ctx context.Context, encoder sec.Principal, input Input) (*Record, error) {
	now := service.now()
	if err := input.Validate(now); err != nil {
		return nil, err
	}

	record := input.Record()
	record.EncodedBy = encoder
	record.DateRegistered = civil.DateOf(now)

	if err := service.repo.Create(ctx, record); err != nil {
		return nil, service.duplicate(ctx, err)
	}

	service.metrics.IncrementRegistered(string(registry.TypeDeath))
	service.logger.Info("death_record_registered",
		slog.Int64("record_id", record.ID),
		slog.String("registry_number", record.RegistryNumber),
		slog.String("encoded_by", encoder.String()),
	)

	record.Decorate(service.encoders.Lookup(ctx, encoder))
	return record, nil
}

// Update re-validates the whole form and rewrites an active record.
func (service *Service) Update(ctx context.Context, id int64, input Input) (*Record, error) {
	if err := input.Validate(service.now()); err != nil {
		return nil, err
	}

	record := input.Record()
	record.ID = id

	if err := service.repo.Update(ctx, record); err != nil {
		return nil, service.duplicate(ctx, err)
	}

	service.logger.Info("death_record_updated", slog.Int64("record_id", id))
	return service.Get(ctx, id)
}

// Deactivate hides the record from listings and duplicate checks.
func (service *Service) Deactivate(ctx context.Context, actor sec.Principal, id int64) error {
	if err := service.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	service.logger.Warn("death_record_deactivated",
		slog.Int64("record_id", id),
		slog.String("actor", actor.String()),
	)
	return nil
}

func (service *Service) Search(ctx context.Context, term string) ([]Match, error) {
	if term == "" {
		return []Match{}, nil
	}
	return service.repo.Search(ctx, term, registry.SearchLimit)
}

func (service *Service) Statistics(ctx context.Context) (Statistics, error) {
	monthStart, yearStart := registry.Periods(service.now())
	return service.repo.Statistics(ctx, monthStart, yearStart)
}

// duplicate turns an in-transaction duplicate into the 409 response.
func (service *Service) duplicate(ctx context.Context, err error) error {
	conflict, ok := registry.AsDuplicate(err)
	if !ok {
		return err
	}

	service.metrics.IncrementDuplicates(string(registry.TypeDeath))
	if existing, ok := conflict.Existing.(*Record); ok {
		existing.Decorate(service.encoders.Lookup(ctx, existing.EncodedBy))
	}
	return apperr.Duplicate(DuplicateMessage, conflict.Existing)
}

func (service *Service) decorate(ctx context.Context, records []Record) {
	principals := make([]sec.Principal, len(records))
	for index := range records {
		principals[index] = records[index].EncodedBy
	}

	resolve := service.encoders.Resolve(ctx, principals)
	for index := range records {
		records[index].Decorate(resolve(records[index].EncodedBy))
	}
}
