package certificate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
	"github.com/taibuivan/civilregistry/pkg/pagination"
)

const (
	// CodeNumberTaken marks a certificate number collision.
	CodeNumberTaken = "CERTIFICATE_NUMBER_TAKEN"

	// NumberTakenMessage is returned when a certificate number was already logged.
	NumberTakenMessage = "This certificate number has already been used. Please generate a new certificate."

	// DefaultPerPage is the page size of the issuance history.
	DefaultPerPage = 15

	// maxAmount is the largest value NUMERIC(8,2) holds.
	maxAmount = 999999.99
)

type Service struct {
	repo     Repository
	records  Records
	issuers  registry.Encoders
	metrics  *metrics.Metrics
	logger   *slog.Logger
	location *time.Location
	now      func() time.Time
}

func NewService(repo Repository, records Records, issuers registry.Encoders, collectors *metrics.Metrics, location *time.Location, logger *slog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		repo:     repo,
		records:  records,
		issuers:  issuers,
		metrics:  collectors,
		logger:   logger,
		location: location,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to place statistics timeframes.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// IssueInput is the body of POST /certificate-issuance.
type IssueInput struct {
	CertificateType   string      `json:"certificate_type"`
	RecordID          *int64      `json:"record_id"`
	CertificateNumber string      `json:"certificate_number"`
	IssuedTo          string      `json:"issued_to"`
	AmountPaid        json.Number `json:"amount_paid"`
	ORNumber          string      `json:"or_number"`
	DatePaid          string      `json:"date_paid"`
	Purpose           string      `json:"purpose"`
}

// Validate checks the form and returns the log it describes.
func (input IssueInput) Validate() (*Log, error) {
	validator := &validate.Validator{}
	validator.
		Required("certificate_type", input.CertificateType).
		OneOf("certificate_type", input.CertificateType, registry.Values()...).
		Custom("record_id", input.RecordID == nil, "The record id field is required.").
		Required("certificate_number", input.CertificateNumber).
		MaxLen("certificate_number", input.CertificateNumber, 50).
		Custom("issued_to", strings.TrimSpace(input.IssuedTo) == "", "Recipient name is required.").
		MaxLen("issued_to", input.IssuedTo, 255).
		Custom("or_number", strings.TrimSpace(input.ORNumber) == "", "OR number is required for accounting purposes.").
		MaxLen("or_number", input.ORNumber, 50).
		Custom("date_paid", strings.TrimSpace(input.DatePaid) == "", "Date paid is required.").
		Date("date_paid", input.DatePaid).
		MaxLen("purpose", input.Purpose, 255)

	if input.RecordID != nil {
		validator.Custom("record_id", *input.RecordID < 1, "The record id must be at least 1.")
	}

	amount, amountErr := parseAmount(input.AmountPaid)
	switch {
	case input.AmountPaid == "":
		validator.Custom("amount_paid", true, "Amount paid is required.")
	case amountErr != nil:
		validator.Custom("amount_paid", true, "Amount must be a valid number.")
	default:
		validator.Custom("amount_paid", amount < 0, "Amount must be greater than 0.")
		validator.Custom("amount_paid", amount > maxAmount, "Amount may not be greater than 999999.99.")
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	recordType, _ := registry.ParseType(input.CertificateType)
	datePaid, _ := civil.ParseDate(strings.TrimSpace(input.DatePaid))
	return &Log{
		CertificateType:   recordType,
		RecordID:          *input.RecordID,
		CertificateNumber: strings.TrimSpace(input.CertificateNumber),
		IssuedTo:          strings.TrimSpace(input.IssuedTo),
		AmountPaid:        math.Round(amount*100) / 100,
		ORNumber:          strings.TrimSpace(input.ORNumber),
		DatePaid:          datePaid,
		Purpose:           registry.Optional(input.Purpose),
	}, nil
}

// Issue logs a certificate against an active record.
func (service *Service) Issue(ctx context.Context, issuer sec.Principal, input IssueInput) (*Log, error) {
	log, err := input.Validate()
	if err != nil {
		return nil, err
	}

	active, err := service.records.Active(ctx, log.CertificateType, log.RecordID)
	if err != nil {
		return nil, err
	}
	if !active {
		service.logger.Warn("certificate_record_missing",
			slog.String("certificate_type", string(log.CertificateType)),
			slog.Int64("record_id", log.RecordID),
		)
		return nil, apperr.NotFound("Record not found or not active.")
	}

	log.IssuedBy = issuer
	if err := service.repo.Create(ctx, log); err != nil {
		if errors.Is(err, ErrNumberTaken) {
			return nil, apperr.ConflictCode(CodeNumberTaken, NumberTakenMessage)
		}
		return nil, err
	}

	service.metrics.IncrementCertificates(string(log.CertificateType))
	service.logger.Info("certificate_issued",
		slog.Int64("log_id", log.ID),
		slog.String("certificate_number", log.CertificateNumber),
		slog.String("issued_by", issuer.String()),
	)

	log.IssuerName = service.issuers.Lookup(ctx, issuer).FullName
	return log, nil
}

// FilterInput carries the raw history filters.
type FilterInput struct {
	CertificateType string
	DateFrom        string
	DateTo          string
	Search          string
}

func (service *Service) List(ctx context.Context, input FilterInput, params pagination.Params) ([]Log, pagination.Meta, error) {
	validator := &validate.Validator{}
	validator.
		OneOf("certificate_type", input.CertificateType, registry.Values()...).
		Date("date_from", input.DateFrom).
		Date("date_to", input.DateTo)
	if err := validator.Err(); err != nil {
		return nil, pagination.Meta{}, err
	}

	filter := Filter{CertificateType: registry.Type(input.CertificateType), Search: input.Search}
	filter.DateFrom, _ = civil.ParseOptionalDate(input.DateFrom)
	filter.DateTo, _ = civil.ParseOptionalDate(input.DateTo)

	logs, total, err := service.repo.List(ctx, filter, params.PerPage, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	principals := make([]sec.Principal, len(logs))
	for index := range logs {
		principals[index] = logs[index].IssuedBy
	}
	resolve := service.issuers.Resolve(ctx, principals)
	for index := range logs {
		logs[index].IssuerName = resolve(logs[index].IssuedBy).FullName
	}
	return logs, pagination.NewMeta(params, total), nil
}

// Statistics groups the certificates issued in the current timeframe. An empty
// timeframe means the current month.
func (service *Service) Statistics(ctx context.Context, timeframe string) ([]Statistic, error) {
	if timeframe == "" {
		timeframe = string(TimeframeMonth)
	}
	validator := &validate.Validator{}
	validator.OneOf("timeframe", timeframe,
		string(TimeframeDay), string(TimeframeWeek), string(TimeframeMonth), string(TimeframeYear),
	)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	from, to := Timeframe(timeframe).Bounds(service.now().In(service.location))
	return service.repo.Statistics(ctx, from, to)
}

func parseAmount(value json.Number) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(string(value)), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, strconv.ErrSyntax
	}
	return amount, nil
}
