package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
	"github.com/taibuivan/civilregistry/pkg/slug"
)

const (
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	// typeAll selects every record type.
	typeAll = "all"

	// RecentLimit caps the dashboard's recent registrations.
	RecentLimit = 10

	minYear = 1900
	maxYear = 9999
)

type Service struct {
	repo     Repository
	logger   *slog.Logger
	location *time.Location
	now      func() time.Time
}

func NewService(repo Repository, location *time.Location, logger *slog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{repo: repo, logger: logger, location: location, now: time.Now}
}

// WithClock replaces the clock deciding the current month and year.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

func (service *Service) today() time.Time {
	return service.now().In(service.location)
}

// Statistics runs the six counters concurrently.
func (service *Service) Statistics(ctx context.Context) (Statistics, error) {
	monthFrom, monthTo := monthRange(service.today())

	var stats Statistics
	group, groupCtx := errgroup.WithContext(ctx)
	counters := []struct {
		recordType registry.Type
		total      *int
		monthly    *int
	}{
		{registry.TypeBirth, &stats.TotalBirths, &stats.MonthlyBirths},
		{registry.TypeMarriage, &stats.TotalMarriages, &stats.MonthlyMarriages},
		{registry.TypeDeath, &stats.TotalDeaths, &stats.MonthlyDeaths},
	}

	for _, counter := range counters {
		group.Go(func() error {
			count, err := service.repo.Count(groupCtx, counter.recordType)
			*counter.total = count
			return err
		})
		group.Go(func() error {
			count, err := service.repo.CountBetween(groupCtx, counter.recordType, monthFrom, monthTo)
			*counter.monthly = count
			return err
		})
	}

	if err := group.Wait(); err != nil {
		return Statistics{}, fmt.Errorf("report: statistics: %w", err)
	}
	stats.TotalRecords = stats.TotalBirths + stats.TotalMarriages + stats.TotalDeaths
	return stats, nil
}

// TrendInput selects a registration trend.
type TrendInput struct {
	Period     string
	Year       string
	RecordType string
}

// Trends returns one series per selected type, concatenated in birth, marriage,
// death order. Monthly series cover a single year; yearly series cover all years.
func (service *Service) Trends(ctx context.Context, input TrendInput) ([]TrendPoint, error) {
	if input.Period == "" {
		input.Period = PeriodMonthly
	}

	validator := &validate.Validator{}
	validator.
		OneOf("period", input.Period, PeriodMonthly, PeriodYearly).
		OneOf("recordType", input.RecordType, append(registry.Values(), typeAll)...)
	year := service.year(validator, input.Year)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	types := typesFor(input.RecordType)
	series := make([][]Bucket, len(types))
	group, groupCtx := errgroup.WithContext(ctx)
	for index, recordType := range types {
		group.Go(func() error {
			var err error
			if input.Period == PeriodYearly {
				series[index], err = service.repo.Yearly(groupCtx, recordType)
			} else {
				series[index], err = service.repo.Monthly(groupCtx, recordType, year)
			}
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("report: trends: %w", err)
	}

	points := []TrendPoint{}
	for index, recordType := range types {
		for _, bucket := range series[index] {
			point := TrendPoint{Type: recordType.Label(), Year: bucket.Year, Count: bucket.Count}
			if input.Period == PeriodYearly {
				point.Period = strconv.Itoa(bucket.Year)
			} else {
				point.Month = bucket.Month
				point.Period = time.Date(bucket.Year, time.Month(bucket.Month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
			}
			points = append(points, point)
		}
	}
	return points, nil
}

// Gender counts birth records by sex.
func (service *Service) Gender(ctx context.Context) ([]GenderCount, error) {
	counts, err := service.repo.Gender(ctx)
	if err != nil {
		return nil, err
	}
	for index := range counts {
		counts[index].Type = registry.TypeBirth.Label()
	}
	return counts, nil
}

// MonthlySummary returns twelve buckets for the year, empty months included.
func (service *Service) MonthlySummary(ctx context.Context, yearParam string) ([]MonthSummary, error) {
	validator := &validate.Validator{}
	year := service.year(validator, yearParam)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	series := make(map[registry.Type][]Bucket, len(registry.Types))
	results := make([][]Bucket, len(registry.Types))
	group, groupCtx := errgroup.WithContext(ctx)
	for index, recordType := range registry.Types {
		group.Go(func() error {
			var err error
			results[index], err = service.repo.Monthly(groupCtx, recordType, year)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("report: monthly summary: %w", err)
	}
	for index, recordType := range registry.Types {
		series[recordType] = results[index]
	}

	months := make([]MonthSummary, 12)
	for index := range months {
		months[index].Month = index + 1
	}
	add := func(buckets []Bucket, field func(*MonthSummary) *int) {
		for _, bucket := range buckets {
			if bucket.Month >= 1 && bucket.Month <= 12 {
				*field(&months[bucket.Month-1]) += bucket.Count
			}
		}
	}
	add(series[registry.TypeBirth], func(m *MonthSummary) *int { return &m.Births })
	add(series[registry.TypeMarriage], func(m *MonthSummary) *int { return &m.Marriages })
	add(series[registry.TypeDeath], func(m *MonthSummary) *int { return &m.Deaths })

	for index := range months {
		months[index].Total = months[index].Births + months[index].Marriages + months[index].Deaths
	}
	return months, nil
}

// Distribution returns the active record count of each type with its chart colour.
func (service *Service) Distribution(ctx context.Context) ([]TypeShare, error) {
	shares := make([]TypeShare, len(registry.Types))
	group, groupCtx := errgroup.WithContext(ctx)
	for index, recordType := range registry.Types {
		shares[index] = TypeShare{Type: recordType.Label(), Color: colors[recordType]}
		group.Go(func() error {
			count, err := service.repo.Count(groupCtx, recordType)
			shares[index].Count = count
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("report: distribution: %w", err)
	}
	return shares, nil
}

// Dashboard combines totals, this month's registrations, the latest records
// and today's certificate revenue.
func (service *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	today := service.today()
	monthStart, _ := registry.Periods(today)
	dayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, service.location)

	var dashboard Dashboard
	group, groupCtx := errgroup.WithContext(ctx)
	counters := []struct {
		recordType registry.Type
		total      *int
		thisMonth  *int
	}{
		{registry.TypeBirth, &dashboard.TotalBirths, &dashboard.ThisMonthBirths},
		{registry.TypeMarriage, &dashboard.TotalMarriages, &dashboard.ThisMonthMarriages},
		{registry.TypeDeath, &dashboard.TotalDeaths, &dashboard.ThisMonthDeaths},
	}
	for _, counter := range counters {
		group.Go(func() error {
			count, err := service.repo.Count(groupCtx, counter.recordType)
			*counter.total = count
			return err
		})
		group.Go(func() error {
			count, err := service.repo.CountCreated(groupCtx, counter.recordType, monthStart, monthStart.AddDate(0, 1, 0))
			*counter.thisMonth = count
			return err
		})
	}
	group.Go(func() error {
		recent, err := service.repo.Recent(groupCtx, RecentLimit)
		dashboard.RecentRegistrations = recent
		return err
	})
	group.Go(func() error {
		revenue, err := service.repo.Revenue(groupCtx, dayStart, dayStart.AddDate(0, 0, 1))
		dashboard.TodayCertificates, dashboard.TodayRevenue = revenue.Certificates, revenue.Amount
		return err
	})

	if err := group.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("report: dashboard: %w", err)
	}
	if dashboard.RecentRegistrations == nil {
		dashboard.RecentRegistrations = []Recent{}
	}
	dashboard.TotalRecords = dashboard.TotalBirths + dashboard.TotalMarriages + dashboard.TotalDeaths
	return dashboard, nil
}

// ExportInput selects the records to export.
type ExportInput struct {
	Format string
	Year   string
	Type   string
}

// Export collects the rows of the selected types for one year. An export with
// no rows is a not-found error.
func (service *Service) Export(ctx context.Context, input ExportInput) (Export, error) {
	if input.Format == "" {
		input.Format = FormatCSV
	}
	if input.Type == "" {
		input.Type = typeAll
	}

	validator := &validate.Validator{}
	validator.
		OneOf("format", input.Format, FormatCSV, FormatXLSX).
		OneOf("type", input.Type, append(registry.Values(), typeAll)...)
	year := service.year(validator, input.Year)
	if err := validator.Err(); err != nil {
		return Export{}, err
	}

	types := typesFor(input.Type)
	export := Export{
		Filename: slug.From(fmt.Sprintf("Civil Registry %s %d", input.Type, year)) + "." + input.Format,
		Sections: make([]Section, len(types)),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for index, recordType := range types {
		export.Sections[index] = Section{Type: recordType, Headers: Columns(recordType)}
		group.Go(func() error {
			rows, err := service.repo.ExportRows(groupCtx, recordType, year)
			export.Sections[index].Rows = rows
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return Export{}, fmt.Errorf("report: export: %w", err)
	}

	if export.Empty() {
		return Export{}, apperr.New(http.StatusNotFound, apperr.CodeNotFound, "No data found for the selected criteria")
	}

	rows := 0
	for _, section := range export.Sections {
		rows += len(section.Rows)
	}
	service.logger.Info("report_exported",
		slog.String("format", input.Format),
		slog.String("type", input.Type),
		slog.Int("year", year),
		slog.Int("rows", rows),
	)
	return export, nil
}

// year parses an optional year parameter, defaulting to the current year.
func (service *Service) year(validator *validate.Validator, value string) int {
	if value == "" {
		return service.today().Year()
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		validator.Custom("year", true, "Must be a valid year")
		return 0
	}
	validator.Range("year", year, minYear, maxYear)
	return year
}

// typesFor expands "all" (or "") into every record type.
func typesFor(value string) []registry.Type {
	if recordType, ok := registry.ParseType(value); ok {
		return []registry.Type{recordType}
	}
	return registry.Types
}

// monthRange returns the first and last calendar day of now's month.
func monthRange(now time.Time) (civil.Date, civil.Date) {
	first := civil.Date{Year: now.Year(), Month: now.Month(), Day: 1}
	return first, first.AddDays(daysIn(now.Year(), now.Month()) - 1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
