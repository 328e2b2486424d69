// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package marriage_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/marriage"
	"github.com/taibuivan/civilregistry/internal/users/directory"
	"github.com/taibuivan/civilregistry/pkg/civil"
	"github.com/taibuivan/civilregistry/pkg/pagination"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context, filter registry.Filter, limit, offset int) ([]marriage.Record, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	records, _ := args.Get(0).([]marriage.Record)
	return records, args.Int(1), args.Error(2)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*marriage.Record, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*marriage.Record)
	return record, args.Error(1)
}

func (m *mockRepository) Search(ctx context.Context, term string, limit int) ([]marriage.Match, error) {
	args := m.Called(ctx, term, limit)
	matches, _ := args.Get(0).([]marriage.Match)
	return matches, args.Error(1)
}

func (m *mockRepository) Statistics(ctx context.Context, monthStart, yearStart time.Time) (marriage.Statistics, error) {
	args := m.Called(ctx, monthStart, yearStart)
	return args.Get(0).(marriage.Statistics), args.Error(1)
}

func (m *mockRepository) FindExact(ctx context.Context, key marriage.Key, excludeID int64) (*marriage.Record, error) {
	args := m.Called(ctx, key, excludeID)
	record, _ := args.Get(0).(*marriage.Record)
	return record, args.Error(1)
}

func (m *mockRepository) FindSimilar(ctx context.Context, key marriage.Key, limit int) ([]marriage.Match, error) {
	args := m.Called(ctx, key, limit)
	matches, _ := args.Get(0).([]marriage.Match)
	return matches, args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, record *marriage.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRepository) Update(ctx context.Context, record *marriage.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRepository) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type staticEncoders struct{}

func (staticEncoders) Lookup(_ context.Context, principal sec.Principal) directory.Profile {
	if principal.IsZero() {
		return directory.System()
	}
	return directory.Profile{ID: pointer.To(principal.ID), FullName: "Lorna Registrar", UserType: directory.UserTypeAdmin, Position: directory.PositionAdmin}
}

func (encoders staticEncoders) Resolve(ctx context.Context, _ []sec.Principal) func(sec.Principal) directory.Profile {
	return func(principal sec.Principal) directory.Profile { return encoders.Lookup(ctx, principal) }
}

var (
	registrar = sec.Principal{Kind: sec.KindAdmin, ID: 1}
	fixedTime = time.Date(2024, time.June, 20, 14, 0, 0, 0, time.UTC)
)

func newService(repo marriage.Repository) *marriage.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return marriage.NewService(repo, staticEncoders{}, metrics.Noop(), logger).
		WithClock(func() time.Time { return fixedTime })
}

func validInput() marriage.Input {
	return marriage.Input{
		Province:         "Zamboanga del Sur",
		CityMunicipality: "Pagadian City",
		DateOfMarriage:   "2024-06-15",
		TimeOfMarriage:   "9:00",
		PlaceOfMarriage:  "St. Joseph Cathedral",
		MarriageType:     "Church",
		LicenseNumber:    "ML-2024-0042",
		LicenseDate:      "2024-05-20",
		LicensePlace:     "Pagadian City",
		PropertyRegime:   "Absolute Community",

		HusbandFirstName:         "Pedro",
		HusbandMiddleName:        "Reyes",
		HusbandLastName:          "Dela Cruz",
		HusbandBirthdate:         "1995-02-11",
		HusbandBirthplace:        "Pagadian City",
		HusbandSex:               "Male",
		HusbandCitizenship:       "Filipino",
		HusbandCivilStatus:       "Single",
		HusbandAddress:           "San Jose, Pagadian City",
		HusbandFatherName:        "Jose Dela Cruz",
		HusbandFatherCitizenship: "Filipino",
		HusbandMotherName:        "Rosa Reyes",
		HusbandMotherCitizenship: "Filipino",

		WifeFirstName:         "Ana",
		WifeLastName:          "Santos",
		WifeBirthdate:         "1997-08-03",
		WifeBirthplace:        "Dumingag",
		WifeSex:               "Female",
		WifeCitizenship:       "Filipino",
		WifeCivilStatus:       "Single",
		WifeAddress:           "Tiguma, Pagadian City",
		WifeFatherName:        "Carlos Santos",
		WifeFatherCitizenship: "Filipino",
		WifeMotherName:        "Elena Garcia",
		WifeMotherCitizenship: "Filipino",

		OfficiatingOfficer: "Rev. Fr. Miguel Tan",
		Witness1Name:       "Luis Ramos",
		Witness1Address:    "Pagadian City",
		Witness2Name:       "Carmen Lim",
		Witness2Address:    "Pagadian City",
	}
}

/*
TestService_Register verifies the encoder, registration date and couple display
fields on a successful registration.
*/
func TestService_Register(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.AnythingOfType("*marriage.Record")).
		Run(func(args mock.Arguments) {
			record := args.Get(1).(*marriage.Record)
			record.ID = 1
			record.RegistryNumber = "MR-2024-00001"
		}).
		Return(nil).Once()

	record, err := newService(repo).Register(context.Background(), registrar, validInput())

	require.NoError(t, err)
	assert.Equal(t, "MR-2024-00001", record.RegistryNumber)
	assert.Equal(t, registrar, record.EncodedBy)
	assert.Equal(t, civil.MustDate("2024-06-20"), record.DateRegistered)
	assert.Equal(t, "Pedro Reyes Dela Cruz & Ana Santos", record.CoupleNames)
	assert.Equal(t, "June 15, 2024", record.FormattedDateOfMarriage)
	assert.Equal(t, "9:00 AM", record.FormattedTimeOfMarriage)
	assert.Equal(t, "Lorna Registrar", record.Encoder.FullName)
	assert.Nil(t, record.WifeMiddleName)
	repo.AssertExpectations(t)
}

/*
TestService_Register_Duplicate verifies a duplicate couple becomes a 409 with the
marriage-specific message.
*/
func TestService_Register_Duplicate(t *testing.T) {
	existing := &marriage.Record{ID: 3, RegistryNumber: "MR-2024-00001", HusbandFirstName: "Pedro", HusbandLastName: "Dela Cruz", WifeFirstName: "Ana", WifeLastName: "Santos"}

	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(&registry.DuplicateError{Existing: existing}).Once()

	_, err := newService(repo).Register(context.Background(), registrar, validInput())

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "DUPLICATE_RECORD", appErr.Code)
	assert.Equal(t, marriage.DuplicateMessage, appErr.Message)
	assert.Same(t, existing, appErr.Attachment)
	assert.Equal(t, "Pedro Dela Cruz & Ana Santos", existing.CoupleNames)
}

/*
TestService_Register_Validation verifies both spouses are validated by the same
rules.
*/
func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(input *marriage.Input)
		field  string
	}{
		{"Future_Marriage", func(input *marriage.Input) { input.DateOfMarriage = "2024-06-21" }, "date_of_marriage"},
		{"Missing_Time", func(input *marriage.Input) { input.TimeOfMarriage = "" }, "time_of_marriage"},
		{"Bad_Type", func(input *marriage.Input) { input.MarriageType = "Secret" }, "marriage_type"},
		{"Bad_Regime", func(input *marriage.Input) { input.PropertyRegime = "Mixed" }, "property_regime"},
		{"Husband_Missing_Father", func(input *marriage.Input) { input.HusbandFatherName = "" }, "husband_father_name"},
		{"Wife_Missing_Mother", func(input *marriage.Input) { input.WifeMotherCitizenship = "" }, "wife_mother_citizenship"},
		{"Wife_Future_Birthdate", func(input *marriage.Input) { input.WifeBirthdate = "2030-01-01" }, "wife_birthdate"},
		{"Husband_Bad_Status", func(input *marriage.Input) { input.HusbandCivilStatus = "Married" }, "husband_civil_status"},
		{"Missing_Officer", func(input *marriage.Input) { input.OfficiatingOfficer = " " }, "officiating_officer"},
		{"Missing_Witness", func(input *marriage.Input) { input.Witness2Address = "" }, "witness2_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			input := validInput()
			tt.mutate(&input)

			_, err := newService(repo).Register(context.Background(), registrar, input)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			assert.Contains(t, appErr.Fields(), tt.field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

/*
TestService_CheckDuplicate verifies the place only joins the identity when given.
*/
func TestService_CheckDuplicate(t *testing.T) {
	key := marriage.Key{
		HusbandFirstName: "Pedro", HusbandLastName: "Dela Cruz",
		WifeFirstName: "Ana", WifeLastName: "Santos",
		DateOfMarriage: civil.MustDate("2024-06-15"),
	}
	existing := &marriage.Record{ID: 3, HusbandFirstName: "Pedro", HusbandLastName: "Dela Cruz", WifeFirstName: "Ana", WifeLastName: "Santos"}

	repo := &mockRepository{}
	repo.On("FindExact", mock.Anything, key, int64(5)).Return(existing, nil).Once()
	repo.On("FindSimilar", mock.Anything, key, 10).Return([]marriage.Match{}, nil).Once()

	result, err := newService(repo).CheckDuplicate(context.Background(), marriage.CheckInput{
		HusbandFirstName: " Pedro ",
		HusbandLastName:  "Dela Cruz",
		WifeFirstName:    "Ana",
		WifeLastName:     "Santos",
		DateOfMarriage:   "2024-06-15",
		ExcludeID:        5,
	})

	require.NoError(t, err)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, "Lorna Registrar", result.Duplicate.Encoder.FullName)
	assert.NotContains(t, result.CheckedFields, "place_of_marriage")
	repo.AssertExpectations(t)
}

/*
TestService_Update verifies updates never touch the registry number or encoder.
*/
func TestService_Update(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Update", mock.Anything, mock.MatchedBy(func(record *marriage.Record) bool {
		return record.ID == 7 && record.RegistryNumber == "" && record.EncodedBy.IsZero()
	})).Return(nil).Once()
	repo.On("Get", mock.Anything, int64(7)).Return(&marriage.Record{ID: 7, RegistryNumber: "MR-2024-00007", EncodedBy: registrar}, nil).Once()

	record, err := newService(repo).Update(context.Background(), 7, validInput())

	require.NoError(t, err)
	assert.Equal(t, "MR-2024-00007", record.RegistryNumber)
	repo.AssertExpectations(t)
}

/*
TestService_Deactivate verifies a missing record is reported as 404.
*/
func TestService_Deactivate(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Deactivate", mock.Anything, int64(7)).Return(apperr.NotFound("Marriage record")).Once()

	err := newService(repo).Deactivate(context.Background(), registrar, 7)

	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}

/*
TestService_List verifies the place filter reaches the repository.
*/
func TestService_List(t *testing.T) {
	filter := registry.Filter{Place: "Cathedral"}
	repo := &mockRepository{}
	repo.On("List", mock.Anything, filter, 1000, 0).
		Return([]marriage.Record{{ID: 1, HusbandFirstName: "Pedro", HusbandLastName: "Dela Cruz", WifeFirstName: "Ana", WifeLastName: "Santos"}}, 1, nil).Once()

	records, meta, err := newService(repo).List(context.Background(), filter, pagination.Params{Page: 1, PerPage: 1000})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "System", records[0].Encoder.FullName)
	assert.Equal(t, 1, meta.Total)
}
