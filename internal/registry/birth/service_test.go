// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package birth_test

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
	"github.com/taibuivan/civilregistry/internal/registry/birth"
	"github.com/taibuivan/civilregistry/internal/registry/dependent"
	"github.com/taibuivan/civilregistry/internal/users/directory"
	"github.com/taibuivan/civilregistry/pkg/civil"
	"github.com/taibuivan/civilregistry/pkg/pagination"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

// # Fixtures

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context, filter registry.Filter, limit, offset int) ([]birth.Record, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	records, _ := args.Get(0).([]birth.Record)
	return records, args.Int(1), args.Error(2)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*birth.Record, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*birth.Record)
	return record, args.Error(1)
}

func (m *mockRepository) Search(ctx context.Context, term string, limit int) ([]birth.Match, error) {
	args := m.Called(ctx, term, limit)
	matches, _ := args.Get(0).([]birth.Match)
	return matches, args.Error(1)
}

func (m *mockRepository) Statistics(ctx context.Context, monthStart, yearStart time.Time) (birth.Statistics, error) {
	args := m.Called(ctx, monthStart, yearStart)
	return args.Get(0).(birth.Statistics), args.Error(1)
}

func (m *mockRepository) FindExact(ctx context.Context, key birth.Key, excludeID int64) (*birth.Record, error) {
	args := m.Called(ctx, key, excludeID)
	record, _ := args.Get(0).(*birth.Record)
	return record, args.Error(1)
}

func (m *mockRepository) FindSimilar(ctx context.Context, key birth.Key, limit int) ([]birth.Match, error) {
	args := m.Called(ctx, key, limit)
	matches, _ := args.Get(0).([]birth.Match)
	return matches, args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, record *birth.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRepository) Update(ctx context.Context, record *birth.Record) (dependent.Transition, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(dependent.Transition), args.Error(1)
}

func (m *mockRepository) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type staticEncoders struct{}

func (staticEncoders) Lookup(_ context.Context, principal sec.Principal) directory.Profile {
	if principal.IsZero() {
		return directory.System()
	}
	return directory.Profile{ID: pointer.To(principal.ID), FullName: "Maria Clerk", UserType: directory.UserTypeStaff, Position: directory.PositionStaff}
}

func (encoders staticEncoders) Resolve(ctx context.Context, _ []sec.Principal) func(sec.Principal) directory.Profile {
	return func(principal sec.Principal) directory.Profile { return encoders.Lookup(ctx, principal) }
}

var (
	clerk     = sec.Principal{Kind: sec.KindStaff, ID: 4}
	fixedTime = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
)

func newService(repo birth.Repository) *birth.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return birth.NewService(repo, staticEncoders{}, metrics.Noop(), logger).
		WithClock(func() time.Time { return fixedTime })
}

func validInput() birth.Input {
	return birth.Input{
		ChildFirstName:  "Juan",
		ChildLastName:   "Dela Cruz",
		Sex:             birth.SexMale,
		DateOfBirth:     "2024-01-15",
		TimeOfBirth:     "8:30",
		PlaceOfBirth:    "Pagadian City Medical Center",
		AddressBarangay: "San Jose",
		AddressCity:     "Pagadian City",
		AddressProvince: "Zamboanga del Sur",
		TypeOfBirth:     "Single",
		BirthOrder:      pointer.To(1),
		BirthWeight:     pointer.To(3.2),

		MotherFirstName:           "Ana",
		MotherLastName:            "Santos",
		MotherCitizenship:         "Filipino",
		MotherAgeAtBirth:          pointer.To(28),
		MotherChildrenBornAlive:   pointer.To(1),
		MotherChildrenStillLiving: pointer.To(1),
		MotherChildrenDeceased:    pointer.To(0),
		MotherBarangay:            "San Jose",
		MotherCity:                "Pagadian City",
		MotherProvince:            "Zamboanga del Sur",

		FatherFirstName:   "Pedro",
		FatherLastName:    "Dela Cruz",
		FatherCitizenship: "Filipino",
		FatherAgeAtBirth:  pointer.To(31),
		FatherBarangay:    "San Jose",
		FatherCity:        "Pagadian City",
		FatherProvince:    "Zamboanga del Sur",

		AttendantType:          "Physician",
		AttendantName:          "Dr. Reyes",
		AttendantCertification: "I hereby certify that I attended the birth.",
		AttendantAddress:       "Pagadian City Medical Center",
		AttendantTitle:         "MD",

		InformantFirstName:             "Ana",
		InformantLastName:              "Santos",
		InformantRelationship:          "Mother",
		InformantAddress:               "San Jose, Pagadian City",
		InformantCertificationAccepted: pointer.To(true),
	}
}

// # Registration

/*
TestService_Register verifies the encoder, registration date and display fields
are set on a successful registration.
*/
func TestService_Register(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.AnythingOfType("*birth.Record")).
		Run(func(args mock.Arguments) {
			record := args.Get(1).(*birth.Record)
			record.ID = 1
			record.RegistryNumber = "BR-2024-00001"
		}).
		Return(nil).Once()

	record, err := newService(repo).Register(context.Background(), clerk, validInput())

	require.NoError(t, err)
	assert.Equal(t, "BR-2024-00001", record.RegistryNumber)
	assert.Equal(t, clerk, record.EncodedBy)
	assert.Equal(t, civil.MustDate("2024-03-10"), record.DateRegistered)
	assert.Equal(t, "Juan Dela Cruz", record.FullName)
	assert.Equal(t, "January 15, 2024", record.FormattedDateOfBirth)
	assert.Equal(t, "8:30 AM", record.FormattedTimeOfBirth)
	assert.Equal(t, "San Jose, Pagadian City, Zamboanga del Sur", record.BirthAddress)
	assert.Equal(t, "Maria Clerk", record.Encoder.FullName)
	assert.Equal(t, "Ana Santos", record.Mother.FullName)
	assert.Nil(t, record.ParentsMarriage)
	repo.AssertExpectations(t)
}

/*
TestService_Register_Duplicate verifies an in-transaction duplicate becomes a 409
carrying the existing record.
*/
func TestService_Register_Duplicate(t *testing.T) {
	existing := &birth.Record{ID: 9, RegistryNumber: "BR-2024-00001", FirstName: "Juan", LastName: "Dela Cruz", EncodedBy: clerk}

	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(&registry.DuplicateError{Existing: existing}).Once()

	_, err := newService(repo).Register(context.Background(), clerk, validInput())

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "DUPLICATE_RECORD", appErr.Code)
	assert.Equal(t, 409, appErr.HTTPStatus)
	assert.Equal(t, birth.DuplicateMessage, appErr.Message)
	assert.Same(t, existing, appErr.Attachment)
	assert.Equal(t, "Juan Dela Cruz", existing.FullName)
}

/*
TestService_Register_Validation verifies invalid forms are rejected before any
write.
*/
func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(input *birth.Input)
		field  string
	}{
		{"Missing_First_Name", func(input *birth.Input) { input.ChildFirstName = " " }, "child_first_name"},
		{"Bad_Sex", func(input *birth.Input) { input.Sex = "Unknown" }, "sex"},
		{"Future_Birth", func(input *birth.Input) { input.DateOfBirth = "2024-03-11" }, "date_of_birth"},
		{"Bad_Time", func(input *birth.Input) { input.TimeOfBirth = "25:00" }, "time_of_birth"},
		{"Light_Weight", func(input *birth.Input) { input.BirthWeight = pointer.To(0.2) }, "birth_weight"},
		{"Young_Mother", func(input *birth.Input) { input.MotherAgeAtBirth = pointer.To(12) }, "mother_age_at_birth"},
		{"Old_Father", func(input *birth.Input) { input.FatherAgeAtBirth = pointer.To(81) }, "father_age_at_birth"},
		{"Missing_Birth_Order", func(input *birth.Input) { input.BirthOrder = nil }, "birth_order"},
		{"Bad_Attendant", func(input *birth.Input) { input.AttendantType = "Shaman" }, "attendant_type"},
		{"Name_Changed_Without_Names", func(input *birth.Input) { input.NameChanged = true }, "current_first_name"},
		{"Certification_Missing", func(input *birth.Input) { input.InformantCertificationAccepted = nil }, "informant_certification_accepted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			input := validInput()
			tt.mutate(&input)

			_, err := newService(repo).Register(context.Background(), clerk, input)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			assert.Contains(t, appErr.Fields(), tt.field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

// # Duplicate Check

/*
TestService_CheckDuplicate verifies exact and similar results are combined and
the checked identity is echoed back.
*/
func TestService_CheckDuplicate(t *testing.T) {
	key := birth.Key{FirstName: "Juan", LastName: "Dela Cruz", DateOfBirth: civil.MustDate("2024-01-15"), PlaceOfBirth: "Other Hospital"}
	similar := []birth.Match{{ID: 1, RegistryNumber: "BR-2024-00001", FirstName: "Juan", LastName: "Dela Cruz"}}

	repo := &mockRepository{}
	repo.On("FindExact", mock.Anything, key, int64(0)).Return(nil, nil).Once()
	repo.On("FindSimilar", mock.Anything, key, 10).Return(similar, nil).Once()

	result, err := newService(repo).CheckDuplicate(context.Background(), birth.CheckInput{
		ChildFirstName: "Juan",
		ChildLastName:  "Dela Cruz",
		DateOfBirth:    "2024-01-15",
		PlaceOfBirth:   "Other Hospital",
	})

	require.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	assert.Nil(t, result.Duplicate)
	assert.Equal(t, similar, result.SimilarRecords)
	assert.Equal(t, "Other Hospital", result.CheckedFields["place_of_birth"])
	repo.AssertExpectations(t)
}

/*
TestService_CheckDuplicate_Invalid verifies the identity fields are required.
*/
func TestService_CheckDuplicate_Invalid(t *testing.T) {
	_, err := newService(&mockRepository{}).CheckDuplicate(context.Background(), birth.CheckInput{ChildFirstName: "Juan"})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Fields(), "child_last_name")
	assert.Contains(t, appErr.Fields(), "date_of_birth")
}

// # Maintenance

/*
TestService_Update verifies the record id is threaded through and the fresh
record is returned.
*/
func TestService_Update(t *testing.T) {
	input := validInput()
	input.MarriageDate = "2020-06-01"

	repo := &mockRepository{}
	repo.On("Update", mock.Anything, mock.MatchedBy(func(record *birth.Record) bool {
		return record.ID == 7 && record.ParentsMarriage != nil
	})).Return(dependent.Created, nil).Once()
	repo.On("Get", mock.Anything, int64(7)).Return(&birth.Record{ID: 7, FirstName: "Juan", LastName: "Dela Cruz", EncodedBy: clerk}, nil).Once()

	record, err := newService(repo).Update(context.Background(), 7, input)

	require.NoError(t, err)
	assert.Equal(t, int64(7), record.ID)
	assert.Equal(t, "Juan Dela Cruz", record.FullName)
	repo.AssertExpectations(t)
}

/*
TestService_Update_NotFound verifies an inactive or missing record surfaces as 404.
*/
func TestService_Update_NotFound(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Update", mock.Anything, mock.Anything).Return(dependent.None, apperr.NotFound("Birth record")).Once()

	_, err := newService(repo).Update(context.Background(), 7, validInput())

	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}

// # Reads

/*
TestService_List verifies pagination metadata and encoder decoration.
*/
func TestService_List(t *testing.T) {
	repo := &mockRepository{}
	repo.On("List", mock.Anything, registry.Filter{Search: "cruz"}, 2, 2).
		Return([]birth.Record{{ID: 3, FirstName: "Juan", LastName: "Cruz", EncodedBy: clerk}}, 3, nil).Once()

	records, meta, err := newService(repo).List(context.Background(), registry.Filter{Search: "cruz"}, pagination.Params{Page: 2, PerPage: 2})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Maria Clerk", records[0].Encoder.FullName)
	assert.Equal(t, pagination.Meta{CurrentPage: 2, LastPage: 2, PerPage: 2, Total: 3}, meta)
}

/*
TestService_Statistics verifies the month and year boundaries come from the clock.
*/
func TestService_Statistics(t *testing.T) {
	monthStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	repo := &mockRepository{}
	repo.On("Statistics", mock.Anything, monthStart, yearStart).
		Return(birth.Statistics{TotalRecords: 5, ThisMonth: 1, ThisYear: 4, Male: 3, Female: 2}, nil).Once()

	stats, err := newService(repo).Statistics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalRecords)
	repo.AssertExpectations(t)
}

/*
TestService_Search_Blank verifies an empty query does not hit the database.
*/
func TestService_Search_Blank(t *testing.T) {
	repo := &mockRepository{}

	matches, err := newService(repo).Search(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, matches)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}
