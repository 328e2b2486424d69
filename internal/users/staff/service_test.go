// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package staff_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/internal/users/directory"
	"github.com/taibuivan/civilregistry/internal/users/staff"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

var (
	admin     = sec.Principal{Kind: sec.KindAdmin, ID: 1}
	fixedTime = time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context) ([]staff.Staff, error) {
	args := m.Called(ctx)
	members, _ := args.Get(0).([]staff.Staff)
	return members, args.Error(1)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*staff.Staff, error) {
	args := m.Called(ctx, id)
	member, _ := args.Get(0).(*staff.Staff)
	return member, args.Error(1)
}

func (m *mockRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, member *staff.Staff) error {
	return m.Called(ctx, member).Error(0)
}

func (m *mockRepository) Update(ctx context.Context, member *staff.Staff) error {
	return m.Called(ctx, member).Error(0)
}

func (m *mockRepository) Deactivate(ctx context.Context, id int64, reason string, by int64, at time.Time) error {
	return m.Called(ctx, id, reason, by, at).Error(0)
}

func (m *mockRepository) Reactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) Statistics(ctx context.Context, recentSince time.Time) (staff.Statistics, error) {
	args := m.Called(ctx, recentSince)
	return args.Get(0).(staff.Statistics), args.Error(1)
}

type staticCreators struct{}

func (staticCreators) Resolve(_ context.Context, _ []sec.Principal) func(sec.Principal) directory.Profile {
	return func(principal sec.Principal) directory.Profile {
		return directory.Profile{ID: pointer.To(principal.ID), FullName: "Lorna Registrar", UserType: directory.UserTypeAdmin}
	}
}

type recordingNotifier struct {
	events []staff.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event staff.Event, _ staff.Staff) {
	n.events = append(n.events, event)
}

type fixture struct {
	service  *staff.Service
	repo     *mockRepository
	disk     *storage.Disk
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	repo := &mockRepository{}
	notifier := &recordingNotifier{}
	service := staff.NewService(repo, disk, staticCreators{}, notifier,
		staff.Settings{PublicBaseURL: "http://registry.local/", AvatarMaxSize: 2 << 20},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	).WithClock(func() time.Time { return fixedTime })

	return &fixture{service: service, repo: repo, disk: disk, notifier: notifier}
}

func (f *fixture) avatars(t *testing.T) []string {
	t.Helper()
	entries, err := f.disk.List("avatars")
	require.NoError(t, err)
	names := make([]string, len(entries))
	for index, entry := range entries {
		names[index] = entry.Name
	}
	return names
}

func validCreate() staff.CreateInput {
	return staff.CreateInput{
		Email:                "clerk@lgu.gov.ph",
		FullName:             "Maria Clerk",
		ContactNumber:        pointer.To("09171234567"),
		Password:             "Registry2024",
		PasswordConfirmation: "Registry2024",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	return appErr.Fields()
}

/*
TestService_Create_Validation covers the account form rules.
*/
func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(input *staff.CreateInput)
		field  string
	}{
		{"Missing_Email", func(i *staff.CreateInput) { i.Email = "" }, "email"},
		{"Long_Name", func(i *staff.CreateInput) { i.FullName = string(bytes.Repeat([]byte("a"), 101)) }, "full_name"},
		{"Landline", func(i *staff.CreateInput) { i.ContactNumber = pointer.To("0881234567") }, "contact_number"},
		{"Weak_Password", func(i *staff.CreateInput) { i.Password, i.PasswordConfirmation = "registry", "registry" }, "password"},
		{"Unconfirmed", func(i *staff.CreateInput) { i.PasswordConfirmation = "Registry2025" }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			input := validCreate()
			tt.mutate(&input)

			_, err := f.service.Create(context.Background(), admin, input)

			assert.Contains(t, fieldsOf(t, err), tt.field)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

/*
TestService_Create_EmailTaken verifies the uniqueness check runs before any write.
*/
func TestService_Create_EmailTaken(t *testing.T) {
	f := newFixture(t)
	f.repo.On("EmailTaken", mock.Anything, "clerk@lgu.gov.ph", int64(0)).Return(true, nil)

	input := validCreate()
	input.Avatar = &staff.Upload{Filename: "me.png", Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)}
	_, err := f.service.Create(context.Background(), admin, input)

	assert.Equal(t, "The email has already been taken.", fieldsOf(t, err)["email"])
	assert.Empty(t, f.avatars(t))
}

/*
TestService_Create_WithAvatar verifies the stored avatar name, URL, creator and
notification.
*/
func TestService_Create_WithAvatar(t *testing.T) {
	f := newFixture(t)
	f.repo.On("EmailTaken", mock.Anything, mock.Anything, int64(0)).Return(false, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(member *staff.Staff) bool {
		return sec.CheckPasswordHash("Registry2024", member.PasswordHash) && *member.CreatedBy == admin.ID
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*staff.Staff).ID = 12
	}).Return(nil)

	input := validCreate()
	input.Avatar = &staff.Upload{Filename: "Portrait.PNG", Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)}
	member, err := f.service.Create(context.Background(), admin, input)

	require.NoError(t, err)
	require.NotNil(t, member.Avatar)
	assert.Regexp(t, regexp.MustCompile(`^1719826200_[0-9a-f-]{36}\.png$`), *member.Avatar)
	assert.Equal(t, "http://registry.local/api/avatar/"+*member.Avatar, *member.AvatarURL)
	assert.Equal(t, "Lorna Registrar", member.Creator.FullName)
	assert.Equal(t, []string{*member.Avatar}, f.avatars(t))
	assert.Equal(t, []staff.Event{staff.EventCreated}, f.notifier.events)
}

/*
TestService_Create_RejectsNonImage verifies content sniffing and the size cap.
*/
func TestService_Create_RejectsNonImage(t *testing.T) {
	tests := []struct {
		name   string
		upload *staff.Upload
	}{
		{"Text_As_Png", &staff.Upload{Filename: "me.png", Size: 5, Content: bytes.NewReader([]byte("hello"))}},
		{"Pdf_Extension", &staff.Upload{Filename: "me.pdf", Size: 5, Content: bytes.NewReader([]byte("%PDF-"))}},
		{"Too_Large", &staff.Upload{Filename: "me.png", Size: 3 << 20, Content: bytes.NewReader(pngBytes)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.On("EmailTaken", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

			input := validCreate()
			input.Avatar = tt.upload
			_, err := f.service.Create(context.Background(), admin, input)

			assert.Contains(t, fieldsOf(t, err), "avatar")
			assert.Empty(t, f.avatars(t))
		})
	}
}

/*
TestService_Update_Avatar verifies replacement deletes the old file and removal
clears the column.
*/
func TestService_Update_Avatar(t *testing.T) {
	const old = "1700000000_old.png"

	t.Run("Replace", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.disk.Put(context.Background(), "avatars/"+old, bytes.NewReader(pngBytes))
		require.NoError(t, err)

		f.repo.On("Get", mock.Anything, int64(12)).Return(&staff.Staff{ID: 12, Email: "clerk@lgu.gov.ph", Avatar: pointer.To(old)}, nil)
		f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		member, err := f.service.Update(context.Background(), 12, staff.UpdateInput{
			Avatar: &staff.Upload{Filename: "new.png", Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)},
		})

		require.NoError(t, err)
		assert.NotEqual(t, old, *member.Avatar)
		assert.Equal(t, []string{*member.Avatar}, f.avatars(t))
	})

	t.Run("Remove", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.disk.Put(context.Background(), "avatars/"+old, bytes.NewReader(pngBytes))
		require.NoError(t, err)

		f.repo.On("Get", mock.Anything, int64(12)).Return(&staff.Staff{ID: 12, Avatar: pointer.To(old)}, nil)
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(member *staff.Staff) bool {
			return member.Avatar == nil
		})).Return(nil)

		member, err := f.service.Update(context.Background(), 12, staff.UpdateInput{RemoveAvatar: true})

		require.NoError(t, err)
		assert.Nil(t, member.AvatarURL)
		assert.Empty(t, f.avatars(t))
	})

	t.Run("Failed_Save_Keeps_Old", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.disk.Put(context.Background(), "avatars/"+old, bytes.NewReader(pngBytes))
		require.NoError(t, err)

		f.repo.On("Get", mock.Anything, int64(12)).Return(&staff.Staff{ID: 12, Avatar: pointer.To(old)}, nil)
		f.repo.On("Update", mock.Anything, mock.Anything).Return(apperr.Internal(os.ErrClosed))

		_, err = f.service.Update(context.Background(), 12, staff.UpdateInput{
			Avatar: &staff.Upload{Filename: "new.png", Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)},
		})

		require.Error(t, err)
		assert.Equal(t, []string{old}, f.avatars(t))
	})
}

/*
TestService_Update_Password verifies the password is only re-hashed when sent.
*/
func TestService_Update_Password(t *testing.T) {
	f := newFixture(t)
	f.repo.On("Get", mock.Anything, int64(12)).Return(&staff.Staff{ID: 12, PasswordHash: "unchanged"}, nil)
	f.repo.On("Update", mock.Anything, mock.MatchedBy(func(member *staff.Staff) bool {
		return member.PasswordHash == "unchanged" && member.FullName == "Maria C. Clerk"
	})).Return(nil).Once()

	_, err := f.service.Update(context.Background(), 12, staff.UpdateInput{FullName: pointer.To("Maria C. Clerk")})
	require.NoError(t, err)

	_, err = f.service.Update(context.Background(), 12, staff.UpdateInput{Password: "Registry2025", PasswordConfirmation: "nope"})
	assert.Contains(t, fieldsOf(t, err), "password")
	f.repo.AssertExpectations(t)
}

/*
TestService_Deactivate covers the self guard, the reason rule and the stamp.
*/
func TestService_Deactivate(t *testing.T) {
	t.Run("Self", func(t *testing.T) {
		f := newFixture(t)
		self := sec.Principal{Kind: sec.KindStaff, ID: 12}

		_, err := f.service.Deactivate(context.Background(), self, 12, "")

		assert.True(t, apperr.HasCode(err, "FORBIDDEN"))
		f.repo.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Reason_Required", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Deactivate(context.Background(), admin, 12, "  ")

		assert.Contains(t, fieldsOf(t, err), "deactivate_reason")
	})

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		reason := "Transferred to another office"
		f.repo.On("Deactivate", mock.Anything, int64(12), reason, admin.ID, fixedTime).Return(nil).Once()
		f.repo.On("Get", mock.Anything, int64(12)).Return(&staff.Staff{ID: 12, DeactivateReason: &reason}, nil)

		member, err := f.service.Deactivate(context.Background(), admin, 12, reason)

		require.NoError(t, err)
		assert.Equal(t, reason, *member.DeactivateReason)
		assert.Equal(t, []staff.Event{staff.EventDeactivated}, f.notifier.events)
		f.repo.AssertExpectations(t)
	})
}

/*
TestService_Reactivate verifies the notification follows a successful reactivation.
*/
func TestService_Reactivate(t *testing.T) {
	f := newFixture(t)
	f.repo.On("Reactivate", mock.Anything, int64(12)).Return(nil)
	f.repo.On("Get", mock.Anything, int64(12)).Return(&staff.Staff{ID: 12, IsActive: true}, nil)

	member, err := f.service.Reactivate(context.Background(), admin, 12)

	require.NoError(t, err)
	assert.True(t, member.IsActive)
	assert.Equal(t, []staff.Event{staff.EventReactivated}, f.notifier.events)
}

/*
TestService_Delete verifies the avatar file goes with the account.
*/
func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	_, err := f.disk.Put(context.Background(), "avatars/1700000000_old.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	f.repo.On("Get", mock.Anything, int64(12)).Return(&staff.Staff{ID: 12, Avatar: pointer.To("1700000000_old.png")}, nil)
	f.repo.On("Delete", mock.Anything, int64(12)).Return(nil)

	require.NoError(t, f.service.Delete(context.Background(), admin, 12))

	assert.Empty(t, f.avatars(t))
	_, statErr := os.Stat(filepath.Join(f.disk.Root(), "avatars", "1700000000_old.png"))
	assert.True(t, os.IsNotExist(statErr))
}

/*
TestService_Statistics verifies the recent window is thirty days back.
*/
func TestService_Statistics(t *testing.T) {
	f := newFixture(t)
	want := staff.Statistics{Total: 5, Active: 4, Inactive: 1, Recent: 2}
	f.repo.On("Statistics", mock.Anything, fixedTime.AddDate(0, 0, -30)).Return(want, nil)

	got, err := f.service.Statistics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
