// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/users/auth"
)

const (
	password  = "s3cret-Pass"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) FindByEmail(ctx context.Context, kind sec.Kind, email string) (*auth.Account, error) {
	args := m.Called(ctx, kind, email)
	account, _ := args.Get(0).(*auth.Account)
	return account, args.Error(1)
}

func (m *mockAccounts) Find(ctx context.Context, principal sec.Principal) (*auth.Account, error) {
	args := m.Called(ctx, principal)
	account, _ := args.Get(0).(*auth.Account)
	return account, args.Error(1)
}

func (m *mockAccounts) EmailTaken(ctx context.Context, principal sec.Principal, email string) (bool, error) {
	args := m.Called(ctx, principal, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccounts) UsernameTaken(ctx context.Context, adminID int64, username string) (bool, error) {
	args := m.Called(ctx, adminID, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccounts) UpdateProfile(ctx context.Context, account *auth.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *mockAccounts) UpdatePassword(ctx context.Context, principal sec.Principal, hash string) error {
	return m.Called(ctx, principal, hash).Error(0)
}

func (m *mockAccounts) StampLogin(ctx context.Context, staffID int64, at time.Time, agent string) error {
	return m.Called(ctx, staffID, at, agent).Error(0)
}

func (m *mockAccounts) CreateAdmin(ctx context.Context, account *auth.Account) error {
	return m.Called(ctx, account).Error(0)
}

type fixture struct {
	service  *auth.Service
	accounts *mockAccounts
	redis    *miniredis.Miniredis
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	accounts := &mockAccounts{}
	now := time.Now().Truncate(time.Second)
	service := auth.NewService(
		accounts,
		auth.NewRevocationStore(client),
		sec.NewTokenServiceFromKeys(key, "civilregistry.test"),
		metrics.Noop(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	).WithClock(func() time.Time { return now })

	return &fixture{service: service, accounts: accounts, redis: server, now: now}
}

func hashed(t *testing.T, plain string) string {
	t.Helper()
	hash, err := sec.HashPassword(plain)
	require.NoError(t, err)
	return hash
}

func adminAccount(t *testing.T) *auth.Account {
	username := "registrar"
	return &auth.Account{
		ID: 1, Kind: sec.KindAdmin, Username: &username, Email: "registrar@lgu.gov.ph",
		PasswordHash: hashed(t, password), FullName: "Lorna Registrar", IsActive: true,
	}
}

func staffAccount(t *testing.T) *auth.Account {
	return &auth.Account{
		ID: 7, Kind: sec.KindStaff, Email: "clerk@lgu.gov.ph",
		PasswordHash: hashed(t, password), FullName: "Maria Clerk", IsActive: true,
	}
}

func notFound() error {
	return apperr.NotFound("User")
}

/*
TestService_Login covers both principal kinds and the rejection paths.
*/
func TestService_Login(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		setup      func(t *testing.T, f *fixture)
		wantStatus int
		wantKind   sec.Kind
	}{
		{
			name:     "Admin",
			email:    "registrar@lgu.gov.ph",
			password: password,
			setup: func(t *testing.T, f *fixture) {
				f.accounts.On("FindByEmail", mock.Anything, sec.KindAdmin, "registrar@lgu.gov.ph").Return(adminAccount(t), nil)
			},
			wantKind: sec.KindAdmin,
		},
		{
			name:     "Staff_Stamps_Login",
			email:    "clerk@lgu.gov.ph",
			password: password,
			setup: func(t *testing.T, f *fixture) {
				f.accounts.On("FindByEmail", mock.Anything, sec.KindAdmin, "clerk@lgu.gov.ph").Return(nil, notFound())
				f.accounts.On("FindByEmail", mock.Anything, sec.KindStaff, "clerk@lgu.gov.ph").Return(staffAccount(t), nil)
				f.accounts.On("StampLogin", mock.Anything, int64(7), f.now, userAgent).Return(nil).Once()
			},
			wantKind: sec.KindStaff,
		},
		{
			name:     "Deactivated_Before_Password",
			email:    "clerk@lgu.gov.ph",
			password: "wrong",
			setup: func(t *testing.T, f *fixture) {
				reason := "Transferred to another office"
				staff := staffAccount(t)
				staff.IsActive = false
				staff.DeactivateReason = &reason
				f.accounts.On("FindByEmail", mock.Anything, sec.KindAdmin, "clerk@lgu.gov.ph").Return(nil, notFound())
				f.accounts.On("FindByEmail", mock.Anything, sec.KindStaff, "clerk@lgu.gov.ph").Return(staff, nil)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:     "Unknown_Email",
			email:    "nobody@lgu.gov.ph",
			password: password,
			setup: func(t *testing.T, f *fixture) {
				f.accounts.On("FindByEmail", mock.Anything, mock.Anything, "nobody@lgu.gov.ph").Return(nil, notFound())
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:     "Wrong_Password",
			email:    "registrar@lgu.gov.ph",
			password: "wrong",
			setup: func(t *testing.T, f *fixture) {
				f.accounts.On("FindByEmail", mock.Anything, sec.KindAdmin, "registrar@lgu.gov.ph").Return(adminAccount(t), nil)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Malformed_Email",
			email:      "not-an-email",
			password:   password,
			setup:      func(t *testing.T, f *fixture) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)

			session, err := f.service.Login(context.Background(), auth.LoginInput{
				Email: tt.email, Password: tt.password, UserAgent: userAgent, IPAddress: "10.0.0.5",
			})

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, apperr.As(err).HTTPStatus)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, session.Token)
			assert.Equal(t, tt.wantKind, session.UserType)
			assert.Equal(t, tt.wantKind, session.User.Kind)
			f.accounts.AssertExpectations(t)
		})
	}
}

/*
TestService_Login_DeactivatedReason verifies the reason reaches the client.
*/
func TestService_Login_DeactivatedReason(t *testing.T) {
	f := newFixture(t)
	reason := "Transferred to another office"
	staff := staffAccount(t)
	staff.IsActive = false
	staff.DeactivateReason = &reason
	f.accounts.On("FindByEmail", mock.Anything, sec.KindAdmin, mock.Anything).Return(nil, notFound())
	f.accounts.On("FindByEmail", mock.Anything, sec.KindStaff, mock.Anything).Return(staff, nil)

	_, err := f.service.Login(context.Background(), auth.LoginInput{Email: "clerk@lgu.gov.ph", Password: password})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deactivated")
	assert.Contains(t, err.Error(), reason)
	f.accounts.AssertNotCalled(t, "StampLogin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

/*
TestService_Logout verifies a logged-out token no longer verifies and that the
denylist entry expires with the token.
*/
func TestService_Logout(t *testing.T) {
	f := newFixture(t)
	f.accounts.On("FindByEmail", mock.Anything, sec.KindAdmin, mock.Anything).Return(adminAccount(t), nil)

	session, err := f.service.Login(context.Background(), auth.LoginInput{Email: "registrar@lgu.gov.ph", Password: password})
	require.NoError(t, err)

	claims, err := f.service.VerifyToken(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, sec.Principal{Kind: sec.KindAdmin, ID: 1}, claims.Principal())

	require.NoError(t, f.service.Logout(context.Background(), claims))

	_, err = f.service.VerifyToken(context.Background(), session.Token)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))

	ttl := f.redis.TTL("auth:revoked:" + claims.ID)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, auth.AccessTokenTTL)
}

/*
TestService_VerifyToken_Garbage verifies unparsable tokens are unauthorized.
*/
func TestService_VerifyToken_Garbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.VerifyToken(context.Background(), "not.a.token")

	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))
}

/*
TestService_UpdateProfile covers per-table uniqueness and the admin-only username.
*/
func TestService_UpdateProfile(t *testing.T) {
	admin := sec.Principal{Kind: sec.KindAdmin, ID: 1}
	staff := sec.Principal{Kind: sec.KindStaff, ID: 7}
	email := "new@lgu.gov.ph"
	username := "chief"
	name := "Lorna B. Registrar"

	t.Run("Email_Taken", func(t *testing.T) {
		f := newFixture(t)
		f.accounts.On("Find", mock.Anything, staff).Return(staffAccount(t), nil)
		f.accounts.On("EmailTaken", mock.Anything, staff, email).Return(true, nil)

		_, err := f.service.UpdateProfile(context.Background(), staff, auth.ProfileInput{Email: &email})

		require.Error(t, err)
		assert.Equal(t, "The email has already been taken.", apperr.As(err).Fields()["email"])
		f.accounts.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
	})

	t.Run("Staff_Username_Rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.UpdateProfile(context.Background(), staff, auth.ProfileInput{Username: &username})

		require.Error(t, err)
		assert.Contains(t, apperr.As(err).Fields(), "username")
	})

	t.Run("Admin_Updates", func(t *testing.T) {
		f := newFixture(t)
		f.accounts.On("Find", mock.Anything, admin).Return(adminAccount(t), nil)
		f.accounts.On("EmailTaken", mock.Anything, admin, email).Return(false, nil)
		f.accounts.On("UsernameTaken", mock.Anything, int64(1), username).Return(false, nil)
		f.accounts.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(a *auth.Account) bool {
			return a.Email == email && *a.Username == username && a.FullName == name
		})).Return(nil).Once()

		account, err := f.service.UpdateProfile(context.Background(), admin, auth.ProfileInput{
			FullName: &name, Email: &email, Username: &username,
		})

		require.NoError(t, err)
		assert.Equal(t, name, account.FullName)
		f.accounts.AssertExpectations(t)
	})
}

/*
TestService_ChangePassword covers the current-password check and the new
password rules.
*/
func TestService_ChangePassword(t *testing.T) {
	principal := sec.Principal{Kind: sec.KindStaff, ID: 7}

	tests := []struct {
		name      string
		input     auth.PasswordInput
		wantField string
	}{
		{
			name:      "Wrong_Current",
			input:     auth.PasswordInput{CurrentPassword: "wrong", NewPassword: "newpass1", NewPasswordConfirmation: "newpass1"},
			wantField: "current_password",
		},
		{
			name:      "Too_Short",
			input:     auth.PasswordInput{CurrentPassword: password, NewPassword: "abc", NewPasswordConfirmation: "abc"},
			wantField: "new_password",
		},
		{
			name:      "Not_Confirmed",
			input:     auth.PasswordInput{CurrentPassword: password, NewPassword: "newpass1", NewPasswordConfirmation: "newpass2"},
			wantField: "new_password",
		},
		{
			name:  "Success",
			input: auth.PasswordInput{CurrentPassword: password, NewPassword: "newpass1", NewPasswordConfirmation: "newpass1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.accounts.On("Find", mock.Anything, principal).Return(staffAccount(t), nil).Maybe()
			f.accounts.On("UpdatePassword", mock.Anything, principal, mock.MatchedBy(func(hash string) bool {
				return sec.CheckPasswordHash("newpass1", hash)
			})).Return(nil).Maybe()

			err := f.service.ChangePassword(context.Background(), principal, tt.input)

			if tt.wantField != "" {
				require.Error(t, err)
				assert.Equal(t, http.StatusUnprocessableEntity, apperr.As(err).HTTPStatus)
				assert.Contains(t, apperr.As(err).Fields(), tt.wantField)
				f.accounts.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			f.accounts.AssertCalled(t, "UpdatePassword", mock.Anything, principal, mock.Anything)
		})
	}
}

/*
TestService_CreateAdmin covers the operator bootstrap of an administrator.
*/
func TestService_CreateAdmin(t *testing.T) {
	input := auth.AdminInput{Email: " Registrar@LGU.gov.ph ", Password: "s3cret!", FullName: "Lorna Registrar"}

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.accounts.On("EmailTaken", mock.Anything, sec.Principal{Kind: sec.KindAdmin}, "registrar@lgu.gov.ph").Return(false, nil)
		f.accounts.On("CreateAdmin", mock.Anything, mock.MatchedBy(func(account *auth.Account) bool {
			return account.Email == "registrar@lgu.gov.ph" && sec.CheckPasswordHash("s3cret!", account.PasswordHash)
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*auth.Account).ID = 1
		}).Return(nil)

		account, err := f.service.CreateAdmin(context.Background(), input)

		require.NoError(t, err)
		assert.Equal(t, int64(1), account.ID)
		assert.Nil(t, account.Position)
	})

	t.Run("Email_Taken", func(t *testing.T) {
		f := newFixture(t)
		f.accounts.On("EmailTaken", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

		_, err := f.service.CreateAdmin(context.Background(), input)

		assert.True(t, apperr.HasCode(err, "CONFLICT"))
		f.accounts.AssertNotCalled(t, "CreateAdmin", mock.Anything, mock.Anything)
	})

	t.Run("Short_Password", func(t *testing.T) {
		f := newFixture(t)
		short := input
		short.Password = "abc"

		_, err := f.service.CreateAdmin(context.Background(), short)

		assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
	})
}
