// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

// # Contracts & Types

// TokenProvider issues and checks signed access tokens. [*sec.TokenService]
// satisfies it.
type TokenProvider interface {
	GenerateAccessToken(principal sec.Principal, email string, timeToLive time.Duration) (string, *sec.AuthClaims, error)
	VerifyToken(tokenString string) (*sec.AuthClaims, error)
}

// Service implements the authentication use cases of both principal kinds.
type Service struct {
	accounts    AccountRepository
	revocations RevocationStore
	tokens      TokenProvider
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	accounts AccountRepository,
	revocations RevocationStore,
	tokens TokenProvider,
	collectors *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts:    accounts,
		revocations: revocations,
		tokens:      tokens,
		metrics:     collectors,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for login stamps and revocation lifetimes.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

/*
Login validates credentials and issues an access token.

Description: Admins are looked up first, then staff. A deactivated staff
account is rejected with its reason before the password is compared, so the
user learns why even when they mistype the password.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *Session: Token, account and principal kind
  - error: Validation, Unauthorized, Forbidden or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	account, err := service.findForLogin(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		service.logger.Warn("deactivated_login_rejected", slog.Int64("staff_id", account.ID))
		return nil, deactivated(account)
	}

	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		return nil, apperr.Unauthorized(messageBadCredentials)
	}

	token, claims, err := service.tokens.GenerateAccessToken(account.Principal(), account.Email, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	now := service.now()
	if account.Kind == sec.KindStaff {
		if err := service.accounts.StampLogin(ctx, account.ID, now, truncate(input.UserAgent, MaxUserAgentLength)); err != nil {
			return nil, err
		}
		account.LastLoginAt = &now
	}

	agent := useragent.New(input.UserAgent)
	browser, version := agent.Browser()
	service.logger.Info(string(account.Kind)+"_login",
		slog.Int64("user_id", account.ID),
		slog.String("ip", input.IPAddress),
		slog.String("browser", strings.TrimSpace(browser+" "+version)),
		slog.String("os", agent.OS()),
		slog.Bool("mobile", agent.Mobile()),
		slog.Bool("bot", agent.Bot()),
	)

	return &Session{
		User:      account,
		Token:     token,
		UserType:  account.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (service *Service) findForLogin(ctx context.Context, email string) (*Account, error) {
	for _, kind := range []sec.Kind{sec.KindAdmin, sec.KindStaff} {
		account, err := service.accounts.FindByEmail(ctx, kind, email)
		if err == nil {
			return account, nil
		}
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
	}
	return nil, apperr.Unauthorized(messageBadCredentials)
}

func deactivated(account *Account) error {
	message := messageDeactivated
	if account.DeactivateReason != nil && *account.DeactivateReason != "" {
		message += " Reason: " + *account.DeactivateReason
	}
	return apperr.Forbidden(message)
}

/*
Logout revokes the token the request was authenticated with.

Description: The token id is denied only for the rest of its lifetime; after
that the signature check rejects it anyway.

Parameters:
  - ctx: context.Context
  - claims: *sec.AuthClaims

Returns:
  - error: Revocation failures
*/
func (service *Service) Logout(ctx context.Context, claims *sec.AuthClaims) error {
	if claims == nil {
		return apperr.Unauthorized("Unauthenticated.")
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(service.now())
	}

	if err := service.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.logger.Info("logout", slog.String("principal", claims.Principal().String()))
	return nil
}

// VerifyToken checks the signature, expiry and logout denylist of a bearer
// token. It is the verifier the authentication middleware runs.
func (service *Service) VerifyToken(ctx context.Context, token string) (*sec.AuthClaims, error) {
	claims, err := service.tokens.VerifyToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Unauthenticated.")
	}

	started := time.Now()
	revoked, err := service.revocations.IsRevoked(ctx, claims.ID)
	service.metrics.ObserveRevocationCheck(time.Since(started))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Unauthorized("Unauthenticated.")
	}
	return claims, nil
}

// # Self-service

// Me returns the caller's account and principal kind.
func (service *Service) Me(ctx context.Context, principal sec.Principal) (*Me, error) {
	account, err := service.accounts.Find(ctx, principal)
	if err != nil {
		return nil, err
	}
	return &Me{User: account, UserType: principal.Kind}, nil
}

// ProfileInput carries the profile fields to change. Absent fields are kept.
type ProfileInput struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Username *string `json:"username"`
}

/*
UpdateProfile changes the caller's name, email and (admins only) username.

Description: Email uniqueness is checked within the caller's own table, since
admins and staff are separate populations.

Parameters:
  - ctx: context.Context
  - principal: sec.Principal
  - input: ProfileInput

Returns:
  - *Account: Updated entity
  - error: Validation or persistence failures
*/
func (service *Service) UpdateProfile(ctx context.Context, principal sec.Principal, input ProfileInput) (*Account, error) {
	validator := &validate.Validator{}
	if input.FullName != nil {
		validator.Required(FieldFullName, *input.FullName).
			MaxLen(FieldFullName, *input.FullName, MaxFullNameLength)
	}
	if input.Email != nil {
		validator.Required(FieldEmail, *input.Email).
			Email(FieldEmail, *input.Email)
	}
	if input.Username != nil {
		validator.Custom(FieldUsername, !principal.IsAdmin(), "Staff accounts do not have a username").
			Required(FieldUsername, *input.Username)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	account, err := service.accounts.Find(ctx, principal)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		taken, err := service.accounts.EmailTaken(ctx, principal, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, validate.RequiredError(FieldEmail, messageEmailTaken)
		}
		account.Email = email
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		taken, err := service.accounts.UsernameTaken(ctx, principal.ID, username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, validate.RequiredError(FieldUsername, messageUsernameTaken)
		}
		account.Username = &username
	}

	if input.FullName != nil {
		account.FullName = strings.TrimSpace(*input.FullName)
	}

	if err := service.accounts.UpdateProfile(ctx, account); err != nil {
		return nil, err
	}

	service.logger.Info("profile_updated", slog.String("principal", principal.String()))
	return account, nil
}

// PasswordInput carries a self-service password change.
type PasswordInput struct {
	CurrentPassword         string `json:"current_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

/*
ChangePassword replaces the caller's password after checking the current one.

Parameters:
  - ctx: context.Context
  - principal: sec.Principal
  - input: PasswordInput

Returns:
  - error: Validation (including a wrong current password) or persistence failures
*/
func (service *Service) ChangePassword(ctx context.Context, principal sec.Principal, input PasswordInput) error {
	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength).
		Confirmed(FieldNewPassword, input.NewPassword, input.NewPasswordConfirmation).
		Required(FieldNewPasswordConfirmation, input.NewPasswordConfirmation)
	if err := validator.Err(); err != nil {
		return err
	}

	account, err := service.accounts.Find(ctx, principal)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(input.CurrentPassword, account.PasswordHash) {
		return validate.RequiredError(FieldCurrentPassword, messageWrongPassword)
	}

	hash, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.accounts.UpdatePassword(ctx, principal, hash); err != nil {
		return err
	}

	service.logger.Info("password_changed", slog.String("principal", principal.String()))
	return nil
}

// # Bootstrap

// AdminInput describes an administrator created from the operator CLI.
type AdminInput struct {
	Email    string
	Password string
	FullName string
	Position string
}

/*
CreateAdmin registers an administrator account.

Description: Administrators have no self-service signup; the first one is
created by an operator. The email must be free among admins.

Parameters:
  - ctx: context.Context
  - input: AdminInput

Returns:
  - *Account: The new administrator
  - error: Validation, Conflict (email taken) or persistence failures
*/
func (service *Service) CreateAdmin(ctx context.Context, input AdminInput) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		Email(FieldEmail, email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Required(FieldFullName, fullName).
		MaxLen(FieldFullName, fullName, MaxFullNameLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	taken, err := service.accounts.EmailTaken(ctx, sec.Principal{Kind: sec.KindAdmin}, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict(messageEmailTaken)
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_create_admin_hash_failed: %w", err)
	}

	account := &Account{Email: email, PasswordHash: hash, FullName: fullName, Position: pointer.Trimmed(&input.Position)}
	if err := service.accounts.CreateAdmin(ctx, account); err != nil {
		return nil, err
	}

	service.logger.Info("admin_created", slog.Int64("admin_id", account.ID))
	return account, nil
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
