package staff

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/users/directory"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

const (
	maxFullName       = 100
	maxAddress        = 500
	maxReason         = 500
	minStaffPassword  = 8
	contactMessage    = "The contact number must be a valid Philippine mobile number (09XXXXXXXXX)."
	emailTakenMessage = "The email has already been taken."
)

var contactRegex = regexp.MustCompile(`^09\d{9}$`)

// Settings carries the deployment values the service needs.
type Settings struct {
	PublicBaseURL string
	AvatarMaxSize int64
}

type Service struct {
	repo     Repository
	avatars  AvatarStore
	creators Creators
	notifier Notifier
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, avatars AvatarStore, creators Creators, notifier Notifier, settings Settings, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		avatars:  avatars,
		creators: creators,
		notifier: notifier,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for avatar names, deactivation stamps and
// the "recent" window.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// # Queries

func (service *Service) List(ctx context.Context) ([]Staff, error) {
	members, err := service.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	service.decorate(ctx, members)
	return members, nil
}

func (service *Service) Get(ctx context.Context, id int64) (*Staff, error) {
	member, err := service.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	service.decorateOne(ctx, member)
	return member, nil
}

func (service *Service) Statistics(ctx context.Context) (Statistics, error) {
	return service.repo.Statistics(ctx, service.now().Add(-RecentWindow))
}

// OpenAvatar returns a stored avatar by file name.
func (service *Service) OpenAvatar(name string) (*os.File, storage.Entry, error) {
	if !ValidAvatarName(name) {
		return nil, storage.Entry{}, apperr.NotFound("Avatar")
	}

	file, entry, err := service.avatars.Open(avatarKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, storage.Entry{}, apperr.NotFound("Avatar")
	}
	if err != nil {
		return nil, storage.Entry{}, apperr.Internal(err)
	}
	return file, entry, nil
}

// # Lifecycle

// CreateInput is the form an administrator submits for a new account.
type CreateInput struct {
	Email                string  `json:"email"`
	FullName             string  `json:"full_name"`
	ContactNumber        *string `json:"contact_number"`
	Address              *string `json:"address"`
	Password             string  `json:"password"`
	PasswordConfirmation string  `json:"password_confirmation"`
	Avatar               *Upload `json:"-"`
}

func (input CreateInput) validate() error {
	validator := &validate.Validator{}
	validator.Required("email", input.Email).
		Email("email", input.Email).
		Required("full_name", input.FullName).
		MaxLen("full_name", input.FullName, maxFullName).
		Match("contact_number", pointer.Val(input.ContactNumber), contactRegex, contactMessage).
		MaxLen("address", pointer.Val(input.Address), maxAddress).
		Required("password", input.Password).
		StrongPassword("password", input.Password, minStaffPassword).
		Confirmed("password", input.Password, input.PasswordConfirmation)
	return validator.Err()
}

// Create validates the form, stores the optional avatar and inserts the account.
func (service *Service) Create(ctx context.Context, actor sec.Principal, input CreateInput) (*Staff, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.Email)
	if err := service.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	member := &Staff{
		Email:         email,
		PasswordHash:  hash,
		FullName:      strings.TrimSpace(input.FullName),
		ContactNumber: pointer.Trimmed(input.ContactNumber),
		Address:       pointer.Trimmed(input.Address),
		CreatedBy:     pointer.To(actor.ID),
	}

	if input.Avatar != nil {
		name, err := service.storeAvatar(ctx, input.Avatar)
		if err != nil {
			return nil, err
		}
		member.Avatar = &name
	}

	if err := service.repo.Create(ctx, member); err != nil {
		service.removeAvatar(ctx, member.Avatar)
		return nil, err
	}

	service.logger.InfoContext(ctx, "staff_created",
		slog.Int64("staff_id", member.ID),
		slog.String("created_by", actor.String()),
	)
	service.notifier.Notify(ctx, EventCreated, *member)

	service.decorateOne(ctx, member)
	return member, nil
}

// UpdateInput carries the fields to change. Nil fields are kept.
type UpdateInput struct {
	Email                *string `json:"email"`
	FullName             *string `json:"full_name"`
	ContactNumber        *string `json:"contact_number"`
	Address              *string `json:"address"`
	Password             string  `json:"password"`
	PasswordConfirmation string  `json:"password_confirmation"`
	RemoveAvatar         bool    `json:"remove_avatar"`
	Avatar               *Upload `json:"-"`
}

func (input UpdateInput) validate() error {
	validator := &validate.Validator{}
	if input.Email != nil {
		validator.Required("email", *input.Email).Email("email", *input.Email)
	}
	if input.FullName != nil {
		validator.Required("full_name", *input.FullName).MaxLen("full_name", *input.FullName, maxFullName)
	}
	validator.Match("contact_number", pointer.Val(input.ContactNumber), contactRegex, contactMessage).
		MaxLen("address", pointer.Val(input.Address), maxAddress)
	if input.Password != "" {
		validator.StrongPassword("password", input.Password, minStaffPassword).
			Confirmed("password", input.Password, input.PasswordConfirmation)
	}
	return validator.Err()
}

// Update applies a partial edit. A new avatar replaces the old file; removing
// the avatar deletes it. Old files are deleted only after the row is saved.
func (service *Service) Update(ctx context.Context, id int64, input UpdateInput) (*Staff, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	member, err := service.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if err := service.ensureEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
		member.Email = email
	}
	if input.FullName != nil {
		member.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.ContactNumber != nil {
		member.ContactNumber = pointer.Trimmed(input.ContactNumber)
	}
	if input.Address != nil {
		member.Address = pointer.Trimmed(input.Address)
	}
	if input.Password != "" {
		if member.PasswordHash, err = sec.HashPassword(input.Password); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	previous := member.Avatar
	switch {
	case input.RemoveAvatar:
		member.Avatar = nil
	case input.Avatar != nil:
		name, err := service.storeAvatar(ctx, input.Avatar)
		if err != nil {
			return nil, err
		}
		member.Avatar = &name
	}

	if err := service.repo.Update(ctx, member); err != nil {
		if member.Avatar != previous {
			service.removeAvatar(ctx, member.Avatar)
		}
		return nil, err
	}

	if member.Avatar != previous {
		service.removeAvatar(ctx, previous)
	}

	service.logger.InfoContext(ctx, "staff_updated",
		slog.Int64("staff_id", member.ID),
		slog.Bool("avatar_changed", member.Avatar != previous),
		slog.Bool("password_changed", input.Password != ""),
	)

	service.decorateOne(ctx, member)
	return member, nil
}

// Deactivate disables an account with a mandatory reason.
func (service *Service) Deactivate(ctx context.Context, actor sec.Principal, id int64, reason string) (*Staff, error) {
	if actor.Same(sec.Principal{Kind: sec.KindStaff, ID: id}) {
		return nil, apperr.Forbidden("You cannot modify your own account status")
	}

	validator := &validate.Validator{}
	validator.Required("deactivate_reason", reason).MaxLen("deactivate_reason", reason, maxReason)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.Deactivate(ctx, id, strings.TrimSpace(reason), actor.ID, service.now()); err != nil {
		return nil, err
	}

	member, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "staff_deactivated",
		slog.Int64("staff_id", id),
		slog.String("deactivated_by", actor.String()),
	)
	service.notifier.Notify(ctx, EventDeactivated, *member)
	return member, nil
}

// Reactivate re-enables an account and clears its deactivation metadata.
func (service *Service) Reactivate(ctx context.Context, actor sec.Principal, id int64) (*Staff, error) {
	if err := service.repo.Reactivate(ctx, id); err != nil {
		return nil, err
	}

	member, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "staff_reactivated",
		slog.Int64("staff_id", id),
		slog.String("reactivated_by", actor.String()),
	)
	service.notifier.Notify(ctx, EventReactivated, *member)
	return member, nil
}

// Delete removes an account and its avatar file.
func (service *Service) Delete(ctx context.Context, actor sec.Principal, id int64) error {
	if actor.Same(sec.Principal{Kind: sec.KindStaff, ID: id}) {
		return apperr.Forbidden("You cannot delete your own account")
	}

	member, err := service.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := service.repo.Delete(ctx, id); err != nil {
		return err
	}
	service.removeAvatar(ctx, member.Avatar)

	service.logger.InfoContext(ctx, "staff_deleted",
		slog.Int64("staff_id", id),
		slog.String("deleted_by", actor.String()),
	)
	return nil
}

// # Helpers

func (service *Service) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	taken, err := service.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return validate.RequiredError("email", emailTakenMessage)
	}
	return nil
}

func (service *Service) storeAvatar(ctx context.Context, upload *Upload) (string, error) {
	extension, content, err := checkAvatar(upload, service.settings.AvatarMaxSize)
	if err != nil {
		return "", err
	}

	name := avatarName(service.now(), extension)
	if _, err := service.avatars.Put(ctx, avatarKey(name), io.LimitReader(content, service.settings.AvatarMaxSize+1)); err != nil {
		return "", apperr.Internal(err)
	}
	return name, nil
}

func (service *Service) removeAvatar(ctx context.Context, name *string) {
	if name == nil {
		return
	}
	if err := service.avatars.Delete(avatarKey(*name)); err != nil {
		service.logger.WarnContext(ctx, "avatar_delete_failed", slog.String("avatar", *name), slog.Any("error", err))
	}
}

func (service *Service) decorate(ctx context.Context, members []Staff) {
	creators := make([]sec.Principal, 0, len(members))
	for index := range members {
		if principal, ok := members[index].creatorPrincipal(); ok {
			creators = append(creators, principal)
		}
	}
	resolve := service.creators.Resolve(ctx, creators)

	for index := range members {
		service.present(&members[index], resolve)
	}
}

func (service *Service) decorateOne(ctx context.Context, member *Staff) {
	var creators []sec.Principal
	if principal, ok := member.creatorPrincipal(); ok {
		creators = append(creators, principal)
	}
	service.present(member, service.creators.Resolve(ctx, creators))
}

func (service *Service) present(member *Staff, resolve func(sec.Principal) directory.Profile) {
	member.AvatarURL = nil
	if member.Avatar != nil {
		member.AvatarURL = pointer.To(strings.TrimRight(service.settings.PublicBaseURL, "/") + "/api/avatar/" + *member.Avatar)
	}

	member.Creator = nil
	if principal, ok := member.creatorPrincipal(); ok {
		profile := resolve(principal)
		member.Creator = &profile
	}
}
