// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/civilregistry/internal/platform/middleware"
	requestutil "github.com/taibuivan/civilregistry/internal/platform/request"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the sign-in and self-service account endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// RegisterRoutes mounts the authentication endpoints on router.
//
// # Endpoints
//   - POST /login           : Public. Authenticates an admin or staff member.
//   - POST /logout          : Revokes the current token.
//   - GET  /user            : Current account and user_type.
//   - PUT  /profile/update  : Name, email and (admins) username.
//   - PUT  /change-password : Self-service password change.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/login", handler.login)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Get("/user", handler.getUser)
		r.Put("/profile/update", handler.updateProfile)
		r.Put("/change-password", handler.changePassword)
	})
}

/*
Login authenticates a user and issues a bearer token.

POST /api/login

Request:
  - Body: LoginInput (email, password)

Response:
  - 200: Session: token, user and user_type
  - 401: Wrong email or password
  - 403: Staff account deactivated (message carries the reason)
  - 422: Missing or malformed fields
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input.UserAgent = request.UserAgent()
	input.IPAddress = middleware.RealIP(request)

	session, err := handler.authService.Login(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, session)
}

/*
Logout revokes the token used for this request.

POST /api/logout

Response:
  - 200: Message
  - 401: Not authenticated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Logout(request.Context(), requestutil.Claims(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, messageLoggedOut, nil)
}

/*
GetUser returns the authenticated account.

GET /api/user

Response:
  - 200: Me: user and user_type
  - 404: Account was deleted after the token was issued
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	me, err := handler.authService.Me(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, me)
}

/*
UpdateProfile edits the caller's own profile.

PUT /api/profile/update

Request:
  - Body: ProfileInput (full_name?, email?, username?)

Response:
  - 200: Account
  - 422: Invalid or already-taken values
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ProfileInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.authService.UpdateProfile(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, messageProfileUpdated, account)
}

/*
ChangePassword replaces the caller's password.

PUT /api/change-password

Request:
  - Body: PasswordInput (current_password, new_password, new_password_confirmation)

Response:
  - 200: Message
  - 422: Wrong current password or invalid new password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input PasswordInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ChangePassword(request.Context(), principal, input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, messagePasswordUpdated, nil)
}
