package staff

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/middleware"
	requestutil "github.com/taibuivan/civilregistry/internal/platform/request"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
)

// formOverhead is the body allowance for the non-file fields of a multipart form.
const formOverhead = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the admin staff endpoints and the public avatar route.
//
// # Endpoints
//   - GET    /admin/staff                 : All accounts with their creator.
//   - POST   /admin/staff                 : Create (JSON or multipart with avatar).
//   - GET    /admin/staff/statistics      : Roster counts.
//   - GET    /admin/staff/{id}            : One account.
//   - PUT    /admin/staff/{id}            : Partial update.
//   - DELETE /admin/staff/{id}            : Delete account and avatar.
//   - PATCH  /admin/staff/{id}/deactivate : Disable with a reason.
//   - PATCH  /admin/staff/{id}/reactivate : Re-enable.
//   - GET    /avatar/{filename}           : Public avatar image.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/admin/staff", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)

		r.Get("/", handler.listStaff)
		r.Post("/", handler.createStaff)
		r.Get("/statistics", handler.getStatistics)
		r.Get("/{id}", handler.getStaff)
		r.Put("/{id}", handler.updateStaff)
		r.Delete("/{id}", handler.deleteStaff)
		r.Patch("/{id}/deactivate", handler.deactivateStaff)
		r.Patch("/{id}/reactivate", handler.reactivateStaff)
	})

	router.Get("/avatar/{filename}", handler.serveAvatar)
}

func (handler *Handler) listStaff(writer http.ResponseWriter, request *http.Request) {
	members, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, members)
}

func (handler *Handler) getStatistics(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Statistics(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

func (handler *Handler) getStaff(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	member, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, member)
}

/*
CreateStaff registers a new staff account.

POST /api/admin/staff

Request:
  - Body: CreateInput as JSON, or multipart/form-data with an optional "avatar" file

Response:
  - 201: Staff
  - 403: Caller is not an administrator
  - 422: Validation failure or email already taken
*/
func (handler *Handler) createStaff(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	form, err := handler.readForm(writer, request, &input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if form != nil {
		input = CreateInput{
			Email:                form.value("email"),
			FullName:             form.value("full_name"),
			ContactNumber:        form.optional("contact_number"),
			Address:              form.optional("address"),
			Password:             form.value("password"),
			PasswordConfirmation: form.value("password_confirmation"),
			Avatar:               form.upload,
		}
		defer form.close()
	}

	member, err := handler.service.Create(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, "Staff created successfully", member)
}

/*
UpdateStaff edits an account. Absent fields keep their values.

PUT /api/admin/staff/{id}

Request:
  - Body: UpdateInput as JSON, or multipart/form-data with "avatar" / "remove_avatar=true"

Response:
  - 200: Staff
  - 404: Unknown id
  - 422: Validation failure or email already taken
*/
func (handler *Handler) updateStaff(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	form, err := handler.readForm(writer, request, &input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if form != nil {
		input = UpdateInput{
			Email:                form.optional("email"),
			FullName:             form.optional("full_name"),
			ContactNumber:        form.optional("contact_number"),
			Address:              form.optional("address"),
			Password:             form.value("password"),
			PasswordConfirmation: form.value("password_confirmation"),
			RemoveAvatar:         form.value("remove_avatar") == "true",
			Avatar:               form.upload,
		}
		defer form.close()
	}

	member, err := handler.service.Update(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, "Staff updated successfully", member)
}

type deactivateRequest struct {
	Reason string `json:"deactivate_reason"`
}

func (handler *Handler) deactivateStaff(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input deactivateRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	member, err := handler.service.Deactivate(request.Context(), principal, id, input.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, "Staff account deactivated successfully", member)
}

func (handler *Handler) reactivateStaff(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	member, err := handler.service.Reactivate(request.Context(), principal, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, "Staff account reactivated successfully", member)
}

func (handler *Handler) deleteStaff(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), principal, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, "Staff account deleted successfully", nil)
}

func (handler *Handler) serveAvatar(writer http.ResponseWriter, request *http.Request) {
	file, entry, err := handler.service.OpenAvatar(requestutil.Param(request, "filename"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	writer.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(writer, request, entry.Name, entry.ModTime, file)
}

// # Multipart forms

type multipartForm struct {
	values *multipart.Form
	file   multipart.File
	upload *Upload
}

// readForm decodes JSON bodies into target and returns nil; multipart bodies
// are parsed and returned for field-by-field mapping.
func (handler *Handler) readForm(writer http.ResponseWriter, request *http.Request, target any) (*multipartForm, error) {
	if !strings.HasPrefix(request.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, requestutil.DecodeJSON(writer, request, target)
	}

	request.Body = http.MaxBytesReader(writer, request.Body, handler.service.settings.AvatarMaxSize+formOverhead)
	if err := request.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
				Field: fieldAvatar, Message: "The avatar is too large.",
			})
		}
		return nil, apperr.BadRequest("Invalid multipart form")
	}

	form := &multipartForm{values: request.MultipartForm}
	file, header, err := request.FormFile(fieldAvatar)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return nil, apperr.BadRequest("Invalid avatar upload")
	default:
		form.file = file
		form.upload = &Upload{Filename: header.Filename, Size: header.Size, Content: file}
	}
	return form, nil
}

func (form *multipartForm) value(key string) string {
	if values := form.values.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// optional returns nil when the field was not sent at all.
func (form *multipartForm) optional(key string) *string {
	values, ok := form.values.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func (form *multipartForm) close() {
	if form.file != nil {
		_ = form.file.Close()
	}
	_ = form.values.RemoveAll()
}
