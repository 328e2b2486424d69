package document

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	requestutil "github.com/taibuivan/civilregistry/internal/platform/request"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
)

// formOverhead is the room left for the text fields of the upload form.
const formOverhead = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the document scanning endpoints. Callers must already
// be authenticated.
//
//   - GET    /check-filename    : Validate a label and report availability.
//   - POST   /upload            : Multipart upload ("document", "record_type", "original_filename").
//   - GET    /search            : Keyword or "type-id" search.
//   - GET    /documents         : All active documents.
//   - GET    /document/{id}     : One document.
//   - GET    /file/{id}         : The stored file, inline.
//   - DELETE /documents/{id}    : Soft delete.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/check-filename", handler.checkFilename)
	router.Post("/upload", handler.uploadDocument)
	router.Get("/search", handler.searchDocuments)
	router.Get("/documents", handler.listDocuments)
	router.Get("/document/{id}", handler.getDocument)
	router.Get("/file/{id}", handler.serveFile)
	router.Delete("/documents/{id}", handler.deleteDocument)
}

func (handler *Handler) checkFilename(writer http.ResponseWriter, request *http.Request) {
	check, err := handler.service.CheckFilename(request.Context(),
		requestutil.Query(request, "record_type"),
		requestutil.Query(request, "filename"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, check)
}

/*
UploadDocument stores a scanned document.

POST /api/document-scanning/upload

Request:
  - Body: multipart/form-data with "document" (jpeg, png or pdf), "record_type"
    and "original_filename"

Response:
  - 200: Document
  - 409: An active document of the same type already uses the label
  - 422: Validation failure or a label that breaks the naming convention
*/
func (handler *Handler) uploadDocument(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, handler.service.settings.MaxSize+formOverhead)
	if err := request.ParseMultipartForm(formOverhead); err != nil {
		var tooLargeErr *http.MaxBytesError
		if errors.As(err, &tooLargeErr) {
			respond.Error(writer, request, tooLarge(handler.service.settings.MaxSize))
			return
		}
		respond.Error(writer, request, apperr.BadRequest("Invalid multipart form"))
		return
	}
	defer request.MultipartForm.RemoveAll()

	input := UploadInput{
		RecordType:       request.FormValue(fieldRecordType),
		OriginalFilename: request.FormValue(fieldLabel),
	}

	file, header, err := request.FormFile(fieldDocument)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		respond.Error(writer, request, apperr.BadRequest("Invalid document upload"))
		return
	default:
		defer file.Close()
		input.File = &Upload{Filename: header.Filename, Size: header.Size, Content: file}
	}

	document, err := handler.service.Upload(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, "Document uploaded successfully!", document)
}

func (handler *Handler) searchDocuments(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.service.Search(request.Context(), SearchInput{
		Query:      requestutil.Query(request, "query"),
		RecordType: requestutil.Query(request, "record_type"),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

type listEnvelope struct {
	Success bool       `json:"success"`
	Data    []Document `json:"data"`
	Total   int        `json:"total"`
}

func (handler *Handler) listDocuments(writer http.ResponseWriter, request *http.Request) {
	documents, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.JSON(writer, http.StatusOK, listEnvelope{Success: true, Data: documents, Total: len(documents)})
}

func (handler *Handler) getDocument(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	document, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, document)
}

func (handler *Handler) serveFile(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	document, file, err := handler.service.Open(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	if contentType := document.Mime(); contentType != "" {
		writer.Header().Set("Content-Type", contentType)
	}
	writer.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": document.OriginalFilename}))
	writer.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(writer, request, document.OriginalFilename, document.UpdatedAt, file)
}

func (handler *Handler) deleteDocument(writer http.ResponseWriter, request *http.Request) {
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
	respond.Message(writer, "Document deleted successfully!", nil)
}
