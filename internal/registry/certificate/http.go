package certificate

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/civilregistry/internal/platform/request"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
	"github.com/taibuivan/civilregistry/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the issuance endpoints. Callers must already be
// authenticated.
//
//   - POST /            : Log an issued certificate.
//   - GET  /            : Issuance history (certificate_type, date_from, date_to, search).
//   - GET  /statistics  : Counts and revenue per type and day (timeframe).
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/", handler.issueCertificate)
	router.Get("/", handler.listIssuances)
	router.Get("/statistics", handler.getStatistics)
}

/*
IssueCertificate logs a paid certificate against a civil record.

POST /api/certificate-issuance

Response:
  - 201: Log
  - 404: The record does not exist or is inactive
  - 409: CERTIFICATE_NUMBER_TAKEN
  - 422: Validation failure
*/
func (handler *Handler) issueCertificate(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input IssueInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	log, err := handler.service.Issue(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, "Certificate issued successfully", log)
}

func (handler *Handler) listIssuances(writer http.ResponseWriter, request *http.Request) {
	input := FilterInput{
		CertificateType: requestutil.Query(request, "certificate_type"),
		DateFrom:        requestutil.Query(request, "date_from"),
		DateTo:          requestutil.Query(request, "date_to"),
		Search:          requestutil.Query(request, "search"),
	}

	logs, meta, err := handler.service.List(request.Context(), input, pagination.FromRequest(request, DefaultPerPage))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, logs, meta)
}

func (handler *Handler) getStatistics(writer http.ResponseWriter, request *http.Request) {
	statistics, err := handler.service.Statistics(request.Context(), requestutil.Query(request, "timeframe"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, statistics)
}
