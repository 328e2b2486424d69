package report

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/civilregistry/internal/platform/request"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the /reports endpoints. Callers must already be
// authenticated.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/statistics", handler.getStatistics)
	router.Get("/registrations-trend", handler.getTrends)
	router.Get("/gender-distribution", handler.getGender)
	router.Get("/monthly-summary", handler.getMonthlySummary)
	router.Get("/record-type-distribution", handler.getDistribution)
	router.Get("/export-data", handler.exportData)
}

// GetDashboard serves GET /dashboard/statistics.
func (handler *Handler) GetDashboard(writer http.ResponseWriter, request *http.Request) {
	dashboard, err := handler.service.Dashboard(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, dashboard)
}

func (handler *Handler) getStatistics(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Statistics(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

func (handler *Handler) getTrends(writer http.ResponseWriter, request *http.Request) {
	points, err := handler.service.Trends(request.Context(), TrendInput{
		Period:     requestutil.Query(request, "period"),
		Year:       requestutil.Query(request, "year"),
		RecordType: requestutil.Query(request, "recordType"),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, points)
}

func (handler *Handler) getGender(writer http.ResponseWriter, request *http.Request) {
	counts, err := handler.service.Gender(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, counts)
}

func (handler *Handler) getMonthlySummary(writer http.ResponseWriter, request *http.Request) {
	months, err := handler.service.MonthlySummary(request.Context(), requestutil.Query(request, "year"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, months)
}

func (handler *Handler) getDistribution(writer http.ResponseWriter, request *http.Request) {
	shares, err := handler.service.Distribution(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, shares)
}

/*
ExportData downloads the records of one year.

GET /api/reports/export-data?format=csv|xlsx&year=2024&type=all|birth|marriage|death

Response:
  - 200: attachment "civil-registry-{type}-{year}.{format}"
  - 404: No records match
  - 422: Invalid parameters
*/
func (handler *Handler) exportData(writer http.ResponseWriter, request *http.Request) {
	input := ExportInput{
		Format: requestutil.Query(request, "format"),
		Year:   requestutil.Query(request, "year"),
		Type:   requestutil.Query(request, "type"),
	}

	export, err := handler.service.Export(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Rendered into memory first so a failure can still produce a JSON error.
	var body bytes.Buffer
	contentType := ContentTypeCSV
	if input.Format == FormatXLSX {
		contentType = ContentTypeXLSX
		err = WriteXLSX(&body, export)
	} else {
		err = WriteCSV(&body, export)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	_ = respond.Attachment(writer, contentType, export.Filename, &body)
}
