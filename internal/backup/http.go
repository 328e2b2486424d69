package backup

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/civilregistry/internal/platform/request"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
)

const contentTypeSQL = "application/sql"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the /backup endpoints. Callers must already be
// authenticated.
//
//   - GET    /info                : Files, database size and schedule.
//   - GET    /schedule            : Stored schedule, or null.
//   - PUT    /schedule            : Replace the schedule.
//   - POST   /create              : Dump now.
//   - GET    /download/{filename} : Dump file as an attachment.
//   - DELETE /delete/{filename}   : Remove a dump file.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/info", handler.getInfo)
	router.Get("/schedule", handler.getSchedule)
	router.Put("/schedule", handler.saveSchedule)
	router.Post("/create", handler.createBackup)
	router.Get("/download/{filename}", handler.downloadBackup)
	router.Delete("/delete/{filename}", handler.deleteBackup)
}

func (handler *Handler) getInfo(writer http.ResponseWriter, request *http.Request) {
	info, err := handler.service.Info(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, info)
}

func (handler *Handler) getSchedule(writer http.ResponseWriter, request *http.Request) {
	schedule, err := handler.service.Schedule(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.JSON(writer, http.StatusOK, scheduleEnvelope{Success: true, Data: schedule})
}

// scheduleEnvelope keeps "data": null when no schedule is stored.
type scheduleEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    *Schedule `json:"data"`
}

func (handler *Handler) saveSchedule(writer http.ResponseWriter, request *http.Request) {
	var input ScheduleInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	schedule, err := handler.service.SaveSchedule(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, ScheduleSavedMessage, schedule)
}

func (handler *Handler) createBackup(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.service.Create(request.Context(), TriggerManual)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, "Backup created successfully", result)
}

func (handler *Handler) downloadBackup(writer http.ResponseWriter, request *http.Request) {
	file, entry, err := handler.service.Open(requestutil.Param(request, "filename"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	_ = respond.Attachment(writer, contentTypeSQL, entry.Name, file)
}

func (handler *Handler) deleteBackup(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Param(request, "filename")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, "Backup deleted successfully", nil)
}
