package birth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/civilregistry/internal/platform/request"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the birth record endpoints. Callers must already be
// authenticated.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listRecords)
	router.Post("/", handler.registerRecord)
	router.Post("/check-duplicate", handler.checkDuplicate)
	router.Get("/search", handler.searchRecords)
	router.Get("/statistics", handler.getStatistics)

	router.Get("/{id}", handler.getRecord)
	router.Put("/{id}", handler.updateRecord)
	router.Delete("/{id}", handler.deleteRecord)
}

func (handler *Handler) listRecords(writer http.ResponseWriter, request *http.Request) {
	filter, err := registry.FilterFromRequest(request, "")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	records, meta, err := handler.service.List(request.Context(), filter, pagination.FromRequest(request, registry.DefaultPerPage))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, records, meta)
}

func (handler *Handler) registerRecord(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Input
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Register(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	registry.WriteRegistered(writer, registry.TypeBirth, record, record.RegistryNumber)
}

func (handler *Handler) checkDuplicate(writer http.ResponseWriter, request *http.Request) {
	var input CheckInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.CheckDuplicate(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	registry.WriteCheck(writer, result)
}

func (handler *Handler) searchRecords(writer http.ResponseWriter, request *http.Request) {
	matches, err := handler.service.Search(request.Context(), requestutil.Query(request, "q"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, matches)
}

func (handler *Handler) getStatistics(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Statistics(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

func (handler *Handler) getRecord(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, record)
}

func (handler *Handler) updateRecord(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id", resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Input
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Update(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, registry.MessageFor(registry.TypeBirth, "updated"), record)
}

func (handler *Handler) deleteRecord(writer http.ResponseWriter, request *http.Request) {
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

	if err := handler.service.Deactivate(request.Context(), principal, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, registry.MessageFor(registry.TypeBirth, "deleted"), nil)
}
