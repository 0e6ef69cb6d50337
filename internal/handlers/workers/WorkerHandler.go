package workers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/miderror/dev-mentor/internal/core/services/worker"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/handlers"
)

type ApiHandler struct {
	WorkerService worker.IWorkerRegistrationService
}

func NewHandler(WorkerService worker.IWorkerRegistrationService) *ApiHandler {
	return &ApiHandler{
		WorkerService: WorkerService,
	}
}

func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/workers", api.GetWorkers).Methods("GET")
	r.HandleFunc("/api/workers/types", api.GetWorkerTypes).Methods("GET")
}

// GetWorkers lists grading workers; ?type= narrows to live workers of that type with spare capacity
func (api *ApiHandler) GetWorkers(w http.ResponseWriter, r *http.Request) {
	var workers []*domain.WorkerInfo
	var err error

	if workerType := r.URL.Query().Get("type"); workerType != "" {
		workers, err = api.WorkerService.GetAvailableWorkers(r.Context(), workerType)
	} else {
		workers, err = api.WorkerService.GetAllWorkers(r.Context())
	}
	if err != nil {
		handlers.ResponseError(w, "Failed to get workers", http.StatusInternalServerError)
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, map[string][]*domain.WorkerInfo{"workers": workers})
}

func (api *ApiHandler) GetWorkerTypes(w http.ResponseWriter, r *http.Request) {
	types, err := api.WorkerService.GetWorkerTypes(r.Context())
	if err != nil {
		handlers.ResponseError(w, "Failed to get worker types", http.StatusInternalServerError)
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, map[string][]string{"types": types})
}
