package languages

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/handlers"
)

// Catalog lists the configured language profiles
type Catalog interface {
	List() []domain.LanguageProfile
}

type ApiHandler struct {
	Catalog Catalog
}

func NewHandler(catalog Catalog) *ApiHandler {
	return &ApiHandler{
		Catalog: catalog,
	}
}

func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/languages", api.GetLanguages).Methods("GET")
}

type languageView struct {
	Language  domain.Language `json:"language"`
	Image     string          `json:"image"`
	EntryFile string          `json:"entryFile"`
	TimeoutMs int64           `json:"timeoutMs"`
	MemoryMB  int64           `json:"memoryMb"`
}

func (api *ApiHandler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	profiles := api.Catalog.List()
	views := make([]languageView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, languageView{
			Language:  p.Language,
			Image:     p.Image,
			EntryFile: p.EntryFile,
			TimeoutMs: p.Limits.Timeout.Milliseconds(),
			MemoryMB:  p.Limits.MemoryBytes >> 20,
		})
	}

	handlers.ResponseWithJson(w, http.StatusOK, map[string][]languageView{"languages": views})
}
