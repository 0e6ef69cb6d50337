package checks

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/services/check"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/handlers"
	"github.com/miderror/dev-mentor/internal/handlers/response"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

// request bodies carry the code plus a small JSON envelope
const maxRequestBytes = domain.MaxCodeBytes + 64<<10

// CheckHandler handles check API requests
type CheckHandler struct {
	checkService check.ICheckService
	logger       primary.Logger
}

// NewCheckHandler creates a new check handler
func NewCheckHandler(checkService check.ICheckService, logger primary.Logger) *CheckHandler {
	return &CheckHandler{
		checkService: checkService,
		logger:       logger,
	}
}

// RegisterRoutes registers the API routes for CheckHandler behind auth and, for submissions, the rate limiter
func (h *CheckHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider, limiter *handlers.RateLimiter) {
	create := mw.JWTMiddleware(limiter.Middleware(http.HandlerFunc(h.CreateCheck)))
	router.Handle("/api/checks", create).Methods("POST")
	router.Handle("/api/checks/{checkId}", mw.JWTMiddleware(http.HandlerFunc(h.GetCheck))).Methods("GET")
}

// CreateCheck handles submission requests
func (h *CheckHandler) CreateCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.ErrorMessage{Message: "Unauthorized", StatusCode: http.StatusUnauthorized})
		return
	}

	var req CreateCheckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.logger.Debug("Failed to decode request", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.WriteError(w, response.ErrorMessage{Message: errs.ErrCodeTooLarge.Error(), StatusCode: http.StatusRequestEntityTooLarge})
			return
		}
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return
	}

	lang, ok := domain.ParseLanguage(req.Language)
	if !ok {
		lang = domain.Language(req.Language)
	}

	checkID, err := h.checkService.Submit(r.Context(), &domain.Submission{
		UserID:   userID,
		TaskID:   req.TaskID,
		Code:     req.Code,
		Language: lang,
	})
	if err != nil {
		status := submitErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to create check", "userId", userID, "taskId", req.TaskID, "error", err)
			response.WriteError(w, response.ErrorMessage{Message: "Failed to create check", StatusCode: status})
			return
		}
		response.WriteError(w, response.ErrorMessage{Message: err.Error(), StatusCode: status})
		return
	}

	response.WriteStatus(w, http.StatusAccepted, CreateCheckResponse{CheckID: checkID})
}

// GetCheck handles check retrieval requests; learners only see their own checks
func (h *CheckHandler) GetCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.ErrorMessage{Message: "Unauthorized", StatusCode: http.StatusUnauthorized})
		return
	}

	checkIDStr := mux.Vars(r)["checkId"]
	checkID, err := uuid.Parse(checkIDStr)
	if err != nil {
		response.WriteError(w, response.ErrorMessage{Message: "Invalid check ID", StatusCode: http.StatusBadRequest})
		return
	}

	c, err := h.checkService.GetCheck(r.Context(), checkID)
	if err != nil {
		if errors.Is(err, errs.ErrCheckNotFound) {
			response.WriteError(w, response.ErrorMessage{Message: "Check not found", StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to get check", "checkId", checkID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get check", StatusCode: http.StatusInternalServerError})
		return
	}
	if c.UserID != userID {
		response.WriteError(w, response.ErrorMessage{Message: "Check not found", StatusCode: http.StatusNotFound})
		return
	}

	response.WriteSuccess(w, newCheckResponse(c))
}

func submitErrorStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrUnsupportedLanguage), errors.Is(err, errs.ErrEmptyCode),
		errors.Is(err, errs.ErrLanguageMismatch):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrCodeTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errs.ErrTaskNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
