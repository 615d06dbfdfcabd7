package cart

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/middleware"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Handlers exposes the cart HTTP endpoints. All routes require auth.
type Handlers struct {
	service *Service
	logger  *observability.Logger
}

// NewHandlers creates cart Handlers.
func NewHandlers(service *Service, logger *observability.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes registers the cart endpoints.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/cart", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/api/cart/add", h.handleAdd).Methods(http.MethodPost)
	router.HandleFunc("/api/cart/remove/{courseId:[0-9]+}", h.handleRemove).Methods(http.MethodDelete)
	router.HandleFunc("/api/cart/clear", h.handleClear).Methods(http.MethodDelete)
}

func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	cart, err := h.service.Get(r.Context(), sc.ID)
	if err != nil {
		h.logger.WithError(err).Error("cart load failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, cart)
}

type addRequest struct {
	CourseID int64 `json:"courseId"`
}

func (h *Handlers) handleAdd(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req addRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.CourseID <= 0 {
		httputil.WriteValidationError(w, "courseId is required")
		return
	}

	if err := h.service.Add(r.Context(), sc.ID, req.CourseID); err != nil {
		switch {
		case errors.Is(err, ErrCourseNotFound):
			httputil.WriteNotFound(w, "course not found")
		case errors.Is(err, ErrAlreadyPurchased):
			httputil.WriteValidationError(w, "course already purchased")
		default:
			h.logger.WithError(err).Error("cart add failed")
			httputil.WriteInternalError(w)
		}
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "course added to cart")
}

func (h *Handlers) handleRemove(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	courseID, ok := httputil.ParsePathInt64OrError(w, r, "courseId")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), sc.ID, courseID); err != nil {
		h.logger.WithError(err).Error("cart remove failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "course removed from cart")
}

func (h *Handlers) handleClear(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	if err := h.service.Clear(r.Context(), sc.ID); err != nil {
		h.logger.WithError(err).Error("cart clear failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "cart cleared")
}
