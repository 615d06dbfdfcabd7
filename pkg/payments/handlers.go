package payments

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/middleware"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Handlers exposes the payment HTTP endpoints. All routes require auth.
type Handlers struct {
	service *Service
	logger  *observability.Logger
}

// NewHandlers creates payment Handlers.
func NewHandlers(service *Service, logger *observability.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes registers the payment endpoints.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/payment/pay", h.handlePay).Methods(http.MethodPost)
	router.HandleFunc("/api/payment/history", h.handleHistory).Methods(http.MethodGet)
}

type payRequest struct {
	CourseID int64 `json:"courseId"`
}

func (h *Handlers) handlePay(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req payRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.CourseID <= 0 {
		httputil.WriteValidationError(w, "courseId is required")
		return
	}

	purchase, err := h.service.Pay(r.Context(), sc.ID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCourseNotFound):
			httputil.WriteNotFound(w, "course not found")
		case errors.Is(err, ErrAlreadyPurchased):
			httputil.WriteValidationError(w, "course already purchased")
		case errors.Is(err, ErrPaymentFailed):
			httputil.WriteValidationError(w, "payment failed")
		default:
			h.logger.WithError(err).Error("payment failed")
			httputil.WriteInternalError(w)
		}
		return
	}

	httputil.WriteSuccess(w, purchase)
}

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	history, err := h.service.History(r.Context(), sc.ID)
	if err != nil {
		h.logger.WithError(err).Error("purchase history failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, history)
}
