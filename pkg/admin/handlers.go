package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Handlers exposes the admin HTTP endpoints. The router they are
// registered on must sit behind both the authentication and admin
// gates.
type Handlers struct {
	service *Service
	logger  *observability.Logger
}

// NewHandlers creates admin Handlers.
func NewHandlers(service *Service, logger *observability.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes registers the admin endpoints.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/admin/users", h.handleListUsers).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/purchases", h.handleListPurchases).Methods(http.MethodGet)
}

func (h *Handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("admin user listing failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, users)
}

func (h *Handlers) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.service.ListPurchases(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("admin purchase listing failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, purchases)
}
