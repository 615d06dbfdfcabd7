package progress

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/middleware"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Handlers exposes the progress endpoint. Requires auth.
type Handlers struct {
	service *Service
	logger  *observability.Logger
}

// NewHandlers creates progress Handlers.
func NewHandlers(service *Service, logger *observability.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes registers the progress endpoint.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/profile/progress", h.handleSummary).Methods(http.MethodGet)
}

func (h *Handlers) handleSummary(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	summary, err := h.service.Summary(r.Context(), sc.ID)
	if err != nil {
		h.logger.WithError(err).Error("progress summary failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, summary)
}
