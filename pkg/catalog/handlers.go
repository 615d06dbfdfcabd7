package catalog

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/middleware"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Handlers exposes the course catalog HTTP endpoints.
type Handlers struct {
	service *Service
	logger  *observability.Logger
}

// NewHandlers creates catalog Handlers.
func NewHandlers(service *Service, logger *observability.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterPublicRoutes registers the listing and detail endpoints.
// These sit behind the optional gate so anonymous browsing works.
func (h *Handlers) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc("/api/courses", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/api/courses/{id:[0-9]+}", h.handleDetail).Methods(http.MethodGet)
}

// RegisterAuthedRoutes registers endpoints that need a logged-in user.
func (h *Handlers) RegisterAuthedRoutes(router *mux.Router) {
	router.HandleFunc("/api/courses/my-courses", h.handleMyCourses).Methods(http.MethodGet)
}

func (h *Handlers) handleList(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if sc := middleware.GetAuthContext(r.Context()); sc != nil {
		userID = sc.ID
	}

	page := httputil.ParseQueryInt(r, "page", 1)
	limit := httputil.ParseQueryInt(r, "limit", defaultPageSize)

	listing, err := h.service.List(r.Context(), userID, page, limit)
	if err != nil {
		h.logger.WithError(err).Error("course listing failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, listing)
}

func (h *Handlers) handleDetail(w http.ResponseWriter, r *http.Request) {
	courseID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var userID int64
	if sc := middleware.GetAuthContext(r.Context()); sc != nil {
		userID = sc.ID
	}

	detail, err := h.service.Detail(r.Context(), userID, courseID)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			httputil.WriteNotFound(w, "course not found")
			return
		}
		h.logger.WithError(err).Error("course detail failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, detail)
}

func (h *Handlers) handleMyCourses(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	courses, err := h.service.MyCourses(r.Context(), sc.ID)
	if err != nil {
		h.logger.WithError(err).Error("my-courses listing failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, courses)
}
