package quiz

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/middleware"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Handlers exposes the quiz HTTP endpoints. All routes require auth.
type Handlers struct {
	service *Service
	logger  *observability.Logger
}

// NewHandlers creates quiz Handlers.
func NewHandlers(service *Service, logger *observability.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes registers the quiz endpoints.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/quiz/{lessonId:[0-9]+}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/api/quiz/{lessonId:[0-9]+}/submit", h.handleSubmit).Methods(http.MethodPost)
}

func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	lessonID, ok := httputil.ParsePathInt64OrError(w, r, "lessonId")
	if !ok {
		return
	}

	quiz, err := h.service.Get(r.Context(), sc.ID, lessonID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoAccess):
			httputil.WriteForbidden(w, "course not purchased")
		case errors.Is(err, ErrQuizNotFound):
			httputil.WriteNotFound(w, "quiz not found")
		default:
			h.logger.WithError(err).Error("quiz load failed")
			httputil.WriteInternalError(w)
		}
		return
	}

	httputil.WriteSuccess(w, quiz)
}

func (h *Handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	lessonID, ok := httputil.ParsePathInt64OrError(w, r, "lessonId")
	if !ok {
		return
	}

	var submission Submission
	if !httputil.ParseJSONOrError(w, r, &submission) {
		return
	}
	if len(submission.Answers) == 0 {
		httputil.WriteValidationError(w, "answers are required")
		return
	}

	result, err := h.service.Submit(r.Context(), sc.ID, lessonID, submission)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoAccess):
			httputil.WriteForbidden(w, "course not purchased")
		case errors.Is(err, ErrQuizNotFound):
			httputil.WriteNotFound(w, "quiz not found")
		default:
			h.logger.WithError(err).Error("quiz submission failed")
			httputil.WriteInternalError(w)
		}
		return
	}

	httputil.WriteSuccess(w, result)
}
