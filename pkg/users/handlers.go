package users

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/auth"
	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/middleware"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
	"github.com/oncoursesbros-sketch/oncourse/pkg/storage"
)

// maxAvatarSize caps avatar uploads at 5 MiB.
const maxAvatarSize = 5 << 20

// Handlers exposes the profile HTTP endpoints.
type Handlers struct {
	service    *Service
	logger     *observability.Logger
	uploadsDir string
}

// NewHandlers creates user Handlers. Avatar files are written under
// uploadsDir.
func NewHandlers(service *Service, logger *observability.Logger, uploadsDir string) *Handlers {
	return &Handlers{service: service, logger: logger, uploadsDir: uploadsDir}
}

// RegisterRoutes registers the profile endpoints. The router must
// already be behind the authentication gate.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/users/profile", h.handleGetProfile).Methods(http.MethodGet)
	router.HandleFunc("/api/users/profile", h.handleUpdateProfile).Methods(http.MethodPut)
	router.HandleFunc("/api/users/upload-avatar", h.handleUploadAvatar).Methods(http.MethodPost)
}

func (h *Handlers) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	user, err := h.service.FindByID(r.Context(), sc.ID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		h.logger.WithError(err).Error("profile lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, user)
}

func (h *Handlers) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var update ProfileUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}
	if update.Email != nil && !strings.Contains(*update.Email, "@") {
		httputil.WriteValidationError(w, "email is invalid")
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), sc.ID, update)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			httputil.WriteValidationError(w, "email or phone already in use")
			return
		}
		h.logger.WithError(err).Error("profile update failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, user)
}

func (h *Handlers) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	sc := middleware.GetAuthContext(r.Context())
	if sc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		httputil.WriteValidationError(w, "avatar file is too large or malformed")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteValidationError(w, "avatar file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		httputil.WriteValidationError(w, "avatar must be an image")
		return
	}

	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		h.logger.WithError(err).Error("failed to create uploads dir")
		httputil.WriteInternalError(w)
		return
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.uploadsDir, name))
	if err != nil {
		h.logger.WithError(err).Error("failed to create avatar file")
		httputil.WriteInternalError(w)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.logger.WithError(err).Error("failed to write avatar file")
		httputil.WriteInternalError(w)
		return
	}

	avatarURL := fmt.Sprintf("/uploads/%s", name)
	user, err := h.service.UpdateAvatar(r.Context(), sc.ID, avatarURL)
	if err != nil {
		h.logger.WithError(err).Error("failed to store avatar url")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, user)
}
