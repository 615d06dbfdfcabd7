package auth

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// Handlers exposes the authentication HTTP endpoints.
type Handlers struct {
	service *Service
	resets  *ResetService
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewHandlers creates auth Handlers.
func NewHandlers(service *Service, resets *ResetService, logger *observability.Logger, metrics *observability.Metrics) *Handlers {
	return &Handlers{service: service, resets: resets, logger: logger, metrics: metrics}
}

// RegisterRoutes registers the auth endpoints on the router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/auth/register", h.handleRegister).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/forgot-password", h.handleForgotPassword).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/reset-password", h.handleResetPassword).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/verify-reset-token/{token}", h.handleVerifyResetToken).Methods(http.MethodGet)
}

type authResponse struct {
	Token string           `json:"token"`
	User  *SecurityContext `json:"user"`
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	user, token, err := h.service.Register(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			httputil.WriteValidationError(w, "user with this phone, email or login already exists")
			return
		}
		if isValidationError(err) {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		h.logger.WithError(err).Error("registration failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteCreated(w, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.metrics.LoginsTotal.WithLabelValues("failure").Inc()
			httputil.WriteUnauthorized(w, "invalid credentials")
			return
		}
		if isValidationError(err) {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		h.logger.WithError(err).Error("login failed")
		httputil.WriteInternalError(w)
		return
	}

	h.metrics.LoginsTotal.WithLabelValues("success").Inc()
	httputil.WriteSuccess(w, authResponse{Token: token, User: user})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.WriteValidationError(w, "email is required")
		return
	}

	if err := h.resets.RequestReset(r.Context(), req.Email); err != nil {
		h.logger.WithError(err).Error("password reset request failed")
		httputil.WriteInternalError(w)
		return
	}

	h.metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	// Same answer whether or not the email exists.
	httputil.WriteMessage(w, http.StatusOK, "if the email is registered, a reset link has been sent")
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type verifyResetTokenResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func (h *Handlers) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Token == "" {
		httputil.WriteValidationError(w, "token is required")
		return
	}

	if err := h.resets.ConsumeReset(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			httputil.WriteValidationError(w, "reset token is invalid or expired")
			return
		}
		if isValidationError(err) {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		h.logger.WithError(err).Error("password reset failed")
		httputil.WriteInternalError(w)
		return
	}

	h.metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	httputil.WriteMessage(w, http.StatusOK, "password has been reset")
}

func (h *Handlers) handleVerifyResetToken(w http.ResponseWriter, r *http.Request) {
	token, err := httputil.ParsePathString(r, "token")
	if err != nil || token == "" {
		httputil.WriteValidationError(w, "token is required")
		return
	}

	if err := h.resets.VerifyResetToken(r.Context(), token); err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			httputil.WriteJSON(w, http.StatusBadRequest, verifyResetTokenResponse{
				Valid:   false,
				Message: "reset token is invalid or expired",
			})
			return
		}
		h.logger.WithError(err).Error("reset token verification failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, verifyResetTokenResponse{Valid: true})
}

// isValidationError reports whether the error is user input rejection
// rather than an internal failure.
func isValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
