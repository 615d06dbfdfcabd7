// Package middleware provides HTTP middleware for authentication and
// role gating.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/oncoursesbros-sketch/oncourse/pkg/auth"
	"github.com/oncoursesbros-sketch/oncourse/pkg/contextkeys"
	"github.com/oncoursesbros-sketch/oncourse/pkg/httputil"
	"github.com/oncoursesbros-sketch/oncourse/pkg/observability"
)

// UserResolver loads the account behind a verified token.
type UserResolver interface {
	FindByID(ctx context.Context, id int64) (*auth.SecurityContext, error)
}

// AuthMiddleware verifies bearer tokens and attaches the authenticated
// user to the request context. In optional mode an absent or bad token
// degrades the request to anonymous instead of rejecting it.
type AuthMiddleware struct {
	tokens   *auth.TokenIssuer
	users    UserResolver
	logger   *observability.Logger
	metrics  *observability.Metrics
	optional bool
}

// NewAuthMiddleware creates a required-authentication gate.
func NewAuthMiddleware(tokens *auth.TokenIssuer, users UserResolver, logger *observability.Logger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger, metrics: metrics}
}

// NewOptionalAuthMiddleware creates a gate that lets anonymous requests through.
func NewOptionalAuthMiddleware(tokens *auth.TokenIssuer, users UserResolver, logger *observability.Logger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger, metrics: metrics, optional: true}
}

// Handler wraps the next handler with token verification.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.metrics.TokenRejectsTotal.WithLabelValues("missing").Inc()
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		userID, err := m.tokens.Verify(token)
		if err != nil {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.metrics.TokenRejectsTotal.WithLabelValues("invalid").Inc()
			m.logger.WithError(err).Debug("bearer token rejected")
			httputil.WriteForbidden(w, "invalid or expired token")
			return
		}

		user, err := m.users.FindByID(r.Context(), userID)
		if err != nil {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.metrics.TokenRejectsTotal.WithLabelValues("user_not_found").Inc()
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a handler to admin accounts. The role is re-read
// from the directory so a stale token cannot outlive a demotion.
func RequireAdmin(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := GetAuthContext(r.Context())
			if sc == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			current, err := users.FindByID(r.Context(), sc.ID)
			if err != nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}
			if current.Role != auth.RoleAdmin {
				httputil.WriteForbidden(w, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetAuthContext returns the authenticated user or nil for anonymous requests.
func GetAuthContext(ctx context.Context) *auth.SecurityContext {
	if sc, ok := ctx.Value(contextkeys.AuthKey).(*auth.SecurityContext); ok {
		return sc
	}
	return nil
}

// extractBearerToken pulls the token out of the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
