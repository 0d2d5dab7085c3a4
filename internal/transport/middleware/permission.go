package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mkalenga/unigest/internal"
	"github.com/mkalenga/unigest/internal/authz"
)

// Authorizer is the slice of the authorization engine the route gates need.
// *authz.Service satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, userID int64, perm authz.Permission, scope *authz.Scope) (bool, error)
	HasRoleOrHigher(ctx context.Context, userID int64, role authz.Role) (bool, error)
}

// RequirePermission gates a route on an unscoped permission check: "can
// this user ever do perm". Handlers doing per-resource work still run their
// own scoped checks; this is the coarse outer gate.
func RequirePermission(authorizer Authorizer, logger *slog.Logger, perm authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := internal.UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			allowed, err := authorizer.Authorize(r.Context(), userID, perm, nil)
			if err != nil {
				logger.ErrorContext(r.Context(), "authorization check failed",
					"error", err, "user_id", userID, "permission", perm)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !allowed {
				logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", userID, "required_permission", perm)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleOrHigher gates a route on seniority alone, ignoring scope.
// Meant for UI affordances such as administrative dashboards.
func RequireRoleOrHigher(authorizer Authorizer, logger *slog.Logger, role authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := internal.UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			allowed, err := authorizer.HasRoleOrHigher(r.Context(), userID, role)
			if err != nil {
				logger.ErrorContext(r.Context(), "seniority check failed",
					"error", err, "user_id", userID, "role", role)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !allowed {
				logger.WarnContext(r.Context(), "access denied: insufficient seniority",
					"user_id", userID, "required_role", role)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
