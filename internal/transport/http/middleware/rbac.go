package middleware

import (
	"context"
	"net/http"

	"hrportal/internal/transport/http/api"
)

// PermissionStore answers whether a role carries a permission key. The auth
// store implements it over role_permissions.
type PermissionStore interface {
	HasPermission(ctx context.Context, roleID int64, permission string) (bool, error)
}

// RequirePermission gates a route on the authenticated user's role holding
// the given permission.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.RoleID, permission)
			switch {
			case err != nil:
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
			case !allowed:
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
