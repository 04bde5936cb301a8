package middleware

import (
	"net/http"

	"github.com/angelmondragon/tally-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tally-backend/pkg/errors"
	"github.com/angelmondragon/tally-backend/pkg/logger"
)

// RequireRole admits callers whose role is one of allowed. Requests that
// carry no role at all pass through, which is the case when authentication
// is disabled.
func RequireRole(logg *logger.Logger, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				next.ServeHTTP(w, r)
				return
			}
			for _, candidate := range allowed {
				if role == candidate {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted").WithDetails(map[string]any{"role": role}))
		})
	}
}
