package middleware

import (
	"net/http"

	"github.com/gsp-water/backend/models"
)

// RequireAnyGrant lets a request through when the caller holds at least the
// given role on any irrigation system. Superusers always pass.
func RequireAnyGrant(required models.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := GetScope(r)
		if scope == nil {
			http.Error(w, "missing access context", http.StatusUnauthorized)
			return
		}
		if scope.IsSuperuser {
			next.ServeHTTP(w, r)
			return
		}
		for _, role := range scope.SystemRoles {
			if role.Covers(required) {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}
