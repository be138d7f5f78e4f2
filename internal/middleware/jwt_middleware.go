package middleware

import (
	"context"
	"net/http"
	"strings"

	"modelrouter/internal/auth"
	"modelrouter/internal/utils"
)

// AdminJWT guards admin routes. It expects a Bearer token issued by the
// login handler and puts the admin username on the request context.
func AdminJWT(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing admin token")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			username, err := auth.ValidateAdminJWT(token, secret)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid admin token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminUserKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminUser retrieves the authenticated admin username from the context.
func GetAdminUser(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(AdminUserKey).(string)
	return username, ok
}
