package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskflow/services/tasks-service/logging"
	"taskflow/services/tasks-service/utils"
)

type contextKey string

const actorEmailKey contextKey = "actorEmail"

// JWTAuthMiddleware validates the bearer token and stores the actor's email
// in the request context. Role resolution happens later, in the service
// layer, so stale role claims in old tokens never short-circuit a guard.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorEmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorEmail returns the authenticated actor's email from the request
// context, or "" when the request was not authenticated.
func ActorEmail(r *http.Request) string {
	email, _ := r.Context().Value(actorEmailKey).(string)
	return email
}
