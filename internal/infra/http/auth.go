package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"

	"couples-daily-backend/internal/infra/metrics"
)

type contextKey string

const userIDKey contextKey = "auth_user_id"

// TokenVerifier проверяет ID-токен вызывающего.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuthMiddleware проверяет Bearer-токен Firebase и кладёт uid в контекст.
func FirebaseAuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == "" || raw == header {
				WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			start := time.Now()
			token, err := verifier.VerifyIDToken(r.Context(), raw)
			metrics.ObserveNetworkRequest("firebase_auth", "verify_id_token", "auth", start, err)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, token.UID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID возвращает uid аутентифицированного вызывающего.
func UserID(r *http.Request) string {
	uid, _ := r.Context().Value(userIDKey).(string)
	return uid
}
