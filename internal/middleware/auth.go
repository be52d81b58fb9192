package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/ascend/api/internal/model"
)

// AdminKey returns a middleware that admits requests carrying the admin API
// key as a Bearer token. An empty key rejects every request.
// The optional X-Admin-ID header names the acting administrator.
func AdminKey(apiKey string) Middleware {
	if apiKey == "" {
		return adminGuard(nil)
	}
	return adminGuard(func(token string) bool {
		return subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1
	})
}

// AdminKeyHash is AdminKey for a bcrypt hash of the admin API key, so the
// plaintext key never has to live in the environment.
func AdminKeyHash(hash string) Middleware {
	if hash == "" {
		return adminGuard(nil)
	}
	return adminGuard(func(token string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
	})
}

// adminGuard admits Bearer tokens accepted by check. A nil check rejects
// every request.
func adminGuard(check func(token string) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if check == nil {
				model.NewUnauthorizedError("admin API is disabled").WriteJSON(w)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				return
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				return
			}

			if !check(parts[1]) {
				model.NewUnauthorizedError("invalid admin key").WriteJSON(w)
				return
			}

			adminID := strings.TrimSpace(r.Header.Get("X-Admin-ID"))
			if adminID == "" {
				adminID = "admin"
			}
			ctx := context.WithValue(r.Context(), AdminIDKey, adminID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminID extracts the acting administrator from context
func GetAdminID(ctx context.Context) string {
	if id, ok := ctx.Value(AdminIDKey).(string); ok {
		return id
	}
	return ""
}

// BasicAuth protects a handler with fixed credentials. Empty credentials
// leave the handler open.
func BasicAuth(user, password string) Middleware {
	return func(next http.Handler) http.Handler {
		if user == "" && password == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
				model.NewUnauthorizedError("invalid credentials").WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
