package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/crucial707/booklend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

type key string

const (
	UserIDKey key = "user_id"
	RoleKey   key = "role"
)

// JWT validates the Authorization bearer token and puts the caller's id and
// role into the request context. Missing header is 401; a token that is
// present but invalid, expired, or signed with the wrong method is 403.
func JWT(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				jsonError(w, "no token provided", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				jsonError(w, "invalid token", http.StatusForbidden)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				jsonError(w, "invalid token claims", http.StatusForbidden)
				return
			}
			userID, ok := claims["user_id"].(float64)
			if !ok {
				jsonError(w, "invalid token claims", http.StatusForbidden)
				return
			}
			roleStr, _ := claims["role"].(string)
			role := models.Role(roleStr)
			if !role.Valid() {
				jsonError(w, "invalid token claims", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, int(userID))
			ctx = context.WithValue(ctx, RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user's id from the request context.
func GetUserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(UserIDKey).(int)
	return id, ok
}

// GetRole returns the authenticated user's role from the request context.
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(RoleKey).(models.Role)
	return role, ok
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"message":` + `"` + message + `"}`))
}
