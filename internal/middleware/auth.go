package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const userKey key = 1

// RequireAuth verifies the Bearer token and stores the caller's user id in the
// request context. Token issuance belongs to the external auth provider; this
// middleware only trusts its signature.
func RequireAuth(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized(r.Context(), w, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeUnauthorized(r.Context(), w, "Authorization header format must be Bearer {token}")
			return
		}

		userID, err := parseToken(parts[1], secret)
		if err != nil {
			writeUnauthorized(r.Context(), w, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func parseToken(tokenString, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// WithUserID injects a caller identity directly, bypassing token
// verification. Handler tests use it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// GetUserID returns the verified caller identity, or "" outside an
// authenticated request.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userKey).(string); ok {
		return id
	}
	return ""
}

func writeUnauthorized(ctx context.Context, w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
		"correlationId": GetCorrelationID(ctx),
	}
	_ = json.NewEncoder(w).Encode(resp)
}
