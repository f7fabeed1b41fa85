package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type roleContextKey string

// UserIDContextKey carries the authenticated user's id through the request context.
const UserIDContextKey roleContextKey = "userID"

// Roles gating the privileged route groups.
const (
	RoleAdmin          = "admin"
	RoleWasteCollector = "wasteCollector"
)

// RequireRole verifies the Bearer JWT and checks the role claim before
// passing the request through. Admin and waste-collector routes use this;
// citizen routes go through the token cache in Middleware instead.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			claims, err := parseBearerClaims(r)
			if err != nil {
				zap.S().Warnw("unauthorized", "url", r.URL, "error", err)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}

			if !hasRole(claims, role) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": "insufficient permissions"}`))
				return
			}

			if sub, ok := claims["sub"].(string); ok {
				r = r.WithContext(context.WithValue(r.Context(), UserIDContextKey, sub))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseBearerClaims(r *http.Request) (jwt.MapClaims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("missing bearer token")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	secret := []byte(os.Getenv("JWT_SECRET"))
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func hasRole(claims jwt.MapClaims, role string) bool {
	switch role {
	case RoleAdmin:
		v, _ := claims["isAdmin"].(bool)
		return v
	case RoleWasteCollector:
		// admins can do anything the collectors can
		wc, _ := claims["isWasteCollector"].(bool)
		admin, _ := claims["isAdmin"].(bool)
		return wc || admin
	}
	return false
}
