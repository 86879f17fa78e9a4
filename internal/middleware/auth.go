// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// GuestIDKey is the context key for the authenticated guest id.
	GuestIDKey ContextKey = "guest_id"
	// GuestEmailKey is the context key for the authenticated guest email.
	GuestEmailKey ContextKey = "guest_email"
)

// GuestClaims represents the guest session JWT claims.
type GuestClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// MintGuestToken issues a signed session token for a guest.
func MintGuestToken(secret, guestID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := GuestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   guestID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GuestAuth creates guest session authentication middleware.
func GuestAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			claims := &GuestClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid || claims.Subject == "" {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), GuestIDKey, claims.Subject)
			ctx = context.WithValue(ctx, GuestEmailKey, claims.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetGuestID gets the authenticated guest id from context.
func GetGuestID(ctx context.Context) string {
	if v := ctx.Value(GuestIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetGuestEmail gets the authenticated guest email from context.
func GetGuestEmail(ctx context.Context) string {
	if v := ctx.Value(GuestEmailKey); v != nil {
		return v.(string)
	}
	return ""
}
