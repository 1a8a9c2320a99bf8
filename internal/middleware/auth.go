package middleware

import (
	"context"
	"net/http"

	"github.com/retailcore/order-service/internal/entities"
	"github.com/retailcore/order-service/pkg/utils"
)

type claimsKey struct{}

// Auth lifts already-validated identity claims from trusted gateway
// headers into the request context. The gateway terminates
// authentication; credentials are never checked here.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims := &entities.AuthClaims{
			ID:    userID,
			Name:  r.Header.Get("X-User-Name"),
			Email: r.Header.Get("X-User-Email"),
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) *entities.AuthClaims {
	claims, ok := ctx.Value(claimsKey{}).(*entities.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ClaimsFromContext(r.Context()) == nil {
			utils.WriteError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
