package middleware

import (
	"context"
	"net/http"
	"strings"

	apiContext "errdeck/internal/api/context"
	"errdeck/internal/pkg/errors"
	"errdeck/internal/platform/auth"
)

type AuthMiddleware struct {
	tokenSvc *auth.TokenService
}

func NewAuthMiddleware(tokenSvc *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.KindUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.KindUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.tokenSvc.ValidateToken(r.Context(), parts[1])
		if err != nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.KindUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		next(w, r.WithContext(ctx))
	}
}
