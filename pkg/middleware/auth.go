package middleware

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/response"
)

// Authenticate verifies a Bearer token when one is sent and stores its claims
// in the request context. Request logs from then on carry the username. Requests without a token pass through anonymous;
// a malformed or expired token is rejected with 401.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Error(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := auth.WithClaims(r.Context(), claims)
		if e := entryFrom(ctx); e != nil {
			e.user = claims.Username
		}
		ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("user", claims.Username))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.ClaimsFrom(r.Context()) == nil {
			response.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff lets through staff and superusers only: 401 when anonymous,
// 403 otherwise.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := auth.ClaimsFrom(r.Context())
		switch {
		case c == nil:
			response.Unauthorized(w)
		case !c.Staff && !c.Superuser:
			response.Forbidden(w)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
