package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/tenancy"
)

// Auth verifies the bearer token and stores the caller's principal in the
// request context. WebSocket upgrades may pass the token as ?token= since
// browsers cannot set headers on them.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractToken(r)
			if tok == "" {
				WriteError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, tok)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Invalid or expired token.")
				return
			}

			userID, tenantID, role, err := claims.Identity()
			if err != nil {
				log.Debug().Err(err).Msg("middleware: token identity rejected")
				WriteError(w, http.StatusUnauthorized, "Invalid or expired token.")
				return
			}

			ctx := WithPrincipal(r.Context(), tenancy.Principal{
				UserID:   userID,
				TenantID: tenantID,
				Role:     role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}
