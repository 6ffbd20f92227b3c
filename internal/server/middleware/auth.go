package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/plaza/internal/auth"
)

// TokenCookie carries the access token for clients that cannot set headers,
// such as the browser EventSource used by the admin front-end. Only
// StreamAuth reads it.
const TokenCookie = "plaza_token"

// Auth accepts a Bearer token in the Authorization header only.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, false)
}

// StreamAuth accepts a Bearer token or the TokenCookie. Mount it on read-only
// streaming routes only.
func StreamAuth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, true)
}

func authenticate(jwtSecret string, allowCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" && allowCookie {
				if c, err := r.Cookie(TokenCookie); err == nil {
					tok = c.Value
				}
			}

			if tok != "" {
				claims, err := auth.ValidateToken(jwtSecret, tok)
				if err == nil {
					ctx := WithIdentity(r.Context(), claims.Operator(), claims.Role)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("auth: rejected token")
			}

			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}
