package http

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/auth"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

// RequireSession verifies the bearer token and stores the session on the
// request context. EventSource cannot send headers, so an access_token query
// parameter is accepted as well.
func RequireSession(svc auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Message)
				return
			}
			sess, err := svc.Verify(r.Context(), token)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected request with invalid session")
				respondWithServiceError(w, err, "Failed to verify session")
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
