package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

const CSRFHeader = "X-CSRF-Token"

// CSRFMiddleware rejects mutating requests whose X-CSRF-Token header does
// not echo the token of the browser session. Must run after SessionMiddleware.
func CSRFMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := GetSession(r.Context())
			token := r.Header.Get(CSRFHeader)
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(claims.CSRF)) != 1 {
				logger.Debug("CSRF token mismatch",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "invalid CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
