package middleware

import (
	"net/http"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/transport"
)

// BearerContext keeps the caller's bearer token on the request context so
// outgoing authority calls made on the caller's behalf reuse it.
func BearerContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := transport.BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(internal.ContextWithToken(r.Context(), token)))
	})
}
