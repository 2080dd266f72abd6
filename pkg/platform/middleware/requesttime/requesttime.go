// Package requesttime provides middleware for request-scoped time.
// All records verified within one HTTP request share the same "now", so a
// synced batch carries a single generation timestamp.
package requesttime

import (
	"net/http"
	"time"

	"pebble/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
