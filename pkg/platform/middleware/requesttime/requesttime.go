// Package requesttime captures a single "now" per request so handlers can
// report durations and timestamps consistently.
package requesttime

import (
	"net/http"
	"time"

	"nipcheck/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
