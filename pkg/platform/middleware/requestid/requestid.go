// Package requestid assigns a correlation ID to every request.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"craneguard/pkg/requestcontext"
)

const headerName = "X-Request-ID"

// Middleware reuses the caller's X-Request-ID when present, otherwise mints a
// fresh one, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerName, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
