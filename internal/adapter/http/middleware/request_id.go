package middleware

import (
	"net/http"

	"github.com/google/uuid"

	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a correlation id to every request. An id supplied
// by the client is kept so upstream systems can trace through.
func (h *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)

		ctx := wrap.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
