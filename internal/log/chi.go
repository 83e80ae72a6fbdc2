package log

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// ChiMiddleware installs an http middleware that logs every request served by the certificate API.
// Server errors are logged at warning level so they stand out from regular traffic.
func ChiMiddleware(ctx context.Context) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			reqCtx := With(CopyFromContext(ctx, r.Context()), "req-id", middleware.GetReqID(r.Context()))
			//nolint:contextcheck
			defer func() {
				attrs := []any{
					"method", r.Method,
					"uri", r.RequestURI,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"d", time.Since(start),
				}
				if ww.Status() >= http.StatusInternalServerError {
					Warn(reqCtx, "http req", attrs...)
					return
				}
				Info(reqCtx, "http req", attrs...)
			}()
			next.ServeHTTP(ww, r.WithContext(reqCtx))
		}
		return http.HandlerFunc(fn)
	}
}
