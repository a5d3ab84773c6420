// file: internal/middleware/structured_logger.go
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// statusRecorder captures the status code and bytes written
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// StructuredLogger logs one line per completed request with latency and
// outcome, using the request-scoped logger when present.
func StructuredLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			requestLogger, ok := r.Context().Value(LoggerKey).(*zap.Logger)
			if !ok {
				requestLogger = logger
			}

			fields := []zap.Field{
				zap.Int("status", recorder.status),
				zap.Int("bytes", recorder.bytes),
				zap.Duration("latency", time.Since(start)),
			}
			switch {
			case recorder.status >= 500:
				requestLogger.Error("Request completed", fields...)
			case recorder.status >= 400:
				requestLogger.Warn("Request completed", fields...)
			default:
				requestLogger.Info("Request completed", fields...)
			}
		})
	}
}
