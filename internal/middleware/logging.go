package middleware

import (
	"net/http"
	"time"

	"k8s.io/klog/v2"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func wrapWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapWriter(w)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		if wrapped.statusCode >= http.StatusInternalServerError {
			klog.Warningf("method=%s path=%s status=%d duration=%s bytes=%d ip=%s",
				r.Method, r.URL.Path, wrapped.statusCode, duration, wrapped.written, r.RemoteAddr)
			return
		}
		klog.Infof("method=%s path=%s status=%d duration=%s bytes=%d ip=%s user_agent=%q",
			r.Method, r.URL.Path, wrapped.statusCode, duration, wrapped.written, r.RemoteAddr, r.UserAgent())
	})
}
