package middlewares

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture response details for logging
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

// WriteHeader captures the status code for logging
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures response size for logging
func (rw *responseWriter) Write(data []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(data)
	rw.bytesWritten += int64(n)
	return n, err
}

// Hijack implements the http.Hijacker interface for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("the ResponseWriter doesn't support Hijacker")
	}
	return hijacker.Hijack()
}

// LoggerConfig holds configuration options for the HTTP request logger middleware
type LoggerConfig struct {
	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger

	// SkipPaths are not logged (health probes, scrape endpoints)
	SkipPaths []string

	// IncludeUserAgent includes the User-Agent header
	// Default: true
	IncludeUserAgent bool

	// IncludeQueryParams includes the raw query string
	// Default: true
	IncludeQueryParams bool
}

// DefaultLoggerConfig creates a production-ready logger configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		SkipPaths:          []string{"/healthz", "/live", "/metrics", "/favicon.ico"},
		IncludeUserAgent:   true,
		IncludeQueryParams: true,
	}
}

// Logger creates an HTTP logging middleware that captures request/response details
func Logger(config *LoggerConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkipPath(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			startTime := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"latency_ms", time.Since(startTime).Milliseconds(),
				"client_ip", r.RemoteAddr,
				"host", r.Host,
				"response_size", wrapped.bytesWritten,
			}

			if config.IncludeQueryParams && len(r.URL.RawQuery) > 0 {
				fields = append(fields, "query", r.URL.RawQuery)
			}
			if config.IncludeUserAgent {
				if userAgent := r.Header.Get("User-Agent"); userAgent != "" {
					fields = append(fields, "user_agent", userAgent)
				}
			}

			logRequest(logger, wrapped.statusCode, fields)
		})
	}
}

// shouldSkipPath checks if the given path should be skipped from logging
func shouldSkipPath(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if path == skipPath {
			return true
		}
	}
	return false
}

// logRequest logs the request with appropriate level based on status code
func logRequest(logger *slog.Logger, statusCode int, fields []any) {
	switch {
	case statusCode >= 500:
		logger.Error("http request", fields...)
	case statusCode >= 400:
		logger.Warn("http request", fields...)
	default:
		logger.Info("http request", fields...)
	}
}
