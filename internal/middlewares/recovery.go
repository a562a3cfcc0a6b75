package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"content_system/internal/observability"
)

// RecoveryConfig holds configuration for recovery middleware
type RecoveryConfig struct {
	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger

	// DisableStackTrace disables stack trace in panic logs
	// Default: false
	DisableStackTrace bool

	// RecoveryHandler writes the response after a panic.
	// The content front controller serves HTML, so the default answers
	// with a plain 500 page rather than a JSON envelope.
	RecoveryHandler func(w http.ResponseWriter, r *http.Request, err interface{})
}

// DefaultRecoveryConfig returns a default recovery configuration
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		RecoveryHandler: defaultRecoveryHandler,
	}
}

// defaultRecoveryHandler is the default recovery handler
func defaultRecoveryHandler(w http.ResponseWriter, r *http.Request, err interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprint(w, "<!DOCTYPE html><html><body><h1>500 Internal Server Error</h1></body></html>")
}

// Recovery returns a middleware that recovers from panics in page
// rendering and dispatch
func Recovery(config *RecoveryConfig) func(next http.Handler) http.Handler {
	if config == nil {
		config = DefaultRecoveryConfig()
	}
	if config.RecoveryHandler == nil {
		config.RecoveryHandler = defaultRecoveryHandler
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					fields := []any{
						"method", r.Method,
						"path", r.URL.Path,
						"client_ip", r.RemoteAddr,
						"error", fmt.Sprintf("%v", err),
					}
					if requestID := observability.GetRequestID(r.Context()); requestID != "" {
						fields = append(fields, "request_id", requestID)
					}
					if !config.DisableStackTrace {
						fields = append(fields, "stack", string(debug.Stack()))
					}

					logger.Error("panic recovered", fields...)

					config.RecoveryHandler(w, r, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
