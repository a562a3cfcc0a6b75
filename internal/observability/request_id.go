package observability

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "request_id"

// maxInboundIDLength caps request ids accepted from clients; longer values
// are replaced rather than echoed into logs
const maxInboundIDLength = 64

// RequestIDConfig holds configuration for the request ID middleware
type RequestIDConfig struct {
	// Header carries the request id in and out
	// Default: X-Request-ID
	Header string

	// TrustInbound accepts a client-supplied id when it looks sane;
	// otherwise every request gets a fresh id
	// Default: true
	TrustInbound bool
}

// DefaultRequestIDConfig returns a default request ID configuration
func DefaultRequestIDConfig() *RequestIDConfig {
	return &RequestIDConfig{
		Header:       "X-Request-ID",
		TrustInbound: true,
	}
}

// acceptable rejects inbound ids with control characters or excessive length
func acceptable(id string) bool {
	if id == "" || len(id) > maxInboundIDLength {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return r < 0x21 || r > 0x7e
	})
}

// RequestID returns a middleware that tags each request with an id, echoed
// in the response header and carried in the request context for log
// correlation across the resolution pipeline
func RequestID(config *RequestIDConfig) func(next http.Handler) http.Handler {
	if config == nil {
		config = DefaultRequestIDConfig()
	}
	if config.Header == "" {
		config.Header = "X-Request-ID"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if config.TrustInbound {
				if inbound := r.Header.Get(config.Header); acceptable(inbound) {
					id = inbound
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(config.Header, id)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
		})
	}
}

// GetRequestID retrieves the request id from a context, empty when untagged
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID returns a context carrying the given request id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
