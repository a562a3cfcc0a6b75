package middlewares

import (
	"log/slog"
	"net/http"
	"strconv"
)

// SecurityConfig holds configuration for security headers middleware
type SecurityConfig struct {
	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger

	// ContentTypeNosniff prevents browsers from MIME-sniffing
	// Default: "nosniff"
	ContentTypeNosniff string

	// XFrameOptions prevents clickjacking attacks
	// Values: "DENY", "SAMEORIGIN", "ALLOW-FROM uri"
	// Default: "SAMEORIGIN"
	XFrameOptions string

	// HSTSMaxAge sets HTTP Strict Transport Security max age.
	// The header is only emitted on TLS requests.
	// Default: 31536000 (1 year)
	HSTSMaxAge int

	// HSTSIncludeSubdomains includes subdomains in HSTS policy
	// Default: false
	HSTSIncludeSubdomains bool

	// ContentSecurityPolicy sets CSP header. Pages render inline styles
	// from site templates, so the default allows them.
	// Default: "default-src 'self'; style-src 'self' 'unsafe-inline'"
	ContentSecurityPolicy string

	// ReferrerPolicy controls referrer information
	// Default: "strict-origin-when-cross-origin"
	ReferrerPolicy string
}

// DefaultSecurityConfig returns a default security configuration
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: false,
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

// Security returns a middleware that sets security headers
func Security(config *SecurityConfig) func(next http.Handler) http.Handler {
	if config == nil {
		config = DefaultSecurityConfig()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("security headers middleware initialized",
		"hsts_max_age", config.HSTSMaxAge,
		"x_frame_options", config.XFrameOptions,
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			if config.ContentTypeNosniff != "" {
				h.Set("X-Content-Type-Options", config.ContentTypeNosniff)
			}
			if config.XFrameOptions != "" {
				h.Set("X-Frame-Options", config.XFrameOptions)
			}
			if config.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			}
			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}

			if r.TLS != nil && config.HSTSMaxAge > 0 {
				value := "max-age=" + strconv.Itoa(config.HSTSMaxAge)
				if config.HSTSIncludeSubdomains {
					value += "; includeSubDomains"
				}
				h.Set("Strict-Transport-Security", value)
			}

			next.ServeHTTP(w, r)
		})
	}
}
