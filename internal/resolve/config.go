package resolve

import "log/slog"

// Config holds resolver configuration
// Follows the repo convention: no global dependencies, explicit configuration
type Config struct {
	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger

	// RootPrefix is a non-root mount prefix the raw target must start
	// with; requests outside it are rejected
	// Default: "" (served from the root)
	RootPrefix string

	// MaxPathDepth is the maximum number of "/" occurrences accepted in a
	// candidate path, bounding backtracking cost under adversarial input
	// Default: 64
	MaxPathDepth int

	// MaxURLSegments bounds how many trailing segments PathWalker may peel
	// while backtracking
	// Default: 4
	MaxURLSegments int

	// PageNumPrefix is the pagination token prefix recognized at the end
	// of a path (e.g. "page" matches "page3")
	// Default: "page"
	PageNumPrefix string

	// MaxPageNum is the highest page number an unauthenticated principal
	// may request
	// Default: 999
	MaxPageNum int

	// SecureFiles enables the secured-file resolution pass
	// Default: true
	SecureFiles bool

	// FilesRoot is the path prefix secured file requests live beneath
	// Default: /site/assets/files
	FilesRoot string

	// ExtendedIDPaths accepts single-digit id path segments beneath the
	// files root, concatenated to form the page id (/1/2/3/ -> 123)
	// Default: false
	ExtendedIDPaths bool

	// LegacyFilePrefix, when non-empty, recognizes the legacy secured-file
	// form: a filename carrying this prefix anywhere in the path is
	// stripped and remembered while path resolution continues
	// Default: "" (disabled)
	LegacyFilePrefix string

	// DisableSchemeEnforcement turns template scheme requirements off
	// globally
	// Default: false
	DisableSchemeEnforcement bool

	// DelayRedirects defers the pending-redirect check until after the
	// ready hook has run, so path-rewriting extensions get a chance first
	// Default: false
	DelayRedirects bool

	// ComponentPrefix marks templates whose pages delegate view access to
	// a host page
	// Default: "component_"
	ComponentPrefix string

	// MaxComponentDepth bounds delegated-access recursion through nested
	// component chains
	// Default: 8
	MaxComponentDepth int

	// NotFoundPageID, when non-zero, is the page rendered for not-found
	// responses. A configured id that does not exist is a deployment
	// fault surfaced at startup.
	// Default: 0 (render NotFoundBody)
	NotFoundPageID int64

	// NotFoundBody is the literal fallback body when no not-found page is
	// configured or the configured page itself fails to render
	// Default: "404 page not found"
	NotFoundBody string

	// DisallowIDs always force not-found regardless of redirect-on-denial
	// policy (e.g. the trash root)
	// Default: empty
	DisallowIDs []int64
}

// DefaultConfig returns a resolver configuration with production defaults
func DefaultConfig() *Config {
	return &Config{
		MaxPathDepth:      64,
		MaxURLSegments:    4,
		PageNumPrefix:     "page",
		MaxPageNum:        999,
		SecureFiles:       true,
		FilesRoot:         "/site/assets/files",
		ComponentPrefix:   "component_",
		MaxComponentDepth: 8,
		NotFoundBody:      "404 page not found",
	}
}

// disallowed reports whether the page id is on the always-404 list
func (c *Config) disallowed(id int64) bool {
	for _, d := range c.DisallowIDs {
		if d == id {
			return true
		}
	}
	return false
}
