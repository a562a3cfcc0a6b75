package resolve

import (
	"regexp"
	"strings"
)

// pathChars is the character set a candidate path may contain without
// falling back to extended-name normalization
var pathChars = regexp.MustCompile(`[^-_./a-zA-Z0-9]`)

// indexFilePattern recognizes legacy index-file paths, which get a softer
// redirect instead of a hard reject when otherwise disallowed
var indexFilePattern = regexp.MustCompile(`/index\.(php|html?)$`)

// Normalizer converts an extended-charset path to its sanitized page-name
// form. It is the fallback applied when a candidate path contains
// characters outside the plain path set.
type Normalizer func(raw string) string

// sanitizePath normalizes a raw request target into a canonical candidate
// path. The boolean result is false when the target is malformed, which
// always maps to not-found.
//
// The target may carry a query string (stripped at the first "?") and must
// fall under the configured root prefix, which is removed. Only
// [-_./A-Za-z0-9] survive the character filter; anything else gets one
// chance through the extended-name normalizer before rejection. Double
// separators and paths deeper than MaxPathDepth are rejected outright,
// before any storage lookup happens.
func sanitizePath(cfg *Config, normalize Normalizer, target string) (clean string, indexFile bool, ok bool) {
	if i := strings.Index(target, "?"); i >= 0 {
		target = target[:i]
	}

	if cfg.RootPrefix != "" && cfg.RootPrefix != "/" {
		prefix := "/" + strings.Trim(cfg.RootPrefix, "/")
		if !strings.HasPrefix(target, prefix) {
			return "", false, false
		}
		target = strings.TrimPrefix(target, prefix)
	}

	filtered := pathChars.ReplaceAllString(target, "")
	if filtered != target {
		if normalize == nil {
			return "", false, false
		}
		normalized := normalizeSegments(target, normalize)
		if normalized != target {
			return "", false, false
		}
		filtered = normalized
	}

	if filtered == "" {
		filtered = "/"
	}
	if !strings.HasPrefix(filtered, "/") {
		filtered = "/" + filtered
	}
	if strings.Contains(filtered, "//") {
		return "", false, false
	}

	if strings.Count(filtered, "/") > cfg.MaxPathDepth {
		return "", false, false
	}

	return filtered, indexFilePattern.MatchString(filtered), true
}

// normalizeSegments runs the extended-name normalizer over each path
// segment, preserving the separator structure
func normalizeSegments(path string, normalize Normalizer) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part != "" {
			parts[i] = normalize(part)
		}
	}
	return strings.Join(parts, "/")
}

// stripIndexFile removes a trailing index-file segment, returning the
// remaining path and whether anything was stripped
func stripIndexFile(path string) (string, bool) {
	loc := indexFilePattern.FindStringIndex(path)
	if loc == nil {
		return path, false
	}
	rest := path[:loc[0]]
	if rest == "" {
		rest = "/"
	}
	return rest, true
}
