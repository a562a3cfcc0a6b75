package pages

import (
	"regexp"
	"strings"
)

// SlashPolicy is a closed enum for trailing-slash conventions. Modeled as a
// type rather than raw integers so illegal values are unrepresentable in
// template configuration.
type SlashPolicy int

const (
	// SlashNoPreference accepts the path as requested
	SlashNoPreference SlashPolicy = iota

	// SlashRequire redirects to the path with a trailing slash
	SlashRequire

	// SlashForbid redirects to the path without a trailing slash
	SlashForbid
)

// Wants reports whether the policy has an opinion and, if so, whether it
// wants a trailing slash
func (s SlashPolicy) Wants() (enforced, slash bool) {
	switch s {
	case SlashRequire:
		return true, true
	case SlashForbid:
		return true, false
	default:
		return false, false
	}
}

// SchemePolicy is a closed enum for the transport scheme a template requires
type SchemePolicy int

const (
	// SchemeAny imposes no scheme requirement
	SchemeAny SchemePolicy = iota

	// SchemeHTTP requires plain http
	SchemeHTTP

	// SchemeHTTPS requires https
	SchemeHTTPS
)

// SegmentMode governs whether a template accepts trailing URL segments
type SegmentMode int

const (
	// SegmentsNone rejects any trailing segments
	SegmentsNone SegmentMode = iota

	// SegmentsAll accepts any trailing segments
	SegmentsAll

	// SegmentsList accepts only segments matching the template's rules
	SegmentsList
)

// SegmentRule is one entry in a template's URL-segment allow-list. A rule is
// either a literal segment path or a regular expression evaluated against
// the full joined segment path, trimmed of slashes.
type SegmentRule struct {
	// Value is the literal segment path or the regex source
	Value string

	// Pattern marks the rule as a regular expression
	Pattern bool

	compiled *regexp.Regexp
}

// NewLiteralRule returns a rule matching the given segment path exactly
func NewLiteralRule(value string) SegmentRule {
	return SegmentRule{Value: strings.Trim(value, "/")}
}

// NewPatternRule returns a rule matching segment paths against a regular
// expression. Compilation errors surface on first match attempt as a
// non-match rather than a panic.
func NewPatternRule(expr string) SegmentRule {
	r := SegmentRule{Value: expr, Pattern: true}
	if re, err := regexp.Compile(expr); err == nil {
		r.compiled = re
	}
	return r
}

// Matches reports whether the joined segment path satisfies the rule
func (r SegmentRule) Matches(joined string) bool {
	if r.Pattern {
		if r.compiled == nil {
			return false
		}
		return r.compiled.MatchString(joined)
	}
	return r.Value == joined
}

// Template is the per-content-type policy governing how pages of that type
// may be addressed: URL segments, page numbers, trailing-slash conventions,
// required transport scheme, and the redirect issued on access denial.
// Templates are immutable for the duration of a request.
type Template struct {
	// ID is the stable template identifier
	ID int64

	// Name is the template name. Names carrying the configured component
	// prefix mark component (delegated-access) templates.
	Name string

	// Segments governs trailing URL segments beyond the page path
	Segments SegmentMode

	// SegmentRules is the allow-list consulted when Segments == SegmentsList
	SegmentRules []SegmentRule

	// AllowPageNum enables pagination tokens on pages of this template
	AllowPageNum bool

	// Slash is the trailing-slash convention for plain page paths
	Slash SlashPolicy

	// SlashSegments is the trailing-slash convention when URL segments are
	// present
	SlashSegments SlashPolicy

	// SlashPageNum is the trailing-slash convention when a page number is
	// present
	SlashPageNum SlashPolicy

	// Scheme is the required transport scheme
	Scheme SchemePolicy

	// RequireLogin restricts viewing pages of this template to logged-in
	// principals holding the page-view permission
	RequireLogin bool

	// LoginPageID, when non-zero, is the page an access-denied request is
	// redirected to
	LoginPageID int64

	// LoginURL, when non-empty, is a literal redirect URL template; an
	// "{id}" placeholder is substituted with the denied page id. Takes
	// precedence over LoginPageID.
	LoginURL string
}

// NullTemplate is the zero template, returned when no template matches
var NullTemplate = Template{}

// Exists reports whether the template is real rather than the null sentinel
func (t Template) Exists() bool {
	return t.ID != 0
}

// AllowsSegments reports whether the joined segment path (slash-trimmed) is
// acceptable under the template's segment policy. The first matching
// allow-list entry wins.
func (t Template) AllowsSegments(joined string) bool {
	joined = strings.Trim(joined, "/")
	if joined == "" {
		return true
	}
	switch t.Segments {
	case SegmentsAll:
		return true
	case SegmentsList:
		for _, rule := range t.SegmentRules {
			if rule.Matches(joined) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// IsComponent reports whether the template name carries the given component
// prefix, marking pages of this template as delegating their view access to
// a host page
func (t Template) IsComponent(prefix string) bool {
	return prefix != "" && strings.HasPrefix(t.Name, prefix)
}
