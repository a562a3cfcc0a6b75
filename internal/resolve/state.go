package resolve

import (
	"strings"

	"content_system/internal/auth"
	"content_system/internal/pages"
)

// Classification describes how a dispatched request terminated
type Classification int

const (
	// ClassNone means dispatch has not reached a terminal state yet
	ClassNone Classification = iota

	// ClassNormal is a regular rendered page
	ClassNormal

	// ClassAjax is a rendered page requested via XMLHttpRequest
	ClassAjax

	// ClassFile is a secured file sent from the files root
	ClassFile

	// ClassRedirect is a redirect to another URL on this site
	ClassRedirect

	// ClassExternal is a redirect to a URL outside this site
	ClassExternal

	// ClassNotFound is a not-found response
	ClassNotFound

	// ClassError is a failure raised while rendering
	ClassError
)

// String returns the classification name used in logs and metrics labels
func (c Classification) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassAjax:
		return "ajax"
	case ClassFile:
		return "file"
	case ClassRedirect:
		return "redirect"
	case ClassExternal:
		return "external"
	case ClassNotFound:
		return "notFound"
	case ClassError:
		return "error"
	default:
		return "none"
	}
}

// Request is the dispatch input: the raw request target plus the transport
// facts the resolver needs to decide scheme and pagination policy.
type Request struct {
	// Target is the raw request target: either the dedicated path query
	// parameter or the request line path, query string included
	Target string

	// Host is the authority used when building absolute redirect URLs
	Host string

	// Scheme is the actual transport scheme, "http" or "https"
	Scheme string

	// Ajax marks XMLHttpRequest-style requests
	Ajax bool

	// Principal is the requesting identity, never empty (use
	// auth.GuestPrincipal for anonymous requests)
	Principal auth.Principal
}

// PageNum is a recognized pagination token peeled from the end of a path
type PageNum struct {
	// Prefix is the configured token prefix that matched (e.g. "page")
	Prefix string

	// Value is the numeric page, clamped to a minimum of 1 during
	// validation
	Value int
}

// fileRequest marks a request that targets a secured file rather than a
// rendered page
type fileRequest struct {
	filename string
	subdir   string
}

// state is the per-request resolution state threaded through the dispatch
// stages. It is confined to a single request; nothing here is shared.
type state struct {
	request Request

	// cleanPath is the sanitized candidate path
	cleanPath string

	// requestedSlash records whether the sanitized path ended with a slash,
	// consulted by slash canonicalization
	requestedSlash bool

	// indexFile is set when the path ended in an index-file segment,
	// allowing a softer redirect instead of a hard reject
	indexFile bool

	// page is the resolved page (NullPage until PathWalker succeeds)
	page pages.Page

	// template is the resolved page's template
	template pages.Template

	// segments are the trailing URL segments in path order (nearest the
	// page's canonical path first)
	segments []string

	// pageNum is the recognized pagination token, if any
	pageNum *PageNum

	// redirect is the pending redirect target; later stages may override
	// it but never clear it
	redirect *RedirectTarget

	// file is set when the request targets a secured file
	file *fileRequest

	// sender streams secured files for this request
	sender FileSender

	// deniedID records the originally requested page id on access denial,
	// for the login flow to read back
	deniedID int64

	// sentNotFound guards the not-found status so recursive re-entry into
	// the not-found branch emits it at most once per request
	sentNotFound bool
}

// joinedSegments returns the trailing segments joined with "/", trimmed of
// slashes, which is the form segment allow-lists match against
func (s *state) joinedSegments() string {
	return strings.Trim(strings.Join(s.segments, "/"), "/")
}

// Outcome is the dispatch result handed back to the transport layer
type Outcome struct {
	// Classification is set exactly once per terminal branch
	Classification Classification

	// Page is the resolved page, when one was resolved
	Page pages.Page

	// Segments are the trailing URL segments passed to rendering
	Segments []string

	// PageNum is the validated pagination value (0 when absent)
	PageNum int

	// Body is the rendered output, or the not-found fallback body
	Body []byte

	// RedirectURL is the redirect target for redirect classifications
	RedirectURL string

	// RedirectPermanent selects 301 over 302 for canonicalization redirects
	RedirectPermanent bool

	// NotFoundSent reports whether the not-found status should be written;
	// it is true at most once per request even when the not-found branch
	// re-enters itself
	NotFoundSent bool

	// DeniedID is the page id access was denied on (0 otherwise)
	DeniedID int64
}
