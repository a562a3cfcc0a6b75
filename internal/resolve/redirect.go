package resolve

import "strings"

// RedirectTarget is a pending redirect accumulated across dispatch stages.
// Stages return it explicitly rather than mutating shared state, so the
// override rules (protocol enforcement rewrites scheme, everything else
// sets the target at most once) stay visible in the control flow.
type RedirectTarget struct {
	// URL is the target, either root-relative or absolute
	URL string

	// Permanent selects a 301 response
	Permanent bool

	// External marks targets outside this site, classified separately
	External bool
}

// withScheme returns a copy of the target rewritten to the given scheme,
// preserving the path. Root-relative targets are made absolute against the
// given host.
func (r RedirectTarget) withScheme(scheme, host string) RedirectTarget {
	out := r
	if strings.HasPrefix(r.URL, "http://") || strings.HasPrefix(r.URL, "https://") {
		rest := r.URL[strings.Index(r.URL, "://")+3:]
		out.URL = scheme + "://" + rest
		return out
	}
	out.URL = scheme + "://" + host + r.URL
	return out
}
