package resolve

import (
	"strconv"
	"strings"

	"content_system/internal/auth"
	"content_system/internal/pages"
)

// validateSegments checks the discovered trailing segments and page-number
// token against the resolved page's template policy and computes the
// trailing-slash canonicalization redirect, if any.
//
// The page-number token is only legal when the template allows pagination.
// Values below 1 clamp to 1; unauthenticated principals are rejected above
// cfg.MaxPageNum. Remaining segments go through the template's segment
// allowance. A rejection caused solely by a trailing index-file segment
// softens into a redirect to the canonical path instead of a hard
// not-found, but only when the index marker is the single violation.
//
// Returns ok=false for a policy violation (not-found). A non-nil redirect
// with ok=true is a canonicalization redirect.
func validateSegments(cfg *Config, st *state, principal auth.Principal) (redirect *RedirectTarget, ok bool) {
	tpl := st.template

	if st.pageNum != nil {
		if !tpl.AllowPageNum {
			if rt, softened := softenIndexReject(st); softened {
				return rt, true
			}
			return nil, false
		}
		if st.pageNum.Value < 1 {
			st.pageNum.Value = 1
		}
		if st.pageNum.Value > cfg.MaxPageNum && !principal.LoggedIn {
			return nil, false
		}
	}

	if len(st.segments) > 0 {
		joined := st.joinedSegments()
		if !tpl.AllowsSegments(joined) {
			if rt, softened := softenIndexReject(st); softened {
				return rt, true
			}
			return nil, false
		}
	}

	// slash canonicalization: pick the policy axis for what the request
	// actually carried, then compare against the requested form
	var policy pages.SlashPolicy
	switch {
	case st.pageNum != nil:
		policy = tpl.SlashPageNum
	case len(st.segments) > 0:
		policy = tpl.SlashSegments
	default:
		policy = tpl.Slash
	}

	enforced, wantSlash := policy.Wants()
	if enforced && wantSlash != st.requestedSlash {
		// the root canonicalizes to "/" under either policy; redirecting
		// to the path already requested would loop
		target := canonicalURL(st.page, st.segments, st.pageNum, wantSlash)
		if target != st.cleanPath {
			return &RedirectTarget{URL: target, Permanent: true}, true
		}
	}

	return nil, true
}

// softenIndexReject converts a policy rejection into a redirect to the
// page's canonical path when the only extra path component is a legacy
// index-file segment and the request carried no other violation. This
// recovers "/page/index.php" style URLs without weakening the allow-list
// for anything else.
func softenIndexReject(st *state) (*RedirectTarget, bool) {
	if !st.indexFile || st.pageNum != nil || len(st.segments) != 1 {
		return nil, false
	}
	if !indexFilePattern.MatchString("/" + st.segments[0]) {
		return nil, false
	}
	return &RedirectTarget{URL: st.page.URL(), Permanent: true}, true
}

// canonicalURL builds the canonical root-relative URL for a page plus its
// trailing segments and page-number token under the given slash form
func canonicalURL(pg pages.Page, segments []string, pageNum *PageNum, trailingSlash bool) string {
	url := strings.TrimRight(pg.URL(), "/")

	if joined := strings.Trim(strings.Join(segments, "/"), "/"); joined != "" {
		url += "/" + joined
	}
	if pageNum != nil {
		url += "/" + pageNum.Prefix + strconv.Itoa(pageNum.Value)
	}

	if url == "" {
		return "/"
	}
	if trailingSlash {
		url += "/"
	}
	return url
}
