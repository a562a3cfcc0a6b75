package resolve

import "content_system/internal/pages"

// enforceScheme compares the template's required transport scheme against
// the actual request scheme and, on mismatch, overrides or constructs the
// pending redirect.
//
// An already-pending redirect keeps its path and only has its scheme
// rewritten. With no redirect pending, a fresh absolute URL is built from
// the page's canonical path plus the trailing segments and page-number
// token under the same slash rules the validator applies, since that
// canonical form may never have been materialized as a redirect target.
func enforceScheme(cfg *Config, st *state, pending *RedirectTarget) *RedirectTarget {
	if cfg.DisableSchemeEnforcement {
		return pending
	}

	var want string
	switch st.template.Scheme {
	case pages.SchemeHTTP:
		want = "http"
	case pages.SchemeHTTPS:
		want = "https"
	default:
		return pending
	}

	if st.request.Scheme == want {
		return pending
	}

	if pending != nil {
		rewritten := pending.withScheme(want, st.request.Host)
		return &rewritten
	}

	wantSlash := st.requestedSlash
	var axis pages.SlashPolicy
	switch {
	case st.pageNum != nil:
		axis = st.template.SlashPageNum
	case len(st.segments) > 0:
		axis = st.template.SlashSegments
	default:
		axis = st.template.Slash
	}
	if enforced, slash := axis.Wants(); enforced {
		wantSlash = slash
	}

	target := RedirectTarget{
		URL:       canonicalURL(st.page, st.segments, st.pageNum, wantSlash),
		Permanent: true,
	}
	target = target.withScheme(want, st.request.Host)
	return &target
}
