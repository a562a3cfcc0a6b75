package resolve

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"content_system/internal/auth"
	"content_system/internal/pages"
)

// AccessPolicy is the delegated authorization contract. The standard
// implementation lives in internal/auth; the resolver only consumes the
// decisions.
type AccessPolicy interface {
	// Viewable decides view eligibility under standard rules. When
	// ignoreTemplateFile is set, the check skips template-file
	// requirements, which is the rule for secured file requests.
	Viewable(ctx context.Context, principal auth.Principal, pg pages.Page, ignoreTemplateFile bool) bool

	// HasPagePermission reports whether the principal explicitly holds
	// the named permission on the page
	HasPagePermission(ctx context.Context, principal auth.Principal, permission string, pg pages.Page) bool
}

// accessDecision is the outcome of the access-control stage
type accessDecision int

const (
	accessAllowed accessDecision = iota
	accessRedirect
	accessDenied
)

// hostIDPattern extracts the host page id embedded in a component page's
// parent name ("for-page-123" -> 123)
var hostIDPattern = regexp.MustCompile(`^for-page-([0-9]+)$`)

// checkAccess decides view eligibility for the resolved page. Secured file
// requests get three independent allowances: viewable while ignoring
// template-file requirements, delegated access through a component chain,
// or an explicit page-view permission on a page below unpublished status.
// Ordinary render requests use the standard viewability rule alone.
//
// On denial the template's redirect-on-denial policy applies: a login page
// id, a literal URL with an "{id}" placeholder, or nothing (not-found). The
// disallow list always forces not-found. The denied page id is recorded on
// the state for the login flow to read back.
func checkAccess(ctx context.Context, cfg *Config, store pages.Store, policy AccessPolicy, st *state) (accessDecision, *RedirectTarget, error) {
	principal := st.request.Principal
	pg := st.page

	allowed := false
	if st.file != nil {
		switch {
		case policy.Viewable(ctx, principal, pg, true):
			allowed = true
		case !pg.IsUnpublished() && policy.HasPagePermission(ctx, principal, "page-view", pg):
			allowed = true
		default:
			ok, err := delegatedAccess(ctx, cfg, store, policy, principal, pg, st.template, cfg.MaxComponentDepth)
			if err != nil {
				return accessDenied, nil, err
			}
			allowed = ok
		}
	} else {
		allowed = policy.Viewable(ctx, principal, pg, false)
	}

	if allowed {
		return accessAllowed, nil, nil
	}

	st.deniedID = pg.ID

	if cfg.disallowed(pg.ID) {
		return accessDenied, nil, nil
	}

	tpl := st.template
	if tpl.LoginURL != "" {
		url := strings.ReplaceAll(tpl.LoginURL, "{id}", strconv.FormatInt(pg.ID, 10))
		external := strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
		return accessRedirect, &RedirectTarget{URL: url, External: external}, nil
	}
	if tpl.LoginPageID != 0 {
		login, err := store.LookupByID(ctx, tpl.LoginPageID)
		if err != nil {
			return accessDenied, nil, err
		}
		if login.Exists() {
			return accessRedirect, &RedirectTarget{URL: login.URL()}, nil
		}
	}

	return accessDenied, nil, nil
}

// delegatedAccess walks a component page's host chain: the host id is
// embedded in the parent name, and nested components recurse until a
// non-component host is reached or the depth budget runs out. Any
// affirmative result along the chain view-grants the original page.
func delegatedAccess(ctx context.Context, cfg *Config, store pages.Store, policy AccessPolicy, principal auth.Principal, pg pages.Page, tpl pages.Template, depth int) (bool, error) {
	if depth <= 0 || !tpl.IsComponent(cfg.ComponentPrefix) {
		return false, nil
	}

	m := hostIDPattern.FindStringSubmatch(pg.ParentName)
	if m == nil {
		return false, nil
	}
	hostID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || hostID == 0 {
		return false, nil
	}

	host, err := store.LookupByID(ctx, hostID)
	if err != nil {
		return false, err
	}
	if !host.Exists() {
		return false, nil
	}

	if policy.Viewable(ctx, principal, host, true) {
		return true, nil
	}

	hostTpl, err := store.TemplateByID(ctx, host.TemplateID)
	if err != nil {
		return false, err
	}
	return delegatedAccess(ctx, cfg, store, policy, principal, host, hostTpl, depth-1)
}
