package auth

import (
	"context"
	"log/slog"

	"content_system/internal/pages"
)

// PageViewPermission is the permission consulted for restricted templates
// and for explicit per-page view grants on secured file requests
const PageViewPermission = "page-view"

// PageEditPermission additionally unlocks unpublished pages
const PageEditPermission = "page-edit"

// Policy decides page view eligibility for a principal. It satisfies the
// resolver's AccessPolicy contract.
type Policy struct {
	store  pages.Store
	logger *slog.Logger

	// hasTemplateFile reports whether a template has a renderable file;
	// nil treats every template as renderable
	hasTemplateFile func(tpl pages.Template) bool
}

// NewPolicy creates the standard access policy over the given store
func NewPolicy(store pages.Store, hasTemplateFile func(tpl pages.Template) bool, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{store: store, logger: logger, hasTemplateFile: hasTemplateFile}
}

// Viewable decides view eligibility under the standard rules: the page
// must exist below the queryable status ceiling, unpublished pages need
// edit-level access, restricted templates need a logged-in principal with
// the view permission, and the template must be renderable unless the
// caller ignores template-file requirements (the rule for secured files).
func (p *Policy) Viewable(ctx context.Context, principal Principal, pg pages.Page, ignoreTemplateFile bool) bool {
	if !pg.Exists() || pg.Status >= pages.StatusMaxQueryable {
		return false
	}

	if principal.Superuser {
		return true
	}

	if pg.IsUnpublished() && !principal.Has(PageEditPermission) {
		return false
	}

	tpl, err := p.store.TemplateByID(ctx, pg.TemplateID)
	if err != nil {
		p.logger.Warn("template lookup failed during access check", "page_id", pg.ID, "error", err)
		return false
	}
	if !tpl.Exists() {
		return false
	}

	if tpl.RequireLogin && (!principal.LoggedIn || !principal.Has(PageViewPermission)) {
		return false
	}

	if !ignoreTemplateFile && p.hasTemplateFile != nil && !p.hasTemplateFile(tpl) {
		return false
	}

	return true
}

// HasPagePermission reports whether the principal explicitly holds the
// named permission. Page-level grants are not stored separately, so the
// check reduces to the principal's permission set.
func (p *Policy) HasPagePermission(ctx context.Context, principal Principal, permission string, pg pages.Page) bool {
	return principal.Has(permission)
}
