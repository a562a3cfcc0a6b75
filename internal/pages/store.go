package pages

import "context"

// Store is the read-side contract the resolver consumes. Implementations
// return NullPage (or NullTemplate) when nothing matches and reserve the
// error return for infrastructure failures.
type Store interface {
	// LookupByPath finds the page at the given canonical path. Pages with
	// Status >= statusCeiling are treated as absent, so the resolver can
	// include unpublished pages while excluding trashed and deleted ones.
	LookupByPath(ctx context.Context, path string, statusCeiling Status) (Page, error)

	// LookupByName finds a page by bare name. When uniqueOnly is set, only
	// pages flagged StatusUniqueName qualify.
	LookupByName(ctx context.Context, name string, uniqueOnly bool) (Page, error)

	// LookupByID finds a page by id
	LookupByID(ctx context.Context, id int64) (Page, error)

	// TemplateByID returns the template governing pages of the given
	// template id
	TemplateByID(ctx context.Context, id int64) (Template, error)
}
