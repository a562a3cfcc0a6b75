package pages

import "strings"

// Status is a bitset describing the lifecycle state of a page.
// Flags are ordered so that any page with Status < StatusMaxQueryable is
// still addressable by the resolver (unpublished and hidden pages resolve,
// visibility is decided later by access control), while trashed and deleted
// pages are excluded from path lookups entirely.
type Status int64

const (
	// StatusNormal is a regular published page
	StatusNormal Status = 1

	// StatusUniqueName marks a page whose name is globally unique across
	// the tree and may be resolved by name alone
	StatusUniqueName Status = 1 << 5

	// StatusHidden excludes a page from navigation but keeps it addressable
	StatusHidden Status = 1 << 10

	// StatusUnpublished marks a page that resolves but requires edit-level
	// access to view
	StatusUnpublished Status = 1 << 11

	// StatusTrash marks a page in the trash
	StatusTrash Status = 1 << 13

	// StatusDeleted marks a page pending permanent removal
	StatusDeleted Status = 1 << 14

	// StatusMaxQueryable is the status ceiling for path lookups:
	// pages at or above this value never resolve
	StatusMaxQueryable Status = StatusTrash
)

// Has reports whether the status includes the given flag
func (s Status) Has(flag Status) bool {
	return s&flag != 0
}

// Page is a node in the content hierarchy, addressable by path and id.
// Pages are read-only to the resolver; they are created and destroyed by
// the storage layer.
type Page struct {
	// ID is the stable integer identifier (0 = null page)
	ID int64

	// Name is the last path component of the page
	Name string

	// Path is the canonical hierarchical path, starting with "/" and
	// carrying no trailing slash (the root page has path "/")
	Path string

	// Status is the lifecycle bitset
	Status Status

	// TemplateID references the template (type policy) governing this page
	TemplateID int64

	// ParentID is the id of the parent page (0 for the root)
	ParentID int64

	// ParentName is the name of the parent page, used by delegated access
	// to locate the host of a component page
	ParentName string
}

// NullPage is the sentinel returned when no page matches a lookup.
// It has id 0 and never satisfies Exists.
var NullPage = Page{}

// Exists reports whether the page is a real page rather than the null
// sentinel
func (p Page) Exists() bool {
	return p.ID != 0
}

// IsUnpublished reports whether the page carries the unpublished flag
func (p Page) IsUnpublished() bool {
	return p.Status.Has(StatusUnpublished)
}

// IsTrashed reports whether the page is in the trash or beyond
func (p Page) IsTrashed() bool {
	return p.Status >= StatusTrash
}

// URL returns the canonical root-relative URL of the page
func (p Page) URL() string {
	if p.Path == "" {
		return "/"
	}
	return p.Path
}

// CanonicalPath returns the page path normalized to the storage convention:
// a leading slash, no trailing slash, root as "/"
func CanonicalPath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	return "/" + strings.Trim(path, "/")
}
