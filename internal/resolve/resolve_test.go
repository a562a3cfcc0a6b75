package resolve

import (
	"context"
	"errors"

	"content_system/internal/auth"
	"content_system/internal/pages"
)

// fakeStore is an in-memory pages.Store for resolver tests
type fakeStore struct {
	byPath   map[string]pages.Page
	byID     map[int64]pages.Page
	unique   map[string]pages.Page
	tpls     map[int64]pages.Template
	pathHits []string
	fail     bool
}

var errStoreDown = errors.New("store down")

func newFakeStore() *fakeStore {
	return &fakeStore{
		byPath: make(map[string]pages.Page),
		byID:   make(map[int64]pages.Page),
		unique: make(map[string]pages.Page),
		tpls:   make(map[int64]pages.Template),
	}
}

func (s *fakeStore) add(pg pages.Page) {
	s.byPath[pg.Path] = pg
	s.byID[pg.ID] = pg
	if pg.Status.Has(pages.StatusUniqueName) {
		s.unique[pg.Name] = pg
	}
}

func (s *fakeStore) addTemplate(tpl pages.Template) {
	s.tpls[tpl.ID] = tpl
}

func (s *fakeStore) LookupByPath(ctx context.Context, path string, ceiling pages.Status) (pages.Page, error) {
	if s.fail {
		return pages.NullPage, errStoreDown
	}
	s.pathHits = append(s.pathHits, path)
	pg, ok := s.byPath[pages.CanonicalPath(path)]
	if !ok || pg.Status >= ceiling {
		return pages.NullPage, nil
	}
	return pg, nil
}

func (s *fakeStore) LookupByName(ctx context.Context, name string, uniqueOnly bool) (pages.Page, error) {
	if s.fail {
		return pages.NullPage, errStoreDown
	}
	if uniqueOnly {
		return s.unique[name], nil
	}
	for _, pg := range s.byID {
		if pg.Name == name {
			return pg, nil
		}
	}
	return pages.NullPage, nil
}

func (s *fakeStore) LookupByID(ctx context.Context, id int64) (pages.Page, error) {
	if s.fail {
		return pages.NullPage, errStoreDown
	}
	return s.byID[id], nil
}

func (s *fakeStore) TemplateByID(ctx context.Context, id int64) (pages.Template, error) {
	if s.fail {
		return pages.NullTemplate, errStoreDown
	}
	return s.tpls[id], nil
}

// fakePolicy is a function-backed AccessPolicy
type fakePolicy struct {
	viewable func(principal auth.Principal, pg pages.Page, ignoreTemplateFile bool) bool
	hasPerm  func(principal auth.Principal, permission string, pg pages.Page) bool
}

// allowAll grants everything
func allowAll() *fakePolicy {
	return &fakePolicy{}
}

func (p *fakePolicy) Viewable(ctx context.Context, principal auth.Principal, pg pages.Page, ignoreTemplateFile bool) bool {
	if p.viewable == nil {
		return true
	}
	return p.viewable(principal, pg, ignoreTemplateFile)
}

func (p *fakePolicy) HasPagePermission(ctx context.Context, principal auth.Principal, permission string, pg pages.Page) bool {
	if p.hasPerm == nil {
		return true
	}
	return p.hasPerm(principal, permission, pg)
}

// fakeRenderer renders a predictable body, or fails per template name
type fakeRenderer struct {
	missing map[string]bool
	fail    error
}

func (r *fakeRenderer) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	if r.missing[req.Template.Name] {
		return nil, ErrNotFound
	}
	return []byte("rendered:" + req.Page.Name), nil
}

// fakeSender records file sends
type fakeSender struct {
	sent     []string
	notFound bool
}

func (s *fakeSender) SendFile(ctx context.Context, pg pages.Page, subdir, filename string) error {
	if s.notFound {
		return ErrNotFound
	}
	path := filename
	if subdir != "" {
		path = subdir + "/" + filename
	}
	s.sent = append(s.sent, path)
	return nil
}

// guest returns the anonymous principal
func guest() auth.Principal {
	return auth.GuestPrincipal()
}

// editor returns a logged-in principal holding the given permissions
func editor(perms ...string) auth.Principal {
	set := make(map[string]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return auth.Principal{ID: 7, Name: "editor", LoggedIn: true, Permissions: set}
}
