package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_system/internal/pages"
)

// siteStore builds a small content tree used by the dispatch tests
func siteStore() *fakeStore {
	store := newFakeStore()
	store.add(pages.Page{ID: 1, Name: "home", Path: "/", Status: pages.StatusNormal, TemplateID: 1})
	store.add(pages.Page{ID: 2, Name: "blog", Path: "/blog", Status: pages.StatusNormal, TemplateID: 2})
	store.add(pages.Page{ID: 3, Name: "post", Path: "/blog/post", Status: pages.StatusNormal, TemplateID: 2})
	store.add(pages.Page{ID: 4, Name: "missing", Path: "/missing-page", Status: pages.StatusNormal, TemplateID: 3})
	store.addTemplate(pages.Template{ID: 1, Name: "home", AllowPageNum: true})
	store.addTemplate(pages.Template{ID: 2, Name: "basic", Segments: pages.SegmentsAll, AllowPageNum: true})
	store.addTemplate(pages.Template{ID: 3, Name: "missing"})
	return store
}

func newTestDispatcher(cfg *Config, store pages.Store, policy AccessPolicy) (*Dispatcher, *fakeSender) {
	sender := &fakeSender{}
	d := NewDispatcher(cfg, store, policy, &fakeRenderer{}, sender, nil, Hooks{})
	return d, sender
}

func dispatch(t *testing.T, d *Dispatcher, target string) Outcome {
	t.Helper()
	out, err := d.Dispatch(context.Background(), Request{
		Target:    target,
		Host:      "example.com",
		Scheme:    "http",
		Principal: guest(),
	})
	require.NoError(t, err)
	return out
}

func TestDispatchNormalPage(t *testing.T) {
	d, _ := newTestDispatcher(DefaultConfig(), siteStore(), allowAll())

	out := dispatch(t, d, "/blog/post")
	assert.Equal(t, ClassNormal, out.Classification)
	assert.Equal(t, int64(3), out.Page.ID)
	assert.Equal(t, []byte("rendered:post"), out.Body)
}

func TestDispatchAjax(t *testing.T) {
	d, _ := newTestDispatcher(DefaultConfig(), siteStore(), allowAll())

	out, err := d.Dispatch(context.Background(), Request{
		Target:    "/blog/post",
		Host:      "example.com",
		Scheme:    "http",
		Ajax:      true,
		Principal: guest(),
	})
	require.NoError(t, err)
	assert.Equal(t, ClassAjax, out.Classification)
}

func TestDispatchSegmentsAndPageNum(t *testing.T) {
	d, _ := newTestDispatcher(DefaultConfig(), siteStore(), allowAll())

	out := dispatch(t, d, "/blog/post/2024/page3")
	assert.Equal(t, ClassNormal, out.Classification)
	assert.Equal(t, []string{"2024"}, out.Segments)
	assert.Equal(t, 3, out.PageNum)
}

func TestDispatchNotFound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxURLSegments = 1
	store := siteStore()
	delete(store.byPath, "/") // no root to absorb segments
	d, _ := newTestDispatcher(cfg, store, allowAll())

	out := dispatch(t, d, "/nothing/here")
	assert.Equal(t, ClassNotFound, out.Classification)
	assert.True(t, out.NotFoundSent)
	assert.Equal(t, []byte(cfg.NotFoundBody), out.Body)
}

func TestDispatchNotFoundFallbackPage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxURLSegments = 1
	cfg.NotFoundPageID = 4
	store := siteStore()
	delete(store.byPath, "/")
	d, _ := newTestDispatcher(cfg, store, allowAll())

	out := dispatch(t, d, "/nothing/here")
	assert.Equal(t, ClassNotFound, out.Classification)
	assert.True(t, out.NotFoundSent)
	assert.Equal(t, []byte("rendered:missing"), out.Body)
}

func TestDispatchMalformedPath(t *testing.T) {
	d, _ := newTestDispatcher(DefaultConfig(), siteStore(), allowAll())

	out := dispatch(t, d, "/bad//path")
	assert.Equal(t, ClassNotFound, out.Classification)
}

func TestDispatchSlashRedirect(t *testing.T) {
	store := siteStore()
	store.addTemplate(pages.Template{ID: 2, Name: "basic", Slash: pages.SlashRequire})
	d, _ := newTestDispatcher(DefaultConfig(), store, allowAll())

	out := dispatch(t, d, "/blog/post")
	assert.Equal(t, ClassRedirect, out.Classification)
	assert.Equal(t, "/blog/post/", out.RedirectURL)
	assert.True(t, out.RedirectPermanent)

	// the canonical form itself does not redirect again
	out = dispatch(t, d, "/blog/post/")
	assert.Equal(t, ClassNormal, out.Classification)
}

func TestDispatchSchemeRedirect(t *testing.T) {
	store := siteStore()
	store.addTemplate(pages.Template{ID: 2, Name: "basic", Scheme: pages.SchemeHTTPS})
	d, _ := newTestDispatcher(DefaultConfig(), store, allowAll())

	out := dispatch(t, d, "/blog/post")
	assert.Equal(t, ClassRedirect, out.Classification)
	assert.Equal(t, "https://example.com/blog/post", out.RedirectURL)
}

func TestDispatchExternalLoginRedirect(t *testing.T) {
	store := siteStore()
	store.addTemplate(pages.Template{ID: 2, Name: "basic", LoginURL: "https://sso.example.org/login?page={id}"})
	d, _ := newTestDispatcher(DefaultConfig(), store, denyAll())

	out := dispatch(t, d, "/blog/post")
	assert.Equal(t, ClassExternal, out.Classification)
	assert.Equal(t, "https://sso.example.org/login?page=3", out.RedirectURL)
	assert.Equal(t, int64(3), out.DeniedID)
}

func TestDispatchAccessDenied(t *testing.T) {
	d, _ := newTestDispatcher(DefaultConfig(), siteStore(), denyAll())

	out := dispatch(t, d, "/blog/post")
	assert.Equal(t, ClassNotFound, out.Classification)
	assert.Equal(t, int64(3), out.DeniedID)
}

func TestDispatchUniqueNameShortcut(t *testing.T) {
	store := siteStore()
	store.add(pages.Page{ID: 5, Name: "promo", Path: "/campaigns/promo", Status: pages.StatusNormal | pages.StatusUniqueName, TemplateID: 2})
	d, _ := newTestDispatcher(DefaultConfig(), store, allowAll())

	out := dispatch(t, d, "/promo")
	assert.Equal(t, ClassRedirect, out.Classification)
	assert.Equal(t, "/campaigns/promo", out.RedirectURL)
	assert.True(t, out.RedirectPermanent)
}

func TestDispatchSecureFile(t *testing.T) {
	d, sender := newTestDispatcher(DefaultConfig(), siteStore(), allowAll())

	out := dispatch(t, d, "/site/assets/files/3/report.pdf")
	assert.Equal(t, ClassFile, out.Classification)
	assert.Equal(t, []string{"report.pdf"}, sender.sent)
}

func TestDispatchSecureFileMissingOnDisk(t *testing.T) {
	cfg := DefaultConfig()
	sender := &fakeSender{notFound: true}
	d := NewDispatcher(cfg, siteStore(), allowAll(), &fakeRenderer{}, sender, nil, Hooks{})

	out, err := d.Dispatch(context.Background(), Request{
		Target: "/site/assets/files/3/report.pdf", Host: "example.com", Scheme: "http", Principal: guest(),
	})
	require.NoError(t, err)
	assert.Equal(t, ClassNotFound, out.Classification)
}

func TestDispatchSecureFileInvalidIsHard404(t *testing.T) {
	d, _ := newTestDispatcher(DefaultConfig(), siteStore(), allowAll())

	// shaped like a secured file but pointing at a missing page id; must
	// not fall through to path resolution
	out := dispatch(t, d, "/site/assets/files/9999/report.pdf")
	assert.Equal(t, ClassNotFound, out.Classification)
}

func TestDispatchRenderErrorSurfaces(t *testing.T) {
	cfg := DefaultConfig()
	renderErr := assert.AnError
	d := NewDispatcher(cfg, siteStore(), allowAll(), &fakeRenderer{fail: renderErr}, &fakeSender{}, nil, Hooks{})

	out, err := d.Dispatch(context.Background(), Request{
		Target: "/blog/post", Host: "example.com", Scheme: "http", Principal: guest(),
	})
	assert.ErrorIs(t, err, renderErr)
	assert.Equal(t, ClassError, out.Classification)
}

func TestDispatchRenderNotFoundFolds(t *testing.T) {
	cfg := DefaultConfig()
	d := NewDispatcher(cfg, siteStore(), allowAll(), &fakeRenderer{missing: map[string]bool{"basic": true}}, &fakeSender{}, nil, Hooks{})

	out, err := d.Dispatch(context.Background(), Request{
		Target: "/blog/post", Host: "example.com", Scheme: "http", Principal: guest(),
	})
	require.NoError(t, err)
	assert.Equal(t, ClassNotFound, out.Classification)
}

func TestDispatchHooks(t *testing.T) {
	var readyPages []int64
	var failures []string

	cfg := DefaultConfig()
	hooks := Hooks{
		NotifyReady:   func(pg pages.Page) { readyPages = append(readyPages, pg.ID) },
		NotifyFailure: func(err error, reason string, pg pages.Page, url string) { failures = append(failures, reason) },
	}
	d := NewDispatcher(cfg, siteStore(), allowAll(), &fakeRenderer{}, &fakeSender{}, nil, hooks)

	_, err := d.Dispatch(context.Background(), Request{
		Target: "/blog/post", Host: "example.com", Scheme: "http", Principal: guest(),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, readyPages)

	_, err = d.Dispatch(context.Background(), Request{
		Target: "/bad//path", Host: "example.com", Scheme: "http", Principal: guest(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sanitize"}, failures)
}

func TestDispatchDelayedRedirects(t *testing.T) {
	var order []string

	cfg := DefaultConfig()
	cfg.DelayRedirects = true
	store := siteStore()
	store.addTemplate(pages.Template{ID: 2, Name: "basic", Slash: pages.SlashRequire})

	hooks := Hooks{NotifyReady: func(pg pages.Page) { order = append(order, "ready") }}
	d := NewDispatcher(cfg, store, allowAll(), &fakeRenderer{}, &fakeSender{}, nil, hooks)

	out, err := d.Dispatch(context.Background(), Request{
		Target: "/blog/post", Host: "example.com", Scheme: "http", Principal: guest(),
	})
	require.NoError(t, err)
	// with delayed redirects the ready hook fires even though the request
	// terminates in a redirect
	assert.Equal(t, ClassRedirect, out.Classification)
	assert.Equal(t, []string{"ready"}, order)
}

func TestDispatchStoreFailure(t *testing.T) {
	store := siteStore()
	store.fail = true
	d, _ := newTestDispatcher(DefaultConfig(), store, allowAll())

	out, err := d.Dispatch(context.Background(), Request{
		Target: "/blog/post", Host: "example.com", Scheme: "http", Principal: guest(),
	})
	assert.Error(t, err)
	assert.Equal(t, ClassError, out.Classification)
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NotFoundPageID = 9999
	d, _ := newTestDispatcher(cfg, siteStore(), allowAll())

	err := d.ValidateConfig(context.Background())
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "NotFoundPageID", cfgErr.Setting)

	cfg.NotFoundPageID = 4
	assert.NoError(t, d.ValidateConfig(context.Background()))
}

// TestDispatchCanonicalRoundTrip verifies redirect targets resolve without
// redirecting again, so clients never loop
func TestDispatchCanonicalRoundTrip(t *testing.T) {
	store := siteStore()
	store.addTemplate(pages.Template{ID: 2, Name: "basic", Segments: pages.SegmentsAll, AllowPageNum: true, Slash: pages.SlashForbid, SlashSegments: pages.SlashRequire, SlashPageNum: pages.SlashForbid})
	d, _ := newTestDispatcher(DefaultConfig(), store, allowAll())

	targets := []string{"/blog/post/", "/blog/post/2024", "/blog/post/page2/"}
	for _, target := range targets {
		out := dispatch(t, d, target)
		require.Equal(t, ClassRedirect, out.Classification, "target %s", target)

		second := dispatch(t, d, out.RedirectURL)
		assert.Equal(t, ClassNormal, second.Classification, "redirect target %s must not redirect again", out.RedirectURL)
	}
}

func TestDispatchRootNeverSlashRedirects(t *testing.T) {
	// "/" is its own canonical form under both slash policies; a redirect
	// from the root back to the root would loop forever
	for name, policy := range map[string]pages.SlashPolicy{
		"require": pages.SlashRequire,
		"forbid":  pages.SlashForbid,
	} {
		t.Run(name, func(t *testing.T) {
			store := siteStore()
			store.addTemplate(pages.Template{ID: 1, Name: "home", AllowPageNum: true, Slash: policy})
			d, _ := newTestDispatcher(DefaultConfig(), store, allowAll())

			out := dispatch(t, d, "/")
			assert.Equal(t, ClassNormal, out.Classification)
			assert.Equal(t, int64(1), out.Page.ID)
		})
	}
}

func TestDispatchLoginRedirectKeepsConfiguredScheme(t *testing.T) {
	store := siteStore()
	store.addTemplate(pages.Template{
		ID: 2, Name: "basic",
		Scheme:   pages.SchemeHTTPS,
		LoginURL: "http://sso.example.org/login?page={id}",
	})
	d, _ := newTestDispatcher(DefaultConfig(), store, denyAll())

	// the request arrives over http, mismatching the template scheme, but
	// the login destination must go out exactly as configured
	out := dispatch(t, d, "/blog/post")
	assert.Equal(t, ClassExternal, out.Classification)
	assert.Equal(t, "http://sso.example.org/login?page=3", out.RedirectURL)
}
