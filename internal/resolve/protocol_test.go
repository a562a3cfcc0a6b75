package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_system/internal/pages"
)

func TestEnforceSchemeNoRequirement(t *testing.T) {
	cfg := DefaultConfig()
	st := &state{
		request:  Request{Scheme: "http", Host: "example.com"},
		page:     blogPage(),
		template: pages.Template{ID: 2, Name: "basic", Scheme: pages.SchemeAny},
	}

	assert.Nil(t, enforceScheme(cfg, st, nil))
}

func TestEnforceSchemeMatching(t *testing.T) {
	cfg := DefaultConfig()
	st := &state{
		request:  Request{Scheme: "https", Host: "example.com"},
		page:     blogPage(),
		template: pages.Template{ID: 2, Name: "basic", Scheme: pages.SchemeHTTPS},
	}

	assert.Nil(t, enforceScheme(cfg, st, nil))
}

func TestEnforceSchemeMismatchBuildsRedirect(t *testing.T) {
	cfg := DefaultConfig()
	st := &state{
		request:  Request{Scheme: "http", Host: "example.com"},
		page:     blogPage(),
		template: pages.Template{ID: 2, Name: "basic", Scheme: pages.SchemeHTTPS},
	}

	redirect := enforceScheme(cfg, st, nil)
	require.NotNil(t, redirect)
	assert.Equal(t, "https://example.com/blog/post", redirect.URL)
	assert.True(t, redirect.Permanent)
}

func TestEnforceSchemeRewritesPendingRedirect(t *testing.T) {
	cfg := DefaultConfig()
	st := &state{
		request:  Request{Scheme: "http", Host: "example.com"},
		page:     blogPage(),
		template: pages.Template{ID: 2, Name: "basic", Scheme: pages.SchemeHTTPS},
	}

	pending := &RedirectTarget{URL: "/blog/post/", Permanent: true}
	redirect := enforceScheme(cfg, st, pending)
	require.NotNil(t, redirect)
	// the pending path survives, only the scheme and authority change
	assert.Equal(t, "https://example.com/blog/post/", redirect.URL)
	assert.True(t, redirect.Permanent)
}

func TestEnforceSchemeHonorsSlashAxis(t *testing.T) {
	cfg := DefaultConfig()
	st := &state{
		request:        Request{Scheme: "http", Host: "example.com"},
		page:           blogPage(),
		template:       pages.Template{ID: 2, Name: "basic", Scheme: pages.SchemeHTTPS, Slash: pages.SlashRequire},
		requestedSlash: false,
	}

	redirect := enforceScheme(cfg, st, nil)
	require.NotNil(t, redirect)
	assert.Equal(t, "https://example.com/blog/post/", redirect.URL)
}

func TestEnforceSchemeDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableSchemeEnforcement = true
	st := &state{
		request:  Request{Scheme: "http", Host: "example.com"},
		page:     blogPage(),
		template: pages.Template{ID: 2, Name: "basic", Scheme: pages.SchemeHTTPS},
	}

	assert.Nil(t, enforceScheme(cfg, st, nil))
}

func TestRedirectTargetWithScheme(t *testing.T) {
	relative := RedirectTarget{URL: "/about"}
	out := relative.withScheme("https", "example.com")
	assert.Equal(t, "https://example.com/about", out.URL)

	absolute := RedirectTarget{URL: "http://example.com/about"}
	out = absolute.withScheme("https", "ignored.example.org")
	assert.Equal(t, "https://example.com/about", out.URL)
}
