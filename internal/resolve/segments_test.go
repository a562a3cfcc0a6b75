package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_system/internal/pages"
)

func blogPage() pages.Page {
	return pages.Page{ID: 3, Name: "post", Path: "/blog/post", Status: pages.StatusNormal, TemplateID: 2}
}

func TestValidateSegmentsPageNumPolicy(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		allow     bool
		value     int
		loggedIn  bool
		wantOK    bool
		wantValue int
	}{
		{name: "allowed", allow: true, value: 3, wantOK: true, wantValue: 3},
		{name: "template forbids pagination", allow: false, value: 3, wantOK: false},
		{name: "zero clamps to one", allow: true, value: 0, wantOK: true, wantValue: 1},
		{name: "guest above ceiling", allow: true, value: 1000, wantOK: false},
		{name: "authenticated above ceiling", allow: true, value: 1000, loggedIn: true, wantOK: true, wantValue: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &state{
				page:     blogPage(),
				template: pages.Template{ID: 2, Name: "basic", AllowPageNum: tt.allow},
				pageNum:  &PageNum{Prefix: "page", Value: tt.value},
			}

			principal := guest()
			if tt.loggedIn {
				principal = editor()
			}

			redirect, ok := validateSegments(cfg, st, principal)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Nil(t, redirect)
				assert.Equal(t, tt.wantValue, st.pageNum.Value)
			}
		})
	}
}

func TestValidateSegmentsAllowList(t *testing.T) {
	cfg := DefaultConfig()

	tpl := pages.Template{
		ID:       2,
		Name:     "basic",
		Segments: pages.SegmentsList,
		SegmentRules: []pages.SegmentRule{
			pages.NewLiteralRule("summary"),
			pages.NewPatternRule(`^[0-9]{4}/summary$`),
		},
	}

	tests := []struct {
		name     string
		segments []string
		wantOK   bool
	}{
		{name: "literal match", segments: []string{"summary"}, wantOK: true},
		{name: "pattern match", segments: []string{"2024", "summary"}, wantOK: true},
		{name: "no match", segments: []string{"other"}, wantOK: false},
		{name: "pattern near miss", segments: []string{"20x4", "summary"}, wantOK: false},
		{name: "no segments always pass", segments: nil, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &state{page: blogPage(), template: tpl, segments: tt.segments}
			_, ok := validateSegments(cfg, st, guest())
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestValidateSegmentsModeNone(t *testing.T) {
	cfg := DefaultConfig()
	st := &state{
		page:     blogPage(),
		template: pages.Template{ID: 2, Name: "basic", Segments: pages.SegmentsNone},
		segments: []string{"anything"},
	}

	_, ok := validateSegments(cfg, st, guest())
	assert.False(t, ok)
}

func TestValidateSegmentsModeAll(t *testing.T) {
	cfg := DefaultConfig()
	st := &state{
		page:     blogPage(),
		template: pages.Template{ID: 2, Name: "basic", Segments: pages.SegmentsAll},
		segments: []string{"anything", "goes"},
	}

	redirect, ok := validateSegments(cfg, st, guest())
	assert.True(t, ok)
	assert.Nil(t, redirect)
}

func TestValidateSegmentsIndexSoftening(t *testing.T) {
	cfg := DefaultConfig()

	// the index segment is the sole violation: soften to a redirect
	st := &state{
		page:      blogPage(),
		template:  pages.Template{ID: 2, Name: "basic", Segments: pages.SegmentsNone},
		segments:  []string{"index.php"},
		indexFile: true,
	}
	redirect, ok := validateSegments(cfg, st, guest())
	require.True(t, ok)
	require.NotNil(t, redirect)
	assert.Equal(t, "/blog/post", redirect.URL)
	assert.True(t, redirect.Permanent)

	// extra segment beyond the index marker: hard reject
	st = &state{
		page:      blogPage(),
		template:  pages.Template{ID: 2, Name: "basic", Segments: pages.SegmentsNone},
		segments:  []string{"extra", "index.php"},
		indexFile: true,
	}
	_, ok = validateSegments(cfg, st, guest())
	assert.False(t, ok)

	// index marker plus a forbidden page number: hard reject
	st = &state{
		page:      blogPage(),
		template:  pages.Template{ID: 2, Name: "basic", Segments: pages.SegmentsNone},
		segments:  []string{"index.php"},
		pageNum:   &PageNum{Prefix: "page", Value: 2},
		indexFile: true,
	}
	_, ok = validateSegments(cfg, st, guest())
	assert.False(t, ok)
}

func TestValidateSegmentsSlashCanonicalization(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name           string
		tpl            pages.Template
		segments       []string
		pageNum        *PageNum
		requestedSlash bool
		wantRedirect   string
	}{
		{
			name:           "require slash",
			tpl:            pages.Template{ID: 2, Name: "basic", Slash: pages.SlashRequire},
			requestedSlash: false,
			wantRedirect:   "/blog/post/",
		},
		{
			name:           "forbid slash",
			tpl:            pages.Template{ID: 2, Name: "basic", Slash: pages.SlashForbid},
			requestedSlash: true,
			wantRedirect:   "/blog/post",
		},
		{
			name:           "no preference",
			tpl:            pages.Template{ID: 2, Name: "basic"},
			requestedSlash: true,
			wantRedirect:   "",
		},
		{
			name:           "already canonical",
			tpl:            pages.Template{ID: 2, Name: "basic", Slash: pages.SlashRequire},
			requestedSlash: true,
			wantRedirect:   "",
		},
		{
			name:           "segments axis",
			tpl:            pages.Template{ID: 2, Name: "basic", Segments: pages.SegmentsAll, Slash: pages.SlashRequire, SlashSegments: pages.SlashForbid},
			segments:       []string{"2024"},
			requestedSlash: true,
			wantRedirect:   "/blog/post/2024",
		},
		{
			name:           "page number axis",
			tpl:            pages.Template{ID: 2, Name: "basic", AllowPageNum: true, Slash: pages.SlashForbid, SlashPageNum: pages.SlashRequire},
			pageNum:        &PageNum{Prefix: "page", Value: 2},
			requestedSlash: false,
			wantRedirect:   "/blog/post/page2/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &state{
				page:           blogPage(),
				template:       tt.tpl,
				segments:       tt.segments,
				pageNum:        tt.pageNum,
				requestedSlash: tt.requestedSlash,
			}

			redirect, ok := validateSegments(cfg, st, guest())
			require.True(t, ok)
			if tt.wantRedirect == "" {
				assert.Nil(t, redirect)
			} else {
				require.NotNil(t, redirect)
				assert.Equal(t, tt.wantRedirect, redirect.URL)
				assert.True(t, redirect.Permanent)
			}
		})
	}
}

func TestValidateSegmentsRootSuppressesSelfRedirect(t *testing.T) {
	cfg := DefaultConfig()
	root := pages.Page{ID: 1, Name: "home", Path: "/", Status: pages.StatusNormal, TemplateID: 1}

	for _, policy := range []pages.SlashPolicy{pages.SlashRequire, pages.SlashForbid} {
		st := &state{
			page:           root,
			template:       pages.Template{ID: 1, Name: "home", Slash: policy},
			cleanPath:      "/",
			requestedSlash: true,
		}

		redirect, ok := validateSegments(cfg, st, guest())
		require.True(t, ok)
		assert.Nil(t, redirect, "policy %d", policy)
	}
}

func TestCanonicalURL(t *testing.T) {
	pg := blogPage()

	assert.Equal(t, "/blog/post", canonicalURL(pg, nil, nil, false))
	assert.Equal(t, "/blog/post/", canonicalURL(pg, nil, nil, true))
	assert.Equal(t, "/blog/post/2024/summary", canonicalURL(pg, []string{"2024", "summary"}, nil, false))
	assert.Equal(t, "/blog/post/page3", canonicalURL(pg, nil, &PageNum{Prefix: "page", Value: 3}, false))
	assert.Equal(t, "/blog/post/2024/page3/", canonicalURL(pg, []string{"2024"}, &PageNum{Prefix: "page", Value: 3}, true))

	root := pages.Page{ID: 1, Name: "home", Path: "/"}
	assert.Equal(t, "/", canonicalURL(root, nil, nil, false))
	assert.Equal(t, "/", canonicalURL(root, nil, nil, true))
}
