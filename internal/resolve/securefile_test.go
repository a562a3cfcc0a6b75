package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_system/internal/pages"
)

func secureFileStore() *fakeStore {
	store := newFakeStore()
	store.add(pages.Page{ID: 42, Name: "gallery", Path: "/art/gallery", Status: pages.StatusNormal, TemplateID: 1})
	store.add(pages.Page{ID: 123, Name: "photos", Path: "/photos", Status: pages.StatusNormal, TemplateID: 1})
	store.add(pages.Page{ID: 66, Name: "gone", Path: "/gone", Status: pages.StatusTrash, TemplateID: 1})
	return store
}

func TestResolveSecureFilePrimaryForm(t *testing.T) {
	cfg := DefaultConfig()
	store := secureFileStore()
	ctx := context.Background()

	res, err := resolveSecureFile(ctx, cfg, store, "/site/assets/files/42/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, fileMatched, res.match)
	assert.Equal(t, int64(42), res.page.ID)
	assert.Equal(t, "photo.jpg", res.filename)
	assert.Empty(t, res.subdir)
}

func TestResolveSecureFileSubdirectory(t *testing.T) {
	cfg := DefaultConfig()
	store := secureFileStore()
	ctx := context.Background()

	res, err := resolveSecureFile(ctx, cfg, store, "/site/assets/files/42/thumbs/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, fileMatched, res.match)
	assert.Equal(t, "thumbs", res.subdir)
	assert.Equal(t, "photo.jpg", res.filename)
}

func TestResolveSecureFileInvalidShapes(t *testing.T) {
	cfg := DefaultConfig()
	store := secureFileStore()
	ctx := context.Background()

	tests := []struct {
		name string
		path string
	}{
		{name: "non-numeric id", path: "/site/assets/files/abc/photo.jpg"},
		{name: "missing filename", path: "/site/assets/files/42"},
		{name: "filename without dot", path: "/site/assets/files/42/photo"},
		{name: "two subdirectory levels", path: "/site/assets/files/42/a/b/photo.jpg"},
		{name: "dotted subdirectory", path: "/site/assets/files/42/th.umbs/photo.jpg"},
		{name: "unknown page id", path: "/site/assets/files/9999/photo.jpg"},
		{name: "trashed page", path: "/site/assets/files/66/photo.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolveSecureFile(ctx, cfg, store, tt.path)
			require.NoError(t, err)
			// everything under the files root that fails the grammar is a
			// hard 404, never a fallthrough
			assert.Equal(t, fileInvalid, res.match)
		})
	}
}

func TestResolveSecureFileNotApplicable(t *testing.T) {
	cfg := DefaultConfig()
	store := secureFileStore()

	res, err := resolveSecureFile(context.Background(), cfg, store, "/art/gallery")
	require.NoError(t, err)
	assert.Equal(t, fileNotApplicable, res.match)
}

func TestResolveSecureFileExtendedIDPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtendedIDPaths = true
	store := secureFileStore()
	ctx := context.Background()

	// consecutive numeric segments concatenate into the id
	res, err := resolveSecureFile(ctx, cfg, store, "/site/assets/files/12/3/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, fileMatched, res.match)
	assert.Equal(t, int64(123), res.page.ID)
	assert.Equal(t, "photo.jpg", res.filename)

	// id longer than an int64 can hold
	res, err = resolveSecureFile(ctx, cfg, store, "/site/assets/files/9999999999/9999999999/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, fileInvalid, res.match)
}

func TestResolveSecureFileLegacyForm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LegacyFilePrefix = "file_"
	store := secureFileStore()
	ctx := context.Background()

	res, err := resolveSecureFile(ctx, cfg, store, "/art/gallery/file_brochure.pdf")
	require.NoError(t, err)
	assert.Equal(t, fileLegacyContinue, res.match)
	assert.Equal(t, "file_brochure.pdf", res.filename)
	assert.Equal(t, "/art/gallery", res.rewritten)

	// no marker, ordinary path resolution applies
	res, err = resolveSecureFile(ctx, cfg, store, "/art/gallery/brochure.pdf")
	require.NoError(t, err)
	assert.Equal(t, fileNotApplicable, res.match)
}
