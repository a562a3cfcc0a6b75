package render

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"content_system/internal/pages"
	"content_system/internal/resolve"
)

// FileStore locates secured files on disk. Each page owns a directory named
// after its id beneath the files root; with extended paths enabled the id
// digits become nested single-character directories, keeping directory
// fan-out flat on large sites.
type FileStore struct {
	root     string
	extended bool
	logger   *slog.Logger
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string, extendedPaths bool, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{root: dir, extended: extendedPaths, logger: logger}
}

// PageDir returns the on-disk directory owning the page's files
func (fs *FileStore) PageDir(pg pages.Page) string {
	id := strconv.FormatInt(pg.ID, 10)
	if !fs.extended {
		return filepath.Join(fs.root, id)
	}
	parts := make([]string, 0, len(id))
	for _, d := range id {
		parts = append(parts, string(d))
	}
	return filepath.Join(fs.root, filepath.Join(parts...))
}

// Resolve returns the absolute file path for a page's secured file,
// or resolve.ErrNotFound when the file does not exist. The resolved path is
// required to stay under the page's directory.
func (fs *FileStore) Resolve(pg pages.Page, subdir, filename string) (string, error) {
	dir := fs.PageDir(pg)
	path := filepath.Join(dir, subdir, filename)

	// the resolver's grammar already constrains these values; the
	// containment check is the backstop
	if rel, err := filepath.Rel(dir, path); err != nil || strings.HasPrefix(rel, "..") {
		return "", resolve.ErrNotFound
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", resolve.ErrNotFound
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", resolve.ErrNotFound
	}

	return path, nil
}

// HTTPFileSender satisfies the dispatcher's FileSender contract for one
// request, streaming the file to the response writer
type HTTPFileSender struct {
	Store   *FileStore
	Writer  http.ResponseWriter
	Request *http.Request
}

// SendFile streams a page's secured file
func (s *HTTPFileSender) SendFile(ctx context.Context, pg pages.Page, subdir, filename string) error {
	path, err := s.Store.Resolve(pg, subdir, filename)
	if err != nil {
		return err
	}
	http.ServeFile(s.Writer, s.Request, path)
	return nil
}
