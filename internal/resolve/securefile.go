package resolve

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"content_system/internal/pages"
)

// fileMatch is the outcome kind of the secured-file resolution pass
type fileMatch int

const (
	// fileNotApplicable means the path is not a secured-file request; fall
	// through to ordinary path resolution
	fileNotApplicable fileMatch = iota

	// fileMatched means the page owning the file was resolved; resolution
	// stops here
	fileMatched

	// fileInvalid means the path shape matches the protected-file grammar
	// but is not valid; this is a hard 404, never a fallthrough, so
	// crafted asset URLs cannot probe for page ids
	fileInvalid

	// fileLegacyContinue means a legacy filename marker was stripped; the
	// rewritten path continues through ordinary resolution with the
	// filename remembered
	fileLegacyContinue
)

// fileResult carries the secured-file resolution outcome
type fileResult struct {
	match    fileMatch
	page     pages.Page
	filename string
	subdir   string

	// rewritten is the truncated candidate path for fileLegacyContinue
	rewritten string
}

// subdirPattern restricts the single optional subdirectory component a
// secured filename may carry
var subdirPattern = regexp.MustCompile(`^[A-Za-z0-9][-_A-Za-z0-9]+$`)

const maxSubdirLen = 128

// resolveSecureFile detects requests targeting protected downloadable
// assets beneath the files root and extracts the owning page and filename.
//
// Primary grammar: <files-root>/<id-path>/<filename> where id-path is a
// single integer id or, with extended id paths enabled, a run of
// single-digit segments concatenated into the id. The filename must contain
// a "." and may carry at most one subdirectory component. Shapes under the
// files root that fail the grammar are invalid, not a fallthrough.
func resolveSecureFile(ctx context.Context, cfg *Config, store pages.Store, path string) (fileResult, error) {
	root := "/" + strings.Trim(cfg.FilesRoot, "/") + "/"
	if strings.HasPrefix(path, root) {
		return resolvePrimaryForm(ctx, cfg, store, strings.TrimPrefix(path, root))
	}

	if cfg.LegacyFilePrefix != "" {
		if res, ok := resolveLegacyForm(cfg, path); ok {
			return res, nil
		}
	}

	return fileResult{match: fileNotApplicable}, nil
}

// resolvePrimaryForm parses "<id-path>/<filename>" (files root already
// stripped)
func resolvePrimaryForm(ctx context.Context, cfg *Config, store pages.Store, rest string) (fileResult, error) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 {
		return fileResult{match: fileInvalid}, nil
	}

	id, consumed, ok := parseIDPath(cfg, parts)
	if !ok {
		return fileResult{match: fileInvalid}, nil
	}

	tail := parts[consumed:]
	var subdir, filename string
	switch len(tail) {
	case 1:
		filename = tail[0]
	case 2:
		subdir, filename = tail[0], tail[1]
		if len(subdir) > maxSubdirLen || strings.Contains(subdir, ".") || !subdirPattern.MatchString(subdir) {
			return fileResult{match: fileInvalid}, nil
		}
	default:
		// more than one subdirectory level
		return fileResult{match: fileInvalid}, nil
	}

	if filename == "" || !strings.Contains(filename, ".") {
		return fileResult{match: fileInvalid}, nil
	}

	pg, err := store.LookupByID(ctx, id)
	if err != nil {
		return fileResult{}, err
	}
	if !pg.Exists() || pg.Status >= pages.StatusMaxQueryable {
		return fileResult{match: fileInvalid}, nil
	}

	return fileResult{match: fileMatched, page: pg, filename: filename, subdir: subdir}, nil
}

// parseIDPath consumes the id portion of the parts slice. A single integer
// segment is the plain form; with extended id paths enabled, a run of
// numeric segments concatenates into the id (12/3 -> 123). Returns the id,
// the number of segments consumed, and validity.
func parseIDPath(cfg *Config, parts []string) (int64, int, bool) {
	if cfg.ExtendedIDPaths {
		var digits strings.Builder
		consumed := 0
		for _, p := range parts {
			if !isDigits(p) {
				break
			}
			digits.WriteString(p)
			consumed++
		}
		// at least the filename must remain, and the id must fit int64
		if consumed == 0 || consumed == len(parts) || digits.Len() > 18 {
			return 0, 0, false
		}
		id, err := strconv.ParseInt(digits.String(), 10, 64)
		if err != nil || id == 0 {
			return 0, 0, false
		}
		return id, consumed, true
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, false
	}
	return id, 1, true
}

// isDigits reports whether s is one or more ASCII digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// resolveLegacyForm recognizes the distinguished filename-prefix marker
// anywhere in the path, strips the matched suffix, and lets ordinary path
// resolution continue against the truncated path
func resolveLegacyForm(cfg *Config, path string) (fileResult, bool) {
	marker := "/" + cfg.LegacyFilePrefix
	i := strings.LastIndex(path, marker)
	if i < 0 {
		return fileResult{}, false
	}

	filename := path[i+1:]
	if filename == cfg.LegacyFilePrefix || strings.Contains(filename, "/") {
		return fileResult{}, false
	}

	rewritten := path[:i]
	if rewritten == "" {
		rewritten = "/"
	}

	return fileResult{
		match:     fileLegacyContinue,
		filename:  filename,
		rewritten: rewritten,
	}, true
}
