package resolve

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"content_system/internal/pages"
)

// walkResult is the outcome of backtracking path resolution
type walkResult struct {
	page pages.Page

	// segments are the peeled trailing components in path order
	segments []string

	// pageNum is the pagination token peeled from the path tail, if any
	pageNum *PageNum

	// shortcut is set when a globally-unique name matched a single-segment
	// path; the request redirects to the page's canonical path instead of
	// rendering it in place
	shortcut *RedirectTarget
}

// pageNumExpr matches a pagination token as the final path segment for the
// given prefix
func pageNumExpr(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`/(` + regexp.QuoteMeta(prefix) + `)([0-9]+)/?$`)
}

// walkPath resolves a sanitized candidate path to a page, backtracking
// segment by segment to discover trailing URL segments and an optional
// page-number token.
//
// A page-number token at the path tail is remembered but never used as a
// direct lookup key; the remainder goes through the same backtracking loop.
// The peel budget is cfg.MaxURLSegments; exhausting it without a match is
// not-found. The viewable callback gates the unique-name shortcut only.
func walkPath(ctx context.Context, cfg *Config, store pages.Store, path string, viewable func(pages.Page) bool) (walkResult, error) {
	var res walkResult

	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		trimmed = "/"
	}

	// the page-number token, when present, is always the first thing
	// peeled off the tail
	if cfg.PageNumPrefix != "" {
		if m := pageNumExpr(cfg.PageNumPrefix).FindStringSubmatch(path); m != nil {
			n, err := strconv.Atoi(m[2])
			if err == nil {
				res.pageNum = &PageNum{Prefix: m[1], Value: n}
				trimmed = strings.TrimRight(path[:len(path)-len(m[0])], "/")
				if trimmed == "" {
					trimmed = "/"
				}
			}
		}
	}

	pg, err := store.LookupByPath(ctx, trimmed, pages.StatusMaxQueryable)
	if err != nil {
		return res, err
	}
	if pg.Exists() {
		res.page = pg
		return res, nil
	}

	// single-segment globally-unique name shortcut: redirect to the
	// canonical path rather than rendering in place
	if res.pageNum == nil && trimmed != "/" && !strings.Contains(strings.Trim(trimmed, "/"), "/") {
		name := strings.Trim(trimmed, "/")
		unique, err := store.LookupByName(ctx, name, true)
		if err != nil {
			return res, err
		}
		if unique.Exists() && unique.Path != trimmed && viewable != nil && viewable(unique) {
			res.page = unique
			res.shortcut = &RedirectTarget{URL: unique.URL(), Permanent: true}
			return res, nil
		}
	}

	// peel the final segment one at a time, re-issuing the lookup against
	// the shortened prefix, up to the configured budget
	current := trimmed
	for peel := 0; peel < cfg.MaxURLSegments && current != "/"; peel++ {
		i := strings.LastIndex(current, "/")
		res.segments = append([]string{current[i+1:]}, res.segments...)
		if i == 0 {
			current = "/"
		} else {
			current = current[:i]
		}

		pg, err := store.LookupByPath(ctx, current, pages.StatusMaxQueryable)
		if err != nil {
			return res, err
		}
		if pg.Exists() {
			res.page = pg
			return res, nil
		}
	}

	res.page = pages.NullPage
	res.segments = nil
	return res, nil
}
