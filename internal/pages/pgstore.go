package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on a PostgreSQL pool. It is a thin adapter over
// the pages and templates tables; the content tree itself is managed by the
// editing subsystem.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPGStore creates a PostgreSQL-backed page store
func NewPGStore(pool *pgxpool.Pool, logger *slog.Logger) *PGStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGStore{pool: pool, logger: logger}
}

const pageColumns = `
	p.id, p.name, p.path, p.status, p.template_id,
	COALESCE(p.parent_id, 0) AS parent_id,
	COALESCE(parent.name, '') AS parent_name
`

const pageFrom = `
	FROM pages p
	LEFT JOIN pages parent ON parent.id = p.parent_id
`

// LookupByPath finds the page at the given canonical path, excluding pages
// at or above the status ceiling
func (s *PGStore) LookupByPath(ctx context.Context, path string, statusCeiling Status) (Page, error) {
	query := `SELECT ` + pageColumns + pageFrom + `WHERE p.path = $1 AND p.status < $2`
	return s.scanPage(s.pool.QueryRow(ctx, query, CanonicalPath(path), int64(statusCeiling)))
}

// LookupByName finds a page by bare name; with uniqueOnly set, only pages
// flagged globally unique qualify
func (s *PGStore) LookupByName(ctx context.Context, name string, uniqueOnly bool) (Page, error) {
	query := `SELECT ` + pageColumns + pageFrom + `WHERE p.name = $1 AND p.status < $2`
	if uniqueOnly {
		query += fmt.Sprintf(` AND (p.status & %d) <> 0`, int64(StatusUniqueName))
	}
	query += ` ORDER BY p.id LIMIT 1`
	return s.scanPage(s.pool.QueryRow(ctx, query, name, int64(StatusMaxQueryable)))
}

// LookupByID finds a page by id
func (s *PGStore) LookupByID(ctx context.Context, id int64) (Page, error) {
	query := `SELECT ` + pageColumns + pageFrom + `WHERE p.id = $1`
	return s.scanPage(s.pool.QueryRow(ctx, query, id))
}

// TemplateByID returns the template for the given template id. Segment
// allow-list rules are stored as a text array where entries carrying the
// "regex:" prefix are patterns.
func (s *PGStore) TemplateByID(ctx context.Context, id int64) (Template, error) {
	query := `
		SELECT id, name, segments_mode, segment_rules, allow_page_num,
		       slash, slash_segments, slash_page_num, scheme,
		       require_login, login_page_id, login_url
		FROM templates
		WHERE id = $1`

	var (
		tpl      Template
		mode     int
		rules    []string
		slash    int
		slashSeg int
		slashNum int
		scheme   int
	)

	err := s.pool.QueryRow(ctx, query, id).Scan(
		&tpl.ID, &tpl.Name, &mode, &rules, &tpl.AllowPageNum,
		&slash, &slashSeg, &slashNum, &scheme,
		&tpl.RequireLogin, &tpl.LoginPageID, &tpl.LoginURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NullTemplate, nil
		}
		return NullTemplate, fmt.Errorf("failed to query template %d: %w", id, err)
	}

	tpl.Segments = SegmentMode(mode)
	tpl.Slash = SlashPolicy(slash)
	tpl.SlashSegments = SlashPolicy(slashSeg)
	tpl.SlashPageNum = SlashPolicy(slashNum)
	tpl.Scheme = SchemePolicy(scheme)

	for _, rule := range rules {
		if expr, ok := strings.CutPrefix(rule, "regex:"); ok {
			tpl.SegmentRules = append(tpl.SegmentRules, NewPatternRule(expr))
		} else {
			tpl.SegmentRules = append(tpl.SegmentRules, NewLiteralRule(rule))
		}
	}

	return tpl, nil
}

func (s *PGStore) scanPage(row pgx.Row) (Page, error) {
	var pg Page
	var status int64
	err := row.Scan(&pg.ID, &pg.Name, &pg.Path, &status, &pg.TemplateID, &pg.ParentID, &pg.ParentName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NullPage, nil
		}
		return NullPage, fmt.Errorf("failed to query page: %w", err)
	}
	pg.Status = Status(status)
	return pg, nil
}
