package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/term"

	"content_system/internal/config"
	"content_system/internal/security"
)

// initiate-home seeds an empty site: the content schema, the root (home)
// page with its template, and a superuser account for the editing tools.

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL UNIQUE,
	segments_mode  INT NOT NULL DEFAULT 0,
	segment_rules  TEXT[] NOT NULL DEFAULT '{}',
	allow_page_num BOOLEAN NOT NULL DEFAULT FALSE,
	slash          INT NOT NULL DEFAULT 0,
	slash_segments INT NOT NULL DEFAULT 0,
	slash_page_num INT NOT NULL DEFAULT 0,
	scheme         INT NOT NULL DEFAULT 0,
	require_login  BOOLEAN NOT NULL DEFAULT FALSE,
	login_page_id  BIGINT NOT NULL DEFAULT 0,
	login_url      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS pages (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	path        TEXT NOT NULL UNIQUE,
	status      BIGINT NOT NULL DEFAULT 1,
	template_id BIGINT NOT NULL REFERENCES templates(id),
	parent_id   BIGINT REFERENCES pages(id)
);

CREATE INDEX IF NOT EXISTS pages_path_idx ON pages(path);
CREATE INDEX IF NOT EXISTS pages_name_idx ON pages(name);

CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	superuser     BOOLEAN NOT NULL DEFAULT FALSE,
	permissions   TEXT[] NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := config.NewPool(config.PoolConfig(cfg.Database, logger))
	if err != nil {
		fmt.Println("Failed to connect to database:", err)
		return
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.Exec(ctx, schema); err != nil {
		fmt.Println("Failed to create schema:", err)
		return
	}

	homeExists, err := checkHomeExists(ctx, db)
	if err != nil {
		fmt.Println("Failed to check for existing home page:", err)
		return
	}
	if homeExists {
		fmt.Println("Home page already exists. Exiting.")
		return
	}

	reader := bufio.NewScanner(os.Stdin)

	fmt.Print("Admin username: ")
	if !reader.Scan() {
		fmt.Println("No input received. Exiting.")
		return
	}
	username := strings.TrimSpace(reader.Text())
	if username == "" {
		fmt.Println("Username cannot be empty. Exiting.")
		return
	}

	fmt.Print("Admin password: ")
	rawPassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Failed to read password:", err)
		return
	}
	password := string(rawPassword)

	if err := security.CheckPasswordStrength(password); err != nil {
		fmt.Println("Password rejected:", err)
		return
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		fmt.Println("Failed to hash password:", err)
		return
	}

	if err := seed(ctx, db, username, hash); err != nil {
		fmt.Println("Failed to seed site:", err)
		return
	}

	fmt.Println("Home page and admin account created.")
}

// checkHomeExists reports whether a page already sits at the root path
func checkHomeExists(ctx context.Context, db *pgxpool.Pool) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pages WHERE path = '/')`).Scan(&exists)
	return exists, err
}

// seed creates the home template, the root page, and the admin account in
// one transaction
func seed(ctx context.Context, db *pgxpool.Pool, username, passwordHash string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var templateID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO templates (name, allow_page_num)
		VALUES ('home', TRUE)
		RETURNING id`).Scan(&templateID)
	if err != nil {
		return fmt.Errorf("failed to create home template: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO pages (name, path, status, template_id, parent_id)
		VALUES ('home', '/', 1, $1, NULL)`, templateID); err != nil {
		return fmt.Errorf("failed to create home page: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO users (name, password_hash, superuser, permissions)
		VALUES ($1, $2, TRUE, ARRAY['page-view', 'page-edit'])`,
		username, passwordHash); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return tx.Commit(ctx)
}
