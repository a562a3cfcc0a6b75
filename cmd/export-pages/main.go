package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"

	"content_system/internal/config"
)

// export-pages dumps the content tree to an XLSX workbook, one sheet for
// pages and one for templates, for editors auditing the site structure.

func main() {
	output := flag.String("o", "pages_export.xlsx", "output file path")
	flag.Parse()

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

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	f := excelize.NewFile()
	defer f.Close()

	if err := writePagesSheet(ctx, db, f); err != nil {
		fmt.Println("Failed to export pages:", err)
		return
	}
	if err := writeTemplatesSheet(ctx, db, f); err != nil {
		fmt.Println("Failed to export templates:", err)
		return
	}
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(*output); err != nil {
		fmt.Println("Failed to write workbook:", err)
		return
	}

	fmt.Println("Export written to", *output)
}

func writePagesSheet(ctx context.Context, db *pgxpool.Pool, f *excelize.File) error {
	sheet := "Pages"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Name", "Path", "Status", "Template", "Parent ID"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	rows, err := db.Query(ctx, `
		SELECT p.id, p.name, p.path, p.status, t.name, COALESCE(p.parent_id, 0)
		FROM pages p
		JOIN templates t ON t.id = p.template_id
		ORDER BY p.path`)
	if err != nil {
		return fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	row := 2
	for rows.Next() {
		var (
			id, status, parentID int64
			name, path, template string
		)
		if err := rows.Scan(&id, &name, &path, &status, &template, &parentID); err != nil {
			return fmt.Errorf("failed to scan page row: %w", err)
		}

		values := []any{id, name, path, status, template, parentID}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	return rows.Err()
}

func writeTemplatesSheet(ctx context.Context, db *pgxpool.Pool, f *excelize.File) error {
	sheet := "Templates"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"ID", "Name", "Segments Mode", "Allow Page Num", "Require Login", "Login URL"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	rows, err := db.Query(ctx, `
		SELECT id, name, segments_mode, allow_page_num, require_login, login_url
		FROM templates
		ORDER BY name`)
	if err != nil {
		return fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	row := 2
	for rows.Next() {
		var (
			id                        int64
			segmentsMode              int
			name, loginURL            string
			allowPageNum, requireLogin bool
		)
		if err := rows.Scan(&id, &name, &segmentsMode, &allowPageNum, &requireLogin, &loginURL); err != nil {
			return fmt.Errorf("failed to scan template row: %w", err)
		}

		values := []any{id, name, segmentsMode, allowPageNum, requireLogin, loginURL}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	return rows.Err()
}
