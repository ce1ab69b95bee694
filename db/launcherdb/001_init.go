package launcherdb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func init() {
	migrate(up001, down001)
}

func up001(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE java_catalog_fetch (
			os         TEXT NOT NULL,
			arch       TEXT NOT NULL,
			major      INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (os, arch, major)
		) STRICT
	`); err != nil {
		return fmt.Errorf("create java_catalog_fetch table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE java_catalog_file (
			os         TEXT NOT NULL,
			arch       TEXT NOT NULL,
			major      INTEGER NOT NULL,
			path       TEXT NOT NULL,
			url        TEXT NOT NULL DEFAULT '',
			sha1       TEXT NOT NULL DEFAULT '',
			executable INTEGER NOT NULL DEFAULT 0,
			lzma_url   TEXT NOT NULL DEFAULT ''
		) STRICT
	`); err != nil {
		return fmt.Errorf("create java_catalog_file table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		CREATE INDEX java_catalog_file_idx ON java_catalog_file(os, arch, major)
	`); err != nil {
		return fmt.Errorf("create java_catalog_file index: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE download_progress (
			path       TEXT PRIMARY KEY NOT NULL,
			sha1       TEXT NOT NULL DEFAULT '',
			bytes_done INTEGER NOT NULL DEFAULT 0,
			total      INTEGER NOT NULL DEFAULT 0
		) STRICT
	`); err != nil {
		return fmt.Errorf("create download_progress table: %w", err)
	}

	return nil
}

func down001(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE download_progress`); err != nil {
		return fmt.Errorf("drop download_progress table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DROP INDEX java_catalog_file_idx`); err != nil {
		return fmt.Errorf("drop java_catalog_file_idx index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE java_catalog_file`); err != nil {
		return fmt.Errorf("drop java_catalog_file table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE java_catalog_fetch`); err != nil {
		return fmt.Errorf("drop java_catalog_fetch table: %w", err)
	}
	return nil
}
