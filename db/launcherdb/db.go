// Package launcherdb implements sqlite3 storage for the JVM install catalog
// cache and the resumable download ledger, so an interrupted install can
// resume instead of restarting (§7 "partial artefacts on disk are left in
// place for resume").
package launcherdb

import (
	"database/sql"
	"errors"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
)

// DB stores the launcher's local cache in a sqlite3 database.
type DB struct {
	x *sqlx.DB
}

// Open opens a DB from the provided sqlite3 filename.
func Open(name string) (*DB, error) {
	// note: WAL and a larger cache makes our writes and queries MUCH faster
	x, err := sqlx.Connect("sqlite3", (&url.URL{
		Path: name,
		RawQuery: (url.Values{
			"_journal":      {"WAL"},
			"_cache_size":   {"-32000"},
			"_busy_timeout": {"6000"},
		}).Encode(),
	}).String())
	if err != nil {
		return nil, err
	}
	return &DB{x}, nil
}

func (db *DB) Close() error {
	return db.x.Close()
}

// CatalogEntry is a cached row from the JVM install manifest fetched by
// pkg/javaprovision's FetchManifest.
type CatalogEntry struct {
	OS        string `db:"os"`
	Arch      string `db:"arch"`
	Major     int    `db:"major"`
	Path      string `db:"path"`
	URL       string `db:"url"`
	SHA1      string `db:"sha1"`
	Executable bool  `db:"executable"`
	LZMAURL   string `db:"lzma_url"`
}

// GetCatalog returns the cached manifest for (os, arch, major), or nil if
// nothing is cached (or the cache has expired past maxAge).
func (db *DB) GetCatalog(osName, arch string, major int, maxAge time.Duration) ([]CatalogEntry, error) {
	var fetchedAt int64
	if err := db.x.Get(&fetchedAt, `
		SELECT fetched_at FROM java_catalog_fetch
		WHERE os = ? AND arch = ? AND major = ?
	`, osName, arch, major); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if maxAge > 0 && time.Since(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, nil
	}

	var entries []CatalogEntry
	if err := db.x.Select(&entries, `
		SELECT os, arch, major, path, url, sha1, executable, lzma_url
		FROM java_catalog_file
		WHERE os = ? AND arch = ? AND major = ?
	`, osName, arch, major); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveCatalog replaces the cached manifest for (os, arch, major).
func (db *DB) SaveCatalog(osName, arch string, major int, entries []CatalogEntry) error {
	tx, err := db.x.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM java_catalog_file WHERE os = ? AND arch = ? AND major = ?
	`, osName, arch, major); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := tx.NamedExec(`
			INSERT INTO java_catalog_file
				(os, arch, major, path, url, sha1, executable, lzma_url)
			VALUES
				(:os, :arch, :major, :path, :url, :sha1, :executable, :lzma_url)
		`, map[string]any{
			"os": osName, "arch": arch, "major": major,
			"path": e.Path, "url": e.URL, "sha1": e.SHA1,
			"executable": e.Executable, "lzma_url": e.LZMAURL,
		}); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO java_catalog_fetch (os, arch, major, fetched_at)
		VALUES (?, ?, ?, ?)
	`, osName, arch, major, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// DownloadProgress is one row of the resumable download ledger: how much of
// a given file has been written to disk, so an interrupted install can skip
// already-complete files.
type DownloadProgress struct {
	Path      string `db:"path"`
	SHA1      string `db:"sha1"`
	BytesDone int64  `db:"bytes_done"`
	Total     int64  `db:"total"`
}

// GetDownloadProgress returns the ledger row for path, or nil if unknown.
func (db *DB) GetDownloadProgress(path string) (*DownloadProgress, error) {
	var p DownloadProgress
	if err := db.x.Get(&p, `
		SELECT path, sha1, bytes_done, total FROM download_progress WHERE path = ?
	`, path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// SaveDownloadProgress upserts the ledger row for a file.
func (db *DB) SaveDownloadProgress(p DownloadProgress) error {
	_, err := db.x.NamedExec(`
		INSERT INTO download_progress (path, sha1, bytes_done, total)
		VALUES (:path, :sha1, :bytes_done, :total)
		ON CONFLICT(path) DO UPDATE SET
			sha1 = excluded.sha1,
			bytes_done = excluded.bytes_done,
			total = excluded.total
	`, map[string]any{
		"path": p.Path, "sha1": p.SHA1, "bytes_done": p.BytesDone, "total": p.Total,
	})
	return err
}

// ClearDownloadProgress removes the ledger row for path.
func (db *DB) ClearDownloadProgress(path string) error {
	_, err := db.x.Exec(`DELETE FROM download_progress WHERE path = ?`, path)
	return err
}
