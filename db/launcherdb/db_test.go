package launcherdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func openMigrated(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "launchcore.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, tgt, err := db.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if err := db.MigrateUp(context.Background(), tgt); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	return db
}

func TestCatalogCacheRoundTrip(t *testing.T) {
	db := openMigrated(t)

	entries := []CatalogEntry{
		{OS: "linux", Arch: "x86_64", Major: 21, Path: "bin/java", URL: "https://example.com/java", SHA1: "abc", Executable: true},
	}
	if err := db.SaveCatalog("linux", "x86_64", 21, entries); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}

	got, err := db.GetCatalog("linux", "x86_64", 21, 0)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if len(got) != 1 || got[0].Path != "bin/java" || !got[0].Executable {
		t.Fatalf("GetCatalog = %+v", got)
	}
}

func TestCatalogCacheExpires(t *testing.T) {
	db := openMigrated(t)
	if err := db.SaveCatalog("linux", "x86_64", 21, []CatalogEntry{{Path: "bin/java"}}); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	got, err := db.GetCatalog("linux", "x86_64", 21, time.Nanosecond)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if got != nil {
		t.Fatalf("GetCatalog returned stale entry past maxAge: %+v", got)
	}
}

func TestCatalogCacheMiss(t *testing.T) {
	db := openMigrated(t)
	got, err := db.GetCatalog("linux", "x86_64", 17, 0)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if got != nil {
		t.Fatalf("GetCatalog = %+v, want nil for uncached entry", got)
	}
}

func TestDownloadProgressRoundTrip(t *testing.T) {
	db := openMigrated(t)

	p := DownloadProgress{Path: "libraries/a.jar", SHA1: "deadbeef", BytesDone: 512, Total: 1024}
	if err := db.SaveDownloadProgress(p); err != nil {
		t.Fatalf("SaveDownloadProgress: %v", err)
	}

	got, err := db.GetDownloadProgress("libraries/a.jar")
	if err != nil {
		t.Fatalf("GetDownloadProgress: %v", err)
	}
	if got == nil || got.BytesDone != 512 || got.Total != 1024 {
		t.Fatalf("GetDownloadProgress = %+v", got)
	}

	p.BytesDone = 1024
	if err := db.SaveDownloadProgress(p); err != nil {
		t.Fatalf("SaveDownloadProgress (update): %v", err)
	}
	got, err = db.GetDownloadProgress("libraries/a.jar")
	if err != nil {
		t.Fatalf("GetDownloadProgress: %v", err)
	}
	if got.BytesDone != 1024 {
		t.Fatalf("GetDownloadProgress after update = %+v", got)
	}

	if err := db.ClearDownloadProgress("libraries/a.jar"); err != nil {
		t.Fatalf("ClearDownloadProgress: %v", err)
	}
	got, err = db.GetDownloadProgress("libraries/a.jar")
	if err != nil {
		t.Fatalf("GetDownloadProgress: %v", err)
	}
	if got != nil {
		t.Fatalf("GetDownloadProgress after clear = %+v, want nil", got)
	}
}
