package javaprovision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cobaltforge/launchcore/db/launcherdb"
)

func openMigratedDB(t *testing.T) *launcherdb.DB {
	t.Helper()
	db, err := launcherdb.Open(filepath.Join(t.TempDir(), "cache.db"))
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

func TestCatalogFilesUsesCacheWithoutNetwork(t *testing.T) {
	p := &Provisioner{db: openMigratedDB(t)}

	want := []ManifestFile{
		{Path: "bin/java", URL: "https://example.invalid/java", SHA1: "abc", Executable: true},
	}
	if err := p.db.SaveCatalog("linux", "x86_64", 21, filesToCatalogEntries(want)); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}

	got, err := p.catalogFiles(context.Background(), 21)
	if err != nil {
		t.Fatalf("catalogFiles: %v", err)
	}
	if len(got) != 1 || got[0].Path != "bin/java" || got[0].SHA1 != "abc" || !got[0].Executable {
		t.Fatalf("catalogFiles = %+v", got)
	}
}

func TestDownloadCompleteSkipsVerifiedFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "lib.jar")
	content := []byte("jar-bytes")
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sum := "04e2ebe8b7b182c63c2834f4984aae2901150df1" // sha1("jar-bytes")

	p := &Provisioner{db: openMigratedDB(t)}
	f := ManifestFile{Path: "lib.jar", SHA1: sum}

	if p.downloadComplete(dest, f) {
		t.Fatal("downloadComplete = true before any recorded progress")
	}

	p.recordDownloadComplete(f, int64(len(content)))

	if !p.downloadComplete(dest, f) {
		t.Fatal("downloadComplete = false after recording a matching completed download")
	}
}

func TestDownloadCompleteRejectsHashMismatch(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "lib.jar")
	if err := os.WriteFile(dest, []byte("jar-bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := &Provisioner{db: openMigratedDB(t)}
	f := ManifestFile{Path: "lib.jar", SHA1: "0000000000000000000000000000000000000a"}
	p.recordDownloadComplete(f, 9)

	if p.downloadComplete(dest, f) {
		t.Fatal("downloadComplete = true despite on-disk file not matching recorded sha1")
	}
}

func TestDownloadCompleteNilDB(t *testing.T) {
	p := &Provisioner{}
	if p.downloadComplete("/nonexistent", ManifestFile{Path: "x", SHA1: "abc"}) {
		t.Fatal("downloadComplete = true with no db configured")
	}
}

func TestCatalogEntryFileRoundTrip(t *testing.T) {
	files := []ManifestFile{
		{Path: "bin/java", URL: "https://example.invalid/java", SHA1: "abc", Executable: true, LZMAURL: "https://example.invalid/java.lzma"},
	}
	entries := filesToCatalogEntries(files)
	back := catalogEntriesToFiles(entries)
	if len(back) != 1 || back[0] != files[0] {
		t.Fatalf("round-trip = %+v, want %+v", back, files)
	}
}
