package version

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAssetsDirCanonicalAlreadyExists(t *testing.T) {
	root := t.TempDir()
	launcherAssets := filepath.Join(root, "launcher", "assets")
	canonical := filepath.Join(launcherAssets, "dir")
	if err := os.MkdirAll(canonical, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := ResolveAssetsDir(filepath.Join(root, "instances", "demo"), launcherAssets, "abc")
	if err != nil {
		t.Fatalf("ResolveAssetsDir: %v", err)
	}
	if got != canonical {
		t.Fatalf("got %s, want %s", got, canonical)
	}
}

func TestResolveAssetsDirMigratesLegacy(t *testing.T) {
	root := t.TempDir()
	instanceDir := filepath.Join(root, "instances", "demo")
	legacy := filepath.Join(instanceDir, "assets")
	if err := os.MkdirAll(legacy, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(legacy, "indexes.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	launcherAssets := filepath.Join(root, "launcher", "assets")
	got, err := ResolveAssetsDir(instanceDir, launcherAssets, "abc")
	if err != nil {
		t.Fatalf("ResolveAssetsDir: %v", err)
	}
	canonical := filepath.Join(launcherAssets, "dir")
	if got != canonical {
		t.Fatalf("got %s, want %s", got, canonical)
	}
	if _, err := os.Stat(filepath.Join(canonical, "indexes.json")); err != nil {
		t.Fatalf("migrated file missing: %v", err)
	}
	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		t.Fatalf("legacy dir still exists after migration")
	}
}

func TestResolveAssetsDirSentinelWhenMissing(t *testing.T) {
	root := t.TempDir()
	got, err := ResolveAssetsDir(filepath.Join(root, "instances", "demo"), filepath.Join(root, "launcher", "assets"), "abc")
	if err != nil {
		t.Fatalf("ResolveAssetsDir: %v", err)
	}
	if _, err := os.Stat(got); !os.IsNotExist(err) {
		t.Fatalf("sentinel path %s unexpectedly exists", got)
	}
}
