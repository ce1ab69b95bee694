package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ResolveAssetsDir migrates a pre-0.1 per-instance asset layout
// (instanceDir/assets/) or an intermediate per-index layout
// (launcherAssetsDir/<assetIndexID>/) into the canonical shared
// launcherAssetsDir/dir/, then returns that canonical path. If neither
// legacy layout exists and canonical already does, it is returned as-is.
// If nothing exists, a sentinel non-existent path is returned so argument
// placeholders resolve without erroring, per §4.4 "Assets migration".
func ResolveAssetsDir(instanceDir, launcherAssetsDir, assetIndexID string) (string, error) {
	canonical := filepath.Join(launcherAssetsDir, "dir")

	legacy := filepath.Join(instanceDir, "assets")
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		if err := migrateDir(legacy, canonical); err != nil {
			return "", fmt.Errorf("version: migrate legacy assets: %w", err)
		}
		return canonical, nil
	}

	intermediate := filepath.Join(launcherAssetsDir, assetIndexID)
	if info, err := os.Stat(intermediate); err == nil && info.IsDir() {
		if err := migrateDir(intermediate, canonical); err != nil {
			return "", fmt.Errorf("version: migrate intermediate assets: %w", err)
		}
		return canonical, nil
	}

	if _, err := os.Stat(canonical); err == nil {
		return canonical, nil
	}
	return filepath.Join(launcherAssetsDir, "nonexistent-assets-dir"), nil
}

// migrateDir copies src's contents into dst, then removes src, per §4.4
// "copy into the canonical ... directory then delete the source".
func migrateDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := migrateDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return os.RemoveAll(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
