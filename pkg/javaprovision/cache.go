package javaprovision

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/cobaltforge/launchcore/db/launcherdb"
)

// catalogCacheTTL bounds how long a cached JVM install manifest is trusted
// before the catalog is consulted again, per §4.3 step 2.
const catalogCacheTTL = 7 * 24 * time.Hour

// catalogFiles resolves the manifest for major, preferring a fresh cached
// copy over a network round-trip when a cache DB is configured.
func (p *Provisioner) catalogFiles(ctxBg context.Context, major int) ([]ManifestFile, error) {
	osName, arch := runtime.GOOS, runtime.GOARCH

	if p.db != nil {
		cached, err := p.db.GetCatalog(osName, arch, major, catalogCacheTTL)
		if err != nil {
			p.ctx.Logger.Warn().Err(err).Msg("javaprovision: read catalog cache")
		} else if cached != nil {
			return catalogEntriesToFiles(cached), nil
		}
	}

	files, err := FetchManifest(ctxBg, p.ctx.HTTPClient, osName, arch, major)
	if err != nil {
		return nil, err
	}

	if p.db != nil {
		if err := p.db.SaveCatalog(osName, arch, major, filesToCatalogEntries(files)); err != nil {
			p.ctx.Logger.Warn().Err(err).Msg("javaprovision: save catalog cache")
		}
	}
	return files, nil
}

func catalogEntriesToFiles(entries []launcherdb.CatalogEntry) []ManifestFile {
	files := make([]ManifestFile, len(entries))
	for i, e := range entries {
		files[i] = ManifestFile{Path: e.Path, URL: e.URL, SHA1: e.SHA1, Executable: e.Executable, LZMAURL: e.LZMAURL}
	}
	return files
}

func filesToCatalogEntries(files []ManifestFile) []launcherdb.CatalogEntry {
	entries := make([]launcherdb.CatalogEntry, len(files))
	for i, f := range files {
		entries[i] = launcherdb.CatalogEntry{Path: f.Path, URL: f.URL, SHA1: f.SHA1, Executable: f.Executable, LZMAURL: f.LZMAURL}
	}
	return entries
}

// downloadComplete reports whether dest on disk already satisfies a
// previously recorded, completed download for f, so downloadOne can skip a
// redundant re-download on a resumed install, per §7 "partial artefacts on
// disk are left in place for resume".
func (p *Provisioner) downloadComplete(dest string, f ManifestFile) bool {
	if p.db == nil || f.SHA1 == "" {
		return false
	}
	prog, err := p.db.GetDownloadProgress(f.Path)
	if err != nil || prog == nil || prog.Total == 0 || prog.BytesDone != prog.Total {
		return false
	}
	return fileMatchesSHA1(dest, f.SHA1)
}

// recordDownloadComplete upserts a completed ledger row for path, so a
// resumed run can detect the file as complete (and re-verify it by hash).
func (p *Provisioner) recordDownloadComplete(f ManifestFile, size int64) {
	if p.db == nil {
		return
	}
	if err := p.db.SaveDownloadProgress(launcherdb.DownloadProgress{Path: f.Path, SHA1: f.SHA1, BytesDone: size, Total: size}); err != nil {
		p.ctx.Logger.Warn().Err(err).Str("path", f.Path).Msg("javaprovision: save download progress")
	}
}

func fileMatchesSHA1(path, want string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return false
	}
	return hex.EncodeToString(h.Sum(nil)) == want
}
