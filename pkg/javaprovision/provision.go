// Package javaprovision resolves a runnable Java binary for a required
// major version, installing it on demand from the version catalog (or an
// alternate source when the catalog has no entry), per spec §4.3.
package javaprovision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cobaltforge/launchcore/db/launcherdb"
	"github.com/cobaltforge/launchcore/pkg/launchctx"
	"github.com/cobaltforge/launchcore/pkg/progress"
)

// wellKnownSubpaths are the executable locations searched under
// java_installs/<major>/, covering the common JDK/JRE distro layouts
// (plain, macOS app bundle, macOS JRE bundle).
var wellKnownSubpaths = []string{
	filepath.Join("bin", "%s"),
	filepath.Join("Contents", "Home", "bin", "%s"),
	filepath.Join("jre.bundle", "Contents", "Home", "bin", "%s"),
}

// execName returns the preferred binary name for `name` (e.g. "java",
// "javac") on this platform: Windows prefers "javaw" for windowed apps,
// per §4.3 "Platform notes", and appends ".exe" there too.
func execName(name string) string {
	if runtime.GOOS != "windows" {
		return name
	}
	if name == "java" {
		name = "javaw"
	}
	return name + ".exe"
}

// concurrencyCap is the max number of files downloaded in parallel during
// install: 16 on macOS, 64 elsewhere, per §4.3 step 2.
func concurrencyCap() int {
	if runtime.GOOS == "darwin" {
		return 16
	}
	return 64
}

// Provisioner resolves and installs Java runtimes under a launchctx.Context.
type Provisioner struct {
	ctx *launchctx.Context
	bus *progress.Bus
	db  *launcherdb.DB
}

// New returns a Provisioner rooted at ctx, emitting install progress on bus
// (which may be nil to discard progress). The catalog cache and download
// ledger are used automatically when ctx.DB is configured.
func New(ctx *launchctx.Context, bus *progress.Bus) *Provisioner {
	return &Provisioner{ctx: ctx, bus: bus, db: ctx.DB}
}

func (p *Provisioner) emit(opID string, done, total int64, msg string, finished bool) {
	if p.bus == nil {
		return
	}
	p.bus.Emit(progress.Event{OpID: opID, Kind: progress.Install, Done: done, Total: total, Message: msg, Finished: finished})
}

// EnsureJava returns a path to the `name` executable (e.g. "java", "javac")
// for major, installing it first if necessary. opID labels progress events
// for this call.
func (p *Provisioner) EnsureJava(ctxBg context.Context, major int, name, opID string) (string, error) {
	dir := p.ctx.JavaInstallDir(major)
	lock := p.ctx.JavaInstallLock(major)

	if _, err := os.Stat(dir); err == nil {
		if _, lockErr := os.Stat(lock); os.IsNotExist(lockErr) {
			if path, ok := findExecutable(dir, name); ok {
				return path, nil
			}
		}
	}

	if err := p.install(ctxBg, dir, lock, major, opID); err != nil {
		return "", err
	}

	path, ok := findExecutable(dir, name)
	if !ok {
		return "", fmt.Errorf("javaprovision: installed java %d but %q not found under %s", major, name, dir)
	}
	return path, nil
}

// findExecutable searches wellKnownSubpaths under dir for name, returning
// the first canonicalised match.
func findExecutable(dir, name string) (string, bool) {
	target := execName(name)
	for _, pattern := range wellKnownSubpaths {
		candidate := filepath.Join(dir, fmt.Sprintf(pattern, target))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return candidate, true
			}
			return abs, true
		}
	}
	return "", false
}

func (p *Provisioner) install(ctxBg context.Context, dir, lock string, major int, opID string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("javaprovision: mkdir %s: %w", dir, err)
	}
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		return fmt.Errorf("javaprovision: write install lock: %w", err)
	}

	files, err := p.catalogFiles(ctxBg, major)
	if err != nil {
		if !errors.Is(err, ErrNoCatalogEntry) {
			return err
		}
		if err := p.installAlternate(ctxBg, dir, major); err != nil {
			return err
		}
		return os.Remove(lock)
	}

	if err := p.downloadAll(ctxBg, dir, files, opID); err != nil {
		return err
	}

	return os.Remove(lock)
}

// downloadAll fetches every manifest file with bounded parallelism,
// per §4.3's platform-specific concurrency cap.
func (p *Provisioner) downloadAll(ctxBg context.Context, dir string, files []ManifestFile, opID string) error {
	sem := make(chan struct{}, concurrencyCap())
	var wg sync.WaitGroup
	errs := make([]error, len(files))
	var done atomic.Int64
	total := int64(len(files))

	p.emit(opID, 0, total, "starting java install", false)

	for i, f := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, f ManifestFile) {
			defer wg.Done()
			defer func() { <-sem }()

			errs[i] = p.downloadOne(ctxBg, dir, f)

			p.emit(opID, done.Add(1), total, f.Path, false)
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			p.emit(opID, done.Load(), total, "", true)
			return err
		}
	}
	p.emit(opID, total, total, "java install complete", true)
	return nil
}

func (p *Provisioner) downloadOne(ctxBg context.Context, dir string, f ManifestFile) error {
	dest := filepath.Join(dir, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("javaprovision: mkdir for %s: %w", f.Path, err)
	}

	if p.downloadComplete(dest, f) {
		return nil
	}

	data, err := FetchFile(ctxBg, p.ctx.HTTPClient, f)
	if err != nil {
		return fmt.Errorf("javaprovision: fetch %s: %w", f.Path, err)
	}

	mode := os.FileMode(0o644)
	if f.Executable {
		mode = 0o755
	}
	if err := os.WriteFile(dest, data, mode); err != nil {
		return fmt.Errorf("javaprovision: write %s: %w", f.Path, err)
	}
	if f.Executable && runtime.GOOS != "windows" {
		if err := os.Chmod(dest, 0o755); err != nil {
			return fmt.Errorf("javaprovision: chmod %s: %w", f.Path, err)
		}
	}

	p.recordDownloadComplete(f, int64(len(data)))
	return nil
}

