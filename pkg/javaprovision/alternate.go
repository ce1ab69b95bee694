package javaprovision

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// azulMetadataURL is Azul's public Zulu package metadata API, the alternate
// JVM source used when the primary catalog has no entry for a given
// {os, arch, major} triple, per §4.3 step 2.
const azulMetadataURL = "https://api.azul.com/metadata/v1/zulu/packages/"

type azulPackage struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	SHA256Hash  string `json:"sha256_hash"`
}

// fetchAzulPackage queries Azul's metadata API for a single best-match JRE
// package for (os, arch, major).
func fetchAzulPackage(ctx context.Context, client *http.Client, osName, arch string, major int) (azulPackage, error) {
	q := url.Values{
		"java_version":      {strconv.Itoa(major)},
		"os":                {azulOS(osName)},
		"arch":              {azulArch(arch)},
		"archive_type":      {azulArchiveType(osName)},
		"java_package_type": {"jre"},
		"javafx_bundled":    {"false"},
		"release_status":    {"ga"},
		"page":              {"1"},
		"page_size":         {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, azulMetadataURL+"?"+q.Encode(), nil)
	if err != nil {
		return azulPackage{}, fmt.Errorf("javaprovision: build azul request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return azulPackage{}, fmt.Errorf("javaprovision: azul request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return azulPackage{}, fmt.Errorf("javaprovision: azul request status %d", resp.StatusCode)
	}

	var pkgs []azulPackage
	if err := json.NewDecoder(resp.Body).Decode(&pkgs); err != nil {
		return azulPackage{}, fmt.Errorf("javaprovision: parse azul response: %w", err)
	}
	if len(pkgs) == 0 {
		return azulPackage{}, ErrNoCatalogEntry
	}
	return pkgs[0], nil
}

// azulArchiveType picks the archive format Azul serves for osName: zip on
// Windows, tar.gz elsewhere, matching the rest of §4.3's platform split.
func azulArchiveType(osName string) string {
	if osName == "windows" {
		return "zip"
	}
	return "tar.gz"
}

// azulOS maps runtime.GOOS onto Azul's os query values.
func azulOS(osName string) string {
	switch osName {
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

// azulArch maps runtime.GOARCH onto Azul's arch query values.
func azulArch(arch string) string {
	switch arch {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	case "arm64":
		return "aarch64"
	default:
		return arch
	}
}

// installAlternate falls back to the Azul Zulu archive source when the
// primary catalog has no entry for this platform/version, per §4.3 step 2:
// download the best-match JRE archive and extract it directly under dir,
// stripping the archive's single top-level directory so the layout matches
// what the primary catalog path produces.
func (p *Provisioner) installAlternate(ctxBg context.Context, dir string, major int) error {
	pkg, err := fetchAzulPackage(ctxBg, p.ctx.HTTPClient, runtime.GOOS, runtime.GOARCH, major)
	if err != nil {
		return fmt.Errorf("javaprovision: no alternate source for java %d on %s/%s: %w", major, runtime.GOOS, runtime.GOARCH, err)
	}

	req, err := http.NewRequestWithContext(ctxBg, http.MethodGet, pkg.DownloadURL, nil)
	if err != nil {
		return fmt.Errorf("javaprovision: build archive request: %w", err)
	}
	resp, err := p.ctx.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("javaprovision: download archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("javaprovision: archive download status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("javaprovision: read archive: %w", err)
	}

	if strings.HasSuffix(pkg.Name, ".zip") {
		return extractZip(raw, dir)
	}
	return extractTarGz(raw, dir)
}

// extractZip writes a zip archive's contents under dir, stripping each
// entry's first path component (the archive's versioned root directory).
func extractZip(raw []byte, dir string) error {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("javaprovision: open zip archive: %w", err)
	}
	for _, f := range zr.File {
		name := stripTopDir(f.Name)
		if name == "" {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("javaprovision: mkdir %s: %w", name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("javaprovision: mkdir for %s: %w", name, err)
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("javaprovision: open zip entry %s: %w", name, err)
		}
		err = writeFileFrom(dest, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extractTarGz writes a gzip-compressed tar archive's contents under dir,
// stripping each entry's first path component.
func extractTarGz(raw []byte, dir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("javaprovision: open gzip archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("javaprovision: read tar entry: %w", err)
		}

		name := stripTopDir(hdr.Name)
		if name == "" {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("javaprovision: mkdir %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("javaprovision: mkdir for %s: %w", name, err)
			}
			if err := writeFileFrom(dest, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			// skipped: findExecutable's wellKnownSubpaths search never
			// needs a JDK's internal symlinks.
		}
	}
}

// stripTopDir removes an archive entry's first path component, reporting ""
// for the root entry itself.
func stripTopDir(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	i := strings.Index(name, "/")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

func writeFileFrom(dest string, r io.Reader, mode os.FileMode) error {
	if mode&0o111 == 0 {
		mode |= 0o644
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("javaprovision: create %s: %w", dest, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("javaprovision: write %s: %w", dest, err)
	}
	return nil
}
