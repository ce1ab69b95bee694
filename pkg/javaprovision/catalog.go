package javaprovision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz/lzma"
)

// catalogBaseURL is the platform/version catalog's manifest endpoint.
const catalogBaseURL = "https://piston-meta.mojang.com/v1/products/java-runtime"

// ManifestFile is one file entry in a JVM install manifest: a relative
// install path, a download URL, and whether the server offers the payload
// LZMA-compressed.
type ManifestFile struct {
	Path       string `json:"path"`
	URL        string `json:"url"`
	SHA1       string `json:"sha1"`
	Executable bool   `json:"executable"`
	LZMAURL    string `json:"lzmaUrl,omitempty"`
}

// ErrNoCatalogEntry is returned by FetchManifest when the catalog has no
// entry for the requested {os, arch, major} triple; callers fall back to an
// alternate source per §4.3 step 2.
var ErrNoCatalogEntry = fmt.Errorf("javaprovision: no catalog entry for platform/version")

// FetchManifest retrieves the file manifest for one {os, arch, major}
// combination.
func FetchManifest(ctx context.Context, client *http.Client, osName, arch string, major int) ([]ManifestFile, error) {
	url := fmt.Sprintf("%s/%s/%s/%d/manifest.json", catalogBaseURL, osName, arch, major)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("javaprovision: build manifest request: %w", err)
	}
	// Ask for gzip explicitly: setting Accept-Encoding ourselves opts out of
	// net/http's transparent auto-decompression, so we decode it ourselves
	// below with a faster gzip implementation than the stdlib's.
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("javaprovision: manifest request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoCatalogEntry
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("javaprovision: manifest request status %d", resp.StatusCode)
	}

	body := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("javaprovision: open gzip manifest: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	var files []ManifestFile
	if err := json.NewDecoder(body).Decode(&files); err != nil {
		return nil, fmt.Errorf("javaprovision: parse manifest: %w", err)
	}
	return files, nil
}

// FetchFile downloads one manifest file's content. When the server offers
// an LZMA-compressed payload, it is preferred and decompressed; if
// decompression fails partway (a malformed or partial stream), the raw
// downloaded bytes are used verbatim instead of failing the install, per
// §4.3 step 2 "falling back to raw on decoder failure".
func FetchFile(ctx context.Context, client *http.Client, f ManifestFile) ([]byte, error) {
	url := f.URL
	useLZMA := f.LZMAURL != ""
	if useLZMA {
		url = f.LZMAURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("javaprovision: build file request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("javaprovision: file request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("javaprovision: read file response: %w", err)
	}

	if !useLZMA {
		return raw, nil
	}

	decoded, err := decodeLZMA(raw)
	if err != nil {
		return raw, nil
	}
	return decoded, nil
}

func decodeLZMA(raw []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
