// Package launchctx provides the explicit, dependency-injected context that
// replaces the process-wide globals (launcher directory, redact flag, token
// cache) used by ad-hoc launcher implementations.
package launchctx

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cobaltforge/launchcore/db/launcherdb"
	"github.com/cobaltforge/launchcore/pkg/metricsx"
	"github.com/cobaltforge/launchcore/pkg/store"
)

// Context threads the launcher's root directory, logger, metrics, secrets
// store, and HTTP client through every component. Tests construct a fresh
// Context per case instead of relying on package-level state.
type Context struct {
	// Root is the per-user launcher directory, e.g. ~/.cobaltforge.
	Root string

	// Redact controls whether logs scrub tokens/passwords.
	Redact bool

	Logger  zerolog.Logger
	Metrics *metricsx.Set
	Secrets *store.Store

	// DB is the local JVM catalog cache and resumable download ledger
	// (§4.3/§7). Optional: nil disables caching, falling every install back
	// to a full catalog fetch and unconditional re-download.
	DB *launcherdb.DB

	// HTTPClient is used for all outbound network calls. Token refresh has
	// no built-in timeout (per spec); this client enforces one.
	HTTPClient *http.Client
}

// New creates a Context rooted at root with sane defaults.
func New(root string, logger zerolog.Logger) *Context {
	return &Context{
		Root:    root,
		Logger:  logger,
		Metrics: metricsx.NewSet(),
		Secrets: store.New(filepath.Join(root, "encrypted_tokens.json")),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// With returns a copy of c with logger annotated for component.
func (c *Context) With(component string) *Context {
	cc := *c
	cc.Logger = c.Logger.With().Str("component", component).Logger()
	return &cc
}

// InstanceDir returns instances/<name>/.
func (c *Context) InstanceDir(name string) string {
	return filepath.Join(c.Root, "instances", name)
}

// ServerDir returns servers/<name>/.
func (c *Context) ServerDir(name string) string {
	return filepath.Join(c.Root, "servers", name)
}

// MinecraftDir returns the game working directory for an instance or server.
// Clients get a nested .minecraft/; servers use their root directly.
func (c *Context) MinecraftDir(name string, isServer bool) string {
	if isServer {
		return c.ServerDir(name)
	}
	return filepath.Join(c.InstanceDir(name), ".minecraft")
}

// AssetsDir returns the canonical shared asset directory.
func (c *Context) AssetsDir() string {
	return filepath.Join(c.Root, "launcher", "assets", "dir")
}

// LegacyAssetsDir returns the pre-0.1 per-instance asset layout, if any.
func (c *Context) LegacyAssetsDir(instanceName string) string {
	return filepath.Join(c.InstanceDir(instanceName), "assets")
}

// IntermediateAssetsDir returns the intermediate per-index asset layout.
func (c *Context) IntermediateAssetsDir(assetIndexID string) string {
	return filepath.Join(c.Root, "launcher", "assets", assetIndexID)
}

// JavaInstallDir returns java_installs/<major>/.
func (c *Context) JavaInstallDir(major int) string {
	return filepath.Join(c.Root, "java_installs", strconv.Itoa(major))
}

// JavaInstallLock returns the install.lock marker path for major.
func (c *Context) JavaInstallLock(major int) string {
	return filepath.Join(c.JavaInstallDir(major), "install.lock")
}

// ConfigFile returns the launcher-wide config.json path.
func (c *Context) ConfigFile() string {
	return filepath.Join(c.Root, "config.json")
}

// TokensFile returns the encrypted token store path.
func (c *Context) TokensFile() string {
	return filepath.Join(c.Root, "encrypted_tokens.json")
}

// CacheFile returns the sqlite3 cache database path (JVM catalog cache,
// download ledger).
func (c *Context) CacheFile() string {
	return filepath.Join(c.Root, "cache.db")
}
