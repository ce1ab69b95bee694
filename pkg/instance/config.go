// Package instance holds the per-instance and launcher-wide configuration
// types persisted as instances/<name>/config.json and config.json (§3, §6).
package instance

import (
	"encoding/json"
	"fmt"
)

// ModType identifies the mod-loader family an instance targets.
type ModType int

const (
	ModVanilla ModType = iota
	ModFabric
	ModForge
	ModQuilt
	ModNeoForge
	ModOptiFine
)

func (m ModType) String() string {
	switch m {
	case ModVanilla:
		return "vanilla"
	case ModFabric:
		return "fabric"
	case ModForge:
		return "forge"
	case ModQuilt:
		return "quilt"
	case ModNeoForge:
		return "neoforge"
	case ModOptiFine:
		return "optifine"
	default:
		return "unknown"
	}
}

func (m ModType) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *ModType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "vanilla", "":
		*m = ModVanilla
	case "fabric":
		*m = ModFabric
	case "forge":
		*m = ModForge
	case "quilt":
		*m = ModQuilt
	case "neoforge":
		*m = ModNeoForge
	case "optifine":
		*m = ModOptiFine
	default:
		return fmt.Errorf("instance: unknown mod_type %q", s)
	}
	return nil
}

// JavaArgsMode controls how per-instance java_args interact with the
// launcher-wide globals, per §3/§4.5. Default is Combine.
type JavaArgsMode int

const (
	// JavaArgsCombine appends instance args after non-blank globals. It is
	// the zero value so a config.json missing java_args_mode entirely (not
	// just an empty string) still defaults to Combine, per §9.
	JavaArgsCombine JavaArgsMode = iota
	// JavaArgsFallback uses global args only when the instance has none.
	JavaArgsFallback
	// JavaArgsDisable uses the instance's args only, ignoring globals
	// even when the instance list is empty.
	JavaArgsDisable
)

func (m JavaArgsMode) MarshalJSON() ([]byte, error) {
	switch m {
	case JavaArgsFallback:
		return json.Marshal("fallback")
	case JavaArgsDisable:
		return json.Marshal("disable")
	default:
		return json.Marshal("combine")
	}
}

func (m *JavaArgsMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "fallback":
		*m = JavaArgsFallback
	case "disable":
		*m = JavaArgsDisable
	case "combine", "":
		*m = JavaArgsCombine
	default:
		return fmt.Errorf("instance: unknown java_args_mode %q", s)
	}
	return nil
}

// SSLTrustStoreType selects the JVM trust store used for outbound TLS.
type SSLTrustStoreType int

const (
	SSLTrustStoreDefault SSLTrustStoreType = iota
	SSLTrustStoreWindowsRoot
	SSLTrustStoreKeychain
	SSLTrustStoreCustom
)

func (t SSLTrustStoreType) MarshalJSON() ([]byte, error) {
	switch t {
	case SSLTrustStoreWindowsRoot:
		return json.Marshal("windows-root")
	case SSLTrustStoreKeychain:
		return json.Marshal("keychain")
	case SSLTrustStoreCustom:
		return json.Marshal("custom")
	default:
		return json.Marshal("default")
	}
}

func (t *SSLTrustStoreType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "windows-root":
		*t = SSLTrustStoreWindowsRoot
	case "keychain":
		*t = SSLTrustStoreKeychain
	case "custom":
		*t = SSLTrustStoreCustom
	case "default", "":
		*t = SSLTrustStoreDefault
	default:
		return fmt.Errorf("instance: unknown ssl_trust_store %q", s)
	}
	return nil
}

// GlobalSettings holds launcher-wide defaults that instances fall back to.
type GlobalSettings struct {
	WindowWidth          *int               `json:"window_width,omitempty"`
	WindowHeight         *int               `json:"window_height,omitempty"`
	SSLTrustStoreType    *SSLTrustStoreType `json:"ssl_trust_store,omitempty"`
	SSLTrustStorePath    *string            `json:"ssl_trust_store_path,omitempty"`
	SSLTrustStorePassword *string           `json:"ssl_trust_store_password,omitempty"`
	JavaArgs             []string           `json:"java_args,omitempty"`
}

// Config is the per-instance InstanceConfig of §3, round-tripping unknown
// fields so a newer shell or a future field doesn't get clobbered by an
// older launcher core rewriting the file.
type Config struct {
	ModType           ModType            `json:"mod_type"`
	RAMMiB            uint               `json:"ram_mib"`
	JavaOverride      string             `json:"java_override,omitempty"`
	JavaArgs          []string           `json:"java_args,omitempty"`
	GameArgs          []string           `json:"game_args,omitempty"`
	JavaArgsMode      JavaArgsMode       `json:"java_args_mode"`
	SSLTrustStoreType SSLTrustStoreType  `json:"ssl_trust_store"`
	SSLTrustStorePath string             `json:"ssl_trust_store_path,omitempty"`
	SSLTrustStorePassword string         `json:"ssl_trust_store_password,omitempty"`
	EnableLogger      bool               `json:"enable_logger"`
	CloseOnStart      bool               `json:"close_on_start"`
	IsClassicServer   bool               `json:"is_classic_server"`
	IsServer          bool               `json:"is_server"`
	DoGCTuning        bool               `json:"do_gc_tuning"`
	GlobalSettings    *GlobalSettings    `json:"global_settings,omitempty"`

	// Extra preserves fields this version of the core doesn't know about,
	// so re-saving a config.json edited by a newer shell doesn't drop them.
	Extra map[string]json.RawMessage `json:"-"`
}

// Default returns a Config with the spec's documented defaults.
func Default(modType ModType, isServer bool) Config {
	return Config{
		ModType:      modType,
		RAMMiB:       2048,
		EnableLogger: true,
		IsServer:     isServer,
	}
}

// knownConfigFields lists the JSON keys Config decodes explicitly; anything
// else round-trips through Extra.
var knownConfigFields = map[string]bool{
	"mod_type": true, "ram_mib": true, "java_override": true, "java_args": true,
	"game_args": true, "java_args_mode": true, "ssl_trust_store": true,
	"ssl_trust_store_path": true, "ssl_trust_store_password": true,
	"enable_logger": true, "close_on_start": true, "is_classic_server": true,
	"is_server": true, "do_gc_tuning": true, "global_settings": true,
}

func (c *Config) UnmarshalJSON(data []byte) error {
	type alias Config
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Config(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra := make(map[string]json.RawMessage)
	for k, v := range raw {
		if !knownConfigFields[k] {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		c.Extra = extra
	}
	return nil
}

func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	base, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Validate checks the invariants of §3: ram floor, and SSL custom-path
// requirement. WindowsRoot/Keychain being ignored off their native platform
// is enforced by the argv builder, not here.
func (c Config) Validate() error {
	if c.RAMMiB < 256 {
		return fmt.Errorf("instance: ram_mib must be >= 256, got %d", c.RAMMiB)
	}
	if c.SSLTrustStoreType == SSLTrustStoreCustom && c.SSLTrustStorePath == "" {
		return fmt.Errorf("instance: ssl_trust_store=custom requires ssl_trust_store_path")
	}
	return nil
}
