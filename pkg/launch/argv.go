package launch

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cobaltforge/launchcore/pkg/auth"
	"github.com/cobaltforge/launchcore/pkg/instance"
	"github.com/cobaltforge/launchcore/pkg/version"
)

// BuildArgvInput carries every resolved input BuildArgv needs to produce a
// deterministic JVM argv for (instance, version, overlays, account, platform).
type BuildArgvInput struct {
	Instance instance.Config
	Global   *instance.GlobalSettings
	Version  version.VersionDetails
	Platform version.Platform
	Is32Bit  bool

	Account auth.AccountData

	InstanceDir string
	GameDir     string
	NativesDir  string
	AssetsDir   string

	Classpath string
	MainClass string

	FabricOverlay *version.Overlay
	ForgeOverlay  *version.Overlay

	// AuthlibInjectorJar is the resolved path to an authlib-injector jar,
	// set when the account carries a custom auth URL (BlessingSkin) and
	// non-Microsoft host disabling doesn't already apply.
	AuthlibInjectorJar string

	// IsOmniarchive marks a legacy version sourced from the Omniarchive
	// mirror, triggering the BetaCraft proxy properties.
	IsOmniarchive bool

	Log4jConfigPath string
}

const classicWindowWidth = 854
const classicWindowHeight = 480

// BuildArgv assembles the full JVM command line in the order described in
// §4.5: JVM tuning first, then `-cp <classpath> <mainClass>`, then the
// substituted game arguments. The result is deterministic given the input.
func BuildArgv(in BuildArgvInput) ([]string, error) {
	var argv []string

	argv = append(argv, javaArgs(in.Instance, in.Global)...)
	argv = append(argv, brandProps(in)...)
	argv = append(argv, sslArgs(in.Instance, in.Global)...)

	if in.Instance.DoGCTuning {
		argv = append(argv, gcTuningArgs()...)
	}

	if in.Account.AccountType != auth.Microsoft && strings.HasPrefix(in.Version.ID, "1.16") {
		for _, kind := range []string{"accounts", "sessionserver", "services", "textures"} {
			argv = append(argv, fmt.Sprintf("-Dminecraft.api.%s.host=https://nope.invalid", kind))
		}
	} else if in.AuthlibInjectorJar != "" {
		argv = append(argv, fmt.Sprintf("-javaagent:%s=%s", in.AuthlibInjectorJar, in.Account.CustomAuthURL))
	}

	if in.Is32Bit {
		argv = append(argv, "-Xss1M")
	}
	if in.Platform.OS == "osx" {
		argv = append(argv, "-XstartOnFirstThread")
	}

	if in.IsOmniarchive {
		argv = append(argv, betacraftProxyArgs(in.Version.ID)...)
		argv = append(argv, "-Djava.util.Arrays.useLegacyMergeSort=true")
	}

	if in.Log4jConfigPath != "" {
		argv = append(argv, "-Dlog4j.configurationFile="+in.Log4jConfigPath)
	}

	if in.Classpath == "" || in.MainClass == "" {
		return nil, fmt.Errorf("launch: classpath and main class are required")
	}
	argv = append(argv, "-cp", in.Classpath, in.MainClass)

	gameArgs, err := buildGameArgs(in)
	if err != nil {
		return nil, err
	}
	argv = append(argv, gameArgs...)

	return argv, nil
}

// javaArgs folds per-instance java_args with the launcher-wide globals per
// the instance's java_args_mode, matching instance_config.rs's get_java_args:
// Fallback uses instance args when any is non-blank, else global; Disable
// uses instance args only; Combine appends non-blank globals then instance.
func javaArgs(cfg instance.Config, global *instance.GlobalSettings) []string {
	var globalArgs []string
	if global != nil {
		globalArgs = global.JavaArgs
	}

	hasMeaningful := false
	for _, a := range cfg.JavaArgs {
		if strings.TrimSpace(a) != "" {
			hasMeaningful = true
			break
		}
	}

	switch cfg.JavaArgsMode {
	case instance.JavaArgsFallback:
		if hasMeaningful {
			return append([]string(nil), cfg.JavaArgs...)
		}
		return append([]string(nil), globalArgs...)
	case instance.JavaArgsDisable:
		if hasMeaningful {
			return append([]string(nil), cfg.JavaArgs...)
		}
		return nil
	default: // JavaArgsCombine
		var combined []string
		for _, a := range globalArgs {
			if strings.TrimSpace(a) != "" {
				combined = append(combined, a)
			}
		}
		if hasMeaningful {
			combined = append(combined, cfg.JavaArgs...)
		}
		return combined
	}
}

func brandProps(in BuildArgvInput) []string {
	return []string{
		"-Dminecraft.launcher.brand=launchcore",
		"-Dminecraft.launcher.version=1",
		"-Djava.library.path=" + in.NativesDir,
		"-Dorg.lwjgl.librarypath=" + in.NativesDir,
		"-Djna.tmpdir=" + in.NativesDir,
		"-Dio.netty.native.workdir=" + in.NativesDir,
		fmt.Sprintf("-Xmx%dM", in.Instance.RAMMiB),
	}
}

// sslArgs mirrors instance_config.rs's get_ssl_java_args: instance settings
// take precedence over global, Default emits nothing, WindowsRoot/Keychain
// are platform-gated, and Custom infers the trust store type from the
// file extension after emitting the path (and password, if non-blank).
func sslArgs(cfg instance.Config, global *instance.GlobalSettings) []string {
	trustType := cfg.SSLTrustStoreType
	path := cfg.SSLTrustStorePath
	password := cfg.SSLTrustStorePassword
	if trustType == instance.SSLTrustStoreDefault && global != nil && global.SSLTrustStoreType != nil {
		trustType = *global.SSLTrustStoreType
		if path == "" && global.SSLTrustStorePath != nil {
			path = *global.SSLTrustStorePath
		}
		if password == "" && global.SSLTrustStorePassword != nil {
			password = *global.SSLTrustStorePassword
		}
	}

	var args []string
	switch trustType {
	case instance.SSLTrustStoreDefault:
		// no additional arguments
	case instance.SSLTrustStoreWindowsRoot:
		args = append(args, "-Djavax.net.ssl.trustStoreType=Windows-ROOT")
	case instance.SSLTrustStoreKeychain:
		args = append(args, "-Djavax.net.ssl.trustStoreType=KeychainStore")
	case instance.SSLTrustStoreCustom:
		if strings.TrimSpace(path) != "" {
			args = append(args, "-Djavax.net.ssl.trustStore="+path)
			if strings.TrimSpace(password) != "" {
				args = append(args, "-Djavax.net.ssl.trustStorePassword="+password)
			}
			lower := strings.ToLower(path)
			switch {
			case strings.HasSuffix(lower, ".p12"), strings.HasSuffix(lower, ".pfx"):
				args = append(args, "-Djavax.net.ssl.trustStoreType=PKCS12")
			case strings.HasSuffix(lower, ".jks"):
				args = append(args, "-Djavax.net.ssl.trustStoreType=JKS")
			}
		}
	}
	return args
}

func gcTuningArgs() []string {
	return []string{
		"-XX:+UnlockExperimentalVMOptions",
		"-XX:+UseG1GC",
		"-XX:G1NewSizePercent=20",
		"-XX:G1ReservePercent=20",
		"-XX:MaxGCPauseMillis=50",
		"-XX:G1HeapRegionSize=32M",
	}
}

// betacraftProxyArgs picks the proxy port by version-id prefix, per §4.5.
func betacraftProxyArgs(versionID string) []string {
	port := 11702
	switch {
	case strings.HasPrefix(versionID, "c0."):
		port = 11701
	case strings.HasPrefix(versionID, "b1.9"):
		port = 11706
	case strings.HasPrefix(versionID, "b1."):
		port = 11705
	case strings.HasPrefix(versionID, "1."):
		port = 11707
	}
	return []string{
		"-Dhttp.proxyHost=betacraft.uk",
		fmt.Sprintf("-Dhttp.proxyPort=%d", port),
	}
}

// buildGameArgs resolves the legacy/modern game argument list, merges
// overlay extensions, prepends window size if absent, and substitutes every
// placeholder.
func buildGameArgs(in BuildArgvInput) ([]string, error) {
	base, err := rawGameArgs(in.Version, in.FabricOverlay, in.ForgeOverlay)
	if err != nil {
		return nil, err
	}

	base = prependWindowSize(base, in.Instance, in.Global)

	values := placeholderValues(in)
	resolved := substitutePlaceholders(base, values)

	for _, a := range resolved {
		if strings.Contains(a, "${") {
			return nil, fmt.Errorf("launch: unresolved placeholder in game argument %q", a)
		}
	}
	return resolved, nil
}

// rawGameArgs returns the pre-substitution game argument list: legacy
// minecraftArguments (space-tokenised, merged with any overlay's legacy
// string) if that's the version's shape, otherwise the modern arguments.game
// list extended by the Fabric/Forge overlay's own game arguments.
func rawGameArgs(v version.VersionDetails, fabric, forge *version.Overlay) ([]string, error) {
	if v.MinecraftArguments != "" {
		merged := strings.Fields(v.MinecraftArguments)
		for _, ov := range []*version.Overlay{forge, fabric} {
			if ov != nil && ov.MinecraftArguments != "" {
				merged = mergeLegacyArgs(merged, strings.Fields(ov.MinecraftArguments))
			}
		}
		return merged, nil
	}

	if v.Arguments == nil {
		return nil, fmt.Errorf("launch: version %s has neither arguments nor minecraftArguments", v.ID)
	}
	args := flattenArgValues(v.Arguments.Game)
	for _, ov := range []*version.Overlay{forge, fabric} {
		if ov != nil && ov.Arguments != nil {
			args = append(args, flattenArgValues(ov.Arguments.Game)...)
		}
	}
	return args, nil
}

func flattenArgValues(args []version.Argument) []string {
	var out []string
	for _, a := range args {
		out = append(out, a.Value...)
	}
	return out
}

// mergeLegacyArgs treats each list as ordered "--flag value" pairs; overlay
// entries override base entries for matching flags, preserving the order
// each flag was first seen in, per §4.5's "Game-argument merging".
func mergeLegacyArgs(base, overlay []string) []string {
	var order []string
	values := make(map[string]string)

	consume := func(args []string) {
		for i := 0; i < len(args); i++ {
			if !strings.HasPrefix(args[i], "--") {
				continue
			}
			key := args[i]
			value := ""
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				value = args[i+1]
				i++
			}
			if _, ok := values[key]; !ok {
				order = append(order, key)
			}
			values[key] = value
		}
	}
	consume(base)
	consume(overlay)

	out := make([]string, 0, len(order)*2)
	for _, k := range order {
		out = append(out, k, values[k])
	}
	return out
}

// prependWindowSize adds --width/--height ahead of the rest of the game
// args, from instance settings falling back to global, unless already set.
func prependWindowSize(args []string, cfg instance.Config, global *instance.GlobalSettings) []string {
	for _, a := range args {
		if a == "--width" || a == "--height" {
			return args
		}
	}

	width, height := classicWindowWidth, classicWindowHeight
	for _, gs := range []*instance.GlobalSettings{global, cfg.GlobalSettings} {
		if gs == nil {
			continue
		}
		if gs.WindowWidth != nil {
			width = *gs.WindowWidth
		}
		if gs.WindowHeight != nil {
			height = *gs.WindowHeight
		}
	}

	prefix := []string{
		"--width", strconv.Itoa(width),
		"--height", strconv.Itoa(height),
	}
	return append(prefix, args...)
}

const zeroUUID = "00000000-0000-0000-0000-000000000000"

// placeholderValues builds the substitution table of §4.5.
func placeholderValues(in BuildArgvInput) map[string]string {
	accessToken := "0"
	userType := "legacy"
	if in.Account.AccountType != auth.Offline {
		if in.Account.AccessToken != "" {
			accessToken = in.Account.AccessToken
		}
		userType = "msa"
	}
	uuid := in.Account.UUID
	if uuid == "" || in.Account.AccountType == auth.Offline {
		uuid = zeroUUID
	}

	assetsDir := in.AssetsDir
	sep := string(ClasspathSeparator(in.Platform.OS))

	return map[string]string{
		"auth_player_name":   in.Account.NiceUsername,
		"version_name":       in.Version.ID,
		"game_directory":     in.GameDir,
		"assets_root":        assetsDir,
		"game_assets":        assetsDir,
		"assets_index_name":  in.Version.AssetIndex.ID,
		"auth_uuid":          uuid,
		"uuid":               uuid,
		"auth_access_token":  accessToken,
		"auth_session":       accessToken,
		"accessToken":        accessToken,
		"auth_xuid":          "0",
		"clientid":           auth.MicrosoftClientID,
		"user_type":          userType,
		"version_type":       "release",
		"user_properties":    "{}",
		"classpath_separator": sep,
		"library_directory":  "../forge/libraries",
	}
}

func substitutePlaceholders(args []string, values map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = substituteOne(a, values)
	}
	return out
}

func substituteOne(s string, values map[string]string) string {
	for token, val := range values {
		s = strings.ReplaceAll(s, "${"+token+"}", val)
	}
	return s
}

// NativesDir is the conventional per-instance natives extraction directory.
func NativesDir(instanceDir string) string {
	return filepath.Join(instanceDir, "libraries", "natives")
}
