package launch

import (
	"strings"
	"testing"

	"github.com/cobaltforge/launchcore/pkg/auth"
	"github.com/cobaltforge/launchcore/pkg/instance"
	"github.com/cobaltforge/launchcore/pkg/version"
)

func argValue(args []string, flag string) (string, bool) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func TestBuildArgvVanillaMicrosoftLaunch(t *testing.T) {
	cfg := instance.Default(instance.ModVanilla, false)
	cfg.RAMMiB = 2048

	v := version.VersionDetails{
		ID:         "1.20.4",
		AssetIndex: version.AssetIndex{ID: "12"},
		Arguments: &version.Arguments{
			Game: []version.Argument{
				{Value: []string{"--username", "${auth_player_name}"}},
				{Value: []string{"--version", "${version_name}"}},
				{Value: []string{"--uuid", "${auth_uuid}"}},
				{Value: []string{"--accessToken", "${auth_access_token}"}},
				{Value: []string{"--userType", "${user_type}"}},
				{Value: []string{"--versionType", "${version_type}"}},
			},
		},
	}

	account := auth.AccountData{
		Username:     "demo_user",
		NiceUsername: "demo_user",
		UUID:         "11111111-1111-1111-1111-111111111111",
		AccessToken:  "tok",
		AccountType:  auth.Microsoft,
	}

	argv, err := BuildArgv(BuildArgvInput{
		Instance:    cfg,
		Version:     v,
		Platform:    version.Platform{OS: "linux", Arch: "x86_64"},
		Account:     account,
		InstanceDir: "/root/instances/demo",
		GameDir:     "/root/instances/demo/.minecraft",
		NativesDir:  "/root/instances/demo/libraries/natives",
		AssetsDir:   "/root/assets/dir",
		Classpath:   "/root/instances/demo/libraries/foo.jar:/root/instances/demo/libraries/1.20.4.jar",
		MainClass:   "net.minecraft.client.main.Main",
	})
	if err != nil {
		t.Fatalf("BuildArgv: %v", err)
	}

	joined := strings.Join(argv, " ")
	for _, want := range []string{
		"-Xmx2048M",
		"-cp /root/instances/demo/libraries/foo.jar:/root/instances/demo/libraries/1.20.4.jar net.minecraft.client.main.Main",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("argv %q missing %q", joined, want)
		}
	}

	for flag, want := range map[string]string{
		"--username":    "demo_user",
		"--version":     "1.20.4",
		"--uuid":        "11111111-1111-1111-1111-111111111111",
		"--accessToken": "tok",
		"--userType":    "msa",
		"--versionType": "release",
	} {
		got, ok := argValue(argv, flag)
		if !ok || got != want {
			t.Fatalf("%s = %q,%v want %q", flag, got, ok, want)
		}
	}

	for _, a := range argv {
		if strings.Contains(a, "${") {
			t.Fatalf("unresolved placeholder left in argv: %q", a)
		}
	}
}

func TestBuildArgvOfflineLegacyOmniarchive(t *testing.T) {
	cfg := instance.Default(instance.ModVanilla, false)
	cfg.RAMMiB = 1024

	v := version.VersionDetails{
		ID:                 "b1.7.3",
		MinecraftArguments: "--username ${auth_player_name} --uuid ${auth_uuid} --accessToken ${auth_access_token} --userType ${user_type}",
	}

	account := auth.LoginOffline("Player")

	argv, err := BuildArgv(BuildArgvInput{
		Instance:      cfg,
		Version:       v,
		Platform:      version.Platform{OS: "linux", Arch: "x86_64"},
		Account:       account,
		InstanceDir:   "/root/instances/demo",
		GameDir:       "/root/instances/demo/.minecraft",
		NativesDir:    "/root/instances/demo/libraries/natives",
		AssetsDir:     "/root/assets/dir",
		Classpath:     "/root/instances/demo/libraries/b1.7.3.jar",
		MainClass:     "net.minecraft.client.Minecraft",
		IsOmniarchive: true,
	})
	if err != nil {
		t.Fatalf("BuildArgv: %v", err)
	}

	joined := strings.Join(argv, " ")
	for _, want := range []string{
		"-Dhttp.proxyHost=betacraft.uk",
		"-Dhttp.proxyPort=11705",
		"-Djava.util.Arrays.useLegacyMergeSort=true",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("argv %q missing %q", joined, want)
		}
	}

	for flag, want := range map[string]string{
		"--username":    "Player",
		"--uuid":        "00000000-0000-0000-0000-000000000000",
		"--accessToken": "0",
		"--userType":    "legacy",
	} {
		got, ok := argValue(argv, flag)
		if !ok || got != want {
			t.Fatalf("%s = %q,%v want %q", flag, got, ok, want)
		}
	}
}

func TestJavaArgsModeFallback(t *testing.T) {
	cfg := instance.Default(instance.ModVanilla, false)
	cfg.JavaArgsMode = instance.JavaArgsFallback
	cfg.JavaArgs = nil
	global := &instance.GlobalSettings{JavaArgs: []string{"-Dglobal=1"}}

	got := javaArgs(cfg, global)
	if len(got) != 1 || got[0] != "-Dglobal=1" {
		t.Fatalf("javaArgs fallback = %v", got)
	}

	cfg.JavaArgs = []string{"-Dinstance=1"}
	got = javaArgs(cfg, global)
	if len(got) != 1 || got[0] != "-Dinstance=1" {
		t.Fatalf("javaArgs fallback with instance args = %v", got)
	}
}

func TestJavaArgsModeCombine(t *testing.T) {
	cfg := instance.Default(instance.ModVanilla, false)
	cfg.JavaArgsMode = instance.JavaArgsCombine
	cfg.JavaArgs = []string{"-Dinstance=1"}
	global := &instance.GlobalSettings{JavaArgs: []string{"-Dglobal=1", ""}}

	got := javaArgs(cfg, global)
	want := []string{"-Dglobal=1", "-Dinstance=1"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("javaArgs combine = %v, want %v", got, want)
	}
}

func TestJavaArgsModeDisable(t *testing.T) {
	cfg := instance.Default(instance.ModVanilla, false)
	cfg.JavaArgsMode = instance.JavaArgsDisable
	cfg.JavaArgs = nil
	global := &instance.GlobalSettings{JavaArgs: []string{"-Dglobal=1"}}

	if got := javaArgs(cfg, global); got != nil {
		t.Fatalf("javaArgs disable with no instance args = %v, want nil", got)
	}
}

func TestSSLArgsCustomPKCS12(t *testing.T) {
	cfg := instance.Default(instance.ModVanilla, false)
	cfg.SSLTrustStoreType = instance.SSLTrustStoreCustom
	cfg.SSLTrustStorePath = "/etc/certs/store.p12"
	cfg.SSLTrustStorePassword = "hunter2"

	args := sslArgs(cfg, nil)
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-Djavax.net.ssl.trustStore=/etc/certs/store.p12",
		"-Djavax.net.ssl.trustStorePassword=hunter2",
		"-Djavax.net.ssl.trustStoreType=PKCS12",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("ssl args %q missing %q", joined, want)
		}
	}
}

func TestMergeLegacyArgsOverlayOverrides(t *testing.T) {
	base := []string{"--username", "base", "--version", "1.0"}
	overlay := []string{"--version", "1.0-fabric", "--tweakClass", "net.fabricmc.Tweaker"}

	got := mergeLegacyArgs(base, overlay)
	want := map[string]string{
		"--username":   "base",
		"--version":    "1.0-fabric",
		"--tweakClass": "net.fabricmc.Tweaker",
	}
	for i := 0; i < len(got); i += 2 {
		if want[got[i]] != got[i+1] {
			t.Fatalf("mergeLegacyArgs: %s = %q, want %q", got[i], got[i+1], want[got[i]])
		}
	}
	if got[0] != "--username" || got[2] != "--version" {
		t.Fatalf("mergeLegacyArgs did not preserve first-seen order: %v", got)
	}
}
