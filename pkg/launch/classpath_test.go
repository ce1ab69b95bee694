package launch

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/cobaltforge/launchcore/pkg/version"
)

func TestLibraryDedupKey(t *testing.T) {
	key, ok := libraryDedupKey("com.google.code.gson:gson:2.10.1")
	if !ok || key != "com.google.code.gson:gson" {
		t.Fatalf("libraryDedupKey = %q,%v", key, ok)
	}
	if _, ok := libraryDedupKey("justaname"); ok {
		t.Fatalf("expected no dedup key for unparseable name")
	}
}

func TestBuildClasspathDedupFabricOverridesBase(t *testing.T) {
	base := []version.Library{
		{Name: "com.google.code.gson:gson:2.10.1", Downloads: version.LibraryDownloads{Artifact: &version.Artifact{Path: "com/google/code/gson/gson/2.10.1/gson-2.10.1.jar"}}},
	}
	fabric := &version.Overlay{
		Kind:      version.OverlayFabric,
		MainClass: "net.fabricmc.loader.Main",
		Libraries: []version.Library{
			{Name: "com.google.code.gson:gson:2.11.0"},
		},
	}

	cp, err := BuildClasspath(BuildInputs{
		InstanceDir:   "/root/instances/demo",
		Platform:      version.Platform{OS: "linux", Arch: "x86_64"},
		Separator:     ':',
		FabricOverlay: fabric,
		BaseLibraries: base,
		JarPath:       "/root/instances/demo/libraries/1.20.4.jar",
	})
	if err != nil {
		t.Fatalf("BuildClasspath: %v", err)
	}

	want := filepath.Join("/root/instances/demo", "libraries", "com/google/code/gson/gson/2.11.0/gson-2.11.0.jar")
	if !strings.Contains(cp, want) {
		t.Fatalf("classpath %q missing fabric gson entry %q", cp, want)
	}
	baseGson := filepath.Join("/root/instances/demo", "libraries", "com/google/code/gson/gson/2.10.1/gson-2.10.1.jar")
	if strings.Contains(cp, baseGson) {
		t.Fatalf("classpath %q should not contain overridden base gson entry", cp)
	}
}

func TestBuildClasspathNoDuplicateGroupArtifact(t *testing.T) {
	base := []version.Library{
		{Name: "a:a:1", Downloads: version.LibraryDownloads{Artifact: &version.Artifact{Path: "a/a/1/a-1.jar"}}},
		{Name: "a:a:1", Downloads: version.LibraryDownloads{Artifact: &version.Artifact{Path: "a/a/1/a-1.jar"}}},
	}
	cp, err := BuildClasspath(BuildInputs{
		InstanceDir:   "/inst",
		Platform:      version.Platform{OS: "linux", Arch: "x86_64"},
		Separator:     ':',
		BaseLibraries: base,
		JarPath:       "/inst/libraries/game.jar",
	})
	if err != nil {
		t.Fatalf("BuildClasspath: %v", err)
	}
	if strings.Count(cp, "a-1.jar") != 1 {
		t.Fatalf("classpath %q has duplicate entries for a:a", cp)
	}
}

func TestRemoveModulePathEntries(t *testing.T) {
	cp := "/inst/forge/libraries/x/x-1.jar:/inst/forge/libraries/y/y-1.jar:"
	out := removeModulePathEntries(cp, "${library_directory}/x/x-1.jar", "/inst/forge/libraries", ':')
	if strings.Contains(out, "x-1.jar") {
		t.Fatalf("module path entry not removed: %q", out)
	}
	if !strings.Contains(out, "y-1.jar") {
		t.Fatalf("unrelated entry incorrectly removed: %q", out)
	}
}

func TestOverlayMainClassPrecedence(t *testing.T) {
	fabric := &version.Overlay{MainClass: "fabric.Main"}
	forge := &version.Overlay{MainClass: "forge.Main"}
	if got := OverlayMainClass(fabric, forge, nil, "base.Main"); got != "fabric.Main" {
		t.Fatalf("OverlayMainClass = %q, want fabric.Main", got)
	}
	if got := OverlayMainClass(nil, forge, nil, "base.Main"); got != "forge.Main" {
		t.Fatalf("OverlayMainClass = %q, want forge.Main", got)
	}
	if got := OverlayMainClass(nil, nil, nil, "base.Main"); got != "base.Main" {
		t.Fatalf("OverlayMainClass = %q, want base.Main", got)
	}
}
