// Package launch composes the resolved version, overlays, and account into
// the exact JVM argv and classpath the process supervisor spawns (§4.5).
package launch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cobaltforge/launchcore/pkg/version"
)

// ClasspathSeparator returns the platform's java.io.File.pathSeparator.
func ClasspathSeparator(goos string) byte {
	if goos == "windows" {
		return ';'
	}
	return ':'
}

// libraryDedupKey strips the version component from a "group:artifact:version"
// library name, leaving the "group:artifact" key the spec dedups on. Names
// that don't parse into at least two segments have no dedup key.
func libraryDedupKey(name string) (string, bool) {
	parts := strings.Split(name, ":")
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + ":" + parts[1], true
}

// forgeModulePath finds the module path passed via "-p <path>" in a Forge/
// NeoForge JVM argument list, matching original_source's get_after_p: a
// bare "-p" argument immediately followed by the path argument.
func forgeModulePath(jvm []version.Argument) (string, bool) {
	for i, a := range jvm {
		if len(a.Value) == 1 && a.Value[0] == "-p" && i+1 < len(jvm) {
			next := jvm[i+1]
			if len(next.Value) == 1 {
				return next.Value[0], true
			}
		}
	}
	return "", false
}

// removeModulePathEntries drops classpath entries that also appear on the
// module path, canonicalising both sides to forward slashes before
// comparing — the JVM canonicalizes module-path entries itself and then
// rejects a classpath that repeats them under a different path spelling.
func removeModulePathEntries(classpath string, modulePath string, libraryDir string, sep byte) string {
	modulePath = strings.ReplaceAll(modulePath, "${library_directory}", libraryDir)
	modulePath = strings.ReplaceAll(modulePath, "${classpath_separator}", string(sep))

	remove := make(map[string]bool)
	for _, entry := range strings.Split(modulePath, string(sep)) {
		if entry == "" {
			continue
		}
		remove[filepath.ToSlash(entry)] = true
	}
	if len(remove) == 0 {
		return classpath
	}

	var kept []string
	for _, entry := range strings.Split(classpath, string(sep)) {
		if entry == "" {
			continue
		}
		if remove[filepath.ToSlash(entry)] {
			continue
		}
		kept = append(kept, entry)
	}
	return strings.Join(kept, string(sep))
}

// BuildInputs carries everything BuildClasspath needs to compose the
// classpath and pick a main class, in the §4.5 precedence order.
type BuildInputs struct {
	InstanceDir string
	Platform    version.Platform
	Separator   byte

	// ForgeClasspathTxt is the verbatim contents of forge/classpath.txt, a
	// pre-separator-joined list of library paths the Forge/NeoForge
	// installer wrote out. Empty when the instance has no Forge overlay.
	ForgeClasspathTxt string
	ForgeOverlay      *version.Overlay
	// ForgeCleanClasspathEntries seeds the dedup set from forge/clean_classpath.txt
	// (one "group:artifact" key per line), so vanilla/Fabric libraries the
	// Forge installer already brought in aren't loaded twice.
	ForgeCleanClasspathEntries []string

	// OptiFineJars are the absolute paths of JARs discovered recursively
	// under the instance's .minecraft/libraries/, in directory-walk order.
	// OptiFine does not participate in the dedup set, matching how the
	// engine it's grounded on loads it unconditionally before Fabric.
	OptiFineJars []string

	FabricOverlay *version.Overlay

	BaseLibraries []version.Library

	// JarPath is the absolute path of the (possibly jar-modded) game JAR,
	// appended last with no trailing separator.
	JarPath string
}

// BuildClasspath composes the classpath string in the order: Forge/NeoForge
// libraries (minus module-path entries), OptiFine JARs, Fabric/Quilt
// libraries, base game libraries, then the game JAR. It returns an error
// when no game JAR path is given.
func BuildClasspath(in BuildInputs) (string, error) {
	var cp strings.Builder
	seen := make(map[string]bool)
	for _, key := range in.ForgeCleanClasspathEntries {
		seen[key] = true
	}

	if in.ForgeOverlay != nil && in.ForgeClasspathTxt != "" {
		forgeEntries := in.ForgeClasspathTxt
		if in.ForgeOverlay.Arguments != nil {
			if modulePath, ok := forgeModulePath(in.ForgeOverlay.Arguments.JVM); ok {
				libDir := filepath.Join(in.InstanceDir, "forge", "libraries")
				forgeEntries = removeModulePathEntries(forgeEntries, modulePath, libDir, in.Separator)
			}
		}
		cp.WriteString(forgeEntries)
		if forgeEntries != "" && !strings.HasSuffix(forgeEntries, string(in.Separator)) {
			cp.WriteByte(in.Separator)
		}
	}

	for _, jar := range in.OptiFineJars {
		cp.WriteString(jar)
		cp.WriteByte(in.Separator)
	}

	if in.FabricOverlay != nil {
		for _, lib := range in.FabricOverlay.Libraries {
			if key, ok := libraryDedupKey(lib.Name); ok {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			libPath := filepath.Join(in.InstanceDir, "libraries", libraryRelPath(lib.Name))
			cp.WriteString(libPath)
			cp.WriteByte(in.Separator)
		}
	}

	for _, lib := range version.AllowedLibraries(in.BaseLibraries, in.Platform) {
		if lib.Downloads.Artifact == nil {
			continue
		}
		if key, ok := libraryDedupKey(lib.Name); ok {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		libPath := filepath.Join(in.InstanceDir, "libraries", filepath.FromSlash(lib.Downloads.Artifact.Path))
		cp.WriteString(libPath)
		cp.WriteByte(in.Separator)
	}

	if in.JarPath == "" {
		return "", fmt.Errorf("launch: no game jar path given")
	}
	cp.WriteString(in.JarPath)

	return cp.String(), nil
}

// libraryRelPath derives a Maven-style relative path ("group/path/artifact-version.jar")
// from a "group:artifact:version" name, for overlay libraries that carry no
// explicit downloads.artifact.path.
func libraryRelPath(name string) string {
	parts := strings.SplitN(name, ":", 3)
	if len(parts) != 3 {
		return filepath.FromSlash(name)
	}
	group, artifact, ver := parts[0], parts[1], parts[2]
	groupPath := strings.ReplaceAll(group, ".", "/")
	file := fmt.Sprintf("%s-%s.jar", artifact, ver)
	return filepath.FromSlash(fmt.Sprintf("%s/%s/%s/%s", groupPath, artifact, ver, file))
}

// OverlayMainClass picks the main class in the precedence the game uses to
// resolve the entry point: Fabric/Quilt first, then Forge/NeoForge, then
// OptiFine, then the base version's own main class.
func OverlayMainClass(fabric, forge, optifine *version.Overlay, baseMainClass string) string {
	for _, ov := range []*version.Overlay{fabric, forge, optifine} {
		if ov != nil && ov.MainClass != "" {
			return ov.MainClass
		}
	}
	return baseMainClass
}
