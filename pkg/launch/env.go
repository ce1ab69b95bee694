package launch

import (
	"time"

	"github.com/cobaltforge/launchcore/pkg/version"
)

// mesaOverrideCutoff is the release instant (1.17's first snapshot) after
// which Mojang's bundled LWJGL asks for a GL context newer than Mesa's
// default aarch64 driver advertises, per §6 "Process environment".
var mesaOverrideCutoff = time.Date(2021, time.May, 12, 11, 19, 15, 0, time.UTC)

// BuildEnv returns the extra child-process environment variables (in
// "KEY=VALUE" form) for this platform/version, suitable for Options.Env.
func BuildEnv(p version.Platform, releaseTime string) []string {
	var env []string
	if needsMesaOverride(p, releaseTime) {
		env = append(env, "MESA_GL_VERSION_OVERRIDE=3.3")
	}
	return env
}

// needsMesaOverride reports whether this release, run under Mesa on
// aarch64 Linux, needs the GL version override: vanilla's bundled LWJGL
// on these runtimes otherwise fails to create a GL context on versions
// released on or after 2021-05-12T11:19:15Z.
func needsMesaOverride(p version.Platform, releaseTime string) bool {
	if p.OS != "linux" || p.Arch != "arm64" {
		return false
	}
	t, err := time.Parse(time.RFC3339, releaseTime)
	if err != nil {
		return false
	}
	return !t.Before(mesaOverrideCutoff)
}
