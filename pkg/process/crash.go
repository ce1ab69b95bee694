package process

import "strings"

// Diagnostic is a heuristically recognised crash cause, surfaced to the
// shell as a user-facing hint instead of a raw stack trace.
type Diagnostic int

const (
	DiagnosticNone Diagnostic = iota
	// DiagnosticOutOfStackSpace: raise -Dorg.lwjgl.system.stackSize.
	DiagnosticOutOfStackSpace
	// DiagnosticXrandrNotInstalled: the xrandr binary is missing on Linux.
	DiagnosticXrandrNotInstalled
	// DiagnosticMacOSPixelFormat: macOS graphics drivers rejected the
	// requested pixel format, common inside VMs.
	DiagnosticMacOSPixelFormat
)

func (d Diagnostic) String() string {
	switch d {
	case DiagnosticOutOfStackSpace:
		return "out of stack space"
	case DiagnosticXrandrNotInstalled:
		return "xrandr not installed"
	case DiagnosticMacOSPixelFormat:
		return "macOS pixel format"
	default:
		return "none"
	}
}

func containsAny(log []string, msgs ...string) bool {
	for _, line := range log {
		for _, msg := range msgs {
			if strings.Contains(line, msg) {
				return true
			}
		}
	}
	return false
}

func containsAll(log []string, msgs ...string) bool {
	for _, msg := range msgs {
		found := false
		for _, line := range log {
			if strings.Contains(line, msg) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Diagnose recognises the crash heuristics of §8 from a captured log
// stream. isMacOS gates the pixel-format heuristic, which only fires on
// macOS. Ported constant-for-constant from original_source's
// Diagnostic::generate_from_log.
func Diagnose(log []string, isMacOS bool) Diagnostic {
	if containsAny(log, "out of stack space", "OutOfMemoryError: unable to create new native thread") {
		return DiagnosticOutOfStackSpace
	}
	if containsAll(log, "java.lang.ArrayIndexOutOfBoundsException", "org.lwjgl.opengl.LinuxDisplay.getAvailableDisplayModes") {
		return DiagnosticXrandrNotInstalled
	}
	if isMacOS && containsAny(log,
		"Could not create pixel format",
		"GL pipe is running in software mode",
		"Display could not be created",
		"Failed to find a suitable pixel format",
	) {
		return DiagnosticMacOSPixelFormat
	}
	return DiagnosticNone
}
