package process

import "testing"

func TestDiagnoseOutOfStackSpace(t *testing.T) {
	log := []string{"some preamble", "out of stack space", "trailer"}
	if got := Diagnose(log, false); got != DiagnosticOutOfStackSpace {
		t.Fatalf("Diagnose = %v, want DiagnosticOutOfStackSpace", got)
	}
}

func TestDiagnoseOutOfMemoryNativeThread(t *testing.T) {
	log := []string{"java.lang.OutOfMemoryError: unable to create new native thread"}
	if got := Diagnose(log, false); got != DiagnosticOutOfStackSpace {
		t.Fatalf("Diagnose = %v, want DiagnosticOutOfStackSpace", got)
	}
}

func TestDiagnoseXrandrRequiresBothLines(t *testing.T) {
	onlyOne := []string{"java.lang.ArrayIndexOutOfBoundsException"}
	if got := Diagnose(onlyOne, false); got != DiagnosticNone {
		t.Fatalf("Diagnose = %v, want DiagnosticNone with only one marker line", got)
	}

	both := []string{
		"java.lang.ArrayIndexOutOfBoundsException",
		"at org.lwjgl.opengl.LinuxDisplay.getAvailableDisplayModes(LinuxDisplay.java:100)",
	}
	if got := Diagnose(both, false); got != DiagnosticXrandrNotInstalled {
		t.Fatalf("Diagnose = %v, want DiagnosticXrandrNotInstalled", got)
	}
}

func TestDiagnoseMacOSPixelFormatGatedByPlatform(t *testing.T) {
	log := []string{"org.lwjgl.LWJGLException: Could not create pixel format"}
	if got := Diagnose(log, false); got != DiagnosticNone {
		t.Fatalf("Diagnose = %v, want DiagnosticNone off macOS", got)
	}
	if got := Diagnose(log, true); got != DiagnosticMacOSPixelFormat {
		t.Fatalf("Diagnose = %v, want DiagnosticMacOSPixelFormat on macOS", got)
	}
}

func TestDiagnoseNoMatch(t *testing.T) {
	log := []string{"[INFO] Loaded 512 recipes", "[INFO] Done (3.2s)!"}
	if got := Diagnose(log, true); got != DiagnosticNone {
		t.Fatalf("Diagnose = %v, want DiagnosticNone", got)
	}
}
