package launchcfg

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestUnmarshalEnvDefaults(t *testing.T) {
	var c Config
	if err := c.UnmarshalEnv(nil, false); err != nil {
		t.Fatalf("UnmarshalEnv: %v", err)
	}
	if c.LogLevel != zerolog.InfoLevel {
		t.Fatalf("LogLevel = %v, want info", c.LogLevel)
	}
	if !c.LogStdout || !c.LogStdoutPretty {
		t.Fatalf("LogStdout/Pretty = %v/%v, want true/true", c.LogStdout, c.LogStdoutPretty)
	}
	if c.HTTPTimeout.String() != "30s" {
		t.Fatalf("HTTPTimeout = %v, want 30s", c.HTTPTimeout)
	}
}

func TestUnmarshalEnvOverrides(t *testing.T) {
	var c Config
	err := c.UnmarshalEnv([]string{
		"LAUNCHCORE_ROOT=/srv/launcher",
		"LAUNCHCORE_LOG_LEVEL=debug",
		"LAUNCHCORE_OFFLINE=true",
		"LAUNCHCORE_JAVA_INSTALL_CONCURRENCY=4",
	}, false)
	if err != nil {
		t.Fatalf("UnmarshalEnv: %v", err)
	}
	if c.Root != "/srv/launcher" {
		t.Fatalf("Root = %q", c.Root)
	}
	if c.LogLevel != zerolog.DebugLevel {
		t.Fatalf("LogLevel = %v, want debug", c.LogLevel)
	}
	if !c.Offline {
		t.Fatal("Offline = false, want true")
	}
	if c.JavaInstallConcurrency != 4 {
		t.Fatalf("JavaInstallConcurrency = %d, want 4", c.JavaInstallConcurrency)
	}
}

func TestUnmarshalEnvUnknownVar(t *testing.T) {
	var c Config
	err := c.UnmarshalEnv([]string{"LAUNCHCORE_NOT_A_FIELD=x"}, false)
	if err == nil {
		t.Fatal("expected error for unknown environment variable")
	}
}

func TestUnmarshalEnvIncremental(t *testing.T) {
	var c Config
	if err := c.UnmarshalEnv([]string{"LAUNCHCORE_LOG_LEVEL=warn"}, true); err != nil {
		t.Fatalf("UnmarshalEnv: %v", err)
	}
	if c.LogLevel != zerolog.WarnLevel {
		t.Fatalf("LogLevel = %v, want warn", c.LogLevel)
	}
	if c.HTTPTimeout != 0 {
		t.Fatalf("HTTPTimeout = %v, want 0 (incremental should skip defaults)", c.HTTPTimeout)
	}
}

func TestLogStdoutLevelFloorsAtInfo(t *testing.T) {
	c := Config{LogLevel: zerolog.TraceLevel}
	if got := c.LogStdoutLevel(); got != zerolog.InfoLevel {
		t.Fatalf("LogStdoutLevel = %v, want info", got)
	}
	c.LogLevel = zerolog.ErrorLevel
	if got := c.LogStdoutLevel(); got != zerolog.ErrorLevel {
		t.Fatalf("LogStdoutLevel = %v, want error", got)
	}
}
