// Package launchcfg implements the launcher's ambient process configuration:
// log level/destination, metrics listener, and the root data directory,
// loaded the same way as instance/global settings but from the environment
// instead of a JSON file, since the process needs them before any config.json
// can be located.
package launchcfg

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config contains the launcher's environment-derived process configuration.
// The env struct tag contains the environment variable name and the default
// value if missing, or empty (if not ?=). All string arrays are comma-separated.
type Config struct {
	// Root is the launcher's data directory (instances, assets, java_installs,
	// config.json, encrypted_tokens.json). When it is left empty,
	// cmd/launchctl uses ~/.cobaltforge.
	Root string `env:"LAUNCHCORE_ROOT"`

	// LogLevel is the minimum log level (trace, debug, info, warn, error, fatal).
	LogLevel zerolog.Level `env:"LAUNCHCORE_LOG_LEVEL=info"`

	// LogStdout controls whether to log to stdout.
	LogStdout bool `env:"LAUNCHCORE_LOG_STDOUT=true"`

	// LogStdoutPretty controls whether to use pretty (non-JSON) console logs.
	LogStdoutPretty bool `env:"LAUNCHCORE_LOG_STDOUT_PRETTY=true"`

	// LogFile is the log file to append to, if provided.
	LogFile string `env:"LAUNCHCORE_LOG_FILE"`

	// LogFileLevel is the minimum log level for the log file.
	LogFileLevel zerolog.Level `env:"LAUNCHCORE_LOG_FILE_LEVEL=info"`

	// LogFileChmod is the permissions to create the log file with.
	LogFileChmod fs.FileMode `env:"LAUNCHCORE_LOG_FILE_CHMOD=0600"`

	// MetricsAddr is the address for a VictoriaMetrics-format /metrics
	// listener. Nothing in this module reads it or starts a listener.
	MetricsAddr string `env:"LAUNCHCORE_METRICS_ADDR"`

	// JavaInstallConcurrency is parsed from the environment, but nothing in
	// this module reads it; it does not limit JVM install downloads.
	JavaInstallConcurrency int `env:"LAUNCHCORE_JAVA_INSTALL_CONCURRENCY"`

	// HTTPTimeout bounds every outbound request the core makes (auth, asset
	// and library download, JVM catalog fetch). Token refresh in particular
	// has no built-in timeout upstream, so this is the only backstop.
	HTTPTimeout time.Duration `env:"LAUNCHCORE_HTTP_TIMEOUT=30s"`

	// Offline is parsed from the environment, but nothing in this module
	// reads it; it does not disable network calls.
	Offline bool `env:"LAUNCHCORE_OFFLINE"`
}

// UnmarshalEnv unmarshals an array of "KEY=VALUE" environment strings into c,
// setting default values as appropriate. If incremental is true, default
// values are not set for missing env vars, only for ones present but empty.
func (c *Config) UnmarshalEnv(es []string, incremental bool) error {
	em := map[string]string{}
	for _, e := range es {
		if strings.HasPrefix(e, "LAUNCHCORE_") {
			if k, v, ok := strings.Cut(e, "="); ok {
				em[k] = v
			}
		}
	}

	cv := reflect.ValueOf(c).Elem()
	for _, ctf := range reflect.VisibleFields(cv.Type()) {
		env, ok := ctf.Tag.Lookup("env")
		if !ok {
			continue
		}

		var unsettable bool
		key, val, _ := strings.Cut(env, "=")
		if strings.HasSuffix(key, "?") {
			key = strings.TrimSuffix(key, "?")
			unsettable = true
		}
		if v, exists := em[key]; exists {
			if unsettable || v != "" {
				val = v
			}
			delete(em, key)
		} else if incremental {
			continue
		}

		switch cvf := cv.FieldByName(ctf.Name); cvf.Interface().(type) {
		case string:
			cvf.SetString(val)
		case int, int8, int16, int32, int64:
			if val == "" {
				cvf.SetInt(0)
			} else if v, err := strconv.ParseInt(val, 10, 64); err == nil {
				cvf.SetInt(v)
			} else {
				return fmt.Errorf("env %s (%T): parse %q: %w", key, cvf.Interface(), val, err)
			}
		case bool:
			if val == "" {
				cvf.SetBool(false)
			} else if v, err := strconv.ParseBool(val); err == nil {
				cvf.SetBool(v)
			} else {
				return fmt.Errorf("env %s (%T): parse %q: %w", key, cvf.Interface(), val, err)
			}
		case zerolog.Level:
			if v, err := zerolog.ParseLevel(val); err == nil {
				cvf.Set(reflect.ValueOf(v))
			} else {
				return fmt.Errorf("env %s (%T): parse %q: %w", key, cvf.Interface(), val, err)
			}
		case time.Duration:
			if v, err := time.ParseDuration(val); err == nil {
				cvf.Set(reflect.ValueOf(v))
			} else {
				return fmt.Errorf("env %s (%T): parse %q: %w", key, cvf.Interface(), val, err)
			}
		case fs.FileMode:
			if val == "" {
				cvf.Set(reflect.ValueOf(fs.FileMode(0)))
			} else if v, err := strconv.ParseUint(val, 8, 32); err == nil {
				cvf.Set(reflect.ValueOf(fs.FileMode(v)))
			} else {
				return fmt.Errorf("env %s (%T): parse %q: %w", key, cvf.Interface(), val, err)
			}
		default:
			return fmt.Errorf("unhandled type %T (%s)", cvf.Interface(), env)
		}
	}

	for key, val := range em {
		if val != "" {
			return fmt.Errorf("unknown environment variable %q", key)
		}
	}
	return nil
}

// levelWriter wraps an io.Writer (or zerolog.LevelWriter) and discards
// records below its level, so stdout and the log file can each have their
// own level independent of the overall logger's level.
type levelWriter struct {
	w io.Writer
	l zerolog.Level
	m sync.Mutex
}

var _ zerolog.LevelWriter = (*levelWriter)(nil)

func newLevelWriter(w io.Writer, l zerolog.Level) *levelWriter {
	return &levelWriter{w: w, l: l}
}

func (lw *levelWriter) Write(p []byte) (int, error) {
	lw.m.Lock()
	defer lw.m.Unlock()
	return lw.w.Write(p)
}

func (lw *levelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < lw.l {
		return len(p), nil
	}
	lw.m.Lock()
	defer lw.m.Unlock()
	if z, ok := lw.w.(zerolog.LevelWriter); ok {
		return z.WriteLevel(l, p)
	}
	return lw.w.Write(p)
}

// NewLogger builds a zerolog.Logger from c's log settings, writing to stdout
// and/or a log file as configured. The returned close func flushes and closes
// the log file, if one was opened; callers should defer it.
func (c *Config) NewLogger() (zerolog.Logger, func() error, error) {
	closeFn := func() error { return nil }
	var outputs []io.Writer

	if c.LogStdout {
		if c.LogStdoutPretty {
			outputs = append(outputs, newLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout}, c.LogStdoutLevel()))
		} else {
			outputs = append(outputs, newLevelWriter(os.Stdout, c.LogStdoutLevel()))
		}
	}
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, c.logFileMode())
		if err != nil {
			return zerolog.Logger{}, closeFn, fmt.Errorf("open log file: %w", err)
		}
		outputs = append(outputs, newLevelWriter(f, c.LogFileLevel))
		closeFn = f.Close
	}

	var w io.Writer
	switch len(outputs) {
	case 0:
		w = io.Discard
	case 1:
		w = outputs[0]
	default:
		w = zerolog.MultiLevelWriter(outputs...)
	}

	logger := zerolog.New(w).Level(c.LogLevel).With().Timestamp().Logger()
	return logger, closeFn, nil
}

// LogStdoutLevel returns the stdout writer's level, which tracks LogLevel
// unless LogLevel is more verbose than info (stdout is meant for humans, the
// log file for diagnostics).
func (c *Config) LogStdoutLevel() zerolog.Level {
	if c.LogLevel < zerolog.InfoLevel {
		return zerolog.InfoLevel
	}
	return c.LogLevel
}

func (c *Config) logFileMode() fs.FileMode {
	if c.LogFileChmod == 0 {
		return 0600
	}
	return c.LogFileChmod
}
