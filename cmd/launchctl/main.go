// Command launchctl is a thin CLI bootstrap around the launcher core:
// account login, instance listing, and launching an instance's JVM.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/hashicorp/go-envparse"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/pflag"

	"github.com/cobaltforge/launchcore/db/launcherdb"
	"github.com/cobaltforge/launchcore/pkg/auth"
	"github.com/cobaltforge/launchcore/pkg/instance"
	"github.com/cobaltforge/launchcore/pkg/javaprovision"
	"github.com/cobaltforge/launchcore/pkg/launch"
	"github.com/cobaltforge/launchcore/pkg/launchcfg"
	"github.com/cobaltforge/launchcore/pkg/launchctx"
	"github.com/cobaltforge/launchcore/pkg/process"
	"github.com/cobaltforge/launchcore/pkg/progress"
	"github.com/cobaltforge/launchcore/pkg/version"
)

var opt struct {
	Help    bool
	EnvFile string
}

func init() {
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
	pflag.StringVarP(&opt.EnvFile, "env-file", "e", "", "Load config from an env file instead of the environment")
}

func main() {
	pflag.Parse()

	if opt.Help || pflag.NArg() < 1 {
		fmt.Printf("usage: %s [options] <command> [args...]\n\ncommands:\n  login-offline <username>\n  list-instances\n  launch <instance>\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if opt.Help {
			os.Exit(0)
		}
		os.Exit(2)
	}

	env := os.Environ()
	if opt.EnvFile != "" {
		e, err := readEnv(opt.EnvFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: read env file: %v\n", err)
			os.Exit(1)
		}
		env = e
	}

	var c launchcfg.Config
	if err := c.UnmarshalEnv(env, false); err != nil {
		fmt.Fprintf(os.Stderr, "error: parse config: %v\n", err)
		os.Exit(1)
	}
	if c.Root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: resolve home directory: %v\n", err)
			os.Exit(1)
		}
		c.Root = filepath.Join(home, ".cobaltforge")
	}

	logger, closeLog, err := c.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: configure logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	lctx := launchctx.New(c.Root, logger)
	lctx.HTTPClient.Timeout = c.HTTPTimeout

	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: create launcher root: %v\n", err)
		os.Exit(1)
	}
	cacheDB, err := openCacheDB(lctx.CacheFile())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open cache db: %v\n", err)
		os.Exit(1)
	}
	defer cacheDB.Close()
	lctx.DB = cacheDB

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch cmd, args := pflag.Arg(0), pflag.Args()[1:]; cmd {
	case "login-offline":
		runErr = runLoginOffline(lctx, args)
	case "list-instances":
		runErr = runListInstances(lctx)
	case "launch":
		runErr = runLaunch(ctx, lctx, args)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", cmd)
		os.Exit(2)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

func runLoginOffline(lctx *launchctx.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: login-offline <username>")
	}
	account := auth.LoginOffline(args[0])
	fmt.Printf("logged in offline as %s (uuid %s)\n", account.NiceUsername, account.UUID)
	return nil
}

func runListInstances(lctx *launchctx.Context) error {
	entries, err := os.ReadDir(filepath.Join(lctx.Root, "instances"))
	if os.IsNotExist(err) {
		fmt.Println("(no instances)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read instances directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
	return nil
}

func runLaunch(ctx context.Context, lctx *launchctx.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: launch <instance>")
	}
	name := args[0]
	instDir := lctx.InstanceDir(name)

	cfg, err := loadInstanceConfig(filepath.Join(instDir, "config.json"))
	if err != nil {
		return fmt.Errorf("load instance config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid instance config: %w", err)
	}

	v, err := loadVersionDetails(filepath.Join(instDir, "details.json"))
	if err != nil {
		return fmt.Errorf("load version details: %w", err)
	}

	gameDir := lctx.MinecraftDir(name, cfg.IsServer)
	platform := version.CurrentPlatform(runtime.GOOS, runtime.GOARCH)

	assetsDir, err := version.ResolveAssetsDir(instDir, filepath.Dir(lctx.AssetsDir()), v.AssetIndex.ID)
	if err != nil {
		return fmt.Errorf("resolve assets dir: %w", err)
	}

	classpath, err := launch.BuildClasspath(launch.BuildInputs{
		InstanceDir: instDir,
		Platform:    platform,
		Separator:   launch.ClasspathSeparator(platform.OS),
	})
	if err != nil {
		return fmt.Errorf("build classpath: %w", err)
	}

	bus := progress.NewBus(16)
	defer bus.Close()
	go func() {
		for ev := range bus.Subscribe() {
			fmt.Printf("[%s] %s (%d/%d)\n", ev.Kind, ev.Message, ev.Done, ev.Total)
		}
	}()

	provisioner := javaprovision.New(lctx, bus)
	javaPath, err := provisioner.EnsureJava(ctx, v.JavaVersion.MajorVersion, "java", "launch:"+name)
	if err != nil {
		return fmt.Errorf("ensure java: %w", err)
	}

	account := auth.LoginOffline(name)

	argv, err := launch.BuildArgv(launch.BuildArgvInput{
		Instance:    cfg,
		Version:     v,
		Platform:    platform,
		Account:     account,
		InstanceDir: instDir,
		GameDir:     gameDir,
		NativesDir:  launch.NativesDir(instDir),
		AssetsDir:   assetsDir,
		Classpath:   classpath,
		MainClass:   v.MainClass,
	})
	if err != nil {
		return fmt.Errorf("build argv: %w", err)
	}

	handle, err := process.Spawn(ctx, process.Options{
		Argv:       argv,
		JavaPath:   javaPath,
		WorkDir:    gameDir,
		Env:        launch.BuildEnv(platform, v.ReleaseTime),
		CaptureOut: true,
		Logger:     lctx.Logger,
	})
	if err != nil {
		return fmt.Errorf("spawn process: %w", err)
	}

	for line := range handle.Lines() {
		fmt.Printf("[%s] %s\n", line.Stream, line.Text)
	}
	return handle.Wait(ctx)
}

// openCacheDB opens the JVM catalog cache / download ledger db, migrating it
// to the latest schema version.
func openCacheDB(path string) (*launcherdb.DB, error) {
	db, err := launcherdb.Open(path)
	if err != nil {
		return nil, err
	}
	_, target, err := db.Version()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.MigrateUp(context.Background(), target); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func readEnv(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := envparse.Parse(f)
	if err != nil {
		return nil, err
	}

	var r []string
	for k, v := range m {
		r = append(r, k+"="+v)
	}
	return r, nil
}

func loadInstanceConfig(path string) (instance.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return instance.Config{}, err
	}
	var cfg instance.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return instance.Config{}, err
	}
	return cfg, nil
}

func loadVersionDetails(path string) (version.VersionDetails, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return version.VersionDetails{}, err
	}
	var v version.VersionDetails
	if err := json.Unmarshal(data, &v); err != nil {
		return version.VersionDetails{}, err
	}
	return v, nil
}
