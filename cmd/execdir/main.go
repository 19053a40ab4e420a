package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/mattjoyce/execdir/internal/api"
	"github.com/mattjoyce/execdir/internal/config"
	"github.com/mattjoyce/execdir/internal/dispatch"
	"github.com/mattjoyce/execdir/internal/executor"
	"github.com/mattjoyce/execdir/internal/guard"
	"github.com/mattjoyce/execdir/internal/log"
	"github.com/mattjoyce/execdir/internal/stdio"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) == 0 || strings.HasPrefix(cliArgs[0], "-") && !isHelpFlag(cliArgs[0]) && cliArgs[0] != "--version" {
		return runServe(cliArgs)
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "serve":
		return runServe(args)
	case "config":
		return runConfigNoun(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "-help"
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	info := currentVersionInfo()
	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("execdir %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version: strings.TrimSpace(version),
		Commit:  strings.TrimSpace(gitCommit),
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}
	if info.Commit == "" || info.Commit == "unknown" {
		info.Commit = "unknown"
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range bi.Settings {
				if setting.Key == "vcs.revision" && setting.Value != "" {
					info.Commit = shortenCommit(setting.Value)
				}
			}
		}
	}
	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func runConfigNoun(args []string) int {
	if len(args) == 0 || isHelpFlag(args[0]) {
		fmt.Fprintln(os.Stderr, "Usage: execdir config hash <file>")
		return 1
	}

	switch args[0] {
	case "hash":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: execdir config hash <file>")
			return 1
		}
		sum, err := config.ComputeBlake3Hash(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to hash config: %v\n", err)
			return 1
		}
		fmt.Println(sum)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("empty directory")
	}
	*s = append(*s, value)
	return nil
}

type serveFlags struct {
	configPath string
	configHash string
	dir        string
	allowed    stringList
	timeout    int
	transport  string
	listen     string
	logLevel   string
	logFormat  string
	set        map[string]bool
}

func parseServeFlags(args []string) (*serveFlags, error) {
	f := &serveFlags{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "Path to YAML configuration file or directory")
	fs.StringVar(&f.configHash, "config-hash", "", "Expected BLAKE3 hash of the config file; refuse to start on mismatch")
	fs.StringVar(&f.dir, "dir", "", "Default working directory (default: current directory)")
	fs.Var(&f.allowed, "allowed", "Allowed directory root (repeatable; none means all directories)")
	fs.IntVar(&f.timeout, "timeout", config.DefaultTimeoutSeconds, "Default command timeout in seconds")
	fs.StringVar(&f.transport, "transport", config.TransportStdio, "Transport: stdio or http")
	fs.StringVar(&f.listen, "listen", "", "HTTP listen address (http transport only)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: json or text")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// loadServeConfig builds the final configuration: file (if any), then flag
// overrides, then defaults and validation.
func loadServeConfig(f *serveFlags) (*config.Config, error) {
	cfg := config.Defaults()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		if f.configHash != "" {
			if err := config.VerifyFileHash(loaded.SourcePath, f.configHash); err != nil {
				return nil, fmt.Errorf("config integrity check failed: %w", err)
			}
		}
		cfg = loaded
	} else if f.configHash != "" {
		return nil, errors.New("--config-hash requires --config")
	}

	if f.set["dir"] {
		cfg.DefaultDir = f.dir
	}
	if f.set["allowed"] {
		cfg.AllowedDirs = append([]string(nil), f.allowed...)
	}
	if f.set["timeout"] {
		if f.timeout <= 0 {
			return nil, fmt.Errorf("--timeout must be a positive number of seconds (got %d)", f.timeout)
		}
		cfg.DefaultTimeout = f.timeout
	}
	if f.set["transport"] {
		cfg.Transport = f.transport
	}
	if f.set["listen"] {
		cfg.HTTP.Listen = f.listen
	}
	if f.set["log-level"] {
		cfg.Log.Level = f.logLevel
	}
	if f.set["log-format"] {
		cfg.Log.Format = f.logFormat
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// shutdownGrace bounds how long an interrupt waits for a running command to
// be killed and reaped.
const shutdownGrace = 5 * time.Second

// httpCallLimit is the longest command timeout a call over HTTP may request.
// The server's write deadline leaves a minute on top of it for the reply.
func httpCallLimit(cfg *config.Config) time.Duration {
	limit := time.Duration(cfg.DefaultTimeout) * time.Second
	if limit < 10*time.Minute {
		limit = 10 * time.Minute
	}
	if limit > dispatch.MaxTimeout-time.Minute {
		limit = dispatch.MaxTimeout - time.Minute
	}
	return limit
}

func newDispatcher(cfg *config.Config, runner dispatch.CommandRunner) *dispatch.Dispatcher {
	dispatch.ServerVersion = currentVersionInfo().Version
	var maxTimeout time.Duration
	if cfg.Transport == config.TransportHTTP {
		maxTimeout = httpCallLimit(cfg)
	}
	return dispatch.New(
		dispatch.Config{
			DefaultDir:     cfg.DefaultDir,
			DefaultTimeout: time.Duration(cfg.DefaultTimeout) * time.Second,
			MaxTimeout:     maxTimeout,
		},
		guard.New(cfg.AllowedDirs),
		runner,
	)
}

func runServe(args []string) int {
	f, err := parseServeFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadServeConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Log.Level, cfg.Log.Format)
	logger := log.WithComponent("main")
	logStartup(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	runner := executor.New()
	d := newDispatcher(cfg, runner)

	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(ctx, cfg, d, os.Stdin, os.Stdout)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
		if !runner.Drain(shutdownGrace) {
			logger.Warn("running command did not stop in time")
		}
		return 0
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server failed", "error", err)
			return 1
		}
		logger.Info("execdir stopped")
		return 0
	}
}

// serve runs the configured transport until it stops. For stdio, end of
// input is a clean stop.
func serve(ctx context.Context, cfg *config.Config, d *dispatch.Dispatcher, in io.Reader, out io.Writer) error {
	switch cfg.Transport {
	case config.TransportHTTP:
		server := api.New(api.Config{
			Listen:          cfg.HTTP.Listen,
			APIKey:          cfg.HTTP.APIKey,
			MaxCallDuration: httpCallLimit(cfg) + time.Minute,
		}, d, log.WithComponent("api"))
		return server.Start(ctx)
	default:
		return stdio.New(d, stdio.WithReader(in), stdio.WithWriter(out)).Run(ctx)
	}
}

func logStartup(cfg *config.Config) {
	logger := log.WithComponent("main")

	allowed := "all"
	if !cfg.AllowAll() {
		allowed = strings.Join(cfg.AllowedDirs, ", ")
	}

	logger.Info("execdir starting",
		"version", currentVersionInfo().Version,
		"default_dir", cfg.DefaultDir,
		"allowed_dirs", allowed,
		"default_timeout_s", cfg.DefaultTimeout,
		"transport", cfg.Transport,
	)
	if cfg.SourcePath != "" {
		logger.Info("configuration loaded", "path", cfg.SourcePath, "blake3", cfg.Fingerprint)
	}

	if _, err := guard.New(cfg.AllowedDirs).Check(cfg.DefaultDir); err != nil {
		logger.Warn("default directory is not usable; calls without working_dir will be rejected", "error", err)
	}
}

func printUsage() {
	fmt.Print(`execdir - run shell commands in authorized directories over MCP (JSON-RPC 2.0)

Usage:
  execdir [serve] [flags]
  execdir config hash <file>
  execdir version [--json]
  execdir help

Serve flags:
  --config PATH         YAML configuration file or directory (config.yaml inside)
  --config-hash HEX     Refuse to start unless the config file has this BLAKE3 hash
  --dir PATH            Default working directory (default: current directory)
  --allowed PATH        Allowed directory root, repeatable (none: all directories)
  --timeout SECONDS     Default command timeout (default: 30)
  --transport NAME      stdio (default) or http
  --listen ADDR         HTTP listen address (default: 127.0.0.1:8787)
  --log-level LEVEL     debug, info, warn, error (default: info)
  --log-format FORMAT   json (default) or text

Requests are read from stdin and responses written to stdout, one JSON
object per line. Diagnostics go to stderr.
`)
}
