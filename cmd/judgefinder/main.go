// Command judgefinder resolves judge names in docket text against rosters of
// known judges. It serves the resolver over HTTP and MCP, runs it from the
// command line, and imports rosters from public sources.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/judgefinder/pkg/api"
	"github.com/hazyhaar/judgefinder/pkg/chassis"
	"github.com/hazyhaar/judgefinder/pkg/importer"
	"github.com/hazyhaar/judgefinder/pkg/namefind"
	"github.com/hazyhaar/judgefinder/pkg/roster"
)

const version = "0.1.0"

type tlsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type config struct {
	Addr          string        `yaml:"addr"`
	RostersDir    string        `yaml:"rosters_dir"`
	DefaultMode   string        `yaml:"default_mode"`
	BatchWorkers  int           `yaml:"batch_workers"`
	MaxBatch      int           `yaml:"max_batch"`
	TLS           tlsConfig     `yaml:"tls"`
	MCPEnabled    bool          `yaml:"mcp_enabled"`
	CheckInterval time.Duration `yaml:"check_interval"`
	LogLevel      string        `yaml:"log_level"`

	mode  namefind.Mode
	level slog.Level
}

func defaultConfig() config {
	return config{
		Addr:          ":8443",
		RostersDir:    "rosters",
		DefaultMode:   string(namefind.ModeBest),
		MaxBatch:      api.DefaultMaxBatch,
		TLS:           tlsConfig{Enabled: true},
		MCPEnabled:    true,
		CheckInterval: 24 * time.Hour,
		LogLevel:      "info",
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if cfg.mode, err = namefind.ParseMode(cfg.DefaultMode); err != nil {
		return cfg, fmt.Errorf("default_mode: %w", err)
	}
	if err := cfg.level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return cfg, fmt.Errorf("log_level: %w", err)
	}
	if cfg.BatchWorkers < 0 || cfg.MaxBatch < 0 {
		return cfg, errors.New("batch_workers and max_batch must not be negative")
	}
	return cfg, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		cmdServe(args)
	case "find":
		cmdFind(args)
	case "remote":
		cmdRemote(args)
	case "import":
		cmdImport(args)
	case "sources":
		cmdSources(args)
	case "mcp":
		cmdMCP(args)
	case "version":
		fmt.Println("judgefinder", version)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: judgefinder <command> [flags]

Commands:
  serve     Start the HTTP/3 + MCP server
  find      Resolve judge names in text from arguments or stdin
  remote    Resolve judge names through a running server over QUIC
  import    Download and build rosters from public sources
  sources   List, override or check roster source URLs
  mcp       Serve the MCP tools on stdin/stdout
  version   Print the version
`)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

// setup loads the config file named by the -config flag and the registry.
func setup(cfgPath, rostersDir string) (config, *slog.Logger, *roster.Registry) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fatal(newLogger(slog.LevelInfo), "config", err)
	}
	if rostersDir != "" {
		cfg.RostersDir = rostersDir
	}
	logger := newLogger(cfg.level)
	slog.SetDefault(logger)

	reg := roster.NewRegistry(cfg.RostersDir)
	reg.SetWorkers(cfg.BatchWorkers)
	if err := reg.Load(); err != nil {
		fatal(logger, "failed to load rosters", err)
	}
	logger.Debug("rosters loaded", "dir", cfg.RostersDir, "count", reg.RosterCount(), "entries", reg.TotalEntries())
	return cfg, logger, reg
}

func newEndpoints(cfg config, reg *roster.Registry, logger *slog.Logger) *api.Endpoints {
	return api.NewEndpoints(reg, api.Config{DefaultMode: cfg.mode, MaxBatch: cfg.MaxBatch, Logger: logger})
}

func newMCPServer(eps *api.Endpoints) *server.MCPServer {
	srv := server.NewMCPServer("judgefinder", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, eps)
	return srv
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger, reg := setup(*cfgPath, "")
	logger.Info("rosters loaded", "count", reg.RosterCount(), "entries", reg.TotalEntries())

	eps := newEndpoints(cfg, reg, logger)
	var mcpSrv *server.MCPServer
	if cfg.MCPEnabled && cfg.TLS.Enabled {
		mcpSrv = newMCPServer(eps)
	}

	srv, err := chassis.New(chassis.Config{
		Addr:      cfg.Addr,
		Plain:     !cfg.TLS.Enabled,
		CertFile:  cfg.TLS.CertFile,
		KeyFile:   cfg.TLS.KeyFile,
		Handler:   api.NewRouter(eps),
		MCPServer: mcpSrv,
		Logger:    logger,
	})
	if err != nil {
		fatal(logger, "chassis", err)
	}

	// SIGINT/SIGTERM: graceful shutdown. SIGHUP: reload rosters.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading rosters")
			if err := reg.Reload(); err != nil {
				logger.Error("reload failed, keeping previous rosters", "error", err)
				continue
			}
			logger.Info("rosters reloaded", "count", reg.RosterCount(), "entries", reg.TotalEntries())
		}
	}()

	if cfg.CheckInterval > 0 {
		sdb, err := openSources(cfg.RostersDir)
		if err != nil {
			logger.Warn("source checks disabled", "error", err)
		} else {
			defer sdb.Close()
			go importer.NewChecker(sdb, logger, cfg.CheckInterval).Start(ctx)
		}
	}

	if err := srv.Serve(ctx); err != nil {
		fatal(logger, "server error", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err)
	}
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	rostersDir := fs.String("rosters", "", "rosters directory (overrides config)")
	fs.Parse(args)

	cfg, logger, reg := setup(*cfgPath, *rostersDir)
	srv := newMCPServer(newEndpoints(cfg, reg, logger))
	if err := server.ServeStdio(srv); err != nil {
		fatal(logger, "mcp stdio", err)
	}
}

// openSources opens rostersDir/sources.db and seeds it with every adapter.
func openSources(rostersDir string) (*importer.SourceDB, error) {
	if err := os.MkdirAll(rostersDir, 0o755); err != nil {
		return nil, err
	}
	sdb, err := importer.OpenSourceDB(filepath.Join(rostersDir, "sources.db"))
	if err != nil {
		return nil, err
	}
	if err := sdb.Seed(importer.All()); err != nil {
		sdb.Close()
		return nil, err
	}
	return sdb, nil
}

func splitIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
