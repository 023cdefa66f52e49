// Package main is the entry point for the pose-mock server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (config file, env vars, flags)
//  2. Create dependencies (the logger)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// Each executable gets its own directory with its own main.go.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/pose-mock/internal/config"
	"github.com/sakif/pose-mock/internal/server"
)

// flags holds the command-line overrides. Zero values mean "not given".
type flags struct {
	configPath string
	port       int
	host       string
	store      string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "pose-mock",
		Short: "Stateful stub of the pose library API for frontend end-to-end tests",
		Long: `pose-mock serves the pose library REST API from an in-memory store.

Every bearer token is accepted and resolves to the same test user, so browser
test suites can log in, create categories, poses and sequences, and upload
schema images without a real backend.

Examples:
  # Defaults: 127.0.0.1:8000, memory store, stub auth
  pose-mock

  # Keep data between restarts
  pose-mock --store sqlite --config pose-mock.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.Log, os.Stdout)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
			return srv.Start()
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "Listen port (overrides PORT)")
	cmd.Flags().StringVar(&f.host, "host", "", "Listen host (overrides HOST)")
	cmd.Flags().StringVar(&f.store, "store", "", "Store driver: memory|sqlite (overrides STORE_DRIVER)")

	return cmd
}

// loadConfig applies defaults, then the file, then the environment, then
// any flags that were set explicitly.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = f.host
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Driver = f.store
		if f.store == config.DriverSQLite && cfg.Store.Path == ":memory:" {
			cfg.Store.Path = "data/pose-mock.db"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger.
//
// Log levels (from least to most severe): Debug → Info → Warn → Error.
// The text handler is for humans at a terminal; json is for log shippers.
func newLogger(cfg config.LogConfig, out io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(out, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
