// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, flag overrides, validation and logger
// setup to reduce boilerplate across commands.
package appctx

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lherron/fitmigrate/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration with flag overrides applied
	Config *config.Config

	// Logger writes structured logs to the command's stderr
	Logger *slog.Logger
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsSourceUser requires a source user id to be configured.
	NeedsSourceUser bool
}

// DefaultOptions returns options for commands that only inspect
// configuration.
func DefaultOptions() Options {
	return Options{}
}

// ForExport returns options for commands that select rows by owner.
func ForExport() Options {
	return Options{NeedsSourceUser: true}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	cfg, err := config.Load(flagString(cmd, "config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.NeedsSourceUser {
		if err := cfg.RequireSourceUser(); err != nil {
			return nil, err
		}
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return &App{Config: cfg, Logger: logger}, nil
}

// applyFlags overrides configuration with flags the user set explicitly
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	overrides := map[string]*string{
		"source-dir":  &cfg.SourceDir,
		"out":         &cfg.OutputPath,
		"source-user": &cfg.SourceUserID,
		"placeholder": &cfg.PlaceholderID,
		"schema":      &cfg.Schema,
		"log-level":   &cfg.LogLevel,
		"format":      &cfg.Output,
	}

	switches := map[string]*bool{
		"strict":    &cfg.Strict,
		"porcelain": &cfg.Porcelain,
	}

	var err error
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		if target, ok := overrides[flag.Name]; ok {
			*target = flag.Value.String()
			return
		}
		if target, ok := switches[flag.Name]; ok {
			v, parseErr := strconv.ParseBool(flag.Value.String())
			if parseErr != nil {
				err = fmt.Errorf("invalid --%s value: %w", flag.Name, parseErr)
				return
			}
			*target = v
		}
	})

	return err
}

func flagString(cmd *cobra.Command, name string) string {
	if flag := cmd.Flag(name); flag != nil {
		return flag.Value.String()
	}
	return ""
}
