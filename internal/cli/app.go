package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pegboard-io/pegboard/internal/config"
	"github.com/pegboard-io/pegboard/internal/prompt"
	"github.com/pegboard-io/pegboard/internal/tenant"
)

// App holds all the dependencies for the CLI.
type App struct {
	Config   config.Config
	Registry *tenant.Registry
	Prompter prompt.Prompter
}

// NewApp loads configuration and wires up the store registry.
// A non-empty dataDir overrides the configured data directory.
// If interactive is false, uses NoopPrompter that fails on prompts.
func NewApp(configPath string, dataDir string, interactive bool) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	setupLogging(cfg.LogLevel)

	registry, err := tenant.NewRegistry(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	var prompter prompt.Prompter
	if interactive {
		prompter = prompt.NewHuhPrompter()
	} else {
		prompter = &prompt.NoopPrompter{}
	}

	return &App{
		Config:   cfg,
		Registry: registry,
		Prompter: prompter,
	}, nil
}

// setupLogging installs a JSON slog handler at the configured level.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// Close releases every open store handle.
func (a *App) Close() error {
	return a.Registry.Close()
}

// Fatal prints an error and exits.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
