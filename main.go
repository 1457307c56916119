package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tally/internal/config"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/tracker"
	"github.com/sadopc/tally/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: user config dir)")
	dbPath := flag.String("db", "", "path to the tracker database (overrides config)")
	flag.Parse()

	if err := run(*configPath, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dbPath string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	s, err := store.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	engine := tracker.NewEngine(s, tracker.WithLogger(logger))
	if err := engine.Load(); err != nil {
		logger.Error("failed to load trackers", "error", err)
		return err
	}
	logger.Info("tally started", "db", cfg.DBPath, "trackers", len(engine.Trackers()))

	app := tui.NewApp(engine, s, tui.WithTickInterval(cfg.TickInterval), tui.WithLogger(logger))
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}

	if err := engine.Flush(); err != nil {
		logger.Error("unsaved trackers at exit", "error", err)
		return err
	}
	logger.Info("tally stopped")
	return nil
}

// newLogger writes JSON logs to cfg.LogPath. The terminal belongs to the UI,
// so an empty path discards logs.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.LogPath == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level()}))
	return logger, func() { f.Close() }, nil
}
