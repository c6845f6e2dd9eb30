// Package main implements the ocs-dash interactive dashboard: a live log
// feed from the OCS backend next to a task board for the active goal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"ocs/internal/appversion"
	"ocs/pkg/config"
	"ocs/pkg/protocol"
)

// options are the command-line flags. Set flags override the config file
// and the environment.
type options struct {
	configPath string
	goal       string
	mode       string
	baseURL    string
	logFile    string
	robot      bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout *os.File) error {
	var opts options
	flagSet := pflag.NewFlagSet("ocs-dash", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "config file (default ~/.ocs/config.toml, or $OCS_CONFIG)")
	flagSet.StringVar(&opts.goal, "goal", "", "goal id to show on start")
	flagSet.StringVar(&opts.mode, "mode", "", "live feed transport: ws or sse")
	flagSet.StringVar(&opts.baseURL, "base-url", "", "backend base URL")
	flagSet.StringVar(&opts.logFile, "log-file", "", "log file (default ~/.ocs/ocs-dash.log)")
	flagSet.BoolVar(&opts.robot, "robot", false, "print a JSON snapshot of the board and exit")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, "ocs-dash", appversion.String())
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	load := func() (config.Config, error) { return loadConfig(opts) }
	cfg, err := load()
	if err != nil {
		return err
	}

	robot := opts.robot || !isatty.IsTerminal(stdout.Fd())
	if robot {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		d := liveDeps(logger)
		data, err := robotMode(context.Background(), d.source(cfg), cfg.Goal, cfg.Matcher())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	level := new(slog.LevelVar)
	level.Set(cfg.Level())
	logger, closeLog, err := openLogger(cfg.LogFile, level)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Info("ocs-dash starting", "version", appversion.String(), "base_url", cfg.BaseURL, "mode", string(cfg.Mode))

	d := liveDeps(logger)
	d.reload = load
	d.level = level
	path, _ := config.ResolvePath(opts.configPath)
	d.watcher = watchConfigFile(path, logger)

	p := tea.NewProgram(newModel(cfg, d, logger), tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.shutdown()
	}
	if err != nil {
		return err
	}
	logger.Info("ocs-dash stopped")
	return nil
}

// loadConfig reads the config and applies flag overrides.
func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if opts.mode != "" {
		mode, err := protocol.ParseMode(opts.mode)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Mode = mode
	}
	if opts.goal != "" {
		cfg.Goal = opts.goal
	}
	if opts.logFile != "" {
		cfg.LogFile = opts.logFile
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openLogger opens the dashboard log file. The terminal belongs to the
// UI, so nothing is logged to stderr while it runs.
func openLogger(path string, level slog.Leveler) (*slog.Logger, func(), error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
		}
		path = filepath.Join(home, protocol.OCSDir, protocol.DashLogFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // user-chosen log path
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}
