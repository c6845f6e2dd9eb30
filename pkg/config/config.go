// Package config loads the ocs client configuration from ~/.ocs/config.toml
// (or a YAML file), applies environment overrides and derives the backend
// URLs used by the dashboard and the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ocs/pkg/board"
	"ocs/pkg/feed"
	"ocs/pkg/protocol"
)

// Environment variables read by Load.
const (
	EnvConfig  = "OCS_CONFIG"
	EnvBaseURL = "OCS_BASE_URL"
	EnvMode    = "OCS_FEED_MODE"
	EnvGoal    = "OCS_GOAL"
)

// DefaultBaseURL is the local development backend.
const DefaultBaseURL = "http://localhost:8000"

// DefaultPollInterval is the task board refresh cadence.
const DefaultPollInterval = 2 * time.Second

// Duration is a time.Duration that reads and writes as "2s" in both TOML
// and YAML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the client configuration.
type Config struct {
	BaseURL        string        `toml:"base_url" yaml:"base_url"`
	Mode           protocol.Mode `toml:"mode" yaml:"mode"`
	PollInterval   Duration      `toml:"poll_interval" yaml:"poll_interval"`
	RequestTimeout Duration      `toml:"request_timeout" yaml:"request_timeout"`
	ReconnectDelay Duration      `toml:"reconnect_delay" yaml:"reconnect_delay"`
	StatusMatching string        `toml:"status_matching" yaml:"status_matching"`
	Goal           string        `toml:"goal,omitempty" yaml:"goal,omitempty"`
	LogFile        string        `toml:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogLevel       string        `toml:"log_level" yaml:"log_level"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-" yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Mode:           protocol.ModeSocket,
		PollInterval:   Duration(DefaultPollInterval),
		RequestTimeout: Duration(10 * time.Second),
		ReconnectDelay: Duration(feed.DefaultReconnectDelay),
		StatusMatching: board.MatchStrict,
		LogLevel:       "info",
	}
}

// DefaultPath returns ~/.ocs/config.toml, or "" if the home directory is
// unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, protocol.OCSDir, protocol.ConfigFile)
}

// ResolvePath picks the config file: explicit flag value, then
// $OCS_CONFIG, then DefaultPath. explicit reports whether the file was
// asked for by the user, in which case it must exist.
func ResolvePath(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if v := os.Getenv(EnvConfig); v != "" {
		return v, true
	}
	return DefaultPath(), false
}

// Load reads the config file chosen by ResolvePath(flagValue), applies
// environment overrides and validates the result. A missing default file
// yields the defaults.
func Load(flagValue string) (Config, error) {
	path, explicit := ResolvePath(flagValue)

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, &cfg); err != nil {
				return Config{}, err
			}
			cfg.Path = path
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml", "":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("config %s: unsupported format %q (want .toml or .yaml)", path, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvMode); v != "" {
		m, err := protocol.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMode, err)
		}
		c.Mode = m
	}
	if v := os.Getenv(EnvGoal); v != "" {
		c.Goal = v
	}
	return nil
}

// ValidationError lists every problem found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks every field and reports all problems at once. The mode
// is normalised in place, so "socket" becomes "ws".
func (c *Config) Validate() error {
	var problems []string

	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("base_url: %v", err))
	case u.Scheme != "http" && u.Scheme != "https":
		problems = append(problems, fmt.Sprintf("base_url %q: scheme must be http or https", c.BaseURL))
	case u.Host == "":
		problems = append(problems, fmt.Sprintf("base_url %q: missing host", c.BaseURL))
	}

	if m, err := protocol.ParseMode(string(c.Mode)); err != nil {
		problems = append(problems, "mode: "+err.Error())
	} else {
		c.Mode = m
	}

	durations := []struct {
		name  string
		value Duration
	}{
		{"poll_interval", c.PollInterval},
		{"request_timeout", c.RequestTimeout},
		{"reconnect_delay", c.ReconnectDelay},
	}
	for _, d := range durations {
		if d.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %s", d.name, d.value.Std()))
		}
	}

	if _, err := board.MatcherFor(c.StatusMatching); err != nil {
		problems = append(problems, "status_matching: "+err.Error())
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, "log_level: "+err.Error())
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level. Empty is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	lvl, _ := ParseLevel(c.LogLevel)
	return lvl
}

// Matcher returns the configured status matcher.
func (c Config) Matcher() board.Matcher {
	m, err := board.MatcherFor(c.StatusMatching)
	if err != nil {
		return board.Strict
	}
	return m
}

func (c Config) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// TasksURL is the task list endpoint for goalID.
func (c Config) TasksURL(goalID string) string {
	return c.GoalsURL() + "/" + url.PathEscape(goalID) + "/tasks"
}

// GoalsURL is the goal collection endpoint.
func (c Config) GoalsURL() string {
	return c.base() + protocol.GoalsPath
}

// AdvanceURL is the phase transition endpoint for goalID.
func (c Config) AdvanceURL(goalID string) string {
	return c.GoalsURL() + "/" + url.PathEscape(goalID) + "/advance"
}

// StreamURL is the Server-Sent Events feed.
func (c Config) StreamURL() string {
	return c.base() + protocol.StreamFeedPath
}

// SocketURL is the WebSocket feed; http becomes ws and https becomes wss.
func (c Config) SocketURL() string {
	base := c.base()
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + protocol.SocketFeedPath
}

// Endpoints returns both feed URLs.
func (c Config) Endpoints() feed.Endpoints {
	return feed.Endpoints{SocketURL: c.SocketURL(), StreamURL: c.StreamURL()}
}

// FeedOptions returns transport options derived from the config.
func (c Config) FeedOptions(logger *slog.Logger) feed.Options {
	return feed.Options{ReconnectDelay: c.ReconnectDelay.Std(), Logger: logger}
}

// Encode renders the config in TOML.
func Encode(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
