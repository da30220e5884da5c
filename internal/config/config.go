// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/signal-relay/config.toml",
	"configs/config.toml",
}

// Archive drivers.
const (
	ArchiveNone   = ""
	ArchiveMongo  = "mongo"
	ArchiveSQLite = "sqlite"
)

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config        string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host          string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port          int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	ForwardURL    string `kong:"help='Forward target URL; empty disables forwarding (overrides config).',env='FORWARD_URL'"`
	ForwardToken  string `kong:"help='Bearer token sent to the forward target (overrides config).',env='FORWARD_TOKEN'"`
	LogLevel      string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	ArchiveDriver string `kong:"help='Archive driver: mongo|sqlite (overrides config).',env='ARCHIVE_DRIVER'"`
	ArchiveURI    string `kong:"help='Archive connection URI or SQLite path (overrides config).',env='ARCHIVE_URI'"`
}

// Config is the top-level application configuration. It is built once at
// startup and treated as read-only afterwards.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Forward ForwardConfig `toml:"forward"`
	Archive ArchiveConfig `toml:"archive"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means "use default" (3000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// ForwardConfig holds the optional downstream relay target.
type ForwardConfig struct {
	URL             string `toml:"url"`
	Token           string `toml:"token"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
	// Await makes the webhook handler wait for the forward task before replying.
	// The response content never depends on the outcome.
	Await *bool `toml:"await"`
}

// ArchiveConfig selects and configures the signal archive backend.
type ArchiveConfig struct {
	Driver         string `toml:"driver"`
	URI            string `toml:"uri"`
	Database       string `toml:"database"`
	Collection     string `toml:"collection"`
	Path           string `toml:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file, if any, and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/signal-relay/config.toml then configs/config.toml. Running without any
// config file is allowed; flags, environment and defaults then apply.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.ForwardURL != "" {
		c.Forward.URL = cli.ForwardURL
	}
	if cli.ForwardToken != "" {
		c.Forward.Token = cli.ForwardToken
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.ArchiveDriver != "" {
		c.Archive.Driver = cli.ArchiveDriver
	}
	if cli.ArchiveURI != "" {
		switch strings.ToLower(c.Archive.Driver) {
		case ArchiveSQLite:
			c.Archive.Path = cli.ArchiveURI
		default:
			c.Archive.URI = cli.ArchiveURI
		}
	}
}

func (c *Config) validate() error {
	if c.Forward.Token == "YOUR_TOKEN_HERE" {
		return fmt.Errorf("forward.token contains placeholder value; set a real token or leave empty")
	}

	// Forward URL is optional, but must be absolute http(s) when set.
	if c.Forward.URL != "" {
		u, err := url.Parse(c.Forward.URL)
		if err != nil {
			return fmt.Errorf("forward.url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("forward.url must use http or https; got %q", c.Forward.URL)
		}
		if u.Host == "" {
			return fmt.Errorf("forward.url must include a host; got %q", c.Forward.URL)
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Forward.TimeoutSeconds < 0 {
		return fmt.Errorf("forward.timeout_seconds must be non-negative; got %d", c.Forward.TimeoutSeconds)
	}
	if c.Forward.IdleConnections < 0 {
		return fmt.Errorf("forward.idle_connections must be non-negative; got %d", c.Forward.IdleConnections)
	}
	if c.Archive.TimeoutSeconds < 0 {
		return fmt.Errorf("archive.timeout_seconds must be non-negative; got %d", c.Archive.TimeoutSeconds)
	}

	// Archive backend.
	switch strings.ToLower(c.Archive.Driver) {
	case ArchiveNone, ArchiveSQLite:
	case ArchiveMongo:
		if c.Archive.URI == "" {
			return fmt.Errorf("archive.uri is required when archive.driver is %q", ArchiveMongo)
		}
	default:
		return fmt.Errorf("archive.driver must be one of: mongo, sqlite; got %q", c.Archive.Driver)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings must be non-negative")
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		if p == "/" {
			return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, "/")
		}
		for _, reserved := range []string{"/webhook", "/health", "/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key. Setting port=0 in
// the config file therefore results in the default port (3000).
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1024 * 1024 // 1 MB
	}
	if c.Forward.TimeoutSeconds == 0 {
		c.Forward.TimeoutSeconds = 5
	}
	if c.Forward.IdleConnections == 0 {
		c.Forward.IdleConnections = 16
	}
	if c.Forward.Await == nil {
		await := true
		c.Forward.Await = &await
	}
	c.Archive.Driver = strings.ToLower(c.Archive.Driver)
	if c.Archive.Database == "" {
		c.Archive.Database = "signal_relay"
	}
	if c.Archive.Collection == "" {
		c.Archive.Collection = "signals"
	}
	if c.Archive.Path == "" {
		c.Archive.Path = "data/signals.db"
	}
	if c.Archive.TimeoutSeconds == 0 {
		c.Archive.TimeoutSeconds = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a forward target is configured.
func (c *ForwardConfig) Enabled() bool {
	return c.URL != ""
}

// Timeout returns the per-attempt forward timeout.
func (c *ForwardConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ShouldAwait reports whether the handler waits for the forward task.
func (c *ForwardConfig) ShouldAwait() bool {
	return c.Await == nil || *c.Await
}

// Timeout returns the per-write archive timeout.
func (c *ArchiveConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
