// Package config loads workbox settings from defaults, a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nuln/workbox"
)

// Bytes per MiB
const MiB = 1024 * 1024

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultRoot             = "~/sandbox"
	DefaultDriver           = workbox.DefaultDriver
	DefaultProbeTimeout     = 20 * time.Second
	DefaultRetrieveTimeout  = 20 * time.Second
	DefaultDownloadTimeout  = 120 * time.Second
	DefaultMaxDownloadBytes = 100 * MiB
	DefaultMaxContentChars  = 40000
	DefaultLogLevel         = "info"
	DefaultHTTPAddr         = "127.0.0.1:8765"
)

// Environment variables consulted by ApplyEnv and DefaultConfigPath.
const (
	EnvConfig   = "WORKBOX_CONFIG"
	EnvRoot     = "WORKBOX_ROOT"
	EnvDriver   = "WORKBOX_DRIVER"
	EnvRemote   = "WORKBOX_REMOTE"
	EnvLogLevel = "WORKBOX_LOG_LEVEL"
)

// Config contains runtime configuration for the workspace and the gateway.
// Timeouts are fixed for the lifetime of a process.
type Config struct {
	Root             string        // Sandbox root directory, "~" expands to the home directory (Default ~/sandbox)
	Driver           string        // Storage driver name (Default local)
	Remote           string        // rclone remote such as "s3:bucket/workspace", used by the rclone driver
	ProbeTimeout     time.Duration // HEAD probe timeout (Default 20s)
	RetrieveTimeout  time.Duration // Page retrieval timeout (Default 20s)
	DownloadTimeout  time.Duration // Download timeout, body included (Default 120s)
	MaxDownloadBytes int64         // Download size cap in bytes, 0 disables (Default 100MiB)
	MaxContentChars  int           // Page text cap in characters, 0 disables (Default 40000)
	LogLevel         string        // trace, debug, info, warn or error (Default info)
	HTTPAddr         string        // Listen address of the HTTP server (Default 127.0.0.1:8765)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	Root             *string        `yaml:"root,omitempty" json:"root,omitempty"`
	Driver           *string        `yaml:"driver,omitempty" json:"driver,omitempty"`
	Remote           *string        `yaml:"remote,omitempty" json:"remote,omitempty"`
	ProbeTimeout     *time.Duration `yaml:"probe_timeout,omitempty" json:"probe_timeout,omitempty"`
	RetrieveTimeout  *time.Duration `yaml:"retrieve_timeout,omitempty" json:"retrieve_timeout,omitempty"`
	DownloadTimeout  *time.Duration `yaml:"download_timeout,omitempty" json:"download_timeout,omitempty"`
	MaxDownloadBytes *int64         `yaml:"max_download_bytes,omitempty" json:"max_download_bytes,omitempty"`
	MaxContentChars  *int           `yaml:"max_content_chars,omitempty" json:"max_content_chars,omitempty"`
	LogLevel         *string        `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	HTTPAddr         *string        `yaml:"http_addr,omitempty" json:"http_addr,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		Root:             DefaultRoot,
		Driver:           DefaultDriver,
		ProbeTimeout:     DefaultProbeTimeout,
		RetrieveTimeout:  DefaultRetrieveTimeout,
		DownloadTimeout:  DefaultDownloadTimeout,
		MaxDownloadBytes: DefaultMaxDownloadBytes,
		MaxContentChars:  DefaultMaxContentChars,
		LogLevel:         DefaultLogLevel,
		HTTPAddr:         DefaultHTTPAddr,
	}
}

// Merge applies non-nil values from override onto this Config.
func (c *Config) Merge(override *ConfigOverride) {
	if override.Root != nil {
		c.Root = *override.Root
	}
	if override.Driver != nil {
		c.Driver = *override.Driver
	}
	if override.Remote != nil {
		c.Remote = *override.Remote
	}
	if override.ProbeTimeout != nil {
		c.ProbeTimeout = *override.ProbeTimeout
	}
	if override.RetrieveTimeout != nil {
		c.RetrieveTimeout = *override.RetrieveTimeout
	}
	if override.DownloadTimeout != nil {
		c.DownloadTimeout = *override.DownloadTimeout
	}
	if override.MaxDownloadBytes != nil {
		c.MaxDownloadBytes = *override.MaxDownloadBytes
	}
	if override.MaxContentChars != nil {
		c.MaxContentChars = *override.MaxContentChars
	}
	if override.LogLevel != nil {
		c.LogLevel = *override.LogLevel
	}
	if override.HTTPAddr != nil {
		c.HTTPAddr = *override.HTTPAddr
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// YAML (.yaml, .yml) and JSON (.json) are both decoded by the YAML parser, so
// durations may be written as "20s" in either.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}

// Load builds the effective configuration: defaults, then the file at path,
// then environment variables. An empty path means DefaultConfigPath, which
// may be absent.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	cfg, err := NewConfigFromFile(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = NewDefaultConfig()
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath returns $WORKBOX_CONFIG, or ~/.workbox/config.yaml.
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".workbox", "config.yaml")
	}
	return filepath.Join(home, ".workbox", "config.yaml")
}

// ApplyEnv overrides fields from WORKBOX_* environment variables.
func (c *Config) ApplyEnv() {
	for env, field := range map[string]*string{
		EnvRoot:     &c.Root,
		EnvDriver:   &c.Driver,
		EnvRemote:   &c.Remote,
		EnvLogLevel: &c.LogLevel,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = v
		}
	}
}

// Validate rejects configurations that cannot be served.
func (c *Config) Validate() error {
	for name, d := range map[string]time.Duration{
		"probe_timeout":    c.ProbeTimeout,
		"retrieve_timeout": c.RetrieveTimeout,
		"download_timeout": c.DownloadTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.MaxDownloadBytes < 0 {
		return fmt.Errorf("max_download_bytes must not be negative, got %d", c.MaxDownloadBytes)
	}
	if c.MaxContentChars < 0 {
		return fmt.Errorf("max_content_chars must not be negative, got %d", c.MaxContentChars)
	}
	if c.Driver == "rclone" && c.Remote == "" {
		return errors.New("driver rclone requires remote")
	}
	return nil
}

// RootPath returns Root with a leading "~" expanded, as an absolute path.
func (c *Config) RootPath() (string, error) {
	return Expand(c.Root)
}

// Storage returns the storage engine configuration for the driver registry.
func (c *Config) Storage() (*workbox.Config, error) {
	cfg := &workbox.Config{Type: c.Driver}
	if c.Driver == "rclone" {
		cfg.Options = map[string]any{"remote": c.Remote}
		return cfg, nil
	}
	root, err := c.RootPath()
	if err != nil {
		return nil, err
	}
	cfg.BasePath = root
	return cfg, nil
}

// ExpandHome expands a path like "~", "~/", "~/foo" against homeDir.
func ExpandHome(orig, homeDir string) (string, error) {
	s := orig
	if s == "" {
		return "", errors.New("empty path")
	}

	if strings.HasPrefix(s, "~") {
		if s == "~" || strings.HasPrefix(s, "~/") {
			s = strings.Replace(s, "~", homeDir, 1)
		} else {
			// Paths like "~foo/bar" are unsupported.
			return "", fmt.Errorf("unexpandable path %q", orig)
		}
	}
	return s, nil
}

// Expand expands a path like "~", "~/", "~/foo" on the host.
func Expand(orig string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	s, err := ExpandHome(orig, homeDir)
	if err != nil {
		return "", err
	}
	return filepath.Abs(s)
}
