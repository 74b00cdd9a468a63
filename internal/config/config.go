package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/loykin/proctor/internal/env"
	"github.com/loykin/proctor/internal/logger"
)

// Config represents the top-level TOML structure consumed by the serve
// command.
type Config struct {
	Root    string         `toml:"root" mapstructure:"root"`
	Log     *LogConfig     `toml:"log" mapstructure:"log"`
	Server  *ServerConfig  `toml:"server" mapstructure:"server"`
	Metrics *MetricsConfig `toml:"metrics" mapstructure:"metrics"`
	History *HistoryConfig `toml:"history" mapstructure:"history"`
	Locking *LockingConfig `toml:"locking" mapstructure:"locking"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Path       string `toml:"path" mapstructure:"path"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

type ServerConfig struct {
	Listen   string     `toml:"listen" mapstructure:"listen"`
	BasePath string     `toml:"base_path" mapstructure:"base_path"`
	PidFile  string     `toml:"pidfile" mapstructure:"pidfile"`
	TLS      *TLSConfig `toml:"tls" mapstructure:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `toml:"enabled" mapstructure:"enabled"`
	CertFile string `toml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `toml:"key_file" mapstructure:"key_file"`
	// Dir is consulted when cert_file/key_file are unset; certificates
	// are expected (or generated) as tls.crt and tls.key inside it.
	Dir          string      `toml:"dir" mapstructure:"dir"`
	AutoGenerate bool        `toml:"auto_generate" mapstructure:"auto_generate"`
	MinVersion   string      `toml:"min_version" mapstructure:"min_version"`
	MaxVersion   string      `toml:"max_version" mapstructure:"max_version"`
	AutoGen      *AutoGenTLS `toml:"auto_gen" mapstructure:"auto_gen"`
}

// AutoGenTLS tunes self-signed certificate generation when
// auto_generate is on.
type AutoGenTLS struct {
	CommonName   string   `toml:"common_name" mapstructure:"common_name"`
	Organization string   `toml:"organization" mapstructure:"organization"`
	DNSNames     []string `toml:"dns_names" mapstructure:"dns_names"`
	IPAddresses  []string `toml:"ip_addresses" mapstructure:"ip_addresses"`
	ValidDays    int      `toml:"valid_days" mapstructure:"valid_days"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type LockingConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`
}

// Defaults applied by Load when the file leaves them unset.
const (
	DefaultListen   = "127.0.0.1:8080"
	DefaultBasePath = "/api"
)

// Load parses a TOML config file. The registry root is required;
// relative paths (root, pidfile, TLS material, log path) are resolved
// against the config file directory so the file relocates cleanly.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.expand(env.New())

	if c.Root == "" {
		return nil, fmt.Errorf("config %s: root directory is required", path)
	}
	baseDir := filepath.Dir(path)
	c.Root = resolvePath(baseDir, c.Root)

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
	c.Server.PidFile = resolvePath(baseDir, c.Server.PidFile)
	if c.Server.TLS != nil {
		c.Server.TLS.CertFile = resolvePath(baseDir, c.Server.TLS.CertFile)
		c.Server.TLS.KeyFile = resolvePath(baseDir, c.Server.TLS.KeyFile)
		c.Server.TLS.Dir = resolvePath(baseDir, c.Server.TLS.Dir)
	}
	if c.Log != nil {
		c.Log.Path = resolvePath(baseDir, c.Log.Path)
	}
	return &c, nil
}

// expand interpolates ${VAR} references in path, DSN and listen fields
// so secrets and host-specific locations can stay out of the file.
func (c *Config) expand(e *env.Env) {
	c.Root = e.Expand(c.Root)
	if c.Log != nil {
		c.Log.Path = e.Expand(c.Log.Path)
	}
	if c.History != nil {
		c.History.DSN = e.Expand(c.History.DSN)
	}
	if c.Metrics != nil {
		c.Metrics.Listen = e.Expand(c.Metrics.Listen)
	}
	if c.Server != nil {
		c.Server.Listen = e.Expand(c.Server.Listen)
		c.Server.PidFile = e.Expand(c.Server.PidFile)
		if t := c.Server.TLS; t != nil {
			t.CertFile = e.Expand(t.CertFile)
			t.KeyFile = e.Expand(t.KeyFile)
			t.Dir = e.Expand(t.Dir)
		}
	}
}

// LoggerConfig converts the TOML log section into the logger package's
// configuration, applying its defaults for unset rotation values.
func (c *Config) LoggerConfig() logger.Config {
	if c.Log == nil {
		return logger.Config{}
	}
	return logger.Config{
		Level:      c.Log.Level,
		Path:       c.Log.Path,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// LockingEnabled reports whether the advisory registry lock is turned
// on in this configuration.
func (c *Config) LockingEnabled() bool {
	return c.Locking != nil && c.Locking.Enabled
}

// HistoryDSN returns the configured history sink DSN, empty when
// history export is not configured.
func (c *Config) HistoryDSN() string {
	if c.History == nil {
		return ""
	}
	return c.History.DSN
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
