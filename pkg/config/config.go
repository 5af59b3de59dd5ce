package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// Config represents the complete process configuration: ambient settings
// (logging, the REST bridge, rate limiting, the daemon) loaded from
// config.yaml via Viper. The per-database FTS directory is resolved
// separately through fts.conf / fts.ini (see ResolveFTSDirectory).
type Config struct {
	Profile   string          `mapstructure:"profile"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	RestAPI   RestAPIConfig   `mapstructure:"rest_api"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Daemon    DaemonConfig    `mapstructure:"daemon"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CatalogConfig holds the catalog (host DB stand-in) connection settings.
type CatalogConfig struct {
	Path         string `mapstructure:"path"`
	DatabaseName string `mapstructure:"database_name"`
}

// RestAPIConfig holds REST bridge configuration (C12).
type RestAPIConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	CORS         bool     `mapstructure:"cors"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	APIKey       string   `mapstructure:"api_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DaemonConfig holds the optional background UPDATE_INDEXES scheduler.
type DaemonConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// RateLimitConfig throttles expensive routine invocations over the REST
// bridge (REBUILD_INDEX, OPTIMIZE_INDEX, UPDATE_INDEXES, SEARCH).
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".fts-udr")

	return &Config{
		Profile: "default",
		Catalog: CatalogConfig{
			Path:         filepath.Join(configDir, "catalog.db"),
			DatabaseName: "default",
		},
		RestAPI: RestAPIConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    3032,
			CORS:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Daemon: DaemonConfig{
			Enabled:  false,
			Interval: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			BurstSize:         10,
		},
	}
}

// Load loads the ambient configuration (config.yaml) with fallback to
// defaults. Search order: ./config.yaml, ~/.fts-udr/config.yaml,
// /etc/fts-udr/config.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	homeDir, _ := os.UserHomeDir()
	v.AddConfigPath(filepath.Join(homeDir, ".fts-udr"))
	v.AddConfigPath("/etc/fts-udr")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("profile", d.Profile)
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("catalog.database_name", d.Catalog.DatabaseName)
	v.SetDefault("rest_api.enabled", d.RestAPI.Enabled)
	v.SetDefault("rest_api.host", d.RestAPI.Host)
	v.SetDefault("rest_api.port", d.RestAPI.Port)
	v.SetDefault("rest_api.cors", d.RestAPI.CORS)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("daemon.enabled", d.Daemon.Enabled)
	v.SetDefault("daemon.interval", d.Daemon.Interval.String())
	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst_size", d.RateLimit.BurstSize)
}

// Validate validates the ambient configuration.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.RestAPI.Enabled {
		if c.RestAPI.Port < 1 || c.RestAPI.Port > 65535 {
			return fmt.Errorf("rest_api.port must be between 1 and 65535")
		}
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}

// searchPaths enumerates the directories consulted for fts.conf / fts.ini,
// in the order they are tried: working directory, user config directory,
// system-wide directory.
func searchPaths() []string {
	homeDir, _ := os.UserHomeDir()
	return []string{
		".",
		filepath.Join(homeDir, ".fts-udr"),
		"/etc/fts-udr",
	}
}

// ResolveFTSDirectory resolves the on-disk index root for databaseName:
// fts.conf is tried before fts.ini at each search path, and the first
// path with a matching, non-empty ftsDirectory wins.
func ResolveFTSDirectory(databaseName string) (string, error) {
	if databaseName == "" {
		return "", ftserr.New(ftserr.ArgumentNull, "database name is required to resolve the FTS directory")
	}

	var tried []string
	for _, dir := range searchPaths() {
		confPath := filepath.Join(dir, "fts.conf")
		if dirPath, ok, err := readFTSConf(confPath, databaseName); err != nil {
			return "", err
		} else if ok {
			return dirPath, nil
		} else {
			tried = append(tried, confPath)
		}

		iniPath := filepath.Join(dir, "fts.ini")
		if dirPath, ok, err := readFTSIni(iniPath, databaseName); err != nil {
			return "", err
		} else if ok {
			return dirPath, nil
		} else {
			tried = append(tried, iniPath)
		}
	}

	return "", ftserr.New(ftserr.NoConfig,
		"no fts.conf or fts.ini provides ftsDirectory for database %q (checked: %s)",
		databaseName, strings.Join(tried, ", "))
}

// readFTSConf parses the structured fts.conf format:
//
//	database = mydb
//	{
//	    ftsDirectory = /var/fts/mydb
//	}
//
// One or more such blocks may appear in a single file. Returns ok=false
// (no error) when the file is absent or has no block for databaseName.
func readFTSConf(path, databaseName string) (dir string, ok bool, err error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return "", false, nil
		}
		return "", false, ftserr.Wrap(ftserr.NoConfig, readErr, "reading %s", path)
	}

	blocks, parseErr := parseConfBlocks(string(data))
	if parseErr != nil {
		return "", false, ftserr.Wrap(ftserr.NoConfig, parseErr, "parsing %s", path)
	}

	for _, b := range blocks {
		if !strings.EqualFold(b.database, databaseName) {
			continue
		}
		if v, present := b.props["ftsdirectory"]; present && v != "" {
			return v, true, nil
		}
	}
	return "", false, nil
}

type confBlock struct {
	database string
	props    map[string]string
}

// parseConfBlocks implements the small bracketed block grammar fts.conf
// uses. The "key = value { nested key = value }" shape fits neither
// viper nor ini, so it is parsed directly.
func parseConfBlocks(text string) ([]confBlock, error) {
	var blocks []confBlock
	lines := strings.Split(text, "\n")

	var cur *confBlock
	depth := 0
	for _, raw := range lines {
		line := strings.TrimSpace(stripConfComment(raw))
		if line == "" {
			continue
		}

		switch {
		case line == "{":
			depth++
			continue
		case line == "}":
			depth--
			if depth == 0 && cur != nil {
				blocks = append(blocks, *cur)
				cur = nil
			}
			continue
		}

		key, value, isAssign := splitConfAssign(line)
		if !isAssign {
			continue
		}

		if depth == 0 && strings.EqualFold(key, "database") {
			cur = &confBlock{database: value, props: map[string]string{}}
			continue
		}

		if depth > 0 && cur != nil {
			cur.props[strings.ToLower(key)] = value
		}
	}

	return blocks, nil
}

func stripConfComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	return line
}

func splitConfAssign(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
	return key, value, true
}

// readFTSIni parses the INI-style fts.ini fallback: one [<database-name>]
// section per database, with an ftsDirectory key.
func readFTSIni(path, databaseName string) (dir string, ok bool, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", false, nil
		}
		return "", false, ftserr.Wrap(ftserr.NoConfig, statErr, "stat %s", path)
	}

	f, loadErr := ini.Load(path)
	if loadErr != nil {
		return "", false, ftserr.Wrap(ftserr.NoConfig, loadErr, "parsing %s", path)
	}

	if !f.HasSection(databaseName) {
		return "", false, nil
	}
	sec := f.Section(databaseName)
	v := sec.Key("ftsDirectory").String()
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// IndexDirectory joins the resolved FTS root with an index name to form
// the on-disk directory path for that index.
func IndexDirectory(ftsRoot, indexName string) string {
	return filepath.Join(ftsRoot, indexName)
}

// EnsureConfigDir creates the catalog's parent directory if missing.
func (c *Config) EnsureConfigDir() error {
	dir := filepath.Dir(c.Catalog.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}
