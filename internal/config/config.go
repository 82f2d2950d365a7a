// Package config loads reportflow's configuration from a YAML file, with
// ${VAR} expansion, .env files and REPORTFLOW_* overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultWorkers    = 8
	DefaultTimeout    = 30 * time.Second
	DefaultMaxBytes   = 4 << 20
	DefaultUserAgent  = "reportflow/1.0"
	DefaultServerAddr = ":8080"

	// Environment variable names
	EnvLogLevel    = "REPORTFLOW_LOG_LEVEL"
	EnvLogFormat   = "REPORTFLOW_LOG_FORMAT"
	EnvWorkers     = "REPORTFLOW_WORKERS"
	EnvHistoryPath = "REPORTFLOW_HISTORY_PATH"
	EnvServerAddr  = "REPORTFLOW_SERVER_ADDR"
)

// Config is the root of the configuration file.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Loader   LoaderConfig   `yaml:"loader"`
	History  HistoryConfig  `yaml:"history"`
	Server   ServerConfig   `yaml:"server"`
	Refresh  RefreshConfig  `yaml:"refresh"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type PipelineConfig struct {
	Workers          int  `yaml:"workers"`
	CancelSuperseded bool `yaml:"cancel_superseded"`
}

type LoaderConfig struct {
	Timeout   Duration `yaml:"timeout"`
	MaxBytes  int64    `yaml:"max_bytes"`
	UserAgent string   `yaml:"user_agent"`
}

// HistoryConfig locates the run log. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RefreshConfig sets how often the last URL is resubmitted. Zero disables
// refreshing.
type RefreshConfig struct {
	Interval Duration `yaml:"interval"`
}

// Duration is a time.Duration that unmarshals from YAML strings (e.g. "30s", "5m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the standard time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Pipeline: PipelineConfig{Workers: DefaultWorkers},
		Loader: LoaderConfig{
			Timeout:   Duration(DefaultTimeout),
			MaxBytes:  DefaultMaxBytes,
			UserAgent: DefaultUserAgent,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// Load reads the configuration at path on top of Default. Before reading,
// .env.local and .env next to path are loaded into the environment without
// overriding variables that are already set. ${VAR} references in the file
// are expanded, then REPORTFLOW_* variables override the result. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
	}
	if err := loadDotEnv(dir); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(os.ExpandEnv(string(data))); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(doc string) error {
	dec := yaml.NewDecoder(strings.NewReader(doc))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func loadDotEnv(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		c.Pipeline.Workers = n
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	if c.Pipeline.Workers < 1 {
		errs = append(errs, fmt.Errorf("pipeline.workers: must be at least 1, got %d", c.Pipeline.Workers))
	}
	if c.Loader.Timeout < 0 {
		errs = append(errs, errors.New("loader.timeout: must not be negative"))
	}
	if c.Loader.MaxBytes < 0 {
		errs = append(errs, errors.New("loader.max_bytes: must not be negative"))
	}
	if c.Refresh.Interval < 0 {
		errs = append(errs, errors.New("refresh.interval: must not be negative"))
	}
	return errors.Join(errs...)
}
