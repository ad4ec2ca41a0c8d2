package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the analysis service root used when nothing is configured.
const DefaultAPIURL = "http://localhost:8000"

// Global configuration structure.
type Global struct {
	APIURL        string   `mapstructure:"api_url" yaml:"api_url"`
	Accept        []string `mapstructure:"accept" yaml:"accept"`
	MaxFileSizeMB int      `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
	// HTTPTimeoutSec of 0 leaves the transport default in place.
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Local reference service
	ServeAddr   string `mapstructure:"serve_addr" yaml:"serve_addr"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// Policy returns the acceptance policy described by the configuration.
func (c *Global) Policy() intake.Policy {
	p := intake.DefaultPolicy()
	if len(c.Accept) > 0 {
		p.Accept = intake.ParseAccept(strings.Join(c.Accept, ","))
	}
	if c.MaxFileSizeMB > 0 {
		p.MaxSizeBytes = int64(c.MaxFileSizeMB) * 1024 * 1024
	}
	return p
}

// HTTPTimeout converts HTTPTimeoutSec; zero means no client-side deadline.
func (c *Global) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// Dir returns ~/.datasage.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datasage"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datasage/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
// A .env file in the working directory is read first and never overrides
// variables already set in the process environment.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("DATASAGE")
	v.AutomaticEnv()
	// VITE_API_URL is what the web client deployment already exports.
	_ = v.BindEnv("api_url", "DATASAGE_API_URL", "VITE_API_URL")

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("accept", intake.ParseAccept(intake.DefaultAccept))
	v.SetDefault("max_file_size_mb", 10)
	v.SetDefault("http_timeout_sec", 0)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("serve_addr", ":8000")
	v.SetDefault("environment", "development")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	return &c, nil
}

