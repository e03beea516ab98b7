// Package config loads revboard configuration from environment variables
// (REVBOARD_ prefix) with an optional config.yaml overlay, and resolves the
// filesystem paths the dashboard depends on.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// DefaultDatasetFile is the well-known fallback checked at startup when no
// upload has been provided.
const DefaultDatasetFile = "Largest_Companies.csv"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	DatasetFile string `yaml:"dataset_file" envconfig:"DATASET_FILE"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Load loads configuration from environment variables, then applies the
// optional config file on top of it.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("REVBOARD", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays values from a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func configFilePath() string {
	if path := os.Getenv("REVBOARD_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

// resolvePaths makes relative paths absolute and fills in the default
// dataset location under the data directory.
func (c *Config) resolvePaths() error {
	dataDir, err := filepath.Abs(c.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	c.Paths.DataDir = dataDir

	logsDir, err := filepath.Abs(c.Paths.LogsDir)
	if err != nil {
		return fmt.Errorf("resolve logs dir: %w", err)
	}
	c.Paths.LogsDir = logsDir

	if c.Paths.DatasetFile == "" {
		c.Paths.DatasetFile = filepath.Join(dataDir, DefaultDatasetFile)
	} else if !filepath.IsAbs(c.Paths.DatasetFile) {
		abs, err := filepath.Abs(c.Paths.DatasetFile)
		if err != nil {
			return fmt.Errorf("resolve dataset file: %w", err)
		}
		c.Paths.DatasetFile = abs
	}

	if !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, filepath.Base(c.Logging.FilePath))
	}

	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %d", c.Server.MaxUploadBytes)
	}
	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive: %f", c.Security.RateLimit.RPS)
	}
	return nil
}

// EnsureDirectories creates the data and logs directories if absent.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetDatasetFile returns the resolved default dataset path.
func (c *Config) GetDatasetFile() string {
	return c.Paths.DatasetFile
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
