// Package config loads rollup settings from .env, environment variables
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ROLLUP"

// FileEnv names the variable that points at the YAML config file.
const FileEnv = EnvPrefix + "_CONFIG_FILE"

// Config represents the complete application configuration
type Config struct {
	Attendance AttendanceConfig `yaml:"attendance" envconfig:"ATTENDANCE"`
	Reader     ReaderConfig     `yaml:"reader" envconfig:"READER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Cache      CacheConfig      `yaml:"cache" envconfig:"CACHE"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
}

// AttendanceConfig controls when a lecture counts as attended.
type AttendanceConfig struct {
	// ThresholdRatio is the share of a lecture's scheduled length a student
	// must be present for.
	ThresholdRatio float64 `yaml:"threshold_ratio" envconfig:"THRESHOLD_RATIO" default:"1.0" validate:"gt=0,lte=10"`
}

// ReaderConfig tunes header detection.
type ReaderConfig struct {
	MaxHeaderRows int `yaml:"max_header_rows" envconfig:"MAX_HEADER_ROWS" default:"2" validate:"min=1,max=3"`
	SearchLimit   int `yaml:"search_limit" envconfig:"SEARCH_LIMIT" default:"20" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	File  string `yaml:"file" envconfig:"FILE"`
}

type CacheConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR"`
}

type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" default:"."`
}

// Load reads configuration. Precedence, highest first: environment
// variables (including .env), the YAML file, built-in defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	path := FilePath()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := loadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileCfg, cfg)
		}
	}

	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// FilePath returns the YAML config location: $ROLLUP_CONFIG_FILE, or
// rollup/config.yaml under the user config directory.
func FilePath() string {
	if p := os.Getenv(FileEnv); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rollup", "config.yaml")
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// mergeConfigs fills every value not set in the environment from the file.
func mergeConfigs(file, env Config) Config {
	if !envSet("ATTENDANCE_THRESHOLD_RATIO") && file.Attendance.ThresholdRatio != 0 {
		env.Attendance.ThresholdRatio = file.Attendance.ThresholdRatio
	}
	if !envSet("READER_MAX_HEADER_ROWS") && file.Reader.MaxHeaderRows != 0 {
		env.Reader.MaxHeaderRows = file.Reader.MaxHeaderRows
	}
	if !envSet("READER_SEARCH_LIMIT") && file.Reader.SearchLimit != 0 {
		env.Reader.SearchLimit = file.Reader.SearchLimit
	}
	if !envSet("LOGGING_LEVEL") && file.Logging.Level != "" {
		env.Logging.Level = file.Logging.Level
	}
	if !envSet("LOGGING_FILE") && file.Logging.File != "" {
		env.Logging.File = file.Logging.File
	}
	if !envSet("CACHE_DIR") && file.Cache.Dir != "" {
		env.Cache.Dir = file.Cache.Dir
	}
	if !envSet("OUTPUT_DIR") && file.Output.Dir != "" {
		env.Output.Dir = file.Output.Dir
	}
	return env
}

func (c *Config) resolvePaths() {
	if c.Cache.Dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		c.Cache.Dir = filepath.Join(base, "rollup")
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(c.Cache.Dir, "rollup.log")
	}
}

var validate = validator.New()

// Validate checks field ranges.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
