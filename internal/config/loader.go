package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader for the given repository root.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (REPOLENS_*)
// 2. Config file (.repolens/config.yml or .repolens/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, ConfigDirName))

	v.SetEnvPrefix("REPOLENS")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., REPOLENS_ANALYZER_WORKERS)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("scanner.max_file_size_bytes")
	v.BindEnv("scanner.use_gitignore")
	v.BindEnv("analyzer.workers")
	v.BindEnv("analyzer.cache_capacity")
	v.BindEnv("watcher.debounce_ms")
	v.BindEnv("storage.db_path")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("scanner.max_file_size_bytes", defaults.Scanner.MaxFileSizeBytes)
	v.SetDefault("scanner.ignore_patterns", defaults.Scanner.IgnorePatterns)
	v.SetDefault("scanner.use_gitignore", defaults.Scanner.UseGitignore)

	v.SetDefault("analyzer.workers", defaults.Analyzer.Workers)
	v.SetDefault("analyzer.cache_capacity", defaults.Analyzer.CacheCapacity)

	v.SetDefault("watcher.debounce_ms", defaults.Watcher.DebounceMs)

	v.SetDefault("storage.db_path", defaults.Storage.DBPath)
}

// LoadFromDir loads configuration for a specific repository root.
func LoadFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
