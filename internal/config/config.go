package config

import "path/filepath"

// ConfigDirName is the per-repository directory holding config and state.
const ConfigDirName = ".repolens"

// Config is the full repolens configuration.
type Config struct {
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// ScannerConfig controls file discovery.
type ScannerConfig struct {
	// MaxFileSizeBytes is the per-file size ceiling; larger files are
	// treated as generated and skipped.
	MaxFileSizeBytes int64 `mapstructure:"max_file_size_bytes"`

	// IgnorePatterns are glob patterns (slash separated, relative paths)
	// excluded from scanning on top of the built-in denylist.
	IgnorePatterns []string `mapstructure:"ignore_patterns"`

	// UseGitignore honors the repository's root .gitignore.
	UseGitignore bool `mapstructure:"use_gitignore"`
}

// AnalyzerConfig controls the analysis pipeline.
type AnalyzerConfig struct {
	// Workers bounds the parallel parse pool. 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers"`

	// CacheCapacity is the extraction cache entry bound. 0 uses the
	// built-in default.
	CacheCapacity int `mapstructure:"cache_capacity"`
}

// WatcherConfig controls watch mode.
type WatcherConfig struct {
	// DebounceMs is the quiet period after the last filesystem event
	// before a re-analysis is triggered.
	DebounceMs int `mapstructure:"debounce_ms"`
}

// StorageConfig controls snapshot persistence.
type StorageConfig struct {
	// DBPath is the sqlite database path, relative to the repository root
	// unless absolute.
	DBPath string `mapstructure:"db_path"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Scanner: ScannerConfig{
			MaxFileSizeBytes: 1 << 20,
			UseGitignore:     true,
		},
		Analyzer: AnalyzerConfig{
			Workers:       0,
			CacheCapacity: 0,
		},
		Watcher: WatcherConfig{
			DebounceMs: 500,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(ConfigDirName, "snapshots.db"),
		},
	}
}
