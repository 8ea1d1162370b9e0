package config

import "fmt"

// Validate checks a configuration for values the pipeline cannot run with.
func Validate(cfg *Config) error {
	if cfg.Scanner.MaxFileSizeBytes < 0 {
		return fmt.Errorf("scanner.max_file_size_bytes must be >= 0, got %d", cfg.Scanner.MaxFileSizeBytes)
	}
	if cfg.Analyzer.Workers < 0 {
		return fmt.Errorf("analyzer.workers must be >= 0, got %d", cfg.Analyzer.Workers)
	}
	if cfg.Analyzer.CacheCapacity < 0 {
		return fmt.Errorf("analyzer.cache_capacity must be >= 0, got %d", cfg.Analyzer.CacheCapacity)
	}
	if cfg.Watcher.DebounceMs < 0 {
		return fmt.Errorf("watcher.debounce_ms must be >= 0, got %d", cfg.Watcher.DebounceMs)
	}
	if cfg.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path must not be empty")
	}
	return nil
}
