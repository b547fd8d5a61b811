// Package config provides configuration management for the ncdac CLI.
package config

import "fmt"

// Default configuration values.
const (
	DefaultSourceDir    = "extracts"
	DefaultDatabasePath = "ncdac.sqlite"
	DefaultEncoding     = ""
)

// Config holds all CLI configuration options.
type Config struct {
	// SourceDir is the directory holding unpacked .dat/.des pairs.
	SourceDir string `koanf:"source_dir"`
	// DatabasePath is the SQLite store built from the extracts.
	DatabasePath string `koanf:"database"`
	// Encoding names the extract text encoding ("" means UTF-8).
	Encoding string `koanf:"encoding"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database must not be empty")
	}
	return nil
}
