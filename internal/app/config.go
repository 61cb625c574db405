package app

import (
	"errors"
	"fmt"
	"slices"
)

// Valid logging options.
var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds the configuration of an App run.
type Config struct {
	ConfigPath string // descriptor file
	LogLevel   string
	LogFormat  string
	List       bool // print the catalog instead of running
}

// NewConfig validates the configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && !cfg.List {
		return nil, errors.New("a descriptor path is required")
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log-level '%s': must be one of %v", cfg.LogLevel, logLevels)
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log-format '%s': must be one of %v", cfg.LogFormat, logFormats)
	}
	return &cfg, nil
}
