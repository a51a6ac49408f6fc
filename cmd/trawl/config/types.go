// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

// TrawlConfig is the on-disk configuration at ~/.trawl/trawl.yaml.
type TrawlConfig struct {
	// Scan: defaults for the crawl itself
	Scan ScanConfig `yaml:"scan"`

	// Logging: destination and verbosity
	Logging LoggingConfig `yaml:"logging"`
}

type ScanConfig struct {
	// Workers is the crawl pool size. 0 means all available cores.
	Workers int `yaml:"workers"`

	// Store selects the backend: "memory" (default) or "badger".
	Store string `yaml:"store"`

	// Exclude holds glob patterns pruned during the crawl.
	// Patterns ending in "/" match directories only.
	Exclude []string `yaml:"exclude"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Dir enables file logging when set. Supports ~ expansion.
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the configuration written on first run.
//
// The exclusion list covers the usual cache and build directories that
// dominate entry counts without being interesting to a disk inventory.
func DefaultConfig() TrawlConfig {
	return TrawlConfig{
		Scan: ScanConfig{
			Workers: 0,
			Store:   "memory",
			Exclude: []string{
				".git/",
				".svn/",
				"node_modules/",
				"__pycache__/",
				".DS_Store",
				"Thumbs.db",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
