// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/trawl/cmd/trawl/config"
)

// --- Global Command Variables ---
var (
	workerCount  int
	storeBackend string
	storePath    string
	logLevel     string
	excludeFlags []string
	jsonOutput   bool

	rootCmd = &cobra.Command{
		Use:   "trawl",
		Short: "A cli to inventory and browse filesystem trees",
		Long: `Trawl walks a directory tree with a concurrent crawler,
				keeps every discovered entry in a pluggable store, and
				answers size and count queries over the result.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.Load(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: using built-in defaults, config unavailable: %v\n", err)
				config.Global = config.DefaultConfig()
			}
		},
	}

	// --- Scan ---
	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "Crawl a directory tree and report its entry count and total size",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScanCommand, // Defined in cmd_scan.go
	}

	// --- Browse ---
	browseCmd = &cobra.Command{
		Use:   "browse [path]",
		Short: "Crawl a directory tree and explore it interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBrowseCommand, // Defined in cmd_browse.go
	}
)

func init() {
	rootCmd.PersistentFlags().IntVarP(&workerCount, "workers", "w", 0,
		"crawl pool size (0 = all available cores)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log verbosity: debug, info, warn, error")
	rootCmd.PersistentFlags().StringSliceVar(&excludeFlags, "exclude", nil,
		"glob patterns to prune (repeatable; trailing / matches directories only)")

	scanCmd.Flags().StringVar(&storeBackend, "store", "",
		"entry store backend: memory or badger")
	scanCmd.Flags().StringVar(&storePath, "store-path", "",
		"directory for an on-disk badger store (implies --store badger)")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"emit the report as a JSON object")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(browseCmd)
}

// --- Flag / config resolution ---
//
// Flags win over the config file; the config file wins over built-in
// defaults.

func resolveTarget(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func resolveWorkers() int {
	if workerCount > 0 {
		return workerCount
	}
	return config.Global.Scan.Workers
}

func resolveStore() string {
	if storePath != "" {
		return "badger"
	}
	if storeBackend != "" {
		return strings.ToLower(storeBackend)
	}
	if config.Global.Scan.Store != "" {
		return strings.ToLower(config.Global.Scan.Store)
	}
	return "memory"
}

func resolveExcludes() []string {
	if len(excludeFlags) > 0 {
		return excludeFlags
	}
	return config.Global.Scan.Exclude
}

func resolveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	if config.Global.Logging.Level != "" {
		return config.Global.Logging.Level
	}
	return "info"
}
