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
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/trawl/cmd/trawl/config"
	"github.com/AleutianAI/trawl/pkg/fsentry"
	"github.com/AleutianAI/trawl/pkg/inventory"
	"github.com/AleutianAI/trawl/pkg/logging"
	"github.com/AleutianAI/trawl/pkg/storage"
)

// scanReport is the --json output shape.
type scanReport struct {
	Path      string `json:"path"`
	Files     int64  `json:"files"`
	Bytes     int64  `json:"bytes"`
	BytesText string `json:"bytes_text"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Errors    int    `json:"errors"`
}

// runScanCommand crawls the target tree and prints a summary.
//
// Non-fatal crawl errors (unreadable directories, entries that vanish
// mid-scan) are logged and counted but never abort the scan.
func runScanCommand(cmd *cobra.Command, args []string) error {
	target := resolveTarget(args)

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(resolveLogLevel()),
		LogDir:  config.Global.Logging.Dir,
		Service: "trawl",
	})
	defer logger.Close()

	opts := inventory.Options{
		Workers: resolveWorkers(),
		Exclude: resolveExcludes(),
		Logger:  logger,
	}

	var (
		inv *inventory.Inventory
		err error
	)
	switch backend := resolveStore(); backend {
	case "memory":
		inv, err = inventory.NewWithStore(target, opts)
	case "badger":
		var db *storage.Badger[fsentry.Entry]
		if storePath != "" {
			db, err = storage.OpenBadger[fsentry.Entry](storage.BadgerConfig{
				Path:   storePath,
				Logger: logger.Slog(),
			})
		} else {
			db, err = storage.NewBadgerInMemory[fsentry.Entry](logger.Slog())
		}
		if err != nil {
			return fmt.Errorf("failed to open the badger store: %w", err)
		}
		defer db.Close()
		inv, err = inventory.NewWithBackend(target, db, opts)
	default:
		return fmt.Errorf("unknown store backend %q (want memory or badger)", backend)
	}
	if err != nil {
		return fmt.Errorf("cannot scan %s: %w", target, err)
	}

	start := time.Now()
	crawlErrs, err := inv.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan aborted: %w", err)
	}
	elapsed := time.Since(start)

	for _, crawlErr := range crawlErrs {
		logger.Warn("crawl error", "error", crawlErr)
	}

	files, err := inv.CountEntriesParallel(cmd.Context())
	if err != nil {
		return fmt.Errorf("entry count failed: %w", err)
	}
	size, err := inv.CalculateSizeParallel(cmd.Context())
	if err != nil {
		return fmt.Errorf("size calculation failed: %w", err)
	}

	report := scanReport{
		Path:      inv.Path(),
		Files:     files,
		Bytes:     size,
		BytesText: humanize.IBytes(uint64(size)),
		ElapsedMS: elapsed.Milliseconds(),
		Errors:    len(crawlErrs),
	}

	if jsonOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(report.Path)
	fmt.Printf("  files:   %d\n", report.Files)
	fmt.Printf("  size:    %d bytes (%s)\n", report.Bytes, report.BytesText)
	fmt.Printf("  elapsed: %s\n", elapsed.Round(time.Millisecond))
	if report.Errors > 0 {
		fmt.Printf("  errors:  %d entries skipped (see log)\n", report.Errors)
	}
	return nil
}
