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

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/trawl/cmd/trawl/config"
	"github.com/AleutianAI/trawl/pkg/inventory"
	"github.com/AleutianAI/trawl/pkg/logging"
	"github.com/AleutianAI/trawl/pkg/tui"
)

// runBrowseCommand crawls the target tree, then hands the terminal to
// the interactive browser.
//
// The logger runs quiet: the alternate screen belongs to the TUI and
// stray stderr lines would corrupt it. File logging still works when
// the config enables it.
func runBrowseCommand(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("browse needs an interactive terminal; use 'trawl scan' for piped output")
	}

	target := resolveTarget(args)

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(resolveLogLevel()),
		LogDir:  config.Global.Logging.Dir,
		Service: "trawl",
		Quiet:   true,
	})
	defer logger.Close()

	inv, err := inventory.NewWithStore(target, inventory.Options{
		Workers: resolveWorkers(),
		Exclude: resolveExcludes(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("cannot browse %s: %w", target, err)
	}

	crawlErrs, err := inv.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan aborted: %w", err)
	}
	for _, crawlErr := range crawlErrs {
		logger.Warn("crawl error", "error", crawlErr)
	}

	program := tea.NewProgram(tui.NewBrowser(inv), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser terminated abnormally: %w", err)
	}
	return nil
}
