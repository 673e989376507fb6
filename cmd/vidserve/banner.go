// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ManuGH/vidserve/internal/config"
)

// printBanner tells the operator where the server reads from and how to reach
// it. Colors are dropped automatically when stdout is not a terminal.
func printBanner(w io.Writer, cfg config.Config) {
	title := color.New(color.FgGreen, color.Bold).SprintFunc()
	label := color.New(color.FgCyan).SprintFunc()
	link := color.New(color.Underline).SprintFunc()

	fmt.Fprintf(w, "\n%s\n\n", title("Local video server started"))
	fmt.Fprintf(w, "%s %s\n", label("Media directory:"), cfg.RootDir)
	fmt.Fprintf(w, "%s %s\n", label("Server address: "), link(cfg.BaseURL))
	fmt.Fprintf(w, "%s %s\n", label("Media listing:  "), link(cfg.ListURL()))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  1. Put .m3u8 playlists and their .ts segments (or .mp4 files) in the media directory")
	fmt.Fprintf(w, "  2. Point the player at %s/video/<file name>\n", cfg.BaseURL)
	fmt.Fprintln(w, "  3. Press Ctrl+C to stop")
	fmt.Fprintln(w)
}
