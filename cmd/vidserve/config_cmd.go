// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ManuGH/vidserve/internal/config"
)

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vidserve config dump [-config file] [-root dir] [-port n] [-o out.yaml]")
}

// runConfigDump prints the effective configuration (defaults, file, env and
// flags merged) as YAML, or writes it atomically with -o.
func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("vidserve config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath string
		out        string
		o          config.Overrides
	)
	fs.StringVar(&configPath, "config", "", "path to config file (.yaml, .yml or .toml)")
	fs.StringVar(&o.RootDir, "root", "", "directory to serve media from")
	fs.IntVar(&o.Port, "port", 0, "port to listen on")
	fs.StringVar(&out, "o", "", "write to this file instead of stdout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.NewLoader(configPath).Load(o)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	if out == "" {
		if err := config.Dump(stdout, cfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if err := config.WriteFile(out, cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "wrote %s\n", out)
	return 0
}
