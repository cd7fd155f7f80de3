// Command lacc runs the code-completion operations from a terminal.
// It reads a source file, extracts the context at a cursor or selection,
// asks the completion worker for code, and writes the result back.
//
// Usage:
//
//	lacc generate --file z_report.abap --line 12 --col 5
//	lacc comment --file z_report.abap --start 3:1 --end 3:40
//	lacc setup
//	lacc diagnose --toml
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// errReported marks a failure the user has already been told about.
var errReported = errors.New("reported")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig() *lacc.Config {
	cfg, err := lacc.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = lacc.DefaultConfig()
	}
	return cfg
}
