package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/generate"
)

var (
	verbose   bool
	filePath  string
	language  string
	line      int
	col       int
	startPos  string
	endPos    string
	toStdout  bool
	asTOML    bool
	pythonBin string

	rootCmd = &cobra.Command{
		Use:           "lacc",
		Short:         "AI code completion for ABAP from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate code at the cursor",
		RunE:  runEdit(lacc.OpGenerate),
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Generate debugging code at the cursor",
		RunE:  runEdit(lacc.OpGenerateDebug),
	}

	commentCmd = &cobra.Command{
		Use:   "comment",
		Short: "Replace the selected comment with generated code",
		RunE:  runEdit(lacc.OpGenerateFromComment),
	}

	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Check the worker runtime and store a Groq API key",
		RunE:  runSimple(lacc.OpSetup),
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show the worker configuration",
		RunE:  runSimple(lacc.OpConfig),
	}

	verifyKeyCmd = &cobra.Command{
		Use:   "verify-key",
		Short: "Check that the stored API key works",
		RunE:  runSimple(lacc.OpVerifyKey),
	}

	diagnoseCmd = &cobra.Command{
		Use:   "diagnose",
		Short: "Report on the interpreter, API key, worker and dependencies",
		RunE:  runDiagnose,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log worker invocations and probe results")
	rootCmd.PersistentFlags().StringVar(&pythonBin, "python", "", "interpreter to run the worker with")

	for _, cmd := range []*cobra.Command{generateCmd, debugCmd, commentCmd} {
		cmd.Flags().StringVarP(&filePath, "file", "f", "", "source file to complete")
		cmd.Flags().StringVar(&language, "language", "", "document language (default: from the file extension)")
		cmd.Flags().BoolVar(&toStdout, "stdout", false, "print the edited document instead of writing the file")
		cmd.MarkFlagRequired("file")
	}
	for _, cmd := range []*cobra.Command{generateCmd, debugCmd} {
		cmd.Flags().IntVarP(&line, "line", "l", 0, "cursor line, 1-based (default: end of file)")
		cmd.Flags().IntVarP(&col, "col", "c", 1, "cursor column, 1-based")
	}
	commentCmd.Flags().StringVar(&startPos, "start", "", "selection start as LINE:COL, 1-based")
	commentCmd.Flags().StringVar(&endPos, "end", "", "selection end as LINE:COL, 1-based")
	commentCmd.MarkFlagRequired("start")
	commentCmd.MarkFlagRequired("end")

	diagnoseCmd.Flags().BoolVar(&asTOML, "toml", false, "print the report as TOML")

	rootCmd.AddCommand(generateCmd, debugCmd, commentCmd, setupCmd, configCmd, verifyKeyCmd, diagnoseCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM so a running worker is killed.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// cliSettings layers the --python flag over the persisted configuration.
func cliSettings() lacc.Settings {
	if pythonBin == "" {
		return nil
	}
	return lacc.MapSettings{lacc.SettingPythonPath: pythonBin}
}

func runEdit(op lacc.Op) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		doc := &lacc.Document{
			Text:       string(data),
			FileName:   filePath,
			LanguageID: languageFor(filePath, language),
		}

		sel, err := selectionFromFlags(op, doc.Text)
		if err != nil {
			return err
		}

		surface := newTerminalSurface(cfg, doc.Text)
		sess := &generate.Session{
			Surface:   surface,
			Settings:  cliSettings(),
			Document:  doc,
			Selection: sel,
		}

		ctx, cancel := signalContext()
		defer cancel()
		if err := generate.NewEngine(cfg).Dispatch(ctx, op, sess); err != nil {
			return errReported
		}
		if !surface.Dirty() {
			return nil
		}
		if toStdout {
			fmt.Fprint(os.Stdout, surface.Text())
			return nil
		}
		return writeFile(filePath, surface.Text())
	}
}

func runSimple(op lacc.Op) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sess := &generate.Session{
			Surface:  newTerminalSurface(cfg, ""),
			Settings: cliSettings(),
		}

		ctx, cancel := signalContext()
		defer cancel()
		if err := generate.NewEngine(cfg).Dispatch(ctx, op, sess); err != nil {
			return errReported
		}
		return nil
	}
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	surface := newTerminalSurface(cfg, "")
	if asTOML {
		surface.quiet = true
	}
	sess := &generate.Session{Surface: surface, Settings: cliSettings()}

	ctx, cancel := signalContext()
	defer cancel()
	report, err := generate.NewEngine(cfg).Diagnose(ctx, sess)
	if err != nil {
		return errReported
	}
	if asTOML {
		data, err := report.TOML()
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	}
	return nil
}

// selectionFromFlags converts the 1-based position flags into a selection.
func selectionFromFlags(op lacc.Op, text string) (*lacc.Selection, error) {
	if op == lacc.OpGenerateFromComment {
		start, err := parsePosition(startPos)
		if err != nil {
			return nil, fmt.Errorf("--start: %w", err)
		}
		end, err := parsePosition(endPos)
		if err != nil {
			return nil, fmt.Errorf("--end: %w", err)
		}
		return &lacc.Selection{Anchor: start, Active: end}, nil
	}
	if line == 0 {
		return lacc.Cursor(endOfText(text)), nil
	}
	p, err := toPosition(line, col)
	if err != nil {
		return nil, err
	}
	return lacc.Cursor(p), nil
}

// languageFor returns the language flag, or the file extension without the dot.
func languageFor(path, flag string) string {
	if flag != "" {
		return flag
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// writeFile replaces path, keeping its permissions.
func writeFile(path, text string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(text), mode)
}
