package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/generate"
)

// maxPromptAttempts bounds how often an invalid secret is asked for again.
const maxPromptAttempts = 3

// terminalSurface is the host surface of the CLI. It edits an in-memory
// copy of the document, prints messages to stderr, shows documents on
// stdout, and stores settings in the config file.
type terminalSurface struct {
	cfg    *lacc.Config
	text   string
	dirty  bool
	out    io.Writer
	errOut io.Writer
	// progress lines are only drawn on an interactive stderr
	interactive bool
	// quiet suppresses shown documents and info messages
	quiet bool
	// readSecret reads one secret; it is replaceable for tests
	readSecret func(prompt string) (string, error)
	save       func(*lacc.Config) error
}

func newTerminalSurface(cfg *lacc.Config, text string) *terminalSurface {
	return &terminalSurface{
		cfg:         cfg,
		text:        text,
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: term.IsTerminal(int(os.Stderr.Fd())),
		readSecret:  readTerminalSecret,
		save:        lacc.SaveConfig,
	}
}

// Text returns the document after all applied edits.
func (s *terminalSurface) Text() string { return s.text }

// Dirty reports whether any edit was applied.
func (s *terminalSurface) Dirty() bool { return s.dirty }

func (s *terminalSurface) Progress(msg string) {
	if !s.interactive {
		return
	}
	// Overwrite the current line; cleared by the next message.
	fmt.Fprintf(s.errOut, "\r\033[K%s", msg)
}

func (s *terminalSurface) clearProgress() {
	if s.interactive {
		fmt.Fprint(s.errOut, "\r\033[K")
	}
}

func (s *terminalSurface) Notify(level lacc.Level, msg string) {
	s.clearProgress()
	if s.quiet && level == lacc.LevelInfo {
		return
	}
	fmt.Fprintf(s.errOut, "%s: %s\n", level, msg)
}

func (s *terminalSurface) ApplyEdit(edit lacc.Edit) error {
	text, err := lacc.ApplyEdit(s.text, edit)
	if err != nil {
		return err
	}
	s.text = text
	s.dirty = true
	return nil
}

func (s *terminalSurface) ShowDocument(doc lacc.ShownDocument) error {
	s.clearProgress()
	if s.quiet {
		return nil
	}
	content := doc.Content
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	_, err := io.WriteString(s.out, content)
	return err
}

func (s *terminalSurface) PromptSecret(p generate.SecretPrompt) (string, bool) {
	s.clearProgress()
	prompt := p.Prompt
	if p.Placeholder != "" {
		prompt += " [" + p.Placeholder + "]"
	}
	prompt += ": "

	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		secret, err := s.readSecret(prompt)
		if err != nil {
			return "", false
		}
		secret = strings.TrimSpace(secret)
		if secret == "" {
			return "", false
		}
		if p.Validate == nil {
			return secret, true
		}
		problem := p.Validate(secret)
		if problem == "" {
			return secret, true
		}
		fmt.Fprintf(s.errOut, "%s\n", problem)
	}
	return "", false
}

func (s *terminalSurface) SaveSetting(key, value string) error {
	if err := s.cfg.Set(key, value); err != nil {
		return err
	}
	return s.save(s.cfg)
}

// readTerminalSecret reads a secret from the controlling terminal without
// echo. Without a terminal it reads one line from stdin.
func readTerminalSecret(prompt string) (string, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprint(os.Stderr, prompt)
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			return string(b), err
		}
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return line, nil
	}
	defer tty.Close()

	fmt.Fprint(tty, prompt)
	b, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprint(tty, "\r\n")
	return string(b), err
}
