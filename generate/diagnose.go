package generate

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/bridge"
)

// Check statuses.
const (
	StatusOK         = "ok"
	StatusNoResponse = "no-response"
	StatusError      = "error"
)

// backendPreview is how much worker output a report quotes.
const backendPreview = 100

// Check is the outcome of one diagnostic step.
type Check struct {
	Status string `toml:"status" json:"status"`
	Detail string `toml:"detail,omitempty" json:"detail,omitempty"`
}

// Report is the result of a diagnose run.
type Report struct {
	Interpreter       string   `toml:"interpreter" json:"interpreter"`
	InterpreterOrigin string   `toml:"interpreter_origin" json:"interpreter_origin"`
	WorkerDir         string   `toml:"worker_dir" json:"worker_dir"`
	APIKeySet         bool     `toml:"api_key_set" json:"api_key_set"`
	APIKey            string   `toml:"api_key,omitempty" json:"api_key,omitempty"`
	Backend           Check    `toml:"backend" json:"backend"`
	Environment       Check    `toml:"environment" json:"environment"`
	Dependencies      string   `toml:"dependencies" json:"dependencies"`
	Tips              []string `toml:"tips" json:"tips"`
}

var troubleshootingTips = []string{
	"Make sure you have a valid Groq API key",
	"Check that Python dependencies are installed",
	"Verify your Python environment is accessible",
	"Run with --verbose for detailed error messages",
}

// Diagnose inspects the interpreter, the credential, the worker and its
// dependencies, and shows the findings as a markdown document.
func (e *Engine) Diagnose(ctx context.Context, sess *Session) (*Report, error) {
	w := e.worker(sess)
	settings := e.settings(sess)

	sess.progress("Checking Python environment...")
	in := w.Interpreter()
	report := &Report{
		Interpreter:       in.Path,
		InterpreterOrigin: in.Origin.String(),
		WorkerDir:         w.Dir(),
		Tips:              troubleshootingTips,
	}
	if key := lacc.ResolveAPIKey(settings); key != "" {
		report.APIKeySet = true
		report.APIKey = lacc.MaskSecret(key)
	}

	sess.progress("Testing Python backend...")
	report.Backend = runCheck(ctx, w, bridge.CommandConfig)
	report.Environment = runCheck(ctx, w, bridge.CommandEnvCheck)

	sess.progress("Checking dependencies...")
	report.Dependencies = w.CheckDependencies(ctx).String()

	if err := sess.Surface.ShowDocument(lacc.ShownDocument{Content: report.Markdown(), Language: "markdown"}); err != nil {
		sess.notify(lacc.LevelError, "Diagnosis failed: "+err.Error())
		return report, err
	}
	sess.notify(lacc.LevelInfo, "Diagnosis complete! Check the opened document for details.")
	return report, nil
}

func runCheck(ctx context.Context, w Worker, cmd bridge.Command) Check {
	out, err := w.Invoke(ctx, cmd, nil)
	if err != nil {
		return Check{Status: StatusError, Detail: describe(err)}
	}
	result := out.Result()
	if result == "" {
		return Check{Status: StatusNoResponse}
	}
	if head, cut := lacc.Truncate(result, backendPreview); cut {
		result = head + "..."
	}
	return Check{Status: StatusOK, Detail: result}
}

// Markdown renders the report for display.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Code Assistant Diagnosis\n\n")
	fmt.Fprintf(&b, "- Python Path: %s (%s)\n", r.Interpreter, r.InterpreterOrigin)
	fmt.Fprintf(&b, "- Worker Directory: %s\n", r.WorkerDir)
	if r.APIKeySet {
		fmt.Fprintf(&b, "- API Key: set (starts with %s)\n", r.APIKey)
	} else {
		b.WriteString("- API Key: not set\n")
	}
	writeCheck(&b, "Python Backend", r.Backend)
	writeCheck(&b, "Environment", r.Environment)
	fmt.Fprintf(&b, "- Dependencies: %s\n", r.Dependencies)

	b.WriteString("\n## Troubleshooting Tips\n\n")
	for i, tip := range r.Tips {
		fmt.Fprintf(&b, "%d. %s\n", i+1, tip)
	}
	return b.String()
}

func writeCheck(b *strings.Builder, name string, c Check) {
	switch c.Status {
	case StatusOK:
		fmt.Fprintf(b, "- %s: working\n", name)
		if c.Detail != "" {
			fmt.Fprintf(b, "- %s Response: %s\n", name, c.Detail)
		}
	case StatusNoResponse:
		fmt.Fprintf(b, "- %s: no response\n", name)
	default:
		fmt.Fprintf(b, "- %s: error - %s\n", name, c.Detail)
	}
}

// TOML encodes the report as a TOML document.
func (r *Report) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}
