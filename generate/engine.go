// Package generate orchestrates the user-facing operations: it extracts the
// editor context, calls the worker through the bridge, and reports the result
// back to the host surface.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/bridge"
	"github.com/Rakshith2605/ABAP-VScode-assistant/interp"
)

// Surface is the host editor as seen by an operation. Calls happen on the
// operation's goroutine, in order.
type Surface interface {
	// Progress reports a transient status line for a long-running call.
	Progress(msg string)
	// Notify shows a message to the user.
	Notify(level lacc.Level, msg string)
	// ApplyEdit changes the active document.
	ApplyEdit(edit lacc.Edit) error
	// ShowDocument opens content for the user.
	ShowDocument(doc lacc.ShownDocument) error
	// PromptSecret asks for a secret without echo. ok is false when the
	// user cancelled.
	PromptSecret(p SecretPrompt) (secret string, ok bool)
	// SaveSetting persists a value in the host configuration store.
	SaveSetting(key, value string) error
}

// SecretPrompt describes a secret input box.
type SecretPrompt struct {
	Prompt      string
	Placeholder string
	// Validate returns a user-facing problem, or "" when the value is fine.
	Validate func(string) string
}

// Session is the per-call context of an operation.
type Session struct {
	Surface   Surface
	Settings  lacc.Settings
	Document  *lacc.Document
	Selection *lacc.Selection
}

func (s *Session) progress(msg string) {
	slog.Debug("progress", "message", msg)
	s.Surface.Progress(msg)
}

func (s *Session) notify(level lacc.Level, msg string) {
	s.Surface.Notify(level, msg)
}

// Worker runs worker sub-commands. *bridge.Bridge implements it.
type Worker interface {
	Invoke(ctx context.Context, cmd bridge.Command, req *lacc.CompletionRequest) (*bridge.Outcome, error)
	Interpreter() interp.Interpreter
	FallbackSecret() string
	CheckDependencies(ctx context.Context) bridge.ProbeResult
	Dir() string
}

// WorkerFactory creates the worker for one session from its settings.
type WorkerFactory func(settings lacc.Settings) Worker

// Engine runs operations against a configuration. It holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	config    *lacc.Config
	newWorker WorkerFactory
}

// NewEngine creates an engine that spawns workers through the bridge.
func NewEngine(cfg *lacc.Config) *Engine {
	if cfg == nil {
		cfg = lacc.DefaultConfig()
	}
	return NewEngineWithWorker(cfg, func(s lacc.Settings) Worker {
		return bridge.New(cfg, s)
	})
}

// NewEngineWithWorker creates an engine with a custom worker factory.
func NewEngineWithWorker(cfg *lacc.Config, factory WorkerFactory) *Engine {
	if cfg == nil {
		cfg = lacc.DefaultConfig()
	}
	return &Engine{config: cfg, newWorker: factory}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *lacc.Config { return e.config }

// Dispatch runs op. User-facing outcomes are reported through sess.Surface;
// the returned error only classifies a failure for the host.
func (e *Engine) Dispatch(ctx context.Context, op lacc.Op, sess *Session) error {
	slog.Debug("dispatching operation", "op", op)
	switch op {
	case lacc.OpGenerate:
		return e.Generate(ctx, sess)
	case lacc.OpGenerateDebug:
		return e.GenerateDebug(ctx, sess)
	case lacc.OpGenerateFromComment:
		return e.GenerateFromComment(ctx, sess)
	case lacc.OpSetup:
		return e.Setup(ctx, sess)
	case lacc.OpConfig:
		return e.ShowConfig(ctx, sess)
	case lacc.OpDiagnose:
		_, err := e.Diagnose(ctx, sess)
		return err
	case lacc.OpVerifyKey:
		return e.VerifyKey(ctx, sess)
	}
	return &lacc.UnknownOpError{Op: string(op)}
}

// settings returns the session settings layered over the engine's own.
func (e *Engine) settings(sess *Session) lacc.Settings {
	host := lacc.HostSettings(e.config)
	if sess.Settings == nil {
		return host
	}
	return lacc.Chain{sess.Settings, host}
}

func (e *Engine) worker(sess *Session) Worker {
	return e.newWorker(e.settings(sess))
}

// credential returns the API key from the settings, then the worker's
// fallback file.
func (e *Engine) credential(sess *Session, w Worker) string {
	if key := lacc.ResolveAPIKey(e.settings(sess)); key != "" {
		return key
	}
	return w.FallbackSecret()
}

// describe renders err for the user, adding guidance where there is some.
func describe(err error) string {
	var spawn *lacc.WorkerSpawnError
	if errors.As(err, &spawn) {
		return fmt.Sprintf("%v. Install Python 3 or set %s", err, lacc.SettingPythonPath)
	}
	var proc *lacc.WorkerProcessError
	if errors.As(err, &proc) && proc.TimedOut {
		return fmt.Sprintf("%v. Check your internet connection or raise worker.timeout_seconds", err)
	}
	return err.Error()
}
