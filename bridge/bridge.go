// Package bridge runs the out-of-process completion worker: it resolves the
// interpreter, runs the dependency probe, marshals the request into the
// worker's environment, and maps the exit status to a result or an error.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/interp"
)

// Command is a worker sub-command.
type Command string

const (
	CommandGenerate Command = "generate"
	CommandSetup    Command = "setup"
	CommandConfig   Command = "config"
	CommandEnvCheck Command = "env-check"
)

// workerGrace bounds how long a finished or killed worker may keep its pipes open.
const workerGrace = 2 * time.Second

// Outcome is what a worker produced.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Result returns stdout with surrounding whitespace removed.
func (o *Outcome) Result() string {
	return strings.TrimSpace(o.Stdout)
}

// Bridge spawns one worker process per call. It holds no state between calls.
type Bridge struct {
	settings   lacc.Settings
	resolver   *interp.Resolver
	bootstrap  *Bootstrapper
	dir        string
	script     string
	secretFile string
	channel    string
	timeout    time.Duration
}

// New creates a bridge from cfg. settings is the host configuration store,
// consulted on every call for the interpreter override.
func New(cfg *lacc.Config, settings lacc.Settings) *Bridge {
	if cfg == nil {
		cfg = lacc.DefaultConfig()
	}
	dir := lacc.ResolveWorkerDir(cfg)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Bridge{
		settings: settings,
		resolver: interp.NewResolver(
			interp.WithEnvName(cfg.Interpreter.EnvName),
			interp.WithSearchPaths(cfg.Interpreter.SearchPaths...),
		),
		bootstrap:  NewBootstrapper(dir, cfg.Worker.Probe, lacc.ResolveProbeTimeout(cfg)),
		dir:        dir,
		script:     cfg.Worker.Script,
		secretFile: cfg.Worker.SecretFile,
		channel:    lacc.ResolveChannel(cfg),
		timeout:    lacc.ResolveWorkerTimeout(cfg),
	}
}

// Dir returns the worker directory.
func (b *Bridge) Dir() string { return b.dir }

// Interpreter resolves the interpreter for the next call.
func (b *Bridge) Interpreter() interp.Interpreter {
	return b.resolver.Resolve(lacc.ResolveInterpreterOverride(b.settings))
}

// FallbackSecret reads the credential from the worker's secret file.
func (b *Bridge) FallbackSecret() string {
	return readSecretFile(b.dir, b.secretFile)
}

// CheckDependencies runs only the dependency probe.
func (b *Bridge) CheckDependencies(ctx context.Context) ProbeResult {
	return b.bootstrap.Ensure(ctx, b.Interpreter().Path)
}

// Invoke runs the worker sub-command cmd with req. req may be nil or partial.
//
// The dependency probe always runs first and never blocks the call. A start
// failure yields *lacc.WorkerSpawnError, a non-zero exit or an expired
// deadline yields *lacc.WorkerProcessError. Cancelling ctx, also while the
// probe runs, yields an error wrapping ctx.Err().
func (b *Bridge) Invoke(ctx context.Context, cmd Command, req *lacc.CompletionRequest) (*Outcome, error) {
	interpreter := b.Interpreter()
	b.bootstrap.Ensure(ctx, interpreter.Path)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("worker %s: %w", cmd, err)
	}

	if req == nil {
		req = &lacc.CompletionRequest{}
	}
	secret := req.Secret
	if secret == "" {
		if secret = b.FallbackSecret(); secret != "" {
			slog.Debug("using credential from fallback file", "file", b.secretFile)
		}
	}

	runCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	argv := []string{filepath.Join(b.dir, b.script), string(cmd)}
	extra := channelEnv(req, secret, b.channel)

	proc := exec.CommandContext(runCtx, interpreter.Path, argv...)
	proc.Dir = b.dir
	proc.Env = append(inheritedEnv(os.Environ()), extra...)
	proc.WaitDelay = workerGrace

	if b.channel == lacc.ChannelStdin {
		payload, err := stdinPayload(req)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		proc.Stdin = bytes.NewReader(payload)
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		slog.Debug("invoking worker",
			"origin", interpreter.Origin.String(),
			"dir", b.dir,
			"command", redactedInvocation(extra, append([]string{interpreter.Path}, argv...)),
		)
	}

	if err := proc.Start(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("worker %s: %w", cmd, ctx.Err())
		}
		return nil, &lacc.WorkerSpawnError{Interpreter: interpreter.Path, Err: err}
	}
	waitErr := proc.Wait()

	outcome := &Outcome{
		ExitCode: proc.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	slog.Debug("worker exited", "command", string(cmd), "code", outcome.ExitCode,
		"stdout_bytes", len(outcome.Stdout), "stderr_bytes", len(outcome.Stderr))

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &lacc.WorkerProcessError{
			Command:  string(cmd),
			ExitCode: outcome.ExitCode,
			Stderr:   strings.TrimSpace(outcome.Stderr),
			TimedOut: true,
		}
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("worker %s: %w", cmd, ctx.Err())
	}

	if !proc.ProcessState.Success() {
		return nil, &lacc.WorkerProcessError{
			Command:  string(cmd),
			ExitCode: outcome.ExitCode,
			Stderr:   strings.TrimSpace(outcome.Stderr),
		}
	}
	if waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return nil, fmt.Errorf("worker %s: %w", cmd, waitErr)
	}

	if outcome.Stderr != "" {
		slog.Debug("worker stderr", "command", string(cmd), "stderr", tail(outcome.Stderr, 512))
	}
	return outcome, nil
}
