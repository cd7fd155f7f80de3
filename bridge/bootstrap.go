package bridge

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
)

// MissingPackagesMarker is what the probe prints when it found gaps.
const MissingPackagesMarker = "Missing packages"

const (
	// probeGrace bounds how long a killed probe may keep its pipes open.
	probeGrace = 2 * time.Second
	tailBytes  = 4096
)

// ProbeResult classifies one dependency probe run.
type ProbeResult int

const (
	ProbeSkipped ProbeResult = iota
	ProbeOK
	ProbeMissing
	ProbeInstalled
	ProbeUnexpected
	ProbeTimedOut
	ProbeCancelled
)

func (p ProbeResult) String() string {
	switch p {
	case ProbeSkipped:
		return "skipped"
	case ProbeOK:
		return "ok"
	case ProbeMissing:
		return "missing-packages"
	case ProbeInstalled:
		return "installed"
	case ProbeUnexpected:
		return "unexpected-failure"
	case ProbeTimedOut:
		return "timed-out"
	case ProbeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Bootstrapper runs the worker runtime's dependency probe before each call.
// Failures are logged and swallowed: a degraded call beats a blocked one.
type Bootstrapper struct {
	dir     string
	probe   string
	timeout time.Duration
	grace   time.Duration
}

// NewBootstrapper creates a bootstrapper for the probe script in dir.
func NewBootstrapper(dir, probe string, timeout time.Duration) *Bootstrapper {
	return &Bootstrapper{
		dir:     dir,
		probe:   probe,
		timeout: timeout,
		grace:   probeGrace,
	}
}

// Ensure runs the probe with interpreter and classifies the outcome.
// It never fails and returns within the timeout plus a bounded grace period.
func (b *Bootstrapper) Ensure(ctx context.Context, interpreter string) ProbeResult {
	if b.probe == "" {
		return ProbeSkipped
	}
	path := filepath.Join(b.dir, b.probe)
	if _, err := os.Stat(path); err != nil {
		slog.Debug("dependency probe not found, skipping", "path", path)
		return ProbeSkipped
	}

	probeCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(probeCtx, interpreter, path)
	cmd.Dir = b.dir
	cmd.Env = append(os.Environ(), "PYTHONPATH="+b.dir)
	cmd.WaitDelay = b.grace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("checking dependencies", "interpreter", interpreter, "probe", path)
	start := time.Now()
	err := cmd.Run()

	if errors.Is(probeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		slog.Warn("dependency check timed out, continuing anyway",
			"timeout", b.timeout, "elapsed", time.Since(start).Round(time.Millisecond))
		return ProbeTimedOut
	}
	if ctx.Err() != nil {
		slog.Debug("dependency check cancelled", "error", ctx.Err())
		return ProbeCancelled
	}

	if cmd.ProcessState == nil {
		perr := &lacc.DependencyProbeError{ExitCode: -1, Err: err}
		slog.Warn("could not check dependencies", "error", perr)
		return ProbeUnexpected
	}

	code := cmd.ProcessState.ExitCode()
	result := classifyProbe(code, stdout.String(), stderr.String())
	switch result {
	case ProbeOK:
		slog.Debug("dependencies satisfied")
	case ProbeMissing:
		slog.Info("missing packages detected, the probe will install them")
	case ProbeInstalled:
		slog.Info("dependencies installed")
	default:
		perr := &lacc.DependencyProbeError{ExitCode: code, Tail: tail(stderr.String(), 512)}
		slog.Warn("unexpected dependency check failure", "error", perr)
	}
	return result
}

// classifyProbe maps a probe exit to a result. The marker is looked up in the
// tail of stderr, then stdout, since probes differ in where they print it.
func classifyProbe(code int, stdout, stderr string) ProbeResult {
	switch code {
	case 0:
		return ProbeOK
	case 1:
		if strings.Contains(tail(stderr, tailBytes), MissingPackagesMarker) ||
			strings.Contains(tail(stdout, tailBytes), MissingPackagesMarker) {
			return ProbeMissing
		}
		return ProbeUnexpected
	case 2:
		return ProbeInstalled
	}
	return ProbeUnexpected
}

// tail returns the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
