package lacc

import (
	"errors"
	"fmt"
)

// NoContextError means there was no document, cursor, or (in comment mode)
// non-empty selection to build a request from. Nothing is spawned.
type NoContextError struct {
	Reason string
}

func (e *NoContextError) Error() string {
	if e.Reason == "" {
		return "no editor context"
	}
	return "no editor context: " + e.Reason
}

// Code returns the wire error code.
func (e *NoContextError) Code() string { return "no_context" }

// MissingCredentialError means no API key was found in the settings, the
// environment, or the worker's fallback file.
type MissingCredentialError struct{}

func (e *MissingCredentialError) Error() string {
	return "API key not configured; run the setup command or set " + SecretEnvVar
}

// Code returns the wire error code.
func (e *MissingCredentialError) Code() string { return "missing_credential" }

// WorkerSpawnError means the interpreter could not be started at all.
type WorkerSpawnError struct {
	Interpreter string
	Err         error
}

func (e *WorkerSpawnError) Error() string {
	return fmt.Sprintf("failed to start worker with %q: %v", e.Interpreter, e.Err)
}

func (e *WorkerSpawnError) Unwrap() error { return e.Err }

// Code returns the wire error code.
func (e *WorkerSpawnError) Code() string { return "worker_spawn" }

// WorkerProcessError means the worker ran and exited non-zero, or was killed
// after exceeding its deadline.
type WorkerProcessError struct {
	Command  string
	ExitCode int
	Stderr   string
	TimedOut bool
}

func (e *WorkerProcessError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("worker %s timed out", e.Command)
	}
	msg := e.Stderr
	if msg == "" {
		msg = fmt.Sprintf("process failed with code %d", e.ExitCode)
	}
	return fmt.Sprintf("worker %s failed (code %d): %s", e.Command, e.ExitCode, msg)
}

// Code returns the wire error code.
func (e *WorkerProcessError) Code() string { return "worker_process" }

// DependencyProbeError describes a probe failure. It is only ever logged.
type DependencyProbeError struct {
	ExitCode int
	Tail     string
	Err      error
}

func (e *DependencyProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dependency probe: %v", e.Err)
	}
	return fmt.Sprintf("dependency probe exited with code %d: %s", e.ExitCode, e.Tail)
}

func (e *DependencyProbeError) Unwrap() error { return e.Err }

// Code returns the wire error code.
func (e *DependencyProbeError) Code() string { return "dependency_probe" }

// ErrorCode maps err to a wire error code. Unknown errors map to "internal".
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return "internal"
}

// WireError converts err into a wire Error, or nil.
func WireError(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: ErrorCode(err), Message: err.Error()}
}

// UnknownOpError means a host asked for an operation that does not exist.
type UnknownOpError struct {
	Op string
}

func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Op)
}

// Code returns the wire error code.
func (e *UnknownOpError) Code() string { return "unknown_op" }
