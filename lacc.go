// Package lacc defines the data model shared by the completion bridge and the
// request/response types for the lacc daemon.
// Daemon messages are JSON-encoded and sent over a Unix domain socket, one per line.
package lacc

// Mode selects the kind of code the worker is asked to produce.
type Mode string

const (
	ModeCode    Mode = "code"
	ModeDebug   Mode = "debug"
	ModeComment Mode = "comment"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeCode, ModeDebug, ModeComment:
		return true
	}
	return false
}

// CompletionRequest is the payload handed to the worker process.
// It is created per invocation and never shared between calls.
type CompletionRequest struct {
	// Mode is the generation mode.
	Mode Mode `json:"mode,omitempty"`
	// Prefix is everything before the insertion point (or before the selected block).
	Prefix string `json:"prefix,omitempty"`
	// Suffix is everything after the insertion point (or after the selected block).
	Suffix string `json:"suffix,omitempty"`
	// Comment holds the selected text in comment mode.
	Comment string `json:"comment,omitempty"`
	// File identifies the source document.
	File string `json:"file,omitempty"`
	// Language is the document language tag.
	Language string `json:"language,omitempty"`
	// Secret is the API credential. It travels in its own environment
	// variable and is never part of the structured payload.
	Secret string `json:"-"`
}

// Position is a zero-based line/column location. Column counts runes.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p sorts strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Range is a span between two positions, Start <= End.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Selection is the editor selection. Active is where the cursor sits;
// Anchor is where the selection started. Equal positions mean a bare cursor.
type Selection struct {
	Anchor Position `json:"anchor"`
	Active Position `json:"active"`
}

// Cursor returns a selection collapsed onto p.
func Cursor(p Position) *Selection {
	return &Selection{Anchor: p, Active: p}
}

// Start returns the earlier of the two selection ends.
func (s Selection) Start() Position {
	if s.Active.Before(s.Anchor) {
		return s.Active
	}
	return s.Anchor
}

// End returns the later of the two selection ends.
func (s Selection) End() Position {
	if s.Active.Before(s.Anchor) {
		return s.Anchor
	}
	return s.Active
}

// Range returns the selection as an ordered range.
func (s Selection) Range() Range {
	return Range{Start: s.Start(), End: s.End()}
}

// IsEmpty reports whether the selection covers no text.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Active
}

// Document is the editor buffer as seen by the bridge.
type Document struct {
	Text       string `json:"text"`
	FileName   string `json:"file_name"`
	LanguageID string `json:"language_id"`
}

// Op names a user-invoked operation.
type Op string

const (
	OpGenerate            Op = "generate"
	OpGenerateDebug       Op = "generate_debug"
	OpGenerateFromComment Op = "generate_from_comment"
	OpSetup               Op = "setup"
	OpDiagnose            Op = "diagnose"
	OpConfig              Op = "config"
	OpVerifyKey           Op = "verify_key"
)

// Request is sent from the editor plugin to the daemon.
type Request struct {
	// RequestID is echoed back in the response.
	RequestID int `json:"request_id"`
	// OpID optionally names the operation so it can be polled with a status request.
	// The daemon assigns one when empty.
	OpID string `json:"op_id,omitempty"`
	// Op is the operation to run.
	Op Op `json:"op"`
	// Document is the active document, if any.
	Document *Document `json:"document,omitempty"`
	// Selection is the active cursor or selection, if any.
	Selection *Selection `json:"selection,omitempty"`
	// Settings is a snapshot of the editor configuration store.
	Settings map[string]string `json:"settings,omitempty"`
	// Secret answers the setup prompt. Only used by the setup operation.
	Secret string `json:"secret,omitempty"`
}

// Level is the severity of a user-facing message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a user-facing notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// ShownDocument is content the host should open for the user.
type ShownDocument struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

// Response is sent from the daemon back to the editor plugin.
type Response struct {
	// RequestID is echoed from the request.
	RequestID int `json:"request_id"`
	// OpID identifies the operation for status polling.
	OpID string `json:"op_id"`
	// Edits are the document changes to apply, in order.
	Edits []Edit `json:"edits"`
	// Messages are notifications to show, in order.
	Messages []Message `json:"messages,omitempty"`
	// Settings are values the host should persist in its configuration store.
	Settings map[string]string `json:"settings,omitempty"`
	// Document is set when the operation produced a report to display.
	Document *ShownDocument `json:"document,omitempty"`
	// Error is set when the operation failed.
	Error *Error `json:"error,omitempty"`
}

// Error describes a daemon-side error returned to the editor plugin.
type Error struct {
	// Code is a machine-readable error identifier (e.g. "no_context", "worker_spawn").
	Code string `json:"code"`
	// Message is a human-readable error description.
	Message string `json:"message"`
}

// StatusRequest asks for the progress of an in-flight or recently finished
// operation, or cancels it.
type StatusRequest struct {
	// Type is "status" or "cancel".
	Type string `json:"type"`
	// OpID is the operation to look up.
	OpID string `json:"op_id"`
}

// StatusResponse reports the state of an operation.
type StatusResponse struct {
	OpID     string `json:"op_id"`
	Op       Op     `json:"op,omitempty"`
	Progress string `json:"progress,omitempty"`
	Done     bool   `json:"done"`
	Error    *Error `json:"error,omitempty"`
}

// ConfigRequest is sent from the editor plugin for configuration operations.
type ConfigRequest struct {
	// Action is the config operation: "get", "reload", "defaults", or "validate".
	Action string `json:"action"`
}

// ConfigResponse is sent from the daemon in response to a ConfigRequest.
type ConfigResponse struct {
	// Config is the current configuration (for "get" and "defaults" actions).
	Config *Config `json:"config,omitempty"`
	// Warnings contains configuration warnings (for "validate" action).
	Warnings []string `json:"warnings,omitempty"`
	// Error is set when the operation fails.
	Error *Error `json:"error,omitempty"`
}
