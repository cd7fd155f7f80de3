package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/bridge"
	"github.com/Rakshith2605/ABAP-VScode-assistant/extract"
)

// modeText holds the user-facing wording for each generation mode.
type modeText struct {
	progress string
	success  string
	empty    string
	failure  string
}

var modeTexts = map[lacc.Mode]modeText{
	lacc.ModeCode: {
		progress: "Generating code...",
		success:  "Code generated successfully!",
		empty:    "No code generated. This might be due to missing dependencies or API issues.",
		failure:  "Error generating code",
	},
	lacc.ModeDebug: {
		progress: "Generating debug code...",
		success:  "Debug code generated successfully!",
		empty:    "No debug code generated",
		failure:  "Error generating debug code",
	},
	lacc.ModeComment: {
		progress: "Generating code from comment...",
		success:  "Code generated from comment successfully!",
		empty:    "No code generated from comment",
		failure:  "Error generating code from comment",
	},
}

// Generate inserts code at the cursor.
func (e *Engine) Generate(ctx context.Context, sess *Session) error {
	return e.complete(ctx, sess, lacc.ModeCode)
}

// GenerateDebug inserts debugging code at the cursor.
func (e *Engine) GenerateDebug(ctx context.Context, sess *Session) error {
	return e.complete(ctx, sess, lacc.ModeDebug)
}

// GenerateFromComment replaces the selected comment with generated code.
func (e *Engine) GenerateFromComment(ctx context.Context, sess *Session) error {
	return e.complete(ctx, sess, lacc.ModeComment)
}

func (e *Engine) complete(ctx context.Context, sess *Session, mode lacc.Mode) error {
	text := modeTexts[mode]

	if sess.Document == nil {
		err := &lacc.NoContextError{Reason: "no active document"}
		sess.notify(lacc.LevelError, "No active editor found")
		return err
	}
	if !lacc.LanguageAllowed(e.config, sess.Document.LanguageID) {
		sess.notify(lacc.LevelWarning, fmt.Sprintf("This command is only available for %s files", languageList(e.config.Languages)))
		return &lacc.NoContextError{Reason: "unsupported language " + sess.Document.LanguageID}
	}

	req, err := extract.Extract(sess.Document, sess.Selection, mode)
	if err != nil {
		if mode == lacc.ModeComment {
			sess.notify(lacc.LevelWarning, "Please select a comment to generate code from")
		} else {
			sess.notify(lacc.LevelError, "No cursor position available")
		}
		return err
	}

	w := e.worker(sess)
	req.Secret = e.credential(sess, w)
	if req.Secret == "" {
		err := &lacc.MissingCredentialError{}
		sess.notify(lacc.LevelError, "Please set up your Groq API key first. Run the setup command.")
		return err
	}

	sess.progress(text.progress)
	slog.Debug("requesting completion", "mode", mode, "file", req.File,
		"prefix_len", len(req.Prefix), "suffix_len", len(req.Suffix), "comment_len", len(req.Comment))

	out, err := w.Invoke(ctx, bridge.CommandGenerate, req)
	if err != nil {
		slog.Warn("completion failed", "mode", mode, "error", err)
		sess.notify(lacc.LevelError, text.failure+": "+describe(err))
		return err
	}

	result := out.Result()
	if result == "" {
		sess.notify(lacc.LevelWarning, text.empty)
		return nil
	}

	var edit lacc.Edit
	if mode == lacc.ModeComment {
		edit = lacc.ReplaceRange(sess.Selection.Range(), result)
	} else {
		edit = lacc.InsertAt(sess.Selection.Active, result)
	}
	if err := sess.Surface.ApplyEdit(edit); err != nil {
		sess.notify(lacc.LevelError, text.failure+": "+err.Error())
		return fmt.Errorf("apply edit: %w", err)
	}

	slog.Info("completion applied", "mode", mode, "bytes", len(result))
	sess.notify(lacc.LevelInfo, text.success)
	return nil
}

func languageList(langs []string) string {
	upper := make([]string, len(langs))
	for i, l := range langs {
		upper[i] = strings.ToUpper(l)
	}
	return strings.Join(upper, "/")
}
