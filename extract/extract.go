// Package extract turns a document and a cursor or selection into the
// prefix/suffix/comment context sent to the completion worker.
package extract

import (
	"strings"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
)

// Extract builds a completion request from doc and sel.
//
// In code and debug mode the split happens at sel.Active: Prefix holds every
// line before the cursor line plus the cursor line up to the column, Suffix
// holds the rest of the cursor line plus every following line. Prefix+Suffix
// always equals doc.Text.
//
// In comment mode Prefix holds the lines before the selection's first line,
// Suffix the lines after its last line, and Comment the exact selected text.
func Extract(doc *lacc.Document, sel *lacc.Selection, mode lacc.Mode) (*lacc.CompletionRequest, error) {
	if doc == nil {
		return nil, &lacc.NoContextError{Reason: "no active document"}
	}
	if sel == nil {
		return nil, &lacc.NoContextError{Reason: "no cursor"}
	}

	lines := strings.Split(doc.Text, "\n")
	req := &lacc.CompletionRequest{
		Mode:     mode,
		File:     doc.FileName,
		Language: doc.LanguageID,
	}

	switch mode {
	case lacc.ModeComment:
		if sel.IsEmpty() {
			return nil, &lacc.NoContextError{Reason: "select a comment to generate code from"}
		}
		start, end := sel.Start(), sel.End()
		if !inRange(lines, start.Line) || !inRange(lines, end.Line) {
			return nil, &lacc.NoContextError{Reason: "selection outside the document"}
		}
		req.Prefix = strings.Join(lines[:start.Line], "\n")
		req.Suffix = strings.Join(lines[end.Line+1:], "\n")
		req.Comment = selectedText(lines, start, end)
		if req.Comment == "" {
			return nil, &lacc.NoContextError{Reason: "select a comment to generate code from"}
		}

	case lacc.ModeCode, lacc.ModeDebug:
		pos := sel.Active
		if !inRange(lines, pos.Line) {
			return nil, &lacc.NoContextError{Reason: "cursor outside the document"}
		}
		before, after := splitAtColumn(lines[pos.Line], pos.Column)

		var prefix strings.Builder
		if pos.Line > 0 {
			prefix.WriteString(strings.Join(lines[:pos.Line], "\n"))
			prefix.WriteByte('\n')
		}
		prefix.WriteString(before)

		var suffix strings.Builder
		suffix.WriteString(after)
		if pos.Line < len(lines)-1 {
			suffix.WriteByte('\n')
			suffix.WriteString(strings.Join(lines[pos.Line+1:], "\n"))
		}

		req.Prefix = prefix.String()
		req.Suffix = suffix.String()

	default:
		return nil, &lacc.NoContextError{Reason: "unknown mode " + string(mode)}
	}

	return req, nil
}

func inRange(lines []string, line int) bool {
	return line >= 0 && line < len(lines)
}

// splitAtColumn splits line at a rune column, clamping to the line bounds.
func splitAtColumn(line string, col int) (string, string) {
	if col <= 0 {
		return "", line
	}
	n := 0
	for i := range line {
		if n == col {
			return line[:i], line[i:]
		}
		n++
	}
	return line, ""
}

// selectedText returns the exact text between start and end.
func selectedText(lines []string, start, end lacc.Position) string {
	if start.Line == end.Line {
		_, rest := splitAtColumn(lines[start.Line], start.Column)
		width := end.Column - start.Column
		sel, _ := splitAtColumn(rest, width)
		return sel
	}
	var sb strings.Builder
	_, first := splitAtColumn(lines[start.Line], start.Column)
	sb.WriteString(first)
	for _, l := range lines[start.Line+1 : end.Line] {
		sb.WriteByte('\n')
		sb.WriteString(l)
	}
	last, _ := splitAtColumn(lines[end.Line], end.Column)
	sb.WriteByte('\n')
	sb.WriteString(last)
	return sb.String()
}
