package lacc

import (
	"fmt"
	"strings"
)

// EditKind is how an edit changes the document.
type EditKind string

const (
	EditInsert  EditKind = "insert"
	EditReplace EditKind = "replace"
)

// Edit is a single document change. Inserts use Range.Start only.
type Edit struct {
	Kind  EditKind `json:"kind"`
	Range Range    `json:"range"`
	Text  string   `json:"text"`
}

// InsertAt returns an edit inserting text at p.
func InsertAt(p Position, text string) Edit {
	return Edit{Kind: EditInsert, Range: Range{Start: p, End: p}, Text: text}
}

// ReplaceRange returns an edit replacing r with text.
func ReplaceRange(r Range, text string) Edit {
	return Edit{Kind: EditReplace, Range: r, Text: text}
}

// ApplyEdit applies e to text and returns the result.
func ApplyEdit(text string, e Edit) (string, error) {
	start, err := Offset(text, e.Range.Start)
	if err != nil {
		return "", err
	}
	end := start
	if e.Kind == EditReplace {
		end, err = Offset(text, e.Range.End)
		if err != nil {
			return "", err
		}
		if end < start {
			return "", fmt.Errorf("edit range end precedes start")
		}
	}
	return text[:start] + e.Text + text[end:], nil
}

// Offset converts p to a byte offset into text. Columns past the end of the
// line clamp to the line end.
func Offset(text string, p Position) (int, error) {
	if p.Line < 0 || p.Column < 0 {
		return 0, fmt.Errorf("invalid position %d:%d", p.Line, p.Column)
	}
	off := 0
	for line := 0; line < p.Line; line++ {
		i := strings.IndexByte(text[off:], '\n')
		if i < 0 {
			return 0, fmt.Errorf("line %d out of range", p.Line)
		}
		off += i + 1
	}
	lineEnd := strings.IndexByte(text[off:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - off
	}
	line := text[off : off+lineEnd]
	col := 0
	for i := range line {
		if col == p.Column {
			return off + i, nil
		}
		col++
	}
	return off + len(line), nil
}
