package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
)

// parsePosition parses a 1-based "LINE:COL" into a zero-based position.
// A bare "LINE" means column 1.
func parsePosition(s string) (lacc.Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return lacc.Position{}, fmt.Errorf("empty position")
	}
	lineStr, colStr, hasCol := strings.Cut(s, ":")
	l, err := strconv.Atoi(lineStr)
	if err != nil {
		return lacc.Position{}, fmt.Errorf("invalid line %q", lineStr)
	}
	c := 1
	if hasCol {
		c, err = strconv.Atoi(colStr)
		if err != nil {
			return lacc.Position{}, fmt.Errorf("invalid column %q", colStr)
		}
	}
	return toPosition(l, c)
}

// toPosition converts 1-based line and column numbers.
func toPosition(l, c int) (lacc.Position, error) {
	if l < 1 || c < 1 {
		return lacc.Position{}, fmt.Errorf("position %d:%d must be 1-based", l, c)
	}
	return lacc.Position{Line: l - 1, Column: c - 1}, nil
}

// endOfText returns the position just past the last character of text.
func endOfText(text string) lacc.Position {
	lines := strings.Split(text, "\n")
	last := len(lines) - 1
	return lacc.Position{Line: last, Column: utf8.RuneCountInString(lines[last])}
}
