package lacc

import "testing"

func TestApplyEditInsert(t *testing.T) {
	tests := []struct {
		name string
		text string
		at   Position
		ins  string
		want string
	}{
		{"start", "abc", Position{}, "X", "Xabc"},
		{"middle", "a\nbc\nd", Position{Line: 1, Column: 1}, "X", "a\nbXc\nd"},
		{"end of line", "a\nbc\nd", Position{Line: 1, Column: 2}, "X", "a\nbcX\nd"},
		{"column clamps", "a\nbc\nd", Position{Line: 1, Column: 99}, "X", "a\nbcX\nd"},
		{"last line", "a\nb", Position{Line: 1, Column: 1}, "X", "a\nbX"},
		{"empty trailing line", "a\n", Position{Line: 1}, "X", "a\nX"},
		{"runes", "héllo", Position{Column: 2}, "X", "héXllo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyEdit(tt.text, InsertAt(tt.at, tt.ins))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyEditReplace(t *testing.T) {
	text := "REPORT z.\n* select all materials\nEND."
	r := Range{Start: Position{Line: 1}, End: Position{Line: 1, Column: 22}}
	got, err := ApplyEdit(text, ReplaceRange(r, "SELECT * FROM mara."))
	if err != nil {
		t.Fatal(err)
	}
	if want := "REPORT z.\nSELECT * FROM mara.\nEND."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApplyEditMultiLineReplace(t *testing.T) {
	r := Range{Start: Position{Line: 0, Column: 1}, End: Position{Line: 2, Column: 1}}
	got, err := ApplyEdit("ab\ncd\nef", ReplaceRange(r, "-"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "a-f" {
		t.Errorf("got %q", got)
	}
}

func TestApplyEditErrors(t *testing.T) {
	tests := []struct {
		name string
		edit Edit
	}{
		{"line out of range", InsertAt(Position{Line: 3}, "x")},
		{"negative", InsertAt(Position{Line: -1}, "x")},
		{"reversed range", ReplaceRange(Range{Start: Position{Line: 1}, End: Position{Line: 0}}, "x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ApplyEdit("a\nb", tt.edit); err == nil {
				t.Error("expected error")
			}
		})
	}
}
