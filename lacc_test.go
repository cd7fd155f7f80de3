package lacc

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResponseEditsEmptyNotNull(t *testing.T) {
	resp := Response{Edits: []Edit{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"edits":[]`) {
		t.Errorf("expected edits:[], got %s", data)
	}
}

func TestResponseErrorOmittedWhenNil(t *testing.T) {
	data, err := json.Marshal(Response{Edits: []Edit{}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("expected no error key, got %s", data)
	}
}

func TestResponseErrorIncluded(t *testing.T) {
	resp := Response{Edits: []Edit{}, Error: WireError(&MissingCredentialError{})}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"code":"missing_credential"`) {
		t.Errorf("expected error code in JSON, got %s", data)
	}
}

func TestRequestJSONKeys(t *testing.T) {
	req := Request{
		RequestID: 42,
		Op:        OpGenerateFromComment,
		Document:  &Document{Text: "x", FileName: "z.abap", LanguageID: "abap"},
		Selection: &Selection{Anchor: Position{Line: 1}, Active: Position{Line: 2, Column: 3}},
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"request_id":42`, `"op":"generate_from_comment"`, `"language_id":"abap"`, `"anchor"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in JSON, got %s", key, data)
		}
	}

	var decoded Request
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Selection.Active != (Position{Line: 2, Column: 3}) {
		t.Errorf("unexpected selection %+v", decoded.Selection)
	}
}

func TestCompletionRequestOmitsSecret(t *testing.T) {
	data, err := json.Marshal(CompletionRequest{Mode: ModeCode, Prefix: "A", Secret: "gsk_hidden"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "gsk_hidden") {
		t.Errorf("secret leaked into JSON: %s", data)
	}
}

func TestModeValid(t *testing.T) {
	for _, m := range []Mode{ModeCode, ModeDebug, ModeComment} {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if Mode("refactor").Valid() {
		t.Error("unknown mode should be invalid")
	}
}

func TestSelectionOrdering(t *testing.T) {
	back := Selection{Anchor: Position{Line: 3, Column: 1}, Active: Position{Line: 1, Column: 4}}
	if back.Start() != (Position{Line: 1, Column: 4}) || back.End() != (Position{Line: 3, Column: 1}) {
		t.Errorf("unexpected range %+v", back.Range())
	}
	if back.IsEmpty() {
		t.Error("backward selection is not empty")
	}
	if !Cursor(Position{Line: 2}).IsEmpty() {
		t.Error("cursor should be empty")
	}
}
