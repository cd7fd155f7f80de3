package main

import (
	"sync"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/generate"
)

// responseSurface collects what an operation reports into a Response. The
// editor plugin applies edits, shows messages and persists settings itself.
type responseSurface struct {
	secret     string
	onProgress func(string)

	mu       sync.Mutex
	edits    []lacc.Edit
	messages []lacc.Message
	settings map[string]string
	document *lacc.ShownDocument
}

func newResponseSurface(secret string, onProgress func(string)) *responseSurface {
	return &responseSurface{secret: secret, onProgress: onProgress}
}

func (s *responseSurface) Progress(msg string) {
	if s.onProgress != nil {
		s.onProgress(msg)
	}
}

func (s *responseSurface) Notify(level lacc.Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, lacc.Message{Level: level, Text: msg})
}

func (s *responseSurface) ApplyEdit(edit lacc.Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = append(s.edits, edit)
	return nil
}

func (s *responseSurface) ShowDocument(doc lacc.ShownDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = &doc
	return nil
}

// PromptSecret answers with the secret sent along with the request. The
// plugin prompts before calling setup.
func (s *responseSurface) PromptSecret(p generate.SecretPrompt) (string, bool) {
	if s.secret == "" {
		return "", false
	}
	if p.Validate != nil && p.Validate(s.secret) != "" {
		return "", false
	}
	return s.secret, true
}

func (s *responseSurface) SaveSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		s.settings = make(map[string]string)
	}
	s.settings[key] = value
	return nil
}

func (s *responseSurface) response() *lacc.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	edits := s.edits
	if edits == nil {
		edits = []lacc.Edit{}
	}
	return &lacc.Response{
		Edits:    edits,
		Messages: s.messages,
		Settings: s.settings,
		Document: s.document,
	}
}
