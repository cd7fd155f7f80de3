package lacc

import (
	"os"
	"strings"
	"unicode/utf8"
)

// Host configuration keys read by the bridge.
const (
	SettingPythonPath             = "python.pythonPath"
	SettingDefaultInterpreterPath = "python.defaultInterpreterPath"
	SettingAPIKey                 = "lacc.groqApiKey"
)

// Settings is a read-only view of the host configuration store.
// Get reports ok only for non-empty values.
type Settings interface {
	Get(key string) (string, bool)
}

// MapSettings is a Settings backed by a plain map, typically a snapshot sent
// by the editor.
type MapSettings map[string]string

// Get implements Settings.
func (m MapSettings) Get(key string) (string, bool) {
	v := strings.TrimSpace(m[key])
	return v, v != ""
}

// envSettingKeys maps setting keys to the environment variables that can
// supply them.
var envSettingKeys = map[string]string{
	SettingPythonPath: "LACC_INTERPRETER",
	SettingAPIKey:     SecretEnvVar,
}

// EnvSettings reads settings from the process environment.
type EnvSettings struct{}

// Get implements Settings.
func (EnvSettings) Get(key string) (string, bool) {
	name, ok := envSettingKeys[key]
	if !ok {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

// Chain consults each Settings in order and returns the first hit.
type Chain []Settings

// Get implements Settings.
func (c Chain) Get(key string) (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if v, ok := s.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

// ResolveInterpreterOverride returns the user's explicit interpreter, if any.
// Priority: python.pythonPath > python.defaultInterpreterPath.
func ResolveInterpreterOverride(s Settings) string {
	if s == nil {
		return ""
	}
	if v, ok := s.Get(SettingPythonPath); ok {
		return v
	}
	if v, ok := s.Get(SettingDefaultInterpreterPath); ok {
		return v
	}
	return ""
}

// ResolveAPIKey returns the stored API key, or empty.
func ResolveAPIKey(s Settings) string {
	if s == nil {
		return ""
	}
	v, _ := s.Get(SettingAPIKey)
	return v
}

// MaskSecret shows only the first few characters of a secret.
func MaskSecret(secret string) string {
	const visible = 10
	if secret == "" {
		return ""
	}
	head, cut := Truncate(secret, visible)
	if !cut {
		return strings.Repeat("*", utf8.RuneCountInString(secret))
	}
	return head + "..."
}

// Truncate returns at most the first n runes of s and reports whether
// anything was cut off.
func Truncate(s string, n int) (string, bool) {
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
