package lacc

import (
	"testing"
	"unicode/utf8"
)

func TestMapSettingsIgnoresBlank(t *testing.T) {
	s := MapSettings{SettingPythonPath: "   "}
	if _, ok := s.Get(SettingPythonPath); ok {
		t.Error("blank value should not count")
	}
}

func TestChainFirstHitWins(t *testing.T) {
	c := Chain{
		nil,
		MapSettings{SettingAPIKey: ""},
		MapSettings{SettingAPIKey: "gsk_second"},
		MapSettings{SettingAPIKey: "gsk_third"},
	}
	if v, _ := c.Get(SettingAPIKey); v != "gsk_second" {
		t.Errorf("expected gsk_second, got %q", v)
	}
}

func TestResolveInterpreterOverride(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{"nil", nil, ""},
		{"none", MapSettings{}, ""},
		{"default path", MapSettings{SettingDefaultInterpreterPath: "/b"}, "/b"},
		{"python path wins", MapSettings{SettingPythonPath: "/a", SettingDefaultInterpreterPath: "/b"}, "/a"},
		{"blank python path skipped", MapSettings{SettingPythonPath: " ", SettingDefaultInterpreterPath: "/b"}, "/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveInterpreterOverride(tt.settings); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHostSettingsEnvOverridesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Credential.APIKey = "gsk_config"
	cfg.Interpreter.Path = "/cfg/python"

	t.Setenv(SecretEnvVar, "")
	t.Setenv("LACC_INTERPRETER", "")
	s := HostSettings(cfg)
	if got := ResolveAPIKey(s); got != "gsk_config" {
		t.Errorf("expected config key, got %q", got)
	}

	t.Setenv(SecretEnvVar, "gsk_env")
	t.Setenv("LACC_INTERPRETER", "/env/python")
	if got := ResolveAPIKey(s); got != "gsk_env" {
		t.Errorf("expected env key, got %q", got)
	}
	if got := ResolveInterpreterOverride(s); got != "/env/python" {
		t.Errorf("expected env interpreter, got %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"gsk_1234567890", "gsk_123456..."},
		{"ééééé", "*****"},
		{"gsk_ééééééééé", "gsk_éééééé..."},
	}
	for _, tt := range tests {
		if got := MaskSecret(tt.in); got != tt.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in      string
		n       int
		want    string
		wantCut bool
	}{
		{"abc", 5, "abc", false},
		{"abc", 3, "abc", false},
		{"abcd", 3, "abc", true},
		{"日本語テキスト", 3, "日本語", true},
		{"", 0, "", false},
	}
	for _, tt := range tests {
		got, cut := Truncate(tt.in, tt.n)
		if got != tt.want || cut != tt.wantCut {
			t.Errorf("Truncate(%q, %d) = %q, %v; want %q, %v", tt.in, tt.n, got, cut, tt.want, tt.wantCut)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}
