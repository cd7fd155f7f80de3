package main

import (
	"fmt"
	"os"
	"testing"
)

func TestResolveSocketPath(t *testing.T) {
	tests := []struct {
		name     string
		envSetup func(t *testing.T)
		expected string
	}{
		{
			name: "LACC_SOCKET",
			envSetup: func(t *testing.T) {
				t.Setenv("LACC_SOCKET", "/custom/lacc.sock")
			},
			expected: "/custom/lacc.sock",
		},
		{
			name: "XDG_RUNTIME_DIR",
			envSetup: func(t *testing.T) {
				t.Setenv("LACC_SOCKET", "")
				t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
			},
			expected: "/run/user/1000/lacc.sock",
		},
		{
			name: "fallback",
			envSetup: func(t *testing.T) {
				t.Setenv("LACC_SOCKET", "")
				t.Setenv("XDG_RUNTIME_DIR", "")
			},
			expected: fmt.Sprintf("/tmp/lacc-%d.sock", os.Getuid()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.envSetup(t)
			got := resolveSocketPath()
			if got != tt.expected {
				t.Errorf("resolveSocketPath() = %s, expected %s", got, tt.expected)
			}
		})
	}
}
