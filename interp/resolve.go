// Package interp locates an interpreter able to run the completion worker.
package interp

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Origin records which rule produced an interpreter.
type Origin int

const (
	OriginExplicitConfig Origin = iota
	OriginDiscoveredVenv
	OriginPlatformDefault
)

func (o Origin) String() string {
	switch o {
	case OriginExplicitConfig:
		return "explicit-config"
	case OriginDiscoveredVenv:
		return "discovered-venv"
	case OriginPlatformDefault:
		return "platform-default"
	}
	return "unknown"
}

// Interpreter is the executable chosen to run the worker. It is resolved
// fresh for every call and never persisted.
type Interpreter struct {
	Path   string
	Origin Origin
}

// DefaultEnvName is the conda environment the worker is usually installed into.
const DefaultEnvName = "abap-assistant"

// Resolver picks an interpreter: explicit override, then a well-known
// virtual environment, then the platform default command.
type Resolver struct {
	envName     string
	searchPaths []string
	home        string
	goos        string
	stat        func(string) (fs.FileInfo, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEnvName sets the named project environment to look for.
func WithEnvName(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.envName = name
		}
	}
}

// WithSearchPaths adds interpreter paths probed before the package-manager roots.
func WithSearchPaths(paths ...string) Option {
	return func(r *Resolver) {
		r.searchPaths = append(r.searchPaths, paths...)
	}
}

// WithHome overrides the home directory used to build candidate paths.
func WithHome(home string) Option {
	return func(r *Resolver) {
		r.home = home
	}
}

// WithGOOS overrides the target platform.
func WithGOOS(goos string) Option {
	return func(r *Resolver) {
		r.goos = goos
	}
}

// NewResolver creates a resolver for the current platform.
func NewResolver(opts ...Option) *Resolver {
	home, _ := os.UserHomeDir()
	r := &Resolver{
		envName: DefaultEnvName,
		home:    home,
		goos:    runtime.GOOS,
		stat:    os.Stat,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the interpreter to use. It never fails; whether the result
// actually runs is only known once it is spawned.
func (r *Resolver) Resolve(override string) Interpreter {
	if override = strings.TrimSpace(override); override != "" {
		slog.Debug("using configured interpreter", "path", override)
		return Interpreter{Path: override, Origin: OriginExplicitConfig}
	}

	for _, path := range r.Candidates() {
		if r.usable(path) {
			slog.Debug("found environment interpreter", "path", path)
			return Interpreter{Path: path, Origin: OriginDiscoveredVenv}
		}
	}

	path := r.DefaultCommand()
	slog.Debug("using default interpreter", "path", path, "platform", r.goos)
	return Interpreter{Path: path, Origin: OriginPlatformDefault}
}

// DefaultCommand is the last-resort command name for the platform.
func (r *Resolver) DefaultCommand() string {
	if r.goos == "windows" {
		return "python"
	}
	return "python3"
}

// Candidates lists the environment interpreter paths in probe order.
func (r *Resolver) Candidates() []string {
	out := append([]string{}, r.searchPaths...)

	if r.goos == "windows" {
		for _, root := range r.userRoots() {
			out = append(out, filepath.Join(root, "envs", r.envName, "python.exe"))
		}
		for _, root := range r.userRoots() {
			out = append(out, filepath.Join(root, "python.exe"))
		}
		return out
	}

	// Homebrew cask first: named env, then its base.
	brew := "/opt/homebrew/Caskroom/miniconda/base"
	out = append(out,
		filepath.Join(brew, "envs", r.envName, "bin", "python"),
		filepath.Join(brew, "bin", "python"),
	)
	for _, root := range r.userRoots() {
		out = append(out, filepath.Join(root, "envs", r.envName, "bin", "python"))
	}
	for _, root := range r.userRoots() {
		out = append(out, filepath.Join(root, "bin", "python"))
	}
	for _, root := range []string{"/usr/local/miniconda3", "/usr/local/anaconda3"} {
		out = append(out, filepath.Join(root, "envs", r.envName, "bin", "python"))
	}
	return out
}

// userRoots are package-manager installs under the home directory.
func (r *Resolver) userRoots() []string {
	if r.home == "" {
		return nil
	}
	names := []string{"miniconda3", "anaconda3", "miniforge3", "mambaforge"}
	roots := make([]string, 0, len(names))
	for _, n := range names {
		roots = append(roots, filepath.Join(r.home, n))
	}
	return roots
}

// usable reports whether path is a regular file the current platform can execute.
func (r *Resolver) usable(path string) bool {
	info, err := r.stat(path)
	if err != nil {
		return false
	}
	if !info.Mode().IsRegular() {
		return false
	}
	if r.goos == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
