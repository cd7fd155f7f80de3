package lacc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	defaults "github.com/Rakshith2605/ABAP-VScode-assistant/default"
)

// Worker environment channel names.
const (
	// SecretEnvVar carries the API credential to the worker.
	SecretEnvVar = "GROQ_API_KEY"
	// EnvPrefix namespaces every other request field.
	EnvPrefix = "LACC_"
)

// Request channels understood by the bridge.
const (
	ChannelEnv   = "env"
	ChannelStdin = "stdin"
)

// Config represents the user's lacc configuration.
type Config struct {
	Version     int               `json:"version"`
	Interpreter InterpreterConfig `json:"interpreter"`
	Worker      WorkerConfig      `json:"worker"`
	Credential  CredentialConfig  `json:"credential"`
	// Languages limits generation to these document languages. An empty list
	// allows every language.
	Languages []string `json:"languages"`
}

// InterpreterConfig controls how the worker runtime is located.
type InterpreterConfig struct {
	Path        string   `json:"path,omitempty"`
	EnvName     string   `json:"env_name"`
	SearchPaths []string `json:"search_paths,omitempty"`
}

// WorkerConfig describes the worker distribution and how it is invoked.
type WorkerConfig struct {
	Dir                 string `json:"dir,omitempty"`
	Script              string `json:"script"`
	Probe               string `json:"probe"`
	SecretFile          string `json:"secret_file"`
	Channel             string `json:"channel"`
	TimeoutSeconds      *int   `json:"timeout_seconds,omitempty"`
	ProbeTimeoutSeconds int    `json:"probe_timeout_seconds,omitempty"`
}

// CredentialConfig holds the persisted API key.
type CredentialConfig struct {
	APIKey string `json:"api_key,omitempty"`
}

// ConfigDir returns the config directory path.
// Resolution order: $LACC_CONFIG_DIR > $XDG_CONFIG_HOME/lacc > ~/.config/lacc
func ConfigDir() string {
	if dir := os.Getenv("LACC_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lacc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "lacc-config")
	}
	return filepath.Join(home, ".config", "lacc")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DefaultConfig returns the default configuration from the embedded default_config.json.
func DefaultConfig() *Config {
	var cfg Config
	if err := json.Unmarshal(defaults.DefaultConfigJSON, &cfg); err != nil {
		panic("lacc: invalid embedded default_config.json: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Interpreter.EnvName == "" {
		cfg.Interpreter.EnvName = defaults.Interpreter.EnvName
	}
	if cfg.Worker.Script == "" {
		cfg.Worker.Script = defaults.Worker.Script
	}
	if cfg.Worker.Probe == "" {
		cfg.Worker.Probe = defaults.Worker.Probe
	}
	if cfg.Worker.SecretFile == "" {
		cfg.Worker.SecretFile = defaults.Worker.SecretFile
	}
	if cfg.Worker.Channel == "" {
		cfg.Worker.Channel = defaults.Worker.Channel
	}
	if cfg.Worker.TimeoutSeconds == nil {
		cfg.Worker.TimeoutSeconds = defaults.Worker.TimeoutSeconds
	}
	if cfg.Worker.ProbeTimeoutSeconds == 0 {
		cfg.Worker.ProbeTimeoutSeconds = defaults.Worker.ProbeTimeoutSeconds
	}
	if cfg.Languages == nil {
		cfg.Languages = defaults.Languages
	}

	return &cfg, nil
}

// SaveConfig writes cfg to the config path. The file may hold the API key,
// so it is created owner-readable only.
func SaveConfig(cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(), append(data, '\n'), 0o600)
}

// Get implements Settings over the persisted configuration.
func (c *Config) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	var v string
	switch key {
	case SettingPythonPath:
		v = c.Interpreter.Path
	case SettingAPIKey:
		v = c.Credential.APIKey
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Set stores a host setting in the configuration.
func (c *Config) Set(key, value string) error {
	switch key {
	case SettingPythonPath, SettingDefaultInterpreterPath:
		c.Interpreter.Path = value
	case SettingAPIKey:
		c.Credential.APIKey = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// HostSettings layers the process environment over the persisted config.
func HostSettings(cfg *Config) Settings {
	return Chain{EnvSettings{}, cfg}
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	switch cfg.Worker.Channel {
	case "", ChannelEnv, ChannelStdin:
	default:
		warnings = append(warnings, fmt.Sprintf("unknown worker channel %q; falling back to %q", cfg.Worker.Channel, ChannelEnv))
	}
	if cfg.Worker.TimeoutSeconds != nil && *cfg.Worker.TimeoutSeconds < 0 {
		warnings = append(warnings, "worker.timeout_seconds is negative; the worker will run without a timeout")
	}
	if cfg.Worker.ProbeTimeoutSeconds < 0 {
		warnings = append(warnings, "worker.probe_timeout_seconds is negative; using the default")
	}
	if key := cfg.Credential.APIKey; key != "" && !strings.HasPrefix(key, "gsk_") {
		warnings = append(warnings, `credential.api_key does not start with "gsk_"`)
	}
	dir := ResolveWorkerDir(cfg)
	if _, err := os.Stat(filepath.Join(dir, cfg.Worker.Script)); err != nil {
		warnings = append(warnings, fmt.Sprintf("worker script not found in %s", dir))
	}
	return warnings
}

// ResolveWorkerDir returns the directory holding the worker scripts.
// Priority: $LACC_WORKER_DIR env > config value > "python" next to the executable.
func ResolveWorkerDir(cfg *Config) string {
	if dir := os.Getenv("LACC_WORKER_DIR"); dir != "" {
		return dir
	}
	if cfg != nil && cfg.Worker.Dir != "" {
		return cfg.Worker.Dir
	}
	exe, err := os.Executable()
	if err != nil {
		return "python"
	}
	return filepath.Join(filepath.Dir(exe), "python")
}

// ResolveWorkerTimeout returns the deadline for one worker invocation.
// Zero means no deadline.
func ResolveWorkerTimeout(cfg *Config) time.Duration {
	if cfg == nil || cfg.Worker.TimeoutSeconds == nil {
		return DefaultConfig().workerTimeout()
	}
	return cfg.workerTimeout()
}

func (c *Config) workerTimeout() time.Duration {
	if c.Worker.TimeoutSeconds == nil || *c.Worker.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(*c.Worker.TimeoutSeconds) * time.Second
}

// ResolveProbeTimeout returns the hard timeout for the dependency probe.
func ResolveProbeTimeout(cfg *Config) time.Duration {
	if cfg == nil || cfg.Worker.ProbeTimeoutSeconds <= 0 {
		return time.Duration(DefaultConfig().Worker.ProbeTimeoutSeconds) * time.Second
	}
	return time.Duration(cfg.Worker.ProbeTimeoutSeconds) * time.Second
}

// ResolveChannel returns the request channel, defaulting to the environment.
func ResolveChannel(cfg *Config) string {
	if cfg != nil && cfg.Worker.Channel == ChannelStdin {
		return ChannelStdin
	}
	return ChannelEnv
}

// LanguageAllowed reports whether generation is enabled for languageID.
func LanguageAllowed(cfg *Config, languageID string) bool {
	if cfg == nil || len(cfg.Languages) == 0 {
		return true
	}
	for _, l := range cfg.Languages {
		if strings.EqualFold(l, languageID) {
			return true
		}
	}
	return false
}
