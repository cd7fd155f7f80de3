package bridge

import (
	"encoding/json"
	"path/filepath"
	"strings"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/joho/godotenv"
)

// EnvKey returns the namespaced environment variable for a request field.
func EnvKey(field string) string {
	return lacc.EnvPrefix + strings.ToUpper(field)
}

// requestFields lists the request fields in a stable order.
func requestFields(req *lacc.CompletionRequest) [][2]string {
	return [][2]string{
		{"mode", string(req.Mode)},
		{"prefix", req.Prefix},
		{"suffix", req.Suffix},
		{"comment", req.Comment},
		{"file", req.File},
		{"language", req.Language},
	}
}

// channelEnv returns the variables that carry req to the worker. Empty
// fields are left unset so the worker's own defaults apply. With the stdin
// channel only the secret and the channel marker travel in the environment.
func channelEnv(req *lacc.CompletionRequest, secret, channel string) []string {
	var env []string
	if channel == lacc.ChannelStdin {
		env = append(env, EnvKey("channel")+"="+lacc.ChannelStdin)
	} else {
		for _, f := range requestFields(req) {
			if f[1] == "" {
				continue
			}
			env = append(env, EnvKey(f[0])+"="+f[1])
		}
	}
	if secret != "" {
		env = append(env, lacc.SecretEnvVar+"="+secret)
	}
	return env
}

// inheritedEnv drops request variables from env so values left over in the
// parent environment never stand in for fields the request leaves empty.
func inheritedEnv(env []string) []string {
	reserved := map[string]bool{EnvKey("channel"): true}
	for _, f := range requestFields(&lacc.CompletionRequest{}) {
		reserved[EnvKey(f[0])] = true
	}
	out := make([]string, 0, len(env))
	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		if reserved[key] {
			continue
		}
		out = append(out, kv)
	}
	return out
}

// stdinPayload encodes req for the stdin channel.
func stdinPayload(req *lacc.CompletionRequest) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// readSecretFile returns the credential from a key=value file next to the
// worker, or empty when the file or key is absent.
func readSecretFile(dir, name string) string {
	if name == "" {
		return ""
	}
	values, err := godotenv.Read(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(values[lacc.SecretEnvVar]), `"'`)
}
