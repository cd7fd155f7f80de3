package generate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
	"github.com/Rakshith2605/ABAP-VScode-assistant/bridge"
)

// APIKeyPrefix is the prefix every Groq API key carries.
const APIKeyPrefix = "gsk_"

// ErrNoOutput means the worker exited cleanly but printed nothing.
var ErrNoOutput = errors.New("worker produced no output")

// ValidateAPIKey returns a user-facing problem with key, or "".
func ValidateAPIKey(key string) string {
	if strings.TrimSpace(key) == "" {
		return "API key is required"
	}
	if !strings.HasPrefix(key, APIKeyPrefix) {
		return `API key should start with "` + APIKeyPrefix + `"`
	}
	return ""
}

// Setup checks the worker runtime, asks for an API key, stores it and tests
// it against the worker.
func (e *Engine) Setup(ctx context.Context, sess *Session) error {
	w := e.worker(sess)

	sess.progress("Checking Python environment...")
	if _, err := w.Invoke(ctx, bridge.CommandConfig, nil); err != nil {
		slog.Warn("worker environment check failed", "error", err)
		sess.progress("Python environment issues detected...")
	} else {
		sess.progress("Python environment OK, checking dependencies...")
	}

	result := w.CheckDependencies(ctx)
	slog.Debug("dependency check finished", "result", result)
	sess.progress("Dependencies checked...")

	sess.progress("Requesting API key...")
	key, ok := sess.Surface.PromptSecret(SecretPrompt{
		Prompt:      "Enter your Groq API key (get one from groq.com)",
		Placeholder: APIKeyPrefix + "...",
		Validate:    ValidateAPIKey,
	})
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		sess.notify(lacc.LevelWarning, "Setup cancelled. No API key provided.")
		return nil
	}
	if problem := ValidateAPIKey(key); problem != "" {
		sess.notify(lacc.LevelWarning, "Setup cancelled. "+problem+".")
		return nil
	}

	sess.progress("Testing API key...")
	if err := sess.Surface.SaveSetting(lacc.SettingAPIKey, key); err != nil {
		sess.notify(lacc.LevelError, "Setup error: could not save the API key: "+err.Error())
		return err
	}

	out, err := w.Invoke(ctx, bridge.CommandSetup, &lacc.CompletionRequest{Secret: key})
	if err != nil {
		slog.Warn("API key test failed", "error", err)
		sess.notify(lacc.LevelWarning, "Setup completed but API test failed. Please check your API key and internet connection.")
		return nil
	}
	if strings.Contains(out.Result(), "successful") {
		sess.notify(lacc.LevelInfo, "Groq API setup successful! You can now use code generation.")
		return nil
	}
	sess.notify(lacc.LevelWarning, "Setup completed but API test failed. Generation will work but may have limited functionality.")
	return nil
}

// ShowConfig asks the worker for its configuration and shows it.
func (e *Engine) ShowConfig(ctx context.Context, sess *Session) error {
	w := e.worker(sess)
	key := lacc.ResolveAPIKey(e.settings(sess))

	out, err := w.Invoke(ctx, bridge.CommandConfig, &lacc.CompletionRequest{Secret: key})
	if err != nil {
		sess.notify(lacc.LevelError, "Error showing configuration: "+describe(err))
		return err
	}
	if out.Result() == "" {
		return nil
	}
	if err := sess.Surface.ShowDocument(lacc.ShownDocument{Content: out.Result(), Language: "json"}); err != nil {
		sess.notify(lacc.LevelError, "Error showing configuration: "+err.Error())
		return err
	}
	return nil
}

// verifyRequest is a tiny program the worker can always complete.
var verifyRequest = lacc.CompletionRequest{
	Mode:     lacc.ModeCode,
	Prefix:   "REPORT z_test.",
	Suffix:   "\nEND-OF-SELECTION.",
	Language: "abap",
}

// VerifyKey runs one generation with the stored key to prove it works.
func (e *Engine) VerifyKey(ctx context.Context, sess *Session) error {
	key := lacc.ResolveAPIKey(e.settings(sess))
	if key == "" {
		sess.notify(lacc.LevelError, "No API key found in settings")
		return &lacc.MissingCredentialError{}
	}
	slog.Debug("verifying API key", "key", lacc.MaskSecret(key))

	req := verifyRequest
	req.Secret = key
	out, err := e.worker(sess).Invoke(ctx, bridge.CommandGenerate, &req)
	if err != nil {
		sess.notify(lacc.LevelError, "API key check failed: "+describe(err))
		return err
	}
	if out.Result() == "" {
		sess.notify(lacc.LevelError, "API key is not working")
		return ErrNoOutput
	}
	sess.notify(lacc.LevelInfo, "API key is working correctly!")
	return nil
}
