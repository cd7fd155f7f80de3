package bridge

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	lacc "github.com/Rakshith2605/ABAP-VScode-assistant"
)

// newTestBridge builds a bridge around a shell worker script in a temp dir.
// The interpreter is /bin/sh so no Python install is needed.
func newTestBridge(t *testing.T, script string) (*Bridge, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell workers need /bin/sh")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LACC_WORKER_DIR", dir)
	t.Setenv("LACC_INTERPRETER", "")
	t.Setenv(lacc.SecretEnvVar, "")

	cfg := lacc.DefaultConfig()
	cfg.Worker.Probe = ""
	settings := lacc.MapSettings{lacc.SettingPythonPath: "/bin/sh"}
	return New(cfg, settings), dir
}

func TestInvokeSuccess(t *testing.T) {
	b, _ := newTestBridge(t, "echo '  FOO  '\n")

	out, err := b.Invoke(context.Background(), CommandGenerate, &lacc.CompletionRequest{Mode: lacc.ModeCode})
	if err != nil {
		t.Fatal(err)
	}
	if out.Result() != "FOO" {
		t.Errorf("expected FOO, got %q", out.Result())
	}
	if out.ExitCode != 0 {
		t.Errorf("expected exit 0, got %d", out.ExitCode)
	}
}

func TestInvokeNonZeroExit(t *testing.T) {
	b, _ := newTestBridge(t, "echo 'bad key' >&2\nexit 3\n")

	_, err := b.Invoke(context.Background(), CommandGenerate, nil)
	var perr *lacc.WorkerProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("expected WorkerProcessError, got %v", err)
	}
	if perr.ExitCode != 3 {
		t.Errorf("expected exit 3, got %d", perr.ExitCode)
	}
	if perr.Stderr != "bad key" {
		t.Errorf("expected stderr %q, got %q", "bad key", perr.Stderr)
	}
	if perr.TimedOut {
		t.Error("did not expect a timeout")
	}
	if lacc.ErrorCode(err) != "worker_process" {
		t.Errorf("unexpected code %q", lacc.ErrorCode(err))
	}
}

func TestInvokeNonZeroExitWithoutStderr(t *testing.T) {
	b, _ := newTestBridge(t, "exit 4\n")

	_, err := b.Invoke(context.Background(), CommandSetup, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "4") {
		t.Errorf("expected exit code in message, got %q", err.Error())
	}
}

func TestInvokeSpawnError(t *testing.T) {
	b, _ := newTestBridge(t, "echo unreachable\n")
	b.settings = lacc.MapSettings{lacc.SettingPythonPath: "/nonexistent/lacc-python"}

	_, err := b.Invoke(context.Background(), CommandGenerate, nil)
	var serr *lacc.WorkerSpawnError
	if !errors.As(err, &serr) {
		t.Fatalf("expected WorkerSpawnError, got %v", err)
	}
	if serr.Interpreter != "/nonexistent/lacc-python" {
		t.Errorf("unexpected interpreter %q", serr.Interpreter)
	}
}

func TestInvokePassesRequestFields(t *testing.T) {
	script := `printf '%s|%s|%s|%s\n' "$LACC_MODE" "$LACC_PREFIX" "$LACC_LANGUAGE" "${LACC_COMMENT-unset}"` + "\n"
	b, _ := newTestBridge(t, script)

	req := &lacc.CompletionRequest{
		Mode:     lacc.ModeDebug,
		Prefix:   "DATA lv TYPE i.",
		Language: "abap",
	}
	out, err := b.Invoke(context.Background(), CommandGenerate, req)
	if err != nil {
		t.Fatal(err)
	}
	want := "debug|DATA lv TYPE i.|abap|unset"
	if out.Result() != want {
		t.Errorf("expected %q, got %q", want, out.Result())
	}
}

func TestInvokePassesSubcommandAndCwd(t *testing.T) {
	b, dir := newTestBridge(t, `echo "$1"; pwd`+"\n")

	out, err := b.Invoke(context.Background(), CommandEnvCheck, nil)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(out.Result(), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", out.Result())
	}
	if lines[0] != "env-check" {
		t.Errorf("expected sub-command env-check, got %q", lines[0])
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(lines[1])
	if got != want {
		t.Errorf("expected cwd %q, got %q", want, got)
	}
}

func TestInvokeSecretFromRequest(t *testing.T) {
	b, _ := newTestBridge(t, `echo "$GROQ_API_KEY"`+"\n")

	out, err := b.Invoke(context.Background(), CommandGenerate, &lacc.CompletionRequest{Secret: "gsk_request"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Result() != "gsk_request" {
		t.Errorf("expected request secret, got %q", out.Result())
	}
}

func TestInvokeSecretFallbackFile(t *testing.T) {
	b, dir := newTestBridge(t, `echo "$GROQ_API_KEY"`+"\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(`GROQ_API_KEY="abc"`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := b.Invoke(context.Background(), CommandGenerate, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Result() != "abc" {
		t.Errorf("expected fallback secret abc, got %q", out.Result())
	}
}

func TestInvokeRequestSecretBeatsFallback(t *testing.T) {
	b, dir := newTestBridge(t, `echo "$GROQ_API_KEY"`+"\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GROQ_API_KEY=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := b.Invoke(context.Background(), CommandGenerate, &lacc.CompletionRequest{Secret: "request"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Result() != "request" {
		t.Errorf("expected request secret, got %q", out.Result())
	}
}

func TestInvokeStdinChannel(t *testing.T) {
	b, _ := newTestBridge(t, `echo "$LACC_CHANNEL:${LACC_PREFIX-none}"; cat`+"\n")
	b.channel = lacc.ChannelStdin

	out, err := b.Invoke(context.Background(), CommandGenerate, &lacc.CompletionRequest{
		Mode:   lacc.ModeCode,
		Prefix: "WRITE",
		Secret: "gsk_hidden",
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.SplitN(out.Result(), "\n", 2)
	if lines[0] != "stdin:none" {
		t.Errorf("expected stdin channel without env fields, got %q", lines[0])
	}
	if len(lines) < 2 || !strings.Contains(lines[1], `"prefix":"WRITE"`) {
		t.Errorf("expected JSON payload on stdin, got %q", out.Result())
	}
	if strings.Contains(out.Result(), "gsk_hidden") {
		t.Error("secret must not be part of the stdin payload")
	}
}

func TestInvokeTimeout(t *testing.T) {
	b, _ := newTestBridge(t, "exec sleep 10\n")
	b.timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := b.Invoke(context.Background(), CommandGenerate, nil)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
	var perr *lacc.WorkerProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("expected WorkerProcessError, got %v", err)
	}
	if !perr.TimedOut {
		t.Error("expected TimedOut")
	}
}

func TestInvokeCancelled(t *testing.T) {
	b, _ := newTestBridge(t, "exec sleep 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := b.Invoke(ctx, CommandGenerate, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInvokeRunsProbeFirst(t *testing.T) {
	b, dir := newTestBridge(t, `cat probe.out`+"\n")
	probe := "echo probed > probe.out\nexit 0\n"
	if err := os.WriteFile(filepath.Join(dir, "check_dependencies.py"), []byte(probe), 0o644); err != nil {
		t.Fatal(err)
	}
	b.bootstrap = NewBootstrapper(dir, "check_dependencies.py", 5*time.Second)

	out, err := b.Invoke(context.Background(), CommandGenerate, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Result() != "probed" {
		t.Errorf("expected probe to run before worker, got %q", out.Result())
	}
}

func TestInvokeContinuesAfterProbeFailure(t *testing.T) {
	b, dir := newTestBridge(t, "echo ok\n")
	if err := os.WriteFile(filepath.Join(dir, "check_dependencies.py"), []byte("exit 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b.bootstrap = NewBootstrapper(dir, "check_dependencies.py", 5*time.Second)

	out, err := b.Invoke(context.Background(), CommandGenerate, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Result() != "ok" {
		t.Errorf("expected ok, got %q", out.Result())
	}
}

func TestInterpreterUsesSettingsPerCall(t *testing.T) {
	b, _ := newTestBridge(t, "")
	settings := lacc.MapSettings{lacc.SettingPythonPath: "/first"}
	b.settings = settings

	if got := b.Interpreter().Path; got != "/first" {
		t.Errorf("expected /first, got %q", got)
	}
	settings[lacc.SettingPythonPath] = "/second"
	if got := b.Interpreter().Path; got != "/second" {
		t.Errorf("expected /second after settings change, got %q", got)
	}
}

func TestInvokeCancelledDuringProbe(t *testing.T) {
	b, dir := newTestBridge(t, "echo ran > worker.out\necho ok\n")
	if err := os.WriteFile(filepath.Join(dir, "check_dependencies.py"), []byte("exec sleep 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b.bootstrap = NewBootstrapper(dir, "check_dependencies.py", 30*time.Second)
	b.bootstrap.grace = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := b.Invoke(ctx, CommandGenerate, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var serr *lacc.WorkerSpawnError
	if errors.As(err, &serr) {
		t.Errorf("cancellation must not be reported as a spawn failure: %v", err)
	}
	if code := lacc.ErrorCode(err); code == "worker_spawn" {
		t.Errorf("unexpected code %q", code)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "worker.out")); statErr == nil {
		t.Error("worker must not start after cancellation")
	}
}

func TestInvokeIgnoresInheritedRequestVariables(t *testing.T) {
	b, _ := newTestBridge(t, `echo "${LACC_PREFIX-unset}|${LACC_COMMENT-unset}|${LACC_MODE-unset}"`+"\n")
	t.Setenv("LACC_PREFIX", "stale prefix")
	t.Setenv("LACC_COMMENT", "stale comment")

	out, err := b.Invoke(context.Background(), CommandGenerate, &lacc.CompletionRequest{Mode: lacc.ModeCode})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Result(); got != "unset|unset|code" {
		t.Errorf("expected only request variables, got %q", got)
	}
}

func TestInvokeLogsCommandOnlyAtDebug(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, tt := range []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelInfo, false},
		{slog.LevelDebug, true},
	} {
		var buf bytes.Buffer
		slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.level})))

		b, _ := newTestBridge(t, "echo ok\n")
		req := &lacc.CompletionRequest{Mode: lacc.ModeCode, Prefix: "REPORT z.", Secret: "gsk_hidden"}
		if _, err := b.Invoke(context.Background(), CommandGenerate, req); err != nil {
			t.Fatal(err)
		}
		if got := strings.Contains(buf.String(), "invoking worker"); got != tt.want {
			t.Errorf("level %s: logged invocation = %v, want %v", tt.level, got, tt.want)
		}
		if strings.Contains(buf.String(), "gsk_hidden") {
			t.Errorf("level %s: secret leaked into the log", tt.level)
		}
	}
}
