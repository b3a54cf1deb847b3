package runner_test

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"termchat/internal/exec/runner"
	appErr "termchat/pkg/errors"
)

func requireShell(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return path
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	sh := requireShell(t)
	r := runner.NewProcessRunner(0)
	res, err := r.Run(context.Background(), runner.Command{
		Path:    sh,
		Args:    []string{"-c", "echo out; echo err >&2; exit 3"},
		Dir:     t.TempDir(),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
	if res.TimedOut {
		t.Fatal("unexpected timeout")
	}
}

func TestRunFeedsStdin(t *testing.T) {
	sh := requireShell(t)
	r := runner.NewProcessRunner(0)
	res, err := r.Run(context.Background(), runner.Command{
		Path:    sh,
		Args:    []string{"-c", "cat"},
		Dir:     t.TempDir(),
		Stdin:   []byte("hello stdin"),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stdout != "hello stdin" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}

func TestRunTruncatesOutputAtLimit(t *testing.T) {
	sh := requireShell(t)
	r := runner.NewProcessRunner(16)
	res, err := r.Run(context.Background(), runner.Command{
		Path:    sh,
		Args:    []string{"-c", "head -c 4096 /dev/zero | tr '\\0' x"},
		Dir:     t.TempDir(),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Stdout) != 16 {
		t.Fatalf("stdout length = %d, want 16", len(res.Stdout))
	}
	if !res.StdoutTruncated {
		t.Fatal("stdout not marked truncated")
	}
	if res.StderrTruncated {
		t.Fatal("stderr marked truncated with no output")
	}
	// The process must still exit cleanly despite the dropped bytes.
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
}

func TestRunKillsOnTimeout(t *testing.T) {
	sh := requireShell(t)
	r := runner.NewProcessRunner(0)
	start := time.Now()
	res, err := r.Run(context.Background(), runner.Command{
		Path:    sh,
		Args:    []string{"-c", "sleep 30"},
		Dir:     t.TempDir(),
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("result not marked timed out")
	}
	if res.ExitCode != -1 {
		t.Fatalf("exit code = %d, want -1 after kill", res.ExitCode)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("kill took %s", elapsed)
	}
}

func TestRunMissingToolchain(t *testing.T) {
	r := runner.NewProcessRunner(0)
	_, err := r.Run(context.Background(), runner.Command{
		Path:    "definitely-not-a-real-compiler",
		Dir:     t.TempDir(),
		Timeout: time.Second,
	})
	if appErr.GetCode(err) != appErr.ToolchainMissing {
		t.Fatalf("got code %d, want ToolchainMissing", appErr.GetCode(err))
	}
}

func TestRunValidatesCommand(t *testing.T) {
	r := runner.NewProcessRunner(0)
	if _, err := r.Run(context.Background(), runner.Command{Dir: t.TempDir()}); err == nil {
		t.Fatal("accepted empty path")
	}
	if _, err := r.Run(context.Background(), runner.Command{Path: "sh"}); err == nil {
		t.Fatal("accepted empty working directory")
	}
}

func TestRunCanceledContext(t *testing.T) {
	sh := requireShell(t)
	r := runner.NewProcessRunner(0)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	_, err := r.Run(ctx, runner.Command{
		Path:    sh,
		Args:    []string{"-c", "sleep 30"},
		Dir:     t.TempDir(),
		Timeout: time.Minute,
	})
	if appErr.GetCode(err) != appErr.ExecSystemError {
		t.Fatalf("got code %d, want ExecSystemError", appErr.GetCode(err))
	}
}
