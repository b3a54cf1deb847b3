// Package runner spawns toolchain processes with timeout and output bounds.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	appErr "termchat/pkg/errors"
)

const defaultOutputLimitBytes int64 = 64 * 1024

// Command describes one process to spawn.
type Command struct {
	// Path is the executable to run; Args are passed as a discrete vector,
	// never joined into a shell line.
	Path string
	Args []string
	// Dir is the working directory. Required: no process runs with ambient
	// caller state.
	Dir string
	Env []string
	// Stdin is fed to the process when non-nil.
	Stdin []byte
	// Timeout is the wall-clock deadline measured from spawn.
	Timeout time.Duration
	// OutputLimit caps captured bytes per stream. Zero means the default cap.
	OutputLimit int64
}

// PhaseResult is the outcome of one spawned process.
type PhaseResult struct {
	ExitCode        int    `json:"exitCode"`
	Stdout          string `json:"stdout"`
	Stderr          string `json:"stderr"`
	StdoutTruncated bool   `json:"stdoutTruncated,omitempty"`
	StderrTruncated bool   `json:"stderrTruncated,omitempty"`
	DurationMs      int64  `json:"durationMs"`
	TimedOut        bool   `json:"timedOut"`
}

// Runner executes a single external process.
type Runner interface {
	Run(ctx context.Context, cmd Command) (PhaseResult, error)
}

// ProcessRunner runs commands as direct child processes in their own process
// group, so a timeout can kill the child and everything it spawned.
type ProcessRunner struct {
	outputLimit int64
}

// NewProcessRunner creates a runner with the given per-stream output cap.
func NewProcessRunner(outputLimit int64) *ProcessRunner {
	if outputLimit <= 0 {
		outputLimit = defaultOutputLimitBytes
	}
	return &ProcessRunner{outputLimit: outputLimit}
}

// Run spawns the command and waits for completion or the deadline, whichever
// comes first. A process that cannot be started is reported through the error
// channel, never as a PhaseResult.
func (r *ProcessRunner) Run(ctx context.Context, c Command) (PhaseResult, error) {
	if err := validateCommand(c); err != nil {
		return PhaseResult{}, err
	}

	limit := c.OutputLimit
	if limit <= 0 {
		limit = r.outputLimit
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.SysProcAttr = procAttr()

	stdout := newCappedBuffer(limit)
	stderr := newCappedBuffer(limit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return PhaseResult{}, startError(c.Path, err)
	}

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		var deadline <-chan time.Time
		if c.Timeout > 0 {
			timer := time.NewTimer(c.Timeout)
			defer timer.Stop()
			deadline = timer.C
		}
		select {
		case <-ctx.Done():
			killProcessGroup(cmd.Process.Pid)
		case <-deadline:
			timedOut.Store(true)
			killProcessGroup(cmd.Process.Pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	res := PhaseResult{
		ExitCode:        exitCodeFromErr(waitErr, cmd.ProcessState),
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		StdoutTruncated: stdout.Truncated(),
		StderrTruncated: stderr.Truncated(),
		DurationMs:      time.Since(start).Milliseconds(),
		TimedOut:        timedOut.Load(),
	}
	if res.TimedOut {
		// The exit status of a killed process is not trustworthy.
		res.ExitCode = -1
	}
	if !res.TimedOut && ctx.Err() != nil {
		return res, appErr.Wrapf(ctx.Err(), appErr.ExecSystemError, "execution canceled")
	}
	return res, nil
}

func validateCommand(c Command) error {
	if c.Path == "" {
		return appErr.ValidationError("command_path", "required")
	}
	if c.Dir == "" {
		return appErr.ValidationError("working_directory", "required")
	}
	return nil
}

func startError(path string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return appErr.Newf(appErr.ToolchainMissing, "toolchain binary not found: %s", path).
			WithDetail("tool", path)
	}
	if errors.Is(err, os.ErrPermission) {
		return appErr.Wrapf(err, appErr.ExecSystemError, "permission denied starting %s", path).
			WithDetail("tool", path)
	}
	return appErr.Wrapf(err, appErr.ExecSystemError, "start process failed: %s", path).
		WithDetail("tool", path)
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
