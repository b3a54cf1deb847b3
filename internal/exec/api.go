// Package exec drives the compile-and-run pipeline for submitted source code.
package exec

import (
	"context"
	"time"

	"go.uber.org/zap"

	"termchat/internal/exec/runner"
	"termchat/pkg/utils/logger"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusPending       Status = "Pending"
	StatusCompiling     Status = "Compiling"
	StatusRunning       Status = "Running"
	StatusSucceeded     Status = "Succeeded"
	StatusCompileFailed Status = "CompileFailed"
	StatusRuntimeFailed Status = "RuntimeFailed"
	StatusTimedOut      Status = "TimedOut"
	StatusInternalError Status = "InternalError"
)

// Terminal reports whether no further transition occurs from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusCompileFailed, StatusRuntimeFailed, StatusTimedOut, StatusInternalError:
		return true
	}
	return false
}

// Request contains all data needed to execute one submission.
type Request struct {
	// JobID is generated when empty.
	JobID          string   `json:"jobId,omitempty"`
	LanguageID     string   `json:"lang"`
	SourceFilename string   `json:"file"`
	SourceBytes    []byte   `json:"-"`
	Args           []string `json:"args,omitempty"`
	Stdin          []byte   `json:"-"`
	// Timeout overrides the language default when positive. It applies per
	// phase, not to the job as a whole.
	Timeout time.Duration `json:"-"`
}

// Result is the final, immutable report for one job.
type Result struct {
	JobID   string              `json:"jobId"`
	Status  Status              `json:"status"`
	Compile *runner.PhaseResult `json:"compilePhase,omitempty"`
	Run     *runner.PhaseResult `json:"runPhase,omitempty"`
	Summary string              `json:"summary"`
}

// StatusReporter receives intermediate job status updates.
type StatusReporter interface {
	ReportStatus(ctx context.Context, jobID string, status Status)
}

// LogStatusReporter writes each status transition to the log.
type LogStatusReporter struct{}

func (LogStatusReporter) ReportStatus(ctx context.Context, jobID string, status Status) {
	logger.Info(ctx, "job status changed",
		zap.String("job_id", jobID),
		zap.String("status", string(status)),
	)
}

// Executor is the entry point the transport layer calls.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}
