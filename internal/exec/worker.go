package exec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"termchat/internal/exec/language"
	"termchat/internal/exec/observer"
	"termchat/internal/exec/runner"
	"termchat/internal/exec/workspace"
	appErr "termchat/pkg/errors"
	"termchat/pkg/utils/contextkey"
	"termchat/pkg/utils/logger"

	"github.com/google/uuid"
)

const defaultMaxSourceBytes int64 = 1 << 20

// Worker executes one job at a time: stage, compile if needed, run, tear down.
type Worker struct {
	registry    *language.Registry
	workspaces  *workspace.Manager
	procs       runner.Runner
	reporter    StatusReporter
	metrics     observer.MetricsRecorder
	maxSource   int64
	outputLimit int64
}

// WorkerConfig holds worker dependencies and knobs.
type WorkerConfig struct {
	Registry   *language.Registry
	Workspaces *workspace.Manager
	Procs      runner.Runner
	// MaxSourceBytes caps the submitted payload. Zero means the default.
	MaxSourceBytes int64
	// OutputLimitBytes caps captured stdout/stderr per phase.
	OutputLimitBytes int64
}

// NewWorker creates a worker with required dependencies.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Registry == nil {
		return nil, appErr.New(appErr.ExecSystemError).WithMessage("language registry is required")
	}
	if cfg.Workspaces == nil {
		return nil, appErr.New(appErr.ExecSystemError).WithMessage("workspace manager is required")
	}
	if cfg.Procs == nil {
		return nil, appErr.New(appErr.ExecSystemError).WithMessage("process runner is required")
	}
	maxSource := cfg.MaxSourceBytes
	if maxSource <= 0 {
		maxSource = defaultMaxSourceBytes
	}
	return &Worker{
		registry:    cfg.Registry,
		workspaces:  cfg.Workspaces,
		procs:       cfg.Procs,
		metrics:     observer.NoopMetricsRecorder{},
		maxSource:   maxSource,
		outputLimit: cfg.OutputLimitBytes,
	}, nil
}

// SetStatusReporter injects a reporter for intermediate updates.
func (w *Worker) SetStatusReporter(reporter StatusReporter) {
	w.reporter = reporter
}

// SetMetricsRecorder injects a metrics hook.
func (w *Worker) SetMetricsRecorder(metrics observer.MetricsRecorder) {
	if metrics != nil {
		w.metrics = metrics
	}
}

// Execute runs the full pipeline for one request. Expected failures
// (compile errors, runtime errors, timeouts) come back as a terminal Result
// with a nil error; the error return is reserved for validation failures and
// infrastructure faults.
func (w *Worker) Execute(ctx context.Context, req Request) (Result, error) {
	if err := w.validateRequest(req); err != nil {
		return Result{JobID: req.JobID}, err
	}

	// Language lookup and filename checks are the cheap gates; nothing
	// touches the filesystem until both pass.
	lang, err := w.registry.Lookup(req.LanguageID)
	if err != nil {
		return Result{JobID: req.JobID}, err
	}
	if err := workspace.ValidateFilename(req.SourceFilename); err != nil {
		return Result{JobID: req.JobID}, err
	}
	if !strings.EqualFold(filepath.Ext(req.SourceFilename), lang.SourceExtension) {
		return Result{JobID: req.JobID}, appErr.Newf(appErr.ValidationFailed,
			"filename %s does not match required extension %s for %s",
			req.SourceFilename, lang.SourceExtension, lang.ID)
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, contextkey.JobID, jobID)

	ws, err := w.workspaces.Create(jobID, req.SourceFilename, req.SourceBytes)
	if err != nil {
		return w.internalFailure(ctx, jobID, err)
	}
	defer func() {
		if destroyErr := ws.Destroy(); destroyErr != nil {
			logger.Error(ctx, "workspace teardown failed", zap.Error(destroyErr))
		}
	}()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = lang.DefaultTimeout
	}

	res := Result{JobID: jobID, Status: StatusPending}
	binPath := ws.BinaryPath(lang.BinaryFile)

	if lang.CompileEnabled {
		res.Status = StatusCompiling
		w.reportStatus(ctx, jobID, StatusCompiling)

		cmd, err := lang.CompileCommand(ws.SourcePath(), binPath)
		if err != nil {
			return w.internalFailure(ctx, jobID, err)
		}
		phase, err := w.procs.Run(ctx, runner.Command{
			Path:        cmd[0],
			Args:        cmd[1:],
			Dir:         ws.Dir(),
			Env:         commandEnv(lang),
			Timeout:     timeout,
			OutputLimit: w.outputLimit,
		})
		w.metrics.ObserveCompile(ctx, lang.ID, err == nil && phase.ExitCode == 0 && !phase.TimedOut, phase.DurationMs)
		if err != nil {
			return w.internalFailure(ctx, jobID, err)
		}
		res.Compile = &phase
		if phase.TimedOut || phase.ExitCode != 0 {
			res.Status = StatusCompileFailed
			res.Summary = compileFailureSummary(phase)
			w.reportStatus(ctx, jobID, res.Status)
			return res, nil
		}
	}

	res.Status = StatusRunning
	w.reportStatus(ctx, jobID, StatusRunning)

	cmd, err := lang.RunCommand(ws.SourcePath(), binPath, req.Args)
	if err != nil {
		return w.internalFailure(ctx, jobID, err)
	}
	phase, err := w.procs.Run(ctx, runner.Command{
		Path:        cmd[0],
		Args:        cmd[1:],
		Dir:         ws.Dir(),
		Env:         commandEnv(lang),
		Stdin:       req.Stdin,
		Timeout:     timeout,
		OutputLimit: w.outputLimit,
	})
	if err != nil {
		res.Run = nil
		failed, ferr := w.internalFailure(ctx, jobID, err)
		failed.Compile = res.Compile
		return failed, ferr
	}
	res.Run = &phase

	switch {
	case phase.TimedOut:
		res.Status = StatusTimedOut
		res.Summary = fmt.Sprintf("execution timed out after %dms", phase.DurationMs)
	case phase.ExitCode != 0:
		res.Status = StatusRuntimeFailed
		res.Summary = fmt.Sprintf("program exited with code %d", phase.ExitCode)
	default:
		res.Status = StatusSucceeded
		res.Summary = "program completed successfully"
	}
	w.metrics.ObserveRun(ctx, lang.ID, string(res.Status), phase.DurationMs)
	w.reportStatus(ctx, jobID, res.Status)
	return res, nil
}

func (w *Worker) validateRequest(req Request) error {
	if req.LanguageID == "" {
		return appErr.ValidationError("lang", "required")
	}
	if req.SourceFilename == "" {
		return appErr.ValidationError("file", "required")
	}
	if len(req.SourceBytes) == 0 {
		return appErr.ValidationError("source", "required")
	}
	if int64(len(req.SourceBytes)) > w.maxSource {
		return appErr.Newf(appErr.SourceTooLarge, "source exceeds %d bytes", w.maxSource)
	}
	return nil
}

// internalFailure logs the full error server-side and returns a result that
// leaks only a correlation id to the requester.
func (w *Worker) internalFailure(ctx context.Context, jobID string, err error) (Result, error) {
	logger.Error(ctx, "execution internal error", zap.String("job_id", jobID), zap.Error(err))
	w.reportStatus(ctx, jobID, StatusInternalError)
	return Result{
		JobID:   jobID,
		Status:  StatusInternalError,
		Summary: fmt.Sprintf("internal error, correlation id %s", jobID),
	}, err
}

func (w *Worker) reportStatus(ctx context.Context, jobID string, status Status) {
	if w.reporter == nil {
		return
	}
	w.reporter.ReportStatus(ctx, jobID, status)
}

func compileFailureSummary(phase runner.PhaseResult) string {
	if phase.TimedOut {
		return fmt.Sprintf("compilation timed out after %dms", phase.DurationMs)
	}
	return fmt.Sprintf("compilation failed with exit code %d", phase.ExitCode)
}

func commandEnv(lang language.Spec) []string {
	if len(lang.Env) == 0 {
		return nil
	}
	return append(os.Environ(), lang.Env...)
}
