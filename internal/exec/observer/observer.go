// Package observer defines metrics hooks for the execution engine.
package observer

import (
	"context"

	"go.uber.org/zap"

	"termchat/pkg/utils/logger"
)

// MetricsRecorder records execution metrics.
type MetricsRecorder interface {
	ObserveCompile(ctx context.Context, languageID string, ok bool, durationMs int64)
	ObserveRun(ctx context.Context, languageID string, status string, durationMs int64)
}

// NoopMetricsRecorder discards all observations.
type NoopMetricsRecorder struct{}

func (NoopMetricsRecorder) ObserveCompile(ctx context.Context, languageID string, ok bool, durationMs int64) {
}

func (NoopMetricsRecorder) ObserveRun(ctx context.Context, languageID string, status string, durationMs int64) {
}

// LogRecorder emits one structured log line per observed phase.
type LogRecorder struct{}

func (LogRecorder) ObserveCompile(ctx context.Context, languageID string, ok bool, durationMs int64) {
	logger.Info(ctx, "compile phase finished",
		zap.String("language", languageID),
		zap.Bool("ok", ok),
		zap.Int64("duration_ms", durationMs),
	)
}

func (LogRecorder) ObserveRun(ctx context.Context, languageID string, status string, durationMs int64) {
	logger.Info(ctx, "run phase finished",
		zap.String("language", languageID),
		zap.String("status", status),
		zap.Int64("duration_ms", durationMs),
	)
}
