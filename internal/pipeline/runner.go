package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chcli/internal/infrastructure"
)

// Result summarises a finished run
type Result struct {
	Stages   []StageResult `json:"stages"`
	Duration time.Duration `json:"duration"`
}

// Failed returns the stage that stopped the run, or nil when every
// stage completed
func (r *Result) Failed() *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Status == StageStatusFailed {
			return &r.Stages[i]
		}
	}
	return nil
}

// Runner executes stages sequentially with logging and tracing around
// each one
type Runner struct {
	tracer trace.Tracer
	stages []Stage
}

// NewRunner creates a runner. The tracer may be a no-op tracer when
// tracing is disabled; spans are then free.
func NewRunner(tracer trace.Tracer) *Runner {
	return &Runner{tracer: tracer}
}

// Add registers stages in execution order
func (r *Runner) Add(stages ...Stage) {
	r.stages = append(r.stages, stages...)
}

// Run executes all registered stages in order. The first failure stops
// the run: its error is returned and the remaining stages are reported
// as skipped in the result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Stages: make([]StageResult, len(r.stages)),
	}
	runStart := time.Now()

	var failed error
	for i, stage := range r.stages {
		result.Stages[i] = StageResult{
			ID:     stage.ID(),
			Name:   stage.Name(),
			Status: StageStatusPending,
		}

		if failed != nil {
			result.Stages[i].Status = StageStatusSkipped
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Stages[i].Status = StageStatusSkipped
			failed = err
			continue
		}

		result.Stages[i] = r.runStage(ctx, stage)
		if result.Stages[i].Err != nil {
			failed = fmt.Errorf("stage %s: %w", stage.ID(), result.Stages[i].Err)
		}
	}

	result.Duration = time.Since(runStart)
	return result, failed
}

// runStage executes one stage inside its own span
func (r *Runner) runStage(ctx context.Context, stage Stage) StageResult {
	spanName := fmt.Sprintf("pipeline.stage.%s", stage.ID())
	ctx, span := r.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stage.id", stage.ID()),
			attribute.String("stage.name", stage.Name()),
		),
	)
	defer span.End()

	infrastructure.InfoContext(ctx, "Stage started",
		slog.String("stage", stage.ID()))

	start := time.Now()
	err := stage.Run(ctx)
	duration := time.Since(start)

	span.SetAttributes(attribute.Float64("stage.duration_seconds", duration.Seconds()))

	result := StageResult{
		ID:       stage.ID(),
		Name:     stage.Name(),
		Duration: duration,
	}

	if err != nil {
		result.Status = StageStatusFailed
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		infrastructure.ErrorContext(ctx, "Stage failed",
			slog.String("stage", stage.ID()),
			slog.Duration("duration", duration.Round(time.Millisecond)),
			slog.String("error", err.Error()))
		return result
	}

	result.Status = StageStatusCompleted
	span.SetStatus(codes.Ok, "stage completed")
	infrastructure.InfoContext(ctx, "Stage completed",
		slog.String("stage", stage.ID()),
		slog.Duration("duration", duration.Round(time.Millisecond)))
	return result
}
