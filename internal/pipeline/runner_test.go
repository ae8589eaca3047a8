package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func noopStage(id string, ran *[]string) Stage {
	return NewStage(id, "Test stage "+id, func(ctx context.Context) error {
		*ran = append(*ran, id)
		return nil
	})
}

func failingStage(id string, err error) Stage {
	return NewStage(id, "Failing stage "+id, func(ctx context.Context) error {
		return err
	})
}

func newTestRunner() *Runner {
	return NewRunner(noop.NewTracerProvider().Tracer("test"))
}

func TestRunner_RunsStagesInOrder(t *testing.T) {
	runner := newTestRunner()

	var ran []string
	runner.Add(noopStage("one", &ran), noopStage("two", &ran), noopStage("three", &ran))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, ran)
	require.Len(t, result.Stages, 3)
	for _, stage := range result.Stages {
		assert.Equal(t, StageStatusCompleted, stage.Status)
	}
	assert.Nil(t, result.Failed())
}

func TestRunner_StopsOnFirstFailure(t *testing.T) {
	runner := newTestRunner()

	var ran []string
	runner.Add(
		noopStage("one", &ran),
		failingStage("two", assert.AnError),
		noopStage("three", &ran),
	)

	result, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "stage two")

	// The stage after the failure never ran
	assert.Equal(t, []string{"one"}, ran)

	assert.Equal(t, StageStatusCompleted, result.Stages[0].Status)
	assert.Equal(t, StageStatusFailed, result.Stages[1].Status)
	assert.Equal(t, StageStatusSkipped, result.Stages[2].Status)

	failed := result.Failed()
	require.NotNil(t, failed)
	assert.Equal(t, "two", failed.ID)
	assert.ErrorIs(t, failed.Err, assert.AnError)
}

func TestRunner_CancelledContext(t *testing.T) {
	runner := newTestRunner()

	var ran []string
	runner.Add(noopStage("one", &ran))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ran)
}

func TestRunner_NoStages(t *testing.T) {
	runner := newTestRunner()

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Stages)
	assert.Nil(t, result.Failed())
}

func TestRunner_EmitsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	runner := NewRunner(tp.Tracer("test"))

	var ran []string
	runner.Add(
		noopStage("discover", &ran),
		failingStage("merge", errors.New("disk full")),
	)

	_, err := runner.Run(context.Background())
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	names := []string{spans[0].Name, spans[1].Name}
	assert.Contains(t, names, "pipeline.stage.discover")
	assert.Contains(t, names, "pipeline.stage.merge")

	for _, span := range spans {
		if span.Name != "pipeline.stage.merge" {
			continue
		}
		require.Len(t, span.Events, 1, "failed stage records its error as an event")
		assert.Equal(t, "exception", span.Events[0].Name)
	}
}
