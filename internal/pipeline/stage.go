package pipeline

import (
	"context"
	"time"
)

// Stage represents a single stage of a batch run
type Stage interface {
	// ID returns the unique identifier for this stage
	ID() string

	// Name returns the human-readable name for this stage
	Name() string

	// Run executes the stage
	Run(ctx context.Context) error
}

// StageStatus represents the outcome of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageResult records how one stage ended
type StageResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   StageStatus   `json:"status"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// funcStage adapts a plain function to the Stage interface
type funcStage struct {
	id   string
	name string
	run  func(ctx context.Context) error
}

// NewStage wraps a function as a named stage
func NewStage(id, name string, run func(ctx context.Context) error) Stage {
	return &funcStage{id: id, name: name, run: run}
}

func (s *funcStage) ID() string   { return s.id }
func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Run(ctx context.Context) error {
	return s.run(ctx)
}
