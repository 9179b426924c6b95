package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the part of a year's run that failed
type Stage string

const (
	StageConfig    Stage = "config"
	StageCompute   Stage = "compute"
	StagePersist   Stage = "persist"
	StageRender    Stage = "render"
	StageCancelled Stage = "cancelled"
)

var (
	// ErrInvalidDate marks a month/day that does not exist in the year being run
	ErrInvalidDate = errors.New("calendar date does not exist")
	// ErrNoDataset is returned when the model reports success without a dataset
	ErrNoDataset = errors.New("model returned no dataset")
)

// StageError wraps a per-year failure with the stage it happened in.
// compute covers model errors, persist covers dataset writes and render covers figure output.
type StageError struct {
	Stage Stage
	Year  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("year %d failed at %s: %v", e.Year, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
