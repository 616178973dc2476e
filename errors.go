package tick

import (
	"errors"
	"fmt"
)

var (
	// ErrInitialization marks failures before the loop reached RUNNING.
	ErrInitialization = errors.New("initialization failure")
	// ErrHandler marks failures raised while the loop was RUNNING.
	ErrHandler = errors.New("handler failure")
	// ErrCleanup marks a failing simulation cleanup.
	ErrCleanup = errors.New("cleanup failure")
)

type Stage string

const (
	StageSurfaceInit    Stage = "surface-init"
	StageSimulationInit Stage = "simulation-init"
	StageInput          Stage = "input"
	StageUpdate         Stage = "update"
	StageRender         Stage = "render"
	StagePresent        Stage = "present"
	StageCleanup        Stage = "cleanup"
)

// LoopError records which stage of the loop failed.
type LoopError struct {
	Stage Stage
	Err   error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.kind(), e.Stage, e.Err)
}

func (e *LoopError) Unwrap() error {
	return e.Err
}

func (e *LoopError) Is(target error) bool {
	return target == e.kind()
}

func (e *LoopError) kind() error {
	switch e.Stage {
	case StageSurfaceInit, StageSimulationInit:
		return ErrInitialization
	case StageCleanup:
		return ErrCleanup
	default:
		return ErrHandler
	}
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &LoopError{Stage: stage, Err: err}
}
