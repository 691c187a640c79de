package gametestx

import "errors"

var (
	// ErrDuplicateName is returned when {suite, name} is already registered.
	ErrDuplicateName = errors.New("gametestx: duplicate test name")
	// ErrInvalidConfig is returned for definitions that can never run.
	ErrInvalidConfig = errors.New("gametestx: invalid test configuration")
	// ErrFrozen is returned when the registry is modified after a run started.
	ErrFrozen = errors.New("gametestx: registry is frozen")
	// ErrReentrantTick is the panic value of a Clock advanced from inside a tick.
	ErrReentrantTick = errors.New("gametestx: clock advanced re-entrantly")
	// ErrRunInProgress is returned when a scheduler is asked to begin twice.
	ErrRunInProgress = errors.New("gametestx: run already in progress")
	// ErrNotStarted is returned when a scheduler is advanced before Begin.
	ErrNotStarted = errors.New("gametestx: run not started")
	// ErrUnknownInstance is returned when cancelling an instance that is not running.
	ErrUnknownInstance = errors.New("gametestx: unknown instance")
)
