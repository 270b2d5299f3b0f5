package fdag

import "errors"

// Sentinel errors for the closed error taxonomy of the library. All errors
// returned by the builder, the store and the scheduler wrap one of these, so
// callers can dispatch with errors.Is.
var (
	// ErrStageAlreadyExists is returned when a key is registered twice.
	ErrStageAlreadyExists = errors.New("stage already exists")

	// ErrUnknownStage is returned when a referenced key is not registered,
	// or when a result is missing from the store.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrTypeMismatch is returned when a declared type disagrees with the
	// producing stage's output type, either at wiring time or when a stored
	// value is reified at read.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrStageCountMismatch is returned when a run completed fewer stages
	// than its closure contains. It indicates a scheduler bug or a violated
	// graph invariant, not a user error.
	ErrStageCountMismatch = errors.New("stage count mismatch")

	// ErrInvalidWorkerCount is returned when the requested worker count is
	// zero or exceeds the available hardware parallelism.
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrStageFailed wraps any failure of a user computation, including
	// recovered panics.
	ErrStageFailed = errors.New("stage failed")

	// ErrIO wraps file read/write failures from the I/O helper stages. It
	// surfaces underneath ErrStageFailed when such a stage runs.
	ErrIO = errors.New("i/o error")

	// ErrInvalidKey is returned for empty keys or keys containing whitespace.
	ErrInvalidKey = errors.New("invalid stage key")
)
