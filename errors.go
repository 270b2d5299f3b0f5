package flowz

import "github.com/birdayz/flowz/fdag"

// The error taxonomy is defined in fdag and re-exported here so callers of
// the typed API do not need a second import to dispatch on error kinds.
var (
	ErrStageAlreadyExists = fdag.ErrStageAlreadyExists
	ErrUnknownStage       = fdag.ErrUnknownStage
	ErrTypeMismatch       = fdag.ErrTypeMismatch
	ErrStageCountMismatch = fdag.ErrStageCountMismatch
	ErrInvalidWorkerCount = fdag.ErrInvalidWorkerCount
	ErrStageFailed        = fdag.ErrStageFailed
	ErrIO                 = fdag.ErrIO
	ErrInvalidKey         = fdag.ErrInvalidKey
)
