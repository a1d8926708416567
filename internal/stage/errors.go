package stage

import "errors"

var (
	ErrStageNotFound    = errors.New("stage not found")
	ErrInvalidBlock     = errors.New("invalid block identifier")
	ErrInvalidThreshold = errors.New("break threshold must be positive")
)
