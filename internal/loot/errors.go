package loot

import "errors"

var (
	ErrInvalidMaterial = errors.New("invalid material")
	ErrInvalidBounds   = errors.New("invalid bounds")
)
