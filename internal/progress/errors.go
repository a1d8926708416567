package progress

import "errors"

var ErrNoProgress = errors.New("player has no progress")
