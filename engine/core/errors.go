package core

import (
	"errors"
)

// ErrUnsupported marks a feature gap. It never signals a broken state.
var ErrUnsupported = errors.New("unsupported")
