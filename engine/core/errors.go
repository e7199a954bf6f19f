package core

import (
	"errors"
)

var (
	ErrStopped         = errors.New("render manager stopped, no further tasks accepted")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrThreadNotActive = errors.New("render thread not active")
)
