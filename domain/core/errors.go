package core

import (
	"errors"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound  = errors.New("resource not found")
	ErrInvalidID = errors.New("invalid identifier")
)
