package qart

import "errors"

// Common errors
var (
	ErrNotFound    = errors.New("object not found")
	ErrNotBaseDir  = errors.New("base directory is not a directory")
	ErrDuplicateID = errors.New("duplicate object key")
)
