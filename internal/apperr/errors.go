// Package apperr defines the error kinds surfaced by imagesim.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrDecode   = errors.New("decode failed")
	ErrWrite    = errors.New("write failed")
	ErrNoImages = errors.New("no images given")
)

// PathError records a failed operation on a single input or output path.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the error kind and the underlying cause to errors.Is/As.
func (e *PathError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Decode wraps err as a decode failure for path.
func Decode(path string, err error) error {
	return &PathError{Op: "decode", Path: path, Kind: ErrDecode, Err: err}
}

// Write wraps err as a write failure for path.
func Write(path string, err error) error {
	return &PathError{Op: "write", Path: path, Kind: ErrWrite, Err: err}
}
