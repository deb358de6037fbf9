package label

import (
	"errors"
	"fmt"
)

// ErrInvalidLabel is matched by every label validation failure.
var ErrInvalidLabel = errors.New("invalid label")

// ValidationError describes why a string was rejected as a label.
type ValidationError struct {
	Input string
	// Offset is the byte offset of the first rejected rune, or -1 when the
	// input is empty.
	Offset int
	Rune   rune
}

func (e *ValidationError) Error() string {
	if e.Offset < 0 {
		return "invalid label: empty"
	}
	return fmt.Sprintf("invalid label %q: character %q at offset %d is not alphanumeric", e.Input, e.Rune, e.Offset)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidLabel
}

// ElementError locates a validation failure inside an array of labels.
type ElementError struct {
	Index int
	Err   error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}
