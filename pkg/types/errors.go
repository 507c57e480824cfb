package types

import (
	"errors"
	"fmt"
)

// Storage and lookup errors.
var (
	ErrFileNotFound    = errors.New("file not found")
	ErrFeatureNotFound = errors.New("feature not found")
	ErrTestNotFound    = errors.New("test not found")
	ErrIndexClosed     = errors.New("index is closed")
)

// Value validation errors.
var (
	ErrInvalidLevel      = errors.New("invalid maturity level")
	ErrInvalidStatus     = errors.New("invalid test status")
	ErrInvalidStoryID    = errors.New("invalid user story identifier")
	ErrInvalidScenarioID = errors.New("invalid scenario identifier")
)

// ParseError reports an I/O failure while reading a specification document.
// Malformed content never produces a ParseError.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
