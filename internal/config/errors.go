package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncludeDepthExceeded reports @include chains that are too deep or
// cyclic.
var ErrIncludeDepthExceeded = errors.New("include depth exceeded")

// ParseError locates a settings file that could not be decoded. Line and
// Column are zero when the decoder did not report a position.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	var at string
	switch {
	case e.Line > 0 && e.Column > 0:
		at = fmt.Sprintf(":%d:%d", e.Line, e.Column)
	case e.Line > 0:
		at = fmt.Sprintf(":%d", e.Line)
	}
	return fmt.Sprintf("%s%s: %s", e.Path, at, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}
