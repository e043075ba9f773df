package subprocess

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStream     = errors.New("invalid stream")
	ErrNoReadableStreams = errors.New("neither stdout nor stderr is readable (disable passthrough to read them)")
	ErrClosed            = errors.New("process handle is closed")
)

// SpawnError is returned by New when the child could not be started.
type SpawnError struct {
	CommandLine string
	Err         error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("unable to execute external program %q: %v", e.CommandLine, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IOError reports a failed read, write or poll on an owned pipe.
type IOError struct {
	Op     string
	Stream Stream
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Stream, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func invalidStream(op string, s Stream, reason string) error {
	return fmt.Errorf("%s %s: %w: %s", op, s, ErrInvalidStream, reason)
}
