package subprocess

import "fmt"

// Stream identifies one of the child's standard streams.
type Stream int

const (
	Input Stream = iota
	Output
	Error
)

func (s Stream) String() string {
	switch s {
	case Input:
		return "stdin"
	case Output:
		return "stdout"
	case Error:
		return "stderr"
	default:
		return fmt.Sprintf("Stream(%d)", int(s))
	}
}

func (s Stream) valid() bool {
	return s >= Input && s <= Error
}

func (s Stream) readable() bool {
	return s == Output || s == Error
}
