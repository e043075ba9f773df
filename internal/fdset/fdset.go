// Package fdset waits for readiness on a small, fixed set of file
// descriptors. It is the only place in the module that talks to the
// operating system's polling primitive; callers describe which
// descriptors they care about and for which direction, and get back a
// per-descriptor readiness flag.
//
// A descriptor that has hung up or is in an error state is reported as
// ready: the next read or write on it will not block, it will return EOF
// or the error instead.
package fdset

import (
	"errors"
	"time"
)

// Interest selects the direction a descriptor is polled for.
type Interest int

const (
	Readable Interest = iota
	Writable
)

func (i Interest) String() string {
	switch i {
	case Readable:
		return "readable"
	case Writable:
		return "writable"
	default:
		return "unknown"
	}
}

// Desc names one descriptor and the direction it is waited on.
type Desc struct {
	FD       int
	Interest Interest
}

var (
	ErrNoDescriptors = errors.New("no descriptors to wait on")
	ErrBadDescriptor = errors.New("descriptor is not open")
)

// Ready polls descs once without blocking.
func Ready(descs ...Desc) ([]bool, error) {
	return Wait(0, descs...)
}

// WaitOne is Wait for a single descriptor.
func WaitOne(timeout time.Duration, d Desc) (bool, error) {
	ready, err := Wait(timeout, d)
	if err != nil {
		return false, err
	}
	return ready[0], nil
}

// Any reports whether at least one flag in ready is set.
func Any(ready []bool) bool {
	for _, r := range ready {
		if r {
			return true
		}
	}
	return false
}
