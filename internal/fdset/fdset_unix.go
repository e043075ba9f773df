//go:build unix

package fdset

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sys/unix"
)

// Wait blocks until at least one of descs is ready or timeout elapses.
// A zero timeout polls once, a negative timeout waits indefinitely. The
// returned slice is parallel to descs; all flags are false on timeout.
// Interrupted polls are restarted with the remaining time.
func Wait(timeout time.Duration, descs ...Desc) ([]bool, error) {
	if len(descs) == 0 {
		return nil, ErrNoDescriptors
	}

	fds := make([]unix.PollFd, len(descs))
	for i, d := range descs {
		fds[i].Fd = int32(d.FD)
		switch d.Interest {
		case Readable:
			fds[i].Events = unix.POLLIN
		case Writable:
			fds[i].Events = unix.POLLOUT
		default:
			return nil, fmt.Errorf("descriptor %d: unknown interest %d", d.FD, d.Interest)
		}
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		n, err := unix.Poll(fds, pollTimeout(timeout, deadline))
		if errors.Is(err, unix.EINTR) {
			if timeout == 0 || (timeout > 0 && !time.Now().Before(deadline)) {
				return make([]bool, len(descs)), nil
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("polling descriptors: %w", err)
		}

		ready := make([]bool, len(descs))
		if n == 0 {
			return ready, nil
		}

		for i := range fds {
			revents := fds[i].Revents
			if revents&unix.POLLNVAL != 0 {
				return nil, fmt.Errorf("descriptor %d: %w", descs[i].FD, ErrBadDescriptor)
			}
			ready[i] = revents&(fds[i].Events|unix.POLLHUP|unix.POLLERR) != 0
		}
		return ready, nil
	}
}

// pollTimeout converts the caller's timeout into poll(2) milliseconds,
// rounding partial milliseconds up so short waits never degrade into a
// busy loop.
func pollTimeout(timeout time.Duration, deadline time.Time) int {
	switch {
	case timeout < 0:
		return -1
	case timeout == 0:
		return 0
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0
	}

	ms := (remaining + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
