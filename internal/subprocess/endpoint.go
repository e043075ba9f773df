package subprocess

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/amarbel-llc/extproc/internal/fdset"
)

// DefaultReadLength is the largest chunk Read returns when the caller does
// not ask for a specific length.
const DefaultReadLength = 8192

// endpoint is the parent's end of one owned pipe.
type endpoint struct {
	stream Stream
	file   *os.File
	fd     int

	// reader buffers Output and Error; it is nil for Input.
	reader *bufio.Reader

	// eof is set once a read on the pipe has returned EOF.
	eof bool
}

func newEndpoint(s Stream, f *os.File) (*endpoint, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("accessing %s descriptor: %w", s, err)
	}

	ep := &endpoint{stream: s, file: f, fd: -1}
	if err := rc.Control(func(fd uintptr) { ep.fd = int(fd) }); err != nil {
		return nil, fmt.Errorf("accessing %s descriptor: %w", s, err)
	}

	if s.readable() {
		ep.reader = bufio.NewReaderSize(f, DefaultReadLength)
	}
	return ep, nil
}

func (ep *endpoint) desc() fdset.Desc {
	if ep.reader == nil {
		return fdset.Desc{FD: ep.fd, Interest: fdset.Writable}
	}
	return fdset.Desc{FD: ep.fd, Interest: fdset.Readable}
}

// buffered reports bytes already pulled off the pipe but not yet returned.
func (ep *endpoint) buffered() bool {
	return ep.reader != nil && ep.reader.Buffered() > 0
}

// exhausted reports that nothing will ever be read from the pipe again.
func (ep *endpoint) exhausted() bool {
	return ep.eof && !ep.buffered()
}

// pending reports that a read would return without touching the
// descriptor.
func (ep *endpoint) pending() bool {
	return ep.buffered() || ep.eof
}

func (ep *endpoint) wait(timeout time.Duration) (bool, error) {
	if ep.pending() {
		return true, nil
	}

	ready, err := fdset.WaitOne(timeout, ep.desc())
	if err != nil {
		return false, &IOError{Op: "poll", Stream: ep.stream, Err: err}
	}
	return ready, nil
}
