package subprocess

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/amarbel-llc/extproc/internal/fdset"
)

// IsEOF reports whether Output or Error will never yield another byte:
// everything buffered has been read and the child has closed its end.
// It never blocks. If the pipe is readable it pulls one chunk into the
// stream's buffer to find out, so no data is lost.
func (h *Handle) IsEOF(s Stream) (bool, error) {
	ep, err := h.readable("eof check", s)
	if err != nil {
		return false, err
	}

	if ep.buffered() {
		return false, nil
	}
	if ep.eof {
		return true, nil
	}

	ready, err := ep.wait(0)
	if err != nil || !ready {
		return false, err
	}

	if _, err := ep.reader.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			ep.eof = true
			return true, nil
		}
		return false, &IOError{Op: "read", Stream: s, Err: err}
	}
	return false, nil
}

// IsReady polls s without blocking. For Output and Error it reports
// whether a read would return at once; for Input whether a write of at
// least one byte would be accepted at once. No data is consumed.
func (h *Handle) IsReady(s Stream) (bool, error) {
	ep, err := h.owned("readiness check", s)
	if err != nil {
		return false, err
	}
	return ep.wait(0)
}

// WaitForData blocks until Output or Error is ready or timeout elapses.
// A zero timeout is the same as IsReady; a negative one waits forever.
func (h *Handle) WaitForData(timeout time.Duration, s Stream) (bool, error) {
	ep, err := h.readable("wait on", s)
	if err != nil {
		return false, err
	}
	return ep.wait(timeout)
}

// WaitForAnyData blocks until Output or Error is ready, or timeout
// elapses, and reports which. If both are ready at the same moment Error
// is reported; callers rely on that order.
//
// Streams that have already returned EOF are not waited on. When no owned
// stream is left to wait on it returns false at once. It fails with
// ErrNoReadableStreams if both streams are passed through.
func (h *Handle) WaitForAnyData(timeout time.Duration) (Stream, bool, error) {
	if h.state == StateClosed {
		return 0, false, fmt.Errorf("wait on stdout/stderr: %w", ErrClosed)
	}

	var candidates []*endpoint
	owned := 0
	for _, s := range []Stream{Error, Output} {
		ep := h.endpoints[s]
		if ep == nil {
			continue
		}
		owned++
		if !ep.exhausted() {
			candidates = append(candidates, ep)
		}
	}

	if owned == 0 {
		return 0, false, ErrNoReadableStreams
	}
	if len(candidates) == 0 {
		return 0, false, nil
	}

	ready := make([]bool, len(candidates))
	var descs []fdset.Desc
	var polled []int
	for i, ep := range candidates {
		if ep.pending() {
			ready[i] = true
			continue
		}
		descs = append(descs, ep.desc())
		polled = append(polled, i)
	}

	if len(descs) > 0 {
		// Something is already pending: only look, don't wait.
		wait := timeout
		if fdset.Any(ready) {
			wait = 0
		}

		got, err := fdset.Wait(wait, descs...)
		if err != nil {
			return 0, false, &IOError{Op: "poll", Stream: candidates[polled[0]].stream, Err: err}
		}
		for j, i := range polled {
			ready[i] = got[j]
		}
	}

	for i, ep := range candidates {
		if ready[i] {
			return ep.stream, true, nil
		}
	}
	return 0, false, nil
}

// Read returns at most maxLength bytes from Output or Error, or
// DefaultReadLength bytes when maxLength is not positive. It blocks until
// at least one byte is available or the stream reaches EOF. An empty
// result means EOF, and every later call returns empty as well.
func (h *Handle) Read(s Stream, maxLength int) ([]byte, error) {
	ep, err := h.readable("read", s)
	if err != nil {
		return nil, err
	}

	if ep.exhausted() {
		return []byte{}, nil
	}

	if maxLength <= 0 {
		maxLength = DefaultReadLength
	}

	// One pull returns at most what is buffered, or one pipe read.
	buf := make([]byte, min(maxLength, max(DefaultReadLength, ep.reader.Buffered())))
	for {
		n, err := ep.reader.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if errors.Is(err, io.EOF) {
			ep.eof = true
			return []byte{}, nil
		}
		if err != nil {
			return nil, &IOError{Op: "read", Stream: s, Err: err}
		}
	}
}

// ReadLine blocks until a full line or EOF is available on Output or
// Error and returns it without the trailing newline. At EOF it returns an
// empty string.
func (h *Handle) ReadLine(s Stream) (string, error) {
	ep, err := h.readable("read line from", s)
	if err != nil {
		return "", err
	}

	if ep.exhausted() {
		return "", nil
	}

	line, err := ep.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", &IOError{Op: "read", Stream: s, Err: err}
		}
		ep.eof = true
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Write writes all of data to Input, blocking while the pipe is full.
func (h *Handle) Write(s Stream, data []byte) error {
	ep, err := h.writable("write", s)
	if err != nil {
		return err
	}

	for len(data) > 0 {
		n, err := ep.file.Write(data)
		if err != nil {
			return &IOError{Op: "write", Stream: s, Err: err}
		}
		if n == 0 {
			return &IOError{Op: "write", Stream: s, Err: io.ErrShortWrite}
		}
		data = data[n:]
	}
	return nil
}

func (h *Handle) WriteString(s Stream, data string) error {
	return h.Write(s, []byte(data))
}

// WriteLine writes line followed by a newline.
func (h *Handle) WriteLine(s Stream, line string) error {
	return h.Write(s, []byte(line+"\n"))
}

// CloseInput closes the input pipe so the child sees EOF, while its output
// can still be read. Later Input operations fail with ErrInvalidStream.
func (h *Handle) CloseInput() error {
	ep, err := h.writable("close", Input)
	if err != nil {
		return err
	}

	h.endpoints[Input] = nil
	h.inputClosed = true

	if err := ep.file.Close(); err != nil {
		return &IOError{Op: "close", Stream: Input, Err: err}
	}
	return nil
}
