package subprocess

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/google/uuid"

	"github.com/amarbel-llc/extproc/internal/shell"
)

type State int

const (
	StateRunning State = iota
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal is the set of files passthrough streams are connected to.
type Terminal struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

func (t Terminal) withDefaults() Terminal {
	if t.Stdin == nil {
		t.Stdin = os.Stdin
	}
	if t.Stdout == nil {
		t.Stdout = os.Stdout
	}
	if t.Stderr == nil {
		t.Stderr = os.Stderr
	}
	return t
}

// Options selects how the child's streams are connected. The zero value
// gives the caller an owned pipe for all three streams.
type Options struct {
	// PassthroughOutput sends the child's stdout to the terminal.
	PassthroughOutput bool

	// PassthroughError sends the child's stderr to the terminal.
	PassthroughError bool

	// InputFromTerminal connects the child's stdin to the terminal.
	InputFromTerminal bool

	// Terminal overrides the files used for passthrough. Unset fields
	// default to the parent's own standard streams.
	Terminal Terminal

	// Dir is the child's working directory; empty means the parent's.
	Dir string

	Logger *slog.Logger
}

// Handle owns one running child process and the parent's ends of its
// owned pipes.
type Handle struct {
	// ID identifies the handle in logs.
	ID string

	// CommandLine is the command and its arguments quoted for a POSIX
	// shell. It is informational: the child is started without a shell.
	CommandLine string

	cmd         *exec.Cmd
	endpoints   [3]*endpoint
	inputClosed bool
	state       State
	logger      *slog.Logger
}

// New starts command with args, one argument per argv slot, and wires its
// streams according to opts. If the child cannot be started New returns a
// *SpawnError and releases every pipe it created.
func New(command string, args []string, opts Options) (*Handle, error) {
	cmdLine := shell.Join(command, args)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.Command(command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var pipes pipeSet
	if err := pipes.wire(cmd, opts, opts.Terminal.withDefaults()); err != nil {
		pipes.closeAll()
		return nil, &SpawnError{CommandLine: cmdLine, Err: err}
	}

	h := &Handle{
		ID:          uuid.NewString(),
		CommandLine: cmdLine,
		cmd:         cmd,
		state:       StateRunning,
		logger:      logger,
	}

	for i, f := range pipes.parent {
		if f == nil {
			continue
		}
		ep, err := newEndpoint(Stream(i), f)
		if err != nil {
			pipes.closeAll()
			return nil, &SpawnError{CommandLine: cmdLine, Err: err}
		}
		h.endpoints[i] = ep
	}

	if err := cmd.Start(); err != nil {
		pipes.closeAll()
		return nil, &SpawnError{CommandLine: cmdLine, Err: fmt.Errorf("starting process: %w", err)}
	}

	// The child holds its own copies now.
	pipes.closeChild()

	logger.Debug("spawned process",
		"id", h.ID,
		"pid", cmd.Process.Pid,
		"command", cmdLine,
	)

	return h, nil
}

func (h *Handle) State() State {
	return h.state
}

// Pid returns the child's process ID.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Owns reports whether s is an owned pipe that can be used through h.
func (h *Handle) Owns(s Stream) bool {
	return s.valid() && h.endpoints[s] != nil
}

// Close releases every owned pipe and waits for the child to exit,
// returning its exit status. Unread output is discarded and the child sees
// EOF on its input. Close must be called exactly once; further calls
// return ErrClosed.
func (h *Handle) Close() (int, error) {
	if h.state == StateClosed {
		return -1, ErrClosed
	}
	h.state = StateClosed

	var errs []error
	for i, ep := range h.endpoints {
		if ep == nil {
			continue
		}
		if err := ep.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", Stream(i), err))
		}
		h.endpoints[i] = nil
	}

	status, err := exitStatus(h.cmd.Wait())
	if err != nil {
		errs = append(errs, err)
	}

	h.logger.Debug("process exited",
		"id", h.ID,
		"pid", h.Pid(),
		"status", status,
	)

	return status, errors.Join(errs...)
}

func (h *Handle) owned(op string, s Stream) (*endpoint, error) {
	if h.state == StateClosed {
		return nil, fmt.Errorf("%s %s: %w", op, s, ErrClosed)
	}
	if !s.valid() {
		return nil, invalidStream(op, s, "unknown stream")
	}

	ep := h.endpoints[s]
	if ep == nil {
		if s == Input && h.inputClosed {
			return nil, invalidStream(op, s, "input has been closed")
		}
		return nil, invalidStream(op, s, "stream is passed through to the terminal")
	}
	return ep, nil
}

func (h *Handle) readable(op string, s Stream) (*endpoint, error) {
	ep, err := h.owned(op, s)
	if err != nil {
		return nil, err
	}
	if ep.reader == nil {
		return nil, invalidStream(op, s, "stream is write-only")
	}
	return ep, nil
}

func (h *Handle) writable(op string, s Stream) (*endpoint, error) {
	ep, err := h.owned(op, s)
	if err != nil {
		return nil, err
	}
	if ep.reader != nil {
		return nil, invalidStream(op, s, "stream is read-only")
	}
	return ep, nil
}
