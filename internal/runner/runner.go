// Package runner runs external commands to completion on top of
// subprocess handles, collecting their output and exit status.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"syscall"
	"time"

	"github.com/amarbel-llc/purse-first/libs/go-mcp/output"

	"github.com/amarbel-llc/extproc/internal/shell"
	"github.com/amarbel-llc/extproc/internal/subprocess"
)

var ErrNonZeroExit = errors.New("command exited with non-zero status")

// Config controls how a Runner starts commands and collects output.
type Config struct {
	Logger *slog.Logger

	// PollInterval bounds each wait for output, and so how quickly a
	// cancelled context is noticed.
	PollInterval time.Duration

	// ReadLength is the largest chunk read from a stream at once.
	ReadLength int

	// KeepTrailingNewlines disables trimming of trailing newlines from
	// captured output.
	KeepTrailingNewlines bool

	// Dir is the working directory for every command.
	Dir string

	// Terminal receives streams that are not captured.
	Terminal subprocess.Terminal
}

func DefaultConfig() Config {
	return Config{
		Logger:       slog.Default(),
		PollInterval: 50 * time.Millisecond,
		ReadLength:   subprocess.DefaultReadLength,
	}
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	CommandLine string        `json:"command" yaml:"command"`
	ExitStatus  int           `json:"exit_status" yaml:"exit_status"`
	Stdout      string        `json:"stdout" yaml:"stdout"`
	Stderr      string        `json:"stderr" yaml:"stderr"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

func (r *Result) Success() bool {
	return r.ExitStatus == 0
}

// ExitError reports a command that exited with a non-zero status. Stderr
// holds a size-limited excerpt of what the command wrote to stderr.
type ExitError struct {
	CommandLine string
	Status      int
	Stderr      string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.CommandLine, e.Status)
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return ErrNonZeroExit
}

type Runner struct {
	cfg Config
}

func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.ReadLength <= 0 {
		cfg.ReadLength = subprocess.DefaultReadLength
	}
	return &Runner{cfg: cfg}
}

// Capture runs command with its stdout and stderr captured and its stdin
// closed, and returns both streams with the exit status.
//
// Cancellation is noticed between waits for output. The handle is then
// closed, but Close still waits for the child, so a child that ignores its
// closed pipes keeps the call blocked until it exits.
func (r *Runner) Capture(ctx context.Context, command string, args ...string) (*Result, error) {
	return r.run(ctx, command, args, subprocess.Options{}, nil)
}

// CaptureStdout is Capture with stderr passed through to the terminal.
func (r *Runner) CaptureStdout(ctx context.Context, command string, args ...string) (*Result, error) {
	return r.run(ctx, command, args, subprocess.Options{PassthroughError: true}, nil)
}

// Feed writes input to the command's stdin, closes it, and captures both
// output streams. Output is drained while input is written, so a command
// that answers as it reads cannot stall on a full pipe. Cancellation
// behaves as for Capture.
func (r *Runner) Feed(ctx context.Context, input []byte, command string, args ...string) (*Result, error) {
	return r.run(ctx, command, args, subprocess.Options{}, input)
}

// Output runs command and returns its stdout and exit status. Stderr is
// passed through to the terminal.
func (r *Runner) Output(ctx context.Context, command string, args ...string) (string, int, error) {
	res, err := r.CaptureStdout(ctx, command, args...)
	if err != nil {
		return "", -1, err
	}
	return res.Stdout, res.ExitStatus, nil
}

// Run runs command with stdout and stderr passed through and reports
// whether it exited with status 0.
func (r *Runner) Run(ctx context.Context, command string, args ...string) (bool, error) {
	res, err := r.run(ctx, command, args, subprocess.Options{
		PassthroughOutput: true,
		PassthroughError:  true,
	}, nil)
	if err != nil {
		return false, err
	}
	return res.Success(), nil
}

// Check runs command with both output streams captured and returns an
// *ExitError if it exits with a non-zero status.
func (r *Runner) Check(ctx context.Context, command string, args ...string) (*Result, error) {
	res, err := r.Capture(ctx, command, args...)
	if err != nil {
		return nil, err
	}
	if res.Success() {
		return res, nil
	}

	limited := output.LimitStderr(res.Stderr)
	r.cfg.Logger.Warn("command failed",
		"command", res.CommandLine,
		"exit_status", res.ExitStatus,
	)
	return res, &ExitError{
		CommandLine: res.CommandLine,
		Status:      res.ExitStatus,
		Stderr:      limited.Content,
	}
}

// Interactive runs command attached to the terminal on all three streams
// and returns its exit status. Once started the command cannot be
// interrupted through ctx.
func (r *Runner) Interactive(ctx context.Context, command string, args ...string) (int, error) {
	res, err := r.run(ctx, command, args, subprocess.Options{
		PassthroughOutput: true,
		PassthroughError:  true,
		InputFromTerminal: true,
	}, nil)
	if err != nil {
		return -1, err
	}
	return res.ExitStatus, nil
}

// Routing selects which streams a routed run leaves attached to the
// terminal. Streams not passed through are captured; stdin not taken from
// the terminal is closed.
type Routing struct {
	PassthroughOutput bool
	PassthroughError  bool
	InputFromTerminal bool
}

// Routed runs command with the given routing and captures whatever it
// does not pass through. Cancellation behaves as for Capture.
func (r *Runner) Routed(ctx context.Context, routing Routing, command string, args ...string) (*Result, error) {
	return r.run(ctx, command, args, subprocess.Options{
		PassthroughOutput: routing.PassthroughOutput,
		PassthroughError:  routing.PassthroughError,
		InputFromTerminal: routing.InputFromTerminal,
	}, nil)
}

func (r *Runner) run(ctx context.Context, command string, args []string, opts subprocess.Options, input []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	opts.Dir = r.cfg.Dir
	opts.Terminal = r.cfg.Terminal
	opts.Logger = r.cfg.Logger

	h, err := subprocess.New(command, args, opts)
	if err != nil {
		return nil, err
	}

	d := &drainer{h: h, readLength: r.cfg.ReadLength}
	if err := d.run(ctx, r.cfg.PollInterval, input); err != nil {
		if _, closeErr := h.Close(); closeErr != nil {
			r.cfg.Logger.Warn("closing process after failure",
				"command", h.CommandLine,
				"error", closeErr,
			)
		}
		return nil, err
	}

	status, err := h.Close()
	if err != nil {
		return nil, fmt.Errorf("closing %s: %w", h.CommandLine, err)
	}

	res := &Result{
		CommandLine: h.CommandLine,
		ExitStatus:  status,
		Stdout:      r.trim(d.out[subprocess.Output].String()),
		Stderr:      r.trim(d.out[subprocess.Error].String()),
		Duration:    time.Since(start),
	}

	r.cfg.Logger.Debug("command finished",
		"id", h.ID,
		"command", res.CommandLine,
		"exit_status", res.ExitStatus,
		"duration", res.Duration,
	)

	return res, nil
}

func (r *Runner) trim(s string) string {
	if r.cfg.KeepTrailingNewlines {
		return s
	}
	return strings.TrimRight(s, "\n")
}

// CommandLine renders command and args the way Result.CommandLine does.
func CommandLine(command string, args ...string) string {
	return shell.Join(command, args)
}

// drainer moves input into a handle and output out of it until both
// output streams reach EOF.
type drainer struct {
	h          *subprocess.Handle
	readLength int
	out        [3]bytes.Buffer
}

// pipeChunk is the most written to stdin per round. A pipe that polls
// writable has at least this much room, so the write does not block.
const pipeChunk = 4096

func (d *drainer) run(ctx context.Context, interval time.Duration, input []byte) error {
	if len(input) == 0 && d.h.Owns(subprocess.Input) {
		if err := d.h.CloseInput(); err != nil {
			return fmt.Errorf("closing stdin: %w", err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := interval
		if len(input) > 0 {
			sent, err := d.feed(input)
			if err != nil {
				return err
			}
			input = input[sent:]
			if len(input) == 0 {
				if err := d.h.CloseInput(); err != nil {
					return fmt.Errorf("closing stdin: %w", err)
				}
			} else if sent > 0 {
				wait = 0
			}
		}

		s, ok, err := d.h.WaitForAnyData(wait)
		if errors.Is(err, subprocess.ErrNoReadableStreams) {
			return d.flush(input)
		}
		if err != nil {
			return fmt.Errorf("waiting for output: %w", err)
		}

		if ok {
			chunk, err := d.h.Read(s, d.readLength)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s, err)
			}
			d.out[s].Write(chunk)
			continue
		}

		if len(input) > 0 {
			continue
		}

		done, err := d.finished()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// feed writes the next chunk of input if stdin can take it without
// blocking, and reports how many bytes were consumed. A child that has
// stopped reading consumes the rest.
func (d *drainer) feed(input []byte) (int, error) {
	ready, err := d.h.IsReady(subprocess.Input)
	if err != nil {
		return 0, fmt.Errorf("polling stdin: %w", err)
	}
	if !ready {
		return 0, nil
	}

	n := min(len(input), pipeChunk)
	if err := d.h.Write(subprocess.Input, input[:n]); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			return len(input), nil
		}
		return 0, fmt.Errorf("writing stdin: %w", err)
	}
	return n, nil
}

// flush writes what is left of input when no output needs draining.
func (d *drainer) flush(input []byte) error {
	if len(input) == 0 {
		return nil
	}
	err := d.h.Write(subprocess.Input, input)
	if err != nil && !errors.Is(err, syscall.EPIPE) {
		return fmt.Errorf("writing stdin: %w", err)
	}
	if err := d.h.CloseInput(); err != nil {
		return fmt.Errorf("closing stdin: %w", err)
	}
	return nil
}

func (d *drainer) finished() (bool, error) {
	for _, s := range []subprocess.Stream{subprocess.Output, subprocess.Error} {
		if !d.h.Owns(s) {
			continue
		}
		eof, err := d.h.IsEOF(s)
		if err != nil {
			return false, fmt.Errorf("checking %s: %w", s, err)
		}
		if !eof {
			return false, nil
		}
	}
	return true, nil
}
