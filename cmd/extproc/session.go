package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/amarbel-llc/extproc/internal/subprocess"
)

// session forwards lines to a child's stdin and prints what it answers.
type session struct {
	h       *subprocess.Handle
	out     io.Writer
	timeout time.Duration
	logger  *slog.Logger

	// pending holds output not yet printed, per stream.
	pending [3][]byte
	midLine [3]bool
}

func runSession(ctx context.Context, inv invocation, timeout time.Duration) error {
	name, args, err := inv.resolve()
	if err != nil {
		return err
	}

	_, logger, err := loadConfig()
	if err != nil {
		return err
	}

	h, err := subprocess.New(name, args, subprocess.Options{Logger: logger})
	if err != nil {
		return err
	}

	s := &session{h: h, out: os.Stdout, timeout: timeout, logger: logger}

	prompt := ""
	if term.IsTerminal(int(os.Stdin.Fd())) {
		prompt = "> "
	}

	runErr := s.run(ctx, os.Stdin, prompt)

	status, closeErr := h.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing %s: %w", h.CommandLine, closeErr)
	}
	return exitWith(status)
}

func (s *session) run(ctx context.Context, in io.Reader, prompt string) error {
	scanner := bufio.NewScanner(in)

	for {
		if prompt != "" {
			fmt.Fprint(os.Stderr, prompt)
		}
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.h.WriteLine(subprocess.Input, scanner.Text()); err != nil {
			if errors.Is(err, syscall.EPIPE) {
				s.logger.Warn("process stopped reading input", "command", s.h.CommandLine)
				break
			}
			return err
		}

		if err := s.drain(s.timeout); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if s.h.Owns(subprocess.Input) {
		if err := s.h.CloseInput(); err != nil && !errors.Is(err, subprocess.ErrInvalidStream) {
			return err
		}
	}

	// Everything left is printed once the child has seen end of input.
	return s.drain(-1)
}

// drain prints replies until none arrives within timeout or both output
// streams are exhausted. Complete lines are printed as they arrive; a
// partial line such as a prompt is printed once the wait times out or its
// stream ends.
func (s *session) drain(timeout time.Duration) error {
	for {
		stream, ok, err := s.h.WaitForAnyData(timeout)
		if err != nil {
			return err
		}
		if !ok {
			s.flush(subprocess.Error)
			s.flush(subprocess.Output)
			return nil
		}

		chunk, err := s.h.Read(stream, 0)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			s.flush(stream)
			continue
		}

		s.pending[stream] = append(s.pending[stream], chunk...)
		s.printLines(stream)
	}
}

func (s *session) printLines(stream subprocess.Stream) {
	for {
		i := bytes.IndexByte(s.pending[stream], '\n')
		if i < 0 {
			return
		}
		s.print(stream, s.pending[stream][:i+1])
		s.pending[stream] = s.pending[stream][i+1:]
	}
}

func (s *session) flush(stream subprocess.Stream) {
	if len(s.pending[stream]) == 0 {
		return
	}
	s.print(stream, s.pending[stream])
	s.pending[stream] = nil
}

// print writes text, prefixing stderr with "! " at the start of a line.
func (s *session) print(stream subprocess.Stream, text []byte) {
	if stream == subprocess.Error && !s.midLine[stream] {
		io.WriteString(s.out, "! ")
	}
	s.out.Write(text)
	s.midLine[stream] = text[len(text)-1] != '\n'
}
