package subprocess

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// pipeSet collects both ends of every pipe created while setting up a
// child, so a failed spawn can release all of them.
type pipeSet struct {
	parent [3]*os.File
	child  []*os.File
}

func (p *pipeSet) open(s Stream) (*os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating %s pipe: %w", s, err)
	}

	if s == Input {
		p.parent[s] = w
		p.child = append(p.child, r)
		return r, nil
	}

	p.parent[s] = r
	p.child = append(p.child, w)
	return w, nil
}

func (p *pipeSet) closeChild() {
	for _, f := range p.child {
		f.Close()
	}
	p.child = nil
}

func (p *pipeSet) closeAll() {
	p.closeChild()
	for i, f := range p.parent {
		if f != nil {
			f.Close()
			p.parent[i] = nil
		}
	}
}

// wire connects cmd's standard streams according to opts, creating a pipe
// for every stream that is not passed through.
func (p *pipeSet) wire(cmd *exec.Cmd, opts Options, term Terminal) error {
	var err error

	if opts.InputFromTerminal {
		cmd.Stdin = term.Stdin
	} else if cmd.Stdin, err = p.open(Input); err != nil {
		return err
	}

	if opts.PassthroughOutput {
		cmd.Stdout = term.Stdout
	} else if cmd.Stdout, err = p.open(Output); err != nil {
		return err
	}

	if opts.PassthroughError {
		cmd.Stderr = term.Stderr
	} else if cmd.Stderr, err = p.open(Error); err != nil {
		return err
	}

	return nil
}

// exitStatus turns the result of exec.Cmd.Wait into an exit status. A
// child killed by a signal reports -1.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("waiting for process: %w", err)
}
