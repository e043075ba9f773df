package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	app := buildApp()
	if err := app.RunCLI(context.Background(), os.Args[1:], nil); err != nil {
		var status *exitStatus
		if errors.As(err, &status) {
			os.Exit(status.code())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// exitStatus carries a child's non-zero exit status out of a command so
// main can exit with it.
type exitStatus struct {
	status int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", e.status)
}

func (e *exitStatus) code() int {
	if e.status <= 0 || e.status > 255 {
		return 1
	}
	return e.status
}

func exitWith(status int) error {
	if status == 0 {
		return nil
	}
	return &exitStatus{status: status}
}
