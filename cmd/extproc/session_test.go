package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amarbel-llc/extproc/internal/subprocess"
)

func TestSession(t *testing.T) {
	h, err := subprocess.New("sh", []string{"-c", `
while read line; do
	echo "got $line"
	echo "warn $line" >&2
done
echo bye
`}, subprocess.Options{})
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	s := &session{
		h:       h,
		out:     &out,
		timeout: time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := s.run(context.Background(), strings.NewReader("one\ntwo\n"), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	status, err := h.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}

	got := out.String()
	for _, want := range []string{"got one\n", "! warn one\n", "got two\n", "! warn two\n", "bye\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "bye\n") {
		t.Errorf("expected bye last:\n%s", got)
	}
}

func TestSession_PromptWithoutNewline(t *testing.T) {
	h, err := subprocess.New("sh", []string{"-c",
		`printf 'p1: '; read a; printf 'p2: '; read b; printf 'e: ' >&2; echo "done $a $b"`,
	}, subprocess.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	var out bytes.Buffer
	s := &session{
		h:       h,
		out:     &out,
		timeout: 200 * time.Millisecond,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	done := make(chan error, 1)
	go func() {
		done <- s.run(context.Background(), strings.NewReader("x\ny\n"), "")
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session blocked on a partial line")
	}

	got := out.String()
	for _, want := range []string{"p1: ", "p2: ", "! e: ", "done x y\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
