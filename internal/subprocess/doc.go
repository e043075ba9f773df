// Package subprocess runs an external program as a child process and lets
// the caller talk to it through its standard streams.
//
// # Streams
//
// Each child has three streams: Input, Output and Error. At construction
// every stream is either an owned pipe, operated through the Handle, or is
// passed through to the terminal (the parent's own stdin, stdout or
// stderr). Passthrough streams are invisible to the Handle: any operation
// naming them fails with ErrInvalidStream.
//
//	h, err := subprocess.New("grep", []string{"-n", "needle"}, subprocess.Options{})
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	h.WriteLine(subprocess.Input, "a needle in a haystack")
//	h.CloseInput()
//	line, _ := h.ReadLine(subprocess.Output)
//
// # Blocking
//
// Read, ReadLine, Write and Close block. IsReady, IsEOF, WaitForData and
// WaitForAnyData are how callers avoid blocking: a stream is ready when a
// read would return at once, which includes the moment the child closes
// its end and only EOF is left to report. When both Output and Error are
// ready WaitForAnyData reports Error.
//
// # Lifecycle
//
// A Handle is running from New until Close. Close releases every owned
// pipe, waits for the child to exit and returns its exit status. It must
// be called exactly once; every later call on the Handle fails with
// ErrClosed.
//
// A Handle starts no goroutines and takes no locks. It must be driven from
// one goroutine at a time.
package subprocess
