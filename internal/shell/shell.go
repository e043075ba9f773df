// Package shell renders argument lists as POSIX shell command lines.
package shell

import "strings"

// Quote returns arg wrapped in single quotes so that a POSIX shell reads it
// back as exactly one word with the same bytes. An embedded single quote
// closes the quoted run, is escaped with a backslash, and reopens it:
//
//	it's  ->  'it'\''s'
func Quote(arg string) string {
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// Join appends each quoted argument to cmd, separated by spaces. cmd itself
// is emitted verbatim.
func Join(cmd string, args []string) string {
	var b strings.Builder
	b.WriteString(cmd)
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(Quote(arg))
	}
	return b.String()
}
