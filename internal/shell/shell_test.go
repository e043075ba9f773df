package shell

import (
	"testing"

	"github.com/google/shlex"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"double quotes kept verbatim", `Name: ".*"`, `'Name: ".*"'`},
		{"space", "my file", "'my file'"},
		{"empty", "", "''"},
		{"single quote", "it's", `'it'\''s'`},
		{"metacharacters", "$HOME; rm -rf / | `id` &", "'$HOME; rm -rf / | `id` &'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quote(tt.arg); got != tt.want {
				t.Errorf("Quote(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	got := Join("grep", []string{`Name: ".*"`, "my file"})
	want := `grep 'Name: ".*"' 'my file'`
	if got != want {
		t.Errorf("Join() = %q, want %q", got, want)
	}

	if got := Join("ls", nil); got != "ls" {
		t.Errorf("Join with no args = %q, want %q", got, "ls")
	}
}

func TestJoin_PreservesArgumentBoundaries(t *testing.T) {
	args := []string{
		"plain",
		"two words",
		`"double"`,
		"it's",
		"tab\there",
		"*.go",
		"a\\b",
	}

	words, err := shlex.Split(Join("cmd", args))
	if err != nil {
		t.Fatalf("shlex.Split: %v", err)
	}

	if len(words) != len(args)+1 {
		t.Fatalf("got %d words, want %d: %q", len(words), len(args)+1, words)
	}
	if words[0] != "cmd" {
		t.Errorf("words[0] = %q, want %q", words[0], "cmd")
	}
	for i, arg := range args {
		if words[i+1] != arg {
			t.Errorf("word %d = %q, want %q", i+1, words[i+1], arg)
		}
	}
}
