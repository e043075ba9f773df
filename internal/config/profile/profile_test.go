package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	content := `
match = ["vim", "nvim"]
passthrough_output = true
passthrough_error = true
input_from_terminal = true
dir = "/tmp"
`
	if err := os.WriteFile(filepath.Join(dir, "editor.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	profiles, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}

	p := profiles[0]
	if p.Name != "editor" {
		t.Errorf("name = %q, want %q", p.Name, "editor")
	}
	if len(p.Match) != 2 || p.Match[1] != "nvim" {
		t.Errorf("match = %v, want [vim nvim]", p.Match)
	}
	if !p.PassthroughOutput || !p.PassthroughError || !p.InputFromTerminal {
		t.Errorf("routing flags not loaded: %+v", p)
	}
	if p.Dir != "/tmp" {
		t.Errorf("dir = %q, want /tmp", p.Dir)
	}
}

func TestLoadDir_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"zeta.toml":  `match = ["z"]`,
		"alpha.toml": `match = ["a"]`,
		"notes.txt":  `not a profile`,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.toml"), 0755); err != nil {
		t.Fatal(err)
	}

	profiles, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Name != "alpha" || profiles[1].Name != "zeta" {
		t.Errorf("order = [%s %s], want [alpha zeta]", profiles[0].Name, profiles[1].Name)
	}
}

func TestLoadDir_Empty(t *testing.T) {
	profiles, err := LoadDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected 0 profiles, got %d", len(profiles))
	}
}

func TestLoadDir_NonExistent(t *testing.T) {
	profiles, err := LoadDir("/nonexistent/path")
	if err != nil {
		t.Fatalf("LoadDir should not error on missing dir: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected 0 profiles, got %d", len(profiles))
	}
}

func TestLoadDir_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad toml", content: `match = [`},
		{name: "no match", content: `passthrough_output = true`},
		{name: "bad glob", content: `match = ["[unterminated"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "p.toml"), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadDir(dir); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMatches(t *testing.T) {
	p := &Profile{Name: "p", Match: []string{"vi*", "git", "/opt/tools/*"}}

	tests := []struct {
		command string
		want    bool
	}{
		{command: "vim", want: true},
		{command: "/usr/bin/vi", want: true},
		{command: "git", want: true},
		{command: "/usr/local/bin/git", want: true},
		{command: "gitk", want: false},
		{command: "/opt/tools/deploy", want: true},
		{command: "ls", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got, err := p.Matches(tt.command)
			if err != nil {
				t.Fatalf("Matches: %v", err)
			}
			if got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestMatches_Disabled(t *testing.T) {
	p := &Profile{Name: "p", Match: []string{"*"}, Disabled: true}
	got, err := p.Matches("anything")
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("disabled profile should not match")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	p := &Profile{
		Name:              "pager",
		Match:             []string{"less"},
		PassthroughOutput: true,
	}
	if err := Save(dir, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	profiles, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	got := profiles[0]
	if got.Name != "pager" || !got.PassthroughOutput || got.PassthroughError {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSave_RequiresName(t *testing.T) {
	if err := Save(t.TempDir(), &Profile{Match: []string{"x"}}); err == nil {
		t.Fatal("expected error for unnamed profile")
	}
}
