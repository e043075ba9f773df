// Package profile loads stream-routing profiles: one TOML file per
// profile, each naming the commands it applies to by glob.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

type Profile struct {
	Name              string   `toml:"-"`
	Match             []string `toml:"match"`
	PassthroughOutput bool     `toml:"passthrough_output"`
	PassthroughError  bool     `toml:"passthrough_error"`
	InputFromTerminal bool     `toml:"input_from_terminal"`
	Dir               string   `toml:"dir,omitempty"`
	Disabled          bool     `toml:"disabled,omitempty"`

	globs []glob.Glob
}

func LoadDir(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading profile dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)

	var profiles []*Profile
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		var p Profile
		if err := toml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		p.Name = strings.TrimSuffix(name, ".toml")
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		profiles = append(profiles, &p)
	}

	return profiles, nil
}

// Save writes p to dir as <name>.toml.
func Save(dir string, p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, p.Name+".toml"))
	if err != nil {
		return fmt.Errorf("creating profile file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("encoding profile %s: %w", p.Name, err)
	}
	return nil
}

// Validate compiles the match globs. A disabled profile needs none.
func (p *Profile) Validate() error {
	if p.Disabled {
		return nil
	}
	if len(p.Match) == 0 {
		return fmt.Errorf("profile %s: match is required", p.Name)
	}

	globs := make([]glob.Glob, 0, len(p.Match))
	for _, pattern := range p.Match {
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("profile %s: invalid match pattern %q: %w", p.Name, pattern, err)
		}
		globs = append(globs, g)
	}
	p.globs = globs
	return nil
}

// Matches reports whether command is covered by one of the profile's
// globs. Patterns are tried against the base name and then the command
// as given.
func (p *Profile) Matches(command string) (bool, error) {
	if p.Disabled {
		return false, nil
	}
	if p.globs == nil {
		if err := p.Validate(); err != nil {
			return false, err
		}
	}

	base := filepath.Base(command)
	for _, g := range p.globs {
		if g.Match(base) || g.Match(command) {
			return true, nil
		}
	}
	return false, nil
}
