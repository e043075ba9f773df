package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/amarbel-llc/extproc/internal/config"
	"github.com/amarbel-llc/extproc/internal/config/profile"
)

// exampleProfiles are written by init so a fresh install shows the
// profile format. Editors and pagers need the terminal on every stream.
var exampleProfiles = []*profile.Profile{
	{
		Name:              "editor",
		Match:             []string{"vi", "vim", "nvim", "nano", "emacs"},
		PassthroughOutput: true,
		PassthroughError:  true,
		InputFromTerminal: true,
	},
	{
		Name:              "pager",
		Match:             []string{"less", "more", "man"},
		PassthroughOutput: true,
		PassthroughError:  true,
		InputFromTerminal: true,
	},
}

func runInit(w io.Writer, force bool) error {
	profilesDir := config.GlobalProfilesDir()

	if err := os.MkdirAll(profilesDir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", profilesDir, err)
	}
	fmt.Fprintf(w, "created %s/\n", profilesDir)

	configPath := config.ConfigPath()
	if !skip(w, configPath, force) {
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", configPath)
	}

	for _, p := range exampleProfiles {
		path := filepath.Join(profilesDir, p.Name+".toml")
		if skip(w, path, force) {
			continue
		}
		if err := profile.Save(profilesDir, p); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", path)
	}

	return nil
}

func skip(w io.Writer, path string, force bool) bool {
	if force {
		return false
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "skipped %s (already exists, use --force to overwrite)\n", path)
		return true
	}
	return false
}
