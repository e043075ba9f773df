package config

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrNoProjectRoot = errors.New("no project root found")

var projectMarkers = []string{
	".extproc",
	".git",
}

// FindProjectRoot walks up from path to the nearest directory holding a
// project marker, stopping at the home directory.
func FindProjectRoot(path string) (string, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !isDir(dir) {
		dir = filepath.Dir(dir)
	}

	homeDir, _ := os.UserHomeDir()

	for {
		for _, marker := range projectMarkers {
			if exists(filepath.Join(dir, marker)) {
				return dir, nil
			}
		}

		if dir == homeDir {
			return "", ErrNoProjectRoot
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}

func ProjectDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".extproc")
}

// ProjectConfigPath returns the project config path, or "" if there is
// none.
func ProjectConfigPath(projectRoot string) string {
	path := filepath.Join(ProjectDir(projectRoot), "config.toml")
	if exists(path) {
		return path
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
