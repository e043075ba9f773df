package config

import (
	"fmt"
	"path/filepath"

	"github.com/amarbel-llc/extproc/internal/config/profile"
)

func GlobalProfilesDir() string {
	return filepath.Join(configDir(), "profiles")
}

func LocalProfilesDir(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), "profiles")
}

// LoadMergedProfiles loads the global profiles and, when projectRoot is
// set, the project-local ones over them.
func LoadMergedProfiles(projectRoot string) ([]*profile.Profile, error) {
	global, err := profile.LoadDir(GlobalProfilesDir())
	if err != nil {
		return nil, fmt.Errorf("loading global profiles: %w", err)
	}

	if projectRoot == "" {
		return MergeProfiles(global, nil), nil
	}

	local, err := profile.LoadDir(LocalProfilesDir(projectRoot))
	if err != nil {
		return nil, fmt.Errorf("loading local profiles: %w", err)
	}

	return MergeProfiles(global, local), nil
}

// MergeProfiles replaces global profiles with local ones of the same
// name and appends local-only profiles. Disabled profiles are dropped.
func MergeProfiles(global, local []*profile.Profile) []*profile.Profile {
	localByName := make(map[string]*profile.Profile, len(local))
	for _, p := range local {
		localByName[p.Name] = p
	}

	var merged []*profile.Profile

	for _, gp := range global {
		if lp, ok := localByName[gp.Name]; ok {
			if !lp.Disabled {
				merged = append(merged, lp)
			}
			delete(localByName, gp.Name)
		} else if !gp.Disabled {
			merged = append(merged, gp)
		}
	}

	for _, lp := range local {
		if _, localOnly := localByName[lp.Name]; localOnly && !lp.Disabled {
			merged = append(merged, lp)
		}
	}

	return merged
}

// MatchProfile returns the first profile covering command, or nil.
func MatchProfile(profiles []*profile.Profile, command string) (*profile.Profile, error) {
	for _, p := range profiles {
		ok, err := p.Matches(command)
		if err != nil {
			return nil, err
		}
		if ok {
			return p, nil
		}
	}
	return nil, nil
}
