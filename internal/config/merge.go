package config

import "fmt"

// LoadWithProject loads the global config and merges the project-level
// config from projectRoot over it.
func LoadWithProject(projectRoot string) (*Config, error) {
	globalCfg, err := Load()
	if err != nil {
		return nil, err
	}

	if projectRoot == "" {
		return globalCfg, nil
	}

	path := ProjectConfigPath(projectRoot)
	if path == "" {
		return globalCfg, nil
	}

	projectCfg, err := loadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if projectCfg == nil {
		return globalCfg, nil
	}

	return withDefaults(globalCfg, projectCfg), nil
}

// withDefaults returns over with every unset field taken from base.
func withDefaults(base, over *Config) *Config {
	merged := *base

	if over.LogLevel != "" {
		merged.LogLevel = over.LogLevel
	}
	if over.PollIntervalMs != 0 {
		merged.PollIntervalMs = over.PollIntervalMs
	}
	if over.ReadLength != 0 {
		merged.ReadLength = over.ReadLength
	}
	if over.KeepTrailingNewlines != nil {
		keep := *over.KeepTrailingNewlines
		merged.KeepTrailingNewlines = &keep
	}

	return &merged
}
