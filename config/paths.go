package config

import (
	"os"
	"path/filepath"
	"strings"
)

const configFileName = "config.yaml"

var configDirOverride string

// SetConfigDir overrides the default ~/.urlsummarizer directory. "~" and
// "~/..." are expanded; relative paths are made absolute.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// ConfigDir returns the urlsummarizer config directory (~/.urlsummarizer).
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		dir := configDirOverride
		if dir == "~" || strings.HasPrefix(dir, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			if dir == "~" {
				return home, nil
			}
			return filepath.Join(home, dir[2:]), nil
		}
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir), nil
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		return filepath.Clean(abs), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".urlsummarizer"), nil
}

// ConfigPath returns the default YAML config path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}
