package state

import (
	"os"
	"path/filepath"
)

const AppName = "s3site"

// ProjectConfigFile is looked up in the working directory before the user config dir.
const ProjectConfigFile = "s3site.toml"

// EnvFile holds credentials for the project and is never committed.
const EnvFile = ".env"

func AppDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", homeErr
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName), nil
}

func UserConfigPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPath returns ./s3site.toml when it exists and the per-user config file otherwise.
func ConfigPath() (string, error) {
	if info, err := os.Stat(ProjectConfigFile); err == nil && !info.IsDir() {
		return ProjectConfigFile, nil
	}
	return UserConfigPath()
}
