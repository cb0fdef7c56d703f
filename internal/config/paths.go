package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvDBPath overrides the resolved database location when set.
const EnvDBPath = "CHIPICHIPI_DB_PATH"

type Paths struct {
	BaseDir string
	DBPath  string
}

func ResolvePaths(appSlug string) (Paths, error) {
	if override := os.Getenv(EnvDBPath); override != "" {
		absPath, err := filepath.Abs(override)
		if err != nil {
			return Paths{}, fmt.Errorf("resolve %s: %w", EnvDBPath, err)
		}
		return Paths{
			BaseDir: filepath.Dir(absPath),
			DBPath:  absPath,
		}, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve user config dir: %w", err)
	}

	baseDir := filepath.Join(configDir, appSlug)
	dbPath := filepath.Join(baseDir, "music_library.db")

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create app config dir: %w", err)
	}

	return Paths{
		BaseDir: baseDir,
		DBPath:  dbPath,
	}, nil
}
