package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
)

const (
	appDirName    = "shiksha-cli"
	dataDirEnvVar = "SHIKSHA_DATA_DIR"
)

// getDataDir returns the appropriate data directory for the current OS
// following XDG Base Directory specification on Linux/Unix
func getDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %LOCALAPPDATA%\shiksha-cli
		baseDir = os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			baseDir = os.Getenv("APPDATA")
		}
		if baseDir == "" {
			return "", fmt.Errorf("could not determine Windows data directory")
		}
		baseDir = filepath.Join(baseDir, appDirName)

	case "darwin":
		// macOS: ~/Library/Application Support/shiksha-cli
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support", appDirName)

	default:
		// Priority: $XDG_DATA_HOME/shiksha-cli > ~/.local/share/shiksha-cli
		xdgDataHome := os.Getenv("XDG_DATA_HOME")
		if xdgDataHome != "" {
			baseDir = filepath.Join(xdgDataHome, appDirName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("could not determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".local", "share", appDirName)
		}
	}

	if err := os.MkdirAll(baseDir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return baseDir, nil
}

// resolveDataDir picks the data directory: an explicit value (flag or
// config) first, then SHIKSHA_DATA_DIR, then the OS default.
func resolveDataDir(explicit string) (string, error) {
	dir := explicit
	if dir == "" {
		dir = os.Getenv(dataDirEnvVar)
	}
	if dir == "" {
		return getDataDir()
	}
	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// getReportsDir returns the directory exported reports are written to.
func getReportsDir(dataDir string) (string, error) {
	reportsDir := filepath.Join(dataDir, "reports")
	if err := os.MkdirAll(reportsDir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	return reportsDir, nil
}
