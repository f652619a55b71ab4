package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFile is the database file name inside the data directory.
const DBFile = "ecalab.db"

// DataDir returns the path to the ecalab data directory.
// On Unix: ~/.ecalab
// On Windows: %USERPROFILE%\.ecalab
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ecalab"), nil
}

// DefaultDBPath returns the database path used when none is configured.
func DefaultDBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFile), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	dir, err := DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
