package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.whosaid/logs, or a directory under the system temp
// directory when there is no home directory.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".whosaid", "logs")
	}
	return filepath.Join(home, ".whosaid", "logs")
}

// DefaultLogPath returns the debug log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "whosaid.log")
}
