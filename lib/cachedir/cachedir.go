// Package cachedir resolves the on-disk directory that holds the
// persistent page cache.
package cachedir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables consulted in priority order before falling back
// to ~/.cache.
var Priority = []string{"DIYANET_CACHE_HOME", "XDG_CACHE_HOME"}

const subdir = "diyanet"

type Error struct {
	Candidates []string
}

func (e Error) Error() string {
	return fmt.Sprintf(
		"either one of the %s environment variables should point to a valid path, or '~/.cache' should be available",
		strings.Join(e.Candidates, ", "),
	)
}

// Resolve picks the first configured cache root that exists, creates a
// `diyanet` subdirectory inside it and returns its path.
func Resolve() (string, error) {
	root := ""
	for _, name := range Priority {
		if value := os.Getenv(name); value != "" {
			root = value
			break
		}
	}
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", Error{Candidates: Priority}
		}
		root = filepath.Join(home, ".cache")
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", Error{Candidates: Priority}
	}

	dir := filepath.Join(root, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", Error{Candidates: Priority}
	}
	return dir, nil
}
