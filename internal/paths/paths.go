// Package paths centralizes filesystem locations and path normalization
// for tia. All engine data lives under <repoRoot>/.tia.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the per-repository data directory.
const DataDirName = ".tia"

// DataDir returns the repository's tia data directory path.
func DataDir(repoRoot string) string {
	return filepath.Join(repoRoot, DataDirName)
}

// EnsureDataDir creates the data directory if needed and returns its path.
func EnsureDataDir(repoRoot string) (string, error) {
	dir := DataDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DatabasePath returns the SQLite database path for a repository.
func DatabasePath(repoRoot string) string {
	return filepath.Join(DataDir(repoRoot), "tia.db")
}

// ConfigPath returns the config file path for a repository.
func ConfigPath(repoRoot string) string {
	return filepath.Join(DataDir(repoRoot), "config.json")
}

// QuarantineFilePath returns the quarantine declaration file path.
func QuarantineFilePath(repoRoot string) string {
	return filepath.Join(DataDir(repoRoot), "quarantine.toml")
}

// Canonicalize converts an absolute or repo-root-joined path to a
// repo-relative path with forward slashes. Paths outside the repo are
// returned cleaned but otherwise untouched.
func Canonicalize(path string, repoRoot string) string {
	p := path
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(repoRoot, p)
		if err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// TopSegment returns the first path segment of a repo-relative path
// ("src/user/api.ts" -> "src"). A bare filename returns "".
func TopSegment(relPath string) string {
	p := filepath.ToSlash(relPath)
	idx := strings.Index(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}
