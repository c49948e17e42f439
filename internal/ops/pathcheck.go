package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/studio/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // CLI imports: images, logos, CSV
	PathCheckWrite                      // CLI exports: XLSX, archives
)

// ValidatePath checks a local file path handed to the CLI:
// no ".." components, an allowed extension (case-insensitive), and the file
// itself must not be a symlink. In read mode the file must exist.
func ValidatePath(path string, mode PathCheckMode, exts ...string) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if len(exts) > 0 && !hasExt(cleaned, exts) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have one of the extensions: %s", strings.Join(exts, ", ")))
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	info, err := os.Lstat(absPath)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		return errors.NewInvalidRequest("path must not be a symlink")
	case err == nil && info.IsDir():
		return errors.NewInvalidRequest("path is a directory")
	case os.IsNotExist(err) && mode == PathCheckRead:
		return errors.NewNotFound("file", path)
	}

	if mode == PathCheckWrite {
		if dir, err := os.Stat(filepath.Dir(absPath)); err != nil || !dir.IsDir() {
			return errors.NewNotFound("directory", filepath.Dir(path))
		}
	}
	return nil
}

// OpenForRead validates path and opens it without following a final symlink.
func OpenForRead(path string, exts ...string) (*os.File, error) {
	if err := ValidatePath(path, PathCheckRead, exts...); err != nil {
		return nil, err
	}
	return openFileNoFollowRead(filepath.Clean(path))
}

// CreateForWrite validates path and creates or truncates it without following
// a final symlink.
func CreateForWrite(path string, exts ...string) (*os.File, error) {
	if err := ValidatePath(path, PathCheckWrite, exts...); err != nil {
		return nil, err
	}
	return openFileNoFollow(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Forward slashes count on every platform.
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
