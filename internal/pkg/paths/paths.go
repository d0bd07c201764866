package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveResourceDir locates the resources directory. An absolute or existing
// relative dir is used as is; otherwise the directory of the executable and
// its parents are searched (at most 10 levels).
func ResolveResourceDir(dir string) (string, error) {
	if filepath.IsAbs(dir) || isDir(dir) {
		return dir, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	base := filepath.Dir(exe)
	for range 10 {
		candidate := filepath.Join(base, dir)
		if isDir(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(base)
		if parent == base {
			break
		}
		base = parent
	}
	return "", fmt.Errorf("resource directory %q not found", dir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
