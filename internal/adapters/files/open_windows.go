//go:build windows

package files

import (
	"fmt"
	"os"
)

// openNoFollow has no O_NOFOLLOW on Windows; the final component is checked
// with Lstat instead.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("%w: %s", errSymlink, path)
	}

	return os.OpenFile(path, flag, perm)
}
