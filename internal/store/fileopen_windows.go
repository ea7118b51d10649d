//go:build windows

package store

import (
	"os"

	"github.com/away0419/eunoia/internal/errors"
)

// OpenNoFollow opens a file for writing.
// On Windows, O_NOFOLLOW is not available. Symlink attacks are less common
// on Windows due to privilege requirements for symlink creation.
func OpenNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

// OpenNoFollowRead opens a file for reading. See OpenNoFollow.
func OpenNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return f, nil
}
