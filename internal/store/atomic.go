package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/away0419/eunoia/internal/errors"
)

// WriteFileAtomic writes data to a temp file next to path and renames it into place,
// so an existing file is either fully replaced or left untouched.
// The destination must not be a symlink.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("failed to generate temp file name: %w", err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := OpenNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return err
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	file = nil

	// os.Rename would follow a symlinked destination
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("destination is a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to finalize write: %w", err)
	}

	success = true
	return nil
}
