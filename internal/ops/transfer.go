package ops

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/away0419/eunoia/internal/config"
	"github.com/away0419/eunoia/internal/db"
	"github.com/away0419/eunoia/internal/errors"
)

// transferMode tells checkTransferPath whether the file is about to be read
// (import) or written (export).
type transferMode int

const (
	transferRead transferMode = iota
	transferWrite
)

// transferExt is the only extension accepted for export and import files.
const transferExt = ".jsonl"

// transferPolicy decides where export and import files may live.
//
// A file must sit directly in the exports directory or in one of the
// absolute allowed_paths. allow_unsafe_paths lifts that rule, but the words
// directory and symlinked files stay off limits either way.
type transferPolicy struct {
	wordsDir string
	dirs     []string
	unsafe   bool
}

func newTransferPolicy(baseDir string, cfg *config.Config) transferPolicy {
	p := transferPolicy{
		wordsDir: realDir(filepath.Join(baseDir, db.WordsDir)),
		dirs:     []string{realDir(filepath.Join(baseDir, db.ExportsDir))},
	}
	if cfg != nil {
		p.unsafe = cfg.AllowUnsafePaths
		for _, dir := range cfg.AllowedPaths {
			if filepath.IsAbs(dir) {
				p.dirs = append(p.dirs, realDir(dir))
			}
		}
	}
	return p
}

// checkTransferPath validates path against the policy built from d.
func (d *Deps) checkTransferPath(path string, mode transferMode) error {
	return newTransferPolicy(d.BaseDir, d.Config).check(path, mode)
}

func (p transferPolicy) check(path string, mode transferMode) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if hasParentRef(path) {
		return errors.NewInvalidRequest("path must not contain '..'")
	}
	if filepath.Ext(path) != transferExt {
		return errors.NewInvalidRequest("path must have " + transferExt + " extension")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.NewInvalidRequest("invalid path: " + err.Error())
	}

	dir := realDir(filepath.Dir(abs))
	if isWithin(dir, p.wordsDir) {
		return errors.NewInvalidRequest("path must not point into the word data directory")
	}
	if !p.unsafe && !lo.Contains(p.dirs, dir) {
		return errors.NewInvalidRequest("file must be directly in the exports directory or an allowed_paths entry")
	}

	info, err := os.Lstat(abs)
	switch {
	case os.IsNotExist(err):
		if mode == transferRead {
			return errors.NewFileNotFound(path)
		}
	case err != nil:
		return errors.NewInvalidRequest("cannot inspect path: " + err.Error())
	case info.Mode()&os.ModeSymlink != 0:
		return errors.NewInvalidRequest("path must not be a symlink")
	case info.IsDir():
		return errors.NewInvalidRequest("path is a directory")
	}
	return nil
}

// hasParentRef reports whether any element of path is "..", splitting on
// both separators so Windows-style input is caught on every platform.
func hasParentRef(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	return lo.Contains(parts, "..")
}

// realDir resolves symlinks in dir when it exists and cleans it otherwise.
func realDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// isWithin reports whether dir is root or below it.
func isWithin(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
