// Package fsutil holds file helpers shared by the file-backed adapters.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPerm is used when the target does not exist yet.
const DefaultPerm fs.FileMode = 0o644

// AtomicWriter replaces files by writing a sibling temp file and renaming it
// over the target. Readers never observe a partially written target.
type AtomicWriter struct {
	// Rename defaults to os.Rename.
	Rename func(oldpath, newpath string) error
}

// WriteFile atomically replaces path with data. The new file keeps the mode
// of the file it replaces.
func (w AtomicWriter) WriteFile(path string, data []byte) error {
	rename := w.Rename
	if rename == nil {
		rename = os.Rename
	}

	perm := DefaultPerm
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := rename(tmpPath, path); err != nil {
		return fmt.Errorf("move temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}

// ReadFileIfExists returns the file content, or ok=false when it is missing.
func ReadFileIfExists(path string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}
