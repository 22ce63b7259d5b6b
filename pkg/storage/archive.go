package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportArchive keeps rendered export files on disk under a single root
// directory. Relative paths passed to its methods are resolved against
// that root, so callers never touch the filesystem layout directly.
type ExportArchive struct {
	root string
}

// NewExportArchive creates the archive root if needed.
func NewExportArchive(root string) (*ExportArchive, error) {
	if root == "" {
		root = "./exports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &ExportArchive{root: root}, nil
}

// Save writes data at the given relative path, creating parent directories.
func (a *ExportArchive) Save(rel string, data []byte) error {
	path := a.abs(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}

// Open returns a read-only handle for an archived file.
func (a *ExportArchive) Open(rel string) (*os.File, error) {
	file, err := os.Open(a.abs(rel))
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	return file, nil
}

// Delete removes an archived file. Missing files are not an error.
func (a *ExportArchive) Delete(rel string) error {
	if err := os.Remove(a.abs(rel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete archive file: %w", err)
	}
	return nil
}

// Sweep deletes files whose modification time is older than maxAge and
// reports how many were removed.
func (a *ExportArchive) Sweep(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	err := filepath.WalkDir(a.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweep archive: %w", err)
	}
	return removed, nil
}

func (a *ExportArchive) abs(rel string) string {
	return filepath.Join(a.root, filepath.Clean("/"+rel))
}
