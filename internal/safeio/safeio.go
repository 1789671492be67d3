// Package safeio writes output files atomically. Exports write to a
// temporary file in the destination directory and rename it into place on
// success, so a failed conversion never leaves a half-written file and
// never disturbs a prior file at the destination.
package safeio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile creates intermediate directories for path, streams the output
// of write into a temporary sibling file, and atomically renames it over
// path once write returns successfully. On any failure the temporary file
// is removed and path is left exactly as it was.
func WriteFile(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".markbear-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move into place: %w", err)
	}
	return nil
}
