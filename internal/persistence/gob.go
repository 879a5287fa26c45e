// Package persistence writes corpus state to disk. Files are written to a
// temporary sibling first and renamed into place, so a crash never leaves a
// half-written file behind.
package persistence

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const dirPerm = 0750

// SaveGob encodes object with gob and atomically replaces filePath with the
// result, creating parent directories as needed.
func SaveGob(filePath string, object any) error {
	return writeAtomic(filePath, func(w io.Writer) error {
		if err := gob.NewEncoder(w).Encode(object); err != nil {
			return fmt.Errorf("failed to gob encode to file %s: %w", filePath, err)
		}
		return nil
	})
}

// LoadGob decodes a gob-encoded file into objectPointer. A missing file is
// reported as os.ErrNotExist, so callers can treat it as a fresh start.
func LoadGob(filePath string, objectPointer any) error {
	return read(filePath, func(r io.Reader) error {
		if err := gob.NewDecoder(r).Decode(objectPointer); err != nil {
			return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
		}
		return nil
	})
}

// SaveJSON is SaveGob for indented JSON.
func SaveJSON(filePath string, object any) error {
	return writeAtomic(filePath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(object); err != nil {
			return fmt.Errorf("failed to json encode to file %s: %w", filePath, err)
		}
		return nil
	})
}

// LoadJSON is LoadGob for JSON.
func LoadJSON(filePath string, objectPointer any) error {
	return read(filePath, func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(objectPointer); err != nil {
			return fmt.Errorf("failed to json decode from file %s: %w", filePath, err)
		}
		return nil
	})
}

func writeAtomic(filePath string, encode func(io.Writer) error) (err error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", filePath, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := encode(tmp); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file for %s: %w", filePath, err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filePath, err)
	}
	return nil
}

func read(filePath string, decode func(io.Reader) error) (err error) {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file %s: %w", filePath, closeErr)
		}
	}()
	return decode(file)
}
