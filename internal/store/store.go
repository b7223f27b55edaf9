// Package store implements the flat-record persistence layer. Each record
// collection lives in a single JSON document holding an ordered list (newest
// first) that is rewritten wholesale on every mutation.
//
// Design notes:
//   - Every load-mutate-save sequence runs under a per-store mutex, so two
//     concurrent mutations cannot lose each other's write. The files are
//     process-private; no cross-process locking is attempted.
//   - Writes go through a temp file followed by rename, so readers never see
//     a partially written document.
//   - Records are validated on load; a document containing a malformed record
//     fails the whole operation instead of propagating undefined fields.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound indicates that no record matched the lookup key.
var ErrNotFound = errors.New("record not found")

// validator is implemented by record types that can check their own shape.
type validator interface {
	Validate() error
}

// readDocument loads and validates a JSON list document. A missing or empty
// file yields an empty list.
func readDocument[T any, PT interface {
	*T
	validator
}](path string) ([]T, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	for i := range records {
		if err := PT(&records[i]).Validate(); err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", filepath.Base(path), i, err)
		}
	}
	return records, nil
}

// writeDocument rewrites the whole document atomically-in-appearance:
// marshal, write to a temp file in the same directory, then rename over the
// destination.
func writeDocument[T any](path string, records []T) error {
	if records == nil {
		records = []T{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ensureDir creates the data directory when absent.
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
