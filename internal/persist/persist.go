// Package persist provides the gob-based snapshot helpers the
// in-memory comparator indexes in internal/refindex use for their
// SaveTo/LoadFrom methods.
package persist

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Save encodes v as gob and writes it to path, truncating any
// existing file.
func Save(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("persist: save %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("persist: encode %s: %w", path, err)
	}
	return nil
}

// Load decodes the gob-encoded contents of path into v, which must be
// a pointer.
func Load(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("persist: load %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("persist: decode %s: %w", path, err)
	}
	return nil
}
