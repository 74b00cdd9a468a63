package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loykin/proctor/internal/fsutil"
)

// Store persists one Record per name under a shared root directory. The
// layout is <root>/<name>/<name>.json; auxiliary files written by the
// external runner (captured stdio, pidfiles) share the entry directory.
// The entry directory is created by the runner, never by the store, so a
// write into a missing directory reports ErrNotFound rather than
// conjuring an entry out of thin air.
//
// Multiple processes may read and write the same root concurrently. The
// store does no coordination of its own; see Registry.SetLocking for the
// optional advisory lock around multi-step operations.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory does not need to
// exist yet; an absent root enumerates as empty.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// Dir returns the store root directory.
func (s *Store) Dir() string { return s.dir }

// EntryDir returns the directory holding all files belonging to name.
func (s *Store) EntryDir(name string) string { return filepath.Join(s.dir, name) }

// RecordPath returns the location of the JSON record for name.
func (s *Store) RecordPath(name string) string {
	return filepath.Join(s.dir, name, name+".json")
}

// Get loads the record for name. A missing record file reports
// ErrNotFound; a record that exists but cannot be decoded surfaces its
// decode error instead so corruption is not mistaken for absence.
func (s *Store) Get(name string) (Record, error) {
	data, err := os.ReadFile(s.RecordPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return Record{}, fmt.Errorf("read record %q: %w", name, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %q: %w", name, err)
	}
	return rec, nil
}

// Put overwrites the record for name. The entry directory must already
// exist; writing into a missing one reports ErrNotFound.
func (s *Store) Put(name string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %q: %w", name, err)
	}
	if err := os.WriteFile(s.RecordPath(name), data, 0o644); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("write record %q: %w", name, err)
	}
	return nil
}

// Delete removes the entire entry directory for name, including any
// stdio captures left behind by the runner. Deleting an absent entry is
// a no-op.
func (s *Store) Delete(name string) error {
	return fsutil.Remove(s.EntryDir(name))
}

// List returns the entry names currently present under the root. The
// result reflects raw directory enumeration: order is undefined and an
// entry may lack a loadable record. An absent root yields an empty list.
func (s *Store) List() ([]string, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	names := make([]string, 0, len(dirents))
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		names = append(names, de.Name())
	}
	return names, nil
}
