package fileops

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
)

type entryKind int

const (
	created entryKind = iota
	staged
)

type entry struct {
	kind   entryKind
	path   string
	staged string
}

// Journal records filesystem side effects so they can be undone if a later
// step of the same operation fails. Created files are deleted on Rollback.
// Removals are staged by renaming the file aside; Commit deletes the staged
// copies and Rollback renames them back.
//
// A Journal is not safe for concurrent use.
type Journal struct {
	token   string
	entries []entry
	done    bool
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{token: uuid.NewString()}
}

// Copy copies src to dst and records dst for removal on rollback.
func (j *Journal) Copy(src, dst string) error {
	if err := CopyFile(src, dst); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	j.entries = append(j.entries, entry{kind: created, path: dst})
	return nil
}

// Create records a file written by the caller for removal on rollback.
func (j *Journal) Create(path string) {
	j.entries = append(j.entries, entry{kind: created, path: path})
}

// Remove stages path for deletion. Missing files are ignored.
func (j *Journal) Remove(path string) error {
	aside := path + ".removing-" + j.token
	if err := os.Rename(path, aside); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stage removal of %s: %w", path, err)
	}
	j.entries = append(j.entries, entry{kind: staged, path: path, staged: aside})
	return nil
}

// Len returns the number of recorded side effects.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Commit finalizes staged removals. Failures to delete staged files are
// returned but leave the committed state intact.
func (j *Journal) Commit() error {
	if j.done {
		return nil
	}
	j.done = true

	var errs []error
	for _, e := range j.entries {
		if e.kind == staged {
			if err := os.Remove(e.staged); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Rollback undoes recorded side effects in reverse order.
func (j *Journal) Rollback() error {
	if j.done {
		return nil
	}
	j.done = true

	var errs []error
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		switch e.kind {
		case created:
			if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		case staged:
			if err := os.Rename(e.staged, e.path); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
