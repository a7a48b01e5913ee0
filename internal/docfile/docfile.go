// Package docfile reads and writes document files.
//
// Writes go through a temporary file that is renamed over the target, and
// read-modify-write cycles hold an advisory lock on a sibling ".lock" file so
// that concurrent ocalc processes do not lose each other's edits.
package docfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

// Extension is the file extension of documents.
const Extension = ".ocalc"

// Template is the text of a newly created document.
const Template = `---
formulas: {}
totals:
  showTotalRow: true
  targetColumns: []
---
Column1
`

const (
	lockTimeout   = 5 * time.Second
	lockRetry     = 50 * time.Millisecond
	untitledStem  = "Untitled"
	filePerm      = 0o644
	directoryPerm = 0o755
)

// NotFoundError is returned when a document file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.Path)
}

// Load returns the contents of the document at path.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Path: path}
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Save atomically replaces the document at path with raw.
func Save(path, raw string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(raw), filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Create writes raw to a new file at path, creating parent directories. It
// fails with fs.ErrExist if the file already exists.
func Create(path, raw string) error {
	if err := os.MkdirAll(filepath.Dir(path), directoryPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.WriteString(raw); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// NextUntitled returns the first of "Untitled.ocalc", "Untitled 1.ocalc",
// "Untitled 2.ocalc", ... that does not exist in dir.
func NextUntitled(dir string) string {
	name := untitledStem + Extension
	for n := 1; exists(filepath.Join(dir, name)); n++ {
		name = untitledStem + " " + strconv.Itoa(n) + Extension
	}
	return filepath.Join(dir, name)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Lock takes the advisory lock of the document at path. The returned
// function releases it.
func Lock(ctx context.Context, path string) (func(), error) {
	lock := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for lock on %s", path)
	}
	return func() { _ = lock.Unlock() }, nil
}

// Update runs a locked read-modify-write cycle on the document at path. fn
// receives the current text and returns the new text and whether it changed;
// the file is only rewritten when it did.
func Update(ctx context.Context, path string, fn func(raw string) (string, bool, error)) error {
	unlock, err := Lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	raw, err := Load(path)
	if err != nil {
		return err
	}
	updated, changed, err := fn(raw)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return Save(path, updated)
}
