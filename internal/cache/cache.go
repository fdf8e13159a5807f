// Package cache keeps the last roster file used for each department so a
// later run can reuse it without picking the file again.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotCached is returned by Load when a department has no saved roster.
var ErrNotCached = errors.New("no cached roster")

// Store is a per-department roster cache rooted at Dir.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) deptDir(department string) (string, error) {
	d := strings.ToUpper(strings.TrimSpace(department))
	if d == "" || strings.ContainsAny(d, `/\`) || d == "." || d == ".." {
		return "", fmt.Errorf("invalid department %q", department)
	}
	return filepath.Join(s.Dir, d), nil
}

// Save copies src into the department's slot, replacing whatever was there.
// It returns the cached path.
func (s *Store) Save(department, src string) (string, error) {
	dir, err := s.deptDir(department)
	if err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	if err := os.RemoveAll(dir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}

// Load returns the path of the department's cached roster.
func (s *Store) Load(department string) (string, error) {
	dir, err := s.deptDir(department)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", department, ErrNotCached)
		}
		return "", err
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%s: %w", department, ErrNotCached)
}

// Clear removes the department's cached roster. Clearing an empty slot is
// not an error.
func (s *Store) Clear(department string) error {
	dir, err := s.deptDir(department)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
