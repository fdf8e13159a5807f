package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestSaveLoad(t *testing.T) {
	src := t.TempDir()
	s := New(t.TempDir())

	first := writeFile(t, src, "roster-v1.csv", "Name,Roll No\nAsha,A01\n")
	path, err := s.Save("comp", first)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir, "COMP", "roster-v1.csv"), path)

	got, err := s.Load("COMP")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// A new save replaces the old file.
	second := writeFile(t, src, "roster-v2.csv", "Name,Roll No\nRavi,A02\n")
	_, err = s.Save("COMP", second)
	require.NoError(t, err)

	got, err = s.Load("comp")
	require.NoError(t, err)
	assert.Equal(t, "roster-v2.csv", filepath.Base(got))
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ravi")

	_, err = os.Stat(filepath.Join(s.Dir, "COMP", "roster-v1.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMissing(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Load("IT")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestClear(t *testing.T) {
	s := New(t.TempDir())
	src := writeFile(t, t.TempDir(), "roster.xlsx", "x")
	_, err := s.Save("ENTC", src)
	require.NoError(t, err)

	require.NoError(t, s.Clear("ENTC"))
	_, err = s.Load("ENTC")
	assert.ErrorIs(t, err, ErrNotCached)

	// Clearing twice is fine.
	assert.NoError(t, s.Clear("ENTC"))
}

func TestInvalidDepartment(t *testing.T) {
	s := New(t.TempDir())
	tests := []string{"", "  ", "..", "a/b", `a\b`}
	for _, dept := range tests {
		t.Run(dept, func(t *testing.T) {
			_, err := s.Load(dept)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrNotCached)
		})
	}
}
