package ui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/rollup/internal/cache"
	"github.com/nconklindev/rollup/internal/types"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestMenuSelection(t *testing.T) {
	tests := []struct {
		name      string
		keys      []string
		choice    string
		slotCount int
	}{
		{"first department", []string{"enter"}, "COMP", 3},
		{"second department", []string{"down", "enter"}, "IT", 3},
		{"cursor stops at top", []string{"up", "up", "enter"}, "COMP", 3},
		{"aptitude", []string{"down", "down", "down", "down", "enter"}, AptitudeChoice, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(t, InitialModel(Deps{}), tt.keys...)
			assert.Equal(t, stateFilePicker, m.state)
			assert.Equal(t, tt.choice, m.choice)
			assert.Len(t, m.slots, tt.slotCount)
		})
	}
}

func TestMenuViewHasNoExternalLinks(t *testing.T) {
	view := InitialModel(Deps{}).View()
	assert.Contains(t, view, "Per-department reports")
	assert.NotContains(t, view, "https://")
}

func TestUseCachedRoster(t *testing.T) {
	store := cache.New(t.TempDir())
	src := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(src, []byte("Name,Email\n"), 0o644))
	cached, err := store.Save("COMP", src)
	require.NoError(t, err)

	m, _ := press(t, InitialModel(Deps{Cache: store}), "enter", "c")

	require.Len(t, m.files, 1)
	assert.Equal(t, cached, m.files[0])
	assert.Contains(t, m.notice, "roster.csv")
	assert.Equal(t, stateFilePicker, m.state)

	// The cache key only works for the roster slot.
	m, _ = press(t, m, "c")
	assert.Len(t, m.files, 1)
}

func TestUseCachedRosterMissing(t *testing.T) {
	m, _ := press(t, InitialModel(Deps{Cache: cache.New(t.TempDir())}), "down", "enter", "c")

	assert.Empty(t, m.files)
	assert.Equal(t, "No cached roster for IT", m.notice)
}

func sampleResult() *types.RunResult {
	return &types.RunResult{
		Department:    "COMP",
		TotalSessions: 10,
		TotalTests:    5,
		Records: []types.OutputRecord{
			{Name: "Asha", RollNo: "A01", Division: "A", Email: "asha@x.com", SessionsAttended: "8 out of 10", TestsAppeared: "3 out of 5"},
			{Name: "Ravi", RollNo: "A02", Division: "A", Email: "Not Registered", SessionsAttended: "-", TestsAppeared: "-"},
		},
	}
}

func TestRunCompleteShowsResults(t *testing.T) {
	m, _ := press(t, InitialModel(Deps{}), "enter")
	m = send(t, m, runCompleteMsg{result: sampleResult()})

	assert.Equal(t, stateResults, m.state)
	assert.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "8 out of 10", m.table.Rows()[0][4])
	assert.Contains(t, m.View(), "2 students")
}

func TestRunFailureShowsError(t *testing.T) {
	m, _ := press(t, InitialModel(Deps{}), "enter")
	m = send(t, m, runCompleteMsg{err: errors.New("track file java.xlsx: header not found")})

	assert.Equal(t, stateError, m.state)
	assert.Contains(t, m.View(), "header not found")

	m, _ = press(t, m, "b")
	assert.Equal(t, stateMenu, m.state)
	assert.Nil(t, m.err)
}

func TestExportResults(t *testing.T) {
	out := t.TempDir()
	m, _ := press(t, InitialModel(Deps{OutputDir: out}), "enter")
	m = send(t, m, runCompleteMsg{result: sampleResult()})

	m, cmd := press(t, m, "e")
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(exportDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	m = send(t, m, done)
	assert.Equal(t, stateComplete, m.state)
	assert.Equal(t, filepath.Join(out, "COMP_result.xlsx"), m.output)
	_, err := os.Stat(m.output)
	assert.NoError(t, err)
}

func TestExportAptitude(t *testing.T) {
	out := t.TempDir()
	m, _ := press(t, InitialModel(Deps{OutputDir: out}), "down", "down", "down", "enter")
	require.Equal(t, AptitudeChoice, m.choice)

	m = send(t, m, runCompleteMsg{aptitude: []types.AptitudeRecord{
		{Name: "Asha", RollNo: "TCA01", Division: "A", TestsAppeared: "2 out of 4", RecentAptitude: "44", RecentCoding: "AB"},
	}})
	require.Equal(t, stateResults, m.state)

	_, cmd := press(t, m, "e")
	done := cmd().(exportDoneMsg)
	require.NoError(t, done.err)
	assert.Equal(t, filepath.Join(out, "aptitude_result.xlsx"), done.path)
}
