package sheet

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/rollup/internal/types"
)

func writeXLSX(t *testing.T, path string, sheets map[string][][]string, order []string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			for c, val := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellStr(name, cell, val))
			}
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestParseDetectsHeaderAfterTitleRows(t *testing.T) {
	rows := [][]string{
		{"Institute of Technology"},
		{"Roll Call 2025"},
		{},
		{"Sr.No", "Name", "Roll No", "Division", "Email"},
		{"1", "Asha", "A01", "A", "asha@x.com"},
		{"2", "Ravi", "A02"},
		{"", "", "", "", ""},
	}

	table, err := Parse("Roster", rows, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, table.HeaderRow)
	assert.Equal(t, []string{"Sr.No", "Name", "Roll No", "Division", "Email"}, table.Headers)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "asha@x.com", table.Get(table.Rows[0], 4).String())
	// Short rows are padded with empty cells.
	assert.Equal(t, types.Empty{}, table.Get(table.Rows[1], 4))
	assert.Equal(t, "", table.Get(table.Rows[1], 3).String())
	assert.Equal(t, types.Empty{}, table.Get(table.Rows[1], 42))
}

func TestParseCombinesStackedHeader(t *testing.T) {
	rows := [][]string{
		{"Sr.No", "Name", "Roll No", "Test 1", "", "Test 2", ""},
		{"", "", "", "Overall - Marks (50)", "WE Score (100)", "Overall - Marks (50)", "WE Score (100)"},
		{"1", "Asha", "A01", "40", "-", "35", "88"},
	}

	table, err := Parse("Hit", rows, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Sr.No", "Name", "Roll No",
		"Test 1 Overall - Marks (50)", "WE Score (100)",
		"Test 2 Overall - Marks (50)", "WE Score (100)",
	}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "88", table.Get(table.Rows[0], 6).String())
}

func TestParseDoesNotSwallowDataRow(t *testing.T) {
	tests := []struct {
		name string
		next []string
	}{
		{"Email in row", []string{"Asha", "asha@x.com"}},
		{"Number in row", []string{"Asha", "", "12"}},
		{"Duration in row", []string{"Asha", "", "", "1:20:00"}},
		{"Plain names under filled header", []string{"Asha", "Patil"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := [][]string{
				{"User Name", "Email", "Remarks", "Lecture 1"},
				tt.next,
			}
			table, err := Parse("Attendance", rows, DefaultOptions())
			require.NoError(t, err)
			assert.Len(t, table.Rows, 1)
			assert.Equal(t, "User Name", table.Headers[0])
		})
	}
}

func TestParseHeaderDepthLimit(t *testing.T) {
	rows := [][]string{
		{"Name", "Email", "Week 1"},
		{"", "", "Coding Problem Score"},
		{"", "", "out of 100"},
		{"Asha", "asha@x.com", "70"},
	}

	table, err := Parse("Weekly", rows, Options{MaxHeaderRows: 3})
	require.NoError(t, err)
	assert.Equal(t, "Week 1 Coding Problem Score out of 100", table.Headers[2])
	assert.Len(t, table.Rows, 1)

	table, err = Parse("Weekly", rows, Options{MaxHeaderRows: 1})
	require.NoError(t, err)
	assert.Equal(t, "Week 1", table.Headers[2])
	assert.Len(t, table.Rows, 3)
}

func TestParseSkipsTitleWithKeywordText(t *testing.T) {
	rows := [][]string{
		{"Student Name List - TE Computer"},
		{"Sr.No", "Name", "Roll No", "Division", "Email"},
		{"1", "Asha", "TCA01", "A", "asha@x.com"},
	}

	table, err := Parse("Roster", rows, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, table.HeaderRow)
	assert.Equal(t, []string{"Sr.No", "Name", "Roll No", "Division", "Email"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "asha@x.com", table.Get(table.Rows[0], 4).String())
}

func TestParseKeepsKeywordRowUnderIdentityHeader(t *testing.T) {
	rows := [][]string{
		{"Student Name", "Email Address", "Remarks"},
		{"Name", "", "Notes"},
		{"Asha", "asha@x.com", "ok"},
	}

	table, err := Parse("Roster", rows, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"Student Name Name", "Email Address", "Remarks Notes"}, table.Headers)
	assert.Len(t, table.Rows, 1)
}

func TestParseGroupTitleAboveKeywordRow(t *testing.T) {
	rows := [][]string{
		{"", "", "Coding Problem Score", "Coding Problem Score"},
		{"Name", "Email", "Week 1", "Week 2"},
		{"Asha", "asha@x.com", "70", "80"},
	}

	table, err := Parse("Weekly", rows, Options{MaxHeaderRows: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email", "Coding Problem Score Week 1", "Coding Problem Score Week 2"}, table.Headers)
	require.Len(t, table.Rows, 1)

	// A single allowed header row leaves no room above.
	table, err = Parse("Weekly", rows, Options{MaxHeaderRows: 1})
	require.NoError(t, err)
	assert.Equal(t, "Week 1", table.Headers[2])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("Blank", nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptySheet)

	_, err = Parse("Junk", [][]string{{"a", "b"}, {"1", "2"}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	// The header must appear within the search limit.
	rows := [][]string{{"title"}, {"title"}, {"Name", "Email"}}
	_, err = Parse("Late", rows, Options{SearchLimit: 2})
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestOpenXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "java.xlsx")
	writeXLSX(t, path, map[string][][]string{
		"Overview":          {{"Summary"}},
		"Attendance Report": {{"User Name", "Email"}, {"Asha", "asha@x.com"}},
		"Weekly Assessment": {{"Name", "Email"}, {"Asha", "asha@x.com"}},
	}, []string{"Overview", "Attendance Report", "Weekly Assessment"})

	wb, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"Overview", "Attendance Report", "Weekly Assessment"}, wb.names)

	name, ok := wb.Pick("attendance", 0)
	require.True(t, ok)
	assert.Equal(t, "Attendance Report", name)

	name, _ = wb.Pick("missing", 2)
	assert.Equal(t, "Weekly Assessment", name)

	name, _ = wb.Pick("missing", 7)
	assert.Equal(t, "Overview", name)

	table, err := wb.Table("Attendance Report")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	_, err = wb.Table("Nope")
	assert.ErrorIs(t, err, ErrSheetNotFound)

	_, err = wb.First()
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestOpenCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString("\ufeff")
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll([][]string{
		{"Name", "Roll No", "Division", "Email ID"},
		{"Asha", "a01", "A", "Asha@X.com"},
	}))
	require.NoError(t, f.Close())

	wb, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"roster"}, wb.names)

	table, err := wb.First()
	require.NoError(t, err)
	assert.Equal(t, "Name", table.Headers[0])
	assert.Equal(t, "Asha@X.com", table.Get(table.Rows[0], 3).String())
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("notes.txt", DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
