package aptitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/rollup/internal/sheet"
)

func TestReport(t *testing.T) {
	table, err := sheet.Parse("Results", [][]string{
		{"Hitbullseye Placement Training"},
		{"Batch 2025"},
		{},
		{"Sr.No", "Name", "Roll No", "Division", "Email", "Test 1", "", "Test 2", ""},
		{"", "", "", "", "", "Overall - Marks (50)", "WE Score (100)", "Overall - Marks (50)", "WE Score (100)"},
		{"1", "Ravi", "tcb02", "B", "RAVI@x.com", "30", "70", "-", "65"},
		{"2", "Asha", "TCA01", "A", "asha@x.com", "41", "-", "44", ""},
		{"3", "Zoya", "TCA03", "", "zoya@x.com", "-", "-", "-", "-"},
	}, sheet.DefaultOptions())
	require.NoError(t, err)

	records := Report(table)
	require.Len(t, records, 3)

	asha := records[0]
	assert.Equal(t, "Asha", asha.Name)
	assert.Equal(t, "2 out of 4", asha.TestsAppeared)
	assert.Equal(t, "44", asha.RecentAptitude)
	assert.Equal(t, Absent, asha.RecentCoding)

	ravi := records[1]
	assert.Equal(t, "TCB02", ravi.RollNo)
	assert.Equal(t, "ravi@x.com", ravi.Email)
	assert.Equal(t, "3 out of 4", ravi.TestsAppeared)
	assert.Equal(t, Absent, ravi.RecentAptitude)
	assert.Equal(t, "65", ravi.RecentCoding)

	zoya := records[2]
	assert.Equal(t, "0 out of 4", zoya.TestsAppeared)
	assert.Equal(t, Absent, zoya.RecentAptitude)
}

func TestReportWithoutTestColumns(t *testing.T) {
	table, err := sheet.Parse("Results", [][]string{
		{"Name", "Roll No"},
		{"Asha", "TCA01"},
	}, sheet.DefaultOptions())
	require.NoError(t, err)

	records := Report(table)
	require.Len(t, records, 1)
	assert.Equal(t, "0 out of 0", records[0].TestsAppeared)
	assert.Equal(t, Absent, records[0].RecentCoding)
}
