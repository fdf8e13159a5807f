// Package aptitude builds the aptitude-platform test report.
package aptitude

import (
	"slices"
	"strings"

	"github.com/nconklindev/rollup/internal/classify"
	"github.com/nconklindev/rollup/internal/roster"
	"github.com/nconklindev/rollup/internal/types"
)

// Absent marks a test the student did not sit.
const Absent = "AB"

// Report turns an aptitude-platform sheet into one record per student row.
// Test columns are the "overall (50)" aptitude columns followed by the
// "we (100)" coding columns.
func Report(t *types.Table) []types.AptitudeRecord {
	c := classify.Classify(t.Headers)
	aptCols := c.Columns(classify.RoleAptitude)
	codeCols := c.Columns(classify.RoleCodingTest)
	testCols := append(append([]classify.Column{}, aptCols...), codeCols...)

	var records []types.AptitudeRecord
	for _, row := range t.Rows {
		rec := types.AptitudeRecord{
			Name:     first(t, row, c, classify.RoleName),
			RollNo:   types.NormalizeRoll(first(t, row, c, classify.RoleRoll)),
			Division: first(t, row, c, classify.RoleDivision),
			Email:    types.NormalizeEmail(first(t, row, c, classify.RoleEmail)),
		}
		if rec.Name == "" && rec.RollNo == "" && rec.Email == "" {
			continue
		}

		appeared := 0
		for _, col := range testCols {
			if taken(t.Get(row, col.Index)) {
				appeared++
			}
		}
		rec.TestsAppeared = roster.OutOf(appeared, len(testCols))
		rec.RecentAptitude = latest(t, row, aptCols)
		rec.RecentCoding = latest(t, row, codeCols)

		records = append(records, rec)
	}

	slices.SortStableFunc(records, func(a, b types.AptitudeRecord) int {
		return roster.Compare(a.Division, a.RollNo, b.Division, b.RollNo)
	})
	return records
}

func first(t *types.Table, row types.Row, c classify.Classification, role classify.Role) string {
	for _, col := range c.Columns(role) {
		if v := strings.TrimSpace(t.Get(row, col.Index).String()); v != "" {
			return v
		}
	}
	return ""
}

func taken(cell types.Cell) bool {
	s := strings.TrimSpace(cell.String())
	return s != "" && s != "-"
}

// latest is the value in the last column of cols, or Absent.
func latest(t *types.Table, row types.Row, cols []classify.Column) string {
	if len(cols) == 0 {
		return Absent
	}
	cell := t.Get(row, cols[len(cols)-1].Index)
	if !taken(cell) {
		return Absent
	}
	return cell.String()
}
