package roster

import (
	"slices"
	"strings"

	"github.com/nconklindev/rollup/internal/types"
)

var divisionRank = map[string]int{"A": 0, "B": 1, "C": 2}

const otherDivisions = len("ABC")

// Compare orders by division (A, B, C, then every other label sorted as
// text) and then by roll number as a plain string.
func Compare(aDiv, aRoll, bDiv, bRoll string) int {
	da := strings.ToUpper(strings.TrimSpace(aDiv))
	db := strings.ToUpper(strings.TrimSpace(bDiv))

	ra, ok := divisionRank[da]
	if !ok {
		ra = otherDivisions
	}
	rb, ok := divisionRank[db]
	if !ok {
		rb = otherDivisions
	}

	if ra != rb {
		return ra - rb
	}
	if ra == otherDivisions {
		if c := strings.Compare(da, db); c != 0 {
			return c
		}
	}
	return strings.Compare(aRoll, bRoll)
}

// Sort puts records in report order. Equal records keep their input order.
func Sort(records []types.OutputRecord) {
	slices.SortStableFunc(records, func(a, b types.OutputRecord) int {
		return Compare(a.Division, a.RollNo, b.Division, b.RollNo)
	})
}
