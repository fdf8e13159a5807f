// Package roster reads the class roster and assembles the final report
// around it.
package roster

import (
	"fmt"
	"strings"

	"github.com/nconklindev/rollup/internal/classify"
	"github.com/nconklindev/rollup/internal/types"
)

// NoData marks a count that cannot be reported.
const NoData = "-"

const notRegistered = "not registered"

// Read maps a roster table into entries, keeping sheet order.
func Read(t *types.Table) []types.RosterEntry {
	c := classify.Classify(t.Headers)

	var entries []types.RosterEntry
	for _, row := range t.Rows {
		e := types.RosterEntry{
			Name:     value(t, row, c, classify.RoleName),
			RollNo:   value(t, row, c, classify.RoleRoll),
			Division: value(t, row, c, classify.RoleDivision),
			Email:    value(t, row, c, classify.RoleEmail),
		}
		if e.Name == "" && e.RollNo == "" && e.Email == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func value(t *types.Table, row types.Row, c classify.Classification, role classify.Role) string {
	for _, col := range c.Columns(role) {
		if v := strings.TrimSpace(t.Get(row, col.Index).String()); v != "" {
			return v
		}
	}
	return ""
}

// IsNotRegistered reports whether a roster e-mail cell says the student
// never registered on the platform.
func IsNotRegistered(email string) bool {
	return strings.Contains(strings.ToLower(email), notRegistered)
}

// OutOf formats a count against its total.
func OutOf(n, total int) string {
	return fmt.Sprintf("%d out of %d", n, total)
}

// Finder resolves a student's reconciled summary from lookup keys.
type Finder interface {
	Lookup(keys ...string) (types.SourceSummary, bool)
	Totals() (sessions, tests int)
}

// Assemble builds one output record per roster entry and returns them in
// report order.
func Assemble(entries []types.RosterEntry, f Finder) []types.OutputRecord {
	totalSessions, totalTests := f.Totals()

	records := make([]types.OutputRecord, 0, len(entries))
	for _, e := range entries {
		rec := types.OutputRecord{
			Name:     e.Name,
			RollNo:   types.NormalizeRoll(e.RollNo),
			Division: e.Division,
			Email:    e.Email,
		}

		if IsNotRegistered(e.Email) {
			rec.SessionsAttended = NoData
			rec.TestsAppeared = NoData
			records = append(records, rec)
			continue
		}

		s, ok := f.Lookup(types.NormalizeEmail(e.Email), types.NormalizeRoll(e.RollNo))
		if !ok {
			rec.SessionsAttended = OutOf(0, totalSessions)
			rec.TestsAppeared = OutOf(0, totalTests)
			records = append(records, rec)
			continue
		}

		rec.Name = fill(rec.Name, s.Name)
		rec.RollNo = fill(rec.RollNo, s.RollNo)
		rec.Division = fill(rec.Division, s.Division)
		rec.Email = fill(rec.Email, s.Email)

		rec.SessionsAttended = NoData
		if s.TotalSessions > 0 {
			rec.SessionsAttended = OutOf(s.SessionsAttended, s.TotalSessions)
		}
		rec.TestsAppeared = OutOf(s.TestsAppeared, s.TotalTests)

		records = append(records, rec)
	}

	Sort(records)
	return records
}

func fill(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
