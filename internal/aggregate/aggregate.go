// Package aggregate summarizes one track workbook per student.
package aggregate

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/nconklindev/rollup/internal/classify"
	"github.com/nconklindev/rollup/internal/duration"
	"github.com/nconklindev/rollup/internal/sheet"
	"github.com/nconklindev/rollup/internal/types"

	"github.com/montanaflynn/stats"
)

const (
	AttendanceSheetKeyword = "attendance"
	AssessmentSheetKeyword = "weekly assessment"

	// DefaultThresholdRatio requires the full lecture to be attended.
	DefaultThresholdRatio = 1.0

	// assessmentHeaderRows allows the week / score / "out of" header stack
	// used by weekly assessment sheets.
	assessmentHeaderRows = 3
)

var nonNumeric = regexp.MustCompile(`[^\d.\-]`)

// Summaries maps a student key to that student's summary.
type Summaries map[string]types.SourceSummary

// Aggregator builds per-student summaries for a single source file.
type Aggregator struct {
	ThresholdRatio float64
	Logger         *slog.Logger
}

// New returns an Aggregator. A non-positive ratio falls back to the default.
func New(ratio float64, logger *slog.Logger) *Aggregator {
	if ratio <= 0 {
		ratio = DefaultThresholdRatio
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{ThresholdRatio: ratio, Logger: logger}
}

type identity struct {
	name     string
	email    string
	roll     string
	division string
}

// firstValue returns the first non-empty cell among the columns of role.
func firstValue(t *types.Table, row types.Row, c classify.Classification, role classify.Role) string {
	for _, col := range c.Columns(role) {
		if v := strings.TrimSpace(t.Get(row, col.Index).String()); v != "" {
			return v
		}
	}
	return ""
}

func readIdentity(t *types.Table, row types.Row, c classify.Classification) identity {
	id := identity{
		name:     firstValue(t, row, c, classify.RoleName),
		email:    types.NormalizeEmail(firstValue(t, row, c, classify.RoleEmail)),
		roll:     types.NormalizeRoll(firstValue(t, row, c, classify.RoleRoll)),
		division: firstValue(t, row, c, classify.RoleDivision),
	}
	if id.name == "" && id.email != "" {
		id.name, _, _ = strings.Cut(id.email, "@")
	}
	return id
}

func (id identity) key() string {
	return types.StudentKey(id.email, id.roll, id.name)
}

// Attendance counts attended lectures per student. It also returns the
// number of lecture columns found.
func (a *Aggregator) Attendance(t *types.Table) (Summaries, int) {
	out := make(Summaries)
	if t == nil {
		return out, 0
	}

	c := classify.Classify(t.Headers)
	lectures := c.Columns(classify.RoleLecture)

	expected := make([]float64, len(lectures))
	for i, col := range lectures {
		expected[i] = duration.Expected(col.Header)
	}

	dropped := 0
	for _, row := range t.Rows {
		id := readIdentity(t, row, c)
		key := id.key()
		if key == "" {
			dropped++
			continue
		}

		attended := 0
		for i, col := range lectures {
			minutes := duration.Minutes(t.Get(row, col.Index))
			if duration.Attended(minutes, expected[i], a.ThresholdRatio) {
				attended++
			}
		}

		out[key] = types.SourceSummary{
			Name:             id.name,
			Email:            id.email,
			RollNo:           id.roll,
			Division:         id.division,
			TotalSessions:    len(lectures),
			SessionsAttended: attended,
		}
	}

	a.Logger.Debug("attendance aggregated",
		slog.String("sheet", t.Sheet),
		slog.Int("lectures", len(lectures)),
		slog.Int("students", len(out)),
		slog.Int("dropped_rows", dropped))

	return out, len(lectures)
}

// ScoreValue is a score cell's contribution to the sum. Absent cells
// contribute 0.
func ScoreValue(cell types.Cell) float64 {
	switch v := cell.(type) {
	case types.Number:
		return v.Value
	case types.Text:
		s := string(v)
		if duration.IsAbsent(s) {
			return 0
		}
		n, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(s, ""), 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Appeared reports whether a score cell shows the student took the test.
func Appeared(cell types.Cell) bool {
	s := strings.TrimSpace(cell.String())
	if duration.IsAbsent(s) {
		return false
	}
	return !strings.EqualFold(s, "#N/A")
}

// Scores averages coding scores per student. It also returns the number of
// score columns found.
func (a *Aggregator) Scores(t *types.Table) (Summaries, int) {
	out := make(Summaries)
	if t == nil {
		return out, 0
	}

	c := classify.Classify(t.Headers)
	cols := c.Columns(classify.RoleCodingScore)

	dropped := 0
	for _, row := range t.Rows {
		id := readIdentity(t, row, c)
		key := id.key()
		if key == "" {
			dropped++
			continue
		}

		values := make([]float64, 0, len(cols))
		appeared := 0
		for _, col := range cols {
			cell := t.Get(row, col.Index)
			values = append(values, ScoreValue(cell))
			if Appeared(cell) {
				appeared++
			}
		}

		out[key] = types.SourceSummary{
			Name:          id.name,
			Email:         id.email,
			RollNo:        id.roll,
			Division:      id.division,
			TotalTests:    len(cols),
			TestsAppeared: appeared,
			AvgScore:      average(values),
		}
	}

	a.Logger.Debug("scores aggregated",
		slog.String("sheet", t.Sheet),
		slog.Int("score_columns", len(cols)),
		slog.Int("students", len(out)),
		slog.Int("dropped_rows", dropped))

	return out, len(cols)
}

// average is the mean rounded to two places, or nil with no values.
func average(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil
	}
	rounded, err := stats.Round(mean, 2)
	if err != nil {
		return nil
	}
	return &rounded
}

// Combine joins attendance and score summaries from the same file. A
// student missing from one side gets zero counts against that side's
// column total, so "0 out of N" stays distinct from "no data".
func Combine(att, scores Summaries, lectures, scoreCols int) Summaries {
	keys := make(map[string]struct{}, len(att)+len(scores))
	for k := range att {
		keys[k] = struct{}{}
	}
	for k := range scores {
		keys[k] = struct{}{}
	}

	out := make(Summaries, len(keys))
	for k := range keys {
		a, hasAtt := att[k]
		s, hasScores := scores[k]

		merged := types.SourceSummary{
			Name:          firstNonEmpty(a.Name, s.Name),
			Email:         firstNonEmpty(a.Email, s.Email),
			RollNo:        firstNonEmpty(a.RollNo, s.RollNo),
			Division:      firstNonEmpty(a.Division, s.Division),
			TotalSessions: lectures,
			TotalTests:    scoreCols,
		}
		if merged.Email == "" && strings.Contains(k, "@") {
			merged.Email = k
		}
		if hasAtt {
			merged.TotalSessions = a.TotalSessions
			merged.SessionsAttended = a.SessionsAttended
		}
		if hasScores {
			merged.TotalTests = s.TotalTests
			merged.TestsAppeared = s.TestsAppeared
			merged.AvgScore = s.AvgScore
		}

		out[types.StudentKey(merged.Email, merged.RollNo, merged.Name)] = merged
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// FromWorkbook aggregates a whole track workbook: the attendance sheet
// (name contains "attendance", else the first sheet) and the weekly
// assessment sheet (name contains "weekly assessment", else the second,
// else the first).
func (a *Aggregator) FromWorkbook(ctx context.Context, wb *sheet.Workbook) (types.Source, error) {
	src := types.Source{Label: filepath.Base(wb.Path)}

	attName, ok := wb.Pick(AttendanceSheetKeyword, 0)
	if !ok {
		return src, sheet.ErrEmptySheet
	}
	scoreName, _ := wb.Pick(AssessmentSheetKeyword, 1)

	attTable, err := wb.Table(attName)
	if err != nil {
		return src, err
	}

	opts := wb.Options()
	if opts.MaxHeaderRows < assessmentHeaderRows {
		opts.MaxHeaderRows = assessmentHeaderRows
	}
	scoreTable, err := wb.TableWith(scoreName, opts)
	if err != nil {
		return src, err
	}

	att, lectures := a.Attendance(attTable)
	scores, scoreCols := a.Scores(scoreTable)

	src.Summaries = Combine(att, scores, lectures, scoreCols)
	src.LectureCount = lectures
	src.ScoreColCount = scoreCols

	a.Logger.InfoContext(ctx, "source aggregated",
		slog.String("file", src.Label),
		slog.String("attendance_sheet", attName),
		slog.String("assessment_sheet", scoreName),
		slog.Int("students", len(src.Summaries)),
		slog.Int("lectures", lectures),
		slog.Int("score_columns", scoreCols))

	return src, nil
}
