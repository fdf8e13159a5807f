package types

import (
	"math"
	"strconv"
	"strings"
)

// Cell is a single spreadsheet value. It is one of Text, Number or Empty.
type Cell interface {
	String() string
	isCell()
}

// Text is a non-numeric cell value.
type Text string

// Number is a numeric cell value. Raw keeps the text as it appeared in the
// sheet so values like "007" are not lost.
type Number struct {
	Value float64
	Raw   string
}

// Empty is a blank or missing cell.
type Empty struct{}

func (t Text) String() string   { return string(t) }
func (n Number) String() string { return n.Raw }
func (Empty) String() string    { return "" }

func (Text) isCell()   {}
func (Number) isCell() {}
func (Empty) isCell()  {}

// NewCell classifies raw sheet text into a Cell. Text such as "NaN" or
// "Inf" stays Text.
func NewCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Empty{}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return Number{Value: v, Raw: s}
	}
	return Text(s)
}

// Row is one data row, positionally aligned with Table.Headers.
type Row []Cell

// Table is one sheet after header detection.
type Table struct {
	Sheet     string
	Headers   []string
	Rows      []Row
	HeaderRow int
}

// Get returns the cell at col, or Empty when the row is short.
func (t *Table) Get(row Row, col int) Cell {
	if col < 0 || col >= len(row) || row[col] == nil {
		return Empty{}
	}
	return row[col]
}

// SourceSummary is one student's attendance and assessment totals within a
// single source file.
type SourceSummary struct {
	Name             string
	Email            string
	RollNo           string
	Division         string
	TotalSessions    int
	SessionsAttended int
	TotalTests       int
	TestsAppeared    int
	AvgScore         *float64
}

// Source is one aggregated track file.
type Source struct {
	Label         string
	Summaries     map[string]SourceSummary
	LectureCount  int
	ScoreColCount int
}

// RosterEntry is one row of the authoritative roster.
type RosterEntry struct {
	Name     string
	RollNo   string
	Division string
	Email    string
}

// OutputRecord is the final per-student line shown and exported.
type OutputRecord struct {
	Name             string
	RollNo           string
	Division         string
	Email            string
	SessionsAttended string
	TestsAppeared    string
}

// AptitudeRecord is one student's line in the aptitude report.
type AptitudeRecord struct {
	Name           string
	RollNo         string
	Division       string
	Email          string
	TestsAppeared  string
	RecentAptitude string
	RecentCoding   string
}

// RunResult is what a processing run hands back to its caller.
type RunResult struct {
	RunID         string
	Department    string
	RosterFile    string
	TrackFiles    []string
	Records       []OutputRecord
	// Students is how many distinct students the track files cover.
	Students      int
	TotalSessions int
	TotalTests    int
}
