package sheet

import (
	"strings"

	"github.com/nconklindev/rollup/internal/classify"
	"github.com/nconklindev/rollup/internal/duration"

	"golang.org/x/text/unicode/norm"
)

// exactKeywords mark a header row when a cell equals one of them.
var exactKeywords = map[string]bool{
	"email":        true,
	"name":         true,
	"student name": true,
	"user name":    true,
	"roll":         true,
	"roll no":      true,
	"roll no.":     true,
	"prn":          true,
	"sr.no":        true,
	"sr.no.":       true,
	"sr no":        true,
	"srno.":        true,
}

// partialKeywords mark a header row when a cell contains one of them and
// the row has more than one filled cell. A lone title cell such as
// "Student Name List" never qualifies.
var partialKeywords = []string{"email", "roll no", "student name", "user name"}

// cleanText normalizes sheet text the same way for headers and cells.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func isExactKeyword(cell string) bool {
	return exactKeywords[strings.ToLower(cleanText(cell))]
}

// isHeaderKeyword reports whether a single cell looks like a header label.
func isHeaderKeyword(cell string) bool {
	c := strings.ToLower(cleanText(cell))
	if c == "" {
		return false
	}
	if exactKeywords[c] {
		return true
	}
	for _, k := range partialKeywords {
		if strings.Contains(c, k) {
			return true
		}
	}
	return false
}

func hasHeaderKeyword(row []string) bool {
	filled := 0
	partial := false
	for _, cell := range row {
		if cleanText(cell) == "" {
			continue
		}
		filled++
		if isExactKeyword(cell) {
			return true
		}
		if isHeaderKeyword(cell) {
			partial = true
		}
	}
	return partial && filled > 1
}

func isDataCell(c string) bool {
	if strings.Contains(c, "@") || duration.IsClock(c) {
		return true
	}
	_, isNum := parseNumber(c)
	return isNum
}

// findHeaderRow returns the first row, within limit, containing a header
// keyword, or -1.
func findHeaderRow(rows [][]string, limit int) int {
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		if hasHeaderKeyword(rows[i]) {
			return i
		}
	}
	return -1
}

// looksLikeHeader decides whether next continues the header above it.
// Data rows give themselves away with e-mail addresses, numbers or
// durations, or with anything other than a header keyword written under
// an identity column.
func looksLikeHeader(header, next []string) bool {
	nonEmpty := 0

	for i, cell := range next {
		c := cleanText(cell)
		if c == "" {
			continue
		}
		nonEmpty++
		if isDataCell(c) {
			return false
		}
		if i < len(header) && isIdentityHeader(header[i]) && !isExactKeyword(c) {
			return false
		}
	}

	return nonEmpty > 0
}

// looksLikeHeaderAbove decides whether prev, sitting directly above the
// keyword row, labels it: group titles such as "Coding Problem Score"
// over score columns. Anything over an identity column is a sheet title.
func looksLikeHeaderAbove(keywordRow, prev []string) bool {
	nonEmpty := 0

	for i, cell := range prev {
		c := cleanText(cell)
		if c == "" {
			continue
		}
		nonEmpty++
		if isDataCell(c) || i >= len(keywordRow) || isIdentityHeader(keywordRow[i]) {
			return false
		}
	}

	return nonEmpty > 0
}

func isIdentityHeader(h string) bool {
	switch classify.RoleOf(h) {
	case classify.RoleEmail, classify.RoleName, classify.RoleRoll:
		return true
	}
	return isHeaderKeyword(h)
}

// combineHeaders joins stacked header rows cell-wise.
func combineHeaders(rows [][]string) []string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	headers := make([]string, width)
	for col := 0; col < width; col++ {
		var parts []string
		for _, r := range rows {
			if col < len(r) {
				if c := cleanText(r[col]); c != "" {
					parts = append(parts, c)
				}
			}
		}
		headers[col] = strings.TrimSpace(strings.Join(parts, " "))
	}
	return headers
}
