// Package export writes report records back out as .xlsx or .csv.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/rollup/internal/types"

	"github.com/xuri/excelize/v2"
)

const (
	ResultSheet   = "Result"
	AptitudeSheet = "Aptitude"
)

// ErrUnsupportedType is returned for output paths that are neither .xlsx nor .csv.
var ErrUnsupportedType = errors.New("unsupported output type")

var (
	resultHeaders   = []string{"Name", "Roll No", "Division", "Email", "Sessions Attended", "Tests Appeared"}
	aptitudeHeaders = []string{"Name", "Roll No", "Division", "Email", "Tests Appeared", "Recent Aptitude Marks", "Recent Coding Score"}
)

// Records writes the attendance report to path.
func Records(path string, records []types.OutputRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name, r.RollNo, r.Division, r.Email, r.SessionsAttended, r.TestsAppeared})
	}
	return write(path, ResultSheet, resultHeaders, rows)
}

// Aptitude writes the aptitude report to path.
func Aptitude(path string, records []types.AptitudeRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name, r.RollNo, r.Division, r.Email, r.TestsAppeared, r.RecentAptitude, r.RecentCoding})
	}
	return write(path, AptitudeSheet, aptitudeHeaders, rows)
}

// DefaultName builds an output filename like "COMP_result.xlsx".
func DefaultName(prefix, ext string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rollup"
	}
	return fmt.Sprintf("%s_result%s", prefix, ext)
}

func write(path, sheet string, headers []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return writeCSV(path, headers, rows)
	case ".xlsx":
		return writeXLSX(path, sheet, headers, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

func writeCSV(path string, headers []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Excel needs the BOM to read UTF-8 names correctly.
	if _, err := f.WriteString("\ufeff"); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func writeXLSX(path, sheet string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, rowIdx int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}
