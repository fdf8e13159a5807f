// Package sheet reads spreadsheet exports into header-detected tables.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nconklindev/rollup/internal/types"

	"github.com/xuri/excelize/v2"
)

const (
	// DefaultSearchLimit is how many leading rows are scanned for a header.
	DefaultSearchLimit = 20
	// DefaultMaxHeaderRows is how many stacked rows may form one header.
	DefaultMaxHeaderRows = 2
)

var (
	ErrHeaderNotFound  = errors.New("header row not found")
	ErrEmptySheet      = errors.New("sheet is empty")
	ErrSheetNotFound   = errors.New("sheet not found")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Options tunes header detection.
type Options struct {
	SearchLimit   int
	MaxHeaderRows int
}

// DefaultOptions returns the reader defaults.
func DefaultOptions() Options {
	return Options{
		SearchLimit:   DefaultSearchLimit,
		MaxHeaderRows: DefaultMaxHeaderRows,
	}
}

func (o Options) normalized() Options {
	if o.SearchLimit <= 0 {
		o.SearchLimit = DefaultSearchLimit
	}
	if o.MaxHeaderRows <= 0 {
		o.MaxHeaderRows = DefaultMaxHeaderRows
	}
	return o
}

// Workbook is a fully loaded spreadsheet file.
type Workbook struct {
	Path   string
	names  []string
	sheets map[string][][]string
	opts   Options
}

// Open loads every sheet of an .xlsx or .csv file.
func Open(path string, opts Options) (*Workbook, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".csv":
		return openCSV(path, opts)
	case ".xlsx", ".xlsm":
		return openXLSX(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

// FromRows builds a workbook in memory, mostly for callers that already
// hold cell text.
func FromRows(path string, names []string, sheets map[string][][]string, opts Options) *Workbook {
	return &Workbook{
		Path:   path,
		names:  names,
		sheets: sheets,
		opts:   opts.normalized(),
	}
}

func openCSV(path string, opts Options) (*Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return FromRows(path, []string{name}, map[string][][]string{name: records}, opts), nil
}

func openXLSX(path string, opts Options) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := f.GetSheetList()
	sheets := make(map[string][][]string, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets[name] = rows
	}

	return FromRows(path, names, sheets, opts), nil
}

// Pick returns the first sheet whose name contains keyword, then the sheet
// at position fallback, then the first sheet.
func (w *Workbook) Pick(keyword string, fallback int) (string, bool) {
	if len(w.names) == 0 {
		return "", false
	}
	keyword = strings.ToLower(keyword)
	if keyword != "" {
		for _, n := range w.names {
			if strings.Contains(strings.ToLower(n), keyword) {
				return n, true
			}
		}
	}
	if fallback >= 0 && fallback < len(w.names) {
		return w.names[fallback], true
	}
	return w.names[0], true
}

// Table parses the named sheet.
func (w *Workbook) Table(name string) (*types.Table, error) {
	rows, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return Parse(name, rows, w.opts)
}

// TableWith parses the named sheet with options other than the workbook's.
func (w *Workbook) TableWith(name string, opts Options) (*types.Table, error) {
	rows, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return Parse(name, rows, opts)
}

// Options returns the workbook's header detection options.
func (w *Workbook) Options() Options {
	return w.opts
}

// First parses the first sheet.
func (w *Workbook) First() (*types.Table, error) {
	if len(w.names) == 0 {
		return nil, ErrEmptySheet
	}
	return w.Table(w.names[0])
}

// Parse detects the header in raw rows and returns the remaining rows as
// a table. Blank cells become Empty and fully blank rows are dropped.
func Parse(name string, rows [][]string, opts Options) (*types.Table, error) {
	opts = opts.normalized()

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptySheet)
	}

	headerIdx := findHeaderRow(rows, opts.SearchLimit)
	if headerIdx == -1 {
		return nil, fmt.Errorf("%s: %w", name, ErrHeaderNotFound)
	}

	top := headerIdx
	for top > 0 && headerIdx-top < opts.MaxHeaderRows-1 && looksLikeHeaderAbove(rows[headerIdx], rows[top-1]) {
		top--
	}

	stacked := slices.Clone(rows[top : headerIdx+1])
	headers := combineHeaders(stacked)
	next := headerIdx + 1
	for len(stacked) < opts.MaxHeaderRows && next < len(rows) && looksLikeHeader(headers, rows[next]) {
		stacked = append(stacked, rows[next])
		headers = combineHeaders(stacked)
		next++
	}

	table := &types.Table{
		Sheet:     name,
		Headers:   headers,
		HeaderRow: headerIdx,
	}

	for _, raw := range rows[next:] {
		row := make(types.Row, len(headers))
		blank := true
		for i := range headers {
			if i < len(raw) {
				row[i] = types.NewCell(cleanText(raw[i]))
			} else {
				row[i] = types.Empty{}
			}
			if _, empty := row[i].(types.Empty); !empty {
				blank = false
			}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func parseNumber(s string) (float64, bool) {
	n, ok := types.NewCell(s).(types.Number)
	return n.Value, ok
}
