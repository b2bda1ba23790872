// Package rowsource reads batch input files into parser rows.
package rowsource

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"invoicegen/internal/domain"
	"invoicegen/internal/parser"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read picks a reader by the file extension of name.
func Read(name string, r io.Reader) ([]parser.Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, filepath.Ext(name))
	}
}

// ReadCSV reads a UTF-8 CSV with a header row. A leading BOM is ignored.
// Quotes inside unquoted fields are kept literally. A record that still
// cannot be read becomes a row carrying the problem, and reading goes on.
func ReadCSV(r io.Reader) ([]parser.Row, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var (
		records  [][]string
		problems = map[int]string{}
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			problems[len(records)] = fmt.Sprintf("malformed csv record on line %d: %v", pe.Line, pe.Err)
			records = append(records, nil)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if len(rec) < len(header) && strings.Contains(rec[len(rec)-1], "\n") {
			line, _ := cr.FieldPos(len(rec) - 1)
			problems[len(records)] = fmt.Sprintf("quoted field starting on line %d is never closed; the rest of the file was read into it", line)
		}
		records = append(records, rec)
	}
	return toRows(header, records, problems)
}

// ReadXLSX reads the first sheet of a workbook with the same contract as ReadCSV.
func ReadXLSX(r io.Reader) ([]parser.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrMissingHeader
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(all) == 0 || blank(all[0]) {
		return nil, domain.ErrMissingHeader
	}
	return toRows(all[0], all[1:], nil)
}

// toRows keys records by header column. Data rows are numbered from 1 in
// file order. problems holds record indexes that could not be read at all.
func toRows(header []string, records [][]string, problems map[int]string) ([]parser.Row, error) {
	cols, err := checkHeader(header)
	if err != nil {
		return nil, err
	}

	rows := make([]parser.Row, 0, len(records))
	for i, rec := range records {
		if problem, ok := problems[i]; ok {
			rows = append(rows, parser.Row{Number: i + 1, Fields: map[string]string{}, Problem: problem})
			continue
		}
		if blank(rec) {
			continue
		}
		fields := make(map[string]string, len(cols))
		for j, col := range cols {
			if col == "" {
				continue
			}
			if j < len(rec) {
				fields[col] = rec[j]
			} else {
				fields[col] = ""
			}
		}
		row := parser.Row{Number: i + 1, Fields: fields}
		row.Problem = shapeProblem(cols, rec)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, domain.ErrEmptyInput
	}
	return rows, nil
}

// checkHeader normalizes header names. Blank header cells are ignored
// along with their column.
func checkHeader(header []string) ([]string, error) {
	cols := lo.Map(header, func(h string, _ int) string {
		return strings.ToLower(strings.TrimSpace(h))
	})
	if blank(cols) {
		return nil, domain.ErrMissingHeader
	}

	named := lo.Compact(cols)
	var problems []string
	if missing := lo.Without(parser.Columns, cols...); len(missing) > 0 {
		problems = append(problems, "missing "+strings.Join(missing, ", "))
	}
	known := append(append([]string{}, parser.Columns...), parser.OptionalColumns...)
	if unknown := lo.Without(named, known...); len(unknown) > 0 {
		problems = append(problems, "unknown "+strings.Join(unknown, ", "))
	}
	if dup := lo.FindDuplicates(named); len(dup) > 0 {
		problems = append(problems, "duplicate "+strings.Join(dup, ", "))
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidHeader, strings.Join(problems, "; "))
	}
	return cols, nil
}

// shapeProblem reports a record that does not line up with the header:
// more cells than header columns, or a value under an unnamed column.
func shapeProblem(cols, rec []string) string {
	if len(rec) > len(cols) {
		return fmt.Sprintf("record has %d cells but the header has %d; check for an unquoted comma", len(rec), len(cols))
	}
	for j, v := range rec {
		if cols[j] == "" && strings.TrimSpace(v) != "" {
			return fmt.Sprintf("record has a value in column %d, which has no header name", j+1)
		}
	}
	return ""
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
