package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseWarning represents a non-fatal issue encountered while reading a source.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Table is the uniform in-memory representation of one tabular source:
// ordered headers plus one header -> cell map per data row.
type Table struct {
	Source   string              `json:"source"`
	Headers  []string            `json:"headers"`
	Records  []map[string]string `json:"records"`
	Warnings []ParseWarning      `json:"warnings"`
}

// Has reports whether the table carries the named column.
func (t *Table) Has(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.Records) }

// Options controls how a source is read.
type Options struct {
	// HeaderRow is the 0-indexed row holding column names; rows above it are
	// report banners and are skipped.
	HeaderRow int
	// Sheet selects a worksheet by name; empty means the first sheet.
	Sheet string
	// Comma overrides delimiter detection for CSV sources.
	Comma rune
}

// ParseCSV parses CSV bytes into a Table. It detects the text encoding,
// sniffs ',' vs ';' delimiters, pads short rows and truncates long ones with
// a warning.
func ParseCSV(data []byte, opts Options) (*Table, error) {
	decoded, _, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = opts.Comma
	if reader.Comma == 0 {
		reader.Comma = sniffDelimiter(decoded)
	}

	var rows [][]string
	var warnings []ParseWarning
	rowNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			warnings = append(warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("parse error: %v", err),
			})
			continue
		}
		rows = append(rows, row)
	}

	table, err := rowsToTable(rows, opts.HeaderRow)
	if err != nil {
		return nil, err
	}
	table.Warnings = append(warnings, table.Warnings...)
	return table, nil
}

// rowsToTable turns raw grid rows into a Table. Shared by the CSV and
// spreadsheet readers.
func rowsToTable(rows [][]string, headerRow int) (*Table, error) {
	if len(rows) <= headerRow {
		return nil, fmt.Errorf("empty file: no header row found")
	}

	headers := uniqueHeaders(rows[headerRow])
	headerCount := len(headers)
	table := &Table{Headers: headers}

	for i, row := range rows[headerRow+1:] {
		rowNum := headerRow + i + 2 // 1-indexed, header included
		if isBlankRow(row) {
			continue
		}
		if len(row) != headerCount {
			if len(row) < headerCount {
				// spreadsheet readers drop trailing empty cells, so short rows are routine
				padded := make([]string, headerCount)
				copy(padded, row)
				row = padded
			} else {
				table.Warnings = append(table.Warnings, ParseWarning{
					Row:     rowNum,
					Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), headerCount),
				})
				row = row[:headerCount]
			}
		}

		record := make(map[string]string, headerCount)
		for j, h := range headers {
			record[h] = strings.TrimSpace(row[j])
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

// uniqueHeaders trims header cells and disambiguates repeats with ".1", ".2"
// suffixes, the convention the upstream BI exports already rely on
// (e.g. "Service Resource[Name].1").
func uniqueHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = trimSpace(h)
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			headers[i] = fmt.Sprintf("%s.%d", h, n+1)
			continue
		}
		seen[h] = 0
		headers[i] = h
	}
	return headers
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks ';' when the first line has more semicolons than
// commas. European exports often use ';'.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// trimSpace trims surrounding whitespace and stray BOM runes from a header.
func trimSpace(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}
