package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrMissingSource is returned when an expected input file does not exist.
var ErrMissingSource = errors.New("missing source file")

// SchemaError reports a required column absent from a source.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: missing required column %q", e.Source, e.Column)
}

// RequireColumns fails on the first required column the table lacks.
func RequireColumns(t *Table, columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return &SchemaError{Source: t.Source, Column: c}
		}
	}
	return nil
}

// Load reads a CSV or spreadsheet file from disk, choosing the reader by
// extension. A missing file wraps ErrMissingSource.
func Load(path string, opts Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var table *Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		table, err = ParseSpreadsheet(bytes.NewReader(data), path, opts)
	default:
		table, err = ParseCSV(data, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	table.Source = filepath.Base(path)
	return table, nil
}

// LoadMatching loads every file in dir whose base name matches pattern and
// concatenates them into one table. Each record gains a "filename" cell so
// rows can be traced back to their export. Zero matches wraps
// ErrMissingSource.
func LoadMatching(dir string, pattern *regexp.Regexp, opts Options) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, dir)
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && pattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no file in %s matches %s", ErrMissingSource, dir, pattern)
	}
	sort.Strings(names)

	merged := &Table{Source: filepath.Base(dir)}
	seen := make(map[string]bool)
	for _, name := range names {
		t, err := Load(filepath.Join(dir, name), opts)
		if err != nil {
			return nil, err
		}
		for _, h := range append(t.Headers, "filename") {
			if !seen[h] {
				seen[h] = true
				merged.Headers = append(merged.Headers, h)
			}
		}
		for _, rec := range t.Records {
			rec["filename"] = name
			merged.Records = append(merged.Records, rec)
		}
		merged.Warnings = append(merged.Warnings, t.Warnings...)
	}
	return merged, nil
}
