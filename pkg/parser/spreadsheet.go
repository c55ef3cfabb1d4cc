package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxXLSRows bounds legacy workbook reads; clock exports stay far below it.
const maxXLSRows = 100000

// ParseSpreadsheet reads the selected worksheet of an .xls or .xlsx workbook
// into a Table. Cells are read raw so date cells arrive as Excel serials and
// are converted by the schema layer rather than by the workbook's display
// format.
func ParseSpreadsheet(reader io.Reader, filename string, opts Options) (*Table, error) {
	rows, err := readSpreadsheetRows(reader, filename, opts.Sheet)
	if err != nil {
		return nil, err
	}
	return rowsToTable(rows, opts.HeaderRow)
}

func readSpreadsheetRows(reader io.Reader, filename, sheet string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("open xls workbook: %w", err)
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := workbook.ReadAllCells(maxXLSRows)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open xlsx workbook: %w", err)
		}
		defer func() { _ = file.Close() }()

		sheetName := sheet
		if sheetName == "" {
			sheetName = file.GetSheetName(0)
		}
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}

		rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}
