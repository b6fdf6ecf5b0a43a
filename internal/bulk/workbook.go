// Package bulk implements the spreadsheet import/export used to keep
// the user and property collections in sync with an uploaded workbook.
// Import reconciles: every record matching a spreadsheet row by natural
// key ends up active, everything else is deactivated, nothing is
// physically deleted. Export flattens each collection into one sheet.
package bulk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrBadWorkbook is returned when the uploaded file cannot be read as a
// workbook or has no header row. The whole import fails atomically in
// that case; no records are touched.
var ErrBadWorkbook = errors.New("workbook unreadable or missing header row")

// ReadRows parses the first sheet of an xlsx workbook into one field
// map per data row, keyed by the lowercased header row. Cells beyond
// the header width are dropped; missing trailing cells read as "".
func ReadRows(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ErrBadWorkbook
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrBadWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ErrBadWorkbook
	}
	if len(rows) == 0 {
		return nil, ErrBadWorkbook
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				fields[h] = strings.TrimSpace(row[i])
			} else {
				fields[h] = ""
			}
		}
		out = append(out, fields)
	}
	return out, nil
}

// writeSheet renders a single-sheet workbook with the given header and
// rows and returns the serialized xlsx bytes.
func writeSheet(sheet string, header []string, rows [][]interface{}) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf, nil
}

// statusLabel renders the lifecycle flag the way the exported
// spreadsheets show it.
func statusLabel(disabled bool) string {
	if disabled {
		return "Inativo"
	}
	return "Ativo"
}
