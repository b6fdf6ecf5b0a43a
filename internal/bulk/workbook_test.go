package bulk

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// makeWorkbook builds an in-memory xlsx with a header row followed by
// the given data rows.
func makeWorkbook(t *testing.T, header []string, rows ...[]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow("Sheet1", "A1", &cells); err != nil {
		t.Fatalf("header row: %v", err)
	}
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("Sheet1", cell, &cells); err != nil {
			t.Fatalf("data row %d: %v", i, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf
}

func TestReadRows(t *testing.T) {
	buf := makeWorkbook(t,
		[]string{"Name", "EMAIL", "phone"},
		[]string{"João", "joao@example.com", "99999-0000"},
		[]string{"Maria", "maria@example.com"},
	)
	rows, err := ReadRows(buf)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Headers are matched case-insensitively.
	if rows[0]["name"] != "João" || rows[0]["email"] != "joao@example.com" {
		t.Errorf("row 0 = %v", rows[0])
	}
	// A missing trailing cell reads as empty, not absent.
	if v, ok := rows[1]["phone"]; !ok || v != "" {
		t.Errorf("missing cell = %q (present %v), want empty string", v, ok)
	}
}

func TestReadRowsBadWorkbook(t *testing.T) {
	_, err := ReadRows(strings.NewReader("this is not a workbook"))
	if !errors.Is(err, ErrBadWorkbook) {
		t.Errorf("err = %v, want ErrBadWorkbook", err)
	}
}

func TestStatusLabel(t *testing.T) {
	if statusLabel(false) != "Ativo" || statusLabel(true) != "Inativo" {
		t.Errorf("statusLabel = %q/%q", statusLabel(false), statusLabel(true))
	}
}
