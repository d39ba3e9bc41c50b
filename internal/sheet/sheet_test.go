package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	data := strings.Join([]string{
		"name,email,password,rollNo,classroomId",
		"Asha,asha@example.com,pw-1,1,class-1",
		",,,,",
		"Ravi,ravi@example.com,pw-2,2,class-1",
		"Meera,meera@example.com,pw-3",
	}, "\n")

	rows, err := Parse("roster.csv", strings.NewReader(data))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (blank skipped), got %d", len(rows))
	}
	if rows[0]["name"] != "Asha" || rows[0]["rollNo"] != "1" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[1]["email"] != "ravi@example.com" {
		t.Fatalf("expected row order preserved, got %v", rows[1])
	}
	// Short records leave trailing columns absent.
	if _, ok := rows[2]["rollNo"]; ok {
		t.Fatalf("expected missing rollNo on short record")
	}
}

func TestParseXLSX(t *testing.T) {
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	cells := [][]interface{}{
		{"name", "email", "password", "rollNo", "classroomId"},
		{"Asha", "asha@example.com", "pw-1", 1, "class-1"},
		{"Ravi", "ravi@example.com", "pw-2", 2, "class-1"},
	}
	for i, record := range cells {
		for j, value := range record {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name error: %v", err)
			}
			if err := workbook.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell error: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		t.Fatalf("write workbook error: %v", err)
	}

	rows, err := Parse("roster.xlsx", &buf)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["rollNo"] != "1" {
		t.Fatalf("expected numeric cell as string, got %q", rows[0]["rollNo"])
	}
	if rows[1]["name"] != "Ravi" {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
}

func TestParseRejectsUnknownExtension(t *testing.T) {
	if _, err := Parse("roster.pdf", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
