// Package sheet turns uploaded spreadsheets into flat header-keyed rows
// for the bulk import endpoints.
package sheet

import (
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Parse reads an uploaded spreadsheet into ordered rows mapping column
// name to cell value. The first sheet is used, the first row is the
// header, blank rows are skipped. Numeric cells arrive as their string
// rendering.
func Parse(filename string, r io.Reader) ([]map[string]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return parseXLSX(r)
	case ".csv":
		return parseCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseXLSX(r io.Reader) ([]map[string]string, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	table, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return tableToRows(table), nil
}

func parseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	table, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return tableToRows(table), nil
}

func tableToRows(table [][]string) []map[string]string {
	rows := []map[string]string{}
	if len(table) == 0 {
		return rows
	}

	header := make([]string, len(table[0]))
	for i, name := range table[0] {
		header[i] = strings.TrimSpace(name)
	}

	for _, record := range table[1:] {
		if blank(record) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			row[name] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}
	return rows
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
