// Package documents renders exchange paperwork (agreements, waybills, acts,
// invoices) as .xlsx workbooks.
package documents

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Document"

// Field is one labelled value in the document header block.
type Field struct {
	Label string
	Value string
}

// Table is an optional line-item block below the header.
type Table struct {
	Columns []string
	Rows    [][]string
}

type Sheet struct {
	Title  string
	Fields []Field
	Table  *Table
}

// Render lays out the sheet: the title on the first row, label/value pairs
// below it, then the table with a bold header.
func Render(s Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}

	if err := f.SetCellValue(sheetName, "A1", s.Title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", title); err != nil {
		return nil, err
	}

	row := 3
	for _, field := range s.Fields {
		if err := setRow(f, row, []string{field.Label, field.Value}); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell(1, row), cell(1, row), bold); err != nil {
			return nil, err
		}
		row++
	}

	if s.Table != nil && len(s.Table.Columns) > 0 {
		row++
		if err := setRow(f, row, s.Table.Columns); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell(1, row), cell(len(s.Table.Columns), row), bold); err != nil {
			return nil, err
		}
		for _, r := range s.Table.Rows {
			row++
			if err := setRow(f, row, r); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 32); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheetName, cell(1, row), &cells)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
