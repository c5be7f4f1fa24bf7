package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Roster"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType implements Renderer.
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render writes summary lines above a bold, filterable header row.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	if data.Title != "" {
		if err := f.SetCellValue(xlsxSheet, cell(1, row), data.Title); err != nil {
			return nil, err
		}
		row++
	}
	for _, line := range data.Summary {
		if err := f.SetCellValue(xlsxSheet, cell(1, row), line); err != nil {
			return nil, err
		}
		row++
	}
	if row > 1 {
		row++
	}

	headerRow := row
	for i, header := range data.Headers {
		if err := f.SetCellValue(xlsxSheet, cell(i+1, row), header); err != nil {
			return nil, err
		}
	}
	for _, values := range data.Rows {
		row++
		for i, value := range data.record(values) {
			if err := f.SetCellValue(xlsxSheet, cell(i+1, row), value); err != nil {
				return nil, err
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(xlsxSheet, cell(1, headerRow), cell(len(data.Headers), headerRow), style)
	}
	_ = f.AutoFilter(xlsxSheet, fmt.Sprintf("A%d:%s%d", headerRow, lastCol, headerRow), nil)
	_ = f.SetColWidth(xlsxSheet, "A", lastCol, 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
