package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter writes layer tables to an XLSX workbook, one sheet per table
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
	sheets  map[string]bool

	headerStyle int
	numberStyle int
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	FreezeHeader bool              `json:"freeze_header"`
	NumberFormat string            `json:"number_format"`
	HeaderStyle  *ExcelStyleConfig `json:"header_style,omitempty"`
	MinWidth     float64           `json:"min_width"`
	MaxWidth     float64           `json:"max_width"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		FreezeHeader: true,
		NumberFormat: "0.000",
		MinWidth:     10,
		MaxWidth:     40,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "4472C4",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) (*ExcelExporter, error) {
	e := &ExcelExporter{
		file:    excelize.NewFile(),
		options: options,
		sheets:  make(map[string]bool),
	}

	if options.HeaderStyle != nil {
		style, err := e.createStyle(options.HeaderStyle)
		if err != nil {
			return nil, fmt.Errorf("failed to create header style: %w", err)
		}
		e.headerStyle = style
	}
	if options.NumberFormat != "" {
		format := options.NumberFormat
		style, err := e.file.NewStyle(&excelize.Style{CustomNumFmt: &format})
		if err != nil {
			return nil, fmt.Errorf("failed to create number style: %w", err)
		}
		e.numberStyle = style
	}
	return e, nil
}

// WriteTable adds the table as a new sheet. The first table replaces the
// default sheet.
func (e *ExcelExporter) WriteTable(t Table) error {
	name := e.sheetName(t.Name)
	if len(e.sheets) == 0 {
		if err := e.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	} else if _, err := e.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	e.sheets[name] = true

	widths := make([]float64, len(t.Columns))
	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(name, cell, col); err != nil {
			return fmt.Errorf("failed to set header: %w", err)
		}
		if e.headerStyle > 0 {
			e.file.SetCellStyle(name, cell, cell, e.headerStyle)
		}
		widths[i] = float64(len(col)) * 1.2
	}

	for r, row := range t.Rows {
		for i, val := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if val == nil {
				continue
			}
			if err := e.file.SetCellValue(name, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			if _, ok := val.(float64); ok && e.numberStyle > 0 && i > 1 {
				e.file.SetCellStyle(name, cell, cell, e.numberStyle)
			}
			if i < len(widths) {
				if w := float64(len(fmt.Sprint(val))) * 1.2; w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	if e.options.FreezeHeader {
		e.file.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		e.file.SetColWidth(name, col, col, e.clampWidth(w))
	}
	return nil
}

// WriteTo writes the workbook to a writer
func (e *ExcelExporter) WriteTo(w io.Writer) error {
	return e.file.Write(w)
}

// Close closes the workbook
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}

// sheetName makes a table name a valid, unique sheet name.
func (e *ExcelExporter) sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet"
	}
	if len(name) > 31 {
		name = name[:31]
	}

	unique := name
	for i := 2; e.sheets[unique]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := name
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		unique = base + suffix
	}
	return unique
}

func (e *ExcelExporter) clampWidth(w float64) float64 {
	if e.options.MinWidth > 0 && w < e.options.MinWidth {
		return e.options.MinWidth
	}
	if e.options.MaxWidth > 0 && w > e.options.MaxWidth {
		return e.options.MaxWidth
	}
	return w
}

// createStyle creates an Excel style from config
func (e *ExcelExporter) createStyle(config *ExcelStyleConfig) (int, error) {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		},
	}
	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}
	if config.Alignment != "" {
		style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
	}
	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}
	return e.file.NewStyle(style)
}
