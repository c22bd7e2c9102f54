package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter prints layer tables, one section per table
type PDFExporter struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
	started bool
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // A4, Letter, Legal
	Orientation    string     `json:"orientation"` // portrait, landscape
	Title          string     `json:"title"`
	DateFormat     string     `json:"date_format"`
	IncludeDate    bool       `json:"include_date"`
	IncludePageNum bool       `json:"include_page_num"`
	HeaderColor    PDFColor   `json:"header_color"`
	AlternateRows  bool       `json:"alternate_rows"`
	AlternateColor PDFColor   `json:"alternate_color"`
	FontFamily     string     `json:"font_family"`
	FontSize       float64    `json:"font_size"`
	HeaderFontSize float64    `json:"header_font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	Digits         int        `json:"digits"` // significant digits of numeric cells
	Margins        PDFMargins `json:"margins"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "landscape",
		DateFormat:     "2006-01-02",
		IncludeDate:    true,
		IncludePageNum: true,
		HeaderColor:    PDFColor{R: 68, G: 114, B: 196},
		AlternateRows:  true,
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		FontFamily:     "Arial",
		FontSize:       8,
		HeaderFontSize: 8,
		TitleFontSize:  14,
		Digits:         6,
		Margins: PDFMargins{
			Left:   10,
			Right:  10,
			Top:    15,
			Bottom: 15,
		},
	}
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter(options PDFOptions) *PDFExporter {
	orientation := "P"
	if options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(false, options.Margins.Bottom)

	e := &PDFExporter{
		pdf:     pdf,
		options: options,
	}
	if options.IncludePageNum {
		e.setFooter()
	}
	return e
}

// WriteTable prints the table below the previous one, breaking pages and
// repeating the header as needed. The first table starts the document with
// the title.
func (e *PDFExporter) WriteTable(t Table) error {
	if !e.started {
		e.pdf.AddPage()
		e.addTitle()
		e.started = true
	}

	widths := e.columnWidths(t)
	if e.remaining() < 24 {
		e.pdf.AddPage()
	}

	e.pdf.Ln(4)
	e.pdf.SetFont(e.options.FontFamily, "B", e.options.FontSize+2)
	e.pdf.SetTextColor(0, 0, 0)
	e.pdf.CellFormat(0, 7, t.Name, "", 1, "L", false, 0, "")

	e.addTableHeader(t.Columns, widths)
	e.pdf.SetFont(e.options.FontFamily, "", e.options.FontSize)
	for i, row := range t.Rows {
		if e.remaining() < 6 {
			e.pdf.AddPage()
			e.addTableHeader(t.Columns, widths)
			e.pdf.SetFont(e.options.FontFamily, "", e.options.FontSize)
		}

		if e.options.AlternateRows && i%2 == 1 {
			c := e.options.AlternateColor
			e.pdf.SetFillColor(c.R, c.G, c.B)
		} else {
			e.pdf.SetFillColor(255, 255, 255)
		}
		e.pdf.SetTextColor(0, 0, 0)

		for j := range widths {
			val := ""
			if j < len(row) {
				val = e.formatValue(row[j])
			}
			align := "R"
			if j == 0 {
				align = "L"
			}
			e.pdf.CellFormat(widths[j], 6, val, "1", 0, align, true, 0, "")
		}
		e.pdf.Ln(-1)
	}
	return e.pdf.Error()
}

// WriteTo writes the document to a writer
func (e *PDFExporter) WriteTo(w io.Writer) error {
	if !e.started {
		e.pdf.AddPage()
		e.addTitle()
	}
	return e.pdf.Output(w)
}

func (e *PDFExporter) remaining() float64 {
	_, pageHeight := e.pdf.GetPageSize()
	return pageHeight - e.options.Margins.Bottom - e.pdf.GetY()
}

func (e *PDFExporter) addTitle() {
	if e.options.Title != "" {
		e.pdf.SetFont(e.options.FontFamily, "B", e.options.TitleFontSize)
		e.pdf.SetTextColor(0, 0, 0)
		e.pdf.CellFormat(0, 10, e.options.Title, "", 1, "C", false, 0, "")
	}
	if e.options.IncludeDate {
		e.pdf.SetFont(e.options.FontFamily, "", e.options.FontSize)
		e.pdf.SetTextColor(128, 128, 128)
		dateStr := fmt.Sprintf("Generated: %s", time.Now().Format(e.options.DateFormat))
		e.pdf.CellFormat(0, 6, dateStr, "", 1, "R", false, 0, "")
	}
}

// columnWidths sizes columns to their widest cell, scaled down to fit the
// page.
func (e *PDFExporter) columnWidths(t Table) []float64 {
	pageWidth, _ := e.pdf.GetPageSize()
	available := pageWidth - e.options.Margins.Left - e.options.Margins.Right

	widths := make([]float64, len(t.Columns))
	e.pdf.SetFont(e.options.FontFamily, "B", e.options.HeaderFontSize)
	for i, label := range t.Columns {
		widths[i] = e.pdf.GetStringWidth(label) + 4
	}
	e.pdf.SetFont(e.options.FontFamily, "", e.options.FontSize)
	for _, row := range t.Rows {
		for i := range widths {
			if i >= len(row) {
				break
			}
			if w := e.pdf.GetStringWidth(e.formatValue(row[i])) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > available {
		scale := available / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

func (e *PDFExporter) addTableHeader(labels []string, widths []float64) {
	e.pdf.SetFont(e.options.FontFamily, "B", e.options.HeaderFontSize)
	c := e.options.HeaderColor
	e.pdf.SetFillColor(c.R, c.G, c.B)
	e.pdf.SetTextColor(255, 255, 255)

	for i, label := range labels {
		e.pdf.CellFormat(widths[i], 7, label, "1", 0, "C", true, 0, "")
	}
	e.pdf.Ln(-1)
}

func (e *PDFExporter) formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', e.options.Digits, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *PDFExporter) setFooter() {
	e.pdf.SetFooterFunc(func() {
		e.pdf.SetY(-10)
		e.pdf.SetFont(e.options.FontFamily, "", 7)
		e.pdf.SetTextColor(128, 128, 128)
		e.pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", e.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}
