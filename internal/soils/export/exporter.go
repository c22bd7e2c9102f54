package export

import (
	"fmt"
	"io"

	"apsim-soils/soil-backend/internal/soils"
)

// ProfileExporter renders normalized profiles in the supported formats.
type ProfileExporter struct {
	excel ExcelOptions
	csv   CSVOptions
	pdf   PDFOptions
}

// NewProfileExporter creates an exporter with the default options
func NewProfileExporter() *ProfileExporter {
	return &ProfileExporter{
		excel: DefaultExcelOptions(),
		csv:   DefaultCSVOptions(),
		pdf:   DefaultPDFOptions(),
	}
}

// Export writes an XLSX workbook of layer tables, one wide CSV table, or a
// printable PDF of the layer tables.
func (e *ProfileExporter) Export(w io.Writer, p *soils.SoilProfile, format soils.ExportFormat) error {
	switch format {
	case soils.ExportXLSX:
		return e.exportXLSX(w, p)
	case soils.ExportCSV:
		return NewCSVExporter(w, e.csv).WriteTable(WideTable(p))
	case soils.ExportPDF:
		return e.exportPDF(w, p)
	}
	return fmt.Errorf("%w: %q", soils.ErrUnsupportedFormat, format)
}

func (e *ProfileExporter) exportXLSX(w io.Writer, p *soils.SoilProfile) error {
	x, err := NewExcelExporter(e.excel)
	if err != nil {
		return err
	}
	defer x.Close()

	for _, t := range LayerTables(p) {
		if err := x.WriteTable(t); err != nil {
			return err
		}
	}
	return x.WriteTo(w)
}

func (e *ProfileExporter) exportPDF(w io.Writer, p *soils.SoilProfile) error {
	options := e.pdf
	options.Title = p.Name
	x := NewPDFExporter(options)

	for _, t := range LayerTables(p) {
		if err := x.WriteTable(t); err != nil {
			return fmt.Errorf("failed to render %s: %w", t.Name, err)
		}
	}
	return x.WriteTo(w)
}
