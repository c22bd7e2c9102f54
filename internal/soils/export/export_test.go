package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"apsim-soils/soil-backend/internal/soils"
)

func normalizedProfile() *soils.SoilProfile {
	return &soils.SoilProfile{
		Name:     "Clay (Dalby)",
		SoilType: "Black Vertosol",
		Water: &soils.Water{
			Thickness: soils.Values{150, 150},
			BD:        soils.Values{1.2, 1.3},
			LL15:      soils.Values{0.2, 0.22},
			DUL:       soils.Values{0.45, 0.46},
			Crops: []*soils.SoilCrop{
				{Name: "Wheat", Thickness: soils.Values{150, 150}, LL: soils.Values{0.22, 0.24}, KL: soils.Values{0.06, 0.06}, XF: soils.Values{1, 1}},
				{Name: "Sorghum/Forage", Thickness: soils.Values{150, 150}, LL: soils.Values{0.21, 0.23}, KL: soils.Values{0.07, 0.07}, XF: soils.Values{1, 0}},
			},
		},
		Analysis: &soils.Analysis{
			Thickness: soils.Values{150, 150},
			PH:        soils.Values{7, 7.5},
			CEC:       soils.Values{40, math.NaN()},
		},
	}
}

func TestLayerTables(t *testing.T) {
	tables := LayerTables(normalizedProfile())

	require.Len(t, tables, 5)
	assert.Equal(t, "Summary", tables[0].Name)
	assert.Equal(t, "Water", tables[1].Name)
	assert.Equal(t, []string{"Depth (mm)", "Thickness (mm)", "BD (g/cc)", "LL15 (mm/mm)", "DUL (mm/mm)"}, tables[1].Columns)
	assert.Equal(t, []interface{}{"150-300", 150.0, 1.3, 0.22, 0.46}, tables[1].Rows[1])
	assert.Equal(t, "Wheat", tables[2].Name)

	chem := tables[4]
	assert.Equal(t, "Chemistry", chem.Name)
	assert.Equal(t, []string{"Depth (mm)", "Thickness (mm)", "PH (water)", "CEC (cmol+/kg)"}, chem.Columns)
	assert.Nil(t, chem.Rows[1][3])
}

func TestSummaryTable_PAWC(t *testing.T) {
	summary := LayerTables(normalizedProfile())[0]

	values := make(map[string]interface{})
	for _, row := range summary.Rows {
		values[row[0].(string)] = row[1]
	}
	assert.Equal(t, "Black Vertosol", values["Soil type"])
	assert.Equal(t, 2, values["Layers"])
	assert.InDelta(t, 0.25*150+0.24*150, values["PAWC (mm)"], 1e-9)
	assert.InDelta(t, 0.24*150, values["Sorghum/Forage PAWC (mm)"], 1e-9)
}

func TestProfileExporter_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewProfileExporter().Export(&buf, normalizedProfile(), soils.ExportXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Water", "Wheat", "Sorghum_Forage", "Chemistry"}, f.GetSheetList())

	rows, err := f.GetRows("Water")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "LL15 (mm/mm)", rows[0][3])
	assert.Equal(t, "0-150", rows[1][0])
}

func TestProfileExporter_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewProfileExporter().Export(&buf, normalizedProfile(), soils.ExportCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Wheat LL", records[0][5])
	assert.Equal(t, []string{"0-150", "150", "1.2", "0.2", "0.45", "0.22", "0.06", "1", "0.21", "0.07", "1", "7", "40"}, records[1])
	assert.Equal(t, "", records[2][12])
}

func TestProfileExporter_PDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewProfileExporter().Export(&buf, normalizedProfile(), soils.ExportPDF))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFExporter_PageBreaks(t *testing.T) {
	x := NewPDFExporter(DefaultPDFOptions())
	table := Table{Name: "Water", Columns: []string{"Depth (mm)", "Thickness (mm)", "LL15 (mm/mm)"}}
	for i := 0; i < 200; i++ {
		table.Rows = append(table.Rows, []interface{}{"0-10", 10.0, 0.123456789})
	}

	require.NoError(t, x.WriteTable(table))
	assert.Greater(t, x.pdf.PageNo(), 1)
	assert.Equal(t, "0.123457", x.formatValue(0.123456789))
	assert.Equal(t, "", x.formatValue(nil))

	var buf bytes.Buffer
	require.NoError(t, x.WriteTo(&buf))
}

func TestProfileExporter_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewProfileExporter().Export(&buf, normalizedProfile(), soils.ExportFormat("docx"))

	assert.ErrorIs(t, err, soils.ErrUnsupportedFormat)
}

func TestExcelExporter_SheetNames(t *testing.T) {
	x, err := NewExcelExporter(DefaultExcelOptions())
	require.NoError(t, err)
	defer x.Close()

	assert.Equal(t, "a_b", x.sheetName("a:b"))
	x.sheets["Wheat"] = true
	assert.Equal(t, "Wheat (2)", x.sheetName("Wheat"))
	assert.Len(t, x.sheetName("a very long crop name that cannot fit"), 31)
}
