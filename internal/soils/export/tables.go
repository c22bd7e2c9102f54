package export

import (
	"fmt"
	"math"

	"apsim-soils/soil-backend/internal/soils"
	"apsim-soils/soil-backend/pkg/mathutil"
)

// Table is one sheet of an export: a header and rows of cells. A nil cell
// is an empty value.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
}

type column struct {
	name   string
	values []float64
}

// LayerTables splits a normalized profile into a summary sheet, a water
// sheet, one sheet per crop and a chemistry sheet. Every sheet shares the
// water layer structure.
func LayerTables(p *soils.SoilProfile) []Table {
	tables := []Table{summaryTable(p)}
	if p.Water == nil {
		return tables
	}
	thickness := p.Water.Thickness

	w := p.Water
	tables = append(tables, layerTable("Water", thickness, []column{
		{"BD (g/cc)", w.BD},
		{"AirDry (mm/mm)", w.AirDry},
		{"LL15 (mm/mm)", w.LL15},
		{"DUL (mm/mm)", w.DUL},
		{"SAT (mm/mm)", w.SAT},
		{"SW (mm/mm)", w.SW},
		{"KS (mm/day)", w.KS},
	}))

	for _, crop := range w.Crops {
		tables = append(tables, layerTable(crop.Name, thickness, []column{
			{"LL (mm/mm)", crop.LL},
			{"KL (/day)", crop.KL},
			{"XF (0-1)", crop.XF},
		}))
	}

	if chem := chemistryColumns(p); len(chem) > 0 {
		tables = append(tables, layerTable("Chemistry", thickness, chem))
	}
	return tables
}

// WideTable puts every per-layer quantity of a normalized profile in one
// table, crop columns prefixed with the crop name.
func WideTable(p *soils.SoilProfile) Table {
	if p.Water == nil {
		return Table{Name: p.Name, Columns: []string{"Depth (mm)"}}
	}
	w := p.Water
	cols := []column{
		{"BD", w.BD}, {"AirDry", w.AirDry}, {"LL15", w.LL15}, {"DUL", w.DUL},
		{"SAT", w.SAT}, {"SW", w.SW}, {"KS", w.KS},
	}
	for _, crop := range w.Crops {
		cols = append(cols,
			column{crop.Name + " LL", crop.LL},
			column{crop.Name + " KL", crop.KL},
			column{crop.Name + " XF", crop.XF})
	}
	cols = append(cols, chemistryColumns(p)...)

	return layerTable(p.Name, w.Thickness, cols)
}

func chemistryColumns(p *soils.SoilProfile) []column {
	var cols []column
	if om := p.SoilOrganicMatter; om != nil {
		cols = append(cols,
			column{"OC (Total %)", om.OC},
			column{"FBiom (0-1)", om.FBiom},
			column{"FInert (0-1)", om.FInert})
	}
	if n := p.Nitrogen; n != nil {
		cols = append(cols,
			column{"NO3 (ppm)", n.NO3},
			column{"NH4 (ppm)", n.NH4})
	}
	if a := p.Analysis; a != nil {
		cols = append(cols,
			column{"PH (water)", a.PH},
			column{"EC (dS/m)", a.EC},
			column{"ESP (%)", a.ESP},
			column{"CL (mg/kg)", a.CL},
			column{"CEC (cmol+/kg)", a.CEC},
			column{"Rocks (%)", a.Rocks},
			column{"Sand (%)", a.ParticleSizeSand},
			column{"Silt (%)", a.ParticleSizeSilt},
			column{"Clay (%)", a.ParticleSizeClay})
	}
	if sw := p.SoilWater; sw != nil {
		cols = append(cols, column{"SWCON (0-1)", sw.SWCON})
	}

	present := cols[:0]
	for _, c := range cols {
		if c.values != nil {
			present = append(present, c)
		}
	}
	return present
}

func layerTable(name string, thickness []float64, cols []column) Table {
	t := Table{Name: name, Columns: []string{"Depth (mm)", "Thickness (mm)"}}
	for _, c := range cols {
		if c.values != nil {
			t.Columns = append(t.Columns, c.name)
		}
	}

	top := 0.0
	for i, th := range thickness {
		row := []interface{}{fmt.Sprintf("%g-%g", top, top+th), th}
		for _, c := range cols {
			if c.values == nil {
				continue
			}
			row = append(row, cell(c.values, i))
		}
		t.Rows = append(t.Rows, row)
		top += th
	}
	return t
}

func cell(values []float64, i int) interface{} {
	if i >= len(values) || math.IsNaN(values[i]) {
		return nil
	}
	return values[i]
}

func summaryTable(p *soils.SoilProfile) Table {
	t := Table{Name: "Summary", Columns: []string{"Property", "Value"}}
	add := func(k string, v interface{}) {
		t.Rows = append(t.Rows, []interface{}{k, v})
	}
	add("Name", p.Name)
	add("Soil type", p.SoilType)
	add("Site", p.Site)
	add("Region", p.Region)
	add("State", p.State)
	add("Country", p.Country)
	add("Latitude", p.Latitude)
	add("Longitude", p.Longitude)
	add("Data source", p.DataSource)
	if p.Water != nil {
		add("Layers", len(p.Water.Thickness))
		add("Depth (mm)", mathutil.Sum(p.Water.Thickness))
		if pawc := soils.PAWC(p); pawc != nil {
			add("PAWC (mm)", mathutil.Sum(pawc))
		}
		for _, crop := range p.Water.Crops {
			add(crop.Name+" PAWC (mm)", mathutil.Sum(soils.PAWCCrop(p, crop)))
		}
	}
	return t
}
