package soils

import (
	"encoding/json"
	"fmt"
)

// Provenance marks whether a per-layer value was measured or inferred.
type Provenance string

const (
	ProvenanceMeasured  Provenance = ""
	ProvenanceEstimated Provenance = "Estimated"
	ProvenanceMapped    Provenance = "Mapped"
)

type CarbonUnits string

const (
	CarbonTotal        CarbonUnits = "Total"
	CarbonWalkleyBlack CarbonUnits = "WalkleyBlack"
)

type NitrogenUnits string

const (
	NitrogenPPM  NitrogenUnits = "ppm"
	NitrogenKgHa NitrogenUnits = "kgha"
)

type PHUnits string

const (
	PHWater PHUnits = "Water"
	PHCaCl2 PHUnits = "CaCl2"
)

type WaterUnits string

const (
	WaterVolumetric  WaterUnits = "Volumetric"
	WaterGravimetric WaterUnits = "Gravimetric"
	WaterMM          WaterUnits = "mm"
)

type PercentMethod string

const (
	FilledFromTop     PercentMethod = "FilledFromTop"
	EvenlyDistributed PercentMethod = "EvenlyDistributed"
)

// SoilProfile is the root aggregate handed to the simulation once normalized.
type SoilProfile struct {
	Name         string  `json:"name" yaml:"name"`
	RecordNumber int     `json:"record_number,omitempty" yaml:"record_number,omitempty"`
	SoilType     string  `json:"soil_type,omitempty" yaml:"soil_type,omitempty"`
	Site         string  `json:"site,omitempty" yaml:"site,omitempty"`
	NearestTown  string  `json:"nearest_town,omitempty" yaml:"nearest_town,omitempty"`
	Region       string  `json:"region,omitempty" yaml:"region,omitempty"`
	State        string  `json:"state,omitempty" yaml:"state,omitempty"`
	Country      string  `json:"country,omitempty" yaml:"country,omitempty"`
	Latitude     float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	DataSource   string  `json:"data_source,omitempty" yaml:"data_source,omitempty"`
	Comments     string  `json:"comments,omitempty" yaml:"comments,omitempty"`

	Water             *Water             `json:"water,omitempty" yaml:"water,omitempty"`
	SoilWater         *SoilWater         `json:"soil_water,omitempty" yaml:"soil_water,omitempty"`
	SoilOrganicMatter *SoilOrganicMatter `json:"soil_organic_matter,omitempty" yaml:"soil_organic_matter,omitempty"`
	Analysis          *Analysis          `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Nitrogen          *Nitrogen          `json:"nitrogen,omitempty" yaml:"nitrogen,omitempty"`
	Phosphorus        *Phosphorus        `json:"phosphorus,omitempty" yaml:"phosphorus,omitempty"`
	SoilTemperature   *SoilTemperature   `json:"soil_temperature,omitempty" yaml:"soil_temperature,omitempty"`
	InitialWater      *InitialWater      `json:"initial_water,omitempty" yaml:"initial_water,omitempty"`
	Samples           []*Sample          `json:"samples,omitempty" yaml:"samples,omitempty"`
	LayerStructure    *LayerStructure    `json:"layer_structure,omitempty" yaml:"layer_structure,omitempty"`
}

type Water struct {
	Thickness Values `json:"thickness" yaml:"thickness"`
	BD        Values `json:"bd,omitempty" yaml:"bd,omitempty"`
	AirDry    Values `json:"air_dry,omitempty" yaml:"air_dry,omitempty"`
	LL15      Values `json:"ll15,omitempty" yaml:"ll15,omitempty"`
	DUL       Values `json:"dul,omitempty" yaml:"dul,omitempty"`
	SAT       Values `json:"sat,omitempty" yaml:"sat,omitempty"`
	SW        Values `json:"sw,omitempty" yaml:"sw,omitempty"`
	KS        Values `json:"ks,omitempty" yaml:"ks,omitempty"`

	BDMetadata     []Provenance `json:"bd_metadata,omitempty" yaml:"bd_metadata,omitempty"`
	AirDryMetadata []Provenance `json:"air_dry_metadata,omitempty" yaml:"air_dry_metadata,omitempty"`
	LL15Metadata   []Provenance `json:"ll15_metadata,omitempty" yaml:"ll15_metadata,omitempty"`
	DULMetadata    []Provenance `json:"dul_metadata,omitempty" yaml:"dul_metadata,omitempty"`
	SATMetadata    []Provenance `json:"sat_metadata,omitempty" yaml:"sat_metadata,omitempty"`
	KSMetadata     []Provenance `json:"ks_metadata,omitempty" yaml:"ks_metadata,omitempty"`

	Crops []*SoilCrop `json:"crops,omitempty" yaml:"crops,omitempty"`
}

// SoilCrop holds one crop's lower limit, extraction rate and exploration factor.
type SoilCrop struct {
	Name      string `json:"name" yaml:"name"`
	Thickness Values `json:"thickness" yaml:"thickness"`
	LL        Values `json:"ll,omitempty" yaml:"ll,omitempty"`
	KL        Values `json:"kl,omitempty" yaml:"kl,omitempty"`
	XF        Values `json:"xf,omitempty" yaml:"xf,omitempty"`

	LLMetadata []Provenance `json:"ll_metadata,omitempty" yaml:"ll_metadata,omitempty"`
	KLMetadata []Provenance `json:"kl_metadata,omitempty" yaml:"kl_metadata,omitempty"`
	XFMetadata []Provenance `json:"xf_metadata,omitempty" yaml:"xf_metadata,omitempty"`
}

type SoilWater struct {
	SummerCona  float64 `json:"summer_cona,omitempty" yaml:"summer_cona,omitempty"`
	SummerU     float64 `json:"summer_u,omitempty" yaml:"summer_u,omitempty"`
	SummerDate  string  `json:"summer_date,omitempty" yaml:"summer_date,omitempty"`
	WinterCona  float64 `json:"winter_cona,omitempty" yaml:"winter_cona,omitempty"`
	WinterU     float64 `json:"winter_u,omitempty" yaml:"winter_u,omitempty"`
	WinterDate  string  `json:"winter_date,omitempty" yaml:"winter_date,omitempty"`
	DiffusConst float64 `json:"diffus_const,omitempty" yaml:"diffus_const,omitempty"`
	DiffusSlope float64 `json:"diffus_slope,omitempty" yaml:"diffus_slope,omitempty"`
	Salb        float64 `json:"salb,omitempty" yaml:"salb,omitempty"`
	CN2Bare     float64 `json:"cn2_bare,omitempty" yaml:"cn2_bare,omitempty"`
	CNRed       float64 `json:"cn_red,omitempty" yaml:"cn_red,omitempty"`
	CNCov       float64 `json:"cn_cov,omitempty" yaml:"cn_cov,omitempty"`

	Thickness Values `json:"thickness" yaml:"thickness"`
	SWCON     Values `json:"swcon,omitempty" yaml:"swcon,omitempty"`
	MWCON     Values `json:"mwcon,omitempty" yaml:"mwcon,omitempty"`
	KLAT      Values `json:"klat,omitempty" yaml:"klat,omitempty"`
}

type SoilOrganicMatter struct {
	RootCN    float64 `json:"root_cn,omitempty" yaml:"root_cn,omitempty"`
	RootWt    float64 `json:"root_wt,omitempty" yaml:"root_wt,omitempty"`
	SoilCN    float64 `json:"soil_cn,omitempty" yaml:"soil_cn,omitempty"`
	EnrACoeff float64 `json:"enr_a_coeff,omitempty" yaml:"enr_a_coeff,omitempty"`
	EnrBCoeff float64 `json:"enr_b_coeff,omitempty" yaml:"enr_b_coeff,omitempty"`

	Thickness  Values       `json:"thickness" yaml:"thickness"`
	OC         Values       `json:"oc,omitempty" yaml:"oc,omitempty"`
	OCMetadata []Provenance `json:"oc_metadata,omitempty" yaml:"oc_metadata,omitempty"`
	FBiom      Values       `json:"fbiom,omitempty" yaml:"fbiom,omitempty"`
	FInert     Values       `json:"finert,omitempty" yaml:"finert,omitempty"`
	OCUnits    CarbonUnits  `json:"oc_units,omitempty" yaml:"oc_units,omitempty"`
}

// Analysis holds per-layer chemistry and particle size measurements.
type Analysis struct {
	Thickness     Values   `json:"thickness" yaml:"thickness"`
	Texture       []string `json:"texture,omitempty" yaml:"texture,omitempty"`
	MunsellColour []string `json:"munsell_colour,omitempty" yaml:"munsell_colour,omitempty"`

	Rocks            Values `json:"rocks,omitempty" yaml:"rocks,omitempty"`
	EC               Values `json:"ec,omitempty" yaml:"ec,omitempty"`
	PH               Values `json:"ph,omitempty" yaml:"ph,omitempty"`
	CL               Values `json:"cl,omitempty" yaml:"cl,omitempty"`
	CEC              Values `json:"cec,omitempty" yaml:"cec,omitempty"`
	Ca               Values `json:"ca,omitempty" yaml:"ca,omitempty"`
	Mg               Values `json:"mg,omitempty" yaml:"mg,omitempty"`
	Na               Values `json:"na,omitempty" yaml:"na,omitempty"`
	K                Values `json:"k,omitempty" yaml:"k,omitempty"`
	ESP              Values `json:"esp,omitempty" yaml:"esp,omitempty"`
	Mn               Values `json:"mn,omitempty" yaml:"mn,omitempty"`
	Al               Values `json:"al,omitempty" yaml:"al,omitempty"`
	ParticleSizeSand Values `json:"particle_size_sand,omitempty" yaml:"particle_size_sand,omitempty"`
	ParticleSizeSilt Values `json:"particle_size_silt,omitempty" yaml:"particle_size_silt,omitempty"`
	ParticleSizeClay Values `json:"particle_size_clay,omitempty" yaml:"particle_size_clay,omitempty"`

	RocksMetadata            []Provenance `json:"rocks_metadata,omitempty" yaml:"rocks_metadata,omitempty"`
	ECMetadata               []Provenance `json:"ec_metadata,omitempty" yaml:"ec_metadata,omitempty"`
	PHMetadata               []Provenance `json:"ph_metadata,omitempty" yaml:"ph_metadata,omitempty"`
	CLMetadata               []Provenance `json:"cl_metadata,omitempty" yaml:"cl_metadata,omitempty"`
	CECMetadata              []Provenance `json:"cec_metadata,omitempty" yaml:"cec_metadata,omitempty"`
	CaMetadata               []Provenance `json:"ca_metadata,omitempty" yaml:"ca_metadata,omitempty"`
	MgMetadata               []Provenance `json:"mg_metadata,omitempty" yaml:"mg_metadata,omitempty"`
	NaMetadata               []Provenance `json:"na_metadata,omitempty" yaml:"na_metadata,omitempty"`
	KMetadata                []Provenance `json:"k_metadata,omitempty" yaml:"k_metadata,omitempty"`
	ESPMetadata              []Provenance `json:"esp_metadata,omitempty" yaml:"esp_metadata,omitempty"`
	MnMetadata               []Provenance `json:"mn_metadata,omitempty" yaml:"mn_metadata,omitempty"`
	AlMetadata               []Provenance `json:"al_metadata,omitempty" yaml:"al_metadata,omitempty"`
	ParticleSizeSandMetadata []Provenance `json:"particle_size_sand_metadata,omitempty" yaml:"particle_size_sand_metadata,omitempty"`
	ParticleSizeSiltMetadata []Provenance `json:"particle_size_silt_metadata,omitempty" yaml:"particle_size_silt_metadata,omitempty"`
	ParticleSizeClayMetadata []Provenance `json:"particle_size_clay_metadata,omitempty" yaml:"particle_size_clay_metadata,omitempty"`

	PHUnits PHUnits `json:"ph_units,omitempty" yaml:"ph_units,omitempty"`
}

type Nitrogen struct {
	Thickness Values        `json:"thickness" yaml:"thickness"`
	NO3       Values        `json:"no3,omitempty" yaml:"no3,omitempty"`
	NH4       Values        `json:"nh4,omitempty" yaml:"nh4,omitempty"`
	NO3Units  NitrogenUnits `json:"no3_units,omitempty" yaml:"no3_units,omitempty"`
	NH4Units  NitrogenUnits `json:"nh4_units,omitempty" yaml:"nh4_units,omitempty"`
}

type Phosphorus struct {
	RootCP         float64 `json:"root_cp,omitempty" yaml:"root_cp,omitempty"`
	RateDissolRock float64 `json:"rate_dissol_rock,omitempty" yaml:"rate_dissol_rock,omitempty"`
	RateLossAvail  float64 `json:"rate_loss_avail,omitempty" yaml:"rate_loss_avail,omitempty"`
	SorptionCoeff  float64 `json:"sorption_coeff,omitempty" yaml:"sorption_coeff,omitempty"`

	Thickness Values `json:"thickness" yaml:"thickness"`
	LabileP   Values `json:"labile_p,omitempty" yaml:"labile_p,omitempty"`
	BandedP   Values `json:"banded_p,omitempty" yaml:"banded_p,omitempty"`
	RockP     Values `json:"rock_p,omitempty" yaml:"rock_p,omitempty"`
	Sorption  Values `json:"sorption,omitempty" yaml:"sorption,omitempty"`
}

type SoilTemperature struct {
	BoundaryLayerConductance float64 `json:"boundary_layer_conductance,omitempty" yaml:"boundary_layer_conductance,omitempty"`
	Thickness                Values  `json:"thickness" yaml:"thickness"`
	InitialSoilTemperature   Values  `json:"initial_soil_temperature,omitempty" yaml:"initial_soil_temperature,omitempty"`
}

// InitialWater describes how full the profile starts. It is folded into
// Water.SW and then discarded.
type InitialWater struct {
	Name          string        `json:"name,omitempty" yaml:"name,omitempty"`
	PercentMethod PercentMethod `json:"percent_method,omitempty" yaml:"percent_method,omitempty"`
	FractionFull  float64       `json:"fraction_full" yaml:"fraction_full"`
	// DepthWetSoil in mm. Nil means the fraction full is used instead.
	DepthWetSoil *float64 `json:"depth_wet_soil,omitempty" yaml:"depth_wet_soil,omitempty"`
	RelativeTo   string   `json:"relative_to,omitempty" yaml:"relative_to,omitempty"`
}

// Sample is a point-in-time, possibly partial, soil measurement.
type Sample struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
	Thickness Values `json:"thickness" yaml:"thickness"`
	NO3       Values `json:"no3,omitempty" yaml:"no3,omitempty"`
	NH4       Values `json:"nh4,omitempty" yaml:"nh4,omitempty"`
	SW        Values `json:"sw,omitempty" yaml:"sw,omitempty"`
	OC        Values `json:"oc,omitempty" yaml:"oc,omitempty"`
	EC        Values `json:"ec,omitempty" yaml:"ec,omitempty"`
	CL        Values `json:"cl,omitempty" yaml:"cl,omitempty"`
	ESP       Values `json:"esp,omitempty" yaml:"esp,omitempty"`
	PH        Values `json:"ph,omitempty" yaml:"ph,omitempty"`

	NO3Units NitrogenUnits `json:"no3_units,omitempty" yaml:"no3_units,omitempty"`
	NH4Units NitrogenUnits `json:"nh4_units,omitempty" yaml:"nh4_units,omitempty"`
	SWUnits  WaterUnits    `json:"sw_units,omitempty" yaml:"sw_units,omitempty"`
	OCUnits  CarbonUnits   `json:"oc_units,omitempty" yaml:"oc_units,omitempty"`
	PHUnits  PHUnits       `json:"ph_units,omitempty" yaml:"ph_units,omitempty"`
}

// LayerStructure overrides the target layer structure used by the remapper.
type LayerStructure struct {
	Thickness Values `json:"thickness" yaml:"thickness"`
}

// layerField pairs one per-layer array with its provenance tags.
type layerField struct {
	name     string
	values   *Values
	metadata *[]Provenance
}

func (a *Analysis) fields() []layerField {
	return []layerField{
		{"Al", &a.Al, &a.AlMetadata},
		{"Ca", &a.Ca, &a.CaMetadata},
		{"CEC", &a.CEC, &a.CECMetadata},
		{"CL", &a.CL, &a.CLMetadata},
		{"EC", &a.EC, &a.ECMetadata},
		{"ESP", &a.ESP, &a.ESPMetadata},
		{"K", &a.K, &a.KMetadata},
		{"Mg", &a.Mg, &a.MgMetadata},
		{"Mn", &a.Mn, &a.MnMetadata},
		{"Na", &a.Na, &a.NaMetadata},
		{"ParticleSizeClay", &a.ParticleSizeClay, &a.ParticleSizeClayMetadata},
		{"ParticleSizeSand", &a.ParticleSizeSand, &a.ParticleSizeSandMetadata},
		{"ParticleSizeSilt", &a.ParticleSizeSilt, &a.ParticleSizeSiltMetadata},
		{"PH", &a.PH, &a.PHMetadata},
		{"Rocks", &a.Rocks, &a.RocksMetadata},
	}
}

func (w *Water) fields() []layerField {
	return []layerField{
		{"BD", &w.BD, &w.BDMetadata},
		{"SW", &w.SW, nil},
		{"AirDry", &w.AirDry, &w.AirDryMetadata},
		{"LL15", &w.LL15, &w.LL15Metadata},
		{"DUL", &w.DUL, &w.DULMetadata},
		{"SAT", &w.SAT, &w.SATMetadata},
		{"KS", &w.KS, &w.KSMetadata},
	}
}

func (c *SoilCrop) fields() []layerField {
	return []layerField{
		{"LL", &c.LL, &c.LLMetadata},
		{"KL", &c.KL, &c.KLMetadata},
		{"XF", &c.XF, &c.XFMetadata},
	}
}

func (s *Sample) fields() []layerField {
	return []layerField{
		{"SW", &s.SW, nil},
		{"NO3", &s.NO3, nil},
		{"NH4", &s.NH4, nil},
		{"OC", &s.OC, nil},
		{"EC", &s.EC, nil},
		{"CL", &s.CL, nil},
		{"ESP", &s.ESP, nil},
		{"PH", &s.PH, nil},
	}
}

// CropNames returns the names of the water component's crops.
func (w *Water) CropNames() []string {
	names := make([]string, 0, len(w.Crops))
	for _, c := range w.Crops {
		names = append(names, c.Name)
	}
	return names
}

// Crop finds a crop by name, ignoring case.
func (w *Water) Crop(name string) *SoilCrop {
	for _, c := range w.Crops {
		if equalFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Clone returns a deep copy of the profile.
func (p *SoilProfile) Clone() (*SoilProfile, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to copy soil profile: %w", err)
	}
	var out SoilProfile
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to copy soil profile: %w", err)
	}
	return &out, nil
}

func provenanceArray(p Provenance, n int) []Provenance {
	out := make([]Provenance, n)
	for i := range out {
		out[i] = p
	}
	return out
}
