package soils

import (
	"strings"

	"apsim-soils/soil-backend/pkg/mathutil"
)

// Reference data for KL estimation and predicted crops. Treat as read-only.

var defaultKLDepths = []float64{150, 300, 600, 900, 1200, 1500, 1800}

var (
	klWheat     = []float64{0.06, 0.06, 0.06, 0.04, 0.04, 0.02, 0.01}
	klSorghum   = []float64{0.07, 0.07, 0.07, 0.05, 0.05, 0.04, 0.03}
	klBarley    = []float64{0.07, 0.07, 0.07, 0.05, 0.05, 0.03, 0.02}
	klChickpea  = []float64{0.06, 0.06, 0.06, 0.06, 0.06, 0.06, 0.06}
	klMungbean  = []float64{0.06, 0.06, 0.06, 0.04, 0.04, 0.00, 0.00}
	klCotton    = []float64{0.10, 0.10, 0.10, 0.10, 0.09, 0.07, 0.05}
	klPigeonPea = []float64{0.06, 0.06, 0.06, 0.05, 0.04, 0.02, 0.01}
	klSunflower = []float64{0.10, 0.10, 0.08, 0.06, 0.04, 0.02, 0.01}
	klFababean  = []float64{0.08, 0.08, 0.08, 0.08, 0.06, 0.04, 0.03}
	klLucerne   = []float64{0.10, 0.10, 0.10, 0.10, 0.09, 0.09, 0.09}
	klTriticale = []float64{0.07, 0.07, 0.07, 0.04, 0.02, 0.01, 0.01}
)

// defaultKLs is keyed by lower-case crop name.
var defaultKLs = map[string][]float64{
	"wheat":     klWheat,
	"oats":      klWheat,
	"sorghum":   klSorghum,
	"barley":    klBarley,
	"chickpea":  klChickpea,
	"mungbean":  klMungbean,
	"cotton":    klCotton,
	"canola":    klWheat,
	"pigeonpea": klPigeonPea,
	"maize":     klWheat,
	"cowpea":    klWheat,
	"sunflower": klSunflower,
	"fababean":  klFababean,
	"lucerne":   klLucerne,
	"lupin":     klWheat,
	"lentil":    klWheat,
	"triticale": klTriticale,
	"millet":    klSorghum,
	"soybean":   klWheat,
}

// DefaultKLTable returns the generic KL row for a crop, ignoring case.
func DefaultKLTable(crop string) ([]float64, bool) {
	kl, ok := defaultKLs[strings.ToLower(crop)]
	return mathutil.Clone(kl), ok
}

// Predicted crop parameterizations for vertosols. LL is predicted from DUL
// as LL = DUL% * (A[layer] + B * DUL%) / 100 on predictedThickness.

var (
	predictedThickness = []float64{150, 150, 300, 300, 300, 300, 300}
	predictedXF        = []float64{1, 1, 1, 1, 1, 1, 1}
)

type llRegression struct {
	A  []float64
	B  float64
	KL []float64
}

type predictedCropSet struct {
	crops []string
	coeff map[string]llRegression
}

var predictedCrops = map[string]predictedCropSet{
	"black vertosol": {
		crops: []string{"Wheat", "Sorghum", "Cotton"},
		coeff: map[string]llRegression{
			"cotton":  {A: []float64{0.832, 0.868, 0.951, 0.988, 1.043, 1.095, 1.151}, B: -0.0070, KL: klCotton},
			"sorghum": {A: []float64{0.699, 0.802, 0.853, 0.907, 0.954, 1.003, 1.035}, B: -0.0038, KL: klSorghum},
			"wheat":   {A: []float64{0.124, 0.049, 0.024, 0.029, 0.146, 0.246, 0.406}, B: 0.0116, KL: klWheat},
		},
	},
	"grey vertosol": {
		crops: []string{"Wheat", "Sorghum", "Cotton", "Barley", "Chickpea", "Fababean", "Mungbean"},
		coeff: map[string]llRegression{
			"cotton":   {A: []float64{0.853, 0.851, 0.883, 0.953, 1.022, 1.125, 1.186}, B: -0.0082, KL: klCotton},
			"sorghum":  {A: []float64{0.818, 0.864, 0.882, 0.938, 1.103, 1.096, 1.172}, B: -0.007, KL: klSorghum},
			"wheat":    {A: []float64{0.660, 0.655, 0.701, 0.745, 0.845, 0.933, 1.084}, B: -0.0032, KL: klWheat},
			"barley":   {A: []float64{0.847, 0.866, 0.835, 0.872, 0.981, 1.036, 1.152}, B: -0.0051, KL: klBarley},
			"chickpea": {A: []float64{0.435, 0.452, 0.481, 0.595, 0.668, 0.737, 0.875}, B: 0.0029, KL: klChickpea},
			"fababean": {A: []float64{0.467, 0.451, 0.396, 0.336, 0.190, 0.134, 0.084}, B: 0.02455, KL: klFababean},
			"mungbean": {A: []float64{0.779, 0.770, 0.834, 0.990, 1.008, 1.144, 1.150}, B: -0.0034, KL: klMungbean},
		},
	},
}

func predictedCropsFor(soilType string) (predictedCropSet, bool) {
	set, ok := predictedCrops[strings.ToLower(strings.TrimSpace(soilType))]
	return set, ok
}
