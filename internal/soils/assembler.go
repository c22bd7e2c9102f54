package soils

import (
	"time"

	"go.uber.org/zap"
)

// Pipeline stage names, used in logs and metrics.
const (
	StageValidate     = "validate"
	StageUnits        = "units"
	StageInitialWater = "initial_water"
	StageRemap        = "remap"
	StageDefaults     = "defaults"
	StageSamples      = "samples"
)

// Assembler runs the normalization pipeline over one profile in place:
// units, initial water, layer remapping, defaults, then samples. The order
// is fixed; each stage depends on the ones before it.
type Assembler struct {
	units    *UnitNormalizer
	remapper *Remapper
	defaults *DefaultsEstimator
	overlay  *SampleOverlay
	logger   *zap.Logger
}

// NewAssembler creates a new profile assembler
func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		units:    NewUnitNormalizer(logger),
		remapper: NewRemapper(logger),
		defaults: NewDefaultsEstimator(logger),
		overlay:  NewSampleOverlay(logger),
		logger:   logger,
	}
}

// Normalize mutates p into a simulation-ready profile. A returned error is a
// *ConfigError and p must be discarded.
func (a *Assembler) Normalize(p *SoilProfile) error {
	samples := 0
	if p != nil {
		samples = len(p.Samples)
	}

	stages := []struct {
		name string
		run  func(*SoilProfile) error
	}{
		{StageValidate, Validate},
		{StageUnits, func(sp *SoilProfile) error { a.units.Normalize(sp); return nil }},
		{StageInitialWater, RemoveInitialWater},
		{StageRemap, a.remapper.Standardise},
		{StageDefaults, a.defaults.FillInMissingValues},
		{StageSamples, a.overlay.RemoveSamples},
	}

	for _, stage := range stages {
		start := time.Now()
		err := stage.run(p)
		observeStage(stage.name, start)
		if err != nil {
			normalizeTotal.WithLabelValues("failed").Inc()
			name := ""
			if p != nil {
				name = p.Name
			}
			a.logger.Warn("Soil profile normalization failed",
				zap.String("soil", name),
				zap.String("stage", stage.name),
				zap.Error(err))
			return err
		}
	}

	normalizeTotal.WithLabelValues("normalized").Inc()
	profileLayers.Observe(float64(len(p.Water.Thickness)))
	samplesFolded.Add(float64(samples))
	a.logger.Info("Soil profile normalized",
		zap.String("soil", p.Name),
		zap.Int("layers", len(p.Water.Thickness)),
		zap.Int("crops", len(p.Water.Crops)),
		zap.Int("samples_folded", samples))
	return nil
}
