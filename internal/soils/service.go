package soils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"apsim-soils/soil-backend/pkg/geospatial"
	"apsim-soils/soil-backend/pkg/mathutil"
)

// Exporter renders a normalized profile as layer tables.
type Exporter interface {
	Export(w io.Writer, p *SoilProfile, format ExportFormat) error
}

// ObjectStore receives rendered exports.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

// ServiceConfig tunes batch processing and exports
type ServiceConfig struct {
	BatchConcurrency int
	MaxBatchSize     int
	ExportPrefix     string
	URLExpiry        time.Duration
}

// Service provides soil profile normalization, storage and export
type Service struct {
	repo      Repository
	assembler *Assembler
	exporter  Exporter
	store     ObjectStore
	config    ServiceConfig
	logger    *zap.Logger
}

// NewService creates a new soils service. exporter and store may be nil.
func NewService(repo Repository, exporter Exporter, store ObjectStore, config ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 1
	}
	return &Service{
		repo:      repo,
		assembler: NewAssembler(logger),
		exporter:  exporter,
		store:     store,
		config:    config,
		logger:    logger,
	}
}

// =====================================================
// Normalization
// =====================================================

// Normalize returns a normalized copy of the profile. The input is not
// modified.
func (s *Service) Normalize(ctx context.Context, profile *SoilProfile) (*SoilProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, configErrorf("Normalize", "Soil profile is empty")
	}
	p, err := profile.Clone()
	if err != nil {
		return nil, err
	}
	if err := s.assembler.Normalize(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NormalizeBatch normalizes independent profiles concurrently. A profile
// that fails is reported in its result and does not affect the others.
// The returned error is only set for a cancelled context or an oversized
// batch.
func (s *Service) NormalizeBatch(ctx context.Context, profiles []*SoilProfile) ([]BatchResult, error) {
	if s.config.MaxBatchSize > 0 && len(profiles) > s.config.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d profiles, limit %d", ErrBatchTooLarge, len(profiles), s.config.MaxBatchSize)
	}

	results := make([]BatchResult, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchConcurrency)

	for i, profile := range profiles {
		i, profile := i, profile
		g.Go(func() error {
			result := BatchResult{Index: i}
			if profile != nil {
				result.Name = profile.Name
			}
			out, err := s.Normalize(gctx, profile)
			switch {
			case err == nil:
				result.Profile = out
			case IsConfigError(err):
				var ce *ConfigError
				errors.As(err, &ce)
				result.Error = ce
			default:
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// =====================================================
// Stored Profiles
// =====================================================

// Submit stores a profile for background normalization. Structurally
// invalid profiles are rejected up front.
func (s *Service) Submit(ctx context.Context, name string, profile *SoilProfile) (*ProfileRecord, error) {
	if profile == nil {
		return nil, configErrorf("Submit", "Soil profile is empty")
	}
	check, err := profile.Clone()
	if err != nil {
		return nil, err
	}
	if err := Validate(check); err != nil {
		return nil, err
	}

	raw, err := encodeDocument(profile)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = profile.Name
	}

	now := time.Now().UTC()
	record := &ProfileRecord{
		ID:        uuid.New(),
		Name:      name,
		SoilType:  profile.SoilType,
		Status:    StatusPending,
		Raw:       raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Soil profile submitted", zap.String("id", record.ID.String()), zap.String("name", name))
	return record, nil
}

// ProcessPending normalizes up to limit pending profiles and stores each
// result or failure.
func (s *Service) ProcessPending(ctx context.Context, limit int) (*ProcessSummary, error) {
	records, err := s.repo.GetPending(ctx, limit)
	if err != nil {
		return nil, err
	}

	summary := &ProcessSummary{}
	outcomes := make([]ProfileStatus, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchConcurrency)

	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			status, err := s.processRecord(gctx, record)
			if err != nil {
				return err
			}
			outcomes[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, status := range outcomes {
		summary.Processed++
		if status == StatusNormalized {
			summary.Normalized++
		} else {
			summary.Failed++
		}
	}
	if summary.Processed > 0 {
		s.logger.Info("Processed pending soil profiles",
			zap.Int("processed", summary.Processed),
			zap.Int("normalized", summary.Normalized),
			zap.Int("failed", summary.Failed))
	}
	return summary, nil
}

func (s *Service) processRecord(ctx context.Context, record *ProfileRecord) (ProfileStatus, error) {
	now := time.Now().UTC()

	profile, err := record.RawProfile()
	if err == nil {
		profile, err = s.Normalize(ctx, profile)
	}
	if err == nil {
		record.Normalized, err = encodeDocument(profile)
	}

	switch {
	case err == nil:
		if err := record.transition(StatusNormalized); err != nil {
			return "", err
		}
		record.Error = nil
		record.NormalizedAt = &now
	case ctx.Err() != nil:
		return "", ctx.Err()
	default:
		if err := record.transition(StatusFailed); err != nil {
			return "", err
		}
		msg := err.Error()
		record.Error = &msg
		record.Normalized = nil
		s.logger.Warn("Soil profile rejected",
			zap.String("id", record.ID.String()),
			zap.String("name", record.Name),
			zap.Error(err))
	}

	record.UpdatedAt = now
	if err := s.repo.UpdateResult(ctx, record); err != nil {
		return "", err
	}
	return record.Status, nil
}

// Reprocess queues a normalized or failed profile for normalization again,
// clearing its previous result.
func (s *Service) Reprocess(ctx context.Context, id uuid.UUID) (*ProfileRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.transition(StatusPending); err != nil {
		return nil, err
	}

	record.Normalized = nil
	record.Error = nil
	record.NormalizedAt = nil
	record.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateResult(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Soil profile queued for reprocessing", zap.String("id", id.String()))
	return record, nil
}

// Get returns a stored profile
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ProfileRecord, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of stored profiles
func (s *Service) List(ctx context.Context, filters *ProfileFilters) (*ProfileListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	records, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &ProfileListResponse{
		Profiles:   records,
		TotalCount: total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
	}, nil
}

// =====================================================
// Export
// =====================================================

// Export renders the layer tables of a normalized profile. With object
// storage configured the file is also uploaded and a download URL returned.
func (s *Service) Export(ctx context.Context, id uuid.UUID, format ExportFormat) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, fmt.Errorf("%w: exports are not configured", ErrUnsupportedFormat)
	}
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := record.NormalizedProfile()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.exporter.Export(&buf, profile, format); err != nil {
		return nil, fmt.Errorf("failed to export soil profile: %w", err)
	}

	result := &ExportResult{
		FileName:    fmt.Sprintf("%s.%s", record.ID, format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}

	if s.store != nil {
		key := s.config.ExportPrefix + result.FileName
		if err := s.store.Upload(ctx, key, bytes.NewReader(result.Data), result.ContentType); err != nil {
			return nil, err
		}
		url, err := s.store.GetPresignedURL(ctx, key, s.config.URLExpiry)
		if err != nil {
			return nil, err
		}
		result.URL = url
		s.logger.Info("Exported soil profile", zap.String("id", id.String()), zap.String("key", key))
	}
	return result, nil
}

// Site renders the location of a stored profile as a GeoJSON feature.
func (s *Service) Site(ctx context.Context, id uuid.UUID) (*geojson.Feature, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := record.NormalizedProfile()
	if errors.Is(err, ErrProfileNotNormalized) {
		profile, err = record.RawProfile()
	}
	if err != nil {
		return nil, err
	}

	point, err := geospatial.SitePoint(profile.Latitude, profile.Longitude)
	if err != nil {
		return nil, err
	}

	props := map[string]interface{}{
		"id":        record.ID.String(),
		"name":      profile.Name,
		"soil_type": profile.SoilType,
		"site":      profile.Site,
		"region":    profile.Region,
		"state":     profile.State,
		"country":   profile.Country,
		"status":    record.Status,
	}
	if record.Status == StatusNormalized && profile.Water != nil {
		if pawc := PAWC(profile); pawc != nil {
			props["pawc_mm"] = mathutil.Sum(pawc)
		}
	}
	return geospatial.SiteFeature(point, props), nil
}
