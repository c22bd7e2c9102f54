package soils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"apsim-soils/soil-backend/pkg/geospatial"
	"apsim-soils/soil-backend/pkg/storage"
	"apsim-soils/soil-backend/pkg/workflows"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, record *ProfileRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository) Get(ctx context.Context, id uuid.UUID) (*ProfileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProfileRecord), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filters *ProfileFilters) ([]*ProfileRecord, int, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*ProfileRecord), args.Int(1), args.Error(2)
}

func (m *MockRepository) GetPending(ctx context.Context, limit int) ([]*ProfileRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*ProfileRecord), args.Error(1)
}

func (m *MockRepository) UpdateResult(ctx context.Context, record *ProfileRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type stubExporter struct{}

func (stubExporter) Export(w io.Writer, p *SoilProfile, format ExportFormat) error {
	if format != ExportXLSX && format != ExportCSV {
		return ErrUnsupportedFormat
	}
	_, err := fmt.Fprintf(w, "%s:%s", format, p.Name)
	return err
}

func newTestService(repo Repository) *Service {
	return NewService(repo, stubExporter{}, nil, ServiceConfig{BatchConcurrency: 4, MaxBatchSize: 3}, zap.NewNop())
}

func unnamedCropProfile() *SoilProfile {
	p := fullProfile()
	p.Water.Crops[0].Name = ""
	return p
}

func rawRecord(t *testing.T, p *SoilProfile) *ProfileRecord {
	raw, err := encodeDocument(p)
	require.NoError(t, err)
	return &ProfileRecord{ID: uuid.New(), Name: p.Name, Status: StatusPending, Raw: raw}
}

func normalizedRecord(t *testing.T) *ProfileRecord {
	p := fullProfile()
	require.NoError(t, NewAssembler(zap.NewNop()).Normalize(p))
	doc, err := encodeDocument(p)
	require.NoError(t, err)
	record := rawRecord(t, fullProfile())
	record.Status = StatusNormalized
	record.Normalized = doc
	return record
}

func TestService_Normalize_LeavesInputUnchanged(t *testing.T) {
	service := newTestService(nil)
	in := fullProfile()

	out, err := service.Normalize(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, fullProfile(), in)
	assert.Equal(t, Values{200, 200}, out.Water.Thickness)
	assert.Nil(t, out.Samples)
}

func TestService_Normalize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(nil).Normalize(ctx, fullProfile())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_NormalizeBatch(t *testing.T) {
	service := newTestService(nil)

	results, err := service.NormalizeBatch(context.Background(), []*SoilProfile{fullProfile(), unnamedCropProfile(), nil})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Index)
	assert.NotNil(t, results[0].Profile)
	assert.Nil(t, results[0].Error)

	assert.Equal(t, 1, results[1].Index)
	assert.Nil(t, results[1].Profile)
	require.NotNil(t, results[1].Error)
	assert.Equal(t, "Crop has no name", results[1].Error.Msg)

	require.NotNil(t, results[2].Error)
	assert.Equal(t, "Soil profile is empty", results[2].Error.Msg)
}

func TestService_NormalizeBatch_TooLarge(t *testing.T) {
	service := newTestService(nil)
	profiles := []*SoilProfile{fullProfile(), fullProfile(), fullProfile(), fullProfile()}

	_, err := service.NormalizeBatch(context.Background(), profiles)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestService_Submit(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*soils.ProfileRecord")).Return(nil)

	record, err := service.Submit(ctx, "", fullProfile())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, "Loam (Dalby No123)", record.Name)
	assert.Equal(t, StatusPending, record.Status)
	assert.Nil(t, record.Normalized)

	raw, err := record.RawProfile()
	require.NoError(t, err)
	assert.Equal(t, Values{100, 100, 200}, raw.Water.Thickness)
	mockRepo.AssertExpectations(t)
}

func TestService_Submit_RejectsInvalidProfile(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	p := fullProfile()
	p.Water.DUL = Values{0.35}

	_, err := service.Submit(context.Background(), "bad", p)
	assert.True(t, IsConfigError(err))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_ProcessPending(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	good := rawRecord(t, fullProfile())
	bad := rawRecord(t, unnamedCropProfile())

	mockRepo.On("GetPending", ctx, 10).Return([]*ProfileRecord{good, bad}, nil)
	mockRepo.On("UpdateResult", mock.Anything, mock.AnythingOfType("*soils.ProfileRecord")).Return(nil)

	summary, err := service.ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, &ProcessSummary{Processed: 2, Normalized: 1, Failed: 1}, summary)

	assert.Equal(t, StatusNormalized, good.Status)
	assert.NotNil(t, good.NormalizedAt)
	assert.Nil(t, good.Error)
	normalized, err := good.NormalizedProfile()
	require.NoError(t, err)
	assert.Equal(t, Values{200, 200}, normalized.Water.Thickness)

	assert.Equal(t, StatusFailed, bad.Status)
	require.NotNil(t, bad.Error)
	assert.Equal(t, "Crop has no name", *bad.Error)
	assert.Nil(t, bad.Normalized)

	mockRepo.AssertNumberOfCalls(t, "UpdateResult", 2)
}

func TestService_ProcessPending_UpdateFails(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetPending", ctx, 5).Return([]*ProfileRecord{rawRecord(t, fullProfile())}, nil)
	mockRepo.On("UpdateResult", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := service.ProcessPending(ctx, 5)
	assert.EqualError(t, err, "connection reset")
}

func TestService_List_Defaults(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	filters := &ProfileFilters{Page: 0, PageSize: 500}
	mockRepo.On("List", ctx, filters).Return([]*ProfileRecord{}, 42, nil)

	resp, err := service.List(ctx, filters)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
	assert.Equal(t, 42, resp.TotalCount)
}

func TestService_Export(t *testing.T) {
	mockRepo := new(MockRepository)
	store := storage.NewMemoryClient()
	service := NewService(mockRepo, stubExporter{}, store, ServiceConfig{ExportPrefix: "exports/"}, zap.NewNop())
	ctx := context.Background()

	record := normalizedRecord(t)
	mockRepo.On("Get", ctx, record.ID).Return(record, nil)

	result, err := service.Export(ctx, record.ID, ExportCSV)
	require.NoError(t, err)

	assert.Equal(t, record.ID.String()+".csv", result.FileName)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "csv:Loam (Dalby No123)", string(result.Data))
	assert.Contains(t, result.URL, "exports/"+result.FileName)
	assert.Equal(t, "text/csv", store.ContentType("exports/"+result.FileName))
}

func TestService_Export_NotNormalized(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	record := rawRecord(t, fullProfile())
	mockRepo.On("Get", ctx, record.ID).Return(record, nil)

	_, err := service.Export(ctx, record.ID, ExportXLSX)
	assert.ErrorIs(t, err, ErrProfileNotNormalized)
}

func TestService_Export_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()
	id := uuid.New()

	mockRepo.On("Get", ctx, id).Return(nil, ErrProfileNotFound)

	_, err := service.Export(ctx, id, ExportXLSX)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestService_Site(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	p := fullProfile()
	p.Latitude, p.Longitude = -27.18, 151.26
	record := rawRecord(t, p)
	mockRepo.On("Get", ctx, record.ID).Return(record, nil)

	feature, err := service.Site(ctx, record.ID)
	require.NoError(t, err)

	assert.InDelta(t, 151.26, feature.Geometry.Bound().Min[0], 1e-9)
	assert.InDelta(t, -27.18, feature.Geometry.Bound().Min[1], 1e-9)
	assert.Equal(t, "Loam", feature.Properties["soil_type"])
	assert.NotContains(t, feature.Properties, "pawc_mm")
}

func TestService_Site_NoLocation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	record := normalizedRecord(t)
	mockRepo.On("Get", ctx, record.ID).Return(record, nil)

	_, err := service.Site(ctx, record.ID)
	assert.ErrorIs(t, err, geospatial.ErrNoLocation)
}

func TestService_Reprocess(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	record := normalizedRecord(t)
	mockRepo.On("Get", ctx, record.ID).Return(record, nil)
	mockRepo.On("UpdateResult", ctx, record).Return(nil)

	out, err := service.Reprocess(ctx, record.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, out.Status)
	assert.Nil(t, out.Normalized)
	assert.Nil(t, out.NormalizedAt)
	mockRepo.AssertExpectations(t)
}

func TestService_Reprocess_AlreadyPending(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	record := rawRecord(t, fullProfile())
	mockRepo.On("Get", ctx, record.ID).Return(record, nil)

	_, err := service.Reprocess(ctx, record.ID)
	assert.ErrorIs(t, err, workflows.ErrInvalidTransition)
	mockRepo.AssertNotCalled(t, "UpdateResult", mock.Anything, mock.Anything)
}
