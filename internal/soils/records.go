package soils

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"apsim-soils/soil-backend/pkg/workflows"
)

// ProfileStatus tracks a submitted profile through normalization.
type ProfileStatus string

const (
	StatusPending    ProfileStatus = "pending"
	StatusNormalized ProfileStatus = "normalized"
	StatusFailed     ProfileStatus = "failed"
)

// A pending profile is processed once; a processed one may be queued again.
var profileLifecycle = workflows.NewStateMachine(map[string][]string{
	string(StatusPending):    {string(StatusNormalized), string(StatusFailed)},
	string(StatusNormalized): {string(StatusPending)},
	string(StatusFailed):     {string(StatusPending)},
})

func (r *ProfileRecord) transition(to ProfileStatus) error {
	if err := profileLifecycle.Transition(string(r.Status), string(to)); err != nil {
		return err
	}
	r.Status = to
	return nil
}

// ProfileRecord is a stored soil profile: the document as submitted and,
// once processed, its normalized form or the reason it was rejected.
type ProfileRecord struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	SoilType     string         `json:"soil_type,omitempty" db:"soil_type"`
	Status       ProfileStatus  `json:"status" db:"status"`
	Raw          datatypes.JSON `json:"raw" db:"raw"`
	Normalized   datatypes.JSON `json:"normalized,omitempty" db:"normalized"`
	Error        *string        `json:"error,omitempty" db:"error"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	NormalizedAt *time.Time     `json:"normalized_at,omitempty" db:"normalized_at"`
}

// RawProfile decodes the submitted document.
func (r *ProfileRecord) RawProfile() (*SoilProfile, error) {
	return decodeDocument(r.Raw)
}

// NormalizedProfile decodes the normalized document.
func (r *ProfileRecord) NormalizedProfile() (*SoilProfile, error) {
	if r.Status != StatusNormalized || len(r.Normalized) == 0 {
		return nil, ErrProfileNotNormalized
	}
	return decodeDocument(r.Normalized)
}

func decodeDocument(doc datatypes.JSON) (*SoilProfile, error) {
	var p SoilProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return &p, nil
}

func encodeDocument(p *SoilProfile) (datatypes.JSON, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	return datatypes.JSON(data), nil
}

// ProfileFilters narrows a profile listing
type ProfileFilters struct {
	Status   *ProfileStatus
	Search   *string
	Page     int
	PageSize int
}

// ProfileListResponse is one page of stored profiles
type ProfileListResponse struct {
	Profiles   []*ProfileRecord `json:"profiles"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// BatchResult is the outcome for one profile of a batch. Exactly one of
// Profile and Error is set.
type BatchResult struct {
	Index   int          `json:"index"`
	Name    string       `json:"name"`
	Profile *SoilProfile `json:"profile,omitempty"`
	Error   *ConfigError `json:"error,omitempty"`
}

// ProcessSummary reports a pass over pending profiles
type ProcessSummary struct {
	Processed  int `json:"processed"`
	Normalized int `json:"normalized"`
	Failed     int `json:"failed"`
}

// ExportFormat of a layer table export
type ExportFormat string

const (
	ExportXLSX ExportFormat = "xlsx"
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
)

// ParseExportFormat accepts "xlsx", "csv" or "pdf"; empty means xlsx.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "", ExportXLSX:
		return ExportXLSX, nil
	case ExportCSV, ExportPDF:
		return ExportFormat(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportCSV:
		return "text/csv"
	case ExportPDF:
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// ExportResult is a rendered export, with a download URL when it was
// uploaded to object storage.
type ExportResult struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	URL         string `json:"url,omitempty"`
}
