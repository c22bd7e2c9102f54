package soils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines the interface for soil profile storage
type Repository interface {
	Create(ctx context.Context, record *ProfileRecord) error
	Get(ctx context.Context, id uuid.UUID) (*ProfileRecord, error)
	List(ctx context.Context, filters *ProfileFilters) ([]*ProfileRecord, int, error)
	GetPending(ctx context.Context, limit int) ([]*ProfileRecord, error)
	UpdateResult(ctx context.Context, record *ProfileRecord) error
}

// Schema creates the soil_profiles table.
const Schema = `
CREATE TABLE IF NOT EXISTS soil_profiles (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	soil_type     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	raw           JSONB NOT NULL,
	normalized    JSONB,
	error         TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	normalized_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS soil_profiles_status_created_idx ON soil_profiles (status, created_at);
`

const profileColumns = `id, name, soil_type, status, raw, normalized, error, created_at, updated_at, normalized_at`

// selectColumns reads a missing normalized document as JSON null; the
// JSON column type cannot scan SQL NULL.
const selectColumns = `id, name, soil_type, status, raw, COALESCE(normalized, 'null'::jsonb) AS normalized,
	error, created_at, updated_at, normalized_at`

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the schema if it does not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate soil_profiles: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, record *ProfileRecord) error {
	query := `
		INSERT INTO soil_profiles (` + profileColumns + `)
		VALUES (:id, :name, :soil_type, :status, :raw, :normalized, :error, :created_at, :updated_at, :normalized_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to create soil profile: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*ProfileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM soil_profiles WHERE id = $1`

	var record ProfileRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get soil profile: %w", err)
	}
	return &record, nil
}

func (r *PostgresRepository) List(ctx context.Context, filters *ProfileFilters) ([]*ProfileRecord, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filters.Status)
		argNum++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR soil_type ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+*filters.Search+"%")
		argNum++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM soil_profiles "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count soil profiles: %w", err)
	}

	offset := (filters.Page - 1) * filters.PageSize
	query := fmt.Sprintf(`SELECT %s FROM soil_profiles %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		selectColumns, where, argNum, argNum+1)
	args = append(args, filters.PageSize, offset)

	var records []*ProfileRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list soil profiles: %w", err)
	}
	return records, total, nil
}

func (r *PostgresRepository) GetPending(ctx context.Context, limit int) ([]*ProfileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM soil_profiles
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`

	var records []*ProfileRecord
	if err := r.db.SelectContext(ctx, &records, query, StatusPending, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending soil profiles: %w", err)
	}
	return records, nil
}

func (r *PostgresRepository) UpdateResult(ctx context.Context, record *ProfileRecord) error {
	query := `
		UPDATE soil_profiles
		SET status = :status, normalized = :normalized, error = :error,
			updated_at = :updated_at, normalized_at = :normalized_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("failed to update soil profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update soil profile: %w", err)
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}
