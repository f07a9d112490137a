package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-cr-requests/internal/database"
	"github.com/pesio-ai/be-cr-requests/internal/errors"
)

// PostgresSectorRepository handles approving sector reference data.
type PostgresSectorRepository struct {
	db *database.DB
}

var _ SectorRepository = (*PostgresSectorRepository)(nil)

// NewPostgresSectorRepository creates a new PostgresSectorRepository.
func NewPostgresSectorRepository(db *database.DB) *PostgresSectorRepository {
	return &PostgresSectorRepository{db: db}
}

// Create inserts a sector.
func (r *PostgresSectorRepository) Create(ctx context.Context, sector *Sector) error {
	query := `
		INSERT INTO sectors (name, handling_limit, sla_days, require_all)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		sector.Name,
		sector.HandlingLimit,
		sector.SLADays,
		sector.RequireAll,
	).Scan(&sector.ID, &sector.CreatedAt, &sector.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create sector")
	}
	return nil
}

// GetByID retrieves a sector by primary key.
func (r *PostgresSectorRepository) GetByID(ctx context.Context, id string) (*Sector, error) {
	query := `
		SELECT id, name, handling_limit, sla_days, require_all, created_at, updated_at
		FROM sectors
		WHERE id = $1
	`

	sector := &Sector{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&sector.ID,
		&sector.Name,
		&sector.HandlingLimit,
		&sector.SLADays,
		&sector.RequireAll,
		&sector.CreatedAt,
		&sector.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("sector", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get sector")
	}
	return sector, nil
}

// List returns all sectors ordered by name.
func (r *PostgresSectorRepository) List(ctx context.Context) ([]*Sector, error) {
	query := `
		SELECT id, name, handling_limit, sla_days, require_all, created_at, updated_at
		FROM sectors
		ORDER BY name ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list sectors")
	}
	defer rows.Close()

	var sectors []*Sector
	for rows.Next() {
		sector := &Sector{}
		err := rows.Scan(
			&sector.ID,
			&sector.Name,
			&sector.HandlingLimit,
			&sector.SLADays,
			&sector.RequireAll,
			&sector.CreatedAt,
			&sector.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan sector")
		}
		sectors = append(sectors, sector)
	}
	return sectors, rows.Err()
}
