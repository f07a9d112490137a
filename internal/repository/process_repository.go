package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-cr-requests/internal/database"
	"github.com/pesio-ai/be-cr-requests/internal/errors"
)

// PostgresProcessRepository handles process chain definitions.
type PostgresProcessRepository struct {
	db *database.DB
}

var _ ProcessRepository = (*PostgresProcessRepository)(nil)

// NewPostgresProcessRepository creates a new PostgresProcessRepository.
func NewPostgresProcessRepository(db *database.DB) *PostgresProcessRepository {
	return &PostgresProcessRepository{db: db}
}

// Create inserts the process and its sector associations in one transaction.
func (r *PostgresProcessRepository) Create(ctx context.Context, process *Process, sectorIDs []string) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO processes (name, next_process_id)
			VALUES ($1, $2)
			RETURNING id, created_at, updated_at
		`

		err := tx.QueryRow(ctx, query,
			process.Name,
			process.NextProcessID,
		).Scan(&process.ID, &process.CreatedAt, &process.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create process")
		}

		assocQuery := `
			INSERT INTO process_sectors (process_id, sector_id)
			VALUES ($1, $2)
		`
		for _, sectorID := range sectorIDs {
			if _, err := tx.Exec(ctx, assocQuery, process.ID, sectorID); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to associate sector")
			}
		}

		return nil
	})
}

// GetByID retrieves a process with its sectors loaded.
func (r *PostgresProcessRepository) GetByID(ctx context.Context, id string) (*Process, error) {
	query := `
		SELECT id, name, next_process_id, created_at, updated_at
		FROM processes
		WHERE id = $1
	`

	process := &Process{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&process.ID,
		&process.Name,
		&process.NextProcessID,
		&process.CreatedAt,
		&process.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("process", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get process")
	}

	sectors, err := r.sectorsFor(ctx, process.ID)
	if err != nil {
		return nil, err
	}
	process.Sectors = sectors
	return process, nil
}

// List returns all processes name-ordered, with sectors loaded.
func (r *PostgresProcessRepository) List(ctx context.Context) ([]*Process, error) {
	query := `
		SELECT id, name, next_process_id, created_at, updated_at
		FROM processes
		ORDER BY name ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list processes")
	}
	defer rows.Close()

	var processes []*Process
	for rows.Next() {
		process := &Process{}
		err := rows.Scan(
			&process.ID,
			&process.Name,
			&process.NextProcessID,
			&process.CreatedAt,
			&process.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan process")
		}
		processes = append(processes, process)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read processes")
	}

	for _, process := range processes {
		sectors, err := r.sectorsFor(ctx, process.ID)
		if err != nil {
			return nil, err
		}
		process.Sectors = sectors
	}
	return processes, nil
}

// sectorsFor loads a process's sectors ordered by name. Name order is the
// deterministic tie-break the routing engine relies on.
func (r *PostgresProcessRepository) sectorsFor(ctx context.Context, processID string) ([]*Sector, error) {
	query := `
		SELECT s.id, s.name, s.handling_limit, s.sla_days, s.require_all,
		       s.created_at, s.updated_at
		FROM sectors s
		JOIN process_sectors ps ON ps.sector_id = s.id
		WHERE ps.process_id = $1
		ORDER BY s.name ASC
	`

	rows, err := r.db.Query(ctx, query, processID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to load process sectors")
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
