package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-cr-requests/internal/database"
	"github.com/pesio-ai/be-cr-requests/internal/errors"
)

// PostgresRequestRepository persists credit requests. State changes write the
// request row and its history entry in one transaction, guarded by an
// optimistic version check.
type PostgresRequestRepository struct {
	db *database.DB
}

var _ RequestRepository = (*PostgresRequestRepository)(nil)

// NewPostgresRequestRepository creates a new PostgresRequestRepository.
func NewPostgresRequestRepository(db *database.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{db: db}
}

const requestColumns = `
	id, client_id, amount, status,
	current_process_id, assigned_sector_id,
	deliver_date, sla_warned_at, sla_breached_at,
	version, created_at, updated_at
`

// Create inserts the request together with its initial history entry.
func (r *PostgresRequestRepository) Create(ctx context.Context, request *CreditRequest, initial *RequestHistoryEntry) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO credit_requests
			    (client_id, amount, status,
			     current_process_id, assigned_sector_id,
			     deliver_date, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
			RETURNING id, version
		`

		err := tx.QueryRow(ctx, query,
			request.ClientID,
			request.Amount,
			request.Status,
			request.CurrentProcessID,
			request.AssignedSectorID,
			request.DeliverDate,
			request.CreatedAt,
			request.UpdatedAt,
		).Scan(&request.ID, &request.Version)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create credit request")
		}

		initial.RequestID = request.ID
		return appendHistory(ctx, tx, initial)
	})
}

// GetByID retrieves a request by primary key.
func (r *PostgresRequestRepository) GetByID(ctx context.Context, id string) (*CreditRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM credit_requests WHERE id = $1`, requestColumns)

	request, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("credit_request", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get credit request")
	}
	return request, nil
}

// ListByClient returns a client's requests, newest first.
func (r *PostgresRequestRepository) ListByClient(ctx context.Context, clientID string) ([]*CreditRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM credit_requests
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, requestColumns)

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list credit requests")
	}
	defer rows.Close()

	return collectRequests(rows)
}

// UpdateState writes the request's fields and appends the history entry
// atomically. Fails with CONFLICT when another writer got there first.
func (r *PostgresRequestRepository) UpdateState(ctx context.Context, request *CreditRequest, entry *RequestHistoryEntry) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE credit_requests
			SET status             = $3,
			    current_process_id = $4,
			    assigned_sector_id = $5,
			    sla_warned_at      = $6,
			    sla_breached_at    = $7,
			    version            = version + 1,
			    updated_at         = $8
			WHERE id = $1 AND version = $2
			RETURNING version
		`

		err := tx.QueryRow(ctx, query,
			request.ID,
			request.Version,
			request.Status,
			request.CurrentProcessID,
			request.AssignedSectorID,
			request.SLAWarnedAt,
			request.SLABreachedAt,
			request.UpdatedAt,
		).Scan(&request.Version)
		if err == pgx.ErrNoRows {
			return errors.Conflict(fmt.Sprintf("credit request %s was modified concurrently", request.ID))
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to update credit request")
		}

		entry.RequestID = request.ID
		return appendHistory(ctx, tx, entry)
	})
}

// UpdateSLAMarkers persists only the SLA alert markers. The version still
// guards the write, but updated_at is left alone so SLA deadlines keep their
// base.
func (r *PostgresRequestRepository) UpdateSLAMarkers(ctx context.Context, request *CreditRequest) error {
	query := `
		UPDATE credit_requests
		SET sla_warned_at   = $3,
		    sla_breached_at = $4,
		    version         = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`

	err := r.db.QueryRow(ctx, query,
		request.ID,
		request.Version,
		request.SLAWarnedAt,
		request.SLABreachedAt,
	).Scan(&request.Version)
	if err == pgx.ErrNoRows {
		return errors.Conflict(fmt.Sprintf("credit request %s was modified concurrently", request.ID))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update SLA markers")
	}
	return nil
}

// ListOverdue returns requests created before cutoff whose status is not in
// excludedStatuses.
func (r *PostgresRequestRepository) ListOverdue(ctx context.Context, cutoff time.Time, excludedStatuses []string) ([]*CreditRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM credit_requests
		WHERE created_at < $1
		  AND status != ALL($2)
		ORDER BY created_at ASC
	`, requestColumns)

	rows, err := r.db.Query(ctx, query, cutoff, excludedStatuses)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list overdue requests")
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ListAwaitingApproval returns non-terminal requests assigned to a process
// and sector.
func (r *PostgresRequestRepository) ListAwaitingApproval(ctx context.Context) ([]*CreditRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM credit_requests
		WHERE current_process_id IS NOT NULL
		  AND assigned_sector_id IS NOT NULL
		  AND status NOT IN ($1, $2, $3, $4)
		ORDER BY updated_at ASC
	`, requestColumns)

	rows, err := r.db.Query(ctx, query,
		StatusFinalized, StatusApproved, StatusRejectedTimeout, StatusRejectedNoSector)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list in-flight requests")
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type requestScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row requestScanner) (*CreditRequest, error) {
	request := &CreditRequest{}
	err := row.Scan(
		&request.ID,
		&request.ClientID,
		&request.Amount,
		&request.Status,
		&request.CurrentProcessID,
		&request.AssignedSectorID,
		&request.DeliverDate,
		&request.SLAWarnedAt,
		&request.SLABreachedAt,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func collectRequests(rows pgx.Rows) ([]*CreditRequest, error) {
	var requests []*CreditRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan credit request")
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// appendHistory inserts one audit row inside the caller's transaction. The
// table has no update or delete path; rows only go away with their request.
func appendHistory(ctx context.Context, tx pgx.Tx, entry *RequestHistoryEntry) error {
	query := `
		INSERT INTO request_history (request_id, status, reason, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := tx.QueryRow(ctx, query,
		entry.RequestID,
		entry.Status,
		entry.Reason,
		entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to append request history")
	}
	return nil
}
