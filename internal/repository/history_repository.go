package repository

import (
	"context"

	"github.com/pesio-ai/be-cr-requests/internal/database"
	"github.com/pesio-ai/be-cr-requests/internal/errors"
)

// PostgresHistoryRepository reads the append-only request audit trail.
// Writes happen inside the request repository's transactions.
type PostgresHistoryRepository struct {
	db *database.DB
}

var _ HistoryRepository = (*PostgresHistoryRepository)(nil)

// NewPostgresHistoryRepository creates a new PostgresHistoryRepository.
func NewPostgresHistoryRepository(db *database.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

// ListByRequest returns a request's history ordered oldest-first. seq is the
// table's insertion sequence; it breaks ties between rows written in the
// same clock instant, which UUID ids cannot.
func (r *PostgresHistoryRepository) ListByRequest(ctx context.Context, requestID string) ([]*RequestHistoryEntry, error) {
	query := `
		SELECT id, request_id, status, reason, timestamp
		FROM request_history
		WHERE request_id = $1
		ORDER BY timestamp ASC, seq ASC
	`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list request history")
	}
	defer rows.Close()

	var entries []*RequestHistoryEntry
	for rows.Next() {
		entry := &RequestHistoryEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Status,
			&entry.Reason,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan history entry")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
