package repository

import (
	"context"
	"time"
)

// ProcessRepository provides access to the process chain definitions.
// Processes are shared reference data: mutated only by administrative setup
// and read-only from the routing engine's perspective.
type ProcessRepository interface {
	// Create inserts a process and associates it with the given sectors.
	Create(ctx context.Context, process *Process, sectorIDs []string) error
	// GetByID returns a process with its sectors loaded, name-ordered.
	GetByID(ctx context.Context, id string) (*Process, error)
	// List returns all processes with sectors loaded, ordered by name.
	List(ctx context.Context) ([]*Process, error)
}

// SectorRepository provides access to approving sectors.
type SectorRepository interface {
	Create(ctx context.Context, sector *Sector) error
	GetByID(ctx context.Context, id string) (*Sector, error)
	List(ctx context.Context) ([]*Sector, error)
}

// RequestRepository persists credit requests. Every state change writes the
// request row and exactly one history row in a single transaction.
// UpdateState enforces optimistic locking on CreditRequest.Version: a stale
// writer gets a CONFLICT error and must re-read, never silently overwrite.
type RequestRepository interface {
	// Create inserts the request together with its initial history entry.
	Create(ctx context.Context, request *CreditRequest, initial *RequestHistoryEntry) error
	GetByID(ctx context.Context, id string) (*CreditRequest, error)
	ListByClient(ctx context.Context, clientID string) ([]*CreditRequest, error)
	// UpdateState writes the request's current field values and appends the
	// history entry atomically. The write only succeeds when the stored
	// version equals request.Version; on success the version is incremented.
	UpdateState(ctx context.Context, request *CreditRequest, entry *RequestHistoryEntry) error
	// UpdateSLAMarkers persists only the SLA alert markers, version-checked,
	// without touching status, updated_at, or the history ledger.
	UpdateSLAMarkers(ctx context.Context, request *CreditRequest) error
	// ListOverdue returns requests created before cutoff whose status is not
	// in excludedStatuses.
	ListOverdue(ctx context.Context, cutoff time.Time, excludedStatuses []string) ([]*CreditRequest, error)
	// ListAwaitingApproval returns non-terminal requests currently assigned
	// to a process and sector.
	ListAwaitingApproval(ctx context.Context) ([]*CreditRequest, error)
}

// HistoryRepository reads the append-only audit trail. Appends happen inside
// the request repository's transactions; there is no mutation API.
type HistoryRepository interface {
	ListByRequest(ctx context.Context, requestID string) ([]*RequestHistoryEntry, error)
}

// NotificationRepository stores client notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	ListByClient(ctx context.Context, clientID string) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error
}
