package repository

import "time"

// ── Request lifecycle statuses ────────────────────────────────────────────────

const (
	StatusPending     = "PENDING"
	StatusPendingDocs = "PENDING_DOCS"
	StatusChecklistOK = "CHECKLIST_OK"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"

	StatusFinalized        = "FINALIZED"
	StatusRejectedTimeout  = "REJECTED_TIMEOUT"
	StatusRejectedNoSector = "REJECTED_NO_SECTOR"
)

// IsTerminalStatus reports whether no further routing may move the request.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusFinalized, StatusApproved, StatusRejectedTimeout, StatusRejectedNoSector:
		return true
	}
	return false
}

// ── Domain types ──────────────────────────────────────────────────────────────

// Process is a named stage in the approval chain. Each process points at a
// single successor; a nil NextProcessID marks the end of the flow.
type Process struct {
	ID            string
	Name          string
	NextProcessID *string
	Sectors       []*Sector
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Sector is an approving department with a monetary authority limit and an
// SLA. HandlingLimit is in cents; how it gates eligibility depends on the
// configured limit policy. RequireAll is persisted but not consulted by
// routing (multi-sector consensus is an unimplemented extension point).
type Sector struct {
	ID            string
	Name          string
	HandlingLimit int64
	SLADays       int
	RequireAll    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreditRequest is a client's credit application moving through the process
// chain. CurrentProcessID is nil before first routing and after completion.
// AssignedSectorID carries the sector assignment as structured state; the
// composite PENDING_<PROCESS>_<SECTOR> status is display-only and never
// re-parsed. Version implements optimistic locking: every state change must
// present the version it read.
type CreditRequest struct {
	ID               string
	ClientID         string
	Amount           int64
	Status           string
	CurrentProcessID *string
	AssignedSectorID *string
	DeliverDate      time.Time
	SLAWarnedAt      *time.Time
	SLABreachedAt    *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RequestHistoryEntry is one immutable record in a request's audit trail.
// Reason is only set on rejection transitions.
type RequestHistoryEntry struct {
	ID        string
	RequestID string
	Status    string
	Reason    *string
	Timestamp time.Time
}

// Notification is a message to a client produced by routing, status
// transition and SLA events.
type Notification struct {
	ID        string
	ClientID  string
	Subject   string
	Message   string
	Read      bool
	CreatedAt time.Time
}
