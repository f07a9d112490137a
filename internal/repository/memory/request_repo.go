package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-cr-requests/internal/errors"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// RequestRepository is an in-memory credit request store. It also serves the
// read side of the history ledger, since history rows are written inside
// request state changes.
type RequestRepository struct {
	mu       sync.Mutex
	requests map[string]*repository.CreditRequest
	history  map[string][]*repository.RequestHistoryEntry
}

// NewRequestRepository creates an empty in-memory request repository.
func NewRequestRepository() *RequestRepository {
	return &RequestRepository{
		requests: make(map[string]*repository.CreditRequest),
		history:  make(map[string][]*repository.RequestHistoryEntry),
	}
}

func (r *RequestRepository) Create(_ context.Context, request *repository.CreditRequest, initial *repository.RequestHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	request.Version = 1
	r.requests[request.ID] = cloneRequest(request)

	initial.RequestID = request.ID
	r.appendHistoryLocked(initial)
	return nil
}

func (r *RequestRepository) GetByID(_ context.Context, id string) (*repository.CreditRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, errors.NotFound("credit_request", id)
	}
	return cloneRequest(request), nil
}

func (r *RequestRepository) ListByClient(_ context.Context, clientID string) ([]*repository.CreditRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var requests []*repository.CreditRequest
	for _, request := range r.requests {
		if request.ClientID == clientID {
			requests = append(requests, cloneRequest(request))
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
	return requests, nil
}

func (r *RequestRepository) UpdateState(_ context.Context, request *repository.CreditRequest, entry *repository.RequestHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[request.ID]
	if !ok {
		return errors.NotFound("credit_request", request.ID)
	}
	if stored.Version != request.Version {
		return errors.Conflict(fmt.Sprintf("credit request %s was modified concurrently", request.ID))
	}

	request.Version++
	r.requests[request.ID] = cloneRequest(request)

	entry.RequestID = request.ID
	r.appendHistoryLocked(entry)
	return nil
}

func (r *RequestRepository) UpdateSLAMarkers(_ context.Context, request *repository.CreditRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[request.ID]
	if !ok {
		return errors.NotFound("credit_request", request.ID)
	}
	if stored.Version != request.Version {
		return errors.Conflict(fmt.Sprintf("credit request %s was modified concurrently", request.ID))
	}

	stored.SLAWarnedAt = cloneTime(request.SLAWarnedAt)
	stored.SLABreachedAt = cloneTime(request.SLABreachedAt)
	stored.Version++
	request.Version = stored.Version
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (r *RequestRepository) ListOverdue(_ context.Context, cutoff time.Time, excludedStatuses []string) ([]*repository.CreditRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	excluded := make(map[string]bool, len(excludedStatuses))
	for _, status := range excludedStatuses {
		excluded[status] = true
	}

	var requests []*repository.CreditRequest
	for _, request := range r.requests {
		if request.CreatedAt.Before(cutoff) && !excluded[request.Status] {
			requests = append(requests, cloneRequest(request))
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.Before(requests[j].CreatedAt) })
	return requests, nil
}

func (r *RequestRepository) ListAwaitingApproval(_ context.Context) ([]*repository.CreditRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var requests []*repository.CreditRequest
	for _, request := range r.requests {
		if request.CurrentProcessID != nil && request.AssignedSectorID != nil &&
			!repository.IsTerminalStatus(request.Status) {
			requests = append(requests, cloneRequest(request))
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].UpdatedAt.Before(requests[j].UpdatedAt) })
	return requests, nil
}

func (r *RequestRepository) ListByRequest(_ context.Context, requestID string) ([]*repository.RequestHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.history[requestID]
	out := make([]*repository.RequestHistoryEntry, len(entries))
	for i, entry := range entries {
		clone := *entry
		out[i] = &clone
	}
	return out, nil
}

func (r *RequestRepository) appendHistoryLocked(entry *repository.RequestHistoryEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	clone := *entry
	r.history[entry.RequestID] = append(r.history[entry.RequestID], &clone)
}

func cloneRequest(request *repository.CreditRequest) *repository.CreditRequest {
	out := *request
	if request.CurrentProcessID != nil {
		v := *request.CurrentProcessID
		out.CurrentProcessID = &v
	}
	if request.AssignedSectorID != nil {
		v := *request.AssignedSectorID
		out.AssignedSectorID = &v
	}
	if request.SLAWarnedAt != nil {
		v := *request.SLAWarnedAt
		out.SLAWarnedAt = &v
	}
	if request.SLABreachedAt != nil {
		v := *request.SLABreachedAt
		out.SLABreachedAt = &v
	}
	return &out
}
