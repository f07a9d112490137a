package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pesio-ai/be-cr-requests/internal/errors"
	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/metrics"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// RequestService creates credit requests and serves the read-side queries
// around them.
type RequestService struct {
	requestRepo repository.RequestRepository
	historyRepo repository.HistoryRepository
	processRepo repository.ProcessRepository
	notifier    Notifier
	collector   *metrics.Collector
	clock       Clock
	log         *logger.Logger
}

// NewRequestService creates a new RequestService.
func NewRequestService(
	requestRepo repository.RequestRepository,
	historyRepo repository.HistoryRepository,
	processRepo repository.ProcessRepository,
	notifier Notifier,
	collector *metrics.Collector,
	clock Clock,
	log *logger.Logger,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		historyRepo: historyRepo,
		processRepo: processRepo,
		notifier:    notifier,
		collector:   collector,
		clock:       clock,
		log:         log,
	}
}

// CreateRequest validates and persists a new credit request with its first
// history row. The checklist is optional: missing items put the request in
// PENDING_DOCS and notify the client, a complete checklist starts it at
// CHECKLIST_OK, no checklist starts it at PENDING.
func (s *RequestService) CreateRequest(
	ctx context.Context,
	clientID string,
	amount int64,
	deliverDate time.Time,
	checklist []bool,
) (*repository.CreditRequest, error) {
	if clientID == "" {
		return nil, errors.InvalidInput("client_id", "must not be empty")
	}
	if amount <= 0 {
		return nil, errors.InvalidInput("amount", "must be positive")
	}

	now := s.clock.Now()
	if !deliverDate.After(now) {
		return nil, errors.InvalidInput("deliver_date", "must be in the future")
	}

	status := repository.StatusPending
	if len(checklist) > 0 {
		missing := 0
		for _, ok := range checklist {
			if !ok {
				missing++
			}
		}
		if missing > 0 {
			status = repository.StatusPendingDocs
			s.notifier.Notify(ctx, clientID,
				"Pending documentation",
				fmt.Sprintf("Your credit request has %d of %d checklist items outstanding.", missing, len(checklist)),
			)
		} else {
			status = repository.StatusChecklistOK
		}
	}

	request := &repository.CreditRequest{
		ClientID:    clientID,
		Amount:      amount,
		Status:      status,
		DeliverDate: deliverDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	entry := &repository.RequestHistoryEntry{Status: status, Timestamp: now}

	if err := s.requestRepo.Create(ctx, request, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", request.ID).
		Str("client_id", clientID).
		Int64("amount", amount).
		Str("status", status).
		Msg("Credit request created")
	s.collector.RecordRequestCreated()

	return request, nil
}

// GetRequest returns a request by id.
func (s *RequestService) GetRequest(ctx context.Context, id string) (*repository.CreditRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

// GetStatus returns a request's current status.
func (s *RequestService) GetStatus(ctx context.Context, id string) (string, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return request.Status, nil
}

// GetHistory returns a request's audit trail, oldest first.
func (s *RequestService) GetHistory(ctx context.Context, id string) ([]*repository.RequestHistoryEntry, error) {
	if _, err := s.requestRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByRequest(ctx, id)
}

// ListByClient returns a client's requests, newest first.
func (s *RequestService) ListByClient(ctx context.Context, clientID string) ([]*repository.CreditRequest, error) {
	return s.requestRepo.ListByClient(ctx, clientID)
}

// EstimatedTimeToCompletion sums the minimum sector SLA of every process
// left on the request's chain. Returns nil when the request is not routed
// into a process (not yet started, or already finished).
func (s *RequestService) EstimatedTimeToCompletion(ctx context.Context, id string) (*time.Duration, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.CurrentProcessID == nil {
		return nil, nil
	}

	processes, err := s.processRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	graph := BuildProcessGraph(processes)

	days, ok := graph.EstimatedDays(*request.CurrentProcessID)
	if !ok {
		return nil, nil
	}
	eta := time.Duration(days) * 24 * time.Hour
	return &eta, nil
}

// ProcessGraph exports the full process graph configuration.
func (s *RequestService) ProcessGraph(ctx context.Context) (*GraphView, error) {
	processes, err := s.processRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildProcessGraph(processes).View(), nil
}
