package service

import (
	"context"
	"fmt"

	"github.com/pesio-ai/be-cr-requests/internal/errors"
	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/metrics"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// Notifier is the fire-and-forget notification sink. Implementations must
// not block on or propagate delivery failures.
type Notifier interface {
	Notify(ctx context.Context, clientID, subject, message string)
}

// StatusService applies externally requested status changes and their side
// effects on the process pointer, independent of full graph traversal.
type StatusService struct {
	requestRepo repository.RequestRepository
	processRepo repository.ProcessRepository
	notifier    Notifier
	collector   *metrics.Collector
	clock       Clock
	log         *logger.Logger
}

// NewStatusService creates a new StatusService.
func NewStatusService(
	requestRepo repository.RequestRepository,
	processRepo repository.ProcessRepository,
	notifier Notifier,
	collector *metrics.Collector,
	clock Clock,
	log *logger.Logger,
) *StatusService {
	return &StatusService{
		requestRepo: requestRepo,
		processRepo: processRepo,
		notifier:    notifier,
		collector:   collector,
		clock:       clock,
		log:         log,
	}
}

// SetStatus applies a status change to a request:
//
//   - APPROVED advances the process pointer to the current process's
//     successor with status PENDING (the next stage is entered without
//     re-resolving a sector), or terminates with status APPROVED when the
//     current process is the last one. With no current process the status
//     still becomes APPROVED; there is just nothing to advance.
//   - REJECTED keeps the pointer and records the optional reason in the
//     history row. Only this transition persists a reason.
//   - PENDING keeps the pointer and reopens the same process for retry.
//   - Anything else is stored verbatim with no pointer side effects.
//
// Every call persists the request with exactly one history row and notifies
// the owning client.
func (s *StatusService) SetStatus(ctx context.Context, id, newStatus string, reason *string) (*repository.CreditRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	previous := request.Status

	switch newStatus {
	case repository.StatusApproved:
		s.applyApproval(ctx, request)
	case repository.StatusRejected:
		request.Status = repository.StatusRejected
	case repository.StatusPending:
		request.Status = repository.StatusPending
	default:
		request.Status = newStatus
	}
	request.UpdatedAt = now

	entry := &repository.RequestHistoryEntry{Status: request.Status, Timestamp: now}
	if newStatus == repository.StatusRejected {
		entry.Reason = reason
	}
	if err := s.requestRepo.UpdateState(ctx, request, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", request.ID).
		Str("from", previous).
		Str("to", request.Status).
		Msg("Request status updated")
	s.collector.RecordStatusTransition(request.Status)

	subject := fmt.Sprintf("Status update for request #%s", request.ID)
	message := fmt.Sprintf("The status of your credit request #%s is %s.", request.ID, request.Status)
	if newStatus == repository.StatusRejected && reason != nil && *reason != "" {
		message += fmt.Sprintf(" Reason: %s", *reason)
	}
	s.notifier.Notify(ctx, request.ClientID, subject, message)

	return request, nil
}

// applyApproval moves the process pointer for an APPROVED transition.
func (s *StatusService) applyApproval(ctx context.Context, request *repository.CreditRequest) {
	if request.CurrentProcessID == nil {
		// Nothing to move; the approval itself still lands.
		s.log.Debug().Str("request_id", request.ID).Msg("Approval on finished request, no process to advance")
		request.Status = repository.StatusApproved
		return
	}

	process, err := s.processRepo.GetByID(ctx, *request.CurrentProcessID)
	if err != nil {
		if !errors.IsNotFound(err) {
			s.log.Warn().Err(err).Str("request_id", request.ID).Msg("Could not load current process, treating as last stage")
		}
		// A dangling pointer ends the flow rather than wedging the request.
		request.CurrentProcessID = nil
		request.AssignedSectorID = nil
		request.Status = repository.StatusApproved
		return
	}

	if process.NextProcessID != nil && *process.NextProcessID != process.ID {
		// Fast-path advance: enter the next stage pending, without a sector
		// assignment. Full routing re-resolves it.
		request.CurrentProcessID = process.NextProcessID
		request.AssignedSectorID = nil
		request.Status = repository.StatusPending
		return
	}

	// Last stage approved.
	request.CurrentProcessID = nil
	request.AssignedSectorID = nil
	request.Status = repository.StatusApproved
}
