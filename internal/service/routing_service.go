package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/metrics"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// Routing outcome labels, also used as metric values.
const (
	OutcomeTimeoutRejected  = "timeout_rejected"
	OutcomeNoSectorRejected = "no_sector_rejected"
	OutcomeFinalized        = "finalized"
	OutcomeAdvanced         = "advanced"
	OutcomeTerminalNoop     = "terminal_noop"
)

// RoutingConfig carries the routing engine tunables.
type RoutingConfig struct {
	// Timeout is the maximum age of a request before routing auto-rejects
	// it. Inclusive: a request exactly this old is timed out.
	Timeout time.Duration
	// LimitPolicy gates sector eligibility against the requested amount.
	LimitPolicy LimitPolicy
}

// RoutingService advances credit requests through the process graph: one
// step per invocation, ending in a sector assignment or a terminal status.
type RoutingService struct {
	processRepo repository.ProcessRepository
	requestRepo repository.RequestRepository
	collector   *metrics.Collector
	clock       Clock
	log         *logger.Logger
	cfg         RoutingConfig
}

// NewRoutingService creates a new RoutingService.
func NewRoutingService(
	processRepo repository.ProcessRepository,
	requestRepo repository.RequestRepository,
	collector *metrics.Collector,
	clock Clock,
	log *logger.Logger,
	cfg RoutingConfig,
) *RoutingService {
	return &RoutingService{
		processRepo: processRepo,
		requestRepo: requestRepo,
		collector:   collector,
		clock:       clock,
		log:         log,
		cfg:         cfg,
	}
}

// RouteRequest moves a request one step along the process graph. The
// outcomes are mutually exclusive per invocation: terminal no-op, timeout
// rejection, finalization at the end of the flow, rejection for lack of an
// eligible sector, or advancement with a sector assignment. Every mutating
// outcome persists the request and exactly one history row atomically.
func (s *RoutingService) RouteRequest(ctx context.Context, id string) (*repository.CreditRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Terminal statuses are immutable: routing never moves the pointer again.
	if repository.IsTerminalStatus(request.Status) {
		s.log.Debug().
			Str("request_id", request.ID).
			Str("status", request.Status).
			Msg("Routing skipped: request already terminal")
		s.collector.RecordRoutingOutcome(OutcomeTerminalNoop)
		return request, nil
	}

	now := s.clock.Now()

	if now.Sub(request.CreatedAt) >= s.cfg.Timeout {
		s.log.Warn().
			Str("request_id", request.ID).
			Time("created_at", request.CreatedAt).
			Msg("Request exceeded routing time limit, rejecting automatically")
		return s.applyTerminal(ctx, request, repository.StatusRejectedTimeout, OutcomeTimeoutRejected, now)
	}

	processes, err := s.processRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	graph := BuildProcessGraph(processes)

	var next *repository.Process
	if request.CurrentProcessID == nil {
		next = graph.EntryProcess()
	} else {
		next = graph.SuccessorOf(*request.CurrentProcessID)
	}
	if next == nil {
		// End of flow, or an unresolvable entry/successor (empty graph,
		// cycle, dangling reference) degraded to end of flow.
		s.log.Info().Str("request_id", request.ID).Msg("Request reached the end of the process flow")
		return s.applyTerminal(ctx, request, repository.StatusFinalized, OutcomeFinalized, now)
	}

	eligible := EligibleSectors(next, request.Amount, s.cfg.LimitPolicy)
	if len(eligible) == 0 {
		// The process pointer stays where it was: the request is not
		// advanced into a process no sector can handle.
		s.log.Warn().
			Str("request_id", request.ID).
			Str("process", next.Name).
			Int64("amount", request.Amount).
			Msg("No eligible sector for request")
		return s.applyTerminal(ctx, request, repository.StatusRejectedNoSector, OutcomeNoSectorRejected, now)
	}

	target := eligible[0]
	request.CurrentProcessID = &next.ID
	request.AssignedSectorID = &target.ID
	request.Status = compositeStatus(next.Name, target.Name)
	request.SLAWarnedAt = nil
	request.SLABreachedAt = nil
	request.UpdatedAt = now

	entry := &repository.RequestHistoryEntry{Status: request.Status, Timestamp: now}
	if err := s.requestRepo.UpdateState(ctx, request, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", request.ID).
		Str("process", next.Name).
		Str("sector", target.Name).
		Int("sla_days", target.SLADays).
		Msg("Request advanced to next process")
	s.collector.RecordRoutingOutcome(OutcomeAdvanced)

	return request, nil
}

// applyTerminal records a terminal routing outcome. The process pointer is
// left untouched.
func (s *RoutingService) applyTerminal(
	ctx context.Context,
	request *repository.CreditRequest,
	status, outcome string,
	now time.Time,
) (*repository.CreditRequest, error) {
	request.Status = status
	request.UpdatedAt = now

	entry := &repository.RequestHistoryEntry{Status: status, Timestamp: now}
	if err := s.requestRepo.UpdateState(ctx, request, entry); err != nil {
		return nil, err
	}
	s.collector.RecordRoutingOutcome(outcome)
	return request, nil
}

// compositeStatus encodes the pending process and sector into the display
// status. The structured fields on the request carry the same information;
// this string is never parsed back.
func compositeStatus(processName, sectorName string) string {
	return fmt.Sprintf("PENDING_%s_%s", strings.ToUpper(processName), strings.ToUpper(sectorName))
}
