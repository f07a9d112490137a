package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/metrics"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// SLA alert kinds, also used as metric values.
const (
	SLAAlertOverdueClosed = "overdue_closed"
	SLAAlertApproaching   = "approaching"
	SLAAlertBreached      = "breached"
)

// SLAConfig carries the monitor tunables.
type SLAConfig struct {
	// OverdueAfter is the request age past which the overdue scan force
	// finalizes it.
	OverdueAfter time.Duration
	// WarningWindow is how close to the sector deadline the approaching
	// alert fires.
	WarningWindow time.Duration
}

// SLAMonitor runs the periodic deadline sweeps. Both scans are idempotent:
// the overdue scan only sees non-finalized requests, and the deadline scan
// stamps one-time markers on the request, so re-running without time
// passing changes nothing. There are no per-request timers; everything is
// derived from stored state, which makes the checks crash-recoverable.
type SLAMonitor struct {
	requestRepo repository.RequestRepository
	sectorRepo  repository.SectorRepository
	status      *StatusService
	notifier    Notifier
	collector   *metrics.Collector
	clock       Clock
	log         *logger.Logger
	cfg         SLAConfig
}

// NewSLAMonitor creates a new SLAMonitor.
func NewSLAMonitor(
	requestRepo repository.RequestRepository,
	sectorRepo repository.SectorRepository,
	status *StatusService,
	notifier Notifier,
	collector *metrics.Collector,
	clock Clock,
	log *logger.Logger,
	cfg SLAConfig,
) *SLAMonitor {
	return &SLAMonitor{
		requestRepo: requestRepo,
		sectorRepo:  sectorRepo,
		status:      status,
		notifier:    notifier,
		collector:   collector,
		clock:       clock,
		log:         log,
		cfg:         cfg,
	}
}

// RunOverdueScan finalizes requests that sat unresolved past the overdue
// threshold, through the status engine's generic path, and tells the client
// why.
func (m *SLAMonitor) RunOverdueScan(ctx context.Context) {
	now := m.clock.Now()
	cutoff := now.Add(-m.cfg.OverdueAfter)

	overdue, err := m.requestRepo.ListOverdue(ctx, cutoff,
		[]string{repository.StatusFinalized, repository.StatusRejectedNoSector})
	if err != nil {
		m.log.Error().Err(err).Msg("Overdue scan: failed to list requests")
		return
	}
	if len(overdue) == 0 {
		return
	}
	m.log.Info().Int("count", len(overdue)).Msg("Overdue scan: finalizing expired requests")

	days := int(m.cfg.OverdueAfter.Hours() / 24)
	for _, request := range overdue {
		if _, err := m.status.SetStatus(ctx, request.ID, repository.StatusFinalized, nil); err != nil {
			// A concurrent writer or a lost row is fine; the next scan
			// picks the request up again if it still qualifies.
			m.log.Warn().Err(err).Str("request_id", request.ID).Msg("Overdue scan: could not finalize request")
			continue
		}
		m.notifier.Notify(ctx, request.ClientID,
			"Request finalized automatically",
			fmt.Sprintf("Your credit request #%s was finalized automatically after %d days without conclusion.", request.ID, days),
		)
		m.collector.RecordSLAAlert(SLAAlertOverdueClosed)
	}
}

// RunDeadlineScan alerts clients whose requests are close to, or past, the
// assigned sector's SLA deadline. Each alert fires once per assignment; the
// markers reset when routing assigns a new sector.
func (m *SLAMonitor) RunDeadlineScan(ctx context.Context) {
	requests, err := m.requestRepo.ListAwaitingApproval(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("Deadline scan: failed to list in-flight requests")
		return
	}

	now := m.clock.Now()
	for _, request := range requests {
		sector, err := m.sectorRepo.GetByID(ctx, *request.AssignedSectorID)
		if err != nil {
			m.log.Warn().Err(err).
				Str("request_id", request.ID).
				Str("sector_id", *request.AssignedSectorID).
				Msg("Deadline scan: assigned sector not found")
			continue
		}

		deadline := request.UpdatedAt.Add(time.Duration(sector.SLADays) * 24 * time.Hour)

		switch {
		case !now.Before(deadline):
			if request.SLABreachedAt != nil {
				continue
			}
			request.SLABreachedAt = &now
			if err := m.requestRepo.UpdateSLAMarkers(ctx, request); err != nil {
				m.log.Warn().Err(err).Str("request_id", request.ID).Msg("Deadline scan: could not record breach marker")
				continue
			}
			m.notifier.Notify(ctx, request.ClientID,
				"SLA deadline exceeded",
				fmt.Sprintf("Your credit request #%s exceeded the %d-day SLA in sector %s.", request.ID, sector.SLADays, sector.Name),
			)
			m.collector.RecordSLAAlert(SLAAlertBreached)

		case !now.Add(m.cfg.WarningWindow).Before(deadline):
			if request.SLAWarnedAt != nil {
				continue
			}
			request.SLAWarnedAt = &now
			if err := m.requestRepo.UpdateSLAMarkers(ctx, request); err != nil {
				m.log.Warn().Err(err).Str("request_id", request.ID).Msg("Deadline scan: could not record warning marker")
				continue
			}
			m.notifier.Notify(ctx, request.ClientID,
				"SLA deadline approaching",
				fmt.Sprintf("Your credit request #%s in sector %s is close to its SLA deadline.", request.ID, sector.Name),
			)
			m.collector.RecordSLAAlert(SLAAlertApproaching)
		}
	}
}

// Start runs both scans immediately and then on every tick until ctx is
// cancelled.
func (m *SLAMonitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", interval).Msg("SLA monitor started")
	for {
		m.RunOverdueScan(ctx)
		m.RunDeadlineScan(ctx)

		select {
		case <-ctx.Done():
			m.log.Info().Msg("SLA monitor stopped")
			return
		case <-ticker.C:
		}
	}
}
