package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/metrics"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
	"github.com/pesio-ai/be-cr-requests/internal/repository/memory"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// capturedNote is one notification seen by the capture sink.
type capturedNote struct {
	ClientID string
	Subject  string
	Message  string
}

// captureNotifier records notifications instead of delivering them.
type captureNotifier struct {
	mu    sync.Mutex
	notes []capturedNote
}

func (n *captureNotifier) Notify(_ context.Context, clientID, subject, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, capturedNote{ClientID: clientID, Subject: subject, Message: message})
}

func (n *captureNotifier) all() []capturedNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]capturedNote(nil), n.notes...)
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

// env wires the full service stack over in-memory repositories.
type env struct {
	sectors   *memory.SectorRepository
	processes *memory.ProcessRepository
	requests  *memory.RequestRepository
	clock     *fakeClock
	notifier  *captureNotifier

	requestSvc *RequestService
	routing    *RoutingService
	status     *StatusService
	sla        *SLAMonitor
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		sectors:  memory.NewSectorRepository(),
		requests: memory.NewRequestRepository(),
		clock:    newFakeClock(),
		notifier: &captureNotifier{},
	}
	e.processes = memory.NewProcessRepository(e.sectors)

	log := logger.Nop()
	collector := metrics.NewCollector()

	e.requestSvc = NewRequestService(e.requests, e.requests, e.processes, e.notifier, collector, e.clock, log)
	e.routing = NewRoutingService(e.processes, e.requests, collector, e.clock, log, RoutingConfig{
		Timeout:     45 * 24 * time.Hour,
		LimitPolicy: LimitAsMinimum,
	})
	e.status = NewStatusService(e.requests, e.processes, e.notifier, collector, e.clock, log)
	e.sla = NewSLAMonitor(e.requests, e.sectors, e.status, e.notifier, collector, e.clock, log, SLAConfig{
		OverdueAfter:  20 * 24 * time.Hour,
		WarningWindow: 24 * time.Hour,
	})
	return e
}

func (e *env) addSector(t *testing.T, name string, limit int64, slaDays int) *repository.Sector {
	t.Helper()
	sector := &repository.Sector{Name: name, HandlingLimit: limit, SLADays: slaDays}
	require.NoError(t, e.sectors.Create(context.Background(), sector))
	return sector
}

func (e *env) addProcess(t *testing.T, name string, sectorIDs ...string) *repository.Process {
	t.Helper()
	process := &repository.Process{Name: name}
	require.NoError(t, e.processes.Create(context.Background(), process, sectorIDs))
	return process
}

// link chains processes in order: each points at the following one.
func (e *env) link(t *testing.T, processes ...*repository.Process) {
	t.Helper()
	for i := 0; i < len(processes)-1; i++ {
		next := processes[i+1].ID
		require.NoError(t, e.processes.SetNextProcess(processes[i].ID, &next))
		processes[i].NextProcessID = &next
	}
}

// newRequest creates a request through the service with a valid future
// deliver date.
func (e *env) newRequest(t *testing.T, amount int64) *repository.CreditRequest {
	t.Helper()
	request, err := e.requestSvc.CreateRequest(
		context.Background(), "client-1", amount, e.clock.Now().AddDate(0, 2, 0), nil)
	require.NoError(t, err)
	return request
}

// seedRequestAt inserts a request already positioned at a process, with a
// single creation history row. Used where a scenario starts mid-flow.
func (e *env) seedRequestAt(t *testing.T, amount int64, processID *string) *repository.CreditRequest {
	t.Helper()
	now := e.clock.Now()
	request := &repository.CreditRequest{
		ClientID:         "client-1",
		Amount:           amount,
		Status:           repository.StatusPending,
		CurrentProcessID: processID,
		DeliverDate:      now.AddDate(0, 2, 0),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	entry := &repository.RequestHistoryEntry{Status: repository.StatusPending, Timestamp: now}
	require.NoError(t, e.requests.Create(context.Background(), request, entry))
	return request
}

func (e *env) history(t *testing.T, requestID string) []*repository.RequestHistoryEntry {
	t.Helper()
	entries, err := e.requests.ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	return entries
}

func (e *env) reload(t *testing.T, requestID string) *repository.CreditRequest {
	t.Helper()
	request, err := e.requests.GetByID(context.Background(), requestID)
	require.NoError(t, err)
	return request
}
