package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

func TestRouteRequestAssignsEntryProcess(t *testing.T) {
	e := newEnv(t)
	retail := e.addSector(t, "retail", 10_000_00, 3)
	analysis := e.addProcess(t, "analysis", retail.ID)

	request := e.newRequest(t, 50_000_00)

	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)

	assert.Equal(t, "PENDING_ANALYSIS_RETAIL", routed.Status)
	require.NotNil(t, routed.CurrentProcessID)
	assert.Equal(t, analysis.ID, *routed.CurrentProcessID)
	require.NotNil(t, routed.AssignedSectorID)
	assert.Equal(t, retail.ID, *routed.AssignedSectorID)

	history := e.history(t, request.ID)
	require.Len(t, history, 2)
	assert.Equal(t, repository.StatusPending, history[0].Status)
	assert.Equal(t, "PENDING_ANALYSIS_RETAIL", history[1].Status)
}

func TestRouteRequestAdvancesChainThenFinalizes(t *testing.T) {
	e := newEnv(t)
	retail := e.addSector(t, "retail", 10_000_00, 3)
	legal := e.addSector(t, "legal", 10_000_00, 7)
	analysis := e.addProcess(t, "analysis", retail.ID)
	compliance := e.addProcess(t, "compliance", legal.ID)
	e.link(t, analysis, compliance)

	request := e.newRequest(t, 50_000_00)

	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING_ANALYSIS_RETAIL", routed.Status)

	routed, err = e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING_COMPLIANCE_LEGAL", routed.Status)
	assert.Equal(t, compliance.ID, *routed.CurrentProcessID)
	assert.Equal(t, legal.ID, *routed.AssignedSectorID)

	// Past the last process the flow closes; the pointer stays on the last
	// stage for the audit trail.
	routed, err = e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusFinalized, routed.Status)
	require.NotNil(t, routed.CurrentProcessID)
	assert.Equal(t, compliance.ID, *routed.CurrentProcessID)

	require.Len(t, e.history(t, request.ID), 4)
}

func TestRouteRequestPicksFirstEligibleSectorByName(t *testing.T) {
	e := newEnv(t)
	// Both sectors eligible for the amount; "alpha" sorts first.
	beta := e.addSector(t, "beta", 5_000_00, 2)
	alpha := e.addSector(t, "alpha", 5_000_00, 9)
	e.addProcess(t, "analysis", beta.ID, alpha.ID)

	request := e.newRequest(t, 50_000_00)

	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, *routed.AssignedSectorID)
	assert.Equal(t, "PENDING_ANALYSIS_ALPHA", routed.Status)
}

func TestRouteRequestNoEligibleSector(t *testing.T) {
	e := newEnv(t)
	wholesale := e.addSector(t, "wholesale", 1_000_000_00, 5)
	e.addProcess(t, "analysis", wholesale.ID)

	request := e.newRequest(t, 50_000_00) // below every limit under the minimum policy

	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusRejectedNoSector, routed.Status)
	// The request is not advanced into a process nothing can handle.
	assert.Nil(t, routed.CurrentProcessID)
	assert.Nil(t, routed.AssignedSectorID)

	history := e.history(t, request.ID)
	require.Len(t, history, 2)
	assert.Equal(t, repository.StatusRejectedNoSector, history[1].Status)
}

func TestRouteRequestEmptyGraphFinalizes(t *testing.T) {
	e := newEnv(t)
	request := e.newRequest(t, 50_000_00)

	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusFinalized, routed.Status)
	assert.Nil(t, routed.CurrentProcessID)
}

func TestRouteRequestTimeoutBoundaryInclusive(t *testing.T) {
	e := newEnv(t)
	retail := e.addSector(t, "retail", 10_000_00, 3)
	e.addProcess(t, "analysis", retail.ID)

	request := e.newRequest(t, 50_000_00)

	// One tick short of the limit still routes normally.
	e.clock.Advance(45*24*time.Hour - time.Second)
	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING_ANALYSIS_RETAIL", routed.Status)
}

func TestRouteRequestTimeoutRejects(t *testing.T) {
	e := newEnv(t)
	retail := e.addSector(t, "retail", 10_000_00, 3)
	e.addProcess(t, "analysis", retail.ID)

	request := e.newRequest(t, 50_000_00)

	// Exactly at the limit the rejection fires, graph or no graph.
	e.clock.Advance(45 * 24 * time.Hour)
	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusRejectedTimeout, routed.Status)

	history := e.history(t, request.ID)
	require.Len(t, history, 2)
	assert.Equal(t, repository.StatusRejectedTimeout, history[1].Status)
}

func TestRouteRequestTerminalStatusIsImmutable(t *testing.T) {
	e := newEnv(t)
	retail := e.addSector(t, "retail", 10_000_00, 3)
	e.addProcess(t, "analysis", retail.ID)

	request := e.newRequest(t, 50_000_00)
	e.clock.Advance(46 * 24 * time.Hour)

	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, repository.StatusRejectedTimeout, routed.Status)
	before := e.history(t, request.ID)

	// Routing a terminal request is a no-op: same status, no new history.
	routed, err = e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusRejectedTimeout, routed.Status)
	assert.Len(t, e.history(t, request.ID), len(before))
}

func TestRouteRequestClearsSLAMarkersOnAssignment(t *testing.T) {
	e := newEnv(t)
	retail := e.addSector(t, "retail", 10_000_00, 1)
	legal := e.addSector(t, "legal", 10_000_00, 7)
	analysis := e.addProcess(t, "analysis", retail.ID)
	compliance := e.addProcess(t, "compliance", legal.ID)
	e.link(t, analysis, compliance)

	request := e.newRequest(t, 50_000_00)

	_, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)

	// Let the 1-day retail SLA lapse and record the breach marker.
	e.clock.Advance(2 * 24 * time.Hour)
	e.sla.RunDeadlineScan(context.Background())
	require.NotNil(t, e.reload(t, request.ID).SLABreachedAt)

	// Moving to the next sector starts a fresh SLA window.
	routed, err := e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, legal.ID, *routed.AssignedSectorID)
	stored := e.reload(t, request.ID)
	assert.Nil(t, stored.SLAWarnedAt)
	assert.Nil(t, stored.SLABreachedAt)
}

func TestRouteRequestNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.routing.RouteRequest(context.Background(), "missing")
	assert.Error(t, err)
}
