package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-cr-requests/internal/errors"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

func TestCreateRequestValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	future := e.clock.Now().AddDate(0, 1, 0)

	_, err := e.requestSvc.CreateRequest(ctx, "", 50_000_00, future, nil)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))

	_, err = e.requestSvc.CreateRequest(ctx, "client-1", 0, future, nil)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))

	_, err = e.requestSvc.CreateRequest(ctx, "client-1", -10_00, future, nil)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))

	_, err = e.requestSvc.CreateRequest(ctx, "client-1", 50_000_00, e.clock.Now(), nil)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))

	_, err = e.requestSvc.CreateRequest(ctx, "client-1", 50_000_00, e.clock.Now().AddDate(0, 0, -1), nil)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestCreateRequestStartsPending(t *testing.T) {
	e := newEnv(t)

	request := e.newRequest(t, 50_000_00)
	assert.Equal(t, repository.StatusPending, request.Status)
	assert.Nil(t, request.CurrentProcessID)
	assert.NotEmpty(t, request.ID)

	history := e.history(t, request.ID)
	require.Len(t, history, 1)
	assert.Equal(t, repository.StatusPending, history[0].Status)
	assert.Zero(t, e.notifier.count())
}

func TestCreateRequestIncompleteChecklist(t *testing.T) {
	e := newEnv(t)

	request, err := e.requestSvc.CreateRequest(context.Background(),
		"client-1", 50_000_00, e.clock.Now().AddDate(0, 1, 0), []bool{true, false, false})
	require.NoError(t, err)
	assert.Equal(t, repository.StatusPendingDocs, request.Status)

	notes := e.notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "Pending documentation", notes[0].Subject)
	assert.Contains(t, notes[0].Message, "2 of 3")
}

func TestCreateRequestCompleteChecklist(t *testing.T) {
	e := newEnv(t)

	request, err := e.requestSvc.CreateRequest(context.Background(),
		"client-1", 50_000_00, e.clock.Now().AddDate(0, 1, 0), []bool{true, true})
	require.NoError(t, err)
	assert.Equal(t, repository.StatusChecklistOK, request.Status)
	assert.Zero(t, e.notifier.count())
}

func TestGetStatusAndHistory(t *testing.T) {
	e := newEnv(t)
	request := e.newRequest(t, 50_000_00)

	status, err := e.requestSvc.GetStatus(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusPending, status)

	history, err := e.requestSvc.GetHistory(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = e.requestSvc.GetStatus(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
	_, err = e.requestSvc.GetHistory(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestListByClient(t *testing.T) {
	e := newEnv(t)
	first := e.newRequest(t, 10_000_00)
	e.clock.Advance(time.Hour)
	second := e.newRequest(t, 20_000_00)

	requests, err := e.requestSvc.ListByClient(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, requests, 2)
	// Newest first.
	assert.Equal(t, second.ID, requests[0].ID)
	assert.Equal(t, first.ID, requests[1].ID)

	requests, err = e.requestSvc.ListByClient(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestEstimatedTimeToCompletion(t *testing.T) {
	e := newEnv(t)
	retail := e.addSector(t, "retail", 10_000_00, 3)
	legal := e.addSector(t, "legal", 10_000_00, 7)
	analysis := e.addProcess(t, "analysis", retail.ID)
	compliance := e.addProcess(t, "compliance", legal.ID)
	e.link(t, analysis, compliance)

	request := e.newRequest(t, 50_000_00)

	// Not routed yet: no estimate.
	eta, err := e.requestSvc.EstimatedTimeToCompletion(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Nil(t, eta)

	_, err = e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)

	eta, err = e.requestSvc.EstimatedTimeToCompletion(context.Background(), request.ID)
	require.NoError(t, err)
	require.NotNil(t, eta)
	assert.Equal(t, time.Duration(3+7)*24*time.Hour, *eta)

	_, err = e.routing.RouteRequest(context.Background(), request.ID)
	require.NoError(t, err)

	eta, err = e.requestSvc.EstimatedTimeToCompletion(context.Background(), request.ID)
	require.NoError(t, err)
	require.NotNil(t, eta)
	assert.Equal(t, time.Duration(7)*24*time.Hour, *eta)
}

func TestProcessGraphExport(t *testing.T) {
	e := newEnv(t)
	retail := e.addSector(t, "retail", 10_000_00, 3)
	analysis := e.addProcess(t, "analysis", retail.ID)
	compliance := e.addProcess(t, "compliance")
	e.link(t, analysis, compliance)

	view, err := e.requestSvc.ProcessGraph(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Nodes, 2)
	assert.Equal(t, "analysis", view.Nodes[0].Name)
	assert.Equal(t, []string{"retail"}, view.Nodes[0].Sectors)
	require.Len(t, view.Edges, 1)
	assert.Equal(t, analysis.ID, view.Edges[0].From)
	assert.Equal(t, compliance.ID, view.Edges[0].To)
}
