package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/models"
	"github.com/aigym/analytics-api/pkg/clock"
)

func TestLogStartScopes(t *testing.T) {
	repo := &mockLogRepo{}
	svc := NewComputationLogService(repo, clock.Fixed(time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC)), zap.NewNop())

	cases := []struct {
		name     string
		clientID string
		userID   string
		scope    string
		scopeID  string
	}{
		{name: "global", scope: "global"},
		{name: "client", clientID: "c1", scope: "client", scopeID: "c1"},
		{name: "user wins over client", clientID: "c1", userID: "u1", scope: "user", scopeID: "u1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo.created = nil
			id := svc.Start(context.Background(), models.ComputationDaily, tc.clientID, tc.userID)
			assert.Equal(t, "log-1", id)

			require.Len(t, repo.created, 1)
			entry := repo.created[0]
			assert.Equal(t, models.ComputationStatusRunning, entry.Status)
			assert.Equal(t, tc.scope, entry.ComputationScope)
			if tc.scopeID == "" {
				assert.Nil(t, entry.ScopeID)
			} else {
				require.NotNil(t, entry.ScopeID)
				assert.Equal(t, tc.scopeID, *entry.ScopeID)
			}
		})
	}
}

func TestLogStartDegradesOnCreateFailure(t *testing.T) {
	repo := &mockLogRepo{createErr: errors.New("insert failed")}
	svc := NewComputationLogService(repo, nil, zap.NewNop())

	id := svc.Start(context.Background(), models.ComputationDaily, "", "")
	assert.Empty(t, id)
}

func TestLogCompletePerformanceMetrics(t *testing.T) {
	repo := &mockLogRepo{}
	svc := NewComputationLogService(repo, nil, zap.NewNop())

	svc.Complete(context.Background(), "log-1", RunOutcome{
		RecordsProcessed: 10,
		RecordsUpdated:   4,
		Errors:           2,
		Batches:          3,
	}, 20*time.Second)

	require.Equal(t, []string{"log-1"}, repo.completed)
	assert.Equal(t, 3, repo.outcome["batches_processed"])
	assert.Equal(t, 2.0, repo.outcome["avg_processing_time"])
	assert.Equal(t, 80.0, repo.outcome["success_rate"])
}

func TestLogCompleteEmptyRun(t *testing.T) {
	repo := &mockLogRepo{}
	svc := NewComputationLogService(repo, nil, zap.NewNop())

	svc.Complete(context.Background(), "log-1", RunOutcome{}, 0)

	require.Len(t, repo.completed, 1)
	assert.Equal(t, 1, repo.outcome["batches_processed"])
	assert.Equal(t, 0.0, repo.outcome["avg_processing_time"])
	assert.Equal(t, 100.0, repo.outcome["success_rate"])
}

func TestLogNoOpsWithoutID(t *testing.T) {
	repo := &mockLogRepo{}
	svc := NewComputationLogService(repo, nil, zap.NewNop())

	svc.Complete(context.Background(), "", RunOutcome{RecordsProcessed: 5}, time.Second)
	svc.Fail(context.Background(), "", errors.New("boom"), time.Second)

	assert.Empty(t, repo.completed)
	assert.Empty(t, repo.failed)
}

func TestLogFailAttachesDetails(t *testing.T) {
	repo := &mockLogRepo{}
	svc := NewComputationLogService(repo, nil, zap.NewNop())

	svc.Fail(context.Background(), "log-1", errors.New("window query timed out"), 5*time.Second)

	require.Equal(t, []string{"log-1"}, repo.failed)
	assert.Equal(t, "window query timed out", repo.details["message"])
	assert.NotEmpty(t, repo.details["stack"])
}
