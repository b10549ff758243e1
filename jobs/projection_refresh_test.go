package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjectionService struct {
	refreshErr  error
	refreshed   int
	invalidated []int64
	orgIDs      []int64
}

func (s *fakeProjectionService) Refresh(context.Context) error {
	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.refreshed++
	return nil
}

func (s *fakeProjectionService) Invalidate(_ context.Context, orgID int64) {
	s.invalidated = append(s.invalidated, orgID)
}

func (s *fakeProjectionService) OrganizationIDs(context.Context) ([]int64, error) {
	return s.orgIDs, nil
}

func refreshTask(t *testing.T, organization string) *asynq.Task {
	t.Helper()
	task, err := NewProjectionRefreshTask(organization)
	require.NoError(t, err)
	return task
}

func TestProjectionRefreshAllOrganizations(t *testing.T) {
	svc := &fakeProjectionService{orgIDs: []int64{1, 2, 3}}
	job := NewProjectionRefreshJob(svc, slog.Default(), nil)

	err := job.Handle(context.Background(), refreshTask(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 1, svc.refreshed)
	assert.Equal(t, []int64{1, 2, 3}, svc.invalidated)
}

func TestProjectionRefreshSingleOrganization(t *testing.T) {
	svc := &fakeProjectionService{orgIDs: []int64{1, 2, 3}}
	job := NewProjectionRefreshJob(svc, slog.Default(), nil)

	err := job.Handle(context.Background(), refreshTask(t, "2"))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, svc.invalidated)
}

func TestProjectionRefreshRejectsBadOrganization(t *testing.T) {
	svc := &fakeProjectionService{}
	job := NewProjectionRefreshJob(svc, slog.Default(), nil)

	err := job.Handle(context.Background(), refreshTask(t, "not-a-number"))
	assert.Error(t, err)
	assert.Zero(t, svc.refreshed)
}

func TestProjectionRefreshPropagatesRefreshError(t *testing.T) {
	svc := &fakeProjectionService{orgIDs: []int64{1}, refreshErr: errors.New("refresh failed")}
	job := NewProjectionRefreshJob(svc, slog.Default(), nil)

	err := job.Handle(context.Background(), refreshTask(t, ""))
	assert.Error(t, err)
	assert.Empty(t, svc.invalidated)
}

func TestProjectionRefreshSkipsRetryOnBadPayload(t *testing.T) {
	job := NewProjectionRefreshJob(&fakeProjectionService{}, slog.Default(), nil)
	task := asynq.NewTask(TaskProjectionRefresh, []byte("{invalid"))

	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
