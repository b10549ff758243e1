package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-esg/meridian-esg/internal/jobs"
)

// ProjectionService describes the behaviour required to rebuild the dashboard
// projection and expire cached snapshots.
type ProjectionService interface {
	Refresh(ctx context.Context) error
	Invalidate(ctx context.Context, orgID int64)
	OrganizationIDs(ctx context.Context) ([]int64, error)
}

// ProjectionRefreshJob coordinates the scheduled projection rebuild. Refresh
// failures are reported but never bring readers down; the dashboard degrades
// to its fallback tiers instead.
type ProjectionRefreshJob struct {
	Service ProjectionService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewProjectionRefreshJob constructs the job handler.
func NewProjectionRefreshJob(service ProjectionService, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProjectionRefreshJob {
	return &ProjectionRefreshJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the projection refresh job.
func (j *ProjectionRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("projection refresh: dependencies not configured")
	}
	var payload ProjectionRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Organization == "" {
		payload.Organization = "all"
	}

	tracker := j.metrics().Track(TaskProjectionRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	orgIDs, err := j.resolveOrganizations(ctx, payload.Organization)
	if err != nil {
		resultErr = err
		j.log().Error("resolve organizations", slog.String("organization", payload.Organization), slog.Any("error", err))
		return resultErr
	}

	start := j.now()
	if err := j.Service.Refresh(ctx); err != nil {
		resultErr = err
		j.log().Error("refresh projection", slog.Any("error", err))
		return resultErr
	}

	for _, orgID := range orgIDs {
		j.Service.Invalidate(ctx, orgID)
	}
	j.metrics().AddRefreshedProjections(len(orgIDs))

	j.log().Info("refreshed dashboard projection",
		slog.Int("organizations", len(orgIDs)),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ProjectionRefreshJob) resolveOrganizations(ctx context.Context, organization string) ([]int64, error) {
	if organization == "" || organization == "all" {
		return j.Service.OrganizationIDs(ctx)
	}
	id, err := strconv.ParseInt(organization, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id %s", organization)
	}
	if id <= 0 {
		return nil, fmt.Errorf("organization id must be positive")
	}
	return []int64{id}, nil
}

func (j *ProjectionRefreshJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *ProjectionRefreshJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskProjectionRefresh))
	}
	return slog.Default().With(slog.String("job", TaskProjectionRefresh))
}

func (j *ProjectionRefreshJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *ProjectionRefreshJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
