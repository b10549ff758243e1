package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esg/meridian-esg/internal/consol"
	"github.com/meridian-esg/meridian-esg/internal/ledger"
	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

type fakeRepo struct {
	projectionErr error
	fallbackErr   error
	reads         int
	lines         []IndicatorSummary
}

func (r *fakeRepo) ProjectionRead(context.Context, int64, int) ([]IndicatorSummary, time.Time, error) {
	r.reads++
	if r.projectionErr != nil {
		return nil, time.Time{}, r.projectionErr
	}
	return r.lines, time.Now(), nil
}

func (r *fakeRepo) FallbackRead(context.Context, int64, int) ([]IndicatorSummary, error) {
	if r.fallbackErr != nil {
		return nil, r.fallbackErr
	}
	return r.lines, nil
}

func (r *fakeRepo) RefreshProjection(context.Context) error { return nil }
func (r *fakeRepo) OrganizationIDs(context.Context) ([]int64, error) { return []int64{1}, nil }

type fakeConsol struct {
	err    error
	result consol.Result
}

func (c *fakeConsol) Consolidate(context.Context, int64, ledger.Scope, int) (consol.Result, error) {
	if c.err != nil {
		return consol.Result{}, c.err
	}
	return c.result, nil
}

func testLines() []IndicatorSummary {
	total := 75.0
	return []IndicatorSummary{{
		IndicatorCode: "CO2_TONS",
		IndicatorName: "CO2 emissions",
		Axis:          taxonomy.AxisEnvironment,
		Total:         &total,
		SitesCount:    2,
	}}
}

func newTestService(t *testing.T, repo Repository, consolidator Consolidator) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	return NewService(repo, cache, consolidator, nil, slog.Default()), mr
}

func TestSnapshotServesProjectionTier(t *testing.T) {
	repo := &fakeRepo{lines: testLines()}
	svc, _ := newTestService(t, repo, &fakeConsol{})

	snap, err := svc.Snapshot(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, TierProjection, snap.Tier)
	require.Len(t, snap.Indicators, 1)
	assert.Equal(t, 75.0, *snap.Indicators[0].Total)
	require.Len(t, snap.Axes, 1)
	assert.Equal(t, taxonomy.AxisEnvironment, snap.Axes[0].Axis)
}

func TestSnapshotFallsBackWhenProjectionFails(t *testing.T) {
	repo := &fakeRepo{lines: testLines(), projectionErr: errors.New("matview missing")}
	svc, _ := newTestService(t, repo, &fakeConsol{})

	snap, err := svc.Snapshot(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, TierFallback, snap.Tier)
}

func TestSnapshotRecomputesLiveWhenBothViewsFail(t *testing.T) {
	repo := &fakeRepo{
		projectionErr: errors.New("matview missing"),
		fallbackErr:   errors.New("view missing"),
	}
	total := 60.0
	consolidator := &fakeConsol{result: consol.Result{
		OrganizationID: 1, Year: 2024,
		Indicators: []consol.ConsolidatedIndicator{{
			IndicatorCode: "CO2_TONS", Axis: taxonomy.AxisEnvironment, Total: &total,
		}},
	}}
	svc, _ := newTestService(t, repo, consolidator)

	snap, err := svc.Snapshot(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, TierLive, snap.Tier)
	require.Len(t, snap.Indicators, 1)
	assert.Equal(t, 60.0, *snap.Indicators[0].Total)
}

func TestSnapshotUnavailableWhenAllTiersFail(t *testing.T) {
	repo := &fakeRepo{
		projectionErr: errors.New("matview missing"),
		fallbackErr:   errors.New("view missing"),
	}
	svc, _ := newTestService(t, repo, &fakeConsol{err: errors.New("db down")})

	_, err := svc.Snapshot(context.Background(), 1, 2024)
	assert.ErrorIs(t, err, shared.ErrProjectionUnavailable)
}

func TestSnapshotCachesUntilInvalidated(t *testing.T) {
	repo := &fakeRepo{lines: testLines()}
	svc, _ := newTestService(t, repo, &fakeConsol{})
	ctx := context.Background()

	_, err := svc.Snapshot(ctx, 1, 2024)
	require.NoError(t, err)
	_, err = svc.Snapshot(ctx, 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.reads)

	svc.Invalidate(ctx, 1)
	_, err = svc.Snapshot(ctx, 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.reads)
}

func TestSnapshotBypassesBrokenCache(t *testing.T) {
	repo := &fakeRepo{lines: testLines()}
	svc, mr := newTestService(t, repo, &fakeConsol{})
	mr.Close()

	snap, err := svc.Snapshot(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, TierProjection, snap.Tier)
}

func TestSnapshotRejectsBadYear(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepo{}, &fakeConsol{})
	_, err := svc.Snapshot(context.Background(), 1, 1800)
	assert.Error(t, err)
}
