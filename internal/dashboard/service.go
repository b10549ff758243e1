package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-esg/meridian-esg/internal/consol"
	"github.com/meridian-esg/meridian-esg/internal/ledger"
	"github.com/meridian-esg/meridian-esg/internal/observability"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Consolidator recomputes the dashboard from the ledger when both stored
// projections are unavailable. Satisfied by consol.Service.
type Consolidator interface {
	Consolidate(ctx context.Context, orgID int64, scope ledger.Scope, year int) (consol.Result, error)
}

// Service serves dashboard snapshots through three read tiers: the
// materialized projection, a plain view, and live recomputation. Each tier
// covers failures of the one above it; only when all three fail does the
// read surface an error.
type Service struct {
	repo    Repository
	cache   *Cache
	consol  Consolidator
	metrics *observability.Metrics
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewService constructs the dashboard service. Cache and metrics may be nil.
func NewService(repo Repository, cache *Cache, consolidator Consolidator, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		consol:  consolidator,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Snapshot returns the dashboard of one organization and year. Concurrent
// cache misses for the same key collapse into a single computation.
func (s *Service) Snapshot(ctx context.Context, orgID int64, year int) (Snapshot, error) {
	if err := shared.ValidateYear(year); err != nil {
		return Snapshot{}, err
	}
	key, err := s.cache.BuildKey(ctx, orgID, fmt.Sprintf("%d", year))
	if err != nil {
		s.logger.Warn("dashboard cache key", slog.Any("error", err))
		return s.compute(ctx, orgID, year)
	}

	var snap Snapshot
	err = s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (interface{}, error) {
		value, err, _ := s.group.Do(key, func() (interface{}, error) {
			return s.compute(ctx, orgID, year)
		})
		return value, err
	})
	if err != nil {
		if shouldBypassCache(err) {
			s.logger.Warn("dashboard cache bypass", slog.Any("error", err))
			return s.compute(ctx, orgID, year)
		}
		return Snapshot{}, err
	}
	return snap, nil
}

// shouldBypassCache separates cache transport failures from computation
// failures. Domain errors pass through untouched.
func shouldBypassCache(err error) bool {
	switch {
	case err == nil:
		return false
	case isDomainError(err):
		return false
	default:
		return true
	}
}

func isDomainError(err error) bool {
	for _, sentinel := range []error{
		shared.ErrNotFound, shared.ErrProjectionUnavailable, shared.ErrInvalidPeriod, shared.ErrForbidden,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (s *Service) compute(ctx context.Context, orgID int64, year int) (Snapshot, error) {
	lines, refreshedAt, projErr := s.repo.ProjectionRead(ctx, orgID, year)
	if projErr == nil {
		return s.snapshot(orgID, year, TierProjection, refreshedAt, lines), nil
	}
	s.logger.Warn("dashboard projection read failed, falling back",
		slog.Int64("org_id", orgID), slog.Any("error", projErr))

	lines, fallbackErr := s.repo.FallbackRead(ctx, orgID, year)
	if fallbackErr == nil {
		s.metrics.ObserveDegradedRead(TierFallback)
		return s.snapshot(orgID, year, TierFallback, s.now(), lines), nil
	}
	s.logger.Warn("dashboard fallback read failed, recomputing live",
		slog.Int64("org_id", orgID), slog.Any("error", fallbackErr))

	result, liveErr := s.consol.Consolidate(ctx, orgID, ledger.Scope{}, year)
	if liveErr == nil {
		s.metrics.ObserveDegradedRead(TierLive)
		return s.snapshot(orgID, year, TierLive, s.now(), summarize(result)), nil
	}
	s.logger.Error("dashboard live recomputation failed",
		slog.Int64("org_id", orgID), slog.Any("error", liveErr))

	return Snapshot{}, fmt.Errorf("dashboard: all read tiers failed (projection: %v, fallback: %v, live: %v): %w",
		projErr, fallbackErr, liveErr, shared.ErrProjectionUnavailable)
}

func (s *Service) snapshot(orgID int64, year int, tier string, generatedAt time.Time, lines []IndicatorSummary) Snapshot {
	return Snapshot{
		OrganizationID: orgID,
		Year:           year,
		Tier:           tier,
		GeneratedAt:    generatedAt,
		Axes:           RollupAxes(lines),
		Indicators:     lines,
	}
}

// summarize reduces a full consolidation result to dashboard lines.
func summarize(result consol.Result) []IndicatorSummary {
	out := make([]IndicatorSummary, 0, len(result.Indicators))
	for _, line := range result.Indicators {
		out = append(out, IndicatorSummary{
			IndicatorCode:  line.IndicatorCode,
			IndicatorName:  line.IndicatorName,
			Unit:           line.Unit,
			Axis:           line.Axis,
			Total:          line.Total,
			Target:         line.Target,
			PerformancePct: line.PerformancePct,
			VariationPct:   line.VariationPct,
			SitesCount:     line.SitesCount,
		})
	}
	return out
}

// Invalidate drops cached snapshots of an organization. It satisfies the
// ledger's invalidation hook.
func (s *Service) Invalidate(ctx context.Context, orgID int64) {
	if err := s.cache.Bump(ctx, orgID); err != nil {
		s.logger.Warn("dashboard cache bump", slog.Int64("org_id", orgID), slog.Any("error", err))
	}
}

// Refresh rebuilds the materialized projection. Failures leave the previous
// projection in place; readers degrade instead of breaking.
func (s *Service) Refresh(ctx context.Context) error {
	return s.repo.RefreshProjection(ctx)
}

// OrganizationIDs lists organizations for projection refresh fan-out.
func (s *Service) OrganizationIDs(ctx context.Context) ([]int64, error) {
	return s.repo.OrganizationIDs(ctx)
}
