package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/activation-insights/internal/aggregate"
	"github.com/godilite/activation-insights/internal/repository/models"
)

const (
	fetchTimeout = 30 * time.Second

	loadKey    = "load"
	refreshKey = "refresh"
)

var (
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	ErrInvalidFilter       = errors.New("invalid filter")
)

// DashboardService holds the most recent snapshot and derives dashboard views from it.
type DashboardService struct {
	repo   SnapshotRepository
	logger *zap.Logger
	loc    *time.Location
	rules  aggregate.RoleRules

	group singleflight.Group
	seq   atomic.Uint64

	mu      sync.RWMutex
	current *models.Snapshot
	applied uint64
}

type Option func(*DashboardService)

// WithLocation sets the timezone used for calendar days and hours.
func WithLocation(loc *time.Location) Option {
	return func(s *DashboardService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRoleRules replaces the built-in question role table.
func WithRoleRules(rules aggregate.RoleRules) Option {
	return func(s *DashboardService) {
		if len(rules) > 0 {
			s.rules = rules
		}
	}
}

// NewDashboardService creates a new DashboardService instance.
func NewDashboardService(repo SnapshotRepository, logger *zap.Logger, opts ...Option) *DashboardService {
	if repo == nil {
		panic("repository must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &DashboardService{
		repo:   repo,
		logger: logger,
		loc:    time.UTC,
		rules:  aggregate.DefaultRoleRules(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the display timezone.
func (s *DashboardService) Location() *time.Location { return s.loc }

// Refresh fetches a new snapshot. Concurrent callers share one fetch.
func (s *DashboardService) Refresh(ctx context.Context) (SnapshotInfo, error) {
	snap, err := s.fetch(ctx, refreshKey)
	if err != nil {
		return SnapshotInfo{}, err
	}
	return infoOf(snap), nil
}

// EnsureSnapshot loads a snapshot on first use and returns the current one afterwards.
func (s *DashboardService) EnsureSnapshot(ctx context.Context) (SnapshotInfo, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return SnapshotInfo{}, err
	}
	return infoOf(snap), nil
}

// Current returns the applied snapshot without fetching.
func (s *DashboardService) Current() (SnapshotInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return SnapshotInfo{}, false
	}
	return infoOf(s.current), true
}

func (s *DashboardService) snapshot(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.fetch(ctx, loadKey)
}

// fetch runs one repository call per key at a time. The call is detached from
// the caller's cancellation so other waiters still get its result.
func (s *DashboardService) fetch(ctx context.Context, key string) (*models.Snapshot, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		seq := s.seq.Add(1)

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		snap, err := s.repo.FetchSnapshot(fetchCtx)
		if err != nil {
			s.logger.Error("snapshot fetch failed", zap.Uint64("seq", seq), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
		}
		if snap == nil {
			return nil, fmt.Errorf("%w: repository returned no snapshot", ErrSnapshotUnavailable)
		}
		return s.apply(seq, snap), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Snapshot), nil
	}
}

// apply installs snap unless a later fetch has already been applied, and
// returns whichever snapshot is current afterwards.
func (s *DashboardService) apply(seq uint64, snap *models.Snapshot) *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		s.logger.Info("discarding stale snapshot",
			zap.Uint64("seq", seq),
			zap.Uint64("applied", s.applied),
			zap.String("snapshot_id", snap.ID))
		return s.current
	}
	s.current = snap
	s.applied = seq
	s.logger.Info("applied snapshot", zap.Uint64("seq", seq), zap.String("snapshot_id", snap.ID))
	return snap
}

// GetDashboard computes every dashboard aggregate for the given filter.
func (s *DashboardService) GetDashboard(ctx context.Context, f Filter) (Dashboard, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return s.buildDashboard(snap, f), nil
}

func (s *DashboardService) buildDashboard(snap *models.Snapshot, f Filter) Dashboard {
	t := aggregate.PublishedTables(snap)
	perActivation := aggregate.CheckinsPerActivation(t.Checkins, t.Activations, t.CheckinActivationLinks, t.Ratings, t.RatingActivationLinks)

	return Dashboard{
		Snapshot: infoOf(snap),
		Filter:   f,

		TotalUsers:              aggregate.UniqueUsersWithActivations(t.CheckinUserLinks),
		TotalCheckins:           len(t.Checkins),
		TotalRedemptions:        len(t.Redemptions),
		ActivationsWithCheckins: len(perActivation),
		AverageSurveyRating:     aggregate.AverageExperienceRating(t.Surveys),

		CheckinsPerDay:        aggregate.CheckinsPerDay(t.Checkins, t.CheckinActivationLinks, f.ActivationID, s.loc),
		CheckinsPerActivation: perActivation,
		UsersPerDay:           aggregate.UsersPerDay(t.Users, s.loc),
		AgeDistribution:       aggregate.AgeDistribution(t.Surveys),
		ClientIntention:       aggregate.ClientIntention(t.Surveys),
		ActivationsByTime:     aggregate.ActivationsByHour(t.Checkins, t.CheckinActivationLinks, f.ActivationID, f.Date, s.loc),
		SurveyQuestions:       aggregate.PerQuestionStats(t.Surveys),
		EngagementFunnel:      aggregate.EngagementFunnel(t.Users, t.Checkins, s.loc),
		Activations:           aggregate.ActivationOptions(t.Activations),
		AvailableDates:        aggregate.AvailableDates(t.Checkins, s.loc),
	}
}

// GetSurveyInsights computes the survey analysis views.
func (s *DashboardService) GetSurveyInsights(ctx context.Context) (SurveyInsights, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return SurveyInsights{}, err
	}

	surveys := aggregate.PublishedTables(snap).Surveys
	stats := aggregate.PerQuestionStats(surveys)

	return SurveyInsights{
		Snapshot:                infoOf(snap),
		Questions:               stats,
		Blocks:                  s.rules.Compose(stats),
		Comments:                aggregate.ExtractComments(surveys),
		ClientDistribution:      aggregate.ClientDistribution(surveys),
		ClientIntention:         aggregate.ClientIntention(surveys),
		AgeDistribution:         aggregate.AgeDistribution(surveys),
		AverageExperienceRating: aggregate.AverageExperienceRating(surveys),
	}, nil
}

func infoOf(snap *models.Snapshot) SnapshotInfo {
	return SnapshotInfo{
		ID:        snap.ID,
		FetchedAt: snap.FetchedAt,
		Checkins:  len(snap.Checkins),
		Surveys:   len(snap.Surveys),
	}
}
