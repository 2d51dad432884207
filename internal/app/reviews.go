package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"flexreviews/internal/adapters/observability"
	"flexreviews/internal/domain"
)

const snapshotKey = "reviews:hostaway"

// Approval is one admin decision on a review.
type Approval struct {
	ID       int64
	Approved bool
}

// ReviewService owns the normalized review snapshot, the approval
// override map and the refresh pipeline behind the ingestion endpoint.
// One instance per process; safe for concurrent handlers.
type ReviewService struct {
	provider domain.ReviewProvider
	cache    domain.Cache
	fallback []map[string]any
	ttl      time.Duration
	appEnv   string

	mu        sync.RWMutex
	overrides map[int64]bool

	sf singleflight.Group
}

func NewReviewService(p domain.ReviewProvider, c domain.Cache, fallback []map[string]any, ttl time.Duration, appEnv string) *ReviewService {
	return &ReviewService{
		provider:  p,
		cache:     c,
		fallback:  fallback,
		ttl:       ttl,
		appEnv:    appEnv,
		overrides: map[int64]bool{},
	}
}

type snapshot struct {
	Reviews []domain.Review
	Source  string
}

// GetReviews returns the current normalized snapshot and its source tag.
// The read path never fails: upstream errors are absorbed into the
// bundled fallback dataset, which is cached like any other result so a
// broken upstream is not hammered within the TTL window.
func (s *ReviewService) GetReviews(ctx context.Context) ([]domain.Review, string) {
	var cached []domain.Review
	if ok, err := s.cache.Get(ctx, snapshotKey, &cached); err == nil && ok {
		observability.ObserveReadSource(domain.SourceCache)
		return cached, domain.SourceCache
	}

	// collapse concurrent refreshes into one upstream round trip
	v, _, _ := s.sf.Do(snapshotKey, func() (any, error) {
		return s.refresh(ctx), nil
	})
	snap := v.(snapshot)
	observability.ObserveReadSource(snap.Source)
	return snap.Reviews, snap.Source
}

func (s *ReviewService) refresh(ctx context.Context) snapshot {
	raw, err := s.provider.FetchReviews(ctx)
	source := domain.SourceProvider
	if err != nil || len(raw) == 0 {
		if err != nil {
			log.Warn().Err(err).Msg("upstream fetch failed; serving bundled dataset")
		}
		raw = s.fallback
		source = domain.SourceFallback
		if s.appEnv != "prod" {
			source = domain.SourceMock
		}
	}

	reviews := Normalize(raw, s.Overrides())
	if err := s.cache.Set(ctx, snapshotKey, reviews, int(s.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Msg("review snapshot cache write failed")
	}
	return snapshot{Reviews: reviews, Source: source}
}

// SetApproval records one admin decision and invalidates the snapshot so
// the next read reflects it immediately instead of after TTL expiry.
func (s *ReviewService) SetApproval(ctx context.Context, id int64, approved bool) {
	s.mu.Lock()
	s.overrides[id] = approved
	s.mu.Unlock()
	s.invalidate(ctx)
}

// SetApprovals applies a batch of decisions independently (a partially
// valid batch earlier in the pipeline yields partial updates) and
// invalidates once.
func (s *ReviewService) SetApprovals(ctx context.Context, updates []Approval) {
	if len(updates) == 0 {
		return
	}
	s.mu.Lock()
	for _, u := range updates {
		s.overrides[u.ID] = u.Approved
	}
	s.mu.Unlock()
	s.invalidate(ctx)
}

// Overrides returns a copy of the current override map.
func (s *ReviewService) Overrides() map[int64]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]bool, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

func (s *ReviewService) invalidate(ctx context.Context) {
	if err := s.cache.Del(ctx, snapshotKey); err != nil {
		log.Warn().Err(err).Msg("review snapshot invalidation failed")
	}
}
