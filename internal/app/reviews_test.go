package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"flexreviews/internal/app"
	"flexreviews/internal/domain"
)

// ---- fakes ----

type fakeProvider struct {
	raw  []map[string]any
	err  error
	hits int
}

func (f *fakeProvider) FetchReviews(ctx context.Context) ([]map[string]any, error) {
	f.hits++
	return f.raw, f.err
}

type fakeCache struct {
	store map[string][]domain.Review
	dels  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok := dst.(*[]domain.Review); ok {
		*d = v
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]domain.Review{}
	}
	c.store[key] = v.([]domain.Review)
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels++
	delete(c.store, key)
	return nil
}

var fallbackRaw = []map[string]any{
	rawReview(900, "published", 5, 5),
	rawReview(901, "pending", 3, 4),
}

func newService(p *fakeProvider, c *fakeCache, env string) *app.ReviewService {
	return app.NewReviewService(p, c, fallbackRaw, 5*time.Minute, env)
}

// ---- tests ----

func TestGetReviews_ProviderThenCache(t *testing.T) {
	p := &fakeProvider{raw: []map[string]any{rawReview(1, "published", 5, 4)}}
	c := &fakeCache{}
	s := newService(p, c, "prod")

	data, source := s.GetReviews(context.Background())
	if source != domain.SourceProvider {
		t.Fatalf("first read source = %s, want provider", source)
	}
	if len(data) != 1 || data[0].ID != 1 {
		t.Fatalf("unexpected data: %+v", data)
	}

	data2, source2 := s.GetReviews(context.Background())
	if source2 != domain.SourceCache {
		t.Fatalf("second read source = %s, want cache", source2)
	}
	if len(data2) != 1 || data2[0].ID != data[0].ID || data2[0].Approved != data[0].Approved {
		t.Fatalf("cached read differs: %+v vs %+v", data2, data)
	}
	if p.hits != 1 {
		t.Fatalf("provider hit %d times, want 1", p.hits)
	}
}

func TestGetReviews_FallbackOnUpstreamFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	c := &fakeCache{}
	s := newService(p, c, "prod")

	data, source := s.GetReviews(context.Background())
	if source != domain.SourceFallback {
		t.Fatalf("source = %s, want fallback", source)
	}
	if len(data) == 0 {
		t.Fatalf("fallback read must return a non-empty dataset")
	}

	// fallback results are cached too, so the broken upstream is not
	// re-hit inside the TTL window
	_, source2 := s.GetReviews(context.Background())
	if source2 != domain.SourceCache {
		t.Fatalf("second read source = %s, want cache", source2)
	}
	if p.hits != 1 {
		t.Fatalf("provider hit %d times, want 1", p.hits)
	}
}

func TestGetReviews_FallbackTagIsMockOutsideProd(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	s := newService(p, &fakeCache{}, "dev")

	_, source := s.GetReviews(context.Background())
	if source != domain.SourceMock {
		t.Fatalf("source = %s, want mock in dev", source)
	}
}

func TestGetReviews_EmptyProviderResultFallsBack(t *testing.T) {
	p := &fakeProvider{raw: nil}
	s := newService(p, &fakeCache{}, "prod")

	data, source := s.GetReviews(context.Background())
	if source != domain.SourceFallback || len(data) == 0 {
		t.Fatalf("empty upstream result should serve fallback, got %s / %d reviews", source, len(data))
	}
}

func TestSetApproval_InvalidatesCacheAndWinsOnNextRead(t *testing.T) {
	p := &fakeProvider{raw: []map[string]any{rawReview(7021, "pending", 4, 4)}}
	c := &fakeCache{}
	s := newService(p, c, "prod")

	if _, source := s.GetReviews(context.Background()); source != domain.SourceProvider {
		t.Fatalf("setup read should hit provider")
	}

	s.SetApproval(context.Background(), 7021, true)
	if c.dels == 0 {
		t.Fatalf("write must invalidate the cached snapshot")
	}

	data, source := s.GetReviews(context.Background())
	if source == domain.SourceCache {
		t.Fatalf("read after write must not serve the stale cache tag")
	}
	if len(data) != 1 || !data[0].Approved {
		t.Fatalf("override not reflected: %+v", data)
	}
	if p.hits != 2 {
		t.Fatalf("expected a re-fetch after invalidation, provider hits = %d", p.hits)
	}
}

func TestSetApprovals_BatchAppliesEachIndependently(t *testing.T) {
	p := &fakeProvider{raw: []map[string]any{
		rawReview(1, "published", 5),
		rawReview(2, "pending", 3),
	}}
	s := newService(p, &fakeCache{}, "prod")

	s.SetApprovals(context.Background(), []app.Approval{
		{ID: 1, Approved: false},
		{ID: 2, Approved: true},
	})

	got := s.Overrides()
	if len(got) != 2 || got[1] != false || got[2] != true {
		t.Fatalf("unexpected overrides: %+v", got)
	}

	data, _ := s.GetReviews(context.Background())
	byID := map[int64]bool{}
	for _, r := range data {
		byID[r.ID] = r.Approved
	}
	if byID[1] || !byID[2] {
		t.Fatalf("batch overrides not applied: %+v", byID)
	}
}

func TestOverrides_ReturnsACopy(t *testing.T) {
	s := newService(&fakeProvider{}, &fakeCache{}, "prod")
	s.SetApproval(context.Background(), 5, true)

	m := s.Overrides()
	m[5] = false
	if got := s.Overrides(); got[5] != true {
		t.Fatalf("mutating the returned map must not touch service state")
	}
}
