package hostaway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"flexreviews/internal/adapters/hostaway"
)

func tokenHandler(tokenHits *int32, reviewHits *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/accessTokens":
			atomic.AddInt32(tokenHits, 1)
			if r.Method != http.MethodPost {
				w.WriteHeader(405)
				return
			}
			_ = r.ParseForm()
			if r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("client_id") == "" {
				w.WriteHeader(400)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "expires_in": 3600})
		case "/reviews":
			atomic.AddInt32(reviewHits, 1)
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(401)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"result": []map[string]any{{"id": 1.0, "listingName": "Flat A", "status": "published"}},
			})
		default:
			w.WriteHeader(404)
		}
	})
}

func TestFetchReviews_TokenIsCachedAcrossCalls(t *testing.T) {
	var tokenHits, reviewHits int32
	ts := httptest.NewServer(tokenHandler(&tokenHits, &reviewHits))
	defer ts.Close()

	cl, err := hostaway.New(ts.URL, "acct", "secret", 50, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		out, err := cl.FetchReviews(ctx)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(out) != 1 || out[0]["listingName"] != "Flat A" {
			t.Fatalf("unexpected payload: %+v", out)
		}
	}
	if got := atomic.LoadInt32(&tokenHits); got != 1 {
		t.Fatalf("expected 1 token request for 3 fetches, got %d", got)
	}
	if got := atomic.LoadInt32(&reviewHits); got != 3 {
		t.Fatalf("expected 3 review requests, got %d", got)
	}
}

func TestAccessToken_RetriesOnceThenSucceeds(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-retry", "expires_in": 3600})
	}))
	defer ts.Close()

	cl, _ := hostaway.New(ts.URL, "acct", "secret", 50, 100)
	tok, err := cl.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if tok != "tok-retry" {
		t.Fatalf("unexpected token %q", tok)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected exactly 2 token attempts, got %d", hits)
	}
}

func TestAccessToken_FailsAfterSingleRetry(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(503)
	}))
	defer ts.Close()

	cl, _ := hostaway.New(ts.URL, "acct", "secret", 50, 100)
	_, err := cl.AccessToken(context.Background())
	if !errors.Is(err, hostaway.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected exactly 2 attempts (one retry), got %d", hits)
	}
}

func TestFetchReviews_Non200IsErrFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/accessTokens" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "expires_in": 3600})
			return
		}
		w.WriteHeader(502)
	}))
	defer ts.Close()

	cl, _ := hostaway.New(ts.URL, "acct", "secret", 50, 100)
	_, err := cl.FetchReviews(context.Background())
	if !errors.Is(err, hostaway.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := hostaway.New("http://x", "", "secret", 50, 5); err == nil {
		t.Fatalf("expected error for missing client id")
	}
	if _, err := hostaway.New("http://x", "acct", "", 50, 5); err == nil {
		t.Fatalf("expected error for missing client secret")
	}
}

func TestFallbackReviews_NonEmpty(t *testing.T) {
	rs := hostaway.FallbackReviews()
	if len(rs) == 0 {
		t.Fatalf("bundled dataset must not be empty")
	}
	if _, ok := rs[0]["listingName"]; !ok {
		t.Fatalf("bundled dataset rows should carry listingName: %+v", rs[0])
	}
}
