// internal/adapters/hostaway/client.go
package hostaway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"flexreviews/internal/adapters/observability"
	"flexreviews/internal/shared"
)

// tokenMargin is shaved off the provider-declared token lifetime so a
// token cached here never expires mid-flight.
const tokenMargin = 60 * time.Second

var (
	ErrAuth  = errors.New("hostaway: token request failed")
	ErrFetch = errors.New("hostaway: reviews request failed")
)

type Client struct {
	base         string
	hc           *http.Client
	clientID     string
	clientSecret string
	limit        int
	rl           *rate.Limiter
	token        shared.Expiring[string]
}

func New(base, clientID, clientSecret string, limit, rps int) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("client id and secret are required")
	}
	if limit <= 0 {
		limit = 100
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:         strings.TrimRight(base, "/"),
		hc:           &http.Client{Timeout: 20 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		limit:        limit,
		rl:           rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// AccessToken returns the cached bearer token while it is still live,
// otherwise performs a client-credentials request. A failed request is
// retried exactly once, immediately; the second failure surfaces as
// ErrAuth. No backoff, no jitter: this integration is low-volume and off
// the critical path.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.token.GetOrRefresh(func() (string, time.Duration, error) {
		tok, lifetime, err := c.requestToken(ctx)
		if err != nil {
			tok, lifetime, err = c.requestToken(ctx)
		}
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return tok, lifetime - tokenMargin, nil
	})
}

func (c *Client) requestToken(ctx context.Context) (string, time.Duration, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", 0, err
	}
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"scope":         {"general"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/accessTokens", strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("hostaway", "/accessTokens", 0, time.Since(start))
		return "", 0, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("hostaway", "/accessTokens", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, fmt.Errorf("token status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, err
	}
	if body.AccessToken == "" {
		return "", 0, errors.New("token response missing access_token")
	}
	return body.AccessToken, time.Duration(body.ExpiresIn) * time.Second, nil
}

// FetchReviews lists reviews from the provider with the configured page
// size. Auth failures propagate as ErrAuth, non-2xx listing responses as
// ErrFetch; the caller owns falling back to the bundled dataset.
func (c *Client) FetchReviews(ctx context.Context) ([]map[string]any, error) {
	tok, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/reviews?limit=%d", c.base, c.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "flexreviews/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("hostaway", "/reviews", 0, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("hostaway", "/reviews", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFetch, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var body struct {
		Status string           `json:"status"`
		Result []map[string]any `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return body.Result, nil
}
