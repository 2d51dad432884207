package shared

import (
	"testing"
	"time"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("HOSTAWAY_CLIENT_ID", "acct-1")
	t.Setenv("HOSTAWAY_CLIENT_SECRET", "s3cret")
	t.Setenv("CACHE_TTL_SECONDS", "120")
	t.Setenv("AUTH_REQUIRED", "true")

	c := Load()

	if c.ClientID != "acct-1" || c.ClientSecret != "s3cret" {
		t.Fatalf("credentials not picked up: %+v", c)
	}
	if c.HostawayBase != "https://api.hostaway.com/v1" {
		t.Fatalf("unexpected base url default: %s", c.HostawayBase)
	}
	if c.CacheTTL != 2*time.Minute {
		t.Fatalf("CACHE_TTL_SECONDS not applied: %v", c.CacheTTL)
	}
	if c.ReviewLimit != 100 {
		t.Fatalf("unexpected review limit default: %d", c.ReviewLimit)
	}
	if !c.AuthRequired {
		t.Fatalf("AUTH_REQUIRED=true not applied")
	}
	if c.AuthSecret == "" {
		t.Fatalf("empty AUTH_SECRET must fall back to a dev secret")
	}
	if c.AppEnv != "prod" || c.HTTPAddr != ":8080" {
		t.Fatalf("unexpected defaults: env=%s addr=%s", c.AppEnv, c.HTTPAddr)
	}
}
