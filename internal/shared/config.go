package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv       string
	HTTPAddr     string
	MetricsAddr  string
	HostawayBase string
	ClientID     string
	ClientSecret string
	ReviewLimit  int
	CacheTTL     time.Duration
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	AdminUser    string
	AdminPass    string
	AuthSecret   string
	SessionTTL   time.Duration
	AuthRequired bool
}

// Load reads configuration from the environment. HOSTAWAY_CLIENT_ID and
// HOSTAWAY_CLIENT_SECRET are required; startup halts without them rather
// than running half-configured.
func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  env("METRICS_ADDR", ""),
		HostawayBase: env("HOSTAWAY_BASE_URL", "https://api.hostaway.com/v1"),
		ClientID:     env("HOSTAWAY_CLIENT_ID", ""),
		ClientSecret: env("HOSTAWAY_CLIENT_SECRET", ""),
		ReviewLimit:  atoi("REVIEW_LIMIT", 100),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		RedisAddr:    env("REDIS_ADDR", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		RedisPass:    env("REDIS_PASSWORD", ""),
		AdminUser:    env("ADMIN_USERNAME", "admin"),
		AdminPass:    env("ADMIN_PASSWORD", "admin"),
		AuthSecret:   env("AUTH_SECRET", ""),
		SessionTTL:   time.Duration(atoi("SESSION_TTL_SECONDS", 1800)) * time.Second,
		AuthRequired: env("AUTH_REQUIRED", "false") == "true",
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		log.Fatal().Msg("HOSTAWAY_CLIENT_ID and HOSTAWAY_CLIENT_SECRET are required")
	}
	if c.AuthSecret == "" {
		log.Warn().Msg("AUTH_SECRET is empty; using an insecure dev secret")
		c.AuthSecret = "dev-secret"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
