package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"flexreviews/internal/adapters/hostaway"
	server "flexreviews/internal/adapters/http_server"
	"flexreviews/internal/adapters/memcache"
	"flexreviews/internal/adapters/observability"
	redisad "flexreviews/internal/adapters/redis"
	"flexreviews/internal/app"
	"flexreviews/internal/domain"
	"flexreviews/internal/shared"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// upstream client
	client, err := hostaway.New(cfg.HostawayBase, cfg.ClientID, cfg.ClientSecret, cfg.ReviewLimit, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Hostaway client")
	}

	// snapshot cache: in-process by default, redis when configured
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis snapshot cache")
	} else {
		cache = memcache.New()
	}

	// services
	reviews := app.NewReviewService(client, cache, hostaway.FallbackReviews(), cfg.CacheTTL, cfg.AppEnv)
	auth := app.NewAuthService(cfg.AdminUser, cfg.AdminPass, cfg.AuthSecret, cfg.SessionTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reviews: reviews, Auth: auth, AuthRequired: cfg.AuthRequired})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
