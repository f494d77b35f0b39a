package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/api/routes"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/cache"
	"Archaeopteryx/internal/config"
	"Archaeopteryx/internal/idmap"
	mediastore "Archaeopteryx/internal/media"
	"Archaeopteryx/internal/oauth"
	"Archaeopteryx/internal/ratelimit"
	"Archaeopteryx/internal/snowflake"
	"Archaeopteryx/internal/translate"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	// Valkey is the shared store; without it the gateway still runs on the
	// in-process cache, losing cross-replica sharing but nothing else.
	var store cache.Cache
	valkey, err := cache.NewValkey(context.Background(), cache.ValkeyOptions{
		Addr:     cfg.ValkeyAddr(),
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDatabase,
	})
	if err != nil {
		slog.Warn("valkey unavailable, falling back to in-memory cache", "addr", cfg.ValkeyAddr(), "error", err)
		store = cache.NewMemory()
	} else {
		slog.Info("connected to valkey", "addr", cfg.ValkeyAddr())
		store = valkey
	}
	defer store.Close()

	upstreamHost := cfg.ATProtoServiceURL
	if cfg.ATProtoPDSURL != "" {
		upstreamHost = cfg.ATProtoPDSURL
	}
	client := atproto.NewClient(upstreamHost)

	gen := snowflakeGenerator()
	ids := idmap.NewMapper(store, gen)
	tr := translate.NewTranslator(ids)
	oauthService := oauth.NewService(store, client, gen)
	uploads := mediastore.NewService(store, gen)

	authMiddleware := middleware.NewAuthMiddleware(oauthService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(
		ratelimit.NewLimiter(store, ratelimit.DefaultAuthed, ratelimit.DefaultWindow),
		ratelimit.NewLimiter(store, ratelimit.DefaultUnauthed, ratelimit.DefaultWindow),
	)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(rateLimitMiddleware.Middleware)

	routes.RegisterOAuthRoutes(r, oauthService)
	routes.RegisterInstanceRoutes(r, cfg.Hostname)
	routes.RegisterAccountRoutes(r, client, tr, ids, authMiddleware)
	routes.RegisterStatusRoutes(r, client, tr, ids, uploads, authMiddleware)
	routes.RegisterFeedRoutes(r, client, tr, ids, authMiddleware)
	routes.RegisterMediaRoutes(r, client, uploads, authMiddleware)
	routes.RegisterCompatRoutes(r)

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("archaeopteryx starting",
		"addr", cfg.ListenAddr(),
		"upstream", upstreamHost,
		"environment", cfg.Environment,
	)
	log.Fatal(server.ListenAndServe())
}

// snowflakeGenerator builds the ID generator, taking the worker identity from
// WORKER_ID when replicas need distinct sequences.
func snowflakeGenerator() *snowflake.Generator {
	workerID := int64(0)
	if raw := os.Getenv("WORKER_ID"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			workerID = n
		}
	}
	return snowflake.NewGeneratorWithOptions(snowflake.Epoch, workerID)
}

// setupLogging configures the default slog logger from LOG_LEVEL.
func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
