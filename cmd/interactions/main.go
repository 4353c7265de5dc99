package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/example/knowledge-platform/internal/broadcast"
	"github.com/example/knowledge-platform/internal/cache"
	"github.com/example/knowledge-platform/internal/engine"
	"github.com/example/knowledge-platform/internal/handlers"
	"github.com/example/knowledge-platform/internal/platform/auth"
	"github.com/example/knowledge-platform/internal/platform/config"
	"github.com/example/knowledge-platform/internal/platform/db"
	"github.com/example/knowledge-platform/internal/platform/httpserver"
	"github.com/example/knowledge-platform/internal/platform/logging"
	"github.com/example/knowledge-platform/internal/platform/natsconn"
	"github.com/example/knowledge-platform/internal/platform/run"
	"github.com/example/knowledge-platform/internal/search"
	"github.com/example/knowledge-platform/internal/store"
	"github.com/example/knowledge-platform/internal/subject"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	pool := initPool(cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	reactions, comments, acceptance := initStores(pool, log)
	cacheCoord := initCache(cfg, log)
	broadcaster := initBroadcaster(cfg, log)
	resolver := initSearch(cfg, pool, log)

	eng := engine.New(reactions, comments, acceptance, cacheCoord, broadcaster, resolver, log, engine.Options{
		CacheTTL: cfg.Cache.TTL,
	})

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}

	r := chi.NewRouter()
	httpserver.SetupRouter(r)

	// Public read paths.
	r.Get("/v1/reactions/{subject_type}/{subject_id}", handlers.ListReactions(eng))
	r.Get("/v1/comments/{subject_type}/{subject_id}", handlers.ListComments(eng))
	r.Get("/v1/search/{subject_type}", handlers.Search(eng))

	// Writes require an authenticated actor.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/reactions/{subject_type}/{subject_id}", handlers.ToggleReaction(eng))
		r.Post("/v1/reactions/{reaction_id}/replies", handlers.AddReactionReply(eng))
		r.Post("/v1/comments/{subject_type}/{subject_id}", handlers.CreateComment(eng))
		r.Put("/v1/comments/{comment_id}", handlers.UpdateComment(eng))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(eng))
		r.Post("/v1/questions/{question_id}/answers/{answer_id}/accept", handlers.AcceptAnswer(eng))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initPool opens Postgres. In production it is required; in development a
// missing or unreachable database selects the in-memory backends.
func initPool(cfg config.AppConfig, log *zap.Logger) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores (development only)")
		return nil
	}
	pool, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		return nil
	}
	log.Info("stores: postgres")
	return pool
}

func initStores(pool *pgxpool.Pool, log *zap.Logger) (store.ReactionStore, store.CommentStore, store.AcceptanceStore) {
	if pool == nil {
		return store.NewInMemoryReactionStore(), store.NewInMemoryCommentStore(), store.NewInMemoryAcceptanceStore()
	}
	return store.NewPostgresReactionStore(pool), store.NewPostgresCommentStore(pool), store.NewPostgresAcceptanceStore(pool)
}

// initCache selects the cache backend. The cache is never a correctness
// dependency, so any failure here degrades instead of aborting.
func initCache(cfg config.AppConfig, log *zap.Logger) *cache.Coordinator {
	if cfg.Cache.RedisURL == "" {
		log.Warn("REDIS_URL not set, using in-memory cache")
		return cache.NewCoordinator(cache.NewInMemoryBackend(), log)
	}
	backend, err := cache.NewRedisBackend(cfg.Cache.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		return cache.NewCoordinator(cache.NewInMemoryBackend(), log)
	}
	log.Info("cache: redis")
	return cache.NewCoordinator(backend, log)
}

// initBroadcaster picks the transport driver: NATS when configured and
// reachable, the log sink otherwise.
func initBroadcaster(cfg config.AppConfig, log *zap.Logger) *broadcast.Broadcaster {
	if cfg.Broadcast.NATSURL == "" {
		log.Warn("NATS_URL not set, broadcasting to log sink")
		return broadcast.New(broadcast.NewLogTransport(log), cfg.Broadcast.Timeout, log)
	}
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.Broadcast.NATSURL})
	if err != nil {
		log.Warn("nats unavailable, broadcasting to log sink", zap.Error(err))
		return broadcast.New(broadcast.NewLogTransport(log), cfg.Broadcast.Timeout, log)
	}
	log.Info("broadcast: nats")
	return broadcast.New(broadcast.NewNATSTransport(nc), cfg.Broadcast.Timeout, log)
}

// initSearch wires the resolver: Meilisearch primary when configured, with
// the store-backed substring fallback always available.
func initSearch(cfg config.AppConfig, pool *pgxpool.Pool, log *zap.Logger) *search.Resolver {
	var primary search.Index
	if cfg.Search.MeiliURL != "" {
		client := search.NewMeiliClient(cfg.Search.MeiliURL, cfg.Search.MeiliAPIKey)
		for _, typ := range []subject.Type{subject.TypeQuestion, subject.TypeAnswer, subject.TypeSolution} {
			if err := client.EnsureIndex(context.Background(), typ); err != nil {
				log.Warn("meili index bootstrap failed", zap.String("index", string(typ)), zap.Error(err))
			}
		}
		primary = client
		log.Info("search: meilisearch primary")
	} else {
		log.Warn("MEILI_URL not set, search served by fallback only")
	}

	var fallback search.FallbackStore
	if pool != nil {
		fallback = search.NewPostgresFallback(pool)
	} else {
		fallback = search.NewInMemoryFallback()
	}
	return search.NewResolver(primary, fallback, cfg.Search.Timeout, log)
}
