// Command server runs the game review tracker web application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/gamelog/auth"
	"github.com/dmitrymomot/gamelog/catalog"
	"github.com/dmitrymomot/gamelog/core/config"
	"github.com/dmitrymomot/gamelog/core/cookie"
	"github.com/dmitrymomot/gamelog/core/logger"
	"github.com/dmitrymomot/gamelog/core/server"
	"github.com/dmitrymomot/gamelog/core/session"
	"github.com/dmitrymomot/gamelog/core/session/pgstore"
	"github.com/dmitrymomot/gamelog/integration/database/pg"
	"github.com/dmitrymomot/gamelog/integration/database/redis"
	"github.com/dmitrymomot/gamelog/migrations"
	"github.com/dmitrymomot/gamelog/review"
	"github.com/dmitrymomot/gamelog/user"
	"github.com/dmitrymomot/gamelog/web"
)

type appConfig struct {
	Log     logger.Config
	Server  server.Config
	Cookie  cookie.Config
	Session session.Config
	DB      pg.Config
	Redis   redis.Config
	Catalog catalog.Config
	Cache   catalog.CacheConfig
	Google  auth.GoogleConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg)
	log := logger.New(cfg.Log)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	db, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := pg.Migrate(ctx, db, migrations.FS); err != nil {
		return err
	}
	log.InfoContext(ctx, "database ready", logger.Component("main"))

	var catalogSrc catalog.Source = catalog.New(cfg.Catalog)
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		catalogSrc = catalog.NewCache(catalogSrc, rdb, cfg.Cache.TTL, log)
		log.InfoContext(ctx, "catalog cache enabled", logger.Component("main"))
	}

	users := user.NewPostgresStore(db)
	reviews := review.NewPostgresStore(db)

	hasher := auth.NewHasher(auth.DefaultBcryptCost)
	local := auth.NewLocal(users, hasher)
	google := auth.NewGoogle(cfg.Google, users)

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return err
	}
	sessions := session.NewManagerFromConfig[web.Data](cfg.Session, pgstore.New[web.Data](db))
	transport := web.NewTransport(sessions, cookies, cfg.Session.CookieName)

	go sweepSessions(ctx, sessions, cfg.Session.CleanupInterval, log)

	app, err := web.NewServer(log, users, reviews, catalogSrc, local, google, transport)
	if err != nil {
		return err
	}

	srv := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	err = srv.Run(ctx, app.Handler())
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweepSessions removes expired session rows on a fixed interval.
func sweepSessions(ctx context.Context, sessions *session.Manager[web.Data], every time.Duration, log *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.CleanupExpired(ctx)
			if err != nil {
				log.ErrorContext(ctx, "sweeping expired sessions",
					logger.Component("main"), logger.Error(err))
				continue
			}
			if removed > 0 {
				log.InfoContext(ctx, "swept expired sessions",
					logger.Component("main"), slog.Int64("removed", removed))
			}
		}
	}
}
