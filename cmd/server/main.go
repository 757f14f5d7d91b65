package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/film-catalog/internal/config"
	"github.com/iliyamo/film-catalog/internal/database"
	"github.com/iliyamo/film-catalog/internal/handler"
	"github.com/iliyamo/film-catalog/internal/logging"
	"github.com/iliyamo/film-catalog/internal/middleware"
	"github.com/iliyamo/film-catalog/internal/queue"
	"github.com/iliyamo/film-catalog/internal/repository"
	"github.com/iliyamo/film-catalog/internal/router"
	"github.com/iliyamo/film-catalog/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBPool)
	if err != nil {
		logging.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, database.MySQL); err != nil {
		logging.Fatal().Err(err).Msg("migrate schema")
	}

	films := repository.NewFilmRepo(db)
	snapshots := service.StoreSnapshots(repository.NewSnapshots(db))
	likes := repository.NewLikeRepo(db)
	users := repository.NewUserRepo(db)
	directors := repository.NewDirectorRepo(db)
	feedRepo := repository.NewFeedRepo(db)

	g, gctx := errgroup.WithContext(ctx)

	// Feed events go through RabbitMQ when enabled; the consumer in this
	// process persists them. Otherwise they are written directly.
	qcfg := config.LoadQueueConfig()
	var publisher service.FeedPublisher = queue.NewDirectPublisher(feedRepo)
	if qcfg.Enabled {
		p := queue.NewPublisher(qcfg)
		defer p.Close()
		publisher = p
		g.Go(func() error {
			err := queue.NewConsumer(qcfg, feedRepo).Run(gctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("feed consumer: %w", err)
		})
	}

	ranking := service.NewRankingService(snapshots, users, directors)
	recs := service.NewRecommendationService(snapshots, users, likes)
	catalog := service.NewCatalogService(service.CatalogDeps{
		Films:     films,
		Snapshots: snapshots,
		Likes:     likes,
		Users:     users,
		Genres:    repository.NewGenreRepo(db),
		Mpa:       repository.NewMpaRepo(db),
		Directors: directors,
		Feed:      publisher,
	})
	social := service.NewSocialService(users, feedRepo, publisher)

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	e := router.New(router.Handlers{
		Films:     handler.NewFilmHandler(ranking, catalog, config.LoadRankingConfig()),
		Users:     handler.NewUserHandler(social, recs),
		Reference: handler.NewReferenceHandler(catalog),
		DB:        db,
	}, router.Middlewares{
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	g.Go(func() error {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Bool("queue", qcfg.Enabled).Bool("redis", rdb != nil).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Error().Err(err).Msg("server stopped with error")
	}
	logging.Info().Msg("stopped")
}
