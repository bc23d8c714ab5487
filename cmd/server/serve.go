package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"crushboard/internal/config"
	"crushboard/internal/db"
	"crushboard/internal/handlers"
	"crushboard/internal/router"
	"crushboard/internal/services"
	"crushboard/internal/store"
	"crushboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// setup loads config, initializes logging and opens the configured store.
func setup(ctx context.Context) (*config.Config, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store.New(backend), nil
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return store.NewMemoryBackend(), nil
	case config.DriverMongo:
		m, err := store.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Close()
			return nil, err
		}
		return m, nil
	default:
		gdb, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(gdb); err != nil {
			return nil, err
		}
		return store.NewGormBackend(gdb), nil
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, st, err := setup(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	boardSvc, err := services.NewBoardService(st, services.BoardOptions{
		RecentWindow:        cfg.RecentWindow,
		RepartitionInterval: cfg.RepartitionInterval,
		Location:            loc,
		CacheSize:           cfg.CacheSize,
		CacheTTL:            cfg.CacheTTL,
	})
	if err != nil {
		return err
	}
	inflight := services.NewInFlight()
	deps := &handlers.Deps{
		Store:    st,
		Board:    boardSvc,
		Submit:   services.NewSubmitService(st, inflight),
		Likes:    services.NewLikeService(st, inflight),
		ShareURL: cfg.ShareURL,
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.New(deps, router.Options{
		TemplatesDir:  cfg.TemplatesDir,
		SessionSecret: cfg.SessionSecret,
		Location:      loc,
		Limits:        router.Limits{RPS: cfg.WriteRPS, Burst: cfg.WriteBurst},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return boardSvc.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("crushboard server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)
	if cfg.StoreDriver != config.DriverPostgres {
		return fmt.Errorf("migrate only applies to STORE_DRIVER=postgres, got %s", cfg.StoreDriver)
	}
	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	log.Info().Msg("migration complete")
	return nil
}
