package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tmpbin/internal/config"
	"tmpbin/internal/http/server"
	"tmpbin/internal/logger"
	"tmpbin/internal/services/blobstore"
	"tmpbin/internal/services/cleaner"
	"tmpbin/internal/storage"
	"tmpbin/internal/storage/filestore"
	"tmpbin/internal/storage/inmemory"
	"tmpbin/internal/storage/postgres"
)

func main() {
	log := logger.NewLogger()
	cfg := config.NewConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store storage.EntryStorage
		mem   *inmemory.InMemory
	)

	if cfg.DatabaseDSN != "" {
		pg, err := postgres.NewPostgresStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pg.Close()
		store = pg
	} else {
		mem = inmemory.NewInMemory()
		msg, err := filestore.Load(ctx, cfg.FileStoragePath, mem)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load snapshot")
		}
		log.Info().Msg(msg)
		store = mem
	}

	svc := blobstore.NewService(store, blobstore.Params{
		BaseURL:    cfg.BaseURL,
		SizeLimit:  cfg.SizeLimit,
		DefaultTTL: cfg.DefaultTTL,
	})

	sweeper := cleaner.NewCleaner(svc, cfg.SweepInterval, log)
	sweeper.Start(ctx)

	srv, err := server.NewServer(log, *cfg, svc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	go func() {
		if err := srv.Start(ctx); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	sweeper.Stop()

	if mem != nil {
		if _, err := filestore.Save(shutdownCtx, cfg.FileStoragePath, mem); err != nil {
			log.Error().Err(err).Msg("failed to save snapshot")
		} else {
			log.Info().Str("path", cfg.FileStoragePath).Msg("snapshot saved")
		}
	}
}
