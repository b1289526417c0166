package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal/config"
	"github.com/scythe504/speedboard/internal/game"
	"github.com/scythe504/speedboard/internal/server"
	"github.com/scythe504/speedboard/internal/store"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg)

	st := openStore(cfg)
	defer st.Close()

	hub := game.NewHub()
	ctrl := game.NewController(game.NewRegistry(cfg.RoomCapacity), hub, st, st, game.Options{
		TickInterval:   cfg.StateTick,
		FinishBonus:    cfg.FinishBonus,
		ActionThrottle: cfg.ActionThrottle,
		ChatThrottle:   cfg.ChatThrottle,
	})
	srv := server.NewServer(cfg, ctrl, hub, st)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info().Msg("shutdown complete")
}

// openStore prefers Postgres and falls back to memory when no database is
// configured or it cannot be reached.
func openStore(cfg *config.Config) store.Store {
	if cfg.DatabaseURL == "" {
		log.Info().Msg("DATABASE_URL not set, using in-memory store")
		return store.NewMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("postgres unavailable, using in-memory store")
		return store.NewMemory()
	}
	log.Info().Msg("connected to postgres")
	return pg
}
