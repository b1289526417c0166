package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal/config"
	"github.com/scythe504/speedboard/internal/game"
	"github.com/scythe504/speedboard/internal/store"
)

type Server struct {
	cfg     *config.Config
	ctrl    *game.Controller
	hub     *game.Hub
	store   store.Store
	limiter *RateLimiter

	srv    *http.Server
	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(cfg *config.Config, ctrl *game.Controller, hub *game.Hub, st store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		ctrl:    ctrl,
		hub:     hub,
		store:   st,
		limiter: NewRateLimiter(cfg.RateLimitPerIP),
	}

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	go s.limiter.Run(s.ctx)

	log.Info().Str("module", "server").Str("addr", s.cfg.Addr).Msg("listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes live sockets and stops every
// room's timers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	err := s.srv.Shutdown(ctx)
	s.hub.CloseAll()
	s.ctrl.Shutdown()
	if err != nil {
		log.Error().Err(err).Str("module", "server").Msg("shutdown error")
	}
	return err
}
