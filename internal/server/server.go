// Package server exposes a running game over HTTP: a small JSON control API
// and a websocket stream of frame snapshots.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/config"
	"github.com/Faultbox/golfsim/internal/game"
	"github.com/Faultbox/golfsim/internal/logger"
)

// Server is the control API of one game.
type Server struct {
	cfg     config.ServerConfig
	game    *game.Game
	hub     *Hub
	router  *gin.Engine
	log     *zap.Logger
	started time.Time
}

// New creates a server for g. The game loop is not started; Run does that.
func New(cfg config.ServerConfig, g *game.Game) *Server {
	log := logger.Named("server")
	s := &Server{
		cfg:     cfg,
		game:    g,
		hub:     NewHub(log),
		router:  gin.New(),
		log:     log,
		started: time.Now(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the snapshot hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run starts the game loop and serves HTTP until ctx is cancelled, then
// shuts both down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	loopErr := make(chan error, 1)
	go func() { loopErr <- s.game.Run(loopCtx, s.hub.Publish) }()

	srvErr := make(chan error, 1)
	go func() {
		s.log.Info("control API listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-srvErr:
		if err != nil {
			err = fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		}
	case err = <-loopErr:
		return fmt.Errorf("game loop: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.hub.Close()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = fmt.Errorf("shutdown: %w", serr)
	}
	stopLoop()
	<-loopErr
	s.log.Info("control API stopped")
	return err
}

// requestLogger logs each request through zap.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func (s *Server) routes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", s.health)
		v1.GET("/status", s.status)
		v1.GET("/ws", s.websocket)

		physics := v1.Group("/physics")
		{
			physics.POST("/start", s.startPhysics)
			physics.POST("/stop", s.stopPhysics)
		}

		v1.PUT("/sweep", s.setSweep)

		balls := v1.Group("/balls")
		{
			balls.GET("", s.listBalls)
			balls.POST("", s.addBall)
			balls.DELETE("", s.clearBalls)
			balls.POST("/init", s.initBalls)
			balls.POST("/cancel", s.cancel)
		}

		v1.POST("/terrain/regenerate", s.regenerate)
		v1.GET("/export", s.export)
	}
}
