// Package main serves the control API and snapshot stream of a running
// simulation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/config"
	"github.com/Faultbox/golfsim/internal/game"
	"github.com/Faultbox/golfsim/internal/logger"
	"github.com/Faultbox/golfsim/internal/server"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: os.Stdout,
		File:    logger.DefaultFileConfig(cfg.Logging.LogFile),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	g, err := game.New(cfg)
	if err != nil {
		logger.Fatal("failed to create game", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, g)
	runErr := srv.Run(ctx)
	if err := g.Close(); err != nil {
		logger.Warn("teardown incomplete", zap.Error(err))
	}
	if runErr != nil {
		logger.Error("server error", zap.Error(runErr))
		os.Exit(1)
	}
	logger.Info("server closed normally")
}
