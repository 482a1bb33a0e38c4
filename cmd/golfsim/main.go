// Package main runs a launch-parameter sweep without a window and writes
// the landing distances to the export file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/config"
	"github.com/Faultbox/golfsim/internal/game"
	"github.com/Faultbox/golfsim/internal/game/batch"
	"github.com/Faultbox/golfsim/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", path)
		return
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("sweep failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	g, err := game.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := g.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	logger.Info("running sweep",
		zap.Int("divisions", cfg.Sweep.Divisions),
		zap.Bool("staggered", cfg.Sweep.Staggered),
		zap.Int("batchSize", cfg.Sweep.BatchSize),
		zap.Duration("timeout", cfg.Sweep.Timeout))

	if err := g.RunSweep(ctx, cfg.Sweep.Staggered, cfg.Sweep.Timeout); err != nil {
		return err
	}

	f, err := os.Create(cfg.Sweep.Output)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	if err := g.Export(f); err != nil {
		var incomplete *batch.IncompleteSweepError
		if errors.As(err, &incomplete) {
			logger.Warn("export incomplete", zap.Int("expected", incomplete.Expected), zap.Int("actual", incomplete.Actual))
		}
		return err
	}

	c := g.Sim().Counts()
	logger.Info("export written",
		zap.String("file", cfg.Sweep.Output),
		zap.Int("balls", c.Total),
		zap.Int("goal", c.Goal),
		zap.Int("outOfBounds", c.OutOfBounds))
	return f.Close()
}
