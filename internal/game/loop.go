package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/logger"
)

// Run drives the game from a wall-clock ticker at the configured tick rate
// until ctx is cancelled. Commands submitted through Do run between frames.
// publish, if set, receives a snapshot at the configured snapshot rate.
func (g *Game) Run(ctx context.Context, publish func(Snapshot)) error {
	defer close(g.done)

	rate := g.cfg.Physics.TickRate
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	every := uint64(1)
	if sr := g.cfg.Server.SnapshotRate; sr > 0 && sr < rate {
		every = uint64(rate / sr)
	}

	logger.Info("game loop started", zap.Int("tickRate", rate))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("game loop stopped", zap.Uint64("frames", g.frames))
			return ctx.Err()

		case cmd := <-g.cmds:
			cmd.reply <- cmd.fn(g)

		case now := <-ticker.C:
			frame := float32(now.Sub(last).Seconds())
			last = now
			if err := g.Update(frame); err != nil {
				logger.Error("frame update failed", zap.Error(err))
			}
			if publish != nil && g.frames%every == 0 {
				publish(g.Snapshot())
			}
		}
	}
}

// Do runs fn on the game loop goroutine and waits for its result. It
// fails with ErrClosed once Run has returned.
func (g *Game) Do(ctx context.Context, fn func(*Game) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case g.cmds <- cmd:
	case <-g.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
