package server

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/engine/goal"
	"github.com/Faultbox/golfsim/internal/engine/terrain"
	"github.com/Faultbox/golfsim/internal/game"
	"github.com/Faultbox/golfsim/internal/game/batch"
	"github.com/Faultbox/golfsim/internal/game/sim"
	"github.com/Faultbox/golfsim/pkg/math"
)

// do runs fn on the game loop and writes an error response if it fails.
// It reports whether fn succeeded.
func (s *Server) do(c *gin.Context, fn func(*game.Game) error) bool {
	err := s.game.Do(c.Request.Context(), fn)
	if err == nil {
		return true
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("command failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
	return false
}

// statusFor maps a command error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, batch.ErrInvalidSweep),
		errors.Is(err, sim.ErrInvalidRadius),
		errors.Is(err, goal.ErrInvalidCavity),
		errors.Is(err, terrain.ErrInvalidGrid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// health returns server liveness.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "golfsim",
		"uptime":  time.Since(s.started).String(),
		"clients": s.hub.Clients(),
	})
}

func (s *Server) status(c *gin.Context) {
	var st game.Status
	if s.do(c, func(g *game.Game) error { st = g.Status(); return nil }) {
		c.JSON(http.StatusOK, st)
	}
}

func (s *Server) startPhysics(c *gin.Context) {
	if s.do(c, func(g *game.Game) error { g.StartPhysics(); return nil }) {
		c.JSON(http.StatusOK, gin.H{"running": true})
	}
}

func (s *Server) stopPhysics(c *gin.Context) {
	if s.do(c, func(g *game.Game) error { g.StopPhysics(); return nil }) {
		c.JSON(http.StatusOK, gin.H{"running": false})
	}
}

type sweepRequest struct {
	Ranges    batch.Ranges `json:"ranges"`
	Divisions int          `json:"divisions" binding:"required"`
	BatchSize int          `json:"batchSize" binding:"required"`
}

func (s *Server) setSweep(c *gin.Context) {
	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var st game.SweepStatus
	ok := s.do(c, func(g *game.Game) error {
		if err := g.SetSweep(req.Ranges, req.Divisions, req.BatchSize); err != nil {
			return err
		}
		st = g.Status().Sweep
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, st)
	}
}

type initRequest struct {
	Staggered bool `json:"staggered"`
}

func (s *Server) initBalls(c *gin.Context) {
	var req initRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	var st game.SweepStatus
	ok := s.do(c, func(g *game.Game) error {
		if err := g.InitBalls(req.Staggered); err != nil {
			return err
		}
		st = g.Status().Sweep
		return nil
	})
	if ok {
		c.JSON(http.StatusAccepted, st)
	}
}

func (s *Server) cancel(c *gin.Context) {
	var st game.SweepStatus
	if s.do(c, func(g *game.Game) error { g.Cancel(); st = g.Status().Sweep; return nil }) {
		c.JSON(http.StatusOK, st)
	}
}

type addBallRequest struct {
	Position [3]float32  `json:"position"`
	Radius   float32     `json:"radius"`
	Color    *[3]float32 `json:"color"`
	Physics  bool        `json:"physics"`
}

func (s *Server) addBall(c *gin.Context) {
	var req addBallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Radius < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "radius must not be negative"})
		return
	}
	color := sim.DefaultBallColor
	if req.Color != nil {
		color = math.Vec3{X: req.Color[0], Y: req.Color[1], Z: req.Color[2]}
	}
	pos := math.Vec3{X: req.Position[0], Y: req.Position[1], Z: req.Position[2]}

	var view game.BallView
	ok := s.do(c, func(g *game.Game) error {
		b, err := g.AddBall(pos, req.Radius, color, req.Physics)
		if err != nil {
			return err
		}
		view = g.View(b)
		return nil
	})
	if ok {
		c.JSON(http.StatusCreated, view)
	}
}

func (s *Server) listBalls(c *gin.Context) {
	var views []game.BallView
	if s.do(c, func(g *game.Game) error { views = g.Balls(); return nil }) {
		c.JSON(http.StatusOK, gin.H{"balls": views, "count": len(views)})
	}
}

func (s *Server) clearBalls(c *gin.Context) {
	if s.do(c, func(g *game.Game) error { g.ClearBalls(); return nil }) {
		c.Status(http.StatusNoContent)
	}
}

type regenerateRequest struct {
	Seed *int64 `json:"seed"`
}

// regenerate rebuilds the course. Without a seed the next one is used.
func (s *Server) regenerate(c *gin.Context) {
	var req regenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	var st game.Status
	ok := s.do(c, func(g *game.Game) error {
		seed := g.Course().Seed + 1
		if req.Seed != nil {
			seed = *req.Seed
		}
		if err := g.Regenerate(seed); err != nil {
			return err
		}
		st = g.Status()
		return nil
	})
	if ok {
		c.JSON(http.StatusOK, st)
	}
}

// export returns the sweep table as text, or 409 with the ERROR line while
// the sweep is incomplete.
func (s *Server) export(c *gin.Context) {
	var buf bytes.Buffer
	var exportErr error
	if !s.do(c, func(g *game.Game) error { exportErr = g.Export(&buf); return nil }) {
		return
	}

	var incomplete *batch.IncompleteSweepError
	switch {
	case exportErr == nil:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	case errors.As(exportErr, &incomplete):
		c.Data(http.StatusConflict, "text/plain; charset=utf-8", buf.Bytes())
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": exportErr.Error()})
	}
}

func (s *Server) websocket(c *gin.Context) {
	s.hub.serve(c.Writer, c.Request)
}
