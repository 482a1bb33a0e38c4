// Package game owns one running simulator: the generated course, the
// physics world, the balls and the sweep scheduler. Everything in a Game
// is mutated from a single goroutine; other goroutines reach it through Do.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/config"
	"github.com/Faultbox/golfsim/internal/engine/physics"
	"github.com/Faultbox/golfsim/internal/game/batch"
	"github.com/Faultbox/golfsim/internal/game/sim"
	"github.com/Faultbox/golfsim/internal/logger"
	"github.com/Faultbox/golfsim/pkg/math"
)

// ErrClosed is returned by Do once the game loop has stopped.
var ErrClosed = errors.New("game loop stopped")

// ErrSweepTimeout is returned by RunSweep when the balls do not settle in
// the configured simulated time.
var ErrSweepTimeout = errors.New("sweep did not settle")

// Game is the top-level simulation context.
type Game struct {
	cfg *config.Config

	common    *physics.Common
	world     *physics.World
	adapter   *sim.Adapter
	sim       *sim.Simulation
	scheduler *batch.Scheduler
	course    *Course

	ranges    batch.Ranges
	divisions int
	batchSize int

	cmds   chan command
	done   chan struct{}
	frames uint64
}

type command struct {
	fn    func(*Game) error
	reply chan error
}

// New builds the course described by cfg and an idle simulation on it.
func New(cfg *config.Config) (*Game, error) {
	course, err := BuildCourse(cfg.Terrain, cfg.Goal, cfg.Ball)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:    cfg,
		common: physics.NewCommon(),
		course: course,
		ranges: batch.Ranges{
			Power: batch.Range{Min: cfg.Sweep.MinPower, Max: cfg.Sweep.MaxPower},
			Yaw:   batch.Range{Min: cfg.Sweep.MinYaw, Max: cfg.Sweep.MaxYaw},
			Pitch: batch.Range{Min: cfg.Sweep.MinPitch, Max: cfg.Sweep.MaxPitch},
		},
		divisions: cfg.Sweep.Divisions,
		batchSize: cfg.Sweep.BatchSize,
		cmds:      make(chan command),
		done:      make(chan struct{}),
	}
	g.world = g.common.CreateWorld(worldSettings(cfg.Physics))
	g.adapter = sim.NewAdapter(g.common, g.world, sim.MaterialProperties{
		Bounciness:        cfg.Physics.Bounciness,
		Friction:          cfg.Physics.Friction,
		RollingResistance: cfg.Physics.RollingResistance,
	})
	if err := g.adapter.BuildStatic(course.Grid, course.Origin, course.Mesh); err != nil {
		return nil, fmt.Errorf("build static colliders: %w", err)
	}
	g.sim = sim.New(sim.Config{
		FixedStep:           1 / float32(cfg.Physics.TickRate),
		StationaryThreshold: cfg.Physics.StationaryThreshold,
		GoalTolerance:       cfg.Physics.GoalTolerance,
	}, g.adapter)
	g.sim.SetCourse(course.simCourse())
	g.scheduler = batch.NewScheduler(&launcher{g: g})

	logger.Info("course ready",
		zap.Int64("seed", course.Seed),
		zap.Int("triangles", g.triangleCount()),
		zap.Float32("rimHeight", course.Mesh.RimHeight),
		zap.Float32("bottomHeight", course.Mesh.BottomHeight))
	return g, nil
}

func worldSettings(pc config.PhysicsConfig) physics.WorldSettings {
	s := physics.DefaultWorldSettings()
	s.Gravity = math.Vec3{Y: -pc.Gravity}
	s.LinearDamping = pc.LinearDamping
	s.AngularDamping = pc.AngularDamping
	s.RestingSpeed = pc.RestingSpeed
	if pc.MaxSubsteps > 0 {
		s.MaxSubsteps = pc.MaxSubsteps
	}
	return s
}

func (g *Game) triangleCount() int {
	n := 0
	for i := range g.course.Mesh.Parts {
		n += g.course.Mesh.Parts[i].TriangleCount()
	}
	return n
}

// Config returns the configuration the game was built from.
func (g *Game) Config() *config.Config { return g.cfg }

// Course returns the current course.
func (g *Game) Course() *Course { return g.course }

// Sim returns the ball simulation.
func (g *Game) Sim() *sim.Simulation { return g.sim }

// Scheduler returns the sweep scheduler.
func (g *Game) Scheduler() *batch.Scheduler { return g.scheduler }

// Physics returns the physics factory, mainly for its live object counts.
func (g *Game) Physics() *physics.Common { return g.common }

// Update advances the game by frame seconds: a staggered sweep releases
// its next batch if the previous one settled, then physics catches up.
func (g *Game) Update(frame float32) error {
	g.frames++
	if _, err := g.scheduler.Update(); err != nil {
		return err
	}
	g.sim.Update(frame)
	return nil
}

// StartPhysics resumes stepping.
func (g *Game) StartPhysics() {
	g.sim.Start()
	logger.Info("physics started")
}

// StopPhysics pauses stepping.
func (g *Game) StopPhysics() {
	g.sim.Stop()
	logger.Info("physics stopped")
}

// SetSweep replaces the sweep ranges, division count and batch size used
// by the next InitBalls.
func (g *Game) SetSweep(r batch.Ranges, divisions, batchSize int) error {
	if divisions < 1 {
		return fmt.Errorf("%w: %d divisions", batch.ErrInvalidSweep, divisions)
	}
	if batchSize < 1 {
		return fmt.Errorf("%w: batch size %d", batch.ErrInvalidSweep, batchSize)
	}
	for _, rg := range []batch.Range{r.Power, r.Yaw, r.Pitch} {
		if rg.Min > rg.Max {
			return fmt.Errorf("%w: range %g..%g", batch.ErrInvalidSweep, rg.Min, rg.Max)
		}
	}
	g.ranges, g.divisions, g.batchSize = r, divisions, batchSize
	return nil
}

// Sweep returns the current sweep ranges, division count and batch size.
func (g *Game) Sweep() (batch.Ranges, int, int) {
	return g.ranges, g.divisions, g.batchSize
}

// InitBalls removes every ball and releases a new sweep from the launch
// point toward the goal.
func (g *Game) InitBalls(staggered bool) error {
	params, err := batch.BuildSweep(g.ranges, g.divisions)
	if err != nil {
		return err
	}
	g.scheduler.Cancel()
	g.sim.Clear()

	mode := batch.Simultaneous
	if staggered {
		mode = batch.Staggered
	}
	shots := batch.Shots(params, g.course.LaunchPoint(), g.course.GoalCenter())
	return g.scheduler.Start(shots, mode, g.batchSize)
}

// Cancel drops pending staggered batches and destroys every ball body.
func (g *Game) Cancel() {
	g.scheduler.Cancel()
	logger.Info("sweep cancelled", zap.Int("launched", g.scheduler.Launched()))
}

// AddBall adds a single ball. A zero radius uses the configured one.
func (g *Game) AddBall(position math.Vec3, radius float32, color math.Vec3, withPhysics bool) (*sim.Ball, error) {
	if radius == 0 {
		radius = g.cfg.Ball.Radius
	}
	return g.sim.AddBall(position, radius, color, withPhysics)
}

// ClearBalls removes every ball and drops pending batches.
func (g *Game) ClearBalls() {
	g.scheduler.Cancel()
	g.sim.Clear()
}

// Regenerate builds a new course from seed and replaces the static
// colliders. All balls are removed.
func (g *Game) Regenerate(seed int64) error {
	tc := g.cfg.Terrain
	tc.Seed = seed
	course, err := BuildCourse(tc, g.cfg.Goal, g.cfg.Ball)
	if err != nil {
		return err
	}

	g.ClearBalls()
	if err := g.adapter.BuildStatic(course.Grid, course.Origin, course.Mesh); err != nil {
		// Put the old course back so the game stays usable.
		return multierr.Append(
			fmt.Errorf("build static colliders: %w", err),
			g.adapter.BuildStatic(g.course.Grid, g.course.Origin, g.course.Mesh))
	}
	g.course = course
	g.cfg.Terrain.Seed = seed
	g.sim.SetCourse(course.simCourse())
	logger.Info("course regenerated", zap.Int64("seed", seed), zap.Int("triangles", g.triangleCount()))
	return nil
}

// Distances returns the 2D distance of every tracked ball from the goal
// center, in sweep order. Manually added balls come first.
func (g *Game) Distances() []float32 {
	balls := append([]*sim.Ball(nil), g.sim.Balls()...)
	sort.SliceStable(balls, func(i, j int) bool { return balls[i].SweepIndex < balls[j].SweepIndex })

	center := g.course.GoalCenter()
	out := make([]float32, len(balls))
	for i, b := range balls {
		out[i] = b.Position.XZ().Distance(center)
	}
	return out
}

// Export writes the sweep result table to w. An incomplete sweep writes
// the ERROR line and returns a *batch.IncompleteSweepError.
func (g *Game) Export(w io.Writer) error {
	return batch.WriteExport(w, batch.ExportHeader{
		Divisions:  g.divisions,
		Ranges:     g.ranges,
		BallRadius: g.cfg.Ball.Radius,
		GoalRadius: g.course.Mesh.Radius,
	}, g.Distances())
}

// RunSweep releases a sweep and steps physics without wall-clock pacing
// until every shot was launched and no ball is active. Simulated time is
// bounded by timeout.
func (g *Game) RunSweep(ctx context.Context, staggered bool, timeout time.Duration) error {
	if err := g.InitBalls(staggered); err != nil {
		return err
	}
	g.StartPhysics()
	defer g.sim.Stop()

	step := g.sim.Config().FixedStep
	limit := uint64(timeout.Seconds() / float64(step))
	for i := uint64(0); ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.Update(step); err != nil {
			return err
		}
		if g.scheduler.Complete() {
			logger.Info("sweep settled",
				zap.Uint64("steps", g.sim.Steps()),
				zap.Int("batches", g.scheduler.Batches()),
				zap.Any("counts", g.sim.Counts()))
			return nil
		}
		if i >= limit {
			return fmt.Errorf("%w after %s: %d shots pending", ErrSweepTimeout, timeout, g.scheduler.Pending())
		}
	}
}

// Close destroys every physics object the game created.
func (g *Game) Close() error {
	g.scheduler.Cancel()
	g.sim.Clear()
	g.adapter.Close()
	g.common.DestroyWorld(g.world)

	var err error
	if n := g.adapter.LiveBodies(); n != 0 {
		err = multierr.Append(err, fmt.Errorf("%d ball bodies still alive", n))
	}
	if n := g.common.Stats().Shapes(); n != 0 {
		err = multierr.Append(err, fmt.Errorf("%d collision shapes still alive", n))
	}
	return err
}

// launcher spawns sweep balls at the course launch point.
type launcher struct {
	g *Game
}

func (l *launcher) AnyActive() bool { return l.g.sim.AnyActive() }

func (l *launcher) TearDownBodies() { l.g.sim.TearDownBodies() }

func (l *launcher) Launch(velocity math.Vec3, sweepIndex int) error {
	color := math.Vec3{X: l.g.cfg.Ball.Color[0], Y: l.g.cfg.Ball.Color[1], Z: l.g.cfg.Ball.Color[2]}
	_, err := l.g.sim.Launch(l.g.course.Launch, l.g.cfg.Ball.Radius, color, velocity, sweepIndex)
	return err
}
