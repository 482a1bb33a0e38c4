// Package sim runs the golf balls: it owns their physics bodies through
// the Adapter, steps the world at a fixed rate and drives each ball's
// state machine and collider switching.
package sim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/logger"
	"github.com/Faultbox/golfsim/pkg/math"
)

// NoInterpolation is the interpolation factor reported while paused.
const NoInterpolation float32 = -1

// ErrInvalidRadius is returned for non-positive ball radii.
var ErrInvalidRadius = errors.New("ball radius must be positive")

// Config holds the simulation constants.
type Config struct {
	// FixedStep is the physics time step in seconds.
	FixedStep float32
	// StationaryThreshold is the squared speed under which a ball counts
	// as stationary.
	StationaryThreshold float32
	// GoalTolerance is how far above the cavity bottom a resting ball may
	// sit and still count as holed.
	GoalTolerance float32
}

// DefaultConfig returns a 60 Hz step and the default thresholds.
func DefaultConfig() Config {
	return Config{
		FixedStep:           1.0 / 60.0,
		StationaryThreshold: 0.1,
		GoalTolerance:       0.05,
	}
}

// Course is the world-space geometry the state machine checks against.
type Course struct {
	// FloorHeight is the lowest height of the course; balls below it are
	// out of bounds.
	FloorHeight  float32
	GoalCenter   math.Vec2
	GoalRadius   float32
	BottomHeight float32
}

// Simulation advances every ball through a fixed time step accumulator.
type Simulation struct {
	cfg     Config
	adapter *Adapter
	course  Course

	balls       []*Ball
	nextID      int
	running     bool
	accumulator float32
	factor      float32
	steps       uint64
}

// New creates a paused simulation using adapter for physics.
func New(cfg Config, adapter *Adapter) *Simulation {
	if cfg.FixedStep <= 0 {
		cfg.FixedStep = DefaultConfig().FixedStep
	}
	return &Simulation{
		cfg:     cfg,
		adapter: adapter,
		factor:  NoInterpolation,
	}
}

// Config returns the simulation constants.
func (s *Simulation) Config() Config { return s.cfg }

// Adapter returns the physics adapter.
func (s *Simulation) Adapter() *Adapter { return s.adapter }

// SetCourse replaces the course the state machine checks against.
func (s *Simulation) SetCourse(c Course) { s.course = c }

// Course returns the current course.
func (s *Simulation) Course() Course { return s.course }

// Start resumes stepping.
func (s *Simulation) Start() {
	if !s.running {
		s.running = true
		s.accumulator = 0
	}
}

// Stop pauses stepping.
func (s *Simulation) Stop() {
	s.running = false
	s.factor = NoInterpolation
}

// Running reports whether physics is being stepped.
func (s *Simulation) Running() bool { return s.running }

// InterpolationFactor returns the factor used for the last frame, or
// NoInterpolation while paused.
func (s *Simulation) InterpolationFactor() float32 { return s.factor }

// Steps returns the number of fixed steps taken so far.
func (s *Simulation) Steps() uint64 { return s.steps }

// Update advances the simulation by frame seconds of wall time. Physics
// runs in fixed steps, as many as the accumulator holds; render positions
// are then interpolated between the last two steps.
func (s *Simulation) Update(frame float32) {
	if !s.running {
		s.factor = NoInterpolation
		return
	}
	s.accumulator += frame
	for s.accumulator >= s.cfg.FixedStep {
		s.step()
		s.accumulator -= s.cfg.FixedStep
	}
	s.factor = s.accumulator / s.cfg.FixedStep

	for _, b := range s.balls {
		if !s.adapter.Valid(b.handle) {
			continue
		}
		t := math.InterpolateTransforms(b.prev, b.curr, s.factor)
		b.Position = t.Position
		b.orientation = t.Orientation
	}
}

func (s *Simulation) step() {
	s.adapter.Step(s.cfg.FixedStep)
	s.steps++
	for _, b := range s.balls {
		if t, ok := s.adapter.Transform(b.handle); ok {
			b.prev = b.curr
			b.curr = t
			b.Position = t.Position
			b.orientation = t.Orientation
		}
		s.evaluate(b)
	}
}

// evaluate runs the state machine and the proximity check for one ball.
func (s *Simulation) evaluate(b *Ball) {
	outside := b.Position.Y < s.course.FloorHeight

	// a recovered ball is Active until a step has moved it
	recovered := false
	if b.State == OutOfBounds && !outside {
		if !s.adapter.Valid(b.handle) {
			if err := s.attach(b); err != nil {
				logger.Warn("ball recovery failed", zap.Int("ball", b.ID), zap.Error(err))
				return
			}
		}
		b.State = Active
		recovered = true
	}

	if !s.adapter.Valid(b.handle) {
		return
	}
	if outside {
		b.State = OutOfBounds
		s.detach(b)
		return
	}

	if !recovered && (b.State == Active || b.State == Stationary) {
		if s.adapter.LinearVelocity(b.handle).LengthSquared() < s.cfg.StationaryThreshold {
			b.State = Stationary
		} else {
			b.State = Active
		}
	}
	if b.State == Stationary && b.NearGoal {
		dy := b.Position.Y - b.Radius - s.course.BottomHeight
		if dy <= s.cfg.GoalTolerance && dy >= -s.cfg.GoalTolerance {
			b.State = Goal
		}
	}

	reach := s.course.GoalRadius + b.Radius
	near := b.Position.XZ().DistanceSquared(s.course.GoalCenter) < reach*reach
	if near != b.NearGoal {
		s.adapter.SetColliderMask(b.handle, maskFor(near))
		b.NearGoal = near
	}
}

func (s *Simulation) attach(b *Ball) error {
	h, err := s.adapter.CreateBallBody(b.Position, b.Radius, b.NearGoal)
	if err != nil {
		return err
	}
	b.handle = h
	b.prev = math.TransformAt(b.Position)
	b.curr = b.prev
	return nil
}

func (s *Simulation) detach(b *Ball) {
	s.adapter.DestroyBallBody(b.handle)
	b.handle = Handle{}
}

// AddBall adds a ball at position. With physics the ball gets a body
// immediately; without, it is a static marker until AddPhysics.
func (s *Simulation) AddBall(position math.Vec3, radius float32, color math.Vec3, withPhysics bool) (*Ball, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidRadius, radius)
	}
	s.nextID++
	b := &Ball{
		ID:          s.nextID,
		Position:    position,
		Radius:      radius,
		Color:       color,
		State:       Active,
		SweepIndex:  -1,
		orientation: math.QuatIdentity(),
	}
	b.prev = math.TransformAt(position)
	b.curr = b.prev
	b.NearGoal = s.nearGoal(b)
	if withPhysics {
		if err := s.attach(b); err != nil {
			return nil, fmt.Errorf("add ball: %w", err)
		}
	}
	s.balls = append(s.balls, b)
	return b, nil
}

// Launch adds a physics ball with an initial velocity.
func (s *Simulation) Launch(position math.Vec3, radius float32, color math.Vec3, velocity math.Vec3, sweepIndex int) (*Ball, error) {
	b, err := s.AddBall(position, radius, color, true)
	if err != nil {
		return nil, err
	}
	b.SweepIndex = sweepIndex
	s.adapter.SetLinearVelocity(b.handle, velocity)
	return b, nil
}

func (s *Simulation) nearGoal(b *Ball) bool {
	reach := s.course.GoalRadius + b.Radius
	return b.Position.XZ().DistanceSquared(s.course.GoalCenter) < reach*reach
}

// HasPhysics reports whether b currently owns a body.
func (s *Simulation) HasPhysics(b *Ball) bool { return s.adapter.Valid(b.handle) }

// Velocity returns the body velocity of b, zero without physics.
func (s *Simulation) Velocity(b *Ball) math.Vec3 { return s.adapter.LinearVelocity(b.handle) }

// Reposition moves b to position, zeroing its velocity and resetting
// interpolation, then re-runs the state machine.
func (s *Simulation) Reposition(b *Ball, position math.Vec3) {
	b.Position = position
	b.prev = math.TransformAt(position)
	b.curr = b.prev
	b.orientation = math.QuatIdentity()
	s.adapter.Teleport(b.handle, position)
	s.evaluate(b)
}

// SetRadius changes the radius of b, rebuilding its body if it has one.
func (s *Simulation) SetRadius(b *Ball, radius float32) error {
	if radius <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidRadius, radius)
	}
	b.Radius = radius
	if !s.adapter.Valid(b.handle) {
		return nil
	}
	s.detach(b)
	b.NearGoal = s.nearGoal(b)
	return s.attach(b)
}

// AddPhysics gives b a body. Balls out of bounds or already simulated are
// left alone.
func (s *Simulation) AddPhysics(b *Ball) error {
	if b.State == OutOfBounds || s.adapter.Valid(b.handle) {
		return nil
	}
	b.NearGoal = s.nearGoal(b)
	return s.attach(b)
}

// RemovePhysics destroys the body of b, freezing it in place.
func (s *Simulation) RemovePhysics(b *Ball) { s.detach(b) }

// TearDownBodies destroys every ball body. The balls keep their last
// position and state.
func (s *Simulation) TearDownBodies() {
	for _, b := range s.balls {
		s.detach(b)
	}
}

// Clear removes all balls.
func (s *Simulation) Clear() {
	s.TearDownBodies()
	s.balls = nil
}

// Balls returns the tracked balls in insertion order.
func (s *Simulation) Balls() []*Ball { return s.balls }

// Ball returns the ball with the given id.
func (s *Simulation) Ball(id int) (*Ball, bool) {
	for _, b := range s.balls {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// AnyActive reports whether a tracked ball is still in flight.
func (s *Simulation) AnyActive() bool {
	for _, b := range s.balls {
		if b.State == Active && s.adapter.Valid(b.handle) {
			return true
		}
	}
	return false
}

// Counts tallies balls by state.
func (s *Simulation) Counts() Counts {
	c := Counts{Total: len(s.balls)}
	for _, b := range s.balls {
		if s.adapter.Valid(b.handle) {
			c.WithPhysics++
		}
		switch b.State {
		case Active:
			c.Active++
		case Stationary:
			c.Stationary++
		case OutOfBounds:
			c.OutOfBounds++
		case Goal:
			c.Goal++
		}
	}
	return c
}

// RenderJobs appends one job per ball to dst.
func (s *Simulation) RenderJobs(dst []RenderJob) []RenderJob {
	for _, b := range s.balls {
		dst = append(dst, RenderJob{
			Model: math.ScaledAt(b.Position, b.Radius),
			Color: b.Color,
		})
	}
	return dst
}
