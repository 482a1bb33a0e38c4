package batch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/logger"
	"github.com/Faultbox/golfsim/pkg/math"
)

// Shot is a ball waiting to be launched.
type Shot struct {
	Velocity math.Vec3
	Index    int
}

// Queue is a stack of pending shots released batchSize at a time. Shots
// are stored reversed and popped from the back so they leave in
// submission order.
type Queue struct {
	pending   []Shot
	batchSize int
}

// NewQueue queues shots for release in batches of batchSize.
func NewQueue(shots []Shot, batchSize int) *Queue {
	q := &Queue{
		pending:   make([]Shot, len(shots)),
		batchSize: max(1, batchSize),
	}
	for i, s := range shots {
		q.pending[len(shots)-1-i] = s
	}
	return q
}

// Len returns the number of pending shots.
func (q *Queue) Len() int { return len(q.pending) }

// BatchSize returns the release size.
func (q *Queue) BatchSize() int { return q.batchSize }

// Pop removes the next shot.
func (q *Queue) Pop() (Shot, bool) {
	n := len(q.pending)
	if n == 0 {
		return Shot{}, false
	}
	s := q.pending[n-1]
	q.pending = q.pending[:n-1]
	return s, true
}

// Next pops up to one batch of shots.
func (q *Queue) Next() []Shot {
	n := min(q.batchSize, len(q.pending))
	out := make([]Shot, 0, n)
	for i := 0; i < n; i++ {
		s, _ := q.Pop()
		out = append(out, s)
	}
	return out
}

// Clear drops every pending shot.
func (q *Queue) Clear() { q.pending = nil }

// Launcher spawns balls and reports on them.
type Launcher interface {
	// AnyActive reports whether a tracked ball is still moving.
	AnyActive() bool
	// TearDownBodies destroys the physics bodies of all tracked balls.
	TearDownBodies()
	// Launch spawns a ball with the given initial velocity.
	Launch(velocity math.Vec3, sweepIndex int) error
}

// Mode selects how a sweep is released.
type Mode int

const (
	// Simultaneous spawns every ball in the same frame.
	Simultaneous Mode = iota
	// Staggered spawns one batch whenever no ball is active.
	Staggered
)

func (m Mode) String() string {
	if m == Staggered {
		return "staggered"
	}
	return "simultaneous"
}

// Scheduler releases a sweep into a Launcher.
type Scheduler struct {
	launcher Launcher
	queue    *Queue
	mode     Mode
	launched int
	batches  int
}

// NewScheduler creates an idle scheduler.
func NewScheduler(l Launcher) *Scheduler {
	return &Scheduler{launcher: l, queue: NewQueue(nil, DefaultBatchSize)}
}

// Start releases shots. Simultaneous mode launches all of them now;
// staggered mode queues them for Update.
func (s *Scheduler) Start(shots []Shot, mode Mode, batchSize int) error {
	s.mode = mode
	s.launched = 0
	s.batches = 0
	if mode == Simultaneous {
		s.queue = NewQueue(nil, batchSize)
		for _, shot := range shots {
			if err := s.launch(shot); err != nil {
				return err
			}
		}
		logger.Info("sweep launched", zap.Int("balls", len(shots)))
		return nil
	}
	s.queue = NewQueue(shots, batchSize)
	logger.Info("sweep queued",
		zap.Int("balls", len(shots)),
		zap.Int("batchSize", s.queue.BatchSize()))
	return nil
}

func (s *Scheduler) launch(shot Shot) error {
	if err := s.launcher.Launch(shot.Velocity, shot.Index); err != nil {
		return fmt.Errorf("launch shot %d: %w", shot.Index, err)
	}
	s.launched++
	return nil
}

// Update releases the next staggered batch once no ball is active. It
// returns the number of balls launched.
func (s *Scheduler) Update() (int, error) {
	if s.queue.Len() == 0 || s.launcher.AnyActive() {
		return 0, nil
	}
	s.launcher.TearDownBodies()
	batch := s.queue.Next()
	for _, shot := range batch {
		if err := s.launch(shot); err != nil {
			return 0, err
		}
	}
	s.batches++
	logger.Debug("batch released",
		zap.Int("batch", s.batches),
		zap.Int("balls", len(batch)),
		zap.Int("pending", s.queue.Len()))
	return len(batch), nil
}

// Cancel drops pending shots and destroys every live ball body.
func (s *Scheduler) Cancel() {
	s.queue.Clear()
	s.launcher.TearDownBodies()
}

// Pending returns the number of queued shots.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// Launched returns the number of balls launched since Start.
func (s *Scheduler) Launched() int { return s.launched }

// Batches returns the number of staggered batches released since Start.
func (s *Scheduler) Batches() int { return s.batches }

// Mode returns the release mode of the current sweep.
func (s *Scheduler) Mode() Mode { return s.mode }

// Complete reports whether every shot was released and no ball is active.
func (s *Scheduler) Complete() bool {
	return s.queue.Len() == 0 && !s.launcher.AnyActive()
}

// Shots turns a sweep into launch velocities for a ball at launch aiming
// at target.
func Shots(params []ShotParameter, launch, target math.Vec2) []Shot {
	shots := make([]Shot, len(params))
	for i, p := range params {
		shots[i] = Shot{Velocity: p.Velocity(launch, target), Index: p.Index}
	}
	return shots
}
