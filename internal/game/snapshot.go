package game

import (
	"github.com/Faultbox/golfsim/internal/game/batch"
	"github.com/Faultbox/golfsim/internal/game/sim"
)

// BallView is the read-only view of one ball sent to API clients.
type BallView struct {
	ID         int        `json:"id"`
	Position   [3]float32 `json:"position"`
	Radius     float32    `json:"radius"`
	State      string     `json:"state"`
	NearGoal   bool       `json:"nearGoal"`
	Physics    bool       `json:"physics"`
	SweepIndex int        `json:"sweepIndex"`
}

// Snapshot is one frame of ball state.
type Snapshot struct {
	Frame         uint64     `json:"frame"`
	Steps         uint64     `json:"steps"`
	Interpolation float32    `json:"interpolation"`
	Balls         []BallView `json:"balls"`
}

// SweepStatus describes the configured sweep and its progress.
type SweepStatus struct {
	Ranges    batch.Ranges `json:"ranges"`
	Divisions int          `json:"divisions"`
	BatchSize int          `json:"batchSize"`
	Mode      string       `json:"mode"`
	Launched  int          `json:"launched"`
	Pending   int          `json:"pending"`
	Batches   int          `json:"batches"`
	Complete  bool         `json:"complete"`
}

// Status summarises the game for the control API.
type Status struct {
	Running    bool        `json:"running"`
	Frames     uint64      `json:"frames"`
	Steps      uint64      `json:"steps"`
	Seed       int64       `json:"seed"`
	GoalCenter [2]float32  `json:"goalCenter"`
	GoalRadius float32     `json:"goalRadius"`
	Launch     [3]float32  `json:"launch"`
	Balls      sim.Counts  `json:"balls"`
	Sweep      SweepStatus `json:"sweep"`
	Shapes     int         `json:"shapes"`
}

// Balls returns a view of every tracked ball.
func (g *Game) Balls() []BallView {
	balls := g.sim.Balls()
	out := make([]BallView, len(balls))
	for i, b := range balls {
		out[i] = g.View(b)
	}
	return out
}

// View returns the API view of b.
func (g *Game) View(b *sim.Ball) BallView {
	return BallView{
		ID:         b.ID,
		Position:   b.Position.Array(),
		Radius:     b.Radius,
		State:      b.State.String(),
		NearGoal:   b.NearGoal,
		Physics:    g.sim.HasPhysics(b),
		SweepIndex: b.SweepIndex,
	}
}

// Snapshot captures the current frame.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Frame:         g.frames,
		Steps:         g.sim.Steps(),
		Interpolation: g.sim.InterpolationFactor(),
		Balls:         g.Balls(),
	}
}

// Status captures the game summary.
func (g *Game) Status() Status {
	center := g.course.GoalCenter()
	return Status{
		Running:    g.sim.Running(),
		Frames:     g.frames,
		Steps:      g.sim.Steps(),
		Seed:       g.course.Seed,
		GoalCenter: [2]float32{center.X, center.Y},
		GoalRadius: g.course.Mesh.Radius,
		Launch:     g.course.Launch.Array(),
		Balls:      g.sim.Counts(),
		Sweep: SweepStatus{
			Ranges:    g.ranges,
			Divisions: g.divisions,
			BatchSize: g.batchSize,
			Mode:      g.scheduler.Mode().String(),
			Launched:  g.scheduler.Launched(),
			Pending:   g.scheduler.Pending(),
			Batches:   g.scheduler.Batches(),
			Complete:  g.scheduler.Complete(),
		},
		Shapes: g.common.Stats().Shapes(),
	}
}
