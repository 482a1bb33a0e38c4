package sim

import "github.com/Faultbox/golfsim/pkg/math"

// State is the lifecycle state of a ball.
type State int

const (
	Active State = iota
	Stationary
	OutOfBounds
	Goal
)

func (s State) String() string {
	switch s {
	case Active:
		return "Active"
	case Stationary:
		return "Stationary"
	case OutOfBounds:
		return "Out of Bounds"
	case Goal:
		return "Goal"
	default:
		return "Unknown"
	}
}

// DefaultBallColor is used for balls added without a color.
var DefaultBallColor = math.Vec3{X: 0.808, Y: 0.471, Z: 0.408}

// Ball is one simulated golf ball. Position is the interpolated render
// position; the physics body lives in the Adapter.
type Ball struct {
	ID         int
	Position   math.Vec3
	Radius     float32
	Color      math.Vec3
	State      State
	NearGoal   bool
	SweepIndex int

	handle      Handle
	prev        math.Transform
	curr        math.Transform
	orientation math.Quat
}

// Orientation returns the interpolated orientation.
func (b *Ball) Orientation() math.Quat { return b.orientation }

// RenderJob is what the renderer needs to draw one ball.
type RenderJob struct {
	Model math.Mat4
	Color math.Vec3
}

// Counts summarises the balls of a simulation.
type Counts struct {
	Total       int `json:"total"`
	WithPhysics int `json:"withPhysics"`
	Active      int `json:"active"`
	Stationary  int `json:"stationary"`
	OutOfBounds int `json:"outOfBounds"`
	Goal        int `json:"goal"`
}
