package game

import (
	"fmt"

	"github.com/Faultbox/golfsim/internal/config"
	"github.com/Faultbox/golfsim/internal/engine/goal"
	"github.com/Faultbox/golfsim/internal/engine/terrain"
	"github.com/Faultbox/golfsim/internal/game/sim"
	"github.com/Faultbox/golfsim/pkg/math"
)

// Course is one generated hole: the height grid, the goal mesh cut into it
// and where both sit in the world.
type Course struct {
	Grid *terrain.HeightGrid
	Mesh *goal.Mesh
	// Origin is the world position of grid-local (0, 0, 0). The grid is
	// centred on the world origin and lowered by the configured elevation.
	Origin math.Vec3
	// Launch is the world position of a ball resting on the launch point.
	Launch math.Vec3
	Seed   int64
}

// BuildCourse generates the terrain and cuts the goal cavity into it.
func BuildCourse(tc config.TerrainConfig, gc config.GoalConfig, bc config.BallConfig) (*Course, error) {
	grid, err := terrain.Generate(tc.Columns, tc.Rows, tc.Width, tc.Depth, terrain.NoiseParams{
		Seed:      tc.Seed,
		Frequency: tc.Frequency,
		Amplitude: tc.Amplitude,
	})
	if err != nil {
		return nil, fmt.Errorf("generate terrain: %w", err)
	}

	mesh, err := goal.Generate(grid, goal.Spec{
		RelativeCenter: math.Vec2{X: gc.CenterX, Y: gc.CenterZ},
		Radius:         gc.Radius,
		Depth:          gc.Depth,
		Sectors:        gc.Sectors,
	})
	if err != nil {
		return nil, fmt.Errorf("cut goal: %w", err)
	}

	c := &Course{
		Grid:   grid,
		Mesh:   mesh,
		Origin: math.Vec3{X: -tc.Width / 2, Y: tc.Elevation, Z: -tc.Depth / 2},
		Seed:   tc.Seed,
	}
	lx, lz := bc.LaunchX*tc.Width, bc.LaunchZ*tc.Depth
	c.Launch = math.Vec3{
		X: c.Origin.X + lx,
		Y: c.Origin.Y + grid.HeightAt(lx, lz) + bc.Radius,
		Z: c.Origin.Z + lz,
	}
	return c, nil
}

// Model returns the model matrix placing the course meshes in the world.
func (c *Course) Model() math.Mat4 {
	return math.Translate(c.Origin.X, c.Origin.Y, c.Origin.Z)
}

// GoalCenter returns the world X/Z position of the cavity center.
func (c *Course) GoalCenter() math.Vec2 {
	return c.Mesh.Center.Add(c.Origin.XZ())
}

// LaunchPoint returns the world X/Z position of the launch point.
func (c *Course) LaunchPoint() math.Vec2 {
	return c.Launch.XZ()
}

// simCourse converts the course to the world-space geometry the ball state
// machine checks against. The floor is the lower of the terrain minimum and
// the cavity bottom so a ball resting in a deep hole is not out of bounds.
func (c *Course) simCourse() sim.Course {
	return sim.Course{
		FloorHeight:  min(c.Grid.MinHeight(), c.Mesh.BottomHeight) + c.Origin.Y,
		GoalCenter:   c.GoalCenter(),
		GoalRadius:   c.Mesh.Radius,
		BottomHeight: c.Mesh.BottomHeight + c.Origin.Y,
	}
}
