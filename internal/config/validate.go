package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Validate reports every nonsensical setting. Geometric constraints that
// depend on several sections (cavity fit, cell size) are left to the mesher.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Terrain.Columns > 0 && c.Terrain.Rows > 0, "terrain grid %dx%d", c.Terrain.Columns, c.Terrain.Rows)
	check(c.Terrain.Width > 0 && c.Terrain.Depth > 0, "terrain size %gx%g", c.Terrain.Width, c.Terrain.Depth)
	check(c.Terrain.Frequency > 0, "terrain frequency %g", c.Terrain.Frequency)
	check(c.Goal.Radius > 0, "goal radius %g", c.Goal.Radius)
	check(c.Goal.Depth > 0, "goal depth %g", c.Goal.Depth)
	check(inUnit(c.Goal.CenterX) && inUnit(c.Goal.CenterZ), "goal center (%g, %g) outside 0..1", c.Goal.CenterX, c.Goal.CenterZ)
	check(c.Ball.Radius > 0, "ball radius %g", c.Ball.Radius)
	check(inUnit(c.Ball.LaunchX) && inUnit(c.Ball.LaunchZ), "launch point (%g, %g) outside 0..1", c.Ball.LaunchX, c.Ball.LaunchZ)
	check(c.Physics.TickRate > 0, "tick rate %d", c.Physics.TickRate)
	check(c.Physics.Bounciness >= 0 && c.Physics.Bounciness <= 1, "bounciness %g outside 0..1", c.Physics.Bounciness)
	check(c.Physics.Friction >= 0, "friction %g", c.Physics.Friction)
	check(c.Physics.RollingResistance >= 0, "rolling resistance %g", c.Physics.RollingResistance)
	check(c.Sweep.Divisions > 0, "sweep divisions %d", c.Sweep.Divisions)
	check(c.Sweep.BatchSize > 0, "batch size %d", c.Sweep.BatchSize)
	check(c.Sweep.MinPower <= c.Sweep.MaxPower, "power range %g..%g", c.Sweep.MinPower, c.Sweep.MaxPower)
	check(c.Sweep.MinYaw <= c.Sweep.MaxYaw, "yaw range %g..%g", c.Sweep.MinYaw, c.Sweep.MaxYaw)
	check(c.Sweep.MinPitch <= c.Sweep.MaxPitch, "pitch range %g..%g", c.Sweep.MinPitch, c.Sweep.MaxPitch)
	check(c.Server.SnapshotRate > 0, "snapshot rate %d", c.Server.SnapshotRate)

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		check(false, "log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json", "":
	default:
		check(false, "log format %q", c.Logging.Format)
	}
	return err
}

func inUnit(v float32) bool {
	return v >= 0 && v <= 1
}
