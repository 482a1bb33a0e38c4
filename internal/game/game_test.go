package game

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/golfsim/internal/config"
	"github.com/Faultbox/golfsim/internal/game/batch"
	"github.com/Faultbox/golfsim/internal/game/sim"
	"github.com/Faultbox/golfsim/pkg/math"
)

// testConfig describes a flat 40x40 course with a goal of radius 2 in the
// middle and a short, slow sweep of 2x2x2 shots.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Terrain.Columns, cfg.Terrain.Rows = 16, 16
	cfg.Terrain.Width, cfg.Terrain.Depth = 40, 40
	cfg.Terrain.Elevation = 0
	cfg.Terrain.Amplitude = 0
	cfg.Goal.CenterX, cfg.Goal.CenterZ = 0.5, 0.5
	cfg.Goal.Radius, cfg.Goal.Depth = 2, 1
	cfg.Sweep.Divisions = 2
	cfg.Sweep.BatchSize = 3
	cfg.Sweep.MinPower, cfg.Sweep.MaxPower = 5, 8
	return cfg
}

func newTestGame(t *testing.T) *Game {
	t.Helper()
	g, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func near(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestBuildCourse(t *testing.T) {
	cfg := testConfig()
	c, err := BuildCourse(cfg.Terrain, cfg.Goal, cfg.Ball)
	if err != nil {
		t.Fatalf("BuildCourse: %v", err)
	}

	if c.Origin != (math.Vec3{X: -20, Z: -20}) {
		t.Errorf("origin = %v, want (-20, 0, -20)", c.Origin)
	}
	if gc := c.GoalCenter(); !near(gc.X, 0) || !near(gc.Y, 0) {
		t.Errorf("goal center = %v, want (0, 0)", gc)
	}
	if !near(c.Launch.X, -16) || !near(c.Launch.Y, cfg.Ball.Radius) || !near(c.Launch.Z, 0) {
		t.Errorf("launch = %v, want (-16, %g, 0)", c.Launch, cfg.Ball.Radius)
	}

	sc := c.simCourse()
	if !near(sc.BottomHeight, -1) || !near(sc.FloorHeight, -1) {
		t.Errorf("bottom=%g floor=%g, want -1 -1", sc.BottomHeight, sc.FloorHeight)
	}
	if got := c.Model().TransformPoint(math.Vec3{X: 20, Z: 20}); !near(got.X, 0) || !near(got.Z, 0) {
		t.Errorf("model maps grid center to %v", got)
	}
}

func TestBuildCourseErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Goal.Radius = 30
	if _, err := BuildCourse(cfg.Terrain, cfg.Goal, cfg.Ball); err == nil {
		t.Error("expected error for a cavity wider than the terrain")
	}

	cfg = testConfig()
	cfg.Terrain.Columns = 0
	if _, err := BuildCourse(cfg.Terrain, cfg.Goal, cfg.Ball); err == nil {
		t.Error("expected error for an empty grid")
	}
}

func TestInitBallsSimultaneous(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	if err := g.InitBalls(false); err != nil {
		t.Fatalf("InitBalls: %v", err)
	}
	c := g.Sim().Counts()
	if c.Total != 8 || c.WithPhysics != 8 || c.Active != 8 {
		t.Fatalf("counts = %+v, want 8 active balls with physics", c)
	}
	for _, b := range g.Sim().Balls() {
		if b.Position != g.Course().Launch {
			t.Errorf("ball %d spawned at %v, want %v", b.ID, b.Position, g.Course().Launch)
		}
	}

	// A second init replaces the sweep instead of adding to it.
	if err := g.InitBalls(false); err != nil {
		t.Fatalf("InitBalls: %v", err)
	}
	if n := len(g.Sim().Balls()); n != 8 {
		t.Errorf("got %d balls after re-init, want 8", n)
	}
}

func TestRunSweepSimultaneous(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	if err := g.RunSweep(context.Background(), false, 2*time.Minute); err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if g.Sim().AnyActive() {
		t.Error("balls still active after the sweep settled")
	}
	if g.Sim().Running() {
		t.Error("RunSweep left physics running")
	}

	var buf bytes.Buffer
	if err := g.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	// 9 header lines, blank, 2 rows, blank, 2 rows
	if len(lines) != 15 {
		t.Fatalf("export has %d lines, want 15:\n%s", len(lines), buf.String())
	}
	if lines[0] != "2" || lines[1] != "5" || lines[2] != "8" {
		t.Errorf("unexpected header %q", lines[:3])
	}
	if len(strings.Fields(lines[10])) != 2 {
		t.Errorf("row %q should hold 2 distances", lines[10])
	}
}

func TestRunSweepStaggered(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	if err := g.RunSweep(context.Background(), true, 5*time.Minute); err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	s := g.Scheduler()
	if s.Batches() != 3 || s.Launched() != 8 || s.Pending() != 0 {
		t.Errorf("batches=%d launched=%d pending=%d, want 3 8 0", s.Batches(), s.Launched(), s.Pending())
	}
	if n := len(g.Sim().Balls()); n != 8 {
		t.Errorf("got %d tracked balls, want 8", n)
	}
	// Only the last batch keeps its bodies.
	if c := g.Sim().Counts(); c.WithPhysics > 2 {
		t.Errorf("%d balls still own bodies, want at most 2", c.WithPhysics)
	}
}

func TestRunSweepTimeout(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	err := g.RunSweep(context.Background(), true, 50*time.Millisecond)
	if !errors.Is(err, ErrSweepTimeout) {
		t.Errorf("expected ErrSweepTimeout, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.RunSweep(ctx, false, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExportIncomplete(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	if _, err := g.AddBall(math.Vec3{Y: 1}, 0, sim.DefaultBallColor, false); err != nil {
		t.Fatalf("AddBall: %v", err)
	}
	var buf bytes.Buffer
	err := g.Export(&buf)
	var incomplete *batch.IncompleteSweepError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteSweepError, got %v", err)
	}
	if incomplete.Expected != 8 || incomplete.Actual != 1 {
		t.Errorf("got %+v, want 8 expected 1 actual", incomplete)
	}
	if buf.String() != "ERROR: 8 balls expected, 1 balls found.\n" {
		t.Errorf("unexpected export %q", buf.String())
	}
}

func TestDistancesFollowSweepOrder(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	if err := g.InitBalls(false); err != nil {
		t.Fatalf("InitBalls: %v", err)
	}
	balls := g.Sim().Balls()
	// Move each ball so its distance from the goal encodes its sweep index.
	for _, b := range balls {
		g.Sim().Reposition(b, math.Vec3{X: float32(b.SweepIndex) + 10, Y: 5})
	}
	for i, d := range g.Distances() {
		if !near(d, float32(i)+10) {
			t.Errorf("distance %d = %g, want %d", i, d, i+10)
		}
	}
}

func TestSetSweep(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	tests := []struct {
		name      string
		ranges    batch.Ranges
		divisions int
		batchSize int
		wantErr   bool
	}{
		{"defaults", batch.DefaultRanges(), 3, 10, false},
		{"single division", batch.DefaultRanges(), 1, 1, false},
		{"zero divisions", batch.DefaultRanges(), 0, 10, true},
		{"zero batch", batch.DefaultRanges(), 3, 0, true},
		{"inverted pitch", batch.Ranges{Pitch: batch.Range{Min: 60, Max: 30}}, 3, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.SetSweep(tt.ranges, tt.divisions, tt.batchSize)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetSweep error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, batch.ErrInvalidSweep) {
				t.Errorf("error %v does not wrap ErrInvalidSweep", err)
			}
		})
	}

	_, divisions, batchSize := g.Sweep()
	if divisions != 1 || batchSize != 1 {
		t.Errorf("sweep = %d/%d, want the last valid setting 1/1", divisions, batchSize)
	}
}

func TestRegenerate(t *testing.T) {
	cfg := testConfig()
	cfg.Terrain.Amplitude = 0.5
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	if err := g.InitBalls(false); err != nil {
		t.Fatalf("InitBalls: %v", err)
	}
	before := g.Course()
	if err := g.Regenerate(7); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if g.Course() == before || g.Course().Seed != 7 || g.Status().Seed != 7 {
		t.Errorf("course not replaced: seed %d", g.Course().Seed)
	}
	if n := len(g.Sim().Balls()); n != 0 {
		t.Errorf("%d balls survived regeneration", n)
	}
	// one height field and three goal parts
	if n := g.Physics().Stats().Shapes(); n != 4 {
		t.Errorf("%d live shapes, want 4", n)
	}
	if g.Sim().Course().BottomHeight != g.Course().Mesh.BottomHeight {
		t.Error("simulation still checks against the old course")
	}
}

func TestCloseReleasesPhysics(t *testing.T) {
	g := newTestGame(t)
	if err := g.InitBalls(false); err != nil {
		t.Fatalf("InitBalls: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if st := g.Physics().Stats(); st.Shapes() != 0 || st.Worlds != 0 || st.TriangleMeshes != 0 {
		t.Errorf("stats after close = %+v", st)
	}
}

func TestDoRunsOnLoop(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	snapshots := make(chan Snapshot, 100)
	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx, func(s Snapshot) {
			select {
			case snapshots <- s:
			default:
			}
		})
	}()

	var status Status
	err := g.Do(ctx, func(g *Game) error {
		g.StartPhysics()
		status = g.Status()
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !status.Running {
		t.Error("physics not started by command")
	}

	want := errors.New("boom")
	if err := g.Do(ctx, func(*Game) error { return want }); !errors.Is(err, want) {
		t.Errorf("Do returned %v, want %v", err, want)
	}

	select {
	case <-snapshots:
	case <-time.After(5 * time.Second):
		t.Error("no snapshot published")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v", err)
	}
	if err := g.Do(context.Background(), func(*Game) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Do after stop returned %v, want ErrClosed", err)
	}
}

func TestStatus(t *testing.T) {
	g := newTestGame(t)
	defer g.Close()

	if err := g.InitBalls(true); err != nil {
		t.Fatalf("InitBalls: %v", err)
	}
	st := g.Status()
	if st.Running || st.Sweep.Mode != "staggered" || st.Sweep.Pending != 8 || st.Sweep.Divisions != 2 {
		t.Errorf("unexpected status %+v", st)
	}
	if st.Launch != g.Course().Launch.Array() || st.GoalRadius != 2 {
		t.Errorf("unexpected course in status %+v", st)
	}

	if err := g.Update(1.0 / 60); err != nil {
		t.Fatalf("Update: %v", err)
	}
	st = g.Status()
	if st.Sweep.Launched != 3 || st.Sweep.Pending != 5 || st.Balls.Total != 3 {
		t.Errorf("first batch not released: %+v", st.Sweep)
	}
	if views := g.Balls(); len(views) != 3 || !views[0].Physics || views[0].State != "Active" {
		t.Errorf("unexpected ball views %+v", views)
	}
}
