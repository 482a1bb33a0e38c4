package main

import (
	"fmt"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/config"
	"github.com/Faultbox/golfsim/internal/engine/camera"
	"github.com/Faultbox/golfsim/internal/engine/goal"
	"github.com/Faultbox/golfsim/internal/engine/input"
	"github.com/Faultbox/golfsim/internal/engine/model"
	"github.com/Faultbox/golfsim/internal/engine/picking"
	"github.com/Faultbox/golfsim/internal/engine/renderer"
	"github.com/Faultbox/golfsim/internal/engine/window"
	"github.com/Faultbox/golfsim/internal/game"
	"github.com/Faultbox/golfsim/internal/game/sim"
	"github.com/Faultbox/golfsim/internal/logger"
	"github.com/Faultbox/golfsim/pkg/math"
)

// Part colors, indexed by goal.PartKind.
var partColors = [...]math.Vec3{
	goal.PartTerrain: {X: 0.32, Y: 0.62, Z: 0.28},
	goal.PartWalls:   {X: 0.45, Y: 0.34, Z: 0.22},
	goal.PartBottom:  {X: 0.25, Y: 0.2, Z: 0.15},
}

// maxFrame caps the wall time fed to the simulation after a stall.
const maxFrame = 0.25

type viewer struct {
	cfg      *config.Config
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	game     *game.Game

	course []*renderer.Mesh
	sphere *renderer.Mesh
	jobs   []sim.RenderJob
}

func newViewer(cfg *config.Config) (*viewer, error) {
	v := &viewer{cfg: cfg, input: input.New(), camera: camera.NewOrbitCamera()}

	var err error
	v.window, err = window.New(window.Config{
		Title:      "golfsim",
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the GL context the window created.
	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.game, err = game.New(cfg)
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		return nil, err
	}

	sphere, err := model.Sphere(model.DefaultStacks, model.DefaultSlices)
	if err != nil {
		v.Close()
		return nil, err
	}
	v.sphere = v.renderer.Upload(sphere.Vertices, sphere.Indices)
	v.uploadCourse()
	return v, nil
}

// uploadCourse replaces the course meshes with the current course and
// points the camera at it.
func (v *viewer) uploadCourse() {
	for _, m := range v.course {
		v.renderer.Release(m)
	}
	v.course = v.course[:0]

	c := v.game.Course()
	for _, kind := range goal.Kinds() {
		part := c.Mesh.Part(kind)
		verts := make([]model.Vertex, len(part.Vertices))
		for i, pv := range part.Vertices {
			verts[i] = model.Vertex(pv)
		}
		v.course = append(v.course, v.renderer.Upload(verts, part.Indices))
	}

	lo := c.Origin.Add(math.Vec3{Y: c.Mesh.BottomHeight})
	hi := c.Origin.Add(math.Vec3{X: c.Grid.Width(), Y: c.Grid.MaxHeight(), Z: c.Grid.Height()})
	v.camera.FitToBounds(lo, hi)
}

// Close releases the game, GPU resources and the window.
func (v *viewer) Close() {
	if v.game != nil {
		if err := v.game.Close(); err != nil {
			logger.Warn("teardown incomplete", zap.Error(err))
		}
	}
	v.renderer.Close()
	v.window.Close()
}

// Run is the frame loop: input, simulation, render.
func (v *viewer) Run() error {
	last := time.Now()
	fpsTimer := last
	frames := 0

	for {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if v.input.Update() {
			return nil
		}
		quit, err := v.handleEvents(dt)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}

		if err := v.game.Update(min(dt, maxFrame)); err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		v.render()
		v.window.SwapBuffers()
		v.limitFrameRate(now)

		frames++
		if now.Sub(fpsTimer) >= time.Second {
			c := v.game.Sim().Counts()
			v.window.SetTitle(fmt.Sprintf("golfsim | %d fps | %d balls, %d active, %d in goal",
				frames, c.Total, c.Active, c.Goal))
			frames = 0
			fpsTimer = now
		}
	}
}

// limitFrameRate sleeps out the rest of the frame when a limit is set and
// vsync is off.
func (v *viewer) limitFrameRate(start time.Time) {
	if v.cfg.Window.VSync || v.cfg.Window.FPSLimit <= 0 {
		return
	}
	budget := time.Second / time.Duration(v.cfg.Window.FPSLimit)
	if spent := time.Since(start); spent < budget {
		sdl.Delay(uint32((budget - spent).Milliseconds()))
	}
}

// handleEvents applies camera movement and key commands. Command
// failures are logged; only fatal conditions end the loop.
func (v *viewer) handleEvents(dt float32) (bool, error) {
	for _, e := range v.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			w, h := v.window.DrawableSize()
			v.renderer.Resize(w, h)
		case input.EventMouseMove:
			if v.input.IsButtonHeld(sdl.BUTTON_LEFT) {
				v.camera.HandleDrag(e.DeltaX, e.DeltaY)
			}
		case input.EventMouseDown:
			if e.Button == sdl.BUTTON_RIGHT {
				if err := v.dropBall(e.MouseX, e.MouseY); err != nil {
					logger.Warn("drop ball failed", zap.Error(err))
				}
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(e.DeltaY)
		case input.EventKeyDown:
			if e.Key == sdl.SCANCODE_ESCAPE {
				return true, nil
			}
			if err := v.command(e.Key); err != nil {
				logger.Warn("command failed", zap.Error(err))
			}
		}
	}

	forward := v.input.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W)
	right := v.input.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D)
	if forward != 0 || right != 0 {
		v.camera.HandleMovement(forward, right, dt)
	}
	return false, nil
}

func (v *viewer) command(key sdl.Scancode) error {
	g := v.game
	switch key {
	case sdl.SCANCODE_SPACE:
		if g.Sim().Running() {
			g.StopPhysics()
		} else {
			g.StartPhysics()
		}
	case sdl.SCANCODE_1:
		return g.InitBalls(false)
	case sdl.SCANCODE_2:
		return g.InitBalls(true)
	case sdl.SCANCODE_C:
		g.Cancel()
	case sdl.SCANCODE_B:
		_, err := g.AddBall(g.Course().Launch.Add(math.Vec3{Y: 2}), 0, sim.DefaultBallColor, true)
		return err
	case sdl.SCANCODE_E:
		return v.export()
	case sdl.SCANCODE_R:
		if err := g.Regenerate(g.Course().Seed + 1); err != nil {
			return err
		}
		v.uploadCourse()
	}
	return nil
}

// dropHeight is how far above the picked point a dropped ball starts.
const dropHeight = 2

// dropBall releases a physics ball above the course point under the cursor.
func (v *viewer) dropBall(x, y int) error {
	w, h := v.window.Size()
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), picking.Lens{
		Eye:    v.camera.Position(),
		Center: v.camera.Center,
		Up:     math.Vec3{Y: 1},
		FovY:   v.camera.FovY,
	})
	c := v.game.Course()
	p, ok := ray.IntersectHeightField(c.Grid, c.Origin)
	if !ok {
		return nil
	}
	b, err := v.game.AddBall(p.Add(math.Vec3{Y: dropHeight}), 0, sim.DefaultBallColor, true)
	if err != nil {
		return err
	}
	logger.Debug("ball dropped", zap.Int("id", b.ID), zap.Float32("x", p.X), zap.Float32("z", p.Z))
	return nil
}

func (v *viewer) export() (err error) {
	f, err := os.Create(v.cfg.Sweep.Output)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if err := v.game.Export(f); err != nil {
		return err
	}
	logger.Info("export written", zap.String("file", v.cfg.Sweep.Output))
	return nil
}

func (v *viewer) render() {
	w, h := v.window.DrawableSize()
	v.renderer.Begin(v.camera.ViewMatrix(), v.camera.ProjectionMatrix(w, h))

	courseModel := v.game.Course().Model()
	for i, m := range v.course {
		v.renderer.Draw(m, courseModel, partColors[goal.Kinds()[i]])
	}

	v.jobs = v.game.Sim().RenderJobs(v.jobs[:0])
	for _, job := range v.jobs {
		v.renderer.Draw(v.sphere, job.Model, job.Color)
	}
	v.renderer.End()
}
