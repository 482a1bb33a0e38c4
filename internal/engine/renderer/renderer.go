// Package renderer draws lit triangle meshes with OpenGL.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/golfsim/internal/engine/lighting"
	"github.com/Faultbox/golfsim/internal/engine/model"
	"github.com/Faultbox/golfsim/internal/engine/shader"
	"github.com/Faultbox/golfsim/internal/logger"
	"github.com/Faultbox/golfsim/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	// LightDir is the direction the light travels.
	LightDir math.Vec3
	Ambient  float32
}

// Mesh is an uploaded vertex/index buffer pair.
type Mesh struct {
	vao, vbo, ebo uint32
	count         int32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config  Config
	program *shader.Program
	meshes  []*Mesh
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	if cfg.LightDir == (math.Vec3{}) {
		cfg.LightDir = lighting.DefaultSun.LightDir()
	}
	if cfg.Ambient == 0 {
		cfg.Ambient = lighting.DefaultSun.Ambient
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.55, 0.7, 0.85, 1.0) // sky

	program, err := shader.New(shader.LitVertex, shader.LitFragment)
	if err != nil {
		return nil, fmt.Errorf("lit shader: %w", err)
	}
	r := &Renderer{config: cfg, program: program}
	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close releases every uploaded mesh and the shader.
func (r *Renderer) Close() {
	for _, m := range r.meshes {
		m.release()
	}
	r.meshes = nil
	r.program.Delete()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Upload copies interleaved [pos, normal] vertices and indices to the GPU.
func (r *Renderer) Upload(vertices []model.Vertex, indices []uint32) *Mesh {
	m := &Mesh{count: int32(len(indices))}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	stride := int32(unsafe.Sizeof(model.Vertex{}))
	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	if len(vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*int(stride), unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)
	}
	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	if len(indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)
	}

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	r.meshes = append(r.meshes, m)
	logger.Debug("mesh uploaded", zap.Int("vertices", len(vertices)), zap.Int("indices", len(indices)))
	return m
}

// Release deletes an uploaded mesh.
func (r *Renderer) Release(m *Mesh) {
	for i, other := range r.meshes {
		if other == m {
			r.meshes = append(r.meshes[:i], r.meshes[i+1:]...)
			break
		}
	}
	m.release()
}

func (m *Mesh) release() {
	if m.vao == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	m.vao, m.vbo, m.ebo = 0, 0, 0
}

// Begin clears the frame and sets the camera matrices.
func (r *Renderer) Begin(view, projection math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	r.program.Use()
	r.program.SetMat4("uView", view)
	r.program.SetMat4("uProjection", projection)
	r.program.SetVec3("uLightDir", r.config.LightDir)
	r.program.SetFloat("uAmbient", r.config.Ambient)
}

// Draw draws m with the given model matrix and color.
func (r *Renderer) Draw(m *Mesh, modelMatrix math.Mat4, color math.Vec3) {
	if m == nil || m.count == 0 {
		return
	}
	r.program.SetMat4("uModel", modelMatrix)
	r.program.SetVec3("uColor", color)
	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, 0)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
}
