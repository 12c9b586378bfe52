// Package shape generates the meshes used by the scene: boxes, spheres,
// quads, planes, a procedural ground and imported OBJ files.
package shape

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// Shape is mesh data plus the model transform baked at construction. The
// mesh is uploaded lazily on first draw.
type Shape struct {
	Data    gpu.MeshData
	ModelTr mgl32.Mat4

	b    gpu.Backend
	mesh gpu.Mesh
}

func newShape(g *geometry, modelTr mgl32.Mat4) *Shape {
	g.MergeVertices()
	g.ComputeTangents()
	return &Shape{Data: g.data(), ModelTr: modelTr}
}

// Upload creates the backend mesh if needed.
func (s *Shape) Upload(b gpu.Backend) {
	if s.mesh != 0 && s.b == b {
		return
	}
	s.b = b
	s.mesh = b.NewMesh(s.Data)
}

func (s *Shape) Draw(b gpu.Backend) {
	s.Upload(b)
	b.DrawMesh(s.mesh)
}

func (s *Shape) ModelTransform() mgl32.Mat4 {
	return s.ModelTr
}

// Delete releases the backend mesh.
func (s *Shape) Delete() {
	if s.mesh != 0 {
		s.b.DeleteMesh(s.mesh)
		s.mesh, s.b = 0, nil
	}
}

// Triangles returns the number of triangles.
func (s *Shape) Triangles() int {
	return len(s.Data.Indices) / 3
}

// Bounds returns the axis aligned bounds of the untransformed vertices.
func (s *Shape) Bounds() (lo, hi mgl32.Vec3) {
	return bounds(s.Data.Positions)
}

func bounds(ps []mgl32.Vec3) (lo, hi mgl32.Vec3) {
	if len(ps) == 0 {
		return lo, hi
	}
	lo, hi = ps[0], ps[0]
	for _, p := range ps[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi
}
