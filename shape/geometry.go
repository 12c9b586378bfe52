package shape

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/transform"
)

type Vertex struct {
	position mgl32.Vec3
	normal   mgl32.Vec3
	uv       mgl32.Vec2
	tangent  mgl32.Vec3
}

func (v Vertex) Key(precision int) string {
	return fmt.Sprintf("%v_%v_%v_%v_%v_%v_%v_%v",
		transform.Round(v.position[0], precision),
		transform.Round(v.position[1], precision),
		transform.Round(v.position[2], precision),

		transform.Round(v.normal[0], precision),
		transform.Round(v.normal[1], precision),
		transform.Round(v.normal[2], precision),

		transform.Round(v.uv[0], precision),
		transform.Round(v.uv[1], precision),
	)
}

type face struct {
	A, B, C int
}

// geometry collects triangles before they are packed into gpu.MeshData.
type geometry struct {
	vertices []Vertex
	faces    []face
}

func (g *geometry) AddFace(a, b, c Vertex) {
	offset := len(g.vertices)
	g.vertices = append(g.vertices, a, b, c)
	g.faces = append(g.faces, face{offset, offset + 1, offset + 2})
}

// MergeVertices removes duplicate vertices and the faces that degenerate.
func (g *geometry) MergeVertices() {
	lookup := map[string]int{}
	unique := []Vertex{}
	changed := make([]int, len(g.vertices))

	for i, v := range g.vertices {
		key := v.Key(4)

		if j, found := lookup[key]; !found {
			// new vertex
			lookup[key] = i
			unique = append(unique, v)
			changed[i] = len(unique) - 1
		} else {
			// duplicate vertex
			changed[i] = changed[j]
		}
	}

	// change faces
	cleaned := []face{}
	for _, f := range g.faces {
		a, b, c := changed[f.A], changed[f.B], changed[f.C]
		if a == b || b == c || c == a {
			// degenerated face, remove
			continue
		}

		cleaned = append(cleaned, face{a, b, c})
	}

	g.vertices = unique
	g.faces = cleaned
}

// ComputeTangents derives per-vertex tangents from the uv layout.
func (g *geometry) ComputeTangents() {
	acc := make([]mgl32.Vec3, len(g.vertices))
	for _, f := range g.faces {
		a, b, c := g.vertices[f.A], g.vertices[f.B], g.vertices[f.C]
		e1, e2 := b.position.Sub(a.position), c.position.Sub(a.position)
		d1, d2 := b.uv.Sub(a.uv), c.uv.Sub(a.uv)

		det := d1[0]*d2[1] - d2[0]*d1[1]
		if det == 0 {
			continue
		}
		t := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(1 / det)
		for _, i := range []int{f.A, f.B, f.C} {
			acc[i] = acc[i].Add(t)
		}
	}

	for i := range g.vertices {
		n := g.vertices[i].normal
		t := acc[i].Sub(n.Mul(n.Dot(acc[i])))
		if t.Len() < 1e-6 {
			t = perpendicular(n)
		}
		g.vertices[i].tangent = t.Normalize()
	}
}

// ComputeNormals replaces all normals by area weighted face normals.
func (g *geometry) ComputeNormals() {
	acc := make([]mgl32.Vec3, len(g.vertices))
	for _, f := range g.faces {
		a, b, c := g.vertices[f.A].position, g.vertices[f.B].position, g.vertices[f.C].position
		n := b.Sub(a).Cross(c.Sub(a))
		acc[f.A] = acc[f.A].Add(n)
		acc[f.B] = acc[f.B].Add(n)
		acc[f.C] = acc[f.C].Add(n)
	}
	for i := range g.vertices {
		if acc[i].Len() > 0 {
			g.vertices[i].normal = acc[i].Normalize()
		}
	}
}

func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	if n[0] < 0.9 && n[0] > -0.9 {
		return mgl32.Vec3{1, 0, 0}.Sub(n.Mul(n[0]))
	}
	return mgl32.Vec3{0, 1, 0}.Sub(n.Mul(n[1]))
}

func (g *geometry) data() gpu.MeshData {
	n := len(g.vertices)
	m := gpu.MeshData{
		Positions: make([]mgl32.Vec3, n),
		Normals:   make([]mgl32.Vec3, n),
		UVs:       make([]mgl32.Vec2, n),
		Tangents:  make([]mgl32.Vec3, n),
		Indices:   make([]uint32, 0, len(g.faces)*3),
	}

	for i, v := range g.vertices {
		m.Positions[i] = v.position
		m.Normals[i] = v.normal
		m.UVs[i] = v.uv
		m.Tangents[i] = v.tangent
	}

	for _, f := range g.faces {
		m.Indices = append(m.Indices, uint32(f.A), uint32(f.B), uint32(f.C))
	}

	return m
}
