package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// Draw traverses the whole graph with p in use. Every node with geometry
// uploads its transforms, material and textures, then issues its draw call.
func (g *Graph) Draw(b gpu.Backend, p gpu.Program, acc mgl32.Mat4) {
	g.draw(b, p, Root, acc, NullID, false)
}

// DrawExcluding draws the graph without the subtrees of nodes tagged
// exclude. Groups tagged NullID are never excluded.
func (g *Graph) DrawExcluding(b gpu.Backend, p gpu.Program, acc mgl32.Mat4, exclude ObjectID) {
	g.draw(b, p, Root, acc, exclude, exclude != NullID)
}

func (g *Graph) draw(b gpu.Backend, p gpu.Program, id NodeID, acc mgl32.Mat4, exclude ObjectID, excluding bool) {
	s := &g.nodes[id]
	if excluding && s.ID == exclude {
		return
	}

	world := s.transform(acc)
	if s.Geometry != nil {
		p.SetVec3("diffuse", s.Diffuse)
		p.SetVec3("specular", s.Specular)
		p.SetFloat("shininess", s.Shininess)
		p.SetInt("objectId", int32(s.ID))

		p.SetMat4("ModelTr", world)
		p.SetMat4("NormalTr", world.Inv())

		if s.Albedo != nil {
			s.Albedo.Bind(g.Units.Albedo, p, "textureMap")
			p.SetInt("hasTexture", 1)
		} else {
			p.SetInt("hasTexture", 0)
		}
		if s.Normal != nil {
			s.Normal.Bind(g.Units.Normal, p, "normalMap")
			p.SetInt("hasNormal", 1)
		} else {
			p.SetInt("hasNormal", 0)
		}

		s.Geometry.Draw(b)

		if s.Albedo != nil {
			s.Albedo.Unbind(g.Units.Albedo)
		}
		if s.Normal != nil {
			s.Normal.Unbind(g.Units.Normal)
		}
	}

	for _, c := range s.children {
		g.draw(b, p, c, world, exclude, excluding)
	}
}
