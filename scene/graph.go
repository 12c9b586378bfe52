// Package scene holds the scene graph: an arena of drawable nodes with
// stable indices, composed through per-child local transforms.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// ObjectID tags the semantic class of a node for the shaders.
type ObjectID int32

const (
	NullID ObjectID = iota
	SkyID
	SeaID
	GroundID
	RoomID
	BoxID
	FrameID
	LeftPictureID
	RightPictureID
	TeapotID
	SpheresID
	FloorID
	OtherID
)

// Geometry is drawable mesh data with a model transform baked at
// construction.
type Geometry interface {
	Draw(b gpu.Backend)
	ModelTransform() mgl32.Mat4
}

// Texture binds itself to a texture unit and a sampler uniform.
type Texture interface {
	Bind(unit int, p gpu.Program, name string)
	Unbind(unit int)
}

// Node is one renderable entity or a pure group when Geometry is nil.
type Node struct {
	Geometry Geometry
	ID       ObjectID

	Diffuse, Specular mgl32.Vec3
	Shininess         float32

	// Anim is updated per frame; the zero matrix is treated as identity.
	Anim mgl32.Mat4

	Albedo, Normal Texture
}

// Group returns a node without geometry.
func Group() Node {
	return Node{ID: NullID, Anim: mgl32.Ident4()}
}

// NodeID is a stable index into a Graph.
type NodeID int

// Root is the node every graph starts with.
const Root NodeID = 0

const none NodeID = -1

var (
	ErrUnknownNode = errors.New("unknown scene node")
	ErrCycle       = errors.New("attach would create a cycle")
)

type slot struct {
	Node

	local    mgl32.Mat4
	parent   NodeID
	children []NodeID
	removed  bool
}

// Units are the texture units node textures are bound to.
type Units struct {
	Albedo, Normal int
}

type Graph struct {
	nodes []slot
	Units Units
}

// New returns a graph holding only the root group.
func New() *Graph {
	g := &Graph{Units: Units{Albedo: 0, Normal: 1}}
	g.nodes = append(g.nodes, slot{Node: Group(), local: mgl32.Ident4(), parent: none})
	return g
}

// Add stores n unattached and returns its id.
func (g *Graph) Add(n Node) NodeID {
	if n.Anim == (mgl32.Mat4{}) {
		n.Anim = mgl32.Ident4()
	}
	g.nodes = append(g.nodes, slot{Node: n, local: mgl32.Ident4(), parent: none})
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes) && !g.nodes[id].removed
}

// Node returns a copy of node id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if !g.valid(id) {
		return Node{}, false
	}
	return g.nodes[id].Node, true
}

// Update modifies node id in place.
func (g *Graph) Update(id NodeID, fn func(n *Node)) error {
	if !g.valid(id) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	fn(&g.nodes[id].Node)
	if g.nodes[id].Anim == (mgl32.Mat4{}) {
		g.nodes[id].Anim = mgl32.Ident4()
	}
	return nil
}

// SetAnimation replaces the animation transform of id.
func (g *Graph) SetAnimation(id NodeID, m mgl32.Mat4) error {
	return g.Update(id, func(n *Node) { n.Anim = m })
}

// Attach appends child to the children of parent with the local transform.
// A child attached elsewhere is moved: a node has at most one parent.
func (g *Graph) Attach(parent, child NodeID, local mgl32.Mat4) error {
	if !g.valid(parent) || !g.valid(child) {
		return fmt.Errorf("%w: attach %d to %d", ErrUnknownNode, child, parent)
	}
	if child == Root {
		return fmt.Errorf("%w: root cannot be a child", ErrCycle)
	}
	for p := parent; p != none; p = g.nodes[p].parent {
		if p == child {
			return fmt.Errorf("%w: %d is an ancestor of %d", ErrCycle, child, parent)
		}
	}

	g.detach(child)
	g.nodes[child].parent = parent
	g.nodes[child].local = local
	g.nodes[parent].children = append(g.nodes[parent].children, child)
	return nil
}

// Detach unlinks child from its parent; it keeps its subtree.
func (g *Graph) Detach(child NodeID) error {
	if !g.valid(child) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, child)
	}
	g.detach(child)
	return nil
}

func (g *Graph) detach(child NodeID) {
	p := g.nodes[child].parent
	if p == none {
		return
	}
	cs := g.nodes[p].children
	for i, c := range cs {
		if c == child {
			copy(cs[i:], cs[i+1:])
			g.nodes[p].children = cs[:len(cs)-1]
			break
		}
	}
	g.nodes[child].parent = none
	g.nodes[child].local = mgl32.Ident4()
}

// Remove detaches id and destroys its subtree. Ids are never reused.
func (g *Graph) Remove(id NodeID) error {
	if id == Root {
		return fmt.Errorf("%w: root cannot be removed", ErrCycle)
	}
	if err := g.Detach(id); err != nil {
		return err
	}
	var rm func(NodeID)
	rm = func(n NodeID) {
		for _, c := range g.nodes[n].children {
			rm(c)
		}
		g.nodes[n] = slot{removed: true, parent: none}
	}
	rm(id)
	return nil
}

// Parent returns the parent of id, false for the root and unattached nodes.
func (g *Graph) Parent(id NodeID) (NodeID, bool) {
	if !g.valid(id) || g.nodes[id].parent == none {
		return none, false
	}
	return g.nodes[id].parent, true
}

// Children returns the ordered children of id.
func (g *Graph) Children(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return append([]NodeID(nil), g.nodes[id].children...)
}

// Local returns the transform id was attached with.
func (g *Graph) Local(id NodeID) mgl32.Mat4 {
	if !g.valid(id) {
		return mgl32.Ident4()
	}
	return g.nodes[id].local
}

// Len returns the number of live nodes including the root.
func (g *Graph) Len() int {
	n := 0
	for _, s := range g.nodes {
		if !s.removed {
			n++
		}
	}
	return n
}

func (s *slot) material() mgl32.Mat4 {
	if s.Geometry == nil {
		return mgl32.Ident4()
	}
	return s.Geometry.ModelTransform()
}

// transform composes the node's world transform from the accumulated one.
func (s *slot) transform(acc mgl32.Mat4) mgl32.Mat4 {
	return acc.Mul4(s.Anim).Mul4(s.local).Mul4(s.material())
}

// World returns the transform node id is drawn with when the root is
// drawn with the identity.
func (g *Graph) World(id NodeID) (mgl32.Mat4, bool) {
	if !g.valid(id) {
		return mgl32.Ident4(), false
	}
	var chain []NodeID
	for n := id; n != none; n = g.nodes[n].parent {
		chain = append(chain, n)
	}
	if chain[len(chain)-1] != Root {
		return mgl32.Ident4(), false
	}

	acc := mgl32.Ident4()
	for i := len(chain) - 1; i >= 0; i-- {
		acc = g.nodes[chain[i]].transform(acc)
	}
	return acc, true
}

// Walk visits the tree depth first in child order with every node's world
// transform.
func (g *Graph) Walk(acc mgl32.Mat4, fn func(id NodeID, n Node, world mgl32.Mat4)) {
	var walk func(NodeID, mgl32.Mat4)
	walk = func(id NodeID, acc mgl32.Mat4) {
		s := &g.nodes[id]
		world := s.transform(acc)
		fn(id, s.Node, world)
		for _, c := range s.children {
			walk(c, world)
		}
	}
	walk(Root, acc)
}
