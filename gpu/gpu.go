// Package gpu defines the graphics backend the renderer drives.
//
// The contract follows OpenGL closely: handles are small integers, zero is
// the null handle (framebuffer 0 is the display surface), errors accumulate
// in a flag that is polled with Err.
package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

type (
	Texture      uint32
	Renderbuffer uint32
	Framebuffer  uint32
	Buffer       uint32
	Mesh         uint32
)

// Display is the framebuffer of the visible surface.
const Display Framebuffer = 0

// MaxColorOutputs is the number of color slots a framebuffer offers.
const MaxColorOutputs = 4

type Format int

const (
	RGBA8 Format = iota
	RGBA32F
)

type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

type Face int

const (
	CullNone Face = iota
	CullFront
	CullBack
)

type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
	ComputeStage
)

func (s Stage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	case ComputeStage:
		return "compute"
	}
	return "unknown"
}

// Source is one named shader stage.
type Source struct {
	Stage Stage
	Name  string
	Code  string
}

// Attrib binds a vertex attribute name to a slot before linking.
type Attrib struct {
	Name string
	Slot uint32
}

// Vertex attribute slots used by every mesh.
const (
	SlotPosition uint32 = iota
	SlotNormal
	SlotUV
	SlotTangent
)

// Attribs lists the standard attribute bindings.
var Attribs = []Attrib{
	{"vertex", SlotPosition},
	{"vertexNormal", SlotNormal},
	{"vertexTexture", SlotUV},
	{"vertexTangent", SlotTangent},
}

// Image describes texture storage. Pix8 is used for RGBA8, PixF for RGBA32F;
// both nil leaves the storage uninitialized.
type Image struct {
	Width, Height int
	Format        Format
	Pix8          []uint8
	PixF          []float32
}

// MeshData is indexed triangle geometry.
type MeshData struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Tangents  []mgl32.Vec3
	Indices   []uint32
}

// Program is a linked shader program. Setting an input the program does not
// declare is silently ignored.
type Program interface {
	Use()
	Unuse()

	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec3(name string, v mgl32.Vec3)
	SetVec4(name string, v mgl32.Vec4)
	SetMat4(name string, m mgl32.Mat4)

	// SetSampler points a sampler uniform at a texture unit.
	SetSampler(name string, unit int)
	// SetBlock points a uniform block at a buffer bind point.
	SetBlock(name string, bindpoint int)

	Delete()
}

type Backend interface {
	NewTexture(img Image) Texture
	TextureSize(t Texture) (w, h int, ok bool)
	BindTexture(unit int, t Texture)
	BindImage(unit int, t Texture, access Access)
	DeleteTexture(t Texture)

	NewRenderbuffer(w, h int) Renderbuffer
	DeleteRenderbuffer(rb Renderbuffer)

	NewFramebuffer() Framebuffer
	AttachColor(fb Framebuffer, slot int, t Texture)
	AttachDepth(fb Framebuffer, rb Renderbuffer)
	// CheckFramebuffer returns nil if fb is complete.
	CheckFramebuffer(fb Framebuffer) error
	BindFramebuffer(fb Framebuffer)
	// DrawBuffers activates color slots 0..n-1 of the bound framebuffer.
	DrawBuffers(n int)
	DeleteFramebuffer(fb Framebuffer)

	Viewport(w, h int)
	Clear(c mgl32.Vec4)
	Cull(f Face)
	DepthTest(enabled bool)
	BlendAdditive(enabled bool)

	NewProgram(attribs []Attrib, sources ...Source) (Program, error)

	NewUniformBuffer(data []float32) Buffer
	UpdateUniformBuffer(b Buffer, data []float32)
	BindUniformBuffer(bindpoint int, b Buffer)
	DeleteBuffer(b Buffer)

	NewMesh(m MeshData) Mesh
	DrawMesh(m Mesh)
	DeleteMesh(m Mesh)

	// Dispatch runs the bound compute program and waits for its image writes
	// to become visible.
	Dispatch(x, y, z int)

	// Err returns and clears the pending error flag.
	Err() error
}
