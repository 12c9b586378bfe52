package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/transform"
)

// recorder is a program that keeps the last value of every uniform and
// logs one draw per geometry.
type recorder struct {
	ints  map[string]int32
	mats  map[string]mgl32.Mat4
	vec3s map[string]mgl32.Vec3
	units map[string]int

	draws []draw
}

type draw struct {
	ID         ObjectID
	Model      mgl32.Mat4
	Normal     mgl32.Mat4
	Diffuse    mgl32.Vec3
	HasTexture int32
}

func newRecorder() *recorder {
	return &recorder{
		ints:  map[string]int32{},
		mats:  map[string]mgl32.Mat4{},
		vec3s: map[string]mgl32.Vec3{},
		units: map[string]int{},
	}
}

func (r *recorder) Use()                              {}
func (r *recorder) Unuse()                            {}
func (r *recorder) Delete()                           {}
func (r *recorder) SetInt(name string, v int32)       { r.ints[name] = v }
func (r *recorder) SetFloat(string, float32)          {}
func (r *recorder) SetVec3(name string, v mgl32.Vec3) { r.vec3s[name] = v }
func (r *recorder) SetVec4(string, mgl32.Vec4)        {}
func (r *recorder) SetMat4(name string, m mgl32.Mat4) { r.mats[name] = m }
func (r *recorder) SetSampler(name string, unit int)  { r.units[name] = unit }
func (r *recorder) SetBlock(string, int)              {}

type geometry struct {
	rec     *recorder
	modelTr mgl32.Mat4
}

func (g geometry) Draw(gpu.Backend) {
	g.rec.draws = append(g.rec.draws, draw{
		ID:         ObjectID(g.rec.ints["objectId"]),
		Model:      g.rec.mats["ModelTr"],
		Normal:     g.rec.mats["NormalTr"],
		Diffuse:    g.rec.vec3s["diffuse"],
		HasTexture: g.rec.ints["hasTexture"],
	})
}

func (g geometry) ModelTransform() mgl32.Mat4 {
	if g.modelTr == (mgl32.Mat4{}) {
		return mgl32.Ident4()
	}
	return g.modelTr
}

type texture struct {
	bound *[]int
}

func (t texture) Bind(unit int, p gpu.Program, name string) {
	*t.bound = append(*t.bound, unit)
	p.SetSampler(name, unit)
}

func (t texture) Unbind(unit int) {
	*t.bound = append(*t.bound, -unit-1)
}

func TestWorldTransform(t *testing.T) {
	rec := newRecorder()
	g := New()

	a := g.Add(Group())
	b := g.Add(Group())
	leaf := g.Add(Node{
		Geometry: geometry{rec: rec, modelTr: transform.ScaleUniform(2)},
		ID:       BoxID,
		Anim:     transform.Rotate(transform.Z, 90),
	})

	require.NoError(t, g.Attach(Root, a, transform.Translate(1, 0, 0)))
	require.NoError(t, g.Attach(a, b, transform.Translate(0, 2, 0)))
	require.NoError(t, g.Attach(b, leaf, transform.Translate(0, 0, 3)))

	want := transform.Compose(
		transform.Translate(1, 0, 0),
		transform.Translate(0, 2, 0),
		transform.Rotate(transform.Z, 90),
		transform.Translate(0, 0, 3),
		transform.ScaleUniform(2),
	)

	world, ok := g.World(leaf)
	require.True(t, ok)
	assert.True(t, transform.Equal(want, world, 1e-5), "world\n%v\nwant\n%v", world, want)

	g.Draw(nil, rec, mgl32.Ident4())
	require.Len(t, rec.draws, 1)
	assert.True(t, transform.Equal(want, rec.draws[0].Model, 1e-5))
	assert.True(t, transform.Equal(want.Inv(), rec.draws[0].Normal, 1e-4))
	assert.Equal(t, BoxID, rec.draws[0].ID)

	p := transform.Point(world, mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 1, p.X(), 1e-5)
	assert.InDelta(t, 4, p.Y(), 1e-5)
	assert.InDelta(t, 3, p.Z(), 1e-5)
}

func TestWorldTransform_Unattached(t *testing.T) {
	g := New()
	n := g.Add(Group())

	_, ok := g.World(n)
	assert.False(t, ok)

	_, ok = g.World(NodeID(42))
	assert.False(t, ok)
}

func TestAttach(t *testing.T) {
	g := New()
	a := g.Add(Group())
	b := g.Add(Group())
	c := g.Add(Group())

	require.NoError(t, g.Attach(Root, a, mgl32.Ident4()))
	require.NoError(t, g.Attach(Root, b, mgl32.Ident4()))
	require.NoError(t, g.Attach(a, c, transform.Translate(1, 2, 3)))
	assert.Equal(t, []NodeID{a, b}, g.Children(Root))

	// moving keeps a single parent
	require.NoError(t, g.Attach(b, c, transform.Translate(4, 5, 6)))
	assert.Empty(t, g.Children(a))
	assert.Equal(t, []NodeID{c}, g.Children(b))
	parent, ok := g.Parent(c)
	assert.True(t, ok)
	assert.Equal(t, b, parent)
	assert.Equal(t, transform.Translate(4, 5, 6), g.Local(c))

	tests := []struct {
		Parent, Child NodeID
		Err           error
	}{
		{c, b, ErrCycle},
		{b, b, ErrCycle},
		{a, Root, ErrCycle},
		{a, NodeID(99), ErrUnknownNode},
		{NodeID(-3), a, ErrUnknownNode},
	}
	for _, tc := range tests {
		err := g.Attach(tc.Parent, tc.Child, mgl32.Ident4())
		assert.True(t, errors.Is(err, tc.Err), "attach %d to %d: %v", tc.Child, tc.Parent, err)
	}
}

func TestRemove(t *testing.T) {
	g := New()
	a := g.Add(Group())
	b := g.Add(Group())
	require.NoError(t, g.Attach(Root, a, mgl32.Ident4()))
	require.NoError(t, g.Attach(a, b, mgl32.Ident4()))
	assert.Equal(t, 3, g.Len())

	require.NoError(t, g.Remove(a))
	assert.Equal(t, 1, g.Len())
	assert.Empty(t, g.Children(Root))

	_, ok := g.Node(b)
	assert.False(t, ok)
	assert.ErrorIs(t, g.Remove(a), ErrUnknownNode)
	assert.ErrorIs(t, g.Remove(Root), ErrCycle)

	// ids are not reused
	c := g.Add(Group())
	assert.Equal(t, NodeID(3), c)
}

func TestDrawExcluding(t *testing.T) {
	rec := newRecorder()
	g := New()
	geo := geometry{rec: rec}

	ground := g.Add(Node{Geometry: geo, ID: GroundID})
	box := g.Add(Node{Geometry: geo, ID: BoxID})
	onBox := g.Add(Node{Geometry: geo, ID: TeapotID})
	group := g.Add(Group())
	inGroup := g.Add(Node{Geometry: geo, ID: SpheresID})

	require.NoError(t, g.Attach(Root, ground, mgl32.Ident4()))
	require.NoError(t, g.Attach(Root, box, mgl32.Ident4()))
	require.NoError(t, g.Attach(box, onBox, mgl32.Ident4()))
	require.NoError(t, g.Attach(Root, group, mgl32.Ident4()))
	require.NoError(t, g.Attach(group, inGroup, mgl32.Ident4()))

	ids := func() []ObjectID {
		var out []ObjectID
		for _, d := range rec.draws {
			out = append(out, d.ID)
		}
		rec.draws = nil
		return out
	}

	g.Draw(nil, rec, mgl32.Ident4())
	assert.Equal(t, []ObjectID{GroundID, BoxID, TeapotID, SpheresID}, ids())

	g.DrawExcluding(nil, rec, mgl32.Ident4(), BoxID)
	assert.Equal(t, []ObjectID{GroundID, SpheresID}, ids())

	g.DrawExcluding(nil, rec, mgl32.Ident4(), NullID)
	assert.Equal(t, []ObjectID{GroundID, BoxID, TeapotID, SpheresID}, ids())
}

func TestDrawTextures(t *testing.T) {
	rec := newRecorder()
	var bound []int
	tex := texture{bound: &bound}

	g := New()
	g.Units = Units{Albedo: 3, Normal: 5}
	plain := g.Add(Node{Geometry: geometry{rec: rec}, ID: BoxID, Diffuse: WoodColor})
	textured := g.Add(Node{Geometry: geometry{rec: rec}, ID: TeapotID, Albedo: tex, Normal: tex})
	require.NoError(t, g.Attach(Root, plain, mgl32.Ident4()))
	require.NoError(t, g.Attach(Root, textured, mgl32.Ident4()))

	g.Draw(nil, rec, mgl32.Ident4())
	require.Len(t, rec.draws, 2)
	assert.Equal(t, int32(0), rec.draws[0].HasTexture)
	assert.Equal(t, WoodColor, rec.draws[0].Diffuse)
	assert.Equal(t, int32(1), rec.draws[1].HasTexture)
	assert.Equal(t, int32(1), rec.ints["hasNormal"])
	assert.Equal(t, 3, rec.units["textureMap"])
	assert.Equal(t, 5, rec.units["normalMap"])
	assert.Equal(t, []int{3, 5, -4, -6}, bound)
}

func TestSetAnimation(t *testing.T) {
	g := New()
	n := g.Add(Group())
	require.NoError(t, g.Attach(Root, n, mgl32.Ident4()))

	require.NoError(t, g.SetAnimation(n, transform.Translate(0, 0, 1)))
	world, _ := g.World(n)
	assert.Equal(t, transform.Translate(0, 0, 1), world)

	// zero resets to identity
	require.NoError(t, g.SetAnimation(n, mgl32.Mat4{}))
	world, _ = g.World(n)
	assert.Equal(t, mgl32.Ident4(), world)

	assert.ErrorIs(t, g.SetAnimation(NodeID(7), mgl32.Ident4()), ErrUnknownNode)
}

func TestHSV2RGB(t *testing.T) {
	tests := []struct {
		H, S, V float32
		Want    mgl32.Vec3
	}{
		{0, 0, 0.5, mgl32.Vec3{0.5, 0.5, 0.5}},
		{0, 1, 1, mgl32.Vec3{1, 0, 0}},
		{1.0 / 3, 1, 1, mgl32.Vec3{0, 1, 0}},
		{2.0 / 3, 1, 1, mgl32.Vec3{0, 0, 1}},
		{1.0 / 6, 1, 1, mgl32.Vec3{1, 1, 0}},
		{0.5, 0.5, 1, mgl32.Vec3{0.5, 1, 1}},
		{1, 1, 1, mgl32.Vec3{1, 0, 0}},
	}

	for _, c := range tests {
		got := HSV2RGB(c.H, c.S, c.V)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, c.Want[k], got[k], 1e-5, "hsv(%v, %v, %v) = %v, want %v", c.H, c.S, c.V, got, c.Want)
		}
	}
}

func TestSphereOfSpheres(t *testing.T) {
	rec := newRecorder()
	g := New()
	group := SphereOfSpheres(g, geometry{rec: rec})
	require.NoError(t, g.Attach(Root, group, mgl32.Ident4()))

	children := g.Children(group)
	require.Len(t, children, 20*6)

	first, _ := g.Node(children[0])
	last, _ := g.Node(children[len(children)-1])
	assert.Equal(t, float32(50), first.Shininess)
	assert.Equal(t, float32(50+119*100), last.Shininess)
	assert.Equal(t, SpheresID, first.ID)

	// every sphere center lies on the unit sphere above the xy plane
	for _, c := range children {
		world, ok := g.World(c)
		require.True(t, ok)
		p := transform.Point(world, mgl32.Vec3{})
		assert.InDelta(t, 1, p.Len(), 1e-4)
		assert.GreaterOrEqual(t, p.Z(), float32(0))
	}
}

func TestFramedPicture(t *testing.T) {
	rec := newRecorder()
	g := New()
	frame := FramedPicture(g, LeftPictureID, geometry{rec: rec}, geometry{rec: rec}, nil)
	require.NoError(t, g.Attach(Root, frame, mgl32.Ident4()))

	g.Draw(nil, rec, mgl32.Ident4())
	require.Len(t, rec.draws, 5)
	for _, d := range rec.draws[:4] {
		assert.Equal(t, FrameID, d.ID)
	}
	assert.Equal(t, LeftPictureID, rec.draws[4].ID)
}

func TestDefault(t *testing.T) {
	rec := newRecorder()
	geo := geometry{rec: rec}

	l := Default(Assets{Sphere: geo, Box: geo, Ground: geo, Elevation: 2, ShowSpheres: true})
	g := l.Graph

	n, ok := g.Node(l.Centerpiece)
	require.True(t, ok)
	assert.Equal(t, TeapotID, n.ID)
	assert.Equal(t, BrassColor, n.Diffuse)

	parent, _ := g.Parent(l.Centerpiece)
	assert.Equal(t, l.Anim, parent)
	parent, _ = g.Parent(l.Spheres)
	assert.Equal(t, l.Anim, parent)

	world, ok := g.World(l.Centerpiece)
	require.True(t, ok)
	p := transform.Point(world, mgl32.Vec3{})
	assert.InDelta(t, 3.5, p.Z(), 1e-5)

	sky, _ := g.World(l.Sky)
	assert.InDelta(t, 2000, sky[0], 1e-3)

	g.Draw(nil, rec, mgl32.Ident4())
	// sky, ground, podium, centerpiece and the spheres
	assert.Len(t, rec.draws, 4+120)

	l = Default(Assets{Sphere: geo})
	assert.Equal(t, none, l.Ground)
	assert.Equal(t, none, l.Spheres)
}
