package pass

import (
	"bytes"
	"errors"
	"image/color"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/der-antikeks/deferred/camera"
	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/gpu/soft"
	"github.com/der-antikeks/deferred/light"
	"github.com/der-antikeks/deferred/scene"
	"github.com/der-antikeks/deferred/shape"
	"github.com/der-antikeks/deferred/texture"
	"github.com/der-antikeks/deferred/transform"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.ShadowSize = 128
	opts.BlurWidth = 2
	opts.HammersleySamples = 4
	return opts
}

// boxScene is a textured box of half size 5 at the origin floating above a
// flat slab of ground.
func boxScene(b gpu.Backend) *scene.Graph {
	g := scene.New()

	box := g.Add(scene.Node{
		Geometry:  shape.Box(),
		ID:        scene.BoxID,
		Diffuse:   scene.WoodColor,
		Specular:  scene.PolishedSpec,
		Shininess: 10,
		Albedo:    texture.Solid(b, color.White),
	})
	g.Attach(scene.Root, box, transform.ScaleUniform(5))

	ground := g.Add(scene.Node{Geometry: shape.Box(), ID: scene.GroundID, Diffuse: scene.GrassColor, Shininess: 1})
	g.Attach(scene.Root, ground, transform.Compose(transform.Translate(0, 0, -11), transform.Scale(50, 50, 1)))

	return g
}

func overheadLight() camera.State {
	s := camera.Default()
	s.LightTilt = 0
	s.LightDist = 100
	return s
}

// topDown looks straight down from 25 units above the origin.
func topDown() camera.State {
	s := camera.Default()
	s.Spin, s.Tilt = 0, 90
	return s
}

func TestPipeline(t *testing.T) {
	opts := testOptions()
	require.NoError(t, Validate(Pipeline(opts)))

	names := func(ps []Pass) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	assert.Equal(t, []string{
		GBufferPass, ShadowPass, ShadowBlurVPass, ShadowBlurHPass, AOVPass, AOHPass, LightingPass,
	}, names(Pipeline(opts)))

	opts.LocalLights = true
	ps := Pipeline(opts)
	require.NoError(t, Validate(ps))
	assert.Equal(t, LocalLightsPass, ps[len(ps)-1].Name)
}

func TestValidate(t *testing.T) {
	ps := Pipeline(testOptions())

	// lighting before the geometry buffer
	swapped := append([]Pass{ps[len(ps)-1]}, ps[:len(ps)-1]...)
	assert.ErrorIs(t, Validate(swapped), ErrMissingInput)

	// horizontal blur before vertical
	swapped = append([]Pass(nil), ps...)
	swapped[2], swapped[3] = swapped[3], swapped[2]
	assert.ErrorIs(t, Validate(swapped), ErrMissingInput)

	dup := append(append([]Pass(nil), ps...), ps[0])
	assert.Error(t, Validate(dup))

	noGroups := append([]Pass(nil), ps...)
	noGroups[2].Groups = nil
	assert.Error(t, Validate(noGroups))

	outputs := append([]Pass(nil), ps...)
	outputs[0].Outputs = 5
	assert.Error(t, Validate(outputs))
}

func TestRender(t *testing.T) {
	b := soft.New(16, 16)
	opts := testOptions()
	opts.LocalLights = true
	opts.Lights = light.Generate(light.DefaultSeed, 4)
	opts.LightVolume = shape.Sphere(8)

	r, err := New(b, 16, 16, opts, nil)
	require.NoError(t, err)
	defer r.Close()

	g := boxScene(b)
	cam := camera.Default()
	for i := 0; i < 2; i++ {
		require.NoError(t, r.Render(g, cam.Frame(16, 16), 0))
		assert.Equal(t, r.Passes(), r.Executed())
	}
	assert.Equal(t, 2, r.Frames())

	// the box covers the center of the display
	g1, ok := b.Texel(r.Context().Target(GBuffer).Color(1), 8, 8)
	require.True(t, ok)
	assert.Equal(t, float32(scene.BoxID), g1[3])

	g0, _ := b.Texel(r.Context().Target(GBuffer).Color(0), 8, 8)
	assert.Greater(t, g0[3], float32(0), "no depth written")
}

func TestRender_Resize(t *testing.T) {
	b := soft.New(16, 16)
	r, err := New(b, 16, 16, testOptions(), nil)
	require.NoError(t, err)
	defer r.Close()

	c := r.Context()
	g := boxScene(b)
	cam := camera.Default()
	require.NoError(t, r.Render(g, cam.Frame(16, 16), 0))

	old := c.Target(GBuffer).Color(0)
	shadow := c.Target(Shadow).Color(0)

	b.ResizeDisplay(24, 20)
	require.NoError(t, r.Render(g, cam.Frame(24, 20), 0))

	for _, name := range []string{GBuffer, AOTemp, AOScalar} {
		w, h := c.Target(name).Size()
		assert.Equal(t, [2]int{24, 20}, [2]int{w, h}, "target %s", name)
		tw, th, ok := b.TextureSize(c.Target(name).Color(0))
		require.True(t, ok)
		assert.Equal(t, [2]int{24, 20}, [2]int{tw, th}, "image of %s", name)
	}
	_, _, ok := b.TextureSize(old)
	assert.False(t, ok, "old geometry buffer image still alive")

	w, h := c.Target(Shadow).Size()
	assert.Equal(t, [2]int{128, 128}, [2]int{w, h})
	assert.Equal(t, shadow, c.Target(Shadow).Color(0))
}

func TestRender_ZeroSize(t *testing.T) {
	b := soft.New(16, 16)
	r, err := New(b, 16, 16, testOptions(), nil)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Render(scene.New(), camera.Default().Frame(0, 0), 0))
	assert.Empty(t, r.Executed())
	assert.Zero(t, r.Frames())
}

func TestRender_SkipsBrokenProgram(t *testing.T) {
	b := soft.New(16, 16)
	delete(b.Kernels, "aov.compute")

	var buf bytes.Buffer
	r, err := New(b, 16, 16, testOptions(), slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)
	defer r.Close()

	assert.Nil(t, r.Context().Program("aov"))
	for i := 0; i < 2; i++ {
		require.NoError(t, r.Render(boxScene(b), camera.Default().Frame(16, 16), 0))
	}
	assert.NotContains(t, r.Executed(), AOVPass)
	assert.Contains(t, r.Executed(), AOHPass)
	assert.Contains(t, r.Executed(), LightingPass)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "pass skipped"), "warning repeated")
	assert.Contains(t, out, "stale=")
	assert.Contains(t, out, AOHPass)
	assert.Contains(t, out, LightingPass)
}

func TestDependents(t *testing.T) {
	opts := testOptions()
	opts.LocalLights = true
	ps := Pipeline(opts)

	tests := []struct {
		Pass string
		Want []string
	}{
		{GBufferPass, []string{AOVPass, AOHPass, LightingPass, LocalLightsPass}},
		{ShadowPass, []string{ShadowBlurVPass, ShadowBlurHPass, LightingPass}},
		{ShadowBlurVPass, []string{ShadowBlurHPass, LightingPass}},
		{AOVPass, []string{AOHPass, LightingPass}},
		{AOHPass, []string{AOVPass, LightingPass}},
		{LightingPass, nil},
		{"missing", nil},
	}
	for _, c := range tests {
		assert.Equal(t, c.Want, Dependents(ps, c.Pass), "dependents of %s", c.Pass)
	}
}

// failingDispatch raises an error flag on every compute dispatch.
type failingDispatch struct {
	*soft.Backend
	pending bool
}

func (f *failingDispatch) Dispatch(x, y, z int) {
	f.Backend.Dispatch(x, y, z)
	f.pending = true
}

func (f *failingDispatch) Err() error {
	if f.pending {
		f.pending = false
		return gpu.InvalidOperation
	}
	return f.Backend.Err()
}

func TestRender_BackendError(t *testing.T) {
	b := &failingDispatch{Backend: soft.New(16, 16)}
	r, err := New(b, 16, 16, testOptions(), nil)
	require.NoError(t, err)
	defer r.Close()

	err = r.Render(boxScene(b), camera.Default().Frame(16, 16), 0)
	var be *gpu.BackendError
	require.True(t, errors.As(err, &be), "expected backend error (got %v)", err)
	assert.Equal(t, ShadowBlurVPass, be.Checkpoint)
	assert.ErrorIs(t, err, gpu.InvalidOperation)
	assert.Equal(t, []string{GBufferPass, ShadowPass}, r.Executed())
}

func TestRender_Closed(t *testing.T) {
	b := soft.New(16, 16)
	r, err := New(b, 16, 16, testOptions(), nil)
	require.NoError(t, err)

	r.Close()
	r.Close()
	assert.Error(t, r.Render(scene.New(), camera.Default().Frame(16, 16), 0))
}

func TestNew_InvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.BlurWidth = MaxBlurWidth + 1
	_, err := New(soft.New(16, 16), 16, 16, opts, nil)
	assert.Error(t, err)
}

func TestShadowFootprint(t *testing.T) {
	b := soft.New(16, 16)
	r, err := New(b, 16, 16, testOptions(), nil)
	require.NoError(t, err)
	defer r.Close()

	cam := overheadLight()
	f := cam.Frame(16, 16)
	require.InDelta(t, 100, f.LightPos.Z(), 1e-4)

	g := boxScene(b)
	require.NoError(t, r.Render(g, f, 0))

	shadow := r.Context().Target(Shadow).Color(0)
	box, ok := b.Texel(shadow, 64, 64)
	require.True(t, ok)
	ground, ok := b.Texel(shadow, 10, 64)
	require.True(t, ok)

	assert.Less(t, box[0], float32(1), "box missing from shadow map")
	assert.Less(t, ground[0], float32(1), "ground missing from shadow map")
	assert.Less(t, box[0], ground[0], "box footprint must occlude the ground")

	// without the box the same texel sees the ground
	g2 := scene.New()
	gr := g.Children(scene.Root)[1]
	n, _ := g.Node(gr)
	id := g2.Add(n)
	g2.Attach(scene.Root, id, g.Local(gr))
	require.NoError(t, r.Render(g2, f, 0))

	behind, ok := b.Texel(shadow, 64, 64)
	require.True(t, ok)
	assert.Less(t, box[0], behind[0])
	assert.InDelta(t, ground[0], behind[0], 1e-4)
}

func TestRender_Sky(t *testing.T) {
	b := soft.New(32, 32)
	r, err := New(b, 32, 32, testOptions(), nil)
	require.NoError(t, err)
	defer r.Close()

	l := scene.Default(scene.Assets{Sphere: shape.Sphere(32), Box: shape.Box()})
	require.NoError(t, r.Render(l.Graph, camera.Default().Frame(32, 32), 0))

	_, _, pix, ok := b.ReadTexture(r.Context().Target(GBuffer).Color(1))
	require.True(t, ok)
	ids := map[scene.ObjectID]int{}
	for i := 3; i < len(pix); i += 4 {
		ids[scene.ObjectID(pix[i])]++
	}
	assert.Greater(t, ids[scene.SkyID], 0, "sky missing from the geometry buffer (got %v)", ids)
	assert.Greater(t, ids[scene.TeapotID], 0, "centerpiece missing (got %v)", ids)
	assert.Zero(t, ids[scene.NullID], "background left uncovered")
}

func TestRender_AmbientOcclusion(t *testing.T) {
	b := soft.New(32, 32)
	r, err := New(b, 32, 32, testOptions(), nil)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Render(boxScene(b), topDown().Frame(32, 32), 0))

	c := r.Context()
	_, _, ao, ok := b.ReadTexture(c.Target(AOScalar).Color(0))
	require.True(t, ok)
	for i := 0; i < len(ao); i += 4 {
		if ao[i] < 0 || ao[i] > 1 {
			t.Fatalf("occlusion %v out of [0,1] at texel %d", ao[i], i/4)
		}
	}

	// first ground texel right of the box on the center row
	crease := -1
	for x := 16; x < 32; x++ {
		g1, _ := b.Texel(c.Target(GBuffer).Color(1), x, 16)
		if scene.ObjectID(g1[3]) == scene.GroundID {
			crease = x
			break
		}
	}
	require.True(t, crease > 16 && crease < 29, "box edge not found (got column %d)", crease)

	near, _ := b.Texel(c.Target(AOScalar).Color(0), crease, 16)
	open, _ := b.Texel(c.Target(AOScalar).Color(0), 31, 16)
	assert.Less(t, near[0], open[0], "ground next to the box must be darker than open ground")
	assert.InDelta(t, 1, open[0], 1e-3)
}

func TestRender_Shadowed(t *testing.T) {
	b := soft.New(32, 32)
	r, err := New(b, 32, 32, testOptions(), nil)
	require.NoError(t, err)
	defer r.Close()

	// the light stands over +x, the box shadows the ground on the -x side
	cam := topDown()
	cam.LightSpin, cam.LightTilt, cam.LightDist = 0, 45, 100
	require.NoError(t, r.Render(boxScene(b), cam.Frame(32, 32), 0))

	g1 := r.Context().Target(GBuffer).Color(1)
	for _, x := range []int{1, 30} {
		v, _ := b.Texel(g1, x, 16)
		require.Equal(t, float32(scene.GroundID), v[3], "column %d is not ground", x)
	}

	im := b.Display()
	sum := func(x int) int {
		c := im.NRGBAAt(x, 31-16)
		return int(c.R) + int(c.G) + int(c.B)
	}
	assert.Less(t, sum(1), sum(30), "shadowed ground must be darker than lit ground")
	assert.Greater(t, sum(1), 0, "ambient light missing in the shadow")
}

func TestRender_HistoryReset(t *testing.T) {
	b := soft.New(16, 16)
	r, err := New(b, 16, 16, testOptions(), nil)
	require.NoError(t, err)
	defer r.Close()

	g, cam := boxScene(b), topDown()
	// the vertical occlusion stage stores the history validity in z
	valid := func() float32 {
		v, ok := b.Texel(r.Context().Target(AOTemp).Color(0), 4, 4)
		require.True(t, ok)
		return v[2]
	}

	require.NoError(t, r.Render(g, cam.Frame(16, 16), 0))
	assert.Zero(t, valid(), "history valid on the first frame")
	require.NoError(t, r.Render(g, cam.Frame(16, 16), 0))
	assert.Equal(t, float32(1), valid())

	b.ResizeDisplay(24, 20)
	require.NoError(t, r.Render(g, cam.Frame(24, 20), 0))
	assert.Zero(t, valid(), "history survived the resize")
	require.NoError(t, r.Render(g, cam.Frame(24, 20), 0))
	assert.Equal(t, float32(1), valid())
}
