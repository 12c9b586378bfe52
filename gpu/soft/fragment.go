package soft

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// DefaultFragments returns the fragment stages matching the embedded shader
// sources.
func DefaultFragments() map[string]FragmentFunc {
	return map[string]FragmentFunc{
		"gbuffer.frag":  gbufferFragment,
		"shadow.frag":   shadowFragment,
		"lighting.frag": lightingFragment,
		"local.frag":    localFragment,
	}
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > 0 {
		return v.Mul(1 / l)
	}
	return v
}

func mulElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func albedo(f *Fragment) mgl32.Vec3 {
	p := f.Program
	kd := p.Vec3("diffuse")
	if p.Int("hasTexture") != 0 {
		if c, ok := p.Sample("textureMap", f.UV); ok {
			kd = mulElem(kd, c.Vec3())
		}
	}
	return kd
}

// flatFragment writes the diffuse color to every output.
func flatFragment(f *Fragment) (out [gpu.MaxColorOutputs]mgl32.Vec4) {
	c := albedo(f).Vec4(1)
	for i := range out {
		out[i] = c
	}
	return out
}

// gbufferFragment writes position/depth, normal/id, diffuse and
// specular/exponent.
func gbufferFragment(f *Fragment) (out [gpu.MaxColorOutputs]mgl32.Vec4) {
	p := f.Program
	out[0] = f.World.Vec4(f.W)
	out[1] = normalize(f.Normal).Vec4(float32(p.Int("objectId")))
	out[2] = albedo(f).Vec4(1)
	out[3] = p.Vec3("specular").Vec4(p.Float("shininess"))
	return out
}

// shadowFragment stores the first four moments of the light-space depth.
func shadowFragment(f *Fragment) (out [gpu.MaxColorOutputs]mgl32.Vec4) {
	d := f.Depth
	out[0] = mgl32.Vec4{d, d * d, d * d * d, d * d * d * d}
	return out
}

// ShadowBias is the depth offset used by the software shadow test.
const ShadowBias = 1e-5

func visibility(p *Program, world mgl32.Vec3) float32 {
	sc := p.Mat4("ShadowMatrix").Mul4x1(world.Vec4(1))
	if sc[3] <= 0 {
		return 1
	}
	sc = sc.Mul(1 / sc[3])
	if sc[0] < 0 || sc[0] > 1 || sc[1] < 0 || sc[1] > 1 || sc[2] > 1 {
		return 1
	}
	m, ok := p.Sample("shadowMap", mgl32.Vec2{sc[0], sc[1]})
	if !ok || sc[2] <= m[0]+ShadowBias {
		return 1
	}
	return 0
}

// gsample returns the G-buffer attributes under the fragment, falling back
// to the fragment's own inputs when no G-buffer is bound.
func gsample(f *Fragment) (pos, n, kd mgl32.Vec3) {
	p := f.Program
	pos, n, kd = f.World, normalize(f.Normal), albedo(f)
	if g, ok := p.Fetch("G0", f.X, f.Y); ok {
		pos = g.Vec3()
	}
	if g, ok := p.Fetch("G1", f.X, f.Y); ok {
		n = normalize(g.Vec3())
	}
	if g, ok := p.Fetch("G2", f.X, f.Y); ok {
		kd = g.Vec3()
	}
	return pos, n, kd
}

// lightingFragment is a diffuse approximation of the composition shader:
// ambient scaled by occlusion plus shadowed Lambert from the main light.
func lightingFragment(f *Fragment) (out [gpu.MaxColorOutputs]mgl32.Vec4) {
	p := f.Program
	pos, n, kd := gsample(f)

	ao := float32(1)
	if a, ok := p.Fetch("AOMap", f.X, f.Y); ok && a[3] > 0 {
		ao = a[0]
	}

	l := normalize(p.Vec3("lightPos").Sub(pos))
	ndl := max(n.Dot(l), 0)

	c := mulElem(p.Vec3("Ambient"), kd).Mul(ao)
	c = c.Add(mulElem(p.Vec3("Light"), kd).Mul(ndl * visibility(p, pos)))
	out[0] = c.Vec4(1)
	return out
}

// localFragment adds one point light with quadratic falloff.
func localFragment(f *Fragment) (out [gpu.MaxColorOutputs]mgl32.Vec4) {
	p := f.Program
	pos, n, kd := gsample(f)

	v := p.Vec3("localPos").Sub(pos)
	d, r := v.Len(), p.Float("localRadius")
	if r <= 0 || d >= r {
		return out
	}
	a := 1 - d/r
	ndl := max(n.Dot(normalize(v)), 0)
	c := mulElem(p.Vec3("localColor"), kd).Mul(a * a * ndl)
	out[0] = c.Vec4(0)
	return out
}
