package soft

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// Fragment carries the interpolated inputs of one covered pixel.
type Fragment struct {
	X, Y   int
	Depth  float32 // window depth in [0,1]
	W      float32 // clip-space w
	World  mgl32.Vec3
	Normal mgl32.Vec3
	UV     mgl32.Vec2

	Program *Program
}

// FragmentFunc computes the color outputs of a fragment. Outputs beyond the
// framebuffer's active draw buffers are dropped.
type FragmentFunc func(f *Fragment) [gpu.MaxColorOutputs]mgl32.Vec4

type vertexOut struct {
	clip   mgl32.Vec4
	world  mgl32.Vec3
	normal mgl32.Vec3
	uv     mgl32.Vec2

	sx, sy, sz float32 // window coordinates
}

func (b *Backend) DrawMesh(m gpu.Mesh) {
	data, ok := b.meshes[m]
	if !ok {
		b.fail(gpu.InvalidOperation)
		return
	}
	p := b.current
	if p == nil || p.fragmentFn == nil {
		b.fail(gpu.InvalidOperation)
		return
	}

	colors, depth := b.targets()
	w, h := b.vw, b.vh
	for _, s := range colors {
		if s != nil {
			w, h = min(w, s.w), min(h, s.h)
		}
	}
	if depth != nil {
		w, h = min(w, depth.w), min(h, depth.h)
	}

	model := p.Mat4("ModelTr")
	mvp := p.Mat4("WorldProj").Mul4(p.Mat4("WorldView")).Mul4(model)
	normalTr := model
	if n, ok := p.mats["NormalTr"]; ok {
		normalTr = n.Transpose()
	}

	vertex := func(i uint32) vertexOut {
		pos := data.Positions[i].Vec4(1)
		o := vertexOut{
			clip:  mvp.Mul4x1(pos),
			world: model.Mul4x1(pos).Vec3(),
		}
		if int(i) < len(data.Normals) {
			o.normal = normalTr.Mul4x1(data.Normals[i].Vec4(0)).Vec3()
		}
		if int(i) < len(data.UVs) {
			o.uv = data.UVs[i]
		}
		if o.clip[3] > 0 {
			iw := 1 / o.clip[3]
			o.sx = (o.clip[0]*iw*0.5 + 0.5) * float32(b.vw)
			o.sy = (o.clip[1]*iw*0.5 + 0.5) * float32(b.vh)
			o.sz = o.clip[2]*iw*0.5 + 0.5
		}
		return o
	}

	for t := 0; t+2 < len(data.Indices); t += 3 {
		tri := [3]vertexOut{
			vertex(data.Indices[t]),
			vertex(data.Indices[t+1]),
			vertex(data.Indices[t+2]),
		}
		b.rasterize(p, tri, colors, depth, w, h)
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// rasterize fills one triangle. Triangles crossing the eye plane are
// dropped instead of clipped.
func (b *Backend) rasterize(p *Program, v [3]vertexOut, colors []*surface, depth *depthbuffer, w, h int) {
	const eps = 1e-6
	for _, o := range v {
		if o.clip[3] <= eps {
			return
		}
	}

	area := edge(v[0].sx, v[0].sy, v[1].sx, v[1].sy, v[2].sx, v[2].sy)
	if area == 0 {
		return
	}
	front := area > 0
	if (b.cull == gpu.CullBack && !front) || (b.cull == gpu.CullFront && front) {
		return
	}

	minX := int(math32.Floor(min(v[0].sx, v[1].sx, v[2].sx)))
	maxX := int(math32.Ceil(max(v[0].sx, v[1].sx, v[2].sx)))
	minY := int(math32.Floor(min(v[0].sy, v[1].sy, v[2].sy)))
	maxY := int(math32.Ceil(max(v[0].sy, v[1].sy, v[2].sy)))
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, w-1), min(maxY, h-1)

	iw := [3]float32{1 / v[0].clip[3], 1 / v[1].clip[3], 1 / v[2].clip[3]}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			l0 := edge(v[1].sx, v[1].sy, v[2].sx, v[2].sy, px, py) / area
			l1 := edge(v[2].sx, v[2].sy, v[0].sx, v[0].sy, px, py) / area
			l2 := 1 - l0 - l1
			if l0 < 0 || l1 < 0 || l2 < 0 {
				continue
			}

			z := l0*v[0].sz + l1*v[1].sz + l2*v[2].sz
			if z < 0 || z > 1 {
				continue
			}
			if b.depthTest && depth != nil {
				i := y*depth.w + x
				if z >= depth.z[i] {
					continue
				}
				depth.z[i] = z
			}

			// perspective correct weights
			c0, c1, c2 := l0*iw[0], l1*iw[1], l2*iw[2]
			sum := c0 + c1 + c2
			c0, c1, c2 = c0/sum, c1/sum, c2/sum

			f := &Fragment{
				X: x, Y: y,
				Depth:   z,
				W:       1 / sum,
				World:   v[0].world.Mul(c0).Add(v[1].world.Mul(c1)).Add(v[2].world.Mul(c2)),
				Normal:  v[0].normal.Mul(c0).Add(v[1].normal.Mul(c1)).Add(v[2].normal.Mul(c2)),
				UV:      v[0].uv.Mul(c0).Add(v[1].uv.Mul(c1)).Add(v[2].uv.Mul(c2)),
				Program: p,
			}
			out := p.fragmentFn(f)
			for i, s := range colors {
				if s == nil {
					continue
				}
				if b.blend {
					s.add(x, y, out[i])
				} else {
					s.set(x, y, out[i])
				}
			}
		}
	}
}
