package soft

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// Kernel is the invocation context of a compute stage: the image bound to
// the unit named by the "src" uniform (default 0) is read, the one named by
// "dst" (default 1) is written.
type Kernel struct {
	Program  *Program
	src, dst *surface
}

// Size returns the size of the destination image.
func (k *Kernel) Size() (w, h int) { return k.dst.w, k.dst.h }

// Load reads the source image, clamped to its edges.
func (k *Kernel) Load(x, y int) mgl32.Vec4 { return k.src.at(x, y) }

// Store writes the destination image.
func (k *Kernel) Store(x, y int, v mgl32.Vec4) { k.dst.set(x, y, v) }

// KernelFunc processes the whole destination image in one call.
type KernelFunc func(k *Kernel)

// DefaultKernels returns the compute stages matching the embedded shader
// sources.
func DefaultKernels() map[string]KernelFunc {
	return map[string]KernelFunc{
		"shadowv.compute": blur(0, 1),
		"shadowh.compute": blur(1, 0),
		"aov.compute":     occlusion(0, 1, false),
		"aoh.compute":     occlusion(1, 0, true),
	}
}

func (p *Program) unit(name string, def int) int {
	if v, ok := p.ints[name]; ok {
		return int(v)
	}
	return def
}

func (b *Backend) Dispatch(x, y, z int) {
	p := b.current
	if p == nil || p.kernelFn == nil {
		b.fail(gpu.InvalidOperation)
		return
	}
	if x <= 0 || y <= 0 || z <= 0 {
		b.fail(gpu.InvalidValue)
		return
	}

	src, ok := b.images[p.unit("src", 0)]
	if !ok || src.access == gpu.WriteOnly {
		b.fail(gpu.InvalidOperation)
		return
	}
	dst, ok := b.images[p.unit("dst", 1)]
	if !ok || dst.access == gpu.ReadOnly {
		b.fail(gpu.InvalidOperation)
		return
	}

	p.kernelFn(&Kernel{
		Program: p,
		src:     b.textures[src.texture],
		dst:     b.textures[dst.texture],
	})
}

// weights reads the blur kernel block, one weight per std140 vec4 slot.
func weights(p *Program) (ws []float32, w int) {
	w = int(p.Int("w"))
	block := p.Block("blurKernel")
	if w < 0 || len(block) < (2*w+1)*4 {
		return []float32{1}, 0
	}
	ws = make([]float32, 2*w+1)
	for i := range ws {
		ws[i] = block[i*4]
	}
	return ws, w
}

// blur convolves along (dx, dy) with the kernel weights.
func blur(dx, dy int) KernelFunc {
	return func(k *Kernel) {
		ws, w := weights(k.Program)
		width, height := k.Size()
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				var sum mgl32.Vec4
				for i := -w; i <= w; i++ {
					sum = sum.Add(k.Load(x+i*dx, y+i*dy).Mul(ws[i+w]))
				}
				k.Store(x, y, sum)
			}
		}
	}
}

// AOStrength scales the estimated obscurance.
const AOStrength = 1.5

func obscurance(p, n, q mgl32.Vec3) float32 {
	v := q.Sub(p)
	d2 := v.Dot(v)
	if d2 < 1e-8 {
		return 0
	}
	return max(n.Dot(v), 0) / (d2 + 0.1)
}

// occlusion estimates obscurance from G-buffer neighbours along (dx, dy).
// The vertical stage stores (estimate, previous ao, previous valid, 1); the
// horizontal stage adds its own estimate and blends with the previous frame.
func occlusion(dx, dy int, final bool) KernelFunc {
	return func(k *Kernel) {
		p := k.Program
		ws, w := weights(p)
		width, height := k.Size()
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g0, ok0 := p.Fetch("G0", x, y)
				g1, ok1 := p.Fetch("G1", x, y)
				var occ float32
				if ok0 && ok1 {
					pos, n := g0.Vec3(), normalize(g1.Vec3())
					for i := -w; i <= w; i++ {
						if i == 0 {
							continue
						}
						q, _ := p.Fetch("G0", x+i*dx, y+i*dy)
						occ += ws[i+w] * obscurance(pos, n, q.Vec3())
					}
				}

				in := k.Load(x, y)
				if !final {
					k.Store(x, y, mgl32.Vec4{occ, in[0], in[3], 1})
					continue
				}

				ao := 1 - AOStrength*(occ+in[0])
				ao = min(max(ao, 0), 1)
				if in[2] > 0 {
					ao = 0.5*ao + 0.5*in[1]
				}
				k.Store(x, y, mgl32.Vec4{ao, ao, ao, 1})
			}
		}
	}
}
