package soft

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// Program stores uniform values set by the renderer and the Go functions
// standing in for its shader stages.
type Program struct {
	b *Backend

	vertex, fragment, compute string
	fragmentFn                FragmentFunc
	kernelFn                  KernelFunc

	ints     map[string]int32
	floats   map[string]float32
	vec3s    map[string]mgl32.Vec3
	vec4s    map[string]mgl32.Vec4
	mats     map[string]mgl32.Mat4
	samplers map[string]int
	blocks   map[string]int

	deleted bool
}

func (b *Backend) NewProgram(attribs []gpu.Attrib, sources ...gpu.Source) (gpu.Program, error) {
	p := &Program{
		b:        b,
		ints:     map[string]int32{},
		floats:   map[string]float32{},
		vec3s:    map[string]mgl32.Vec3{},
		vec4s:    map[string]mgl32.Vec4{},
		mats:     map[string]mgl32.Mat4{},
		samplers: map[string]int{},
		blocks:   map[string]int{},
	}

	for _, s := range sources {
		switch s.Stage {
		case gpu.VertexStage:
			p.vertex = s.Name
		case gpu.FragmentStage:
			p.fragment = s.Name
			fn, ok := b.Fragments[s.Name]
			if !ok {
				fn = flatFragment
			}
			p.fragmentFn = fn
		case gpu.ComputeStage:
			p.compute = s.Name
			fn, ok := b.Kernels[s.Name]
			if !ok {
				return nil, fmt.Errorf("compute shader error: unknown kernel %q", s.Name)
			}
			p.kernelFn = fn
		}
	}

	switch {
	case p.compute != "" && (p.vertex != "" || p.fragment != ""):
		return nil, fmt.Errorf("linker error: compute stage %q mixed with graphics stages", p.compute)
	case p.compute == "" && (p.vertex == "" || p.fragment == ""):
		return nil, fmt.Errorf("linker error: program needs vertex and fragment stages (got %q, %q)", p.vertex, p.fragment)
	}

	return p, nil
}

func (p *Program) Use() {
	if p.deleted {
		p.b.fail(gpu.InvalidOperation)
		return
	}
	p.b.current = p
}

func (p *Program) Unuse() {
	if p.b.current == p {
		p.b.current = nil
	}
}

func (p *Program) Delete() {
	p.deleted = true
	p.Unuse()
}

func (p *Program) SetInt(name string, v int32)       { p.ints[name] = v }
func (p *Program) SetFloat(name string, v float32)   { p.floats[name] = v }
func (p *Program) SetVec3(name string, v mgl32.Vec3) { p.vec3s[name] = v }
func (p *Program) SetVec4(name string, v mgl32.Vec4) { p.vec4s[name] = v }
func (p *Program) SetMat4(name string, m mgl32.Mat4) { p.mats[name] = m }
func (p *Program) SetSampler(name string, unit int)  { p.samplers[name] = unit }
func (p *Program) SetBlock(name string, bp int)      { p.blocks[name] = bp }

// Int returns the integer uniform name, 0 if unset.
func (p *Program) Int(name string) int32 { return p.ints[name] }

// Float returns the float uniform name, 0 if unset.
func (p *Program) Float(name string) float32 { return p.floats[name] }

// Vec3 returns the vec3 uniform name, zero if unset.
func (p *Program) Vec3(name string) mgl32.Vec3 { return p.vec3s[name] }

// Mat4 returns the matrix uniform name, identity if unset.
func (p *Program) Mat4(name string) mgl32.Mat4 {
	if m, ok := p.mats[name]; ok {
		return m
	}
	return mgl32.Ident4()
}

// Block returns the contents of the buffer behind the uniform block name.
func (p *Program) Block(name string) []float32 {
	bp, ok := p.blocks[name]
	if !ok {
		return nil
	}
	return p.b.buffers[p.b.ubos[bp]]
}

// Sample reads the texture bound to the sampler name at uv with clamp to
// edge and nearest filtering.
func (p *Program) Sample(name string, uv mgl32.Vec2) (mgl32.Vec4, bool) {
	unit, ok := p.samplers[name]
	if !ok {
		return mgl32.Vec4{}, false
	}
	s, ok := p.b.textures[p.b.units[unit]]
	if !ok {
		return mgl32.Vec4{}, false
	}
	return s.at(int(uv[0]*float32(s.w)), int(uv[1]*float32(s.h))), true
}

// Fetch reads the texel (x, y) of the texture behind the sampler name.
func (p *Program) Fetch(name string, x, y int) (mgl32.Vec4, bool) {
	unit, ok := p.samplers[name]
	if !ok {
		return mgl32.Vec4{}, false
	}
	s, ok := p.b.textures[p.b.units[unit]]
	if !ok {
		return mgl32.Vec4{}, false
	}
	return s.at(x, y), true
}
