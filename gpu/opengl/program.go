package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// Program is a linked program. Uniform locations are looked up on first
// use and cached; names the program does not declare are ignored.
type Program struct {
	program  uint32
	uniforms map[string]int32
}

func shaderType(s gpu.Stage) uint32 {
	switch s {
	case gpu.VertexStage:
		return gl.VERTEX_SHADER
	case gpu.FragmentStage:
		return gl.FRAGMENT_SHADER
	default:
		return gl.COMPUTE_SHADER
	}
}

func compile(src gpu.Source) (uint32, error) {
	shader := gl.CreateShader(shaderType(src.Stage))
	csources, free := gl.Strs(src.Code + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csources, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetShaderInfoLog(shader, length, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%v shader error in %s: %v", src.Stage, src.Name, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (b *Backend) NewProgram(attribs []gpu.Attrib, sources ...gpu.Source) (gpu.Program, error) {
	program := gl.CreateProgram()

	for _, src := range sources {
		shader, err := compile(src)
		if err != nil {
			gl.DeleteProgram(program)
			return nil, err
		}
		gl.AttachShader(program, shader)
		// flagged for deletion, freed with the program
		gl.DeleteShader(shader)
	}

	// attribute slots must be fixed before linking
	for _, a := range attribs {
		gl.BindAttribLocation(program, a.Slot, gl.Str(a.Name+"\x00"))
	}

	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetProgramInfoLog(program, length, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("linker error: %v", strings.TrimRight(log, "\x00"))
	}

	return &Program{program: program, uniforms: map[string]int32{}}, nil
}

func (p *Program) location(name string) int32 {
	if l, ok := p.uniforms[name]; ok {
		return l
	}
	l := gl.GetUniformLocation(p.program, gl.Str(name+"\x00"))
	p.uniforms[name] = l
	return l
}

func (p *Program) Use()   { gl.UseProgram(p.program) }
func (p *Program) Unuse() { gl.UseProgram(0) }

func (p *Program) SetInt(name string, v int32) {
	if l := p.location(name); l >= 0 {
		gl.ProgramUniform1i(p.program, l, v)
	}
}

func (p *Program) SetFloat(name string, v float32) {
	if l := p.location(name); l >= 0 {
		gl.ProgramUniform1f(p.program, l, v)
	}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if l := p.location(name); l >= 0 {
		gl.ProgramUniform3fv(p.program, l, 1, &v[0])
	}
}

func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	if l := p.location(name); l >= 0 {
		gl.ProgramUniform4fv(p.program, l, 1, &v[0])
	}
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if l := p.location(name); l >= 0 {
		gl.ProgramUniformMatrix4fv(p.program, l, 1, false, &m[0])
	}
}

func (p *Program) SetSampler(name string, unit int) {
	p.SetInt(name, int32(unit))
}

func (p *Program) SetBlock(name string, bindpoint int) {
	idx := gl.GetUniformBlockIndex(p.program, gl.Str(name+"\x00"))
	if idx != gl.INVALID_INDEX {
		gl.UniformBlockBinding(p.program, idx, uint32(bindpoint))
	}
}

func (p *Program) Delete() {
	gl.DeleteProgram(p.program)
	p.program = 0
	p.uniforms = map[string]int32{}
}
