// Package opengl implements gpu.Backend on OpenGL 4.3 core. New must be
// called with a current context; all methods must then be called from the
// thread owning it.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

type texture struct {
	w, h   int
	format gpu.Format
}

type Backend struct {
	textures map[gpu.Texture]texture
	meshes   map[gpu.Mesh]*mesh

	bound gpu.Framebuffer
}

// New loads the OpenGL function pointers and sets the fixed state.
func New() (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initialize OpenGL: %w", err)
	}

	// clearing
	gl.ClearDepth(1)

	// depth
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	// cull face
	gl.FrontFace(gl.CCW)

	return &Backend{
		textures: map[gpu.Texture]texture{},
		meshes:   map[gpu.Mesh]*mesh{},
	}, nil
}

// Version returns the version and renderer strings of the context.
func (b *Backend) Version() (version, renderer string) {
	return gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER))
}

func (b *Backend) Err() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return gpu.ErrorCode(code)
	}
	return nil
}

// textures

func (b *Backend) NewTexture(img gpu.Image) gpu.Texture {
	var t uint32
	gl.GenTextures(1, &t)
	gl.BindTexture(gl.TEXTURE_2D, t)

	var data unsafe.Pointer
	wrap := int32(gl.CLAMP_TO_EDGE)
	switch img.Format {
	case gpu.RGBA32F:
		if len(img.PixF) > 0 {
			data, wrap = gl.Ptr(img.PixF), gl.REPEAT
		}
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(img.Width), int32(img.Height), 0, gl.RGBA, gl.FLOAT, data)
	default:
		if len(img.Pix8) > 0 {
			data, wrap = gl.Ptr(img.Pix8), gl.REPEAT
		}
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Width), int32(img.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, data)
	}

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	b.textures[gpu.Texture(t)] = texture{w: img.Width, h: img.Height, format: img.Format}
	return gpu.Texture(t)
}

func (b *Backend) TextureSize(t gpu.Texture) (w, h int, ok bool) {
	tex, ok := b.textures[t]
	return tex.w, tex.h, ok
}

func (b *Backend) BindTexture(unit int, t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (b *Backend) BindImage(unit int, t gpu.Texture, access gpu.Access) {
	mode := uint32(gl.READ_WRITE)
	switch access {
	case gpu.ReadOnly:
		mode = gl.READ_ONLY
	case gpu.WriteOnly:
		mode = gl.WRITE_ONLY
	}
	gl.BindImageTexture(uint32(unit), uint32(t), 0, false, 0, mode, gl.RGBA32F)
}

func (b *Backend) DeleteTexture(t gpu.Texture) {
	tex := uint32(t)
	gl.DeleteTextures(1, &tex)
	delete(b.textures, t)
}

// depth buffers

func (b *Backend) NewRenderbuffer(w, h int) gpu.Renderbuffer {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(w), int32(h))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return gpu.Renderbuffer(rb)
}

func (b *Backend) DeleteRenderbuffer(rb gpu.Renderbuffer) {
	r := uint32(rb)
	gl.DeleteRenderbuffers(1, &r)
}

// framebuffers

func (b *Backend) NewFramebuffer() gpu.Framebuffer {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	return gpu.Framebuffer(fb)
}

// with binds fb for the duration of fn and restores the bound framebuffer.
func (b *Backend) with(fb gpu.Framebuffer, fn func()) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	fn()
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(b.bound))
}

func (b *Backend) AttachColor(fb gpu.Framebuffer, slot int, t gpu.Texture) {
	b.with(fb, func() {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(slot), gl.TEXTURE_2D, uint32(t), 0)
	})
}

func (b *Backend) AttachDepth(fb gpu.Framebuffer, rb gpu.Renderbuffer) {
	b.with(fb, func() {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, uint32(rb))
	})
}

func (b *Backend) CheckFramebuffer(fb gpu.Framebuffer) error {
	var status uint32
	b.with(fb, func() {
		status = gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	})
	if status != gl.FRAMEBUFFER_COMPLETE {
		return &gpu.IncompleteError{Status: status}
	}
	return nil
}

func (b *Backend) BindFramebuffer(fb gpu.Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	b.bound = fb
}

func (b *Backend) DrawBuffers(n int) {
	if b.bound == gpu.Display {
		gl.DrawBuffer(gl.BACK)
		return
	}
	bufs := make([]uint32, n)
	for i := range bufs {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	if n > 0 {
		gl.DrawBuffers(int32(n), &bufs[0])
	}
}

func (b *Backend) DeleteFramebuffer(fb gpu.Framebuffer) {
	f := uint32(fb)
	gl.DeleteFramebuffers(1, &f)
	if b.bound == fb {
		b.bound = gpu.Display
	}
}

// state

func (b *Backend) Viewport(w, h int) {
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (b *Backend) Clear(c mgl32.Vec4) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (b *Backend) Cull(f gpu.Face) {
	switch f {
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	case gpu.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	default:
		gl.Disable(gl.CULL_FACE)
	}
}

func (b *Backend) DepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (b *Backend) BlendAdditive(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	} else {
		gl.Disable(gl.BLEND)
	}
}

// uniform buffers

func (b *Backend) NewUniformBuffer(data []float32) gpu.Buffer {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.UNIFORM_BUFFER, buf)
	gl.BufferData(gl.UNIFORM_BUFFER, len(data)*4, gl.Ptr(data), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return gpu.Buffer(buf)
}

func (b *Backend) UpdateUniformBuffer(buf gpu.Buffer, data []float32) {
	gl.BindBuffer(gl.UNIFORM_BUFFER, uint32(buf))
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data)*4, gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (b *Backend) BindUniformBuffer(bindpoint int, buf gpu.Buffer) {
	gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(bindpoint), uint32(buf))
}

func (b *Backend) DeleteBuffer(buf gpu.Buffer) {
	u := uint32(buf)
	gl.DeleteBuffers(1, &u)
}

// compute

func (b *Backend) Dispatch(x, y, z int) {
	gl.DispatchCompute(uint32(x), uint32(y), uint32(z))
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)
}
