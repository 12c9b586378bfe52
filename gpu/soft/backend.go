// Package soft is a software implementation of gpu.Backend.
//
// It rasterizes indexed triangles into float RGBA images with a depth
// buffer, follows the OpenGL conventions for framebuffers, draw buffers,
// face culling and error flags, and replaces shader code by Go functions
// looked up through the shader source name.
package soft

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

// framebuffer status values, equal to the OpenGL ones
const (
	statusIncompleteAttachment uint32 = 0x8CD6
	statusMissingAttachment    uint32 = 0x8CD7
	statusIncompleteDimensions uint32 = 0x8CD9
)

type surface struct {
	w, h int
	pix  []float32 // rgba, row 0 at the bottom
}

func newSurface(w, h int) *surface {
	return &surface{w: w, h: h, pix: make([]float32, w*h*4)}
}

func (s *surface) at(x, y int) mgl32.Vec4 {
	if x < 0 {
		x = 0
	} else if x >= s.w {
		x = s.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= s.h {
		y = s.h - 1
	}
	i := (y*s.w + x) * 4
	return mgl32.Vec4{s.pix[i], s.pix[i+1], s.pix[i+2], s.pix[i+3]}
}

func (s *surface) set(x, y int, c mgl32.Vec4) {
	i := (y*s.w + x) * 4
	copy(s.pix[i:i+4], c[:])
}

func (s *surface) add(x, y int, c mgl32.Vec4) {
	i := (y*s.w + x) * 4
	for k := 0; k < 4; k++ {
		s.pix[i+k] += c[k]
	}
}

type depthbuffer struct {
	w, h int
	z    []float32
}

func newDepthbuffer(w, h int) *depthbuffer {
	d := &depthbuffer{w: w, h: h, z: make([]float32, w*h)}
	d.clear()
	return d
}

func (d *depthbuffer) clear() {
	for i := range d.z {
		d.z[i] = 1
	}
}

type framebuffer struct {
	color       [gpu.MaxColorOutputs]gpu.Texture
	depth       gpu.Renderbuffer
	drawBuffers int
}

type imageBinding struct {
	texture gpu.Texture
	access  gpu.Access
}

// Backend holds all software resources. It is not safe for concurrent use,
// like the single command stream it models.
type Backend struct {
	next uint32

	textures      map[gpu.Texture]*surface
	renderbuffers map[gpu.Renderbuffer]*depthbuffer
	framebuffers  map[gpu.Framebuffer]*framebuffer
	buffers       map[gpu.Buffer][]float32
	meshes        map[gpu.Mesh]gpu.MeshData

	display      *surface
	displayDepth *depthbuffer

	bound     gpu.Framebuffer
	vw, vh    int
	cull      gpu.Face
	depthTest bool
	blend     bool

	units   map[int]gpu.Texture
	images  map[int]imageBinding
	ubos    map[int]gpu.Buffer
	current *Program

	// Fragments and Kernels resolve shader sources by name.
	Fragments map[string]FragmentFunc
	Kernels   map[string]KernelFunc

	err gpu.ErrorCode
}

// New returns a backend with a display surface of w x h pixels.
func New(w, h int) *Backend {
	b := &Backend{
		textures:      map[gpu.Texture]*surface{},
		renderbuffers: map[gpu.Renderbuffer]*depthbuffer{},
		framebuffers:  map[gpu.Framebuffer]*framebuffer{},
		buffers:       map[gpu.Buffer][]float32{},
		meshes:        map[gpu.Mesh]gpu.MeshData{},
		units:         map[int]gpu.Texture{},
		images:        map[int]imageBinding{},
		ubos:          map[int]gpu.Buffer{},
		Fragments:     DefaultFragments(),
		Kernels:       DefaultKernels(),
	}
	b.ResizeDisplay(w, h)
	return b
}

// ResizeDisplay reallocates the display surface, as a window resize would.
func (b *Backend) ResizeDisplay(w, h int) {
	b.display = newSurface(w, h)
	b.displayDepth = newDepthbuffer(w, h)
	b.vw, b.vh = w, h
}

// DisplaySize returns the size of the display surface.
func (b *Backend) DisplaySize() (w, h int) {
	return b.display.w, b.display.h
}

func (b *Backend) handle() uint32 {
	b.next++
	return b.next
}

// fail records the first error until the flag is polled.
func (b *Backend) fail(code gpu.ErrorCode) {
	if b.err == gpu.NoError {
		b.err = code
	}
}

func (b *Backend) Err() error {
	code := b.err
	b.err = gpu.NoError
	if code == gpu.NoError {
		return nil
	}
	return code
}

func (b *Backend) NewTexture(img gpu.Image) gpu.Texture {
	if img.Width <= 0 || img.Height <= 0 {
		b.fail(gpu.InvalidValue)
		return 0
	}
	s := newSurface(img.Width, img.Height)
	switch {
	case img.Format == gpu.RGBA32F && img.PixF != nil:
		copy(s.pix, img.PixF)
	case img.Format == gpu.RGBA8 && img.Pix8 != nil:
		for i := 0; i < len(s.pix) && i < len(img.Pix8); i++ {
			s.pix[i] = float32(img.Pix8[i]) / 255
		}
	}
	t := gpu.Texture(b.handle())
	b.textures[t] = s
	return t
}

func (b *Backend) TextureSize(t gpu.Texture) (w, h int, ok bool) {
	s, ok := b.textures[t]
	if !ok {
		return 0, 0, false
	}
	return s.w, s.h, true
}

func (b *Backend) BindTexture(unit int, t gpu.Texture) {
	if t == 0 {
		delete(b.units, unit)
		return
	}
	if _, ok := b.textures[t]; !ok {
		b.fail(gpu.InvalidOperation)
		return
	}
	b.units[unit] = t
}

func (b *Backend) BindImage(unit int, t gpu.Texture, access gpu.Access) {
	if _, ok := b.textures[t]; !ok {
		b.fail(gpu.InvalidValue)
		return
	}
	b.images[unit] = imageBinding{texture: t, access: access}
}

func (b *Backend) DeleteTexture(t gpu.Texture) {
	delete(b.textures, t)
	for u, bt := range b.units {
		if bt == t {
			delete(b.units, u)
		}
	}
	for u, bi := range b.images {
		if bi.texture == t {
			delete(b.images, u)
		}
	}
}

// ReadTexture returns a copy of the texture's RGBA floats, bottom row first.
func (b *Backend) ReadTexture(t gpu.Texture) (w, h int, pix []float32, ok bool) {
	s, ok := b.textures[t]
	if !ok {
		return 0, 0, nil, false
	}
	return s.w, s.h, append([]float32(nil), s.pix...), true
}

// Texel returns one texel of t.
func (b *Backend) Texel(t gpu.Texture, x, y int) (mgl32.Vec4, bool) {
	s, ok := b.textures[t]
	if !ok || x < 0 || y < 0 || x >= s.w || y >= s.h {
		return mgl32.Vec4{}, false
	}
	return s.at(x, y), true
}

func (b *Backend) NewRenderbuffer(w, h int) gpu.Renderbuffer {
	if w <= 0 || h <= 0 {
		b.fail(gpu.InvalidValue)
		return 0
	}
	rb := gpu.Renderbuffer(b.handle())
	b.renderbuffers[rb] = newDepthbuffer(w, h)
	return rb
}

func (b *Backend) DeleteRenderbuffer(rb gpu.Renderbuffer) {
	delete(b.renderbuffers, rb)
}

func (b *Backend) NewFramebuffer() gpu.Framebuffer {
	fb := gpu.Framebuffer(b.handle())
	b.framebuffers[fb] = &framebuffer{drawBuffers: 1}
	return fb
}

func (b *Backend) AttachColor(fb gpu.Framebuffer, slot int, t gpu.Texture) {
	f, ok := b.framebuffers[fb]
	if !ok || slot < 0 || slot >= gpu.MaxColorOutputs {
		b.fail(gpu.InvalidOperation)
		return
	}
	f.color[slot] = t
}

func (b *Backend) AttachDepth(fb gpu.Framebuffer, rb gpu.Renderbuffer) {
	f, ok := b.framebuffers[fb]
	if !ok {
		b.fail(gpu.InvalidOperation)
		return
	}
	f.depth = rb
}

func (b *Backend) CheckFramebuffer(fb gpu.Framebuffer) error {
	if fb == gpu.Display {
		return nil
	}
	f, ok := b.framebuffers[fb]
	if !ok {
		return fmt.Errorf("unknown framebuffer %d", fb)
	}

	w, h, n := -1, -1, 0
	same := func(sw, sh int) bool {
		if w < 0 {
			w, h = sw, sh
			return true
		}
		return w == sw && h == sh
	}
	for _, t := range f.color {
		if t == 0 {
			continue
		}
		s, ok := b.textures[t]
		if !ok {
			return &gpu.IncompleteError{Status: statusIncompleteAttachment}
		}
		if !same(s.w, s.h) {
			return &gpu.IncompleteError{Status: statusIncompleteDimensions}
		}
		n++
	}
	if f.depth != 0 {
		d, ok := b.renderbuffers[f.depth]
		if !ok {
			return &gpu.IncompleteError{Status: statusIncompleteAttachment}
		}
		if !same(d.w, d.h) {
			return &gpu.IncompleteError{Status: statusIncompleteDimensions}
		}
	}
	if n == 0 {
		return &gpu.IncompleteError{Status: statusMissingAttachment}
	}
	return nil
}

func (b *Backend) BindFramebuffer(fb gpu.Framebuffer) {
	if fb != gpu.Display {
		if _, ok := b.framebuffers[fb]; !ok {
			b.fail(gpu.InvalidOperation)
			return
		}
	}
	b.bound = fb
}

func (b *Backend) DrawBuffers(n int) {
	if n < 1 || n > gpu.MaxColorOutputs {
		b.fail(gpu.InvalidValue)
		return
	}
	if b.bound == gpu.Display {
		if n != 1 {
			b.fail(gpu.InvalidOperation)
		}
		return
	}
	b.framebuffers[b.bound].drawBuffers = n
}

func (b *Backend) DeleteFramebuffer(fb gpu.Framebuffer) {
	delete(b.framebuffers, fb)
	if b.bound == fb {
		b.bound = gpu.Display
	}
}

func (b *Backend) Viewport(w, h int) {
	if w < 0 || h < 0 {
		b.fail(gpu.InvalidValue)
		return
	}
	b.vw, b.vh = w, h
}

// targets returns the active color surfaces and the depth buffer of the
// bound framebuffer. Missing attachments are nil.
func (b *Backend) targets() (colors []*surface, depth *depthbuffer) {
	if b.bound == gpu.Display {
		return []*surface{b.display}, b.displayDepth
	}
	f := b.framebuffers[b.bound]
	for i := 0; i < f.drawBuffers; i++ {
		colors = append(colors, b.textures[f.color[i]])
	}
	return colors, b.renderbuffers[f.depth]
}

func (b *Backend) Clear(c mgl32.Vec4) {
	colors, depth := b.targets()
	for _, s := range colors {
		if s == nil {
			continue
		}
		for i := 0; i < len(s.pix); i += 4 {
			copy(s.pix[i:i+4], c[:])
		}
	}
	if depth != nil {
		depth.clear()
	}
}

func (b *Backend) Cull(f gpu.Face)            { b.cull = f }
func (b *Backend) DepthTest(enabled bool)     { b.depthTest = enabled }
func (b *Backend) BlendAdditive(enabled bool) { b.blend = enabled }

func (b *Backend) NewUniformBuffer(data []float32) gpu.Buffer {
	buf := gpu.Buffer(b.handle())
	b.buffers[buf] = append([]float32(nil), data...)
	return buf
}

func (b *Backend) UpdateUniformBuffer(buf gpu.Buffer, data []float32) {
	if _, ok := b.buffers[buf]; !ok {
		b.fail(gpu.InvalidOperation)
		return
	}
	b.buffers[buf] = append(b.buffers[buf][:0], data...)
}

func (b *Backend) BindUniformBuffer(bindpoint int, buf gpu.Buffer) {
	if _, ok := b.buffers[buf]; !ok {
		b.fail(gpu.InvalidOperation)
		return
	}
	b.ubos[bindpoint] = buf
}

func (b *Backend) DeleteBuffer(buf gpu.Buffer) {
	delete(b.buffers, buf)
}

func (b *Backend) NewMesh(m gpu.MeshData) gpu.Mesh {
	if len(m.Indices)%3 != 0 {
		b.fail(gpu.InvalidValue)
		return 0
	}
	h := gpu.Mesh(b.handle())
	b.meshes[h] = m
	return h
}

func (b *Backend) DeleteMesh(m gpu.Mesh) {
	delete(b.meshes, m)
}

// Display converts the display surface to an 8-bit image, top row first.
func (b *Backend) Display() *image.NRGBA {
	s := b.display
	img := image.NewNRGBA(image.Rect(0, 0, s.w, s.h))
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			c := s.at(x, y)
			img.SetNRGBA(x, s.h-1-y, color.NRGBA{
				R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: 255,
			})
		}
	}
	return img
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
