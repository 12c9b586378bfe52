package pass

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/camera"
	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/light"
	"github.com/der-antikeks/deferred/scene"
	"github.com/der-antikeks/deferred/shaders"
	"github.com/der-antikeks/deferred/target"
	"github.com/der-antikeks/deferred/texture"
)

// Target names.
const (
	GBuffer    = "gbuffer"
	Shadow     = "shadow"
	ShadowBlur = "shadowBlur"
	AOTemp     = "aoTemp"
	AOScalar   = "aoScalar"
)

// Options configure a renderer.
type Options struct {
	ShadowSize        int
	BlurWidth         int
	HammersleySamples int

	Light, Ambient mgl32.Vec3
	ClearColor     mgl32.Vec4

	// environment maps, black when nil
	Radiance, Irradiance *texture.Texture

	LocalLights bool
	Lights      []light.Light
	LightVolume scene.Geometry

	Shaders shaders.Loader
}

func DefaultOptions() Options {
	return Options{
		ShadowSize:        1000,
		BlurWidth:         10,
		HammersleySamples: 40,
		Light:             mgl32.Vec3{3, 3, 3},
		Ambient:           mgl32.Vec3{0.2, 0.2, 0.2},
		ClearColor:        mgl32.Vec4{0.5, 0.5, 0.5, 1},
	}
}

// Context is the state shared by the passes of a renderer.
type Context struct {
	Backend gpu.Backend
	Log     *slog.Logger
	Options Options

	// per frame
	Scene *scene.Graph
	Frame camera.Frame
	Mode  int32

	targets  map[string]*target.Target
	programs map[string]gpu.Program

	kernel, hammersley   gpu.Buffer
	radiance, irradiance *texture.Texture
	ownEnv               []*texture.Texture

	units *units
}

// Target returns the named off-screen target, nil if unknown.
func (c *Context) Target(name string) *target.Target {
	return c.targets[name]
}

// Program returns the named program, nil if it failed to build.
func (c *Context) Program(name string) gpu.Program {
	return c.programs[name]
}

// BindTarget binds color image i of the named target to the next free
// texture unit as sampler name.
func (c *Context) BindTarget(p gpu.Program, name string, t string, i int) error {
	tg := c.targets[t]
	if tg == nil {
		return fmt.Errorf("unknown target %s", t)
	}
	return c.BindTexture(p, name, tg.Color(i))
}

// BindTexture binds t to the next free texture unit as sampler name.
func (c *Context) BindTexture(p gpu.Program, name string, t gpu.Texture) error {
	unit, err := c.units.next()
	if err != nil {
		return fmt.Errorf("sampler %s: %w", name, err)
	}
	c.Backend.BindTexture(unit, t)
	p.SetSampler(name, unit)
	return nil
}

// BindImages binds the source and destination images of a compute pass to
// image units 0 and 1.
func (c *Context) BindImages(p gpu.Program, src, dst string) {
	c.Backend.BindImage(0, c.targets[src].Color(0), gpu.ReadOnly)
	c.Backend.BindImage(1, c.targets[dst].Color(0), gpu.WriteOnly)
	p.SetInt("src", 0)
	p.SetInt("dst", 1)
}

// BindKernel points the blur kernel block at its buffer.
func (c *Context) BindKernel(p gpu.Program) {
	c.Backend.BindUniformBuffer(KernelBindpoint, c.kernel)
	p.SetBlock("blurKernel", KernelBindpoint)
	p.SetInt("w", int32(c.Options.BlurWidth))
}

// SetCamera uploads the camera and light matrices of the frame.
func (c *Context) SetCamera(p gpu.Program) {
	f := &c.Frame
	p.SetMat4("WorldProj", f.WorldProj)
	p.SetMat4("WorldView", f.WorldView)
	p.SetMat4("WorldInverse", f.WorldInverse)
	p.SetMat4("ShadowMatrix", f.ShadowMatrix)
	p.SetVec3("eyePos", f.Eye)
	p.SetVec3("lightPos", f.LightPos)
	p.SetVec3("Light", c.Options.Light)
	p.SetVec3("Ambient", c.Options.Ambient)
	p.SetInt("mode", c.Mode)
}

func (c *Context) releaseUnits() {
	for _, u := range c.units.taken() {
		c.Backend.BindTexture(u, 0)
	}
	c.units.reset()
}

// programs built by every renderer and their stages
var programSources = map[string][]string{
	"gbuffer":  {"gbuffer.vert", "gbuffer.frag"},
	"shadow":   {"shadow.vert", "shadow.frag"},
	"shadowv":  {"shadowv.compute"},
	"shadowh":  {"shadowh.compute"},
	"aov":      {"aov.compute"},
	"aoh":      {"aoh.compute"},
	"lighting": {"lighting.vert", "lighting.frag"},
	"local":    {"local.vert", "local.frag"},
}

func (c *Context) buildPrograms(passes []Pass) {
	for _, p := range passes {
		if _, ok := c.programs[p.Program]; ok {
			continue
		}
		srcs, err := c.Options.Shaders.Program(programSources[p.Program]...)
		if err == nil && len(srcs) == 0 {
			err = fmt.Errorf("no shader stages")
		}
		var prog gpu.Program
		if err == nil {
			prog, err = c.Backend.NewProgram(gpu.Attribs, srcs...)
		}
		if err != nil {
			c.Log.Error("shader program failed", "program", p.Program, "pass", p.Name, "err", err)
			prog = nil
		}
		c.programs[p.Program] = prog
	}
}

func (c *Context) newTarget(name string, w, h int, multi bool) {
	t, err := target.New(c.Backend, w, h, multi)
	if err != nil {
		c.Log.Error("render target", "target", name, "err", err)
	}
	c.targets[name] = t
}

// resize recreates the display sized targets when the display changed.
func (c *Context) resize(w, h int) bool {
	gw, gh := c.targets[GBuffer].Size()
	if gw == w && gh == h && !c.targets[GBuffer].Destroyed() {
		return false
	}
	c.Log.Debug("resize", "from", fmt.Sprintf("%dx%d", gw, gh), "to", fmt.Sprintf("%dx%d", w, h))

	for _, name := range []string{GBuffer, AOTemp, AOScalar} {
		if err := c.targets[name].Resize(w, h); err != nil {
			c.Log.Error("render target", "target", name, "err", err)
		}
	}
	c.resetHistory()
	return true
}

// resetHistory clears the occlusion accumulated over previous frames.
func (c *Context) resetHistory() {
	if err := c.targets[AOScalar].Bind(); err != nil {
		return
	}
	c.Backend.DrawBuffers(1)
	c.Backend.Clear(mgl32.Vec4{})
	c.targets[AOScalar].Unbind()
}

func (c *Context) environment() {
	c.radiance, c.irradiance = c.Options.Radiance, c.Options.Irradiance
	if c.radiance == nil {
		c.radiance = texture.Solid(c.Backend, color.Black)
		c.ownEnv = append(c.ownEnv, c.radiance)
	}
	if c.irradiance == nil {
		c.irradiance = texture.Solid(c.Backend, color.Black)
		c.ownEnv = append(c.ownEnv, c.irradiance)
	}
}

func (c *Context) buffers() error {
	kernel, err := KernelBlock(c.Options.BlurWidth)
	if err != nil {
		return err
	}
	hammersley, err := Hammersley(c.Options.HammersleySamples)
	if err != nil {
		return err
	}
	c.kernel = c.Backend.NewUniformBuffer(kernel)
	c.hammersley = c.Backend.NewUniformBuffer(hammersley)
	return nil
}

func (c *Context) close() {
	for _, t := range c.targets {
		t.Destroy()
	}
	for _, p := range c.programs {
		if p != nil {
			p.Delete()
		}
	}
	for _, t := range c.ownEnv {
		t.Delete()
	}
	if c.kernel != 0 {
		c.Backend.DeleteBuffer(c.kernel)
	}
	if c.hammersley != 0 {
		c.Backend.DeleteBuffer(c.hammersley)
	}
	c.targets, c.programs, c.ownEnv = nil, nil, nil
	c.kernel, c.hammersley = 0, 0
}

var errClosed = errors.New("renderer closed")
