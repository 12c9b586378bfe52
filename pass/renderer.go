package pass

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/camera"
	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/scene"
	"github.com/der-antikeks/deferred/target"
)

// Renderer owns the context and runs the passes in order once per frame.
type Renderer struct {
	ctx    *Context
	passes []Pass

	skipped  map[string]bool
	executed []string
	frames   int
}

// New creates the targets, programs and uniform buffers for a display of
// w x h pixels. Targets that fail validation and programs that fail to
// build are logged; rendering continues without them. Only an invalid pass
// sequence, invalid options or a backend error are returned.
func New(b gpu.Backend, w, h int, opts Options, log *slog.Logger) (*Renderer, error) {
	if log == nil {
		log = slog.Default()
	}

	passes := Pipeline(opts)
	if err := Validate(passes); err != nil {
		return nil, err
	}

	c := &Context{
		Backend:  b,
		Log:      log,
		Options:  opts,
		targets:  map[string]*target.Target{},
		programs: map[string]gpu.Program{},
		units:    newUnits(0, 1),
	}
	r := &Renderer{ctx: c, passes: passes, skipped: map[string]bool{}}

	if err := c.buffers(); err != nil {
		return nil, err
	}

	c.newTarget(GBuffer, w, h, true)
	c.newTarget(Shadow, opts.ShadowSize, opts.ShadowSize, false)
	c.newTarget(ShadowBlur, opts.ShadowSize, opts.ShadowSize, false)
	c.newTarget(AOTemp, w, h, false)
	c.newTarget(AOScalar, w, h, false)
	c.resetHistory()

	c.environment()
	c.buildPrograms(passes)

	if err := gpu.Check(b, "renderer init"); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Context returns the shared pass state.
func (r *Renderer) Context() *Context { return r.ctx }

// Passes returns the pass names in execution order.
func (r *Renderer) Passes() []string {
	names := make([]string, len(r.passes))
	for i, p := range r.passes {
		names[i] = p.Name
	}
	return names
}

// Executed returns the passes run by the last frame.
func (r *Renderer) Executed() []string {
	return append([]string(nil), r.executed...)
}

// Frames returns the number of rendered frames.
func (r *Renderer) Frames() int { return r.frames }

// Render draws one frame of g with the camera frame f. A display of zero
// size draws nothing. The first backend error aborts the frame and is
// returned as *gpu.BackendError.
func (r *Renderer) Render(g *scene.Graph, f camera.Frame, mode int32) error {
	c := r.ctx
	if c.targets == nil {
		return errClosed
	}
	r.executed = r.executed[:0]
	if f.Width <= 0 || f.Height <= 0 {
		return nil
	}

	c.Scene, c.Frame, c.Mode = g, f, mode
	if g != nil {
		// node textures keep their units in every pass
		c.units = newUnits(g.Units.Albedo, g.Units.Normal)
	}
	c.resize(f.Width, f.Height)

	kernel, err := KernelBlock(c.Options.BlurWidth)
	if err != nil {
		return err
	}
	c.Backend.UpdateUniformBuffer(c.kernel, kernel)

	if err := gpu.Check(c.Backend, "frame setup"); err != nil {
		return err
	}

	for i := range r.passes {
		p := &r.passes[i]
		ran, err := r.run(p)
		if err != nil {
			return fmt.Errorf("pass %s: %w", p.Name, err)
		}
		if err := gpu.Check(c.Backend, p.Name); err != nil {
			return err
		}
		if ran {
			r.executed = append(r.executed, p.Name)
		}
	}

	r.frames++
	return nil
}

func (r *Renderer) run(p *Pass) (bool, error) {
	c := r.ctx
	prog := c.programs[p.Program]
	if prog == nil {
		if !r.skipped[p.Name] {
			c.Log.Warn("pass skipped, program unavailable", "pass", p.Name, "program", p.Program,
				"stale", Dependents(r.passes, p.Name))
			r.skipped[p.Name] = true
		}
		return false, nil
	}
	defer c.releaseUnits()

	switch p.Kind {
	case Compute:
		prog.Use()
		defer prog.Unuse()
		if err := p.Setup(c, prog); err != nil {
			return false, err
		}
		x, y := p.Groups(c)
		c.Backend.Dispatch(x, y, 1)
		return true, nil
	}

	b := c.Backend
	if p.Target == "" {
		b.BindFramebuffer(gpu.Display)
		b.Viewport(c.Frame.Width, c.Frame.Height)
	} else {
		t := c.targets[p.Target]
		if err := t.Bind(); err != nil {
			return false, err
		}
		defer t.Unbind()
		b.DrawBuffers(p.Outputs)
		b.Viewport(t.Size())
	}

	if p.Clear {
		b.Clear(p.ClearColor)
	}
	b.Cull(p.Cull)
	b.DepthTest(p.DepthTest)
	b.BlendAdditive(p.Blend)
	defer func() {
		b.Cull(gpu.CullNone)
		b.BlendAdditive(false)
	}()

	prog.Use()
	defer prog.Unuse()
	if p.Setup != nil {
		if err := p.Setup(c, prog); err != nil {
			return false, err
		}
	}

	switch {
	case p.Draw != nil:
		p.Draw(c, prog)
	case c.Scene != nil:
		c.Scene.Draw(b, prog, mgl32.Ident4())
	}
	return true, nil
}

// Close releases every backend resource of the renderer.
func (r *Renderer) Close() {
	r.ctx.close()
}
