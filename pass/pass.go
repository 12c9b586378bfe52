// Package pass drives the fixed per-frame pass sequence of the deferred
// renderer: geometry buffer, shadow map, shadow blur, ambient occlusion and
// composition, optionally followed by additive local lights.
package pass

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

var ErrMissingInput = errors.New("pass input not produced by an earlier pass")

type Kind int

const (
	Raster Kind = iota
	Compute
)

func (k Kind) String() string {
	switch k {
	case Raster:
		return "raster"
	case Compute:
		return "compute"
	}
	return "unknown"
}

// Pass describes one step of a frame.
type Pass struct {
	Name    string
	Kind    Kind
	Program string

	// Target is written by the pass, the display when empty.
	Target string
	// Inputs are read and must be written earlier in the same frame.
	Inputs []string
	// History is read as left by the previous frame.
	History []string

	// raster state
	Outputs    int
	Clear      bool
	ClearColor mgl32.Vec4
	Cull       gpu.Face
	DepthTest  bool
	Blend      bool

	// Setup uploads the pass inputs to the program in use.
	Setup func(c *Context, p gpu.Program) error
	// Draw issues the draw calls of a raster pass, the whole scene if nil.
	Draw func(c *Context, p gpu.Program)
	// Groups returns the work group counts of a compute pass.
	Groups func(c *Context) (x, y int)
}

// Validate checks that every pass reads only what an earlier pass wrote
// and that each pass is complete for its kind.
func Validate(passes []Pass) error {
	written := map[string]bool{}
	names := map[string]bool{}

	for _, p := range passes {
		if p.Name == "" {
			return errors.New("pass without name")
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate pass %q", p.Name)
		}
		names[p.Name] = true

		for _, in := range p.Inputs {
			if !written[in] {
				return fmt.Errorf("%w: %s reads %s", ErrMissingInput, p.Name, in)
			}
		}

		switch p.Kind {
		case Raster:
			if p.Target != "" && (p.Outputs < 1 || p.Outputs > gpu.MaxColorOutputs) {
				return fmt.Errorf("pass %s: %d outputs", p.Name, p.Outputs)
			}
		case Compute:
			if p.Target == "" {
				return fmt.Errorf("pass %s: compute pass writes no target", p.Name)
			}
			if p.Groups == nil {
				return fmt.Errorf("pass %s: compute pass without work groups", p.Name)
			}
		default:
			return fmt.Errorf("pass %s: unknown kind %v", p.Name, p.Kind)
		}

		if p.Target != "" {
			written[p.Target] = true
		}
	}
	return nil
}

// Dependents returns the passes that read, directly or through other
// passes, the target of the named pass. Passes reading it as history are
// included. They see stale images when the named pass does not run.
func Dependents(passes []Pass, name string) []string {
	at := -1
	for i, p := range passes {
		if p.Name == name {
			at = i
			break
		}
	}
	if at < 0 || passes[at].Target == "" {
		return nil
	}

	stale := map[string]bool{passes[at].Target: true}
	found := map[string]bool{}
	for _, p := range passes[at+1:] {
		reads := false
		for _, in := range p.Inputs {
			reads = reads || stale[in]
		}
		switch {
		case reads:
			found[p.Name] = true
			if p.Target != "" {
				stale[p.Target] = true
			}
		case p.Target != "":
			delete(stale, p.Target)
		}
	}
	for _, p := range passes {
		for _, in := range p.History {
			if stale[in] && p.Name != name {
				found[p.Name] = true
			}
		}
	}

	var out []string
	for _, p := range passes {
		if found[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}
