// Package window opens the GLFW window with an OpenGL 4.3 core context and
// turns its input events into camera controls.
package window

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/der-antikeks/deferred/camera"
)

type Options struct {
	Width, Height int
	Title         string
	VSync         bool
}

// Window owns the GLFW state. It must be created and used from the main
// thread, locked with runtime.LockOSThread.
type Window struct {
	window *glfw.Window
	input  *Input
}

// Open initializes GLFW, creates the window and makes its context current.
// Input is ignored until Control is called.
func Open(opts Options, log *slog.Logger) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	w, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	w.MakeContextCurrent()
	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	m := &Window{window: w, input: NewInput(nil)}
	fw, fh := w.GetFramebufferSize()
	log.Debug("window opened", "title", opts.Title, "framebuffer", fmt.Sprintf("%dx%d", fw, fh), "vsync", opts.VSync)

	// callbacks
	w.SetKeyCallback(m.onKey)
	w.SetCursorPosCallback(m.onMouseMove)
	w.SetScrollCallback(m.onMouseScroll)
	w.SetMouseButtonCallback(m.onMouseButton)

	return m, nil
}

// Control routes input events to state.
func (m *Window) Control(state *camera.State) {
	m.input.state = state
}

// FramebufferSize returns the current size in pixels, zero while minimized.
func (m *Window) FramebufferSize() (w, h int) {
	return m.window.GetFramebufferSize()
}

// Running reports whether neither the user nor the input asked to close.
func (m *Window) Running() bool {
	return !m.window.ShouldClose() && !m.input.Quit
}

// Time returns the seconds since initialization.
func (m *Window) Time() float64 {
	return glfw.GetTime()
}

// Update presents the frame and processes pending events.
func (m *Window) Update() {
	m.window.SwapBuffers()
	glfw.PollEvents()
}

// Close destroys the window and terminates GLFW.
func (m *Window) Close() {
	m.window.Destroy()
	glfw.Terminate()
}

func (m *Window) onKey(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	m.input.Key(key, action, mods)
}

func (m *Window) onMouseMove(w *glfw.Window, x, y float64) {
	m.input.MouseMove(x, y)
}

func (m *Window) onMouseScroll(w *glfw.Window, xoff, yoff float64) {
	m.input.Scroll(yoff)
}

func (m *Window) onMouseButton(w *glfw.Window, b glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	m.input.MouseButton(b, action, mods)
}
