package window

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/der-antikeks/deferred/camera"
)

// Input maps keys and mouse drags to camera controls.
//
//	left drag          spin and tilt the camera
//	shift + left drag  spin and tilt the light
//	right drag         pan
//	ctrl + left drag   zoom
//	scroll             zoom, light distance with shift
//	W A S D, arrows    move in free-fly mode
//	tab                toggle orbit and free-fly mode
//	0 - 9              shader debug mode
//	escape             quit
type Input struct {
	state *camera.State

	button  glfw.MouseButton
	mods    glfw.ModifierKey
	drag    bool
	mx, my  float64
	started bool
	shift   bool

	Quit bool
}

func NewInput(state *camera.State) *Input {
	return &Input{state: state}
}

func (in *Input) Key(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		in.Quit = true
	}
	if in.state == nil {
		return
	}
	pressed := action == glfw.Press || action == glfw.Repeat

	switch key {
	case glfw.KeyW, glfw.KeyUp:
		in.state.SetMove(camera.Forward, pressed)
	case glfw.KeyS, glfw.KeyDown:
		in.state.SetMove(camera.Backward, pressed)
	case glfw.KeyA, glfw.KeyLeft:
		in.state.SetMove(camera.Left, pressed)
	case glfw.KeyD, glfw.KeyRight:
		in.state.SetMove(camera.Right, pressed)
	case glfw.KeyLeftShift, glfw.KeyRightShift:
		in.shift = pressed
	}

	if action != glfw.Press {
		return
	}
	switch {
	case key == glfw.KeyTab:
		in.state.ToggleMode()
	case key >= glfw.Key0 && key <= glfw.Key9:
		in.state.ShaderMode = int32(key - glfw.Key0)
	}
}

func (in *Input) MouseButton(b glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	switch action {
	case glfw.Press:
		in.button, in.mods, in.drag = b, mods, true
	case glfw.Release:
		in.drag = false
	}
}

func (in *Input) MouseMove(x, y float64) {
	dx, dy := float32(x-in.mx), float32(y-in.my)
	in.mx, in.my = x, y
	if !in.started {
		in.started = true
		return
	}
	if !in.drag || in.state == nil {
		return
	}

	switch {
	case in.button == glfw.MouseButtonLeft && in.mods&glfw.ModShift != 0:
		in.state.RotateLight(dx/2, dy/2)
	case in.button == glfw.MouseButtonLeft && in.mods&glfw.ModControl != 0:
		in.state.ZoomBy(dy / 10)
	case in.button == glfw.MouseButtonLeft:
		in.state.Rotate(dx/3, dy/3)
	case in.button == glfw.MouseButtonRight, in.button == glfw.MouseButtonMiddle:
		in.state.Pan(dx/40, -dy/40)
	}
}

func (in *Input) Scroll(yoff float64) {
	if in.state == nil {
		return
	}
	if in.shift {
		in.state.MoveLight(float32(-yoff) * 5)
		return
	}
	in.state.ZoomBy(float32(-yoff))
}
