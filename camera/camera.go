// Package camera holds the interactive viewing state: the camera in orbit or
// free-fly mode and the light on a sphere around the origin.
package camera

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Mode int

const (
	Orbit Mode = iota
	FreeFly
)

func (m Mode) String() string {
	switch m {
	case Orbit:
		return "orbit"
	case FreeFly:
		return "free-fly"
	}
	return "unknown"
}

// Direction is one of the free-fly movement keys.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
)

// EyeHeight is the distance the free-fly eye keeps above the terrain.
const EyeHeight = 2

// Heightfield answers terrain height queries.
type Heightfield interface {
	HeightAt(x, y float32) float32
}

// State is the camera and light parameter set, changed by input and read
// once per frame.
type State struct {
	Mode Mode

	// orbit and free-fly orientation in degrees
	Spin, Tilt float32
	// orbit pan offsets and eye distance
	Tx, Ty, Zoom float32

	// vertical half slope of the view frustum and its clip planes
	Ry          float32
	Front, Back float32

	// free-fly eye and speed in units per second
	Eye   mgl32.Vec3
	Speed float32
	move  [4]bool

	LightSpin, LightTilt, LightDist float32

	// ShaderMode selects a debug view of the lighting pass.
	ShaderMode int32
}

// Default returns the initial viewing state.
func Default() State {
	return State{
		Mode:      Orbit,
		Spin:      0,
		Tilt:      30,
		Zoom:      25,
		Ry:        0.4,
		Front:     0.5,
		Back:      5000,
		Eye:       mgl32.Vec3{0, -20, 2},
		Speed:     10,
		LightSpin: 150,
		LightTilt: -45,
		LightDist: 100,
	}
}

// SetMove sets the movement flag of d.
func (s *State) SetMove(d Direction, pressed bool) {
	if d >= Forward && d <= Right {
		s.move[d] = pressed
	}
}

// Moving reports whether the movement flag of d is set.
func (s *State) Moving(d Direction) bool {
	if d < Forward || d > Right {
		return false
	}
	return s.move[d]
}

// ToggleMode switches between orbit and free-fly mode.
func (s *State) ToggleMode() {
	if s.Mode == Orbit {
		s.Mode = FreeFly
	} else {
		s.Mode = Orbit
	}
}

// Rotate changes spin and tilt of the camera.
func (s *State) Rotate(dSpin, dTilt float32) {
	s.Spin += dSpin
	s.Tilt += dTilt
}

// Pan moves the orbit center in view space.
func (s *State) Pan(dx, dy float32) {
	s.Tx += dx
	s.Ty += dy
}

// ZoomBy changes the orbit distance, keeping the eye beyond the front plane.
func (s *State) ZoomBy(d float32) {
	s.Zoom = max(s.Zoom+d, s.Front)
}

// RotateLight moves the light on its sphere.
func (s *State) RotateLight(dSpin, dTilt float32) {
	s.LightSpin += dSpin
	s.LightTilt += dTilt
}

// MoveLight changes the light distance, which stays positive.
func (s *State) MoveLight(d float32) {
	s.LightDist = max(s.LightDist+d, 1)
}

// Update advances the free-fly eye by the elapsed time along the spin
// relative axes and keeps it above ground. It does nothing in orbit mode.
func (s *State) Update(elapsed time.Duration, ground Heightfield) {
	if s.Mode != FreeFly {
		return
	}

	step := s.Speed * float32(elapsed.Seconds())
	sin, cos := math32.Sincos(mgl32.DegToRad(s.Spin))
	forward := mgl32.Vec3{sin, cos, 0}
	right := mgl32.Vec3{cos, -sin, 0}

	if s.move[Forward] {
		s.Eye = s.Eye.Add(forward.Mul(step))
	}
	if s.move[Backward] {
		s.Eye = s.Eye.Sub(forward.Mul(step))
	}
	if s.move[Right] {
		s.Eye = s.Eye.Add(right.Mul(step))
	}
	if s.move[Left] {
		s.Eye = s.Eye.Sub(right.Mul(step))
	}

	if ground != nil {
		s.Eye[2] = ground.HeightAt(s.Eye[0], s.Eye[1]) + EyeHeight
	}
}

// LightPosition converts the light's spherical coordinates.
func (s State) LightPosition() mgl32.Vec3 {
	ss, cs := math32.Sincos(mgl32.DegToRad(s.LightSpin))
	st, ct := math32.Sincos(mgl32.DegToRad(s.LightTilt))
	return mgl32.Vec3{
		s.LightDist * cs * st,
		s.LightDist * ss * st,
		s.LightDist * ct,
	}
}
