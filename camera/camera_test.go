package camera

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/transform"
)

type flat float32

func (f flat) HeightAt(x, y float32) float32 { return float32(f) }

type slope struct{}

func (slope) HeightAt(x, y float32) float32 { return x + 2*y }

func vecNear(a, b mgl32.Vec3, eps float32) bool {
	return transform.VecNear(a, b, eps)
}

func TestLightPosition(t *testing.T) {
	tests := []struct {
		Spin, Tilt, Dist float32
		Want             mgl32.Vec3
	}{
		{150, -45, 100, mgl32.Vec3{61.2372, -35.3553, 70.7107}},
		{0, 0, 100, mgl32.Vec3{0, 0, 100}},
		{0, 90, 10, mgl32.Vec3{10, 0, 0}},
		{90, 90, 10, mgl32.Vec3{0, 10, 0}},
	}

	for _, c := range tests {
		s := Default()
		s.LightSpin, s.LightTilt, s.LightDist = c.Spin, c.Tilt, c.Dist
		if got := s.LightPosition(); !vecNear(got, c.Want, 1e-3) {
			t.Errorf("light %v/%v/%v: expected %v (got %v)", c.Spin, c.Tilt, c.Dist, c.Want, got)
		}
	}
}

func TestFrameOrbit(t *testing.T) {
	s := Default()
	s.Tx, s.Ty = 1, 2
	f := s.Frame(800, 400)

	want := transform.Compose(
		transform.Translate(1, 2, -25),
		transform.Rotate(transform.X, -60),
		transform.Rotate(transform.Z, 0),
	)
	if !transform.Equal(f.WorldView, want, 1e-5) {
		t.Errorf("orbit view: expected %v (got %v)", want, f.WorldView)
	}
	if !transform.Equal(f.WorldView.Mul4(f.WorldInverse), mgl32.Ident4(), 1e-4) {
		t.Errorf("inverse does not invert view")
	}
	if mgl32.Abs(f.Rx-0.8) > 1e-6 {
		t.Errorf("rx: expected 0.8 (got %v)", f.Rx)
	}

	// the eye maps to the view origin
	if o := transform.Point(f.WorldView, f.Eye); !vecNear(o, mgl32.Vec3{}, 1e-3) {
		t.Errorf("eye %v is not at the view origin (got %v)", f.Eye, o)
	}
}

func TestFrameFreeFly(t *testing.T) {
	s := Default()
	s.Mode = FreeFly
	f := s.Frame(100, 100)

	if !vecNear(f.Eye, s.Eye, 1e-4) {
		t.Errorf("eye: expected %v (got %v)", s.Eye, f.Eye)
	}

	// looking along +y with tilt 0
	s.Tilt = 0
	f = s.Frame(100, 100)
	p := transform.Point(f.WorldView, s.Eye.Add(mgl32.Vec3{0, 5, 0}))
	if !vecNear(p, mgl32.Vec3{0, 0, -5}, 1e-4) {
		t.Errorf("forward point: expected %v (got %v)", mgl32.Vec3{0, 0, -5}, p)
	}
}

func TestFrame_FromValue(t *testing.T) {
	f := Default().Frame(64, 32)
	if f.Width != 64 || f.Height != 32 {
		t.Errorf("frame size: expected 64x32 (got %vx%v)", f.Width, f.Height)
	}
	if want := Default().LightPosition(); f.LightPos != want {
		t.Errorf("light position: expected %v (got %v)", want, f.LightPos)
	}
}

func TestShadowFrustum(t *testing.T) {
	s := Default()
	near := s.Frame(100, 100)
	s.LightDist = 200
	far := s.Frame(100, 100)

	if got := far.LightProj[0] / near.LightProj[0]; mgl32.Abs(got-2) > 1e-4 {
		t.Errorf("doubling the distance should halve the slope (got ratio %v)", got)
	}

	// the origin is inside the shadow map
	o := transform.Point(near.ShadowMatrix, mgl32.Vec3{})
	for i, v := range o {
		if v < 0 || v > 1 {
			t.Errorf("origin shadow coordinate %d outside [0,1] (got %v)", i, v)
		}
	}
	if mgl32.Abs(o[0]-0.5) > 1e-4 || mgl32.Abs(o[1]-0.5) > 1e-4 {
		t.Errorf("origin should project to the map center (got %v)", o)
	}

	// light straight above
	s.LightTilt = 0
	f := s.Frame(100, 100)
	if !transform.Orthonormal(f.LightView, 1e-4) {
		t.Errorf("light view above the origin is degenerate: %v", f.LightView)
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		Spin   float32
		Move   Direction
		Ground Heightfield
		Want   mgl32.Vec3
	}{
		{0, Forward, flat(0), mgl32.Vec3{0, -10, 2}},
		{0, Backward, flat(1), mgl32.Vec3{0, -30, 3}},
		{90, Forward, flat(0), mgl32.Vec3{10, -20, 2}},
		{0, Right, slope{}, mgl32.Vec3{10, -20, -28}},
		{0, Left, nil, mgl32.Vec3{-10, -20, 2}},
	}

	for _, c := range tests {
		s := Default()
		s.Mode = FreeFly
		s.Spin = c.Spin
		s.SetMove(c.Move, true)
		s.Update(time.Second, c.Ground)

		if !vecNear(s.Eye, c.Want, 1e-3) {
			t.Errorf("move %v with spin %v: expected %v (got %v)", c.Move, c.Spin, c.Want, s.Eye)
		}
	}
}

func TestUpdateOrbit(t *testing.T) {
	s := Default()
	s.SetMove(Forward, true)
	s.Update(time.Second, flat(100))
	if s.Eye != Default().Eye {
		t.Errorf("orbit mode moved the eye (got %v)", s.Eye)
	}
}

func TestControls(t *testing.T) {
	s := Default()

	s.ToggleMode()
	if s.Mode != FreeFly {
		t.Errorf("expected %v (got %v)", FreeFly, s.Mode)
	}
	s.ToggleMode()
	if s.Mode != Orbit {
		t.Errorf("expected %v (got %v)", Orbit, s.Mode)
	}

	s.ZoomBy(-100)
	if s.Zoom != s.Front {
		t.Errorf("zoom should stop at the front plane (got %v)", s.Zoom)
	}
	s.MoveLight(-1000)
	if s.LightDist != 1 {
		t.Errorf("light distance should stay positive (got %v)", s.LightDist)
	}

	s.Rotate(10, -5)
	s.RotateLight(1, 2)
	s.Pan(3, 4)
	if s.Spin != 10 || s.Tilt != 25 || s.LightSpin != 151 || s.LightTilt != -43 || s.Tx != 3 || s.Ty != 4 {
		t.Errorf("unexpected state %+v", s)
	}

	s.SetMove(Left, true)
	if !s.Moving(Left) || s.Moving(Right) || s.Moving(Direction(9)) {
		t.Errorf("unexpected movement flags")
	}
}

func BenchmarkFrame(b *testing.B) {
	s := Default()
	for i := 0; i < b.N; i++ {
		s.Frame(1280, 720)
	}
}
