package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/transform"
)

// Frame holds the matrices derived from State for one frame.
type Frame struct {
	Width, Height int

	WorldView, WorldProj, WorldInverse mgl32.Mat4
	Eye                                mgl32.Vec3

	Rx float32

	LightPos             mgl32.Vec3
	LightView, LightProj mgl32.Mat4
	ShadowMatrix         mgl32.Mat4
	LightRx, LightRy     float32
}

// bias maps clip space [-1,1] to texture space [0,1].
var bias = transform.Compose(transform.Translate(0.5, 0.5, 0.5), transform.ScaleUniform(0.5))

// Frame builds the view, projection and shadow matrices for a display of
// w by h pixels.
func (s State) Frame(w, h int) Frame {
	f := Frame{Width: w, Height: h}

	ry := s.Ry
	f.Rx = ry
	if h > 0 {
		f.Rx = ry * float32(w) / float32(h)
	}

	if s.Mode == FreeFly {
		f.WorldView = transform.Compose(
			transform.Rotate(transform.X, s.Tilt-90),
			transform.Rotate(transform.Z, s.Spin),
			transform.TranslateV(s.Eye.Mul(-1)),
		)
	} else {
		f.WorldView = transform.Compose(
			transform.Translate(s.Tx, s.Ty, -s.Zoom),
			transform.Rotate(transform.X, s.Tilt-90),
			transform.Rotate(transform.Z, s.Spin),
		)
	}
	f.WorldProj = transform.Perspective(f.Rx, ry, s.Front, s.Back)
	f.WorldInverse = f.WorldView.Inv()
	f.Eye = f.WorldInverse.Col(3).Vec3()

	f.LightPos = s.LightPosition()

	// the shadow frustum narrows as the light moves away
	scale := f.LightPos.Len() / 100
	if scale == 0 {
		scale = 1
	}
	f.LightRx = f.Rx / scale
	f.LightRy = ry / scale

	up := mgl32.Vec3{0, 0, 1}
	if d := f.LightPos.Normalize(); math32.Abs(d.Dot(up)) > 0.9999 {
		up = mgl32.Vec3{0, 1, 0}
	}
	f.LightView = transform.LookAt(f.LightPos, mgl32.Vec3{}, up)
	f.LightProj = transform.Perspective(f.LightRx, f.LightRy, s.Front, s.Back)
	f.ShadowMatrix = transform.Compose(bias, f.LightProj, f.LightView)

	return f
}
