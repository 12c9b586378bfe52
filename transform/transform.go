// Package transform builds the 4x4 matrices used by the renderer.
//
// Matrices are column-major mgl32.Mat4 values. Composition is applied
// right to left: in Compose(a, b, c) the matrix c touches the geometry first.
package transform

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Axis selects one of the principal axes.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	}
	return "unknown"
}

// Identity returns the identity matrix.
func Identity() mgl32.Mat4 {
	return mgl32.Ident4()
}

// Rotate returns a rotation of degrees about the principal axis a.
func Rotate(a Axis, degrees float32) mgl32.Mat4 {
	r := mgl32.DegToRad(degrees)
	switch a {
	case X:
		return mgl32.HomogRotate3DX(r)
	case Y:
		return mgl32.HomogRotate3DY(r)
	default:
		return mgl32.HomogRotate3DZ(r)
	}
}

func Scale(sx, sy, sz float32) mgl32.Mat4 {
	return mgl32.Scale3D(sx, sy, sz)
}

// ScaleUniform scales all three axes by s.
func ScaleUniform(s float32) mgl32.Mat4 {
	return mgl32.Scale3D(s, s, s)
}

func Translate(tx, ty, tz float32) mgl32.Mat4 {
	return mgl32.Translate3D(tx, ty, tz)
}

// TranslateV translates by v.
func TranslateV(v mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(v[0], v[1], v[2])
}

// Perspective maps the frustum with half-width slope rx and half-height
// slope ry between the near and far planes to clip space. A point at
// view depth -near lands on z = -1, one at -far on z = +1.
func Perspective(rx, ry, near, far float32) mgl32.Mat4 {
	var m mgl32.Mat4
	m[0] = 1 / rx
	m[5] = 1 / ry
	m[10] = -(far + near) / (far - near)
	m[11] = -1
	m[14] = -(2 * far * near) / (far - near)
	return m
}

// LookAt returns the view matrix of an eye looking at center. up must not be
// parallel to center-eye.
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	v := center.Sub(eye).Normalize()
	a := v.Cross(up).Normalize()
	b := a.Cross(v)

	// rows a, b, -v
	r := mgl32.Mat4{
		a[0], b[0], -v[0], 0,
		a[1], b[1], -v[1], 0,
		a[2], b[2], -v[2], 0,
		0, 0, 0, 1,
	}
	return r.Mul4(TranslateV(eye.Mul(-1)))
}

// Compose multiplies the matrices left to right.
func Compose(ms ...mgl32.Mat4) mgl32.Mat4 {
	r := mgl32.Ident4()
	for _, m := range ms {
		r = r.Mul4(m)
	}
	return r
}

// Point applies m to the position p, including the homogeneous divide.
func Point(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	h := m.Mul4x1(p.Vec4(1))
	if h[3] == 0 {
		return h.Vec3()
	}
	return h.Vec3().Mul(1 / h[3])
}
