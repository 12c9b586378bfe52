package transform

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func Round(v float32, precision int) float32 {
	var r float32

	p := math32.Pow(10, float32(precision))
	if tmp := v * p; tmp > 0 {
		r = math32.Floor(tmp + 0.5)
	} else {
		r = math32.Ceil(tmp - 0.5)
	}

	return r / p
}

/*
	NearlyEquals compares two float32 with an error margin
	http://floating-point-gui.de/errors/comparison/
*/
func NearlyEquals(a, b, epsilon float32) bool {
	// shortcut, handles infinities
	if a == b {
		return true
	}

	diff := math32.Abs(a - b)

	// a or b or both are zero
	if a*b == 0 {
		return diff < epsilon
	}

	absA := math32.Abs(a)
	absB := math32.Abs(b)

	// use relative error, absolute near zero
	return diff < epsilon || diff/(absA+absB) < epsilon
}

// VecNear compares two vectors component-wise with the absolute margin
// epsilon.
func VecNear(a, b mgl32.Vec3, epsilon float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) >= epsilon {
			return false
		}
	}
	return true
}

// Equal compares two matrices element-wise.
func Equal(a, b mgl32.Mat4, epsilon float32) bool {
	for i := range a {
		if !NearlyEquals(a[i], b[i], epsilon) {
			return false
		}
	}
	return true
}

// Orthonormal reports whether the upper 3x3 of m has orthogonal unit rows.
func Orthonormal(m mgl32.Mat4, epsilon float32) bool {
	rows := [3]mgl32.Vec3{
		{m[0], m[4], m[8]},
		{m[1], m[5], m[9]},
		{m[2], m[6], m[10]},
	}
	for i, r := range rows {
		if !NearlyEquals(r.Len(), 1, epsilon) {
			return false
		}
		for _, s := range rows[i+1:] {
			if !NearlyEquals(r.Dot(s), 0, epsilon) {
				return false
			}
		}
	}
	return true
}
