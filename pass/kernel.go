package pass

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Uniform block limits, matching the array sizes declared by the shaders.
const (
	MaxBlurWidth  = 50
	MaxHammersley = 200
)

// Uniform block bind points.
const (
	KernelBindpoint     = 0
	HammersleyBindpoint = 1
)

// GaussianKernel returns the 2w+1 normalized weights of a Gaussian with
// sigma w/2.
func GaussianKernel(w int) []float32 {
	if w <= 0 {
		return []float32{1}
	}

	ws := make([]float32, 2*w+1)
	s := float32(w) / 2
	var sum float32
	for i := -w; i <= w; i++ {
		x := float32(i) / s
		ws[i+w] = math32.Exp(-x * x / 2)
		sum += ws[i+w]
	}
	for i := range ws {
		ws[i] /= sum
	}
	return ws
}

// Std140 pads every scalar of vs to its own vec4 slot, the std140 layout of
// a float array. The result holds slots vec4 entries.
func Std140(vs []float32, slots int) []float32 {
	out := make([]float32, slots*4)
	for i, v := range vs {
		if i >= slots {
			break
		}
		out[i*4] = v
	}
	return out
}

// KernelBlock returns the blur kernel uniform block for half-width w.
func KernelBlock(w int) ([]float32, error) {
	if w < 0 || w > MaxBlurWidth {
		return nil, fmt.Errorf("blur width %d out of range [0, %d]", w, MaxBlurWidth)
	}
	return Std140(GaussianKernel(w), 2*MaxBlurWidth+1), nil
}

// Hammersley returns the sample block: the count N in the first vec4, then
// n (u, v) pairs packed two per vec4, with u the base 2 radical inverse of k
// and v = (k+0.5)/N.
func Hammersley(n int) ([]float32, error) {
	if n <= 0 || n > MaxHammersley {
		return nil, fmt.Errorf("hammersley samples %d out of range [1, %d]", n, MaxHammersley)
	}

	block := make([]float32, 4+MaxHammersley*2)
	block[0] = float32(n)

	pos := 4
	for k := 0; k < n; k++ {
		var u float32
		p := float32(0.5)
		for kk := k; kk != 0; kk >>= 1 {
			if kk&1 != 0 {
				u += p
			}
			p *= 0.5
		}
		block[pos] = u
		block[pos+1] = (float32(k) + 0.5) / float32(n)
		pos += 2
	}
	return block, nil
}
