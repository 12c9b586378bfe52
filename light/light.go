// Package light generates the local point lights scattered over the scene.
package light

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSeed and DefaultCount reproduce the stock light set.
const (
	DefaultSeed  = 13
	DefaultCount = 100
)

// Light is a colored point light with a finite radius of influence.
type Light struct {
	Pos    mgl32.Vec3
	Color  mgl32.Vec3
	Radius float32
}

// Rand is the portable C library linear congruential generator. Its sequence
// is fixed for a seed on every platform.
type Rand struct {
	next uint32
}

func NewRand(seed uint32) *Rand {
	return &Rand{next: seed}
}

// Next returns a value in [0, 32767].
func (r *Rand) Next() int {
	r.next = r.next*1103515245 + 12345
	return int(r.next/65536) % 32768
}

// percent returns the next value in [0, 1) with a resolution of 1/100.
func (r *Rand) percent() float32 {
	return float32(r.Next()%100) / 100
}

// Generate returns n lights within a 200x200x50 box above the origin with
// pastel colors and radii between 0.5 and 99.5.
func Generate(seed uint32, n int) []Light {
	r := NewRand(seed)
	ls := make([]Light, n)
	for i := range ls {
		ls[i].Pos = mgl32.Vec3{
			r.percent()*200 - 100,
			r.percent()*200 - 100,
			r.percent() * 50,
		}
		ls[i].Color = mgl32.Vec3{
			r.percent()/2 + 0.5,
			r.percent()/2 + 0.5,
			r.percent()/2 + 0.5,
		}
		ls[i].Radius = float32(r.Next()%100) + 0.5
	}
	return ls
}
