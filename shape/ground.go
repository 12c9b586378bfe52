package shape

import (
	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
)

// GroundConfig parameterizes the procedural terrain.
type GroundConfig struct {
	Size       float32 // half extent in x and y
	Resolution int     // cells per side
	Octaves    int32
	Frequency  float64
	Alpha      float64 // octave weight divisor
	Beta       float64 // octave frequency multiplier
	Low, High  float32
	Seed       int64
}

// DefaultGround mirrors the terrain of the default scene.
func DefaultGround() GroundConfig {
	return GroundConfig{
		Size:       100,
		Resolution: 200,
		Octaves:    4,
		Frequency:  0.03,
		Alpha:      2,
		Beta:       2,
		Low:        -3,
		High:       5,
		Seed:       13,
	}
}

// Ground is a heightfield over [-Size,Size]^2.
type Ground struct {
	*Shape

	cfg   GroundConfig
	noise *perlin.Perlin
}

func NewGround(cfg GroundConfig) *Ground {
	if cfg.Resolution < 1 {
		cfg.Resolution = 1
	}
	g := &Ground{
		cfg:   cfg,
		noise: perlin.NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, cfg.Seed),
	}

	n := cfg.Resolution
	geo := &geometry{}
	vert := func(i, j int) Vertex {
		s, t := float32(i)/float32(n), float32(j)/float32(n)
		x := cfg.Size * (2*s - 1)
		y := cfg.Size * (2*t - 1)
		return Vertex{
			position: mgl32.Vec3{x, y, g.HeightAt(x, y)},
			normal:   g.NormalAt(x, y),
			uv:       mgl32.Vec2{s * cfg.Size / 5, t * cfg.Size / 5},
		}
	}

	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a, b := vert(i, j), vert(i+1, j)
			c, d := vert(i+1, j+1), vert(i, j+1)
			geo.AddFace(a, b, c)
			geo.AddFace(a, c, d)
		}
	}

	g.Shape = newShape(geo, mgl32.Ident4())
	return g
}

// HeightAt returns the terrain height under (x, y).
func (g *Ground) HeightAt(x, y float32) float32 {
	v := g.noise.Noise2D(float64(x)*g.cfg.Frequency, float64(y)*g.cfg.Frequency)
	t := float32(v*0.5 + 0.5)
	t = min(max(t, 0), 1)
	return g.cfg.Low + (g.cfg.High-g.cfg.Low)*t
}

// NormalAt returns the terrain normal under (x, y) by central differences.
func (g *Ground) NormalAt(x, y float32) mgl32.Vec3 {
	const e = 0.1
	dx := g.HeightAt(x+e, y) - g.HeightAt(x-e, y)
	dy := g.HeightAt(x, y+e) - g.HeightAt(x, y-e)
	return mgl32.Vec3{-dx, -dy, 2 * e}.Normalize()
}
