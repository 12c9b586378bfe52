package shape

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Box returns the cube [-1,1]^3 with one uv square per side.
func Box() *Shape {
	g := &geometry{}

	sides := []struct{ n, u, v mgl32.Vec3 }{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}

	for _, s := range sides {
		/*
			d +------+ c
			  |      |
			  |  n   |
			  |      |
			a +------+ b
		*/
		vert := func(su, sv float32, uv mgl32.Vec2) Vertex {
			return Vertex{
				position: s.n.Add(s.u.Mul(su)).Add(s.v.Mul(sv)),
				normal:   s.n,
				uv:       uv,
			}
		}
		a := vert(-1, -1, mgl32.Vec2{0, 0})
		b := vert(1, -1, mgl32.Vec2{1, 0})
		c := vert(1, 1, mgl32.Vec2{1, 1})
		d := vert(-1, 1, mgl32.Vec2{0, 1})

		g.AddFace(a, b, c)
		g.AddFace(a, c, d)
	}

	return newShape(g, mgl32.Ident4())
}

// Sphere returns a unit sphere around the z axis with n segments around and
// n/2 from pole to pole.
func Sphere(n int) *Shape {
	if n < 4 {
		n = 4
	}
	rows := n / 2
	g := &geometry{}

	vert := func(i, j int) Vertex {
		u := float32(i) / float32(n)
		v := float32(j) / float32(rows)
		phi := 2 * math32.Pi * u
		theta := math32.Pi * v
		p := mgl32.Vec3{
			math32.Cos(phi) * math32.Sin(theta),
			math32.Sin(phi) * math32.Sin(theta),
			math32.Cos(theta),
		}
		return Vertex{position: p, normal: p, uv: mgl32.Vec2{u, v}}
	}

	for j := 0; j < rows; j++ {
		for i := 0; i < n; i++ {
			a, b := vert(i, j), vert(i, j+1)
			c, d := vert(i+1, j+1), vert(i+1, j)

			if j != 0 {
				g.AddFace(a, b, d)
			}
			if j != rows-1 {
				g.AddFace(b, c, d)
			}
		}
	}

	return newShape(g, mgl32.Ident4())
}

// Quad returns the square [-1,1]^2 in the z=0 plane facing +z.
func Quad() *Shape {
	return Plane(1, 1)
}

// Plane returns the square [-r,r]^2 in the z=0 plane facing +z, split into
// n x n cells with the uv range [0,n]^2.
func Plane(r float32, n int) *Shape {
	if n < 1 {
		n = 1
	}
	g := &geometry{}
	normal := mgl32.Vec3{0, 0, 1}

	vert := func(i, j int) Vertex {
		s, t := float32(i)/float32(n), float32(j)/float32(n)
		return Vertex{
			position: mgl32.Vec3{r * (2*s - 1), r * (2*t - 1), 0},
			normal:   normal,
			uv:       mgl32.Vec2{float32(i), float32(j)},
		}
	}

	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a, b := vert(i, j), vert(i+1, j)
			c, d := vert(i+1, j+1), vert(i, j+1)
			g.AddFace(a, b, c)
			g.AddFace(a, c, d)
		}
	}

	return newShape(g, mgl32.Ident4())
}
