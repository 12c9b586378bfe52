package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/transform"
)

// Colors of the default scene.
var (
	Black      = mgl32.Vec3{0, 0, 0}
	White      = mgl32.Vec3{1, 1, 1}
	WoodColor  = mgl32.Vec3{87.0 / 255, 51.0 / 255, 35.0 / 255}
	BrassColor = mgl32.Vec3{0.5, 0.5, 0.1}
	GrassColor = mgl32.Vec3{62.0 / 255, 102.0 / 255, 38.0 / 255}

	PolishedSpec = mgl32.Vec3{0.01, 0.01, 0.01}
)

// HSV2RGB converts hue, saturation and value in [0,1] to RGB.
func HSV2RGB(h, s, v float32) mgl32.Vec3 {
	if s == 0 {
		return mgl32.Vec3{v, v, v}
	}

	i := int(h*6) % 6
	f := h*6 - float32(int(h*6))
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch i {
	case 0:
		return mgl32.Vec3{v, t, p}
	case 1:
		return mgl32.Vec3{q, v, p}
	case 2:
		return mgl32.Vec3{p, v, t}
	case 3:
		return mgl32.Vec3{p, q, v}
	case 4:
		return mgl32.Vec3{t, p, v}
	default:
		return mgl32.Vec3{v, p, q}
	}
}

// SphereOfSpheres adds a unit hemisphere of small spheres of varying hue
// and growing specular exponent and returns the group holding them.
func SphereOfSpheres(g *Graph, sphere Geometry) NodeID {
	group := g.Add(Group())
	alpha := float32(50)

	for angle := float32(0); angle < 360; angle += 18 {
		for row := float32(0.075); row < math32.Pi/2; row += math32.Pi / 2 / 6 {
			hue := HSV2RGB(angle/360, 1-2*row/math32.Pi, 1)
			sp := g.Add(Node{
				Geometry:  sphere,
				ID:        SpheresID,
				Diffuse:   hue.Mul(0.5),
				Specular:  White,
				Shininess: alpha,
			})
			alpha += 100

			s, c := math32.Sin(row), math32.Cos(row)
			g.Attach(group, sp, transform.Compose(
				transform.Rotate(transform.Z, angle),
				transform.Translate(c, 0, s),
				transform.ScaleUniform(0.075*c),
			))
		}
	}

	return group
}

// FramedPicture adds a [-1,1] canvas in the xz plane framed by four boards.
// The canvas carries id and the optional picture texture.
func FramedPicture(g *Graph, id ObjectID, box, quad Geometry, picture Texture) NodeID {
	const w = 0.05 // width of frame boards

	frame := g.Add(Group())
	boards := []mgl32.Mat4{
		transform.Compose(transform.Translate(0, 0, 1+w), transform.Scale(1, w, w)),
		transform.Compose(transform.Translate(0, 0, -1-w), transform.Scale(1, w, w)),
		transform.Compose(transform.Translate(1+w, 0, 0), transform.Scale(w, w, 1+2*w)),
		transform.Compose(transform.Translate(-1-w, 0, 0), transform.Scale(w, w, 1+2*w)),
	}
	for _, tr := range boards {
		b := g.Add(Node{
			Geometry:  box,
			ID:        FrameID,
			Diffuse:   WoodColor,
			Specular:  mgl32.Vec3{0.2, 0.2, 0.2},
			Shininess: 10,
		})
		g.Attach(frame, b, tr)
	}

	canvas := g.Add(Node{
		Geometry:  quad,
		ID:        id,
		Diffuse:   WoodColor,
		Specular:  Black,
		Shininess: 10,
		Albedo:    picture,
	})
	g.Attach(frame, canvas, transform.Rotate(transform.X, 90))

	return frame
}

// Assets are the shared geometries and textures of the default scene.
// Nil optional members are left out.
type Assets struct {
	Sphere, Box Geometry

	Ground      Geometry // optional
	Centerpiece Geometry // optional, a sphere is used instead
	Sky         Texture  // optional
	Texture     Texture  // optional, centerpiece albedo

	Elevation   float32 // height of the central group
	ShowSpheres bool
}

// Layout names the nodes of the default scene that are updated at runtime.
type Layout struct {
	Graph       *Graph
	Sky         NodeID
	Ground      NodeID
	Central     NodeID
	Anim        NodeID
	Centerpiece NodeID
	Spheres     NodeID
}

// Default builds the default scene: sky, ground and a central group with
// a podium and an animated group holding the centerpiece and the sphere of
// spheres.
func Default(a Assets) *Layout {
	g := New()
	l := &Layout{Graph: g, Sky: none, Ground: none, Spheres: none}

	if a.Sphere != nil {
		l.Sky = g.Add(Node{Geometry: a.Sphere, ID: SkyID, Albedo: a.Sky})
		g.Attach(Root, l.Sky, transform.ScaleUniform(2000))
	}

	if a.Ground != nil {
		l.Ground = g.Add(Node{Geometry: a.Ground, ID: GroundID, Diffuse: GrassColor, Shininess: 1})
		g.Attach(Root, l.Ground, mgl32.Ident4())
	}

	l.Central = g.Add(Group())
	g.Attach(Root, l.Central, transform.Translate(0, 0, a.Elevation))

	if a.Box != nil {
		podium := g.Add(Node{
			Geometry:  a.Box,
			ID:        BoxID,
			Diffuse:   WoodColor,
			Specular:  PolishedSpec,
			Shininess: 10,
		})
		g.Attach(l.Central, podium, transform.Scale(0.6, 0.6, 0.5))
	}

	l.Anim = g.Add(Group())
	g.Attach(l.Central, l.Anim, mgl32.Ident4())

	center := a.Centerpiece
	if center == nil {
		center = a.Sphere
	}
	l.Centerpiece = g.Add(Node{
		Geometry:  center,
		ID:        TeapotID,
		Diffuse:   BrassColor,
		Specular:  White,
		Shininess: 2000,
		Albedo:    a.Texture,
	})
	g.Attach(l.Anim, l.Centerpiece, transform.Translate(0.1, 0, 1.5))

	if a.ShowSpheres && a.Sphere != nil {
		l.Spheres = SphereOfSpheres(g, a.Sphere)
		g.Attach(l.Anim, l.Spheres, transform.ScaleUniform(30))
	}

	return l
}
