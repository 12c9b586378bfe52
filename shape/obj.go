package shape

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/transform"
)

// LoadObjFile reads a Wavefront OBJ file. The model transform fits the mesh
// into [-1,1]^3 centered at the origin.
func LoadObjFile(path string) (*Shape, error) {
	// open object file
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := LoadObj(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadObj parses OBJ data from r. Polygons are split into triangle fans,
// missing normals are computed from the faces.
func LoadObj(r io.Reader) (*Shape, error) {
	var (
		positions []mgl32.Vec3
		uvs       []mgl32.Vec2
		normals   []mgl32.Vec3

		geo        = &geometry{}
		hasNormals = true
	)

	parseFloats := func(fields []string, n int) ([]float32, error) {
		if len(fields) < n {
			return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
		}
		out := make([]float32, n)
		for i := range out {
			f, err := strconv.ParseFloat(fields[i], 32)
			if err != nil {
				return nil, err
			}
			out[i] = float32(f)
		}
		return out, nil
	}

	// resolves a 1-based, possibly negative, index
	index := func(v string, n int) (int, error) {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, err
		}
		if i < 0 {
			i += n + 1
		}
		if i < 1 || i > n {
			return 0, fmt.Errorf("index %s out of range", v)
		}
		return i - 1, nil
	}

	// v/vt/vn
	vertex := func(f string) (Vertex, error) {
		var v Vertex
		a := strings.Split(f, "/")

		i, err := index(a[0], len(positions))
		if err != nil {
			return v, err
		}
		v.position = positions[i]

		if len(a) > 1 && a[1] != "" {
			if i, err = index(a[1], len(uvs)); err != nil {
				return v, err
			}
			v.uv = uvs[i]
		}

		if len(a) == 3 && a[2] != "" {
			if i, err = index(a[2], len(normals)); err != nil {
				return v, err
			}
			v.normal = normals[i]
		} else {
			hasNormals = false
		}
		return v, nil
	}

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch strings.ToLower(fields[0]) {
		case "v": // geometric vertices: x, y, z, [w]
			var f []float32
			if f, err = parseFloats(fields[1:], 3); err == nil {
				positions = append(positions, mgl32.Vec3{f[0], f[1], f[2]})
			}

		case "vt": // texture vertices: u, v, [w]
			var f []float32
			if f, err = parseFloats(fields[1:], 2); err == nil {
				uvs = append(uvs, mgl32.Vec2{f[0], 1.0 - f[1]})
			}

		case "vn": // vertex normals: i, j, k
			var f []float32
			if f, err = parseFloats(fields[1:], 3); err == nil {
				normals = append(normals, mgl32.Vec3{f[0], f[1], f[2]})
			}

		case "f": // face: v/vt/vn v/vt/vn v/vt/vn ...
			if len(fields) < 4 {
				err = fmt.Errorf("face with %d vertices", len(fields)-1)
				break
			}
			vs := make([]Vertex, len(fields)-1)
			for i, f := range fields[1:] {
				if vs[i], err = vertex(f); err != nil {
					break
				}
			}
			if err == nil {
				for i := 1; i+1 < len(vs); i++ {
					geo.AddFace(vs[0], vs[i], vs[i+1])
				}
			}

		default:
			// ignore
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(geo.faces) == 0 {
		return nil, fmt.Errorf("no faces")
	}

	if !hasNormals {
		geo.ComputeNormals()
	}

	// fit into the unit box
	lo, hi := bounds(positions)
	size := hi.Sub(lo)
	extent := max(size[0], size[1], size[2])
	if extent == 0 {
		extent = 2
	}
	center := lo.Add(hi).Mul(0.5)
	modelTr := transform.Compose(
		transform.ScaleUniform(2/extent),
		transform.TranslateV(center.Mul(-1)),
	)

	return newShape(geo, modelTr), nil
}
