package opengl

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
)

type mesh struct {
	vao     uint32
	buffers []uint32
	count   int32
}

func (m *mesh) attrib(slot uint32, size int32, data []float32) {
	if len(data) == 0 {
		return
	}
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(slot)
	gl.VertexAttribPointer(slot, size, gl.FLOAT, false, 0, nil)
	m.buffers = append(m.buffers, buf)
}

func flatten3(vs []mgl32.Vec3) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v[:]...)
	}
	return out
}

func flatten2(vs []mgl32.Vec2) []float32 {
	out := make([]float32, 0, len(vs)*2)
	for _, v := range vs {
		out = append(out, v[:]...)
	}
	return out
}

func (b *Backend) NewMesh(d gpu.MeshData) gpu.Mesh {
	m := &mesh{count: int32(len(d.Indices))}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	m.attrib(gpu.SlotPosition, 3, flatten3(d.Positions))
	m.attrib(gpu.SlotNormal, 3, flatten3(d.Normals))
	m.attrib(gpu.SlotUV, 2, flatten2(d.UVs))
	m.attrib(gpu.SlotTangent, 3, flatten3(d.Tangents))

	if len(d.Indices) > 0 {
		var ebo uint32
		gl.GenBuffers(1, &ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(d.Indices)*4, gl.Ptr(d.Indices), gl.STATIC_DRAW)
		m.buffers = append(m.buffers, ebo)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	b.meshes[gpu.Mesh(m.vao)] = m
	return gpu.Mesh(m.vao)
}

func (b *Backend) DrawMesh(h gpu.Mesh) {
	m, ok := b.meshes[h]
	if !ok {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (b *Backend) DeleteMesh(h gpu.Mesh) {
	m, ok := b.meshes[h]
	if !ok {
		return
	}
	if len(m.buffers) > 0 {
		gl.DeleteBuffers(int32(len(m.buffers)), &m.buffers[0])
	}
	gl.DeleteVertexArrays(1, &m.vao)
	delete(b.meshes, h)
}
