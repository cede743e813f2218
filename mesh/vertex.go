// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mesh

import (
	"encoding/binary"

	"github.com/chewxy/math32"
	glm "github.com/go-gl/mathgl/mgl32"
)

// VertexStride is the byte size of one serialized Vertex.
const VertexStride = 24

// Vertex is one flattened vertex: a position and the flat normal of
// the triangle it belongs to.
type Vertex struct {
	Pos    glm.Vec3
	Normal glm.Vec3
}

// AppendBinary appends the vertex in device layout, six little-endian
// float32 values, position before normal.
func (v Vertex) AppendBinary(buf []byte) []byte {
	for _, f := range [6]float32{
		v.Pos[0], v.Pos[1], v.Pos[2],
		v.Normal[0], v.Normal[1], v.Normal[2],
	} {
		buf = binary.LittleEndian.AppendUint32(buf, math32.Float32bits(f))
	}
	return buf
}

// Marshal serializes the vertex into a fresh VertexStride-byte slice.
func (v Vertex) Marshal() []byte {
	return v.AppendBinary(make([]byte, 0, VertexStride))
}

// MarshalVertices serializes a vertex stream for buffer upload.
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, 0, len(vertices)*VertexStride)
	for _, v := range vertices {
		buf = v.AppendBinary(buf)
	}
	return buf
}

// MarshalIndices serializes triangle indices as little-endian uint32,
// the index format the device consumes.
func MarshalIndices(indices []int) []byte {
	buf := make([]byte, 0, len(indices)*4)
	for _, idx := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(idx))
	}
	return buf
}
