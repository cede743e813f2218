// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"encoding/binary"

	"github.com/chewxy/math32"
	glm "github.com/go-gl/mathgl/mgl32"
)

// GlobalsSize is the byte size of the serialized Globals block.
const GlobalsSize = 96

// Globals is the per-frame uniform block both passes consume.
type Globals struct {
	ViewProjection glm.Mat4
	CamPos         glm.Vec3
	CamForward     glm.Vec3
}

// Marshal serializes the block in std140-compatible layout: the
// column-major matrix, then each vector padded out to 16 bytes.
func (g Globals) Marshal() []byte {
	buf := make([]byte, 0, GlobalsSize)
	for _, f := range g.ViewProjection {
		buf = appendFloat(buf, f)
	}
	for _, v := range [2]glm.Vec3{g.CamPos, g.CamForward} {
		buf = appendFloat(buf, v[0])
		buf = appendFloat(buf, v[1])
		buf = appendFloat(buf, v[2])
		buf = appendFloat(buf, 0)
	}
	return buf
}

func appendFloat(buf []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math32.Float32bits(f))
}
