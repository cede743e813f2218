// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mesh_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/mirage/mesh"
)

const canonicalTriangle = `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

func TestParseTriangle(t *testing.T) {
	c := qt.New(t)
	m := mesh.Parse(strings.NewReader(canonicalTriangle))
	c.Assert(m.Positions, qt.HasLen, 3)
	c.Assert(m.Indices, qt.DeepEquals, []int{0, 1, 2})
}

func TestFlattenCanonicalNormal(t *testing.T) {
	c := qt.New(t)
	vertices := mesh.Flatten(mesh.Parse(strings.NewReader(canonicalTriangle)))
	c.Assert(vertices, qt.HasLen, 3)
	for _, v := range vertices {
		c.Assert(v.Normal, qt.Equals, glm.Vec3{0, 0, 1})
	}
}

func TestParseQuadSplit(t *testing.T) {
	c := qt.New(t)
	m := mesh.Parse(strings.NewReader(`v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`))
	c.Assert(m.Indices, qt.DeepEquals, []int{0, 1, 2, 2, 3, 0})
	c.Assert(mesh.Flatten(m), qt.HasLen, 6)
}

func TestParseSlashOperands(t *testing.T) {
	c := qt.New(t)
	m := mesh.Parse(strings.NewReader(`v 0 0 0
v 1 0 0
v 0 1 0
f 1/4 2/5/1 3//6
`))
	c.Assert(m.Indices, qt.DeepEquals, []int{0, 1, 2})
}

func TestParseDropsBadFaces(t *testing.T) {
	c := qt.New(t)
	m := mesh.Parse(strings.NewReader(`v 0 0 0
v 1 0 0
v 0 1 0
f 1 2
f 1 2 3 1 2
f 1 2 3
`))
	// Malformed faces are dropped without aborting the parse.
	c.Assert(m.Indices, qt.DeepEquals, []int{0, 1, 2})
}

func TestParseMissingAndBadCoordinates(t *testing.T) {
	c := qt.New(t)
	m := mesh.Parse(strings.NewReader(`v 1
v 2 x 3
v 4 5 6 7
`))
	c.Assert(m.Positions, qt.DeepEquals, []glm.Vec3{
		{1, 0, 0},
		{2, 0, 3},
		{4, 5, 6},
	})
}

func TestParseIgnoresUnknownDirectives(t *testing.T) {
	c := qt.New(t)
	m := mesh.Parse(strings.NewReader(`# comment line
o thing
vn 0 0 1
v 0 0 0
vt 0.5 0.5
`))
	c.Assert(m.Positions, qt.HasLen, 1)
	c.Assert(m.Indices, qt.HasLen, 0)
}

func TestFlattenSkipsOutOfRangeTriangles(t *testing.T) {
	c := qt.New(t)
	m := mesh.Parse(strings.NewReader(`v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 9
f 1 2 3
`))
	vertices := mesh.Flatten(m)
	c.Assert(vertices, qt.HasLen, 3)
	c.Assert(vertices[1].Pos, qt.Equals, glm.Vec3{1, 0, 0})
}

func TestFlattenNormalsAreUnitLength(t *testing.T) {
	c := qt.New(t)
	m := mesh.Parse(strings.NewReader(`v -0.3 0.2 1.7
v 2.1 -0.8 0.4
v 0.6 3.0 -1.1
v -1.4 0.9 0.2
f 1 2 3
f 2 3 4
f 1 3 4
`))
	for _, v := range mesh.Flatten(m) {
		length := math.Sqrt(float64(v.Normal.Dot(v.Normal)))
		c.Assert(math.Abs(length-1) < 1e-4, qt.IsTrue)
	}
}

func TestFlattenDeterministic(t *testing.T) {
	c := qt.New(t)
	const src = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
f 4 3 2
`
	first := mesh.MarshalVertices(mesh.Flatten(mesh.Parse(strings.NewReader(src))))
	second := mesh.MarshalVertices(mesh.Flatten(mesh.Parse(strings.NewReader(src))))
	c.Assert(bytes.Equal(first, second), qt.IsTrue)
}

func TestLoadFileMissing(t *testing.T) {
	c := qt.New(t)
	m := mesh.LoadFile("testdata/does-not-exist.obj")
	c.Assert(m.Positions, qt.HasLen, 0)
	c.Assert(m.Indices, qt.HasLen, 0)
	c.Assert(mesh.Flatten(m), qt.HasLen, 0)
}

func TestVertexMarshal(t *testing.T) {
	c := qt.New(t)
	v := mesh.Vertex{Pos: glm.Vec3{1, 2, 3}, Normal: glm.Vec3{0, 0, 1}}
	buf := v.Marshal()
	c.Assert(buf, qt.HasLen, mesh.VertexStride)

	want := []float32{1, 2, 3, 0, 0, 1}
	for idx, f := range want {
		bits := binary.LittleEndian.Uint32(buf[idx*4:])
		c.Assert(math.Float32frombits(bits), qt.Equals, f)
	}
}

func TestMarshalIndices(t *testing.T) {
	c := qt.New(t)
	buf := mesh.MarshalIndices([]int{0, 1, 2})
	c.Assert(buf, qt.HasLen, 12)
	c.Assert(binary.LittleEndian.Uint32(buf[4:]), qt.Equals, uint32(1))
}

func TestBoundingRadius(t *testing.T) {
	c := qt.New(t)
	vertices := []mesh.Vertex{
		{Pos: glm.Vec3{0, 0, 0}},
		{Pos: glm.Vec3{3, 4, 0}},
		{Pos: glm.Vec3{1, 1, 1}},
	}
	c.Assert(mesh.BoundingRadius(vertices), qt.Equals, float32(5))
}
