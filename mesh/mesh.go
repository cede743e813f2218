// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package mesh ingests plain-text mesh descriptions and expands them
// into flat, per-triangle vertex streams ready for device upload.
// Malformed geometry is dropped line by line, never aborting a parse.
package mesh

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/mirage/gfx"
)

// CpuMesh is the host-memory mesh representation prior to flattening:
// an ordered position list and the resolved 0-based triangle indices.
type CpuMesh struct {
	Positions []glm.Vec3
	Indices   []int
}

// Parse reads a line-oriented mesh description. Recognized directives:
//
//	v <x> <y> <z>      position, missing or non-numeric operands are 0
//	vn <x> <y> <z>     source normal, parsed and discarded
//	f <i> <i> <i> [i]  face of 1-based position indices, 3 or 4 operands
//
// Each face operand may carry slash-separated secondary indices, which
// are ignored. Quads are split into the triangles (1,2,3) and (3,4,1).
// Faces with any other operand count are dropped. Every other line is
// ignored.
func Parse(r io.Reader) CpuMesh {
	var (
		mesh        CpuMesh
		normalCount int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		split := strings.Index(line, " ")
		if split < 0 {
			continue
		}

		rest := line[split+1:]
		switch line[:split] {
		case "v":
			mesh.Positions = append(mesh.Positions, parseVec3(rest))
		case "vn":
			// Source normals are discarded in favour of recomputed
			// flat normals, but the directive is still consumed.
			parseVec3(rest)
			normalCount++
		case "f":
			parseFace(rest, &mesh)
		}
	}
	if err := scanner.Err(); err != nil {
		log.WithError(err).Warn("mesh source truncated mid-read")
	}

	log.WithFields(log.Fields{
		"positions": len(mesh.Positions),
		"normals":   normalCount,
		"indices":   len(mesh.Indices),
	}).Debug("mesh description parsed")

	return mesh
}

// LoadFile parses the mesh description at path. An unreadable file
// yields an empty, valid mesh.
func LoadFile(path string) CpuMesh {
	f, err := os.Open(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("mesh source unreadable, continuing with empty mesh")
		return CpuMesh{}
	}
	defer f.Close()
	return Parse(f)
}

func parseVec3(operands string) glm.Vec3 {
	var v glm.Vec3
	for idx, field := range strings.Split(operands, " ") {
		if idx >= 3 {
			break
		}
		if num, err := strconv.ParseFloat(field, 32); err == nil {
			v[idx] = float32(num)
		}
	}
	return v
}

func parseFace(operands string, mesh *CpuMesh) {
	var indices []int
	for _, field := range strings.Split(operands, " ") {
		if slash := strings.Index(field, "/"); slash >= 0 {
			field = field[:slash]
		}
		if idx, err := strconv.Atoi(field); err == nil {
			// Source indices are 1-based.
			indices = append(indices, idx-1)
		}
	}

	switch len(indices) {
	case 3:
		mesh.Indices = append(mesh.Indices, indices...)
	case 4:
		mesh.Indices = append(mesh.Indices,
			indices[0], indices[1], indices[2],
			indices[2], indices[3], indices[0])
	default:
		log.WithField("operands", len(indices)).Warn("face dropped, need 3 or 4 operands")
	}
}

// Flatten expands every resolved triangle into three consecutive
// vertices sharing one flat face normal, in input triangle order.
// Faces are assumed counter-clockwise: the triangle (0,0,0) (1,0,0)
// (0,1,0) yields the normal +Z. Triangles referencing an out-of-range
// position are skipped. The output carries no index buffer.
func Flatten(mesh CpuMesh) []Vertex {
	vertices := make([]Vertex, 0, len(mesh.Indices))
	for idx := 0; idx+2 < len(mesh.Indices); idx += 3 {
		i0, i1, i2 := mesh.Indices[idx], mesh.Indices[idx+1], mesh.Indices[idx+2]
		if !inRange(mesh, i0) || !inRange(mesh, i1) || !inRange(mesh, i2) {
			log.WithField("triangle", idx/3).Warn("triangle dropped, position index out of range")
			continue
		}

		p0, p1, p2 := mesh.Positions[i0], mesh.Positions[i1], mesh.Positions[i2]
		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		if length := math32.Sqrt(normal.Dot(normal)); length > 0 {
			normal = normal.Mul(1 / length)
		}

		for _, pos := range []glm.Vec3{p0, p1, p2} {
			vertices = append(vertices, Vertex{Pos: pos, Normal: normal})
		}
	}
	return vertices
}

func inRange(mesh CpuMesh, idx int) bool {
	return idx >= 0 && idx < len(mesh.Positions)
}

// BoundingRadius returns the maximum vertex distance from the origin.
func BoundingRadius(vertices []Vertex) float32 {
	var maxSq float32
	for _, v := range vertices {
		if distSq := v.Pos.Dot(v.Pos); distSq > maxSq {
			maxSq = distSq
		}
	}
	return math32.Sqrt(maxSq)
}

// VertexLayout returns the device vertex layout matching Vertex.
func VertexLayout() gfx.VertexLayout {
	return gfx.VertexLayout{
		Stride: VertexStride,
		Attributes: []gfx.VertexAttribute{
			{Format: gfx.VertexFloat32x3, Offset: 0, Location: 0},
			{Format: gfx.VertexFloat32x3, Offset: 12, Location: 1},
		},
	}
}
