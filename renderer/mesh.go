// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"errors"
	"fmt"

	"github.com/devblok/mirage/gfx"
	"github.com/devblok/mirage/mesh"
)

// GpuMesh is a mesh resident in device memory, ready to draw. Indices
// is nil for flattened meshes drawn without an index buffer.
type GpuMesh struct {
	Vertices    gfx.Buffer
	Indices     gfx.Buffer
	VertexCount uint32
	IndexCount  uint32
}

// Release frees the device buffers. The caller must ensure no
// submitted frame still references them, by waiting its sync point.
func (m *GpuMesh) Release() {
	if m.Vertices != nil {
		m.Vertices.Release()
		m.Vertices = nil
	}
	if m.Indices != nil {
		m.Indices.Release()
		m.Indices = nil
	}
}

// UploadVertices uploads a flattened vertex stream, producing a mesh
// drawn without an index buffer. The buffer contents are written and
// synced before return, so the mesh is immediately drawable.
func UploadVertices(device gfx.Device, name string, vertices []mesh.Vertex) (GpuMesh, error) {
	if len(vertices) == 0 {
		return GpuMesh{}, errors.New("renderer: no vertices to upload")
	}

	buf, err := uploadBuffer(device, name+".vertices", mesh.MarshalVertices(vertices), gfx.BufferUsageVertex)
	if err != nil {
		return GpuMesh{}, err
	}
	return GpuMesh{
		Vertices:    buf,
		VertexCount: uint32(len(vertices)),
	}, nil
}

// UploadMesh uploads an indexed mesh: a vertex stream plus the uint32
// index buffer selecting triangles from it.
func UploadMesh(device gfx.Device, name string, vertices []mesh.Vertex, indices []int) (GpuMesh, error) {
	gpu, err := UploadVertices(device, name, vertices)
	if err != nil {
		return GpuMesh{}, err
	}
	if len(indices) == 0 {
		return gpu, nil
	}

	idxBuf, err := uploadBuffer(device, name+".indices", mesh.MarshalIndices(indices), gfx.BufferUsageIndex)
	if err != nil {
		gpu.Release()
		return GpuMesh{}, err
	}
	gpu.Indices = idxBuf
	gpu.IndexCount = uint32(len(indices))
	return gpu, nil
}

func uploadBuffer(device gfx.Device, name string, data []byte, usage gfx.BufferUsage) (gfx.Buffer, error) {
	buf, err := device.CreateBuffer(gfx.BufferDesc{
		Name:   name,
		Size:   uint64(len(data)),
		Memory: gfx.MemoryShared,
		Usage:  usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gfx.CreateBuffer(): %w", err)
	}
	if err := device.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, fmt.Errorf("gfx.WriteBuffer(): %w", err)
	}
	if err := device.SyncBuffer(buf); err != nil {
		buf.Release()
		return nil, fmt.Errorf("gfx.SyncBuffer(): %w", err)
	}
	return buf, nil
}
