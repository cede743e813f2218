// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/mirage/camera"
	"github.com/devblok/mirage/gfx"
	"github.com/devblok/mirage/mesh"
	"github.com/devblok/mirage/renderer"
)

func testConfig() renderer.Configuration {
	return renderer.Configuration{
		ScreenWidth:    640,
		ScreenHeight:   480,
		SurfaceFormat:  gfx.FormatBGRA8Unorm,
		GeometrySource: "// geometry",
		LightingSource: "// lighting",
	}
}

func testVertices() []mesh.Vertex {
	return mesh.Flatten(mesh.Parse(strings.NewReader(`v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`)))
}

func TestUploadWritesThenSyncs(t *testing.T) {
	c := qt.New(t)
	dev := newFakeDevice()

	gpu, err := renderer.UploadVertices(dev, "tri", testVertices())
	c.Assert(err, qt.IsNil)
	c.Assert(gpu.VertexCount, qt.Equals, uint32(3))
	c.Assert(gpu.Indices, qt.IsNil)

	write := dev.indexOf("write:tri.vertices")
	sync := dev.indexOf("sync:tri.vertices")
	c.Assert(write >= 0, qt.IsTrue)
	c.Assert(sync > write, qt.IsTrue)
}

func TestUploadMeshCarriesIndices(t *testing.T) {
	c := qt.New(t)
	dev := newFakeDevice()

	gpu, err := renderer.UploadMesh(dev, "tri", testVertices(), []int{0, 1, 2})
	c.Assert(err, qt.IsNil)
	c.Assert(gpu.IndexCount, qt.Equals, uint32(3))
	c.Assert(gpu.Indices, qt.Not(qt.IsNil))
	c.Assert(gpu.Indices.Size(), qt.Equals, uint64(12))
}

func TestUploadRejectsEmpty(t *testing.T) {
	c := qt.New(t)
	_, err := renderer.UploadVertices(newFakeDevice(), "empty", nil)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestWriteBufferBoundsChecked(t *testing.T) {
	c := qt.New(t)
	dev := newFakeDevice()

	buf, err := dev.CreateBuffer(gfx.BufferDesc{Name: "small", Size: 8, Memory: gfx.MemoryShared})
	c.Assert(err, qt.IsNil)
	c.Assert(dev.WriteBuffer(buf, 0, make([]byte, 8)), qt.IsNil)
	c.Assert(dev.WriteBuffer(buf, 4, make([]byte, 8)), qt.Not(qt.IsNil))
	c.Assert(dev.WriteBuffer(buf, 9, nil), qt.Not(qt.IsNil))
}

func TestNewPropagatesPipelineFault(t *testing.T) {
	c := qt.New(t)
	dev := newFakeDevice()
	dev.pipelineErr = errors.New("shader does not compile")

	_, err := renderer.New(dev, testConfig())
	c.Assert(err, qt.ErrorMatches, `gfx.CreateRenderPipeline\(\): shader does not compile`)
}

func TestNewRejectsBadSurfaceFormat(t *testing.T) {
	c := qt.New(t)
	cfg := testConfig()
	cfg.SurfaceFormat = gfx.FormatDepth32Float

	_, err := renderer.New(newFakeDevice(), cfg)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestRenderFrameSyncDiscipline(t *testing.T) {
	c := qt.New(t)
	dev := newFakeDevice()

	r, err := renderer.New(dev, testConfig())
	c.Assert(err, qt.IsNil)
	gpu, err := renderer.UploadVertices(dev, "tri", testVertices())
	c.Assert(err, qt.IsNil)

	cam := camera.DefaultFromAspect(640.0 / 480.0)
	meshes := []renderer.GpuMesh{gpu}
	for frame := 0; frame < 3; frame++ {
		c.Assert(r.RenderFrame(cam, meshes), qt.IsNil)
	}

	// The mesh buffer is synced before the first submission that
	// references it.
	c.Assert(dev.indexOf("sync:tri.vertices") < dev.indexOf("submit:1"), qt.IsTrue)
	c.Assert(dev.referenced[1], qt.Contains, "tri.vertices")

	// Each frame waits on the previous frame's sync point after its
	// own submission, so two frames stay in flight.
	c.Assert(dev.indexOf("wait:1") > dev.indexOf("submit:2"), qt.IsTrue)
	c.Assert(dev.indexOf("wait:1") < dev.indexOf("submit:3"), qt.IsTrue)
	c.Assert(dev.indexOf("wait:2") > dev.indexOf("submit:3"), qt.IsTrue)
	c.Assert(dev.indexOf("wait:3"), qt.Equals, -1)

	// Release drains the last outstanding frame.
	r.Release()
	c.Assert(dev.indexOf("wait:3") >= 0, qt.IsTrue)
}

func TestRenderFramePresentsBeforeSubmit(t *testing.T) {
	c := qt.New(t)
	dev := newFakeDevice()

	r, err := renderer.New(dev, testConfig())
	c.Assert(err, qt.IsNil)
	defer r.Release()

	c.Assert(r.RenderFrame(camera.DefaultFromAspect(1), nil), qt.IsNil)
	c.Assert(dev.indexOf("acquire") < dev.indexOf("present"), qt.IsTrue)
	c.Assert(dev.indexOf("present") < dev.indexOf("submit:1"), qt.IsTrue)
}

func TestRenderFrameAcquireFailureIsRecoverable(t *testing.T) {
	c := qt.New(t)
	dev := newFakeDevice()

	r, err := renderer.New(dev, testConfig())
	c.Assert(err, qt.IsNil)
	defer r.Release()

	dev.acquireErr = errors.New("surface lost")
	err = r.RenderFrame(camera.DefaultFromAspect(1), nil)
	c.Assert(err, qt.ErrorMatches, `gfx.AcquireFrame\(\): surface lost`)
	c.Assert(dev.indexOf("submit:1"), qt.Equals, -1)

	// Recovery: the next acquire succeeds and the frame goes through.
	dev.acquireErr = nil
	c.Assert(r.RenderFrame(camera.DefaultFromAspect(1), nil), qt.IsNil)
}

func TestResizeDrainsOutstandingFrame(t *testing.T) {
	c := qt.New(t)
	dev := newFakeDevice()

	r, err := renderer.New(dev, testConfig())
	c.Assert(err, qt.IsNil)
	defer r.Release()

	c.Assert(r.RenderFrame(camera.DefaultFromAspect(1), nil), qt.IsNil)
	c.Assert(r.Resize(800, 600), qt.IsNil)
	c.Assert(dev.indexOf("wait:1") >= 0, qt.IsTrue)

	c.Assert(r.RenderFrame(camera.DefaultFromAspect(800.0/600.0), nil), qt.IsNil)
}

func TestGlobalsMarshalLayout(t *testing.T) {
	c := qt.New(t)
	g := renderer.Globals{
		ViewProjection: glm.Ident4(),
		CamPos:         glm.Vec3{1, 2, 3},
		CamForward:     glm.Vec3{0, 0, -1},
	}
	buf := g.Marshal()
	c.Assert(buf, qt.HasLen, renderer.GlobalsSize)

	// Identity diagonal, then the padded camera vectors.
	c.Assert(buf[0:4], qt.DeepEquals, []byte{0, 0, 0x80, 0x3f})
	c.Assert(buf[64:68], qt.DeepEquals, []byte{0, 0, 0x80, 0x3f})
	c.Assert(buf[76:80], qt.DeepEquals, []byte{0, 0, 0, 0})
	c.Assert(buf[88:92], qt.DeepEquals, []byte{0, 0, 0x80, 0xbf})
}
