// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"errors"
	"fmt"

	"github.com/devblok/mirage/gfx"
)

// fakeDevice implements gfx.Device in host memory and keeps an ordered
// event log, so tests can assert the write/sync/submit/wait protocol
// instead of trusting the real backend.
type fakeDevice struct {
	events []string

	nextSync    int
	pipelineErr error
	acquireErr  error

	// referenced maps a sync point to the buffer names its submission
	// used, as recorded by the encoder.
	referenced map[int][]string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{referenced: map[int][]string{}}
}

func (d *fakeDevice) record(format string, args ...interface{}) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

type fakeBuffer struct {
	name string
	data []byte
}

func (b *fakeBuffer) Release()     {}
func (b *fakeBuffer) Size() uint64 { return uint64(len(b.data)) }

func (d *fakeDevice) CreateBuffer(desc gfx.BufferDesc) (gfx.Buffer, error) {
	return &fakeBuffer{name: desc.Name, data: make([]byte, desc.Size)}, nil
}

func (d *fakeDevice) WriteBuffer(buf gfx.Buffer, offset uint64, data []byte) error {
	fb := buf.(*fakeBuffer)
	if offset+uint64(len(data)) > uint64(len(fb.data)) {
		return fmt.Errorf("write of %d bytes at %d exceeds buffer size %d", len(data), offset, len(fb.data))
	}
	copy(fb.data[offset:], data)
	d.record("write:%s", fb.name)
	return nil
}

func (d *fakeDevice) SyncBuffer(buf gfx.Buffer) error {
	d.record("sync:%s", buf.(*fakeBuffer).name)
	return nil
}

type fakeTexture struct{ format gfx.TextureFormat }

func (t *fakeTexture) Release()                  {}
func (t *fakeTexture) Format() gfx.TextureFormat { return t.format }

func (d *fakeDevice) CreateTexture(desc gfx.TextureDesc) (gfx.Texture, error) {
	return &fakeTexture{format: desc.Format}, nil
}

type fakeView struct{}

func (v *fakeView) Release() {}

func (d *fakeDevice) CreateTextureView(tex gfx.Texture, desc gfx.TextureViewDesc) (gfx.TextureView, error) {
	return &fakeView{}, nil
}

type fakeSampler struct{}

func (s *fakeSampler) Release() {}

func (d *fakeDevice) CreateSampler(desc gfx.SamplerDesc) (gfx.Sampler, error) {
	return &fakeSampler{}, nil
}

type fakePipeline struct{ layout gfx.BindingLayout }

func (p *fakePipeline) Release() {}

func (d *fakeDevice) CreateRenderPipeline(desc gfx.RenderPipelineDesc) (gfx.RenderPipeline, error) {
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &fakePipeline{layout: desc.Layout}, nil
}

type fakeFrame struct{ view *fakeView }

func (f *fakeFrame) View() gfx.TextureView { return f.view }

func (d *fakeDevice) AcquireFrame() (gfx.Frame, error) {
	if d.acquireErr != nil {
		return nil, d.acquireErr
	}
	d.record("acquire")
	return &fakeFrame{view: &fakeView{}}, nil
}

type fakeEncoder struct {
	dev      *fakeDevice
	buffers  []string
	pipeline *fakePipeline
}

func (d *fakeDevice) CreateCommandEncoder(name string, bufferCount int) (gfx.CommandEncoder, error) {
	return &fakeEncoder{dev: d}, nil
}

func (e *fakeEncoder) Begin() error {
	e.buffers = e.buffers[:0]
	return nil
}

func (e *fakeEncoder) BeginPass(desc gfx.PassDesc) (gfx.Pass, error) {
	for _, target := range desc.Colors {
		if target.View == nil {
			return nil, errors.New("pass color target has no view")
		}
	}
	return &fakePass{enc: e}, nil
}

func (e *fakeEncoder) Present(frame gfx.Frame) {
	e.dev.record("present")
}

type fakePass struct{ enc *fakeEncoder }

func (p *fakePass) SetPipeline(pipeline gfx.RenderPipeline) {
	p.enc.pipeline = pipeline.(*fakePipeline)
}

func (p *fakePass) Bind(group uint32, b gfx.Bindings) error {
	return p.enc.pipeline.layout.Check(b)
}

func (p *fakePass) SetVertexBuffer(slot uint32, buf gfx.Buffer) {
	p.enc.buffers = append(p.enc.buffers, buf.(*fakeBuffer).name)
}

func (p *fakePass) SetIndexBuffer(buf gfx.Buffer) {
	p.enc.buffers = append(p.enc.buffers, buf.(*fakeBuffer).name)
}

func (p *fakePass) Draw(vertexCount, instanceCount uint32)      {}
func (p *fakePass) DrawIndexed(indexCount, instanceCount uint32) {}
func (p *fakePass) End()                                         {}

func (d *fakeDevice) Submit(enc gfx.CommandEncoder) (gfx.SyncPoint, error) {
	d.nextSync++
	fe := enc.(*fakeEncoder)
	d.referenced[d.nextSync] = append([]string(nil), fe.buffers...)
	d.record("submit:%d", d.nextSync)
	return d.nextSync, nil
}

func (d *fakeDevice) Wait(sp gfx.SyncPoint) error {
	d.record("wait:%d", sp.(int))
	return nil
}

func (d *fakeDevice) Destroy() {}

// indexOf returns the position of the first event equal to name, or -1.
func (d *fakeDevice) indexOf(name string) int {
	for idx, event := range d.events {
		if event == name {
			return idx
		}
	}
	return -1
}
