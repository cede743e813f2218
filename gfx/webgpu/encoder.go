// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/devblok/mirage/gfx"
)

// encoder records one frame. A fresh native encoder is created per
// Begin; transient bind groups and uniform staging buffers accumulate
// on the encoder and move onto the sync point at Submit.
type encoder struct {
	dev  *Device
	name string

	enc       *wgpu.CommandEncoder
	frame     *frame
	transient []gfx.Releasable
}

// CreateCommandEncoder creates a reusable command encoder. The native
// encoder itself is single-use, so bufferCount only bounds how many
// recordings may be in flight before the caller waits.
func (d *Device) CreateCommandEncoder(name string, bufferCount int) (gfx.CommandEncoder, error) {
	if bufferCount < 1 {
		return nil, fmt.Errorf("webgpu: encoder needs at least one buffer, got %d", bufferCount)
	}
	return &encoder{dev: d, name: name}, nil
}

func (e *encoder) Begin() error {
	enc, err := e.dev.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: e.name})
	if err != nil {
		return fmt.Errorf("wgpu.CreateCommandEncoder(): %w", err)
	}
	e.enc = enc
	e.frame = nil
	return nil
}

func (e *encoder) BeginPass(desc gfx.PassDesc) (gfx.Pass, error) {
	if e.enc == nil {
		return nil, fmt.Errorf("webgpu: BeginPass before Begin")
	}

	colors := make([]wgpu.RenderPassColorAttachment, len(desc.Colors))
	for idx, target := range desc.Colors {
		view, ok := target.View.(*textureView)
		if !ok {
			return nil, fmt.Errorf("webgpu: foreign texture view %T", target.View)
		}
		colors[idx] = wgpu.RenderPassColorAttachment{
			View:    view.view,
			LoadOp:  loadOp(target.Init),
			StoreOp: storeOp(target.Finish),
			ClearValue: wgpu.Color{
				R: target.Clear.R,
				G: target.Clear.G,
				B: target.Clear.B,
				A: target.Clear.A,
			},
		}
	}

	var depth *wgpu.RenderPassDepthStencilAttachment
	if target := desc.Depth; target != nil {
		view, ok := target.View.(*textureView)
		if !ok {
			return nil, fmt.Errorf("webgpu: foreign texture view %T", target.View)
		}
		depth = &wgpu.RenderPassDepthStencilAttachment{
			View:            view.view,
			DepthClearValue: target.ClearDepth,
			DepthLoadOp:     loadOp(target.Init),
			DepthStoreOp:    storeOp(target.Finish),
		}
	}

	rp := e.enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  desc.Name,
		ColorAttachments:       colors,
		DepthStencilAttachment: depth,
	})
	return &pass{enc: e, rp: rp}, nil
}

func (e *encoder) Present(fr gfx.Frame) {
	if f, ok := fr.(*frame); ok {
		e.frame = f
	}
}

type pass struct {
	enc      *encoder
	rp       *wgpu.RenderPassEncoder
	pipeline *pipeline
}

func (p *pass) SetPipeline(pl gfx.RenderPipeline) {
	wp, ok := pl.(*pipeline)
	if !ok {
		return
	}
	p.pipeline = wp
	p.rp.SetPipeline(wp.pl)
}

// Bind uploads the uniform block into a transient staging buffer and
// builds a transient bind group over it plus the given views and
// samplers. Both retire when the frame's sync point is waited on.
func (p *pass) Bind(group uint32, b gfx.Bindings) error {
	if p.pipeline == nil {
		return fmt.Errorf("webgpu: Bind before SetPipeline")
	}
	if err := p.pipeline.layout.Check(b); err != nil {
		return err
	}

	var entries []wgpu.BindGroupEntry
	binding := uint32(0)

	var uniform *wgpu.Buffer
	if len(b.Uniforms) > 0 {
		buf, err := p.enc.dev.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: p.enc.name + ".uniforms",
			Size:  uint64(len(b.Uniforms)),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu.CreateBuffer(): %w", err)
		}
		if err := p.enc.dev.queue.WriteBuffer(buf, 0, b.Uniforms); err != nil {
			buf.Release()
			return fmt.Errorf("wgpu.Queue.WriteBuffer(): %w", err)
		}
		uniform = buf
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: binding,
			Buffer:  buf,
			Size:    uint64(len(b.Uniforms)),
		})
		binding++
	}

	for _, tv := range b.Textures {
		view, ok := tv.(*textureView)
		if !ok {
			return fmt.Errorf("webgpu: foreign texture view %T", tv)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     binding,
			TextureView: view.view,
		})
		binding++
	}

	for _, s := range b.Samplers {
		smp, ok := s.(*sampler)
		if !ok {
			return fmt.Errorf("webgpu: foreign sampler %T", s)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: binding,
			Sampler: smp.smp,
		})
		binding++
	}

	bg, err := p.enc.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.enc.name,
		Layout:  p.pipeline.bgl,
		Entries: entries,
	})
	if err != nil {
		if uniform != nil {
			uniform.Release()
		}
		return fmt.Errorf("wgpu.CreateBindGroup(): %w", err)
	}

	if uniform != nil {
		p.enc.transient = append(p.enc.transient, releaseFunc(uniform.Release))
	}
	p.enc.transient = append(p.enc.transient, releaseFunc(bg.Release))

	p.rp.SetBindGroup(group, bg, nil)
	return nil
}

func (p *pass) SetVertexBuffer(slot uint32, buf gfx.Buffer) {
	if b, ok := buf.(*buffer); ok {
		p.rp.SetVertexBuffer(slot, b.buf, 0, wgpu.WholeSize)
	}
}

func (p *pass) SetIndexBuffer(buf gfx.Buffer) {
	if b, ok := buf.(*buffer); ok {
		p.rp.SetIndexBuffer(b.buf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
}

func (p *pass) Draw(vertexCount, instanceCount uint32) {
	p.rp.Draw(vertexCount, instanceCount, 0, 0)
}

func (p *pass) DrawIndexed(indexCount, instanceCount uint32) {
	p.rp.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *pass) End() {
	p.rp.End()
	p.rp.Release()
}
