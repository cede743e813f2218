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

// buffer wraps a device buffer. Shared buffers keep a CPU shadow that
// WriteBuffer mutates and SyncBuffer flushes through the queue.
type buffer struct {
	buf    *wgpu.Buffer
	shadow []byte
	size   uint64
	dirty  bool
}

func (b *buffer) Release()     { b.buf.Release() }
func (b *buffer) Size() uint64 { return b.size }

// CreateBuffer creates a buffer of the given size and memory kind.
func (d *Device) CreateBuffer(desc gfx.BufferDesc) (gfx.Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Name,
		Size:  desc.Size,
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu.CreateBuffer(): %w", err)
	}

	b := &buffer{buf: buf, size: desc.Size}
	if desc.Memory == gfx.MemoryShared {
		b.shadow = make([]byte, desc.Size)
	}
	return b, nil
}

// WriteBuffer copies data into a shared buffer's shadow. Writes that
// would land past the declared size are rejected whole.
func (d *Device) WriteBuffer(buf gfx.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*buffer)
	if !ok {
		return fmt.Errorf("webgpu: foreign buffer %T", buf)
	}
	if b.shadow == nil {
		return fmt.Errorf("webgpu: buffer is not CPU writable")
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("webgpu: write of %d bytes at offset %d exceeds buffer size %d", len(data), offset, b.size)
	}
	copy(b.shadow[offset:], data)
	b.dirty = true
	return nil
}

// SyncBuffer flushes the shadow to the device. A clean buffer is a
// no-op.
func (d *Device) SyncBuffer(buf gfx.Buffer) error {
	b, ok := buf.(*buffer)
	if !ok {
		return fmt.Errorf("webgpu: foreign buffer %T", buf)
	}
	if b.shadow == nil {
		return fmt.Errorf("webgpu: buffer is not CPU writable")
	}
	if !b.dirty {
		return nil
	}
	if err := d.queue.WriteBuffer(b.buf, 0, b.shadow); err != nil {
		return fmt.Errorf("wgpu.Queue.WriteBuffer(): %w", err)
	}
	b.dirty = false
	return nil
}

type texture struct {
	tex    *wgpu.Texture
	format gfx.TextureFormat
}

func (t *texture) Release()                  { t.tex.Release() }
func (t *texture) Format() gfx.TextureFormat { return t.format }

// CreateTexture creates a texture with the declared usage set.
func (d *Device) CreateTexture(desc gfx.TextureDesc) (gfx.Texture, error) {
	depth := desc.Size.Depth
	if depth == 0 {
		depth = 1
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Name,
		Size: wgpu.Extent3D{
			Width:              desc.Size.Width,
			Height:             desc.Size.Height,
			DepthOrArrayLayers: depth,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        textureFormat(desc.Format),
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu.CreateTexture(): %w", err)
	}
	return &texture{tex: tex, format: desc.Format}, nil
}

type textureView struct {
	view *wgpu.TextureView
}

func (v *textureView) Release() { v.view.Release() }

// CreateTextureView creates a full view over the given texture.
func (d *Device) CreateTextureView(tex gfx.Texture, desc gfx.TextureViewDesc) (gfx.TextureView, error) {
	t, ok := tex.(*texture)
	if !ok {
		return nil, fmt.Errorf("webgpu: foreign texture %T", tex)
	}
	view, err := t.tex.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu.Texture.CreateView(): %w", err)
	}
	return &textureView{view: view}, nil
}

type sampler struct {
	smp *wgpu.Sampler
}

func (s *sampler) Release() { s.smp.Release() }

// CreateSampler creates a sampler, a comparison one when the desc
// carries a compare function.
func (d *Device) CreateSampler(desc gfx.SamplerDesc) (gfx.Sampler, error) {
	smp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Name,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filterMode(desc.MagFilter),
		MinFilter:     filterMode(desc.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
		Compare:       compareFunction(desc.Compare),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu.CreateSampler(): %w", err)
	}
	return &sampler{smp: smp}, nil
}

// pipeline keeps the bind group layout alive alongside the compiled
// pipeline: Bind builds transient bind groups against it every frame.
type pipeline struct {
	pl     *wgpu.RenderPipeline
	bgl    *wgpu.BindGroupLayout
	layout gfx.BindingLayout
}

func (p *pipeline) Release() {
	p.pl.Release()
	if p.bgl != nil {
		p.bgl.Release()
	}
}

// CreateRenderPipeline compiles the shader and builds the pipeline,
// validating the descriptor eagerly. Any error here is a startup
// configuration fault.
func (d *Device) CreateRenderPipeline(desc gfx.RenderPipelineDesc) (gfx.RenderPipeline, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu.CreateShaderModule(): %w", err)
	}
	defer module.Release()

	bgl, err := d.createBindGroupLayout(desc.Name, desc.Layout)
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Name,
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		bgl.Release()
		return nil, fmt.Errorf("wgpu.CreatePipelineLayout(): %w", err)
	}
	defer pipelineLayout.Release()

	attributes := make([]wgpu.VertexAttribute, len(desc.Vertex.Attributes))
	for idx, attr := range desc.Vertex.Attributes {
		attributes[idx] = wgpu.VertexAttribute{
			Format:         vertexFormat(attr.Format),
			Offset:         attr.Offset,
			ShaderLocation: attr.Location,
		}
	}

	targets := make([]wgpu.ColorTargetState, len(desc.ColorTargets))
	for idx, target := range desc.ColorTargets {
		state := wgpu.ColorTargetState{
			Format:    textureFormat(target.Format),
			WriteMask: wgpu.ColorWriteMaskAll,
		}
		if target.Blend {
			state.Blend = &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorZero,
					Operation: wgpu.BlendOperationAdd,
				},
			}
		}
		targets[idx] = state
	}

	cullMode := wgpu.CullModeNone
	if desc.CullBack {
		cullMode = wgpu.CullModeBack
	}

	var depthStencil *wgpu.DepthStencilState
	if ds := desc.DepthStencil; ds != nil {
		depthStencil = &wgpu.DepthStencilState{
			Format:            textureFormat(ds.Format),
			DepthWriteEnabled: ds.WriteEnabled,
			DepthCompare:      compareFunction(ds.Compare),
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	pl, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Name,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: desc.Vertex.Stride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes:  attributes,
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode,
		},
		DepthStencil: depthStencil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		bgl.Release()
		return nil, fmt.Errorf("wgpu.CreateRenderPipeline(): %w", err)
	}
	return &pipeline{pl: pl, bgl: bgl, layout: desc.Layout}, nil
}

// createBindGroupLayout lays bindings out in declaration order: the
// uniform block first, then textures, then samplers.
func (d *Device) createBindGroupLayout(name string, layout gfx.BindingLayout) (*wgpu.BindGroupLayout, error) {
	var entries []wgpu.BindGroupLayoutEntry
	binding := uint32(0)

	if layout.UniformBytes > 0 {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				MinBindingSize:   layout.UniformBytes,
				HasDynamicOffset: false,
			},
		})
		binding++
	}

	for _, tex := range layout.Textures {
		sampleType := wgpu.TextureSampleTypeFloat
		if tex.Depth {
			sampleType = wgpu.TextureSampleTypeDepth
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    sampleType,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		})
		binding++
	}

	for _, smp := range layout.Samplers {
		samplerType := wgpu.SamplerBindingTypeFiltering
		if smp.Compare {
			samplerType = wgpu.SamplerBindingTypeComparison
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Sampler:    wgpu.SamplerBindingLayout{Type: samplerType},
		})
		binding++
	}

	bgl, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   name,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu.CreateBindGroupLayout(): %w", err)
	}
	return bgl, nil
}
