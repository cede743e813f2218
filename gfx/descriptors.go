// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"fmt"
)

// Extent describes texture dimensions.
type Extent struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// MemoryKind selects where a buffer lives and who may write it.
type MemoryKind uint8

// Buffer memory kinds.
const (
	// MemoryDeviceOnly buffers are not CPU writable.
	MemoryDeviceOnly MemoryKind = iota

	// MemoryShared buffers accept WriteBuffer and require SyncBuffer
	// before device use.
	MemoryShared
)

// BufferUsage is a set of buffer usage flags.
type BufferUsage uint8

// Buffer usage flags.
const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
)

// BufferDesc describes a buffer to be created.
type BufferDesc struct {
	Name   string
	Size   uint64
	Memory MemoryKind
	Usage  BufferUsage
}

// TextureFormat identifies a texture format.
type TextureFormat uint8

// Texture formats used by the rendering core.
const (
	FormatUndefined TextureFormat = iota
	FormatRGBA8Unorm
	FormatBGRA8Unorm
	FormatRGBA16Float
	FormatDepth32Float
)

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth32Float
}

// TextureUsage is a set of texture usage flags. A texture's declared
// usage must cover every operation later performed on it.
type TextureUsage uint8

// Texture usage flags.
const (
	// TextureUsageRenderTarget allows use as a pass attachment.
	TextureUsageRenderTarget TextureUsage = 1 << iota

	// TextureUsageSampled allows binding through a sampler.
	TextureUsageSampled

	// TextureUsageCopy allows copy operations.
	TextureUsageCopy
)

// TextureDesc describes a texture to be created.
type TextureDesc struct {
	Name   string
	Format TextureFormat
	Size   Extent
	Usage  TextureUsage
}

// TextureViewDesc describes a view over a texture.
type TextureViewDesc struct {
	Name   string
	Format TextureFormat
}

// FilterMode selects sampler filtering.
type FilterMode uint8

// Sampler filter modes.
const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// CompareFunction selects a sampler or depth comparison.
type CompareFunction uint8

// Compare functions. CompareNone disables comparison.
const (
	CompareNone CompareFunction = iota
	CompareLess
	CompareLessEqual
	CompareAlways
)

// SamplerDesc describes a sampler. A non-zero Compare creates a
// comparison sampler, valid only against depth-capable textures.
type SamplerDesc struct {
	Name      string
	MinFilter FilterMode
	MagFilter FilterMode
	Compare   CompareFunction
}

// VertexFormat identifies one vertex attribute format.
type VertexFormat uint8

// Vertex attribute formats.
const (
	VertexFloat32x2 VertexFormat = iota
	VertexFloat32x3
	VertexFloat32x4
)

// Bytes returns the byte size of one attribute of this format.
func (f VertexFormat) Bytes() uint64 {
	switch f {
	case VertexFloat32x2:
		return 8
	case VertexFloat32x3:
		return 12
	case VertexFloat32x4:
		return 16
	}
	return 0
}

// VertexAttribute describes one attribute within a vertex layout.
type VertexAttribute struct {
	Format   VertexFormat
	Offset   uint64
	Location uint32
}

// VertexLayout describes the fixed layout of a vertex buffer.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// ColorTargetDesc describes one color attachment a pipeline writes.
type ColorTargetDesc struct {
	Format TextureFormat
	Blend  bool
}

// DepthStencilDesc describes the depth attachment a pipeline uses.
type DepthStencilDesc struct {
	Format       TextureFormat
	WriteEnabled bool
	Compare      CompareFunction
}

// TextureBinding declares one sampled texture slot in a binding layout.
type TextureBinding struct {
	// Depth marks the slot as sampling a depth texture.
	Depth bool
}

// SamplerBinding declares one sampler slot in a binding layout.
type SamplerBinding struct {
	// Compare marks the slot as a comparison sampler.
	Compare bool
}

// BindingLayout declares the shape of the per-draw data bound to a
// pipeline group: one uniform block followed by texture slots, then
// sampler slots, in binding order.
type BindingLayout struct {
	UniformBytes uint64
	Textures     []TextureBinding
	Samplers     []SamplerBinding
}

// Check validates bindings against the layout.
func (l BindingLayout) Check(b Bindings) error {
	if uint64(len(b.Uniforms)) != l.UniformBytes {
		return fmt.Errorf("gfx: uniform block is %d bytes, layout declares %d", len(b.Uniforms), l.UniformBytes)
	}
	if len(b.Textures) != len(l.Textures) {
		return fmt.Errorf("gfx: %d textures bound, layout declares %d", len(b.Textures), len(l.Textures))
	}
	if len(b.Samplers) != len(l.Samplers) {
		return fmt.Errorf("gfx: %d samplers bound, layout declares %d", len(b.Samplers), len(l.Samplers))
	}
	return nil
}

// RenderPipelineDesc describes a render pipeline. Source is opaque
// shading-language text handed to the device untouched.
type RenderPipelineDesc struct {
	Name          string
	Source        string
	VertexEntry   string
	FragmentEntry string
	Vertex        VertexLayout
	Layout        BindingLayout
	ColorTargets  []ColorTargetDesc
	DepthStencil  *DepthStencilDesc
	CullBack      bool
}

// Validate checks the descriptor for configuration mismatches that
// must fail pipeline creation eagerly.
func (d RenderPipelineDesc) Validate() error {
	if d.Source == "" {
		return errors.New("gfx: pipeline has no shader source")
	}
	if d.VertexEntry == "" || d.FragmentEntry == "" {
		return errors.New("gfx: pipeline is missing a shader entry point")
	}
	for _, attr := range d.Vertex.Attributes {
		if attr.Offset+attr.Format.Bytes() > d.Vertex.Stride {
			return fmt.Errorf("gfx: vertex attribute at location %d exceeds stride %d", attr.Location, d.Vertex.Stride)
		}
	}
	if len(d.ColorTargets) == 0 {
		return errors.New("gfx: pipeline has no color targets")
	}
	for idx, ct := range d.ColorTargets {
		if ct.Format == FormatUndefined || ct.Format.IsDepth() {
			return fmt.Errorf("gfx: color target %d has non-color format", idx)
		}
	}
	if ds := d.DepthStencil; ds != nil && !ds.Format.IsDepth() {
		return errors.New("gfx: depth-stencil target has non-depth format")
	}
	return nil
}

// InitOp selects a pass attachment's initial-contents policy.
type InitOp uint8

// Attachment init policies.
const (
	// InitClear clears to the attachment's clear value.
	InitClear InitOp = iota

	// InitPreserve loads the prior contents.
	InitPreserve
)

// FinishOp selects a pass attachment's finish policy.
type FinishOp uint8

// Attachment finish policies.
const (
	FinishStore FinishOp = iota
	FinishDiscard
)

// Color is a clear color.
type Color struct {
	R, G, B, A float64
}

// RenderTarget is one attachment of a render pass.
type RenderTarget struct {
	View       TextureView
	Init       InitOp
	Finish     FinishOp
	Clear      Color
	ClearDepth float32
}

// PassDesc declares the attachments of one render pass.
type PassDesc struct {
	Name   string
	Colors []RenderTarget
	Depth  *RenderTarget
}

// Bindings carries the per-draw data for one bind group: a uniform
// block plus texture/sampler pairs, in the pipeline's declared order.
type Bindings struct {
	Uniforms []byte
	Textures []TextureView
	Samplers []Sampler
}
