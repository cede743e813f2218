// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the device boundary of the rendering core:
// descriptor types for device-resident resources and the capability
// interfaces a rendering backend must implement. Backends live in
// subpackages; tests substitute fakes.
package gfx

// Buffer is a device buffer handle.
type Buffer interface {
	Releasable

	// Size returns the declared byte size of the buffer.
	Size() uint64
}

// Texture is a device texture handle.
type Texture interface {
	Releasable

	// Format returns the format the texture was created with.
	Format() TextureFormat
}

// TextureView is a view over exactly one live texture. It must be
// released no later than the texture it references.
type TextureView interface {
	Releasable
}

// Sampler is a device sampler handle.
type Sampler interface {
	Releasable
}

// RenderPipeline is a compiled, validated render pipeline handle.
type RenderPipeline interface {
	Releasable
}

// Releasable defines any device-occupying item that can be freed.
type Releasable interface {

	// Release releases the device resources held by the implementing
	// structure. Releasing twice is undefined.
	Release()
}

// SyncPoint is an opaque token marking a position in the device's
// execution timeline. Once a wait on it returns, all work recorded
// before the corresponding submission has completed.
type SyncPoint interface{}

// Frame is an acquired presentable surface image, valid until the
// submission that presents it.
type Frame interface {

	// View returns the render target view of the surface image.
	View() TextureView
}

// Pass records draw work into one render pass. All methods must be
// called between the BeginPass that produced it and End.
type Pass interface {

	// SetPipeline binds the pipeline used by subsequent draws.
	SetPipeline(RenderPipeline)

	// Bind binds per-draw data for the given group index: a uniform
	// block plus texture/sampler pairs, matching the pipeline's
	// declared binding layout.
	Bind(group uint32, b Bindings) error

	// SetVertexBuffer binds a vertex buffer to the given slot.
	SetVertexBuffer(slot uint32, buf Buffer)

	// SetIndexBuffer binds a uint32 index buffer.
	SetIndexBuffer(buf Buffer)

	// Draw issues a non-indexed draw.
	Draw(vertexCount, instanceCount uint32)

	// DrawIndexed issues an indexed draw using the bound index buffer.
	DrawIndexed(indexCount, instanceCount uint32)

	// End finishes the pass. No methods may be called after End.
	End()
}

// CommandEncoder records one frame's worth of render passes.
// Encoders are reusable: Begin resets them for the next frame.
type CommandEncoder interface {

	// Begin starts a new command recording.
	Begin() error

	// BeginPass opens a render pass with the given attachments.
	BeginPass(desc PassDesc) (Pass, error)

	// Present marks the given acquired frame for presentation once
	// the recording is submitted.
	Present(frame Frame)
}

// Device exposes the operations of a rendering device. Resource
// creation is infallible except for process-fatal conditions; such
// errors are configuration faults callers must not retry.
type Device interface {

	// CreateBuffer creates a buffer of the given size and memory kind.
	CreateBuffer(desc BufferDesc) (Buffer, error)

	// WriteBuffer copies data into a MemoryShared buffer at the given
	// byte offset. Writes beyond the buffer's declared size are
	// rejected with an error.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// SyncBuffer makes prior WriteBuffer contents visible to the
	// device. Must be called after the last CPU write and before any
	// draw referencing the buffer is submitted.
	SyncBuffer(buf Buffer) error

	// CreateTexture creates a texture. The declared usage set must
	// include every operation later performed on it.
	CreateTexture(desc TextureDesc) (Texture, error)

	// CreateTextureView creates a view over the given texture.
	CreateTextureView(tex Texture, desc TextureViewDesc) (TextureView, error)

	// CreateSampler creates a sampler, optionally with a depth
	// compare function.
	CreateSampler(desc SamplerDesc) (Sampler, error)

	// CreateRenderPipeline compiles and eagerly validates a render
	// pipeline against the supplied vertex layout and attachment
	// formats. A mismatch is a startup configuration fault.
	CreateRenderPipeline(desc RenderPipelineDesc) (RenderPipeline, error)

	// CreateCommandEncoder creates a reusable command encoder with
	// the given number of in-flight buffers.
	CreateCommandEncoder(name string, bufferCount int) (CommandEncoder, error)

	// AcquireFrame acquires the next presentable surface image.
	// Failure is recoverable: the caller reconfigures the surface
	// and retries.
	AcquireFrame() (Frame, error)

	// Submit submits the encoder's recording to the device and
	// returns the sync point for it.
	Submit(enc CommandEncoder) (SyncPoint, error)

	// Wait blocks until the given sync point is signaled. The wait
	// is effectively unbounded.
	Wait(sp SyncPoint) error

	// Destroy tears down the device. All resources must have been
	// released and all sync points waited on.
	Destroy()
}
