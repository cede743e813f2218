// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package renderer drives the per-frame loop of the rendering core: a
// deferred two-pass pipeline over a gfx.Device, mesh upload, and frame
// pacing. One frame is acquire, record geometry and lighting passes,
// present, submit, then wait on the previous frame's sync point, so at
// most two frames are ever in flight.
package renderer

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/mirage/camera"
	"github.com/devblok/mirage/gfx"
	"github.com/devblok/mirage/mesh"
)

// inFlightFrames is the depth of the submission pipeline. The command
// encoder is buffered to the same depth.
const inFlightFrames = 2

// Renderer owns the device resources of the deferred pipeline and the
// sync point of the frame before the current one.
type Renderer struct {
	device gfx.Device
	cfg    Configuration

	encoder gfx.CommandEncoder

	attachments attachments

	colorSampler gfx.Sampler
	depthSampler gfx.Sampler

	geometryPipeline gfx.RenderPipeline
	lightingPipeline gfx.RenderPipeline

	quad GpuMesh

	prevSync gfx.SyncPoint
}

// attachments groups the geometry pass targets, which are recreated
// together whenever the surface size changes.
type attachments struct {
	position     gfx.Texture
	positionView gfx.TextureView
	normal       gfx.Texture
	normalView   gfx.TextureView
	depth        gfx.Texture
	depthView    gfx.TextureView
}

func (a *attachments) release() {
	for _, view := range []gfx.TextureView{a.positionView, a.normalView, a.depthView} {
		if view != nil {
			view.Release()
		}
	}
	for _, tex := range []gfx.Texture{a.position, a.normal, a.depth} {
		if tex != nil {
			tex.Release()
		}
	}
	*a = attachments{}
}

// New creates a renderer on the given device. Pipeline descriptors are
// validated here; a mismatch between shader interface, vertex layout
// and attachment formats is a startup fault returned as an error.
func New(device gfx.Device, cfg Configuration) (*Renderer, error) {
	r := &Renderer{device: device, cfg: cfg}

	var err error
	if r.attachments, err = createAttachments(device, cfg.ScreenWidth, cfg.ScreenHeight); err != nil {
		return nil, err
	}

	r.colorSampler, err = device.CreateSampler(gfx.SamplerDesc{
		Name:      "gbuffer color",
		MinFilter: gfx.FilterLinear,
		MagFilter: gfx.FilterLinear,
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("gfx.CreateSampler(): %w", err)
	}
	r.depthSampler, err = device.CreateSampler(gfx.SamplerDesc{
		Name:      "gbuffer depth",
		MinFilter: gfx.FilterNearest,
		MagFilter: gfx.FilterNearest,
		Compare:   gfx.CompareLessEqual,
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("gfx.CreateSampler(): %w", err)
	}

	r.geometryPipeline, err = device.CreateRenderPipeline(gfx.RenderPipelineDesc{
		Name:          "geometry",
		Source:        cfg.GeometrySource,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Vertex:        mesh.VertexLayout(),
		Layout:        gfx.BindingLayout{UniformBytes: GlobalsSize},
		ColorTargets: []gfx.ColorTargetDesc{
			{Format: gfx.FormatRGBA16Float},
			{Format: gfx.FormatRGBA16Float},
		},
		DepthStencil: &gfx.DepthStencilDesc{
			Format:       gfx.FormatDepth32Float,
			WriteEnabled: true,
			Compare:      gfx.CompareLess,
		},
		CullBack: true,
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("gfx.CreateRenderPipeline(): %w", err)
	}

	r.lightingPipeline, err = device.CreateRenderPipeline(gfx.RenderPipelineDesc{
		Name:          "lighting",
		Source:        cfg.LightingSource,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Vertex:        mesh.VertexLayout(),
		Layout:        lightingLayout(),
		ColorTargets: []gfx.ColorTargetDesc{
			{Format: cfg.SurfaceFormat},
		},
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("gfx.CreateRenderPipeline(): %w", err)
	}

	if r.quad, err = UploadVertices(device, "fullscreen quad", fullscreenQuad()); err != nil {
		r.destroy()
		return nil, err
	}

	if r.encoder, err = device.CreateCommandEncoder("frame", inFlightFrames); err != nil {
		r.destroy()
		return nil, fmt.Errorf("gfx.CreateCommandEncoder(): %w", err)
	}

	log.WithFields(log.Fields{
		"width":  cfg.ScreenWidth,
		"height": cfg.ScreenHeight,
	}).Info("renderer ready")

	return r, nil
}

func lightingLayout() gfx.BindingLayout {
	return gfx.BindingLayout{
		UniformBytes: GlobalsSize,
		Textures: []gfx.TextureBinding{
			{},            // position
			{},            // normal
			{Depth: true}, // depth
		},
		Samplers: []gfx.SamplerBinding{
			{},
			{Compare: true},
		},
	}
}

func createAttachments(device gfx.Device, width, height uint32) (attachments, error) {
	var a attachments
	size := gfx.Extent{Width: width, Height: height, Depth: 1}

	create := func(name string, format gfx.TextureFormat) (gfx.Texture, gfx.TextureView, error) {
		tex, err := device.CreateTexture(gfx.TextureDesc{
			Name:   name,
			Format: format,
			Size:   size,
			Usage:  gfx.TextureUsageRenderTarget | gfx.TextureUsageSampled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("gfx.CreateTexture(): %w", err)
		}
		view, err := device.CreateTextureView(tex, gfx.TextureViewDesc{Name: name, Format: format})
		if err != nil {
			tex.Release()
			return nil, nil, fmt.Errorf("gfx.CreateTextureView(): %w", err)
		}
		return tex, view, nil
	}

	var err error
	if a.position, a.positionView, err = create("gbuffer position", gfx.FormatRGBA16Float); err != nil {
		return a, err
	}
	if a.normal, a.normalView, err = create("gbuffer normal", gfx.FormatRGBA16Float); err != nil {
		a.release()
		return a, err
	}
	if a.depth, a.depthView, err = create("gbuffer depth", gfx.FormatDepth32Float); err != nil {
		a.release()
		return a, err
	}
	return a, nil
}

// fullscreenQuad returns two screen-covering triangles in normalized
// device coordinates. Normals are unused by the lighting shader.
func fullscreenQuad() []mesh.Vertex {
	corners := []glm.Vec3{
		{-1, -1, 0}, {1, -1, 0}, {1, 1, 0},
		{1, 1, 0}, {-1, 1, 0}, {-1, -1, 0},
	}
	vertices := make([]mesh.Vertex, len(corners))
	for idx, pos := range corners {
		vertices[idx] = mesh.Vertex{Pos: pos}
	}
	return vertices
}

// Resize recreates the geometry attachments for a new surface size.
// The caller must have reconfigured the surface already. Blocks on the
// outstanding frame so no in-flight work references the old targets.
func (r *Renderer) Resize(width, height uint32) error {
	if err := r.waitOutstanding(); err != nil {
		return err
	}
	r.attachments.release()

	var err error
	if r.attachments, err = createAttachments(r.device, width, height); err != nil {
		return err
	}
	r.cfg.ScreenWidth, r.cfg.ScreenHeight = width, height
	return nil
}

// RenderFrame renders one frame of the given meshes from the camera's
// point of view. An acquire failure is returned as-is; the caller
// reconfigures the surface and retries on the next tick. After the
// submission, the previous frame's sync point is waited on, keeping at
// most two frames in flight and making it safe to reuse per-frame
// resources two frames later.
func (r *Renderer) RenderFrame(cam camera.Camera, meshes []GpuMesh) error {
	frame, err := r.device.AcquireFrame()
	if err != nil {
		return fmt.Errorf("gfx.AcquireFrame(): %w", err)
	}

	_, forward, _ := cam.Basis()
	globals := Globals{
		ViewProjection: cam.ViewProjection(),
		CamPos:         cam.Pos,
		CamForward:     forward,
	}.Marshal()

	if err := r.encoder.Begin(); err != nil {
		return fmt.Errorf("gfx.CommandEncoder.Begin(): %w", err)
	}

	if err := r.recordGeometry(globals, meshes); err != nil {
		return err
	}
	if err := r.recordLighting(globals, frame); err != nil {
		return err
	}

	r.encoder.Present(frame)
	sync, err := r.device.Submit(r.encoder)
	if err != nil {
		return fmt.Errorf("gfx.Submit(): %w", err)
	}

	if err := r.waitOutstanding(); err != nil {
		return err
	}
	r.prevSync = sync
	return nil
}

func (r *Renderer) recordGeometry(globals []byte, meshes []GpuMesh) error {
	pass, err := r.encoder.BeginPass(gfx.PassDesc{
		Name: "geometry",
		Colors: []gfx.RenderTarget{
			{View: r.attachments.positionView, Init: gfx.InitClear, Finish: gfx.FinishStore},
			{View: r.attachments.normalView, Init: gfx.InitClear, Finish: gfx.FinishStore},
		},
		Depth: &gfx.RenderTarget{
			View:       r.attachments.depthView,
			Init:       gfx.InitClear,
			Finish:     gfx.FinishStore,
			ClearDepth: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("gfx.BeginPass(): %w", err)
	}

	pass.SetPipeline(r.geometryPipeline)
	for _, m := range meshes {
		if err := pass.Bind(0, gfx.Bindings{Uniforms: globals}); err != nil {
			return fmt.Errorf("gfx.Pass.Bind(): %w", err)
		}
		pass.SetVertexBuffer(0, m.Vertices)
		if m.Indices != nil {
			pass.SetIndexBuffer(m.Indices)
			pass.DrawIndexed(m.IndexCount, 1)
		} else {
			pass.Draw(m.VertexCount, 1)
		}
	}
	pass.End()
	return nil
}

func (r *Renderer) recordLighting(globals []byte, frame gfx.Frame) error {
	pass, err := r.encoder.BeginPass(gfx.PassDesc{
		Name: "lighting",
		Colors: []gfx.RenderTarget{
			{View: frame.View(), Init: gfx.InitClear, Finish: gfx.FinishStore, Clear: r.cfg.ClearColor},
		},
	})
	if err != nil {
		return fmt.Errorf("gfx.BeginPass(): %w", err)
	}

	pass.SetPipeline(r.lightingPipeline)
	err = pass.Bind(0, gfx.Bindings{
		Uniforms: globals,
		Textures: []gfx.TextureView{
			r.attachments.positionView,
			r.attachments.normalView,
			r.attachments.depthView,
		},
		Samplers: []gfx.Sampler{r.colorSampler, r.depthSampler},
	})
	if err != nil {
		return fmt.Errorf("gfx.Pass.Bind(): %w", err)
	}
	pass.SetVertexBuffer(0, r.quad.Vertices)
	pass.Draw(r.quad.VertexCount, 1)
	pass.End()
	return nil
}

func (r *Renderer) waitOutstanding() error {
	if r.prevSync == nil {
		return nil
	}
	if err := r.device.Wait(r.prevSync); err != nil {
		return fmt.Errorf("gfx.Wait(): %w", err)
	}
	r.prevSync = nil
	return nil
}

// Release waits on the outstanding frame and frees all renderer-owned
// device resources. The device itself is left to the caller.
func (r *Renderer) Release() {
	if err := r.waitOutstanding(); err != nil {
		log.WithError(err).Error("outstanding frame wait failed during release")
	}
	r.destroy()
}

func (r *Renderer) destroy() {
	r.quad.Release()
	for _, releasable := range []gfx.Releasable{
		r.geometryPipeline, r.lightingPipeline,
		r.colorSampler, r.depthSampler,
	} {
		if releasable != nil {
			releasable.Release()
		}
	}
	r.geometryPipeline, r.lightingPipeline = nil, nil
	r.colorSampler, r.depthSampler = nil, nil
	r.attachments.release()
}
