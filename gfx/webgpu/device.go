// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package webgpu implements the gfx.Device boundary on wgpu-native
// through the cogentcore bindings. Sync points are queue submission
// indices; waiting polls the device until the index completes, then
// retires the transient resources of that submission.
package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/mirage/gfx"
)

// Device is the wgpu-native rendering device. Create one with New,
// reconfigure the surface with Configure, tear down with Destroy.
type Device struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	config wgpu.SurfaceConfiguration
}

var _ gfx.Device = (*Device)(nil)

// New creates a device presenting to the surface described by desc,
// typically obtained from wgpuglfw.GetSurfaceDescriptor.
func New(desc *wgpu.SurfaceDescriptor, width, height uint32) (*Device, error) {
	d := &Device{instance: wgpu.CreateInstance(nil)}
	d.surface = d.instance.CreateSurface(desc)

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.surface,
	})
	if err != nil {
		d.Destroy()
		return nil, fmt.Errorf("wgpu.RequestAdapter(): %w", err)
	}
	d.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "mirage",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		d.Destroy()
		return nil, fmt.Errorf("wgpu.RequestDevice(): %w", err)
	}
	d.device = device
	d.queue = device.GetQueue()

	caps := d.surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 {
		d.Destroy()
		return nil, fmt.Errorf("wgpu.GetCapabilities(): surface reports no formats")
	}
	d.config = wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       width,
		Height:      height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	d.surface.Configure(adapter, device, &d.config)

	log.WithFields(log.Fields{
		"format": d.config.Format,
		"width":  width,
		"height": height,
	}).Info("wgpu device ready")

	return d, nil
}

// SurfaceFormat returns the presentable surface format at the device
// boundary, for pipeline color target declarations.
func (d *Device) SurfaceFormat() gfx.TextureFormat {
	return surfaceFormat(d.config.Format)
}

// Configure resizes the presentable surface. Call on window resize
// and after a failed frame acquire.
func (d *Device) Configure(width, height uint32) {
	d.config.Width = width
	d.config.Height = height
	d.surface.Configure(d.adapter, d.device, &d.config)
}

type frame struct {
	texture *wgpu.Texture
	view    *textureView
}

func (f *frame) View() gfx.TextureView { return f.view }

func (f *frame) release() {
	f.view.Release()
	f.texture.Release()
}

// AcquireFrame acquires the next surface image. Errors are transient
// presentation conditions; Configure and retry.
func (d *Device) AcquireFrame() (gfx.Frame, error) {
	tex, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("wgpu.GetCurrentTexture(): %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("wgpu.Texture.CreateView(): %w", err)
	}
	return &frame{texture: tex, view: &textureView{view: view}}, nil
}

// syncPoint pairs a submission index with the transient resources the
// submission borrowed. Both retire together in Wait.
type syncPoint struct {
	index     wgpu.SubmissionIndex
	transient []gfx.Releasable
}

// Submit finishes the encoder's recording, hands it to the queue and
// presents the frame marked by the encoder, if any.
func (d *Device) Submit(enc gfx.CommandEncoder) (gfx.SyncPoint, error) {
	e, ok := enc.(*encoder)
	if !ok {
		return nil, fmt.Errorf("webgpu: foreign command encoder %T", enc)
	}

	cmd, err := e.enc.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu.CommandEncoder.Finish(): %w", err)
	}
	defer cmd.Release()

	index := d.queue.Submit(cmd)
	if e.frame != nil {
		d.surface.Present()
	}

	sp := &syncPoint{index: index, transient: e.transient}
	if e.frame != nil {
		sp.transient = append(sp.transient, releaseFunc(e.frame.release))
		e.frame = nil
	}
	e.transient = nil
	e.enc = nil
	return sp, nil
}

type releaseFunc func()

func (f releaseFunc) Release() { f() }

// Wait blocks until the submission behind sp completes, then retires
// its transient resources.
func (d *Device) Wait(sp gfx.SyncPoint) error {
	point, ok := sp.(*syncPoint)
	if !ok {
		return fmt.Errorf("webgpu: foreign sync point %T", sp)
	}

	d.device.Poll(true, &wgpu.WrappedSubmissionIndex{
		Queue:           d.queue,
		SubmissionIndex: point.index,
	})
	for _, releasable := range point.transient {
		releasable.Release()
	}
	point.transient = nil
	return nil
}

// Destroy tears down the device. All resources must have been
// released and all sync points waited on beforehand.
func (d *Device) Destroy() {
	if d.device != nil {
		d.device.Poll(true, nil)
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
