// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/devblok/mirage/gfx"
)

func textureFormat(f gfx.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gfx.FormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case gfx.FormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case gfx.FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case gfx.FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	}
	return wgpu.TextureFormatUndefined
}

// surfaceFormat maps a native surface format back onto the device
// boundary. Srgb surface variants collapse onto their base format.
func surfaceFormat(f wgpu.TextureFormat) gfx.TextureFormat {
	switch f {
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb:
		return gfx.FormatRGBA8Unorm
	case wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
		return gfx.FormatBGRA8Unorm
	}
	return gfx.FormatUndefined
}

func bufferUsage(u gfx.BufferUsage) wgpu.BufferUsage {
	// CopyDst is implied: every buffer is fed through queue writes.
	usage := wgpu.BufferUsageCopyDst
	if u&gfx.BufferUsageVertex != 0 {
		usage |= wgpu.BufferUsageVertex
	}
	if u&gfx.BufferUsageIndex != 0 {
		usage |= wgpu.BufferUsageIndex
	}
	if u&gfx.BufferUsageUniform != 0 {
		usage |= wgpu.BufferUsageUniform
	}
	return usage
}

func textureUsage(u gfx.TextureUsage) wgpu.TextureUsage {
	var usage wgpu.TextureUsage
	if u&gfx.TextureUsageRenderTarget != 0 {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	if u&gfx.TextureUsageSampled != 0 {
		usage |= wgpu.TextureUsageTextureBinding
	}
	if u&gfx.TextureUsageCopy != 0 {
		usage |= wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc
	}
	return usage
}

func filterMode(f gfx.FilterMode) wgpu.FilterMode {
	if f == gfx.FilterLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

func compareFunction(f gfx.CompareFunction) wgpu.CompareFunction {
	switch f {
	case gfx.CompareLess:
		return wgpu.CompareFunctionLess
	case gfx.CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gfx.CompareAlways:
		return wgpu.CompareFunctionAlways
	}
	return wgpu.CompareFunctionUndefined
}

func vertexFormat(f gfx.VertexFormat) wgpu.VertexFormat {
	switch f {
	case gfx.VertexFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case gfx.VertexFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case gfx.VertexFloat32x4:
		return wgpu.VertexFormatFloat32x4
	}
	return wgpu.VertexFormatFloat32x3
}

func loadOp(op gfx.InitOp) wgpu.LoadOp {
	if op == gfx.InitPreserve {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func storeOp(op gfx.FinishOp) wgpu.StoreOp {
	if op == gfx.FinishDiscard {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}
