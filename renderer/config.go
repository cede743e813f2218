// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import "github.com/devblok/mirage/gfx"

// Configuration defines a complete renderer configuration.
type Configuration struct {
	Time TimeConfiguration

	// ScreenWidth and ScreenHeight size the intermediate geometry
	// attachments. They must track the presentable surface size.
	ScreenWidth  uint32
	ScreenHeight uint32

	// SurfaceFormat is the format of the presentable surface images
	// the lighting pass renders into.
	SurfaceFormat gfx.TextureFormat

	// GeometrySource and LightingSource are the shader sources for
	// the two passes.
	GeometrySource string
	LightingSource string

	// ClearColor fills the surface before the lighting pass writes.
	ClearColor gfx.Color
}

// TimeConfiguration is used to configure time services.
type TimeConfiguration struct {
	// FramesPerSecond caps the frame rate. Zero means uncapped.
	FramesPerSecond int

	// EventPollDelayMs is the event loop polling interval.
	EventPollDelayMs int
}
