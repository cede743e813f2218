// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/mirage/asset"
	"github.com/devblok/mirage/camera"
	"github.com/devblok/mirage/gfx/webgpu"
	"github.com/devblok/mirage/input"
	"github.com/devblok/mirage/mesh"
	"github.com/devblok/mirage/renderer"
)

func init() {
	runtime.LockOSThread()
}

var shaders = packr.NewBox("./shaders")

// keyBindings maps window keys onto the abstract camera controls.
var keyBindings = map[glfw.Key]input.Key{
	glfw.KeyW:     input.MoveForward,
	glfw.KeyS:     input.MoveBack,
	glfw.KeyA:     input.MoveLeft,
	glfw.KeyD:     input.MoveRight,
	glfw.KeyQ:     input.MoveDown,
	glfw.KeyE:     input.MoveUp,
	glfw.KeyUp:    input.LookUp,
	glfw.KeyDown:  input.LookDown,
	glfw.KeyLeft:  input.LookLeft,
	glfw.KeyRight: input.LookRight,
}

func envUint(name string, fallback uint32) uint32 {
	value, err := strconv.ParseUint(envy.Get(name, ""), 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(value)
}

func envInt(name string, fallback int) int {
	value, err := strconv.Atoi(envy.Get(name, ""))
	if err != nil {
		return fallback
	}
	return value
}

// loadScene gathers the meshes to render. MIRAGE_PACK selects an
// asset pack, MIRAGE_MESH an entry in it or a plain file path.
func loadScene(device *webgpu.Device) ([]renderer.GpuMesh, error) {
	meshPath := envy.Get("MIRAGE_MESH", "")
	packPath := envy.Get("MIRAGE_PACK", "")

	var cpu mesh.CpuMesh
	switch {
	case packPath != "" && meshPath != "":
		archive, err := asset.OpenFile(packPath)
		if err != nil {
			return nil, err
		}
		defer archive.Close()
		entry, err := archive.Open(meshPath)
		if err != nil {
			return nil, err
		}
		cpu = mesh.Parse(entry)
	case meshPath != "":
		cpu = mesh.LoadFile(meshPath)
	default:
		cpu = mesh.Parse(strings.NewReader(builtinCube))
	}

	vertices := mesh.Flatten(cpu)
	gpu, err := renderer.UploadVertices(device, "scene", vertices)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"vertices": len(vertices),
		"radius":   mesh.BoundingRadius(vertices),
	}).Info("scene uploaded")
	return []renderer.GpuMesh{gpu}, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("no .env file, using defaults")
	}

	width := envUint("MIRAGE_WIDTH", 800)
	height := envUint("MIRAGE_HEIGHT", 600)

	if err := glfw.Init(); err != nil {
		log.WithError(err).Fatal("glfw.Init() failed")
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(int(width), int(height), "Mirage", nil, nil)
	if err != nil {
		log.WithError(err).Fatal("glfw.CreateWindow() failed")
	}
	defer window.Destroy()

	device, err := webgpu.New(wgpuglfw.GetSurfaceDescriptor(window), width, height)
	if err != nil {
		log.WithError(err).Fatal("webgpu.New() failed")
	}
	defer device.Destroy()

	r, err := renderer.New(device, renderer.Configuration{
		Time: renderer.TimeConfiguration{
			FramesPerSecond: envInt("MIRAGE_FPS", 60),
		},
		ScreenWidth:    width,
		ScreenHeight:   height,
		SurfaceFormat:  device.SurfaceFormat(),
		GeometrySource: shaders.String("geometry.wgsl"),
		LightingSource: shaders.String("lighting.wgsl"),
	})
	if err != nil {
		log.WithError(err).Fatal("renderer.New() failed")
	}
	defer r.Release()

	scene, err := loadScene(device)
	if err != nil {
		log.WithError(err).Fatal("scene load failed")
	}
	defer func() {
		for idx := range scene {
			scene[idx].Release()
		}
	}()

	var held input.State
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		bound, ok := keyBindings[key]
		if !ok {
			return
		}
		switch action {
		case glfw.Press:
			held = held.With(bound)
		case glfw.Release:
			held = held.Without(bound)
		}
	})

	resized := false
	window.SetFramebufferSizeCallback(func(w *glfw.Window, newWidth, newHeight int) {
		if newWidth > 0 && newHeight > 0 {
			width, height = uint32(newWidth), uint32(newHeight)
			resized = true
		}
	})

	cam := camera.DefaultFromAspect(float32(width) / float32(height))

	time := renderer.NewTime(renderer.TimeConfiguration{
		FramesPerSecond:  envInt("MIRAGE_FPS", 60),
		EventPollDelayMs: 1,
	})
	defer time.Stop()

	reconfigure := func() {
		device.Configure(width, height)
		if err := r.Resize(width, height); err != nil {
			log.WithError(err).Fatal("renderer resize failed")
		}
		cam.Aspect = float32(width) / float32(height)
	}

	for !window.ShouldClose() {
		<-time.FpsTicker().C
		glfw.PollEvents()

		if resized {
			resized = false
			reconfigure()
		}

		cam = cam.Apply(held)
		if err := r.RenderFrame(cam, scene); err != nil {
			log.WithError(err).Warn("frame dropped, reconfiguring surface")
			reconfigure()
		}
	}
	log.Info("event loop exited")
}

// builtinCube is the fallback scene, a unit cube around the origin.
const builtinCube = `v -1 -1 -1
v 1 -1 -1
v 1 1 -1
v -1 1 -1
v -1 -1 1
v 1 -1 1
v 1 1 1
v -1 1 1
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 3 4 8 7
f 2 3 7 6
f 1 5 8 4
`
