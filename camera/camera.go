// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package camera implements the first-person camera: a position with
// yaw and pitch, the matrices derived from them, and the per-tick
// movement policy driven by held-key state.
package camera

import (
	"math"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/mirage/input"
)

// Movement policy constants, applied once per tick a key is held.
const (
	MoveSpeed = 0.01
	TurnSpeed = 0.003
)

// Near and far clip planes of the projection.
const (
	NearPlane = 0.001
	FarPlane  = 100.0
)

// Camera is a first-person camera. Orientation composes yaw around
// the world Y axis, then pitch around the local X axis. Pitch is not
// clamped.
type Camera struct {
	Pos    glm.Vec3
	Yaw    float32
	Pitch  float32
	Fov    float32
	Aspect float32
}

// DefaultFromAspect returns a camera at a short distance up and back
// from the origin, with a quarter-turn field of view.
func DefaultFromAspect(aspect float32) Camera {
	return Camera{
		Pos:    glm.Vec3{0, 1, 5},
		Fov:    math.Pi / 2,
		Aspect: aspect,
	}
}

func (c Camera) rotation() glm.Mat4 {
	return glm.HomogRotate3DY(c.Yaw).Mul4(glm.HomogRotate3DX(c.Pitch))
}

// View returns the world-to-camera matrix, the inverse of the
// camera's world transform.
func (c Camera) View() glm.Mat4 {
	world := glm.Translate3D(c.Pos[0], c.Pos[1], c.Pos[2]).Mul4(c.rotation())
	return world.Inv()
}

// Projection returns the right-handed perspective projection.
func (c Camera) Projection() glm.Mat4 {
	return glm.Perspective(c.Fov, c.Aspect, NearPlane, FarPlane)
}

// ViewProjection returns Projection times View.
func (c Camera) ViewProjection() glm.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Basis returns the camera's right, forward and up vectors in world
// space. Forward is the direction the camera looks down, the rotated
// −Z axis.
func (c Camera) Basis() (right, forward, up glm.Vec3) {
	rot := c.rotation().Mat3()
	right = rot.Mul3x1(glm.Vec3{1, 0, 0})
	forward = rot.Mul3x1(glm.Vec3{0, 0, -1})
	up = rot.Mul3x1(glm.Vec3{0, 1, 0})
	return right, forward, up
}

// Apply advances the camera by one tick of held-key state. Movement
// follows the current basis; look keys adjust yaw and pitch. Effects
// are additive when opposing keys are held together.
func (c Camera) Apply(state input.State) Camera {
	right, forward, up := c.Basis()

	if state.Held(input.MoveForward) {
		c.Pos = c.Pos.Add(forward.Mul(MoveSpeed))
	}
	if state.Held(input.MoveBack) {
		c.Pos = c.Pos.Sub(forward.Mul(MoveSpeed))
	}
	if state.Held(input.MoveRight) {
		c.Pos = c.Pos.Add(right.Mul(MoveSpeed))
	}
	if state.Held(input.MoveLeft) {
		c.Pos = c.Pos.Sub(right.Mul(MoveSpeed))
	}
	if state.Held(input.MoveUp) {
		c.Pos = c.Pos.Add(up.Mul(MoveSpeed))
	}
	if state.Held(input.MoveDown) {
		c.Pos = c.Pos.Sub(up.Mul(MoveSpeed))
	}

	if state.Held(input.LookUp) {
		c.Pitch += TurnSpeed
	}
	if state.Held(input.LookDown) {
		c.Pitch -= TurnSpeed
	}
	if state.Held(input.LookLeft) {
		c.Yaw += TurnSpeed
	}
	if state.Held(input.LookRight) {
		c.Yaw -= TurnSpeed
	}
	return c
}
