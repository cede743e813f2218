// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package camera_test

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/mirage/camera"
	"github.com/devblok/mirage/input"
)

func closeTo(c *qt.C, got, want glm.Vec3) {
	c.Helper()
	for idx := range want {
		c.Assert(math.Abs(float64(got[idx]-want[idx])) < 1e-5, qt.IsTrue,
			qt.Commentf("component %d: got %v, want %v", idx, got, want))
	}
}

func TestBasisAtRest(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(16.0 / 9.0)
	right, forward, up := cam.Basis()
	closeTo(c, right, glm.Vec3{1, 0, 0})
	closeTo(c, forward, glm.Vec3{0, 0, -1})
	closeTo(c, up, glm.Vec3{0, 1, 0})
}

func TestBasisStaysOrthonormal(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(1)
	cam.Yaw = 1.3
	cam.Pitch = -0.7

	right, forward, up := cam.Basis()
	for _, v := range []glm.Vec3{right, forward, up} {
		c.Assert(math.Abs(float64(v.Dot(v))-1) < 1e-5, qt.IsTrue)
	}
	c.Assert(math.Abs(float64(right.Dot(forward))) < 1e-5, qt.IsTrue)
	c.Assert(math.Abs(float64(right.Dot(up))) < 1e-5, qt.IsTrue)
	c.Assert(math.Abs(float64(forward.Dot(up))) < 1e-5, qt.IsTrue)
	closeTo(c, right.Cross(up), forward.Mul(-1))
}

func TestYawTurnsForwardInGroundPlane(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(1)
	cam.Yaw = math.Pi / 2

	_, forward, _ := cam.Basis()
	closeTo(c, forward, glm.Vec3{-1, 0, 0})
}

func TestViewInvertsWorldTransform(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(1)
	cam.Pos = glm.Vec3{2, -1, 4}
	cam.Yaw = 0.4
	cam.Pitch = 0.2

	// A point at the camera's position maps to the view-space origin.
	origin := cam.View().Mul4x1(cam.Pos.Vec4(1))
	closeTo(c, origin.Vec3(), glm.Vec3{})
}

func TestViewProjectionComposes(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(1.5)
	cam.Yaw = 0.9

	want := cam.Projection().Mul4(cam.View())
	got := cam.ViewProjection()
	for idx := range want {
		c.Assert(math.Abs(float64(got[idx]-want[idx])) < 1e-6, qt.IsTrue)
	}
}

func TestApplyMovesAlongBasis(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(1)
	_, forward, _ := cam.Basis()

	moved := cam.Apply(input.State(0).With(input.MoveForward))
	closeTo(c, moved.Pos, cam.Pos.Add(forward.Mul(camera.MoveSpeed)))
}

func TestApplyOpposingKeysCancel(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(1)
	state := input.State(0).
		With(input.MoveForward).
		With(input.MoveBack).
		With(input.LookLeft).
		With(input.LookRight)

	moved := cam.Apply(state)
	closeTo(c, moved.Pos, cam.Pos)
	c.Assert(moved.Yaw, qt.Equals, cam.Yaw)
}

func TestApplyTurns(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(1)

	turned := cam.Apply(input.State(0).With(input.LookLeft).With(input.LookUp))
	c.Assert(turned.Yaw, qt.Equals, cam.Yaw+camera.TurnSpeed)
	c.Assert(turned.Pitch, qt.Equals, cam.Pitch+camera.TurnSpeed)
}

func TestApplyDoesNotClampPitch(t *testing.T) {
	c := qt.New(t)
	cam := camera.DefaultFromAspect(1)
	cam.Pitch = math.Pi

	turned := cam.Apply(input.State(0).With(input.LookUp))
	c.Assert(turned.Pitch > math.Pi, qt.IsTrue)
}
