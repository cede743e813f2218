// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package input_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/mirage/input"
)

func TestStateHolds(t *testing.T) {
	c := qt.New(t)

	var state input.State
	c.Assert(state.Held(input.MoveForward), qt.IsFalse)

	state = state.With(input.MoveForward).With(input.LookLeft)
	c.Assert(state.Held(input.MoveForward), qt.IsTrue)
	c.Assert(state.Held(input.LookLeft), qt.IsTrue)
	c.Assert(state.Held(input.MoveBack), qt.IsFalse)

	state = state.Without(input.MoveForward)
	c.Assert(state.Held(input.MoveForward), qt.IsFalse)
	c.Assert(state.Held(input.LookLeft), qt.IsTrue)

	// Releasing a key that is not held changes nothing.
	c.Assert(state.Without(input.MoveUp), qt.Equals, state)
}
