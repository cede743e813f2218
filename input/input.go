// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package input models the held-key state the camera consumes. The
// state is an explicit value built by the windowing layer each frame
// and passed into whatever reacts to it, so control logic stays free
// of window-system types and global key registries.
package input

// Key is one abstract control the camera reacts to.
type Key uint8

// Camera controls.
const (
	MoveForward Key = iota
	MoveBack
	MoveLeft
	MoveRight
	MoveDown
	MoveUp
	LookUp
	LookDown
	LookLeft
	LookRight
)

// State is the set of currently held keys. The zero value holds none.
type State uint16

// With returns the state with key held.
func (s State) With(k Key) State {
	return s | 1<<k
}

// Without returns the state with key released.
func (s State) Without(k Key) State {
	return s &^ (1 << k)
}

// Held reports whether key is held.
func (s State) Held(k Key) bool {
	return s&(1<<k) != 0
}
