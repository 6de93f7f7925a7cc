// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"fmt"

	"github.com/kleinerm/Psychtoolbox-3-sub009/input"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// Bits of [InputState.ActiveInputs].
const (
	InputButtons     = 1
	InputTouches     = 2
	InputTrigger     = 4
	InputGrip        = 8
	InputThumbstick  = 16
	InputThumbstick2 = 32
)

// InputState is a snapshot of the inputs of one controller type.
type InputState struct {

	// Valid is set if any input category has an active source.
	Valid bool

	// ActiveInputs has an Input* bit set for every category with an
	// active source. Values of other categories are zero.
	ActiveInputs int

	// Time is the host time in seconds of the latest input change.
	Time float64

	Buttons [input.NumButtons]bool
	Touches [input.NumTouches]bool

	// Trigger and Grip are the left and right analog values in [0, 1].
	Trigger [2]float32
	Grip    [2]float32

	// Thumbstick and Thumbstick2 are the left and right 2D axes
	// in [-1, 1].
	Thumbstick  [2]xr.Vector2f
	Thumbstick2 [2]xr.Vector2f
}

// inputQuery collects action states of one subaction path.
type inputQuery struct {
	rt     xr.Runtime
	s      xr.Session
	path   xr.Path
	latest xr.Time
	state  *InputState
}

// skip returns whether a failed query means the action has no
// binding for the path, which is not an error.
func skip(res xr.Result) bool { return res == xr.ErrorPathUnsupported }

func (q *inputQuery) touch(t xr.Time) {
	q.latest = max(q.latest, t)
}

func (q *inputQuery) boolean(a xr.Action, bit int) (bool, error) {
	st, res := q.rt.GetActionStateBoolean(q.s, a, q.path)
	if skip(res) {
		return false, nil
	}
	if res.Failed() {
		return false, res.Err("xrGetActionStateBoolean")
	}
	if !st.IsActive {
		return false, nil
	}
	q.state.ActiveInputs |= bit
	q.touch(st.LastChangeTime)
	return st.CurrentState, nil
}

func (q *inputQuery) float(a xr.Action, bit int) (float32, error) {
	st, res := q.rt.GetActionStateFloat(q.s, a, q.path)
	if skip(res) {
		return 0, nil
	}
	if res.Failed() {
		return 0, res.Err("xrGetActionStateFloat")
	}
	if !st.IsActive {
		return 0, nil
	}
	q.state.ActiveInputs |= bit
	q.touch(st.LastChangeTime)
	return st.CurrentState, nil
}

func (q *inputQuery) vector(a xr.Action, bit int) (xr.Vector2f, error) {
	st, res := q.rt.GetActionStateVector2f(q.s, a, q.path)
	if skip(res) {
		return xr.Vector2f{}, nil
	}
	if res.Failed() {
		return xr.Vector2f{}, res.Err("xrGetActionStateVector2f")
	}
	if !st.IsActive {
		return xr.Vector2f{}, nil
	}
	q.state.ActiveInputs |= bit
	q.touch(st.LastChangeTime)
	return st.CurrentState, nil
}

// GetInputState returns the input state of the given controller type:
// [input.ControllerLTouch], [input.ControllerRTouch],
// [input.ControllerRemote], [input.ControllerXBox] or
// [input.ControllerActive] for all active controllers.
func (d *Driver) GetInputState(handle int, controller uint32) (InputState, error) {
	var is InputState
	dev, err := d.device(handle)
	if err != nil {
		return is, err
	}
	if err := d.processEvents(); err != nil {
		return is, err
	}
	d.mu.Lock()
	reg := d.input
	d.mu.Unlock()

	path, ok, err := reg.ControllerPath(controller)
	if err != nil {
		return is, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if !ok {
		return is, fmt.Errorf("%w: controller type 0x%x has no inputs", ErrInvalidArgument, controller)
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.session == 0 {
		return is, ErrNoSession
	}
	if err := reg.Sync(dev.session); err != nil {
		return is, err
	}
	q := &inputQuery{rt: d.rt, s: dev.session, path: path, state: &is}
	for b := range input.Button(input.NumButtons) {
		if is.Buttons[b], err = q.boolean(reg.Action(input.ButtonAction(b)), InputButtons); err != nil {
			return is, fmt.Errorf("button %s: %w", b, err)
		}
	}
	for t := range input.Touch(input.NumTouches) {
		if is.Touches[t], err = q.boolean(reg.Action(input.TouchAction(t)), InputTouches); err != nil {
			return is, fmt.Errorf("touch %s: %w", t, err)
		}
	}
	for hand := range 2 {
		if is.Trigger[hand], err = q.float(reg.Action(input.Trigger(hand)), InputTrigger); err != nil {
			return is, fmt.Errorf("trigger %d: %w", hand, err)
		}
		if is.Grip[hand], err = q.float(reg.Action(input.Grip(hand)), InputGrip); err != nil {
			return is, fmt.Errorf("grip %d: %w", hand, err)
		}
		if is.Thumbstick[hand], err = q.vector(reg.Action(input.Thumbstick(hand)), InputThumbstick); err != nil {
			return is, fmt.Errorf("thumbstick %d: %w", hand, err)
		}
		if is.Thumbstick2[hand], err = q.vector(reg.Action(input.Thumbstick2(hand)), InputThumbstick2); err != nil {
			return is, fmt.Errorf("thumbstick2 %d: %w", hand, err)
		}
	}
	is.Valid = is.ActiveInputs != 0
	if q.latest > 0 {
		is.Time = dev.tb.FromXrTime(q.latest)
	}
	return is, nil
}

// Controllers returns the mask of controller types that currently
// have an interaction profile bound.
func (d *Driver) Controllers(handle int) (uint32, error) {
	dev, err := d.device(handle)
	if err != nil {
		return 0, err
	}
	if err := d.processEvents(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	reg := d.input
	d.mu.Unlock()
	dev.mu.Lock()
	s := dev.session
	dev.mu.Unlock()
	if s == 0 {
		return 0, ErrNoSession
	}
	mask, err := reg.ActiveControllers(s)
	if err != nil {
		return 0, err
	}
	return mask, d.processEvents()
}
