// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import (
	"slices"
	"testing"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/simxr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionIDs(t *testing.T) {
	assert.Equal(t, ButtonA, ButtonAction(ButtonA).Button())
	assert.Equal(t, ButtonMicMute, ButtonAction(ButtonMicMute).Button())
	assert.Equal(t, TouchLThumbUp, TouchAction(TouchLThumbUp).Touch())
	assert.Equal(t, Button(-1), ActionGaze.Button())
	assert.Equal(t, Touch(-1), ButtonAction(ButtonA).Touch())
	assert.Equal(t, ActionTriggerRight, Trigger(1))
	assert.Equal(t, ActionThumbstick2Left, Thumbstick2(0))
	assert.Equal(t, "LShoulder", ButtonLShoulder.String())
	assert.Equal(t, "Button7", Button(7).String())
}

func TestProfileAvailable(t *testing.T) {
	none := func(string) bool { return false }
	only := func(ext string) func(string) bool {
		return func(e string) bool { return e == ext }
	}
	profiles := DefaultProfiles()
	byPath := map[string]*Profile{}
	for _, p := range profiles {
		assert.NotContains(t, byPath, p.Path, "duplicate profile")
		byPath[p.Path] = p
		assert.NotEmpty(t, p.Bindings, p.Path)
	}

	simple := byPath["/interaction_profiles/khr/simple_controller"]
	require.NotNil(t, simple)
	assert.True(t, simple.Available(none))

	gaze := byPath["/interaction_profiles/ext/eye_gaze_interaction"]
	require.NotNil(t, gaze)
	assert.False(t, gaze.Available(none))
	assert.True(t, gaze.Available(only(xr.EXTEyeGazeInteraction)))

	hp := byPath["/interaction_profiles/hp/mixed_reality_controller"]
	require.NotNil(t, hp)
	assert.True(t, hp.Available(only(xr.EXTHPMixedRealityController)))
}

type fixture struct {
	rt   *simxr.Runtime
	inst xr.Instance
	s    xr.Session
	reg  *Registry
}

func newFixture(t *testing.T, opts simxr.Options) *fixture {
	t.Helper()
	rt := simxr.New(opts)
	inst, res := rt.CreateInstance(xr.InstanceCreateInfo{Extensions: []string{xr.MNDHeadless, xr.EXTEyeGazeInteraction}})
	require.Equal(t, xr.Success, res)
	sys, res := rt.GetSystem(inst, xr.FormFactorHeadMountedDisplay)
	require.Equal(t, xr.Success, res)
	s, res := rt.CreateSession(inst, xr.SessionCreateInfo{SystemID: sys, Binding: xr.GraphicsBindingHeadless{}})
	require.Equal(t, xr.Success, res)
	require.Equal(t, xr.Success, rt.BeginSession(s, xr.ViewConfigurationPrimaryStereo))
	return &fixture{rt: rt, inst: inst, s: s, reg: NewRegistry(rt, inst, DefaultProfiles())}
}

func enabled(exts ...string) func(string) bool {
	return func(e string) bool { return slices.Contains(exts, e) }
}

func TestRegistry(t *testing.T) {
	f := newFixture(t, simxr.DefaultOptions())
	r := f.reg

	assert.Error(t, r.Suggest(DefaultProfiles()[0]))
	require.NoError(t, r.CreateActions())
	set := r.ActionSet()
	require.NoError(t, r.CreateActions())
	assert.Equal(t, set, r.ActionSet())
	for id := ActionID(0); id < NumActions; id++ {
		assert.NotZero(t, r.Action(id), "action %d", id)
	}

	require.NoError(t, r.SuggestAll(enabled(xr.EXTEyeGazeInteraction)))
	require.NoError(t, r.SuggestAll(enabled(xr.EXTEyeGazeInteraction)))
	assert.False(t, r.Attached())
	require.NoError(t, r.Attach(f.s))
	assert.True(t, r.Attached())

	assert.ErrorIs(t, r.AddProfile(&Profile{Path: "/interaction_profiles/test/late"}), ErrAttached)
	assert.ErrorIs(t, r.Suggest(&Profile{Path: "/interaction_profiles/test/late"}), ErrAttached)
	assert.Len(t, r.Profiles(), len(DefaultProfiles()))

	mask, err := r.ActiveControllers(f.s)
	require.NoError(t, err)
	assert.Equal(t, ControllerLTouch|ControllerRTouch, mask)

	r.Destroy()
	assert.False(t, r.Attached())
	assert.Zero(t, r.ActionSet())
}

func TestControllerPath(t *testing.T) {
	f := newFixture(t, simxr.DefaultOptions())
	r := f.reg
	require.NoError(t, r.CreateActions())

	for i, ctrl := range []uint32{ControllerLTouch, ControllerRTouch, ControllerXBox, ControllerRemote} {
		p, ok, err := r.ControllerPath(ctrl)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, r.TopLevelPath(i), p)
		name, _ := f.rt.PathToString(f.inst, p)
		assert.Equal(t, TopLevelPaths[i], name)
	}
	p, ok, err := r.ControllerPath(ControllerActive)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, xr.NullPath, p)

	_, ok, err = r.ControllerPath(ControllerObject2)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = r.ControllerPath(3)
	assert.Error(t, err)
}

func TestGamepadProfile(t *testing.T) {
	opts := simxr.DefaultOptions()
	opts.Profiles = map[string]string{PathGamepad: "/interaction_profiles/microsoft/xbox_controller"}
	f := newFixture(t, opts)
	r := f.reg
	require.NoError(t, r.CreateActions())
	require.NoError(t, r.SuggestAll(enabled()))
	require.NoError(t, r.Attach(f.s))

	f.rt.SetBoolean("/user/gamepad/input/a/click", true)
	mask, err := r.ActiveControllers(f.s)
	require.NoError(t, err)
	assert.Equal(t, ControllerXBox, mask)

	st, res := f.rt.GetActionStateBoolean(f.s, r.Action(ButtonAction(ButtonA)), r.TopLevelPath(2))
	require.Equal(t, xr.Success, res)
	assert.True(t, st.IsActive)
	assert.True(t, st.CurrentState)
}
