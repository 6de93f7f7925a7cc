// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/simxr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingState(t *testing.T) {
	env := newTestEnv(t, simxr.Options{EyeGaze: true})
	d := env.d
	h, _ := env.open(t, false)
	env.rt.SetHeadPose(xr.Posef{Orientation: xr.Quaternionf{W: 1}, Position: xr.Vector3f{Y: 1.6}})

	ts, err := d.GetTrackingState(h, 0, TrackHead|TrackHands|TrackGaze)
	require.NoError(t, err)
	head := ts.Head
	assert.Equal(t, 1|2|4|128, head.Status)
	assert.Equal(t, 1|2|4, head.SessionState)
	assert.InDelta(t, 1.6, head.Pose[1], 1e-5)
	assert.Greater(t, head.Time, 0.0)
	for hand := range 2 {
		assert.NotZero(t, ts.Hands[hand].Status&3, "hand %d", hand)
		assert.Equal(t, head.Time, ts.Hands[hand].Time)
	}
	require.Len(t, ts.Gaze, 1)

	at := d.Now() + 0.02
	ts, err = d.GetTrackingState(h, at, TrackHead)
	require.NoError(t, err)
	assert.Equal(t, at, ts.Head.Time)
	assert.Zero(t, ts.Hands[0].Status)
	assert.Empty(t, ts.Gaze)
}

func TestSessionExit(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, dev := env.open(t, true)

	require.Equal(t, xr.Success, env.rt.RequestExitSession(dev.sessionHandle()))
	ts, err := d.GetTrackingState(h, 0, TrackHead)
	require.NoError(t, err)
	assert.NotZero(t, ts.Head.SessionState&16)
	assert.Zero(t, ts.Head.SessionState&(2|4))
	states := env.hooks.States()
	assert.Contains(t, states, xr.SessionStateStopping)
	assert.Contains(t, states, xr.SessionStateExiting)

	dev.mu.Lock()
	assert.False(t, dev.sessionActive)
	assert.False(t, dev.presenterRunning())
	dev.mu.Unlock()

	// nothing is presented once the session stopped
	onset, _, _, err := d.PresentFrame(h, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, onset)
}

func TestSessionLossPending(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, dev := env.open(t, false)

	env.rt.SetSessionState(dev.sessionHandle(), xr.SessionStateLossPending)
	_, _, _, err := d.PresentFrame(h, 0)
	require.Error(t, err)
	assert.Equal(t, xr.SessionLossPending, xr.ResultOf(err))

	ts, err := d.GetTrackingState(h, 0, TrackHead)
	require.NoError(t, err)
	assert.NotZero(t, ts.Head.SessionState&8)
	assert.Zero(t, ts.Head.SessionState&(2|4))
}

func TestReferenceSpaceType(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, dev := env.open(t, false)

	old, bounds, err := d.ReferenceSpaceType(h, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, old)
	assert.Equal(t, xr.Extent2Df{Width: 3, Height: 2.5}, bounds)
	dev.mu.Lock()
	assert.Equal(t, xr.ReferenceSpaceStage, dev.refType)
	assert.Equal(t, dev.worldSpace, dev.proj.Space)
	dev.mu.Unlock()

	old, _, err = d.ReferenceSpaceType(h, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, old)
	old, _, err = d.ReferenceSpaceType(h, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, old)

	_, _, err = d.ReferenceSpaceType(h, 3)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	ts, err := d.GetTrackingState(h, 0, TrackHead)
	require.NoError(t, err)
	assert.NotZero(t, ts.Head.Status&1)
}

func TestNoStage(t *testing.T) {
	env := newTestEnv(t, simxr.Options{NoStage: true})
	d := env.d
	h, _ := env.open(t, false)

	_, bounds, err := d.ReferenceSpaceType(h, 2)
	assert.Error(t, err)
	assert.Equal(t, xr.Extent2Df{}, bounds)
	old, _, err := d.ReferenceSpaceType(h, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, old)
}

func TestViewType(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, dev := env.open(t, false)

	old, err := d.ViewType(h, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, old)
	old, err = d.ViewType(h, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, old)
	dev.mu.Lock()
	assert.Equal(t, xr.ViewConfigurationPrimaryMono, dev.viewType)
	assert.Len(t, dev.viewConf, 1)
	dev.mu.Unlock()
	_, err = d.ViewType(h, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProjection(t *testing.T) {
	q := math32.Pi / 4
	m := Projection(xr.Fovf{AngleLeft: -q, AngleRight: q, AngleUp: q, AngleDown: -q}, 1, 3)
	want := [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, -2, -3},
		{0, 0, -1, 0},
	}
	for i := range 4 {
		for j := range 4 {
			assert.InDelta(t, want[i][j], m[i][j], 1e-6, "m[%d][%d]", i, j)
		}
	}

	m = Projection(xr.Fovf{AngleLeft: -q, AngleRight: math32.Atan(0.5), AngleUp: q, AngleDown: -q}, 1, 3)
	assert.InDelta(t, 4.0/3, m[0][0], 1e-6)
	assert.InDelta(t, -1.0/3, m[0][2], 1e-6)
}

func TestStaticRenderParameters(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, _ := env.open(t, false)

	ms, err := d.GetStaticRenderParameters(h, 0.1, 100)
	require.NoError(t, err)
	for eye := range 2 {
		assert.Greater(t, ms[eye][0][0], 0.0)
		assert.Equal(t, -1.0, ms[eye][3][2])
	}
	_, err = d.GetStaticRenderParameters(h, 0, 100)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = d.GetStaticRenderParameters(h, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
