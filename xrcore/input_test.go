// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"testing"

	"github.com/kleinerm/Psychtoolbox-3-sub009/input"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/simxr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputState(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, _ := env.open(t, false)

	env.rt.SetFloat("/user/hand/left/input/trigger", 0.75)
	env.rt.SetBoolean("/user/hand/right/input/a/click", true)
	env.rt.SetVector2("/user/hand/right/input/thumbstick", xr.Vector2f{X: 0.5, Y: -1})

	is, err := d.GetInputState(h, input.ControllerActive)
	require.NoError(t, err)
	assert.True(t, is.Valid)
	assert.NotZero(t, is.ActiveInputs&InputTrigger)
	assert.NotZero(t, is.ActiveInputs&InputButtons)
	assert.Equal(t, float32(0.75), is.Trigger[0])
	assert.Equal(t, float32(0), is.Trigger[1])
	assert.True(t, is.Buttons[input.ButtonA])
	assert.False(t, is.Buttons[input.ButtonX])
	assert.Equal(t, xr.Vector2f{X: 0.5, Y: -1}, is.Thumbstick[1])
	assert.Greater(t, is.Time, 0.0)
	assert.LessOrEqual(t, is.Time, d.Now())

	is, err = d.GetInputState(h, input.ControllerRTouch)
	require.NoError(t, err)
	assert.True(t, is.Buttons[input.ButtonA])

	_, err = d.GetInputState(h, 0x12345)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = d.GetInputState(h, input.ControllerObject0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestControllers(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	h, _ := env.open(t, false)
	mask, err := env.d.Controllers(h)
	require.NoError(t, err)
	assert.Equal(t, input.ControllerLTouch|input.ControllerRTouch, mask)
}

func TestHapticPulse(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, _ := env.open(t, false)
	// focus the session
	_, err := d.Controllers(h)
	require.NoError(t, err)

	before := d.Now()
	end, err := d.HapticPulse(h, input.ControllerLTouch, 0, 0.5, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, end, before)

	end, err = d.HapticPulse(h, input.ControllerRTouch, 0.25, 200, 0.5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, end, before+0.25)

	_, err = d.HapticPulse(h, input.ControllerRTouch, 0, 0, 0)
	require.NoError(t, err)

	haptics := env.rt.Haptics()
	require.Len(t, haptics, 3)
	assert.Equal(t, "/user/hand/left", haptics[0].Path)
	assert.Equal(t, xr.MinHapticDuration, haptics[0].Vibration.Duration)
	assert.Equal(t, float32(160), haptics[0].Vibration.Frequency)
	assert.Equal(t, float32(1), haptics[0].Vibration.Amplitude)
	assert.Equal(t, xr.DurationFromSeconds(0.25), haptics[1].Vibration.Duration)
	assert.Equal(t, float32(200), haptics[1].Vibration.Frequency)
	assert.True(t, haptics[2].Stop)

	_, err = d.HapticPulse(h, input.ControllerLTouch, -1, 0.5, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = d.HapticPulse(h, input.ControllerRemote, 0, 0.5, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	end, err = d.HapticPulse(h, input.ControllerObject1, 0, 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, end)
	assert.Len(t, env.rt.Haptics(), 3)
}

func TestHapticVibration(t *testing.T) {
	tests := []struct {
		duration, freq, amplitude float64
		want                      xr.HapticVibration
		err                       bool
	}{
		{0, 1, 1, xr.HapticVibration{Duration: xr.MinHapticDuration, Frequency: 320, Amplitude: 1}, false},
		{0.1, 0.25, 0.5, xr.HapticVibration{Duration: xr.DurationFromSeconds(0.1), Frequency: 80, Amplitude: 0.5}, false},
		{0.1, 150, 0, xr.HapticVibration{Duration: xr.DurationFromSeconds(0.1), Frequency: 150}, false},
		{0.1, FreqUnspecified, 1, xr.HapticVibration{Duration: xr.DurationFromSeconds(0.1), Frequency: xr.FrequencyUnspecified, Amplitude: 1}, false},
		{-0.1, 1, 1, xr.HapticVibration{}, true},
		{0.1, -2, 1, xr.HapticVibration{}, true},
		{0.1, 1, 1.5, xr.HapticVibration{}, true},
		{0.1, 1, -0.5, xr.HapticVibration{}, true},
	}
	for i, tt := range tests {
		v, err := hapticVibration(tt.duration, tt.freq, tt.amplitude)
		if tt.err {
			assert.ErrorIs(t, err, ErrInvalidArgument, "case %d", i)
			continue
		}
		require.NoError(t, err, "case %d", i)
		assert.Equal(t, tt.want, v, "case %d", i)
	}
}
