// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/logx"
	"github.com/kleinerm/Psychtoolbox-3-sub009/input"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

const (
	// FreqUnspecified leaves the frequency of a haptic pulse to the runtime.
	FreqUnspecified = -1

	// legacyMaxFreq is the frequency in Hz that a normalized
	// frequency of 1 maps to.
	legacyMaxFreq = 320
)

// hapticVibration validates the arguments of a haptic pulse and
// returns the vibration to apply. duration is in seconds, 0 for the
// shortest pulse the device supports. freq is in Hz if above 1,
// normalized onto 0 to 320 Hz if in (0, 1], or [FreqUnspecified].
func hapticVibration(duration, freq, amplitude float64) (xr.HapticVibration, error) {
	var v xr.HapticVibration
	switch {
	case duration < 0:
		return v, fmt.Errorf("%w: negative haptic duration %g", ErrInvalidArgument, duration)
	case duration == 0:
		v.Duration = xr.MinHapticDuration
	default:
		v.Duration = xr.DurationFromSeconds(duration)
	}
	switch {
	case freq == FreqUnspecified:
		v.Frequency = xr.FrequencyUnspecified
	case freq < 0:
		return v, fmt.Errorf("%w: negative haptic frequency %g", ErrInvalidArgument, freq)
	case freq <= 1:
		v.Frequency = float32(freq * legacyMaxFreq)
	default:
		v.Frequency = float32(freq)
	}
	if amplitude < 0 || amplitude > 1 {
		return v, fmt.Errorf("%w: haptic amplitude %g not in [0, 1]", ErrInvalidArgument, amplitude)
	}
	v.Amplitude = float32(amplitude)
	return v, nil
}

// HapticPulse starts a haptic pulse on the given controller type, or
// stops any ongoing pulse if freq is 0. See [hapticVibration] for the
// arguments. It returns the estimated host time in seconds at which
// the pulse ends, as the runtime does not report it. Tracked objects
// have no haptics, which is logged and yields 0.
func (d *Driver) HapticPulse(handle int, controller uint32, duration, freq, amplitude float64) (float64, error) {
	dev, err := d.device(handle)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	reg := d.input
	d.mu.Unlock()

	if controller == input.ControllerRemote {
		return 0, fmt.Errorf("%w: controller type 0x%x has no haptics", ErrInvalidArgument, controller)
	}
	path, ok, err := reg.ControllerPath(controller)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if !ok {
		slog.Warn("haptic feedback is not supported on tracked objects", "handle", handle, "controller", controller)
		return 0, nil
	}
	if err := d.processEvents(); err != nil {
		return 0, err
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.session == 0 {
		return 0, ErrNoSession
	}
	action := reg.Action(input.ActionHaptic)
	if freq == 0 {
		res := d.rt.StopHapticFeedback(dev.session, action, path)
		if res.Failed() {
			return 0, res.Err("xrStopHapticFeedback")
		}
		if res == xr.SessionNotFocused {
			slog.Debug("haptic stop ignored without input focus", "handle", handle)
		}
		return dev.tb.Now(), nil
	}
	v, err := hapticVibration(duration, freq, amplitude)
	if err != nil {
		return 0, err
	}
	res := d.rt.ApplyHapticFeedback(dev.session, action, path, v)
	if res.Failed() {
		return 0, res.Err("xrApplyHapticFeedback")
	}
	if res == xr.SessionNotFocused {
		slog.Debug("haptic pulse ignored without input focus", "handle", handle)
	}
	slog.Log(context.Background(), logx.LevelTrace, "haptic pulse", "handle", handle, "controller", controller, "duration", v.Duration, "freq", v.Frequency, "amplitude", v.Amplitude)
	return dev.tb.Now() + duration, nil
}
