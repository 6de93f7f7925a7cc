// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"log/slog"

	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// timebase converts between host time in seconds and runtime time,
// through the raw ticks of the platform clock.
type timebase struct {
	rt     xr.Runtime
	inst   xr.Instance
	bridge platform.TimeBridge
}

// Now returns the current host time in seconds.
func (t *timebase) Now() float64 { return t.bridge.Now() }

// ToXrTime converts host seconds to runtime time. It returns 0
// if the conversion fails.
func (t *timebase) ToXrTime(secs float64) xr.Time {
	xt, res := t.rt.ConvertTicksToTime(t.inst, t.bridge.ToTicks(secs))
	if res.Failed() {
		slog.Error("host to runtime time conversion failed", "secs", secs, "err", res.Err("xrConvertTicksToTime"))
		return 0
	}
	return xt
}

// FromXrTime converts runtime time to host seconds. It returns 0
// if the conversion fails.
func (t *timebase) FromXrTime(xt xr.Time) float64 {
	ticks, res := t.rt.ConvertTimeToTicks(t.inst, xt)
	if res.Failed() {
		slog.Error("runtime to host time conversion failed", "time", int64(xt), "err", res.Err("xrConvertTimeToTicks"))
		return 0
	}
	return t.bridge.FromTicks(ticks)
}
