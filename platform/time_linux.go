// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package platform

import (
	"math"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"golang.org/x/sys/unix"
)

// timespecClock is CLOCK_MONOTONIC in nanoseconds, which is the
// clock of XR_KHR_convert_timespec_time.
type timespecClock struct{}

// NewTimeBridge returns the [TimeBridge] of the host platform.
func NewTimeBridge() TimeBridge { return timespecClock{} }

func (timespecClock) Extension() string { return xr.KHRConvertTimespecTime }

func (c timespecClock) Now() float64 { return c.FromTicks(c.Ticks()) }

func (timespecClock) Ticks() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return ts.Nano()
}

func (timespecClock) ToTicks(secs float64) int64 { return int64(math.Round(secs * 1e9)) }

func (timespecClock) FromTicks(ticks int64) float64 { return float64(ticks) / 1e9 }
