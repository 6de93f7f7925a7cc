// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package platform

import (
	"math"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"golang.org/x/sys/windows"
)

// qpcClock is the performance counter, which is the clock of
// XR_KHR_win32_convert_performance_counter_time.
type qpcClock struct {
	freq float64
}

// NewTimeBridge returns the [TimeBridge] of the host platform.
func NewTimeBridge() TimeBridge {
	var freq int64
	if err := windows.QueryPerformanceFrequency(&freq); err != nil || freq == 0 {
		freq = 1
	}
	return qpcClock{freq: float64(freq)}
}

func (qpcClock) Extension() string { return xr.KHRWin32ConvertPerformanceCounterTime }

func (c qpcClock) Now() float64 { return c.FromTicks(c.Ticks()) }

func (qpcClock) Ticks() int64 {
	var t int64
	windows.QueryPerformanceCounter(&t)
	return t
}

func (c qpcClock) ToTicks(secs float64) int64 { return int64(math.Round(secs * c.freq)) }

func (c qpcClock) FromTicks(ticks int64) float64 { return float64(ticks) / c.freq }
