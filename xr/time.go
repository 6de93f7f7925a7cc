// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xr

import (
	"math"
	"time"
)

// Time is a runtime timestamp in nanoseconds on the runtime clock.
// Zero is never a valid time.
type Time int64

// Duration is a runtime duration in nanoseconds.
type Duration int64

const (
	// InfiniteDuration waits forever.
	InfiniteDuration Duration = math.MaxInt64

	// MinHapticDuration requests the shortest haptic pulse the
	// device supports.
	MinHapticDuration Duration = -1

	// NoDuration is a zero duration.
	NoDuration Duration = 0
)

// FrequencyUnspecified leaves the haptic frequency to the runtime.
const FrequencyUnspecified float32 = 0

// Seconds returns the time in seconds.
func (t Time) Seconds() float64 { return float64(t) / 1e9 }

// Add returns t+d.
func (t Time) Add(d Duration) Time { return t + Time(d) }

// Sub returns t-u.
func (t Time) Sub(u Time) Duration { return Duration(t - u) }

// Seconds returns the duration in seconds.
func (d Duration) Seconds() float64 { return float64(d) / 1e9 }

// Std returns the equivalent [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// TimeFromSeconds returns the [Time] for the given seconds,
// rounded to the nearest nanosecond.
func TimeFromSeconds(secs float64) Time { return Time(math.Round(secs * 1e9)) }

// DurationFromSeconds returns the [Duration] for the given seconds,
// rounded to the nearest nanosecond.
func DurationFromSeconds(secs float64) Duration {
	return Duration(math.Round(secs * 1e9))
}
