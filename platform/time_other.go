// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux && !windows

package platform

import (
	"math"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

var processStart = time.Now()

// monoClock is the Go monotonic clock relative to process start.
type monoClock struct{}

// NewTimeBridge returns the [TimeBridge] of the host platform.
func NewTimeBridge() TimeBridge { return monoClock{} }

func (monoClock) Extension() string { return xr.KHRConvertTimespecTime }

func (c monoClock) Now() float64 { return c.FromTicks(c.Ticks()) }

func (monoClock) Ticks() int64 { return int64(time.Since(processStart)) }

func (monoClock) ToTicks(secs float64) int64 { return int64(math.Round(secs * 1e9)) }

func (monoClock) FromTicks(ticks int64) float64 { return float64(ticks) / 1e9 }
