// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import "github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"

// Errors returned for invalid use of the driver. Runtime failures
// are returned as [xr.Error] values instead, wrapped with context.
var (
	ErrNotInitialized   = errors.New("xrcore: driver not initialized")
	ErrMissingExtension = errors.New("xrcore: mandatory runtime extension missing")
	ErrInvalidHandle    = errors.New("xrcore: invalid device handle")
	ErrTooManyDevices   = errors.New("xrcore: too many open devices")
	ErrNoSession        = errors.New("xrcore: device has no session")
	ErrSessionExists    = errors.New("xrcore: device already has a session")
	ErrInvalidEye       = errors.New("xrcore: invalid eye")
	ErrChainExists      = errors.New("xrcore: eye already has a swapchain")
	ErrLeftEyeFirst     = errors.New("xrcore: swapchain of the left eye must be created first")
	ErrEyeMismatch      = errors.New("xrcore: swapchain size differs from the left eye")
	ErrAlreadyAcquired  = errors.New("xrcore: swapchain image already acquired")
	ErrNotAcquired      = errors.New("xrcore: no swapchain image acquired")
	ErrInvalidArgument  = errors.New("xrcore: invalid argument")
	ErrPresenterStopped = errors.New("xrcore: presenter stopped")

	// errImageTimeout is returned when a swapchain image did not
	// become available within imageWaitTimeout.
	errImageTimeout = errors.New("xrcore: swapchain image wait timed out")
)
