// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// optionalExtensions are enabled if the runtime supports them.
var optionalExtensions = []string{
	xr.FBDisplayRefreshRate,
	xr.KHRCompositionLayerDepth,
	xr.EXTEyeGazeInteraction,
	xr.EXTDpadBinding,
	xr.HTCViveCosmosControllerInteraction,
	xr.HTCViveFocus3ControllerInteraction,
	xr.HPMixedRealityController,
	xr.EXTHPMixedRealityController,
	xr.EXTSamsungOdysseyController,
	xr.HTCXViveTrackerInteraction,
	xr.MNDHeadless,
}

// mandatoryExtensions returns the extensions the driver can not
// work without, given the time conversion extension of the platform.
func mandatoryExtensions(timeExt string) []string {
	return []string{xr.KHROpenGLEnable, xr.EXTDebugUtils, timeExt}
}

// selectExtensions returns the extensions to enable from the
// supported ones, or an error naming the missing mandatory ones.
func selectExtensions(supported []xr.ExtensionProperties, timeExt string) ([]string, error) {
	has := func(name string) bool {
		return slices.ContainsFunc(supported, func(p xr.ExtensionProperties) bool { return p.Name == name })
	}
	var enable, missing []string
	for _, e := range mandatoryExtensions(timeExt) {
		if has(e) {
			enable = append(enable, e)
		} else {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingExtension, strings.Join(missing, ", "))
	}
	for _, e := range optionalExtensions {
		if has(e) {
			enable = append(enable, e)
		} else {
			slog.Debug("optional runtime extension not supported", "extension", e)
		}
	}
	return enable, nil
}
