// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package openxr implements [xr.Runtime] on the system OpenXR loader,
// driving whatever runtime the loader selects (Monado, SteamVR, ...).
//
// The binding needs cgo, the OpenXR loader and its headers, and the
// X11 and GLX headers on Linux. It is only built with the openxr
// build tag:
//
//	go build -tags openxr ./cmd/xrcore
//
// Without the tag only the helpers in this file are available and
// [Available] is false.
package openxr

import (
	"unicode/utf8"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// ErrNotBuilt is returned by [Open] in builds without the openxr tag.
var ErrNotBuilt = errors.New("openxr: built without the openxr build tag")

// PackVersion returns the XrVersion encoding of v:
// major in the top 16 bits, minor in the next 16, patch in the low 32.
func PackVersion(v xr.Version) uint64 {
	return uint64(v.Major&0xffff)<<48 | uint64(v.Minor&0xffff)<<32 | uint64(v.Patch)
}

// UnpackVersion decodes an XrVersion.
func UnpackVersion(v uint64) xr.Version {
	return xr.Version{Major: uint32(v >> 48), Minor: uint32(v>>32) & 0xffff, Patch: uint32(v)}
}

// copyName returns s truncated to fit a NUL terminated C char array
// of size n, cutting only at rune boundaries.
func copyName(s string, n int) string {
	if len(s) < n {
		return s
	}
	s = s[:n-1]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
