// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package platform

import "github.com/kleinerm/Psychtoolbox-3-sub009/xr"

// NewNativeBinding returns an [OpenGLBinding] for a WGL context.
// The unused arguments keep the signature identical across platforms.
// current switches the context on the calling thread.
func NewNativeBinding(hdc uintptr, _ uint32, _, _, hglrc uintptr, current func(bool) error) *OpenGLBinding {
	return NewOpenGLBinding(xr.GraphicsBindingOpenGLWin32{HDC: hdc, HGLRC: hglrc}, current)
}
