// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build glfw && linux

package glfwctx

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
)

func nativeBinding(w *glfw.Window, current func(bool) error) *platform.OpenGLBinding {
	display := uintptr(unsafe.Pointer(glfw.GetX11Display()))
	context := uintptr(unsafe.Pointer(w.GetGLXContext()))
	return platform.NewNativeBinding(display, 0, 0, uintptr(w.GetX11Window()), context, current)
}
