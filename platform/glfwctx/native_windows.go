// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build glfw && windows

package glfwctx

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"golang.org/x/sys/windows"
)

var procGetDC = windows.NewLazySystemDLL("user32.dll").NewProc("GetDC")

func nativeBinding(w *glfw.Window, current func(bool) error) *platform.OpenGLBinding {
	hdc, _, _ := procGetDC.Call(uintptr(unsafe.Pointer(w.GetWin32Window())))
	hglrc := uintptr(unsafe.Pointer(w.GetWGLContext()))
	return platform.NewNativeBinding(hdc, 0, 0, 0, hglrc, current)
}
