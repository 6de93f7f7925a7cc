// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package platform

import "github.com/kleinerm/Psychtoolbox-3-sub009/xr"

// NewNativeBinding returns an [OpenGLBinding] for a GLX context on
// an X11 display. current switches the context on the calling thread.
func NewNativeBinding(display uintptr, visualID uint32, fbConfig, drawable, context uintptr, current func(bool) error) *OpenGLBinding {
	return NewOpenGLBinding(xr.GraphicsBindingOpenGLXlib{
		XDisplay:    display,
		VisualID:    visualID,
		GLXFBConfig: fbConfig,
		GLXDrawable: drawable,
		GLXContext:  context,
	}, current)
}
