// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build glfw && (linux || windows)

package main

import (
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform/glfwctx"
)

// newBinding returns the graphics binding for a session and the
// function releasing it.
func newBinding(useGLFW bool, width, height int) (platform.GraphicsBinding, func(), error) {
	if !useGLFW {
		return &platform.HeadlessBinding{}, func() {}, nil
	}
	c, err := glfwctx.New(width, height, "xrcore")
	if err != nil {
		return nil, nil, err
	}
	return c.Binding, c.Destroy, nil
}
