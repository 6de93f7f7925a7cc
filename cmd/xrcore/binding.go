// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(glfw && (linux || windows))

package main

import (
	"errors"

	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
)

// newBinding returns the graphics binding for a session and the
// function releasing it.
func newBinding(useGLFW bool, width, height int) (platform.GraphicsBinding, func(), error) {
	if useGLFW {
		return nil, nil, errors.New("built without GLFW support; rebuild with -tags glfw")
	}
	return &platform.HeadlessBinding{}, func() {}, nil
}
