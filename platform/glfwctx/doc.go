// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package glfwctx provides an OpenGL context in a hidden GLFW window,
// as a native platform.GraphicsBinding for sessions of real runtimes.
// The implementation is only built with the glfw build tag, so that
// the driver itself does not depend on cgo.
package glfwctx
