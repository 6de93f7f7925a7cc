// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build glfw && (linux || windows)

package glfwctx

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
)

// Context is an OpenGL context of a hidden window.
type Context struct {

	// Window is the hidden window owning the context.
	Window *glfw.Window

	// Binding is the graphics binding for the context.
	Binding *platform.OpenGLBinding
}

// New creates a hidden window of the given size with an OpenGL 3.3
// compatibility context. It must be called on the main thread,
// which it locks to the current OS thread.
func New(width, height int, title string) (*Context, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, errors.Log(err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Visible, glfw.False)
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Log(err)
	}
	w.MakeContextCurrent()
	c := &Context{Window: w}
	c.Binding = nativeBinding(w, c.current)
	return c, nil
}

func (c *Context) current(current bool) error {
	if current {
		c.Window.MakeContextCurrent()
	} else {
		glfw.DetachCurrentContext()
	}
	return nil
}

// Destroy destroys the window and terminates GLFW.
// It must be called on the thread that called [New].
func (c *Context) Destroy() {
	glfw.DetachCurrentContext()
	c.Window.Destroy()
	glfw.Terminate()
}
