// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package platform provides the operating system specific parts of
// the driver: the host monotonic clock and its bridge to the runtime
// time conversion extension, and the OpenGL context bindings that
// sessions are created with.
package platform

import (
	"sync"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// TimeBridge is the host monotonic clock, together with the
// runtime extension that converts its raw ticks to runtime time.
type TimeBridge interface {

	// Extension returns the name of the runtime extension that
	// converts [TimeBridge.Ticks] values to runtime time.
	Extension() string

	// Now returns the current host time in seconds.
	Now() float64

	// Ticks returns the current raw clock value.
	Ticks() int64

	// ToTicks converts host seconds to raw clock ticks.
	ToTicks(secs float64) int64

	// FromTicks converts raw clock ticks to host seconds.
	FromTicks(ticks int64) float64
}

// GraphicsBinding is an externally created OpenGL context
// that a session renders with.
type GraphicsBinding interface {

	// Native returns the runtime graphics binding struct,
	// one of the xr.GraphicsBinding* types.
	Native() any

	// MakeCurrent makes the context current on the calling thread.
	MakeCurrent() error

	// ReleaseCurrent detaches the context from the calling thread.
	ReleaseCurrent() error
}

// TextureCopier is implemented by a [GraphicsBinding] that can
// copy the contents of one texture to another. It is used to copy
// caller owned textures into swapchain images on runtimes that fail
// to reactivate the context on the presenter thread.
type TextureCopier interface {
	CopyTexture(src, dst uint32, width, height int) error
}

// OpenGLBinding is a [GraphicsBinding] for a native OpenGL context
// whose current-context switching is done by the given functions.
type OpenGLBinding struct {
	native any

	// Current makes the context current (true) or not current
	// (false) on the calling thread. Nil does nothing.
	Current func(current bool) error

	// Copy copies textures for [TextureCopier]. Nil makes
	// CopyTexture fail with [errors.ErrUnsupported].
	Copy func(src, dst uint32, width, height int) error
}

// NewOpenGLBinding returns a new [OpenGLBinding] for the given
// xr.GraphicsBinding* struct.
func NewOpenGLBinding(native any, current func(bool) error) *OpenGLBinding {
	return &OpenGLBinding{native: native, Current: current}
}

func (b *OpenGLBinding) Native() any { return b.native }

func (b *OpenGLBinding) MakeCurrent() error {
	if b.Current == nil {
		return nil
	}
	return b.Current(true)
}

func (b *OpenGLBinding) ReleaseCurrent() error {
	if b.Current == nil {
		return nil
	}
	return b.Current(false)
}

func (b *OpenGLBinding) CopyTexture(src, dst uint32, width, height int) error {
	if b.Copy == nil {
		return errors.ErrUnsupported
	}
	return b.Copy(src, dst, width, height)
}

// Copy is one texture copy recorded by [HeadlessBinding].
type Copy struct {
	Src, Dst      uint32
	Width, Height int
}

// HeadlessBinding is a [GraphicsBinding] without any graphics
// context, for the simulated runtime and headless runtimes. It
// records texture copies and current-context switches.
type HeadlessBinding struct {
	mu       sync.Mutex
	copies   []Copy
	current  int
	switches int
}

func (b *HeadlessBinding) Native() any { return xr.GraphicsBindingHeadless{} }

func (b *HeadlessBinding) MakeCurrent() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current++
	b.switches++
	return nil
}

func (b *HeadlessBinding) ReleaseCurrent() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current > 0 {
		b.current--
	}
	return nil
}

func (b *HeadlessBinding) CopyTexture(src, dst uint32, width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.copies = append(b.copies, Copy{src, dst, width, height})
	return nil
}

// Copies returns the texture copies done so far.
func (b *HeadlessBinding) Copies() []Copy {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Copy(nil), b.copies...)
}

// Switches returns how often the context was made current.
func (b *HeadlessBinding) Switches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.switches
}
