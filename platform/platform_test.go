// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package platform

import (
	"testing"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeBridge(t *testing.T) {
	tb := NewTimeBridge()
	assert.NotEmpty(t, tb.Extension())

	t0 := tb.Now()
	time.Sleep(10 * time.Millisecond)
	t1 := tb.Now()
	assert.Greater(t, t1-t0, 0.009)
	assert.Less(t, t1-t0, 1.0)

	ticks := tb.Ticks()
	assert.InDelta(t, tb.FromTicks(ticks), tb.Now(), 0.1)
	assert.InDelta(t, 1.25, tb.FromTicks(tb.ToTicks(1.25)), 1e-6)
}

func TestOpenGLBinding(t *testing.T) {
	var calls []bool
	b := NewOpenGLBinding(xr.GraphicsBindingOpenGLXlib{GLXContext: 3}, func(c bool) error {
		calls = append(calls, c)
		return nil
	})
	require.NoError(t, b.MakeCurrent())
	require.NoError(t, b.ReleaseCurrent())
	assert.Equal(t, []bool{true, false}, calls)
	assert.Equal(t, xr.GraphicsBindingOpenGLXlib{GLXContext: 3}, b.Native())

	var tc TextureCopier = b
	assert.ErrorIs(t, tc.CopyTexture(1, 2, 3, 4), errors.ErrUnsupported)
	b.Copy = func(src, dst uint32, w, h int) error { return nil }
	assert.NoError(t, tc.CopyTexture(1, 2, 3, 4))
}

func TestHeadlessBinding(t *testing.T) {
	b := &HeadlessBinding{}
	var gb GraphicsBinding = b
	assert.Equal(t, xr.GraphicsBindingHeadless{}, gb.Native())
	require.NoError(t, gb.MakeCurrent())
	require.NoError(t, gb.ReleaseCurrent())
	assert.Equal(t, 1, b.Switches())

	require.NoError(t, b.CopyTexture(10, 20, 640, 480))
	assert.Equal(t, []Copy{{10, 20, 640, 480}}, b.Copies())
}
