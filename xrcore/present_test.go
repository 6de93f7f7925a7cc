// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"context"
	"io"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/simxr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frameOrder is the valid order of frame timing calls on a session.
var frameOrder = regexp.MustCompile(`^Wait Begin(( Release)+ Submit Wait Begin| Wait Begin)*$`)

func traceString(calls []simxr.Call) string {
	s := make([]string, len(calls))
	for i, c := range calls {
		s[i] = string(c)
	}
	return strings.Join(s, " ")
}

func submitted(frames []simxr.Frame) int {
	n := 0
	for _, f := range frames {
		if !f.Discarded {
			n++
		}
	}
	return n
}

func TestPresentSync(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, dev := env.open(t, false)
	_, _, _, _, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)

	last := 0.0
	for i := range 12 {
		if i%4 == 3 {
			// nothing rendered, so nothing is submitted
			onset, next, _, err := d.PresentFrame(h, 0)
			require.NoError(t, err)
			assert.Equal(t, 0.0, onset)
			assert.Greater(t, next, last)
			continue
		}
		tex, err := d.GetNextTextureHandle(h, 0)
		require.NoError(t, err)
		assert.Greater(t, tex, int64(0))
		onset, next, flip, err := d.PresentFrame(h, 0)
		require.NoError(t, err)
		assert.Greater(t, onset, last)
		assert.Greater(t, next, onset)
		assert.Less(t, flip, onset)
		last = onset
	}
	s := dev.sessionHandle()
	trace := traceString(env.rt.Trace(s))
	assert.Regexp(t, frameOrder, trace)
	assert.Equal(t, 9, strings.Count(trace, "Submit"))
	assert.Equal(t, 9, submitted(env.rt.Frames(s)))
	assert.Equal(t, 0, env.rt.Overlaps(s))
}

func TestPresentTarget(t *testing.T) {
	env := newTestEnv(t, simxr.Options{RefreshRate: 200})
	d := env.d
	h, _ := env.open(t, false)
	_, _, _, _, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)

	_, err = d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)
	target := d.Now() + 0.05
	onset, _, _, err := d.PresentFrame(h, target)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, onset, target-0.005-1e-4)
	assert.Less(t, onset, target+0.02)
}

func TestPresentLate(t *testing.T) {
	env := newTestEnv(t, simxr.Options{RefreshRate: 100})
	d := env.d
	h, dev := env.open(t, false)
	_, _, _, _, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)

	fd := 0.01
	for range 2 {
		_, err := d.GetNextTextureHandle(h, 0)
		require.NoError(t, err)
		// rendering takes several frame durations
		time.Sleep(60 * time.Millisecond)
		call := d.Now()
		onset, next, _, err := d.PresentFrame(h, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, onset, call-1e-4)
		assert.InDelta(t, next-fd, onset, 1e-6)

		frames := env.rt.Frames(dev.sessionHandle())
		require.NotEmpty(t, frames)
		f := frames[len(frames)-1]
		assert.Less(t, f.DisplayTime.Seconds(), call)
		assert.InDelta(t, f.PresentTime.Seconds(), onset, 1e-5)
	}
}

func TestPresentAsync(t *testing.T) {
	env := newTestEnv(t, simxr.Options{RefreshRate: 250})
	d := env.d
	h, dev := env.open(t, true)
	dev.mu.Lock()
	running := dev.presenterRunning()
	dev.mu.Unlock()
	require.True(t, running)
	_, _, _, _, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)

	s := dev.sessionHandle()
	fd := 1.0 / 250
	start := d.Now()
	last := 0.0
	for i := range 10 {
		_, err := d.GetNextTextureHandle(h, 0)
		require.NoError(t, err)
		target := start + float64(i)*3*fd
		onset, _, _, err := d.PresentFrame(h, target)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, onset, last, "present %d", i)
		assert.GreaterOrEqual(t, onset, target-fd, "present %d", i)
		last = onset
		// the content was latched before completion was signaled
		assert.GreaterOrEqual(t, submitted(env.rt.Frames(s)), i+1)
	}

	require.NoError(t, d.Start(h))
	assert.Regexp(t, frameOrder, traceString(env.rt.Trace(s)))
	assert.Equal(t, 0, env.rt.Overlaps(s))

	// with the presenter stopped, presents run synchronously
	_, err = d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)
	onset, _, _, err := d.PresentFrame(h, 0)
	require.NoError(t, err)
	assert.Greater(t, onset, last)

	require.NoError(t, d.Stop(h))
	dev.mu.Lock()
	running = dev.presenterRunning()
	dev.mu.Unlock()
	assert.True(t, running)
}

func TestPresenterStop(t *testing.T) {
	env := newTestEnv(t, simxr.Options{RefreshRate: 20})
	d := env.d
	h, dev := env.open(t, true)
	_, _, _, _, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)
	_, err = d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)

	// a present for a far target stays pending in the mailbox
	type result struct {
		onset float64
		err   error
	}
	done := make(chan result, 1)
	go func() {
		onset, _, _, err := d.PresentFrame(h, d.Now()+30)
		done <- result{onset, err}
	}()
	require.Eventually(t, func() bool {
		dev.mu.Lock()
		defer dev.mu.Unlock()
		_, ok := dev.mbox.(mailboxPending)
		return ok
	}, time.Second, time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	fd := 50 * time.Millisecond
	begin := time.Now()
	require.NoError(t, d.Start(h))
	assert.Less(t, time.Since(begin), fd+25*time.Millisecond)

	select {
	case r := <-done:
		assert.ErrorIs(t, r.err, ErrPresenterStopped)
		assert.Equal(t, -1.0, r.onset)
	case <-time.After(time.Second):
		t.Fatal("pending present did not fail after presenter stop")
	}
	assert.Regexp(t, frameOrder, traceString(env.rt.Trace(dev.sessionHandle())))
}

func TestPresenterIdle(t *testing.T) {
	env := newTestEnv(t, simxr.Options{RefreshRate: 250})
	d := env.d
	h, dev := env.open(t, true)
	_, _, _, _, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)

	s := dev.sessionHandle()
	require.Eventually(t, func() bool {
		return strings.Count(traceString(env.rt.Trace(s)), "Wait") >= 5
	}, time.Second, time.Millisecond)
	require.NoError(t, d.Start(h))

	trace := traceString(env.rt.Trace(s))
	assert.Regexp(t, frameOrder, trace)
	assert.NotContains(t, trace, "Submit")
	assert.Zero(t, submitted(env.rt.Frames(s)))
	assert.Equal(t, 0, env.rt.Overlaps(s))
}

func TestAcquireRelease(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, dev := env.open(t, false)
	_, _, n, _, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dev.mu.Lock()
	for range 5 {
		_, err := dev.acquire(0)
		require.NoError(t, err)
		require.NoError(t, dev.release(0))
	}
	_, err = dev.acquire(0)
	require.NoError(t, err)
	_, err = dev.acquire(0)
	assert.ErrorIs(t, err, ErrAlreadyAcquired)
	require.NoError(t, dev.release(0))
	assert.ErrorIs(t, dev.release(0), ErrNotAcquired)
	dev.mu.Unlock()

	tex, err := d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)
	assert.Greater(t, tex, int64(0))
	again, err := d.GetNextTextureHandle(h, 0)
	assert.ErrorIs(t, err, ErrAlreadyAcquired)
	assert.Equal(t, int64(-1), again)
	require.NoError(t, d.EndFrameRender(h, 0))
	tex, err = d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)
	assert.Greater(t, tex, int64(0))
	require.NoError(t, d.EndFrameRender(h, 0))
	assert.ErrorIs(t, d.EndFrameRender(h, 0), ErrNotAcquired)
	assert.ErrorIs(t, d.EndFrameRender(h, -1), ErrNotAcquired)
	_, err = d.GetNextTextureHandle(h, 1)
	assert.ErrorIs(t, err, ErrInvalidEye)
}

func TestImageWaitTimeout(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, dev := env.open(t, false)
	_, _, _, _, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)
	dev.mu.Lock()
	sc := dev.chains[0].handle
	dev.mu.Unlock()

	env.rt.FailWaits(sc, 1)
	tex, err := d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), tex)
	tex, err = d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)
	assert.Greater(t, tex, int64(0))
}

func TestStereoChains(t *testing.T) {
	env := newTestEnv(t, simxr.Options{})
	d := env.d
	h, dev := env.open(t, false)

	_, _, _, _, err := d.CreateRenderTextureChain(h, 1, 640, 480, false, 1)
	assert.ErrorIs(t, err, ErrLeftEyeFirst)
	_, _, _, _, err = d.CreateRenderTextureChain(h, 2, 640, 480, false, 1)
	assert.ErrorIs(t, err, ErrInvalidEye)
	_, _, _, _, err = d.CreateRenderTextureChain(h, 0, 100000, 480, false, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, _, _, err = d.CreateRenderTextureChain(h, 0, 640, 480, false, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, _, format, err := d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)
	assert.Equal(t, xr.GLRGBA16, format)
	_, _, _, _, err = d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	assert.ErrorIs(t, err, ErrChainExists)
	_, _, _, _, err = d.CreateRenderTextureChain(h, 1, 320, 240, false, 1)
	assert.ErrorIs(t, err, ErrEyeMismatch)
	dev.mu.Lock()
	assert.False(t, dev.stereo)
	dev.mu.Unlock()

	_, _, _, _, err = d.CreateRenderTextureChain(h, 1, 640, 480, false, 1)
	require.NoError(t, err)
	dev.mu.Lock()
	assert.True(t, dev.stereo)
	assert.Equal(t, xr.EyeVisibilityLeft, dev.quads[0].EyeVisibility)
	assert.Equal(t, xr.EyeVisibilityRight, dev.quads[1].EyeVisibility)
	dev.mu.Unlock()

	for eye := range 2 {
		_, err := d.GetNextTextureHandle(h, eye)
		require.NoError(t, err)
	}
	_, _, _, err = d.PresentFrame(h, 0)
	require.NoError(t, err)

	s := dev.sessionHandle()
	trace := traceString(env.rt.Trace(s))
	assert.Regexp(t, frameOrder, trace)
	assert.Contains(t, trace, "Begin Release Release Submit")
	frames := env.rt.Frames(s)
	require.NotEmpty(t, frames)
	assert.Len(t, frames[len(frames)-1].Swapchains, 2)
}

func TestChooseFormat(t *testing.T) {
	all := simxr.DefaultFormats
	tests := []struct {
		supported []int64
		float     bool
		preferred int64
		want      int64
	}{
		{all, false, 0, xr.GLRGBA16},
		{all, true, 0, xr.GLRGBA32F},
		{[]int64{xr.GLRGBA8, xr.GLRGBA16F}, true, 0, xr.GLRGBA16F},
		{[]int64{xr.GLRGBA8, xr.GLSRGB8Alpha8}, false, 0, xr.GLSRGB8Alpha8},
		{[]int64{xr.GLRGBA8, xr.GLRGB10A2}, false, xr.GLRGB10A2, xr.GLRGB10A2},
		{[]int64{xr.GLRGBA8}, true, 0, xr.GLRGBA8},
		{[]int64{xr.GLRGB10A2}, false, 0, xr.GLRGB10A2},
		{nil, false, 0, 0},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.want, chooseFormat(tt.supported, tt.float, tt.preferred), "case %d", i)
	}
}

func TestCopyWorkaround(t *testing.T) {
	env := newTestEnv(t, simxr.Options{RefreshRate: 250})
	d := env.d
	h, _, _, _, err := d.Open(0)
	require.NoError(t, err)
	binding := &platform.HeadlessBinding{}
	_, err = d.CreateAndStartSession(h, binding, false, true, []uint32{77})
	require.NoError(t, err)
	_, _, _, _, err = d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)

	tex, err := d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(77), tex)
	_, _, _, err = d.PresentFrame(h, 0)
	require.NoError(t, err)
	copies := binding.Copies()
	require.NotEmpty(t, copies)
	assert.Equal(t, uint32(77), copies[0].Src)
	assert.Equal(t, 640, copies[0].Width)
	assert.GreaterOrEqual(t, binding.Switches(), 1)
}

func TestMetricsCorrelation(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	env := newTestEnv(t, simxr.Options{RefreshRate: 100, Metrics: w, PresentDelay: 2 * time.Millisecond}, func(o *Options) {
		o.OpenMetrics = func(ctx context.Context) (io.ReadCloser, error) { return r, nil }
	})
	d := env.d
	h, dev := env.open(t, false)
	_, _, _, _, err = d.CreateRenderTextureChain(h, 0, 640, 480, false, 1)
	require.NoError(t, err)

	s := dev.sessionHandle()
	for range 3 {
		_, err := d.GetNextTextureHandle(h, 0)
		require.NoError(t, err)
		onset, _, _, err := d.PresentFrame(h, 0)
		require.NoError(t, err)
		frames := env.rt.Frames(s)
		require.NotEmpty(t, frames)
		f := frames[len(frames)-1]
		// actual present time plus the default scanout offset
		assert.InDelta(t, f.PresentTime.Seconds()+0.004, onset, 1e-5)
	}

	// a late frame is reported at its actual present time
	_, err = d.GetNextTextureHandle(h, 0)
	require.NoError(t, err)
	time.Sleep(35 * time.Millisecond)
	call := d.Now()
	onset, _, _, err := d.PresentFrame(h, 0)
	require.NoError(t, err)
	frames := env.rt.Frames(s)
	f := frames[len(frames)-1]
	assert.Greater(t, f.PresentTime.Seconds(), call)
	assert.InDelta(t, f.PresentTime.Seconds()+0.004, onset, 1e-5)
}
