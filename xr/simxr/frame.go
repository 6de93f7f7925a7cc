// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simxr

import (
	"slices"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/metrics"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// maxTrace bounds the recorded frame trace and frame history.
const maxTrace = 1 << 16

type swapchain struct {
	session xr.Session
	info    xr.SwapchainCreateInfo
	images  []uint32

	next     int
	acquired int
	waited   bool
	released bool

	// timeouts is the number of upcoming waits that time out.
	timeouts int
}

// frameCall marks entry into a frame timing call and counts
// overlapping calls. The returned func marks the exit.
func (s *session) frameCall() func() {
	if s.inFrameCall.Add(1) > 1 {
		s.overlaps.Add(1)
	}
	return func() { s.inFrameCall.Add(-1) }
}

func (s *session) addTrace(c Call) {
	if len(s.trace) < maxTrace {
		s.trace = append(s.trace, c)
	}
}

// Trace returns the frame timing calls made on a session, in order.
func (r *Runtime) Trace(h xr.Session) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[h]; ok {
		return slices.Clone(s.trace)
	}
	return nil
}

// Frames returns the frames submitted on a session.
func (r *Runtime) Frames(h xr.Session) []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[h]; ok {
		return slices.Clone(s.frames)
	}
	return nil
}

// Overlaps returns the number of frame timing calls on a session
// that overlapped another one.
func (r *Runtime) Overlaps(h xr.Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[h]; ok {
		return int(s.overlaps.Load())
	}
	return 0
}

// nextVsync returns the first vsync boundary after both now and after.
func nextVsync(now, after xr.Time, period xr.Duration) xr.Time {
	p := xr.Time(period)
	b := (now/p + 1) * p
	for b <= after {
		b += p
	}
	return b
}

func (r *Runtime) WaitFrame(h xr.Session) (xr.FrameState, xr.Result) {
	r.mu.Lock()
	s, ok := r.sessions[h]
	if !ok {
		r.mu.Unlock()
		return xr.FrameState{}, xr.ErrorHandleInvalid
	}
	defer s.frameCall()()
	if !s.running {
		r.mu.Unlock()
		return xr.FrameState{}, xr.ErrorSessionNotRunning
	}
	if s.waited {
		res := r.fail("xrWaitFrame", xr.ErrorCallOrderInvalid, "xrWaitFrame called twice without xrBeginFrame")
		r.mu.Unlock()
		return xr.FrameState{}, res
	}
	s.addTrace(CallWait)
	period := r.period()
	wake := nextVsync(r.Now(), s.lastWake, period)
	s.lastWake = wake
	r.mu.Unlock()

	if d := wake.Sub(r.Now()); d > 0 {
		time.Sleep(d.Std())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s.frameID++
	s.waited = true
	predicted := wake.Add(period)
	s.predicted[s.frameID] = predicted
	return xr.FrameState{
		PredictedDisplayTime:   predicted,
		PredictedDisplayPeriod: period,
		ShouldRender:           s.state.IsVisible(),
	}, xr.Success
}

func (r *Runtime) BeginFrame(h xr.Session) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	defer s.frameCall()()
	if !s.running {
		return xr.ErrorSessionNotRunning
	}
	if !s.waited {
		return r.fail("xrBeginFrame", xr.ErrorCallOrderInvalid, "xrBeginFrame called without xrWaitFrame")
	}
	s.addTrace(CallBegin)
	s.waited = false
	res := xr.Success
	if s.begun {
		r.discard(s)
		res = xr.FrameDiscarded
	}
	s.begun = true
	s.begunFrame = s.frameID
	return res
}

// discard drops the begun frame. It must be called with r.mu held.
func (r *Runtime) discard(s *session) {
	r.emit(&metrics.SessionFrame{
		SessionID:            s.id,
		FrameID:              s.begunFrame,
		PredictedDisplayTime: uint64(s.predicted[s.begunFrame]),
		Discarded:            true,
	})
	delete(s.predicted, s.begunFrame)
}

func (r *Runtime) EndFrame(h xr.Session, info xr.FrameEndInfo) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	defer s.frameCall()()
	if !s.running {
		return xr.ErrorSessionNotRunning
	}
	if !s.begun {
		return r.fail("xrEndFrame", xr.ErrorCallOrderInvalid, "xrEndFrame called without xrBeginFrame")
	}
	if info.DisplayTime <= 0 {
		return r.fail("xrEndFrame", xr.ErrorTimeInvalid, "invalid display time %d", info.DisplayTime)
	}
	if info.EnvironmentBlendMode != xr.EnvironmentBlendModeOpaque {
		return xr.ErrorEnvironmentBlendModeUnsupported
	}
	if len(info.Layers) > 16 {
		return xr.ErrorLayerLimitExceeded
	}
	var used []xr.Swapchain
	for _, l := range info.Layers {
		for _, sh := range l.LayerSwapchains() {
			sc, ok := r.swapchains[sh]
			if !ok || sc.session != h {
				return r.fail("xrEndFrame", xr.ErrorLayerInvalid, "layer references invalid swapchain %d", sh)
			}
			if !sc.released {
				return r.fail("xrEndFrame", xr.ErrorLayerInvalid, "layer swapchain %d has no released image", sh)
			}
			used = append(used, sh)
		}
	}
	s.addTrace(CallSubmit)
	s.begun = false

	id := s.begunFrame
	predicted := s.predicted[id]
	delete(s.predicted, id)
	// a late frame makes the first vsync after its submit
	present := max(info.DisplayTime, predicted, nextVsync(r.Now(), 0, r.period())).Add(xr.Duration(r.opts.PresentDelay))
	discarded := len(info.Layers) == 0
	if len(s.frames) < maxTrace {
		s.frames = append(s.frames, Frame{
			ID:          id,
			DisplayTime: info.DisplayTime,
			PresentTime: present,
			Swapchains:  used,
			Discarded:   discarded,
		})
	}

	now := uint64(r.Now())
	r.emit(&metrics.SessionFrame{
		SessionID:              s.id,
		FrameID:                id,
		PredictedDisplayTime:   uint64(predicted),
		PredictedDisplayPeriod: uint64(r.period()),
		DisplayTime:            uint64(info.DisplayTime),
		WhenDelivered:          now,
		Discarded:              discarded,
	})
	if discarded {
		return xr.Success
	}
	r.systemFrame++
	r.emit(&metrics.SystemFrame{FrameID: r.systemFrame})
	r.emit(&metrics.Used{SessionID: s.id, SessionFrameID: id, SystemFrameID: r.systemFrame, When: now})
	r.emit(&metrics.SystemGPUInfo{FrameID: r.systemFrame})
	r.emit(&metrics.SystemPresentInfo{
		FrameID:            r.systemFrame,
		ActualPresentTime:  uint64(present),
		DesiredPresentTime: uint64(info.DisplayTime),
	})
	return xr.Success
}

func (r *Runtime) EnumerateSwapchainFormats(h xr.Session) ([]int64, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[h]; !ok {
		return nil, xr.ErrorHandleInvalid
	}
	return slices.Clone(r.opts.Formats), xr.Success
}

func (r *Runtime) CreateSwapchain(h xr.Session, info xr.SwapchainCreateInfo) (xr.Swapchain, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[h]; !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if !slices.Contains(r.opts.Formats, info.Format) {
		return 0, r.fail("xrCreateSwapchain", xr.ErrorSwapchainFormatUnsupported, "format %s not supported", xr.GLFormatName(info.Format))
	}
	if info.Width == 0 || info.Height == 0 || info.Width > 4096 || info.Height > 4096 {
		return 0, r.fail("xrCreateSwapchain", xr.ErrorValidationFailure, "invalid size %dx%d", info.Width, info.Height)
	}
	if info.SampleCount == 0 || info.SampleCount > 4 {
		return 0, xr.ErrorFeatureUnsupported
	}
	sc := &swapchain{session: h, info: info, acquired: -1}
	for range r.opts.SwapchainImages {
		sc.images = append(sc.images, r.nextTexture)
		r.nextTexture++
	}
	sh := xr.Swapchain(r.handle())
	r.swapchains[sh] = sc
	return sh, xr.Success
}

func (r *Runtime) DestroySwapchain(sh xr.Swapchain) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.swapchains[sh]; !ok {
		return xr.ErrorHandleInvalid
	}
	delete(r.swapchains, sh)
	return xr.Success
}

// Swapchains returns the number of live swapchains.
func (r *Runtime) Swapchains() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.swapchains)
}

// FailWaits makes the next n waits on a swapchain time out.
func (r *Runtime) FailWaits(sh xr.Swapchain, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sc, ok := r.swapchains[sh]; ok {
		sc.timeouts = n
	}
}

func (r *Runtime) EnumerateSwapchainImages(sh xr.Swapchain) ([]uint32, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.swapchains[sh]
	if !ok {
		return nil, xr.ErrorHandleInvalid
	}
	return slices.Clone(sc.images), xr.Success
}

func (r *Runtime) AcquireSwapchainImage(sh xr.Swapchain) (uint32, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.swapchains[sh]
	if !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if sc.acquired >= 0 {
		return 0, r.fail("xrAcquireSwapchainImage", xr.ErrorCallOrderInvalid, "swapchain %d image %d still acquired", sh, sc.acquired)
	}
	sc.acquired = sc.next
	sc.next = (sc.next + 1) % len(sc.images)
	sc.waited = false
	return uint32(sc.acquired), xr.Success
}

func (r *Runtime) WaitSwapchainImage(sh xr.Swapchain, timeout xr.Duration) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.swapchains[sh]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if sc.acquired < 0 {
		return r.fail("xrWaitSwapchainImage", xr.ErrorCallOrderInvalid, "no acquired image on swapchain %d", sh)
	}
	if sc.timeouts > 0 {
		sc.timeouts--
		return xr.TimeoutExpired
	}
	sc.waited = true
	return xr.Success
}

func (r *Runtime) ReleaseSwapchainImage(sh xr.Swapchain) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.swapchains[sh]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if sc.acquired < 0 || !sc.waited {
		return r.fail("xrReleaseSwapchainImage", xr.ErrorCallOrderInvalid, "no waited image on swapchain %d", sh)
	}
	sc.acquired = -1
	sc.waited = false
	sc.released = true
	if s, ok := r.sessions[sc.session]; ok {
		s.addTrace(CallRelease)
	}
	return xr.Success
}
