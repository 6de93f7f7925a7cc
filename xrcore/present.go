// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/metrics"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// seconds converts seconds to a [time.Duration].
func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

// vrTimeout is the time after which a runtime call that has not
// returned is considered hung: two video refresh cycles.
func vrTimeout(frameDuration float64) time.Duration { return seconds(2 * frameDuration) }

// waitBegin waits for the next frame and begins it. dev.mu is
// released during the blocking wait. It must be called with
// frameMu and dev.mu held.
func (dev *Device) waitBegin() error {
	rt := dev.drv.rt
	s := dev.session
	dev.mu.Unlock()
	fs, res := rt.WaitFrame(s)
	dev.mu.Lock()
	if res.Failed() {
		return res.Err("xrWaitFrame")
	}
	dev.frameState = fs
	dev.waitCount++
	if res := rt.BeginFrame(s); res.Failed() {
		return res.Err("xrBeginFrame")
	}
	dev.begun = true
	dev.begunFrame = dev.waitCount
	return nil
}

// submit ends the begun frame with the released images, to be shown
// no earlier than target host seconds. If no image was released since
// the last submit, nothing is submitted and ok is false. It must be
// called with frameMu and dev.mu held.
func (dev *Device) submit(target float64) (frame int64, ok bool, err error) {
	if !dev.begun {
		return 0, false, nil
	}
	rt := dev.drv.rt
	if err := dev.copyTextures(); err != nil {
		return 0, false, err
	}
	if _, err := dev.releaseAll(); err != nil {
		return 0, false, err
	}
	if dev.released == 0 {
		return 0, false, nil
	}
	display := dev.frameState.PredictedDisplayTime
	if target > 0 {
		display = max(display, dev.tb.ToXrTime(target))
	}
	_, views, res := rt.LocateViews(dev.session, xr.ViewLocateInfo{
		ViewConfigurationType: dev.viewType,
		DisplayTime:           display,
		Space:                 dev.worldSpace,
	})
	if res.Succeeded() {
		dev.views = views
	} else {
		slog.Debug("view location failed", "handle", dev.handle, "err", res.Err("xrLocateViews"))
	}
	var layers []xr.CompositionLayer
	if dev.frameState.ShouldRender {
		layers = dev.layers()
	}
	res = rt.EndFrame(dev.session, xr.FrameEndInfo{
		DisplayTime:          display,
		EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque,
		Layers:               layers,
	})
	dev.begun = false
	dev.released = 0
	if res.Failed() {
		return 0, false, res.Err("xrEndFrame")
	}
	dev.submitted++
	dev.lastDisplay = display
	return dev.begunFrame, true, nil
}

// result returns the present result after a submit of the given
// frame and the following wait. The onset is one frame before the
// next predicted display time, as a frame submitted late is shown at
// the vsync after its submit and not at its stale display time. It
// must be called with dev.mu held.
func (dev *Device) result(frame int64, submitted bool) presentResult {
	next := dev.tb.FromXrTime(dev.frameState.PredictedDisplayTime)
	r := presentResult{frame: frame, next: next}
	if submitted {
		r.onset = max(next-dev.frameDuration, dev.tb.FromXrTime(dev.lastDisplay))
	}
	return r
}

// presentSync runs one present cycle on the calling goroutine:
// release, submit, wait and begin.
func (dev *Device) presentSync(target float64) presentResult {
	dev.frameMu.Lock()
	defer dev.frameMu.Unlock()
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.session == 0 {
		return presentResult{onset: -1, err: ErrNoSession}
	}
	if !dev.sessionActive || !dev.needFrameLoop {
		return presentResult{}
	}
	if target > 0 {
		if wait := seconds(target - dev.frameDuration - dev.tb.Now()); wait > 0 {
			dev.mu.Unlock()
			time.Sleep(wait)
			dev.mu.Lock()
		}
	}
	frame, ok, err := dev.submit(target)
	if err != nil {
		return presentResult{onset: -1, err: err}
	}
	if err := dev.waitBegin(); err != nil {
		return presentResult{onset: -1, err: err}
	}
	return dev.result(frame, ok)
}

// presentAsync hands a present request to the presenter and waits
// until it has been latched and submitted.
func (dev *Device) presentAsync(target float64) presentResult {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if !dev.sessionActive || !dev.needFrameLoop {
		return presentResult{}
	}
	p := dev.presenter
	stopped := presentResult{onset: -1, err: ErrPresenterStopped}
	if p == nil {
		return stopped
	}
	for p.running {
		if _, ok := dev.mbox.(mailboxEmpty); ok {
			break
		}
		dev.cond.Wait()
	}
	if !p.running {
		return stopped
	}
	dev.mbox = mailboxPending{target: target}
	dev.cond.Broadcast()
	for {
		if c, ok := dev.mbox.(mailboxConsumed); ok {
			dev.mbox = mailboxEmpty{}
			dev.cond.Broadcast()
			return c.result
		}
		if !p.running {
			dev.mbox = mailboxEmpty{}
			return stopped
		}
		dev.cond.Wait()
	}
}

// PresentFrame presents the images rendered since the last present,
// to be shown at the target host time in seconds, or as soon as
// possible for 0. It returns the estimated onset of the presented
// frame, 0 if nothing was presented or -1 on failure, the estimated
// onset of the next frame, and a debug flip time half a frame before
// the onset.
func (d *Driver) PresentFrame(handle int, target float64) (onset, next, debugFlip float64, err error) {
	dev, err := d.device(handle)
	if err != nil {
		return -1, 0, 0, err
	}
	if err := d.processEvents(); err != nil {
		return -1, 0, 0, err
	}
	dev.mu.Lock()
	async := dev.presenterRunning()
	fd := dev.frameDuration
	dev.mu.Unlock()

	var res presentResult
	if async {
		res = dev.presentAsync(target)
	} else {
		res = dev.presentSync(target)
	}
	if res.err == nil && res.frame > 0 {
		res.onset = d.correlate(res, fd)
	}
	if res.onset > 0 {
		debugFlip = res.onset - fd/2
	}
	d.hooks.OnPresent(PresentInfo{Handle: handle, Frame: res.frame, Onset: res.onset, Next: res.next, Target: target})
	if res.err != nil {
		return res.onset, res.next, debugFlip, fmt.Errorf("present device %d: %w", handle, res.err)
	}
	return res.onset, res.next, debugFlip, nil
}

// correlate returns the onset of a submitted frame from the
// compositor metrics if available, and the predicted onset otherwise.
func (d *Driver) correlate(res presentResult, frameDuration float64) float64 {
	d.mu.Lock()
	c, tb := d.correlator, d.tb
	d.mu.Unlock()
	if c == nil {
		return res.onset
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*vrTimeout(frameDuration))
	defer cancel()
	switch v := c.WaitOnset(ctx, res.frame); {
	case v > 0:
		return tb.FromXrTime(xr.Time(v))
	case v == 0:
		slog.Debug("frame discarded by the compositor", "frame", res.frame)
		return 0
	case v == metrics.Unsupported:
		slog.Debug("frame not correlated, using predicted onset", "frame", res.frame)
	}
	return res.onset
}
