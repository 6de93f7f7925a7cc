// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"log/slog"
	"runtime"
	"time"
)

// presenter is the goroutine that drives the frame loop of a device
// in multi-threaded mode. Its fields are guarded by the device mutex.
type presenter struct {
	stop    bool
	running bool
	done    chan struct{}
}

// presenterRunning returns whether a presenter is active.
// It must be called with dev.mu held.
func (dev *Device) presenterRunning() bool {
	return dev.presenter != nil && dev.presenter.running
}

// startPresenter starts the presenter if it is not running.
// It must be called with dev.mu held.
func (dev *Device) startPresenter() {
	if dev.presenterRunning() {
		return
	}
	p := &presenter{running: true, done: make(chan struct{})}
	dev.presenter = p
	dev.mbox = mailboxEmpty{}
	go dev.runPresenter(p)
	slog.Debug("presenter started", "handle", dev.handle)
}

// stopPresenter stops the presenter and waits for it to exit. A
// present blocked on it fails. Termination takes at most one frame
// cycle. It must be called without any device lock held.
func (dev *Device) stopPresenter() {
	dev.mu.Lock()
	p := dev.presenter
	if p == nil {
		dev.mu.Unlock()
		return
	}
	p.stop = true
	dev.cond.Broadcast()
	dev.mu.Unlock()

	<-p.done

	dev.mu.Lock()
	if dev.presenter == p {
		dev.presenter = nil
	}
	dev.mu.Unlock()
	slog.Debug("presenter stopped", "handle", dev.handle)
}

// runPresenter is the presenter loop. Each cycle latches a pending
// present request once the frame to be displayed reaches its target,
// submits it, waits for and begins the next frame, and then hands the
// result and fresh images to the waiting caller. Cycles without a
// request only wait and begin: a submit needs released images, and
// beginning over a begun frame discards it, which keeps the
// compositor from timing the session out.
func (dev *Device) runPresenter(p *presenter) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	dev.mu.Lock()
	binding := dev.binding
	dev.mu.Unlock()
	if binding != nil {
		if err := binding.MakeCurrent(); err != nil {
			slog.Error("presenter could not make the OpenGL context current", "handle", dev.handle, "err", err)
		}
		defer binding.ReleaseCurrent()
	}
	defer func() {
		dev.mu.Lock()
		p.running = false
		dev.cond.Broadcast()
		dev.mu.Unlock()
		close(p.done)
	}()

	for {
		dev.frameMu.Lock()
		dev.mu.Lock()
		if p.stop {
			dev.mu.Unlock()
			dev.frameMu.Unlock()
			return
		}
		if !dev.sessionActive || !dev.needFrameLoop || !dev.begun {
			idle := seconds(dev.frameDuration)
			dev.mu.Unlock()
			dev.frameMu.Unlock()
			time.Sleep(idle)
			continue
		}
		dev.cycle()
		dev.mu.Unlock()
		dev.frameMu.Unlock()
	}
}

// cycle runs one presenter cycle. It must be called with frameMu and
// dev.mu held, and with a frame begun.
func (dev *Device) cycle() {
	var (
		latched   bool
		submitted bool
		frame     int64
		err       error
	)
	if req, ok := dev.mbox.(mailboxPending); ok {
		predicted := dev.frameState.PredictedDisplayTime
		half := dev.frameState.PredictedDisplayPeriod / 2
		if req.target <= 0 || dev.tb.ToXrTime(req.target) <= predicted.Add(half) {
			latched = true
			frame, submitted, err = dev.submit(req.target)
		}
	}
	start := time.Now()
	werr := dev.waitBegin()
	if d := time.Since(start); d > vrTimeout(dev.frameDuration) {
		slog.Warn("compositor frame wait took unusually long", "handle", dev.handle, "duration", d)
	}
	if werr != nil {
		slog.Error("presenter frame cycle failed", "handle", dev.handle, "err", werr)
	}
	if !latched {
		if werr != nil {
			dev.idleUnlocked()
		}
		return
	}
	res := dev.result(frame, submitted)
	switch {
	case err != nil:
		res = presentResult{onset: -1, err: err}
	case werr != nil:
		res = presentResult{frame: frame, onset: -1, err: werr}
	default:
		if aerr := dev.acquireAll(); aerr != nil {
			slog.Warn("presenter could not acquire swapchain images", "handle", dev.handle, "err", aerr)
		}
	}
	dev.mbox = mailboxConsumed{result: res}
	dev.cond.Broadcast()
}

// idleUnlocked sleeps for one frame with dev.mu released, after
// a failed cycle. It must be called with dev.mu held.
func (dev *Device) idleUnlocked() {
	idle := seconds(dev.frameDuration)
	dev.mu.Unlock()
	time.Sleep(idle)
	dev.mu.Lock()
}

// Start gives the host exclusive control of the frame loop of a
// device, for tracking driven rendering, by stopping its presenter.
func (d *Driver) Start(handle int) error {
	dev, err := d.device(handle)
	if err != nil {
		return err
	}
	dev.mu.Lock()
	dev.tracking = true
	dev.mu.Unlock()
	dev.stopPresenter()
	return nil
}

// Stop ends exclusive host control of the frame loop started with
// [Driver.Start], restarting the presenter in multi-threaded mode.
func (d *Driver) Stop(handle int) error {
	dev, err := d.device(handle)
	if err != nil {
		return err
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.tracking = false
	if dev.multiThreaded && dev.sessionActive {
		dev.startPresenter()
	}
	return nil
}
