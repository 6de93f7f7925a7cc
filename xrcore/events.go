// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"fmt"
	"log/slog"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// processEvents drains the runtime event queue and drives the
// session state machines of all devices. Fatal events abort the
// poll with an error.
func (d *Driver) processEvents() error {
	d.evMu.Lock()
	defer d.evMu.Unlock()
	d.mu.Lock()
	inst, ok := d.inst, d.initialized
	d.mu.Unlock()
	if !ok {
		return ErrNotInitialized
	}
	for {
		ev, res := d.rt.PollEvent(inst)
		if res == xr.EventUnavailable {
			return nil
		}
		if res.Failed() {
			return res.Err("xrPollEvent")
		}
		if err := d.handleEvent(ev); err != nil {
			return err
		}
	}
}

func (d *Driver) handleEvent(ev xr.Event) error {
	switch ev := ev.(type) {
	case *xr.EventEventsLost:
		slog.Warn("runtime events lost", "count", ev.LostEventCount)
	case *xr.EventInstanceLossPending:
		d.mu.Lock()
		devs := d.devices.all()
		d.mu.Unlock()
		for _, dev := range devs {
			dev.mu.Lock()
			dev.lossPending = true
			dev.mu.Unlock()
		}
		slog.Error("runtime instance loss pending", "time", int64(ev.LossTime))
		return fmt.Errorf("xrcore: runtime instance will be lost: %w", &xr.Error{Call: "xrPollEvent", Result: xr.ErrorInstanceLost})
	case *xr.EventInteractionProfileChanged:
		if dev := d.deviceForSession(ev.Session); dev != nil {
			slog.Info("interaction profile changed", "handle", dev.handle)
		}
	case *xr.EventReferenceSpaceChangePending:
		dev := d.deviceForSession(ev.Session)
		if dev == nil {
			return nil
		}
		dev.mu.Lock()
		if ev.PoseValid {
			dev.originPose = ev.PoseInPreviousSpace
		}
		dev.mu.Unlock()
		slog.Info("reference space change pending", "handle", dev.handle, "space", ev.ReferenceSpaceType, "poseValid", ev.PoseValid)
	case *xr.EventSessionStateChanged:
		dev := d.deviceForSession(ev.Session)
		if dev == nil {
			slog.Debug("state change of unknown session", "session", uint64(ev.Session), "state", ev.State)
			return nil
		}
		err := dev.setState(ev.State)
		d.hooks.OnSessionState(dev.handle, ev.State)
		return err
	}
	return nil
}

// deviceForSession returns the open device owning the session, or nil.
func (d *Driver) deviceForSession(s xr.Session) *Device {
	d.mu.Lock()
	devs := d.devices.all()
	d.mu.Unlock()
	for _, dev := range devs {
		dev.mu.Lock()
		match := dev.session == s
		dev.mu.Unlock()
		if match {
			return dev
		}
	}
	return nil
}

// setState applies a session state transition reported by the runtime.
func (dev *Device) setState(state xr.SessionState) error {
	rt := dev.drv.rt
	dev.mu.Lock()
	dev.state = state
	switch state {
	case xr.SessionStateIdle, xr.SessionStateUnknown:
		dev.needFrameLoop = false
	case xr.SessionStateSynchronized, xr.SessionStateVisible, xr.SessionStateFocused:
		dev.needFrameLoop = true
	case xr.SessionStateReady:
		if dev.sessionActive {
			break
		}
		if res := rt.BeginSession(dev.session, dev.viewType); res.Failed() {
			dev.mu.Unlock()
			return res.Err("xrBeginSession")
		}
		dev.sessionActive = true
		dev.needFrameLoop = true
		dev.begun = false
		dev.mu.Unlock()
		return dev.warmUp()
	case xr.SessionStateStopping:
		dev.mu.Unlock()
		dev.stopPresenter()
		dev.frameMu.Lock()
		defer dev.frameMu.Unlock()
		dev.mu.Lock()
		defer dev.mu.Unlock()
		if !dev.sessionActive {
			return nil
		}
		dev.sessionActive = false
		dev.needFrameLoop = false
		dev.begun = false
		if res := rt.EndSession(dev.session); res.Failed() {
			return res.Err("xrEndSession")
		}
		return nil
	case xr.SessionStateLossPending:
		dev.lossPending = true
		dev.needFrameLoop = false
		dev.mu.Unlock()
		return fmt.Errorf("xrcore: session of device %d will be lost: %w", dev.handle, &xr.Error{Call: "xrPollEvent", Result: xr.SessionLossPending})
	case xr.SessionStateExiting:
		dev.userExit = true
		dev.needFrameLoop = false
	}
	dev.mu.Unlock()
	return nil
}

// warmUp runs the first wait and begin of a freshly begun session
// on the calling goroutine, and then starts the presenter in
// multi-threaded mode.
func (dev *Device) warmUp() error {
	dev.frameMu.Lock()
	defer dev.frameMu.Unlock()
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.waitBegin(); err != nil {
		return err
	}
	if dev.multiThreaded && !dev.tracking {
		dev.startPresenter()
	}
	return nil
}
