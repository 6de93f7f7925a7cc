// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"fmt"
	"log/slog"

	"github.com/kleinerm/Psychtoolbox-3-sub009/input"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// CreateAndStartSession creates the session of a device, bound to
// the given OpenGL context, and starts it. use3D selects projection
// layers instead of head locked quads. multiThreaded selects the
// presenter goroutine. copyTex are the textures of the copy
// workaround, one per eye, used only in multi-threaded mode.
// It returns the duration of a video refresh cycle in seconds.
func (d *Driver) CreateAndStartSession(handle int, binding platform.GraphicsBinding, use3D, multiThreaded bool, copyTex []uint32) (float64, error) {
	dev, err := d.device(handle)
	if err != nil {
		return 0, err
	}
	if binding == nil {
		return 0, fmt.Errorf("%w: nil graphics binding", ErrInvalidArgument)
	}
	d.mu.Lock()
	inst := d.inst
	reg := d.input
	quirks := d.quirks
	refreshExt := d.enabled[xr.FBDisplayRefreshRate]
	gazeExt := d.enabled[xr.EXTEyeGazeInteraction]
	d.mu.Unlock()

	dev.mu.Lock()
	if dev.session != 0 {
		dev.mu.Unlock()
		return 0, ErrSessionExists
	}
	err = dev.createSession(inst, reg, binding, gazeExt)
	if err != nil {
		dev.mu.Unlock()
		return 0, err
	}

	fd := defaultFrameDuration
	switch {
	case !refreshExt:
		slog.Debug("display refresh rate query unsupported, assuming 90 Hz")
	case quirks.Has(NoRefreshRateQuery):
		slog.Debug("runtime misreports the display refresh rate, assuming 90 Hz")
	default:
		rate, res := d.rt.GetDisplayRefreshRate(dev.session)
		switch {
		case res.Failed():
			slog.Warn("display refresh rate query failed, assuming 90 Hz", "err", res.Err("xrGetDisplayRefreshRateFB"))
		case rate == 0:
			fd = 1
		default:
			fd = 1 / float64(rate)
		}
	}
	dev.frameDuration = fd
	dev.binding = binding
	dev.use3D = use3D
	dev.multiThreaded = multiThreaded
	dev.copyTex = nil
	if len(copyTex) > 0 {
		_, canCopy := binding.(platform.TextureCopier)
		switch {
		case !multiThreaded:
			slog.Warn("copy workaround textures ignored in single-threaded mode", "handle", handle)
		case !canCopy:
			slog.Warn("copy workaround unavailable, graphics binding can not copy textures", "handle", handle)
		default:
			dev.copyTex = append([]uint32(nil), copyTex...)
			slog.Info("using texture copy workaround for the presenter", "handle", handle)
		}
	} else if multiThreaded && quirks.Has(ContextRebindBug) {
		slog.Warn("runtime fails to rebind OpenGL contexts across threads, multi-threaded mode may malfunction without the copy workaround", "handle", handle)
	}
	dev.mu.Unlock()

	slog.Info("session created", "handle", handle, "frameDuration", fd, "use3D", use3D, "multiThreaded", multiThreaded)
	if err := d.processEvents(); err != nil {
		return fd, err
	}
	return fd, nil
}

// createSession creates the session and its spaces, and attaches
// the input actions. Nothing is changed on failure. It must be
// called with dev.mu held.
func (dev *Device) createSession(inst xr.Instance, reg *input.Registry, binding platform.GraphicsBinding, gazeExt bool) error {
	rt := dev.drv.rt
	if _, res := rt.GetOpenGLGraphicsRequirements(inst, dev.system.SystemID); res.Failed() {
		return res.Err("xrGetOpenGLGraphicsRequirementsKHR")
	}
	s, res := rt.CreateSession(inst, xr.SessionCreateInfo{SystemID: dev.system.SystemID, Binding: binding.Native()})
	if res.Failed() {
		return res.Err("xrCreateSession")
	}
	dev.session = s
	fail := func(err error) error {
		dev.destroySpaces()
		rt.DestroySession(s)
		dev.session = 0
		return err
	}

	var err error
	if dev.worldSpace, err = dev.referenceSpace(dev.refType); err != nil {
		return fail(err)
	}
	if dev.viewSpace, err = dev.referenceSpace(xr.ReferenceSpaceView); err != nil {
		return fail(err)
	}
	if err := reg.Attach(s); err != nil {
		return fail(err)
	}
	for hand := range 2 {
		sub := reg.TopLevelPath(hand)
		if dev.aimSpace[hand], res = rt.CreateActionSpace(s, reg.Action(input.ActionAimPose), sub, xr.IdentityPose); res.Failed() {
			return fail(res.Err("xrCreateActionSpace"))
		}
		if dev.gripSpace[hand], res = rt.CreateActionSpace(s, reg.Action(input.ActionGripPose), sub, xr.IdentityPose); res.Failed() {
			return fail(res.Err("xrCreateActionSpace"))
		}
	}
	if gazeExt && dev.system.EyeGazeInteraction {
		if dev.gazeSpace, res = rt.CreateActionSpace(s, reg.Action(input.ActionGaze), xr.NullPath, xr.IdentityPose); res.Failed() {
			slog.Warn("eye gaze tracking unavailable", "err", res.Err("xrCreateActionSpace"))
			dev.gazeSpace = 0
		}
	}

	dev.state = xr.SessionStateUnknown
	dev.sessionActive = false
	dev.needFrameLoop = false
	dev.lossPending = false
	dev.userExit = false
	dev.begun = false
	dev.waitCount = 0
	dev.begunFrame = 0
	dev.frameState = xr.FrameState{}
	dev.mbox = mailboxEmpty{}
	return nil
}

// referenceSpace creates a reference space of the given type.
// It must be called with dev.mu held.
func (dev *Device) referenceSpace(t xr.ReferenceSpaceType) (xr.Space, error) {
	sp, res := dev.drv.rt.CreateReferenceSpace(dev.session, t, xr.IdentityPose)
	if res.Failed() {
		return 0, fmt.Errorf("reference space %v: %w", t, res.Err("xrCreateReferenceSpace"))
	}
	return sp, nil
}
