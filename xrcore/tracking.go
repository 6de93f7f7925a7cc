// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"fmt"
	"log/slog"

	"github.com/kleinerm/Psychtoolbox-3-sub009/input"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// Request bits of [Driver.GetTrackingState].
const (
	TrackHead  = 1
	TrackHands = 2
	TrackGaze  = 4
)

// HeadState is the tracked state of the head mounted display.
type HeadState struct {

	// Time is the host time in seconds the state is predicted for.
	Time float64

	// Status has bit 1 set for tracked orientation, 2 for tracked
	// position, 4 if the pose is at least partially valid, and 128
	// if the display is visible to the user.
	Status int

	// SessionState has bit 1 set if the session is visible, 2 and 4
	// if the frame loop must run, 8 if the session will be lost and
	// 16 if the user requested to exit.
	SessionState int

	// Pose is the head pose as [x y z qx qy qz qw].
	Pose [7]float64

	// CalibratedOrigin is the pose of the current tracking origin in
	// the previous one, after a pending reference space change.
	CalibratedOrigin [7]float64

	EyePoseLeft  [7]float64
	EyePoseRight [7]float64
}

// HandState is the tracked state of one hand controller.
type HandState struct {
	Time float64

	// Status has bit 1 set for tracked orientation, 2 for tracked
	// position, 4 for valid linear velocity and 8 for valid angular
	// velocity.
	Status int

	// Pose is the grip pose and AimPose the pointing pose.
	Pose    [7]float64
	AimPose [7]float64

	LinearVelocity  [3]float64
	AngularVelocity [3]float64
}

// GazeState is the tracked state of the eye gaze.
type GazeState struct {
	Time float64

	// Status has bit 1 set if gaze is available, 2 if the gaze
	// pose is valid and 4 if it is tracked.
	Status int

	// Pose is the gaze ray origin and direction as a pose.
	Pose [7]float64
}

// TrackingState is the result of [Driver.GetTrackingState].
type TrackingState struct {
	Head  HeadState
	Hands [2]HandState
	Gaze  []GazeState
}

func vec3(v xr.Vector3f) [3]float64 {
	return [3]float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

// GetTrackingState returns the tracking state predicted for the
// given host time, or for the predicted display time of the next
// frame if predictionTime is 0. reqMask selects the head, hands and
// gaze with [TrackHead], [TrackHands] and [TrackGaze].
func (d *Driver) GetTrackingState(handle int, predictionTime float64, reqMask int) (TrackingState, error) {
	var ts TrackingState
	dev, err := d.device(handle)
	if err != nil {
		return ts, err
	}
	if err := d.processEvents(); err != nil {
		return ts, err
	}
	d.mu.Lock()
	reg := d.input
	d.mu.Unlock()

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.session == 0 {
		return ts, ErrNoSession
	}
	rt := dev.drv.rt
	var at xr.Time
	if predictionTime > 0 {
		at = dev.tb.ToXrTime(predictionTime)
	} else {
		at = dev.frameState.PredictedDisplayTime
		if at <= 0 {
			at = dev.tb.ToXrTime(dev.tb.Now())
		}
		predictionTime = dev.tb.FromXrTime(at)
	}

	if reqMask&(TrackHands|TrackGaze) != 0 {
		if err := reg.Sync(dev.session); err != nil {
			slog.Debug("action sync failed", "handle", handle, "err", err)
		}
	}

	if reqMask&TrackHead != 0 {
		ts.Head = dev.headState(at, predictionTime)
	}
	if reqMask&TrackHands != 0 {
		for hand := range 2 {
			ts.Hands[hand] = dev.handState(hand, at, predictionTime)
		}
	}
	if reqMask&TrackGaze != 0 && dev.gazeSpace != 0 {
		g := GazeState{Time: predictionTime}
		st, res := rt.GetActionStatePose(dev.session, reg.Action(input.ActionGaze), xr.NullPath)
		if res.Succeeded() && st.IsActive {
			g.Status |= 1
			loc, res := rt.LocateSpace(dev.gazeSpace, dev.worldSpace, at)
			if res.Succeeded() {
				if loc.Flags.Has(xr.SpaceLocationOrientationValid | xr.SpaceLocationPositionValid) {
					g.Status |= 2
				}
				if loc.Flags.Has(xr.SpaceLocationOrientationTracked) {
					g.Status |= 4
				}
				g.Pose = loc.Pose.Vector()
			}
		}
		ts.Gaze = append(ts.Gaze, g)
	}
	return ts, nil
}

// headState locates the head and the eyes. It must be called with
// dev.mu held.
func (dev *Device) headState(at xr.Time, secs float64) HeadState {
	rt := dev.drv.rt
	h := HeadState{Time: secs, CalibratedOrigin: dev.originPose.Vector()}
	vs, views, res := rt.LocateViews(dev.session, xr.ViewLocateInfo{
		ViewConfigurationType: dev.viewType,
		DisplayTime:           at,
		Space:                 dev.worldSpace,
	})
	if res.Failed() {
		slog.Debug("view location failed", "handle", dev.handle, "err", res.Err("xrLocateViews"))
	} else {
		dev.views = views
		if vs.Flags.Has(xr.ViewStateOrientationValid | xr.ViewStateOrientationTracked) {
			h.Status |= 1
		}
		if vs.Flags.Has(xr.ViewStatePositionValid | xr.ViewStatePositionTracked) {
			h.Status |= 2
		}
		if vs.Flags&(xr.ViewStateOrientationValid|xr.ViewStatePositionValid) != 0 {
			h.Status |= 4
		}
		if len(views) > 0 {
			h.EyePoseLeft = views[0].Pose.Vector()
			h.EyePoseRight = views[len(views)-1].Pose.Vector()
		}
	}
	if loc, res := rt.LocateSpace(dev.viewSpace, dev.worldSpace, at); res.Succeeded() {
		h.Pose = loc.Pose.Vector()
	}
	if dev.state.IsVisible() {
		h.Status |= 128
		h.SessionState |= 1
	}
	if dev.needFrameLoop {
		h.SessionState |= 2 | 4
	}
	if dev.lossPending {
		h.SessionState |= 8
	}
	if dev.userExit {
		h.SessionState |= 16
	}
	return h
}

// handState locates one hand. It must be called with dev.mu held.
func (dev *Device) handState(hand int, at xr.Time, secs float64) HandState {
	rt := dev.drv.rt
	hs := HandState{Time: secs}
	loc, res := rt.LocateSpace(dev.gripSpace[hand], dev.worldSpace, at)
	if res.Failed() {
		slog.Debug("hand location failed", "handle", dev.handle, "hand", hand, "err", res.Err("xrLocateSpace"))
		return hs
	}
	if loc.Flags.Has(xr.SpaceLocationOrientationValid | xr.SpaceLocationOrientationTracked) {
		hs.Status |= 1
	}
	if loc.Flags.Has(xr.SpaceLocationPositionValid | xr.SpaceLocationPositionTracked) {
		hs.Status |= 2
	}
	if loc.VelocityFlags.Has(xr.SpaceVelocityLinearValid) {
		hs.Status |= 4
	}
	if loc.VelocityFlags.Has(xr.SpaceVelocityAngularValid) {
		hs.Status |= 8
	}
	hs.Pose = loc.Pose.Vector()
	hs.LinearVelocity = vec3(loc.LinearVelocity)
	hs.AngularVelocity = vec3(loc.AngularVelocity)
	if aim, res := rt.LocateSpace(dev.aimSpace[hand], dev.worldSpace, at); res.Succeeded() {
		hs.AimPose = aim.Pose.Vector()
	}
	return hs
}

// ReferenceSpaceType switches the tracking reference space of a device
// to newType (0 view, 1 local, 2 stage), or only queries it if newType
// is negative. It returns the previous type and the size of the stage
// bounds, which is zero if unknown. A type the runtime does not support
// is rejected with a recoverable error, and the current space is kept.
func (d *Driver) ReferenceSpaceType(handle, newType int) (old int, bounds xr.Extent2Df, err error) {
	dev, err := d.device(handle)
	if err != nil {
		return 0, bounds, err
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	old = int(dev.refType) - 1
	rt := dev.drv.rt
	if dev.session != 0 {
		b, res := rt.GetReferenceSpaceBoundsRect(dev.session, xr.ReferenceSpaceStage)
		if res.Unqualified() {
			bounds = b
		}
	}
	if newType < 0 {
		return old, bounds, nil
	}
	t, err := referenceSpaceFromHost(newType)
	if err != nil {
		return old, bounds, err
	}
	if dev.session == 0 || t == dev.refType {
		dev.refType = t
		return old, bounds, nil
	}
	space, err := dev.referenceSpace(t)
	if err != nil {
		return old, bounds, fmt.Errorf("reference space %s of device %d: %w", t, handle, err)
	}
	rt.DestroySpace(dev.worldSpace)
	dev.worldSpace = space
	dev.refType = t
	dev.proj.Space = space
	slog.Info("switched reference space", "handle", handle, "space", t)
	return old, bounds, nil
}

// ViewType switches the view configuration of a device to newType
// (0 mono, 1 stereo), or only queries it if newType is negative. The
// new type takes effect when the session begins next. It returns the
// previous type.
func (d *Driver) ViewType(handle, newType int) (int, error) {
	dev, err := d.device(handle)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	inst := d.inst
	d.mu.Unlock()
	dev.mu.Lock()
	defer dev.mu.Unlock()
	old := int(dev.viewType) - 1
	if newType < 0 {
		return old, nil
	}
	if newType > 1 {
		return old, fmt.Errorf("%w: view type %d", ErrInvalidArgument, newType)
	}
	vt := xr.ViewConfigurationType(newType + 1)
	views, res := d.rt.EnumerateViewConfigurationViews(inst, dev.system.SystemID, vt)
	if res.Failed() {
		return old, res.Err("xrEnumerateViewConfigurationViews")
	}
	dev.viewType = vt
	dev.viewConf = views
	return old, nil
}
