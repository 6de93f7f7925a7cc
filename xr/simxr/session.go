// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simxr

import (
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// eyeOffset is half the simulated interpupillary distance in meters.
const eyeOffset = 0.032

// fovHalfAngle is the simulated half field of view in radians.
const fovHalfAngle = 0.785398

type session struct {
	inst     xr.Instance
	id       int64
	binding  any
	state    xr.SessionState
	running  bool
	viewType xr.ViewConfigurationType

	// frame state
	frameID     int64
	waited      bool
	begun       bool
	begunFrame  int64
	lastWake    xr.Time
	predicted   map[int64]xr.Time
	trace       []Call
	frames      []Frame
	inFrameCall atomic.Int32
	overlaps    atomic.Int32

	// input state
	attached bool
	sets     []xr.ActionSet
	profiles map[xr.Path]xr.Path
	states   map[actionKey]*actionState

	headPose  xr.Posef
	handPoses map[string]xr.Posef
}

// Frame is a frame submitted with EndFrame.
type Frame struct {

	// ID is the session frame id, the count of WaitFrame calls.
	ID int64

	// DisplayTime is the requested display time.
	DisplayTime xr.Time

	// PresentTime is the simulated actual present time.
	PresentTime xr.Time

	// Swapchains are the swapchains of all submitted layers.
	Swapchains []xr.Swapchain

	// Discarded is set for frames without layers.
	Discarded bool
}

// setState changes the session state and queues the event.
// It must be called with r.mu held.
func (r *Runtime) setState(h xr.Session, s *session, state xr.SessionState) {
	s.state = state
	r.pushEvent(&xr.EventSessionStateChanged{Session: h, State: state, Time: r.Now()})
}

// SetSessionState forces a session state transition, queueing the
// corresponding event, to simulate runtime driven transitions.
func (r *Runtime) SetSessionState(h xr.Session, state xr.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[h]; ok {
		r.setState(h, s, state)
	}
}

// SessionState returns the current state of a session.
func (r *Runtime) SessionState(h xr.Session) xr.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[h]; ok {
		return s.state
	}
	return xr.SessionStateUnknown
}

// Sessions returns the number of live sessions.
func (r *Runtime) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SetHeadPose sets the simulated head pose of all sessions in
// local space.
func (r *Runtime) SetHeadPose(p xr.Posef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.headPose = p
	}
}

// SetHandPose sets the simulated pose of the hand at the given top
// level path in local space.
func (r *Runtime) SetHandPose(path string, p xr.Posef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.handPoses[path] = p
	}
}

func (r *Runtime) CreateSession(inst xr.Instance, info xr.SessionCreateInfo) (xr.Session, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst]; !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if info.SystemID != systemID {
		return 0, xr.ErrorSystemInvalid
	}
	switch info.Binding.(type) {
	case xr.GraphicsBindingHeadless:
		if !r.enabled(inst, xr.MNDHeadless) {
			return 0, r.fail("xrCreateSession", xr.ErrorGraphicsDeviceInvalid, "headless session requires %s", xr.MNDHeadless)
		}
	case xr.GraphicsBindingOpenGLXlib, xr.GraphicsBindingOpenGLWin32:
		if !r.enabled(inst, xr.KHROpenGLEnable) {
			return 0, xr.ErrorGraphicsDeviceInvalid
		}
	default:
		return 0, r.fail("xrCreateSession", xr.ErrorGraphicsDeviceInvalid, "unsupported graphics binding %T", info.Binding)
	}
	r.sessionIDs++
	s := &session{
		inst:      inst,
		id:        r.sessionIDs,
		binding:   info.Binding,
		predicted: map[int64]xr.Time{},
		profiles:  map[xr.Path]xr.Path{},
		states:    map[actionKey]*actionState{},
		headPose:  xr.Posef{Orientation: xr.IdentityQuaternion, Position: xr.Vector3f{Y: 1.6}},
		handPoses: map[string]xr.Posef{
			"/user/hand/left":  {Orientation: xr.IdentityQuaternion, Position: xr.Vector3f{X: -0.2, Y: 1.2, Z: -0.3}},
			"/user/hand/right": {Orientation: xr.IdentityQuaternion, Position: xr.Vector3f{X: 0.2, Y: 1.2, Z: -0.3}},
		},
	}
	h := xr.Session(r.handle())
	r.sessions[h] = s
	r.setState(h, s, xr.SessionStateIdle)
	r.setState(h, s, xr.SessionStateReady)
	return h, xr.Success
}

func (r *Runtime) DestroySession(h xr.Session) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[h]; !ok {
		return xr.ErrorHandleInvalid
	}
	for sh, sp := range r.spaces {
		if sp.session == h {
			delete(r.spaces, sh)
		}
	}
	for sh, sc := range r.swapchains {
		if sc.session == h {
			delete(r.swapchains, sh)
		}
	}
	delete(r.sessions, h)
	return xr.Success
}

func (r *Runtime) BeginSession(h xr.Session, viewType xr.ViewConfigurationType) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if s.running {
		return xr.ErrorSessionRunning
	}
	if s.state != xr.SessionStateReady {
		return r.fail("xrBeginSession", xr.ErrorSessionNotReady, "session is %s", s.state)
	}
	if !validViewType(viewType) {
		return xr.ErrorViewConfigurationTypeUnsupported
	}
	s.running = true
	s.viewType = viewType
	s.waited, s.begun = false, false
	r.setState(h, s, xr.SessionStateSynchronized)
	r.setState(h, s, xr.SessionStateVisible)
	r.setState(h, s, xr.SessionStateFocused)
	return xr.Success
}

func (r *Runtime) RequestExitSession(h xr.Session) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if !s.running {
		return xr.ErrorSessionNotRunning
	}
	r.setState(h, s, xr.SessionStateStopping)
	return xr.Success
}

func (r *Runtime) EndSession(h xr.Session) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if !s.running {
		return xr.ErrorSessionNotRunning
	}
	if s.state != xr.SessionStateStopping {
		return r.fail("xrEndSession", xr.ErrorSessionNotStopping, "session is %s", s.state)
	}
	s.running = false
	r.setState(h, s, xr.SessionStateIdle)
	r.setState(h, s, xr.SessionStateExiting)
	return xr.Success
}

func (r *Runtime) GetDisplayRefreshRate(h xr.Session) (float32, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if !r.enabled(s.inst, xr.FBDisplayRefreshRate) {
		return 0, xr.ErrorFunctionUnsupported
	}
	return float32(r.opts.RefreshRate), xr.Success
}

type spaceKind int

const (
	spaceReference spaceKind = iota
	spaceAction
)

type space struct {
	session   xr.Session
	kind      spaceKind
	refType   xr.ReferenceSpaceType
	action    xr.Action
	subaction xr.Path
	offset    xr.Posef
}

func (r *Runtime) referenceSpaces() []xr.ReferenceSpaceType {
	if r.opts.NoStage {
		return []xr.ReferenceSpaceType{xr.ReferenceSpaceView, xr.ReferenceSpaceLocal}
	}
	return []xr.ReferenceSpaceType{xr.ReferenceSpaceView, xr.ReferenceSpaceLocal, xr.ReferenceSpaceStage}
}

func (r *Runtime) EnumerateReferenceSpaces(h xr.Session) ([]xr.ReferenceSpaceType, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[h]; !ok {
		return nil, xr.ErrorHandleInvalid
	}
	return r.referenceSpaces(), xr.Success
}

func (r *Runtime) CreateReferenceSpace(h xr.Session, spaceType xr.ReferenceSpaceType, poseInSpace xr.Posef) (xr.Space, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[h]; !ok {
		return 0, xr.ErrorHandleInvalid
	}
	supported := false
	for _, t := range r.referenceSpaces() {
		supported = supported || t == spaceType
	}
	if !supported {
		return 0, r.fail("xrCreateReferenceSpace", xr.ErrorReferenceSpaceUnsupported, "%s not supported", spaceType)
	}
	sh := xr.Space(r.handle())
	r.spaces[sh] = &space{session: h, kind: spaceReference, refType: spaceType, offset: poseInSpace}
	return sh, xr.Success
}

func (r *Runtime) GetReferenceSpaceBoundsRect(h xr.Session, spaceType xr.ReferenceSpaceType) (xr.Extent2Df, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[h]; !ok {
		return xr.Extent2Df{}, xr.ErrorHandleInvalid
	}
	if spaceType == xr.ReferenceSpaceStage && !r.opts.NoStage {
		return xr.Extent2Df{Width: 3, Height: 2.5}, xr.Success
	}
	return xr.Extent2Df{}, xr.SpaceBoundsUnavailable
}

func (r *Runtime) CreateActionSpace(h xr.Session, a xr.Action, subactionPath xr.Path, poseInSpace xr.Posef) (xr.Space, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[h]; !ok {
		return 0, xr.ErrorHandleInvalid
	}
	act, ok := r.actions[a]
	if !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if act.info.Type != xr.ActionTypePoseInput {
		return 0, xr.ErrorActionTypeMismatch
	}
	if subactionPath != xr.NullPath && !act.hasSubaction(subactionPath) {
		return 0, xr.ErrorPathUnsupported
	}
	sh := xr.Space(r.handle())
	r.spaces[sh] = &space{session: h, kind: spaceAction, action: a, subaction: subactionPath, offset: poseInSpace}
	return sh, xr.Success
}

func (r *Runtime) DestroySpace(sh xr.Space) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spaces[sh]; !ok {
		return xr.ErrorHandleInvalid
	}
	delete(r.spaces, sh)
	return xr.Success
}

// locate returns the pose of a space in local space and whether it
// is tracked. It must be called with r.mu held.
func (r *Runtime) locate(sp *space) (xr.Posef, bool) {
	s := r.sessions[sp.session]
	if s == nil {
		return xr.IdentityPose, false
	}
	var base xr.Posef
	tracked := true
	switch sp.kind {
	case spaceReference:
		switch sp.refType {
		case xr.ReferenceSpaceView:
			base = s.headPose
		case xr.ReferenceSpaceStage:
			base = xr.Posef{Orientation: xr.IdentityQuaternion, Position: xr.Vector3f{Y: -1.6}}
		default:
			base = xr.IdentityPose
		}
	case spaceAction:
		path := r.pathNames[sp.subaction]
		if sp.action == 0 || !r.poseActive(s, sp.action, sp.subaction) {
			return xr.IdentityPose, false
		}
		if act := r.actions[sp.action]; act != nil && act.info.Name == "eyegazeaction" {
			base = s.headPose
		} else {
			base, tracked = s.handPoses[path]
		}
	}
	return compose(base, sp.offset), tracked
}

func (r *Runtime) LocateSpace(sh, baseSpace xr.Space, t xr.Time) (xr.SpaceLocation, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.spaces[sh]
	bs, bok := r.spaces[baseSpace]
	if !ok || !bok {
		return xr.SpaceLocation{}, xr.ErrorHandleInvalid
	}
	if t <= 0 {
		return xr.SpaceLocation{}, xr.ErrorTimeInvalid
	}
	pose, tracked := r.locate(sp)
	basePose, baseTracked := r.locate(bs)
	if !tracked || !baseTracked {
		return xr.SpaceLocation{Pose: xr.IdentityPose}, xr.Success
	}
	return xr.SpaceLocation{
		Flags: xr.SpaceLocationOrientationValid | xr.SpaceLocationPositionValid |
			xr.SpaceLocationOrientationTracked | xr.SpaceLocationPositionTracked,
		Pose:          relative(basePose, pose),
		VelocityFlags: xr.SpaceVelocityLinearValid | xr.SpaceVelocityAngularValid,
	}, xr.Success
}

func (r *Runtime) LocateViews(h xr.Session, info xr.ViewLocateInfo) (xr.ViewState, []xr.View, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ViewState{}, nil, xr.ErrorHandleInvalid
	}
	bs, ok := r.spaces[info.Space]
	if !ok {
		return xr.ViewState{}, nil, xr.ErrorHandleInvalid
	}
	if !validViewType(info.ViewConfigurationType) {
		return xr.ViewState{}, nil, xr.ErrorViewConfigurationTypeUnsupported
	}
	if info.DisplayTime <= 0 {
		return xr.ViewState{}, nil, xr.ErrorTimeInvalid
	}
	basePose, _ := r.locate(bs)
	n := info.ViewConfigurationType.ViewCount()
	views := make([]xr.View, n)
	for i := range views {
		var x float32
		if n == 2 {
			x = eyeOffset * float32(2*i-1)
		}
		eye := compose(s.headPose, xr.Posef{Orientation: xr.IdentityQuaternion, Position: xr.Vector3f{X: x}})
		views[i] = xr.View{Pose: relative(basePose, eye), Fov: xr.SymmetricFov(fovHalfAngle, fovHalfAngle)}
	}
	state := xr.ViewState{Flags: xr.ViewStateOrientationValid | xr.ViewStatePositionValid |
		xr.ViewStateOrientationTracked | xr.ViewStatePositionTracked}
	return state, views, xr.Success
}

func conjugate(q xr.Quaternionf) xr.Quaternionf {
	return xr.Quaternionf{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// compose returns the pose b applied in the frame of a.
func compose(a, b xr.Posef) xr.Posef {
	p := a.Orientation.Rotate(b.Position)
	return xr.Posef{
		Orientation: a.Orientation.Mul(b.Orientation).Normalized(),
		Position:    xr.Vector3f{X: a.Position.X + p.X, Y: a.Position.Y + p.Y, Z: a.Position.Z + p.Z},
	}
}

// relative returns the pose p expressed in the frame of base.
func relative(base, p xr.Posef) xr.Posef {
	inv := conjugate(base.Orientation)
	d := inv.Rotate(xr.Vector3f{X: p.Position.X - base.Position.X, Y: p.Position.Y - base.Position.Y, Z: p.Position.Z - base.Position.Z})
	return xr.Posef{Orientation: inv.Mul(p.Orientation).Normalized(), Position: roundVec(d)}
}

// roundVec removes float noise below a micrometer.
func roundVec(v xr.Vector3f) xr.Vector3f {
	r := func(f float32) float32 { return math32.Round(f*1e6) / 1e6 }
	return xr.Vector3f{X: r(v.X), Y: r(v.Y), Z: r(v.Z)}
}
