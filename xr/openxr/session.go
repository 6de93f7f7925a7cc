// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build openxr && cgo

package openxr

// #include "glue.h"
import "C"
import (
	"unsafe"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

func (r *Runtime) GetSystem(inst xr.Instance, formFactor xr.FormFactor) (xr.SystemID, xr.Result) {
	info := C.XrSystemGetInfo{_type: C.XR_TYPE_SYSTEM_GET_INFO, formFactor: C.XrFormFactor(formFactor)}
	var sys C.XrSystemId
	res := result(C.xrGetSystem(C.gxInstance(C.uint64_t(inst)), &info, &sys))
	return xr.SystemID(sys), res
}

func (r *Runtime) GetSystemProperties(inst xr.Instance, system xr.SystemID) (xr.SystemProperties, xr.Result) {
	var a arena
	defer a.free()
	gaze := (*C.XrSystemEyeGazeInteractionPropertiesEXT)(a.alloc(1, int(C.sizeof_XrSystemEyeGazeInteractionPropertiesEXT)))
	gaze._type = C.XR_TYPE_SYSTEM_EYE_GAZE_INTERACTION_PROPERTIES_EXT
	props := (*C.XrSystemProperties)(a.alloc(1, int(C.sizeof_XrSystemProperties)))
	props._type = C.XR_TYPE_SYSTEM_PROPERTIES
	props.next = unsafe.Pointer(gaze)
	if res := result(C.xrGetSystemProperties(C.gxInstance(C.uint64_t(inst)), C.XrSystemId(system), props)); res.Failed() {
		return xr.SystemProperties{}, res
	}
	g, t := props.graphicsProperties, props.trackingProperties
	return xr.SystemProperties{
		SystemID:                xr.SystemID(props.systemId),
		VendorID:                uint32(props.vendorId),
		SystemName:              goName(props.systemName[:]),
		MaxLayerCount:           uint32(g.maxLayerCount),
		MaxSwapchainImageWidth:  uint32(g.maxSwapchainImageWidth),
		MaxSwapchainImageHeight: uint32(g.maxSwapchainImageHeight),
		OrientationTracking:     toBool(t.orientationTracking),
		PositionTracking:        toBool(t.positionTracking),
		EyeGazeInteraction:      toBool(gaze.supportsEyeGazeInteraction),
	}, xr.Success
}

func (r *Runtime) EnumerateViewConfigurationViews(inst xr.Instance, system xr.SystemID, viewType xr.ViewConfigurationType) ([]xr.ViewConfigurationView, xr.Result) {
	h := C.gxInstance(C.uint64_t(inst))
	vt := C.XrViewConfigurationType(viewType)
	var n C.uint32_t
	if res := result(C.xrEnumerateViewConfigurationViews(h, C.XrSystemId(system), vt, 0, &n, nil)); res.Failed() || n == 0 {
		return nil, res
	}
	views := make([]C.XrViewConfigurationView, n)
	for i := range views {
		views[i]._type = C.XR_TYPE_VIEW_CONFIGURATION_VIEW
	}
	if res := result(C.xrEnumerateViewConfigurationViews(h, C.XrSystemId(system), vt, n, &n, &views[0])); res.Failed() {
		return nil, res
	}
	out := make([]xr.ViewConfigurationView, n)
	for i, v := range views[:n] {
		out[i] = xr.ViewConfigurationView{
			RecommendedImageRectWidth:       uint32(v.recommendedImageRectWidth),
			MaxImageRectWidth:               uint32(v.maxImageRectWidth),
			RecommendedImageRectHeight:      uint32(v.recommendedImageRectHeight),
			MaxImageRectHeight:              uint32(v.maxImageRectHeight),
			RecommendedSwapchainSampleCount: uint32(v.recommendedSwapchainSampleCount),
			MaxSwapchainSampleCount:         uint32(v.maxSwapchainSampleCount),
		}
	}
	return out, xr.Success
}

func (r *Runtime) GetOpenGLGraphicsRequirements(inst xr.Instance, system xr.SystemID) (xr.GraphicsRequirements, xr.Result) {
	var lo, hi C.XrVersion
	res := result(C.gxOpenGLRequirements(C.uint64_t(inst), C.XrSystemId(system), &lo, &hi))
	if res.Failed() {
		return xr.GraphicsRequirements{}, res
	}
	return xr.GraphicsRequirements{MinAPIVersion: UnpackVersion(uint64(lo)), MaxAPIVersion: UnpackVersion(uint64(hi))}, res
}

func (r *Runtime) CreateSession(inst xr.Instance, info xr.SessionCreateInfo) (xr.Session, xr.Result) {
	ci, sys := C.uint64_t(inst), C.XrSystemId(info.SystemID)
	var s C.uint64_t
	var res xr.Result
	switch b := info.Binding.(type) {
	case xr.GraphicsBindingHeadless:
		res = result(C.gxCreateSessionHeadless(ci, sys, &s))
	case xr.GraphicsBindingOpenGLXlib:
		res = result(C.gxCreateSessionXlib(ci, sys, C.uintptr_t(b.XDisplay), C.uint32_t(b.VisualID),
			C.uintptr_t(b.GLXFBConfig), C.uintptr_t(b.GLXDrawable), C.uintptr_t(b.GLXContext), &s))
	case xr.GraphicsBindingOpenGLWin32:
		res = result(C.gxCreateSessionWin32(ci, sys, C.uintptr_t(b.HDC), C.uintptr_t(b.HGLRC), &s))
	default:
		return 0, xr.ErrorGraphicsDeviceInvalid
	}
	if res.Failed() {
		return 0, res
	}
	r.mu.Lock()
	r.sessions[xr.Session(s)] = inst
	r.mu.Unlock()
	return xr.Session(s), res
}

func (r *Runtime) DestroySession(s xr.Session) xr.Result {
	r.mu.Lock()
	delete(r.sessions, s)
	r.mu.Unlock()
	return result(C.xrDestroySession(C.gxSession(C.uint64_t(s))))
}

func (r *Runtime) BeginSession(s xr.Session, viewType xr.ViewConfigurationType) xr.Result {
	info := C.XrSessionBeginInfo{_type: C.XR_TYPE_SESSION_BEGIN_INFO, primaryViewConfigurationType: C.XrViewConfigurationType(viewType)}
	return result(C.xrBeginSession(C.gxSession(C.uint64_t(s)), &info))
}

func (r *Runtime) EndSession(s xr.Session) xr.Result {
	return result(C.xrEndSession(C.gxSession(C.uint64_t(s))))
}

func (r *Runtime) RequestExitSession(s xr.Session) xr.Result {
	return result(C.xrRequestExitSession(C.gxSession(C.uint64_t(s))))
}

func (r *Runtime) GetDisplayRefreshRate(s xr.Session) (float32, xr.Result) {
	var rate C.float
	res := result(C.gxDisplayRefreshRate(C.uint64_t(r.instanceOf(s)), C.uint64_t(s), &rate))
	return float32(rate), res
}

func (r *Runtime) EnumerateReferenceSpaces(s xr.Session) ([]xr.ReferenceSpaceType, xr.Result) {
	h := C.gxSession(C.uint64_t(s))
	var n C.uint32_t
	if res := result(C.xrEnumerateReferenceSpaces(h, 0, &n, nil)); res.Failed() || n == 0 {
		return nil, res
	}
	types := make([]C.XrReferenceSpaceType, n)
	if res := result(C.xrEnumerateReferenceSpaces(h, n, &n, &types[0])); res.Failed() {
		return nil, res
	}
	out := make([]xr.ReferenceSpaceType, n)
	for i, t := range types[:n] {
		out[i] = xr.ReferenceSpaceType(t)
	}
	return out, xr.Success
}

func (r *Runtime) CreateReferenceSpace(s xr.Session, spaceType xr.ReferenceSpaceType, poseInSpace xr.Posef) (xr.Space, xr.Result) {
	info := C.XrReferenceSpaceCreateInfo{
		_type:                C.XR_TYPE_REFERENCE_SPACE_CREATE_INFO,
		referenceSpaceType:   C.XrReferenceSpaceType(spaceType),
		poseInReferenceSpace: toPose(poseInSpace),
	}
	var sp C.XrSpace
	res := result(C.xrCreateReferenceSpace(C.gxSession(C.uint64_t(s)), &info, &sp))
	return xr.Space(C.gxSpaceID(sp)), res
}

func (r *Runtime) GetReferenceSpaceBoundsRect(s xr.Session, spaceType xr.ReferenceSpaceType) (xr.Extent2Df, xr.Result) {
	var e C.XrExtent2Df
	res := result(C.xrGetReferenceSpaceBoundsRect(C.gxSession(C.uint64_t(s)), C.XrReferenceSpaceType(spaceType), &e))
	return xr.Extent2Df{Width: float32(e.width), Height: float32(e.height)}, res
}

func (r *Runtime) CreateActionSpace(s xr.Session, action xr.Action, subactionPath xr.Path, poseInSpace xr.Posef) (xr.Space, xr.Result) {
	info := C.XrActionSpaceCreateInfo{
		_type:             C.XR_TYPE_ACTION_SPACE_CREATE_INFO,
		action:            C.gxAction(C.uint64_t(action)),
		subactionPath:     C.XrPath(subactionPath),
		poseInActionSpace: toPose(poseInSpace),
	}
	var sp C.XrSpace
	res := result(C.xrCreateActionSpace(C.gxSession(C.uint64_t(s)), &info, &sp))
	return xr.Space(C.gxSpaceID(sp)), res
}

func (r *Runtime) DestroySpace(space xr.Space) xr.Result {
	return result(C.xrDestroySpace(C.gxSpace(C.uint64_t(space))))
}

func (r *Runtime) LocateSpace(space, baseSpace xr.Space, t xr.Time) (xr.SpaceLocation, xr.Result) {
	var a arena
	defer a.free()
	vel := (*C.XrSpaceVelocity)(a.alloc(1, int(C.sizeof_XrSpaceVelocity)))
	vel._type = C.XR_TYPE_SPACE_VELOCITY
	loc := (*C.XrSpaceLocation)(a.alloc(1, int(C.sizeof_XrSpaceLocation)))
	loc._type = C.XR_TYPE_SPACE_LOCATION
	loc.next = unsafe.Pointer(vel)
	res := result(C.xrLocateSpace(C.gxSpace(C.uint64_t(space)), C.gxSpace(C.uint64_t(baseSpace)), C.XrTime(t), loc))
	if res.Failed() {
		return xr.SpaceLocation{}, res
	}
	return xr.SpaceLocation{
		Flags:           xr.SpaceLocationFlags(loc.locationFlags),
		Pose:            fromPose(loc.pose),
		VelocityFlags:   xr.SpaceVelocityFlags(vel.velocityFlags),
		LinearVelocity:  fromVector3(vel.linearVelocity),
		AngularVelocity: fromVector3(vel.angularVelocity),
	}, res
}

func (r *Runtime) LocateViews(s xr.Session, info xr.ViewLocateInfo) (xr.ViewState, []xr.View, xr.Result) {
	li := C.XrViewLocateInfo{
		_type:                 C.XR_TYPE_VIEW_LOCATE_INFO,
		viewConfigurationType: C.XrViewConfigurationType(info.ViewConfigurationType),
		displayTime:           C.XrTime(info.DisplayTime),
		space:                 C.gxSpace(C.uint64_t(info.Space)),
	}
	state := C.XrViewState{_type: C.XR_TYPE_VIEW_STATE}
	views := make([]C.XrView, info.ViewConfigurationType.ViewCount())
	for i := range views {
		views[i]._type = C.XR_TYPE_VIEW
	}
	n := C.uint32_t(len(views))
	res := result(C.xrLocateViews(C.gxSession(C.uint64_t(s)), &li, &state, n, &n, &views[0]))
	if res.Failed() {
		return xr.ViewState{}, nil, res
	}
	out := make([]xr.View, n)
	for i, v := range views[:n] {
		out[i] = xr.View{Pose: fromPose(v.pose), Fov: fromFov(v.fov)}
	}
	return xr.ViewState{Flags: xr.ViewStateFlags(state.viewStateFlags)}, out, res
}
