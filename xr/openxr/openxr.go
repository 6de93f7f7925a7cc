// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build openxr && cgo

package openxr

// #cgo linux LDFLAGS: -lopenxr_loader
// #cgo windows LDFLAGS: -lopenxr_loader
// #include "glue.h"
import "C"
import (
	"log/slog"
	"sync"
	"unsafe"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// Available is whether the binding was built in.
const Available = true

// Runtime is the [xr.Runtime] of the system OpenXR loader.
// Its methods map one to one onto the OpenXR entry points.
type Runtime struct {
	mu sync.Mutex

	// sessions maps sessions to their instances, for extension
	// entry points resolved on the instance.
	sessions map[xr.Session]xr.Instance

	// messengers maps debug messengers to their instance and callback.
	messengers map[xr.DebugMessenger]messenger
}

type messenger struct {
	inst xr.Instance
	id   uintptr
}

var _ xr.Runtime = (*Runtime)(nil)

// Open returns the loader runtime. Whether an actual runtime is
// installed only shows once an instance is created.
func Open() (xr.Runtime, error) {
	return &Runtime{
		sessions:   map[xr.Session]xr.Instance{},
		messengers: map[xr.DebugMessenger]messenger{},
	}, nil
}

func result(res C.XrResult) xr.Result { return xr.Result(res) }

// instanceOf returns the instance of a session.
func (r *Runtime) instanceOf(s xr.Session) xr.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[s]
}

func (r *Runtime) EnumerateInstanceExtensionProperties() ([]xr.ExtensionProperties, xr.Result) {
	var n C.uint32_t
	if res := result(C.xrEnumerateInstanceExtensionProperties(nil, 0, &n, nil)); res.Failed() {
		return nil, res
	}
	props := make([]C.XrExtensionProperties, n)
	for i := range props {
		props[i]._type = C.XR_TYPE_EXTENSION_PROPERTIES
	}
	if n == 0 {
		return nil, xr.Success
	}
	if res := result(C.xrEnumerateInstanceExtensionProperties(nil, n, &n, &props[0])); res.Failed() {
		return nil, res
	}
	exts := make([]xr.ExtensionProperties, n)
	for i := range exts {
		exts[i] = xr.ExtensionProperties{Name: goName(props[i].extensionName[:]), Version: uint32(props[i].extensionVersion)}
	}
	return exts, xr.Success
}

func (r *Runtime) CreateInstance(info xr.InstanceCreateInfo) (xr.Instance, xr.Result) {
	var a arena
	defer a.free()
	ci := (*C.XrInstanceCreateInfo)(a.alloc(1, int(C.sizeof_XrInstanceCreateInfo)))
	ci._type = C.XR_TYPE_INSTANCE_CREATE_INFO
	app := info.Application
	setName(ci.applicationInfo.applicationName[:], app.ApplicationName)
	ci.applicationInfo.applicationVersion = C.uint32_t(app.ApplicationVersion)
	setName(ci.applicationInfo.engineName[:], app.EngineName)
	ci.applicationInfo.engineVersion = C.uint32_t(app.EngineVersion)
	ci.applicationInfo.apiVersion = C.XrVersion(PackVersion(app.APIVersion))
	ci.enabledExtensionCount = C.uint32_t(len(info.Extensions))
	ci.enabledExtensionNames = a.cstrings(info.Extensions)

	var inst C.XrInstance
	res := result(C.xrCreateInstance(ci, &inst))
	return xr.Instance(C.gxInstanceID(inst)), res
}

func (r *Runtime) DestroyInstance(inst xr.Instance) xr.Result {
	r.mu.Lock()
	for m, mi := range r.messengers {
		if mi.inst == inst {
			delete(r.messengers, m)
			unregisterCallback(mi.id)
		}
	}
	for s, si := range r.sessions {
		if si == inst {
			delete(r.sessions, s)
		}
	}
	r.mu.Unlock()
	return result(C.xrDestroyInstance(C.gxInstance(C.uint64_t(inst))))
}

func (r *Runtime) GetInstanceProperties(inst xr.Instance) (xr.InstanceProperties, xr.Result) {
	props := C.XrInstanceProperties{_type: C.XR_TYPE_INSTANCE_PROPERTIES}
	if res := result(C.xrGetInstanceProperties(C.gxInstance(C.uint64_t(inst)), &props)); res.Failed() {
		return xr.InstanceProperties{}, res
	}
	return xr.InstanceProperties{
		RuntimeName:    goName(props.runtimeName[:]),
		RuntimeVersion: UnpackVersion(uint64(props.runtimeVersion)),
	}, xr.Success
}

func (r *Runtime) CreateDebugUtilsMessenger(inst xr.Instance, severities xr.DebugSeverity, cb xr.DebugCallback) (xr.DebugMessenger, xr.Result) {
	id := registerCallback(cb)
	var m C.uint64_t
	res := result(C.gxCreateDebugMessenger(C.uint64_t(inst), C.uint32_t(severities), C.uintptr_t(id), &m))
	if res.Failed() {
		unregisterCallback(id)
		return 0, res
	}
	r.mu.Lock()
	r.messengers[xr.DebugMessenger(m)] = messenger{inst: inst, id: id}
	r.mu.Unlock()
	return xr.DebugMessenger(m), res
}

func (r *Runtime) DestroyDebugUtilsMessenger(m xr.DebugMessenger) xr.Result {
	r.mu.Lock()
	mi, ok := r.messengers[m]
	delete(r.messengers, m)
	r.mu.Unlock()
	if !ok {
		return xr.ErrorHandleInvalid
	}
	res := result(C.gxDestroyDebugMessenger(C.uint64_t(mi.inst), C.uint64_t(m)))
	unregisterCallback(mi.id)
	return res
}

func (r *Runtime) PollEvent(inst xr.Instance) (xr.Event, xr.Result) {
	buf := C.XrEventDataBuffer{_type: C.XR_TYPE_EVENT_DATA_BUFFER}
	res := result(C.xrPollEvent(C.gxInstance(C.uint64_t(inst)), &buf))
	if res != xr.Success {
		return nil, res
	}
	p := unsafe.Pointer(&buf)
	switch buf._type {
	case C.XR_TYPE_EVENT_DATA_EVENTS_LOST:
		e := (*C.XrEventDataEventsLost)(p)
		return &xr.EventEventsLost{LostEventCount: uint32(e.lostEventCount)}, res
	case C.XR_TYPE_EVENT_DATA_INSTANCE_LOSS_PENDING:
		e := (*C.XrEventDataInstanceLossPending)(p)
		return &xr.EventInstanceLossPending{LossTime: xr.Time(e.lossTime)}, res
	case C.XR_TYPE_EVENT_DATA_INTERACTION_PROFILE_CHANGED:
		e := (*C.XrEventDataInteractionProfileChanged)(p)
		return &xr.EventInteractionProfileChanged{Session: xr.Session(C.gxSessionID(e.session))}, res
	case C.XR_TYPE_EVENT_DATA_REFERENCE_SPACE_CHANGE_PENDING:
		e := (*C.XrEventDataReferenceSpaceChangePending)(p)
		return &xr.EventReferenceSpaceChangePending{
			Session:             xr.Session(C.gxSessionID(e.session)),
			ReferenceSpaceType:  xr.ReferenceSpaceType(e.referenceSpaceType),
			ChangeTime:          xr.Time(e.changeTime),
			PoseValid:           toBool(e.poseValid),
			PoseInPreviousSpace: fromPose(e.poseInPreviousSpace),
		}, res
	case C.XR_TYPE_EVENT_DATA_SESSION_STATE_CHANGED:
		e := (*C.XrEventDataSessionStateChanged)(p)
		return &xr.EventSessionStateChanged{
			Session: xr.Session(C.gxSessionID(e.session)),
			State:   xr.SessionState(e.state),
			Time:    xr.Time(e.time),
		}, res
	}
	// events the driver does not handle are skipped
	slog.Debug("openxr: skipping event", "type", int(buf._type))
	return r.PollEvent(inst)
}

func (r *Runtime) StringToPath(inst xr.Instance, path string) (xr.Path, xr.Result) {
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	var p C.XrPath
	res := result(C.xrStringToPath(C.gxInstance(C.uint64_t(inst)), cs, &p))
	return xr.Path(p), res
}

func (r *Runtime) PathToString(inst xr.Instance, path xr.Path) (string, xr.Result) {
	h := C.gxInstance(C.uint64_t(inst))
	var n C.uint32_t
	if res := result(C.xrPathToString(h, C.XrPath(path), 0, &n, nil)); res.Failed() || n == 0 {
		return "", res
	}
	buf := make([]C.char, n)
	if res := result(C.xrPathToString(h, C.XrPath(path), n, &n, &buf[0])); res.Failed() {
		return "", res
	}
	return goName(buf), xr.Success
}

func (r *Runtime) ConvertTicksToTime(inst xr.Instance, ticks int64) (xr.Time, xr.Result) {
	var t C.XrTime
	res := result(C.gxTicksToTime(C.uint64_t(inst), C.int64_t(ticks), &t))
	return xr.Time(t), res
}

func (r *Runtime) ConvertTimeToTicks(inst xr.Instance, t xr.Time) (int64, xr.Result) {
	var ticks C.int64_t
	res := result(C.gxTimeToTicks(C.uint64_t(inst), C.XrTime(t), &ticks))
	return int64(ticks), res
}
