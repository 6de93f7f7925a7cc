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

func (r *Runtime) CreateActionSet(inst xr.Instance, name, localizedName string, priority uint32) (xr.ActionSet, xr.Result) {
	info := C.XrActionSetCreateInfo{_type: C.XR_TYPE_ACTION_SET_CREATE_INFO, priority: C.uint32_t(priority)}
	setName(info.actionSetName[:], name)
	setName(info.localizedActionSetName[:], localizedName)
	var set C.XrActionSet
	res := result(C.xrCreateActionSet(C.gxInstance(C.uint64_t(inst)), &info, &set))
	return xr.ActionSet(C.gxActionSetID(set)), res
}

func (r *Runtime) DestroyActionSet(set xr.ActionSet) xr.Result {
	return result(C.xrDestroyActionSet(C.gxActionSet(C.uint64_t(set))))
}

func (r *Runtime) CreateAction(set xr.ActionSet, info xr.ActionCreateInfo) (xr.Action, xr.Result) {
	var a arena
	defer a.free()
	ci := (*C.XrActionCreateInfo)(a.alloc(1, int(C.sizeof_XrActionCreateInfo)))
	ci._type = C.XR_TYPE_ACTION_CREATE_INFO
	setName(ci.actionName[:], info.Name)
	setName(ci.localizedActionName[:], info.LocalizedName)
	ci.actionType = C.XrActionType(info.Type)
	if n := len(info.SubactionPaths); n > 0 {
		paths := unsafe.Slice((*C.XrPath)(a.alloc(n, int(unsafe.Sizeof(C.XrPath(0))))), n)
		for i, p := range info.SubactionPaths {
			paths[i] = C.XrPath(p)
		}
		ci.countSubactionPaths = C.uint32_t(n)
		ci.subactionPaths = &paths[0]
	}
	var act C.XrAction
	res := result(C.xrCreateAction(C.gxActionSet(C.uint64_t(set)), ci, &act))
	return xr.Action(C.gxActionID(act)), res
}

func (r *Runtime) SuggestInteractionProfileBindings(inst xr.Instance, profile xr.Path, bindings []xr.ActionSuggestedBinding) xr.Result {
	var a arena
	defer a.free()
	sb := (*C.XrInteractionProfileSuggestedBinding)(a.alloc(1, int(C.sizeof_XrInteractionProfileSuggestedBinding)))
	sb._type = C.XR_TYPE_INTERACTION_PROFILE_SUGGESTED_BINDING
	sb.interactionProfile = C.XrPath(profile)
	if n := len(bindings); n > 0 {
		bs := unsafe.Slice((*C.XrActionSuggestedBinding)(a.alloc(n, int(C.sizeof_XrActionSuggestedBinding))), n)
		for i, b := range bindings {
			bs[i].action = C.gxAction(C.uint64_t(b.Action))
			bs[i].binding = C.XrPath(b.Binding)
		}
		sb.countSuggestedBindings = C.uint32_t(n)
		sb.suggestedBindings = &bs[0]
	}
	return result(C.xrSuggestInteractionProfileBindings(C.gxInstance(C.uint64_t(inst)), sb))
}

// actionSets returns sets as a C array of action set handles.
func (a *arena) actionSets(sets []xr.ActionSet) *C.XrActionSet {
	if len(sets) == 0 {
		return nil
	}
	var zero C.XrActionSet
	arr := unsafe.Slice((*C.XrActionSet)(a.alloc(len(sets), int(unsafe.Sizeof(zero)))), len(sets))
	for i, s := range sets {
		arr[i] = C.gxActionSet(C.uint64_t(s))
	}
	return &arr[0]
}

func (r *Runtime) AttachSessionActionSets(s xr.Session, sets []xr.ActionSet) xr.Result {
	var a arena
	defer a.free()
	info := (*C.XrSessionActionSetsAttachInfo)(a.alloc(1, int(C.sizeof_XrSessionActionSetsAttachInfo)))
	info._type = C.XR_TYPE_SESSION_ACTION_SETS_ATTACH_INFO
	info.countActionSets = C.uint32_t(len(sets))
	info.actionSets = a.actionSets(sets)
	return result(C.xrAttachSessionActionSets(C.gxSession(C.uint64_t(s)), info))
}

func (r *Runtime) SyncActions(s xr.Session, sets []xr.ActionSet) xr.Result {
	var a arena
	defer a.free()
	var active []C.XrActiveActionSet
	if n := len(sets); n > 0 {
		active = unsafe.Slice((*C.XrActiveActionSet)(a.alloc(n, int(C.sizeof_XrActiveActionSet))), n)
		for i, set := range sets {
			active[i].actionSet = C.gxActionSet(C.uint64_t(set))
			active[i].subactionPath = C.XrPath(xr.NullPath)
		}
	}
	info := (*C.XrActionsSyncInfo)(a.alloc(1, int(C.sizeof_XrActionsSyncInfo)))
	info._type = C.XR_TYPE_ACTIONS_SYNC_INFO
	info.countActiveActionSets = C.uint32_t(len(active))
	if len(active) > 0 {
		info.activeActionSets = &active[0]
	}
	return result(C.xrSyncActions(C.gxSession(C.uint64_t(s)), info))
}

func (r *Runtime) GetCurrentInteractionProfile(s xr.Session, topLevelPath xr.Path) (xr.Path, xr.Result) {
	state := C.XrInteractionProfileState{_type: C.XR_TYPE_INTERACTION_PROFILE_STATE}
	res := result(C.xrGetCurrentInteractionProfile(C.gxSession(C.uint64_t(s)), C.XrPath(topLevelPath), &state))
	return xr.Path(state.interactionProfile), res
}

func stateInfo(action xr.Action, subactionPath xr.Path) C.XrActionStateGetInfo {
	return C.XrActionStateGetInfo{
		_type:         C.XR_TYPE_ACTION_STATE_GET_INFO,
		action:        C.gxAction(C.uint64_t(action)),
		subactionPath: C.XrPath(subactionPath),
	}
}

func (r *Runtime) GetActionStateBoolean(s xr.Session, action xr.Action, subactionPath xr.Path) (xr.ActionStateBoolean, xr.Result) {
	info := stateInfo(action, subactionPath)
	st := C.XrActionStateBoolean{_type: C.XR_TYPE_ACTION_STATE_BOOLEAN}
	res := result(C.xrGetActionStateBoolean(C.gxSession(C.uint64_t(s)), &info, &st))
	return xr.ActionStateBoolean{
		CurrentState:         toBool(st.currentState),
		ChangedSinceLastSync: toBool(st.changedSinceLastSync),
		LastChangeTime:       xr.Time(st.lastChangeTime),
		IsActive:             toBool(st.isActive),
	}, res
}

func (r *Runtime) GetActionStateFloat(s xr.Session, action xr.Action, subactionPath xr.Path) (xr.ActionStateFloat, xr.Result) {
	info := stateInfo(action, subactionPath)
	st := C.XrActionStateFloat{_type: C.XR_TYPE_ACTION_STATE_FLOAT}
	res := result(C.xrGetActionStateFloat(C.gxSession(C.uint64_t(s)), &info, &st))
	return xr.ActionStateFloat{
		CurrentState:         float32(st.currentState),
		ChangedSinceLastSync: toBool(st.changedSinceLastSync),
		LastChangeTime:       xr.Time(st.lastChangeTime),
		IsActive:             toBool(st.isActive),
	}, res
}

func (r *Runtime) GetActionStateVector2f(s xr.Session, action xr.Action, subactionPath xr.Path) (xr.ActionStateVector2f, xr.Result) {
	info := stateInfo(action, subactionPath)
	st := C.XrActionStateVector2f{_type: C.XR_TYPE_ACTION_STATE_VECTOR2F}
	res := result(C.xrGetActionStateVector2f(C.gxSession(C.uint64_t(s)), &info, &st))
	return xr.ActionStateVector2f{
		CurrentState:         xr.Vector2f{X: float32(st.currentState.x), Y: float32(st.currentState.y)},
		ChangedSinceLastSync: toBool(st.changedSinceLastSync),
		LastChangeTime:       xr.Time(st.lastChangeTime),
		IsActive:             toBool(st.isActive),
	}, res
}

func (r *Runtime) GetActionStatePose(s xr.Session, action xr.Action, subactionPath xr.Path) (xr.ActionStatePose, xr.Result) {
	info := stateInfo(action, subactionPath)
	st := C.XrActionStatePose{_type: C.XR_TYPE_ACTION_STATE_POSE}
	res := result(C.xrGetActionStatePose(C.gxSession(C.uint64_t(s)), &info, &st))
	return xr.ActionStatePose{IsActive: toBool(st.isActive)}, res
}

func hapticInfo(action xr.Action, subactionPath xr.Path) C.XrHapticActionInfo {
	return C.XrHapticActionInfo{
		_type:         C.XR_TYPE_HAPTIC_ACTION_INFO,
		action:        C.gxAction(C.uint64_t(action)),
		subactionPath: C.XrPath(subactionPath),
	}
}

func (r *Runtime) ApplyHapticFeedback(s xr.Session, action xr.Action, subactionPath xr.Path, vibration xr.HapticVibration) xr.Result {
	info := hapticInfo(action, subactionPath)
	vib := C.XrHapticVibration{
		_type:     C.XR_TYPE_HAPTIC_VIBRATION,
		duration:  C.XrDuration(vibration.Duration),
		frequency: C.float(vibration.Frequency),
		amplitude: C.float(vibration.Amplitude),
	}
	return result(C.xrApplyHapticFeedback(C.gxSession(C.uint64_t(s)), &info, (*C.XrHapticBaseHeader)(unsafe.Pointer(&vib))))
}

func (r *Runtime) StopHapticFeedback(s xr.Session, action xr.Action, subactionPath xr.Path) xr.Result {
	info := hapticInfo(action, subactionPath)
	return result(C.xrStopHapticFeedback(C.gxSession(C.uint64_t(s)), &info))
}
