// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simxr

import (
	"slices"
	"strings"

	"github.com/chewxy/math32"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

type actionSet struct {
	inst     xr.Instance
	name     string
	priority uint32
	attached bool
	actions  []xr.Action
}

type action struct {
	set  xr.ActionSet
	info xr.ActionCreateInfo
}

func (a *action) hasSubaction(p xr.Path) bool {
	return slices.Contains(a.info.SubactionPaths, p)
}

type actionKey struct {
	action    xr.Action
	subaction xr.Path
}

// actionState is the synchronized state of an action for one
// subaction path. Value is a bool, float32 or [xr.Vector2f].
type actionState struct {
	value      any
	active     bool
	changed    bool
	lastChange xr.Time
}

// Haptic is a recorded haptic feedback request.
type Haptic struct {

	// Path is the subaction path, empty for all.
	Path string

	Vibration xr.HapticVibration

	// Stop is set for stop requests.
	Stop bool
}

// SetBoolean sets the simulated value of a boolean input, such as
// "/user/hand/right/input/a/click".
func (r *Runtime) SetBoolean(path string, v bool) {
	r.setInput(path, v)
}

// SetFloat sets the simulated value of a scalar input, such as
// "/user/hand/left/input/trigger/value".
func (r *Runtime) SetFloat(path string, v float32) {
	r.setInput(path, v)
}

// SetVector2 sets the simulated value of a 2D input, such as
// "/user/hand/left/input/thumbstick".
func (r *Runtime) SetVector2(path string, v xr.Vector2f) {
	r.setInput(path, v)
}

func (r *Runtime) setInput(path string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs[path] = v
}

// SetInteractionProfile changes the interaction profile bound to a
// top level path of all sessions with attached action sets, and
// queues the change event. An empty profile unbinds the path.
func (r *Runtime) SetInteractionProfile(topLevel, profile string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	top, _ := r.path(topLevel)
	for h, s := range r.sessions {
		if !s.attached {
			continue
		}
		if profile == "" {
			delete(s.profiles, top)
		} else {
			p, _ := r.path(profile)
			s.profiles[top] = p
		}
		r.pushEvent(&xr.EventInteractionProfileChanged{Session: h})
	}
}

// Haptics returns all recorded haptic requests.
func (r *Runtime) Haptics() []Haptic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.haptics)
}

func (r *Runtime) CreateActionSet(inst xr.Instance, name, localizedName string, priority uint32) (xr.ActionSet, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst]; !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if name == "" || strings.ToLower(name) != name {
		return 0, xr.ErrorPathFormatInvalid
	}
	if localizedName == "" {
		return 0, xr.ErrorLocalizedNameInvalid
	}
	for _, as := range r.actionSets {
		if as.inst == inst && as.name == name {
			return 0, xr.ErrorNameDuplicated
		}
	}
	h := xr.ActionSet(r.handle())
	r.actionSets[h] = &actionSet{inst: inst, name: name, priority: priority}
	return h, xr.Success
}

func (r *Runtime) DestroyActionSet(set xr.ActionSet) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	as, ok := r.actionSets[set]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	for _, a := range as.actions {
		delete(r.actions, a)
	}
	delete(r.actionSets, set)
	return xr.Success
}

func (r *Runtime) CreateAction(set xr.ActionSet, info xr.ActionCreateInfo) (xr.Action, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	as, ok := r.actionSets[set]
	if !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if as.attached {
		return 0, xr.ErrorActionsetsAlreadyAttached
	}
	if info.Name == "" || strings.ToLower(info.Name) != info.Name {
		return 0, xr.ErrorPathFormatInvalid
	}
	for _, a := range as.actions {
		if r.actions[a].info.Name == info.Name {
			return 0, r.fail("xrCreateAction", xr.ErrorNameDuplicated, "action %q exists", info.Name)
		}
	}
	for _, p := range info.SubactionPaths {
		if _, ok := r.pathNames[p]; !ok {
			return 0, xr.ErrorPathInvalid
		}
	}
	info.SubactionPaths = slices.Clone(info.SubactionPaths)
	h := xr.Action(r.handle())
	r.actions[h] = &action{set: set, info: info}
	as.actions = append(as.actions, h)
	return h, xr.Success
}

func (r *Runtime) SuggestInteractionProfileBindings(inst xr.Instance, profile xr.Path, bindings []xr.ActionSuggestedBinding) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.instances[inst]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	name, ok := r.pathNames[profile]
	if !ok {
		return xr.ErrorPathInvalid
	}
	if !strings.HasPrefix(name, "/interaction_profiles/") {
		return r.fail("xrSuggestInteractionProfileBindings", xr.ErrorPathUnsupported, "%s is not an interaction profile", name)
	}
	for _, b := range bindings {
		a, ok := r.actions[b.Action]
		if !ok {
			return xr.ErrorHandleInvalid
		}
		if r.actionSets[a.set].attached {
			return xr.ErrorActionsetsAlreadyAttached
		}
		if _, ok := r.pathNames[b.Binding]; !ok {
			return xr.ErrorPathInvalid
		}
	}
	in.suggested[profile] = slices.Clone(bindings)
	return xr.Success
}

func (r *Runtime) AttachSessionActionSets(h xr.Session, sets []xr.ActionSet) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if s.attached {
		return r.fail("xrAttachSessionActionSets", xr.ErrorActionsetsAlreadyAttached, "session already has action sets")
	}
	for _, set := range sets {
		if _, ok := r.actionSets[set]; !ok {
			return xr.ErrorHandleInvalid
		}
	}
	for _, set := range sets {
		r.actionSets[set].attached = true
	}
	s.attached = true
	s.sets = slices.Clone(sets)
	in := r.instances[s.inst]
	for top, profile := range r.opts.Profiles {
		pp, _ := r.path(profile)
		if _, ok := in.suggested[pp]; !ok {
			continue
		}
		tp, _ := r.path(top)
		s.profiles[tp] = pp
	}
	if len(s.profiles) > 0 {
		r.pushEvent(&xr.EventInteractionProfileChanged{Session: h})
	}
	return xr.Success
}

func (r *Runtime) GetCurrentInteractionProfile(h xr.Session, topLevelPath xr.Path) (xr.Path, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.NullPath, xr.ErrorHandleInvalid
	}
	if !s.attached {
		return xr.NullPath, xr.ErrorActionsetNotAttached
	}
	if _, ok := r.pathNames[topLevelPath]; !ok {
		return xr.NullPath, xr.ErrorPathInvalid
	}
	return s.profiles[topLevelPath], xr.Success
}

func (r *Runtime) SyncActions(h xr.Session, sets []xr.ActionSet) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	for _, set := range sets {
		if !slices.Contains(s.sets, set) {
			return xr.ErrorActionsetNotAttached
		}
	}
	focused := s.state == xr.SessionStateFocused
	now := r.Now()
	for _, set := range sets {
		for _, a := range r.actionSets[set].actions {
			act := r.actions[a]
			for _, sub := range append([]xr.Path{xr.NullPath}, act.info.SubactionPaths...) {
				r.syncState(s, a, act, sub, focused, now)
			}
		}
	}
	if !focused {
		return xr.SessionNotFocused
	}
	return xr.Success
}

// syncState updates the state of one action for one subaction path.
// It must be called with r.mu held.
func (r *Runtime) syncState(s *session, a xr.Action, act *action, sub xr.Path, focused bool, now xr.Time) {
	key := actionKey{a, sub}
	st := s.states[key]
	if st == nil {
		st = &actionState{value: zeroValue(act.info.Type)}
		s.states[key] = st
	}
	var vals []any
	active := false
	if focused {
		vals, active = r.boundInputs(s, a, sub)
	}
	v := combine(act.info.Type, vals)
	st.changed = active && st.active && v != st.value
	if st.changed || active != st.active {
		st.lastChange = now
	}
	st.value = v
	st.active = active
}

// boundInputs returns the raw values of all inputs the action is bound
// to under sub, and whether any binding exists. It must be called with
// r.mu held.
func (r *Runtime) boundInputs(s *session, a xr.Action, sub xr.Path) ([]any, bool) {
	in := r.instances[s.inst]
	var vals []any
	bound := false
	for top, profile := range s.profiles {
		if sub != xr.NullPath && sub != top {
			continue
		}
		prefix := r.pathNames[top] + "/"
		for _, b := range in.suggested[profile] {
			if b.Action != a {
				continue
			}
			name := r.pathNames[b.Binding]
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			bound = true
			if v, ok := r.inputs[name]; ok {
				vals = append(vals, v)
			}
		}
	}
	return vals, bound
}

func zeroValue(t xr.ActionType) any {
	switch t {
	case xr.ActionTypeBooleanInput:
		return false
	case xr.ActionTypeFloatInput:
		return float32(0)
	case xr.ActionTypeVector2fInput:
		return xr.Vector2f{}
	}
	return nil
}

// combine merges input values into one action value: booleans are
// or'ed, and the scalar or vector of largest magnitude wins.
func combine(t xr.ActionType, vals []any) any {
	switch t {
	case xr.ActionTypeBooleanInput:
		res := false
		for _, v := range vals {
			res = res || asFloat(v) >= 0.5
		}
		return res
	case xr.ActionTypeFloatInput:
		res := float32(0)
		for _, v := range vals {
			if f := asFloat(v); math32.Abs(f) > math32.Abs(res) {
				res = f
			}
		}
		return res
	case xr.ActionTypeVector2fInput:
		var res xr.Vector2f
		for _, v := range vals {
			if vec, ok := v.(xr.Vector2f); ok && math32.Hypot(vec.X, vec.Y) > math32.Hypot(res.X, res.Y) {
				res = vec
			}
		}
		return res
	}
	return nil
}

func asFloat(v any) float32 {
	switch v := v.(type) {
	case bool:
		if v {
			return 1
		}
	case float32:
		return v
	case xr.Vector2f:
		return math32.Hypot(v.X, v.Y)
	}
	return 0
}

// state returns the synchronized state of an action after checking
// the request. It must be called with r.mu held.
func (r *Runtime) state(h xr.Session, a xr.Action, sub xr.Path, t xr.ActionType) (*actionState, xr.Result) {
	s, ok := r.sessions[h]
	if !ok {
		return nil, xr.ErrorHandleInvalid
	}
	act, ok := r.actions[a]
	if !ok {
		return nil, xr.ErrorHandleInvalid
	}
	if !slices.Contains(s.sets, act.set) {
		return nil, xr.ErrorActionsetNotAttached
	}
	if act.info.Type != t {
		return nil, r.fail("xrGetActionState", xr.ErrorActionTypeMismatch, "action %q is not of type %d", act.info.Name, t)
	}
	if sub != xr.NullPath && !act.hasSubaction(sub) {
		return nil, xr.ErrorPathUnsupported
	}
	if st := s.states[actionKey{a, sub}]; st != nil {
		return st, xr.Success
	}
	return &actionState{value: zeroValue(t)}, xr.Success
}

func (r *Runtime) GetActionStateBoolean(h xr.Session, a xr.Action, sub xr.Path) (xr.ActionStateBoolean, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, res := r.state(h, a, sub, xr.ActionTypeBooleanInput)
	if res.Failed() {
		return xr.ActionStateBoolean{}, res
	}
	return xr.ActionStateBoolean{
		CurrentState:         st.value.(bool),
		ChangedSinceLastSync: st.changed,
		LastChangeTime:       st.lastChange,
		IsActive:             st.active,
	}, xr.Success
}

func (r *Runtime) GetActionStateFloat(h xr.Session, a xr.Action, sub xr.Path) (xr.ActionStateFloat, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, res := r.state(h, a, sub, xr.ActionTypeFloatInput)
	if res.Failed() {
		return xr.ActionStateFloat{}, res
	}
	return xr.ActionStateFloat{
		CurrentState:         st.value.(float32),
		ChangedSinceLastSync: st.changed,
		LastChangeTime:       st.lastChange,
		IsActive:             st.active,
	}, xr.Success
}

func (r *Runtime) GetActionStateVector2f(h xr.Session, a xr.Action, sub xr.Path) (xr.ActionStateVector2f, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, res := r.state(h, a, sub, xr.ActionTypeVector2fInput)
	if res.Failed() {
		return xr.ActionStateVector2f{}, res
	}
	return xr.ActionStateVector2f{
		CurrentState:         st.value.(xr.Vector2f),
		ChangedSinceLastSync: st.changed,
		LastChangeTime:       st.lastChange,
		IsActive:             st.active,
	}, xr.Success
}

func (r *Runtime) GetActionStatePose(h xr.Session, a xr.Action, sub xr.Path) (xr.ActionStatePose, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, res := r.state(h, a, sub, xr.ActionTypePoseInput)
	if res.Failed() {
		return xr.ActionStatePose{}, res
	}
	return xr.ActionStatePose{IsActive: st.active}, xr.Success
}

// poseActive returns whether a pose action is bound for sub in the
// last synchronized state. It must be called with r.mu held.
func (r *Runtime) poseActive(s *session, a xr.Action, sub xr.Path) bool {
	st := s.states[actionKey{a, sub}]
	return st != nil && st.active
}

func (r *Runtime) haptic(h xr.Session, a xr.Action, sub xr.Path, hp Haptic) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	act, ok := r.actions[a]
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if !slices.Contains(s.sets, act.set) {
		return xr.ErrorActionsetNotAttached
	}
	if act.info.Type != xr.ActionTypeVibrationOutput {
		return xr.ErrorActionTypeMismatch
	}
	if sub != xr.NullPath && !act.hasSubaction(sub) {
		return xr.ErrorPathUnsupported
	}
	if s.state != xr.SessionStateFocused {
		return xr.SessionNotFocused
	}
	hp.Path = r.pathNames[sub]
	r.haptics = append(r.haptics, hp)
	return xr.Success
}

func (r *Runtime) ApplyHapticFeedback(h xr.Session, a xr.Action, sub xr.Path, vibration xr.HapticVibration) xr.Result {
	return r.haptic(h, a, sub, Haptic{Vibration: vibration})
}

func (r *Runtime) StopHapticFeedback(h xr.Session, a xr.Action, sub xr.Path) xr.Result {
	return r.haptic(h, a, sub, Haptic{Stop: true})
}
