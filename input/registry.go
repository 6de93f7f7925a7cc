// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package input provides the generalized input action set of the
// driver: pose, trigger, grip, thumbstick, button, touch and haptic
// actions that are bound to the inputs of many controller families
// through suggested interaction profile bindings.
package input

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// ErrAttached is returned when actions or bindings are added after
// the action set has been attached to a session.
var ErrAttached = errors.New("input: action set already attached to a session")

// Controller type bits of the host api.
const (
	ControllerLTouch uint32 = 1
	ControllerRTouch uint32 = 2
	ControllerRemote uint32 = 4
	ControllerXBox   uint32 = 16

	// ControllerObjects are the tracked object types, which have no
	// input or haptics.
	ControllerObject0 uint32 = 0x100
	ControllerObject1 uint32 = 0x200
	ControllerObject2 uint32 = 0x400
	ControllerObject3 uint32 = 0x800

	// ControllerActive selects all active controllers.
	ControllerActive uint32 = 0xffffffff
)

// controllerBits are the controller bits of the top level paths.
var controllerBits = [4]uint32{ControllerLTouch, ControllerRTouch, ControllerXBox, ControllerRemote}

// Registry holds the generalized action set of one instance and the
// interaction profiles that are suggested for it. Once the action
// set is attached to a session, it is immutable.
type Registry struct {
	rt   xr.Runtime
	inst xr.Instance

	mu        sync.Mutex
	profiles  []*Profile
	set       xr.ActionSet
	actions   [NumActions]xr.Action
	paths     [4]xr.Path
	suggested map[string]bool
	attached  bool
}

// NewRegistry returns a new [Registry] for the given instance with the
// given profiles. It does not call into the runtime.
func NewRegistry(rt xr.Runtime, inst xr.Instance, profiles []*Profile) *Registry {
	return &Registry{rt: rt, inst: inst, profiles: profiles, suggested: map[string]bool{}}
}

// Profiles returns the registered profiles.
func (r *Registry) Profiles() []*Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Profile(nil), r.profiles...)
}

// AddProfile registers another interaction profile. It fails with
// [ErrAttached] once the action set is attached.
func (r *Registry) AddProfile(p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attached {
		return fmt.Errorf("add profile %s: %w", p.Path, ErrAttached)
	}
	r.profiles = append(r.profiles, p)
	return nil
}

// Attached returns whether the action set is attached to a session.
func (r *Registry) Attached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

// path converts a path string, with the call name for errors.
func (r *Registry) path(s string) (xr.Path, error) {
	p, res := r.rt.StringToPath(r.inst, s)
	if res.Failed() {
		return xr.NullPath, fmt.Errorf("path %q: %w", s, res.Err("xrStringToPath"))
	}
	return p, nil
}

// CreateActions creates the action set and all of its actions.
// It does nothing if they already exist.
func (r *Registry) CreateActions() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.set != 0 {
		return nil
	}
	if r.attached {
		return ErrAttached
	}
	for i, s := range TopLevelPaths {
		p, err := r.path(s)
		if err != nil {
			return err
		}
		r.paths[i] = p
	}

	set, res := r.rt.CreateActionSet(r.inst, "actionset", "Main set of input actions", 0)
	if res.Failed() {
		return res.Err("xrCreateActionSet")
	}
	var actions [NumActions]xr.Action
	for id := ActionID(0); id < NumActions; id++ {
		info := r.actionInfo(id)
		a, res := r.rt.CreateAction(set, info)
		if res.Failed() {
			r.rt.DestroyActionSet(set)
			return fmt.Errorf("action %s: %w", info.Name, res.Err("xrCreateAction"))
		}
		actions[id] = a
	}
	r.set = set
	r.actions = actions
	slog.Debug("input actions created", "count", NumActions)
	return nil
}

// actionInfo returns the create info of an action.
func (r *Registry) actionInfo(id ActionID) xr.ActionCreateInfo {
	hands := r.paths[:2]
	three := r.paths[:3]
	all := r.paths[:]
	switch id {
	case ActionAimPose:
		return xr.ActionCreateInfo{Name: "handposeaction", LocalizedName: "Hand Pose input action", Type: xr.ActionTypePoseInput, SubactionPaths: hands}
	case ActionGripPose:
		return xr.ActionCreateInfo{Name: "gripposeaction", LocalizedName: "Hand Grip Pose input action", Type: xr.ActionTypePoseInput, SubactionPaths: hands}
	case ActionGaze:
		return xr.ActionCreateInfo{Name: "eyegazeaction", LocalizedName: "Eye Gaze input action", Type: xr.ActionTypePoseInput}
	case ActionHaptic:
		return xr.ActionCreateInfo{Name: "handhapticaction", LocalizedName: "Hand haptic output action", Type: xr.ActionTypeVibrationOutput, SubactionPaths: three}
	case ActionTriggerLeft, ActionTriggerRight:
		i := id - ActionTriggerLeft
		side := sides[i]
		return xr.ActionCreateInfo{Name: "triggervalueaction" + side, LocalizedName: sideTitles[i] + "-Trigger value", Type: xr.ActionTypeFloatInput, SubactionPaths: three}
	case ActionGripLeft, ActionGripRight:
		i := id - ActionGripLeft
		side := sides[i]
		return xr.ActionCreateInfo{Name: "gripvalueaction" + side, LocalizedName: sideTitles[i] + "-Grip value", Type: xr.ActionTypeFloatInput, SubactionPaths: three}
	case ActionThumbstickLeft, ActionThumbstickRight:
		i := id - ActionThumbstickLeft
		side := sides[i]
		return xr.ActionCreateInfo{Name: "thumbstickaction" + side, LocalizedName: sideTitles[i] + "-Thumbstick", Type: xr.ActionTypeVector2fInput, SubactionPaths: three}
	case ActionThumbstick2Left, ActionThumbstick2Right:
		i := id - ActionThumbstick2Left
		side := sides[i]
		return xr.ActionCreateInfo{Name: "thumbstickaction" + side + "2", LocalizedName: sideTitles[i] + "-Thumbstick2", Type: xr.ActionTypeVector2fInput, SubactionPaths: three}
	}
	if b := id.Button(); b >= 0 {
		return xr.ActionCreateInfo{Name: fmt.Sprintf("buttonaction_%d", b), LocalizedName: fmt.Sprintf("Button state %d (%s)", b, b), Type: xr.ActionTypeBooleanInput, SubactionPaths: all}
	}
	t := id.Touch()
	return xr.ActionCreateInfo{Name: fmt.Sprintf("touchaction_%d", t), LocalizedName: fmt.Sprintf("Touch state %d (%s)", t, t), Type: xr.ActionTypeBooleanInput, SubactionPaths: all}
}

var (
	sides      = [2]string{"left", "right"}
	sideTitles = [2]string{"Left", "Right"}
)

// Suggest suggests the bindings of the given profile. A profile
// that was already suggested is not suggested again.
func (r *Registry) Suggest(p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suggest(p)
}

func (r *Registry) suggest(p *Profile) error {
	if r.attached {
		return fmt.Errorf("suggest %s: %w", p.Path, ErrAttached)
	}
	if r.set == 0 {
		return errors.New("input: actions not created")
	}
	if r.suggested[p.Path] {
		return nil
	}
	profile, err := r.path(p.Path)
	if err != nil {
		return err
	}
	bindings := make([]xr.ActionSuggestedBinding, 0, len(p.Bindings))
	for _, b := range p.Bindings {
		bp, err := r.path(b.Path)
		if err != nil {
			return fmt.Errorf("profile %s: %w", p.Path, err)
		}
		bindings = append(bindings, xr.ActionSuggestedBinding{Action: r.actions[b.Action], Binding: bp})
	}
	if res := r.rt.SuggestInteractionProfileBindings(r.inst, profile, bindings); res.Failed() {
		return fmt.Errorf("profile %s: %w", p.Path, res.Err("xrSuggestInteractionProfileBindings"))
	}
	r.suggested[p.Path] = true
	slog.Debug("suggested interaction profile bindings", "profile", p.Path, "count", len(bindings))
	return nil
}

// SuggestAll suggests all registered profiles that are available
// with the given enabled extensions. A failing profile is logged
// and skipped; the joined errors are returned.
func (r *Registry) SuggestAll(enabled func(ext string) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, p := range r.profiles {
		if !p.Available(enabled) {
			slog.Debug("interaction profile not available", "profile", p.Path)
			continue
		}
		if err := r.suggest(p); err != nil {
			slog.Error("interaction profile binding failed", "profile", p.Path, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Attach attaches the action set to the session, after which it
// can no longer be changed.
func (r *Registry) Attach(s xr.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.set == 0 {
		return errors.New("input: actions not created")
	}
	if res := r.rt.AttachSessionActionSets(s, []xr.ActionSet{r.set}); res.Failed() {
		return res.Err("xrAttachSessionActionSets")
	}
	r.attached = true
	return nil
}

// Sync synchronizes the action states of the session.
func (r *Registry) Sync(s xr.Session) error {
	r.mu.Lock()
	set := r.set
	r.mu.Unlock()
	if res := r.rt.SyncActions(s, []xr.ActionSet{set}); res.Failed() {
		return res.Err("xrSyncActions")
	}
	return nil
}

// Action returns the runtime action of the given id.
func (r *Registry) Action(id ActionID) xr.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actions[id]
}

// ActionSet returns the runtime action set.
func (r *Registry) ActionSet() xr.ActionSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set
}

// TopLevelPath returns the path of the top level user path with the
// given index into [TopLevelPaths].
func (r *Registry) TopLevelPath(i int) xr.Path {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[i]
}

// ControllerPath maps a single controller type of the host api to
// the subaction path it addresses, with [xr.NullPath] for
// [ControllerActive]. Tracked object types return ok false without
// an error.
func (r *Registry) ControllerPath(controller uint32) (path xr.Path, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch controller {
	case ControllerLTouch:
		return r.paths[0], true, nil
	case ControllerRTouch:
		return r.paths[1], true, nil
	case ControllerXBox:
		return r.paths[2], true, nil
	case ControllerRemote:
		return r.paths[3], true, nil
	case ControllerActive:
		return xr.NullPath, true, nil
	case ControllerObject0, ControllerObject1, ControllerObject2, ControllerObject3:
		return xr.NullPath, false, nil
	}
	return xr.NullPath, false, fmt.Errorf("input: invalid controller type 0x%x", controller)
}

// ActiveControllers synchronizes the actions and returns the mask of
// controller type bits whose top level path has an interaction
// profile bound.
func (r *Registry) ActiveControllers(s xr.Session) (uint32, error) {
	if err := r.Sync(s); err != nil {
		return 0, err
	}
	var mask uint32
	for i := range TopLevelPaths {
		profile, res := r.rt.GetCurrentInteractionProfile(s, r.TopLevelPath(i))
		if res.Failed() {
			return mask, res.Err("xrGetCurrentInteractionProfile")
		}
		if profile == xr.NullPath {
			continue
		}
		mask |= controllerBits[i]
		if name, res := r.rt.PathToString(r.inst, profile); res.Succeeded() {
			slog.Info("active interaction profile", "path", TopLevelPaths[i], "profile", name)
		}
	}
	return mask, nil
}

// Destroy destroys the action set, and with it all actions.
func (r *Registry) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.set != 0 {
		r.rt.DestroyActionSet(r.set)
	}
	r.set = 0
	r.actions = [NumActions]xr.Action{}
	r.attached = false
	clear(r.suggested)
}
