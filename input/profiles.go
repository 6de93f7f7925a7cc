// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import "github.com/kleinerm/Psychtoolbox-3-sub009/xr"

// Top level user paths.
const (
	PathLeftHand  = "/user/hand/left"
	PathRightHand = "/user/hand/right"
	PathGamepad   = "/user/gamepad"
	PathHead      = "/user/head"
	PathEyes      = "/user/eyes_ext"
)

// TopLevelPaths are the subaction paths of the action set, in the
// order left hand, right hand, gamepad, head.
var TopLevelPaths = [4]string{PathLeftHand, PathRightHand, PathGamepad, PathHead}

// Binding binds one action to one input or output path.
type Binding struct {
	Action ActionID
	Path   string
}

// Profile is the set of suggested bindings for one interaction profile.
type Profile struct {

	// Path is the interaction profile path.
	Path string

	// Extensions lists the runtime extensions that provide the
	// profile. The profile is suggested if any of them is enabled.
	// Empty means that the profile is part of the core api.
	Extensions []string

	// Bindings are the suggested bindings.
	Bindings []Binding
}

// Available returns whether the profile can be suggested with the
// given enabled extensions.
func (p *Profile) Available(enabled func(ext string) bool) bool {
	if len(p.Extensions) == 0 {
		return true
	}
	for _, ext := range p.Extensions {
		if enabled != nil && enabled(ext) {
			return true
		}
	}
	return false
}

func bb(b Button, path string) Binding { return Binding{ButtonAction(b), path} }
func tb(t Touch, path string) Binding  { return Binding{TouchAction(t), path} }

// poses returns the aim and grip pose bindings of both hands.
func poses() []Binding {
	return []Binding{
		{ActionAimPose, "/user/hand/left/input/aim/pose"},
		{ActionAimPose, "/user/hand/right/input/aim/pose"},
		{ActionGripPose, "/user/hand/left/input/grip/pose"},
		{ActionGripPose, "/user/hand/right/input/grip/pose"},
	}
}

func haptics() []Binding {
	return []Binding{
		{ActionHaptic, "/user/hand/left/output/haptic"},
		{ActionHaptic, "/user/hand/right/output/haptic"},
	}
}

// analog returns trigger, squeeze and thumbstick bindings of both
// hands, with the given squeeze input component.
func analog(squeeze string) []Binding {
	return []Binding{
		{ActionTriggerLeft, "/user/hand/left/input/trigger"},
		{ActionTriggerRight, "/user/hand/right/input/trigger"},
		{ActionGripLeft, "/user/hand/left/input/squeeze" + squeeze},
		{ActionGripRight, "/user/hand/right/input/squeeze" + squeeze},
		{ActionThumbstickLeft, "/user/hand/left/input/thumbstick"},
		{ActionThumbstickRight, "/user/hand/right/input/thumbstick"},
	}
}

func join(sets ...[]Binding) []Binding {
	var all []Binding
	for _, s := range sets {
		all = append(all, s...)
	}
	return all
}

// DefaultProfiles returns the interaction profiles of all known
// controller families, bound to the generalized action set.
func DefaultProfiles() []*Profile {
	return []*Profile{
		{
			Path: "/interaction_profiles/khr/simple_controller",
			Bindings: join(poses(), haptics(), []Binding{
				bb(ButtonEnter, "/user/hand/left/input/menu/click"),
				bb(ButtonEnter, "/user/hand/right/input/menu/click"),
				bb(ButtonBack, "/user/hand/left/input/select/click"),
				bb(ButtonBack, "/user/hand/right/input/select/click"),
			}),
		},
		{
			Path: "/interaction_profiles/google/daydream_controller",
			Bindings: join(poses(), []Binding{
				{ActionThumbstickLeft, "/user/hand/left/input/trackpad"},
				{ActionThumbstickRight, "/user/hand/right/input/trackpad"},
				bb(ButtonBack, "/user/hand/left/input/select/click"),
				bb(ButtonBack, "/user/hand/right/input/select/click"),
				bb(ButtonLThumb, "/user/hand/left/input/trackpad/click"),
				bb(ButtonRThumb, "/user/hand/right/input/trackpad/click"),
				tb(TouchLThumb, "/user/hand/left/input/trackpad/touch"),
				tb(TouchRThumb, "/user/hand/right/input/trackpad/touch"),
			}),
		},
		{
			Path: "/interaction_profiles/htc/vive_controller",
			Bindings: join(poses(), haptics(), []Binding{
				{ActionTriggerLeft, "/user/hand/left/input/trigger"},
				{ActionTriggerRight, "/user/hand/right/input/trigger"},
				{ActionGripLeft, "/user/hand/left/input/squeeze"},
				{ActionGripRight, "/user/hand/right/input/squeeze"},
				{ActionThumbstickLeft, "/user/hand/left/input/trackpad"},
				{ActionThumbstickRight, "/user/hand/right/input/trackpad"},
				bb(ButtonEnter, "/user/hand/left/input/menu/click"),
				bb(ButtonEnter, "/user/hand/right/input/menu/click"),
				bb(ButtonLThumb, "/user/hand/left/input/trackpad/click"),
				bb(ButtonRThumb, "/user/hand/right/input/trackpad/click"),
				tb(TouchLThumb, "/user/hand/left/input/trackpad/touch"),
				tb(TouchRThumb, "/user/hand/right/input/trackpad/touch"),
			}),
		},
		{
			Path: "/interaction_profiles/oculus/touch_controller",
			Bindings: join(poses(), haptics(), analog(""), []Binding{
				bb(ButtonA, "/user/hand/right/input/a/click"),
				bb(ButtonB, "/user/hand/right/input/b/click"),
				bb(ButtonX, "/user/hand/left/input/x/click"),
				bb(ButtonY, "/user/hand/left/input/y/click"),
				bb(ButtonLThumb, "/user/hand/left/input/thumbstick/click"),
				bb(ButtonRThumb, "/user/hand/right/input/thumbstick/click"),
				bb(ButtonEnter, "/user/hand/left/input/menu/click"),
				bb(ButtonHome, "/user/hand/right/input/system/click"),
				tb(TouchA, "/user/hand/right/input/a/touch"),
				tb(TouchB, "/user/hand/right/input/b/touch"),
				tb(TouchX, "/user/hand/left/input/x/touch"),
				tb(TouchY, "/user/hand/left/input/y/touch"),
				tb(TouchLIndexTrigger, "/user/hand/left/input/trigger/touch"),
				tb(TouchRIndexTrigger, "/user/hand/right/input/trigger/touch"),
				tb(TouchLThumb, "/user/hand/left/input/thumbstick/touch"),
				tb(TouchRThumb, "/user/hand/right/input/thumbstick/touch"),
				tb(TouchLThumbRest, "/user/hand/left/input/thumbrest/touch"),
				tb(TouchRThumbRest, "/user/hand/right/input/thumbrest/touch"),
			}),
		},
		{
			Path: "/interaction_profiles/oculus/go_controller",
			Bindings: join(poses(), []Binding{
				{ActionTriggerLeft, "/user/hand/left/input/trigger"},
				{ActionTriggerRight, "/user/hand/right/input/trigger"},
				{ActionThumbstickLeft, "/user/hand/left/input/trackpad"},
				{ActionThumbstickRight, "/user/hand/right/input/trackpad"},
				bb(ButtonLThumb, "/user/hand/left/input/trackpad/click"),
				bb(ButtonRThumb, "/user/hand/right/input/trackpad/click"),
				bb(ButtonBack, "/user/hand/left/input/back/click"),
				bb(ButtonBack, "/user/hand/right/input/back/click"),
				tb(TouchLThumb, "/user/hand/left/input/trackpad/touch"),
				tb(TouchRThumb, "/user/hand/right/input/trackpad/touch"),
			}),
		},
		{
			Path: "/interaction_profiles/valve/index_controller",
			Bindings: join(poses(), haptics(), analog("/value"), []Binding{
				{ActionThumbstick2Left, "/user/hand/left/input/trackpad"},
				{ActionThumbstick2Right, "/user/hand/right/input/trackpad"},
				bb(ButtonA, "/user/hand/left/input/a/click"),
				bb(ButtonA, "/user/hand/right/input/a/click"),
				bb(ButtonB, "/user/hand/left/input/b/click"),
				bb(ButtonB, "/user/hand/right/input/b/click"),
				bb(ButtonLThumb, "/user/hand/left/input/thumbstick/click"),
				bb(ButtonRThumb, "/user/hand/right/input/thumbstick/click"),
				tb(TouchA, "/user/hand/left/input/a/touch"),
				tb(TouchA, "/user/hand/right/input/a/touch"),
				tb(TouchB, "/user/hand/left/input/b/touch"),
				tb(TouchB, "/user/hand/right/input/b/touch"),
				tb(TouchLIndexTrigger, "/user/hand/left/input/trigger/touch"),
				tb(TouchRIndexTrigger, "/user/hand/right/input/trigger/touch"),
				tb(TouchLThumb, "/user/hand/left/input/thumbstick/touch"),
				tb(TouchRThumb, "/user/hand/right/input/thumbstick/touch"),
			}),
		},
		{
			Path:     "/interaction_profiles/microsoft/motion_controller",
			Bindings: motionController(),
		},
		{
			Path:       "/interaction_profiles/samsung/odyssey_controller",
			Extensions: []string{xr.EXTSamsungOdysseyController},
			Bindings:   motionController(),
		},
		{
			Path:       "/interaction_profiles/hp/mixed_reality_controller",
			Extensions: []string{xr.EXTHPMixedRealityController, xr.HPMixedRealityController},
			Bindings: join(poses(), haptics(), analog("/value"), []Binding{
				bb(ButtonX, "/user/hand/left/input/x/click"),
				bb(ButtonY, "/user/hand/left/input/y/click"),
				bb(ButtonA, "/user/hand/right/input/a/click"),
				bb(ButtonB, "/user/hand/right/input/b/click"),
				bb(ButtonEnter, "/user/hand/left/input/menu/click"),
				bb(ButtonEnter, "/user/hand/right/input/menu/click"),
				bb(ButtonLThumb, "/user/hand/left/input/thumbstick/click"),
				bb(ButtonRThumb, "/user/hand/right/input/thumbstick/click"),
			}),
		},
		{
			Path:       "/interaction_profiles/htc/vive_cosmos_controller",
			Extensions: []string{xr.HTCViveCosmosControllerInteraction},
			Bindings: join(poses(), haptics(), analog("/click"), []Binding{
				bb(ButtonX, "/user/hand/left/input/x/click"),
				bb(ButtonY, "/user/hand/left/input/y/click"),
				bb(ButtonA, "/user/hand/right/input/a/click"),
				bb(ButtonB, "/user/hand/right/input/b/click"),
				bb(ButtonEnter, "/user/hand/left/input/menu/click"),
				bb(ButtonHome, "/user/hand/right/input/system/click"),
				bb(ButtonLShoulder, "/user/hand/left/input/shoulder/click"),
				bb(ButtonRShoulder, "/user/hand/right/input/shoulder/click"),
				bb(ButtonLThumb, "/user/hand/left/input/thumbstick/click"),
				bb(ButtonRThumb, "/user/hand/right/input/thumbstick/click"),
				tb(TouchLThumb, "/user/hand/left/input/thumbstick/touch"),
				tb(TouchRThumb, "/user/hand/right/input/thumbstick/touch"),
			}),
		},
		{
			Path:       "/interaction_profiles/htc/vive_focus3_controller",
			Extensions: []string{xr.HTCViveFocus3ControllerInteraction},
			Bindings: join(poses(), haptics(), analog("/click"), []Binding{
				bb(ButtonX, "/user/hand/left/input/x/click"),
				bb(ButtonY, "/user/hand/left/input/y/click"),
				bb(ButtonA, "/user/hand/right/input/a/click"),
				bb(ButtonB, "/user/hand/right/input/b/click"),
				bb(ButtonEnter, "/user/hand/left/input/menu/click"),
				bb(ButtonHome, "/user/hand/right/input/system/click"),
				bb(ButtonLThumb, "/user/hand/left/input/thumbstick/click"),
				bb(ButtonRThumb, "/user/hand/right/input/thumbstick/click"),
				tb(TouchLIndexTrigger, "/user/hand/left/input/trigger/touch"),
				tb(TouchRIndexTrigger, "/user/hand/right/input/trigger/touch"),
				tb(TouchLThumb, "/user/hand/left/input/thumbstick/touch"),
				tb(TouchRThumb, "/user/hand/right/input/thumbstick/touch"),
				tb(TouchLThumbRest, "/user/hand/left/input/thumbrest/touch"),
				tb(TouchRThumbRest, "/user/hand/right/input/thumbrest/touch"),
			}),
		},
		{
			Path: "/interaction_profiles/microsoft/xbox_controller",
			Bindings: []Binding{
				{ActionHaptic, "/user/gamepad/output/haptic_left"},
				{ActionHaptic, "/user/gamepad/output/haptic_right"},
				{ActionTriggerLeft, "/user/gamepad/input/trigger_left/value"},
				{ActionTriggerRight, "/user/gamepad/input/trigger_right/value"},
				{ActionThumbstickLeft, "/user/gamepad/input/thumbstick_left"},
				{ActionThumbstickRight, "/user/gamepad/input/thumbstick_right"},
				bb(ButtonEnter, "/user/gamepad/input/menu/click"),
				bb(ButtonBack, "/user/gamepad/input/view/click"),
				bb(ButtonA, "/user/gamepad/input/a/click"),
				bb(ButtonB, "/user/gamepad/input/b/click"),
				bb(ButtonX, "/user/gamepad/input/x/click"),
				bb(ButtonY, "/user/gamepad/input/y/click"),
				bb(ButtonDown, "/user/gamepad/input/dpad_down/click"),
				bb(ButtonRight, "/user/gamepad/input/dpad_right/click"),
				bb(ButtonUp, "/user/gamepad/input/dpad_up/click"),
				bb(ButtonLeft, "/user/gamepad/input/dpad_left/click"),
				bb(ButtonLShoulder, "/user/gamepad/input/shoulder_left/click"),
				bb(ButtonRShoulder, "/user/gamepad/input/shoulder_right/click"),
				bb(ButtonLThumb, "/user/gamepad/input/thumbstick_left/click"),
				bb(ButtonRThumb, "/user/gamepad/input/thumbstick_right/click"),
			},
		},
		{
			Path: "/interaction_profiles/htc/vive_pro",
			Bindings: []Binding{
				bb(ButtonVolDown, "/user/head/input/volume_down/click"),
				bb(ButtonVolUp, "/user/head/input/volume_up/click"),
				bb(ButtonMicMute, "/user/head/input/mute_mic/click"),
			},
		},
		{
			Path:       "/interaction_profiles/ext/eye_gaze_interaction",
			Extensions: []string{xr.EXTEyeGazeInteraction},
			Bindings: []Binding{
				{ActionGaze, "/user/eyes_ext/input/gaze_ext/pose"},
			},
		},
	}
}

// motionController returns the bindings of the Windows Mixed Reality
// motion controller family. Trackpads are mapped to the second 2D
// axis, and their clicks to the shoulder buttons.
func motionController() []Binding {
	return join(poses(), haptics(), analog(""), []Binding{
		{ActionThumbstick2Left, "/user/hand/left/input/trackpad"},
		{ActionThumbstick2Right, "/user/hand/right/input/trackpad"},
		bb(ButtonLThumb, "/user/hand/left/input/thumbstick/click"),
		bb(ButtonRThumb, "/user/hand/right/input/thumbstick/click"),
		bb(ButtonEnter, "/user/hand/left/input/menu/click"),
		bb(ButtonEnter, "/user/hand/right/input/menu/click"),
		bb(ButtonLShoulder, "/user/hand/left/input/trackpad/click"),
		bb(ButtonRShoulder, "/user/hand/right/input/trackpad/click"),
		tb(TouchLThumb, "/user/hand/left/input/trackpad/touch"),
		tb(TouchRThumb, "/user/hand/right/input/trackpad/touch"),
	})
}
