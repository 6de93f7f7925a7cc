// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xr

import "strconv"

// SessionState is the lifecycle state of a session.
type SessionState int32

const (
	SessionStateUnknown SessionState = iota
	SessionStateIdle
	SessionStateReady
	SessionStateSynchronized
	SessionStateVisible
	SessionStateFocused
	SessionStateStopping
	SessionStateLossPending
	SessionStateExiting
)

var sessionStateNames = [...]string{
	"XR_SESSION_STATE_UNKNOWN",
	"XR_SESSION_STATE_IDLE",
	"XR_SESSION_STATE_READY",
	"XR_SESSION_STATE_SYNCHRONIZED",
	"XR_SESSION_STATE_VISIBLE",
	"XR_SESSION_STATE_FOCUSED",
	"XR_SESSION_STATE_STOPPING",
	"XR_SESSION_STATE_LOSS_PENDING",
	"XR_SESSION_STATE_EXITING",
}

func (s SessionState) String() string {
	if s >= 0 && int(s) < len(sessionStateNames) {
		return sessionStateNames[s]
	}
	return "XR_SESSION_STATE_" + strconv.Itoa(int(s))
}

// IsRunning returns whether the state requires the frame loop to run.
func (s SessionState) IsRunning() bool {
	return s == SessionStateSynchronized || s == SessionStateVisible || s == SessionStateFocused
}

// IsVisible returns whether submitted frames are shown to the user.
func (s SessionState) IsVisible() bool {
	return s == SessionStateVisible || s == SessionStateFocused
}

// FormFactor is the kind of XR system.
type FormFactor int32

const (
	FormFactorHeadMountedDisplay FormFactor = 1
	FormFactorHandheldDisplay    FormFactor = 2
)

// ViewConfigurationType is the primary view configuration of a session.
type ViewConfigurationType int32

const (
	ViewConfigurationPrimaryMono   ViewConfigurationType = 1
	ViewConfigurationPrimaryStereo ViewConfigurationType = 2
)

// ViewCount returns the number of views of the configuration.
func (v ViewConfigurationType) ViewCount() int {
	if v == ViewConfigurationPrimaryStereo {
		return 2
	}
	return 1
}

// ReferenceSpaceType is the kind of a reference space.
type ReferenceSpaceType int32

const (
	ReferenceSpaceView  ReferenceSpaceType = 1
	ReferenceSpaceLocal ReferenceSpaceType = 2
	ReferenceSpaceStage ReferenceSpaceType = 3
)

func (t ReferenceSpaceType) String() string {
	switch t {
	case ReferenceSpaceView:
		return "XR_REFERENCE_SPACE_TYPE_VIEW"
	case ReferenceSpaceLocal:
		return "XR_REFERENCE_SPACE_TYPE_LOCAL"
	case ReferenceSpaceStage:
		return "XR_REFERENCE_SPACE_TYPE_STAGE"
	}
	return "XR_REFERENCE_SPACE_TYPE_" + strconv.Itoa(int(t))
}

// EnvironmentBlendMode is how rendered content blends with the real world.
type EnvironmentBlendMode int32

const (
	EnvironmentBlendModeOpaque     EnvironmentBlendMode = 1
	EnvironmentBlendModeAdditive   EnvironmentBlendMode = 2
	EnvironmentBlendModeAlphaBlend EnvironmentBlendMode = 3
)

// EyeVisibility selects the eyes a quad layer is shown to.
type EyeVisibility int32

const (
	EyeVisibilityBoth  EyeVisibility = 0
	EyeVisibilityLeft  EyeVisibility = 1
	EyeVisibilityRight EyeVisibility = 2
)

// ActionType is the kind of an action.
type ActionType int32

const (
	ActionTypeBooleanInput    ActionType = 1
	ActionTypeFloatInput      ActionType = 2
	ActionTypeVector2fInput   ActionType = 3
	ActionTypePoseInput       ActionType = 4
	ActionTypeVibrationOutput ActionType = 100
)

// DebugSeverity is a bit set of debug message severities.
type DebugSeverity uint32

const (
	DebugSeverityVerbose DebugSeverity = 0x1
	DebugSeverityInfo    DebugSeverity = 0x10
	DebugSeverityWarning DebugSeverity = 0x100
	DebugSeverityError   DebugSeverity = 0x1000

	DebugSeverityAll = DebugSeverityVerbose | DebugSeverityInfo | DebugSeverityWarning | DebugSeverityError
)

// SpaceLocationFlags are the validity bits of a [SpaceLocation].
type SpaceLocationFlags uint64

const (
	SpaceLocationOrientationValid   SpaceLocationFlags = 0x1
	SpaceLocationPositionValid      SpaceLocationFlags = 0x2
	SpaceLocationOrientationTracked SpaceLocationFlags = 0x4
	SpaceLocationPositionTracked    SpaceLocationFlags = 0x8
)

// Has returns whether all bits of f are set.
func (l SpaceLocationFlags) Has(f SpaceLocationFlags) bool { return l&f == f }

// SpaceVelocityFlags are the validity bits of space velocities.
type SpaceVelocityFlags uint64

const (
	SpaceVelocityLinearValid  SpaceVelocityFlags = 0x1
	SpaceVelocityAngularValid SpaceVelocityFlags = 0x2
)

// Has returns whether all bits of f are set.
func (v SpaceVelocityFlags) Has(f SpaceVelocityFlags) bool { return v&f == f }

// ViewStateFlags are the validity bits of located views.
type ViewStateFlags uint64

const (
	ViewStateOrientationValid   ViewStateFlags = 0x1
	ViewStatePositionValid      ViewStateFlags = 0x2
	ViewStateOrientationTracked ViewStateFlags = 0x4
	ViewStatePositionTracked    ViewStateFlags = 0x8
)

// Has returns whether all bits of f are set.
func (v ViewStateFlags) Has(f ViewStateFlags) bool { return v&f == f }

// Extension names used by the driver.
const (
	KHROpenGLEnable                       = "XR_KHR_opengl_enable"
	EXTDebugUtils                         = "XR_EXT_debug_utils"
	KHRConvertTimespecTime                = "XR_KHR_convert_timespec_time"
	KHRWin32ConvertPerformanceCounterTime = "XR_KHR_win32_convert_performance_counter_time"
	FBDisplayRefreshRate                  = "XR_FB_display_refresh_rate"
	KHRCompositionLayerDepth              = "XR_KHR_composition_layer_depth"
	EXTEyeGazeInteraction                 = "XR_EXT_eye_gaze_interaction"
	EXTDpadBinding                        = "XR_EXT_dpad_binding"
	HTCViveCosmosControllerInteraction    = "XR_HTC_vive_cosmos_controller_interaction"
	HTCViveFocus3ControllerInteraction    = "XR_HTC_vive_focus3_controller_interaction"
	HPMixedRealityController              = "XR_HP_mixed_reality_controller"
	EXTHPMixedRealityController           = "XR_EXT_hp_mixed_reality_controller"
	EXTSamsungOdysseyController           = "XR_EXT_samsung_odyssey_controller"
	HTCXViveTrackerInteraction            = "XR_HTCX_vive_tracker_interaction"
	MNDHeadless                           = "XR_MND_headless"
)
