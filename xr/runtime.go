// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xr provides the OpenXR vocabulary used by the driver:
// result codes, runtime time, object handles, enums, and the
// structs passed to and from the runtime, together with the
// [Runtime] interface through which the driver talks to an
// OpenXR runtime and compositor.
package xr

// Runtime is the set of OpenXR entry points the driver uses.
// Every method returns a [Result]; all other return values are
// only meaningful if the result succeeded.
//
// The frame timing methods WaitFrame, BeginFrame and EndFrame
// must not be called concurrently for the same session. WaitFrame
// blocks until the compositor is ready for the next frame.
type Runtime interface {

	// EnumerateInstanceExtensionProperties returns all extensions
	// the runtime supports.
	EnumerateInstanceExtensionProperties() ([]ExtensionProperties, Result)

	CreateInstance(info InstanceCreateInfo) (Instance, Result)
	DestroyInstance(inst Instance) Result
	GetInstanceProperties(inst Instance) (InstanceProperties, Result)

	// CreateDebugUtilsMessenger installs cb for debug messages of the
	// given severities. It requires [EXTDebugUtils].
	CreateDebugUtilsMessenger(inst Instance, severities DebugSeverity, cb DebugCallback) (DebugMessenger, Result)
	DestroyDebugUtilsMessenger(m DebugMessenger) Result

	// PollEvent returns the next queued event, or [EventUnavailable]
	// and a nil event if the queue is empty. It never blocks.
	PollEvent(inst Instance) (Event, Result)

	StringToPath(inst Instance, path string) (Path, Result)
	PathToString(inst Instance, path Path) (string, Result)

	// ConvertTicksToTime converts a platform clock value (timespec
	// nanoseconds or performance counter ticks) to runtime time.
	ConvertTicksToTime(inst Instance, ticks int64) (Time, Result)
	ConvertTimeToTicks(inst Instance, t Time) (int64, Result)

	GetSystem(inst Instance, formFactor FormFactor) (SystemID, Result)
	GetSystemProperties(inst Instance, system SystemID) (SystemProperties, Result)
	EnumerateViewConfigurationViews(inst Instance, system SystemID, viewType ViewConfigurationType) ([]ViewConfigurationView, Result)
	GetOpenGLGraphicsRequirements(inst Instance, system SystemID) (GraphicsRequirements, Result)

	CreateSession(inst Instance, info SessionCreateInfo) (Session, Result)
	DestroySession(s Session) Result
	BeginSession(s Session, viewType ViewConfigurationType) Result
	EndSession(s Session) Result
	RequestExitSession(s Session) Result

	// GetDisplayRefreshRate requires [FBDisplayRefreshRate].
	GetDisplayRefreshRate(s Session) (float32, Result)

	EnumerateReferenceSpaces(s Session) ([]ReferenceSpaceType, Result)
	CreateReferenceSpace(s Session, spaceType ReferenceSpaceType, poseInSpace Posef) (Space, Result)
	GetReferenceSpaceBoundsRect(s Session, spaceType ReferenceSpaceType) (Extent2Df, Result)
	CreateActionSpace(s Session, action Action, subactionPath Path, poseInSpace Posef) (Space, Result)
	DestroySpace(space Space) Result
	LocateSpace(space, baseSpace Space, t Time) (SpaceLocation, Result)
	LocateViews(s Session, info ViewLocateInfo) (ViewState, []View, Result)

	EnumerateSwapchainFormats(s Session) ([]int64, Result)
	CreateSwapchain(s Session, info SwapchainCreateInfo) (Swapchain, Result)
	DestroySwapchain(sc Swapchain) Result

	// EnumerateSwapchainImages returns the OpenGL texture names
	// of the swapchain images.
	EnumerateSwapchainImages(sc Swapchain) ([]uint32, Result)

	// AcquireSwapchainImage returns the index of the next image
	// to render into.
	AcquireSwapchainImage(sc Swapchain) (uint32, Result)

	// WaitSwapchainImage waits until the acquired image may be
	// rendered into, returning [TimeoutExpired] on timeout.
	WaitSwapchainImage(sc Swapchain, timeout Duration) Result
	ReleaseSwapchainImage(sc Swapchain) Result

	WaitFrame(s Session) (FrameState, Result)
	BeginFrame(s Session) Result
	EndFrame(s Session, info FrameEndInfo) Result

	CreateActionSet(inst Instance, name, localizedName string, priority uint32) (ActionSet, Result)
	DestroyActionSet(set ActionSet) Result
	CreateAction(set ActionSet, info ActionCreateInfo) (Action, Result)
	SuggestInteractionProfileBindings(inst Instance, profile Path, bindings []ActionSuggestedBinding) Result
	AttachSessionActionSets(s Session, sets []ActionSet) Result
	SyncActions(s Session, sets []ActionSet) Result
	GetCurrentInteractionProfile(s Session, topLevelPath Path) (Path, Result)

	GetActionStateBoolean(s Session, action Action, subactionPath Path) (ActionStateBoolean, Result)
	GetActionStateFloat(s Session, action Action, subactionPath Path) (ActionStateFloat, Result)
	GetActionStateVector2f(s Session, action Action, subactionPath Path) (ActionStateVector2f, Result)
	GetActionStatePose(s Session, action Action, subactionPath Path) (ActionStatePose, Result)

	ApplyHapticFeedback(s Session, action Action, subactionPath Path, vibration HapticVibration) Result
	StopHapticFeedback(s Session, action Action, subactionPath Path) Result
}
