// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xr

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Handles are opaque runtime object identifiers. Zero is the null handle.
type (
	Instance       uint64
	SystemID       uint64
	Session        uint64
	Space          uint64
	Swapchain      uint64
	ActionSet      uint64
	Action         uint64
	DebugMessenger uint64

	// Path is an interned semantic path such as "/user/hand/left".
	Path uint64
)

// NullPath is the null [Path], meaning "no particular subaction path".
const NullPath Path = 0

// Version is a runtime or API version.
type Version struct {
	Major, Minor, Patch uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Vector2f is a 2D vector.
type Vector2f struct {
	X, Y float32
}

// Vector3f is a 3D vector in meters or meters per second.
type Vector3f struct {
	X, Y, Z float32
}

// Quaternionf is a rotation quaternion.
type Quaternionf struct {
	X, Y, Z, W float32
}

// IdentityQuaternion is the quaternion of no rotation.
var IdentityQuaternion = Quaternionf{W: 1}

// Normalized returns the unit length version of q,
// or the identity if q has zero length.
func (q Quaternionf) Normalized() Quaternionf {
	l := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l == 0 {
		return IdentityQuaternion
	}
	return Quaternionf{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Mul returns the Hamilton product q*o, the rotation o followed by q.
func (q Quaternionf) Mul(o Quaternionf) Quaternionf {
	return Quaternionf{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate returns v rotated by q.
func (q Quaternionf) Rotate(v Vector3f) Vector3f {
	p := q.Mul(Quaternionf{v.X, v.Y, v.Z, 0}).Mul(Quaternionf{-q.X, -q.Y, -q.Z, q.W})
	return Vector3f{p.X, p.Y, p.Z}
}

// QuaternionFromAxisAngle returns the rotation by angle radians
// around the given unit axis.
func QuaternionFromAxisAngle(axis Vector3f, angle float32) Quaternionf {
	s := math32.Sin(angle / 2)
	return Quaternionf{axis.X * s, axis.Y * s, axis.Z * s, math32.Cos(angle / 2)}
}

// Posef is a position and orientation.
type Posef struct {
	Orientation Quaternionf
	Position    Vector3f
}

// IdentityPose is the pose at the origin with no rotation.
var IdentityPose = Posef{Orientation: IdentityQuaternion}

// Vector returns the pose as [x y z qx qy qz qw].
func (p Posef) Vector() [7]float64 {
	return [7]float64{
		float64(p.Position.X), float64(p.Position.Y), float64(p.Position.Z),
		float64(p.Orientation.X), float64(p.Orientation.Y), float64(p.Orientation.Z), float64(p.Orientation.W),
	}
}

// Fovf is a field of view as four angles in radians, left and down
// being negative for symmetric views.
type Fovf struct {
	AngleLeft, AngleRight, AngleUp, AngleDown float32
}

// SymmetricFov returns a field of view with the given half angles.
func SymmetricFov(horizontal, vertical float32) Fovf {
	return Fovf{-horizontal, horizontal, vertical, -vertical}
}

// Extent2Di is an integer size.
type Extent2Di struct {
	Width, Height int32
}

// Extent2Df is a size in meters.
type Extent2Df struct {
	Width, Height float32
}

// Offset2Di is an integer offset.
type Offset2Di struct {
	X, Y int32
}

// Rect2Di is an integer rectangle.
type Rect2Di struct {
	Offset Offset2Di
	Extent Extent2Di
}

// ExtensionProperties describes one runtime extension.
type ExtensionProperties struct {
	Name    string
	Version uint32
}

// ApplicationInfo identifies the application to the runtime.
type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         Version
}

// InstanceCreateInfo configures [Runtime.CreateInstance].
type InstanceCreateInfo struct {
	Application ApplicationInfo
	Extensions  []string
}

// InstanceProperties describes the runtime behind an instance.
type InstanceProperties struct {
	RuntimeName    string
	RuntimeVersion Version
}

// SystemProperties describes one XR system (device).
type SystemProperties struct {
	SystemID   SystemID
	VendorID   uint32
	SystemName string

	MaxLayerCount           uint32
	MaxSwapchainImageWidth  uint32
	MaxSwapchainImageHeight uint32

	OrientationTracking bool
	PositionTracking    bool

	// EyeGazeInteraction is set when eye gaze input is supported.
	EyeGazeInteraction bool
}

// ViewConfigurationView is the recommended and maximum rendering
// parameters of one view.
type ViewConfigurationView struct {
	RecommendedImageRectWidth       uint32
	MaxImageRectWidth               uint32
	RecommendedImageRectHeight      uint32
	MaxImageRectHeight              uint32
	RecommendedSwapchainSampleCount uint32
	MaxSwapchainSampleCount         uint32
}

// GraphicsRequirements is the supported OpenGL version range.
type GraphicsRequirements struct {
	MinAPIVersion Version
	MaxAPIVersion Version
}

// SessionCreateInfo configures [Runtime.CreateSession].
// Binding is one of the GraphicsBinding* types.
type SessionCreateInfo struct {
	SystemID SystemID
	Binding  any
}

// GraphicsBindingOpenGLXlib binds a session to a GLX context.
type GraphicsBindingOpenGLXlib struct {
	XDisplay    uintptr
	VisualID    uint32
	GLXFBConfig uintptr
	GLXDrawable uintptr
	GLXContext  uintptr
}

// GraphicsBindingOpenGLWin32 binds a session to a WGL context.
type GraphicsBindingOpenGLWin32 struct {
	HDC   uintptr
	HGLRC uintptr
}

// GraphicsBindingHeadless binds a session without any graphics
// context, for runtimes that support headless sessions.
type GraphicsBindingHeadless struct{}

// SwapchainUsageFlags are the intended uses of swapchain images.
type SwapchainUsageFlags uint64

const (
	SwapchainUsageColorAttachment SwapchainUsageFlags = 0x1
	SwapchainUsageTransferDst     SwapchainUsageFlags = 0x10
	SwapchainUsageSampled         SwapchainUsageFlags = 0x20
)

// SwapchainCreateInfo configures [Runtime.CreateSwapchain].
type SwapchainCreateInfo struct {
	UsageFlags  SwapchainUsageFlags
	Format      int64
	SampleCount uint32
	Width       uint32
	Height      uint32
	FaceCount   uint32
	ArraySize   uint32
	MipCount    uint32
}

// FrameState is the result of [Runtime.WaitFrame].
type FrameState struct {
	PredictedDisplayTime   Time
	PredictedDisplayPeriod Duration
	ShouldRender           bool
}

// SwapchainSubImage references a rectangle of a swapchain image.
type SwapchainSubImage struct {
	Swapchain       Swapchain
	ImageRect       Rect2Di
	ImageArrayIndex uint32
}

// CompositionLayerFlags modify layer composition.
type CompositionLayerFlags uint64

const (
	CompositionLayerCorrectChromaticAberration CompositionLayerFlags = 0x1
	CompositionLayerBlendTextureSourceAlpha    CompositionLayerFlags = 0x2
)

// CompositionLayer is one of the CompositionLayer* types.
type CompositionLayer interface {
	// LayerSwapchains returns the swapchains the layer reads from.
	LayerSwapchains() []Swapchain
}

// CompositionLayerQuad is a flat quad placed in a space.
type CompositionLayerQuad struct {
	Flags         CompositionLayerFlags
	Space         Space
	EyeVisibility EyeVisibility
	SubImage      SwapchainSubImage
	Pose          Posef
	Size          Extent2Df
}

func (l *CompositionLayerQuad) LayerSwapchains() []Swapchain {
	return []Swapchain{l.SubImage.Swapchain}
}

// CompositionLayerProjectionView is one view of a projection layer.
type CompositionLayerProjectionView struct {
	Pose     Posef
	Fov      Fovf
	SubImage SwapchainSubImage
}

// CompositionLayerProjection is a set of rendered views.
type CompositionLayerProjection struct {
	Flags CompositionLayerFlags
	Space Space
	Views []CompositionLayerProjectionView
}

func (l *CompositionLayerProjection) LayerSwapchains() []Swapchain {
	scs := make([]Swapchain, len(l.Views))
	for i := range l.Views {
		scs[i] = l.Views[i].SubImage.Swapchain
	}
	return scs
}

// FrameEndInfo is the frame submitted by [Runtime.EndFrame].
type FrameEndInfo struct {
	DisplayTime          Time
	EnvironmentBlendMode EnvironmentBlendMode
	Layers               []CompositionLayer
}

// View is the located pose and field of view of one view.
type View struct {
	Pose Posef
	Fov  Fovf
}

// ViewState is the validity of located views.
type ViewState struct {
	Flags ViewStateFlags
}

// ViewLocateInfo configures [Runtime.LocateViews].
type ViewLocateInfo struct {
	ViewConfigurationType ViewConfigurationType
	DisplayTime           Time
	Space                 Space
}

// SpaceLocation is the result of [Runtime.LocateSpace].
type SpaceLocation struct {
	Flags           SpaceLocationFlags
	Pose            Posef
	VelocityFlags   SpaceVelocityFlags
	LinearVelocity  Vector3f
	AngularVelocity Vector3f
}

// ActionCreateInfo configures [Runtime.CreateAction].
type ActionCreateInfo struct {
	Name           string
	LocalizedName  string
	Type           ActionType
	SubactionPaths []Path
}

// ActionSuggestedBinding binds an action to an input or output path.
type ActionSuggestedBinding struct {
	Action  Action
	Binding Path
}

// ActionStateBoolean is the state of a boolean action.
type ActionStateBoolean struct {
	CurrentState         bool
	ChangedSinceLastSync bool
	LastChangeTime       Time
	IsActive             bool
}

// ActionStateFloat is the state of a float action.
type ActionStateFloat struct {
	CurrentState         float32
	ChangedSinceLastSync bool
	LastChangeTime       Time
	IsActive             bool
}

// ActionStateVector2f is the state of a 2D action.
type ActionStateVector2f struct {
	CurrentState         Vector2f
	ChangedSinceLastSync bool
	LastChangeTime       Time
	IsActive             bool
}

// ActionStatePose is the state of a pose action.
type ActionStatePose struct {
	IsActive bool
}

// HapticVibration is a haptic pulse request.
type HapticVibration struct {
	Duration  Duration
	Frequency float32
	Amplitude float32
}

// DebugMessage is a message delivered to a debug messenger callback.
type DebugMessage struct {
	Severity     DebugSeverity
	Types        uint32
	MessageID    string
	FunctionName string
	Message      string
}

// DebugCallback receives runtime debug messages. Its return
// value is reserved and should be false.
type DebugCallback func(msg DebugMessage) bool
