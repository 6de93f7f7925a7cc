// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simxr provides a simulated OpenXR runtime implementing
// [xr.Runtime]. It models the observable behavior the driver depends
// on: a compositor clock that paces frames on a vsync grid, swapchain
// image rings with acquire, wait and release rules, session state
// events, action states driven by simulated inputs, haptics, and an
// optional compositor metrics stream. It is the headless backend for
// tests and the command line tool.
package simxr

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/metrics"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// Options configures a simulated [Runtime].
type Options struct {

	// RefreshRate is the display refresh rate in Hz. Zero simulates
	// a headless compositor that reports a zero rate and paces
	// frames at one per second.
	RefreshRate float64

	// SystemName is the reported system name.
	SystemName string

	// RuntimeName is the reported runtime name.
	RuntimeName string

	// RuntimeVersion is the reported runtime version.
	RuntimeVersion xr.Version

	// Width and Height are the recommended per eye image size.
	Width, Height uint32

	// Extensions are the supported extensions. Nil supports
	// all extensions the driver knows about.
	Extensions []string

	// Formats are the supported swapchain formats, in order of
	// runtime preference. Nil uses [DefaultFormats].
	Formats []int64

	// SwapchainImages is the number of images per swapchain.
	SwapchainImages int

	// EyeGaze reports eye gaze interaction support.
	EyeGaze bool

	// NoSystem makes system queries fail as if no device was connected.
	NoSystem bool

	// NoStage removes the stage reference space.
	NoStage bool

	// Profiles maps top level user paths to the interaction profile
	// that becomes active for them after the action sets are attached,
	// if bindings were suggested for that profile. Nil binds both hands
	// to the Oculus touch controller, and the eyes to eye gaze
	// interaction if EyeGaze is set.
	Profiles map[string]string

	// PresentDelay is added to the predicted display time of a frame
	// to get its simulated actual present time.
	PresentDelay time.Duration

	// DestroyDelay delays instance destruction, to simulate runtimes
	// that hang on shutdown.
	DestroyDelay time.Duration

	// Clock is the host clock that runtime time is derived from.
	// Nil uses [platform.NewTimeBridge].
	Clock platform.TimeBridge

	// Metrics receives the compositor metrics stream if non-nil.
	Metrics io.Writer
}

// DefaultFormats are the swapchain formats supported by default.
var DefaultFormats = []int64{xr.GLSRGB8Alpha8, xr.GLRGBA8, xr.GLRGBA16F, xr.GLRGB10A2, xr.GLRGBA16, xr.GLRGBA32F}

// DefaultExtensions are the extensions supported by default.
var DefaultExtensions = []string{
	xr.KHROpenGLEnable, xr.EXTDebugUtils, xr.KHRConvertTimespecTime,
	xr.KHRWin32ConvertPerformanceCounterTime, xr.FBDisplayRefreshRate,
	xr.KHRCompositionLayerDepth, xr.EXTEyeGazeInteraction, xr.EXTDpadBinding,
	xr.HTCViveCosmosControllerInteraction, xr.HTCViveFocus3ControllerInteraction,
	xr.HPMixedRealityController, xr.EXTHPMixedRealityController,
	xr.EXTSamsungOdysseyController, xr.HTCXViveTrackerInteraction, xr.MNDHeadless,
}

// DefaultOptions returns the options of a 90 Hz device.
func DefaultOptions() Options {
	return Options{
		RefreshRate:     90,
		SystemName:      "Simulated HMD",
		RuntimeName:     "Simulated OpenXR",
		RuntimeVersion:  xr.Version{Major: 1, Minor: 0, Patch: 0},
		Width:           1440,
		Height:          1600,
		SwapchainImages: 3,
	}
}

// Call is one entry of the frame timing trace of a session.
type Call string

const (
	CallWait    Call = "Wait"
	CallBegin   Call = "Begin"
	CallRelease Call = "Release"
	CallSubmit  Call = "Submit"
)

// Runtime is a simulated OpenXR runtime.
type Runtime struct {
	opts  Options
	clock platform.TimeBridge
	enc   *metrics.Encoder

	mu         sync.Mutex
	nextHandle uint64
	instances  map[xr.Instance]*instance
	messengers map[xr.DebugMessenger]*messenger
	sessions   map[xr.Session]*session
	spaces     map[xr.Space]*space
	swapchains map[xr.Swapchain]*swapchain
	actionSets map[xr.ActionSet]*actionSet
	actions    map[xr.Action]*action

	paths     map[string]xr.Path
	pathNames map[xr.Path]string

	// inputs are the simulated raw input values by binding path.
	inputs map[string]any

	haptics     []Haptic
	nextTexture uint32
	sessionIDs  int64
	systemFrame int64
}

var _ xr.Runtime = (*Runtime)(nil)

type instance struct {
	enabled   map[string]bool
	events    []xr.Event
	suggested map[xr.Path][]xr.ActionSuggestedBinding
}

type messenger struct {
	inst       xr.Instance
	severities xr.DebugSeverity
	cb         xr.DebugCallback
}

// New returns a new simulated runtime with the given options.
// Zero valued options are filled in from [DefaultOptions].
func New(opts Options) *Runtime {
	def := DefaultOptions()
	if opts.SystemName == "" {
		opts.SystemName = def.SystemName
	}
	if opts.RuntimeName == "" {
		opts.RuntimeName = def.RuntimeName
	}
	if opts.RuntimeVersion == (xr.Version{}) {
		opts.RuntimeVersion = def.RuntimeVersion
	}
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.SwapchainImages <= 0 {
		opts.SwapchainImages = def.SwapchainImages
	}
	if opts.Extensions == nil {
		opts.Extensions = DefaultExtensions
	}
	if opts.Formats == nil {
		opts.Formats = DefaultFormats
	}
	if opts.Profiles == nil {
		opts.Profiles = map[string]string{
			"/user/hand/left":  "/interaction_profiles/oculus/touch_controller",
			"/user/hand/right": "/interaction_profiles/oculus/touch_controller",
		}
		if opts.EyeGaze {
			opts.Profiles["/user/eyes_ext"] = "/interaction_profiles/ext/eye_gaze_interaction"
		}
	}
	r := &Runtime{
		opts:        opts,
		clock:       opts.Clock,
		instances:   map[xr.Instance]*instance{},
		messengers:  map[xr.DebugMessenger]*messenger{},
		sessions:    map[xr.Session]*session{},
		spaces:      map[xr.Space]*space{},
		swapchains:  map[xr.Swapchain]*swapchain{},
		actionSets:  map[xr.ActionSet]*actionSet{},
		actions:     map[xr.Action]*action{},
		paths:       map[string]xr.Path{},
		pathNames:   map[xr.Path]string{},
		inputs:      map[string]any{},
		nextTexture: 1000,
	}
	if r.clock == nil {
		r.clock = platform.NewTimeBridge()
	}
	if opts.Metrics != nil {
		r.enc = metrics.NewEncoder(opts.Metrics)
		r.emit(&metrics.Version{Major: 1, Minor: 1})
	}
	return r
}

// Options returns the options of the runtime.
func (r *Runtime) Options() Options { return r.opts }

// Now returns the current runtime time.
func (r *Runtime) Now() xr.Time {
	return xr.TimeFromSeconds(r.clock.Now())
}

// period returns the frame period of the compositor.
func (r *Runtime) period() xr.Duration {
	if r.opts.RefreshRate <= 0 {
		return xr.Duration(time.Second)
	}
	return xr.DurationFromSeconds(1 / r.opts.RefreshRate)
}

func (r *Runtime) handle() uint64 {
	r.nextHandle++
	return r.nextHandle
}

// emit writes a metrics record if the metrics stream is enabled.
func (r *Runtime) emit(rec metrics.Record) {
	if r.enc == nil {
		return
	}
	if err := r.enc.Encode(rec); err != nil {
		slog.Warn("simxr: metrics stream write failed, disabling it", "err", err)
		r.enc = nil
	}
}

// fail reports a failed call to the debug messengers of all
// instances and returns res. It must be called with r.mu held.
func (r *Runtime) fail(call string, res xr.Result, format string, args ...any) xr.Result {
	msg := fmt.Sprintf(format, args...)
	for _, m := range r.messengers {
		if m.severities&xr.DebugSeverityError != 0 && m.cb != nil {
			m.cb(xr.DebugMessage{
				Severity:     xr.DebugSeverityError,
				MessageID:    res.String(),
				FunctionName: call,
				Message:      msg,
			})
		}
	}
	return res
}

// pushEvent queues an event on all instances. It must be called
// with r.mu held.
func (r *Runtime) pushEvent(ev xr.Event) {
	for _, inst := range r.instances {
		inst.events = append(inst.events, ev)
	}
}

// PushEvent queues an event on all instances.
func (r *Runtime) PushEvent(ev xr.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushEvent(ev)
}

// EmitDebug delivers a debug message to all messengers that
// accept its severity.
func (r *Runtime) EmitDebug(msg xr.DebugMessage) {
	r.mu.Lock()
	var cbs []xr.DebugCallback
	for _, m := range r.messengers {
		if m.severities&msg.Severity != 0 && m.cb != nil {
			cbs = append(cbs, m.cb)
		}
	}
	r.mu.Unlock()
	for _, cb := range cbs {
		cb(msg)
	}
}

// Instances returns the number of live instances.
func (r *Runtime) Instances() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

func (r *Runtime) EnumerateInstanceExtensionProperties() ([]xr.ExtensionProperties, xr.Result) {
	props := make([]xr.ExtensionProperties, len(r.opts.Extensions))
	for i, e := range r.opts.Extensions {
		props[i] = xr.ExtensionProperties{Name: e, Version: 1}
	}
	return props, xr.Success
}

func (r *Runtime) CreateInstance(info xr.InstanceCreateInfo) (xr.Instance, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	supported := map[string]bool{}
	for _, e := range r.opts.Extensions {
		supported[e] = true
	}
	inst := &instance{enabled: map[string]bool{}, suggested: map[xr.Path][]xr.ActionSuggestedBinding{}}
	for _, e := range info.Extensions {
		if !supported[e] {
			return 0, r.fail("xrCreateInstance", xr.ErrorExtensionNotPresent, "extension %s not supported", e)
		}
		inst.enabled[e] = true
	}
	if info.Application.APIVersion.Major > 1 {
		return 0, xr.ErrorAPIVersionUnsupported
	}
	h := xr.Instance(r.handle())
	r.instances[h] = inst
	return h, xr.Success
}

func (r *Runtime) DestroyInstance(inst xr.Instance) xr.Result {
	if r.opts.DestroyDelay > 0 {
		time.Sleep(r.opts.DestroyDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst]; !ok {
		return xr.ErrorHandleInvalid
	}
	for h, m := range r.messengers {
		if m.inst == inst {
			delete(r.messengers, h)
		}
	}
	delete(r.instances, inst)
	return xr.Success
}

func (r *Runtime) GetInstanceProperties(inst xr.Instance) (xr.InstanceProperties, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst]; !ok {
		return xr.InstanceProperties{}, xr.ErrorHandleInvalid
	}
	return xr.InstanceProperties{RuntimeName: r.opts.RuntimeName, RuntimeVersion: r.opts.RuntimeVersion}, xr.Success
}

// enabled returns whether an extension is enabled on inst.
// It must be called with r.mu held.
func (r *Runtime) enabled(inst xr.Instance, ext string) bool {
	in, ok := r.instances[inst]
	return ok && in.enabled[ext]
}

func (r *Runtime) CreateDebugUtilsMessenger(inst xr.Instance, severities xr.DebugSeverity, cb xr.DebugCallback) (xr.DebugMessenger, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst]; !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if !r.enabled(inst, xr.EXTDebugUtils) {
		return 0, xr.ErrorFunctionUnsupported
	}
	h := xr.DebugMessenger(r.handle())
	r.messengers[h] = &messenger{inst: inst, severities: severities, cb: cb}
	return h, xr.Success
}

func (r *Runtime) DestroyDebugUtilsMessenger(m xr.DebugMessenger) xr.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messengers[m]; !ok {
		return xr.ErrorHandleInvalid
	}
	delete(r.messengers, m)
	return xr.Success
}

func (r *Runtime) PollEvent(inst xr.Instance) (xr.Event, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.instances[inst]
	if !ok {
		return nil, xr.ErrorHandleInvalid
	}
	if len(in.events) == 0 {
		return nil, xr.EventUnavailable
	}
	ev := in.events[0]
	in.events = in.events[1:]
	return ev, xr.Success
}

func (r *Runtime) StringToPath(inst xr.Instance, path string) (xr.Path, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst]; !ok {
		return xr.NullPath, xr.ErrorHandleInvalid
	}
	return r.path(path)
}

// path interns a path string. It must be called with r.mu held.
func (r *Runtime) path(path string) (xr.Path, xr.Result) {
	if !strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return xr.NullPath, r.fail("xrStringToPath", xr.ErrorPathFormatInvalid, "invalid path %q", path)
	}
	if p, ok := r.paths[path]; ok {
		return p, xr.Success
	}
	p := xr.Path(len(r.paths) + 1)
	r.paths[path] = p
	r.pathNames[p] = path
	return p, xr.Success
}

func (r *Runtime) PathToString(inst xr.Instance, path xr.Path) (string, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst]; !ok {
		return "", xr.ErrorHandleInvalid
	}
	s, ok := r.pathNames[path]
	if !ok {
		return "", xr.ErrorPathInvalid
	}
	return s, xr.Success
}

// timeConversion returns whether inst can convert host times.
func (r *Runtime) timeConversion(inst xr.Instance) bool {
	return r.enabled(inst, xr.KHRConvertTimespecTime) || r.enabled(inst, xr.KHRWin32ConvertPerformanceCounterTime)
}

func (r *Runtime) ConvertTicksToTime(inst xr.Instance, ticks int64) (xr.Time, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.timeConversion(inst) {
		return 0, xr.ErrorFunctionUnsupported
	}
	if ticks <= 0 {
		return 0, xr.ErrorTimeInvalid
	}
	return xr.TimeFromSeconds(r.clock.FromTicks(ticks)), xr.Success
}

func (r *Runtime) ConvertTimeToTicks(inst xr.Instance, t xr.Time) (int64, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.timeConversion(inst) {
		return 0, xr.ErrorFunctionUnsupported
	}
	if t <= 0 {
		return 0, xr.ErrorTimeInvalid
	}
	return r.clock.ToTicks(t.Seconds()), xr.Success
}

// systemID is the id of the single simulated system.
const systemID xr.SystemID = 1

func (r *Runtime) GetSystem(inst xr.Instance, formFactor xr.FormFactor) (xr.SystemID, xr.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst]; !ok {
		return 0, xr.ErrorHandleInvalid
	}
	if formFactor != xr.FormFactorHeadMountedDisplay {
		return 0, xr.ErrorFormFactorUnsupported
	}
	if r.opts.NoSystem {
		return 0, xr.ErrorFormFactorUnavailable
	}
	return systemID, xr.Success
}

func (r *Runtime) GetSystemProperties(inst xr.Instance, system xr.SystemID) (xr.SystemProperties, xr.Result) {
	if system != systemID {
		return xr.SystemProperties{}, xr.ErrorSystemInvalid
	}
	return xr.SystemProperties{
		SystemID:                system,
		VendorID:                0x5349,
		SystemName:              r.opts.SystemName,
		MaxLayerCount:           16,
		MaxSwapchainImageWidth:  4096,
		MaxSwapchainImageHeight: 4096,
		OrientationTracking:     true,
		PositionTracking:        true,
		EyeGazeInteraction:      r.opts.EyeGaze,
	}, xr.Success
}

func (r *Runtime) EnumerateViewConfigurationViews(inst xr.Instance, system xr.SystemID, viewType xr.ViewConfigurationType) ([]xr.ViewConfigurationView, xr.Result) {
	if system != systemID {
		return nil, xr.ErrorSystemInvalid
	}
	if !validViewType(viewType) {
		return nil, xr.ErrorViewConfigurationTypeUnsupported
	}
	views := make([]xr.ViewConfigurationView, viewType.ViewCount())
	for i := range views {
		views[i] = xr.ViewConfigurationView{
			RecommendedImageRectWidth:       r.opts.Width,
			MaxImageRectWidth:               4096,
			RecommendedImageRectHeight:      r.opts.Height,
			MaxImageRectHeight:              4096,
			RecommendedSwapchainSampleCount: 1,
			MaxSwapchainSampleCount:         4,
		}
	}
	return views, xr.Success
}

func validViewType(v xr.ViewConfigurationType) bool {
	return v == xr.ViewConfigurationPrimaryMono || v == xr.ViewConfigurationPrimaryStereo
}

func (r *Runtime) GetOpenGLGraphicsRequirements(inst xr.Instance, system xr.SystemID) (xr.GraphicsRequirements, xr.Result) {
	if system != systemID {
		return xr.GraphicsRequirements{}, xr.ErrorSystemInvalid
	}
	return xr.GraphicsRequirements{
		MinAPIVersion: xr.Version{Major: 3, Minor: 3},
		MaxAPIVersion: xr.Version{Major: 4, Minor: 6},
	}, xr.Success
}
