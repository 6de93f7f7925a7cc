// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simxr

import (
	"bytes"
	"testing"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/metrics"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstance(t *testing.T, r *Runtime, exts ...string) xr.Instance {
	t.Helper()
	inst, res := r.CreateInstance(xr.InstanceCreateInfo{
		Application: xr.ApplicationInfo{ApplicationName: "test", APIVersion: xr.Version{Major: 1}},
		Extensions:  exts,
	})
	require.Equal(t, xr.Success, res)
	return inst
}

func newSession(t *testing.T, r *Runtime, inst xr.Instance) xr.Session {
	t.Helper()
	sys, res := r.GetSystem(inst, xr.FormFactorHeadMountedDisplay)
	require.Equal(t, xr.Success, res)
	s, res := r.CreateSession(inst, xr.SessionCreateInfo{SystemID: sys, Binding: xr.GraphicsBindingHeadless{}})
	require.Equal(t, xr.Success, res)
	return s
}

func states(r *Runtime, inst xr.Instance) []xr.SessionState {
	var st []xr.SessionState
	for {
		ev, res := r.PollEvent(inst)
		if res != xr.Success {
			return st
		}
		if e, ok := ev.(*xr.EventSessionStateChanged); ok {
			st = append(st, e.State)
		}
	}
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.RefreshRate = 250
	return opts
}

func TestSessionLifecycle(t *testing.T) {
	r := New(fastOptions())
	inst := newInstance(t, r, xr.MNDHeadless)
	s := newSession(t, r, inst)
	assert.Equal(t, []xr.SessionState{xr.SessionStateIdle, xr.SessionStateReady}, states(r, inst))

	assert.Equal(t, xr.ErrorSessionNotStopping, r.EndSession(s))
	require.Equal(t, xr.Success, r.BeginSession(s, xr.ViewConfigurationPrimaryStereo))
	assert.Equal(t, xr.ErrorSessionRunning, r.BeginSession(s, xr.ViewConfigurationPrimaryStereo))
	assert.Equal(t, []xr.SessionState{xr.SessionStateSynchronized, xr.SessionStateVisible, xr.SessionStateFocused}, states(r, inst))

	require.Equal(t, xr.Success, r.RequestExitSession(s))
	assert.Equal(t, []xr.SessionState{xr.SessionStateStopping}, states(r, inst))
	require.Equal(t, xr.Success, r.EndSession(s))
	assert.Equal(t, []xr.SessionState{xr.SessionStateIdle, xr.SessionStateExiting}, states(r, inst))

	assert.Equal(t, xr.Success, r.DestroySession(s))
	assert.Equal(t, 0, r.Sessions())
	assert.Equal(t, xr.Success, r.DestroyInstance(inst))
	assert.Equal(t, 0, r.Instances())
}

func TestCreateSessionBinding(t *testing.T) {
	r := New(fastOptions())
	inst := newInstance(t, r)
	_, res := r.CreateSession(inst, xr.SessionCreateInfo{SystemID: 1, Binding: xr.GraphicsBindingHeadless{}})
	assert.Equal(t, xr.ErrorGraphicsDeviceInvalid, res)
	_, res = r.CreateSession(inst, xr.SessionCreateInfo{SystemID: 7, Binding: xr.GraphicsBindingHeadless{}})
	assert.Equal(t, xr.ErrorSystemInvalid, res)
}

func TestInstanceExtensions(t *testing.T) {
	r := New(Options{Extensions: []string{xr.KHROpenGLEnable}})
	_, res := r.CreateInstance(xr.InstanceCreateInfo{Extensions: []string{xr.EXTDebugUtils}})
	assert.Equal(t, xr.ErrorExtensionNotPresent, res)

	inst := newInstance(t, r, xr.KHROpenGLEnable)
	_, res = r.CreateDebugUtilsMessenger(inst, xr.DebugSeverityAll, nil)
	assert.Equal(t, xr.ErrorFunctionUnsupported, res)
	_, res = r.ConvertTicksToTime(inst, 100)
	assert.Equal(t, xr.ErrorFunctionUnsupported, res)
}

func TestDebugMessages(t *testing.T) {
	r := New(fastOptions())
	inst := newInstance(t, r, xr.EXTDebugUtils)
	var msgs []xr.DebugMessage
	_, res := r.CreateDebugUtilsMessenger(inst, xr.DebugSeverityError, func(m xr.DebugMessage) bool {
		msgs = append(msgs, m)
		return false
	})
	require.Equal(t, xr.Success, res)
	_, res = r.StringToPath(inst, "no/leading/slash")
	assert.Equal(t, xr.ErrorPathFormatInvalid, res)
	require.Len(t, msgs, 1)
	assert.Equal(t, "xrStringToPath", msgs[0].FunctionName)

	r.EmitDebug(xr.DebugMessage{Severity: xr.DebugSeverityInfo, Message: "ignored"})
	assert.Len(t, msgs, 1)
}

func TestPaths(t *testing.T) {
	r := New(fastOptions())
	inst := newInstance(t, r)
	p, res := r.StringToPath(inst, "/user/hand/left")
	require.Equal(t, xr.Success, res)
	q, _ := r.StringToPath(inst, "/user/hand/left")
	assert.Equal(t, p, q)
	s, res := r.PathToString(inst, p)
	assert.Equal(t, xr.Success, res)
	assert.Equal(t, "/user/hand/left", s)
	_, res = r.PathToString(inst, 999)
	assert.Equal(t, xr.ErrorPathInvalid, res)
}

func TestTimeConversion(t *testing.T) {
	r := New(fastOptions())
	inst := newInstance(t, r, xr.KHRConvertTimespecTime)
	now := r.Now()
	ticks, res := r.ConvertTimeToTicks(inst, now)
	require.Equal(t, xr.Success, res)
	back, res := r.ConvertTicksToTime(inst, ticks)
	require.Equal(t, xr.Success, res)
	assert.InDelta(t, float64(now), float64(back), 1e3)
	_, res = r.ConvertTicksToTime(inst, 0)
	assert.Equal(t, xr.ErrorTimeInvalid, res)
}

func running(t *testing.T, r *Runtime, exts ...string) (xr.Instance, xr.Session) {
	t.Helper()
	inst := newInstance(t, r, append(exts, xr.MNDHeadless)...)
	s := newSession(t, r, inst)
	require.Equal(t, xr.Success, r.BeginSession(s, xr.ViewConfigurationPrimaryStereo))
	return inst, s
}

func TestFramePacing(t *testing.T) {
	r := New(fastOptions())
	_, s := running(t, r)
	period := r.period()

	var last xr.Time
	for i := range 4 {
		fs, res := r.WaitFrame(s)
		require.Equal(t, xr.Success, res)
		assert.True(t, fs.ShouldRender)
		assert.Equal(t, period, fs.PredictedDisplayPeriod)
		assert.Zero(t, int64(fs.PredictedDisplayTime)%int64(period), "frame %d not on vsync grid", i)
		if last != 0 {
			assert.Greater(t, fs.PredictedDisplayTime, last)
		}
		last = fs.PredictedDisplayTime
		require.Equal(t, xr.Success, r.BeginFrame(s))
		require.Equal(t, xr.Success, r.EndFrame(s, xr.FrameEndInfo{DisplayTime: fs.PredictedDisplayTime, EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque}))
	}
	frames := r.Frames(s)
	require.Len(t, frames, 4)
	assert.Equal(t, int64(1), frames[0].ID)
	assert.True(t, frames[0].Discarded)
}

func TestFrameCallOrder(t *testing.T) {
	r := New(fastOptions())
	_, s := running(t, r)
	end := xr.FrameEndInfo{EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque}

	assert.Equal(t, xr.ErrorCallOrderInvalid, r.BeginFrame(s))
	assert.Equal(t, xr.ErrorCallOrderInvalid, r.EndFrame(s, end))

	fs, res := r.WaitFrame(s)
	require.Equal(t, xr.Success, res)
	_, res = r.WaitFrame(s)
	assert.Equal(t, xr.ErrorCallOrderInvalid, res)
	require.Equal(t, xr.Success, r.BeginFrame(s))

	_, res = r.WaitFrame(s)
	require.Equal(t, xr.Success, res)
	assert.Equal(t, xr.FrameDiscarded, r.BeginFrame(s))

	assert.Equal(t, xr.ErrorTimeInvalid, r.EndFrame(s, end))
	end.DisplayTime = fs.PredictedDisplayTime
	assert.Equal(t, xr.Success, r.EndFrame(s, end))

	assert.Equal(t, []Call{CallWait, CallBegin, CallWait, CallBegin, CallSubmit}, r.Trace(s))
	assert.Zero(t, r.Overlaps(s))
}

func newSwapchain(t *testing.T, r *Runtime, s xr.Session) xr.Swapchain {
	t.Helper()
	sc, res := r.CreateSwapchain(s, xr.SwapchainCreateInfo{
		UsageFlags: xr.SwapchainUsageColorAttachment, Format: xr.GLRGBA8,
		SampleCount: 1, Width: 64, Height: 64, FaceCount: 1, ArraySize: 1, MipCount: 1,
	})
	require.Equal(t, xr.Success, res)
	return sc
}

func TestSwapchain(t *testing.T) {
	r := New(fastOptions())
	_, s := running(t, r)

	_, res := r.CreateSwapchain(s, xr.SwapchainCreateInfo{Format: 0x1234, SampleCount: 1, Width: 8, Height: 8})
	assert.Equal(t, xr.ErrorSwapchainFormatUnsupported, res)

	sc := newSwapchain(t, r, s)
	images, res := r.EnumerateSwapchainImages(sc)
	require.Equal(t, xr.Success, res)
	assert.Len(t, images, 3)

	assert.Equal(t, xr.ErrorCallOrderInvalid, r.WaitSwapchainImage(sc, xr.InfiniteDuration))
	assert.Equal(t, xr.ErrorCallOrderInvalid, r.ReleaseSwapchainImage(sc))
	for want := range uint32(4) {
		idx, res := r.AcquireSwapchainImage(sc)
		require.Equal(t, xr.Success, res)
		assert.Equal(t, want%3, idx)
		_, res = r.AcquireSwapchainImage(sc)
		assert.Equal(t, xr.ErrorCallOrderInvalid, res)
		assert.Equal(t, xr.ErrorCallOrderInvalid, r.ReleaseSwapchainImage(sc))
		require.Equal(t, xr.Success, r.WaitSwapchainImage(sc, xr.InfiniteDuration))
		require.Equal(t, xr.Success, r.ReleaseSwapchainImage(sc))
	}

	r.FailWaits(sc, 1)
	_, res = r.AcquireSwapchainImage(sc)
	require.Equal(t, xr.Success, res)
	assert.Equal(t, xr.TimeoutExpired, r.WaitSwapchainImage(sc, xr.Duration(1e6)))
	assert.Equal(t, xr.Success, r.WaitSwapchainImage(sc, xr.Duration(1e6)))

	assert.Equal(t, xr.Success, r.DestroySwapchain(sc))
	assert.Zero(t, r.Swapchains())
}

func quad(sc xr.Swapchain) xr.CompositionLayer {
	return &xr.CompositionLayerQuad{SubImage: xr.SwapchainSubImage{Swapchain: sc}, Pose: xr.IdentityPose, Size: xr.Extent2Df{Width: 1, Height: 1}}
}

func TestEndFrameLayers(t *testing.T) {
	r := New(fastOptions())
	_, s := running(t, r)
	sc := newSwapchain(t, r, s)

	fs, res := r.WaitFrame(s)
	require.Equal(t, xr.Success, res)
	require.Equal(t, xr.Success, r.BeginFrame(s))
	end := xr.FrameEndInfo{DisplayTime: fs.PredictedDisplayTime, EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque, Layers: []xr.CompositionLayer{quad(sc)}}
	assert.Equal(t, xr.ErrorLayerInvalid, r.EndFrame(s, end))

	_, res = r.AcquireSwapchainImage(sc)
	require.Equal(t, xr.Success, res)
	require.Equal(t, xr.Success, r.WaitSwapchainImage(sc, xr.InfiniteDuration))
	require.Equal(t, xr.Success, r.ReleaseSwapchainImage(sc))
	require.Equal(t, xr.Success, r.EndFrame(s, end))

	frames := r.Frames(s)
	require.Len(t, frames, 1)
	assert.False(t, frames[0].Discarded)
	assert.Equal(t, []xr.Swapchain{sc}, frames[0].Swapchains)
	assert.Equal(t, []Call{CallWait, CallBegin, CallRelease, CallSubmit}, r.Trace(s))
}

func TestLateEndFrame(t *testing.T) {
	r := New(fastOptions())
	_, s := running(t, r)
	sc := newSwapchain(t, r, s)
	period := r.period()

	fs, res := r.WaitFrame(s)
	require.Equal(t, xr.Success, res)
	require.Equal(t, xr.Success, r.BeginFrame(s))
	_, res = r.AcquireSwapchainImage(sc)
	require.Equal(t, xr.Success, res)
	require.Equal(t, xr.Success, r.WaitSwapchainImage(sc, xr.InfiniteDuration))
	require.Equal(t, xr.Success, r.ReleaseSwapchainImage(sc))

	// render well past the predicted display time
	time.Sleep(3 * period.Std())
	call := r.Now()
	require.Greater(t, call, fs.PredictedDisplayTime)
	end := xr.FrameEndInfo{DisplayTime: fs.PredictedDisplayTime, EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque, Layers: []xr.CompositionLayer{quad(sc)}}
	require.Equal(t, xr.Success, r.EndFrame(s, end))

	frames := r.Frames(s)
	require.Len(t, frames, 1)
	f := frames[0]
	assert.Equal(t, fs.PredictedDisplayTime, f.DisplayTime)
	assert.Greater(t, f.PresentTime, call)
	assert.LessOrEqual(t, f.PresentTime, call.Add(period))
	assert.Zero(t, int64(f.PresentTime)%int64(period), "present time not on vsync grid")
}

func TestMetricsStream(t *testing.T) {
	var buf bytes.Buffer
	opts := fastOptions()
	opts.Metrics = &buf
	opts.PresentDelay = 2e6
	r := New(opts)
	_, s := running(t, r)
	sc := newSwapchain(t, r, s)

	var presents []xr.Time
	for i := range 3 {
		fs, res := r.WaitFrame(s)
		require.Equal(t, xr.Success, res)
		require.Equal(t, xr.Success, r.BeginFrame(s))
		end := xr.FrameEndInfo{DisplayTime: fs.PredictedDisplayTime, EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque}
		if i != 1 {
			_, res = r.AcquireSwapchainImage(sc)
			require.Equal(t, xr.Success, res)
			require.Equal(t, xr.Success, r.WaitSwapchainImage(sc, xr.InfiniteDuration))
			require.Equal(t, xr.Success, r.ReleaseSwapchainImage(sc))
			end.Layers = []xr.CompositionLayer{quad(sc)}
		}
		require.Equal(t, xr.Success, r.EndFrame(s, end))
		presents = append(presents, fs.PredictedDisplayTime+2e6)
	}

	c := metrics.NewCorrelator(0)
	require.NoError(t, c.Run(metrics.NewDecoder(&buf)))
	assert.Equal(t, metrics.Version{Major: 1, Minor: 1}, c.Version())
	assert.Equal(t, int64(presents[0]), c.Onset(1))
	assert.Equal(t, int64(0), c.Onset(2))
	assert.Equal(t, int64(presents[2]), c.Onset(3))
}

func TestReferenceSpaces(t *testing.T) {
	opts := fastOptions()
	opts.NoStage = true
	r := New(opts)
	_, s := running(t, r)
	types, res := r.EnumerateReferenceSpaces(s)
	require.Equal(t, xr.Success, res)
	assert.NotContains(t, types, xr.ReferenceSpaceStage)
	_, res = r.CreateReferenceSpace(s, xr.ReferenceSpaceStage, xr.IdentityPose)
	assert.Equal(t, xr.ErrorReferenceSpaceUnsupported, res)
	_, res = r.GetReferenceSpaceBoundsRect(s, xr.ReferenceSpaceStage)
	assert.Equal(t, xr.SpaceBoundsUnavailable, res)
}

func TestLocateViews(t *testing.T) {
	r := New(fastOptions())
	_, s := running(t, r)
	local, res := r.CreateReferenceSpace(s, xr.ReferenceSpaceLocal, xr.IdentityPose)
	require.Equal(t, xr.Success, res)
	view, res := r.CreateReferenceSpace(s, xr.ReferenceSpaceView, xr.IdentityPose)
	require.Equal(t, xr.Success, res)

	head := xr.Posef{Orientation: xr.IdentityQuaternion, Position: xr.Vector3f{X: 0.5, Y: 1.5, Z: -1}}
	r.SetHeadPose(head)
	loc, res := r.LocateSpace(view, local, r.Now())
	require.Equal(t, xr.Success, res)
	assert.Equal(t, head.Position, loc.Pose.Position)
	assert.NotZero(t, loc.Flags&xr.SpaceLocationPositionTracked)

	st, views, res := r.LocateViews(s, xr.ViewLocateInfo{ViewConfigurationType: xr.ViewConfigurationPrimaryStereo, DisplayTime: r.Now(), Space: view})
	require.Equal(t, xr.Success, res)
	assert.NotZero(t, st.Flags&xr.ViewStatePositionValid)
	require.Len(t, views, 2)
	assert.InDelta(t, -0.032, views[0].Pose.Position.X, 1e-6)
	assert.InDelta(t, 0.032, views[1].Pose.Position.X, 1e-6)
	assert.Equal(t, views[0].Fov, views[1].Fov)
}

func TestActions(t *testing.T) {
	r := New(fastOptions())
	inst, s := running(t, r)
	left, _ := r.StringToPath(inst, "/user/hand/left")
	right, _ := r.StringToPath(inst, "/user/hand/right")

	set, res := r.CreateActionSet(inst, "set", "Set", 0)
	require.Equal(t, xr.Success, res)
	_, res = r.CreateActionSet(inst, "set", "Set", 0)
	assert.Equal(t, xr.ErrorNameDuplicated, res)

	trigger, res := r.CreateAction(set, xr.ActionCreateInfo{Name: "trigger", LocalizedName: "Trigger", Type: xr.ActionTypeFloatInput, SubactionPaths: []xr.Path{left, right}})
	require.Equal(t, xr.Success, res)
	button, res := r.CreateAction(set, xr.ActionCreateInfo{Name: "button", LocalizedName: "Button", Type: xr.ActionTypeBooleanInput, SubactionPaths: []xr.Path{left, right}})
	require.Equal(t, xr.Success, res)
	haptic, res := r.CreateAction(set, xr.ActionCreateInfo{Name: "haptic", LocalizedName: "Haptic", Type: xr.ActionTypeVibrationOutput, SubactionPaths: []xr.Path{left, right}})
	require.Equal(t, xr.Success, res)

	profile, _ := r.StringToPath(inst, "/interaction_profiles/oculus/touch_controller")
	lt, _ := r.StringToPath(inst, "/user/hand/left/input/trigger/value")
	ax, _ := r.StringToPath(inst, "/user/hand/right/input/a/click")
	vib, _ := r.StringToPath(inst, "/user/hand/left/output/haptic")
	require.Equal(t, xr.Success, r.SuggestInteractionProfileBindings(inst, profile, []xr.ActionSuggestedBinding{
		{Action: trigger, Binding: lt}, {Action: button, Binding: ax}, {Action: haptic, Binding: vib},
	}))

	_, res = r.GetActionStateFloat(s, trigger, left)
	assert.Equal(t, xr.ErrorActionsetNotAttached, res)
	require.Equal(t, xr.Success, r.AttachSessionActionSets(s, []xr.ActionSet{set}))
	_, res = r.CreateAction(set, xr.ActionCreateInfo{Name: "late", LocalizedName: "Late", Type: xr.ActionTypeBooleanInput})
	assert.Equal(t, xr.ErrorActionsetsAlreadyAttached, res)

	cur, res := r.GetCurrentInteractionProfile(s, left)
	require.Equal(t, xr.Success, res)
	assert.Equal(t, profile, cur)

	r.SetFloat("/user/hand/left/input/trigger/value", 0.75)
	r.SetBoolean("/user/hand/right/input/a/click", true)
	require.Equal(t, xr.Success, r.SyncActions(s, []xr.ActionSet{set}))

	fst, res := r.GetActionStateFloat(s, trigger, left)
	require.Equal(t, xr.Success, res)
	assert.True(t, fst.IsActive)
	assert.Equal(t, float32(0.75), fst.CurrentState)
	assert.NotZero(t, fst.LastChangeTime)

	fst, _ = r.GetActionStateFloat(s, trigger, right)
	assert.False(t, fst.IsActive)

	bst, res := r.GetActionStateBoolean(s, button, xr.NullPath)
	require.Equal(t, xr.Success, res)
	assert.True(t, bst.IsActive)
	assert.True(t, bst.CurrentState)

	_, res = r.GetActionStateBoolean(s, trigger, left)
	assert.Equal(t, xr.ErrorActionTypeMismatch, res)

	r.SetFloat("/user/hand/left/input/trigger/value", 0.25)
	require.Equal(t, xr.Success, r.SyncActions(s, []xr.ActionSet{set}))
	fst, _ = r.GetActionStateFloat(s, trigger, left)
	assert.True(t, fst.ChangedSinceLastSync)
	require.Equal(t, xr.Success, r.SyncActions(s, []xr.ActionSet{set}))
	fst, _ = r.GetActionStateFloat(s, trigger, left)
	assert.False(t, fst.ChangedSinceLastSync)

	require.Equal(t, xr.Success, r.ApplyHapticFeedback(s, haptic, left, xr.HapticVibration{Duration: 1e8, Amplitude: 0.5}))
	require.Equal(t, xr.Success, r.StopHapticFeedback(s, haptic, left))
	assert.Equal(t, xr.ErrorActionTypeMismatch, r.ApplyHapticFeedback(s, trigger, left, xr.HapticVibration{}))
	hs := r.Haptics()
	require.Len(t, hs, 2)
	assert.Equal(t, "/user/hand/left", hs[0].Path)
	assert.Equal(t, float32(0.5), hs[0].Vibration.Amplitude)
	assert.True(t, hs[1].Stop)

	r.SetSessionState(s, xr.SessionStateVisible)
	assert.Equal(t, xr.SessionNotFocused, r.SyncActions(s, []xr.ActionSet{set}))
	fst, _ = r.GetActionStateFloat(s, trigger, left)
	assert.False(t, fst.IsActive)
}
