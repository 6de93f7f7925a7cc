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

func (r *Runtime) EnumerateSwapchainFormats(s xr.Session) ([]int64, xr.Result) {
	h := C.gxSession(C.uint64_t(s))
	var n C.uint32_t
	if res := result(C.xrEnumerateSwapchainFormats(h, 0, &n, nil)); res.Failed() || n == 0 {
		return nil, res
	}
	formats := make([]C.int64_t, n)
	if res := result(C.xrEnumerateSwapchainFormats(h, n, &n, &formats[0])); res.Failed() {
		return nil, res
	}
	out := make([]int64, n)
	for i, f := range formats[:n] {
		out[i] = int64(f)
	}
	return out, xr.Success
}

func (r *Runtime) CreateSwapchain(s xr.Session, info xr.SwapchainCreateInfo) (xr.Swapchain, xr.Result) {
	ci := C.XrSwapchainCreateInfo{
		_type:       C.XR_TYPE_SWAPCHAIN_CREATE_INFO,
		usageFlags:  C.XrSwapchainUsageFlags(info.UsageFlags),
		format:      C.int64_t(info.Format),
		sampleCount: C.uint32_t(info.SampleCount),
		width:       C.uint32_t(info.Width),
		height:      C.uint32_t(info.Height),
		faceCount:   C.uint32_t(info.FaceCount),
		arraySize:   C.uint32_t(info.ArraySize),
		mipCount:    C.uint32_t(info.MipCount),
	}
	var sc C.XrSwapchain
	res := result(C.xrCreateSwapchain(C.gxSession(C.uint64_t(s)), &ci, &sc))
	return xr.Swapchain(C.gxSwapchainID(sc)), res
}

func (r *Runtime) DestroySwapchain(sc xr.Swapchain) xr.Result {
	return result(C.xrDestroySwapchain(C.gxSwapchain(C.uint64_t(sc))))
}

func (r *Runtime) EnumerateSwapchainImages(sc xr.Swapchain) ([]uint32, xr.Result) {
	h := C.gxSwapchain(C.uint64_t(sc))
	var n C.uint32_t
	if res := result(C.xrEnumerateSwapchainImages(h, 0, &n, nil)); res.Failed() || n == 0 {
		return nil, res
	}
	images := make([]C.XrSwapchainImageOpenGLKHR, n)
	for i := range images {
		images[i]._type = C.XR_TYPE_SWAPCHAIN_IMAGE_OPENGL_KHR
	}
	base := (*C.XrSwapchainImageBaseHeader)(unsafe.Pointer(&images[0]))
	if res := result(C.xrEnumerateSwapchainImages(h, n, &n, base)); res.Failed() {
		return nil, res
	}
	out := make([]uint32, n)
	for i, img := range images[:n] {
		out[i] = uint32(img.image)
	}
	return out, xr.Success
}

func (r *Runtime) AcquireSwapchainImage(sc xr.Swapchain) (uint32, xr.Result) {
	info := C.XrSwapchainImageAcquireInfo{_type: C.XR_TYPE_SWAPCHAIN_IMAGE_ACQUIRE_INFO}
	var idx C.uint32_t
	res := result(C.xrAcquireSwapchainImage(C.gxSwapchain(C.uint64_t(sc)), &info, &idx))
	return uint32(idx), res
}

func (r *Runtime) WaitSwapchainImage(sc xr.Swapchain, timeout xr.Duration) xr.Result {
	info := C.XrSwapchainImageWaitInfo{_type: C.XR_TYPE_SWAPCHAIN_IMAGE_WAIT_INFO, timeout: C.XrDuration(timeout)}
	return result(C.xrWaitSwapchainImage(C.gxSwapchain(C.uint64_t(sc)), &info))
}

func (r *Runtime) ReleaseSwapchainImage(sc xr.Swapchain) xr.Result {
	info := C.XrSwapchainImageReleaseInfo{_type: C.XR_TYPE_SWAPCHAIN_IMAGE_RELEASE_INFO}
	return result(C.xrReleaseSwapchainImage(C.gxSwapchain(C.uint64_t(sc)), &info))
}

func (r *Runtime) WaitFrame(s xr.Session) (xr.FrameState, xr.Result) {
	info := C.XrFrameWaitInfo{_type: C.XR_TYPE_FRAME_WAIT_INFO}
	state := C.XrFrameState{_type: C.XR_TYPE_FRAME_STATE}
	res := result(C.xrWaitFrame(C.gxSession(C.uint64_t(s)), &info, &state))
	return xr.FrameState{
		PredictedDisplayTime:   xr.Time(state.predictedDisplayTime),
		PredictedDisplayPeriod: xr.Duration(state.predictedDisplayPeriod),
		ShouldRender:           toBool(state.shouldRender),
	}, res
}

func (r *Runtime) BeginFrame(s xr.Session) xr.Result {
	info := C.XrFrameBeginInfo{_type: C.XR_TYPE_FRAME_BEGIN_INFO}
	return result(C.xrBeginFrame(C.gxSession(C.uint64_t(s)), &info))
}

func (r *Runtime) EndFrame(s xr.Session, info xr.FrameEndInfo) xr.Result {
	var a arena
	defer a.free()
	ei := (*C.XrFrameEndInfo)(a.alloc(1, int(C.sizeof_XrFrameEndInfo)))
	ei._type = C.XR_TYPE_FRAME_END_INFO
	ei.displayTime = C.XrTime(info.DisplayTime)
	ei.environmentBlendMode = C.XrEnvironmentBlendMode(info.EnvironmentBlendMode)
	ei.layerCount = C.uint32_t(len(info.Layers))
	ei.layers = a.layers(info.Layers)
	return result(C.xrEndFrame(C.gxSession(C.uint64_t(s)), ei))
}
