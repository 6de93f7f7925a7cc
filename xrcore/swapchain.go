// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// imageWaitTimeout bounds the wait for an acquired swapchain image.
const imageWaitTimeout = time.Second

// swapchain is the image queue of one eye.
type swapchain struct {
	handle  xr.Swapchain
	width   int
	height  int
	format  int64
	samples int
	images  []uint32

	// acquired is the index of the image owned by the host,
	// or -1. waited is set once that image may be rendered into.
	// held is set once the image was handed to the caller.
	acquired int
	waited   bool
	held     bool
}

// current returns the texture of the acquired image.
func (sc *swapchain) current() uint32 { return sc.images[sc.acquired] }

func (sc *swapchain) subImage() xr.SwapchainSubImage {
	return xr.SwapchainSubImage{
		Swapchain: sc.handle,
		ImageRect: xr.Rect2Di{Extent: xr.Extent2Di{Width: int32(sc.width), Height: int32(sc.height)}},
	}
}

// chooseFormat picks the swapchain format from the formats the
// runtime supports: float formats when requested, then 16 bit
// linear, the preferred format, sRGB and finally plain 8 bit.
// If none of these is supported, the first runtime format is used.
func chooseFormat(supported []int64, float bool, preferred int64) int64 {
	var order []int64
	if float {
		order = append(order, xr.GLRGBA32F, xr.GLRGBA16F, xr.GLRGB16F)
	} else {
		order = append(order, xr.GLRGBA16)
	}
	if preferred != 0 {
		order = append(order, preferred)
	}
	order = append(order, xr.GLSRGB8Alpha8, xr.GLRGBA8)
	for _, f := range order {
		if slices.Contains(supported, f) {
			return f
		}
	}
	if len(supported) == 0 {
		return 0
	}
	return supported[0]
}

// checkEye returns an error if eye is not 0 or 1.
func checkEye(eye int) error {
	if eye < 0 || eye > 1 {
		return fmt.Errorf("%w: %d", ErrInvalidEye, eye)
	}
	return nil
}

// GetFovTextureSize returns the recommended and maximum render
// target size and sample count of an eye.
func (d *Driver) GetFovTextureSize(handle, eye int) (recW, recH, recMSAA, maxMSAA, maxW, maxH int, err error) {
	dev, err := d.device(handle)
	if err != nil {
		return
	}
	if err = checkEye(eye); err != nil {
		return
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if len(dev.viewConf) == 0 {
		err = fmt.Errorf("%w: no view configuration", ErrInvalidArgument)
		return
	}
	v := dev.viewConf[min(eye, len(dev.viewConf)-1)]
	return int(v.RecommendedImageRectWidth), int(v.RecommendedImageRectHeight),
		int(v.RecommendedSwapchainSampleCount), int(v.MaxSwapchainSampleCount),
		int(v.MaxImageRectWidth), int(v.MaxImageRectHeight), nil
}

// CreateRenderTextureChain creates the swapchain of an eye with the
// given size and sample count, floatFormat requesting a floating point
// format. The left eye (0) must be created first; creating the right
// eye (1) with the same size switches the device to stereo. It returns
// the size, the number of images and the chosen OpenGL format.
func (d *Driver) CreateRenderTextureChain(handle, eye, width, height int, floatFormat bool, msaa int) (w, h, numImages int, format int64, err error) {
	dev, err := d.device(handle)
	if err != nil {
		return
	}
	if err = checkEye(eye); err != nil {
		return
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	sc, err := dev.createChain(eye, width, height, floatFormat, msaa)
	if err != nil {
		return
	}
	return sc.width, sc.height, len(sc.images), sc.format, nil
}

// createChain validates and creates the swapchain of an eye and
// rebuilds the composition layers. It must be called with dev.mu held.
func (dev *Device) createChain(eye, width, height int, float bool, msaa int) (*swapchain, error) {
	rt := dev.drv.rt
	switch {
	case dev.session == 0:
		return nil, ErrNoSession
	case dev.chains[eye] != nil:
		return nil, fmt.Errorf("%w: eye %d", ErrChainExists, eye)
	case eye == 1 && dev.chains[0] == nil:
		return nil, ErrLeftEyeFirst
	case eye == 1 && (dev.chains[0].width != width || dev.chains[0].height != height):
		return nil, fmt.Errorf("%w: %dx%d instead of %dx%d", ErrEyeMismatch, width, height, dev.chains[0].width, dev.chains[0].height)
	}
	if len(dev.viewConf) == 0 {
		return nil, fmt.Errorf("%w: no view configuration", ErrInvalidArgument)
	}
	v := dev.viewConf[min(eye, len(dev.viewConf)-1)]
	maxW := min(int(v.MaxImageRectWidth), int(dev.system.MaxSwapchainImageWidth))
	maxH := min(int(v.MaxImageRectHeight), int(dev.system.MaxSwapchainImageHeight))
	if width <= 0 || height <= 0 || width > maxW || height > maxH {
		return nil, fmt.Errorf("%w: size %dx%d outside 1x1 to %dx%d", ErrInvalidArgument, width, height, maxW, maxH)
	}
	if msaa < 1 || msaa > int(v.MaxSwapchainSampleCount) {
		return nil, fmt.Errorf("%w: %d samples outside 1 to %d", ErrInvalidArgument, msaa, v.MaxSwapchainSampleCount)
	}

	formats, res := rt.EnumerateSwapchainFormats(dev.session)
	if res.Failed() {
		return nil, res.Err("xrEnumerateSwapchainFormats")
	}
	format := chooseFormat(formats, float, 0)
	usage := xr.SwapchainUsageColorAttachment | xr.SwapchainUsageSampled
	if len(dev.copyTex) > 0 {
		usage |= xr.SwapchainUsageTransferDst
	}
	h, res := rt.CreateSwapchain(dev.session, xr.SwapchainCreateInfo{
		UsageFlags:  usage,
		Format:      format,
		SampleCount: uint32(msaa),
		Width:       uint32(width),
		Height:      uint32(height),
		FaceCount:   1,
		ArraySize:   1,
		MipCount:    1,
	})
	if res.Failed() {
		return nil, fmt.Errorf("eye %d: %w", eye, res.Err("xrCreateSwapchain"))
	}
	images, res := rt.EnumerateSwapchainImages(h)
	if res.Failed() {
		rt.DestroySwapchain(h)
		return nil, res.Err("xrEnumerateSwapchainImages")
	}
	sc := &swapchain{handle: h, width: width, height: height, format: format, samples: msaa, images: images, acquired: -1}
	dev.chains[eye] = sc
	dev.stereo = dev.chains[0] != nil && dev.chains[1] != nil
	dev.buildLayers()
	slog.Info("swapchain created", "handle", dev.handle, "eye", eye, "width", width, "height", height,
		"format", xr.GLFormatName(format), "images", len(images), "stereo", dev.stereo)
	return sc, nil
}

// quadDistance is the distance in meters of the head locked quads.
const quadDistance = 0.5

// buildLayers rebuilds the quad and projection layers from the
// current swapchains. It must be called with dev.mu held.
func (dev *Device) buildLayers() {
	for eye, sc := range dev.chains {
		if sc == nil {
			continue
		}
		vis := xr.EyeVisibilityBoth
		if dev.stereo {
			vis = xr.EyeVisibility(eye + 1)
		}
		dev.quads[eye] = xr.CompositionLayerQuad{
			Space:         dev.viewSpace,
			EyeVisibility: vis,
			SubImage:      sc.subImage(),
			Pose:          xr.Posef{Orientation: xr.IdentityQuaternion, Position: xr.Vector3f{Z: -quadDistance}},
			Size:          xr.Extent2Df{Width: 1, Height: 1},
		}
	}
	n := dev.viewType.ViewCount()
	views := make([]xr.CompositionLayerProjectionView, n)
	for i := range views {
		sc := dev.chains[0]
		if i < len(dev.chains) && dev.chains[i] != nil {
			sc = dev.chains[i]
		}
		if sc == nil {
			continue
		}
		views[i] = xr.CompositionLayerProjectionView{Pose: xr.IdentityPose, SubImage: sc.subImage()}
	}
	dev.proj = xr.CompositionLayerProjection{Space: dev.worldSpace, Views: views}
}

// layers returns the layers to submit for the current frame.
// It must be called with dev.mu held.
func (dev *Device) layers() []xr.CompositionLayer {
	if dev.use3D {
		for i := range dev.proj.Views {
			if i < len(dev.views) {
				dev.proj.Views[i].Pose = dev.views[i].Pose
				dev.proj.Views[i].Fov = dev.views[i].Fov
			}
		}
		return []xr.CompositionLayer{&dev.proj}
	}
	var ls []xr.CompositionLayer
	for eye, sc := range dev.chains {
		if sc != nil {
			ls = append(ls, &dev.quads[eye])
		}
	}
	return ls
}

// acquire acquires the next image of an eye and waits until it
// may be rendered into. A timed out wait is resumed by the next
// call. It must be called with dev.mu held.
func (dev *Device) acquire(eye int) (uint32, error) {
	rt := dev.drv.rt
	sc := dev.chains[eye]
	if sc == nil {
		return 0, fmt.Errorf("%w: no swapchain for eye %d", ErrInvalidEye, eye)
	}
	if sc.acquired >= 0 && sc.waited {
		return 0, fmt.Errorf("%w: eye %d", ErrAlreadyAcquired, eye)
	}
	if sc.acquired < 0 {
		idx, res := rt.AcquireSwapchainImage(sc.handle)
		if res.Failed() {
			return 0, fmt.Errorf("eye %d: %w", eye, res.Err("xrAcquireSwapchainImage"))
		}
		sc.acquired = int(idx)
		sc.waited = false
	}
	res := rt.WaitSwapchainImage(sc.handle, xr.Duration(imageWaitTimeout))
	if res.Failed() {
		return 0, fmt.Errorf("eye %d: %w", eye, res.Err("xrWaitSwapchainImage"))
	}
	if res == xr.TimeoutExpired {
		return 0, errImageTimeout
	}
	sc.waited = true
	return sc.current(), nil
}

// acquireAll acquires images for all eyes that have none.
// It must be called with dev.mu held.
func (dev *Device) acquireAll() error {
	for eye, sc := range dev.chains {
		if sc == nil || (sc.acquired >= 0 && sc.waited) {
			continue
		}
		if _, err := dev.acquire(eye); err != nil {
			return err
		}
	}
	return nil
}

// release releases the acquired image of an eye.
// It must be called with dev.mu held.
func (dev *Device) release(eye int) error {
	sc := dev.chains[eye]
	if sc == nil {
		return fmt.Errorf("%w: no swapchain for eye %d", ErrInvalidEye, eye)
	}
	if sc.acquired < 0 || !sc.waited {
		return fmt.Errorf("%w: eye %d", ErrNotAcquired, eye)
	}
	if res := dev.drv.rt.ReleaseSwapchainImage(sc.handle); res.Failed() {
		return fmt.Errorf("eye %d: %w", eye, res.Err("xrReleaseSwapchainImage"))
	}
	sc.acquired = -1
	sc.waited = false
	sc.held = false
	dev.released++
	return nil
}

// releaseAll releases the acquired images of all eyes, skipping
// eyes without one, and returns how many were released.
// It must be called with dev.mu held.
func (dev *Device) releaseAll() (int, error) {
	n := 0
	for eye, sc := range dev.chains {
		if sc == nil || sc.acquired < 0 || !sc.waited {
			continue
		}
		if err := dev.release(eye); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// copyTextures copies the copy workaround textures into the acquired
// images. It must be called with dev.mu held.
func (dev *Device) copyTextures() error {
	cp, ok := dev.binding.(platform.TextureCopier)
	if !ok || len(dev.copyTex) == 0 {
		return nil
	}
	for eye, sc := range dev.chains {
		if sc == nil || sc.acquired < 0 || !sc.waited {
			continue
		}
		src := dev.copyTex[min(eye, len(dev.copyTex)-1)]
		if err := cp.CopyTexture(src, sc.current(), sc.width, sc.height); err != nil {
			return fmt.Errorf("eye %d: copy texture: %w", eye, err)
		}
	}
	return nil
}

// GetNextTextureHandle returns the texture to render the next frame
// of an eye into, acquiring a swapchain image if the eye has none.
// In copy workaround mode it returns the workaround texture instead.
// It returns -1 if no image became available in time.
func (d *Driver) GetNextTextureHandle(handle, eye int) (int64, error) {
	dev, err := d.device(handle)
	if err != nil {
		return -1, err
	}
	if err := checkEye(eye); err != nil {
		return -1, err
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.session == 0 {
		return -1, ErrNoSession
	}
	sc := dev.chains[eye]
	if sc == nil {
		return -1, fmt.Errorf("%w: no swapchain for eye %d", ErrInvalidEye, eye)
	}
	tex := uint32(0)
	if sc.acquired >= 0 && sc.waited {
		// the presenter hands out the images it acquired; a caller
		// driving the frame loop must release before acquiring again
		if sc.held && !dev.presenterRunning() {
			return -1, fmt.Errorf("%w: eye %d", ErrAlreadyAcquired, eye)
		}
		tex = sc.current()
	} else {
		tex, err = dev.acquire(eye)
		if errors.Is(err, errImageTimeout) {
			slog.Warn("swapchain image not available in time", "handle", handle, "eye", eye)
			return -1, nil
		}
		if err != nil {
			return -1, err
		}
	}
	sc.held = true
	if len(dev.copyTex) > 0 {
		return int64(dev.copyTex[min(eye, len(dev.copyTex)-1)]), nil
	}
	return int64(tex), nil
}

// EndFrameRender marks the end of rendering into the current image
// of an eye, or of all eyes for a negative eye. In single-threaded
// mode it releases the images; the presenter releases them itself.
func (d *Driver) EndFrameRender(handle, eye int) error {
	dev, err := d.device(handle)
	if err != nil {
		return err
	}
	if eye >= 0 {
		if err := checkEye(eye); err != nil {
			return err
		}
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.session == 0 {
		return ErrNoSession
	}
	if eye >= 0 && dev.chains[eye] == nil {
		return fmt.Errorf("%w: no swapchain for eye %d", ErrInvalidEye, eye)
	}
	if dev.presenterRunning() {
		return nil
	}
	if eye >= 0 {
		return dev.release(eye)
	}
	n, err := dev.releaseAll()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotAcquired
	}
	return nil
}
