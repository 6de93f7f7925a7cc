// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// defaultFrameDuration is used when the runtime can not report
// its display refresh rate.
const defaultFrameDuration = 1.0 / 90

// Device is one open XR device and its session.
type Device struct {
	drv    *Driver
	tb     *timebase
	handle int
	gen    uint32
	system xr.SystemProperties

	// frameMu is held by whichever goroutine drives the frame loop,
	// so that frame timing calls are never issued concurrently.
	// It is acquired before mu.
	frameMu sync.Mutex

	// mu guards all fields below, which are shared with the presenter.
	mu   sync.Mutex
	cond *sync.Cond

	viewType xr.ViewConfigurationType
	refType  xr.ReferenceSpaceType
	viewConf []xr.ViewConfigurationView

	binding       platform.GraphicsBinding
	session       xr.Session
	state         xr.SessionState
	sessionActive bool
	needFrameLoop bool
	lossPending   bool
	userExit      bool
	use3D         bool
	multiThreaded bool

	// tracking is set while the host has taken exclusive control
	// of the frame loop with [Driver.Start].
	tracking bool

	// copyTex are the host textures of the copy workaround.
	copyTex []uint32

	worldSpace xr.Space
	viewSpace  xr.Space
	aimSpace   [2]xr.Space
	gripSpace  [2]xr.Space
	gazeSpace  xr.Space
	originPose xr.Posef

	chains [2]*swapchain
	stereo bool
	quads  [2]xr.CompositionLayerQuad
	proj   xr.CompositionLayerProjection
	views  []xr.View

	frameDuration float64
	frameState    xr.FrameState
	begun         bool
	waitCount     int64
	begunFrame    int64
	submitted     int64

	// lastDisplay is the display time of the last submitted frame.
	lastDisplay xr.Time

	// released counts the images released since the last submit.
	released int

	mbox      mailbox
	presenter *presenter
}

// device returns the live device with the given handle,
// initializing the driver first if needed.
func (d *Driver) device(handle int) (*Device, error) {
	if err := d.CheckInit(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.devices.get(handle)
}

// Open opens the device with the given 0-based index and returns
// its handle, model name, the name of the runtime and the level of
// eye tracking support, which is 1 for eye gaze and 0 for none.
func (d *Driver) Open(deviceIndex int) (handle int, model, runtimeName string, eyeTracking int, err error) {
	if err := d.CheckInit(); err != nil {
		return 0, "", "", 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if deviceIndex < 0 || deviceIndex >= len(d.systems) {
		return 0, "", "", 0, fmt.Errorf("%w: device index %d of %d devices", ErrInvalidArgument, deviceIndex, len(d.systems))
	}
	sys := d.systems[deviceIndex]
	viewType := xr.ViewConfigurationPrimaryStereo
	if d.cfg.ViewType == 0 {
		viewType = xr.ViewConfigurationPrimaryMono
	}
	refType, err := referenceSpaceFromHost(d.cfg.ReferenceSpace)
	if err != nil {
		return 0, "", "", 0, err
	}
	views, res := d.rt.EnumerateViewConfigurationViews(d.inst, sys.SystemID, viewType)
	if res.Failed() {
		return 0, "", "", 0, res.Err("xrEnumerateViewConfigurationViews")
	}
	dev := &Device{
		drv:      d,
		tb:       d.tb,
		system:   sys,
		viewType: viewType,
		refType:  refType,
		viewConf: views,
		state:    xr.SessionStateUnknown,
		mbox:     mailboxEmpty{},

		frameDuration: defaultFrameDuration,
		originPose:    xr.IdentityPose,
	}
	dev.cond = sync.NewCond(&dev.mu)
	if _, err := d.devices.add(dev); err != nil {
		return 0, "", "", 0, err
	}
	if sys.EyeGazeInteraction && d.enabled[xr.EXTEyeGazeInteraction] {
		eyeTracking = 1
	}
	slog.Info("opened XR device", "handle", dev.handle, "model", sys.SystemName, "runtime", d.props.RuntimeName)
	return dev.handle, sys.SystemName, d.props.RuntimeName, eyeTracking, nil
}

// Close closes the device with the given handle. Handle 0 closes
// all devices and shuts the driver down, as does closing the last
// open device.
func (d *Driver) Close(handle int) error {
	if handle == 0 {
		return d.Shutdown()
	}
	dev, err := d.device(handle)
	if err != nil {
		return err
	}
	err = d.closeDevice(dev)
	d.mu.Lock()
	last := d.devices.count() == 0
	d.mu.Unlock()
	if last {
		return errors.Join(err, d.Shutdown())
	}
	return err
}

// closeDevice stops the presenter, submits a last frame, and
// destroys the swapchains, spaces and session of dev, in that order.
func (d *Driver) closeDevice(dev *Device) error {
	dev.stopPresenter()

	dev.frameMu.Lock()
	defer dev.frameMu.Unlock()
	dev.mu.Lock()
	defer dev.mu.Unlock()
	var errs []error
	if dev.session != 0 && dev.sessionActive && dev.needFrameLoop {
		if _, _, err := dev.submit(0); err != nil {
			errs = append(errs, err)
		}
	}
	for eye, sc := range dev.chains {
		if sc == nil {
			continue
		}
		if res := d.rt.DestroySwapchain(sc.handle); res.Failed() {
			errs = append(errs, res.Err("xrDestroySwapchain"))
		}
		dev.chains[eye] = nil
	}
	dev.stereo = false
	if dev.session != 0 {
		dev.destroySpaces()
		if res := d.rt.DestroySession(dev.session); res.Failed() {
			errs = append(errs, res.Err("xrDestroySession"))
		}
		dev.session = 0
	}
	dev.sessionActive = false
	dev.needFrameLoop = false
	dev.begun = false

	d.mu.Lock()
	d.devices.remove(dev)
	d.mu.Unlock()
	slog.Debug("closed XR device", "handle", dev.handle)
	return errors.Join(errs...)
}

// destroySpaces destroys all spaces of the session.
// It must be called with dev.mu held.
func (dev *Device) destroySpaces() {
	rt := dev.drv.rt
	for _, sp := range []*xr.Space{&dev.worldSpace, &dev.viewSpace, &dev.aimSpace[0], &dev.aimSpace[1], &dev.gripSpace[0], &dev.gripSpace[1], &dev.gazeSpace} {
		if *sp != 0 {
			rt.DestroySpace(*sp)
			*sp = 0
		}
	}
}

// referenceSpaceFromHost maps the reference space numbers of the
// host api (0 view, 1 local, 2 stage) to runtime types.
func referenceSpaceFromHost(t int) (xr.ReferenceSpaceType, error) {
	if t < 0 || t > 2 {
		return 0, fmt.Errorf("%w: reference space type %d", ErrInvalidArgument, t)
	}
	return xr.ReferenceSpaceType(t + 1), nil
}
