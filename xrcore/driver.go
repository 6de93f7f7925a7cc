// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xrcore is an OpenXR device driver for timing critical
// visual stimulation. It brings up the runtime, opens XR devices,
// drives their sessions through the runtime event queue, manages
// the swapchains the host renders into, and presents frames at
// requested target times, optionally from a dedicated presenter
// goroutine, reporting the best available estimate of the visual
// onset of each frame.
//
// All entry points are methods on [Driver], addressing devices by
// small integer handles.
package xrcore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/logx"
	"github.com/kleinerm/Psychtoolbox-3-sub009/config"
	"github.com/kleinerm/Psychtoolbox-3-sub009/input"
	"github.com/kleinerm/Psychtoolbox-3-sub009/metrics"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// Options configures a [Driver]. All fields are optional.
type Options struct {

	// Config is the driver configuration. Nil uses [config.Default].
	Config *config.Config

	// Hooks receives notifications for the host. Nil uses [LogHooks].
	Hooks HostHooks

	// Clock is the host clock. Nil uses [platform.NewTimeBridge].
	Clock platform.TimeBridge

	// Exit ends the process from [Driver.Exit]. Nil uses [os.Exit].
	Exit func(code int)

	// OpenMetrics opens the compositor metrics stream. Nil opens
	// Config.MetricsPipe with [metrics.OpenPipe] if it is set.
	OpenMetrics func(ctx context.Context) (io.ReadCloser, error)
}

// Driver is the OpenXR driver for one runtime.
type Driver struct {
	rt          xr.Runtime
	cfg         *config.Config
	hooks       HostHooks
	clock       platform.TimeBridge
	exit        func(int)
	openMetrics func(ctx context.Context) (io.ReadCloser, error)

	verbosity atomic.Int32

	// evMu serializes event processing.
	evMu sync.Mutex

	// mu guards the fields below.
	mu          sync.Mutex
	initialized bool
	inst        xr.Instance
	props       xr.InstanceProperties
	quirks      Quirks
	enabled     map[string]bool
	messenger   xr.DebugMessenger
	systems     []xr.SystemProperties
	input       *input.Registry
	tb          *timebase
	correlator  *metrics.Correlator
	metricsSrc  io.Closer
	devices     registry

	// teardownSkipped is set when the instance was left alive
	// because of [ShutdownHang].
	teardownSkipped bool
}

// New returns a new [Driver] for the given runtime. It does not
// call into the runtime; that happens on first use.
func New(rt xr.Runtime, opts Options) *Driver {
	d := &Driver{
		rt:          rt,
		cfg:         opts.Config,
		hooks:       opts.Hooks,
		clock:       opts.Clock,
		exit:        opts.Exit,
		openMetrics: opts.OpenMetrics,
	}
	if d.cfg == nil {
		d.cfg = config.Default()
	}
	if d.hooks == nil {
		d.hooks = LogHooks{}
	}
	if d.clock == nil {
		d.clock = platform.NewTimeBridge()
	}
	if d.exit == nil {
		d.exit = os.Exit
	}
	if d.openMetrics == nil && d.cfg.MetricsPipe != "" {
		d.openMetrics = func(ctx context.Context) (io.ReadCloser, error) {
			return metrics.OpenPipe(ctx, d.cfg.MetricsPipe, d.cfg.MetricsWaitForPipe.D())
		}
	}
	d.verbosity.Store(int32(d.cfg.Verbosity))
	return d
}

// Config returns the configuration of the driver.
func (d *Driver) Config() *config.Config { return d.cfg }

// Now returns the current host time in seconds.
func (d *Driver) Now() float64 { return d.clock.Now() }

// Verbosity sets the verbosity of diagnostic output and returns the
// previous one. A negative verbosity leaves it unchanged.
func (d *Driver) Verbosity(verbosity int) int {
	old := int(d.verbosity.Load())
	if verbosity >= 0 {
		d.verbosity.Store(int32(verbosity))
		logx.SetVerbosity(verbosity)
	}
	return old
}

// CheckInit initializes the driver if it is not initialized yet.
// Every other entry point calls it first.
func (d *Driver) CheckInit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}
	if err := d.init(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotInitialized, err)
	}
	return nil
}

func (d *Driver) init() error {
	exts, res := d.rt.EnumerateInstanceExtensionProperties()
	if res.Failed() {
		return res.Err("xrEnumerateInstanceExtensionProperties")
	}
	enable, err := selectExtensions(exts, d.clock.Extension())
	if err != nil {
		slog.Error("OpenXR runtime unusable", "err", err)
		return err
	}
	inst, res := d.rt.CreateInstance(xr.InstanceCreateInfo{
		Application: xr.ApplicationInfo{
			ApplicationName: "xrcore",
			EngineName:      "xrcore",
			APIVersion:      xr.Version{Major: 1},
		},
		Extensions: enable,
	})
	if res.Failed() {
		return res.Err("xrCreateInstance")
	}
	props, res := d.rt.GetInstanceProperties(inst)
	if res.Failed() {
		d.rt.DestroyInstance(inst)
		return res.Err("xrGetInstanceProperties")
	}
	d.inst = inst
	d.props = props
	d.quirks = DetectQuirks(props.RuntimeName, props.RuntimeVersion, runtime.GOOS)
	d.enabled = map[string]bool{}
	for _, e := range enable {
		d.enabled[e] = true
	}
	slog.Info("OpenXR runtime initialized", "runtime", props.RuntimeName, "version", props.RuntimeVersion, "quirks", d.quirks)

	d.messenger, res = d.rt.CreateDebugUtilsMessenger(inst, xr.DebugSeverityAll, d.debugMessage)
	if res.Failed() {
		slog.Warn("runtime debug messages unavailable", "err", res.Err("xrCreateDebugUtilsMessengerEXT"))
	}
	d.tb = &timebase{rt: d.rt, inst: inst, bridge: d.clock}
	d.enumerate()

	d.input = input.NewRegistry(d.rt, inst, input.DefaultProfiles())
	if err := d.input.CreateActions(); err != nil {
		d.destroyInstance(inst, d.messenger)
		d.inst, d.messenger = 0, 0
		return err
	}
	if err := d.input.SuggestAll(d.extensionEnabled); err != nil {
		slog.Warn("some interaction profiles are unavailable", "err", err)
	}
	d.startMetrics()
	d.initialized = true
	return nil
}

// debugMessage is the debug messenger callback. It forwards the
// messages that pass the verbosity filter to the hooks.
func (d *Driver) debugMessage(msg xr.DebugMessage) bool {
	v := d.verbosity.Load()
	if (msg.Severity&xr.DebugSeverityError != 0 && v > 0) ||
		(msg.Severity&xr.DebugSeverityWarning != 0 && v > 1) ||
		(msg.Severity&xr.DebugSeverityInfo != 0 && v > 4) ||
		(msg.Severity&xr.DebugSeverityVerbose != 0 && v > 9) {
		d.hooks.OnLogMessage(msg.Severity, msg.FunctionName, msg.Message)
	}
	return false
}

// extensionEnabled returns whether the extension was enabled on
// the instance. It must be called with d.mu held.
func (d *Driver) extensionEnabled(ext string) bool { return d.enabled[ext] }

// Extensions returns the enabled runtime extensions.
func (d *Driver) Extensions() ([]string, error) {
	if err := d.CheckInit(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var exts []string
	for _, e := range append(mandatoryExtensions(d.clock.Extension()), optionalExtensions...) {
		if d.enabled[e] {
			exts = append(exts, e)
		}
	}
	return exts, nil
}

// Runtime returns the name and version of the runtime, and its quirks.
func (d *Driver) Runtime() (name string, version xr.Version, quirks Quirks, err error) {
	if err := d.CheckInit(); err != nil {
		return "", xr.Version{}, 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.props.RuntimeName, d.props.RuntimeVersion, d.quirks, nil
}

// enumerate updates the list of available systems. It must be
// called with d.mu held.
func (d *Driver) enumerate() {
	d.systems = d.systems[:0]
	sys, res := d.rt.GetSystem(d.inst, xr.FormFactorHeadMountedDisplay)
	if res.Failed() {
		if res != xr.ErrorFormFactorUnavailable {
			slog.Error("device enumeration failed", "err", res.Err("xrGetSystem"))
		}
		return
	}
	props, res := d.rt.GetSystemProperties(d.inst, sys)
	if res.Failed() {
		slog.Error("device enumeration failed", "err", res.Err("xrGetSystemProperties"))
		return
	}
	slog.Debug("found XR device", "name", props.SystemName, "vendor", props.VendorID)
	d.systems = append(d.systems, props)
}

// GetCount enumerates the available devices and returns their number.
func (d *Driver) GetCount() (int, error) {
	if err := d.CheckInit(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumerate()
	return len(d.systems), nil
}

// startMetrics starts timestamp correlation on the compositor
// metrics stream if one is configured. Failures disable it.
func (d *Driver) startMetrics() {
	if d.openMetrics == nil {
		return
	}
	wait := max(d.cfg.MetricsWaitForPipe.D(), 0) + time.Second
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	src, err := d.openMetrics(ctx)
	if err != nil {
		slog.Warn("compositor metrics unavailable, using predicted onset times", "err", err)
		return
	}
	d.metricsSrc = src
	d.correlator = metrics.NewCorrelator(d.cfg.ScanoutOffset.D())
	d.correlator.Start(src)
	slog.Info("timestamp correlation with compositor metrics enabled")
}

// Shutdown closes all devices and destroys the instance. If the
// runtime is known to hang on instance destruction, the instance
// is left alive and [Driver.Exit] ends the process instead, unless
// Config.ForceCleanShutdown is set, in which case destruction is
// abandoned with an error after Config.ShutdownTimeout.
func (d *Driver) Shutdown() error {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return nil
	}
	devs := d.devices.all()
	d.mu.Unlock()

	var errs []error
	for _, dev := range devs {
		if err := d.closeDevice(dev); err != nil {
			errs = append(errs, err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.input.Destroy()
	if d.metricsSrc != nil {
		d.metricsSrc.Close()
		d.metricsSrc = nil
	}
	d.correlator = nil
	d.initialized = false
	if d.quirks.Has(ShutdownHang) && !d.cfg.ForceCleanShutdown {
		slog.Warn("runtime hangs on shutdown, skipping instance teardown", "runtime", d.props.RuntimeName)
		d.teardownSkipped = true
		return errors.Join(errs...)
	}
	inst, messenger := d.inst, d.messenger
	d.inst, d.messenger = 0, 0
	if d.cfg.ForceCleanShutdown {
		done := make(chan struct{})
		go func() {
			d.destroyInstance(inst, messenger)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(d.cfg.ShutdownTimeout.D()):
			errs = append(errs, fmt.Errorf("xrcore: instance teardown did not finish within %v, abandoned", d.cfg.ShutdownTimeout))
		}
		return errors.Join(errs...)
	}
	d.destroyInstance(inst, messenger)
	slog.Debug("OpenXR runtime shutdown complete")
	return errors.Join(errs...)
}

// destroyInstance destroys the given debug messenger and instance.
func (d *Driver) destroyInstance(inst xr.Instance, messenger xr.DebugMessenger) {
	if messenger != 0 {
		d.rt.DestroyDebugUtilsMessenger(messenger)
	}
	if res := d.rt.DestroyInstance(inst); res.Failed() {
		slog.Error("instance teardown failed", "err", res.Err("xrDestroyInstance"))
	}
}

// Exit shuts the driver down at process exit. If instance teardown
// had to be skipped, it ends the process immediately with the given
// code through Options.Exit, without running any further cleanup.
func (d *Driver) Exit(code int) {
	if err := d.Shutdown(); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
	d.mu.Lock()
	skipped := d.teardownSkipped
	d.mu.Unlock()
	if skipped {
		d.exit(code)
	}
}
