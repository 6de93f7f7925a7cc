// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config provides the configuration of the XR driver and
// its command line tool, with defaults from struct tags and
// TOML or YAML config files that can include other config files.
package config

import (
	"os"
	"time"
)

// MetricsEnv is the environment variable naming the compositor
// metrics pipe, used when [Config.MetricsPipe] is empty.
const MetricsEnv = "XRT_METRICS_FILE"

// Config is the driver configuration.
type Config struct {

	// Includes are other config files to load before this one;
	// settings in this file overwrite included settings.
	Includes []string

	// Verbosity is the numeric diagnostic output level:
	// 0 silent, 1 errors, 2 warnings, 3 info, 4-6 debug, 7+ trace.
	Verbosity int `default:"3"`

	// MultiThreaded selects the asynchronous presenter thread mode.
	MultiThreaded bool

	// Use3D selects projection layers for head tracked 3D rendering
	// instead of head locked quad layers.
	Use3D bool

	// ViewType is the primary view configuration: 0 mono, 1 stereo.
	ViewType int `default:"1"`

	// ReferenceSpace is the initial reference space: 0 view, 1 local, 2 stage.
	ReferenceSpace int `default:"1"`

	// FloatFormat requests floating point swapchain textures.
	FloatFormat bool

	// MSAA is the number of samples per texel of the swapchain textures.
	MSAA int `default:"1"`

	// MetricsPipe is the path of the compositor metrics pipe used for
	// timestamp correlation. Empty uses the XRT_METRICS_FILE environment
	// variable, and if that is unset, correlation is disabled.
	MetricsPipe string

	// MetricsWaitForPipe is how long to wait for the metrics pipe
	// to be created if it does not exist yet.
	MetricsWaitForPipe Duration `default:"0s"`

	// ScanoutOffset is added to the compositor reported present time
	// to get the visual onset time of a correlated frame.
	ScanoutOffset Duration `default:"4ms"`

	// ForceCleanShutdown makes shutdown always attempt to destroy the
	// runtime instance, even for runtimes known to hang in it,
	// abandoning the attempt after ShutdownTimeout.
	ForceCleanShutdown bool

	// ShutdownTimeout bounds a forced clean shutdown.
	ShutdownTimeout Duration `default:"2s"`

	// MonitorAddr is the address to serve the present timing monitor
	// websocket on, such as "localhost:8765". Empty disables it.
	MonitorAddr string

	// Runtime selects the OpenXR runtime: "sim" for the simulated
	// runtime, or "openxr" for the system OpenXR loader, which needs
	// a build with the openxr tag.
	Runtime string `default:"sim"`

	// Sim configures the simulated runtime.
	Sim Sim
}

// Sim configures the simulated runtime used when no real
// runtime is available, and in tests.
type Sim struct {

	// RefreshRate is the simulated display refresh rate in Hz.
	RefreshRate float64 `default:"90"`

	// DeviceName is the reported system name.
	DeviceName string `default:"Simulated HMD"`

	// RuntimeName is the reported runtime name.
	RuntimeName string `default:"Simulated OpenXR"`

	// RuntimeVersion is the reported runtime version.
	RuntimeVersion string `default:"1.0.0"`

	// Width is the recommended per eye image width.
	Width int `default:"1440"`

	// Height is the recommended per eye image height.
	Height int `default:"1600"`

	// EyeGaze enables the simulated eye gaze extension.
	EyeGaze bool
}

// IncludesPtr returns a pointer to the Includes field.
func (c *Config) IncludesPtr() *[]string { return &c.Includes }

// Default returns a new [Config] with the values from the
// default struct tags.
func Default() *Config {
	cfg := &Config{}
	SetFromDefaults(cfg)
	return cfg
}

// ApplyEnv fills in settings from the environment that
// were not set in the config.
func (c *Config) ApplyEnv() {
	if c.MetricsPipe == "" {
		c.MetricsPipe = os.Getenv(MetricsEnv)
	}
}

// Duration is a [time.Duration] that is read from and written to
// config files as a duration string such as "4ms".
type Duration time.Duration

// D returns the [time.Duration].
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
