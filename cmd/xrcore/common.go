// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/logx"
	"github.com/kleinerm/Psychtoolbox-3-sub009/config"
	"github.com/kleinerm/Psychtoolbox-3-sub009/monitor"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/openxr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/simxr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xrcore"
)

// options are the flags shared by all commands.
type options struct {
	config   string
	v, vv, q bool
}

// flags returns the flag set of a command with the shared flags.
func (a *app) flags(name, usageArgs string, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&o.config, "config", "", "config file (.toml or .yaml), looked up on "+strings.Join(config.IncludePaths, ", "))
	fs.BoolVar(&o.v, "v", false, "verbose output")
	fs.BoolVar(&o.vv, "vv", false, "debug output")
	fs.BoolVar(&o.q, "q", false, "only print errors")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: xrcore %s [flags] %s\n", name, usageArgs)
		fs.PrintDefaults()
	}
	return fs
}

// load returns the configuration selected by the shared flags, and
// sets the log level from the flags or the configured verbosity.
func (o *options) load() (*config.Config, error) {
	cfg := config.Default()
	if o.config != "" {
		if err := config.Open(cfg, o.config, nil); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if o.v || o.vv || o.q {
		cfg.Verbosity = logx.VerbosityFromLevel(logx.LevelFromFlags(o.vv, o.v, o.q))
	}
	logx.SetVerbosity(cfg.Verbosity)
	return cfg, nil
}

// simOptions returns the simulated runtime options of a config.
func simOptions(cfg *config.Config) (simxr.Options, error) {
	opts := simxr.DefaultOptions()
	s := cfg.Sim
	v, err := semver.NewVersion(s.RuntimeVersion)
	if err != nil {
		return opts, fmt.Errorf("simulated runtime version %q: %w", s.RuntimeVersion, err)
	}
	opts.RefreshRate = s.RefreshRate
	opts.SystemName = s.DeviceName
	opts.RuntimeName = s.RuntimeName
	opts.RuntimeVersion = xr.Version{Major: uint32(v.Major()), Minor: uint32(v.Minor()), Patch: uint32(v.Patch())}
	opts.Width, opts.Height = uint32(s.Width), uint32(s.Height)
	opts.EyeGaze = s.EyeGaze
	return opts, nil
}

// session is a driver on the configured runtime, with the monitor
// serving its presents if one is configured.
type session struct {
	cfg *config.Config
	rt  xr.Runtime
	d   *xrcore.Driver
	mon *monitor.Monitor
}

// openRuntime returns the runtime selected by the config.
func openRuntime(cfg *config.Config) (xr.Runtime, error) {
	switch cfg.Runtime {
	case "", "sim":
		opts, err := simOptions(cfg)
		if err != nil {
			return nil, err
		}
		return simxr.New(opts), nil
	case "openxr":
		return openxr.Open()
	}
	return nil, fmt.Errorf("unknown runtime %q, want sim or openxr", cfg.Runtime)
}

// newSession returns a new driver for the config.
func newSession(cfg *config.Config) (*session, error) {
	rt, err := openRuntime(cfg)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, rt: rt}
	dopts := xrcore.Options{Config: cfg}
	if cfg.MonitorAddr != "" {
		s.mon = monitor.New()
		if err := s.mon.Listen(cfg.MonitorAddr); err != nil {
			return nil, fmt.Errorf("monitor: %w", err)
		}
		dopts.Hooks = s.mon
	}
	s.d = xrcore.New(s.rt, dopts)
	return s, nil
}

// close shuts the driver and the monitor down.
func (s *session) close() error {
	err := s.d.Shutdown()
	if s.mon != nil {
		s.mon.Close()
	}
	return err
}
