// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3, cfg.Verbosity)
	assert.Equal(t, 1, cfg.ViewType)
	assert.Equal(t, 1, cfg.MSAA)
	assert.Equal(t, 4*time.Millisecond, cfg.ScanoutOffset.D())
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout.D())
	assert.Equal(t, 90.0, cfg.Sim.RefreshRate)
	assert.Equal(t, "Simulated HMD", cfg.Sim.DeviceName)
	assert.Equal(t, "sim", cfg.Runtime)
	assert.False(t, cfg.MultiThreaded)
}

func writeFile(t *testing.T, dir, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
}

func TestOpenTOMLWithIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.toml", `
Verbosity = 5
MultiThreaded = true
ScanoutOffset = "6ms"

[Sim]
RefreshRate = 120.0
`)
	writeFile(t, dir, "lab.toml", `
Includes = ["base.toml"]
Verbosity = 2
MonitorAddr = "localhost:8765"
`)
	cfg := Default()
	require.NoError(t, Open(cfg, "lab.toml", []string{dir}))
	assert.Equal(t, 2, cfg.Verbosity, "includer overwrites included")
	assert.True(t, cfg.MultiThreaded)
	assert.Equal(t, 6*time.Millisecond, cfg.ScanoutOffset.D())
	assert.Equal(t, 120.0, cfg.Sim.RefreshRate)
	assert.Equal(t, "localhost:8765", cfg.MonitorAddr)
	assert.Equal(t, []string{"base.toml"}, cfg.Includes)
	assert.Equal(t, "Simulated HMD", cfg.Sim.DeviceName, "defaults survive")
}

func TestOpenYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "xr.yaml", `
verbosity: 4
use3d: true
metricswaitforpipe: 250ms
sim:
  devicename: Bench HMD
`)
	cfg := Default()
	require.NoError(t, Open(cfg, "xr.yaml", []string{dir}))
	assert.Equal(t, 4, cfg.Verbosity)
	assert.True(t, cfg.Use3D)
	assert.Equal(t, 250*time.Millisecond, cfg.MetricsWaitForPipe.D())
	assert.Equal(t, "Bench HMD", cfg.Sim.DeviceName)
}

func TestOpenMissing(t *testing.T) {
	cfg := Default()
	assert.Error(t, Open(cfg, "nope.toml", []string{t.TempDir()}))

	dir := t.TempDir()
	writeFile(t, dir, "a.toml", `Includes = ["missing.toml"]`)
	assert.Error(t, Open(cfg, "a.toml", []string{dir}))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(MetricsEnv, "/tmp/monado.protobuf")
	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "/tmp/monado.protobuf", cfg.MetricsPipe)

	cfg.MetricsPipe = "/run/other"
	cfg.ApplyEnv()
	assert.Equal(t, "/run/other", cfg.MetricsPipe)
}
