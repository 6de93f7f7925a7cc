// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package luahost

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/config"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/simxr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xrcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHost(t *testing.T) (*Host, *strings.Builder, *simxr.Runtime) {
	t.Helper()
	clock := platform.NewTimeBridge()
	rt := simxr.New(simxr.Options{RefreshRate: 500, Clock: clock})
	d := xrcore.New(rt, xrcore.Options{Config: config.Default(), Clock: clock, Exit: func(int) {}})
	t.Cleanup(func() { d.Shutdown() })
	out := &strings.Builder{}
	return &Host{Driver: d, Out: out}, out, rt
}

const session = `
local xr = require("openxr")
assert(xr.GetCount() == 1)
local h, model, runtime, eye = xr.Open()
assert(h == 1, "handle")
assert(runtime == "Simulated OpenXR")
local fd = xr.CreateAndStartSession(h, false, false)
assert(fd > 0 and fd < 0.01, "frame duration")
local w, ht, rec, maxMSAA, maxW, maxH = xr.GetFovTextureSize(h, 0)
assert(w > 0 and ht > 0 and maxW >= w)
local cw, ch, n = xr.CreateRenderTextureChain(h, 0, w, ht, false, 1)
assert(cw == w and n == 3)
local last = 0
for i = 1, 3 do
	local tex = xr.GetNextTextureHandle(h, 0)
	assert(tex > 0, "texture")
	local onset, nxt, flip = xr.PresentFrame(h)
	assert(onset > last and nxt > onset and flip < onset, "onset")
	last = onset
end
local head, hands, gaze = xr.GetTrackingState(h)
assert(#head.Pose == 7 and #hands == 2 and #gaze == 0)
assert(head.SessionState % 2 == 1, "visible")
local input = xr.GetInputState(h, 0xffffffff)
assert(#input.Buttons == 26 and #input.Touches == 15 and #input.Thumbstick == 2)
local projL, projR = xr.GetStaticRenderParameters(h)
assert(projL[4][3] == -1 and projR[4][3] == -1)
local old, bounds = xr.ReferenceSpaceType(h, 2)
assert(old == 1 and bounds[1] == 3 and bounds[2] == 2.5)
assert(xr.ViewType(h) == 1)
assert(xr.Controllers(h) == 3)
assert(xr.HapticPulse(h, 1, 0.1, 0.5) >= xr.Now())
print(model, #hands)
xr.Close(h)
`

func TestSession(t *testing.T) {
	host, out, rt := newHost(t)
	require.NoError(t, host.RunString(context.Background(), session))
	assert.Equal(t, "Simulated HMD\t2\n", out.String())
	assert.Equal(t, 0, rt.Instances())
}

func TestErrors(t *testing.T) {
	host, _, _ := newHost(t)
	err := host.RunString(context.Background(), `require("openxr").Open(5)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openxr.Open")
	assert.Contains(t, err.Error(), "invalid argument")

	require.NoError(t, host.RunString(context.Background(), `
local xr = require("openxr")
local ok, err = pcall(xr.PresentFrame, 7)
assert(not ok)
assert(string.find(err, "invalid device handle", 1, true), err)
`))
}

func TestVerbosity(t *testing.T) {
	host, out, _ := newHost(t)
	require.NoError(t, host.RunString(context.Background(), `
local xr = require("openxr")
local old = xr.Verbosity(5)
print(xr.Verbosity(old))
`))
	assert.Equal(t, "5\n", out.String())
}

func TestRunFile(t *testing.T) {
	host, out, _ := newHost(t)
	file := filepath.Join(t.TempDir(), "count.lua")
	require.NoError(t, os.WriteFile(file, []byte(`print(require("openxr").GetCount())`), 0o644))
	require.NoError(t, host.RunFile(context.Background(), file))
	assert.Equal(t, "1\n", out.String())
}

func TestCancel(t *testing.T) {
	host, _, _ := newHost(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Error(t, host.RunString(ctx, `while true do end`))
	assert.Less(t, time.Since(start), 2*time.Second)
}
