// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/config"
	"github.com/kleinerm/Psychtoolbox-3-sub009/metrics"
	"github.com/kleinerm/Psychtoolbox-3-sub009/monitor"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/openxr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/simxr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xrcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newApp(t *testing.T, in string) (*app, *syncBuffer) {
	t.Helper()
	t.Setenv(config.MetricsEnv, "")
	out := &syncBuffer{}
	return &app{in: strings.NewReader(in), out: out}, out
}

func TestUsage(t *testing.T) {
	a, out := newApp(t, "")
	assert.Equal(t, 0, a.main([]string{"help"}))
	for _, c := range commands {
		assert.Contains(t, out.String(), c.name)
	}
	assert.Equal(t, 2, a.main([]string{"bogus"}))
	assert.Equal(t, 2, a.main([]string{"info", "-h"}))
}

func TestInfo(t *testing.T) {
	a, out := newApp(t, "")
	require.Equal(t, 0, a.main([]string{"info", "-q"}))
	s := out.String()
	assert.Contains(t, s, "runtime:    Simulated OpenXR 1.0.0")
	assert.Contains(t, s, "devices:    1")
	assert.Contains(t, s, "device 0:   Simulated HMD")
	assert.Contains(t, s, "space:    1, stage 0x0 m")
}

func TestRun(t *testing.T) {
	a, out := newApp(t, "")
	require.Equal(t, 0, a.main([]string{"run", "-q", "-n", "5"}))
	s := out.String()
	assert.Contains(t, s, "frame duration 11.111 ms")
	assert.Contains(t, s, "frame    4 onset")
	assert.Contains(t, s, "4 intervals")
}

func TestRunNoGLFW(t *testing.T) {
	a, _ := newApp(t, "")
	// headless builds reject -glfw, glfw builds need a display
	if os.Getenv("DISPLAY") != "" {
		t.Skip("display available")
	}
	assert.Equal(t, 1, a.main([]string{"run", "-q", "-n", "1", "-glfw"}))
}

func TestOpenRuntime(t *testing.T) {
	cfg := config.Default()
	rt, err := openRuntime(cfg)
	require.NoError(t, err)
	assert.IsType(t, &simxr.Runtime{}, rt)

	cfg.Runtime = "openxr"
	rt, err = openRuntime(cfg)
	if openxr.Available {
		assert.NoError(t, err)
		assert.NotNil(t, rt)
	} else {
		assert.ErrorIs(t, err, openxr.ErrNotBuilt)
	}

	cfg.Runtime = "steam"
	_, err = openRuntime(cfg)
	assert.ErrorContains(t, err, `unknown runtime "steam"`)
}

func TestFrameStats(t *testing.T) {
	var st frameStats
	assert.Equal(t, "no intervals", st.String())
	st.add(0.010, 0.010)
	st.add(0.012, 0.010)
	st.add(0.020, 0.010)
	assert.Equal(t, 3, st.n)
	assert.Equal(t, 1, st.missed)
	assert.InDelta(t, 0.010, st.min, 1e-12)
	assert.InDelta(t, 0.020, st.max, 1e-12)
	assert.Equal(t, "3 intervals: mean 14.000 ms, min 10.000 ms, max 20.000 ms, 1 missed", st.String())
}

const script = `
# a comment
count
open
session 1
fov 1 0
chain 1 0
tex 1 0
present 1
controllers 1
viewtype 1
lua print("lua", openxr.GetCount())
lua print("handle", openxr.Controllers(1))
bogus
present
quit
never
`

func TestShell(t *testing.T) {
	a, out := newApp(t, script)
	require.Equal(t, 0, a.main([]string{"shell", "-q"}))
	s := out.String()
	assert.NotContains(t, s, "xr> ")
	assert.Contains(t, s, "1\nhandle 1: Simulated HMD (Simulated OpenXR)")
	assert.Contains(t, s, "frame duration 0.011111")
	assert.Contains(t, s, "3 images")
	assert.Contains(t, s, "onset ")
	assert.Contains(t, s, "0x3\n")
	assert.Contains(t, s, "lua\t1\n")
	assert.Contains(t, s, "handle\t3\n")
	assert.Contains(t, s, `error: unknown command "bogus"`)
	assert.Contains(t, s, "error: missing device handle")
	assert.NotContains(t, s, "never")
}

func TestShellSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cmds")
	require.NoError(t, os.WriteFile(file, []byte("count\nverbosity\n"), 0o644))
	loop := filepath.Join(dir, "loop")
	require.NoError(t, os.WriteFile(loop, []byte("source "+loop+"\n"), 0o644))

	a, out := newApp(t, "source "+file+"\nsource "+loop+"\nsource\n")
	require.Equal(t, 0, a.main([]string{"shell", "-q"}))
	s := out.String()
	assert.True(t, strings.HasPrefix(s, "1\n"), s)
	assert.Contains(t, s, "source nested more than 8 deep")
	assert.Contains(t, s, "usage: source <file>")
}

func TestLua(t *testing.T) {
	a, out := newApp(t, "")
	require.Equal(t, 0, a.main([]string{"lua", "-q", "-e", `print(require("openxr").GetCount())`}))
	assert.Equal(t, "1\n", out.String())

	file := filepath.Join(t.TempDir(), "open.lua")
	require.NoError(t, os.WriteFile(file, []byte(`local xr = require("openxr")
local h, model = xr.Open()
print(model)
xr.Close(h)
`), 0o644))
	a, out = newApp(t, "")
	require.Equal(t, 0, a.main([]string{"lua", "-q", file}))
	assert.Equal(t, "Simulated HMD\n", out.String())

	a, _ = newApp(t, "")
	assert.Equal(t, 1, a.main([]string{"lua", "-q", "-e", `error("boom")`}))
	assert.Equal(t, 1, a.main([]string{"lua", "-q"}))
}

func TestMetrics(t *testing.T) {
	file := filepath.Join(t.TempDir(), "metrics.protobuf")
	f, err := os.Create(file)
	require.NoError(t, err)
	e := metrics.NewEncoder(f)
	for _, rec := range []metrics.Record{
		&metrics.Version{Major: 1, Minor: 1},
		&metrics.SessionFrame{SessionID: 2, FrameID: 7, DisplayTime: 1000},
		&metrics.Used{SessionID: 2, SessionFrameID: 7, SystemFrameID: 3},
		&metrics.SystemPresentInfo{FrameID: 3, ActualPresentTime: 1100, DesiredPresentTime: 1000},
	} {
		require.NoError(t, e.Encode(rec))
	}
	require.NoError(t, f.Close())

	a, out := newApp(t, "")
	require.Equal(t, 0, a.main([]string{"metrics", "-q", file}))
	s := out.String()
	assert.Contains(t, s, "version        1.1\n")
	assert.Contains(t, s, "session frame  session 2 frame 7 display 1000 discarded false\n")
	assert.Contains(t, s, "used           session 2 frame 7 system frame 3\n")
	assert.Contains(t, s, "present        system frame 3 actual 1100 desired 1000\n")

	a, _ = newApp(t, "")
	assert.Equal(t, 1, a.main([]string{"metrics", "-q"}))
}

func TestWatch(t *testing.T) {
	m := monitor.New()
	require.NoError(t, m.Listen("127.0.0.1:0"))
	defer m.Close()

	a, out := newApp(t, "")
	done := make(chan int)
	go func() { done <- a.main([]string{"watch", "-q", m.Addr()}) }()
	require.Eventually(t, func() bool { return m.Clients() == 1 }, 2*time.Second, time.Millisecond)

	m.OnPresent(xrcore.PresentInfo{Handle: 1, Frame: 42, Onset: 1.5, Next: 1.511, Target: 1.49})
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "device 1 frame 42 onset 1.500000 next 1.511000 target 1.490000")
	}, 2*time.Second, time.Millisecond)

	m.Close()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after the monitor closed")
	}
}
