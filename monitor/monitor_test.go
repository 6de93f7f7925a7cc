// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/websocket"
	"github.com/kleinerm/Psychtoolbox-3-sub009/config"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr/simxr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xrcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect returns a client of m receiving samples on the returned channel.
func connect(t *testing.T, m *Monitor) (*websocket.Stream, chan xrcore.PresentInfo) {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	t.Cleanup(srv.Close)
	c, err := websocket.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+Path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	samples := make(chan xrcore.PresentInfo, 100)
	c.Listen(func(msg []byte) {
		var info xrcore.PresentInfo
		if assert.NoError(t, json.Unmarshal(msg, &info)) {
			samples <- info
		}
	})
	require.Eventually(t, func() bool { return m.Clients() == 1 }, time.Second, time.Millisecond)
	return c, samples
}

func receive(t *testing.T, samples chan xrcore.PresentInfo) xrcore.PresentInfo {
	t.Helper()
	select {
	case info := <-samples:
		return info
	case <-time.After(2 * time.Second):
		t.Fatal("no sample received")
	}
	return xrcore.PresentInfo{}
}

func TestBroadcast(t *testing.T) {
	m := New()
	defer m.Close()
	_, samples := connect(t, m)

	want := xrcore.PresentInfo{Handle: 1, Frame: 42, Onset: 12.5, Next: 12.52, Target: 12.49}
	m.OnPresent(want)
	assert.Equal(t, want, receive(t, samples))

	var raw map[string]any
	msg, err := json.Marshal(want)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg, &raw))
	assert.ElementsMatch(t, []string{"handle", "frame", "onset", "next", "target"}, keys(raw))
}

func keys(m map[string]any) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

func TestDropSlowClient(t *testing.T) {
	m := New()
	slow := &client{send: make(chan []byte, 1)}
	m.clients[slow] = struct{}{}

	start := time.Now()
	for i := range 3 {
		m.OnPresent(xrcore.PresentInfo{Frame: int64(i)})
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 0, m.Clients())
	msg, ok := <-slow.send
	assert.True(t, ok)
	assert.Contains(t, string(msg), `"frame":0`)
	_, ok = <-slow.send
	assert.False(t, ok)
}

func TestClientDisconnect(t *testing.T) {
	m := New()
	defer m.Close()
	c, _ := connect(t, m)
	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return m.Clients() == 0 }, time.Second, time.Millisecond)
}

func TestListen(t *testing.T) {
	m := New()
	require.NoError(t, m.Listen("127.0.0.1:0"))
	addr := m.Addr()
	require.NotEmpty(t, addr)
	c, err := websocket.Dial(context.Background(), "ws://"+addr+Path)
	require.NoError(t, err)
	c.Listen(func(msg []byte) {})
	require.Eventually(t, func() bool { return m.Clients() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, m.Close())
	assert.Empty(t, m.Addr())
	select {
	case <-c.Closed():
		assert.NoError(t, c.Err())
	case <-time.After(2 * time.Second):
		t.Fatal("client not closed with the monitor")
	}
}

func TestDriverPresents(t *testing.T) {
	m := New()
	defer m.Close()
	_, samples := connect(t, m)

	clock := platform.NewTimeBridge()
	rt := simxr.New(simxr.Options{RefreshRate: 500, Clock: clock})
	d := xrcore.New(rt, xrcore.Options{Config: config.Default(), Hooks: m, Clock: clock, Exit: func(int) {}})
	defer d.Shutdown()

	h, _, _, _, err := d.Open(0)
	require.NoError(t, err)
	_, err = d.CreateAndStartSession(h, &platform.HeadlessBinding{}, false, false, nil)
	require.NoError(t, err)
	_, _, _, _, err = d.CreateRenderTextureChain(h, 0, 320, 240, false, 1)
	require.NoError(t, err)
	for range 3 {
		_, err := d.GetNextTextureHandle(h, 0)
		require.NoError(t, err)
		onset, _, _, err := d.PresentFrame(h, 0)
		require.NoError(t, err)
		info := receive(t, samples)
		assert.Equal(t, h, info.Handle)
		assert.Equal(t, onset, info.Onset)
		assert.Greater(t, info.Frame, int64(0))
	}
}
