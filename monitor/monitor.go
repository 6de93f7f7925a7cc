// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package monitor serves the timing of every present of a driver to
// websocket clients, as one JSON object per present.
package monitor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xrcore"
)

// Path is the http path of the websocket endpoint.
const Path = "/ws"

// queueSize is the number of samples buffered per client. A client
// that falls further behind is dropped.
const queueSize = 64

// Monitor is a [xrcore.HostHooks] that broadcasts [xrcore.PresentInfo]
// samples to websocket clients. Other notifications are logged.
type Monitor struct {
	xrcore.LogHooks

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	srv     *http.Server
	ln      net.Listener
}

// client is one connected websocket client.
type client struct {
	conn *websocket.Conn

	// send is closed when the client is dropped.
	send chan []byte
}

// New returns a new monitor without any listener.
func New() *Monitor {
	return &Monitor{clients: map[*client]struct{}{}}
}

// Handler returns the http handler that upgrades requests to
// websocket connections receiving the samples.
func (m *Monitor) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := m.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("monitor upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		c := &client{conn: conn, send: make(chan []byte, queueSize)}
		m.mu.Lock()
		m.clients[c] = struct{}{}
		m.mu.Unlock()
		slog.Info("monitor client connected", "remote", r.RemoteAddr)

		go c.write()
		// reads only detect the close of the connection
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		m.drop(c)
		slog.Info("monitor client disconnected", "remote", r.RemoteAddr)
	})
}

// write sends queued samples until the client is dropped.
func (c *client) write() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Debug("monitor write failed", "err", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// drop removes a client, which ends its writer.
func (m *Monitor) drop(c *client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c]; !ok {
		return
	}
	delete(m.clients, c)
	close(c.send)
}

// Listen serves the websocket endpoint at [Path] on addr in the
// background, until [Monitor.Close].
func (m *Monitor) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(Path, m.Handler())
	srv := &http.Server{Handler: mux}
	m.mu.Lock()
	m.srv, m.ln = srv, ln
	m.mu.Unlock()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("monitor server failed", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving present monitor", "url", "ws://"+ln.Addr().String()+Path)
	return nil
}

// Addr returns the address the monitor listens on, or "".
func (m *Monitor) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return ""
	}
	return m.ln.Addr().String()
}

// Clients returns the number of connected clients.
func (m *Monitor) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// OnPresent queues the sample for every client without blocking.
// Clients whose queue is full are dropped.
func (m *Monitor) OnPresent(info xrcore.PresentInfo) {
	m.LogHooks.OnPresent(info)
	m.mu.Lock()
	n := len(m.clients)
	m.mu.Unlock()
	if n == 0 {
		return
	}
	msg, err := json.Marshal(info)
	if err != nil {
		slog.Error("monitor encode failed", "err", err)
		return
	}
	var slow []*client
	m.mu.Lock()
	for c := range m.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	m.mu.Unlock()
	for _, c := range slow {
		slog.Warn("dropping slow monitor client")
		m.drop(c)
	}
}

// Close stops the server and drops all clients.
func (m *Monitor) Close() error {
	m.mu.Lock()
	srv := m.srv
	m.srv, m.ln = nil, nil
	clients := make([]*client, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()
	for _, c := range clients {
		m.drop(c)
	}
	if srv == nil {
		return nil
	}
	return srv.Close()
}
