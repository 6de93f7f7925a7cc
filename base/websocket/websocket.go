// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package websocket follows a stream of text samples, such as the
// JSON present timing samples broadcast by a driver monitor, over a
// WebSocket connection.
package websocket

import (
	"context"
	"net"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
)

// Stream is a read-only connection to a sample stream.
// Use [Dial] to open one and [Stream.Listen] to start reading.
type Stream struct {
	conn   *websocket.Conn
	closed chan struct{}

	mu  sync.Mutex
	err error
}

// Dial opens the sample stream at url, a ws:// or wss:// URL.
func Dial(ctx context.Context, url string) (*Stream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Stream{conn: conn, closed: make(chan struct{})}, nil
}

// Listen reads the stream on a new goroutine, calling f with each text
// sample until the connection ends. Binary messages are skipped. It
// must be called once.
func (s *Stream) Listen(f func(sample []byte)) {
	go func() {
		defer close(s.closed)
		for {
			typ, msg, err := s.conn.ReadMessage()
			if err != nil {
				s.end(err)
				return
			}
			if typ == websocket.TextMessage {
				f(msg)
			}
		}
	}()
}

// end records the error that ended the stream. A normal close by
// either side is not an error.
func (s *Stream) end(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, net.ErrClosed) {
		return
	}
	errors.Log(err)
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Closed returns a channel closed once [Stream.Listen] has stopped.
func (s *Stream) Closed() <-chan struct{} { return s.closed }

// Err returns the error that ended the stream, or nil.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close says goodbye to the server and closes the connection.
func (s *Stream) Close() error {
	bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return errors.Join(s.conn.WriteMessage(websocket.CloseMessage, bye), s.conn.Close())
}
