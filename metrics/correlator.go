// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Unsupported is returned by [Correlator.Onset] when no onset is
// known for a frame.
const Unsupported int64 = -1

// DefaultScanoutOffset is the default delay from the compositor
// reported present time to the visual onset.
const DefaultScanoutOffset = 4 * time.Millisecond

// historySize is the number of completed frames kept for lookup.
const historySize = 64

// Correlator matches the submitted, used and presented records of
// the metrics stream to find the onset time of each client frame.
// It tracks one awaited client frame plus one next frame; the onset
// of a frame is its actual present time plus the scanout offset, in
// runtime nanoseconds.
type Correlator struct {

	// ScanoutOffset is added to the compositor present time.
	ScanoutOffset time.Duration

	mu   sync.Mutex
	cond *sync.Cond

	sessionID      int64
	lastUsedClient int64
	waitedClient   int64
	waitedTarget   uint64
	nextClient     int64
	nextTarget     uint64
	waitedSystem   int64

	onsets map[int64]int64
	order  []int64

	version Version
	done    bool
	err     error
}

// NewCorrelator returns a new [Correlator] with the given scanout offset.
func NewCorrelator(scanoutOffset time.Duration) *Correlator {
	c := &Correlator{ScanoutOffset: scanoutOffset, onsets: map[int64]int64{}}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Run reads records from d and handles them until the stream ends
// or fails, and returns the error, which is nil at the clean end of
// the stream. After Run returns, no further frames are correlated.
func (c *Correlator) Run(d *Decoder) error {
	for {
		rec, err := d.Next()
		if err != nil {
			if err == io.EOF {
				err = nil
				slog.Info("metrics stream closed")
			} else {
				slog.Error("metrics decode failed, timestamp correlation disabled", "err", err)
			}
			c.mu.Lock()
			c.done = true
			c.err = err
			c.cond.Broadcast()
			c.mu.Unlock()
			return err
		}
		c.Handle(rec)
	}
}

// Start runs the correlator on records read from r in a new goroutine.
func (c *Correlator) Start(r io.Reader) {
	go c.Run(NewDecoder(r))
}

// Err returns the error that stopped [Correlator.Run], if any.
func (c *Correlator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Active returns whether records are still being read.
func (c *Correlator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.done
}

// Version returns the protocol version of the stream, if received.
func (c *Correlator) Version() Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Onset returns the onset time in runtime nanoseconds of the given
// client frame, 0 if the frame was discarded, or [Unsupported] if
// the frame has not been correlated (yet).
func (c *Correlator) Onset(frameID int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.onsets[frameID]; ok {
		return v
	}
	return Unsupported
}

// WaitOnset is like [Correlator.Onset], but waits for the frame
// to be correlated until ctx is done or the stream ends.
func (c *Correlator) WaitOnset(ctx context.Context, frameID int64) int64 {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if v, ok := c.onsets[frameID]; ok {
			return v
		}
		if c.done || ctx.Err() != nil {
			return Unsupported
		}
		c.cond.Wait()
	}
}

// Handle updates the correlation state with one record.
func (c *Correlator) Handle(rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch r := rec.(type) {
	case *Version:
		c.version = *r
		slog.Info("metrics protocol", "version", r.Major, "minor", r.Minor)
		if r.Major != 1 || r.Minor != 1 {
			slog.Warn("metrics protocol version is not 1.1, correlation may fail", "major", r.Major, "minor", r.Minor)
		}
	case *SessionFrame:
		c.checkSession(r.SessionID)
		if r.Discarded {
			slog.Debug("metrics: client frame discarded", "frame", r.FrameID)
			c.record(r.FrameID, 0)
			return
		}
		switch {
		case c.waitedClient == 0:
			c.waitedClient = r.FrameID
			c.waitedTarget = r.DisplayTime
		case r.FrameID != c.waitedClient:
			if c.nextClient != 0 {
				slog.Warn("metrics: dropping wait for client frame", "frame", c.nextClient, "new", r.FrameID)
			}
			c.nextClient = r.FrameID
			c.nextTarget = r.DisplayTime
		default:
			slog.Warn("metrics: client frame submitted twice", "frame", r.FrameID)
		}
	case *Used:
		c.checkSession(r.SessionID)
		if r.SessionFrameID <= c.lastUsedClient {
			return
		}
		if r.SessionFrameID == c.nextClient && c.nextClient != 0 {
			slog.Debug("metrics: client frame superseded before present", "frame", c.waitedClient, "by", c.nextClient)
			c.waitedClient, c.waitedTarget = c.nextClient, c.nextTarget
			c.nextClient, c.nextTarget = 0, 0
		}
		c.lastUsedClient = r.SessionFrameID
		if r.SessionFrameID == c.waitedClient {
			c.waitedSystem = r.SystemFrameID
		}
	case *SystemPresentInfo:
		if c.waitedClient == 0 || r.FrameID != c.waitedSystem {
			return
		}
		onset := int64(r.ActualPresentTime) + int64(c.ScanoutOffset)
		slog.Debug("metrics: client frame presented", "frame", c.waitedClient, "system", r.FrameID,
			"delay", time.Duration(int64(r.ActualPresentTime)-int64(c.waitedTarget)))
		c.record(c.waitedClient, onset)
		c.waitedClient, c.waitedTarget = c.nextClient, c.nextTarget
		c.nextClient, c.nextTarget = 0, 0
		c.waitedSystem = 0
	}
}

// checkSession resets all state when a new session has started.
func (c *Correlator) checkSession(id int64) {
	if id <= c.sessionID {
		return
	}
	if c.sessionID != 0 {
		slog.Info("metrics: new session, resetting correlation", "session", id)
	}
	c.sessionID = id
	c.lastUsedClient = 0
	c.waitedClient, c.waitedTarget = 0, 0
	c.nextClient, c.nextTarget = 0, 0
	c.waitedSystem = 0
	clear(c.onsets)
	c.order = c.order[:0]
}

func (c *Correlator) record(frameID, onset int64) {
	if _, ok := c.onsets[frameID]; !ok {
		c.order = append(c.order, frameID)
		if len(c.order) > historySize {
			delete(c.onsets, c.order[0])
			c.order = c.order[1:]
		}
	}
	c.onsets[frameID] = onset
	c.cond.Broadcast()
}
