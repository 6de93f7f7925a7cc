// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

const testT = 1_000_000_000_000

func stream(t *testing.T, recs ...Record) *bytes.Buffer {
	buf := &bytes.Buffer{}
	e := NewEncoder(buf)
	for _, r := range recs {
		require.NoError(t, e.Encode(r))
	}
	return buf
}

func TestCorrelatorStream(t *testing.T) {
	buf := stream(t,
		&Version{Major: 1, Minor: 1},
		&SessionFrame{FrameID: 5, DisplayTime: testT},
		&Used{SessionFrameID: 5, SystemFrameID: 42},
		&SystemPresentInfo{FrameID: 42, ActualPresentTime: testT + 2_000_000},
	)
	c := NewCorrelator(DefaultScanoutOffset)
	assert.Equal(t, Unsupported, c.Onset(5))
	require.NoError(t, c.Run(NewDecoder(buf)))
	assert.Equal(t, int64(testT+2_000_000+4_000_000), c.Onset(5))
	assert.Equal(t, Unsupported, c.Onset(6))
	assert.Equal(t, Version{Major: 1, Minor: 1}, c.Version())
	assert.False(t, c.Active())
	assert.NoError(t, c.Err())
}

func TestCorrelatorScanoutOffset(t *testing.T) {
	c := NewCorrelator(0)
	c.Handle(&SessionFrame{FrameID: 1})
	c.Handle(&Used{SessionFrameID: 1, SystemFrameID: 7})
	c.Handle(&SystemPresentInfo{FrameID: 7, ActualPresentTime: 500})
	assert.Equal(t, int64(500), c.Onset(1))
}

func TestCorrelatorDiscarded(t *testing.T) {
	c := NewCorrelator(DefaultScanoutOffset)
	c.Handle(&SessionFrame{SessionID: 1, FrameID: 3, Discarded: true})
	assert.Equal(t, int64(0), c.Onset(3))
}

func TestCorrelatorSessionReset(t *testing.T) {
	c := NewCorrelator(DefaultScanoutOffset)
	c.Handle(&SessionFrame{SessionID: 1, FrameID: 5, DisplayTime: testT})
	c.Handle(&Used{SessionID: 1, SessionFrameID: 5, SystemFrameID: 42})
	c.Handle(&SystemPresentInfo{FrameID: 42, ActualPresentTime: testT})
	require.NotEqual(t, Unsupported, c.Onset(5))

	// a pending frame of the old session is forgotten as well
	c.Handle(&SessionFrame{SessionID: 1, FrameID: 6, DisplayTime: testT})
	c.Handle(&SessionFrame{SessionID: 2, FrameID: 1, DisplayTime: testT})
	assert.Equal(t, Unsupported, c.Onset(5))
	c.Handle(&Used{SessionID: 2, SessionFrameID: 1, SystemFrameID: 43})
	c.Handle(&SystemPresentInfo{FrameID: 43, ActualPresentTime: testT + 10})
	assert.Equal(t, int64(testT+10)+int64(DefaultScanoutOffset), c.Onset(1))
	assert.Equal(t, Unsupported, c.Onset(6))
}

func TestCorrelatorPipelined(t *testing.T) {
	c := NewCorrelator(0)
	c.Handle(&SessionFrame{SessionID: 1, FrameID: 5})
	c.Handle(&Used{SessionID: 1, SessionFrameID: 5, SystemFrameID: 42})
	c.Handle(&SessionFrame{SessionID: 1, FrameID: 6})
	c.Handle(&SystemPresentInfo{FrameID: 42, ActualPresentTime: 100})
	c.Handle(&Used{SessionID: 1, SessionFrameID: 6, SystemFrameID: 43})
	c.Handle(&SystemPresentInfo{FrameID: 43, ActualPresentTime: 200})
	assert.Equal(t, int64(100), c.Onset(5))
	assert.Equal(t, int64(200), c.Onset(6))
}

func TestCorrelatorSuperseded(t *testing.T) {
	c := NewCorrelator(0)
	c.Handle(&SessionFrame{SessionID: 1, FrameID: 5})
	c.Handle(&SessionFrame{SessionID: 1, FrameID: 6})
	c.Handle(&Used{SessionID: 1, SessionFrameID: 6, SystemFrameID: 43})
	c.Handle(&SystemPresentInfo{FrameID: 43, ActualPresentTime: 200})
	assert.Equal(t, Unsupported, c.Onset(5))
	assert.Equal(t, int64(200), c.Onset(6))

	// late or repeated used records are ignored
	c.Handle(&Used{SessionID: 1, SessionFrameID: 5, SystemFrameID: 44})
	c.Handle(&SystemPresentInfo{FrameID: 44, ActualPresentTime: 300})
	assert.Equal(t, Unsupported, c.Onset(5))
}

func TestCorrelatorHistory(t *testing.T) {
	c := NewCorrelator(0)
	for i := int64(1); i <= historySize+6; i++ {
		c.Handle(&SessionFrame{SessionID: 1, FrameID: i, Discarded: true})
	}
	assert.Equal(t, Unsupported, c.Onset(1))
	assert.Equal(t, Unsupported, c.Onset(6))
	assert.Equal(t, int64(0), c.Onset(7))
	assert.Equal(t, int64(0), c.Onset(historySize+6))
}

func TestWaitOnset(t *testing.T) {
	c := NewCorrelator(0)
	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Handle(&SessionFrame{SessionID: 1, FrameID: 2})
		c.Handle(&Used{SessionID: 1, SessionFrameID: 2, SystemFrameID: 9})
		c.Handle(&SystemPresentInfo{FrameID: 9, ActualPresentTime: 77})
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Equal(t, int64(77), c.WaitOnset(ctx, 2))

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Equal(t, Unsupported, c.WaitOnset(ctx, 3))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitOnsetStreamEnd(t *testing.T) {
	c := NewCorrelator(0)
	require.NoError(t, c.Run(NewDecoder(&bytes.Buffer{})))
	assert.Equal(t, Unsupported, c.WaitOnset(context.Background(), 1))
}

func TestMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", []byte{0x05, 0x12}},
		{"bad length", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
		{"bad submessage", []byte{0x02, 0x12, 0x7f}},
		{"not a message", []byte{0x02, 0x10, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCorrelator(0)
			err := c.Run(NewDecoder(bytes.NewReader(tt.data)))
			assert.ErrorIs(t, err, ErrMalformed)
			assert.ErrorIs(t, c.Err(), ErrMalformed)
			assert.False(t, c.Active())
		})
	}
}

func TestDecoderSkipsUnknown(t *testing.T) {
	unknown := protowire.AppendTag(nil, 9, protowire.BytesType)
	unknown = protowire.AppendBytes(unknown, []byte{0x08, 0x01})
	buf := &bytes.Buffer{}
	buf.Write(protowire.AppendVarint(nil, uint64(len(unknown))))
	buf.Write(unknown)
	NewEncoder(buf).Encode(&SystemFrame{FrameID: 3})

	d := NewDecoder(buf)
	rec, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, &SystemFrame{FrameID: 3}, rec)
	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestMarshalSessionFrame(t *testing.T) {
	in := &SessionFrame{
		SessionID: 2, FrameID: 11, PredictedDisplayTime: 123, PredictedDisplayPeriod: 11_111_111,
		DisplayTime: 456, WhenDelivered: 789, Discarded: true,
	}
	out, err := Unmarshal(Marshal(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
