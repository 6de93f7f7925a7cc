// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"io"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"
)

// Encoder writes length prefixed records to a metrics stream.
// It is safe for concurrent use.
type Encoder struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

// NewEncoder returns a new [Encoder] writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one record.
func (e *Encoder) Encode(r Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	msg := Marshal(r)
	e.buf = protowire.AppendVarint(e.buf[:0], uint64(len(msg)))
	e.buf = append(e.buf, msg...)
	_, err := e.w.Write(e.buf)
	return err
}

// Marshal returns the Record message for r, without length prefix.
// Zero valued fields are omitted.
func Marshal(r Record) []byte {
	var m []byte
	switch r := r.(type) {
	case *Version:
		m = appendVarint(m, 1, uint64(r.Major))
		m = appendVarint(m, 2, uint64(r.Minor))
	case *SessionFrame:
		for i, v := range []uint64{
			uint64(r.SessionID), uint64(r.FrameID), r.PredictedFrameTime,
			r.PredictedWakeUpTime, r.PredictedGPUDoneTime, r.PredictedDisplayTime,
			r.PredictedDisplayPeriod, r.DisplayTime, r.WhenPredicted, r.WhenWaitWoke,
			r.WhenBegin, r.WhenDelivered, r.WhenGPUDone,
		} {
			m = appendVarint(m, protowire.Number(i+1), v)
		}
		m = appendVarint(m, 14, protowire.EncodeBool(r.Discarded))
	case *Used:
		m = appendVarint(m, 1, uint64(r.SessionID))
		m = appendVarint(m, 2, uint64(r.SessionFrameID))
		m = appendVarint(m, 3, uint64(r.SystemFrameID))
		m = appendVarint(m, 4, r.When)
	case *SystemFrame:
		m = appendVarint(m, 1, uint64(r.FrameID))
	case *SystemGPUInfo:
		m = appendVarint(m, 1, uint64(r.FrameID))
	case *SystemPresentInfo:
		m = appendVarint(m, 1, uint64(r.FrameID))
		m = appendVarint(m, 8, r.ActualPresentTime)
		m = appendVarint(m, 9, r.DesiredPresentTime)
	}
	b := protowire.AppendTag(nil, r.recordField(), protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}
