// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned for records that can not be decoded.
var ErrMalformed = errors.New("metrics: malformed record")

// MaxRecordSize is the largest accepted record.
const MaxRecordSize = 1 << 20

// Decoder reads records from a metrics stream.
type Decoder struct {
	r   *bufio.Reader
	buf []byte
}

// NewDecoder returns a new [Decoder] reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next known record. Records of unknown type are
// skipped. It returns [io.EOF] at the clean end of the stream, and
// an error wrapping [ErrMalformed] for undecodable data.
func (d *Decoder) Next() (Record, error) {
	for {
		n, err := binary.ReadUvarint(d.r)
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: length: %w", ErrMalformed, err)
		}
		if n > MaxRecordSize {
			return nil, fmt.Errorf("%w: record size %d", ErrMalformed, n)
		}
		if cap(d.buf) < int(n) {
			d.buf = make([]byte, n)
		}
		d.buf = d.buf[:n]
		if _, err := io.ReadFull(d.r, d.buf); err != nil {
			return nil, fmt.Errorf("%w: truncated record: %w", ErrMalformed, err)
		}
		rec, err := Unmarshal(d.buf)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
}

// Unmarshal decodes one Record message without its length prefix.
// It returns a nil record if the message has no known record field.
func Unmarshal(b []byte) (Record, error) {
	var rec Record
	err := fields(b, func(num protowire.Number, _ uint64, sub []byte) error {
		var r Record
		switch num {
		case fieldVersion:
			r = &Version{}
		case fieldSessionFrame:
			r = &SessionFrame{}
		case fieldUsed:
			r = &Used{}
		case fieldSystemFrame:
			r = &SystemFrame{}
		case fieldSystemGPUInfo:
			r = &SystemGPUInfo{}
		case fieldSystemPresentInfo:
			r = &SystemPresentInfo{}
		default:
			return nil
		}
		if sub == nil {
			return fmt.Errorf("%w: record field %d is not a message", ErrMalformed, num)
		}
		if err := unmarshalRecord(r, sub); err != nil {
			return err
		}
		rec = r
		return nil
	})
	return rec, err
}

func unmarshalRecord(r Record, b []byte) error {
	return fields(b, func(num protowire.Number, v uint64, _ []byte) error {
		switch r := r.(type) {
		case *Version:
			switch num {
			case 1:
				r.Major = uint32(v)
			case 2:
				r.Minor = uint32(v)
			}
		case *SessionFrame:
			switch num {
			case 1:
				r.SessionID = int64(v)
			case 2:
				r.FrameID = int64(v)
			case 3:
				r.PredictedFrameTime = v
			case 4:
				r.PredictedWakeUpTime = v
			case 5:
				r.PredictedGPUDoneTime = v
			case 6:
				r.PredictedDisplayTime = v
			case 7:
				r.PredictedDisplayPeriod = v
			case 8:
				r.DisplayTime = v
			case 9:
				r.WhenPredicted = v
			case 10:
				r.WhenWaitWoke = v
			case 11:
				r.WhenBegin = v
			case 12:
				r.WhenDelivered = v
			case 13:
				r.WhenGPUDone = v
			case 14:
				r.Discarded = v != 0
			}
		case *Used:
			switch num {
			case 1:
				r.SessionID = int64(v)
			case 2:
				r.SessionFrameID = int64(v)
			case 3:
				r.SystemFrameID = int64(v)
			case 4:
				r.When = v
			}
		case *SystemFrame:
			if num == 1 {
				r.FrameID = int64(v)
			}
		case *SystemGPUInfo:
			if num == 1 {
				r.FrameID = int64(v)
			}
		case *SystemPresentInfo:
			switch num {
			case 1:
				r.FrameID = int64(v)
			case 8:
				r.ActualPresentTime = v
			case 9:
				r.DesiredPresentTime = v
			}
		}
		return nil
	})
}

// fields calls f for each field of the message b, with the value of
// varint and fixed size fields in v, and the contents of length
// delimited fields in sub (nil for other wire types).
func fields(b []byte, f func(num protowire.Number, v uint64, sub []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		var v uint64
		var sub []byte
		switch typ {
		case protowire.VarintType:
			v, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			v, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			var v32 uint32
			v32, n = protowire.ConsumeFixed32(b)
			v = uint64(v32)
		case protowire.BytesType:
			sub, n = protowire.ConsumeBytes(b)
			if sub == nil && n >= 0 {
				sub = []byte{}
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := f(num, v, sub); err != nil {
			return err
		}
	}
	return nil
}
