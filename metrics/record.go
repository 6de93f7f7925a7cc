// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics recovers accurate visual onset times of submitted
// frames from the metrics stream of a compositor that does not report
// them through the OpenXR api. The stream is a sequence of varint
// length prefixed protobuf Record messages, read from a named pipe.
package metrics

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers of the Record oneof.
const (
	fieldVersion           protowire.Number = 1
	fieldSessionFrame      protowire.Number = 2
	fieldUsed              protowire.Number = 3
	fieldSystemFrame       protowire.Number = 4
	fieldSystemGPUInfo     protowire.Number = 5
	fieldSystemPresentInfo protowire.Number = 6
)

// Record is one of the record types of the stream.
type Record interface {
	recordField() protowire.Number
}

// Version is the protocol version, sent first.
type Version struct {
	Major uint32 // 1
	Minor uint32 // 2
}

// SessionFrame is sent when a client submits a frame.
type SessionFrame struct {
	SessionID              int64  // 1
	FrameID                int64  // 2
	PredictedFrameTime     uint64 // 3
	PredictedWakeUpTime    uint64 // 4
	PredictedGPUDoneTime   uint64 // 5
	PredictedDisplayTime   uint64 // 6
	PredictedDisplayPeriod uint64 // 7
	DisplayTime            uint64 // 8
	WhenPredicted          uint64 // 9
	WhenWaitWoke           uint64 // 10
	WhenBegin              uint64 // 11
	WhenDelivered          uint64 // 12
	WhenGPUDone            uint64 // 13
	Discarded              bool   // 14
}

// Used is sent when a client frame is first used by a system frame.
type Used struct {
	SessionID      int64  // 1
	SessionFrameID int64  // 2
	SystemFrameID  int64  // 3
	When           uint64 // 4
}

// SystemFrame is sent per compositor frame. Only the id is decoded.
type SystemFrame struct {
	FrameID int64 // 1
}

// SystemGPUInfo is sent per compositor frame. Only the id is decoded.
type SystemGPUInfo struct {
	FrameID int64 // 1
}

// SystemPresentInfo is sent when the compositor learns the actual
// present time of a system frame.
type SystemPresentInfo struct {
	FrameID            int64  // 1
	ActualPresentTime  uint64 // 8
	DesiredPresentTime uint64 // 9
}

func (*Version) recordField() protowire.Number           { return fieldVersion }
func (*SessionFrame) recordField() protowire.Number      { return fieldSessionFrame }
func (*Used) recordField() protowire.Number              { return fieldUsed }
func (*SystemFrame) recordField() protowire.Number       { return fieldSystemFrame }
func (*SystemGPUInfo) recordField() protowire.Number     { return fieldSystemGPUInfo }
func (*SystemPresentInfo) recordField() protowire.Number { return fieldSystemPresentInfo }
