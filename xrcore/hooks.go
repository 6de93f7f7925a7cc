// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"context"
	"log/slog"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/logx"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// PresentInfo describes one completed present of a device.
type PresentInfo struct {

	// Handle is the device handle.
	Handle int `json:"handle"`

	// Frame is the runtime frame id of the submitted frame,
	// or 0 if nothing was submitted.
	Frame int64 `json:"frame"`

	// Onset is the estimated visual onset in host seconds, 0 if
	// the present was skipped, or -1 if it failed.
	Onset float64 `json:"onset"`

	// Next is the earliest estimated onset of the next frame.
	Next float64 `json:"next"`

	// Target is the requested onset, or 0 for as soon as possible.
	Target float64 `json:"target"`
}

// HostHooks receives notifications from the driver on behalf of
// the host environment. OnPresent may be called from the presenter
// goroutine and must not block.
type HostHooks interface {

	// OnLogMessage is called with the debug messages of the
	// runtime that pass the verbosity filter.
	OnLogMessage(severity xr.DebugSeverity, function, message string)

	// OnSessionState is called after the session of a device
	// changed its state.
	OnSessionState(handle int, state xr.SessionState)

	// OnPresent is called after each present of a device.
	OnPresent(info PresentInfo)
}

// LogHooks is a [HostHooks] that logs everything through slog.
// It is the default hooks of a [Driver], and can be embedded by
// hooks that only need to handle some of the notifications.
type LogHooks struct{}

func (LogHooks) OnLogMessage(severity xr.DebugSeverity, function, message string) {
	level := slog.LevelDebug
	switch {
	case severity&xr.DebugSeverityError != 0:
		level = slog.LevelError
	case severity&xr.DebugSeverityWarning != 0:
		level = slog.LevelWarn
	case severity&xr.DebugSeverityInfo != 0:
		level = slog.LevelInfo
	}
	slog.Log(context.Background(), level, "runtime: "+message, "function", function)
}

func (LogHooks) OnSessionState(handle int, state xr.SessionState) {
	slog.Info("session state changed", "handle", handle, "state", state)
}

func (LogHooks) OnPresent(info PresentInfo) {
	slog.Log(context.Background(), logx.LevelTrace, "present", "handle", info.Handle, "frame", info.Frame, "onset", info.Onset, "next", info.Next)
}
