// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build openxr && cgo

package openxr

// #include <stdint.h>
import "C"
import (
	"sync"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// callbacks holds the debug callbacks by the id passed to the runtime
// as user data, as Go pointers must not be kept by C.
var callbacks = struct {
	sync.Mutex
	next uintptr
	m    map[uintptr]xr.DebugCallback
}{m: map[uintptr]xr.DebugCallback{}}

func registerCallback(cb xr.DebugCallback) uintptr {
	callbacks.Lock()
	defer callbacks.Unlock()
	callbacks.next++
	callbacks.m[callbacks.next] = cb
	return callbacks.next
}

func unregisterCallback(id uintptr) {
	callbacks.Lock()
	defer callbacks.Unlock()
	delete(callbacks.m, id)
}

//export goDebugMessage
func goDebugMessage(severity, types C.uint32_t, id, function, message *C.char, user C.uintptr_t) C.uint32_t {
	callbacks.Lock()
	cb := callbacks.m[uintptr(user)]
	callbacks.Unlock()
	if cb == nil {
		return 0
	}
	msg := xr.DebugMessage{
		Severity: xr.DebugSeverity(severity),
		Types:    uint32(types),
		Message:  C.GoString(message),
	}
	if id != nil {
		msg.MessageID = C.GoString(id)
	}
	if function != nil {
		msg.FunctionName = C.GoString(function)
	}
	if cb(msg) {
		return 1
	}
	return 0
}
