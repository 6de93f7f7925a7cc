// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// CallerInfo returns the call stack of the code that called the
// function that called CallerInfo, formatted as short
// "file:line function" strings, stopping at the runtime or testing
// packages.
func CallerInfo() []string {
	callers := make([]uintptr, 10)
	n := runtime.Callers(3, callers)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(callers[:n])
	var res []string
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") || strings.Contains(frame.File, "testing/") {
			break
		}
		fn := frame.Function
		if i := strings.LastIndexByte(fn, '/'); i >= 0 {
			fn = fn[i+1:]
		}
		res = append(res, fmt.Sprintf("%s:%d %s", filepath.Base(frame.File), frame.Line, fn))
		if !more {
			break
		}
	}
	return res
}
