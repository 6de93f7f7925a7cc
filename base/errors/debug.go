// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build debug

package errors

// Debug is whether to record the call stack in errors made by [Wrap].
var Debug = true
