// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(openxr && cgo)

package openxr

import "github.com/kleinerm/Psychtoolbox-3-sub009/xr"

// Available is whether the binding was built in.
const Available = false

// Open returns [ErrNotBuilt].
func Open() (xr.Runtime, error) { return nil, ErrNotBuilt }
