// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tomlx provides the TOML [iox.Decoder].
package tomlx

import (
	"io"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/iox"
	"github.com/pelletier/go-toml/v2"
)

// NewDecoder returns a new [iox.Decoder] for TOML
func NewDecoder(r io.Reader) iox.Decoder {
	return toml.NewDecoder(r)
}
