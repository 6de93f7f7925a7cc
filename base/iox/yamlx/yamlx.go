// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package yamlx provides the YAML [iox.Decoder].
package yamlx

import (
	"errors"
	"io"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/iox"
	"gopkg.in/yaml.v3"
)

// decoder treats an empty document as an empty object
// instead of returning [io.EOF].
type decoder struct {
	*yaml.Decoder
}

func (d decoder) Decode(v any) error {
	err := d.Decoder.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// NewDecoder returns a new [iox.Decoder] for YAML
func NewDecoder(r io.Reader) iox.Decoder {
	return decoder{yaml.NewDecoder(r)}
}
