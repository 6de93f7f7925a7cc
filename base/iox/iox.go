// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iox reads config files in the encodings of its
// sub-packages through a common [Decoder] interface.
package iox

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Decoder is an interface for standard decoder types
type Decoder interface {
	// Decode decodes from io.Reader specified at creation
	Decode(v any) error
}

// DecoderFunc is a function that creates a new Decoder for given reader
type DecoderFunc func(r io.Reader) Decoder

// Open decodes the file into v.
func Open(v any, filename string, f DecoderFunc) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	if err := f(bufio.NewReader(fp)).Decode(v); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// OpenFiles decodes the files into v in order, so that later
// files overwrite settings of earlier ones.
func OpenFiles(v any, filenames []string, f DecoderFunc) error {
	for _, file := range filenames {
		if err := Open(v, file, f); err != nil {
			return err
		}
	}
	return nil
}
