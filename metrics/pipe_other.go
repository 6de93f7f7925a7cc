// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix

package metrics

import "os"

func openFIFO(path string) (*os.File, error) {
	return os.Open(path)
}
