// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	err := Errorf("open config: %w", fs.ErrNotExist)
	assert.True(t, Is(err, fs.ErrNotExist))

	var e *Error
	assert.True(t, As(err, &e))
	assert.Contains(t, e.Error(), "open config")
	if Debug {
		assert.NotEmpty(t, e.Stack)
	} else {
		assert.Empty(t, e.Stack)
	}
}

type recorder struct {
	errs []any
}

func (r *recorder) Error(args ...any) {
	r.errs = append(r.errs, args...)
}

func TestHelpers(t *testing.T) {
	r := &recorder{}
	v := Test1(r, 3, nil)
	assert.Equal(t, 3, v)
	assert.Empty(t, r.errs)

	Test(r, New("bad"))
	assert.Len(t, r.errs, 1)

	assert.Equal(t, "x", Log1("x", fmt.Errorf("logged")))
	assert.Equal(t, 5, Ignore1(5, New("ignored")))
	assert.Panics(t, func() { Must(New("boom")) })
	assert.NotPanics(t, func() { Must1(1, nil) })
}
