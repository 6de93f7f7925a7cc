// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/iox"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/iox/tomlx"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/iox/yamlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	Name  string
	Rate  float64
	Flags []string
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestOpenFiles(t *testing.T) {
	base := write(t, "base.toml", "Name = \"base\"\nRate = 90.0\n")
	over := write(t, "over.toml", "Rate = 120.0\n")
	var s settings
	require.NoError(t, iox.OpenFiles(&s, []string{base, over}, tomlx.NewDecoder))
	assert.Equal(t, settings{Name: "base", Rate: 120}, s)
}

func TestYAML(t *testing.T) {
	file := write(t, "s.yaml", "Name: hmd\nFlags: [a, b]\n")
	var s settings
	require.NoError(t, iox.Open(&s, file, yamlx.NewDecoder))
	assert.Equal(t, settings{Name: "hmd", Flags: []string{"a", "b"}}, s)

	empty := write(t, "empty.yaml", "")
	assert.NoError(t, iox.Open(&s, empty, yamlx.NewDecoder))
	assert.Equal(t, "hmd", s.Name)
}

func TestOpenErrors(t *testing.T) {
	var s settings
	assert.Error(t, iox.Open(&s, filepath.Join(t.TempDir(), "missing.toml"), tomlx.NewDecoder))
	bad := write(t, "bad.toml", "Name = \n")
	err := iox.Open(&s, bad, tomlx.NewDecoder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}
