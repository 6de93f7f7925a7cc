// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build openxr && cgo

package openxr

import (
	"slices"
	"testing"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instance returns an instance of the installed runtime with the
// given extensions if it has them, skipping the test without one.
func instance(t *testing.T, want ...string) (*Runtime, xr.Instance, []string) {
	t.Helper()
	rt, err := Open()
	require.NoError(t, err)
	r := rt.(*Runtime)
	props, res := r.EnumerateInstanceExtensionProperties()
	if res.Failed() {
		t.Skip("no OpenXR runtime:", res)
	}
	var exts []string
	for _, p := range props {
		if slices.Contains(want, p.Name) {
			exts = append(exts, p.Name)
		}
	}
	inst, res := r.CreateInstance(xr.InstanceCreateInfo{
		Application: xr.ApplicationInfo{ApplicationName: "openxr test", APIVersion: xr.Version{Major: 1}},
		Extensions:  exts,
	})
	if res == xr.ErrorRuntimeUnavailable || res == xr.ErrorInitializationFailed {
		t.Skip("no OpenXR runtime:", res)
	}
	require.Equal(t, xr.Success, res)
	t.Cleanup(func() { r.DestroyInstance(inst) })
	return r, inst, exts
}

func TestInstance(t *testing.T) {
	r, inst, _ := instance(t)
	props, res := r.GetInstanceProperties(inst)
	require.Equal(t, xr.Success, res)
	assert.NotEmpty(t, props.RuntimeName)

	p, res := r.StringToPath(inst, "/user/hand/left")
	require.Equal(t, xr.Success, res)
	s, res := r.PathToString(inst, p)
	require.Equal(t, xr.Success, res)
	assert.Equal(t, "/user/hand/left", s)

	_, res = r.PollEvent(inst)
	assert.True(t, res.Succeeded())
}

func TestHeadlessFrameLoop(t *testing.T) {
	r, inst, exts := instance(t, xr.MNDHeadless, xr.EXTDebugUtils)
	if !slices.Contains(exts, xr.MNDHeadless) {
		t.Skip("runtime has no headless sessions")
	}
	sys, res := r.GetSystem(inst, xr.FormFactorHeadMountedDisplay)
	if res.Failed() {
		t.Skip("no XR system:", res)
	}
	props, res := r.GetSystemProperties(inst, sys)
	require.Equal(t, xr.Success, res)
	assert.Equal(t, sys, props.SystemID)

	s, res := r.CreateSession(inst, xr.SessionCreateInfo{SystemID: sys, Binding: xr.GraphicsBindingHeadless{}})
	require.Equal(t, xr.Success, res)
	defer r.DestroySession(s)
	assert.Equal(t, inst, r.instanceOf(s))

	space, res := r.CreateReferenceSpace(s, xr.ReferenceSpaceLocal, xr.IdentityPose)
	require.Equal(t, xr.Success, res)
	defer r.DestroySpace(space)
}
