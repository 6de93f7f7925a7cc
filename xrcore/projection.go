// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// defaultFov is used for the projections of views that can
// not be located.
var defaultFov = xr.SymmetricFov(math32.Pi/4, math32.Pi/4)

// Projection returns the OpenGL style projection matrix of an
// asymmetric field of view, for the given clip plane distances, in
// row major order.
func Projection(fov xr.Fovf, near, far float64) [4][4]float64 {
	l := float64(math32.Tan(fov.AngleLeft))
	r := float64(math32.Tan(fov.AngleRight))
	u := float64(math32.Tan(fov.AngleUp))
	d := float64(math32.Tan(fov.AngleDown))
	var m [4][4]float64
	m[0][0] = 2 / (r - l)
	m[0][2] = (r + l) / (r - l)
	m[1][1] = 2 / (u - d)
	m[1][2] = (u + d) / (u - d)
	m[2][2] = -(far + near) / (far - near)
	m[2][3] = -2 * far * near / (far - near)
	m[3][2] = -1
	return m
}

// GetStaticRenderParameters returns the projection matrices of the
// left and right eye for the given clip plane distances, from the
// fields of view the runtime reports for the current display time.
// Mono devices return the same matrix for both eyes.
func (d *Driver) GetStaticRenderParameters(handle int, near, far float64) ([2][4][4]float64, error) {
	var ms [2][4][4]float64
	if near <= 0 || far <= near {
		return ms, fmt.Errorf("%w: clip planes near %g far %g", ErrInvalidArgument, near, far)
	}
	dev, err := d.device(handle)
	if err != nil {
		return ms, err
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	fovs := [2]xr.Fovf{defaultFov, defaultFov}
	if dev.session != 0 {
		at := dev.frameState.PredictedDisplayTime
		if at <= 0 {
			at = dev.tb.ToXrTime(dev.tb.Now())
		}
		_, views, res := d.rt.LocateViews(dev.session, xr.ViewLocateInfo{
			ViewConfigurationType: dev.viewType,
			DisplayTime:           at,
			Space:                 dev.worldSpace,
		})
		if res.Succeeded() && len(views) > 0 {
			fovs[0] = views[0].Fov
			fovs[1] = views[len(views)-1].Fov
		}
	}
	for eye := range 2 {
		ms[eye] = Projection(fovs[eye], near, far)
	}
	return ms, nil
}
