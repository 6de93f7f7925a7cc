// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xr

import "strconv"

// OpenGL internal formats of swapchain images, as returned by
// [Runtime.EnumerateSwapchainFormats].
const (
	GLRGBA8        int64 = 0x8058
	GLRGBA16       int64 = 0x805B
	GLSRGB8Alpha8  int64 = 0x8C43
	GLRGBA32F      int64 = 0x8814
	GLRGBA16F      int64 = 0x881A
	GLRGB16F       int64 = 0x881B
	GLRGB10A2      int64 = 0x8059
	GLR11FG11FB10F int64 = 0x8C3A
	GLDepth24      int64 = 0x81A6
)

var glFormatNames = map[int64]string{
	GLRGBA8:        "GL_RGBA8",
	GLRGBA16:       "GL_RGBA16",
	GLSRGB8Alpha8:  "GL_SRGB8_ALPHA8",
	GLRGBA32F:      "GL_RGBA32F",
	GLRGBA16F:      "GL_RGBA16F",
	GLRGB16F:       "GL_RGB16F",
	GLRGB10A2:      "GL_RGB10_A2",
	GLR11FG11FB10F: "GL_R11F_G11F_B10F",
	GLDepth24:      "GL_DEPTH_COMPONENT24",
}

// GLFormatName returns the symbolic name of an OpenGL internal
// format, or its hex value if unknown.
func GLFormatName(format int64) string {
	if s, ok := glFormatNames[format]; ok {
		return s
	}
	return "0x" + strconv.FormatInt(format, 16)
}
