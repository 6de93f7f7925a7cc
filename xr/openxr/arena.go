// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build openxr && cgo

package openxr

// #include "glue.h"
import "C"
import (
	"unsafe"

	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// arena is C memory for the input structs of one call that point to
// other structs, which cgo does not allow in Go memory.
type arena struct {
	ptrs []unsafe.Pointer
}

// alloc returns n zeroed elements of size bytes each.
func (a *arena) alloc(n, size int) unsafe.Pointer {
	p := C.calloc(C.size_t(max(n, 1)), C.size_t(size))
	if p == nil {
		panic("openxr: out of C memory")
	}
	a.ptrs = append(a.ptrs, p)
	return p
}

// cstring returns s as a C string.
func (a *arena) cstring(s string) *C.char {
	p := C.CString(s)
	a.ptrs = append(a.ptrs, unsafe.Pointer(p))
	return p
}

// cstrings returns ss as a C array of C strings.
func (a *arena) cstrings(ss []string) **C.char {
	if len(ss) == 0 {
		return nil
	}
	arr := unsafe.Slice((**C.char)(a.alloc(len(ss), int(unsafe.Sizeof((*C.char)(nil))))), len(ss))
	for i, s := range ss {
		arr[i] = a.cstring(s)
	}
	return &arr[0]
}

func (a *arena) free() {
	for _, p := range a.ptrs {
		C.free(p)
	}
	a.ptrs = nil
}

// setName copies s into a fixed size C char array.
func setName(dst []C.char, s string) {
	s = copyName(s, len(dst))
	for i := range len(s) {
		dst[i] = C.char(s[i])
	}
	dst[len(s)] = 0
}

func goName(src []C.char) string { return C.GoString(&src[0]) }

func toBool(b C.XrBool32) bool { return b != 0 }

func toVector3(v xr.Vector3f) C.XrVector3f {
	return C.XrVector3f{x: C.float(v.X), y: C.float(v.Y), z: C.float(v.Z)}
}

func fromVector3(v C.XrVector3f) xr.Vector3f {
	return xr.Vector3f{X: float32(v.x), Y: float32(v.y), Z: float32(v.z)}
}

func toPose(p xr.Posef) C.XrPosef {
	o := p.Orientation
	return C.XrPosef{
		orientation: C.XrQuaternionf{x: C.float(o.X), y: C.float(o.Y), z: C.float(o.Z), w: C.float(o.W)},
		position:    toVector3(p.Position),
	}
}

func fromPose(p C.XrPosef) xr.Posef {
	o := p.orientation
	return xr.Posef{
		Orientation: xr.Quaternionf{X: float32(o.x), Y: float32(o.y), Z: float32(o.z), W: float32(o.w)},
		Position:    fromVector3(p.position),
	}
}

func toFov(f xr.Fovf) C.XrFovf {
	return C.XrFovf{angleLeft: C.float(f.AngleLeft), angleRight: C.float(f.AngleRight), angleUp: C.float(f.AngleUp), angleDown: C.float(f.AngleDown)}
}

func fromFov(f C.XrFovf) xr.Fovf {
	return xr.Fovf{AngleLeft: float32(f.angleLeft), AngleRight: float32(f.angleRight), AngleUp: float32(f.angleUp), AngleDown: float32(f.angleDown)}
}

func toSubImage(s xr.SwapchainSubImage) C.XrSwapchainSubImage {
	r := s.ImageRect
	return C.XrSwapchainSubImage{
		swapchain: C.gxSwapchain(C.uint64_t(s.Swapchain)),
		imageRect: C.XrRect2Di{
			offset: C.XrOffset2Di{x: C.int32_t(r.Offset.X), y: C.int32_t(r.Offset.Y)},
			extent: C.XrExtent2Di{width: C.int32_t(r.Extent.Width), height: C.int32_t(r.Extent.Height)},
		},
		imageArrayIndex: C.uint32_t(s.ImageArrayIndex),
	}
}

// layers returns the composition layers as a C array of layer
// header pointers.
func (a *arena) layers(ls []xr.CompositionLayer) **C.XrCompositionLayerBaseHeader {
	if len(ls) == 0 {
		return nil
	}
	arr := unsafe.Slice((**C.XrCompositionLayerBaseHeader)(a.alloc(len(ls), int(unsafe.Sizeof((*C.XrCompositionLayerBaseHeader)(nil))))), len(ls))
	for i, l := range ls {
		switch l := l.(type) {
		case *xr.CompositionLayerQuad:
			q := (*C.XrCompositionLayerQuad)(a.alloc(1, int(C.sizeof_XrCompositionLayerQuad)))
			q._type = C.XR_TYPE_COMPOSITION_LAYER_QUAD
			q.layerFlags = C.XrCompositionLayerFlags(l.Flags)
			q.space = C.gxSpace(C.uint64_t(l.Space))
			q.eyeVisibility = C.XrEyeVisibility(l.EyeVisibility)
			q.subImage = toSubImage(l.SubImage)
			q.pose = toPose(l.Pose)
			q.size = C.XrExtent2Df{width: C.float(l.Size.Width), height: C.float(l.Size.Height)}
			arr[i] = (*C.XrCompositionLayerBaseHeader)(unsafe.Pointer(q))
		case *xr.CompositionLayerProjection:
			views := unsafe.Slice((*C.XrCompositionLayerProjectionView)(a.alloc(len(l.Views), int(C.sizeof_XrCompositionLayerProjectionView))), len(l.Views))
			for j, v := range l.Views {
				views[j]._type = C.XR_TYPE_COMPOSITION_LAYER_PROJECTION_VIEW
				views[j].pose = toPose(v.Pose)
				views[j].fov = toFov(v.Fov)
				views[j].subImage = toSubImage(v.SubImage)
			}
			p := (*C.XrCompositionLayerProjection)(a.alloc(1, int(C.sizeof_XrCompositionLayerProjection)))
			p._type = C.XR_TYPE_COMPOSITION_LAYER_PROJECTION
			p.layerFlags = C.XrCompositionLayerFlags(l.Flags)
			p.space = C.gxSpace(C.uint64_t(l.Space))
			p.viewCount = C.uint32_t(len(l.Views))
			if len(l.Views) > 0 {
				p.views = &views[0]
			}
			arr[i] = (*C.XrCompositionLayerBaseHeader)(unsafe.Pointer(p))
		default:
			panic("openxr: unsupported composition layer type")
		}
	}
	return &arr[0]
}
