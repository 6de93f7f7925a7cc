// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import "fmt"

// MaxDevices is the maximum number of simultaneously open devices.
const MaxDevices = 10

// slot is one entry of the device table. gen is incremented
// whenever the slot is reused.
type slot struct {
	dev *Device
	gen uint32
}

// registry is the fixed capacity table of open devices, indexed
// by 1-based handles.
type registry struct {
	slots [MaxDevices]slot
}

// add stores dev in the first free slot and returns its handle.
func (r *registry) add(dev *Device) (int, error) {
	for i := range r.slots {
		s := &r.slots[i]
		if s.dev != nil {
			continue
		}
		s.gen++
		s.dev = dev
		dev.handle = i + 1
		dev.gen = s.gen
		return dev.handle, nil
	}
	return 0, ErrTooManyDevices
}

// get returns the live device with the given handle.
func (r *registry) get(handle int) (*Device, error) {
	if handle < 1 || handle > MaxDevices || r.slots[handle-1].dev == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, handle)
	}
	return r.slots[handle-1].dev, nil
}

// live returns whether dev is still the device in its slot.
func (r *registry) live(dev *Device) bool {
	if dev.handle < 1 || dev.handle > MaxDevices {
		return false
	}
	s := r.slots[dev.handle-1]
	return s.dev == dev && s.gen == dev.gen
}

// remove frees the slot of dev, if it is still live.
func (r *registry) remove(dev *Device) {
	if r.live(dev) {
		r.slots[dev.handle-1].dev = nil
	}
}

// all returns the live devices in handle order.
func (r *registry) all() []*Device {
	var devs []*Device
	for _, s := range r.slots {
		if s.dev != nil {
			devs = append(devs, s.dev)
		}
	}
	return devs
}

// count returns the number of live devices.
func (r *registry) count() int {
	n := 0
	for _, s := range r.slots {
		if s.dev != nil {
			n++
		}
	}
	return n
}
