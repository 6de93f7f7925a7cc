// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
)

func (a *app) info(args []string) error {
	var o options
	fs := a.flags("info", "", &o)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := o.load()
	if err != nil {
		return err
	}
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.close()
	d := s.d

	name, version, quirks, err := d.Runtime()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "runtime:    %s %s\n", name, version)
	fmt.Fprintf(a.out, "quirks:     %s\n", quirks)
	exts, err := d.Extensions()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "extensions:")
	for _, e := range exts {
		fmt.Fprintf(a.out, "  %s\n", e)
	}
	n, err := d.GetCount()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "devices:    %d\n", n)
	var errs []error
	for i := range n {
		h, model, _, eye, err := d.Open(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(a.out, "device %d:   %s, eye tracking %d\n", i, model, eye)
		for e := range 2 {
			w, ht, rec, maxMSAA, maxW, maxH, err := d.GetFovTextureSize(h, e)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(a.out, "  eye %d:    %dx%d (max %dx%d), msaa %d (max %d)\n", e, w, ht, maxW, maxH, rec, maxMSAA)
		}
		old, bounds, err := d.ReferenceSpaceType(h, -1)
		if err != nil {
			errs = append(errs, err)
		} else {
			fmt.Fprintf(a.out, "  space:    %d, stage %gx%g m\n", old, bounds.Width, bounds.Height)
		}
	}
	return errors.Join(errs...)
}
