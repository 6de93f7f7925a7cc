// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/logx"
)

// frameStats summarizes the intervals between presented frames.
type frameStats struct {
	n        int
	min, max float64
	sum      float64
	missed   int
}

// add adds the interval between two onsets; intervals of more than
// one and a half frame durations count as missed frames.
func (st *frameStats) add(interval, frameDuration float64) {
	if st.n == 0 {
		st.min, st.max = interval, interval
	}
	st.n++
	st.sum += interval
	st.min = min(st.min, interval)
	st.max = max(st.max, interval)
	if interval > 1.5*frameDuration {
		st.missed++
	}
}

func (st *frameStats) String() string {
	if st.n == 0 {
		return "no intervals"
	}
	return fmt.Sprintf("%d intervals: mean %.3f ms, min %.3f ms, max %.3f ms, %d missed",
		st.n, 1000*st.sum/float64(st.n), 1000*st.min, 1000*st.max, st.missed)
}

func (a *app) runFrames(args []string) error {
	var o options
	fs := a.flags("run", "", &o)
	n := fs.Int("n", 100, "number of frames to present")
	device := fs.Int("device", 0, "device index")
	mt := fs.Bool("mt", false, "use the presenter thread (overrides MultiThreaded)")
	stereo := fs.Bool("stereo", true, "create a swapchain per eye")
	ahead := fs.Float64("ahead", 0, "present each frame this many frame durations after the previous onset; 0 presents as soon as possible")
	useGLFW := fs.Bool("glfw", false, "bind an OpenGL context of a hidden GLFW window (needs the glfw build tag)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := o.load()
	if err != nil {
		return err
	}
	binding, release, err := newBinding(*useGLFW, cfg.Sim.Width, cfg.Sim.Height)
	if err != nil {
		return err
	}
	defer release()
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.close()
	d := s.d

	h, model, runtime, _, err := d.Open(*device)
	if err != nil {
		return err
	}
	logx.PrintlnInfo("presenting on", model, "of", runtime)
	fd, err := d.CreateAndStartSession(h, binding, cfg.Use3D, cfg.MultiThreaded || *mt, nil)
	if err != nil {
		return err
	}
	eyes := 1
	if *stereo {
		eyes = 2
	}
	for eye := range eyes {
		w, ht, _, _, _, _, err := d.GetFovTextureSize(h, eye)
		if err != nil {
			return err
		}
		if _, _, _, _, err := d.CreateRenderTextureChain(h, eye, w, ht, cfg.FloatFormat, cfg.MSAA); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "frame duration %.3f ms\n", 1000*fd)

	var st frameStats
	last := 0.0
	for i := range *n {
		for eye := range eyes {
			tex, err := d.GetNextTextureHandle(h, eye)
			if err != nil {
				return err
			}
			if tex < 0 {
				logx.PrintlnWarn("frame", i, "eye", eye, "had no image in time")
			}
		}
		target := 0.0
		if *ahead > 0 && last > 0 {
			target = last + *ahead*fd
		}
		onset, next, _, err := d.PresentFrame(h, target)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "frame %4d onset %.6f next %.6f", i, onset, next)
		if last > 0 && onset > 0 {
			fmt.Fprintf(a.out, " delta %.3f ms", 1000*(onset-last))
			st.add(onset-last, fd)
		}
		fmt.Fprintln(a.out)
		if onset > 0 {
			last = onset
		}
	}
	fmt.Fprintln(a.out, st.String())
	if *n > 1 && st.n == 0 {
		return errors.New("no frame was presented")
	}
	return d.Close(h)
}
