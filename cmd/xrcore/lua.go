// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/kleinerm/Psychtoolbox-3-sub009/luahost"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
)

func (a *app) lua(args []string) error {
	var o options
	fs := a.flags("lua", "<script> | -e <chunk>", &o)
	chunk := fs.String("e", "", "run this chunk instead of a script file")
	useGLFW := fs.Bool("glfw", false, "bind an OpenGL context of a hidden GLFW window (needs the glfw build tag)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *chunk == "" && fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no script given")
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

	h := &luahost.Host{Driver: s.d, Out: a.out, Binding: func() platform.GraphicsBinding { return binding }}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *chunk != "" {
		return h.RunString(ctx, *chunk)
	}
	return h.RunFile(ctx, fs.Arg(0))
}
