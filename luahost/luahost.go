// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package luahost exposes the entry points of an [xrcore.Driver] to Lua
// scripts as the module "openxr".
//
// Optional arguments may be nil or omitted, multiple results are
// returned as multiple Lua values, and structs become tables with the
// Go field names. Driver errors raise Lua errors.
package luahost

import (
	"context"
	"fmt"
	"io"

	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xrcore"
	lua "github.com/yuin/gopher-lua"
)

// ModuleName is the name scripts require the driver module by.
const ModuleName = "openxr"

// Host binds a driver to Lua states.
type Host struct {

	// Driver is the driver the entry points call.
	Driver *xrcore.Driver

	// Binding returns the graphics binding for a new session.
	// Nil uses a [platform.HeadlessBinding].
	Binding func() platform.GraphicsBinding

	// Out receives the output of the Lua print function. Nil keeps
	// the default print.
	Out io.Writer
}

// NewState returns a new Lua state with the module preloaded. The
// state is canceled with ctx.
func (h *Host) NewState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	if ctx != nil {
		L.SetContext(ctx)
	}
	L.PreloadModule(ModuleName, h.Loader)
	if h.Out != nil {
		L.SetGlobal("print", L.NewFunction(h.print))
	}
	return L
}

// RunString runs a Lua chunk in a fresh state.
func (h *Host) RunString(ctx context.Context, src string) error {
	L := h.NewState(ctx)
	defer L.Close()
	return L.DoString(src)
}

// RunFile runs a Lua script file in a fresh state.
func (h *Host) RunFile(ctx context.Context, file string) error {
	L := h.NewState(ctx)
	defer L.Close()
	return L.DoFile(file)
}

func (h *Host) print(L *lua.LState) int {
	n := L.GetTop()
	for i := 1; i <= n; i++ {
		if i > 1 {
			fmt.Fprint(h.Out, "\t")
		}
		fmt.Fprint(h.Out, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(h.Out)
	return 0
}

// Loader is the [lua.LGFunction] that loads the module.
func (h *Host) Loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), h.exports())
	L.SetField(mod, "TrackHead", lua.LNumber(xrcore.TrackHead))
	L.SetField(mod, "TrackHands", lua.LNumber(xrcore.TrackHands))
	L.SetField(mod, "TrackGaze", lua.LNumber(xrcore.TrackGaze))
	L.Push(mod)
	return 1
}

// entry is an entry point returning the number of pushed results.
type entry func(L *lua.LState) (int, error)

// wrap turns an entry point into a Lua function raising its errors.
func wrap(name string, f entry) lua.LGFunction {
	return func(L *lua.LState) int {
		n, err := f(L)
		if err != nil {
			L.RaiseError("%s.%s: %v", ModuleName, name, err)
			return 0
		}
		return n
	}
}

func (h *Host) exports() map[string]lua.LGFunction {
	d := h.Driver
	entries := map[string]entry{
		"Verbosity": func(L *lua.LState) (int, error) {
			L.Push(lua.LNumber(d.Verbosity(L.OptInt(1, -1))))
			return 1, nil
		},
		"GetCount": func(L *lua.LState) (int, error) {
			n, err := d.GetCount()
			L.Push(lua.LNumber(n))
			return 1, err
		},
		"Open": func(L *lua.LState) (int, error) {
			handle, model, runtime, eye, err := d.Open(L.OptInt(1, 0))
			if err != nil {
				return 0, err
			}
			pushNumbers(L, float64(handle))
			L.Push(lua.LString(model))
			L.Push(lua.LString(runtime))
			pushNumbers(L, float64(eye))
			return 4, nil
		},
		"Close": func(L *lua.LState) (int, error) {
			return 0, d.Close(L.OptInt(1, 0))
		},
		"CreateAndStartSession": func(L *lua.LState) (int, error) {
			var copyTex []uint32
			if t, ok := L.Get(4).(*lua.LTable); ok {
				copyTex = make([]uint32, 0, t.Len())
				for i := 1; i <= t.Len(); i++ {
					n, ok := t.RawGetInt(i).(lua.LNumber)
					if !ok {
						return 0, fmt.Errorf("copy texture %d is not a number", i)
					}
					copyTex = append(copyTex, uint32(n))
				}
			}
			fd, err := d.CreateAndStartSession(L.CheckInt(1), h.binding(), L.OptBool(2, false), L.OptBool(3, false), copyTex)
			pushNumbers(L, fd)
			return 1, err
		},
		"GetFovTextureSize": func(L *lua.LState) (int, error) {
			w, ht, rec, maxMSAA, maxW, maxH, err := d.GetFovTextureSize(L.CheckInt(1), L.OptInt(2, 0))
			if err != nil {
				return 0, err
			}
			return pushNumbers(L, float64(w), float64(ht), float64(rec), float64(maxMSAA), float64(maxW), float64(maxH)), nil
		},
		"CreateRenderTextureChain": func(L *lua.LState) (int, error) {
			w, ht, n, format, err := d.CreateRenderTextureChain(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4), L.OptBool(5, false), L.OptInt(6, 1))
			if err != nil {
				return 0, err
			}
			return pushNumbers(L, float64(w), float64(ht), float64(n), float64(format)), nil
		},
		"GetNextTextureHandle": func(L *lua.LState) (int, error) {
			tex, err := d.GetNextTextureHandle(L.CheckInt(1), L.OptInt(2, 0))
			return pushNumbers(L, float64(tex)), err
		},
		"EndFrameRender": func(L *lua.LState) (int, error) {
			return 0, d.EndFrameRender(L.CheckInt(1), L.OptInt(2, -1))
		},
		"PresentFrame": func(L *lua.LState) (int, error) {
			onset, next, flip, err := d.PresentFrame(L.CheckInt(1), float64(L.OptNumber(2, 0)))
			return pushNumbers(L, onset, next, flip), err
		},
		"GetTrackingState": func(L *lua.LState) (int, error) {
			ts, err := d.GetTrackingState(L.CheckInt(1), float64(L.OptNumber(2, 0)), L.OptInt(3, xrcore.TrackHead|xrcore.TrackHands))
			if err != nil {
				return 0, err
			}
			L.Push(headTable(L, ts.Head))
			hands := L.NewTable()
			for _, hs := range ts.Hands {
				hands.Append(handTable(L, hs))
			}
			L.Push(hands)
			gaze := L.NewTable()
			for _, g := range ts.Gaze {
				gaze.Append(gazeTable(L, g))
			}
			L.Push(gaze)
			return 3, nil
		},
		"GetInputState": func(L *lua.LState) (int, error) {
			is, err := d.GetInputState(L.CheckInt(1), uint32(L.CheckNumber(2)))
			if err != nil {
				return 0, err
			}
			L.Push(inputTable(L, is))
			return 1, nil
		},
		"HapticPulse": func(L *lua.LState) (int, error) {
			end, err := d.HapticPulse(L.CheckInt(1), uint32(L.CheckNumber(2)), float64(L.OptNumber(3, 2.5)),
				float64(L.OptNumber(4, xrcore.FreqUnspecified)), float64(L.OptNumber(5, 1)))
			return pushNumbers(L, end), err
		},
		"ReferenceSpaceType": func(L *lua.LState) (int, error) {
			old, bounds, err := d.ReferenceSpaceType(L.CheckInt(1), L.OptInt(2, -1))
			if err != nil {
				return 0, err
			}
			pushNumbers(L, float64(old))
			L.Push(numbers(L, float64(bounds.Width), float64(bounds.Height)))
			return 2, nil
		},
		"ViewType": func(L *lua.LState) (int, error) {
			old, err := d.ViewType(L.CheckInt(1), L.OptInt(2, -1))
			return pushNumbers(L, float64(old)), err
		},
		"Controllers": func(L *lua.LState) (int, error) {
			mask, err := d.Controllers(L.CheckInt(1))
			return pushNumbers(L, float64(mask)), err
		},
		"GetStaticRenderParameters": func(L *lua.LState) (int, error) {
			ms, err := d.GetStaticRenderParameters(L.CheckInt(1), float64(L.OptNumber(2, 0.01)), float64(L.OptNumber(3, 10000)))
			if err != nil {
				return 0, err
			}
			for _, m := range ms {
				L.Push(matrixTable(L, m))
			}
			return 2, nil
		},
		"Start": func(L *lua.LState) (int, error) {
			return 0, d.Start(L.CheckInt(1))
		},
		"Stop": func(L *lua.LState) (int, error) {
			return 0, d.Stop(L.CheckInt(1))
		},
		"Now": func(L *lua.LState) (int, error) {
			return pushNumbers(L, d.Now()), nil
		},
	}
	fns := make(map[string]lua.LGFunction, len(entries))
	for name, f := range entries {
		fns[name] = wrap(name, f)
	}
	return fns
}

func (h *Host) binding() platform.GraphicsBinding {
	if h.Binding != nil {
		return h.Binding()
	}
	return &platform.HeadlessBinding{}
}
