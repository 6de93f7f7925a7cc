// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kleinerm/Psychtoolbox-3-sub009/luahost"
	"github.com/kleinerm/Psychtoolbox-3-sub009/platform"
	"github.com/mattn/go-shellwords"
	lua "github.com/yuin/gopher-lua"
)

// maxSourceDepth limits nested source commands.
const maxSourceDepth = 8

var errQuit = errors.New("quit")

// shell is the state of the command console. All commands and Lua
// chunks share one driver, so handles stay valid between them.
type shell struct {
	a       *app
	s       *session
	binding platform.GraphicsBinding
	host    *luahost.Host
	L       *lua.LState
	depth   int
}

// shellCommand is one console command.
type shellCommand struct {
	args  string
	short string
	run   func(sh *shell, args []string) error
}

var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"help":        {"", "list the commands", (*shell).help},
		"count":       {"", "number of devices", (*shell).count},
		"open":        {"[index]", "open a device", (*shell).open},
		"close":       {"[handle]", "close a device, or shut down with 0", (*shell).close},
		"session":     {"<handle> [use3D] [multiThreaded]", "create and start the session", (*shell).session},
		"fov":         {"<handle> [eye]", "recommended and maximum texture size", (*shell).fov},
		"chain":       {"<handle> <eye> [width height] [float] [msaa]", "create a swapchain", (*shell).chain},
		"tex":         {"<handle> [eye]", "acquire the next texture", (*shell).tex},
		"present":     {"<handle> [target]", "present the frame", (*shell).present},
		"track":       {"<handle> [time] [mask]", "tracking state", (*shell).track},
		"input":       {"<handle> <controller>", "controller input state", (*shell).input},
		"haptic":      {"<handle> <controller> [duration] [freq] [amplitude]", "haptic pulse", (*shell).haptic},
		"refspace":    {"<handle> [type]", "get or set the reference space", (*shell).refspace},
		"viewtype":    {"<handle> [type]", "get or set the view type", (*shell).viewtype},
		"controllers": {"<handle>", "active controller mask", (*shell).controllers},
		"start":       {"<handle>", "start the presenter thread", (*shell).start},
		"stop":        {"<handle>", "stop the presenter thread", (*shell).stop},
		"verbosity":   {"[level]", "get or set the verbosity", (*shell).verbosity},
		"lua":         {"<chunk>", "run a Lua chunk; openxr is preloaded", (*shell).lua},
		"source":      {"<file>", "run the commands of a file", (*shell).source},
		"quit":        {"", "leave the console", (*shell).quit},
		"exit":        {"", "leave the console", (*shell).quit},
	}
}

func (a *app) shell(args []string) error {
	var o options
	fs := a.flags("shell", "", &o)
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
	sh := &shell{a: a, s: s, binding: binding}
	defer func() {
		if sh.L != nil {
			sh.L.Close()
		}
	}()
	err = sh.run(a.in, a.interactive)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// run executes the commands read from r, one per line. Errors of
// commands are printed and do not stop the console.
func (sh *shell) run(r io.Reader, prompt bool) error {
	sc := bufio.NewScanner(r)
	for {
		if prompt {
			fmt.Fprint(sh.a.out, "xr> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := sh.exec(line)
		if errors.Is(err, errQuit) {
			return err
		}
		if err != nil {
			fmt.Fprintln(sh.a.out, "error:", err)
		}
	}
}

// exec runs one command line.
func (sh *shell) exec(line string) error {
	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	// Lua chunks are passed through without word splitting.
	if name == "lua" {
		return sh.lua([]string{strings.TrimSpace(rest)})
	}
	words, err := shellwords.Parse(line)
	if err != nil {
		return err
	}
	c, ok := shellCommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q; try help", name)
	}
	return c.run(sh, words[1:])
}

func (sh *shell) help(args []string) error {
	names := make([]string, 0, len(shellCommands))
	for n := range shellCommands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := shellCommands[n]
		fmt.Fprintf(sh.a.out, "  %-12s %-48s %s\n", n, c.args, c.short)
	}
	return nil
}

// intArg returns argument i as an int, or def if it is missing.
func intArg(args []string, i, def int) (int, error) {
	if i >= len(args) {
		return def, nil
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", i+1, err)
	}
	return v, nil
}

func floatArg(args []string, i int, def float64) (float64, error) {
	if i >= len(args) {
		return def, nil
	}
	v, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", i+1, err)
	}
	return v, nil
}

func boolArg(args []string, i int) (bool, error) {
	if i >= len(args) {
		return false, nil
	}
	v, err := strconv.ParseBool(args[i])
	if err != nil {
		return false, fmt.Errorf("argument %d: %w", i+1, err)
	}
	return v, nil
}

// handleArg returns the required device handle argument.
func handleArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("missing device handle")
	}
	return intArg(args, 0, 0)
}

func (sh *shell) count(args []string) error {
	n, err := sh.s.d.GetCount()
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.a.out, n)
	return nil
}

func (sh *shell) open(args []string) error {
	idx, err := intArg(args, 0, 0)
	if err != nil {
		return err
	}
	h, model, runtime, eye, err := sh.s.d.Open(idx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "handle %d: %s (%s), eye tracking %d\n", h, model, runtime, eye)
	return nil
}

func (sh *shell) close(args []string) error {
	h, err := intArg(args, 0, 0)
	if err != nil {
		return err
	}
	return sh.s.d.Close(h)
}

func (sh *shell) session(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	use3D, err := boolArg(args, 1)
	if err != nil {
		return err
	}
	mt, err := boolArg(args, 2)
	if err != nil {
		return err
	}
	fd, err := sh.s.d.CreateAndStartSession(h, sh.binding, use3D, mt, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "frame duration %.6f\n", fd)
	return nil
}

func (sh *shell) fov(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	eye, err := intArg(args, 1, 0)
	if err != nil {
		return err
	}
	w, ht, rec, maxMSAA, maxW, maxH, err := sh.s.d.GetFovTextureSize(h, eye)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "%dx%d (max %dx%d), msaa %d (max %d)\n", w, ht, maxW, maxH, rec, maxMSAA)
	return nil
}

func (sh *shell) chain(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: chain <handle> <eye> [width height] [float] [msaa]")
	}
	h, err := intArg(args, 0, 0)
	if err != nil {
		return err
	}
	eye, err := intArg(args, 1, 0)
	if err != nil {
		return err
	}
	w, ht, _, _, _, _, err := sh.s.d.GetFovTextureSize(h, eye)
	if err != nil {
		return err
	}
	if w, err = intArg(args, 2, w); err != nil {
		return err
	}
	if ht, err = intArg(args, 3, ht); err != nil {
		return err
	}
	float, err := boolArg(args, 4)
	if err != nil {
		return err
	}
	msaa, err := intArg(args, 5, 1)
	if err != nil {
		return err
	}
	w, ht, n, format, err := sh.s.d.CreateRenderTextureChain(h, eye, w, ht, float, msaa)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "%dx%d, %d images, format 0x%x\n", w, ht, n, format)
	return nil
}

func (sh *shell) tex(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	eye, err := intArg(args, 1, 0)
	if err != nil {
		return err
	}
	tex, err := sh.s.d.GetNextTextureHandle(h, eye)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.a.out, tex)
	return nil
}

func (sh *shell) present(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	target, err := floatArg(args, 1, 0)
	if err != nil {
		return err
	}
	onset, next, _, err := sh.s.d.PresentFrame(h, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "onset %.6f next %.6f\n", onset, next)
	return nil
}

func (sh *shell) track(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	t, err := floatArg(args, 1, 0)
	if err != nil {
		return err
	}
	mask, err := intArg(args, 2, 3)
	if err != nil {
		return err
	}
	ts, err := sh.s.d.GetTrackingState(h, t, mask)
	if err != nil {
		return err
	}
	out := sh.a.out
	fmt.Fprintf(out, "head   status %d session %d pose %.3f\n", ts.Head.Status, ts.Head.SessionState, ts.Head.Pose)
	for i, hand := range ts.Hands {
		fmt.Fprintf(out, "hand %d status %d pose %.3f\n", i, hand.Status, hand.Pose)
	}
	for _, g := range ts.Gaze {
		fmt.Fprintf(out, "gaze   status %d pose %.3f\n", g.Status, g.Pose)
	}
	return nil
}

func (sh *shell) input(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	c, err := intArg(args, 1, 0)
	if err != nil {
		return err
	}
	st, err := sh.s.d.GetInputState(h, uint32(c))
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "valid %t active 0x%x trigger %.2f grip %.2f thumbstick %v\n",
		st.Valid, st.ActiveInputs, st.Trigger, st.Grip, st.Thumbstick)
	return nil
}

func (sh *shell) haptic(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	c, err := intArg(args, 1, 0)
	if err != nil {
		return err
	}
	dur, err := floatArg(args, 2, 2.5)
	if err != nil {
		return err
	}
	freq, err := floatArg(args, 3, -1)
	if err != nil {
		return err
	}
	amp, err := floatArg(args, 4, 1)
	if err != nil {
		return err
	}
	end, err := sh.s.d.HapticPulse(h, uint32(c), dur, freq, amp)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "ends %.6f\n", end)
	return nil
}

func (sh *shell) refspace(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	t, err := intArg(args, 1, -1)
	if err != nil {
		return err
	}
	old, bounds, err := sh.s.d.ReferenceSpaceType(h, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "%d, stage %gx%g\n", old, bounds.Width, bounds.Height)
	return nil
}

func (sh *shell) viewtype(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	t, err := intArg(args, 1, -1)
	if err != nil {
		return err
	}
	old, err := sh.s.d.ViewType(h, t)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.a.out, old)
	return nil
}

func (sh *shell) controllers(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	m, err := sh.s.d.Controllers(h)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.a.out, "0x%x\n", m)
	return nil
}

func (sh *shell) start(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	return sh.s.d.Start(h)
}

func (sh *shell) stop(args []string) error {
	h, err := handleArg(args)
	if err != nil {
		return err
	}
	return sh.s.d.Stop(h)
}

func (sh *shell) verbosity(args []string) error {
	v, err := intArg(args, 0, -1)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.a.out, sh.s.d.Verbosity(v))
	return nil
}

// lua runs a chunk in the Lua state of the console, creating it on
// first use with the driver module bound to the global openxr.
func (sh *shell) lua(args []string) error {
	chunk := strings.Join(args, " ")
	if chunk == "" {
		return errors.New("usage: lua <chunk>")
	}
	if sh.L == nil {
		sh.host = &luahost.Host{Driver: sh.s.d, Out: sh.a.out, Binding: func() platform.GraphicsBinding { return sh.binding }}
		sh.L = sh.host.NewState(context.Background())
		if err := sh.L.DoString(`openxr = require("` + luahost.ModuleName + `")`); err != nil {
			return err
		}
	}
	return sh.L.DoString(chunk)
}

func (sh *shell) source(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: source <file>")
	}
	if sh.depth >= maxSourceDepth {
		return fmt.Errorf("source nested more than %d deep", maxSourceDepth)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	sh.depth++
	defer func() { sh.depth-- }()
	return sh.run(f, false)
}

func (sh *shell) quit(args []string) error { return errQuit }
