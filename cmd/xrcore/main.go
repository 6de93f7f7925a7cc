// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command xrcore drives the XR driver from the command line, on the
// simulated runtime configured in the config file.
//
// Usage:
//
//	xrcore <command> [flags] [args]
//
// Run "xrcore help" for the list of commands.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/logx"
	"golang.org/x/term"
)

// app holds the standard streams of the commands.
type app struct {
	in  io.Reader
	out io.Writer

	// interactive is set if in is a terminal.
	interactive bool
}

// command is one subcommand.
type command struct {
	name  string
	args  string
	short string
	run   func(a *app, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"info", "", "list the runtime, its extensions and devices", (*app).info},
		{"run", "", "open a device and present frames, printing their onsets", (*app).runFrames},
		{"lua", "<script> | -e <chunk>", "run a Lua script with the openxr module", (*app).lua},
		{"shell", "", "interactive command console", (*app).shell},
		{"metrics", "<pipe>", "decode and print a compositor metrics stream", (*app).metrics},
		{"watch", "<url>", "print the present samples of a monitor", (*app).watch},
	}
}

func main() {
	logx.SetDefaultLogger()
	a := &app{in: os.Stdin, out: os.Stdout, interactive: term.IsTerminal(int(os.Stdin.Fd()))}
	os.Exit(a.main(os.Args[1:]))
}

// main runs the command named by the first argument and returns
// the exit code.
func (a *app) main(args []string) int {
	if len(args) == 0 {
		a.usage(os.Stderr)
		return 2
	}
	switch args[0] {
	case "help", "-h", "-help", "--help":
		a.usage(a.out)
		return 0
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		err := c.run(a, args[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 2
		}
		slog.Error(c.name+" failed", "err", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "xrcore: unknown command %q\n", args[0])
	a.usage(os.Stderr)
	return 2
}

func (a *app) usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xrcore <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %-22s %s\n", c.name, c.args, c.short)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Every command takes -config, -v, -vv and -q; see "xrcore <command> -h".`)
}
