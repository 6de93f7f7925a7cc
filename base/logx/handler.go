// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"io"
	"log/slog"
	"os"

	"github.com/muesli/termenv"
)

// Prefix is prepended to every message written by handlers
// made with [NewHandler].
var Prefix = "xrcore"

// NewHandler returns a text [slog.Handler] writing to w that filters
// by [UserLevel] and colors the level names when w is a color terminal.
func NewHandler(w io.Writer) slog.Handler {
	out := termenv.NewOutput(w)
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: UserLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(LevelString(out, lvl))
				}
			case slog.MessageKey:
				if Prefix != "" {
					a.Value = slog.StringValue(Prefix + ": " + a.Value.String())
				}
			}
			return a
		},
	})
}

// SetDefaultLogger sets the default logger to one writing to
// [os.Stderr] through [NewHandler].
func SetDefaultLogger() {
	slog.SetDefault(slog.New(NewHandler(os.Stderr)))
}

// LevelString returns the name of the given level, colored for
// the given terminal output.
func LevelString(out *termenv.Output, level slog.Level) string {
	name := level.String()
	if level <= LevelTrace {
		name = "TRACE"
	}
	var c termenv.Color
	switch {
	case level >= slog.LevelError:
		c = out.Color("1")
	case level >= slog.LevelWarn:
		c = out.Color("3")
	case level >= slog.LevelInfo:
		c = out.Color("4")
	default:
		c = out.Color("8")
	}
	return out.String(name).Foreground(c).Bold().String()
}
