// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx provides the logging level handling for the driver:
// the user-selected verbosity level, conversion between numeric
// verbosity values and [slog.Level]s, and a terminal-aware default
// [slog.Handler].
package logx

import "log/slog"

const (
	// LevelTrace is below [slog.LevelDebug] and is used for very verbose
	// per-frame output.
	LevelTrace = slog.LevelDebug - 4

	// LevelSilent is above every level that is ever logged.
	LevelSilent = slog.LevelError + 4
)

// UserLevel is the verbosity level that the user has selected for
// what logging and printing messages should be shown. Messages at
// levels at or above this level will be shown. It is safe to change
// concurrently with logging.
var UserLevel = new(slog.LevelVar)

func init() {
	UserLevel.Set(defaultUserLevel)
}

// LevelFromFlags returns the [slog.Level] object corresponding to the given
// user flag options. The flags correspond to the following values:
//   - vv: [slog.LevelDebug]
//   - v: [slog.LevelInfo]
//   - q: [slog.LevelError]
//   - (default: [slog.LevelWarn])
//
// The flags are evaluated in that order, so, for example, if both
// vv and q are specified, it will still return [slog.LevelDebug].
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// LevelFromVerbosity maps a numeric verbosity as used by the host
// scripting layer (0 silent, 1 errors, 2 warnings, 3 info, 4-6 debug,
// 7 and above trace) onto a [slog.Level].
func LevelFromVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return LevelSilent
	case verbosity == 1:
		return slog.LevelError
	case verbosity == 2:
		return slog.LevelWarn
	case verbosity == 3:
		return slog.LevelInfo
	case verbosity <= 6:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// VerbosityFromLevel is the inverse of [LevelFromVerbosity], returning
// the lowest verbosity that enables the given level.
func VerbosityFromLevel(level slog.Level) int {
	switch {
	case level >= LevelSilent:
		return 0
	case level >= slog.LevelError:
		return 1
	case level >= slog.LevelWarn:
		return 2
	case level >= slog.LevelInfo:
		return 3
	case level > LevelTrace:
		return 4
	default:
		return 7
	}
}

// SetVerbosity sets [UserLevel] from the given numeric verbosity
// and returns the previous verbosity.
func SetVerbosity(verbosity int) int {
	old := VerbosityFromLevel(UserLevel.Level())
	UserLevel.Set(LevelFromVerbosity(verbosity))
	return old
}

// Enabled returns whether messages at the given level are currently shown.
func Enabled(level slog.Level) bool {
	return level >= UserLevel.Level()
}
