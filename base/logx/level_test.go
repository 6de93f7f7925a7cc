// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestLevelFromFlags(t *testing.T) {
	l := LevelFromFlags(true, false, false)
	if l != slog.LevelDebug {
		t.Errorf("expected LevelFromFlags(true, false, false) = %v, but got %v", slog.LevelDebug, l)
	}
	l = LevelFromFlags(false, true, true)
	if l != slog.LevelInfo {
		t.Errorf("expected LevelFromFlags(false, true, true) = %v, but got %v", slog.LevelInfo, l)
	}
	l = LevelFromFlags(false, false, true)
	if l != slog.LevelError {
		t.Errorf("expected LevelFromFlags(false, false, true) = %v, but got %v", slog.LevelError, l)
	}
	l = LevelFromFlags(false, false, false)
	if l != slog.LevelWarn {
		t.Errorf("expected LevelFromFlags(false, false, false) = %v, but got %v", slog.LevelWarn, l)
	}
}

func TestVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		level     slog.Level
		back      int
	}{
		{-1, LevelSilent, 0},
		{0, LevelSilent, 0},
		{1, slog.LevelError, 1},
		{2, slog.LevelWarn, 2},
		{3, slog.LevelInfo, 3},
		{5, slog.LevelDebug, 4},
		{10, LevelTrace, 7},
	}
	for _, tt := range tests {
		l := LevelFromVerbosity(tt.verbosity)
		if l != tt.level {
			t.Errorf("LevelFromVerbosity(%d) = %v, want %v", tt.verbosity, l, tt.level)
		}
		if v := VerbosityFromLevel(l); v != tt.back {
			t.Errorf("VerbosityFromLevel(%v) = %d, want %d", l, v, tt.back)
		}
	}
}

func TestSetVerbosity(t *testing.T) {
	defer UserLevel.Set(UserLevel.Level())
	SetVerbosity(2)
	if old := SetVerbosity(4); old != 2 {
		t.Errorf("expected old verbosity 2, got %d", old)
	}
	if !Enabled(slog.LevelDebug) || Enabled(LevelTrace) {
		t.Errorf("verbosity 4 should enable debug but not trace")
	}
}

func TestPrintGated(t *testing.T) {
	var b strings.Builder
	Stdout = &b
	defer func() { Stdout = os.Stdout }()
	old := UserLevel.Level()
	defer UserLevel.Set(old)

	UserLevel.Set(slog.LevelWarn)
	PrintlnInfo("hidden")
	PrintlnWarn("shown")
	if got := b.String(); got != "shown\n" {
		t.Errorf("expected only the warning to be printed, but got %q", got)
	}
	UserLevel.Set(slog.LevelInfo)
	PrintfInfo("%d\n", 3)
	if got := b.String(); got != "shown\n3\n" {
		t.Errorf("expected info output after lowering the level, but got %q", got)
	}
}
