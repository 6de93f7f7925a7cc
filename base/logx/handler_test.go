// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	defer UserLevel.Set(UserLevel.Level())
	UserLevel.Set(slog.LevelInfo)

	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf))
	l.Debug("this is debug")
	l.Info("this is info", "handle", 1)
	l.Warn("this is warn")

	s := buf.String()
	if strings.Contains(s, "this is debug") {
		t.Errorf("debug message should be filtered: %q", s)
	}
	if !strings.Contains(s, "xrcore: this is info") || !strings.Contains(s, "handle=1") {
		t.Errorf("missing info message: %q", s)
	}
	if !strings.Contains(s, "WARN") {
		t.Errorf("missing warn level: %q", s)
	}
}
