// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Stdout is where the Print functions write.
var Stdout io.Writer = os.Stdout

// Print is equivalent to [fmt.Fprint] on [Stdout], but only prints
// if the given level is enabled by [UserLevel].
func Print(level slog.Level, a ...any) (n int, err error) {
	if !Enabled(level) {
		return 0, nil
	}
	return fmt.Fprint(Stdout, a...)
}

// PrintlnInfo is equivalent to [fmt.Println], but only prints if
// [UserLevel] is at or below [slog.LevelInfo].
func PrintlnInfo(a ...any) (n int, err error) {
	if !Enabled(slog.LevelInfo) {
		return 0, nil
	}
	return fmt.Fprintln(Stdout, a...)
}

// PrintlnWarn is equivalent to [fmt.Println], but only prints if
// [UserLevel] is at or below [slog.LevelWarn].
func PrintlnWarn(a ...any) (n int, err error) {
	if !Enabled(slog.LevelWarn) {
		return 0, nil
	}
	return fmt.Fprintln(Stdout, a...)
}

// PrintfInfo is equivalent to [fmt.Printf], but only prints if
// [UserLevel] is at or below [slog.LevelInfo].
func PrintfInfo(format string, a ...any) (n int, err error) {
	if !Enabled(slog.LevelInfo) {
		return 0, nil
	}
	return fmt.Fprintf(Stdout, format, a...)
}
