// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/kleinerm/Psychtoolbox-3-sub009/metrics"
)

func (a *app) metrics(args []string) error {
	var o options
	fs := a.flags("metrics", "<pipe>", &o)
	wait := fs.Duration("wait", 0, "wait this long for the pipe to be created")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := o.load(); err != nil {
		return err
	}
	path := fs.Arg(0)
	if path == "" {
		path = os.Getenv(metrics.EnvPipe)
	}
	if path == "" {
		fs.Usage()
		return fmt.Errorf("no pipe given and %s is not set", metrics.EnvPipe)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	r, err := metrics.OpenPipe(ctx, path, *wait)
	if err != nil {
		return err
	}
	defer r.Close()
	return a.printRecords(r)
}

// printRecords prints the records of a metrics stream until its end.
func (a *app) printRecords(r io.Reader) error {
	d := metrics.NewDecoder(r)
	for {
		rec, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch rec := rec.(type) {
		case *metrics.Version:
			fmt.Fprintf(a.out, "version        %d.%d\n", rec.Major, rec.Minor)
		case *metrics.SessionFrame:
			fmt.Fprintf(a.out, "session frame  session %d frame %d display %d discarded %t\n", rec.SessionID, rec.FrameID, rec.DisplayTime, rec.Discarded)
		case *metrics.Used:
			fmt.Fprintf(a.out, "used           session %d frame %d system frame %d\n", rec.SessionID, rec.SessionFrameID, rec.SystemFrameID)
		case *metrics.SystemFrame:
			fmt.Fprintf(a.out, "system frame   %d\n", rec.FrameID)
		case *metrics.SystemGPUInfo:
			fmt.Fprintf(a.out, "gpu info       %d\n", rec.FrameID)
		case *metrics.SystemPresentInfo:
			fmt.Fprintf(a.out, "present        system frame %d actual %d desired %d\n", rec.FrameID, rec.ActualPresentTime, rec.DesiredPresentTime)
		}
	}
}
