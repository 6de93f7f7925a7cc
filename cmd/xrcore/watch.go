// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/websocket"
	"github.com/kleinerm/Psychtoolbox-3-sub009/monitor"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xrcore"
)

func (a *app) watch(args []string) error {
	var o options
	fs := a.flags("watch", "<url>", &o)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := o.load()
	if err != nil {
		return err
	}
	url := fs.Arg(0)
	if url == "" {
		url = cfg.MonitorAddr
	}
	if url == "" {
		fs.Usage()
		return fmt.Errorf("no monitor url given and MonitorAddr is not set")
	}
	if !strings.Contains(url, "://") {
		url = "ws://" + url + monitor.Path
	}
	st, err := websocket.Dial(context.Background(), url)
	if err != nil {
		return err
	}
	st.Listen(func(msg []byte) {
		var p xrcore.PresentInfo
		if err := json.Unmarshal(msg, &p); err != nil {
			slog.Warn("invalid present sample", "err", err)
			return
		}
		fmt.Fprintf(a.out, "device %d frame %d onset %.6f next %.6f target %.6f\n", p.Handle, p.Frame, p.Onset, p.Next, p.Target)
	})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	select {
	case <-st.Closed():
		return st.Err()
	case <-sig:
		return st.Close()
	}
}
