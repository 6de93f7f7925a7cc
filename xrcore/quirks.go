// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

import (
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
)

// Quirks are known misbehaviors of specific runtimes that the
// driver works around.
type Quirks uint32

const (
	// ShutdownHang is set for runtimes that hang when the instance
	// is destroyed. Teardown is skipped and the process is ended
	// through [Driver.Exit] instead.
	ShutdownHang Quirks = 1 << iota

	// ContextRebindBug is set for runtimes that fail when the OpenGL
	// context is made current on the presenter goroutine. Multi-threaded
	// sessions need copy textures on such runtimes.
	ContextRebindBug

	// NoRefreshRateQuery is set for runtimes that report a wrong
	// display refresh rate, so the default frame duration is used.
	NoRefreshRateQuery
)

var quirkNames = []string{"ShutdownHang", "ContextRebindBug", "NoRefreshRateQuery"}

// Has returns whether all of the given quirks are set.
func (q Quirks) Has(f Quirks) bool { return q&f == f }

func (q Quirks) String() string {
	var names []string
	for i, n := range quirkNames {
		if q&(1<<i) != 0 {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// quirk is one entry of the quirk table.
type quirk struct {

	// runtime is a case insensitive substring of the runtime name.
	runtime string

	// versions is a semver constraint on the runtime version,
	// empty for all versions.
	versions string

	// goos is the operating system, empty for all.
	goos string

	flags Quirks
}

var quirkTable = []quirk{
	{runtime: "SteamVR", goos: "linux", flags: ShutdownHang},
	{runtime: "Oculus", goos: "windows", flags: ContextRebindBug},
	{runtime: "Monado", versions: "< 21.0.0", flags: NoRefreshRateQuery},
}

// DetectQuirks returns the quirks of the runtime with the given name
// and version on the given operating system.
func DetectQuirks(name string, version xr.Version, goos string) Quirks {
	v := semver.New(uint64(version.Major), uint64(version.Minor), uint64(version.Patch), "", "")
	lname := strings.ToLower(name)
	var q Quirks
	for _, e := range quirkTable {
		if !strings.Contains(lname, strings.ToLower(e.runtime)) {
			continue
		}
		if e.goos != "" && e.goos != goos {
			continue
		}
		if e.versions != "" {
			c, err := semver.NewConstraint(e.versions)
			if err != nil {
				slog.Error("invalid quirk version constraint", "runtime", e.runtime, "constraint", e.versions, "err", err)
				continue
			}
			if !c.Check(v) {
				continue
			}
		}
		q |= e.flags
	}
	return q
}
