// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package luahost

import (
	"github.com/kleinerm/Psychtoolbox-3-sub009/xr"
	"github.com/kleinerm/Psychtoolbox-3-sub009/xrcore"
	lua "github.com/yuin/gopher-lua"
)

// pushNumbers pushes the values and returns how many were pushed.
func pushNumbers(L *lua.LState, vs ...float64) int {
	for _, v := range vs {
		L.Push(lua.LNumber(v))
	}
	return len(vs)
}

// numbers returns the values as a Lua array.
func numbers(L *lua.LState, vs ...float64) *lua.LTable {
	t := L.CreateTable(len(vs), 0)
	for _, v := range vs {
		t.Append(lua.LNumber(v))
	}
	return t
}

func bools(L *lua.LState, vs []bool) *lua.LTable {
	t := L.CreateTable(len(vs), 0)
	for _, v := range vs {
		t.Append(lua.LBool(v))
	}
	return t
}

func vectors(L *lua.LState, vs []xr.Vector2f) *lua.LTable {
	t := L.CreateTable(len(vs), 0)
	for _, v := range vs {
		t.Append(numbers(L, float64(v.X), float64(v.Y)))
	}
	return t
}

func headTable(L *lua.LState, h xrcore.HeadState) *lua.LTable {
	t := L.CreateTable(0, 7)
	t.RawSetString("Time", lua.LNumber(h.Time))
	t.RawSetString("Status", lua.LNumber(h.Status))
	t.RawSetString("SessionState", lua.LNumber(h.SessionState))
	t.RawSetString("Pose", numbers(L, h.Pose[:]...))
	t.RawSetString("CalibratedOrigin", numbers(L, h.CalibratedOrigin[:]...))
	t.RawSetString("EyePoseLeft", numbers(L, h.EyePoseLeft[:]...))
	t.RawSetString("EyePoseRight", numbers(L, h.EyePoseRight[:]...))
	return t
}

func handTable(L *lua.LState, h xrcore.HandState) *lua.LTable {
	t := L.CreateTable(0, 6)
	t.RawSetString("Time", lua.LNumber(h.Time))
	t.RawSetString("Status", lua.LNumber(h.Status))
	t.RawSetString("Pose", numbers(L, h.Pose[:]...))
	t.RawSetString("AimPose", numbers(L, h.AimPose[:]...))
	t.RawSetString("LinearVelocity", numbers(L, h.LinearVelocity[:]...))
	t.RawSetString("AngularVelocity", numbers(L, h.AngularVelocity[:]...))
	return t
}

func gazeTable(L *lua.LState, g xrcore.GazeState) *lua.LTable {
	t := L.CreateTable(0, 3)
	t.RawSetString("Time", lua.LNumber(g.Time))
	t.RawSetString("Status", lua.LNumber(g.Status))
	t.RawSetString("Pose", numbers(L, g.Pose[:]...))
	return t
}

func inputTable(L *lua.LState, is xrcore.InputState) *lua.LTable {
	t := L.CreateTable(0, 9)
	t.RawSetString("Valid", lua.LBool(is.Valid))
	t.RawSetString("ActiveInputs", lua.LNumber(is.ActiveInputs))
	t.RawSetString("Time", lua.LNumber(is.Time))
	t.RawSetString("Buttons", bools(L, is.Buttons[:]))
	t.RawSetString("Touches", bools(L, is.Touches[:]))
	t.RawSetString("Trigger", numbers(L, float64(is.Trigger[0]), float64(is.Trigger[1])))
	t.RawSetString("Grip", numbers(L, float64(is.Grip[0]), float64(is.Grip[1])))
	t.RawSetString("Thumbstick", vectors(L, is.Thumbstick[:]))
	t.RawSetString("Thumbstick2", vectors(L, is.Thumbstick2[:]))
	return t
}

// matrixTable returns a row major matrix as an array of rows.
func matrixTable(L *lua.LState, m [4][4]float64) *lua.LTable {
	t := L.CreateTable(4, 0)
	for _, row := range m {
		t.Append(numbers(L, row[:]...))
	}
	return t
}
