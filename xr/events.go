// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xr

// Event is one of the Event* types returned by [Runtime.PollEvent].
type Event interface {
	isEvent()
}

// EventEventsLost reports that the runtime event queue overflowed.
type EventEventsLost struct {
	LostEventCount uint32
}

// EventInstanceLossPending reports that the instance will be lost
// at LossTime.
type EventInstanceLossPending struct {
	LossTime Time
}

// EventInteractionProfileChanged reports that the interaction
// profile bound to some top level path of Session changed.
type EventInteractionProfileChanged struct {
	Session Session
}

// EventReferenceSpaceChangePending reports a pending recentering
// of a reference space.
type EventReferenceSpaceChangePending struct {
	Session             Session
	ReferenceSpaceType  ReferenceSpaceType
	ChangeTime          Time
	PoseValid           bool
	PoseInPreviousSpace Posef
}

// EventSessionStateChanged reports a session state transition.
type EventSessionStateChanged struct {
	Session Session
	State   SessionState
	Time    Time
}

func (*EventEventsLost) isEvent()                  {}
func (*EventInstanceLossPending) isEvent()         {}
func (*EventInteractionProfileChanged) isEvent()   {}
func (*EventReferenceSpaceChangePending) isEvent() {}
func (*EventSessionStateChanged) isEvent()         {}
