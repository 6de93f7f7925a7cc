// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import "strconv"

// Button is the index of a boolean button in the button bank
// reported by input state queries.
type Button int

const (
	ButtonA      Button = 0
	ButtonB      Button = 1
	ButtonRThumb Button = 2

	// ButtonRShoulder is the right shoulder button or trackpad click.
	ButtonRShoulder Button = 3
	ButtonX         Button = 8
	ButtonY         Button = 9
	ButtonLThumb    Button = 10
	ButtonLShoulder Button = 11
	ButtonUp        Button = 16
	ButtonDown      Button = 17
	ButtonLeft      Button = 18
	ButtonRight     Button = 19
	ButtonEnter     Button = 20
	ButtonBack      Button = 21
	ButtonVolUp     Button = 22
	ButtonVolDown   Button = 23
	ButtonHome      Button = 24
	ButtonMicMute   Button = 25

	// NumButtons is the size of the button bank.
	NumButtons = 26
)

var buttonNames = map[Button]string{
	ButtonA: "A", ButtonB: "B", ButtonRThumb: "RThumb", ButtonRShoulder: "RShoulder",
	ButtonX: "X", ButtonY: "Y", ButtonLThumb: "LThumb", ButtonLShoulder: "LShoulder",
	ButtonUp: "Up", ButtonDown: "Down", ButtonLeft: "Left", ButtonRight: "Right",
	ButtonEnter: "Enter", ButtonBack: "Back", ButtonVolUp: "VolUp", ButtonVolDown: "VolDown",
	ButtonHome: "Home", ButtonMicMute: "MicMute",
}

func (b Button) String() string {
	if s, ok := buttonNames[b]; ok {
		return s
	}
	return "Button" + strconv.Itoa(int(b))
}

// Touch is the index of a capacitive touch sensor in the touch bank
// reported by input state queries.
type Touch int

const (
	TouchA              Touch = 0
	TouchB              Touch = 1
	TouchRThumb         Touch = 2
	TouchRThumbRest     Touch = 3
	TouchRIndexTrigger  Touch = 4
	TouchRIndexPointing Touch = 5
	TouchRThumbUp       Touch = 6
	TouchX              Touch = 8
	TouchY              Touch = 9
	TouchLThumb         Touch = 10
	TouchLThumbRest     Touch = 11
	TouchLIndexTrigger  Touch = 12
	TouchLIndexPointing Touch = 13
	TouchLThumbUp       Touch = 14

	// NumTouches is the size of the touch bank.
	NumTouches = 15
)

var touchNames = map[Touch]string{
	TouchA: "A", TouchB: "B", TouchRThumb: "RThumb", TouchRThumbRest: "RThumbRest",
	TouchRIndexTrigger: "RIndexTrigger", TouchRIndexPointing: "RIndexPointing", TouchRThumbUp: "RThumbUp",
	TouchX: "X", TouchY: "Y", TouchLThumb: "LThumb", TouchLThumbRest: "LThumbRest",
	TouchLIndexTrigger: "LIndexTrigger", TouchLIndexPointing: "LIndexPointing", TouchLThumbUp: "LThumbUp",
}

func (t Touch) String() string {
	if s, ok := touchNames[t]; ok {
		return s
	}
	return "Touch" + strconv.Itoa(int(t))
}

// ActionID identifies one action of the generalized action set.
type ActionID int

const (
	// ActionAimPose is the pointing pose of both hands.
	ActionAimPose ActionID = iota

	// ActionGripPose is the grip pose of both hands.
	ActionGripPose

	// ActionGaze is the eye gaze pose.
	ActionGaze

	// ActionHaptic is the vibration output of hands and gamepad.
	ActionHaptic

	ActionTriggerLeft
	ActionTriggerRight
	ActionGripLeft
	ActionGripRight
	ActionThumbstickLeft
	ActionThumbstickRight

	// ActionThumbstick2Left and ActionThumbstick2Right are the second
	// 2D axis of controllers with both a thumbstick and a trackpad.
	ActionThumbstick2Left
	ActionThumbstick2Right

	actionButtons
	actionTouches = actionButtons + NumButtons

	// NumActions is the number of actions in the action set.
	NumActions = actionTouches + NumTouches
)

// ButtonAction returns the action of the given button.
func ButtonAction(b Button) ActionID { return actionButtons + ActionID(b) }

// TouchAction returns the action of the given touch sensor.
func TouchAction(t Touch) ActionID { return actionTouches + ActionID(t) }

// Trigger returns the trigger action of hand 0 (left) or 1 (right).
func Trigger(hand int) ActionID { return ActionTriggerLeft + ActionID(hand) }

// Grip returns the grip value action of hand 0 (left) or 1 (right).
func Grip(hand int) ActionID { return ActionGripLeft + ActionID(hand) }

// Thumbstick returns the 2D axis action of hand 0 (left) or 1 (right).
func Thumbstick(hand int) ActionID { return ActionThumbstickLeft + ActionID(hand) }

// Thumbstick2 returns the second 2D axis action of a hand.
func Thumbstick2(hand int) ActionID { return ActionThumbstick2Left + ActionID(hand) }

// Button returns the button of a button action, or -1.
func (a ActionID) Button() Button {
	if a >= actionButtons && a < actionTouches {
		return Button(a - actionButtons)
	}
	return -1
}

// Touch returns the touch sensor of a touch action, or -1.
func (a ActionID) Touch() Touch {
	if a >= actionTouches && a < NumActions {
		return Touch(a - actionTouches)
	}
	return -1
}
