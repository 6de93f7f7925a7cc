// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xrcore

// presentResult is the outcome of one present.
type presentResult struct {

	// frame is the runtime frame id of the submitted frame,
	// or 0 if nothing was submitted.
	frame int64

	// onset is the estimated onset in host seconds,
	// 0 if skipped and -1 on failure.
	onset float64

	// next is the predicted onset of the next frame.
	next float64

	err error
}

// mailbox is the single slot through which a caller hands a present
// request to the presenter and receives its result. It is guarded by
// the device mutex and signaled through the device condition.
type mailbox interface {
	isMailbox()
}

// mailboxEmpty means no request is outstanding.
type mailboxEmpty struct{}

// mailboxPending holds a request the presenter has not latched yet.
type mailboxPending struct {

	// target is the requested onset in host seconds,
	// 0 for as soon as possible.
	target float64
}

// mailboxConsumed holds the result of a latched request until the
// caller collects it.
type mailboxConsumed struct {
	result presentResult
}

func (mailboxEmpty) isMailbox()    {}
func (mailboxPending) isMailbox()  {}
func (mailboxConsumed) isMailbox() {}
