// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import (
	"errors"

	"code.hybscloud.com/iox"
)

var (
	// ErrTooLong reports that a message's payload cannot be narrowed into the
	// instance's configured length field, or exceeds the wire format's
	// supported size.
	ErrTooLong = errors.New("tinyframe: message too long")

	// ErrNoWrite reports that Send/Query/Respond was called without a
	// configured write sink.
	ErrNoWrite = errors.New("tinyframe: no write sink configured")

	// ErrInvalidArgument reports a nil callback passed to a
	// listener-registration call (AddIDListener, AddTypeListener,
	// AddGenericListener, or Query).
	ErrInvalidArgument = errors.New("tinyframe: invalid argument")
)

// These are provided as package-level aliases so callers can reference the
// semantic control-flow errors a non-blocking write sink may return without
// importing iox directly.
var (
	// ErrWouldBlock means the write sink made no further progress without
	// waiting. It is an expected, non-failure control-flow signal for
	// non-blocking transports; see WithRetryDelay/WithBlock/WithNonblock.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means the write sink's completion is usable and more
	// completions for the same chunk will follow.
	ErrMore = iox.ErrMore
)
