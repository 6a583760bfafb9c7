// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import "code.hybscloud.com/tinyframe/internal/width"

// Message is a single application-level unit exchanged over a link: an ID,
// a response flag, a type, and an arbitrary payload.
//
// ID and Type share the instance's configured field widths (one of uint8,
// uint16, uint32, uint64); Data's length must fit the instance's length
// field or Send/Query/Respond fail with ErrTooLong.
type Message[ID width.Uint, Type width.Uint] struct {
	FrameID    ID
	IsResponse bool
	MsgType    Type
	Data       []byte
}

// NewMessage builds an outgoing, non-response message. FrameID is assigned
// by the encoder when the message is sent.
func NewMessage[ID width.Uint, Type width.Uint](msgType Type, data []byte) Message[ID, Type] {
	return Message[ID, Type]{MsgType: msgType, Data: data}
}

// NewResponse builds a response to a previously received message, reusing
// its frame ID. This mirrors the source implementation's
// Msg::create_response convenience constructor.
func NewResponse[ID width.Uint, Type width.Uint](received Message[ID, Type], msgType Type, data []byte) Message[ID, Type] {
	return Message[ID, Type]{
		FrameID:    received.FrameID,
		IsResponse: true,
		MsgType:    msgType,
		Data:       data,
	}
}

// ListenerResult is returned by a listener callback to control its
// continued residency in the registry it was added to.
type ListenerResult uint8

const (
	// Stay keeps the listener registered, unchanged.
	Stay ListenerResult = iota

	// Renew resets an ID listener's remaining-ticks countdown to its
	// configured timeout. On a type or generic listener, Renew is
	// equivalent to Stay (spec.md §9's Open Question resolution).
	Renew

	// Close removes the listener from its registry; it is never invoked
	// again.
	Close
)

// Callback is an event-listener function. It may call any Instance
// operation, including Send/Query, which may re-enter Accept via a
// loopback write sink and trigger further dispatch (§4.5/§5).
type Callback[ID width.Uint, Len width.Uint, Type width.Uint] func(in *Instance[ID, Len, Type], msg Message[ID, Type]) ListenerResult
