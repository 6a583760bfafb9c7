// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import (
	"code.hybscloud.com/tinyframe/internal/checksum"
	"code.hybscloud.com/tinyframe/internal/width"
)

// parserState is one state of the byte-at-a-time frame parser.
type parserState uint8

const (
	stateSof parserState = iota
	stateID
	stateLen
	stateType
	stateHeadCksum
	stateData
	stateDataCksum
)

// Accept feeds a slice of bytes to the parser, byte by byte. It is
// equivalent to calling AcceptByte for each byte in order.
func (in *Instance[ID, Len, Type]) Accept(buf []byte) {
	for _, b := range buf {
		in.AcceptByte(b)
	}
}

// AcceptByte advances the parser state machine by one byte. On a fully
// verified frame it resets to await the next frame and then invokes
// matching listeners (ID, then type, then generic). Corrupt or timed-out
// frames are discarded silently: no listener is invoked and no error is
// returned (§4.4, §7).
func (in *Instance[ID, Len, Type]) AcceptByte(b byte) {
	if in.cfg.parserTimeout != nil && in.parserTimeoutTicks > *in.cfg.parserTimeout {
		in.ResetParser()
	}
	in.parserTimeoutTicks = 0

	if in.cfg.sofByte == nil && in.state == stateSof {
		in.beginFrame()
	}

	switch in.state {
	case stateSof:
		if in.cfg.sofByte != nil && b == *in.cfg.sofByte {
			in.beginFrame()
			in.data = append(in.data, b)
		}

	case stateID:
		in.data = append(in.data, b)
		in.pID = width.Accumulate(in.pID, b)
		in.partLen++
		if in.partLen == width.Size[ID]() {
			in.partLen = 0
			in.state = stateLen
		}

	case stateLen:
		in.data = append(in.data, b)
		in.pLen = width.Accumulate(in.pLen, b)
		in.partLen++
		if in.partLen == width.Size[Len]() {
			in.partLen = 0
			in.state = stateType
		}

	case stateType:
		in.data = append(in.data, b)
		in.pType = width.Accumulate(in.pType, b)
		in.partLen++
		if in.partLen == width.Size[Type]() {
			in.partLen = 0
			if in.cfg.cksum == checksum.None {
				in.data = in.data[:0]
				if uint64(in.pLen) == 0 {
					in.emit()
					return
				}
				in.state = stateData
			} else {
				in.state = stateHeadCksum
				in.recvCksum = 0
			}
		}

	case stateHeadCksum:
		in.recvCksum = in.cfg.cksum.AccumulateByte(in.recvCksum, b)
		in.partLen++
		if in.partLen != in.cfg.cksum.Size() {
			break
		}
		in.partLen = 0
		if in.cfg.cksum.Sum(in.data) != in.recvCksum {
			in.ResetParser()
			return
		}
		in.data = in.data[:0]
		if uint64(in.pLen) == 0 {
			in.emit()
			return
		}
		in.state = stateData

	case stateData:
		in.data = append(in.data, b)
		in.partLen++
		if in.partLen != int(uint64(in.pLen)) {
			break
		}
		if in.cfg.cksum == checksum.None {
			in.emit()
		} else {
			in.state = stateDataCksum
			in.partLen = 0
			in.recvCksum = 0
		}

	case stateDataCksum:
		in.recvCksum = in.cfg.cksum.AccumulateByte(in.recvCksum, b)
		in.partLen++
		if in.partLen != in.cfg.cksum.Size() {
			break
		}
		if in.cfg.cksum.Sum(in.data) == in.recvCksum {
			in.emit()
		} else {
			in.ResetParser()
		}
	}
}

func (in *Instance[ID, Len, Type]) beginFrame() {
	in.ResetParser()
	in.state = stateID
}

// emit dispatches a fully verified frame. The parser is reset before
// dispatch, not after: a listener callback may call Send/Query/Respond
// against a loopback write sink that feeds bytes straight back into Accept,
// and that reentrant call must see a parser already back at stateSof rather
// than still sitting in whatever state this frame's last byte left it in.
func (in *Instance[ID, Len, Type]) emit() {
	payload := make([]byte, len(in.data))
	copy(payload, in.data)
	msg := Message[ID, Type]{FrameID: in.pID, IsResponse: false, MsgType: in.pType, Data: payload}
	in.ResetParser()
	in.dispatch(msg)
}
