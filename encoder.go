// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import (
	"runtime"
	"time"

	"code.hybscloud.com/tinyframe/internal/checksum"
	"code.hybscloud.com/tinyframe/internal/width"
)

// Send transmits msg as a new outgoing frame. A fresh peer-qualified ID is
// assigned and returned; any FrameID already set on msg is overwritten.
func (in *Instance[ID, Len, Type]) Send(msg Message[ID, Type]) (ID, error) {
	msg.FrameID = in.assignID()
	msg.IsResponse = false
	buf, err := in.encode(msg)
	if err != nil {
		return msg.FrameID, err
	}
	return msg.FrameID, in.writeAll(buf)
}

// Query sends msg like Send, additionally registering an ID listener for the
// assigned ID before the frame is written, so a reply racing in on a
// loopback write sink is never missed. If the write fails, the listener is
// closed before Query returns.
func (in *Instance[ID, Len, Type]) Query(msg Message[ID, Type], cb Callback[ID, Len, Type], timeout *uint32) (*IDListener[ID, Len, Type], error) {
	id := in.assignID()
	msg.FrameID = id
	msg.IsResponse = false
	buf, err := in.encode(msg)
	if err != nil {
		return nil, err
	}
	h, err := in.AddIDListener(id, cb, timeout)
	if err != nil {
		return nil, err
	}
	if err := in.writeAll(buf); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

// Respond sends msg as a reply, reusing msg.FrameID as-is rather than
// assigning a new one. Callers typically build msg via NewResponse.
func (in *Instance[ID, Len, Type]) Respond(msg Message[ID, Type]) error {
	msg.IsResponse = true
	buf, err := in.encode(msg)
	if err != nil {
		return err
	}
	return in.writeAll(buf)
}

// assignID returns the next outgoing frame ID: the encoder's current
// counter, peer-bit stamped if this instance is the Master, then advances
// the counter for the following send.
func (in *Instance[ID, Len, Type]) assignID() ID {
	id := in.nextID
	if in.peer == Master {
		id = width.StampPeerBit(id)
	}
	in.nextID = width.IncrementID(in.nextID)
	return id
}

// encode serializes msg into [SOF?] ID LEN TYPE [HEAD_CKSUM] DATA
// [DATA_CKSUM], per the instance's configured field widths and checksum
// variant. The header checksum, when enabled, covers the SOF byte too.
func (in *Instance[ID, Len, Type]) encode(msg Message[ID, Type]) ([]byte, error) {
	lenField, ok := width.Narrow[Len](len(msg.Data))
	if !ok {
		return nil, ErrTooLong
	}

	var header []byte
	if in.cfg.sofByte != nil {
		header = append(header, *in.cfg.sofByte)
	}
	header = width.Put(header, msg.FrameID)
	header = width.Put(header, lenField)
	header = width.Put(header, msg.MsgType)
	if in.cfg.cksum != checksum.None {
		header = in.cfg.cksum.Append(header, in.cfg.cksum.Sum(header))
	}

	buf := append(header, msg.Data...)
	if len(msg.Data) > 0 && in.cfg.cksum != checksum.None {
		buf = in.cfg.cksum.Append(buf, in.cfg.cksum.Sum(msg.Data))
	}
	return buf, nil
}

// writeAll drains buf through the configured write sink in ChunkSize
// pieces, bracketed by the ClaimTx/ReleaseTx hooks.
func (in *Instance[ID, Len, Type]) writeAll(buf []byte) error {
	if in.write == nil {
		return ErrNoWrite
	}
	if in.claimTx != nil {
		in.claimTx(in)
	}
	if in.releaseTx != nil {
		defer in.releaseTx(in)
	}

	chunk := in.cfg.chunkSize
	if chunk <= 0 {
		chunk = len(buf)
	}
	for len(buf) > 0 {
		n := chunk
		if n > len(buf) {
			n = len(buf)
		}
		if err := in.writeChunk(buf[:n]); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func (in *Instance[ID, Len, Type]) writeChunk(p []byte) error {
	for {
		err := in.write(in, p)
		if err == nil {
			return nil
		}
		if err != ErrWouldBlock && err != ErrMore {
			return err
		}
		if !in.waitOnceOnWouldBlock() {
			return err
		}
	}
}

func (in *Instance[ID, Len, Type]) waitOnceOnWouldBlock() bool {
	if in.cfg.retryDelay < 0 {
		return false
	}
	if in.cfg.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(in.cfg.retryDelay)
	return true
}
