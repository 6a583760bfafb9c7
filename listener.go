// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import (
	"runtime"
	"sync/atomic"

	"code.hybscloud.com/tinyframe/internal/width"
)

var nextListenerUID uint64

func allocListenerUID() uint64 {
	return atomic.AddUint64(&nextListenerUID, 1)
}

// idListenerEntry backs an IDListener handle. It is shared (by pointer)
// between the instance's registry slice and the handle's GC cleanup, which
// is how a dropped handle without an explicit Close still gets pruned.
type idListenerEntry[ID width.Uint, Len width.Uint, Type width.Uint] struct {
	uid        uint64
	id         ID
	cb         Callback[ID, Len, Type]
	timeoutMax *uint32
	remaining  uint32
	closed     bool
}

type typeListenerEntry[ID width.Uint, Len width.Uint, Type width.Uint] struct {
	uid     uint64
	msgType Type
	cb      Callback[ID, Len, Type]
	closed  bool
}

type genericListenerEntry[ID width.Uint, Len width.Uint, Type width.Uint] struct {
	uid    uint64
	cb     Callback[ID, Len, Type]
	closed bool
}

// IDListener is the caller-owned handle for a listener bound to one frame
// ID. Call Close to deregister deterministically; if the handle is instead
// simply dropped, the registry entry is pruned once it is garbage collected.
type IDListener[ID width.Uint, Len width.Uint, Type width.Uint] struct {
	entry   *idListenerEntry[ID, Len, Type]
	cleanup runtime.Cleanup
}

// Close removes this listener from its instance; it is idempotent.
func (h *IDListener[ID, Len, Type]) Close() {
	h.entry.closed = true
	h.cleanup.Stop()
}

// TypeListener is the caller-owned handle for a listener bound to one
// message type.
type TypeListener[ID width.Uint, Len width.Uint, Type width.Uint] struct {
	entry   *typeListenerEntry[ID, Len, Type]
	cleanup runtime.Cleanup
}

// Close removes this listener from its instance; it is idempotent.
func (h *TypeListener[ID, Len, Type]) Close() {
	h.entry.closed = true
	h.cleanup.Stop()
}

// GenericListener is the caller-owned handle for a listener that fires on
// every verified frame.
type GenericListener[ID width.Uint, Len width.Uint, Type width.Uint] struct {
	entry   *genericListenerEntry[ID, Len, Type]
	cleanup runtime.Cleanup
}

// Close removes this listener from its instance; it is idempotent.
func (h *GenericListener[ID, Len, Type]) Close() {
	h.entry.closed = true
	h.cleanup.Stop()
}

// AddIDListener registers cb to fire for frames whose FrameID equals id. If
// timeout is non-nil, the listener expires after that many Tick calls
// unless renewed (by returning Renew from the callback).
func (in *Instance[ID, Len, Type]) AddIDListener(id ID, cb Callback[ID, Len, Type], timeout *uint32) (*IDListener[ID, Len, Type], error) {
	if cb == nil {
		return nil, ErrInvalidArgument
	}
	e := &idListenerEntry[ID, Len, Type]{uid: allocListenerUID(), id: id, cb: cb, timeoutMax: timeout}
	in.renewIDListener(e)
	in.idListeners = append(in.idListeners, e)

	h := &IDListener[ID, Len, Type]{entry: e}
	h.cleanup = runtime.AddCleanup(h, func(target *idListenerEntry[ID, Len, Type]) {
		target.closed = true
	}, e)
	return h, nil
}

// AddTypeListener registers cb to fire for frames whose MsgType equals
// msgType.
func (in *Instance[ID, Len, Type]) AddTypeListener(msgType Type, cb Callback[ID, Len, Type]) (*TypeListener[ID, Len, Type], error) {
	if cb == nil {
		return nil, ErrInvalidArgument
	}
	e := &typeListenerEntry[ID, Len, Type]{uid: allocListenerUID(), msgType: msgType, cb: cb}
	in.typeListeners = append(in.typeListeners, e)

	h := &TypeListener[ID, Len, Type]{entry: e}
	h.cleanup = runtime.AddCleanup(h, func(target *typeListenerEntry[ID, Len, Type]) {
		target.closed = true
	}, e)
	return h, nil
}

// AddGenericListener registers cb to fire for every verified frame.
func (in *Instance[ID, Len, Type]) AddGenericListener(cb Callback[ID, Len, Type]) (*GenericListener[ID, Len, Type], error) {
	if cb == nil {
		return nil, ErrInvalidArgument
	}
	e := &genericListenerEntry[ID, Len, Type]{uid: allocListenerUID(), cb: cb}
	in.genericListeners = append(in.genericListeners, e)

	h := &GenericListener[ID, Len, Type]{entry: e}
	h.cleanup = runtime.AddCleanup(h, func(target *genericListenerEntry[ID, Len, Type]) {
		target.closed = true
	}, e)
	return h, nil
}

func (in *Instance[ID, Len, Type]) renewIDListener(e *idListenerEntry[ID, Len, Type]) {
	if e.timeoutMax != nil {
		e.remaining = *e.timeoutMax
	}
}

// dispatch delivers msg to ID listeners, then type listeners, then generic
// listeners, in that order, following the §4.5 swap-out/swap-in discipline:
// the live sequences are moved into locals before the loop so that re-entrant
// Add*Listener calls during a callback append to the (now empty) instance
// fields instead of mutating the slice being ranged over, and so that those
// freshly-added listeners do not fire for the frame currently being
// dispatched.
func (in *Instance[ID, Len, Type]) dispatch(msg Message[ID, Type]) {
	idLocal := in.idListeners
	in.idListeners = nil
	typeLocal := in.typeListeners
	in.typeListeners = nil
	genLocal := in.genericListeners
	in.genericListeners = nil

	for _, e := range idLocal {
		if e.closed || e.id != msg.FrameID {
			continue
		}
		switch e.cb(in, msg) {
		case Renew:
			in.renewIDListener(e)
		case Close:
			e.closed = true
		}
	}

	for _, e := range typeLocal {
		if e.closed || e.msgType != msg.MsgType {
			continue
		}
		if e.cb(in, msg) == Close {
			e.closed = true
		}
	}

	for _, e := range genLocal {
		if e.closed {
			continue
		}
		if e.cb(in, msg) == Close {
			e.closed = true
		}
	}

	in.idListeners = append(pruneIDClosed(idLocal), in.idListeners...)
	in.typeListeners = append(pruneTypeClosed(typeLocal), in.typeListeners...)
	in.genericListeners = append(pruneGenericClosed(genLocal), in.genericListeners...)
}

func pruneIDClosed[ID width.Uint, Len width.Uint, Type width.Uint](in []*idListenerEntry[ID, Len, Type]) []*idListenerEntry[ID, Len, Type] {
	out := in[:0]
	for _, e := range in {
		if !e.closed {
			out = append(out, e)
		}
	}
	return out
}

func pruneTypeClosed[ID width.Uint, Len width.Uint, Type width.Uint](in []*typeListenerEntry[ID, Len, Type]) []*typeListenerEntry[ID, Len, Type] {
	out := in[:0]
	for _, e := range in {
		if !e.closed {
			out = append(out, e)
		}
	}
	return out
}

func pruneGenericClosed[ID width.Uint, Len width.Uint, Type width.Uint](in []*genericListenerEntry[ID, Len, Type]) []*genericListenerEntry[ID, Len, Type] {
	out := in[:0]
	for _, e := range in {
		if !e.closed {
			out = append(out, e)
		}
	}
	return out
}

// tickListeners advances ID-listener expiry: each listener with a timeout
// decrements its remaining-ticks counter, and is removed once it reaches
// zero, before the next frame is dispatched.
func (in *Instance[ID, Len, Type]) tickListeners() {
	kept := in.idListeners[:0]
	for _, e := range in.idListeners {
		if e.closed {
			continue
		}
		if e.timeoutMax != nil {
			if e.remaining > 0 {
				e.remaining--
			}
			if e.remaining == 0 {
				e.closed = true
				continue
			}
		}
		kept = append(kept, e)
	}
	in.idListeners = kept
}
