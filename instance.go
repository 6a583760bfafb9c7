// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tinyframe implements a reusable, single-threaded, re-entrant
// framing codec for message-oriented communication over byte streams such
// as UARTs, TCP sockets, UDP datagrams, or in-memory loopbacks. It frames
// arbitrary binary payloads with configurable header widths and optional
// checksums, assigns each outgoing frame a peer-qualified identifier, and
// demultiplexes inbound frames to listeners registered by frame ID, message
// type, or unconditionally.
//
// Wire format: [SOF?] ID LEN TYPE [HEAD_CKSUM] DATA [DATA_CKSUM], with ID,
// LEN, and TYPE big-endian unsigned integers whose widths (1, 2, 4, or 8
// bytes) are chosen independently per Instance via its three type
// parameters. An Instance does not own a transport: callers feed it bytes
// via Accept/AcceptByte and give it a write sink to emit bytes through.
package tinyframe

import (
	"code.hybscloud.com/tinyframe/internal/width"
)

// Instance is one side of a framed link. ID, Len, and Type are the field
// widths for frame IDs, payload lengths, and message types respectively;
// pick from uint8, uint16, uint32, uint64 independently.
//
// An Instance is not safe for concurrent use from multiple goroutines; all
// public operations must run on the owner's goroutine. Distinct instances
// share no state and may run on distinct goroutines freely.
type Instance[ID width.Uint, Len width.Uint, Type width.Uint] struct {
	peer Peer
	cfg  config

	nextID ID

	state              parserState
	parserTimeoutTicks uint32
	partLen            int
	pID                ID
	pLen               Len
	pType              Type
	recvCksum          uint32
	data               []byte

	idListeners      []*idListenerEntry[ID, Len, Type]
	typeListeners    []*typeListenerEntry[ID, Len, Type]
	genericListeners []*genericListenerEntry[ID, Len, Type]

	write     func(in *Instance[ID, Len, Type], p []byte) error
	claimTx   func(in *Instance[ID, Len, Type])
	releaseTx func(in *Instance[ID, Len, Type])
}

// New creates an instance with the given peer bit and default
// configuration (no SOF byte, XOR checksum, 1024-byte write-sink chunks, no
// parser timeout, non-blocking write-sink retry policy), then applies opts.
func New[ID width.Uint, Len width.Uint, Type width.Uint](peer Peer, opts ...Option) *Instance[ID, Len, Type] {
	in := &Instance[ID, Len, Type]{
		peer:  peer,
		cfg:   defaultConfig(),
		state: stateSof,
	}
	for _, opt := range opts {
		opt(&in.cfg)
	}
	return in
}

// Configure applies additional options to an already-constructed instance.
func (in *Instance[ID, Len, Type]) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(&in.cfg)
	}
}

// SetWrite configures the write sink. It is called with a mutable reference
// to the instance itself (permitting loopback: the sink may feed the bytes
// straight back into Accept) and a slice of at most ChunkSize bytes; it
// must write all bytes of the slice before returning, or return
// ErrWouldBlock/ErrMore for a non-blocking transport per the configured
// retry policy.
func (in *Instance[ID, Len, Type]) SetWrite(fn func(in *Instance[ID, Len, Type], p []byte) error) {
	in.write = fn
}

// SetClaimTx configures a hook called exactly once per Send/Query/Respond,
// before the first write-sink chunk.
func (in *Instance[ID, Len, Type]) SetClaimTx(fn func(in *Instance[ID, Len, Type])) {
	in.claimTx = fn
}

// SetReleaseTx configures a hook called exactly once per Send/Query/Respond,
// after the last write-sink chunk.
func (in *Instance[ID, Len, Type]) SetReleaseTx(fn func(in *Instance[ID, Len, Type])) {
	in.releaseTx = fn
}

// Peer returns the instance's configured peer bit.
func (in *Instance[ID, Len, Type]) Peer() Peer { return in.peer }

// ResetEncoder resets the outgoing ID counter to zero. Not required by the
// wire protocol; exposed because the source implementation this codec is
// based on provides it (useful for test fixtures and reconnect handling).
func (in *Instance[ID, Len, Type]) ResetEncoder() {
	var zero ID
	in.nextID = zero
}

// ResetParser discards any partially-parsed frame and returns the parser to
// its initial state. It clears every field a partial parse may have written,
// not just state: a stale partLen/data/recvCksum left behind would corrupt
// the next frame fed in by a reentrant Accept call (e.g. from a listener
// callback writing straight back into this instance via a loopback sink).
func (in *Instance[ID, Len, Type]) ResetParser() {
	in.state = stateSof
	in.partLen = 0
	var zeroID ID
	var zeroLen Len
	var zeroType Type
	in.pID = zeroID
	in.pLen = zeroLen
	in.pType = zeroType
	in.recvCksum = 0
	in.data = in.data[:0]
}

// Tick advances the parser timeout counter and expires any ID listener
// whose remaining-ticks countdown reaches zero. The host calls Tick at some
// cadence; the codec attaches no unit to ticks.
func (in *Instance[ID, Len, Type]) Tick() {
	in.parserTimeoutTicks++
	in.tickListeners()
}
