// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import (
	"time"

	"code.hybscloud.com/tinyframe/internal/checksum"
)

// Peer selects which side of a link an instance represents. The peer bit is
// stamped into the high bit of every ID this instance assigns, so that two
// peers generating IDs concurrently never collide.
type Peer uint8

const (
	Slave Peer = iota
	Master
)

// config holds an instance's mutable knobs. defaultConfig returns the
// defaults (no SOF byte, XOR checksum, 1024-byte chunks, no parser timeout,
// non-blocking retry policy); the zero value is not those defaults.
type config struct {
	sofByte       *byte
	cksum         checksum.Variant
	chunkSize     int
	parserTimeout *uint32 // ticks; nil means disabled

	// retryDelay controls how Send/Query/Respond handle iox.ErrWouldBlock
	// from the configured write sink:
	//   negative: nonblocking, return ErrWouldBlock immediately
	//   zero: yield (runtime.Gosched) and retry
	//   positive: sleep for the duration and retry
	retryDelay time.Duration
}

func defaultConfig() config {
	return config{
		cksum:      checksum.XOR,
		chunkSize:  1024,
		retryDelay: -1,
	}
}

// Option configures an Instance at construction time.
type Option func(*config)

// WithSOFByte sets the one-byte start-of-frame sentinel the parser requires
// to begin a frame and the encoder prepends to every outgoing frame.
func WithSOFByte(b byte) Option {
	return func(c *config) { c.sofByte = &b }
}

// WithChecksum selects the checksum algorithm used for both the header and
// the payload.
func WithChecksum(v Checksum) Option {
	return func(c *config) { c.cksum = checksum.Variant(v) }
}

// WithChunkSize bounds the number of bytes passed to the write sink per call.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithParserTimeout sets the tick count after which a partial frame is
// discarded and the parser resets.
func WithParserTimeout(ticks uint32) Option {
	return func(c *config) { c.parserTimeout = &ticks }
}

// WithRetryDelay sets the retry/wait policy used when the configured write
// sink returns ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) { c.retryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on ErrWouldBlock.
func WithBlock() Option {
	return func(c *config) { c.retryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return ErrWouldBlock
// immediately). This is the default.
func WithNonblock() Option {
	return func(c *config) { c.retryDelay = -1 }
}

// Checksum selects the digest algorithm applied to frame headers and
// payloads. The zero value is NoChecksum.
type Checksum uint8

const (
	NoChecksum Checksum = iota
	XOR
	CRC16
	CRC32
)
