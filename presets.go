// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

import "code.hybscloud.com/tinyframe/internal/checksum"

// Transport preset helpers and mapping.
//
// Single source of truth — transport → (SOF byte, checksum, chunk size):
//   - UART/serial  → SOF 0x01, CRC16, 64-byte chunks   // noisy byte stream, needs resync
//   - TCP          → no SOF,   CRC32, 4096-byte chunks // reliable, ordered, boundary-free
//   - UDP          → no SOF,   CRC32, 1-datagram chunks // boundaries preserved by the transport
//   - Loopback     → no SOF,   XOR,   4096-byte chunks // in-memory, corruption-free
//
// These are starting points, not requirements: any Option may be layered on
// top or after a preset to override a single field.

type transportKind uint8

const (
	transportUART transportKind = iota
	transportTCP
	transportUDP
	transportLoopback
)

func presetFor(kind transportKind) config {
	c := defaultConfig()
	switch kind {
	case transportUART:
		sof := byte(0x01)
		c.sofByte = &sof
		c.cksum = checksum.CRC16
		c.chunkSize = 64
	case transportTCP:
		c.cksum = checksum.CRC32
		c.chunkSize = 4096
	case transportUDP:
		c.cksum = checksum.CRC32
		c.chunkSize = 65507
	case transportLoopback:
		c.chunkSize = 4096
	}
	return c
}

// WithUART configures an instance for a serial byte stream: a SOF sentinel
// to resynchronize after line noise, CRC16 header/payload checksums, and
// small write chunks suited to typical UART driver buffers.
func WithUART() Option {
	return func(c *config) { *c = mergePreset(*c, presetFor(transportUART)) }
}

// WithTCP configures an instance for a TCP stream: no SOF sentinel (the
// stream is reliable and ordered), CRC32 checksums, and chunk sizes suited
// to typical socket buffers.
func WithTCP() Option {
	return func(c *config) { *c = mergePreset(*c, presetFor(transportTCP)) }
}

// WithUDP configures an instance for a UDP datagram transport: no SOF
// sentinel (the transport preserves message boundaries), CRC32 checksums,
// and a chunk size matching the largest UDP datagram so a frame is never
// split across multiple sends.
func WithUDP() Option {
	return func(c *config) { *c = mergePreset(*c, presetFor(transportUDP)) }
}

// WithLoopback configures an instance for an in-memory pipe or test
// fixture: no SOF sentinel, the default XOR checksum, and generous chunk
// sizes since there is no wire to split.
func WithLoopback() Option {
	return func(c *config) { *c = mergePreset(*c, presetFor(transportLoopback)) }
}

// mergePreset applies a preset's sofByte/cksum/chunkSize onto base,
// preserving any parser timeout or retry-delay base already carries so that
// preset options may be combined with WithParserTimeout/WithRetryDelay in
// either order.
func mergePreset(base, preset config) config {
	base.sofByte = preset.sofByte
	base.cksum = preset.cksum
	base.chunkSize = preset.chunkSize
	return base
}
