// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package width provides big-endian encoding, read-accumulation, and
// overflow-checked narrowing for the 1/2/4/8-byte unsigned field widths a
// tinyframe instance is parameterized over.
//
// Each ID/length/type field width is a distinct Go type parameter
// instantiation (uint8, uint16, uint32, or uint64), so the compiler
// specializes Put/Accumulate/Narrow per width instead of branching on a
// runtime-selected size in the hot parse loop.
package width

import "unsafe"

// Uint is the set of field widths a tinyframe instance may be configured
// with for its ID, length, and type fields.
type Uint interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Size returns the width, in bytes, of T.
func Size[T Uint]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// Put appends the big-endian encoding of v to buf, returning the grown slice.
func Put[T Uint](buf []byte, v T) []byte {
	n := Size[T]()
	u := uint64(v)
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, byte(u>>(uint(i)*8)))
	}
	return buf
}

// Accumulate folds one more big-endian byte into a running field value:
// (running << 8) | b.
func Accumulate[T Uint](running T, b byte) T {
	return running<<8 | T(b)
}

// Narrow converts a host-size length into T, reporting false if size
// exceeds T's capacity (2^(8*Size[T]())-1).
func Narrow[T Uint](size int) (T, bool) {
	if size < 0 {
		return 0, false
	}
	n := Size[T]()
	if n >= 8 {
		return T(uint64(size)), true
	}
	maxVal := uint64(1)<<uint(n*8) - 1
	if uint64(size) > maxVal {
		return 0, false
	}
	return T(size), true
}

// IncrementID returns the next sequential ID wrapped into the low 8*Size[T]()-1
// bits; the top bit is reserved for the peer bit.
func IncrementID[T Uint](id T) T {
	n := Size[T]()
	mask := lowBitsMask[T](n*8 - 1)
	return (id + 1) & mask
}

// StampPeerBit sets the top (most significant) bit of id.
func StampPeerBit[T Uint](id T) T {
	n := Size[T]()
	return id | T(uint64(1)<<uint(n*8-1))
}

func lowBitsMask[T Uint](bits int) T {
	if bits >= Size[T]()*8 {
		return ^T(0)
	}
	return T(uint64(1)<<uint(bits) - 1)
}
