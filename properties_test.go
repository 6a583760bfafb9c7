// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe_test

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"

	"code.hybscloud.com/tinyframe"
)

// Invariant 1: a message sent over a loopback write sink is observed by a
// generic listener with the same type and payload, and a freshly assigned,
// non-response frame ID.
func TestPropertyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 200).Draw(t, "data")
		msgType := rapid.Uint16().Draw(t, "msgType")
		cksum := rapid.SampledFrom([]tinyframe.Checksum{
			tinyframe.NoChecksum, tinyframe.XOR, tinyframe.CRC16, tinyframe.CRC32,
		}).Draw(t, "cksum")

		in := tinyframe.New[uint16, uint16, uint16](tinyframe.Master, tinyframe.WithChecksum(cksum))
		in.SetWrite(func(inst *tinyframe.Instance[uint16, uint16, uint16], p []byte) error {
			inst.Accept(p)
			return nil
		})

		var got tinyframe.Message[uint16, uint16]
		var calls int
		_, err := in.AddGenericListener(func(_ *tinyframe.Instance[uint16, uint16, uint16], msg tinyframe.Message[uint16, uint16]) tinyframe.ListenerResult {
			calls++
			got = msg
			return tinyframe.Stay
		})
		if err != nil {
			t.Fatalf("AddGenericListener: %v", err)
		}

		sentID, err := in.Send(tinyframe.NewMessage[uint16, uint16](msgType, data))
		if err != nil {
			t.Fatalf("send: %v", err)
		}

		if calls != 1 {
			t.Fatalf("calls = %d, want 1", calls)
		}
		if got.FrameID != sentID {
			t.Fatalf("FrameID = %d, want %d", got.FrameID, sentID)
		}
		if got.IsResponse {
			t.Fatal("IsResponse = true, want false")
		}
		if got.MsgType != msgType {
			t.Fatalf("MsgType = %d, want %d", got.MsgType, msgType)
		}
		if !bytes.Equal(got.Data, data) {
			t.Fatalf("Data = %v, want %v", got.Data, data)
		}
	})
}

// Invariant 3: flipping any single bit of an encoded CRC-protected frame
// causes the parser to discard it silently.
func TestPropertyCorruptionDetection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")
		cksum := rapid.SampledFrom([]tinyframe.Checksum{tinyframe.CRC16, tinyframe.CRC32}).Draw(t, "cksum")

		var sent []byte
		tx := tinyframe.New[uint16, uint16, uint16](tinyframe.Master, tinyframe.WithChecksum(cksum))
		tx.SetWrite(func(_ *tinyframe.Instance[uint16, uint16, uint16], p []byte) error {
			sent = append(sent, p...)
			return nil
		})
		_, err := tx.Send(tinyframe.NewMessage[uint16, uint16](7, data))
		if err != nil {
			t.Fatalf("send: %v", err)
		}

		bitIdx := rapid.IntRange(0, len(sent)*8-1).Draw(t, "bitIdx")
		corrupted := make([]byte, len(sent))
		copy(corrupted, sent)
		corrupted[bitIdx/8] ^= 1 << uint(bitIdx%8)

		rx := tinyframe.New[uint16, uint16, uint16](tinyframe.Slave, tinyframe.WithChecksum(cksum))
		var calls int
		_, err = rx.AddGenericListener(func(_ *tinyframe.Instance[uint16, uint16, uint16], _ tinyframe.Message[uint16, uint16]) tinyframe.ListenerResult {
			calls++
			return tinyframe.Stay
		})
		if err != nil {
			t.Fatalf("AddGenericListener: %v", err)
		}

		rx.Accept(corrupted)
		if calls != 0 {
			t.Fatalf("calls = %d, want 0", calls)
		}
	})
}

// Invariant 4: arbitrary non-SOF bytes prepended before a valid frame do
// not change the decoded message.
func TestPropertyResyncIgnoresLeadingNoise(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sof := byte(0xAA)
		data := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "data")
		noise := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "noise")
		for i, b := range noise {
			if b == sof {
				noise[i] = sof + 1
			}
		}

		var sent []byte
		tx := tinyframe.New[uint16, uint16, uint16](tinyframe.Master, tinyframe.WithSOFByte(sof), tinyframe.WithChecksum(tinyframe.XOR))
		tx.SetWrite(func(_ *tinyframe.Instance[uint16, uint16, uint16], p []byte) error {
			sent = append(sent, p...)
			return nil
		})
		_, err := tx.Send(tinyframe.NewMessage[uint16, uint16](3, data))
		if err != nil {
			t.Fatalf("send: %v", err)
		}

		rx := tinyframe.New[uint16, uint16, uint16](tinyframe.Slave, tinyframe.WithSOFByte(sof), tinyframe.WithChecksum(tinyframe.XOR))
		var gotData []byte
		var calls int
		_, err = rx.AddGenericListener(func(_ *tinyframe.Instance[uint16, uint16, uint16], msg tinyframe.Message[uint16, uint16]) tinyframe.ListenerResult {
			calls++
			gotData = msg.Data
			return tinyframe.Stay
		})
		if err != nil {
			t.Fatalf("AddGenericListener: %v", err)
		}

		rx.Accept(append(noise, sent...))
		if calls != 1 {
			t.Fatalf("calls = %d, want 1", calls)
		}
		if !bytes.Equal(gotData, data) {
			t.Fatalf("gotData = %v, want %v", gotData, data)
		}
	})
}

// Invariant 5: successive Master sends produce strictly increasing,
// peer-bit-set IDs, wrapping modulo 2^(8W-1).
func TestPropertyIDSequencing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "n")

		tx := tinyframe.New[uint8, uint8, uint8](tinyframe.Master, tinyframe.WithChecksum(tinyframe.XOR))
		tx.SetWrite(func(_ *tinyframe.Instance[uint8, uint8, uint8], _ []byte) error { return nil })

		var prev uint8
		for i := 0; i < n; i++ {
			id, err := tx.Send(tinyframe.NewMessage[uint8, uint8](0, nil))
			if err != nil {
				t.Fatalf("send[%d]: %v", i, err)
			}
			if id&0x80 == 0 {
				t.Fatal("Master-assigned ID must carry the peer bit")
			}
			if i > 0 {
				wantLow := (prev&0x7F + 1) & 0x7F
				if id&0x7F != wantLow {
					t.Fatalf("id&0x7F = %d, want %d", id&0x7F, wantLow)
				}
			}
			prev = id
		}
	})
}
