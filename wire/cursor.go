// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import "github.com/luxfi/roundbft/utils/wrappers"

// frameChunkPrefixSize is the self-delimiting prefix every RequestPl /
// ResponsePl frame carries after its Header: a final-chunk flag followed
// by a big-endian chunk length.
const frameChunkPrefixSize = 5 // 1 (final flag) + 4 (length)

// multiframeCursor is the per-channel reassembly state for a payload
// split across multiple wire frames. At most one reassembly is active per
// channel at a time (SPEC_FULL.md section 3.1's invariant).
type multiframeCursor struct {
	active bool
	id     uint16
	kind   Kind
	buf    []byte
}

// isNewTransfer reports whether header starts a transfer distinct from
// whatever the cursor currently has in flight.
func (c *multiframeCursor) isNewTransfer(h Header) bool {
	return !c.active || c.id != h.ID || c.kind != h.Kind
}

func (c *multiframeCursor) reset() {
	c.active = false
	c.id = 0
	c.buf = nil
}

func (c *multiframeCursor) begin(h Header) {
	c.active = true
	c.id = h.ID
	c.kind = h.Kind
	c.buf = nil
}

// cursorResult is the outcome of feeding one frame's chunk into the
// cursor.
type cursorResult int

const (
	cursorIncomplete cursorResult = iota // need more bytes to read this frame's chunk prefix/body
	cursorContinuing                     // chunk consumed, transfer still open
	cursorComplete                       // final chunk consumed, payload assembled
	cursorOversize                       // cumulative payload would exceed the cap
)

// accept pulls one chunk (the frame_chunk_prefix plus its body) out of
// buf, starting at offset. It returns how many bytes of buf it consumed
// (0 if incomplete), the result, and — on cursorIncomplete — how many
// additional bytes are needed to make progress.
func (c *multiframeCursor) accept(h Header, buf []byte, payloadCap uint32) (consumed int, result cursorResult, needed int) {
	if c.isNewTransfer(h) {
		c.begin(h)
	}

	u := wrappers.NewUnpacker(buf)
	if len(buf) < 1 {
		return 0, cursorIncomplete, 1 - len(buf)
	}
	isFinal := u.UnpackByte() != 0
	if len(buf) < frameChunkPrefixSize {
		return 0, cursorIncomplete, frameChunkPrefixSize - len(buf)
	}
	length := uint32(u.UnpackByte())<<24 | uint32(u.UnpackByte())<<16 | uint32(u.UnpackByte())<<8 | uint32(u.UnpackByte())

	total := frameChunkPrefixSize + int(length)
	if len(buf) < total {
		return 0, cursorIncomplete, total - len(buf)
	}

	chunk := buf[frameChunkPrefixSize:total]
	if uint32(len(c.buf))+length > payloadCap {
		c.reset()
		return total, cursorOversize, 0
	}
	c.buf = append(c.buf, chunk...)

	if isFinal {
		result = cursorComplete
	} else {
		result = cursorContinuing
	}
	return total, result, 0
}

// payload returns the assembled bytes and resets the cursor. Call only
// after accept reports cursorComplete.
func (c *multiframeCursor) payload() []byte {
	p := c.buf
	c.reset()
	return p
}

// encodeChunk renders one frame_chunk_prefix + body, for use by senders
// (create_request / response writers) splitting a payload across frames.
func encodeChunk(body []byte, isFinal bool) []byte {
	p := wrappers.NewPacker(frameChunkPrefixSize + len(body))
	if isFinal {
		p.PackByte(1)
	} else {
		p.PackByte(0)
	}
	l := uint32(len(body))
	p.PackByte(byte(l >> 24))
	p.PackByte(byte(l >> 16))
	p.PackByte(byte(l >> 8))
	p.PackByte(byte(l))
	p.PackBytes(body)
	return p.Bytes
}
