// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

// ChannelConfig is the immutable configuration of one logical channel.
type ChannelConfig struct {
	RequestLimit           uint32
	MaxRequestPayloadSize  uint32
	MaxResponsePayloadSize uint32
}

// channelState is the per-channel mutable state described in
// SPEC_FULL.md section 3.1: the set of request ids we owe a response for
// (incoming), the set we're waiting on a response to (outgoing), the
// cancellation allowance, and at most one active multiframe reassembly.
type channelState struct {
	cfg ChannelConfig

	incoming map[uint16]struct{}
	outgoing map[uint16]struct{}

	cancellationAllowance uint32

	cursor       multiframeCursor
	nextOutgoing uint16
}

func newChannelState(cfg ChannelConfig) *channelState {
	return &channelState{
		cfg:      cfg,
		incoming: make(map[uint16]struct{}),
		outgoing: make(map[uint16]struct{}),
	}
}

func (c *channelState) idInFlight(id uint16) bool {
	_, in := c.incoming[id]
	_, out := c.outgoing[id]
	return in || out
}

// bumpCancellationAllowance increments the allowance, capped at
// request_limit (invariant: cancellation_allowance <= request_limit).
func (c *channelState) bumpCancellationAllowance() {
	if c.cancellationAllowance < c.cfg.RequestLimit {
		c.cancellationAllowance++
	}
}

// generateRequestID picks the next outgoing request id via a monotonic,
// wraparound-aware counter, skipping any id still live in the outgoing
// set. SPEC_FULL.md section 9 leaves the exact strategy unspecified; this
// is the implementation's choice.
func (c *channelState) generateRequestID() (uint16, bool) {
	if uint32(len(c.outgoing)) >= c.cfg.RequestLimit {
		return 0, false
	}
	for i := 0; i < 1<<16; i++ {
		id := c.nextOutgoing
		c.nextOutgoing++
		if _, inUse := c.outgoing[id]; !inUse {
			return id, true
		}
	}
	return 0, false
}
