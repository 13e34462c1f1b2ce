// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestIncrementalFeedMatchesOneShot is property P1: splitting a valid
// buffer into arbitrary suffixes and feeding them incrementally yields
// the same sequence of CompletedReads as feeding the buffer whole.
func TestIncrementalFeedMatchesOneShot(t *testing.T) {
	require := require.New(t)

	var whole []byte
	var ids []uint16
	for i := uint16(0); i < 5; i++ {
		whole = append(whole, requestFrame(0, i)...)
		ids = append(ids, i)
	}

	drain := func(m *Multiplexer) []uint16 {
		var got []uint16
		for {
			out := m.ProcessIncoming()
			if out.Kind != OutcomeSuccess {
				return got
			}
			got = append(got, out.Read.ID)
		}
	}

	oneShot := newTestMux(10)
	oneShot.Feed(whole)
	gotOneShot := drain(oneShot)

	incremental := newTestMux(10)
	var gotIncremental []uint16
	for _, b := range whole {
		incremental.Feed([]byte{b})
		for {
			out := incremental.ProcessIncoming()
			if out.Kind != OutcomeSuccess {
				break
			}
			gotIncremental = append(gotIncremental, out.Read.ID)
		}
	}

	require.Equal(ids, gotOneShot)
	require.Equal(ids, gotIncremental)
}

// TestIncomingRequestsNeverExceedLimit is property P2.
func TestIncomingRequestsNeverExceedLimit(t *testing.T) {
	require := require.New(t)
	const limit = 4
	m := newTestMux(limit)

	for id := uint16(0); id < 20; id++ {
		m.Feed(requestFrame(0, id))
		out := m.ProcessIncoming()
		require.LessOrEqual(len(m.channels[0].incoming), limit)
		if out.Kind == OutcomeFatal {
			break
		}
	}
}

// TestCancellationAllowanceBounded is property P3.
func TestCancellationAllowanceBounded(t *testing.T) {
	require := require.New(t)
	const limit = 3
	m := newTestMux(limit)

	for id := uint16(0); id < limit; id++ {
		m.Feed(requestFrame(0, id))
		m.ProcessIncoming()
		require.LessOrEqual(m.channels[0].cancellationAllowance, uint32(limit))
	}

	for id := uint16(0); id < limit+2; id++ {
		h := Header{Channel: 0, ID: id, Kind: KindCancelReq}
		m.Feed(h.Encode())
		m.ProcessIncoming()
		require.GreaterOrEqual(m.channels[0].cancellationAllowance, uint32(0))
		require.LessOrEqual(m.channels[0].cancellationAllowance, uint32(limit))
	}
}
