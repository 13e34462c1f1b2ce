// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestMux(requestLimit uint32) *Multiplexer {
	return New([]ChannelConfig{{
		RequestLimit:           requestLimit,
		MaxRequestPayloadSize:  1024,
		MaxResponsePayloadSize: 1024,
	}}, nil, nil)
}

func requestFrame(channel uint8, id uint16) []byte {
	h := Header{Channel: channel, ID: id, Kind: KindRequest}
	return h.Encode()
}

func TestRequestLimitEdge(t *testing.T) {
	require := require.New(t)
	m := newTestMux(3)

	for _, id := range []uint16{1, 2, 3} {
		m.Feed(requestFrame(0, id))
		out := m.ProcessIncoming()
		require.Equal(OutcomeSuccess, out.Kind)
		require.Equal(ReadNewRequest, out.Read.Kind)
		require.Equal(id, out.Read.ID)
	}

	m.Feed(requestFrame(0, 4))
	out := m.ProcessIncoming()
	require.Equal(OutcomeFatal, out.Kind)
	require.Equal(ErrorKindRequestLimitExceeded, out.FatalHeader.ErrorKind)
}

func TestDuplicateRequest(t *testing.T) {
	require := require.New(t)
	m := newTestMux(10)

	m.Feed(requestFrame(0, 7))
	require.Equal(OutcomeSuccess, m.ProcessIncoming().Kind)

	m.Feed(requestFrame(0, 7))
	out := m.ProcessIncoming()
	require.Equal(OutcomeFatal, out.Kind)
	require.Equal(ErrorKindDuplicateRequest, out.FatalHeader.ErrorKind)
}

func TestCancellationAllowance(t *testing.T) {
	require := require.New(t)
	m := newTestMux(2)

	m.Feed(requestFrame(0, 1))
	require.Equal(OutcomeSuccess, m.ProcessIncoming().Kind)
	m.Feed(requestFrame(0, 2))
	require.Equal(OutcomeSuccess, m.ProcessIncoming().Kind)

	cancel := Header{Channel: 0, ID: 1, Kind: KindCancelReq}
	m.Feed(cancel.Encode())
	out := m.ProcessIncoming()
	require.Equal(OutcomeSuccess, out.Kind)
	require.Equal(ReadRequestCancellation, out.Read.Kind)

	cancel2 := Header{Channel: 0, ID: 2, Kind: KindCancelReq}
	m.Feed(cancel2.Encode())
	out = m.ProcessIncoming()
	require.Equal(OutcomeSuccess, out.Kind)

	cancel3 := Header{Channel: 0, ID: 3, Kind: KindCancelReq}
	m.Feed(cancel3.Encode())
	out = m.ProcessIncoming()
	require.Equal(OutcomeFatal, out.Kind)
	require.Equal(ErrorKindCancellationLimitExceeded, out.FatalHeader.ErrorKind)
}

func TestInvalidChannel(t *testing.T) {
	require := require.New(t)
	m := newTestMux(1)

	m.Feed(requestFrame(5, 1))
	out := m.ProcessIncoming()
	require.Equal(OutcomeFatal, out.Kind)
	require.Equal(ErrorKindInvalidChannel, out.FatalHeader.ErrorKind)
}

func TestIncompleteThenComplete(t *testing.T) {
	require := require.New(t)
	m := newTestMux(1)

	full := requestFrame(0, 9)
	m.Feed(full[:2])
	out := m.ProcessIncoming()
	require.Equal(OutcomeIncomplete, out.Kind)
	require.Positive(out.NeededBytes)

	m.Feed(full[2:])
	out = m.ProcessIncoming()
	require.Equal(OutcomeSuccess, out.Kind)
	require.Equal(uint16(9), out.Read.ID)
}

func TestResponseFictitious(t *testing.T) {
	require := require.New(t)
	m := newTestMux(1)

	h := Header{Channel: 0, ID: 1, Kind: KindResponse}
	m.Feed(h.Encode())
	out := m.ProcessIncoming()
	require.Equal(OutcomeFatal, out.Kind)
	require.Equal(ErrorKindFictitiousRequest, out.FatalHeader.ErrorKind)
}

func TestResponseRoundTrip(t *testing.T) {
	require := require.New(t)
	m := newTestMux(4)
	require.True(m.AllowedToSendRequest(0))

	out, err := m.CreateRequest(0, nil)
	require.NoError(err)
	require.Len(out.Frames, 1)

	resp := Header{Channel: 0, ID: out.ID, Kind: KindResponse}
	m.Feed(resp.Encode())
	o := m.ProcessIncoming()
	require.Equal(OutcomeSuccess, o.Kind)
	require.Equal(ReadReceivedResponse, o.Read.Kind)
}

func TestMultiframeRequestPayload(t *testing.T) {
	require := require.New(t)
	m := newTestMux(1)

	h := Header{Channel: 0, ID: 42, Kind: KindRequestPl}
	payload := []byte("hello multiframe world")
	// split into two chunks manually
	frame1 := append(append([]byte{}, h.Encode()...), encodeChunk(payload[:10], false)...)
	frame2 := append(append([]byte{}, h.Encode()...), encodeChunk(payload[10:], true)...)

	m.Feed(frame1)
	out := m.ProcessIncoming()
	require.Equal(OutcomeIncomplete, out.Kind)

	m.Feed(frame2)
	out = m.ProcessIncoming()
	require.Equal(OutcomeSuccess, out.Kind)
	require.Equal(ReadNewRequest, out.Read.Kind)
	require.Equal(payload, out.Read.Payload)
}

func TestRequestTooLarge(t *testing.T) {
	require := require.New(t)
	m := New([]ChannelConfig{{RequestLimit: 1, MaxRequestPayloadSize: 4, MaxResponsePayloadSize: 4}}, nil, nil)

	h := Header{Channel: 0, ID: 1, Kind: KindRequestPl}
	frame := append(append([]byte{}, h.Encode()...), encodeChunk([]byte("toolong"), true)...)
	m.Feed(frame)
	out := m.ProcessIncoming()
	require.Equal(OutcomeFatal, out.Kind)
	require.Equal(ErrorKindRequestTooLarge, out.FatalHeader.ErrorKind)
}

func TestInvalidHeaderUnknownKind(t *testing.T) {
	require := require.New(t)
	m := newTestMux(1)

	bad := Header{Channel: 0, ID: 1, Kind: KindRequest}.Encode()
	bad[3] = 0xFF // corrupt kind byte to an unknown value
	m.Feed(bad)
	out := m.ProcessIncoming()
	require.Equal(OutcomeFatal, out.Kind)
	require.Equal(ErrorKindInvalidHeader, out.FatalHeader.ErrorKind)
}

func TestCreateRequestExceedsLimit(t *testing.T) {
	require := require.New(t)
	m := newTestMux(1)

	_, err := m.CreateRequest(0, nil)
	require.NoError(err)
	require.False(m.AllowedToSendRequest(0))

	_, err = m.CreateRequest(0, nil)
	require.ErrorIs(err, ErrExceedsLimit)
}

func TestCreateRequestPayloadTooLarge(t *testing.T) {
	require := require.New(t)
	m := New([]ChannelConfig{{RequestLimit: 1, MaxRequestPayloadSize: 2, MaxResponsePayloadSize: 2}}, nil, nil)
	_, err := m.CreateRequest(0, []byte("xyz"))
	require.ErrorIs(err, ErrExceedsLimit)
}
