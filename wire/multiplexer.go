// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"errors"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxFrameSize bounds how large a single outgoing chunk frame is;
// it is independent of a channel's payload cap.
const DefaultMaxFrameSize = 16 * 1024

// ErrExceedsLimit is returned by CreateRequest when the channel is
// already at its outgoing request_limit, or the payload exceeds the
// channel's max_request_payload_size.
var ErrExceedsLimit = errors.New("wire: exceeds channel limit")

// ErrUnknownChannel is returned for an out-of-range channel index passed
// to CreateRequest (local programming error, not a wire-level fault);
// AllowedToSendRequest reports false for such an index.
var ErrUnknownChannel = errors.New("wire: unknown channel")

// Multiplexer parses an incoming byte stream on N independent logical
// channels, per SPEC_FULL.md section 4.1. It is single-threaded: all
// methods assume the caller serializes access per connection, exactly
// like the consensus engine it feeds.
type Multiplexer struct {
	channels []*channelState
	buf      []byte

	log     log.Logger
	metrics *channelMetrics
}

// New returns a Multiplexer with one channelState per entry in configs;
// channel i is addressed by index i.
func New(configs []ChannelConfig, logger log.Logger, reg prometheus.Registerer) *Multiplexer {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	channels := make([]*channelState, len(configs))
	for i, cfg := range configs {
		channels[i] = newChannelState(cfg)
	}
	return &Multiplexer{
		channels: channels,
		log:      logger,
		metrics:  newChannelMetrics(reg),
	}
}

// Feed appends raw bytes read off the wire to the multiplexer's internal
// buffer. The caller owns data's backing array after the call returns
// (Feed copies it in).
func (m *Multiplexer) Feed(data []byte) {
	m.buf = append(m.buf, data...)
}

// ProcessIncoming runs the frame-processing loop of SPEC_FULL.md section
// 4.1 against whatever bytes have been Fed so far, consuming them as it
// goes. It returns as soon as one of: a completed read is available, a
// fatal protocol violation is detected, or the buffered bytes run out
// (OutcomeIncomplete, carrying how many more bytes are needed to make
// progress). Property P1 holds regardless of how Feed calls are chunked.
func (m *Multiplexer) ProcessIncoming() Outcome {
	for {
		if len(m.buf) < HeaderSize {
			return incomplete(HeaderSize - len(m.buf))
		}
		h, ok := decodeHeader(m.buf)
		if !ok {
			return fatal(ErrorHeader(0, 0, ErrorKindInvalidHeader))
		}

		if h.Kind == KindError {
			m.buf = m.buf[HeaderSize:]
			m.log.Debug("received error frame", "channel", h.Channel, "id", h.ID, "errorKind", h.ErrorKind.String())
			return success(CompletedRead{Kind: ReadErrorReceived, Header: h}, HeaderSize)
		}

		if int(h.Channel) >= len(m.channels) {
			return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindInvalidChannel))
		}
		ch := m.channels[h.Channel]

		switch h.Kind {
		case KindRequest:
			out, ok := m.handleRequest(ch, h)
			if !ok {
				return out
			}
			return out

		case KindRequestPl:
			out, done := m.handleRequestPl(ch, h)
			if !done {
				continue
			}
			return out

		case KindResponse:
			return m.handleResponse(ch, h)

		case KindResponsePl:
			out, done := m.handleResponsePl(ch, h)
			if !done {
				continue
			}
			return out

		case KindCancelReq:
			return m.handleCancelReq(ch, h)

		case KindCancelResp:
			return m.handleCancelResp(ch, h)

		default:
			return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindInvalidHeader))
		}
	}
}

func (m *Multiplexer) handleRequest(ch *channelState, h Header) (Outcome, bool) {
	if _, dup := ch.incoming[h.ID]; dup {
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindDuplicateRequest)), false
	}
	if uint32(len(ch.incoming)) >= ch.cfg.RequestLimit {
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindRequestLimitExceeded)), false
	}
	ch.incoming[h.ID] = struct{}{}
	ch.bumpCancellationAllowance()
	m.buf = m.buf[HeaderSize:]
	m.metrics.observeNewRequest(h.Channel)
	m.log.Debug("new request", "channel", h.Channel, "id", h.ID)
	return success(CompletedRead{Kind: ReadNewRequest, ID: h.ID}, HeaderSize), true
}

// handleRequestPl returns (outcome, done). done==false means a frame was
// fully consumed but the transfer is not complete yet — the caller loop
// should go around again without returning to its own caller. Every other
// result (Success, Incomplete, Fatal) comes back with done==true and must
// be returned immediately.
func (m *Multiplexer) handleRequestPl(ch *channelState, h Header) (Outcome, bool) {
	body := m.buf[HeaderSize:]

	if ch.cursor.isNewTransfer(h) {
		if _, dup := ch.incoming[h.ID]; dup {
			return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindDuplicateRequest)), true
		}
		if uint32(len(ch.incoming)) >= ch.cfg.RequestLimit {
			return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindRequestLimitExceeded)), true
		}
	}

	consumed, result, needed := ch.cursor.accept(h, body, ch.cfg.MaxRequestPayloadSize)
	switch result {
	case cursorIncomplete:
		return incomplete(needed), true
	case cursorOversize:
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindRequestTooLarge)), true
	case cursorContinuing:
		m.buf = m.buf[HeaderSize+consumed:]
		return Outcome{}, false
	case cursorComplete:
		payload := ch.cursor.payload()
		ch.incoming[h.ID] = struct{}{}
		ch.bumpCancellationAllowance()
		m.buf = m.buf[HeaderSize+consumed:]
		m.metrics.observeNewRequest(h.Channel)
		m.log.Debug("new request (multiframe)", "channel", h.Channel, "id", h.ID, "size", len(payload))
		return success(CompletedRead{Kind: ReadNewRequest, ID: h.ID, Payload: payload}, HeaderSize+consumed), true
	default:
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindInvalidHeader)), true
	}
}

func (m *Multiplexer) handleResponse(ch *channelState, h Header) Outcome {
	if _, ok := ch.outgoing[h.ID]; !ok {
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindFictitiousRequest))
	}
	delete(ch.outgoing, h.ID)
	m.buf = m.buf[HeaderSize:]
	m.log.Debug("received response", "channel", h.Channel, "id", h.ID)
	return success(CompletedRead{Kind: ReadReceivedResponse, ID: h.ID}, HeaderSize)
}

func (m *Multiplexer) handleResponsePl(ch *channelState, h Header) (Outcome, bool) {
	body := m.buf[HeaderSize:]

	if ch.cursor.isNewTransfer(h) {
		if _, ok := ch.outgoing[h.ID]; !ok {
			return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindFictitiousRequest)), true
		}
	}

	consumed, result, needed := ch.cursor.accept(h, body, ch.cfg.MaxResponsePayloadSize)
	switch result {
	case cursorIncomplete:
		return incomplete(needed), true
	case cursorOversize:
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindResponseTooLarge)), true
	case cursorContinuing:
		m.buf = m.buf[HeaderSize+consumed:]
		return Outcome{}, false
	case cursorComplete:
		payload := ch.cursor.payload()
		delete(ch.outgoing, h.ID)
		m.buf = m.buf[HeaderSize+consumed:]
		m.log.Debug("received response (multiframe)", "channel", h.Channel, "id", h.ID, "size", len(payload))
		return success(CompletedRead{Kind: ReadReceivedResponse, ID: h.ID, Payload: payload}, HeaderSize+consumed), true
	default:
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindInvalidHeader)), true
	}
}

func (m *Multiplexer) handleCancelReq(ch *channelState, h Header) Outcome {
	if ch.cancellationAllowance == 0 {
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindCancellationLimitExceeded))
	}
	ch.cancellationAllowance--
	// A partially received multiframe request being cancelled aborts the
	// reassembly in progress for that id (SPEC_FULL.md section 4.1).
	if ch.cursor.active && ch.cursor.id == h.ID && ch.cursor.kind == KindRequestPl {
		ch.cursor.reset()
	}
	m.buf = m.buf[HeaderSize:]
	m.metrics.observeCancel(h.Channel)
	m.log.Debug("request cancellation", "channel", h.Channel, "id", h.ID)
	return success(CompletedRead{Kind: ReadRequestCancellation, ID: h.ID}, HeaderSize)
}

func (m *Multiplexer) handleCancelResp(ch *channelState, h Header) Outcome {
	if _, ok := ch.outgoing[h.ID]; !ok {
		return fatal(ErrorHeader(h.Channel, h.ID, ErrorKindFictitiousCancel))
	}
	delete(ch.outgoing, h.ID)
	m.buf = m.buf[HeaderSize:]
	m.log.Debug("response cancellation", "channel", h.Channel, "id", h.ID)
	return success(CompletedRead{Kind: ReadResponseCancellation, ID: h.ID}, HeaderSize)
}

// AllowedToSendRequest reports whether channel has room for another
// outgoing request under its request_limit.
func (m *Multiplexer) AllowedToSendRequest(channel uint8) bool {
	if int(channel) >= len(m.channels) {
		return false
	}
	ch := m.channels[channel]
	return uint32(len(ch.outgoing)) < ch.cfg.RequestLimit
}

// CreateRequest frames payload (which may be nil) as an outgoing request
// on channel, returning the wire frames ready to send. It fails with
// ErrExceedsLimit if the channel has no room left or payload is larger
// than the channel's max_request_payload_size; callers must check
// AllowedToSendRequest first per the "local programming error" rule in
// SPEC_FULL.md section 7.
func (m *Multiplexer) CreateRequest(channel uint8, payload []byte) (OutgoingMessage, error) {
	if int(channel) >= len(m.channels) {
		return OutgoingMessage{}, ErrUnknownChannel
	}
	ch := m.channels[channel]
	if uint32(len(payload)) > ch.cfg.MaxRequestPayloadSize {
		return OutgoingMessage{}, ErrExceedsLimit
	}
	id, ok := ch.generateRequestID()
	if !ok {
		return OutgoingMessage{}, ErrExceedsLimit
	}
	ch.outgoing[id] = struct{}{}

	if payload == nil {
		h := Header{Channel: channel, ID: id, Kind: KindRequest}
		return OutgoingMessage{ID: id, Frames: [][]byte{h.Encode()}}, nil
	}

	h := Header{Channel: channel, ID: id, Kind: KindRequestPl}
	frames := chunkPayload(h, payload)
	return OutgoingMessage{ID: id, Frames: frames}, nil
}

func chunkPayload(h Header, payload []byte) [][]byte {
	var frames [][]byte
	hdr := h.Encode()
	for offset := 0; ; {
		end := offset + DefaultMaxFrameSize
		final := end >= len(payload)
		if final {
			end = len(payload)
		}
		frame := append(append([]byte{}, hdr...), encodeChunk(payload[offset:end], final)...)
		frames = append(frames, frame)
		if final {
			break
		}
		offset = end
	}
	return frames
}
