// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the multiplexed request/response frame reader
// described in SPEC_FULL.md section 4.1: a single-threaded-per-connection
// state machine that reassembles multi-frame payloads on N independent
// logical channels, enforcing per-channel request/cancellation/size
// limits without ever blocking the caller.
package wire

import (
	"fmt"

	"github.com/luxfi/roundbft/utils/wrappers"
)

// Kind is the wire-level tag carried by every frame header.
type Kind byte

const (
	KindRequest Kind = iota
	KindRequestPl
	KindResponse
	KindResponsePl
	KindCancelReq
	KindCancelResp
	KindError
	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "Request"
	case KindRequestPl:
		return "RequestPl"
	case KindResponse:
		return "Response"
	case KindResponsePl:
		return "ResponsePl"
	case KindCancelReq:
		return "CancelReq"
	case KindCancelResp:
		return "CancelResp"
	case KindError:
		return "Error"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// ErrorKind is the nested reason carried by a Kind == KindError header.
type ErrorKind byte

const (
	ErrorKindInvalidHeader ErrorKind = iota
	ErrorKindInvalidChannel
	ErrorKindRequestLimitExceeded
	ErrorKindDuplicateRequest
	ErrorKindRequestTooLarge
	ErrorKindFictitiousRequest
	ErrorKindResponseTooLarge
	ErrorKindCancellationLimitExceeded
	ErrorKindFictitiousCancel
	// ErrorKindOther is reserved for a payload-bearing error body. This
	// implementation parses it but never emits it — see SPEC_FULL.md
	// section 4.1's Open Question on the Other error kind.
	ErrorKindOther
)

func (e ErrorKind) String() string {
	switch e {
	case ErrorKindInvalidHeader:
		return "InvalidHeader"
	case ErrorKindInvalidChannel:
		return "InvalidChannel"
	case ErrorKindRequestLimitExceeded:
		return "RequestLimitExceeded"
	case ErrorKindDuplicateRequest:
		return "DuplicateRequest"
	case ErrorKindRequestTooLarge:
		return "RequestTooLarge"
	case ErrorKindFictitiousRequest:
		return "FictitiousRequest"
	case ErrorKindResponseTooLarge:
		return "ResponseTooLarge"
	case ErrorKindCancellationLimitExceeded:
		return "CancellationLimitExceeded"
	case ErrorKindFictitiousCancel:
		return "FictitiousCancel"
	case ErrorKindOther:
		return "Other"
	default:
		return fmt.Sprintf("ErrorKind(%d)", byte(e))
	}
}

// HeaderSize is the fixed, self-delimiting byte count of an encoded
// Header: channel(1) + id(2) + kind(1) + error_kind(1).
const HeaderSize = 5

// Header is the fixed-size frame header every wire message begins with.
type Header struct {
	Channel   uint8
	ID        uint16
	Kind      Kind
	ErrorKind ErrorKind
}

// ErrorHeader builds the Header a caller should transmit and then tear
// the connection down after, per SPEC_FULL.md section 4.1's failure
// semantics: "Any Fatal(header) is terminal for the connection."
func ErrorHeader(channel uint8, id uint16, kind ErrorKind) Header {
	return Header{Channel: channel, ID: id, Kind: KindError, ErrorKind: kind}
}

// Encode renders h as exactly HeaderSize bytes.
func (h Header) Encode() []byte {
	p := wrappers.NewPacker(HeaderSize)
	p.PackByte(h.Channel)
	p.PackShort(h.ID)
	p.PackByte(byte(h.Kind))
	p.PackByte(byte(h.ErrorKind))
	return p.Bytes
}

// decodeHeader parses exactly HeaderSize bytes. It fails (ok=false) only
// when the kind byte does not name one of the known Kind values — the
// parser MUST reject unknown kind codes per SPEC_FULL.md section 6.
func decodeHeader(b []byte) (Header, bool) {
	if len(b) < HeaderSize {
		return Header{}, false
	}
	u := wrappers.NewUnpacker(b[:HeaderSize])
	channel := u.UnpackByte()
	id := u.UnpackShort()
	kind := Kind(u.UnpackByte())
	errKind := ErrorKind(u.UnpackByte())
	if u.Err != nil || kind >= numKinds {
		return Header{}, false
	}
	return Header{Channel: channel, ID: id, Kind: kind, ErrorKind: errKind}, true
}
