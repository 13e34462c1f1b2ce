// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/roundbft/utils/wrappers"
)

// window128 is a fixed 128-bit bitfield indexed by validator index
// relative to a round's first_validator_idx, the compact encoding
// SyncState uses to report which validators have echoed, voted, or gone
// faulty without listing them one by one.
type window128 [2]uint64

func (w window128) get(i int) bool {
	if i < 0 || i >= 128 {
		return false
	}
	word, bit := i/64, uint(i%64)
	return w[word]&(1<<bit) != 0
}

func (w *window128) set(i int) {
	if i < 0 || i >= 128 {
		return
	}
	word, bit := i/64, uint(i%64)
	w[word] |= 1 << bit
}

func (w window128) encode(pk *wrappers.Packer) {
	pk.PackLong(w[0])
	pk.PackLong(w[1])
}

func decodeWindow128(up *wrappers.Unpacker) window128 {
	return window128{up.UnpackLong(), up.UnpackLong()}
}

// SyncState is the periodic gossip message a validator sends about a
// single round's progress: which of the window of validators starting
// at FirstValidatorIdx have echoed (and which hash), voted true, voted
// false, or are known faulty.
type SyncState struct {
	RoundID          RoundID
	InstanceID       ids.ID
	ProposalPresent  bool
	ProposalHash     Hash // meaningful iff ProposalPresent
	FirstValidatorIdx ValidatorIndex
	EchoHash         Hash // dominant echoed hash this peer has observed, if any
	EchoHashPresent  bool
	EchoBits         window128
	TrueVoteBits     window128
	FalseVoteBits    window128
	FaultyBits       window128
}

// Encode produces the deterministic wire form of a SyncState.
func (s SyncState) Encode() []byte {
	pk := wrappers.NewPacker(256)
	pk.PackInt(uint32(s.RoundID))
	pk.PackBytes(s.InstanceID[:])
	if s.ProposalPresent {
		pk.PackByte(1)
		pk.PackBytes(s.ProposalHash[:])
	} else {
		pk.PackByte(0)
	}
	pk.PackShort(uint16(s.FirstValidatorIdx))
	if s.EchoHashPresent {
		pk.PackByte(1)
		pk.PackBytes(s.EchoHash[:])
	} else {
		pk.PackByte(0)
	}
	s.EchoBits.encode(pk)
	s.TrueVoteBits.encode(pk)
	s.FalseVoteBits.encode(pk)
	s.FaultyBits.encode(pk)
	return pk.Bytes
}

// DecodeSyncState parses the wire form produced by Encode. ok is false
// if b is malformed.
func DecodeSyncState(b []byte) (s SyncState, ok bool) {
	up := wrappers.NewUnpacker(b)
	s.RoundID = RoundID(up.UnpackInt())
	copy(s.InstanceID[:], up.UnpackBytes(len(s.InstanceID)))
	if up.UnpackByte() == 1 {
		s.ProposalPresent = true
		copy(s.ProposalHash[:], up.UnpackBytes(len(s.ProposalHash)))
	}
	s.FirstValidatorIdx = ValidatorIndex(up.UnpackShort())
	if up.UnpackByte() == 1 {
		s.EchoHashPresent = true
		copy(s.EchoHash[:], up.UnpackBytes(len(s.EchoHash)))
	}
	s.EchoBits = decodeWindow128(up)
	s.TrueVoteBits = decodeWindow128(up)
	s.FalseVoteBits = decodeWindow128(up)
	s.FaultyBits = decodeWindow128(up)
	if up.Err != nil {
		return SyncState{}, false
	}
	return s, true
}

// Encode produces the deterministic wire form of a SignedMessage: the
// four-tuple preimage followed by the signature.
func (m SignedMessage) Encode() []byte {
	body := Preimage(m.RoundID, m.InstanceID, m.Content, m.ValidatorIndex)
	pk := wrappers.NewPacker(len(body) + 2 + len(m.Signature))
	pk.PackBytes(body)
	pk.PackShort(uint16(len(m.Signature)))
	pk.PackBytes(m.Signature)
	return pk.Bytes
}
