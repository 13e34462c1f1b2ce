// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package round implements the per-era round/echo/vote consensus engine
// described in SPEC_FULL.md section 4.2: a single-threaded state machine
// that finalizes a linear sequence of proposals against a weighted
// validator set, tolerating a bounded amount of equivocating and
// inactive stake.
package round

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/roundbft/utils/wrappers"
)

// RoundID is a 32-bit round counter starting at 0.
type RoundID uint32

// ValidatorIndex addresses a validator within an era's ordered validator
// list, the indexing scheme Round's echo/vote maps key on.
type ValidatorIndex uint16

// Hash is a deterministic digest of a byte-serialized value.
type Hash [32]byte

// Signature is an opaque signature over a (round_id, instance_id,
// content, validator_idx) pre-image.
type Signature []byte

// Block is the opaque, externally-validated consensus value a Proposal
// may carry. A nil Block makes the Proposal a dummy.
type Block []byte

// BlockContext is handed to the external block-proposer / validator
// alongside a CreateNewBlock / ValidateConsensusValue outcome.
type BlockContext struct {
	Timestamp      time.Time
	AncestorValues []Block
}

// Proposal is (timestamp, optional block, optional parent round).
type Proposal struct {
	Timestamp     time.Time
	Block         Block // nil => dummy proposal
	HasParent     bool
	ParentRoundID RoundID
}

// IsDummy reports whether the proposal carries no block.
func (p Proposal) IsDummy() bool { return p.Block == nil }

// encode produces the deterministic byte serialization Hash() and the
// signed pre-image are both built from, in the teacher's big-endian
// Packer idiom (utils/wrappers).
func (p Proposal) encode() []byte {
	pk := wrappers.NewPacker(64 + len(p.Block))
	pk.PackLong(uint64(p.Timestamp.UnixNano()))
	if p.HasParent {
		pk.PackByte(1)
		pk.PackInt(uint32(p.ParentRoundID))
	} else {
		pk.PackByte(0)
	}
	if p.Block == nil {
		pk.PackByte(0)
	} else {
		pk.PackByte(1)
		pk.PackInt(uint32(len(p.Block)))
		pk.PackBytes(p.Block)
	}
	return pk.Bytes
}

// ProposalHash returns the deterministic digest of a proposal.
func ProposalHash(p Proposal) Hash {
	return sha256.Sum256(p.encode())
}

// ContentKind tags which variant a Content carries.
type ContentKind byte

const (
	ContentProposal ContentKind = iota
	ContentEcho
	ContentVote
)

// Content is the signed payload of a Signed message: a proposal, an echo
// of a proposal hash, or a boolean vote.
type Content struct {
	Kind     ContentKind
	Proposal Proposal // meaningful iff Kind == ContentProposal
	Echo     Hash     // meaningful iff Kind == ContentEcho
	Vote     bool     // meaningful iff Kind == ContentVote
}

func (c Content) encode() []byte {
	switch c.Kind {
	case ContentProposal:
		pk := wrappers.NewPacker(1)
		pk.PackByte(byte(ContentProposal))
		pk.PackBytes(c.Proposal.encode())
		return pk.Bytes
	case ContentEcho:
		pk := wrappers.NewPacker(33)
		pk.PackByte(byte(ContentEcho))
		pk.PackBytes(c.Echo[:])
		return pk.Bytes
	case ContentVote:
		pk := wrappers.NewPacker(2)
		pk.PackByte(byte(ContentVote))
		if c.Vote {
			pk.PackByte(1)
		} else {
			pk.PackByte(0)
		}
		return pk.Bytes
	default:
		return []byte{byte(c.Kind)}
	}
}

// EchoContent builds a Content carrying an echo of hash h.
func EchoContent(h Hash) Content { return Content{Kind: ContentEcho, Echo: h} }

// VoteContent builds a Content carrying a boolean vote.
func VoteContent(v bool) Content { return Content{Kind: ContentVote, Vote: v} }

// ProposalContent builds a Content carrying a proposal.
func ProposalContent(p Proposal) Content { return Content{Kind: ContentProposal, Proposal: p} }

// SignedMessage is a signed (round_id, instance_id, content, validator_idx)
// tuple, the unit consensus messages are authenticated as.
type SignedMessage struct {
	RoundID        RoundID
	InstanceID     ids.ID
	Content        Content
	ValidatorIndex ValidatorIndex
	Signature      Signature
}

// Preimage is the exact byte sequence that gets hashed/signed/verified
// for a SignedMessage, per SPEC_FULL.md section 6: "The signed pre-image
// is the encoding of (round_id, instance_id, content, validator_idx)."
func Preimage(roundID RoundID, instanceID ids.ID, content Content, idx ValidatorIndex) []byte {
	pk := wrappers.NewPacker(64)
	pk.PackInt(uint32(roundID))
	pk.PackBytes(instanceID[:])
	pk.PackBytes(content.encode())
	var idxBuf [2]byte
	binary.BigEndian.PutUint16(idxBuf[:], uint16(idx))
	pk.PackBytes(idxBuf[:])
	return pk.Bytes
}
