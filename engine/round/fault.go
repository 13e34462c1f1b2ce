// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

// FaultKind tags which variant a Fault carries.
type FaultKind byte

const (
	// FaultBanned marks a validator excluded from the era outright (e.g.
	// an operator-supplied ban list), with no evidence attached.
	FaultBanned FaultKind = iota
	// FaultDirect is on-hand proof of equivocation: two signed messages
	// from the same validator, same round, that conflict.
	FaultDirect
	// FaultIndirect records that a peer vouched for a validator's
	// fault via sync state without handing over the conflicting
	// messages; it can be upgraded to FaultDirect once they arrive.
	FaultIndirect
)

// Fault records why a validator is excluded from quorum counting.
type Fault struct {
	Kind FaultKind
	// Msg0, Msg1 hold the conflicting messages for FaultDirect. Both are
	// the zero value for FaultBanned and FaultIndirect.
	Msg0, Msg1 SignedMessage
}

// Upgrade promotes an indirect fault to direct once the evidence shows
// up, returning the upgraded fault. Banned faults are left untouched.
func (f Fault) Upgrade(msg0, msg1 SignedMessage) Fault {
	if f.Kind == FaultBanned {
		return f
	}
	return Fault{Kind: FaultDirect, Msg0: msg0, Msg1: msg1}
}

// conflicts reports whether a and b are two different signed contents
// from the same validator in the same round that constitute
// equivocation: two different proposals, two different echoes, or
// opposite votes.
func conflicts(a, b SignedMessage) bool {
	if a.RoundID != b.RoundID || a.ValidatorIndex != b.ValidatorIndex {
		return false
	}
	if a.Content.Kind != b.Content.Kind {
		return false
	}
	switch a.Content.Kind {
	case ContentProposal:
		return ProposalHash(a.Content.Proposal) != ProposalHash(b.Content.Proposal)
	case ContentEcho:
		return a.Content.Echo != b.Content.Echo
	case ContentVote:
		return a.Content.Vote != b.Content.Vote
	default:
		return false
	}
}

// FaultSet tracks which validators of an era are currently excluded from
// quorum counting, and the evidence backing each exclusion.
type FaultSet struct {
	byValidator map[ValidatorIndex]Fault
}

// NewFaultSet returns an empty FaultSet.
func NewFaultSet() *FaultSet {
	return &FaultSet{byValidator: make(map[ValidatorIndex]Fault)}
}

// Get returns the fault recorded for idx, if any.
func (fs *FaultSet) Get(idx ValidatorIndex) (Fault, bool) {
	f, ok := fs.byValidator[idx]
	return f, ok
}

// IsFaulty reports whether idx is currently excluded.
func (fs *FaultSet) IsFaulty(idx ValidatorIndex) bool {
	_, ok := fs.byValidator[idx]
	return ok
}

// Ban marks idx as banned.
func (fs *FaultSet) Ban(idx ValidatorIndex) {
	fs.byValidator[idx] = Fault{Kind: FaultBanned}
}

// RecordIndirect marks idx as indirectly faulty unless a stronger fault
// is already on file.
func (fs *FaultSet) RecordIndirect(idx ValidatorIndex) (isNew bool) {
	if _, ok := fs.byValidator[idx]; ok {
		return false
	}
	fs.byValidator[idx] = Fault{Kind: FaultIndirect}
	return true
}

// RecordDirect marks idx as directly faulty with evidence msg0, msg1,
// upgrading any prior indirect or absent record. Returns false (no
// state change) if msg0/msg1 don't actually conflict, or if idx is
// already directly faulty or banned.
func (fs *FaultSet) RecordDirect(idx ValidatorIndex, msg0, msg1 SignedMessage) (isNew bool) {
	if !conflicts(msg0, msg1) {
		return false
	}
	if existing, ok := fs.byValidator[idx]; ok && existing.Kind != FaultIndirect {
		return false
	}
	fs.byValidator[idx] = Fault{Kind: FaultDirect, Msg0: msg0, Msg1: msg1}
	return true
}

// Weight returns the total weight of every currently faulty validator,
// per the supplied weight lookup.
func (fs *FaultSet) Weight(weight func(ValidatorIndex) uint64) uint64 {
	var total uint64
	for idx := range fs.byValidator {
		total += weight(idx)
	}
	return total
}

// Indices returns the validator indices currently recorded as faulty.
func (fs *FaultSet) Indices() []ValidatorIndex {
	out := make([]ValidatorIndex, 0, len(fs.byValidator))
	for idx := range fs.byValidator {
		out = append(out, idx)
	}
	return out
}
