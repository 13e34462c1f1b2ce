// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

// ProposalRecord pairs a proposal with the signature of the validator
// (the round's leader) that sent it.
type ProposalRecord struct {
	Proposal  Proposal
	Signature Signature
	Sender    ValidatorIndex
}

// RoundOutcome caches the three acceptance predicates of SPEC_FULL.md
// section 4.2.1 so check_proposal doesn't have to re-derive them from
// scratch on every call.
type RoundOutcome struct {
	AcceptedProposalHeight *uint64
	QuorumEchoes           *Hash
	QuorumVotes            *bool
}

func (o RoundOutcome) clone() RoundOutcome {
	var c RoundOutcome
	if o.AcceptedProposalHeight != nil {
		h := *o.AcceptedProposalHeight
		c.AcceptedProposalHeight = &h
	}
	if o.QuorumEchoes != nil {
		h := *o.QuorumEchoes
		c.QuorumEchoes = &h
	}
	if o.QuorumVotes != nil {
		v := *o.QuorumVotes
		c.QuorumVotes = &v
	}
	return c
}

// Committed reports whether this round has a quorum of true votes.
func (o RoundOutcome) Committed() bool {
	return o.QuorumVotes != nil && *o.QuorumVotes
}

// Skippable reports whether this round has a quorum of false votes.
func (o RoundOutcome) Skippable() bool {
	return o.QuorumVotes != nil && !*o.QuorumVotes
}

// Round is the per-round mutable state of SPEC_FULL.md section 3.2: the
// proposals seen, the echoes and votes cast, and the cached outcome.
type Round struct {
	Proposals map[Hash]ProposalRecord
	Echoes    map[Hash]map[ValidatorIndex]Signature
	// Votes[0] holds false-votes, Votes[1] holds true-votes, keyed by
	// validator index -> signature.
	Votes   [2]map[ValidatorIndex]Signature
	Outcome RoundOutcome
}

// NewRound returns an empty round.
func NewRound() *Round {
	return &Round{
		Proposals: make(map[Hash]ProposalRecord),
		Echoes:    make(map[Hash]map[ValidatorIndex]Signature),
		Votes:     [2]map[ValidatorIndex]Signature{make(map[ValidatorIndex]Signature), make(map[ValidatorIndex]Signature)},
	}
}

// ProposalFrom returns the hash of the proposal sender already submitted
// this round, if any.
func (r *Round) ProposalFrom(sender ValidatorIndex) (Hash, bool) {
	for hash, rec := range r.Proposals {
		if rec.Sender == sender {
			return hash, true
		}
	}
	return Hash{}, false
}

// InsertProposal records rec under its hash if not already present.
// Returns whether this was a new insertion.
func (r *Round) InsertProposal(hash Hash, rec ProposalRecord) bool {
	if _, ok := r.Proposals[hash]; ok {
		return false
	}
	r.Proposals[hash] = rec
	return true
}

// EchoedBy returns the hash validator idx has already echoed this round,
// if any.
func (r *Round) EchoedBy(idx ValidatorIndex) (Hash, bool) {
	for hash, signers := range r.Echoes {
		if _, ok := signers[idx]; ok {
			return hash, true
		}
	}
	return Hash{}, false
}

// InsertEcho records that validator idx echoed hash, returning whether
// this was new.
func (r *Round) InsertEcho(hash Hash, idx ValidatorIndex, sig Signature) bool {
	signers, ok := r.Echoes[hash]
	if !ok {
		signers = make(map[ValidatorIndex]Signature)
		r.Echoes[hash] = signers
	}
	if _, already := signers[idx]; already {
		return false
	}
	signers[idx] = sig
	return true
}

// VotedBy returns the boolean validator idx already voted this round, if
// any.
func (r *Round) VotedBy(idx ValidatorIndex) (bool, bool) {
	if _, ok := r.Votes[1][idx]; ok {
		return true, true
	}
	if _, ok := r.Votes[0][idx]; ok {
		return false, true
	}
	return false, false
}

// InsertVote records validator idx's vote v, returning whether this was
// new.
func (r *Round) InsertVote(v bool, idx ValidatorIndex, sig Signature) bool {
	i := 0
	if v {
		i = 1
	}
	if _, already := r.Votes[i][idx]; already {
		return false
	}
	r.Votes[i][idx] = sig
	return true
}

// PurgeValidator removes every echo/vote recorded for idx, used when idx
// is discovered to be faulty — its weight counts toward every quorum
// implicitly from then on (SPEC_FULL.md section 4.2.4).
func (r *Round) PurgeValidator(idx ValidatorIndex) {
	for _, signers := range r.Echoes {
		delete(signers, idx)
	}
	delete(r.Votes[0], idx)
	delete(r.Votes[1], idx)
}

// Contains reports whether content has already been recorded for idx in
// this round, used to silently drop already-seen messages.
func (r *Round) Contains(content Content, idx ValidatorIndex) bool {
	switch content.Kind {
	case ContentProposal:
		hash, ok := r.ProposalFrom(idx)
		return ok && hash == ProposalHash(content.Proposal)
	case ContentEcho:
		signers, ok := r.Echoes[content.Echo]
		if !ok {
			return false
		}
		_, signed := signers[idx]
		return signed
	case ContentVote:
		i := 0
		if content.Vote {
			i = 1
		}
		_, ok := r.Votes[i][idx]
		return ok
	default:
		return false
	}
}

// echoWeight returns the weight of validators that echoed hash, per the
// supplied weight lookup.
func (r *Round) echoWeight(hash Hash, weight func(ValidatorIndex) uint64) uint64 {
	var total uint64
	for idx := range r.Echoes[hash] {
		total += weight(idx)
	}
	return total
}

// voteWeight returns the weight of validators that voted v.
func (r *Round) voteWeight(v bool, weight func(ValidatorIndex) uint64) uint64 {
	i := 0
	if v {
		i = 1
	}
	var total uint64
	for idx := range r.Votes[i] {
		total += weight(idx)
	}
	return total
}
