// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import "github.com/luxfi/roundbft/utils/bag"

// BuildSyncState summarizes round id's progress over the 128-validator
// window starting at firstIdx and wrapping modulo the validator count,
// for periodic gossip (SPEC_FULL.md section 4.2.2's sync-state exchange).
func (eng *Engine) BuildSyncState(id RoundID, firstIdx ValidatorIndex) SyncState {
	s := SyncState{
		RoundID:           id,
		InstanceID:        eng.era.InstanceID,
		FirstValidatorIdx: firstIdx,
	}
	r, ok := eng.era.Rounds[id]
	if !ok {
		return s
	}
	if hash, ok := dominantEcho(r, eng.era.Weight); ok {
		s.EchoHashPresent = true
		s.EchoHash = hash
	}
	if _, ok := r.Proposals[s.EchoHash]; ok && s.EchoHashPresent {
		s.ProposalPresent = true
		s.ProposalHash = s.EchoHash
	}
	n := len(eng.era.ValidatorIDs)
	for off := 0; off < 128 && off < n; off++ {
		idx := ValidatorIndex((int(firstIdx) + off) % n)
		if s.EchoHashPresent {
			if signers, ok := r.Echoes[s.EchoHash]; ok {
				if _, echoed := signers[idx]; echoed {
					s.EchoBits.set(off)
				}
			}
		}
		if _, ok := r.Votes[1][idx]; ok {
			s.TrueVoteBits.set(off)
		}
		if _, ok := r.Votes[0][idx]; ok {
			s.FalseVoteBits.set(off)
		}
		if eng.era.Faults.IsFaulty(idx) {
			s.FaultyBits.set(off)
		}
	}
	return s
}

// dominantEcho returns the most heavily-weighted echoed hash in r, the
// weighted-tally selection SPEC_FULL.md's sync state reports as "the"
// echo for a round. Weighted tallying goes through utils/bag, the same
// vote-counting primitive the rest of this dependency's consensus
// protocols use; ties resolve toward the lexicographically smaller hash
// for determinism, which Bag.Mode alone doesn't guarantee.
func dominantEcho(r *Round, weight func(ValidatorIndex) uint64) (Hash, bool) {
	if len(r.Echoes) == 0 {
		return Hash{}, false
	}
	tally := bag.New[Hash]()
	for hash, signers := range r.Echoes {
		var w int
		for idx := range signers {
			w += int(weight(idx))
		}
		tally.AddCount(hash, w)
	}
	var best Hash
	bestWeight := -1
	for _, hash := range tally.List() {
		w := tally.Count(hash)
		if w > bestWeight || (w == bestWeight && lessHash(hash, best)) {
			best, bestWeight = hash, w
		}
	}
	return best, true
}

func lessHash(a, b Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// HandleSyncState diffs a peer's reported progress for round s.RoundID
// against this node's own state, returning the signed messages that
// peer appears to be missing and any evidence-serving outcomes for
// faulty validators the peer doesn't yet know about.
func (eng *Engine) HandleSyncState(s SyncState, peer ValidatorIndex) []ProtocolOutcome {
	if s.InstanceID != eng.era.InstanceID {
		return nil
	}
	r, ok := eng.era.Rounds[s.RoundID]
	if !ok {
		return nil
	}
	var out []ProtocolOutcome
	n := len(eng.era.ValidatorIDs)
	for off := 0; off < 128 && off < n; off++ {
		idx := ValidatorIndex((int(s.FirstValidatorIdx) + off) % n)

		if !s.FaultyBits.get(off) && eng.era.Faults.IsFaulty(idx) {
			if f, ok := eng.era.Faults.Get(idx); ok {
				if f.Kind == FaultDirect {
					out = append(out, sendEvidence(peer, idx))
				} else {
					out = append(out, newEvidence(idx, f))
				}
			}
		}

		if hash, present := r.EchoedBy(idx); present {
			if !s.EchoHashPresent || s.EchoHash != hash || !s.EchoBits.get(off) {
				out = append(out, targeted(eng.signedFor(s.RoundID, idx, EchoContent(hash), r.Echoes[hash][idx]), peer))
			}
		}
		if v, present := r.VotedBy(idx); present {
			reported := s.TrueVoteBits.get(off) || s.FalseVoteBits.get(off)
			if !reported {
				vi := 0
				if v {
					vi = 1
				}
				out = append(out, targeted(eng.signedFor(s.RoundID, idx, VoteContent(v), r.Votes[vi][idx]), peer))
			}
		}
		if hash, present := r.ProposalFrom(idx); present && !s.ProposalPresent {
			rec := r.Proposals[hash]
			out = append(out, targeted(eng.signedFor(s.RoundID, idx, ProposalContent(rec.Proposal), rec.Signature), peer))
		}
	}
	return out
}

func (eng *Engine) signedFor(id RoundID, idx ValidatorIndex, content Content, sig Signature) SignedMessage {
	return SignedMessage{RoundID: id, InstanceID: eng.era.InstanceID, Content: content, ValidatorIndex: idx, Signature: sig}
}
