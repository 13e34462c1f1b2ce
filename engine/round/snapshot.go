// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"time"

	"github.com/luxfi/ids"
)

// RoundSnapshot is a pure-data projection of a Round, suitable for
// serialization or diffing without exposing the live maps.
type RoundSnapshot struct {
	Proposals map[Hash]ProposalRecord
	Echoes    map[Hash]map[ValidatorIndex]Signature
	TrueVotes map[ValidatorIndex]Signature
	FalseVotes map[ValidatorIndex]Signature
	Outcome   RoundOutcome
}

// FaultSnapshot is a pure-data projection of a single validator's fault
// record.
type FaultSnapshot struct {
	Validator ValidatorIndex
	Fault     Fault
}

// EraSnapshot is a pure-data projection of an Era's entire state, per
// SPEC_FULL.md section 3.2: everything needed to resume consensus after
// a restart, with none of the engine's live bookkeeping (timers,
// logger, crypto).
type EraSnapshot struct {
	InstanceID    ids.ID
	Config        Config
	ValidatorIDs  []ids.NodeID
	WeightByIndex []uint64
	TotalWeight   uint64
	Ftt           uint64

	Rounds                 map[RoundID]RoundSnapshot
	RoundCreatedAt         map[RoundID]time.Time
	FirstNonFinalizedRound RoundID
	HighestRoundCreated    RoundID
	FinalizedHeight        uint64
	LastAcceptedRound      RoundID
	HasAcceptedRound       bool

	Faults []FaultSnapshot
}

// Snapshot projects the era's current state into an EraSnapshot.
func (e *Era) Snapshot() EraSnapshot {
	rounds := make(map[RoundID]RoundSnapshot, len(e.Rounds))
	for id, r := range e.Rounds {
		rounds[id] = RoundSnapshot{
			Proposals:  cloneProposals(r.Proposals),
			Echoes:     cloneEchoes(r.Echoes),
			TrueVotes:  cloneSigs(r.Votes[1]),
			FalseVotes: cloneSigs(r.Votes[0]),
			Outcome:    r.Outcome.clone(),
		}
	}
	var faults []FaultSnapshot
	for _, idx := range e.Faults.Indices() {
		f, _ := e.Faults.Get(idx)
		faults = append(faults, FaultSnapshot{Validator: idx, Fault: f})
	}
	createdAt := make(map[RoundID]time.Time, len(e.RoundCreatedAt))
	for id, t := range e.RoundCreatedAt {
		createdAt[id] = t
	}
	return EraSnapshot{
		InstanceID:             e.InstanceID,
		Config:                 e.Config,
		ValidatorIDs:           append([]ids.NodeID(nil), e.ValidatorIDs...),
		WeightByIndex:          append([]uint64(nil), e.WeightByIndex...),
		TotalWeight:            e.TotalWeight,
		Ftt:                    e.Ftt,
		Rounds:                 rounds,
		RoundCreatedAt:         createdAt,
		FirstNonFinalizedRound: e.FirstNonFinalizedRound,
		HighestRoundCreated:    e.HighestRoundCreated,
		FinalizedHeight:        e.FinalizedHeight,
		LastAcceptedRound:      e.LastAcceptedRound,
		HasAcceptedRound:       e.HasAcceptedRound,
		Faults:                 faults,
	}
}

// RestoreFromSnapshot rebuilds a live Era from a previously-taken
// snapshot.
func RestoreFromSnapshot(s EraSnapshot) *Era {
	e := NewEra(s.InstanceID, s.ValidatorIDs, s.WeightByIndex, s.Config)
	e.TotalWeight = s.TotalWeight
	e.Ftt = s.Ftt
	e.FirstNonFinalizedRound = s.FirstNonFinalizedRound
	e.HighestRoundCreated = s.HighestRoundCreated
	e.FinalizedHeight = s.FinalizedHeight
	e.LastAcceptedRound = s.LastAcceptedRound
	e.HasAcceptedRound = s.HasAcceptedRound
	for id, t := range s.RoundCreatedAt {
		e.RoundCreatedAt[id] = t
	}

	for id, rs := range s.Rounds {
		r := NewRound()
		r.Proposals = cloneProposals(rs.Proposals)
		r.Echoes = cloneEchoes(rs.Echoes)
		r.Votes[1] = cloneSigs(rs.TrueVotes)
		r.Votes[0] = cloneSigs(rs.FalseVotes)
		r.Outcome = rs.Outcome.clone()
		e.Rounds[id] = r
	}
	for _, fs := range s.Faults {
		e.Faults.byValidator[fs.Validator] = fs.Fault
	}
	return e
}

func cloneProposals(m map[Hash]ProposalRecord) map[Hash]ProposalRecord {
	out := make(map[Hash]ProposalRecord, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneEchoes(m map[Hash]map[ValidatorIndex]Signature) map[Hash]map[ValidatorIndex]Signature {
	out := make(map[Hash]map[ValidatorIndex]Signature, len(m))
	for k, v := range m {
		out[k] = cloneSigs(v)
	}
	return out
}

func cloneSigs(m map[ValidatorIndex]Signature) map[ValidatorIndex]Signature {
	out := make(map[ValidatorIndex]Signature, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
