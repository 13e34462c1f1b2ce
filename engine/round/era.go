// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/roundbft/utils/set"
)

// Config carries the tunable timing and safety knobs of an era, per
// SPEC_FULL.md section 4.2.5.
type Config struct {
	ProposalTimeout          time.Duration
	PendingVertexTimeout     time.Duration
	RequestStateInterval     time.Duration
	LogParticipationInterval time.Duration
	FinalityThresholdFraction Ratio
	MinimumRoundLength       time.Duration
	EraDuration              time.Duration
	MinimumEraHeight         uint64
}

// MaxFutureRounds bounds how far ahead of the current round an incoming
// message is allowed to reference before it's silently dropped
// (SPEC_FULL.md section 4.2.2), guarding against unbounded Round
// allocation from a misbehaving or lagging peer.
const MaxFutureRounds = 10

// DefaultConfig returns the conservative defaults SPEC_FULL.md section
// 4.2.5 calls out when an operator supplies none.
func DefaultConfig() Config {
	return Config{
		ProposalTimeout:           5 * time.Second,
		PendingVertexTimeout:      30 * time.Second,
		RequestStateInterval:      2 * time.Second,
		LogParticipationInterval:  time.Minute,
		FinalityThresholdFraction: Ratio{Numer: 1, Denom: 3},
		MinimumRoundLength:        time.Second,
		EraDuration:               0,
		MinimumEraHeight:          0,
	}
}

// awaitingParent is a proposal received for a round whose parent round
// hasn't been accepted yet.
type awaitingParent struct {
	msg SignedMessage
}

// awaitingValidation is a proposal whose block is out for external
// ValidateConsensusValue and hasn't come back yet.
type awaitingValidation struct {
	msg SignedMessage
}

// Era is the full mutable state of a single consensus era: the
// validator set and its weights, the rounds seen so far, the fault set,
// and the bookkeeping needed to drive the leader's proposal pipeline.
type Era struct {
	InstanceID ids.ID
	Config     Config

	ValidatorIDs  []ids.NodeID
	WeightByIndex []uint64
	IndexOf       map[ids.NodeID]ValidatorIndex
	TotalWeight   uint64
	Ftt           uint64

	ActiveValidator      ValidatorIndex
	HasActiveValidator   bool
	Paused               bool

	Rounds                 map[RoundID]*Round
	RoundCreatedAt         map[RoundID]time.Time
	FirstNonFinalizedRound RoundID
	HighestRoundCreated    RoundID
	FinalizedHeight        uint64

	// LastAcceptedRound is the highest round-id with an accepted proposal
	// seen so far; HasAcceptedRound is false until the first acceptance.
	// CurrentRound walks forward from here, skipping skippable rounds.
	LastAcceptedRound RoundID
	HasAcceptedRound  bool

	Faults *FaultSet

	AwaitingParent     map[RoundID][]awaitingParent
	AwaitingValidation map[RoundID]awaitingValidation

	ProposalDeadline      time.Time
	ProgressDetected      bool
	PendingProposalRounds set.Set[RoundID]
}

// NewEra constructs an era from a validator set and configuration. The
// validator order given fixes ValidatorIndex assignment for the era's
// lifetime.
func NewEra(instanceID ids.ID, validatorIDs []ids.NodeID, weights []uint64, cfg Config) *Era {
	indexOf := make(map[ids.NodeID]ValidatorIndex, len(validatorIDs))
	var total uint64
	for i, id := range validatorIDs {
		indexOf[id] = ValidatorIndex(i)
		total += weights[i]
	}
	e := &Era{
		InstanceID:            instanceID,
		Config:                cfg,
		ValidatorIDs:          validatorIDs,
		WeightByIndex:         weights,
		IndexOf:               indexOf,
		TotalWeight:           total,
		Ftt:                   FaultToleranceThreshold(total, cfg.FinalityThresholdFraction),
		Rounds:                make(map[RoundID]*Round),
		RoundCreatedAt:        make(map[RoundID]time.Time),
		Faults:                NewFaultSet(),
		AwaitingParent:        make(map[RoundID][]awaitingParent),
		AwaitingValidation:    make(map[RoundID]awaitingValidation),
		PendingProposalRounds: set.NewSet[RoundID](0),
	}
	return e
}

// Weight returns the weight of validator idx, or 0 if out of range.
func (e *Era) Weight(idx ValidatorIndex) uint64 {
	if int(idx) >= len(e.WeightByIndex) {
		return 0
	}
	return e.WeightByIndex[idx]
}

// FaultyWeight returns the summed weight of every validator currently in
// the fault set. Faulty weight counts toward every quorum (SPEC_FULL.md
// section 4.2.4): callers add actual voter/echoer weight on top via
// Round.echoWeight/voteWeight.
func (e *Era) FaultyWeight() uint64 {
	return e.Faults.Weight(e.Weight)
}

// round returns the Round for id, creating it if this is the first time
// it's referenced.
func (e *Era) round(id RoundID) *Round {
	r, ok := e.Rounds[id]
	if !ok {
		r = NewRound()
		e.Rounds[id] = r
		e.RoundCreatedAt[id] = time.Now()
		if id > e.HighestRoundCreated {
			e.HighestRoundCreated = id
		}
	}
	return r
}

// Leader returns the leader validator for roundID.
func (e *Era) Leader(roundID RoundID) ValidatorIndex {
	return LeaderForRound(e.InstanceID, roundID, e.WeightByIndex, e.TotalWeight)
}

// IsLeader reports whether idx is the leader of roundID.
func (e *Era) IsLeader(roundID RoundID, idx ValidatorIndex) bool {
	return e.Leader(roundID) == idx
}

// CurrentRound returns the lowest round-id >= 1+LastAcceptedRound that
// is not skippable (SPEC_FULL.md section 4.2.1). Unlike
// FirstNonFinalizedRound, this advances as soon as a round becomes
// skippable, even if it's never finalized.
func (e *Era) CurrentRound() RoundID {
	next := RoundID(0)
	if e.HasAcceptedRound {
		next = e.LastAcceptedRound + 1
	}
	for {
		r, ok := e.Rounds[next]
		if !ok || !r.Outcome.Skippable() {
			return next
		}
		next++
	}
}
