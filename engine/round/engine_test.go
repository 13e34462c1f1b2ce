// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// findOutcome returns the first outcome of kind k, if any.
func findOutcome(outs []ProtocolOutcome, k OutcomeKind) (ProtocolOutcome, bool) {
	for _, o := range outs {
		if o.Kind == k {
			return o, true
		}
	}
	return ProtocolOutcome{}, false
}

// TestHappyPathFinalization covers the 3-equal-weight-validator,
// f=1/3 scenario: leader proposes, every validator echoes, every
// validator votes true, and the round finalizes.
func TestHappyPathFinalization(t *testing.T) {
	require := require.New(t)
	s := newTestSetup(3, 1)

	round := RoundID(0)
	leader := int(s.engines[0].Era().Leader(round))

	outs := s.engines[leader].Propose(round, []byte("block-0"), testBlockContext(), 0, false)
	s.deliver(leader, outs)

	for i, eng := range s.engines {
		r, ok := eng.Era().Rounds[round]
		require.True(ok, "engine %d has no round state", i)
		require.True(r.Outcome.Committed(), "engine %d round not committed", i)
		require.NotNil(r.Outcome.AcceptedProposalHeight)
	}
}

// TestRoundSkipViaFalseVoteQuorum covers the skip path: every validator
// votes false (e.g. because the proposal timed out), and the round
// becomes Skippable rather than Committed.
func TestRoundSkipViaFalseVoteQuorum(t *testing.T) {
	require := require.New(t)
	s := newTestSetup(3, 1)
	round := RoundID(0)

	for i, eng := range s.engines {
		outs := eng.Vote(round, false)
		s.deliver(i, outs)
	}

	for i, eng := range s.engines {
		r := eng.Era().Rounds[round]
		require.NotNil(r, "engine %d", i)
		require.True(r.Outcome.Skippable(), "engine %d", i)
		require.False(r.Outcome.Committed(), "engine %d", i)
	}
}

// TestEquivocationCascade: a validator double-votes in the same round;
// once the conflicting pair reaches an honest engine, it should record a
// direct fault and purge the validator's prior votes from the round.
func TestEquivocationCascade(t *testing.T) {
	require := require.New(t)
	s := newTestSetup(4, 1)
	round := RoundID(0)
	culprit := ValidatorIndex(1)

	observer := s.engines[0]
	msgA := SignedMessage{
		RoundID: round, InstanceID: s.instanceID,
		Content: VoteContent(true), ValidatorIndex: culprit,
	}
	msgB := SignedMessage{
		RoundID: round, InstanceID: s.instanceID,
		Content: VoteContent(false), ValidatorIndex: culprit,
	}

	outs := observer.HandleMessage(msgA, s.nodeIDs[culprit], nil)
	require.Empty(outs)

	outs = observer.HandleMessage(msgB, s.nodeIDs[culprit], nil)
	ev, ok := findOutcome(outs, OutcomeNewEvidence)
	require.True(ok, "expected NewEvidence outcome")
	require.Equal(culprit, ev.Validator)
	require.Equal(FaultDirect, ev.Fault.Kind)

	require.True(observer.Era().Faults.IsFaulty(culprit))
	r := observer.Era().Rounds[round]
	require.NotContains(r.Votes[0], culprit)
	require.NotContains(r.Votes[1], culprit)
}

// TestEquivocationCascadeTriggersFinalization: once a round's quorum
// was blocked only by a validator who turns out to be faulty, purging
// that validator's conflicting vote should let faulty-weight-inclusive
// quorum counting push the round over the threshold.
func TestEquivocationCascadeTriggersFinalization(t *testing.T) {
	require := require.New(t)
	// 4 validators, weight 1 each, default f = 1/3 => ftt = floor(4/3) = 1.
	s := newTestSetup(4, 1)
	// Quorum threshold is 4/2 + 1/2 + 0 = 2, so weight 3 is needed.
	round := RoundID(0)
	culprit := ValidatorIndex(3)
	observer := s.engines[0]
	leader := observer.Era().Leader(round)

	p := Proposal{Timestamp: testBlockContext().Timestamp, Block: []byte("block-0")}
	msg := func(idx ValidatorIndex, c Content) SignedMessage {
		return SignedMessage{RoundID: round, InstanceID: s.instanceID, Content: c, ValidatorIndex: idx}
	}

	// The observer (validator 0) echoes once the block validates; echoes
	// from 1 and 2 make an echo quorum, so the proposal is accepted and
	// the observer votes true.
	observer.HandleMessage(msg(leader, ProposalContent(p)), s.nodeIDs[leader], nil)
	observer.ResolveValidity(round, true)
	for _, idx := range []ValidatorIndex{1, 2} {
		observer.HandleMessage(msg(idx, EchoContent(ProposalHash(p))), s.nodeIDs[idx], nil)
	}

	// Validator 1 votes true and the culprit votes false: true-vote
	// weight 2 is one short of a quorum.
	observer.HandleMessage(msg(1, VoteContent(true)), s.nodeIDs[1], nil)
	observer.HandleMessage(msg(culprit, VoteContent(false)), s.nodeIDs[culprit], nil)

	r := observer.Era().Rounds[round]
	require.NotNil(r.Outcome.AcceptedProposalHeight)
	require.False(r.Outcome.Committed())

	// The culprit's conflicting true vote is an equivocation: its weight
	// now counts toward every quorum, which commits and finalizes the round.
	outs := observer.HandleMessage(msg(culprit, VoteContent(true)), s.nodeIDs[culprit], nil)
	require.True(observer.Era().Faults.IsFaulty(culprit))
	fin, ok := findOutcome(outs, OutcomeFinalizedBlock)
	require.True(ok, "expected FinalizedBlock outcome")
	require.Equal(Block("block-0"), fin.FinalizedBlock)
	require.True(r.Outcome.Committed())
	require.Equal(RoundID(1), observer.Era().FirstNonFinalizedRound)
}
