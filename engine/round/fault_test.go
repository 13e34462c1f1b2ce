// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func conflictingVotes(idx ValidatorIndex, round RoundID) (SignedMessage, SignedMessage) {
	instanceID := ids.GenerateTestID()
	a := SignedMessage{RoundID: round, InstanceID: instanceID, Content: VoteContent(true), ValidatorIndex: idx}
	b := SignedMessage{RoundID: round, InstanceID: instanceID, Content: VoteContent(false), ValidatorIndex: idx}
	return a, b
}

func TestFaultSetRecordDirectRequiresConflict(t *testing.T) {
	require := require.New(t)
	fs := NewFaultSet()
	a, b := conflictingVotes(1, 0)

	require.True(fs.RecordDirect(1, a, b))
	require.True(fs.IsFaulty(1))
	f, ok := fs.Get(1)
	require.True(ok)
	require.Equal(FaultDirect, f.Kind)

	// Same content twice is not a conflict.
	fs2 := NewFaultSet()
	require.False(fs2.RecordDirect(2, a, a))
	require.False(fs2.IsFaulty(2))
}

func TestFaultSetIndirectUpgradesToDirect(t *testing.T) {
	require := require.New(t)
	fs := NewFaultSet()
	require.True(fs.RecordIndirect(1))
	require.False(fs.RecordIndirect(1)) // already recorded

	a, b := conflictingVotes(1, 0)
	require.True(fs.RecordDirect(1, a, b))
	f, _ := fs.Get(1)
	require.Equal(FaultDirect, f.Kind)
}

func TestFaultSetBanIsSticky(t *testing.T) {
	require := require.New(t)
	fs := NewFaultSet()
	fs.Ban(1)
	a, b := conflictingVotes(1, 0)
	require.False(fs.RecordDirect(1, a, b))
	f, _ := fs.Get(1)
	require.Equal(FaultBanned, f.Kind)
}

func TestFaultSetWeight(t *testing.T) {
	require := require.New(t)
	fs := NewFaultSet()
	fs.Ban(0)
	fs.Ban(2)
	weight := func(idx ValidatorIndex) uint64 { return uint64(idx) + 1 }
	require.Equal(uint64(1+3), fs.Weight(weight))
}

func TestConflictsDetectsEachContentKind(t *testing.T) {
	require := require.New(t)
	instanceID := ids.GenerateTestID()
	p1 := Proposal{Block: []byte("a")}
	p2 := Proposal{Block: []byte("b")}

	msgP1 := SignedMessage{RoundID: 0, InstanceID: instanceID, Content: ProposalContent(p1), ValidatorIndex: 0}
	msgP2 := SignedMessage{RoundID: 0, InstanceID: instanceID, Content: ProposalContent(p2), ValidatorIndex: 0}
	require.True(conflicts(msgP1, msgP2))
	require.False(conflicts(msgP1, msgP1))

	msgE1 := SignedMessage{RoundID: 0, InstanceID: instanceID, Content: EchoContent(Hash{1}), ValidatorIndex: 0}
	msgE2 := SignedMessage{RoundID: 0, InstanceID: instanceID, Content: EchoContent(Hash{2}), ValidatorIndex: 0}
	require.True(conflicts(msgE1, msgE2))

	msgV1 := SignedMessage{RoundID: 0, InstanceID: instanceID, Content: VoteContent(true), ValidatorIndex: 0}
	msgV2 := SignedMessage{RoundID: 0, InstanceID: instanceID, Content: VoteContent(false), ValidatorIndex: 0}
	require.True(conflicts(msgV1, msgV2))

	// Different validator index never conflicts.
	other := SignedMessage{RoundID: 0, InstanceID: instanceID, Content: VoteContent(false), ValidatorIndex: 1}
	require.False(conflicts(msgV1, other))

	// Different round never conflicts.
	otherRound := SignedMessage{RoundID: 1, InstanceID: instanceID, Content: VoteContent(false), ValidatorIndex: 0}
	require.False(conflicts(msgV1, otherRound))
}
