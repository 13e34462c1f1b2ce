// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import "time"

// OutcomeKind tags which variant a ProtocolOutcome carries, the engine's
// side-effect-as-value design: the engine
// never performs I/O itself, it returns a list of outcomes for the
// caller to carry out.
type OutcomeKind byte

const (
	OutcomeCreatedGossipMessage OutcomeKind = iota
	OutcomeCreatedTargetedMessage
	OutcomeCreatedMessageToRandomPeer
	OutcomeScheduleTimer
	OutcomeCreateNewBlock
	OutcomeValidateConsensusValue
	OutcomeFinalizedBlock
	OutcomeNewEvidence
	OutcomeSendEvidence
	OutcomeInvalidIncomingMessage
	OutcomeFttExceeded
)

// TimerID distinguishes the engine's recurring timers.
type TimerID byte

const (
	TimerRound TimerID = iota
	TimerSyncPeer
	TimerProposalTimeout
	TimerLogParticipation
)

// ProtocolOutcome is a single side effect the engine asks its caller to
// carry out. Exactly the fields relevant to Kind are populated.
type ProtocolOutcome struct {
	Kind OutcomeKind

	// OutcomeCreatedGossipMessage, OutcomeCreatedTargetedMessage,
	// OutcomeCreatedMessageToRandomPeer.
	Message SignedMessage
	Target  ValidatorIndex // meaningful iff Kind == OutcomeCreatedTargetedMessage

	// OutcomeScheduleTimer.
	Timer TimerID
	At    time.Time

	// OutcomeCreateNewBlock, OutcomeValidateConsensusValue.
	RoundID      RoundID
	BlockContext BlockContext
	Block        Block // meaningful iff Kind == OutcomeValidateConsensusValue

	// OutcomeFinalizedBlock.
	FinalizedHeight uint64
	FinalizedBlock  Block

	// OutcomeNewEvidence, OutcomeSendEvidence.
	Validator ValidatorIndex
	Fault     Fault
	To        ValidatorIndex // meaningful iff Kind == OutcomeSendEvidence

	// OutcomeInvalidIncomingMessage.
	From   ValidatorIndex
	Reason string

	// OutcomeFttExceeded.
	FaultyWeight uint64
	TotalWeight  uint64
}

func gossip(msg SignedMessage) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeCreatedGossipMessage, Message: msg}
}

func targeted(msg SignedMessage, to ValidatorIndex) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeCreatedTargetedMessage, Message: msg, Target: to}
}

func toRandomPeer(msg SignedMessage) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeCreatedMessageToRandomPeer, Message: msg}
}

func scheduleTimer(id TimerID, at time.Time) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeScheduleTimer, Timer: id, At: at}
}

func createNewBlock(roundID RoundID, ctx BlockContext) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeCreateNewBlock, RoundID: roundID, BlockContext: ctx}
}

func validateConsensusValue(roundID RoundID, block Block, ctx BlockContext) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeValidateConsensusValue, RoundID: roundID, Block: block, BlockContext: ctx}
}

func finalizedBlock(height uint64, block Block) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeFinalizedBlock, FinalizedHeight: height, FinalizedBlock: block}
}

func newEvidence(validator ValidatorIndex, f Fault) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeNewEvidence, Validator: validator, Fault: f}
}

func sendEvidence(to, validator ValidatorIndex) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeSendEvidence, To: to, Validator: validator}
}

func invalidIncoming(from ValidatorIndex, reason string) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeInvalidIncomingMessage, From: from, Reason: reason}
}

func fttExceeded(faulty, total uint64) ProtocolOutcome {
	return ProtocolOutcome{Kind: OutcomeFttExceeded, FaultyWeight: faulty, TotalWeight: total}
}
