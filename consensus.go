// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus provides a clean, single-import interface to the
// round/echo/vote consensus engine and its multiplexed wire transport.
package consensus

import (
	"github.com/luxfi/crypto/bls/signer/localsigner"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/roundbft/engine/round"
	"github.com/luxfi/roundbft/validators"
	"github.com/luxfi/roundbft/wire"
)

// Type aliases for a clean single-import experience.
type (
	// Engine types.
	Engine = round.Engine
	Era    = round.Era
	Config = round.Config

	// Core round/message types.
	RoundID        = round.RoundID
	ValidatorIndex = round.ValidatorIndex
	Hash           = round.Hash
	Signature      = round.Signature
	Block          = round.Block
	BlockContext   = round.BlockContext
	Proposal       = round.Proposal
	Content        = round.Content
	SignedMessage  = round.SignedMessage
	SyncState      = round.SyncState

	// Outcomes.
	ProtocolOutcome = round.ProtocolOutcome
	OutcomeKind     = round.OutcomeKind
	TimerID         = round.TimerID

	// Fault tracking.
	Fault     = round.Fault
	FaultKind = round.FaultKind
	FaultSet  = round.FaultSet

	// Crypto capability.
	Crypto = round.Crypto

	// Validator matrix.
	Matrix              = validators.Matrix
	EraValidatorWeights = validators.EraValidatorWeights
	Ratio               = validators.Ratio
	Weight              = validators.Weight

	// Wire framing.
	Multiplexer     = wire.Multiplexer
	ChannelConfig   = wire.ChannelConfig
	Outcome         = wire.Outcome
	OutgoingMessage = wire.OutgoingMessage
)

// Timer ID constants re-exported for convenience.
const (
	TimerRound            = round.TimerRound
	TimerSyncPeer         = round.TimerSyncPeer
	TimerProposalTimeout  = round.TimerProposalTimeout
	TimerLogParticipation = round.TimerLogParticipation
)

// Outcome kind constants re-exported for convenience.
const (
	OutcomeCreatedGossipMessage       = round.OutcomeCreatedGossipMessage
	OutcomeCreatedTargetedMessage     = round.OutcomeCreatedTargetedMessage
	OutcomeCreatedMessageToRandomPeer = round.OutcomeCreatedMessageToRandomPeer
	OutcomeScheduleTimer              = round.OutcomeScheduleTimer
	OutcomeCreateNewBlock             = round.OutcomeCreateNewBlock
	OutcomeValidateConsensusValue     = round.OutcomeValidateConsensusValue
	OutcomeFinalizedBlock             = round.OutcomeFinalizedBlock
	OutcomeNewEvidence                = round.OutcomeNewEvidence
	OutcomeSendEvidence               = round.OutcomeSendEvidence
	OutcomeInvalidIncomingMessage     = round.OutcomeInvalidIncomingMessage
	OutcomeFttExceeded                = round.OutcomeFttExceeded
)

// Fault kind constants re-exported for convenience.
const (
	FaultBanned   = round.FaultBanned
	FaultDirect   = round.FaultDirect
	FaultIndirect = round.FaultIndirect
)

// OneThird is the fraction most ftt-weighted networks configure.
var OneThird = validators.OneThird

// DefaultConfig returns the default era configuration.
func DefaultConfig() Config {
	return round.DefaultConfig()
}

// NewEra constructs a new consensus era over the given validator set.
func NewEra(instanceID ids.ID, validatorIDs []ids.NodeID, weights []uint64, cfg Config) *Era {
	return round.NewEra(instanceID, validatorIDs, weights, cfg)
}

// NewEngine constructs an Engine over era, using crypto to sign/verify
// and logger for diagnostics. A nil logger gets a no-op logger.
func NewEngine(era *Era, crypto Crypto, logger log.Logger) *Engine {
	return round.NewEngine(era, crypto, logger)
}

// NewBLSCrypto returns the production Crypto backed by BLS signatures.
func NewBLSCrypto(sk *localsigner.LocalSigner) Crypto {
	return round.NewBLSCrypto(sk)
}

// NewMatrix constructs an empty validator matrix.
func NewMatrix() *Matrix {
	return validators.NewMatrix()
}

// NewMultiplexer constructs a frame multiplexer over the given channel
// configurations.
func NewMultiplexer(configs []ChannelConfig, logger log.Logger, reg prometheus.Registerer) *Multiplexer {
	return wire.New(configs, logger, reg)
}
