// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.

/*
Package consensus implements a Byzantine-fault-tolerant, round-based
state machine replication engine and the multiplexed request/response
wire framing its validators speak over.

# Architecture

The system is organized into three packages:

  - engine/round/  the per-era round/echo/vote consensus engine: proposals,
    echoes, votes, quorum detection, equivocation handling, and finalization.
  - validators/    the thread-safe weighted validator matrix, keyed by era.
  - wire/          a single-threaded, non-blocking multiplexed frame codec
    for carrying consensus traffic (and anything else) over a byte stream.

This package re-exports the common types and constructors from all three
for a single-import experience.

# Usage

	matrix := consensus.NewMatrix()
	matrix.RegisterEraValidatorWeights(consensus.EraValidatorWeights{
		EraID:                     eraID,
		Weights:                   weights,
		FinalityThresholdFraction: consensus.OneThird,
	})

	era := consensus.NewEra(instanceID, validatorIDs, weightSlice, consensus.DefaultConfig())
	engine := consensus.NewEngine(era, consensus.NewBLSCrypto(signer), logger)
	engine.ActivateValidator(myIndex)

	outcomes := engine.HandleMessage(signedMessage, peerNodeID, peerPublicKey)
	for _, o := range outcomes {
		// dispatch o.Kind: gossip the message, schedule a timer,
		// hand a block to the application for validation, etc.
	}

# Wire transport

	mux := consensus.NewMultiplexer(channelConfigs, logger, registry)
	mux.Feed(bytesReadFromConn)
	for {
		out := mux.ProcessIncoming()
		if out.Kind != wire.OutcomeSuccess {
			break
		}
		// route out.Read to the consensus engine or the outgoing-request table
	}
*/
package consensus
