// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// testSetup bundles an era, validator node IDs, and an engine per
// validator for scenario tests that need multiple participants acting
// independently. Crypto is left nil throughout: HandleMessage and sign
// both treat a nil Crypto as "skip sign/verify", which keeps these
// scenario tests focused on the round/echo/vote state machine instead
// of key management.
type testSetup struct {
	instanceID ids.ID
	nodeIDs    []ids.NodeID
	weights    []uint64
	engines    []*Engine
}

func newTestSetup(n int, weightEach uint64) *testSetup {
	instanceID := ids.GenerateTestID()
	nodeIDs := make([]ids.NodeID, n)
	weights := make([]uint64, n)
	for i := range nodeIDs {
		nodeIDs[i] = ids.GenerateTestNodeID()
		weights[i] = weightEach
	}
	cfg := DefaultConfig()
	engines := make([]*Engine, n)
	for i := range engines {
		era := NewEra(instanceID, nodeIDs, weights, cfg)
		eng := NewEngine(era, nil, log.NewNoOpLogger())
		eng.ActivateValidator(ValidatorIndex(i))
		engines[i] = eng
	}
	return &testSetup{instanceID: instanceID, nodeIDs: nodeIDs, weights: weights, engines: engines}
}

// pending pairs an outcome with which engine produced it, so deliver
// can route follow-up effects (a ValidateConsensusValue resolving back
// into the same engine, a gossip message fanning out to every other
// one) without losing track of the source.
type pending struct {
	from int
	out  ProtocolOutcome
}

// deliver routes outs (produced by engine `from`) to every other engine
// in the test setup, auto-approving any external block validation it
// triggers, and recursively drains the resulting outcomes. Test-only
// broadcast fan-out, not a production network simulation.
func (s *testSetup) deliver(from int, outs []ProtocolOutcome) {
	queue := make([]pending, 0, len(outs))
	for _, o := range outs {
		queue = append(queue, pending{from: from, out: o})
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		switch p.out.Kind {
		case OutcomeCreatedGossipMessage:
			for i, eng := range s.engines {
				if i == p.from {
					continue
				}
				for _, next := range eng.HandleMessage(p.out.Message, s.nodeIDs[p.from], nil) {
					queue = append(queue, pending{from: i, out: next})
				}
			}
		case OutcomeCreatedTargetedMessage:
			i := int(p.out.Target)
			if i != p.from {
				for _, next := range s.engines[i].HandleMessage(p.out.Message, s.nodeIDs[p.from], nil) {
					queue = append(queue, pending{from: i, out: next})
				}
			}
		case OutcomeValidateConsensusValue:
			for _, next := range s.engines[p.from].ResolveValidity(p.out.RoundID, true) {
				queue = append(queue, pending{from: p.from, out: next})
			}
		}
	}
}

func testBlockContext() BlockContext {
	return BlockContext{Timestamp: time.Unix(1700000000, 0)}
}
