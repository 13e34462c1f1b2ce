// Copyright (C) 2019-2024, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validatorstest

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/roundbft/validators"
)

// NewMatrix builds a populated validators.Matrix for a single era with
// equal weight per validator, the shape most round/engine tests need.
func NewMatrix(eraID ids.ID, nodeIDs []ids.NodeID, weightEach uint64, f validators.Ratio) *validators.Matrix {
	m := validators.NewMatrix()
	weights := make(map[ids.NodeID]validators.Weight, len(nodeIDs))
	for _, n := range nodeIDs {
		weights[n] = weightEach
	}
	m.RegisterEraValidatorWeights(validators.EraValidatorWeights{
		EraID:                     eraID,
		Weights:                   weights,
		FinalityThresholdFraction: f,
	})
	return m
}

// GenerateNodeIDs returns n freshly generated test node IDs.
func GenerateNodeIDs(n int) []ids.NodeID {
	out := make([]ids.NodeID, n)
	for i := range out {
		out[i] = ids.GenerateTestNodeID()
	}
	return out
}
