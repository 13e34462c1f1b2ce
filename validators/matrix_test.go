// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validators

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func era(id ids.ID, weights map[ids.NodeID]Weight, f Ratio) EraValidatorWeights {
	return EraValidatorWeights{EraID: id, Weights: weights, FinalityThresholdFraction: f}
}

func TestMatrixRegisterAndRead(t *testing.T) {
	require := require.New(t)

	m := NewMatrix()
	eraID := ids.GenerateTestID()
	v0, v1, v2 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()

	m.RegisterEraValidatorWeights(era(eraID, map[ids.NodeID]Weight{
		v0: 100, v1: 100, v2: 100,
	}, OneThird))

	snap, ok := m.ValidatorWeights(eraID)
	require.True(ok)
	require.Len(snap.Weights, 3)
	require.EqualValues(300, m.GetTotalWeight(eraID))
	require.EqualValues(100, m.GetWeight(eraID, v0))

	// Mutating the snapshot must not affect the matrix.
	snap.Weights[v0] = 999
	require.EqualValues(100, m.GetWeight(eraID, v0))
}

func TestRegisterValidatorWeightsNoOpIfPresent(t *testing.T) {
	require := require.New(t)

	m := NewMatrix()
	eraID := ids.GenerateTestID()
	v0 := ids.GenerateTestNodeID()

	m.RegisterValidatorWeights(era(eraID, map[ids.NodeID]Weight{v0: 5}, OneThird))
	m.RegisterValidatorWeights(era(eraID, map[ids.NodeID]Weight{v0: 999}, OneThird))

	require.EqualValues(5, m.GetWeight(eraID, v0))
}

func TestUpsertAndRemove(t *testing.T) {
	require := require.New(t)

	m := NewMatrix()
	eraID := ids.GenerateTestID()
	v0 := ids.GenerateTestNodeID()

	m.Upsert(eraID, v0, 50)
	require.EqualValues(50, m.GetWeight(eraID, v0))

	m.Upsert(eraID, v0, 0)
	require.EqualValues(0, m.GetWeight(eraID, v0))

	m.Upsert(eraID, v0, 10)
	m.RemoveEra(eraID)
	require.EqualValues(0, m.GetWeight(eraID, v0))
}

func TestMissingSignatures(t *testing.T) {
	require := require.New(t)

	m := NewMatrix()
	eraID := ids.GenerateTestID()
	v0, v1 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	m.RegisterEraValidatorWeights(era(eraID, map[ids.NodeID]Weight{v0: 1, v1: 1}, OneThird))

	missing := m.MissingSignatures(eraID, map[ids.NodeID]struct{}{v0: {}})
	require.ElementsMatch([]ids.NodeID{v1}, missing)
}

func TestHaveSufficientWeight(t *testing.T) {
	require := require.New(t)

	m := NewMatrix()
	eraID := ids.GenerateTestID()
	v0, v1, v2 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	m.RegisterEraValidatorWeights(era(eraID, map[ids.NodeID]Weight{
		v0: 1, v1: 1, v2: 1,
	}, OneThird))

	cases := []struct {
		name    string
		signers map[ids.NodeID]struct{}
		want    SufficiencyLevel
	}{
		{"none", map[ids.NodeID]struct{}{}, Insufficient},
		{"one third is sufficient", map[ids.NodeID]struct{}{v0: {}}, Sufficient},
		{"two of three is strict", map[ids.NodeID]struct{}{v0: {}, v1: {}}, Strict},
		{"all three is strict", map[ids.NodeID]struct{}{v0: {}, v1: {}, v2: {}}, Strict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(tc.want, m.HaveSufficientWeight(eraID, tc.signers))
		})
	}
}

func TestHaveSufficientWeightUnknownEra(t *testing.T) {
	m := NewMatrix()
	require.Equal(t, Insufficient, m.HaveSufficientWeight(ids.GenerateTestID(), nil))
}

func TestRemoveEras(t *testing.T) {
	require := require.New(t)
	m := NewMatrix()

	var floor, below, above ids.ID
	floor[0], below[0], above[0] = 5, 3, 9

	m.RegisterEraValidatorWeights(era(below, nil, OneThird))
	m.RegisterEraValidatorWeights(era(above, nil, OneThird))

	less := func(a, b ids.ID) bool { return a[0] < b[0] }
	m.RemoveEras(floor, less)

	_, belowOK := m.ValidatorWeights(below)
	_, aboveOK := m.ValidatorWeights(above)
	require.False(belowOK)
	require.True(aboveOK)
}
