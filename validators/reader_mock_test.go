// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validators_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/luxfi/ids"
	"github.com/luxfi/roundbft/validators"
	"github.com/luxfi/roundbft/validators/validatorsmock"
)

// sufficientWeight is the kind of caller Reader exists for: code that
// only needs to ask "does this set of signers clear quorum for this
// era", without caring whether it's backed by a live Matrix or a mock.
func sufficientWeight(r validators.Reader, eraID ids.ID, signers map[ids.NodeID]struct{}) bool {
	return r.HaveSufficientWeight(eraID, signers) != validators.Insufficient
}

func TestReaderMockSatisfiesInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := validatorsmock.NewMockReader(ctrl)

	eraID := ids.GenerateTestID()
	signers := map[ids.NodeID]struct{}{ids.GenerateTestNodeID(): {}}

	m.EXPECT().HaveSufficientWeight(eraID, signers).Return(validators.Strict)

	require.True(t, sufficientWeight(m, eraID, signers))
}
