// Copyright (C) 2019-2024, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validatorstest provides test doubles for validators.Matrix
// consumers, following the F-func-field + Cant-flag test-double idiom.
package validatorstest

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/luxfi/roundbft/validators"
)

// State is a test double standing in for code that reads an era's
// validator weights. Each field left nil falls back to an empty/zero
// response; set CantGet* to fail the test if that method is invoked
// unexpectedly.
type State struct {
	T *testing.T

	CantGetValidatorWeights bool

	GetValidatorWeightsF func(ids.ID) (validators.EraValidatorWeights, bool)
}

// GetValidatorWeights returns the configured era weights, or the
// zero value if no override was set.
func (s *State) GetValidatorWeights(eraID ids.ID) (validators.EraValidatorWeights, bool) {
	if s.GetValidatorWeightsF != nil {
		return s.GetValidatorWeightsF(eraID)
	}
	if s.CantGetValidatorWeights && s.T != nil {
		s.T.Fatal("unexpected GetValidatorWeights")
	}
	return validators.EraValidatorWeights{}, false
}
