// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validators implements the validator matrix: a thread-safe
// registry mapping era -> (validator -> weight) shared by the consensus
// engine and by external callers that need finality-threshold arithmetic
// for an era without depending on the consensus engine itself.
package validators

import (
	"fmt"
	"sync"

	"github.com/luxfi/ids"
)

// Weight is a validator's stake, in the era's native unit.
type Weight = uint64

// Ratio is an exact rational used for finality-threshold arithmetic.
// Comparisons are always done via cross-multiplication (see Strict and
// Sufficient) so that no fraction is ever rounded.
type Ratio struct {
	Numer uint64
	Denom uint64
}

// OneThird is the fault-tolerance fraction most eras are configured with.
var OneThird = Ratio{Numer: 1, Denom: 3}

// EraValidatorWeights is the per-era snapshot the matrix hands out to
// readers. Weights is owned by the caller once returned: mutating it does
// not affect the matrix's internal state.
type EraValidatorWeights struct {
	EraID                     ids.ID
	Weights                   map[ids.NodeID]Weight
	FinalityThresholdFraction Ratio
}

// TotalWeight sums the weight of every validator in the era.
func (e EraValidatorWeights) TotalWeight() uint64 {
	var total uint64
	for _, w := range e.Weights {
		total += w
	}
	return total
}

// clone returns a deep copy so a reader can never observe a mutation made
// by a concurrent writer after the snapshot was taken.
func (e EraValidatorWeights) clone() EraValidatorWeights {
	w := make(map[ids.NodeID]Weight, len(e.Weights))
	for k, v := range e.Weights {
		w[k] = v
	}
	return EraValidatorWeights{
		EraID:                     e.EraID,
		Weights:                   w,
		FinalityThresholdFraction: e.FinalityThresholdFraction,
	}
}

// SufficiencyLevel is the outcome of HaveSufficientWeight.
type SufficiencyLevel int

const (
	Insufficient SufficiencyLevel = iota
	Sufficient
	Strict
)

func (s SufficiencyLevel) String() string {
	switch s {
	case Insufficient:
		return "insufficient"
	case Sufficient:
		return "sufficient"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// Reader is the read-only view of the matrix for callers that only query
// it. *Matrix satisfies it; validatorsmock.MockReader is its generated
// mock for tests.
type Reader interface {
	ValidatorWeights(eraID ids.ID) (EraValidatorWeights, bool)
	GetWeight(eraID ids.ID, nodeID ids.NodeID) Weight
	GetTotalWeight(eraID ids.ID) uint64
	HaveSufficientWeight(eraID ids.ID, signers map[ids.NodeID]struct{}) SufficiencyLevel
	FaultToleranceThreshold(eraID ids.ID) Ratio
}

var _ Reader = (*Matrix)(nil)

// Matrix is the shared, multi-reader/single-writer validator registry
// described in spec.md section 3.3. Reads never block each other; writes
// serialize behind the single write lock, held only for the duration of a
// single map access, and every read returns a cloned snapshot so the
// caller can hold on to it across arbitrary work without aliasing the
// matrix's internal maps.
type Matrix struct {
	mu    sync.RWMutex
	eras  map[ids.ID]EraValidatorWeights
}

// NewMatrix returns an empty validator matrix.
func NewMatrix() *Matrix {
	return &Matrix{
		eras: make(map[ids.ID]EraValidatorWeights),
	}
}

// RegisterEraValidatorWeights registers (or overwrites) the weights for an
// era.
func (m *Matrix) RegisterEraValidatorWeights(era EraValidatorWeights) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eras[era.EraID] = era.clone()
}

// RegisterValidatorWeights is a no-op if the era is already registered,
// otherwise it behaves like RegisterEraValidatorWeights.
func (m *Matrix) RegisterValidatorWeights(era EraValidatorWeights) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.eras[era.EraID]; ok {
		return
	}
	m.eras[era.EraID] = era.clone()
}

// RegisterEras registers multiple eras at once.
func (m *Matrix) RegisterEras(eras []EraValidatorWeights) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, era := range eras {
		m.eras[era.EraID] = era.clone()
	}
}

// Upsert adds or updates a single validator's weight within an era. A
// weight of zero removes the validator.
func (m *Matrix) Upsert(eraID ids.ID, nodeID ids.NodeID, weight Weight) {
	m.mu.Lock()
	defer m.mu.Unlock()

	era, ok := m.eras[eraID]
	if !ok {
		era = EraValidatorWeights{
			EraID:                     eraID,
			Weights:                   make(map[ids.NodeID]Weight),
			FinalityThresholdFraction: OneThird,
		}
	} else {
		era = era.clone()
	}

	if weight == 0 {
		delete(era.Weights, nodeID)
	} else {
		era.Weights[nodeID] = weight
	}
	m.eras[eraID] = era
}

// RemoveEra drops a single era from the matrix.
func (m *Matrix) RemoveEra(eraID ids.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.eras, eraID)
}

// RemoveEras drops every era whose numeric height (the caller-supplied
// ordering key) falls below floor. Eras are compared through less, since
// ids.ID carries no inherent ordering.
func (m *Matrix) RemoveEras(floor ids.ID, less func(a, b ids.ID) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.eras {
		if less(id, floor) {
			delete(m.eras, id)
		}
	}
}

// ValidatorWeights returns a cloned snapshot of an era's weights.
func (m *Matrix) ValidatorWeights(eraID ids.ID) (EraValidatorWeights, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	era, ok := m.eras[eraID]
	if !ok {
		return EraValidatorWeights{}, false
	}
	return era.clone(), true
}

// ValidatorPublicKeys returns every validator node ID registered for era.
func (m *Matrix) ValidatorPublicKeys(eraID ids.ID) []ids.NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	era, ok := m.eras[eraID]
	if !ok {
		return nil
	}
	keys := make([]ids.NodeID, 0, len(era.Weights))
	for k := range era.Weights {
		keys = append(keys, k)
	}
	return keys
}

// MissingSignatures returns the validators in era that do not appear in
// signers.
func (m *Matrix) MissingSignatures(eraID ids.ID, signers map[ids.NodeID]struct{}) []ids.NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	era, ok := m.eras[eraID]
	if !ok {
		return nil
	}
	var missing []ids.NodeID
	for k := range era.Weights {
		if _, signed := signers[k]; !signed {
			missing = append(missing, k)
		}
	}
	return missing
}

// GetWeight returns a single validator's weight, or 0 if unknown.
func (m *Matrix) GetWeight(eraID ids.ID, nodeID ids.NodeID) Weight {
	m.mu.RLock()
	defer m.mu.RUnlock()
	era, ok := m.eras[eraID]
	if !ok {
		return 0
	}
	return era.Weights[nodeID]
}

// GetTotalWeight returns the summed weight of every validator in era.
func (m *Matrix) GetTotalWeight(eraID ids.ID) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.eras[eraID].TotalWeight()
}

// FaultToleranceThreshold returns the era's configured finality-threshold
// fraction.
func (m *Matrix) FaultToleranceThreshold(eraID ids.ID) Ratio {
	m.mu.RLock()
	defer m.mu.RUnlock()
	era, ok := m.eras[eraID]
	if !ok {
		return Ratio{}
	}
	return era.FinalityThresholdFraction
}

// HaveSufficientWeight classifies the weight carried by signers against
// era's finality threshold f = Numer/Denom, using exact integer
// cross-multiplication so no fraction is ever rounded:
//
//	Strict     iff 2*weight(signers)*Denom >= total*(Denom+Numer)
//	Sufficient iff   weight(signers)*Denom >= total*Numer
//	else       Insufficient
func (m *Matrix) HaveSufficientWeight(eraID ids.ID, signers map[ids.NodeID]struct{}) SufficiencyLevel {
	m.mu.RLock()
	era, ok := m.eras[eraID]
	m.mu.RUnlock()
	if !ok {
		return Insufficient
	}

	var signed uint64
	var total uint64
	for nodeID, w := range era.Weights {
		total += w
		if _, ok := signers[nodeID]; ok {
			signed += w
		}
	}

	f := era.FinalityThresholdFraction
	if f.Denom == 0 {
		f = OneThird
	}

	// Strict: 2*signed/total >= 1+f  <=>  2*signed*Denom >= total*(Denom+Numer)
	if 2*signed*f.Denom >= total*(f.Denom+f.Numer) {
		return Strict
	}
	// Sufficient: signed/total >= f  <=>  signed*Denom >= total*Numer
	if signed*f.Denom >= total*f.Numer {
		return Sufficient
	}
	return Insufficient
}

// Clone returns a snapshot copy of an era's weights, or the zero value and
// false if the era is unregistered. It is identical to ValidatorWeights;
// the separate name mirrors the "readers clone out snapshots" rule called
// out in SPEC_FULL.md section 3.3 so call sites can read as documentation.
func (m *Matrix) Clone(eraID ids.ID) (EraValidatorWeights, bool) {
	return m.ValidatorWeights(eraID)
}

// String renders the matrix's era ids, for debugging.
func (m *Matrix) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("Matrix{eras=%d}", len(m.eras))
}
