// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/luxfi/ids"
)

// IsQuorum reports whether weight, which must already include whatever
// faulty weight is implicitly counted toward every quorum, clears the
// round's acceptance threshold: weight > total/2 + ftt/2 + (total&ftt&1).
// The trailing term breaks the tie the two floor divisions would
// otherwise introduce when total and ftt are both odd, keeping the
// comparison exact in integer arithmetic.
func IsQuorum(weight, total, ftt uint64) bool {
	threshold := total/2 + ftt/2 + (total & ftt & 1)
	return weight > threshold
}

// FaultToleranceThreshold returns the maximum weight SPEC_FULL.md allows
// to be faulty for a total of total weight under fraction f, rounded
// down: floor(total * f.Numer / f.Denom).
func FaultToleranceThreshold(total uint64, f Ratio) uint64 {
	if f.Denom == 0 {
		return 0
	}
	return mulDiv(total, f.Numer, f.Denom)
}

func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bitsMul64(a, b)
	q, _ := bitsDiv128(hi, lo, c)
	return q
}

// bitsMul64 returns the 128-bit product of a and b as (hi, lo), avoiding
// a dependency on math/bits so the exact-arithmetic contract stays
// explicit here.
func bitsMul64(a, b uint64) (hi, lo uint64) {
	const mask32 = 1<<32 - 1
	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32

	t := aLo * bLo
	w0 := t & mask32
	k := t >> 32

	t = aHi*bLo + k
	w1 := t & mask32
	w2 := t >> 32

	t = aLo*bHi + w1
	k = t >> 32

	hi = aHi*bHi + w2 + k
	lo = (t << 32) | w0
	return hi, lo
}

// bitsDiv128 divides the 128-bit value (hi, lo) by c, returning the
// quotient and remainder. Panics if the quotient would overflow 64 bits,
// which cannot happen for the weight*numerator/denominator products this
// package computes.
func bitsDiv128(hi, lo, c uint64) (q, r uint64) {
	if hi == 0 {
		return lo / c, lo % c
	}
	if hi >= c {
		panic("round: quorum arithmetic overflow")
	}
	rem := hi
	q = 0
	for i := 63; i >= 0; i-- {
		rem = (rem << 1) | (lo >> uint(i) & 1)
		q <<= 1
		if rem >= c {
			rem -= c
			q |= 1
		}
	}
	return q, rem
}

// Ratio is an exact (numerator, denominator) fraction, avoiding floating
// point when comparing stake fractions against the finality threshold.
type Ratio struct {
	Numer uint64
	Denom uint64
}

// LeaderForRound deterministically selects the round's leader by
// weighted sampling over weights, seeded from instanceID and roundID so
// every honest validator derives the same sequence independently.
func LeaderForRound(instanceID ids.ID, roundID RoundID, weights []uint64, total uint64) ValidatorIndex {
	if total == 0 || len(weights) == 0 {
		return 0
	}
	seed := roundSeed(instanceID, roundID, total)
	var cum uint64
	for idx, w := range weights {
		cum += w
		if seed < cum {
			return ValidatorIndex(idx)
		}
	}
	return ValidatorIndex(len(weights) - 1)
}

// roundSeed derives a value in [0, total) from sha256(instanceID ||
// roundID).
func roundSeed(instanceID ids.ID, roundID RoundID, total uint64) uint64 {
	var buf [36]byte
	copy(buf[:32], instanceID[:])
	binary.BigEndian.PutUint32(buf[32:], uint32(roundID))
	digest := sha256.Sum256(buf[:])
	raw := binary.BigEndian.Uint64(digest[:8])
	return raw % total
}
