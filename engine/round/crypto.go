// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"crypto/sha256"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/crypto/bls/signer/localsigner"
	"github.com/luxfi/ids"
)

// Crypto is the capability set the engine needs to hash, sign, and
// verify protocol messages, without depending on a concrete signature
// scheme — SPEC_FULL.md section 4.4's concrete form of design note 9's
// "small capability set {hash, verify_signature, sign}".
type Crypto interface {
	Hash(preimage []byte) Hash
	Sign(preimage []byte) (Signature, error)
	Verify(preimage []byte, sig Signature, signer ids.NodeID, signerKey *bls.PublicKey) bool
}

// blsCrypto is the production Crypto backed by BLS signatures, matching
// the scheme validators/validatorstest's teacher-side counterpart
// exercises in validators_consensus_test.go.
type blsCrypto struct {
	signer *localsigner.LocalSigner
}

// NewBLSCrypto returns a Crypto that signs with sk (nil if this instance
// is not an active validator) and verifies with the supplied public key.
func NewBLSCrypto(sk *localsigner.LocalSigner) Crypto {
	return &blsCrypto{signer: sk}
}

func (c *blsCrypto) Hash(preimage []byte) Hash {
	return sha256.Sum256(preimage)
}

func (c *blsCrypto) Sign(preimage []byte) (Signature, error) {
	sig, err := c.signer.Sign(preimage)
	if err != nil {
		return nil, err
	}
	return bls.SignatureToBytes(sig), nil
}

func (c *blsCrypto) Verify(preimage []byte, sig Signature, _ ids.NodeID, signerKey *bls.PublicKey) bool {
	if signerKey == nil {
		return false
	}
	parsed, err := bls.SignatureFromBytes(sig)
	if err != nil {
		return false
	}
	return bls.Verify(signerKey, parsed, preimage)
}
