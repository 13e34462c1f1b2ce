// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"testing"

	"github.com/luxfi/crypto/bls/signer/localsigner"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestBLSCryptoSignAndVerify(t *testing.T) {
	require := require.New(t)

	ls, err := localsigner.New()
	require.NoError(err)

	c := NewBLSCrypto(ls)
	preimage := Preimage(3, ids.GenerateTestID(), VoteContent(true), 0)

	sig, err := c.Sign(preimage)
	require.NoError(err)
	require.True(c.Verify(preimage, sig, ids.GenerateTestNodeID(), ls.PublicKey()))
}

func TestBLSCryptoVerifyRejectsTamperedPreimage(t *testing.T) {
	require := require.New(t)

	ls, err := localsigner.New()
	require.NoError(err)

	c := NewBLSCrypto(ls)
	preimage := Preimage(3, ids.GenerateTestID(), VoteContent(true), 0)
	sig, err := c.Sign(preimage)
	require.NoError(err)

	tampered := Preimage(4, ids.GenerateTestID(), VoteContent(true), 0)
	require.False(c.Verify(tampered, sig, ids.GenerateTestNodeID(), ls.PublicKey()))
}

func TestBLSCryptoVerifyRejectsNilKey(t *testing.T) {
	require := require.New(t)
	c := NewBLSCrypto(nil)
	require.False(c.Verify([]byte("x"), []byte("y"), ids.GenerateTestNodeID(), nil))
}

func TestBLSCryptoHashIsDeterministic(t *testing.T) {
	require := require.New(t)
	c := NewBLSCrypto(nil)
	require.Equal(c.Hash([]byte("abc")), c.Hash([]byte("abc")))
	require.NotEqual(c.Hash([]byte("abc")), c.Hash([]byte("abd")))
}
