// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"encoding/hex"
	"fmt"

	"github.com/luxfi/lattice/v7/core/rlwe"
	"github.com/luxfi/lattice/v7/utils"
	"github.com/zeebo/blake3"
)

// Relinearization key limits
const (
	MinDecompositionBitCount = 1
	MaxDecompositionBitCount = 60
	// MaxRelinKeyCount is the number of relinearization keys per set. The
	// engine caps ciphertexts at three components, so one key always suffices.
	MaxRelinKeyCount = 1
)

// KeyID fingerprints a key set produced by one KeyGenerator
type KeyID [32]byte

// String returns the first 8 bytes in hex
func (id KeyID) String() string {
	return hex.EncodeToString(id[:8])
}

// binding ties key material and ciphertexts to a context and key set
type binding struct {
	parmsID ParmsID
	keyID   KeyID
}

// ParmsID returns the fingerprint of the owning context
func (b binding) ParmsID() ParmsID {
	return b.parmsID
}

// KeyID returns the fingerprint of the owning key set
func (b binding) KeyID() KeyID {
	return b.keyID
}

func (b binding) match(ctx *Context, other binding, what string) error {
	if b.parmsID != ctx.id {
		return fmt.Errorf("%w: %s from context %s, expected %s", ErrKeyMismatch, what, b.parmsID, ctx.id)
	}
	if other.keyID != (KeyID{}) && b.keyID != other.keyID {
		return fmt.Errorf("%w: %s from key set %s, expected %s", ErrKeyMismatch, what, b.keyID, other.keyID)
	}
	return nil
}

// PublicKey encrypts
type PublicKey struct {
	binding
	pk *rlwe.PublicKey
}

// SecretKey decrypts
type SecretKey struct {
	binding
	sk *rlwe.SecretKey
}

// RelinKeys shrink ciphertexts back to two components after a multiplication
type RelinKeys struct {
	binding
	evk   *rlwe.MemEvaluationKeySet
	dbc   int
	count int
}

// DecompositionBitCount returns the gadget decomposition width in bits
func (rk *RelinKeys) DecompositionBitCount() int {
	return rk.dbc
}

// Size returns the number of relinearization keys in the set
func (rk *RelinKeys) Size() int {
	return rk.count
}

// KeyGenerator derives a key pair at construction and relinearization keys
// on request
type KeyGenerator struct {
	ctx  *Context
	kgen *rlwe.KeyGenerator
	sk   *SecretKey
	pk   *PublicKey
}

// NewKeyGenerator creates a key generator and its key pair
func NewKeyGenerator(ctx *Context) (*KeyGenerator, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}

	kgen := rlwe.NewKeyGenerator(ctx.params)
	sk, pk := kgen.GenKeyPairNew()

	data, err := pk.MarshalBinary()
	if err != nil {
		panic(err) // Should not happen with valid parameters
	}
	h := blake3.New()
	h.Write(ctx.id[:])
	h.Write(data)
	var id KeyID
	copy(id[:], h.Sum(nil))

	b := binding{parmsID: ctx.id, keyID: id}
	return &KeyGenerator{
		ctx:  ctx,
		kgen: kgen,
		sk:   &SecretKey{binding: b, sk: sk},
		pk:   &PublicKey{binding: b, pk: pk},
	}, nil
}

// Context returns the context the generator was built from
func (kg *KeyGenerator) Context() *Context {
	return kg.ctx
}

// PublicKey returns the public key. It is owned by the generator.
func (kg *KeyGenerator) PublicKey() *PublicKey {
	return kg.pk
}

// SecretKey returns the secret key. It is owned by the generator.
func (kg *KeyGenerator) SecretKey() *SecretKey {
	return kg.sk
}

// RelinKeys generates count relinearization keys with the given
// decomposition bit count. Smaller widths add less noise per
// relinearization at the cost of larger keys and slower evaluation.
func (kg *KeyGenerator) RelinKeys(decompositionBitCount, count int) (*RelinKeys, error) {
	if decompositionBitCount < MinDecompositionBitCount || decompositionBitCount > MaxDecompositionBitCount {
		return nil, fmt.Errorf("%w: decomposition bit count %d not in [%d, %d]",
			ErrConfiguration, decompositionBitCount, MinDecompositionBitCount, MaxDecompositionBitCount)
	}
	if count < 1 || count > MaxRelinKeyCount {
		return nil, fmt.Errorf("%w: relinearization key count %d not in [1, %d]", ErrConfiguration, count, MaxRelinKeyCount)
	}

	evkParams := rlwe.EvaluationKeyParameters{BaseTwoDecomposition: utils.Pointy(decompositionBitCount)}
	rlk := kg.kgen.GenRelinearizationKeyNew(kg.sk.sk, evkParams)

	return &RelinKeys{
		binding: kg.sk.binding,
		evk:     rlwe.NewMemEvaluationKeySet(rlk),
		dbc:     decompositionBitCount,
		count:   count,
	}, nil
}
