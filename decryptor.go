// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"fmt"
	"math/big"

	"github.com/luxfi/lattice/v7/core/rlwe"
	"github.com/luxfi/lattice/v7/schemes/bgv"
)

// Decryptor decrypts ciphertexts and measures their remaining noise budget
type Decryptor struct {
	ctx       *Context
	sk        *SecretKey
	encoder   *bgv.Encoder
	decryptor *rlwe.Decryptor
}

// NewDecryptor creates a new decryptor from a secret key
func NewDecryptor(ctx *Context, sk *SecretKey) (*Decryptor, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	if sk == nil {
		return nil, fmt.Errorf("%w: nil secret key", ErrKeyMismatch)
	}
	if err := sk.match(ctx, binding{}, "secret key"); err != nil {
		return nil, err
	}
	return &Decryptor{
		ctx:       ctx,
		sk:        sk,
		encoder:   bgv.NewEncoder(ctx.params),
		decryptor: rlwe.NewDecryptor(ctx.params, sk.sk),
	}, nil
}

// Decrypt decrypts ct into a new plaintext.
//
// A ciphertext whose noise budget is exhausted decrypts to a wrong
// plaintext without error. Use InvariantNoiseBudget or DecryptChecked when
// that matters.
func (dec *Decryptor) Decrypt(ct *Ciphertext) (Plaintext, error) {
	if err := dec.owns(ct); err != nil {
		return Plaintext{}, err
	}

	params := dec.ctx.params
	ptRing := bgv.NewPlaintext(params, ct.Level())
	dec.decryptor.Decrypt(ct.value, ptRing)
	ptRing.IsBatched = false

	values := make([]uint64, params.RingT().N())
	if err := dec.encoder.Decode(ptRing, values); err != nil {
		panic(err) // Should not happen with valid parameters
	}
	return trimmed(values), nil
}

// DecryptChecked decrypts ct, failing with ErrNoiseBudgetExhausted when its
// noise budget is zero
func (dec *Decryptor) DecryptChecked(ct *Ciphertext) (Plaintext, error) {
	budget, err := dec.InvariantNoiseBudget(ct)
	if err != nil {
		return Plaintext{}, err
	}
	if budget == 0 {
		return Plaintext{}, ErrNoiseBudgetExhausted
	}
	return dec.Decrypt(ct)
}

// InvariantNoiseBudget returns the number of bits of noise ct can still
// absorb before decryption becomes incorrect. It never increases under
// homomorphic operations and bottoms out at zero.
func (dec *Decryptor) InvariantNoiseBudget(ct *Ciphertext) (int, error) {
	if err := dec.owns(ct); err != nil {
		return 0, err
	}
	coeffs, q := dec.noise(ct)
	return budget(q, maxAbs(coeffs)), nil
}

func (dec *Decryptor) owns(ct *Ciphertext) error {
	if ct == nil {
		return fmt.Errorf("%w: nil ciphertext", ErrKeyMismatch)
	}
	return ct.match(dec.ctx, dec.sk.binding, "ciphertext")
}

// noise returns the centered coefficients of t*<ct, (1, s, s^2, ...)> mod Q,
// which hold the scaled noise plus a message term below t, and Q at the
// ciphertext's level.
func (dec *Decryptor) noise(ct *Ciphertext) ([]*big.Int, *big.Int) {
	params := dec.ctx.params
	level := ct.Level()
	ringQ := params.RingQ().AtLevel(level)

	pt := rlwe.NewPlaintext(params, level)
	dec.decryptor.Decrypt(ct.value, pt)
	if pt.IsNTT {
		ringQ.INTT(pt.Value, pt.Value)
	}
	ringQ.MulScalar(pt.Value, params.PlaintextModulus(), pt.Value)

	coeffs := make([]*big.Int, params.N())
	for i := range coeffs {
		coeffs[i] = new(big.Int)
	}
	ringQ.PolyToBigintCentered(pt.Value, 1, coeffs)
	return coeffs, ringQ.ModulusAtLevel[level]
}

// maxAbs returns the largest absolute value in coeffs
func maxAbs(coeffs []*big.Int) *big.Int {
	peak, abs := new(big.Int), new(big.Int)
	for _, c := range coeffs {
		if abs.Abs(c).Cmp(peak) > 0 {
			peak.Set(abs)
		}
	}
	return peak
}

// budget returns floor(log2(q / (2*peak))), the number of doublings peak
// can take before it reaches q/2 and decryption wraps. Chain primes sit just
// above a power of two, so the bound uses q and not its bit length.
func budget(q, peak *big.Int) int {
	if peak.Sign() == 0 {
		return q.BitLen() - 2
	}
	r := new(big.Int).Lsh(peak, 1)
	r.Quo(q, r)
	if b := r.BitLen() - 1; b > 0 {
		return b
	}
	return 0
}
