// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"fmt"

	"github.com/luxfi/lattice/v7/core/rlwe"
	"github.com/luxfi/lattice/v7/schemes/bgv"
)

// Encryptor encrypts plaintexts under a public key. It never sees the
// secret key.
type Encryptor struct {
	ctx       *Context
	pk        *PublicKey
	encoder   *bgv.Encoder
	encryptor *rlwe.Encryptor
}

// NewEncryptor creates a new encryptor from a public key
func NewEncryptor(ctx *Context, pk *PublicKey) (*Encryptor, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	if pk == nil {
		return nil, fmt.Errorf("%w: nil public key", ErrKeyMismatch)
	}
	if err := pk.match(ctx, binding{}, "public key"); err != nil {
		return nil, err
	}
	return &Encryptor{
		ctx:       ctx,
		pk:        pk,
		encoder:   bgv.NewEncoder(ctx.params),
		encryptor: rlwe.NewEncryptor(ctx.params, pk.pk),
	}, nil
}

// Encrypt encrypts pt into a new ciphertext of size two
func (enc *Encryptor) Encrypt(pt Plaintext) (*Ciphertext, error) {
	if err := enc.ctx.checkPlaintext(pt); err != nil {
		return nil, err
	}

	params := enc.ctx.params
	ptRing := bgv.NewPlaintext(params, params.MaxLevel())
	ptRing.IsBatched = false
	if err := enc.encoder.Encode(pt.coeffs, ptRing); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlaintext, err)
	}

	ct := bgv.NewCiphertext(params, 1, params.MaxLevel())
	if err := enc.encryptor.Encrypt(ptRing, ct); err != nil {
		panic(err) // Should not happen with valid parameters
	}

	return &Ciphertext{binding: enc.pk.binding, value: ct}, nil
}
