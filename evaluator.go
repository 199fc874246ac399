// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"fmt"

	"github.com/luxfi/lattice/v7/schemes/bgv"
)

// maxRelinInputSize is the largest ciphertext relinearization can shrink
const maxRelinInputSize = 3

// Evaluator performs homomorphic operations in place on its first argument.
// It holds scratch buffers, so one Evaluator must not be used from several
// goroutines at once.
type Evaluator struct {
	ctx  *Context
	eval *bgv.Evaluator
}

// NewEvaluator creates a new evaluator
func NewEvaluator(ctx *Context) (*Evaluator, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	return &Evaluator{
		ctx:  ctx,
		eval: bgv.NewEvaluator(ctx.params, nil, true),
	}, nil
}

// NegateInplace replaces the plaintext of ct by its negation
func (e *Evaluator) NegateInplace(ct *Ciphertext) error {
	if err := e.owns(ct); err != nil {
		return err
	}
	ringQ := e.ctx.params.RingQ().AtLevel(ct.Level())
	for i := range ct.value.Value {
		ringQ.Neg(ct.value.Value[i], ct.value.Value[i])
	}
	return nil
}

// AddInplace adds the plaintext of ct2 to ct1. ct2 is not modified.
func (e *Evaluator) AddInplace(ct1, ct2 *Ciphertext) error {
	if err := e.pair(ct1, ct2); err != nil {
		return err
	}
	if err := e.eval.Add(ct1.value, ct2.value, ct1.value); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// MultiplyInplace multiplies ct1 by ct2, growing ct1 to three components.
// Both operands must have two components.
func (e *Evaluator) MultiplyInplace(ct1, ct2 *Ciphertext) error {
	if err := e.pair(ct1, ct2); err != nil {
		return err
	}
	if err := checkMulSize(ct1); err != nil {
		return err
	}
	if err := checkMulSize(ct2); err != nil {
		return err
	}
	if err := e.eval.Mul(ct1.value, ct2.value, ct1.value); err != nil {
		return fmt.Errorf("multiply: %w", err)
	}
	return nil
}

// SquareInplace squares ct, growing it to three components
func (e *Evaluator) SquareInplace(ct *Ciphertext) error {
	if err := e.owns(ct); err != nil {
		return err
	}
	if err := checkMulSize(ct); err != nil {
		return err
	}
	if err := e.eval.Mul(ct.value, ct.value, ct.value); err != nil {
		return fmt.Errorf("square: %w", err)
	}
	return nil
}

// RelinearizeInplace shrinks ct back to two components. A ciphertext that
// already has two components is left as is.
func (e *Evaluator) RelinearizeInplace(ct *Ciphertext, rk *RelinKeys) error {
	if err := e.owns(ct); err != nil {
		return err
	}
	if rk == nil {
		return fmt.Errorf("%w: nil relinearization keys", ErrKeyMismatch)
	}
	if err := rk.match(e.ctx, ct.binding, "relinearization keys"); err != nil {
		return err
	}

	switch size := ct.Size(); {
	case size <= FreshCiphertextSize:
		return nil
	case size > maxRelinInputSize:
		return fmt.Errorf("%w: cannot relinearize a ciphertext of size %d", ErrSizeLimit, size)
	}

	if err := e.eval.WithKey(rk.evk).Relinearize(ct.value, ct.value); err != nil {
		return fmt.Errorf("relinearize: %w", err)
	}
	return nil
}

func (e *Evaluator) owns(ct *Ciphertext) error {
	if ct == nil {
		return fmt.Errorf("%w: nil ciphertext", ErrKeyMismatch)
	}
	return ct.match(e.ctx, binding{}, "ciphertext")
}

// pair checks two operands belong together
func (e *Evaluator) pair(ct1, ct2 *Ciphertext) error {
	if err := e.owns(ct1); err != nil {
		return err
	}
	if err := e.owns(ct2); err != nil {
		return err
	}
	if ct1.keyID != ct2.keyID {
		return fmt.Errorf("%w: operands from key sets %s and %s", ErrKeyMismatch, ct1.keyID, ct2.keyID)
	}
	if ct1.Level() != ct2.Level() {
		return fmt.Errorf("%w: levels %d and %d", ErrLevelMismatch, ct1.Level(), ct2.Level())
	}
	return nil
}

func checkMulSize(ct *Ciphertext) error {
	if size := ct.Size(); size > FreshCiphertextSize {
		return fmt.Errorf("%w: multiplication needs size %d operands, got %d; relinearize first",
			ErrSizeLimit, FreshCiphertextSize, size)
	}
	return nil
}
