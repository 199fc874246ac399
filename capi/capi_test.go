// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package capi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/lhe"
	"github.com/luxfi/lhe/internal/handle"
)

const testPlainModulus = 257

// newContext creates parameters and a context, and releases the parameters
func newContext(t *testing.T, r *Runtime, degree, security int32) Handle {
	t.Helper()
	var ep Handle
	require.Equal(t, StatusOK, r.EncryptionParametersCreate(int32(lhe.SchemeBFV), &ep))
	require.Equal(t, StatusOK, r.EncryptionParametersSetPolyModulusDegree(ep, degree))
	require.Equal(t, StatusOK, r.EncryptionParametersSetCoeffModulus(ep, security, degree))
	require.Equal(t, StatusOK, r.EncryptionParametersSetPlainModulus(ep, testPlainModulus))

	var plain uint64
	require.Equal(t, StatusOK, r.EncryptionParametersPlainModulus(ep, &plain))
	require.EqualValues(t, testPlainModulus, plain)

	var ctx Handle
	require.Equal(t, StatusOK, r.ContextCreate(ep, true, &ctx))
	require.Equal(t, StatusOK, r.Release(ep))
	return ctx
}

type handles struct {
	ctx, ie, kg, pk, sk, rk, enc, dec, ev Handle
}

func newHandles(t *testing.T, r *Runtime, degree int32) handles {
	t.Helper()
	var h handles
	h.ctx = newContext(t, r, degree, 128)

	var set bool
	require.Equal(t, StatusOK, r.ContextParametersSet(h.ctx, &set))
	require.True(t, set, r.LastError())

	require.Equal(t, StatusOK, r.IntegerEncoderCreate(h.ctx, &h.ie))
	require.Equal(t, StatusOK, r.KeyGeneratorCreate(h.ctx, &h.kg))
	require.Equal(t, StatusOK, r.KeyGeneratorPublicKey(h.kg, &h.pk))
	require.Equal(t, StatusOK, r.KeyGeneratorSecretKey(h.kg, &h.sk))
	require.Equal(t, StatusOK, r.KeyGeneratorRelinKeys(h.kg, 16, 1, &h.rk))
	require.Equal(t, StatusOK, r.EncryptorCreate(h.ctx, h.pk, &h.enc))
	require.Equal(t, StatusOK, r.DecryptorCreate(h.ctx, h.sk, &h.dec))
	require.Equal(t, StatusOK, r.EvaluatorCreate(h.ctx, &h.ev))
	return h
}

func (h handles) release(t *testing.T, r *Runtime) {
	t.Helper()
	for _, x := range []Handle{h.ev, h.dec, h.enc, h.rk, h.kg, h.ie, h.ctx} {
		require.Equal(t, StatusOK, r.Release(x))
	}
}

func (h handles) encrypt(t *testing.T, r *Runtime, v int32) Handle {
	t.Helper()
	var pt, ct Handle
	require.Equal(t, StatusOK, r.IntegerEncoderEncode(h.ie, v, &pt))
	require.Equal(t, StatusOK, r.EncryptorEncrypt(h.enc, pt, &ct))
	require.Equal(t, StatusOK, r.Release(pt))
	return ct
}

func (h handles) decrypt(t *testing.T, r *Runtime, ct Handle) int32 {
	t.Helper()
	var pt Handle
	require.Equal(t, StatusOK, r.DecryptorDecrypt(h.dec, ct, &pt))
	var v int32
	require.Equal(t, StatusOK, r.IntegerEncoderDecodeInt32(h.ie, pt, &v))
	require.Equal(t, StatusOK, r.Release(pt))
	return v
}

func (h handles) budget(t *testing.T, r *Runtime, ct Handle) int32 {
	t.Helper()
	var b int32
	require.Equal(t, StatusOK, r.DecryptorInvariantNoiseBudget(h.dec, ct, &b))
	return b
}

func (h handles) size(t *testing.T, r *Runtime, ct Handle) int32 {
	t.Helper()
	var n int32
	require.Equal(t, StatusOK, r.CiphertextSize(ct, &n))
	return n
}

func TestWorkflow(t *testing.T) {
	for _, degree := range []int32{2048, 4096} {
		t.Run(fmt.Sprintf("N=%d", degree), func(t *testing.T) {
			r := NewRuntime()
			h := newHandles(t, r, degree)

			ct1 := h.encrypt(t, r, 5)
			ct2 := h.encrypt(t, r, -7)
			require.EqualValues(t, 2, h.size(t, r, ct1))
			fresh := h.budget(t, r, ct1)
			require.Positive(t, fresh)
			require.EqualValues(t, 5, h.decrypt(t, r, ct1))
			require.EqualValues(t, -7, h.decrypt(t, r, ct2))

			require.Equal(t, StatusOK, r.EvaluatorNegateInplace(h.ev, ct1))
			require.EqualValues(t, -5, h.decrypt(t, r, ct1))

			require.Equal(t, StatusOK, r.EvaluatorAddInplace(h.ev, ct1, ct2))
			require.EqualValues(t, -12, h.decrypt(t, r, ct1))
			sum := h.budget(t, r, ct1)
			require.LessOrEqual(t, sum, fresh)

			require.Equal(t, StatusOK, r.EvaluatorMultiplyInplace(h.ev, ct1, ct2))
			require.EqualValues(t, 3, h.size(t, r, ct1))
			require.Equal(t, StatusOK, r.EvaluatorRelinearizeInplace(h.ev, ct1, h.rk))
			require.EqualValues(t, 2, h.size(t, r, ct1))
			prod := h.budget(t, r, ct1)
			require.LessOrEqual(t, prod, sum)
			if degree >= 4096 {
				require.Positive(t, prod)
			}
			if prod > 0 {
				require.EqualValues(t, 84, h.decrypt(t, r, ct1))
			}

			require.Equal(t, StatusOK, r.EvaluatorSquareInplace(h.ev, ct2))
			require.EqualValues(t, 3, h.size(t, r, ct2))
			require.Equal(t, StatusOK, r.EvaluatorRelinearizeInplace(h.ev, ct2, h.rk))
			if h.budget(t, r, ct2) > 0 {
				require.EqualValues(t, 49, h.decrypt(t, r, ct2))
			}

			require.Equal(t, StatusOK, r.Release(ct1))
			require.Equal(t, StatusOK, r.Release(ct2))
			h.release(t, r)
			require.Equal(t, handle.Stats{}, r.Stats())
		})
	}
}

func TestInvalidContext(t *testing.T) {
	r := NewRuntime()

	var ep Handle
	require.Equal(t, StatusOK, r.EncryptionParametersCreate(int32(lhe.SchemeBFV), &ep))
	require.Equal(t, StatusOK, r.EncryptionParametersSetPolyModulusDegree(ep, 2048))
	// the N=4096 chain does not fit a 2048 ring
	require.Equal(t, StatusOK, r.EncryptionParametersSetCoeffModulus(ep, 128, 4096))
	require.Equal(t, StatusOK, r.EncryptionParametersSetPlainModulus(ep, testPlainModulus))

	var ctx Handle
	require.Equal(t, StatusOK, r.ContextCreate(ep, false, &ctx))
	var set bool
	require.Equal(t, StatusOK, r.ContextParametersSet(ctx, &set))
	require.False(t, set)
	require.Contains(t, r.LastError(), "exceeds")

	var out Handle
	require.Equal(t, StatusInvalidContext, r.KeyGeneratorCreate(ctx, &out))
	require.Equal(t, StatusInvalidContext, r.IntegerEncoderCreate(ctx, &out))
	require.Equal(t, StatusInvalidContext, r.EvaluatorCreate(ctx, &out))
	require.Zero(t, out)

	require.Equal(t, StatusOK, r.Release(ctx))
	require.Equal(t, StatusOK, r.Release(ep))
	require.Equal(t, handle.Stats{}, r.Stats())
}

func TestParameterErrors(t *testing.T) {
	r := NewRuntime()

	var ep Handle
	require.Equal(t, StatusConfiguration, r.EncryptionParametersCreate(-1, &ep))
	require.Equal(t, StatusConfiguration, r.EncryptionParametersCreate(9, &ep))
	require.Equal(t, StatusNullPointer, r.EncryptionParametersCreate(1, nil))

	require.Equal(t, StatusOK, r.EncryptionParametersCreate(int32(lhe.SchemeBFV), &ep))
	require.Equal(t, StatusConfiguration, r.EncryptionParametersSetPolyModulusDegree(ep, 1000))
	require.Equal(t, StatusConfiguration, r.EncryptionParametersSetCoeffModulus(ep, 100, 2048))
	require.Equal(t, StatusConfiguration, r.EncryptionParametersSetPlainModulus(ep, 1))
	require.NotEmpty(t, r.LastError())
	require.Equal(t, StatusOK, r.Release(ep))
}

func TestHandleRules(t *testing.T) {
	r := NewRuntime()
	h := newHandles(t, r, 2048)

	t.Run("BorrowedCannotBeReleased", func(t *testing.T) {
		require.Equal(t, StatusBorrowed, r.Release(h.pk))
		require.Equal(t, StatusBorrowed, r.Release(h.sk))
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		var out Handle
		require.Equal(t, StatusTypeMismatch, r.EncryptorEncrypt(h.enc, h.ctx, &out))
		require.Equal(t, StatusTypeMismatch, r.EncryptorCreate(h.ctx, h.sk, &out))
		require.Equal(t, StatusTypeMismatch, r.DecryptorCreate(h.ctx, h.pk, &out))
		require.Equal(t, StatusTypeMismatch, r.EvaluatorRelinearizeInplace(h.ev, h.rk, h.rk))
	})

	t.Run("NullOut", func(t *testing.T) {
		require.Equal(t, StatusNullPointer, r.KeyGeneratorPublicKey(h.kg, nil))
		require.Equal(t, StatusNullPointer, r.CiphertextSize(h.ctx, nil))
	})

	t.Run("UnknownHandle", func(t *testing.T) {
		var out Handle
		require.Equal(t, StatusInvalidHandle, r.EvaluatorCreate(0, &out))
		require.Equal(t, StatusInvalidHandle, r.Release(Handle(1<<40|99)))
	})

	t.Run("DoubleRelease", func(t *testing.T) {
		ct := h.encrypt(t, r, 1)
		require.Equal(t, StatusOK, r.Release(ct))
		require.Equal(t, StatusInvalidHandle, r.Release(ct))
		var n int32
		require.Equal(t, StatusInvalidHandle, r.CiphertextSize(ct, &n))
	})

	t.Run("SizeLimit", func(t *testing.T) {
		ct := h.encrypt(t, r, 2)
		require.Equal(t, StatusOK, r.EvaluatorSquareInplace(h.ev, ct))
		require.Equal(t, StatusSizeLimit, r.EvaluatorSquareInplace(h.ev, ct))
		require.Equal(t, StatusSizeLimit, r.EvaluatorMultiplyInplace(h.ev, ct, ct))
		require.Equal(t, StatusOK, r.Release(ct))
	})

	t.Run("RelinKeyValidation", func(t *testing.T) {
		var out Handle
		require.Equal(t, StatusConfiguration, r.KeyGeneratorRelinKeys(h.kg, 0, 1, &out))
		require.Equal(t, StatusConfiguration, r.KeyGeneratorRelinKeys(h.kg, 61, 1, &out))
		require.Equal(t, StatusConfiguration, r.KeyGeneratorRelinKeys(h.kg, 16, 2, &out))
	})

	t.Run("BorrowedInvalidatedWithOwner", func(t *testing.T) {
		var kg, pk Handle
		require.Equal(t, StatusOK, r.KeyGeneratorCreate(h.ctx, &kg))
		require.Equal(t, StatusOK, r.KeyGeneratorPublicKey(kg, &pk))
		require.Equal(t, StatusOK, r.Release(kg))
		var enc Handle
		require.Equal(t, StatusInvalidHandle, r.EncryptorCreate(h.ctx, pk, &enc))
	})

	t.Run("KeyAccessorsReuseHandles", func(t *testing.T) {
		before := r.Stats()
		for i := 0; i < 5; i++ {
			var pk, sk Handle
			require.Equal(t, StatusOK, r.KeyGeneratorPublicKey(h.kg, &pk))
			require.Equal(t, StatusOK, r.KeyGeneratorSecretKey(h.kg, &sk))
			require.Equal(t, h.pk, pk)
			require.Equal(t, h.sk, sk)
		}
		require.Equal(t, before, r.Stats())
	})

	t.Run("OutUntouchedOnError", func(t *testing.T) {
		modulus := uint64(7)
		require.Equal(t, StatusTypeMismatch, r.EncryptionParametersPlainModulus(h.ctx, &modulus))
		require.EqualValues(t, 7, modulus)

		set := true
		require.Equal(t, StatusInvalidHandle, r.ContextParametersSet(0, &set))
		require.True(t, set)

		budget := int32(-1)
		require.Equal(t, StatusTypeMismatch, r.DecryptorInvariantNoiseBudget(h.dec, h.ctx, &budget))
		require.EqualValues(t, -1, budget)

		out := Handle(99)
		require.Equal(t, StatusTypeMismatch, r.KeyGeneratorPublicKey(h.ctx, &out))
		require.Equal(t, Handle(99), out)
	})

	h.release(t, r)
	require.Equal(t, handle.Stats{}, r.Stats())
}

func TestKeyMismatchAcrossKeySets(t *testing.T) {
	r := NewRuntime()
	a := newHandles(t, r, 2048)
	b := newHandles(t, r, 2048)

	ctA := a.encrypt(t, r, 1)
	ctB := b.encrypt(t, r, 2)

	var pt Handle
	require.Equal(t, StatusKeyMismatch, r.DecryptorDecrypt(a.dec, ctB, &pt))
	require.Equal(t, StatusKeyMismatch, r.EvaluatorAddInplace(a.ev, ctA, ctB))

	require.Equal(t, StatusOK, r.EvaluatorSquareInplace(a.ev, ctA))
	require.Equal(t, StatusKeyMismatch, r.EvaluatorRelinearizeInplace(a.ev, ctA, b.rk))

	// a decryptor built from another generator's secret key
	var dec Handle
	require.Equal(t, StatusOK, r.DecryptorCreate(a.ctx, b.sk, &dec))
	require.Equal(t, StatusKeyMismatch, r.DecryptorDecrypt(dec, ctA, &pt))
	require.Equal(t, StatusOK, r.Release(dec))

	for _, x := range []Handle{ctA, ctB} {
		require.Equal(t, StatusOK, r.Release(x))
	}
	a.release(t, r)
	b.release(t, r)
	require.Equal(t, handle.Stats{}, r.Stats())
}

func TestContextOutlivesHandle(t *testing.T) {
	r := NewRuntime()
	h := newHandles(t, r, 2048)

	// sessions keep the context alive after the caller drops it
	require.Equal(t, StatusOK, r.Release(h.ctx))
	var set bool
	require.Equal(t, StatusInvalidHandle, r.ContextParametersSet(h.ctx, &set))

	ct := h.encrypt(t, r, 21)
	require.Equal(t, StatusOK, r.EvaluatorAddInplace(h.ev, ct, ct))
	require.EqualValues(t, 42, h.decrypt(t, r, ct))

	// relinearization keys keep the generator alive too
	require.Equal(t, StatusOK, r.Release(h.kg))
	require.Equal(t, StatusOK, r.EvaluatorSquareInplace(h.ev, ct))
	require.Equal(t, StatusOK, r.EvaluatorRelinearizeInplace(h.ev, ct, h.rk))
	require.EqualValues(t, 2, h.size(t, r, ct))

	for _, x := range []Handle{ct, h.ev, h.dec, h.enc, h.rk, h.ie} {
		require.Equal(t, StatusOK, r.Release(x))
	}
	require.Equal(t, handle.Stats{}, r.Stats())
}

func TestPlaintextHandles(t *testing.T) {
	r := NewRuntime()

	var pt Handle
	require.Equal(t, StatusOK, r.PlaintextCreate("1x^3 + fx^1 + 3", &pt))
	var s string
	require.Equal(t, StatusOK, r.PlaintextToString(pt, &s))
	require.Equal(t, "1x^3 + Fx^1 + 3", s)

	var ie Handle
	require.Equal(t, StatusOK, r.IntegerEncoderCreateForModulus(256, &ie))
	var v int32
	require.Equal(t, StatusOK, r.IntegerEncoderDecodeInt32(ie, pt, &v))
	require.EqualValues(t, 8+2*15+3, v)

	var bad Handle
	require.Equal(t, StatusInvalidPlaintext, r.PlaintextCreate("1x^1 + 2x^2", &bad))
	require.Contains(t, r.LastError(), "degrees must decrease")

	require.Equal(t, StatusOK, r.Release(ie))
	require.Equal(t, StatusOK, r.Release(pt))
	require.Equal(t, handle.Stats{}, r.Stats())
}

func TestDecryptChecked(t *testing.T) {
	r := NewRuntime()
	h := newHandles(t, r, 2048)

	ct := h.encrypt(t, r, 3)
	var pt Handle
	require.Equal(t, StatusOK, r.DecryptorDecryptChecked(h.dec, ct, &pt))
	require.Equal(t, StatusOK, r.Release(pt))

	for i := 0; i < 10 && h.budget(t, r, ct) > 0; i++ {
		require.Equal(t, StatusOK, r.EvaluatorSquareInplace(h.ev, ct))
		require.Equal(t, StatusOK, r.EvaluatorRelinearizeInplace(h.ev, ct, h.rk))
	}
	require.Zero(t, h.budget(t, r, ct))
	require.Equal(t, StatusNoiseBudget, r.DecryptorDecryptChecked(h.dec, ct, &pt))

	require.Equal(t, StatusOK, r.Release(ct))
	h.release(t, r)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "success", StatusOK.String())
	require.Equal(t, "key mismatch", StatusKeyMismatch.String())
	require.Equal(t, "unknown status -99", Status(-99).String())
}
