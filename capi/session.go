// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package capi

import (
	"fmt"
	"math"

	"github.com/luxfi/lhe"
	"github.com/luxfi/lhe/internal/handle"
)

// =============================================================================
// EncryptionParameters
// =============================================================================

// EncryptionParametersCreate creates empty parameters for the scheme tag
func (r *Runtime) EncryptionParametersCreate(scheme int32, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	if scheme < 0 || scheme > math.MaxUint8 {
		return r.fail(fmt.Errorf("%w: scheme %d", lhe.ErrConfiguration, scheme))
	}
	p, err := lhe.NewParameters(lhe.Scheme(scheme))
	if err != nil {
		return r.fail(err)
	}
	return r.put(p, out)
}

// EncryptionParametersSetPolyModulusDegree sets the ring degree
func (r *Runtime) EncryptionParametersSetPolyModulusDegree(ep Handle, degree int32) Status {
	p, err := handle.Get[*lhe.Parameters](r.table, ep)
	if err != nil {
		return r.fail(err)
	}
	return r.fail(p.SetPolyModulusDegree(int(degree)))
}

// EncryptionParametersSetCoeffModulus selects the chain for a security level
// (128, 192 or 256) and ring degree
func (r *Runtime) EncryptionParametersSetCoeffModulus(ep Handle, security, degree int32) Status {
	p, err := handle.Get[*lhe.Parameters](r.table, ep)
	if err != nil {
		return r.fail(err)
	}
	return r.fail(p.SetCoeffModulus(lhe.SecurityLevel(security), int(degree)))
}

// EncryptionParametersSetPlainModulus sets the plaintext modulus
func (r *Runtime) EncryptionParametersSetPlainModulus(ep Handle, modulus uint64) Status {
	p, err := handle.Get[*lhe.Parameters](r.table, ep)
	if err != nil {
		return r.fail(err)
	}
	return r.fail(p.SetPlainModulus(modulus))
}

// EncryptionParametersPlainModulus reads the plaintext modulus
func (r *Runtime) EncryptionParametersPlainModulus(ep Handle, out *uint64) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	p, err := handle.Get[*lhe.Parameters](r.table, ep)
	if err != nil {
		return r.fail(err)
	}
	*out = p.PlainModulus()
	return StatusOK
}

// =============================================================================
// Context
// =============================================================================

// ContextCreate freezes the parameters into a context. It succeeds even for
// unusable parameters; check ContextParametersSet.
func (r *Runtime) ContextCreate(ep Handle, expandModChain bool, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	p, err := handle.Get[*lhe.Parameters](r.table, ep)
	if err != nil {
		return r.fail(err)
	}
	return r.put(lhe.NewContext(p, expandModChain), out)
}

// ContextParametersSet reports whether the context is usable
func (r *Runtime) ContextParametersSet(ctx Handle, out *bool) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	c, err := handle.Get[*lhe.Context](r.table, ctx)
	if err != nil {
		return r.fail(err)
	}
	*out = c.ParametersSet()
	if !*out {
		// keep the reason for LastError without failing the call
		r.mu.Lock()
		r.lastErr = c.Err()
		r.mu.Unlock()
	}
	return StatusOK
}

// =============================================================================
// IntegerEncoder
// =============================================================================

// IntegerEncoderCreate creates an encoder for the context's plaintext modulus
func (r *Runtime) IntegerEncoderCreate(ctx Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	c, err := handle.Get[*lhe.Context](r.table, ctx)
	if err != nil {
		return r.fail(err)
	}
	ie, err := lhe.NewIntegerEncoder(c)
	if err != nil {
		return r.fail(err)
	}
	return r.put(ie, out, ctx)
}

// IntegerEncoderCreateForModulus creates an encoder for a bare modulus
func (r *Runtime) IntegerEncoderCreateForModulus(modulus uint64, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	ie, err := lhe.NewIntegerEncoderForModulus(modulus)
	if err != nil {
		return r.fail(err)
	}
	return r.put(ie, out)
}

// IntegerEncoderEncode encodes value into a new plaintext
func (r *Runtime) IntegerEncoderEncode(ie Handle, value int32, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	enc, err := handle.Get[*lhe.IntegerEncoder](r.table, ie)
	if err != nil {
		return r.fail(err)
	}
	return r.put(enc.Encode(value), out)
}

// IntegerEncoderDecodeInt32 decodes a plaintext
func (r *Runtime) IntegerEncoderDecodeInt32(ie, pt Handle, out *int32) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	enc, err := handle.Get[*lhe.IntegerEncoder](r.table, ie)
	if err != nil {
		return r.fail(err)
	}
	p, err := handle.Get[lhe.Plaintext](r.table, pt)
	if err != nil {
		return r.fail(err)
	}
	v, err := enc.DecodeInt32(p)
	if err != nil {
		return r.fail(err)
	}
	*out = v
	return StatusOK
}

// =============================================================================
// KeyGenerator
// =============================================================================

// KeyGeneratorCreate creates a key generator and its key pair
func (r *Runtime) KeyGeneratorCreate(ctx Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	c, err := handle.Get[*lhe.Context](r.table, ctx)
	if err != nil {
		return r.fail(err)
	}
	kg, err := lhe.NewKeyGenerator(c)
	if err != nil {
		return r.fail(err)
	}
	return r.put(kg, out, ctx)
}

// KeyGeneratorPublicKey returns a borrowed handle to the public key. Every
// call returns the same handle.
func (r *Runtime) KeyGeneratorPublicKey(kg Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	g, err := handle.Get[*lhe.KeyGenerator](r.table, kg)
	if err != nil {
		return r.fail(err)
	}
	h, err := r.table.BorrowNamed(kg, "public key", g.PublicKey())
	if err != nil {
		return r.fail(err)
	}
	*out = h
	return StatusOK
}

// KeyGeneratorSecretKey returns a borrowed handle to the secret key. Every
// call returns the same handle.
func (r *Runtime) KeyGeneratorSecretKey(kg Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	g, err := handle.Get[*lhe.KeyGenerator](r.table, kg)
	if err != nil {
		return r.fail(err)
	}
	h, err := r.table.BorrowNamed(kg, "secret key", g.SecretKey())
	if err != nil {
		return r.fail(err)
	}
	*out = h
	return StatusOK
}

// KeyGeneratorRelinKeys generates relinearization keys. The new owned
// handle keeps the generator alive.
func (r *Runtime) KeyGeneratorRelinKeys(kg Handle, decompositionBitCount, count int32, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	g, err := handle.Get[*lhe.KeyGenerator](r.table, kg)
	if err != nil {
		return r.fail(err)
	}
	rk, err := g.RelinKeys(int(decompositionBitCount), int(count))
	if err != nil {
		return r.fail(err)
	}
	return r.put(rk, out, kg)
}

// =============================================================================
// Encryptor / Decryptor
// =============================================================================

// EncryptorCreate creates an encryptor from a public key handle
func (r *Runtime) EncryptorCreate(ctx, pk Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	c, err := handle.Get[*lhe.Context](r.table, ctx)
	if err != nil {
		return r.fail(err)
	}
	key, err := handle.Get[*lhe.PublicKey](r.table, pk)
	if err != nil {
		return r.fail(err)
	}
	enc, err := lhe.NewEncryptor(c, key)
	if err != nil {
		return r.fail(err)
	}
	return r.put(enc, out, ctx)
}

// EncryptorEncrypt encrypts a plaintext into a new ciphertext
func (r *Runtime) EncryptorEncrypt(enc, pt Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	e, err := handle.Get[*lhe.Encryptor](r.table, enc)
	if err != nil {
		return r.fail(err)
	}
	p, err := handle.Get[lhe.Plaintext](r.table, pt)
	if err != nil {
		return r.fail(err)
	}
	ct, err := e.Encrypt(p)
	if err != nil {
		return r.fail(err)
	}
	return r.put(ct, out)
}

// DecryptorCreate creates a decryptor from a secret key handle
func (r *Runtime) DecryptorCreate(ctx, sk Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	c, err := handle.Get[*lhe.Context](r.table, ctx)
	if err != nil {
		return r.fail(err)
	}
	key, err := handle.Get[*lhe.SecretKey](r.table, sk)
	if err != nil {
		return r.fail(err)
	}
	dec, err := lhe.NewDecryptor(c, key)
	if err != nil {
		return r.fail(err)
	}
	return r.put(dec, out, ctx)
}

// DecryptorDecrypt decrypts a ciphertext into a new plaintext. Past the
// noise floor the plaintext is wrong and the call still succeeds.
func (r *Runtime) DecryptorDecrypt(dec, ct Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	d, err := handle.Get[*lhe.Decryptor](r.table, dec)
	if err != nil {
		return r.fail(err)
	}
	c, err := handle.Get[*lhe.Ciphertext](r.table, ct)
	if err != nil {
		return r.fail(err)
	}
	pt, err := d.Decrypt(c)
	if err != nil {
		return r.fail(err)
	}
	return r.put(pt, out)
}

// DecryptorInvariantNoiseBudget reads the noise budget of a ciphertext in bits
func (r *Runtime) DecryptorInvariantNoiseBudget(dec, ct Handle, out *int32) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	d, err := handle.Get[*lhe.Decryptor](r.table, dec)
	if err != nil {
		return r.fail(err)
	}
	c, err := handle.Get[*lhe.Ciphertext](r.table, ct)
	if err != nil {
		return r.fail(err)
	}
	b, err := d.InvariantNoiseBudget(c)
	if err != nil {
		return r.fail(err)
	}
	*out = int32(b)
	return StatusOK
}

// =============================================================================
// Evaluator
// =============================================================================

// EvaluatorCreate creates an evaluator
func (r *Runtime) EvaluatorCreate(ctx Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	c, err := handle.Get[*lhe.Context](r.table, ctx)
	if err != nil {
		return r.fail(err)
	}
	ev, err := lhe.NewEvaluator(c)
	if err != nil {
		return r.fail(err)
	}
	return r.put(ev, out, ctx)
}

// EvaluatorNegateInplace negates ct
func (r *Runtime) EvaluatorNegateInplace(ev, ct Handle) Status {
	e, c, err := r.evalOperand(ev, ct)
	if err != nil {
		return r.fail(err)
	}
	return r.fail(e.NegateInplace(c))
}

// EvaluatorAddInplace adds ct2 to ct1
func (r *Runtime) EvaluatorAddInplace(ev, ct1, ct2 Handle) Status {
	e, c1, err := r.evalOperand(ev, ct1)
	if err != nil {
		return r.fail(err)
	}
	c2, err := handle.Get[*lhe.Ciphertext](r.table, ct2)
	if err != nil {
		return r.fail(err)
	}
	return r.fail(e.AddInplace(c1, c2))
}

// EvaluatorMultiplyInplace multiplies ct1 by ct2
func (r *Runtime) EvaluatorMultiplyInplace(ev, ct1, ct2 Handle) Status {
	e, c1, err := r.evalOperand(ev, ct1)
	if err != nil {
		return r.fail(err)
	}
	c2, err := handle.Get[*lhe.Ciphertext](r.table, ct2)
	if err != nil {
		return r.fail(err)
	}
	return r.fail(e.MultiplyInplace(c1, c2))
}

// EvaluatorSquareInplace squares ct
func (r *Runtime) EvaluatorSquareInplace(ev, ct Handle) Status {
	e, c, err := r.evalOperand(ev, ct)
	if err != nil {
		return r.fail(err)
	}
	return r.fail(e.SquareInplace(c))
}

// EvaluatorRelinearizeInplace relinearizes ct with the given keys
func (r *Runtime) EvaluatorRelinearizeInplace(ev, ct, rk Handle) Status {
	e, c, err := r.evalOperand(ev, ct)
	if err != nil {
		return r.fail(err)
	}
	keys, err := handle.Get[*lhe.RelinKeys](r.table, rk)
	if err != nil {
		return r.fail(err)
	}
	return r.fail(e.RelinearizeInplace(c, keys))
}

func (r *Runtime) evalOperand(ev, ct Handle) (*lhe.Evaluator, *lhe.Ciphertext, error) {
	e, err := handle.Get[*lhe.Evaluator](r.table, ev)
	if err != nil {
		return nil, nil, err
	}
	c, err := handle.Get[*lhe.Ciphertext](r.table, ct)
	if err != nil {
		return nil, nil, err
	}
	return e, c, nil
}

// =============================================================================
// Plaintext / Ciphertext
// =============================================================================

// PlaintextCreate parses a plaintext of the form "1x^3 + Fx^1 + 3"
func (r *Runtime) PlaintextCreate(hexPoly string, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	pt, err := lhe.ParsePlaintext(hexPoly)
	if err != nil {
		return r.fail(err)
	}
	return r.put(pt, out)
}

// PlaintextToString renders a plaintext in the form PlaintextCreate parses
func (r *Runtime) PlaintextToString(pt Handle, out *string) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	p, err := handle.Get[lhe.Plaintext](r.table, pt)
	if err != nil {
		return r.fail(err)
	}
	*out = p.String()
	return StatusOK
}

// CiphertextSize reads the number of polynomial components of a ciphertext
func (r *Runtime) CiphertextSize(ct Handle, out *int32) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	c, err := handle.Get[*lhe.Ciphertext](r.table, ct)
	if err != nil {
		return r.fail(err)
	}
	*out = int32(c.Size())
	return StatusOK
}

// DecryptorDecryptChecked decrypts like DecryptorDecrypt but fails with
// StatusNoiseBudget instead of returning a corrupted plaintext
func (r *Runtime) DecryptorDecryptChecked(dec, ct Handle, out *Handle) Status {
	if out == nil {
		return r.fail(errNullPointer)
	}
	d, err := handle.Get[*lhe.Decryptor](r.table, dec)
	if err != nil {
		return r.fail(err)
	}
	c, err := handle.Get[*lhe.Ciphertext](r.table, ct)
	if err != nil {
		return r.fail(err)
	}
	pt, err := d.DecryptChecked(c)
	if err != nil {
		return r.fail(err)
	}
	return r.put(pt, out)
}
