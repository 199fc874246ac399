// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import "fmt"

// IntegerEncoder maps integers to plaintexts using balanced binary digits:
// bit i of |x| becomes coefficient i, set to 1 for positive x and t-1 for
// negative x. Decoding evaluates the polynomial at 2.
//
// Every int32 round trips. Results of homomorphic operations decode exactly
// while no coefficient wraps modulo t and the degree stays below
// Qualifiers.PlainSlots. That bound is the degree of the plaintext ring,
// half the largest power of two dividing t-1 and at most N (128 for t = 257),
// so it can be well below the ring degree. Past these limits, and past the
// int32 range, decoding wraps silently.
type IntegerEncoder struct {
	t uint64
	// negThreshold is the smallest coefficient read as negative
	negThreshold uint64
}

// NewIntegerEncoder creates an encoder for the context's plaintext modulus
func NewIntegerEncoder(ctx *Context) (*IntegerEncoder, error) {
	if err := ctx.check(); err != nil {
		return nil, err
	}
	return NewIntegerEncoderForModulus(ctx.params.PlaintextModulus())
}

// NewIntegerEncoderForModulus creates an encoder for a bare plaintext modulus
func NewIntegerEncoderForModulus(t uint64) (*IntegerEncoder, error) {
	if t < 2 || log2(t) >= MaxPlainModulusBits {
		return nil, fmt.Errorf("%w: plaintext modulus %d out of range", ErrConfiguration, t)
	}
	return &IntegerEncoder{t: t, negThreshold: (t + 1) >> 1}, nil
}

// PlainModulus returns the modulus the encoder works with
func (e *IntegerEncoder) PlainModulus() uint64 {
	return e.t
}

// Encode encodes value
func (e *IntegerEncoder) Encode(value int32) Plaintext {
	return e.EncodeInt64(int64(value))
}

// EncodeInt64 encodes value
func (e *IntegerEncoder) EncodeInt64(value int64) Plaintext {
	digit := uint64(1)
	mag := uint64(value)
	if value < 0 {
		digit = e.t - 1
		mag = -mag
	}
	var coeffs []uint64
	for i := 0; mag != 0; i++ {
		if mag&1 == 1 {
			for len(coeffs) <= i {
				coeffs = append(coeffs, 0)
			}
			coeffs[i] = digit
		}
		mag >>= 1
	}
	return trimmed(coeffs)
}

// DecodeInt32 decodes pt, wrapping outside the int32 range
func (e *IntegerEncoder) DecodeInt32(pt Plaintext) (int32, error) {
	v, err := e.DecodeInt64(pt)
	return int32(v), err
}

// DecodeInt64 decodes pt, wrapping outside the int64 range
func (e *IntegerEncoder) DecodeInt64(pt Plaintext) (int64, error) {
	var acc int64
	for i := len(pt.coeffs) - 1; i >= 0; i-- {
		c := pt.coeffs[i]
		if c >= e.t {
			return 0, fmt.Errorf("%w: coefficient %d is %d, not below %d", ErrInvalidPlaintext, i, c, e.t)
		}
		acc <<= 1
		if c >= e.negThreshold {
			acc -= int64(e.t - c)
		} else {
			acc += int64(c)
		}
	}
	return acc, nil
}
