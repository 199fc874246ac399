// Package lhe implements a leveled homomorphic encryption workflow for
// integer arithmetic on encrypted data.
//
// A session starts from Parameters, which are frozen into a Context. The
// Context validates them once, on creation, and every session object
// (KeyGenerator, IntegerEncoder, Encryptor, Decryptor, Evaluator) refuses to
// start from a context whose ParametersSet reports false.
//
// This implementation is built on luxfi/lattice primitives:
//   - RLWE key generation, encryption and relinearization (core/rlwe)
//   - BFV tensoring through the scale-invariant BGV evaluator (schemes/bgv)
//   - NTT-friendly moduli chains and coefficient access (ring)
//
// Noise is not tracked by the library. Decrypting a ciphertext whose
// invariant noise budget has reached zero returns a wrong plaintext without
// any error; callers must watch Decryptor.InvariantNoiseBudget.
//
// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause
package lhe

import "fmt"

// Scheme identifies the homomorphic encryption scheme of a parameter set
type Scheme uint8

const (
	// SchemeNone is the zero value and never validates
	SchemeNone Scheme = 0x0
	// SchemeBFV selects exact integer arithmetic (the only scheme evaluated)
	SchemeBFV Scheme = 0x1
	// SchemeCKKS is recognised but not supported by the integer workflow
	SchemeCKKS Scheme = 0x2
)

// String returns the scheme name
func (s Scheme) String() string {
	switch s {
	case SchemeNone:
		return "none"
	case SchemeBFV:
		return "BFV"
	case SchemeCKKS:
		return "CKKS"
	default:
		return fmt.Sprintf("Scheme(%d)", uint8(s))
	}
}

func (s Scheme) valid() bool {
	return s <= SchemeCKKS
}
