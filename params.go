// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"fmt"

	"github.com/luxfi/lattice/v7/schemes/bgv"
)

// MaxPlainModulusBits bounds the plaintext modulus
const MaxPlainModulusBits = 60

// Parameters describes a scheme, ring degree, coefficient-modulus chain and
// plaintext modulus. It is mutable until handed to NewContext, which keeps
// its own snapshot.
type Parameters struct {
	scheme Scheme
	// degree is the ring degree N
	degree int
	// chain is the coefficient-modulus chain, valid when chainSet
	chain    ChainSpec
	chainSet bool
	// plainModulus is the literal caller value, 0 when unset
	plainModulus uint64
}

// NewParameters returns empty parameters for the scheme
func NewParameters(scheme Scheme) (*Parameters, error) {
	if !scheme.valid() {
		return nil, fmt.Errorf("%w: unknown scheme %s", ErrConfiguration, scheme)
	}
	return &Parameters{scheme: scheme}, nil
}

// SetPolyModulusDegree sets the ring degree, a power of two in [1024, 32768]
func (p *Parameters) SetPolyModulusDegree(n int) error {
	if !SupportedDegree(n) {
		return fmt.Errorf("%w: unsupported ring degree %d", ErrConfiguration, n)
	}
	p.degree = n
	return nil
}

// SetCoeffModulus selects the precomputed chain for the security level and
// ring degree. The degree does not have to match the ring degree; a chain
// that is too large for the ring fails context validation.
func (p *Parameters) SetCoeffModulus(level SecurityLevel, degree int) error {
	c, ok := LookupChain(level, degree)
	if !ok {
		return fmt.Errorf("%w: no coefficient modulus for %s security at N=%d", ErrConfiguration, level, degree)
	}
	p.chain = c
	p.chainSet = true
	return nil
}

// SetPlainModulus sets the plaintext modulus to t
func (p *Parameters) SetPlainModulus(t uint64) error {
	if t < 2 || log2(t) >= MaxPlainModulusBits {
		return fmt.Errorf("%w: plaintext modulus %d out of range", ErrConfiguration, t)
	}
	p.plainModulus = t
	return nil
}

// Scheme returns the scheme tag
func (p Parameters) Scheme() Scheme {
	return p.scheme
}

// PolyModulusDegree returns the ring degree, 0 if unset
func (p Parameters) PolyModulusDegree() int {
	return p.degree
}

// CoeffModulus returns the selected chain and whether one is set
func (p Parameters) CoeffModulus() (ChainSpec, bool) {
	if !p.chainSet {
		return ChainSpec{}, false
	}
	c := p.chain
	c.LogQ = append([]int(nil), c.LogQ...)
	return c, true
}

// PlainModulus returns the plaintext modulus, 0 if unset
func (p Parameters) PlainModulus() uint64 {
	return p.plainModulus
}

// snapshot returns a deep copy
func (p *Parameters) snapshot() Parameters {
	c := *p
	c.chain.LogQ = append([]int(nil), p.chain.LogQ...)
	return c
}

// literal converts the parameters into an engine literal. The chain's own
// ring degree fixes the root of unity, so a chain keeps its primes whatever
// ring it is placed in.
func (p Parameters) literal() bgv.ParametersLiteral {
	return bgv.ParametersLiteral{
		LogN:             log2(p.degree),
		LogNthRoot:       log2(p.chain.RingDim) + 1,
		LogQ:             append([]int(nil), p.chain.LogQ...),
		PlaintextModulus: p.plainModulus,
	}
}
