// Package lhe - Security Levels
//
// This file defines the coefficient-modulus chains used by
// Parameters.SetCoeffModulus. Each chain targets a classical security level
// for one ring degree and stays within the HomomorphicEncryption.org bound
// on the total coefficient-modulus size.
//
// # Bit Budget
//
//	N        128-bit   192-bit   256-bit
//	------------------------------------------
//	1024     27        19        14
//	2048     54        37        29
//	4096     109       75        58
//	8192     218       152       118
//	16384    438       305       237
//	32768    881       611       476
//
// A chain is stored as the bit sizes of its primes. The engine draws the
// actual NTT-friendly primes deterministically, so identical parameters
// always produce identical moduli.
//
// # Chain Naming Convention
//
// Format: BFV{bits}_N{degree}
//
// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause
package lhe

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// SecurityLevel represents the target security level
type SecurityLevel int

const (
	// Security128 provides 128-bit classical security
	Security128 SecurityLevel = 128
	// Security192 provides 192-bit classical security
	Security192 SecurityLevel = 192
	// Security256 provides 256-bit classical security
	Security256 SecurityLevel = 256
)

// String returns the level as "128-bit", "192-bit" or "256-bit"
func (s SecurityLevel) String() string {
	return fmt.Sprintf("%d-bit", int(s))
}

// Supported ring degrees
const (
	MinPolyModulusDegree = 1024
	MaxPolyModulusDegree = 32768
)

// maxBitCount is the HE-standard bound on log2(Q) for uniform ternary secrets
var maxBitCount = map[SecurityLevel]map[int]int{
	Security128: {1024: 27, 2048: 54, 4096: 109, 8192: 218, 16384: 438, 32768: 881},
	Security192: {1024: 19, 2048: 37, 4096: 75, 8192: 152, 16384: 305, 32768: 611},
	Security256: {1024: 14, 2048: 29, 4096: 58, 8192: 118, 16384: 237, 32768: 476},
}

// MaxBitCount returns the largest total coefficient-modulus bit count allowed
// for the ring degree at the security level, or 0 if the pair is unknown.
func MaxBitCount(degree int, level SecurityLevel) int {
	return maxBitCount[level][degree]
}

// ChainSpec describes a precomputed coefficient-modulus chain
type ChainSpec struct {
	// Name is the chain identifier
	Name string
	// Security is the target security level
	Security SecurityLevel
	// RingDim is the ring degree the chain was sized for
	RingDim int
	// LogQ lists the bit size of every prime, top of the chain last
	LogQ []int
}

// TotalBits returns the nominal bit count of the whole chain
func (c ChainSpec) TotalBits() (bits int) {
	for _, b := range c.LogQ {
		bits += b
	}
	return
}

// Standard chains, one per (security level, ring degree) pair
var chains = []ChainSpec{
	{"BFV128_N1024", Security128, 1024, []int{27}},
	{"BFV128_N2048", Security128, 2048, []int{54}},
	{"BFV128_N4096", Security128, 4096, []int{36, 36, 37}},
	{"BFV128_N8192", Security128, 8192, []int{43, 43, 44, 44, 44}},
	{"BFV128_N16384", Security128, 16384, []int{48, 48, 48, 49, 49, 49, 49, 49, 49}},
	{"BFV128_N32768", Security128, 32768, []int{55, 55, 55, 55, 55, 55, 55, 55, 55, 55, 55, 55, 55, 55, 55, 56}},

	{"BFV192_N1024", Security192, 1024, []int{19}},
	{"BFV192_N2048", Security192, 2048, []int{37}},
	{"BFV192_N4096", Security192, 4096, []int{25, 25, 25}},
	{"BFV192_N8192", Security192, 8192, []int{38, 38, 38, 38}},
	{"BFV192_N16384", Security192, 16384, []int{50, 50, 50, 50, 50, 55}},
	{"BFV192_N32768", Security192, 32768, []int{55, 55, 55, 55, 55, 56, 56, 56, 56, 56, 56}},

	{"BFV256_N1024", Security256, 1024, []int{14}},
	{"BFV256_N2048", Security256, 2048, []int{29}},
	{"BFV256_N4096", Security256, 4096, []int{29, 29}},
	{"BFV256_N8192", Security256, 8192, []int{39, 39, 40}},
	{"BFV256_N16384", Security256, 16384, []int{47, 47, 47, 48, 48}},
	{"BFV256_N32768", Security256, 32768, []int{52, 53, 53, 53, 53, 53, 53, 53, 53}},
}

// AllChains returns every precomputed chain
func AllChains() []ChainSpec {
	out := make([]ChainSpec, len(chains))
	for i, c := range chains {
		c.LogQ = append([]int(nil), c.LogQ...)
		out[i] = c
	}
	return out
}

// LookupChain returns the chain for the security level and ring degree
func LookupChain(level SecurityLevel, degree int) (ChainSpec, bool) {
	for _, c := range chains {
		if c.Security == level && c.RingDim == degree {
			c.LogQ = append([]int(nil), c.LogQ...)
			return c, true
		}
	}
	return ChainSpec{}, false
}

// GetChain returns the chain with the given name
func GetChain(name string) (ChainSpec, bool) {
	for _, c := range AllChains() {
		if c.Name == name {
			return c, true
		}
	}
	return ChainSpec{}, false
}

// SupportedDegree reports whether n is a ring degree with precomputed chains
func SupportedDegree(n int) bool {
	return isPowerOfTwo(n) && n >= MinPolyModulusDegree && n <= MaxPolyModulusDegree
}

func isPowerOfTwo[T constraints.Integer](x T) bool {
	return x > 0 && x&(x-1) == 0
}

func log2[T constraints.Integer](x T) (n int) {
	for x > 1 {
		x >>= 1
		n++
	}
	return
}
