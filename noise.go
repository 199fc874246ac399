// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/montanaflynn/stats"
)

// logPrec is the big.Float precision used for exact logarithms
const logPrec = 128

// NoiseReport summarizes the noise of a ciphertext, measured in bits
type NoiseReport struct {
	// Budget is the invariant noise budget
	Budget int
	// ModulusBits is the bit length of the coefficient modulus at the
	// ciphertext's level
	ModulusBits int
	// MaxLog2 is log2 of the largest noise coefficient
	MaxLog2 float64
	// MeanLog2, MedianLog2 and StdDevLog2 describe log2 of the nonzero
	// noise coefficients
	MeanLog2   float64
	MedianLog2 float64
	StdDevLog2 float64
}

// NoiseReport measures the noise of ct. It needs the secret key, so it
// lives on the Decryptor.
func (dec *Decryptor) NoiseReport(ct *Ciphertext) (NoiseReport, error) {
	if err := dec.owns(ct); err != nil {
		return NoiseReport{}, err
	}
	coeffs, q := dec.noise(ct)
	peak := maxAbs(coeffs)

	rep := NoiseReport{
		Budget:      budget(q, peak),
		ModulusBits: q.BitLen(),
	}

	var (
		values stats.Float64Data
		abs    = new(big.Int)
	)
	for _, c := range coeffs {
		if c.Sign() == 0 {
			continue
		}
		values = append(values, approxLog2(abs.Abs(c)))
	}
	if len(values) == 0 {
		return rep, nil
	}

	rep.MaxLog2 = exactLog2(peak)
	rep.MeanLog2, _ = stats.Mean(values)
	rep.MedianLog2, _ = stats.Median(values)
	rep.StdDevLog2, _ = stats.StandardDeviation(values)
	return rep, nil
}

// approxLog2 keeps the top 53 bits of x, enough for a float64 log2
func approxLog2(x *big.Int) float64 {
	shift := x.BitLen() - 53
	if shift <= 0 {
		return math.Log2(float64(x.Uint64()))
	}
	top := new(big.Int).Rsh(x, uint(shift))
	return math.Log2(float64(top.Uint64())) + float64(shift)
}

// exactLog2 returns log2(x) for x > 0 at logPrec bits
func exactLog2(x *big.Int) float64 {
	num := bigfloat.Log(new(big.Float).SetPrec(logPrec).SetInt(x))
	den := bigfloat.Log(new(big.Float).SetPrec(logPrec).SetInt64(2))
	f, _ := new(big.Float).SetPrec(logPrec).Quo(num, den).Float64()
	return f
}
