// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"fmt"
	"strconv"
	"strings"
)

// Plaintext is a polynomial with coefficients modulo the plaintext modulus,
// lowest degree first. It is an immutable value and safe to copy.
type Plaintext struct {
	coeffs []uint64
}

// NewPlaintext returns the plaintext with the given coefficients
func NewPlaintext(coeffs ...uint64) Plaintext {
	return trimmed(append([]uint64(nil), coeffs...))
}

// trimmed takes ownership of coeffs and drops trailing zeros
func trimmed(coeffs []uint64) Plaintext {
	n := len(coeffs)
	for n > 0 && coeffs[n-1] == 0 {
		n--
	}
	if n == 0 {
		return Plaintext{}
	}
	return Plaintext{coeffs: coeffs[:n:n]}
}

// CoeffCount returns the number of significant coefficients
func (p Plaintext) CoeffCount() int {
	return len(p.coeffs)
}

// Coeff returns coefficient i, zero past the degree
func (p Plaintext) Coeff(i int) uint64 {
	if i < 0 || i >= len(p.coeffs) {
		return 0
	}
	return p.coeffs[i]
}

// Coeffs returns a copy of the coefficients
func (p Plaintext) Coeffs() []uint64 {
	return append([]uint64(nil), p.coeffs...)
}

// IsZero reports whether p is the zero polynomial
func (p Plaintext) IsZero() bool {
	return len(p.coeffs) == 0
}

// Equal reports whether p and other hold the same polynomial
func (p Plaintext) Equal(other Plaintext) bool {
	if len(p.coeffs) != len(other.coeffs) {
		return false
	}
	for i := range p.coeffs {
		if p.coeffs[i] != other.coeffs[i] {
			return false
		}
	}
	return true
}

// String renders p as "1x^3 + Fx^1 + 3": nonzero terms from the highest
// degree down, upper-case hex coefficients, "0" for the zero polynomial.
func (p Plaintext) String() string {
	if p.IsZero() {
		return "0"
	}
	var sb strings.Builder
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		c := p.coeffs[i]
		if c == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" + ")
		}
		sb.WriteString(strings.ToUpper(strconv.FormatUint(c, 16)))
		if i > 0 {
			sb.WriteString("x^")
			sb.WriteString(strconv.Itoa(i))
		}
	}
	return sb.String()
}

// ParsePlaintext parses the form produced by Plaintext.String. Degrees must
// strictly decrease from term to term; hex digits may be in either case.
func ParsePlaintext(s string) (Plaintext, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Plaintext{}, fmt.Errorf("%w: empty polynomial", ErrInvalidPlaintext)
	}

	terms := strings.Split(s, "+")
	var coeffs []uint64
	prev := -1
	for i, term := range terms {
		term = strings.TrimSpace(term)
		coeff, degree, err := parseTerm(term)
		if err != nil {
			return Plaintext{}, fmt.Errorf("%w: term %d %q: %v", ErrInvalidPlaintext, i, term, err)
		}
		if i > 0 && degree >= prev {
			return Plaintext{}, fmt.Errorf("%w: term %d %q: degrees must decrease", ErrInvalidPlaintext, i, term)
		}
		prev = degree
		if coeffs == nil {
			coeffs = make([]uint64, degree+1)
		}
		coeffs[degree] = coeff
	}
	return trimmed(coeffs), nil
}

// maxParseDegree keeps a hostile exponent from allocating the heap away
const maxParseDegree = MaxPolyModulusDegree - 1

func parseTerm(term string) (coeff uint64, degree int, err error) {
	if term == "" {
		return 0, 0, fmt.Errorf("missing term")
	}
	hexPart := term
	if idx := strings.IndexAny(term, "xX"); idx >= 0 {
		exp, ok := strings.CutPrefix(term[idx+1:], "^")
		if !ok {
			return 0, 0, fmt.Errorf("missing '^' after x")
		}
		if degree, err = strconv.Atoi(exp); err != nil || degree < 1 {
			return 0, 0, fmt.Errorf("bad exponent %q", exp)
		}
		if degree > maxParseDegree {
			return 0, 0, fmt.Errorf("exponent %d above %d", degree, maxParseDegree)
		}
		hexPart = term[:idx]
	}
	if hexPart == "" {
		return 0, 0, fmt.Errorf("missing coefficient")
	}
	if coeff, err = strconv.ParseUint(hexPart, 16, 64); err != nil {
		return 0, 0, fmt.Errorf("bad coefficient %q", hexPart)
	}
	return coeff, degree, nil
}
