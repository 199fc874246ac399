// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStandardChainsAreValid(t *testing.T) {
	for _, c := range AllChains() {
		t.Run(c.Name, func(t *testing.T) {
			if testing.Short() && c.RingDim > 8192 {
				t.Skip("large ring")
			}
			if bound := MaxBitCount(c.RingDim, c.Security); c.TotalBits() > bound {
				t.Fatalf("chain has %d bits, bound is %d", c.TotalBits(), bound)
			}
			ctx := newContext(t, c.RingDim, c.Security, testPlainModulus)
			if !ctx.ParametersSet() {
				t.Fatalf("parameters not set: %v", ctx.Err())
			}
			q := ctx.Qualifiers()
			if !q.UsingNTT || !q.UsingFastPlainLift {
				t.Errorf("qualifiers = %+v", q)
			}
			if q.PlainSlots <= 0 {
				t.Errorf("no plaintext slots")
			}
			if ctx.ChainLength() != len(c.LogQ) {
				t.Errorf("chain length = %d, want %d", ctx.ChainLength(), len(c.LogQ))
			}
		})
	}
}

func TestContextRejections(t *testing.T) {
	tests := []struct {
		name   string
		degree int
		level  SecurityLevel
		chainN int
		plain  uint64
	}{
		// 109-bit chain in a ring bounded at 54 bits
		{"ChainTooLargeForRing", 2048, Security128, 4096, testPlainModulus},
		{"EvenPlainModulus", 2048, Security128, 2048, 256},
		{"CompositePlainModulus", 2048, Security128, 2048, 289},
		{"PlainModulusLowOrder", 2048, Security128, 2048, 263},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parms, err := NewParameters(SchemeBFV)
			if err != nil {
				t.Fatal(err)
			}
			if err := errors.Join(
				parms.SetPolyModulusDegree(tc.degree),
				parms.SetCoeffModulus(tc.level, tc.chainN),
				parms.SetPlainModulus(tc.plain),
			); err != nil {
				t.Fatal(err)
			}
			ctx := NewContext(parms, true)
			if ctx.ParametersSet() {
				t.Fatal("parameters accepted")
			}
			if !errors.Is(ctx.Err(), ErrConfiguration) {
				t.Errorf("Err() = %v, want ErrConfiguration", ctx.Err())
			}
			if ctx.ChainLength() != 0 {
				t.Errorf("rejected context materialized %d levels", ctx.ChainLength())
			}
			if _, ok := ctx.FirstContextData(); ok {
				t.Error("rejected context has chain data")
			}
		})
	}
}

func TestContextIncompleteParameters(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		ctx := NewContext(nil, false)
		if ctx.ParametersSet() || !errors.Is(ctx.Err(), ErrConfiguration) {
			t.Errorf("nil parameters: set=%v err=%v", ctx.ParametersSet(), ctx.Err())
		}
	})

	t.Run("NilContext", func(t *testing.T) {
		var ctx *Context
		if ctx.ParametersSet() || !errors.Is(ctx.Err(), ErrInvalidContext) {
			t.Errorf("nil context: set=%v err=%v", ctx.ParametersSet(), ctx.Err())
		}
	})

	t.Run("NothingSet", func(t *testing.T) {
		parms, _ := NewParameters(SchemeBFV)
		if NewContext(parms, false).ParametersSet() {
			t.Error("empty parameters accepted")
		}
	})

	t.Run("NoPlainModulus", func(t *testing.T) {
		parms, _ := NewParameters(SchemeBFV)
		_ = parms.SetPolyModulusDegree(2048)
		_ = parms.SetCoeffModulus(Security128, 2048)
		if NewContext(parms, false).ParametersSet() {
			t.Error("parameters without t accepted")
		}
	})

	t.Run("SchemeNone", func(t *testing.T) {
		parms := mustParameters(t, 2048)
		parms.scheme = SchemeNone
		if NewContext(parms, false).ParametersSet() {
			t.Error("scheme none accepted")
		}
	})

	t.Run("CKKS", func(t *testing.T) {
		parms := mustParameters(t, 2048)
		parms.scheme = SchemeCKKS
		ctx := NewContext(parms, false)
		if ctx.ParametersSet() {
			t.Error("CKKS accepted for integer encoding")
		}
	})
}

func TestParameterSetters(t *testing.T) {
	if _, err := NewParameters(Scheme(7)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown scheme: got %v", err)
	}

	parms, err := NewParameters(SchemeBFV)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 512, 3000, 65536} {
		if err := parms.SetPolyModulusDegree(n); !errors.Is(err, ErrConfiguration) {
			t.Errorf("degree %d: got %v", n, err)
		}
	}
	if err := parms.SetCoeffModulus(SecurityLevel(100), 2048); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown security level: got %v", err)
	}
	if err := parms.SetCoeffModulus(Security128, 3000); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown chain degree: got %v", err)
	}
	for _, p := range []uint64{0, 1, 1 << 60} {
		if err := parms.SetPlainModulus(p); !errors.Is(err, ErrConfiguration) {
			t.Errorf("plain modulus %d: got %v", p, err)
		}
	}
	if parms.PolyModulusDegree() != 0 || parms.PlainModulus() != 0 {
		t.Error("rejected setters changed the parameters")
	}
	if _, ok := parms.CoeffModulus(); ok {
		t.Error("rejected setter selected a chain")
	}

	if err := parms.SetPlainModulus(256); err != nil {
		t.Errorf("t=256 must be storable: %v", err)
	}
	if parms.PlainModulus() != 256 {
		t.Errorf("PlainModulus() = %d", parms.PlainModulus())
	}
}

func TestContextIsFrozen(t *testing.T) {
	parms := mustParameters(t, 2048)
	ctx := NewContext(parms, false)
	if !ctx.ParametersSet() {
		t.Fatal(ctx.Err())
	}
	id := ctx.ParmsID()

	if err := parms.SetPlainModulus(65537); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Parameters().PlainModulus(); got != testPlainModulus {
		t.Errorf("context plain modulus changed to %d", got)
	}
	if ctx.ParmsID() != id {
		t.Error("fingerprint changed")
	}
	if NewContext(parms, false).ParmsID() == id {
		t.Error("different parameters share a fingerprint")
	}
}

func TestParmsIDStable(t *testing.T) {
	a := NewContext(mustParameters(t, 2048), false)
	b := NewContext(mustParameters(t, 2048), true)
	if a.ParmsID() != b.ParmsID() {
		t.Errorf("fingerprints %s and %s differ", a.ParmsID(), b.ParmsID())
	}
	if len(a.ParmsID().String()) != 16 {
		t.Errorf("ParmsID string %q", a.ParmsID())
	}
}

func TestExpandModChain(t *testing.T) {
	c, ok := LookupChain(Security128, 8192)
	if !ok {
		t.Fatal("missing chain")
	}

	top := newContextExpand(t, 8192, false)
	if top.ChainLength() != 1 {
		t.Fatalf("unexpanded chain length = %d", top.ChainLength())
	}

	full := newContextExpand(t, 8192, true)
	if full.ChainLength() != len(c.LogQ) {
		t.Fatalf("expanded chain length = %d, want %d", full.ChainLength(), len(c.LogQ))
	}

	first, _ := full.FirstContextData()
	last, _ := full.LastContextData()
	if first.ChainIndex != len(c.LogQ)-1 || last.ChainIndex != 0 {
		t.Errorf("chain indices %d..%d", first.ChainIndex, last.ChainIndex)
	}
	if len(first.CoeffModulus) != len(c.LogQ) || len(last.CoeffModulus) != 1 {
		t.Errorf("moduli per level: top %d, bottom %d", len(first.CoeffModulus), len(last.CoeffModulus))
	}
	if first.TotalCoeffModulusBitCount > c.TotalBits() {
		t.Errorf("top level has %d bits, chain nominal %d", first.TotalCoeffModulusBitCount, c.TotalBits())
	}

	topData, _ := top.FirstContextData()
	if diff := cmp.Diff(first, topData); diff != "" {
		t.Errorf("top level differs (-expanded +unexpanded):\n%s", diff)
	}
}

func newContextExpand(t *testing.T, degree int, expand bool) *Context {
	t.Helper()
	ctx := NewContext(mustParameters(t, degree), expand)
	if !ctx.ParametersSet() {
		t.Fatal(ctx.Err())
	}
	return ctx
}

func TestSecurityTable(t *testing.T) {
	if got := MaxBitCount(2048, Security128); got != 54 {
		t.Errorf("MaxBitCount(2048, 128) = %d", got)
	}
	if got := MaxBitCount(3000, Security128); got != 0 {
		t.Errorf("unknown degree bound = %d", got)
	}
	c, ok := GetChain("BFV192_N8192")
	if !ok || c.Security != Security192 || c.RingDim != 8192 {
		t.Errorf("GetChain = %+v, %v", c, ok)
	}
	if _, ok := GetChain("nope"); ok {
		t.Error("unknown chain found")
	}

	// returned chains are copies
	c.LogQ[0] = 1
	again, _ := GetChain("BFV192_N8192")
	if again.LogQ[0] == 1 {
		t.Error("chain table was modified through a lookup")
	}

	if Security256.String() != "256-bit" {
		t.Errorf("String() = %q", Security256)
	}
}
