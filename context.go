// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/luxfi/lattice/v7/ring"
	"github.com/luxfi/lattice/v7/schemes/bgv"
	"github.com/zeebo/blake3"
)

// minPlainOrder is the smallest cyclotomic order the engine accepts for t
const minPlainOrder = 16

// ParmsID fingerprints a parameter set
type ParmsID [32]byte

// String returns the first 8 bytes in hex
func (id ParmsID) String() string {
	return hex.EncodeToString(id[:8])
}

// Qualifiers report what a validated parameter set supports
type Qualifiers struct {
	// ParametersSet is true when the parameters form a usable context
	ParametersSet bool
	// UsingNTT is true when ciphertexts are kept in NTT form
	UsingNTT bool
	// UsingBatching is true when t = 1 mod 2N
	UsingBatching bool
	// UsingFastPlainLift is true when every prime of the chain exceeds t
	UsingFastPlainLift bool
	// PlainSlots is the number of plaintext coefficients a ciphertext holds
	PlainSlots int
}

// ContextData describes one level of the modulus chain
type ContextData struct {
	// ChainIndex is the level, the top of the chain has the largest index
	ChainIndex int
	// CoeffModulus holds the primes active at this level
	CoeffModulus []uint64
	// TotalCoeffModulusBitCount is the bit length of their product
	TotalCoeffModulusBitCount int
}

// Context is an immutable, validated view of a parameter set. It is shared
// by every session object built from it.
type Context struct {
	parms  Parameters
	params bgv.Parameters
	qual   Qualifiers
	err    error
	chain  []ContextData
	id     ParmsID
}

// NewContext freezes parms and validates them. It never fails; check
// ParametersSet before use. expandModChain materializes every level of the
// modulus chain instead of only the top one.
func NewContext(parms *Parameters, expandModChain bool) *Context {
	ctx := &Context{}
	if parms == nil {
		ctx.err = fmt.Errorf("%w: nil parameters", ErrConfiguration)
		ctx.id = ctx.fingerprint()
		return ctx
	}

	ctx.parms = parms.snapshot()
	if ctx.err = ctx.validate(); ctx.err == nil {
		ctx.qualify()
		ctx.expand(expandModChain)
	}
	ctx.id = ctx.fingerprint()
	return ctx
}

func (ctx *Context) validate() error {
	p := ctx.parms

	switch p.scheme {
	case SchemeBFV:
	case SchemeNone:
		return fmt.Errorf("%w: scheme not set", ErrConfiguration)
	default:
		return fmt.Errorf("%w: scheme %s does not support integer encoding", ErrConfiguration, p.scheme)
	}

	if p.degree == 0 {
		return fmt.Errorf("%w: ring degree not set", ErrConfiguration)
	}
	if !p.chainSet {
		return fmt.Errorf("%w: coefficient modulus not set", ErrConfiguration)
	}
	if p.plainModulus == 0 {
		return fmt.Errorf("%w: plaintext modulus not set", ErrConfiguration)
	}

	bound := MaxBitCount(p.degree, p.chain.Security)
	if bits := p.chain.TotalBits(); bits > bound {
		return fmt.Errorf("%w: %s coefficient modulus (%d bits) exceeds the %s bound of %d bits at N=%d",
			ErrConfiguration, p.chain.Name, bits, p.chain.Security, bound, p.degree)
	}

	t := p.plainModulus
	if !ring.IsPrime(t) {
		return fmt.Errorf("%w: plaintext modulus %d is not prime", ErrConfiguration, t)
	}
	if t%minPlainOrder != 1 {
		return fmt.Errorf("%w: plaintext modulus %d is not 1 mod %d", ErrConfiguration, t, minPlainOrder)
	}

	params, err := bgv.NewParametersFromLiteral(p.literal())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	ctx.params = params
	return nil
}

func (ctx *Context) qualify() {
	t := ctx.params.PlaintextModulus()
	lift := true
	for _, qi := range ctx.params.Q() {
		if qi <= t {
			lift = false
		}
	}
	slots := ctx.params.RingT().N()
	ctx.qual = Qualifiers{
		ParametersSet:      true,
		UsingNTT:           ctx.params.NTTFlag(),
		UsingBatching:      slots == ctx.params.N(),
		UsingFastPlainLift: lift,
		PlainSlots:         slots,
	}
}

func (ctx *Context) expand(all bool) {
	top := ctx.params.MaxLevel()
	bottom := top
	if all {
		bottom = 0
	}
	ringQ := ctx.params.RingQ()
	q := ctx.params.Q()
	for level := top; level >= bottom; level-- {
		ctx.chain = append(ctx.chain, ContextData{
			ChainIndex:                level,
			CoeffModulus:              append([]uint64(nil), q[:level+1]...),
			TotalCoeffModulusBitCount: ringQ.ModulusAtLevel[level].BitLen(),
		})
	}
}

// fingerprint hashes the snapshot, and the engine moduli when they exist
func (ctx *Context) fingerprint() ParmsID {
	h := blake3.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	p := ctx.parms
	put(uint64(p.scheme))
	put(uint64(p.degree))
	put(p.plainModulus)
	put(uint64(len(p.chain.LogQ)))
	for _, b := range p.chain.LogQ {
		put(uint64(b))
	}
	if ctx.qual.ParametersSet {
		for _, qi := range ctx.params.Q() {
			put(qi)
		}
	}

	var id ParmsID
	copy(id[:], h.Sum(nil))
	return id
}

// ParametersSet reports whether the parameters form a usable context
func (ctx *Context) ParametersSet() bool {
	return ctx != nil && ctx.qual.ParametersSet
}

// Err returns the reason the parameters were rejected, nil if they are set
func (ctx *Context) Err() error {
	if ctx == nil {
		return fmt.Errorf("%w: nil context", ErrInvalidContext)
	}
	return ctx.err
}

// Qualifiers returns the validation qualifiers
func (ctx *Context) Qualifiers() Qualifiers {
	return ctx.qual
}

// Parameters returns a copy of the parameters the context was built from
func (ctx *Context) Parameters() Parameters {
	return ctx.parms.snapshot()
}

// ParmsID returns the parameter fingerprint
func (ctx *Context) ParmsID() ParmsID {
	return ctx.id
}

// ChainLength returns the number of materialized chain levels
func (ctx *Context) ChainLength() int {
	return len(ctx.chain)
}

// FirstContextData returns the top of the chain, where keys live
func (ctx *Context) FirstContextData() (ContextData, bool) {
	if len(ctx.chain) == 0 {
		return ContextData{}, false
	}
	return ctx.chain[0], true
}

// LastContextData returns the bottom of the materialized chain
func (ctx *Context) LastContextData() (ContextData, bool) {
	if len(ctx.chain) == 0 {
		return ContextData{}, false
	}
	return ctx.chain[len(ctx.chain)-1], true
}

// check is called by every session constructor
func (ctx *Context) check() error {
	if ctx == nil {
		return fmt.Errorf("%w: nil context", ErrInvalidContext)
	}
	if !ctx.qual.ParametersSet {
		return fmt.Errorf("%w: %v", ErrInvalidContext, ctx.err)
	}
	return nil
}

// checkPlaintext validates coefficients against t and the slot count
func (ctx *Context) checkPlaintext(pt Plaintext) error {
	if n := pt.CoeffCount(); n > ctx.qual.PlainSlots {
		return fmt.Errorf("%w: %d coefficients, at most %d fit", ErrInvalidPlaintext, n, ctx.qual.PlainSlots)
	}
	t := ctx.params.PlaintextModulus()
	for i, c := range pt.coeffs {
		if c >= t {
			return fmt.Errorf("%w: coefficient %d is %d, not below %d", ErrInvalidPlaintext, i, c, t)
		}
	}
	return nil
}
