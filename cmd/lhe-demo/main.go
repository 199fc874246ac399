// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Command lhe-demo runs the integer workflow through the handle API and logs
// the noise budget after every operation.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/luxfi/lhe"
	"github.com/luxfi/lhe/capi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type demo struct {
	r *capi.Runtime
	// owned handles, released in reverse order
	owned []capi.Handle
}

// call turns a failed status into an error carrying the runtime's message
func (d *demo) call(op string, s capi.Status) error {
	if s != capi.StatusOK {
		return fmt.Errorf("%s: %s: %s", op, s, d.r.LastError())
	}
	return nil
}

func (d *demo) keep(h capi.Handle) capi.Handle {
	d.owned = append(d.owned, h)
	return h
}

func (d *demo) close() {
	for i := len(d.owned) - 1; i >= 0; i-- {
		if s := d.r.Release(d.owned[i]); s != capi.StatusOK {
			log.Printf("release %#x: %s", uint64(d.owned[i]), s)
		}
	}
	log.Printf("Live handles after release: %+v", d.r.Stats())
}

func run() error {
	var (
		degree   = flag.Int("degree", 2048, "ring degree")
		security = flag.Int("security", 128, "security level: 128, 192 or 256")
		plain    = flag.Uint64("plain", 257, "plaintext modulus")
		dbc      = flag.Int("dbc", 16, "relinearization decomposition bit count")
		a        = flag.Int("a", 5, "first operand")
		b        = flag.Int("b", -7, "second operand")
	)
	flag.Parse()

	log.Printf("lhe demo (C API %s)", capi.Version)
	log.Printf("  Ring degree: %d", *degree)
	log.Printf("  Security: %d-bit", *security)
	log.Printf("  Plain modulus: %d", *plain)

	d := &demo{r: capi.NewRuntime()}
	defer d.close()
	r := d.r

	var ep, ctx capi.Handle
	if err := d.call("parameters", r.EncryptionParametersCreate(int32(lhe.SchemeBFV), &ep)); err != nil {
		return err
	}
	d.keep(ep)
	if err := d.call("poly modulus degree", r.EncryptionParametersSetPolyModulusDegree(ep, int32(*degree))); err != nil {
		return err
	}
	if err := d.call("coeff modulus", r.EncryptionParametersSetCoeffModulus(ep, int32(*security), int32(*degree))); err != nil {
		return err
	}
	if err := d.call("plain modulus", r.EncryptionParametersSetPlainModulus(ep, *plain)); err != nil {
		return err
	}
	if err := d.call("context", r.ContextCreate(ep, true, &ctx)); err != nil {
		return err
	}
	d.keep(ctx)

	var set bool
	if err := d.call("parameters set", r.ContextParametersSet(ctx, &set)); err != nil {
		return err
	}
	if !set {
		return fmt.Errorf("parameters rejected: %s", r.LastError())
	}

	var ie, kg, pk, sk, rk, enc, dec, ev capi.Handle
	steps := []struct {
		name string
		fn   func() capi.Status
		out  *capi.Handle
		own  bool
	}{
		{"integer encoder", func() capi.Status { return r.IntegerEncoderCreate(ctx, &ie) }, &ie, true},
		{"key generator", func() capi.Status { return r.KeyGeneratorCreate(ctx, &kg) }, &kg, true},
		{"public key", func() capi.Status { return r.KeyGeneratorPublicKey(kg, &pk) }, &pk, false},
		{"secret key", func() capi.Status { return r.KeyGeneratorSecretKey(kg, &sk) }, &sk, false},
		{"relin keys", func() capi.Status { return r.KeyGeneratorRelinKeys(kg, int32(*dbc), 1, &rk) }, &rk, true},
		{"encryptor", func() capi.Status { return r.EncryptorCreate(ctx, pk, &enc) }, &enc, true},
		{"decryptor", func() capi.Status { return r.DecryptorCreate(ctx, sk, &dec) }, &dec, true},
		{"evaluator", func() capi.Status { return r.EvaluatorCreate(ctx, &ev) }, &ev, true},
	}
	for _, step := range steps {
		if err := d.call(step.name, step.fn()); err != nil {
			return err
		}
		if step.own {
			d.keep(*step.out)
		}
	}

	encrypt := func(v int32) (capi.Handle, error) {
		var pt, ct capi.Handle
		if err := d.call("encode", r.IntegerEncoderEncode(ie, v, &pt)); err != nil {
			return 0, err
		}
		d.keep(pt)
		var s string
		if err := d.call("plaintext string", r.PlaintextToString(pt, &s)); err != nil {
			return 0, err
		}
		log.Printf("Encoded %d as %q", v, s)
		if err := d.call("encrypt", r.EncryptorEncrypt(enc, pt, &ct)); err != nil {
			return 0, err
		}
		return d.keep(ct), nil
	}

	report := func(label string, ct capi.Handle) error {
		var pt capi.Handle
		var v, budget, size int32
		if err := d.call("decrypt", r.DecryptorDecrypt(dec, ct, &pt)); err != nil {
			return err
		}
		d.keep(pt)
		if err := d.call("decode", r.IntegerEncoderDecodeInt32(ie, pt, &v)); err != nil {
			return err
		}
		if err := d.call("noise budget", r.DecryptorInvariantNoiseBudget(dec, ct, &budget)); err != nil {
			return err
		}
		if err := d.call("size", r.CiphertextSize(ct, &size)); err != nil {
			return err
		}
		log.Printf("%-28s = %-8d size %d, noise budget %d bits", label, v, size, budget)
		return nil
	}

	x, err := encrypt(int32(*a))
	if err != nil {
		return err
	}
	y, err := encrypt(int32(*b))
	if err != nil {
		return err
	}
	if err := report("x", x); err != nil {
		return err
	}
	if err := report("y", y); err != nil {
		return err
	}

	ops := []struct {
		label  string
		target capi.Handle
		fn     func() capi.Status
	}{
		{"x = -x", x, func() capi.Status { return r.EvaluatorNegateInplace(ev, x) }},
		{"x = x + y", x, func() capi.Status { return r.EvaluatorAddInplace(ev, x, y) }},
		{"x = x * y", x, func() capi.Status { return r.EvaluatorMultiplyInplace(ev, x, y) }},
		{"relinearize x", x, func() capi.Status { return r.EvaluatorRelinearizeInplace(ev, x, rk) }},
		{"y = y^2", y, func() capi.Status { return r.EvaluatorSquareInplace(ev, y) }},
		{"relinearize y", y, func() capi.Status { return r.EvaluatorRelinearizeInplace(ev, y, rk) }},
	}
	for _, op := range ops {
		if err := d.call(op.label, op.fn()); err != nil {
			return err
		}
		if err := report(op.label, op.target); err != nil {
			return err
		}
	}
	return nil
}
