// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Command lhe-profile times the BFV workflow and optionally writes pprof
// profiles.
//
// Usage:
//
//	go build -o lhe-profile ./cmd/lhe-profile
//	./lhe-profile -degree=8192 -iterations=50 -cpu=cpu.prof
//
// Analyze profiles:
//
//	go tool pprof -http=:8080 cpu.prof
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/luxfi/lhe"
)

var (
	cpuProfile = flag.String("cpu", "", "write cpu profile to file")
	memProfile = flag.String("mem", "", "write memory profile to file")
	iterations = flag.Int("iterations", 20, "number of iterations for each operation")
	degree     = flag.Int("degree", 4096, "ring degree")
	security   = flag.Int("security", 128, "security level: 128, 192 or 256")
	plain      = flag.Uint64("plain", 257, "plaintext modulus")
	dbc        = flag.Int("dbc", 16, "relinearization decomposition bit count")
	operation  = flag.String("op", "all", "operation to profile: all, keygen, encrypt, evaluate")
)

func main() {
	flag.Parse()

	profiler := lhe.NewProfiler(lhe.ProfileConfig{
		CPUProfile: *cpuProfile,
		MemProfile: *memProfile,
	})
	if err := profiler.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start profiler: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Running %d iterations of '%s' at N=%d\n", *iterations, *operation, *degree)
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	tm := lhe.NewTimings()
	err := run(tm)

	if stopErr := profiler.Stop(os.Stdout); stopErr != nil {
		fmt.Fprintf(os.Stderr, "Failed to stop profiler: %v\n", stopErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	tm.Print(os.Stdout)
	lhe.PrintMemStats(os.Stdout)
}

func run(tm *lhe.Timings) error {
	ctx, err := newContext()
	if err != nil {
		return err
	}

	switch *operation {
	case "all":
		if err := profileKeyGen(tm, ctx); err != nil {
			return err
		}
		if err := profileEncrypt(tm, ctx); err != nil {
			return err
		}
		return profileEvaluate(tm, ctx)
	case "keygen":
		return profileKeyGen(tm, ctx)
	case "encrypt":
		return profileEncrypt(tm, ctx)
	case "evaluate":
		return profileEvaluate(tm, ctx)
	default:
		return fmt.Errorf("unknown operation: %s", *operation)
	}
}

func newContext() (*lhe.Context, error) {
	parms, err := lhe.NewParameters(lhe.SchemeBFV)
	if err != nil {
		return nil, err
	}
	if err := parms.SetPolyModulusDegree(*degree); err != nil {
		return nil, err
	}
	if err := parms.SetCoeffModulus(lhe.SecurityLevel(*security), *degree); err != nil {
		return nil, err
	}
	if err := parms.SetPlainModulus(*plain); err != nil {
		return nil, err
	}
	ctx := lhe.NewContext(parms, true)
	if !ctx.ParametersSet() {
		return nil, ctx.Err()
	}
	return ctx, nil
}

func profileKeyGen(tm *lhe.Timings, ctx *lhe.Context) error {
	var kg *lhe.KeyGenerator
	for i := 0; i < *iterations; i++ {
		if err := tm.Time("keygen", func() (err error) {
			kg, err = lhe.NewKeyGenerator(ctx)
			return err
		}); err != nil {
			return err
		}
	}
	for i := 0; i < *iterations; i++ {
		if err := tm.Time("relin keys", func() error {
			_, err := kg.RelinKeys(*dbc, 1)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func profileEncrypt(tm *lhe.Timings, ctx *lhe.Context) error {
	kg, err := lhe.NewKeyGenerator(ctx)
	if err != nil {
		return err
	}
	ie, err := lhe.NewIntegerEncoder(ctx)
	if err != nil {
		return err
	}
	enc, err := lhe.NewEncryptor(ctx, kg.PublicKey())
	if err != nil {
		return err
	}
	dec, err := lhe.NewDecryptor(ctx, kg.SecretKey())
	if err != nil {
		return err
	}

	pt := ie.Encode(0x42)
	var ct *lhe.Ciphertext
	for i := 0; i < *iterations; i++ {
		if err := tm.Time("encrypt", func() (err error) {
			ct, err = enc.Encrypt(pt)
			return err
		}); err != nil {
			return err
		}
	}
	for i := 0; i < *iterations; i++ {
		if err := tm.Time("decrypt", func() error {
			_, err := dec.Decrypt(ct)
			return err
		}); err != nil {
			return err
		}
		if err := tm.Time("noise budget", func() error {
			_, err := dec.InvariantNoiseBudget(ct)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func profileEvaluate(tm *lhe.Timings, ctx *lhe.Context) error {
	kg, err := lhe.NewKeyGenerator(ctx)
	if err != nil {
		return err
	}
	rk, err := kg.RelinKeys(*dbc, 1)
	if err != nil {
		return err
	}
	ie, err := lhe.NewIntegerEncoder(ctx)
	if err != nil {
		return err
	}
	enc, err := lhe.NewEncryptor(ctx, kg.PublicKey())
	if err != nil {
		return err
	}
	eval, err := lhe.NewEvaluator(ctx)
	if err != nil {
		return err
	}

	a, err := enc.Encrypt(ie.Encode(7))
	if err != nil {
		return err
	}
	b, err := enc.Encrypt(ie.Encode(5))
	if err != nil {
		return err
	}

	for i := 0; i < *iterations; i++ {
		ct := a.CopyNew()
		steps := []struct {
			name string
			fn   func() error
		}{
			{"negate", func() error { return eval.NegateInplace(ct) }},
			{"add", func() error { return eval.AddInplace(ct, b) }},
			{"multiply", func() error { return eval.MultiplyInplace(ct, b) }},
			{"relinearize", func() error { return eval.RelinearizeInplace(ct, rk) }},
			{"square", func() error { return eval.SquareInplace(ct) }},
		}
		for _, step := range steps {
			if err := tm.Time(step.name, step.fn); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
		}
	}
	return nil
}
