// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import "errors"

var (
	// ErrConfiguration covers unsupported degrees, missing modulus chains,
	// invalid plaintext moduli and invalid relinearization settings.
	ErrConfiguration = errors.New("lhe: invalid configuration")

	// ErrInvalidContext is returned by every session constructor given a
	// context whose parameters are not set.
	ErrInvalidContext = errors.New("lhe: context parameters not set")

	// ErrKeyMismatch is returned when keys or ciphertexts from one context or
	// key set are used with another.
	ErrKeyMismatch = errors.New("lhe: key or ciphertext belongs to another context")

	// ErrSizeLimit is returned when a ciphertext is too large for the
	// requested operation, usually because relinearization was skipped.
	ErrSizeLimit = errors.New("lhe: ciphertext size limit exceeded")

	// ErrLevelMismatch is returned when operands sit at different chain levels.
	ErrLevelMismatch = errors.New("lhe: ciphertext levels differ")

	// ErrInvalidPlaintext is returned for malformed or out-of-range plaintexts.
	ErrInvalidPlaintext = errors.New("lhe: invalid plaintext")

	// ErrNoiseBudgetExhausted is only returned by Decryptor.DecryptChecked.
	// Decrypt itself stays silent past the noise floor.
	ErrNoiseBudgetExhausted = errors.New("lhe: noise budget exhausted")
)
