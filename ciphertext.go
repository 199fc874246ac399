// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package lhe

import (
	"github.com/luxfi/lattice/v7/core/rlwe"
)

// FreshCiphertextSize is the number of components of a fresh or
// relinearized ciphertext
const FreshCiphertextSize = 2

// Ciphertext is an encrypted plaintext bound to a context and key set
type Ciphertext struct {
	binding
	value *rlwe.Ciphertext
}

// Size returns the number of polynomial components
func (ct *Ciphertext) Size() int {
	return ct.value.Degree() + 1
}

// Level returns the chain level of the ciphertext
func (ct *Ciphertext) Level() int {
	return ct.value.Level()
}

// CopyNew returns a deep copy
func (ct *Ciphertext) CopyNew() *Ciphertext {
	return &Ciphertext{binding: ct.binding, value: ct.value.CopyNew()}
}
