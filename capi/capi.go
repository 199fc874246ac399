// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package capi is the opaque-handle surface of lhe. Every object crosses the
// boundary as a Handle; every call returns a Status and writes results
// through out-parameters, so the same functions back the cgo exports in
// sdk/c and can be tested from Go.
//
// Ownership rules:
//   - Create functions, Encrypt, Decrypt, Encode, RelinKeys and
//     PlaintextCreate return owned handles; release each exactly once.
//   - KeyGeneratorPublicKey and KeyGeneratorSecretKey return borrowed
//     handles, valid until the key generator is released. Never release them.
//   - Session objects keep their context alive, so a context handle may be
//     released while sessions built from it are still in use.
package capi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/lhe"
	"github.com/luxfi/lhe/internal/handle"
)

// Handle is an opaque object reference. Zero is never valid.
type Handle = handle.Handle

// Version is the version of the C surface
const Version = "1.0.0"

// Status is the result code of every boundary call
type Status int32

const (
	StatusOK               Status = 0
	StatusNullPointer      Status = -1
	StatusInvalidHandle    Status = -2
	StatusBorrowed         Status = -3
	StatusTypeMismatch     Status = -4
	StatusConfiguration    Status = -5
	StatusInvalidContext   Status = -6
	StatusKeyMismatch      Status = -7
	StatusSizeLimit        Status = -8
	StatusLevelMismatch    Status = -9
	StatusInvalidPlaintext Status = -10
	StatusNoiseBudget      Status = -11
	StatusOperation        Status = -12
)

var statusMessages = map[Status]string{
	StatusOK:               "success",
	StatusNullPointer:      "null pointer",
	StatusInvalidHandle:    "invalid or released handle",
	StatusBorrowed:         "borrowed handle",
	StatusTypeMismatch:     "type mismatch",
	StatusConfiguration:    "invalid configuration",
	StatusInvalidContext:   "context parameters not set",
	StatusKeyMismatch:      "key mismatch",
	StatusSizeLimit:        "ciphertext size limit exceeded",
	StatusLevelMismatch:    "ciphertext level mismatch",
	StatusInvalidPlaintext: "invalid plaintext",
	StatusNoiseBudget:      "noise budget exhausted",
	StatusOperation:        "operation failed",
}

// String returns the status message
func (s Status) String() string {
	if msg, ok := statusMessages[s]; ok {
		return msg
	}
	return fmt.Sprintf("unknown status %d", int32(s))
}

var errNullPointer = errors.New("capi: nil out-parameter")

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, errNullPointer):
		return StatusNullPointer
	case errors.Is(err, handle.ErrNotFound), errors.Is(err, handle.ErrStale):
		return StatusInvalidHandle
	case errors.Is(err, handle.ErrBorrowed):
		return StatusBorrowed
	case errors.Is(err, handle.ErrTypeMismatch):
		return StatusTypeMismatch
	case errors.Is(err, lhe.ErrInvalidContext):
		return StatusInvalidContext
	case errors.Is(err, lhe.ErrConfiguration):
		return StatusConfiguration
	case errors.Is(err, lhe.ErrKeyMismatch):
		return StatusKeyMismatch
	case errors.Is(err, lhe.ErrSizeLimit):
		return StatusSizeLimit
	case errors.Is(err, lhe.ErrLevelMismatch):
		return StatusLevelMismatch
	case errors.Is(err, lhe.ErrInvalidPlaintext):
		return StatusInvalidPlaintext
	case errors.Is(err, lhe.ErrNoiseBudgetExhausted):
		return StatusNoiseBudget
	default:
		return StatusOperation
	}
}

// Runtime owns a handle table. Handles from one Runtime mean nothing to
// another.
type Runtime struct {
	table *handle.Table

	mu      sync.Mutex
	lastErr error
}

// NewRuntime returns an empty runtime
func NewRuntime() *Runtime {
	return &Runtime{table: handle.NewTable(nil)}
}

// Default is the runtime behind the cgo exports
var Default = NewRuntime()

// LastError returns the message of the most recent failed call, or "" if
// none failed yet
func (r *Runtime) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastErr == nil {
		return ""
	}
	return r.lastErr.Error()
}

// Stats returns live handle counts, for leak checks
func (r *Runtime) Stats() handle.Stats {
	return r.table.Stats()
}

// Release releases an owned handle
func (r *Runtime) Release(h Handle) Status {
	return r.fail(r.table.Release(h))
}

func (r *Runtime) fail(err error) Status {
	if err == nil {
		return StatusOK
	}
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
	return statusOf(err)
}

// put stores v, makes it retain its dependencies and writes the handle
func (r *Runtime) put(v any, out *Handle, deps ...Handle) Status {
	h := r.table.Put(v)
	for _, d := range deps {
		if err := r.table.Retain(h, d); err != nil {
			_ = r.table.Release(h)
			return r.fail(err)
		}
	}
	*out = h
	return StatusOK
}
