// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025, Lux Industries Inc
//
// CGO exports for the lhe C API. Objects cross as uint64 handles; see
// package capi for ownership rules.

package main

/*
#include <stdlib.h>
#include <stdint.h>
#include <stdbool.h>
*/
import "C"

import (
	"unsafe"

	"github.com/luxfi/lhe/capi"
)

// =============================================================================
// Error Codes
// =============================================================================

const (
	LHE_OK                    = C.int(capi.StatusOK)
	LHE_ERR_NULL_POINTER      = C.int(capi.StatusNullPointer)
	LHE_ERR_INVALID_HANDLE    = C.int(capi.StatusInvalidHandle)
	LHE_ERR_BORROWED          = C.int(capi.StatusBorrowed)
	LHE_ERR_TYPE_MISMATCH     = C.int(capi.StatusTypeMismatch)
	LHE_ERR_CONFIGURATION     = C.int(capi.StatusConfiguration)
	LHE_ERR_INVALID_CONTEXT   = C.int(capi.StatusInvalidContext)
	LHE_ERR_KEY_MISMATCH      = C.int(capi.StatusKeyMismatch)
	LHE_ERR_SIZE_LIMIT        = C.int(capi.StatusSizeLimit)
	LHE_ERR_LEVEL_MISMATCH    = C.int(capi.StatusLevelMismatch)
	LHE_ERR_INVALID_PLAINTEXT = C.int(capi.StatusInvalidPlaintext)
	LHE_ERR_NOISE_BUDGET      = C.int(capi.StatusNoiseBudget)
	LHE_ERR_OPERATION         = C.int(capi.StatusOperation)
)

var rt = capi.Default

func status(s capi.Status) C.int {
	return C.int(s)
}

// withHandle runs fn with a Go out-parameter and copies the handle to out
func withHandle(out *C.uint64_t, fn func(*capi.Handle) capi.Status) C.int {
	if out == nil {
		return LHE_ERR_NULL_POINTER
	}
	var h capi.Handle
	s := fn(&h)
	if s == capi.StatusOK {
		*out = C.uint64_t(h)
	}
	return status(s)
}

func handleOf(h C.uint64_t) capi.Handle {
	return capi.Handle(h)
}

// =============================================================================
// Version / Errors
// =============================================================================

//export lhe_version
func lhe_version() *C.char {
	return C.CString(capi.Version)
}

//export lhe_error_string
func lhe_error_string(err C.int) *C.char {
	return C.CString(capi.Status(err).String())
}

//export lhe_last_error
func lhe_last_error() *C.char {
	return C.CString(rt.LastError())
}

//export lhe_string_free
func lhe_string_free(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

//export lhe_release
func lhe_release(h C.uint64_t) C.int {
	return status(rt.Release(handleOf(h)))
}

// =============================================================================
// Encryption Parameters / Context
// =============================================================================

//export lhe_encryption_parameters_create
func lhe_encryption_parameters_create(scheme C.int32_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.EncryptionParametersCreate(int32(scheme), h)
	})
}

//export lhe_encryption_parameters_set_poly_modulus_degree
func lhe_encryption_parameters_set_poly_modulus_degree(ep C.uint64_t, degree C.int32_t) C.int {
	return status(rt.EncryptionParametersSetPolyModulusDegree(handleOf(ep), int32(degree)))
}

//export lhe_encryption_parameters_set_coeff_modulus
func lhe_encryption_parameters_set_coeff_modulus(ep C.uint64_t, security, degree C.int32_t) C.int {
	return status(rt.EncryptionParametersSetCoeffModulus(handleOf(ep), int32(security), int32(degree)))
}

//export lhe_encryption_parameters_set_plain_modulus
func lhe_encryption_parameters_set_plain_modulus(ep C.uint64_t, modulus C.uint64_t) C.int {
	return status(rt.EncryptionParametersSetPlainModulus(handleOf(ep), uint64(modulus)))
}

//export lhe_encryption_parameters_plain_modulus
func lhe_encryption_parameters_plain_modulus(ep C.uint64_t, out *C.uint64_t) C.int {
	if out == nil {
		return LHE_ERR_NULL_POINTER
	}
	var v uint64
	s := rt.EncryptionParametersPlainModulus(handleOf(ep), &v)
	if s == capi.StatusOK {
		*out = C.uint64_t(v)
	}
	return status(s)
}

//export lhe_context_create
func lhe_context_create(ep C.uint64_t, expandModChain C.bool, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.ContextCreate(handleOf(ep), bool(expandModChain), h)
	})
}

//export lhe_context_parameters_set
func lhe_context_parameters_set(ctx C.uint64_t, out *C.bool) C.int {
	if out == nil {
		return LHE_ERR_NULL_POINTER
	}
	var set bool
	s := rt.ContextParametersSet(handleOf(ctx), &set)
	if s == capi.StatusOK {
		*out = C.bool(set)
	}
	return status(s)
}

// =============================================================================
// Integer Encoder / Plaintext
// =============================================================================

//export lhe_integer_encoder_create
func lhe_integer_encoder_create(ctx C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.IntegerEncoderCreate(handleOf(ctx), h)
	})
}

//export lhe_integer_encoder_create_for_modulus
func lhe_integer_encoder_create_for_modulus(modulus C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.IntegerEncoderCreateForModulus(uint64(modulus), h)
	})
}

//export lhe_integer_encoder_encode
func lhe_integer_encoder_encode(ie C.uint64_t, value C.int32_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.IntegerEncoderEncode(handleOf(ie), int32(value), h)
	})
}

//export lhe_integer_encoder_decode_int32
func lhe_integer_encoder_decode_int32(ie, pt C.uint64_t, out *C.int32_t) C.int {
	if out == nil {
		return LHE_ERR_NULL_POINTER
	}
	var v int32
	s := rt.IntegerEncoderDecodeInt32(handleOf(ie), handleOf(pt), &v)
	if s == capi.StatusOK {
		*out = C.int32_t(v)
	}
	return status(s)
}

//export lhe_plaintext_create
func lhe_plaintext_create(hexPoly *C.char, out *C.uint64_t) C.int {
	if hexPoly == nil {
		return LHE_ERR_NULL_POINTER
	}
	poly := C.GoString(hexPoly)
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.PlaintextCreate(poly, h)
	})
}

// lhe_plaintext_to_string writes a string the caller frees with
// lhe_string_free
//
//export lhe_plaintext_to_string
func lhe_plaintext_to_string(pt C.uint64_t, out **C.char) C.int {
	if out == nil {
		return LHE_ERR_NULL_POINTER
	}
	var str string
	s := rt.PlaintextToString(handleOf(pt), &str)
	if s == capi.StatusOK {
		*out = C.CString(str)
	}
	return status(s)
}

// =============================================================================
// Key Generation
// =============================================================================

//export lhe_key_generator_create
func lhe_key_generator_create(ctx C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.KeyGeneratorCreate(handleOf(ctx), h)
	})
}

//export lhe_key_generator_public_key
func lhe_key_generator_public_key(kg C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.KeyGeneratorPublicKey(handleOf(kg), h)
	})
}

//export lhe_key_generator_secret_key
func lhe_key_generator_secret_key(kg C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.KeyGeneratorSecretKey(handleOf(kg), h)
	})
}

//export lhe_key_generator_relin_keys
func lhe_key_generator_relin_keys(kg C.uint64_t, decompositionBitCount, count C.int32_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.KeyGeneratorRelinKeys(handleOf(kg), int32(decompositionBitCount), int32(count), h)
	})
}

// =============================================================================
// Encryptor / Decryptor
// =============================================================================

//export lhe_encryptor_create
func lhe_encryptor_create(ctx, pk C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.EncryptorCreate(handleOf(ctx), handleOf(pk), h)
	})
}

//export lhe_encryptor_encrypt
func lhe_encryptor_encrypt(enc, pt C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.EncryptorEncrypt(handleOf(enc), handleOf(pt), h)
	})
}

//export lhe_decryptor_create
func lhe_decryptor_create(ctx, sk C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.DecryptorCreate(handleOf(ctx), handleOf(sk), h)
	})
}

//export lhe_decryptor_decrypt
func lhe_decryptor_decrypt(dec, ct C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.DecryptorDecrypt(handleOf(dec), handleOf(ct), h)
	})
}

//export lhe_decryptor_decrypt_checked
func lhe_decryptor_decrypt_checked(dec, ct C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.DecryptorDecryptChecked(handleOf(dec), handleOf(ct), h)
	})
}

//export lhe_decryptor_invariant_noise_budget
func lhe_decryptor_invariant_noise_budget(dec, ct C.uint64_t, out *C.int32_t) C.int {
	if out == nil {
		return LHE_ERR_NULL_POINTER
	}
	var b int32
	s := rt.DecryptorInvariantNoiseBudget(handleOf(dec), handleOf(ct), &b)
	if s == capi.StatusOK {
		*out = C.int32_t(b)
	}
	return status(s)
}

// =============================================================================
// Evaluator
// =============================================================================

//export lhe_evaluator_create
func lhe_evaluator_create(ctx C.uint64_t, out *C.uint64_t) C.int {
	return withHandle(out, func(h *capi.Handle) capi.Status {
		return rt.EvaluatorCreate(handleOf(ctx), h)
	})
}

//export lhe_evaluator_negate_inplace
func lhe_evaluator_negate_inplace(ev, ct C.uint64_t) C.int {
	return status(rt.EvaluatorNegateInplace(handleOf(ev), handleOf(ct)))
}

//export lhe_evaluator_add_inplace
func lhe_evaluator_add_inplace(ev, ct1, ct2 C.uint64_t) C.int {
	return status(rt.EvaluatorAddInplace(handleOf(ev), handleOf(ct1), handleOf(ct2)))
}

//export lhe_evaluator_multiply_inplace
func lhe_evaluator_multiply_inplace(ev, ct1, ct2 C.uint64_t) C.int {
	return status(rt.EvaluatorMultiplyInplace(handleOf(ev), handleOf(ct1), handleOf(ct2)))
}

//export lhe_evaluator_square_inplace
func lhe_evaluator_square_inplace(ev, ct C.uint64_t) C.int {
	return status(rt.EvaluatorSquareInplace(handleOf(ev), handleOf(ct)))
}

//export lhe_evaluator_relinearize_inplace
func lhe_evaluator_relinearize_inplace(ev, ct, rk C.uint64_t) C.int {
	return status(rt.EvaluatorRelinearizeInplace(handleOf(ev), handleOf(ct), handleOf(rk)))
}

// =============================================================================
// Ciphertext
// =============================================================================

//export lhe_ciphertext_size
func lhe_ciphertext_size(ct C.uint64_t, out *C.int32_t) C.int {
	if out == nil {
		return LHE_ERR_NULL_POINTER
	}
	var n int32
	s := rt.CiphertextSize(handleOf(ct), &n)
	if s == capi.StatusOK {
		*out = C.int32_t(n)
	}
	return status(s)
}

// Required for C shared library
func main() {}
