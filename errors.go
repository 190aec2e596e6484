// errors.go: Error codes and classification helpers for Atlas
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	goerrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for Atlas operations
const (
	ErrCodeBadInput       = "ATLAS_THREADING_BAD_INPUT"
	ErrCodeMutexError     = "ATLAS_THREADING_MUTEX_ERROR"
	ErrCodeInvalidBinding = "ATLAS_INVALID_BINDING"
	ErrCodeRegistrySealed = "ATLAS_REGISTRY_SEALED"
	ErrCodeInvalidConfig  = "ATLAS_INVALID_CONFIG"
	ErrCodeUnknownBackend = "ATLAS_UNKNOWN_BACKEND"
	ErrCodeAuditError     = "ATLAS_AUDIT_ERROR"
)

// Mutex errors. Built-in backends return these values unchanged so callers
// may compare with == as well as by code.
var (
	ErrBadInput = errors.New(ErrCodeBadInput, "threading: bad input data")
	ErrMutex    = errors.New(ErrCodeMutexError, "threading: mutex error")
)

// HasCode reports whether err, or any error it wraps, carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if coder, ok := err.(errors.ErrorCoder); ok && string(coder.ErrorCode()) == code {
			return true
		}
		err = goerrors.Unwrap(err)
	}
	return false
}

// IsBadInput reports whether err is a BadInput failure.
func IsBadInput(err error) bool { return HasCode(err, ErrCodeBadInput) }

// IsMutexError reports whether err is a MutexError failure.
func IsMutexError(err error) bool { return HasCode(err, ErrCodeMutexError) }
