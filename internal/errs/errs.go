/*
 * Copyright 2023 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package errs defines the error taxonomy shared by every subsystem of the
// diagram engine: the registry, the model store, the operation registry,
// the transaction manager, the conversion engine, and the Proteus exporter.
//
// Every externally visible failure carries a stable Code, a human-readable
// Message, and optional structured Details (the element/attribute/xpath for
// an XSD failure, the token index for a parse failure, the candidate list
// for an ambiguous target). Codes never change meaning once shipped; new
// codes may be added, existing ones are never repurposed.
package errs

import (
	"errors"
	"fmt"
)

// Code is a stable, externally visible error identifier.
type Code string

const (
	ModelNotFound           Code = "MODEL_NOT_FOUND"
	TransactionNotFound     Code = "TRANSACTION_NOT_FOUND"
	TransactionAlreadyActive Code = "TRANSACTION_ALREADY_ACTIVE"
	OperationNotFound       Code = "OPERATION_NOT_FOUND"
	InvalidPayload          Code = "INVALID_PAYLOAD"
	ValidationFailed        Code = "VALIDATION_FAILED"
	TagConflict             Code = "TAG_CONFLICT"
	TargetNotFound          Code = "TARGET_NOT_FOUND"
	TargetAmbiguous         Code = "TARGET_AMBIGUOUS"
	ConnectionInvalid       Code = "CONNECTION_INVALID"
	PositionOutOfRange      Code = "POSITION_OUT_OF_RANGE"
	SegmentsNotAdjacent     Code = "SEGMENTS_NOT_ADJACENT"
	TemplateNotFound        Code = "TEMPLATE_NOT_FOUND"
	UnknownKind             Code = "UNKNOWN_KIND"
	ParseError              Code = "PARSE_ERROR"
	XSDInvalid              Code = "XSD_INVALID"
	ReferenceUndefined      Code = "REFERENCE_UNDEFINED"
	TransactionFailed       Code = "TRANSACTION_FAILED"
)

// Error is the engine-wide structured error. It implements the standard
// error interface and supports errors.Is/errors.As via Unwrap.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail returns a copy of e with an additional detail key set. It is
// used to progressively annotate an error as it crosses subsystem
// boundaries (e.g. the conversion engine adds a token index, the operation
// registry later adds the operation name).
func (e *Error) WithDetail(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// New constructs a new Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a new Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs a new Error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the Code of err if it is (or wraps) an *Error, otherwise
// returns the empty Code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// Envelope is the external response shape from spec.md §6:
// {ok:false, error:{code, message, details?}}. Ok responses carry whatever
// payload the caller produced; Envelope only models the failure half, which
// is what every external entry point returns on error.
type Envelope struct {
	OK    bool         `json:"ok"`
	Error *EnvelopeErr `json:"error,omitempty"`
}

type EnvelopeErr struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToEnvelope converts any error into the external failure envelope. Errors
// that are not *Error are reported as TRANSACTION_FAILED with the original
// message, since an unexpected error crossing the boundary is itself a
// fail-loud event, never a silent 500.
func ToEnvelope(err error) Envelope {
	if err == nil {
		return Envelope{OK: true}
	}
	var e *Error
	if errors.As(err, &e) {
		return Envelope{OK: false, Error: &EnvelopeErr{Code: e.Code, Message: e.Message, Details: e.Details}}
	}
	return Envelope{OK: false, Error: &EnvelopeErr{Code: TransactionFailed, Message: err.Error()}}
}
