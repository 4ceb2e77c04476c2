// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errs defines the error kinds used across the ingestion and
// query layers. Handlers wrap a sentinel with
// fmt.Errorf("...: %w", ...) so callers can still errors.Is/As against
// the kind while getting a message with context.
package errs

import "errors"

var (
	// ErrCodec marks a malformed binary payload (instruction params,
	// account data) that failed to decode.
	ErrCodec = errors.New("codec error")

	// ErrBounds marks a u64->i64 (or similar) conversion that would
	// overflow the destination type.
	ErrBounds = errors.New("bounds error")

	// ErrArgument marks a bad API input, e.g. supplying both or neither
	// of owners/creators to the nfts query.
	ErrArgument = errors.New("argument error")

	// ErrStorage marks a connection, query, or constraint failure in
	// the store.
	ErrStorage = errors.New("storage error")

	// ErrNotFound marks a lookup that returned no row.
	ErrNotFound = errors.New("not found")

	// ErrUpstream marks a third-party HTTP failure.
	ErrUpstream = errors.New("upstream error")
)

// ArgumentError is the structured payload query-root argument errors
// surface: a machine-readable payload identifying the misused argument
// set.
type ArgumentError struct {
	Field   string // the argument name(s) at fault, e.g. "owners,creators"
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

func (e *ArgumentError) Unwrap() error {
	return ErrArgument
}

// NewArgumentError builds an ArgumentError identifying which field(s)
// were misused.
func NewArgumentError(field, message string) *ArgumentError {
	return &ArgumentError{Field: field, Message: message}
}
