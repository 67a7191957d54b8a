// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package secrets contains types for secret sharing. When splitting a secret, a dealer needs
// to provide both the `secret` + `Metadata`. A dealer would then get a `Split`, which contains
// the `Metadata` and the secret shares.
package secrets

import (
	"errors"
	"math/big"

	"github.com/devvault/trustlayer/secret_sharing/finitefield"
)

var (
	// ErrInvalidParameters indicates share counts, thresholds or shares that
	// cannot be used, such as a threshold larger than the number of shares.
	ErrInvalidParameters = errors.New("secrets: invalid parameters")

	// ErrEncodingTooLarge indicates a secret whose big-endian integer encoding
	// is not smaller than the field order.
	ErrEncodingTooLarge = errors.New("secrets: secret encoding exceeds field size")

	// ErrInternalArithmetic indicates a field operation that should be
	// unreachable for valid input, such as inverting zero.
	ErrInternalArithmetic = errors.New("secrets: internal arithmetic error")

	// ErrNotUTF8 indicates a reconstructed secret that is not valid UTF-8 text.
	ErrNotUTF8 = errors.New("secrets: reconstructed secret is not valid UTF-8")
)

// Metadata contains the necessary secret sharing scheme information to split a secret.
type Metadata struct {
	Field     finitefield.ID
	NumShares int
	Threshold int
}

// Split represents a secret split into shares alongside the metadata used to create it.
type Split struct {
	Metadata Metadata
	Shares   []Share
}

// Share represents one point (X, Value) on the sharing polynomial.
type Share struct {
	X     int      `json:"index"`
	Value *big.Int `json:"value"`
}
